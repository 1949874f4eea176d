package adapter

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	m "cleanspring.dev/pkg/cleanspring/internal/model"
)

// XMLAdapter reads Spring bean definitions and deployment descriptors and
// writes them back with renamed tags spliced into the original bytes.
type XMLAdapter interface {
	ParseDocument(path m.Path, src []byte) (*m.XMLDocument, error)
	PrintDocument(doc *m.XMLDocument) []byte
}

// RawXMLAdapter is the encoding/xml based XMLAdapter.
type RawXMLAdapter struct{}

// NewRawXMLAdapter constructs a RawXMLAdapter.
func NewRawXMLAdapter() *RawXMLAdapter {
	return &RawXMLAdapter{}
}

// ParseDocument builds the tag tree of src, recording where every tag name sits.
func (a *RawXMLAdapter) ParseDocument(path m.Path, src []byte) (*m.XMLDocument, error) {
	doc := &m.XMLDocument{Path: path, Raw: src}
	doc.Src = string(src)

	dec := xml.NewDecoder(bytes.NewReader(src))
	dec.Strict = false

	var stack []*m.XMLTag

	for {
		offset := int(dec.InputOffset())

		tok, err := dec.RawToken()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			end := int(dec.InputOffset())
			tag := &m.XMLTag{
				Name:          qualified(t.Name),
				NameOffset:    offset + 1,
				EndNameOffset: -1,
			}
			tag.OrigName = tag.Name
			tag.Src = string(src[offset:end])

			for _, attr := range t.Attr {
				tag.Attrs = append(tag.Attrs, m.XMLAttr{Name: qualified(attr.Name), Value: attr.Value})
			}

			if len(stack) == 0 {
				if doc.Root == nil {
					doc.Root = tag
				}
			} else {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, tag)
			}

			stack = append(stack, tag)
		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("parsing %s: unbalanced </%s>", path, qualified(t.Name))
			}

			tag := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if int(dec.InputOffset()) > offset {
				tag.EndNameOffset = offset + 2
			}
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += strings.TrimSpace(string(t))
			}
		}
	}

	if doc.Root == nil {
		return nil, fmt.Errorf("parsing %s: no root element", path)
	}

	m.Link(doc)

	return doc, nil
}

func qualified(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}

	return n.Space + ":" + n.Local
}

type splice struct {
	at      int
	oldLen  int
	newText string
}

// PrintDocument returns the original bytes with every renamed tag updated.
func (a *RawXMLAdapter) PrintDocument(doc *m.XMLDocument) []byte {
	var edits []splice

	m.Walk(doc, func(n m.Node) bool {
		tag, ok := n.(*m.XMLTag)
		if !ok || tag.Name == tag.OrigName {
			return true
		}

		edits = append(edits, splice{at: tag.NameOffset, oldLen: len(tag.OrigName), newText: tag.Name})
		if tag.EndNameOffset >= 0 {
			edits = append(edits, splice{at: tag.EndNameOffset, oldLen: len(tag.OrigName), newText: tag.Name})
		}

		return true
	})

	if len(edits) == 0 {
		return doc.Raw
	}

	sort.Slice(edits, func(i, j int) bool { return edits[i].at < edits[j].at })

	var out bytes.Buffer

	cursor := 0
	for _, e := range edits {
		out.Write(doc.Raw[cursor:e.at])
		out.WriteString(e.newText)
		cursor = e.at + e.oldLen
	}

	out.Write(doc.Raw[cursor:])

	return out.Bytes()
}
