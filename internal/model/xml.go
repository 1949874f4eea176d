package model

import "strings"

// XMLDocument is a parsed XML file. Only tag names can be rewritten, so the
// original bytes are kept and renames are spliced in when printing.
type XMLDocument struct {
	Base

	Path Path
	Raw  []byte
	Root *XMLTag
}

// XMLAttr is a single attribute.
type XMLAttr struct {
	Name  string
	Value string
}

// XMLTag is an element. NameOffset and EndNameOffset point at the tag name
// in the start and end tags; EndNameOffset is -1 for self-closing tags.
type XMLTag struct {
	Base

	Name          string
	OrigName      string
	Attrs         []XMLAttr
	Children      []*XMLTag
	Text          string
	NameOffset    int
	EndNameOffset int
}

// LocalName returns the tag name without its namespace prefix.
func (t *XMLTag) LocalName() string {
	if i := strings.IndexByte(t.Name, ':'); i >= 0 {
		return t.Name[i+1:]
	}

	return t.Name
}

// Attr returns the value of the named attribute.
func (t *XMLTag) Attr(name string) (string, bool) {
	for _, a := range t.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}

	return "", false
}

// ParentTag returns the enclosing tag or nil.
func (t *XMLTag) ParentTag() *XMLTag {
	p, _ := t.parent.(*XMLTag)
	return p
}

func (*XMLDocument) Kind() Kind { return KindXMLDocument }
func (*XMLTag) Kind() Kind      { return KindXMLTag }
