package model

// Path represents a file system path.
type Path string

// FileKind classifies the inputs cleanspring reads.
type FileKind string

const (
	// FileJava is a Java compilation unit.
	FileJava FileKind = "java"

	// FileXML is a Spring bean definition or deployment descriptor.
	FileXML FileKind = "xml"
)

// File represents a discovered source file.
type File struct {
	Path Path
	Kind FileKind
	Hash string
}
