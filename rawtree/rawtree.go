// Package rawtree defines the wire shape exchanged with the PDF layer:
// the raw tag tree, role map and document metadata as extracted from (or
// re-embedded into) a file. The types are plain data; all semantics live
// in the structure package.
package rawtree

import "fmt"

// ContentRef points at one marked-content item on a page. Refs are
// identity-comparable and never own the content they point at.
type ContentRef struct {
	Page int
	MCID int
}

func (r ContentRef) String() string {
	return fmt.Sprintf("p%d/mcid%d", r.Page, r.MCID)
}

// Kid is one ordered child of a raw node: either a nested element or a
// marked-content reference. Exactly one of the two is set.
type Kid struct {
	Node *Node
	Ref  *ContentRef
}

// Node is one element of the raw tag tree. Tag is the structure type name
// as written in the file (standard or custom); Attrs carries the attribute
// dictionary with string, []string, int and bool values.
type Node struct {
	Tag   string
	Attrs map[string]interface{}
	Kids  []Kid
}

// RoleMap maps custom tag names to their target type name. Targets may
// themselves be custom; resolution is transitive.
type RoleMap map[string]string

// DocMeta carries the document-level entries relevant to conformance
// checking. The extraction layer fills it from the catalog, the Info
// dictionary and the XMP stream.
type DocMeta struct {
	Title              string
	Lang               string
	Marked             bool
	Suspects           bool
	DisplayDocTitle    bool
	HasXMP             bool
	XMPHasUAIdentifier bool
	XMPHasTitle        bool
}

// Document is the full payload handed over by the extraction layer and
// produced again on export.
type Document struct {
	Root    *Node
	RoleMap RoleMap
	Meta    DocMeta
}
