package remedy

import "github.com/wudi/tagkit/structure"

// Diff describes the structural effect of a fix: what a preview shows
// and what an application did.
type Diff struct {
	Label    string
	Added    []AddedNode
	Removed  []structure.NodeID
	Moved    []MoveChange
	Retagged []TagChange
	Attrs    []AttrChange
	Meta     []MetaChange
}

// Empty reports whether the diff changes nothing.
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Removed) == 0 && len(d.Moved) == 0 &&
		len(d.Retagged) == 0 && len(d.Attrs) == 0 && len(d.Meta) == 0
}

// AddedNode is a node the fix creates.
type AddedNode struct {
	ID     structure.NodeID
	Parent structure.NodeID
	Tag    structure.TagType
}

// MoveChange reparents a node.
type MoveChange struct {
	ID        structure.NodeID
	OldParent structure.NodeID
	NewParent structure.NodeID
}

// TagChange rewrites a node's structure type.
type TagChange struct {
	ID  structure.NodeID
	Old structure.TagType
	New structure.TagType
}

// AttrChange sets or clears one attribute.
type AttrChange struct {
	ID  structure.NodeID
	Key string
	Old interface{}
	New interface{} // nil means the attribute is removed
}

// MetaChange sets one document metadata field.
type MetaChange struct {
	Field structure.MetaField
	Old   interface{}
	New   interface{}
}
