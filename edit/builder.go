package edit

import (
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// Builder assembles a transaction from primitive edit requests, in the
// order the manual-editing surface submits them.
type Builder struct {
	label string
	ops   []structure.Op
}

// NewTransaction starts a transaction with a user-visible label.
func NewTransaction(label string) *Builder {
	return &Builder{label: label}
}

// Insert adds a new element under parent at kid position index
// (negative appends).
func (b *Builder) Insert(parent structure.NodeID, index int, tag structure.TagType, attrs structure.Attributes) *Builder {
	b.ops = append(b.ops, structure.InsertNode{Parent: parent, Index: index, Tag: tag, Attrs: attrs})
	return b
}

// InsertCustom adds a new custom-tagged element.
func (b *Builder) InsertCustom(parent structure.NodeID, index int, tagName string, attrs structure.Attributes) *Builder {
	b.ops = append(b.ops, structure.InsertNode{Parent: parent, Index: index, Tag: structure.TagCustom, Custom: tagName, Attrs: attrs})
	return b
}

// InsertWithID adds a new element under a pre-computed id (taken from
// Tree.NextID) so later ops in the same transaction can address it.
func (b *Builder) InsertWithID(id, parent structure.NodeID, index int, tag structure.TagType, attrs structure.Attributes) *Builder {
	b.ops = append(b.ops, structure.InsertNode{Parent: parent, Index: index, Tag: tag, Attrs: attrs, ID: id})
	return b
}

// Remove detaches the subtree rooted at id.
func (b *Builder) Remove(id structure.NodeID) *Builder {
	b.ops = append(b.ops, structure.RemoveNode{ID: id})
	return b
}

// Move reparents id under newParent at kid position index.
func (b *Builder) Move(id, newParent structure.NodeID, index int) *Builder {
	b.ops = append(b.ops, structure.MoveNode{ID: id, NewParent: newParent, Index: index})
	return b
}

// SetAttr sets an attribute; a nil value deletes it.
func (b *Builder) SetAttr(id structure.NodeID, key string, value interface{}) *Builder {
	b.ops = append(b.ops, structure.SetAttr{ID: id, Key: key, Value: value})
	return b
}

// Retag changes a node's structure type.
func (b *Builder) Retag(id structure.NodeID, tag structure.TagType) *Builder {
	b.ops = append(b.ops, structure.Retag{ID: id, Tag: tag})
	return b
}

// RetagCustom changes a node to a custom tag name.
func (b *Builder) RetagCustom(id structure.NodeID, tagName string) *Builder {
	b.ops = append(b.ops, structure.Retag{ID: id, Tag: structure.TagCustom, Custom: tagName})
	return b
}

// SetRole sets a role-map entry; an empty target deletes it.
func (b *Builder) SetRole(tag, mapsTo string) *Builder {
	b.ops = append(b.ops, structure.SetRole{Tag: tag, MapsTo: mapsTo})
	return b
}

// SetMeta sets a document metadata field.
func (b *Builder) SetMeta(field structure.MetaField, value interface{}) *Builder {
	b.ops = append(b.ops, structure.SetMeta{Field: field, Value: value})
	return b
}

// AttachContent attaches a marked-content ref under parent.
func (b *Builder) AttachContent(parent structure.NodeID, index int, ref rawtree.ContentRef) *Builder {
	b.ops = append(b.ops, structure.InsertContent{Parent: parent, Index: index, Ref: ref})
	return b
}

// DetachContent removes a marked-content ref from parent.
func (b *Builder) DetachContent(parent structure.NodeID, ref rawtree.ContentRef) *Builder {
	b.ops = append(b.ops, structure.RemoveContent{Parent: parent, Ref: ref})
	return b
}

// Op appends an already-built primitive.
func (b *Builder) Op(op structure.Op) *Builder {
	b.ops = append(b.ops, op)
	return b
}

// Len returns the number of ops queued so far.
func (b *Builder) Len() int { return len(b.ops) }

// Build returns the transaction value.
func (b *Builder) Build() structure.Transaction {
	return structure.Transaction{Label: b.label, Ops: b.ops}
}
