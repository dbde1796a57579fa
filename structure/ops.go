package structure

import (
	"fmt"

	"github.com/wudi/tagkit/rawtree"
)

// Op is one primitive mutation. Every op has a well-defined inverse,
// computed while it is applied so previous values are captured exactly.
type Op interface {
	// apply mutates the tree and returns the inverse op.
	apply(t *Tree) (Op, error)
	// Describe returns a short machine name for diffs and logs.
	Describe() string
}

// Transaction is an ordered sequence of primitive ops applied
// atomically. Transactions are plain values; building one does not touch
// any tree.
type Transaction struct {
	Label string
	Ops   []Op
}

// InsertNode inserts a new element under Parent at kid position Index
// (clamped to the kid count; negative appends). If ID is zero the tree
// assigns a fresh id. A nonzero ID reinstates that exact id: inverses
// use it to restore removed nodes, and callers may pass ids reserved
// via Tree.NextID to address a node later in the same transaction.
type InsertNode struct {
	Parent NodeID
	Index  int
	Tag    TagType
	Custom string
	Attrs  Attributes
	ID     NodeID
}

func (op InsertNode) Describe() string { return "insert-node" }

func (op InsertNode) apply(t *Tree) (Op, error) {
	p, err := t.Node(op.Parent)
	if err != nil {
		return nil, err
	}
	id := op.ID
	if id == 0 {
		id = t.allocID()
	} else {
		if _, exists := t.nodes[id]; exists {
			return nil, fmt.Errorf("structure: insert: id %d already in use", id)
		}
		t.reserveID(id)
	}
	n := &Node{id: id, tag: op.Tag, custom: op.Custom, parent: op.Parent, attrs: op.Attrs.clone()}
	t.nodes[id] = n
	idx := clampIndex(op.Index, len(p.kids))
	p.kids = insertKid(p.kids, idx, Kid{Node: id})
	return RemoveNode{ID: id}, nil
}

// RemoveNode detaches the subtree rooted at ID and drops it from the
// arena. Removing the root is not a primitive; retag it instead.
type RemoveNode struct {
	ID NodeID
}

func (op RemoveNode) Describe() string { return "remove-node" }

func (op RemoveNode) apply(t *Tree) (Op, error) {
	n, err := t.Node(op.ID)
	if err != nil {
		return nil, err
	}
	if op.ID == t.root {
		return nil, fmt.Errorf("structure: remove: cannot remove the root")
	}
	p := t.nodes[n.parent]
	idx := t.kidIndex(p, op.ID)
	if idx < 0 {
		return nil, &InvariantViolation{Invariant: InvParentChild, Nodes: []NodeID{n.parent, op.ID}, Detail: "child not listed by parent"}
	}
	snap := t.snapshot(op.ID)
	p.kids = removeKid(p.kids, idx)
	t.dropSubtree(op.ID)
	return insertSubtree{Parent: p.id, Index: idx, Snap: snap}, nil
}

// MoveNode reparents ID under NewParent at kid position Index.
type MoveNode struct {
	ID        NodeID
	NewParent NodeID
	Index     int
}

func (op MoveNode) Describe() string { return "move-node" }

func (op MoveNode) apply(t *Tree) (Op, error) {
	n, err := t.Node(op.ID)
	if err != nil {
		return nil, err
	}
	np, err := t.Node(op.NewParent)
	if err != nil {
		return nil, err
	}
	if op.ID == t.root {
		return nil, fmt.Errorf("structure: move: cannot move the root")
	}
	// Reparenting under the node's own subtree would orphan it.
	for cur := op.NewParent; cur != 0; cur = t.nodes[cur].parent {
		if cur == op.ID {
			return nil, &InvariantViolation{Invariant: InvParentChild, Nodes: []NodeID{op.ID, op.NewParent}, Detail: "move target inside moved subtree"}
		}
	}
	oldParent := t.nodes[n.parent]
	oldIdx := t.kidIndex(oldParent, op.ID)
	oldParent.kids = removeKid(oldParent.kids, oldIdx)
	idx := clampIndex(op.Index, len(np.kids))
	np.kids = insertKid(np.kids, idx, Kid{Node: op.ID})
	n.parent = op.NewParent
	return MoveNode{ID: op.ID, NewParent: oldParent.id, Index: oldIdx}, nil
}

// SetAttr sets one attribute on ID. A nil Value deletes the attribute.
type SetAttr struct {
	ID    NodeID
	Key   string
	Value interface{}
}

func (op SetAttr) Describe() string { return "set-attr" }

func (op SetAttr) apply(t *Tree) (Op, error) {
	n, err := t.Node(op.ID)
	if err != nil {
		return nil, err
	}
	prev, had := n.attrs[op.Key]
	inv := SetAttr{ID: op.ID, Key: op.Key, Value: prev}
	if !had {
		inv.Value = nil
	}
	if op.Value == nil {
		delete(n.attrs, op.Key)
		return inv, nil
	}
	if n.attrs == nil {
		n.attrs = make(Attributes)
	}
	n.attrs[op.Key] = op.Value
	return inv, nil
}

// Retag changes a node's tag type in place.
type Retag struct {
	ID     NodeID
	Tag    TagType
	Custom string
}

func (op Retag) Describe() string { return "retag" }

func (op Retag) apply(t *Tree) (Op, error) {
	n, err := t.Node(op.ID)
	if err != nil {
		return nil, err
	}
	inv := Retag{ID: op.ID, Tag: n.tag, Custom: n.custom}
	n.tag = op.Tag
	n.custom = op.Custom
	return inv, nil
}

// SetRole sets one role-map entry. An empty MapsTo deletes the entry.
type SetRole struct {
	Tag    string
	MapsTo string
}

func (op SetRole) Describe() string { return "set-role" }

func (op SetRole) apply(t *Tree) (Op, error) {
	prev := t.roleMap[op.Tag]
	inv := SetRole{Tag: op.Tag, MapsTo: prev}
	if op.MapsTo == "" {
		delete(t.roleMap, op.Tag)
	} else {
		t.roleMap[op.Tag] = op.MapsTo
	}
	t.invalidateRoleCache()
	return inv, nil
}

// SetMeta sets one document metadata field.
type SetMeta struct {
	Field MetaField
	Value interface{}
}

// MetaField names a DocMeta field addressable by SetMeta.
type MetaField string

const (
	MetaTitle           MetaField = "Title"
	MetaLang            MetaField = "Lang"
	MetaMarked          MetaField = "Marked"
	MetaSuspects        MetaField = "Suspects"
	MetaDisplayDocTitle MetaField = "DisplayDocTitle"
)

func (op SetMeta) Describe() string { return "set-meta" }

func (op SetMeta) apply(t *Tree) (Op, error) {
	get := func() (interface{}, error) {
		switch op.Field {
		case MetaTitle:
			return t.meta.Title, nil
		case MetaLang:
			return t.meta.Lang, nil
		case MetaMarked:
			return t.meta.Marked, nil
		case MetaSuspects:
			return t.meta.Suspects, nil
		case MetaDisplayDocTitle:
			return t.meta.DisplayDocTitle, nil
		}
		return nil, fmt.Errorf("structure: set-meta: unknown field %q", op.Field)
	}
	prev, err := get()
	if err != nil {
		return nil, err
	}
	switch op.Field {
	case MetaTitle, MetaLang:
		s, ok := op.Value.(string)
		if !ok {
			return nil, fmt.Errorf("structure: set-meta: %s wants a string", op.Field)
		}
		if op.Field == MetaTitle {
			t.meta.Title = s
		} else {
			t.meta.Lang = s
		}
	default:
		b, ok := op.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("structure: set-meta: %s wants a bool", op.Field)
		}
		switch op.Field {
		case MetaMarked:
			t.meta.Marked = b
		case MetaSuspects:
			t.meta.Suspects = b
		case MetaDisplayDocTitle:
			t.meta.DisplayDocTitle = b
		}
	}
	return SetMeta{Field: op.Field, Value: prev}, nil
}

// InsertContent attaches a content ref as a kid of Parent at Index.
type InsertContent struct {
	Parent NodeID
	Index  int
	Ref    rawtree.ContentRef
}

func (op InsertContent) Describe() string { return "insert-content" }

func (op InsertContent) apply(t *Tree) (Op, error) {
	p, err := t.Node(op.Parent)
	if err != nil {
		return nil, err
	}
	idx := clampIndex(op.Index, len(p.kids))
	ref := op.Ref
	p.kids = insertKid(p.kids, idx, Kid{Ref: &ref})
	return RemoveContent{Parent: op.Parent, Ref: op.Ref}, nil
}

// RemoveContent detaches a content ref from Parent.
type RemoveContent struct {
	Parent NodeID
	Ref    rawtree.ContentRef
}

func (op RemoveContent) Describe() string { return "remove-content" }

func (op RemoveContent) apply(t *Tree) (Op, error) {
	p, err := t.Node(op.Parent)
	if err != nil {
		return nil, err
	}
	for i, k := range p.kids {
		if k.IsRef() && *k.Ref == op.Ref {
			p.kids = removeKid(p.kids, i)
			return InsertContent{Parent: op.Parent, Index: i, Ref: op.Ref}, nil
		}
	}
	return nil, fmt.Errorf("structure: remove-content: %s not under node %d", op.Ref, op.Parent)
}

// nodeSnap is a deep snapshot of a detached subtree, preserving ids so
// undo reinstates the exact structure.
type nodeSnap struct {
	id     NodeID
	tag    TagType
	custom string
	attrs  Attributes
	kids   []kidSnap
}

type kidSnap struct {
	node *nodeSnap
	ref  *rawtree.ContentRef
}

func (t *Tree) snapshot(id NodeID) *nodeSnap {
	n := t.nodes[id]
	s := &nodeSnap{id: n.id, tag: n.tag, custom: n.custom, attrs: n.attrs.clone()}
	for _, k := range n.kids {
		if k.IsRef() {
			ref := *k.Ref
			s.kids = append(s.kids, kidSnap{ref: &ref})
		} else {
			s.kids = append(s.kids, kidSnap{node: t.snapshot(k.Node)})
		}
	}
	return s
}

func (t *Tree) dropSubtree(id NodeID) {
	n := t.nodes[id]
	for _, k := range n.kids {
		if !k.IsRef() {
			t.dropSubtree(k.Node)
		}
	}
	delete(t.nodes, id)
}

// insertSubtree reinstates a snapshotted subtree; it is only ever
// produced as the inverse of RemoveNode.
type insertSubtree struct {
	Parent NodeID
	Index  int
	Snap   *nodeSnap
}

func (op insertSubtree) Describe() string { return "insert-subtree" }

func (op insertSubtree) apply(t *Tree) (Op, error) {
	p, err := t.Node(op.Parent)
	if err != nil {
		return nil, err
	}
	if err := op.checkFree(t, op.Snap); err != nil {
		return nil, err
	}
	t.restore(op.Snap, op.Parent)
	idx := clampIndex(op.Index, len(p.kids))
	p.kids = insertKid(p.kids, idx, Kid{Node: op.Snap.id})
	return RemoveNode{ID: op.Snap.id}, nil
}

func (op insertSubtree) checkFree(t *Tree, s *nodeSnap) error {
	if _, exists := t.nodes[s.id]; exists {
		return fmt.Errorf("structure: insert-subtree: id %d already in use", s.id)
	}
	for _, k := range s.kids {
		if k.node != nil {
			if err := op.checkFree(t, k.node); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tree) restore(s *nodeSnap, parent NodeID) {
	t.reserveID(s.id)
	n := &Node{id: s.id, tag: s.tag, custom: s.custom, parent: parent, attrs: s.attrs.clone()}
	for _, k := range s.kids {
		if k.ref != nil {
			ref := *k.ref
			n.kids = append(n.kids, Kid{Ref: &ref})
		} else {
			t.restore(k.node, s.id)
			n.kids = append(n.kids, Kid{Node: k.node.id})
		}
	}
	t.nodes[s.id] = n
}

func clampIndex(idx, n int) int {
	if idx < 0 || idx > n {
		return n
	}
	return idx
}

func insertKid(kids []Kid, idx int, k Kid) []Kid {
	kids = append(kids, Kid{})
	copy(kids[idx+1:], kids[idx:])
	kids[idx] = k
	return kids
}

func removeKid(kids []Kid, idx int) []Kid {
	return append(kids[:idx], kids[idx+1:]...)
}
