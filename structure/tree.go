// Package structure holds the in-memory model of a document's logical
// structure: the tagged element tree, its role map and document-level
// metadata. The model is read-only from the outside; the only way to
// change it is Apply, which validates a whole transaction against the
// structural invariants before committing.
package structure

import (
	"sort"

	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/rawtree"
)

// NodeID is a stable handle to a node in the tree's arena. IDs survive
// undo/redo: re-inserting an undone subtree reinstates its original IDs.
// The zero NodeID is never used.
type NodeID int

// Kid is one ordered child slot of a node: either a nested element or a
// marked-content reference. Exactly one field is set.
type Kid struct {
	Node NodeID
	Ref  *rawtree.ContentRef
}

// IsRef reports whether the kid is a content reference.
func (k Kid) IsRef() bool { return k.Ref != nil }

// Node is one element of the structure tree. Nodes are owned by their
// Tree and must not be retained across transactions.
type Node struct {
	id     NodeID
	tag    TagType
	custom string // raw tag name when tag == TagCustom
	parent NodeID // 0 for the root
	kids   []Kid
	attrs  Attributes
}

func (n *Node) ID() NodeID     { return n.id }
func (n *Node) Tag() TagType   { return n.tag }
func (n *Node) Parent() NodeID { return n.parent }
func (n *Node) NumKids() int   { return len(n.kids) }

// CustomTag returns the raw tag name for custom-tagged nodes, "" otherwise.
func (n *Node) CustomTag() string { return n.custom }

// TagName returns the tag name as it would be written to the file.
func (n *Node) TagName() string {
	if n.tag == TagCustom {
		return n.custom
	}
	return n.tag.String()
}

// Kids returns a copy of the node's ordered child slots.
func (n *Node) Kids() []Kid {
	return append([]Kid(nil), n.kids...)
}

// Refs returns the content references directly owned by the node, in order.
func (n *Node) Refs() []rawtree.ContentRef {
	var refs []rawtree.ContentRef
	for _, k := range n.kids {
		if k.IsRef() {
			refs = append(refs, *k.Ref)
		}
	}
	return refs
}

// Attrs returns a copy of the node's attributes.
func (n *Node) Attrs() Attributes { return n.attrs.clone() }

// Attr returns one attribute value, or nil.
func (n *Node) Attr(key string) interface{} { return n.attrs[key] }

// Tree is the structure tree model of one document.
type Tree struct {
	nodes    map[NodeID]*Node
	root     NodeID
	next     NodeID
	roleMap  rawtree.RoleMap
	meta     rawtree.DocMeta
	revision uint64
	closed   bool
	log      observability.Logger

	// resolution cache, invalidated by SetRole ops
	resolved map[string]TagType
}

// Revision returns the number of committed transactions since load.
func (t *Tree) Revision() uint64 { return t.revision }

// Root returns the root node id.
func (t *Tree) Root() NodeID { return t.root }

// Meta returns the document-level metadata.
func (t *Tree) Meta() rawtree.DocMeta { return t.meta }

// RoleMap returns a copy of the current role map.
func (t *Tree) RoleMap() rawtree.RoleMap {
	rm := make(rawtree.RoleMap, len(t.roleMap))
	for k, v := range t.roleMap {
		rm[k] = v
	}
	return rm
}

// Len returns the number of nodes in the tree.
func (t *Tree) Len() int { return len(t.nodes) }

// Node returns the node for id, or a NotFoundError for stale ids.
func (t *Tree) Node(id NodeID) (*Node, error) {
	n, ok := t.nodes[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

// Children returns the ordered child node ids of id, skipping content refs.
func (t *Tree) Children(id NodeID) ([]NodeID, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	var out []NodeID
	for _, k := range n.kids {
		if !k.IsRef() {
			out = append(out, k.Node)
		}
	}
	return out, nil
}

// Ancestors returns the ancestor chain of id, nearest first, root last.
func (t *Tree) Ancestors(id NodeID) ([]NodeID, error) {
	n, err := t.Node(id)
	if err != nil {
		return nil, err
	}
	var out []NodeID
	for n.parent != 0 {
		out = append(out, n.parent)
		n = t.nodes[n.parent]
	}
	return out, nil
}

// Walk visits the tree in pre-order. Returning false from fn skips the
// node's subtree.
func (t *Tree) Walk(fn func(n *Node) bool) {
	if t.root == 0 {
		return
	}
	t.walk(t.root, fn)
}

func (t *Tree) walk(id NodeID, fn func(n *Node) bool) {
	n := t.nodes[id]
	if n == nil || !fn(n) {
		return
	}
	for _, k := range n.kids {
		if !k.IsRef() {
			t.walk(k.Node, fn)
		}
	}
}

// PreOrder returns every node id in pre-order.
func (t *Tree) PreOrder() []NodeID {
	out := make([]NodeID, 0, len(t.nodes))
	t.Walk(func(n *Node) bool {
		out = append(out, n.id)
		return true
	})
	return out
}

// PreOrderIndex returns each node's position in pre-order traversal.
func (t *Tree) PreOrderIndex() map[NodeID]int {
	idx := make(map[NodeID]int, len(t.nodes))
	for i, id := range t.PreOrder() {
		idx[id] = i
	}
	return idx
}

// ContentOwner returns the node directly owning ref, if any.
func (t *Tree) ContentOwner(ref rawtree.ContentRef) (NodeID, bool) {
	var owner NodeID
	t.Walk(func(n *Node) bool {
		if owner != 0 {
			return false
		}
		for _, k := range n.kids {
			if k.IsRef() && *k.Ref == ref {
				owner = n.id
				return false
			}
		}
		return true
	})
	return owner, owner != 0
}

// ContentRefs returns all content refs in the subtree rooted at id, in
// document order.
func (t *Tree) ContentRefs(id NodeID) ([]rawtree.ContentRef, error) {
	if _, err := t.Node(id); err != nil {
		return nil, err
	}
	var refs []rawtree.ContentRef
	t.collectRefs(id, &refs)
	return refs, nil
}

func (t *Tree) collectRefs(id NodeID, refs *[]rawtree.ContentRef) {
	n := t.nodes[id]
	for _, k := range n.kids {
		if k.IsRef() {
			*refs = append(*refs, *k.Ref)
		} else {
			t.collectRefs(k.Node, refs)
		}
	}
}

// InsideArtifact reports whether id or one of its ancestors resolves to
// Artifact.
func (t *Tree) InsideArtifact(id NodeID) bool {
	for cur := id; cur != 0; {
		n, ok := t.nodes[cur]
		if !ok {
			return false
		}
		if rt, err := t.ResolveNode(n); err == nil && rt == TagArtifact {
			return true
		}
		cur = n.parent
	}
	return false
}

// NodesByTag returns the ids of all nodes whose resolved type is tag, in
// pre-order. Unresolvable custom nodes are skipped.
func (t *Tree) NodesByTag(tag TagType) []NodeID {
	var out []NodeID
	t.Walk(func(n *Node) bool {
		if rt, err := t.ResolveNode(n); err == nil && rt == tag {
			out = append(out, n.id)
		}
		return true
	})
	return out
}

// NodeByAttrID returns the node carrying the given ID attribute within
// the subtree rooted at root.
func (t *Tree) NodeByAttrID(root NodeID, attrID string) (NodeID, bool) {
	var found NodeID
	t.walk(root, func(n *Node) bool {
		if found != 0 {
			return false
		}
		if n.attrs.ID() == attrID {
			found = n.id
			return false
		}
		return true
	})
	return found, found != 0
}

// kidIndex returns the position of child within parent's kid slots.
func (t *Tree) kidIndex(parent *Node, child NodeID) int {
	for i, k := range parent.kids {
		if !k.IsRef() && k.Node == child {
			return i
		}
	}
	return -1
}

// sortedIDs returns all arena ids in ascending order; used by tests and
// export for stable iteration.
func (t *Tree) sortedIDs() []NodeID {
	ids := make([]NodeID, 0, len(t.nodes))
	for id := range t.nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// NextID returns the id the next inserted node will receive. A
// transaction inserting several nodes can address them before Apply as
// NextID(), NextID()+1, ... provided each InsertNode carries its id
// explicitly.
func (t *Tree) NextID() NodeID { return t.next + 1 }

func (t *Tree) allocID() NodeID {
	t.next++
	return t.next
}

// reserveID marks id as used so later allocations never collide with
// re-inserted (undone) nodes.
func (t *Tree) reserveID(id NodeID) {
	if id > t.next {
		t.next = id
	}
}
