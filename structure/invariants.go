package structure

import (
	"fmt"
	"sort"

	"github.com/wudi/tagkit/rawtree"
)

// Violations runs the five invariant checks over the whole tree and
// returns every violation found, in deterministic order. Documents often
// load with pre-existing violations; Apply rejects only transactions
// that introduce violations the tree did not already have.
func (t *Tree) Violations() ([]*InvariantViolation, error) {
	var out []*InvariantViolation
	out = append(out, t.checkParentChild()...)

	containment, err := t.checkContainment()
	if err != nil {
		return nil, err
	}
	out = append(out, containment...)
	out = append(out, t.checkContentOwnership()...)
	out = append(out, t.checkHeaderRefs()...)
	return out, nil
}

// checkParentChild verifies invariant 1: arena links are consistent in
// both directions, the root is the only parentless node, and every node
// is reachable from the root.
func (t *Tree) checkParentChild() []*InvariantViolation {
	var out []*InvariantViolation

	for _, id := range t.sortedIDs() {
		n := t.nodes[id]
		if id == t.root {
			if n.parent != 0 {
				out = append(out, &InvariantViolation{
					Invariant: InvParentChild, Nodes: []NodeID{id},
					Detail: "root has a parent",
				})
			}
			continue
		}
		p, ok := t.nodes[n.parent]
		if !ok {
			out = append(out, &InvariantViolation{
				Invariant: InvParentChild, Nodes: []NodeID{id},
				Detail: "parent missing from arena",
			})
			continue
		}
		if t.kidIndex(p, id) < 0 {
			out = append(out, &InvariantViolation{
				Invariant: InvParentChild, Nodes: []NodeID{id, n.parent},
				Detail: "child not listed by parent",
			})
		}
	}

	// Child slots must point back.
	for _, id := range t.sortedIDs() {
		n := t.nodes[id]
		seen := make(map[NodeID]bool)
		for _, k := range n.kids {
			if k.IsRef() {
				continue
			}
			c, ok := t.nodes[k.Node]
			if !ok {
				out = append(out, &InvariantViolation{
					Invariant: InvParentChild, Nodes: []NodeID{id, k.Node},
					Detail: "child missing from arena",
				})
				continue
			}
			if seen[k.Node] {
				out = append(out, &InvariantViolation{
					Invariant: InvParentChild, Nodes: []NodeID{id, k.Node},
					Detail: "duplicate child slot",
				})
			}
			seen[k.Node] = true
			if c.parent != id {
				out = append(out, &InvariantViolation{
					Invariant: InvParentChild, Nodes: []NodeID{id, k.Node},
					Detail: "child points at different parent",
				})
			}
		}
	}

	// Reachability: a consistent arena with per-node single parents can
	// still hide a detached cycle.
	reached := make(map[NodeID]bool, len(t.nodes))
	t.Walk(func(n *Node) bool { reached[n.id] = true; return true })
	for _, id := range t.sortedIDs() {
		if !reached[id] {
			out = append(out, &InvariantViolation{
				Invariant: InvParentChild, Nodes: []NodeID{id},
				Detail: "node unreachable from root",
			})
		}
	}
	return out
}

// checkContainment verifies invariant 2 against the containment rule
// table, after role-map resolution. Unresolvable custom tags abort with
// UnresolvedRoleError: legality cannot be judged without resolution.
func (t *Tree) checkContainment() ([]*InvariantViolation, error) {
	var out []*InvariantViolation
	var resolveErr error
	t.Walk(func(n *Node) bool {
		pt, err := t.ResolveNode(n)
		if err != nil {
			resolveErr = err
			return false
		}
		for _, k := range n.kids {
			if k.IsRef() {
				continue
			}
			c := t.nodes[k.Node]
			ct, err := t.ResolveNode(c)
			if err != nil {
				resolveErr = err
				return false
			}
			if !LegalChild(pt, ct) {
				out = append(out, &InvariantViolation{
					Invariant: InvContainment, Nodes: []NodeID{n.id, c.id},
					Detail: fmt.Sprintf("%s under %s", ct, pt),
				})
			}
		}
		return true
	})
	if resolveErr != nil {
		return nil, resolveErr
	}
	return out, nil
}

// checkContentOwnership verifies invariants 3 and 5: every content ref
// has a single owner, and no ref sits both under an artifact subtree and
// under real content. The artifact case is reported as invariant 5, the
// plain duplicate as invariant 3.
func (t *Tree) checkContentOwnership() []*InvariantViolation {
	type owner struct {
		node     NodeID
		artifact bool
	}
	owners := make(map[rawtree.ContentRef][]owner)
	var order []rawtree.ContentRef

	t.Walk(func(n *Node) bool {
		for _, k := range n.kids {
			if !k.IsRef() {
				continue
			}
			if _, ok := owners[*k.Ref]; !ok {
				order = append(order, *k.Ref)
			}
			owners[*k.Ref] = append(owners[*k.Ref], owner{node: n.id, artifact: t.InsideArtifact(n.id)})
		}
		return true
	})

	var out []*InvariantViolation
	for _, ref := range order {
		os := owners[ref]
		if len(os) < 2 {
			continue
		}
		nodes := make([]NodeID, len(os))
		mixed := false
		for i, o := range os {
			nodes[i] = o.node
			if o.artifact != os[0].artifact {
				mixed = true
			}
		}
		sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
		inv := InvContentOwnership
		detail := fmt.Sprintf("content %s owned by %d nodes", ref, len(os))
		if mixed {
			inv = InvArtifactExclusion
			detail = fmt.Sprintf("content %s tracked as both artifact and real content", ref)
		}
		out = append(out, &InvariantViolation{Invariant: inv, Nodes: nodes, Detail: detail})
	}
	return out
}

// checkHeaderRefs verifies invariant 4: every Headers attribute entry of
// a table cell names the ID of a header cell within the same table.
func (t *Tree) checkHeaderRefs() []*InvariantViolation {
	var out []*InvariantViolation
	for _, tableID := range t.NodesByTag(TagTable) {
		headerIDs := make(map[string]bool)
		t.walk(tableID, func(n *Node) bool {
			if rt, err := t.ResolveNode(n); err == nil && rt == TagTH {
				if id := n.attrs.ID(); id != "" {
					headerIDs[id] = true
				}
			}
			return true
		})
		t.walk(tableID, func(n *Node) bool {
			rt, err := t.ResolveNode(n)
			if err != nil || (rt != TagTD && rt != TagTH) {
				return true
			}
			for _, ref := range n.attrs.Headers() {
				if !headerIDs[ref] {
					out = append(out, &InvariantViolation{
						Invariant: InvHeaderRefs, Nodes: []NodeID{tableID, n.id},
						Detail: fmt.Sprintf("Headers entry %q does not name a header cell in this table", ref),
					})
				}
			}
			return true
		})
	}
	return out
}

// violationKey identifies a violation for the before/after comparison in
// Apply.
func violationKey(v *InvariantViolation) string {
	return fmt.Sprintf("%d|%v|%s", int(v.Invariant), v.Nodes, v.Detail)
}
