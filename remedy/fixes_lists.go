package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// wrapOrphanListItems rehomes a non-LI child of a list by wrapping it
// in a fresh LI/LBody pair at the same position.
type wrapOrphanListItems struct{}

func (*wrapOrphanListItems) Name() string          { return "wrap-orphan-list-items" }
func (*wrapOrphanListItems) Checkpoints() []string { return []string{"16-001"} }

func (x *wrapOrphanListItems) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonListNonItemChild || len(f.Nodes) < 2 {
		return false
	}
	child, err := in.Tree.Node(f.Nodes[1])
	if err != nil {
		return false
	}
	rt, rerr := in.Tree.ResolveNode(child)
	return rerr == nil && rt != structure.TagLI
}

func (x *wrapOrphanListItems) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	if len(f.Nodes) < 2 {
		return structure.Transaction{}, Diff{}, nil
	}
	list, child := f.Nodes[0], f.Nodes[1]
	l, err := in.Tree.Node(list)
	if err != nil {
		return structure.Transaction{}, Diff{}, err
	}
	pos := kidPosition(l, child)

	li := in.Tree.NextID()
	body := li + 1
	tx := edit.NewTransaction("wrap orphan list child").
		InsertWithID(li, list, pos, structure.TagLI, nil).
		InsertWithID(body, li, 0, structure.TagLBody, nil).
		Move(child, body, 0).
		Build()
	diff := Diff{
		Label: tx.Label,
		Added: []AddedNode{
			{ID: li, Parent: list, Tag: structure.TagLI},
			{ID: body, Parent: li, Tag: structure.TagLBody},
		},
		Moved: []MoveChange{{ID: child, OldParent: list, NewParent: body}},
	}
	return tx, diff, nil
}

func (x *wrapOrphanListItems) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *wrapOrphanListItems) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// wrapListItemBody gives an LI without an LBody one, moving every
// non-Lbl kid into it.
type wrapListItemBody struct{}

func (*wrapListItemBody) Name() string          { return "wrap-li-body" }
func (*wrapListItemBody) Checkpoints() []string { return []string{"16-002"} }

func (x *wrapListItemBody) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	n, ok := findingNode(f, in)
	if !ok {
		return false
	}
	rt, err := in.Tree.ResolveNode(n)
	if err != nil || rt != structure.TagLI {
		return false
	}
	children, _ := in.Tree.Children(n.ID())
	for _, cid := range children {
		c, cerr := in.Tree.Node(cid)
		if cerr != nil {
			continue
		}
		if crt, _ := in.Tree.ResolveNode(c); crt == structure.TagLBody {
			return false
		}
	}
	return true
}

func (x *wrapListItemBody) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	li := n.ID()
	body := in.Tree.NextID()
	b := edit.NewTransaction("wrap list item body").
		InsertWithID(body, li, -1, structure.TagLBody, nil)
	diff := Diff{
		Label: "wrap list item body",
		Added: []AddedNode{{ID: body, Parent: li, Tag: structure.TagLBody}},
	}

	children, _ := in.Tree.Children(li)
	moved := 0
	for _, cid := range children {
		c, cerr := in.Tree.Node(cid)
		if cerr != nil {
			continue
		}
		if crt, _ := in.Tree.ResolveNode(c); crt == structure.TagLbl {
			continue
		}
		b.Move(cid, body, moved)
		diff.Moved = append(diff.Moved, MoveChange{ID: cid, OldParent: li, NewParent: body})
		moved++
	}
	return b.Build(), diff, nil
}

func (x *wrapListItemBody) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *wrapListItemBody) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// kidPosition returns the kid-slot index of child under parent, or -1.
func kidPosition(parent *structure.Node, child structure.NodeID) int {
	for i, k := range parent.Kids() {
		if !k.IsRef() && k.Node == child {
			return i
		}
	}
	return -1
}
