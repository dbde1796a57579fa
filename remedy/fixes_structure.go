package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// retagIllegalNesting retags a child that is illegal under its parent
// to the nearest type the parent admits, falling back to Div for
// grouping parents and Span for inline ones.
type retagIllegalNesting struct{}

func (*retagIllegalNesting) Name() string          { return "retag-illegal-nesting" }
func (*retagIllegalNesting) Checkpoints() []string { return []string{"09-002"} }

func (x *retagIllegalNesting) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonIllegalContainment || len(f.Nodes) < 2 {
		return false
	}
	_, ok := replacementTag(f, in)
	return ok
}

func (x *retagIllegalNesting) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	repl, ok := replacementTag(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	child, err := in.Tree.Node(f.Nodes[1])
	if err != nil {
		return structure.Transaction{}, Diff{}, err
	}
	old, rerr := in.Tree.ResolveNode(child)
	if rerr != nil {
		old = child.Tag()
	}
	tx := edit.NewTransaction("retag illegal nesting").
		Retag(child.ID(), repl).
		Build()
	diff := Diff{
		Label:    tx.Label,
		Retagged: []TagChange{{ID: child.ID(), Old: old, New: repl}},
	}
	return tx, diff, nil
}

func (x *retagIllegalNesting) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *retagIllegalNesting) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// replacementTag picks the retag target for an illegal child: Div where
// the parent admits it, Span where it admits that instead. A parent
// admitting neither has no generic repair.
func replacementTag(f checkpoint.Finding, in *checkpoint.Input) (structure.TagType, bool) {
	parent, err := in.Tree.Node(f.Nodes[0])
	if err != nil {
		return 0, false
	}
	child, err := in.Tree.Node(f.Nodes[1])
	if err != nil {
		return 0, false
	}
	pt, perr := in.Tree.ResolveNode(parent)
	ct, cerr := in.Tree.ResolveNode(child)
	if perr != nil || cerr != nil {
		return 0, false
	}
	if structure.LegalChild(pt, ct) {
		return 0, false // already repaired
	}
	for _, cand := range []structure.TagType{structure.TagDiv, structure.TagSpan, structure.TagP} {
		if structure.LegalChild(pt, cand) {
			return cand, true
		}
	}
	return 0, false
}

// removeEmptyElements drops an element with no children, no content
// and no semantic attributes.
type removeEmptyElements struct{}

func (*removeEmptyElements) Name() string          { return "remove-empty-elements" }
func (*removeEmptyElements) Checkpoints() []string { return []string{"09-003"} }

func (x *removeEmptyElements) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonEmptyElement {
		return false
	}
	n, ok := findingNode(f, in)
	if !ok || n.ID() == in.Tree.Root() {
		return false
	}
	if n.NumKids() > 0 {
		return false
	}
	attrs := n.Attrs()
	return attrs.Alt() == "" && attrs.ActualText() == "" && attrs.ID() == ""
}

func (x *removeEmptyElements) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	tx := edit.NewTransaction("remove empty element").
		Remove(n.ID()).
		Build()
	diff := Diff{
		Label:   tx.Label,
		Removed: []structure.NodeID{n.ID()},
	}
	return tx, diff, nil
}

func (x *removeEmptyElements) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *removeEmptyElements) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}
