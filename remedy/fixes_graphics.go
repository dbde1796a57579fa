package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// altFromActualText copies an existing ActualText onto the Alt
// attribute of a figure or formula that lacks one. It never invents
// text.
type altFromActualText struct{}

func (*altFromActualText) Name() string          { return "alt-from-actual-text" }
func (*altFromActualText) Checkpoints() []string { return []string{"13-004", "17-001"} }

func (x *altFromActualText) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	n, ok := findingNode(f, in)
	if !ok {
		return false
	}
	return n.Attrs().Alt() == "" && n.Attrs().ActualText() != ""
}

func (x *altFromActualText) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	alt := n.Attrs().ActualText()
	tx := edit.NewTransaction("copy ActualText to Alt").
		SetAttr(n.ID(), structure.AttrAlt, alt).
		Build()
	diff := Diff{
		Label: tx.Label,
		Attrs: []AttrChange{{ID: n.ID(), Key: structure.AttrAlt, Old: nil, New: alt}},
	}
	return tx, diff, nil
}

func (x *altFromActualText) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *altFromActualText) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// artifactDecorativeFigure retags a figure with no alternative and no
// text content as an artifact, taking it out of the logical structure.
// Only figures whose content is purely graphical qualify.
type artifactDecorativeFigure struct{}

func (*artifactDecorativeFigure) Name() string          { return "artifact-decorative-figure" }
func (*artifactDecorativeFigure) Checkpoints() []string { return []string{"13-004"} }

func (x *artifactDecorativeFigure) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	n, ok := findingNode(f, in)
	if !ok {
		return false
	}
	rt, err := in.Tree.ResolveNode(n)
	if err != nil || rt != structure.TagFigure {
		return false
	}
	if n.Attrs().Alt() != "" || n.Attrs().ActualText() != "" {
		return false
	}
	if n.NumKids() > len(n.Refs()) { // has element children
		return false
	}
	if !in.HasContentIndex() {
		return false // cannot prove the content is decorative
	}
	for _, ref := range n.Refs() {
		item, ok := in.Content.Lookup(ref)
		if !ok || item.Kind == content.KindText {
			return false
		}
	}
	return true
}

func (x *artifactDecorativeFigure) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	tx := edit.NewTransaction("artifact decorative figure").
		Retag(n.ID(), structure.TagArtifact).
		Build()
	diff := Diff{
		Label:    tx.Label,
		Retagged: []TagChange{{ID: n.ID(), Old: structure.TagFigure, New: structure.TagArtifact}},
	}
	return tx, diff, nil
}

func (x *artifactDecorativeFigure) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *artifactDecorativeFigure) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// findingNode resolves the first node a finding points at.
func findingNode(f checkpoint.Finding, in *checkpoint.Input) (*structure.Node, bool) {
	if len(f.Nodes) == 0 {
		return nil, false
	}
	n, err := in.Tree.Node(f.Nodes[0])
	if err != nil {
		return nil, false
	}
	return n, true
}
