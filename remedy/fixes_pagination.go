package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// artifactPageDecoration retags an element holding a running header,
// footer or bare page number as an artifact. The geometric evidence
// comes from the finding itself, which the pagination checkpoint only
// emits for content inside the header and footer bands.
type artifactPageDecoration struct{}

func (*artifactPageDecoration) Name() string          { return "artifact-page-decoration" }
func (*artifactPageDecoration) Checkpoints() []string { return []string{"18-001", "18-002"} }

func (x *artifactPageDecoration) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonRunningHeaderTagged && f.Reason != checkpoint.ReasonPageNumberTagged {
		return false
	}
	n, ok := findingNode(f, in)
	if !ok || in.Tree.InsideArtifact(n.ID()) {
		return false
	}
	// Retagging the owner is only safe when it owns nothing but the
	// decoration; otherwise real content would vanish with it.
	return len(f.Refs) > 0 && ownsOnly(in, n, f)
}

func (x *artifactPageDecoration) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	old, err := in.Tree.ResolveNode(n)
	if err != nil {
		old = n.Tag()
	}
	tx := edit.NewTransaction("artifact page decoration").
		Retag(n.ID(), structure.TagArtifact).
		SetAttr(n.ID(), structure.AttrArtifactType, "Pagination").
		Build()
	diff := Diff{
		Label:    tx.Label,
		Retagged: []TagChange{{ID: n.ID(), Old: old, New: structure.TagArtifact}},
		Attrs:    []AttrChange{{ID: n.ID(), Key: structure.AttrArtifactType, Old: nil, New: "Pagination"}},
	}
	return tx, diff, nil
}

func (x *artifactPageDecoration) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *artifactPageDecoration) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// ownsOnly reports whether every content ref under the node is one the
// finding flagged.
func ownsOnly(in *checkpoint.Input, n *structure.Node, f checkpoint.Finding) bool {
	flagged := make(map[string]bool, len(f.Refs))
	for _, ref := range f.Refs {
		flagged[ref.String()] = true
	}
	refs, err := in.Tree.ContentRefs(n.ID())
	if err != nil {
		return false
	}
	for _, ref := range refs {
		if !flagged[ref.String()] {
			return false
		}
	}
	return true
}
