package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// normalizeHeadingLevels walks the heading sequence and pulls every
// heading up to the deepest level its predecessor permits, so the
// outline never skips a level and starts at H1.
type normalizeHeadingLevels struct{}

func (*normalizeHeadingLevels) Name() string          { return "normalize-heading-levels" }
func (*normalizeHeadingLevels) Checkpoints() []string { return []string{"14-002", "14-003"} }

func (x *normalizeHeadingLevels) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	return len(headingRetags(in)) > 0
}

// target is the document root: the outline is repaired as a whole, so
// every 14-* finding collapses to one application.
func (x *normalizeHeadingLevels) target(f checkpoint.Finding, in *checkpoint.Input) (structure.NodeID, bool) {
	return in.Tree.Root(), true
}

func (x *normalizeHeadingLevels) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	retags := headingRetags(in)
	b := edit.NewTransaction("normalize heading levels")
	diff := Diff{Label: "normalize heading levels"}
	for _, r := range retags {
		b.Retag(r.ID, r.New)
		diff.Retagged = append(diff.Retagged, r)
	}
	return b.Build(), diff, nil
}

func (x *normalizeHeadingLevels) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *normalizeHeadingLevels) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// headingRetags computes the minimal set of retags that makes the
// heading sequence well-formed. The whole sequence is planned in one
// transaction because fixing one level shifts what the next may be.
func headingRetags(in *checkpoint.Input) []TagChange {
	var out []TagChange
	prev := 0
	in.Tree.Walk(func(n *structure.Node) bool {
		rt, err := in.Tree.ResolveNode(n)
		if err != nil || !rt.IsHeading() {
			return true
		}
		if in.Tree.InsideArtifact(n.ID()) {
			return true
		}
		level := rt.HeadingLevel()
		want := level
		if level > prev+1 {
			want = prev + 1
		}
		if want != level {
			tag, ok := structure.HeadingForLevel(want)
			if ok {
				out = append(out, TagChange{ID: n.ID(), Old: rt, New: tag})
			}
		}
		prev = want
		return true
	})
	return out
}
