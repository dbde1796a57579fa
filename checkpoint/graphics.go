package checkpoint

import (
	"github.com/wudi/tagkit/structure"
)

// graphicsEvaluator covers checkpoint 13: every figure needs a text
// alternative. Figures buried inside an artifact subtree are invisible
// to assistive technology and are skipped here; checkpoint 01 reports
// structure inside artifacts.
type graphicsEvaluator struct{}

func (graphicsEvaluator) Group() string { return "13" }

func (graphicsEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *structure.Node) bool {
		rt, err := in.Tree.ResolveNode(n)
		if err != nil || rt != structure.TagFigure {
			return true
		}
		if in.Tree.InsideArtifact(n.ID()) {
			return true
		}
		attrs := n.Attrs()
		if attrs.Alt() == "" && attrs.ActualText() == "" {
			out = append(out, Finding{
				Checkpoint: "13-004",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{n.ID()},
				Refs:       n.Refs(),
				Reason:     ReasonFigureNoAlt,
			})
		}
		return true
	})
	return out
}
