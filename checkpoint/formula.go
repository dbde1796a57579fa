package checkpoint

import (
	"github.com/wudi/tagkit/structure"
)

// formulaEvaluator covers checkpoint 17: formulas need an alternative
// representation that a screen reader can speak.
type formulaEvaluator struct{}

func (formulaEvaluator) Group() string { return "17" }

func (formulaEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	for _, fid := range in.Tree.NodesByTag(structure.TagFormula) {
		if in.Tree.InsideArtifact(fid) {
			continue
		}
		f, err := in.Tree.Node(fid)
		if err != nil {
			continue
		}
		attrs := f.Attrs()
		if attrs.Alt() == "" && attrs.ActualText() == "" {
			out = append(out, Finding{
				Checkpoint: "17-001",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{fid},
				Refs:       f.Refs(),
				Reason:     ReasonFormulaNoAlt,
			})
		}
	}
	return out
}
