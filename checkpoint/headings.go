package checkpoint

import (
	"fmt"

	"github.com/wudi/tagkit/structure"
)

// headingsEvaluator covers checkpoint 14: numbered headings must start
// at H1 and never skip a level on the way down.
type headingsEvaluator struct{}

func (headingsEvaluator) Group() string { return "14" }

func (headingsEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
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
		switch {
		case prev == 0 && level != 1:
			out = append(out, Finding{
				Checkpoint: "14-002",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{n.ID()},
				Reason:     ReasonFirstHeadingNotH1,
				Params:     map[string]string{"level": fmt.Sprint(level)},
			})
		case level > prev+1:
			out = append(out, Finding{
				Checkpoint: "14-003",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{n.ID()},
				Reason:     ReasonHeadingLevelSkipped,
				Params: map[string]string{
					"previous": fmt.Sprint(prev),
					"level":    fmt.Sprint(level),
				},
			})
		}
		prev = level
		return true
	})
	return out
}
