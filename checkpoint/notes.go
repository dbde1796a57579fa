package checkpoint

import (
	"github.com/wudi/tagkit/structure"
)

// notesEvaluator covers checkpoint 19: notes and footnotes need unique
// IDs so references can point back at them.
type notesEvaluator struct{}

func (notesEvaluator) Group() string { return "19" }

func (notesEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	seen := make(map[string]structure.NodeID)
	for _, nid := range in.Tree.NodesByTag(structure.TagNote) {
		if in.Tree.InsideArtifact(nid) {
			continue
		}
		n, err := in.Tree.Node(nid)
		if err != nil {
			continue
		}
		id := n.Attrs().ID()
		if id == "" {
			out = append(out, Finding{
				Checkpoint: "19-001",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{nid},
				Reason:     ReasonNoteIDMissing,
			})
			continue
		}
		if first, dup := seen[id]; dup {
			out = append(out, Finding{
				Checkpoint: "19-002",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{first, nid},
				Reason:     ReasonNoteIDDuplicate,
				Params:     map[string]string{"id": id},
			})
			continue
		}
		seen[id] = nid
	}
	return out
}
