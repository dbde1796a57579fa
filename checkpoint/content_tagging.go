package checkpoint

import (
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// contentTaggingEvaluator covers checkpoint 01: every piece of real
// content is tagged, artifacts stay out of the structure tree, and the
// two classifications never mix.
type contentTaggingEvaluator struct{}

func (contentTaggingEvaluator) Group() string { return "01" }

func (contentTaggingEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding

	if in.Meta().Suspects {
		out = append(out, Finding{
			Checkpoint: "01-007",
			Severity:   SeverityFailure,
			Reason:     ReasonSuspects,
		})
	}
	if !in.Meta().Marked {
		out = append(out, Finding{
			Checkpoint: "01-008",
			Severity:   SeverityFailure,
			Reason:     ReasonNotMarked,
		})
	}

	if !in.HasContentIndex() {
		out = append(out, Finding{
			Checkpoint: "01-005",
			Severity:   SeverityNeedsReview,
			Reason:     ReasonNoContentIndex,
		})
		return out
	}

	// Ownership map: which node claims each ref, and whether that node
	// sits inside an artifact subtree.
	type owner struct {
		node     structure.NodeID
		artifact bool
	}
	owned := make(map[rawtree.ContentRef]owner)
	in.Tree.Walk(func(n *structure.Node) bool {
		art := in.Tree.InsideArtifact(n.ID())
		for _, ref := range n.Refs() {
			if _, dup := owned[ref]; !dup {
				owned[ref] = owner{node: n.ID(), artifact: art}
			}
		}
		return true
	})

	for _, page := range in.Content.Pages() {
		p := in.Content.Page(page)
		for _, item := range p.Items {
			o, tagged := owned[item.Ref]
			switch {
			case !tagged && !item.Artifact:
				// 01-005: real content that no structure element claims.
				out = append(out, Finding{
					Checkpoint: "01-005",
					Severity:   SeverityFailure,
					Refs:       []rawtree.ContentRef{item.Ref},
					Reason:     ReasonUntaggedContent,
				})
			case tagged && item.Artifact && !o.artifact:
				// 01-003: the content stream says artifact, the tree says
				// real content.
				out = append(out, Finding{
					Checkpoint: "01-003",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{o.node},
					Refs:       []rawtree.ContentRef{item.Ref},
					Reason:     ReasonArtifactContentTagged,
				})
			case tagged && !item.Artifact && o.artifact:
				// 01-004: real content demoted under an artifact subtree.
				out = append(out, Finding{
					Checkpoint: "01-004",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{o.node},
					Refs:       []rawtree.ContentRef{item.Ref},
					Reason:     ReasonTaggedContentArtifact,
				})
			}
		}
	}
	return out
}
