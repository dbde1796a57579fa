package checkpoint

import (
	"fmt"

	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// tagsEvaluator covers checkpoint 09: semantically appropriate nesting
// and logical reading order.
type tagsEvaluator struct{}

func (tagsEvaluator) Group() string { return "09" }

func (tagsEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	out = append(out, nestingFindings(in)...)
	out = append(out, readingOrderFindings(in)...)
	out = append(out, emptyElementFindings(in)...)
	return out
}

// nestingFindings reports containment rule breaches as conformance
// findings. Loaded documents routinely carry these; the transaction
// layer only prevents edits from adding more.
func nestingFindings(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *structure.Node) bool {
		pt, err := in.Tree.ResolveNode(n)
		if err != nil {
			return true // reported by checkpoint 02
		}
		children, _ := in.Tree.Children(n.ID())
		for _, cid := range children {
			c, cerr := in.Tree.Node(cid)
			if cerr != nil {
				continue
			}
			ct, cerr2 := in.Tree.ResolveNode(c)
			if cerr2 != nil {
				continue
			}
			if !structure.LegalChild(pt, ct) {
				out = append(out, Finding{
					Checkpoint: "09-002",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{n.ID(), cid},
					Reason:     ReasonIllegalContainment,
					Params: map[string]string{
						"parent": pt.String(),
						"child":  ct.String(),
					},
				})
			}
		}
		return true
	})
	return out
}

// readingOrderFindings checks that, per page, the order in which the
// tree reaches content matches the page's reading sequence.
func readingOrderFindings(in *Input) []Finding {
	if !in.HasContentIndex() {
		return []Finding{{
			Checkpoint: "09-001",
			Severity:   SeverityNeedsReview,
			Reason:     ReasonNoContentIndex,
		}}
	}

	var out []Finding
	lastOrder := make(map[int]int) // page -> last seen reading position
	lastRef := make(map[int]rawtree.ContentRef)
	in.Tree.Walk(func(n *structure.Node) bool {
		if in.Tree.InsideArtifact(n.ID()) {
			return true
		}
		for _, ref := range n.Refs() {
			item, ok := in.Content.Lookup(ref)
			if !ok {
				continue
			}
			if prev, seen := lastOrder[ref.Page]; seen && item.Order < prev {
				out = append(out, Finding{
					Checkpoint: "09-001",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{n.ID()},
					Refs:       []rawtree.ContentRef{lastRef[ref.Page], ref},
					Reason:     ReasonReadingOrder,
					Params:     map[string]string{"page": fmt.Sprint(ref.Page)},
				})
			}
			lastOrder[ref.Page] = item.Order
			lastRef[ref.Page] = ref
		}
		return true
	})
	return out
}

// emptyElementFindings flags elements that hold no content, no children
// and no semantic attributes. The original tagger leaves these behind.
func emptyElementFindings(in *Input) []Finding {
	var out []Finding
	in.Tree.Walk(func(n *structure.Node) bool {
		if n.ID() == in.Tree.Root() || n.NumKids() > 0 {
			return true
		}
		attrs := n.Attrs()
		if attrs.Alt() != "" || attrs.ActualText() != "" || attrs.ID() != "" {
			return true
		}
		// Empty table cells are legitimate empty data; artifacts carry
		// no semantics to begin with.
		switch rt, err := in.Tree.ResolveNode(n); {
		case err != nil:
			return true
		case rt == structure.TagArtifact, rt == structure.TagTD, rt == structure.TagTH, rt == structure.TagTR:
			return true
		}
		out = append(out, Finding{
			Checkpoint: "09-003",
			Severity:   SeverityWarning,
			Nodes:      []structure.NodeID{n.ID()},
			Reason:     ReasonEmptyElement,
		})
		return true
	})
	return out
}
