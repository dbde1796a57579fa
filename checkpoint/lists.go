package checkpoint

import (
	"github.com/wudi/tagkit/structure"
)

// listsEvaluator covers checkpoint 16: lists hold list items, items
// carry a body, and labelled lists declare their numbering scheme.
type listsEvaluator struct{}

func (listsEvaluator) Group() string { return "16" }

func (listsEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	for _, lid := range in.Tree.NodesByTag(structure.TagL) {
		if in.Tree.InsideArtifact(lid) {
			continue
		}
		l, err := in.Tree.Node(lid)
		if err != nil {
			continue
		}
		labelled := false
		children, _ := in.Tree.Children(lid)
		for _, cid := range children {
			c, cerr := in.Tree.Node(cid)
			if cerr != nil {
				continue
			}
			rt, rerr := in.Tree.ResolveNode(c)
			if rerr != nil {
				continue
			}
			switch rt {
			case structure.TagLI:
				hasLbl, hasBody := itemParts(in, cid)
				if hasLbl {
					labelled = true
				}
				if !hasBody {
					out = append(out, Finding{
						Checkpoint: "16-002",
						Severity:   SeverityFailure,
						Nodes:      []structure.NodeID{cid},
						Reason:     ReasonListItemNoBody,
					})
				}
			case structure.TagCaption, structure.TagL:
				// a caption or a nested list is fine
			default:
				out = append(out, Finding{
					Checkpoint: "16-001",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{lid, cid},
					Reason:     ReasonListNonItemChild,
					Params:     map[string]string{"tag": rt.String()},
				})
			}
		}
		if labelled && !l.Attrs().Has(structure.AttrListNumbering) {
			out = append(out, Finding{
				Checkpoint: "16-003",
				Severity:   SeverityWarning,
				Nodes:      []structure.NodeID{lid},
				Reason:     ReasonListNumberingMissing,
			})
		}
	}
	return out
}

func itemParts(in *Input, li structure.NodeID) (hasLbl, hasBody bool) {
	children, _ := in.Tree.Children(li)
	for _, cid := range children {
		c, err := in.Tree.Node(cid)
		if err != nil {
			continue
		}
		switch rt, _ := in.Tree.ResolveNode(c); rt {
		case structure.TagLbl:
			hasLbl = true
		case structure.TagLBody:
			hasBody = true
		}
	}
	return hasLbl, hasBody
}
