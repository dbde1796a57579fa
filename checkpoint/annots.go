package checkpoint

import (
	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/structure"
)

// annotationsEvaluator covers checkpoint 28: link elements need a
// textual description and must actually wrap content.
type annotationsEvaluator struct{}

func (annotationsEvaluator) Group() string { return "28" }

func (annotationsEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	for _, lid := range in.Tree.NodesByTag(structure.TagLink) {
		if in.Tree.InsideArtifact(lid) {
			continue
		}
		l, err := in.Tree.Node(lid)
		if err != nil {
			continue
		}
		refs, _ := in.Tree.ContentRefs(lid)
		if l.NumKids() == 0 && len(refs) == 0 {
			out = append(out, Finding{
				Checkpoint: "28-011",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{lid},
				Reason:     ReasonLinkEmpty,
			})
			continue
		}
		if l.Attrs().Alt() == "" && !linkHasText(in, lid) {
			out = append(out, Finding{
				Checkpoint: "28-004",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{lid},
				Refs:       refs,
				Reason:     ReasonLinkNoDescription,
			})
		}
	}
	return out
}

// linkHasText reports whether any content reachable from the link is
// text the reader can announce. Without a content index the structure
// alone cannot tell, so the link is given the benefit of the doubt.
func linkHasText(in *Input, id structure.NodeID) bool {
	refs, err := in.Tree.ContentRefs(id)
	if err != nil {
		return false
	}
	if !in.HasContentIndex() {
		return len(refs) > 0
	}
	for _, ref := range refs {
		if item, ok := in.Content.Lookup(ref); ok && item.Kind == content.KindText && item.Text != "" {
			return true
		}
	}
	return false
}
