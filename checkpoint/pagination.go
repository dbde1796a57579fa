package checkpoint

import (
	"strconv"
	"strings"

	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// bandFrac is the slice of page height treated as the running header
// and footer zone.
const bandFrac = 0.08

// paginationEvaluator covers checkpoint 18: running headers, footers
// and page numbers are decoration and must be artifacts, not tagged
// content.
type paginationEvaluator struct{}

func (paginationEvaluator) Group() string { return "18" }

func (paginationEvaluator) Evaluate(in *Input) []Finding {
	if !in.HasContentIndex() {
		return []Finding{{
			Checkpoint: "18-001",
			Severity:   SeverityNeedsReview,
			Reason:     ReasonNoContentIndex,
		}}
	}

	var out []Finding

	// Count how often each text recurs in the band zones so one-off
	// text near a margin is not mistaken for a running header.
	recurring := make(map[string]int)
	for _, pn := range in.Content.Pages() {
		page := in.Content.Page(pn)
		seen := make(map[string]bool)
		for _, item := range bandItems(page) {
			key := strings.TrimSpace(item.Text)
			if key != "" && !seen[key] {
				seen[key] = true
				recurring[key]++
			}
		}
	}

	for _, pn := range in.Content.Pages() {
		page := in.Content.Page(pn)
		for _, item := range bandItems(page) {
			owner, ok := in.Tree.ContentOwner(item.Ref)
			if !ok || in.Tree.InsideArtifact(owner) {
				continue
			}
			text := strings.TrimSpace(item.Text)
			switch {
			case looksLikePageNumber(text):
				out = append(out, Finding{
					Checkpoint: "18-002",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{owner},
					Refs:       []rawtree.ContentRef{item.Ref},
					Reason:     ReasonPageNumberTagged,
					Params:     map[string]string{"text": text},
				})
			case text != "" && recurring[text] >= 3:
				out = append(out, Finding{
					Checkpoint: "18-001",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{owner},
					Refs:       []rawtree.ContentRef{item.Ref},
					Reason:     ReasonRunningHeaderTagged,
					Params:     map[string]string{"text": text},
				})
			}
		}
	}
	return out
}

func bandItems(p *content.Page) []*content.Marked {
	items := p.QueryRect(p.HeaderBand(bandFrac))
	items = append(items, p.QueryRect(p.FooterBand(bandFrac))...)
	var out []*content.Marked
	for _, item := range items {
		if item.Kind == content.KindText {
			out = append(out, item)
		}
	}
	return out
}

// looksLikePageNumber matches bare numbers and the common
// "Page N [of M]" patterns.
func looksLikePageNumber(text string) bool {
	if text == "" {
		return false
	}
	if _, err := strconv.Atoi(text); err == nil {
		return true
	}
	fields := strings.Fields(strings.ToLower(text))
	switch len(fields) {
	case 2:
		if fields[0] != "page" {
			return false
		}
		_, err := strconv.Atoi(fields[1])
		return err == nil
	case 4:
		if fields[0] != "page" || fields[2] != "of" {
			return false
		}
		_, err1 := strconv.Atoi(fields[1])
		_, err2 := strconv.Atoi(fields[3])
		return err1 == nil && err2 == nil
	}
	return false
}
