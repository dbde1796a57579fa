package remedy

import (
	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// previewFix and applyFix route the two Fix entry points through one
// plan, so a preview always matches what an application would do.
func previewFix(p planner, f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	_, d, err := p.plan(f, in)
	return d, err
}

func applyFix(p planner, f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	tx, d, err := p.plan(f, in)
	if err != nil {
		return Diff{}, err
	}
	if len(tx.Ops) == 0 {
		return d, nil
	}
	if _, err := h.Commit(tx); err != nil {
		return Diff{}, err
	}
	return d, nil
}

// fallbackLang is used when the document gives no hint at all. The
// value is deliberately visible in the report so a reviewer can correct
// it rather than ship a silent wrong guess.
const fallbackLang = "en"

// setDocumentLanguage sets the document default language, preferring
// the first language any element declares.
type setDocumentLanguage struct{}

func (*setDocumentLanguage) Name() string          { return "set-document-language" }
func (*setDocumentLanguage) Checkpoints() []string { return []string{"11-001"} }

func (x *setDocumentLanguage) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	return in.Meta().Lang == ""
}

func (x *setDocumentLanguage) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	lang := firstElementLang(in)
	if lang == "" {
		lang = fallbackLang
	}
	tx := edit.NewTransaction("set document language").
		SetMeta(structure.MetaLang, lang).
		Build()
	diff := Diff{
		Label: tx.Label,
		Meta:  []MetaChange{{Field: structure.MetaLang, Old: in.Meta().Lang, New: lang}},
	}
	return tx, diff, nil
}

func (x *setDocumentLanguage) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *setDocumentLanguage) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

func firstElementLang(in *checkpoint.Input) string {
	lang := ""
	in.Tree.Walk(func(n *structure.Node) bool {
		if l := n.Attrs().Lang(); l != "" {
			lang = l
			return false
		}
		return true
	})
	return lang
}

// setDocumentTitle derives a dc:title from the first heading when the
// metadata carries none.
type setDocumentTitle struct{}

func (*setDocumentTitle) Name() string          { return "set-document-title" }
func (*setDocumentTitle) Checkpoints() []string { return []string{"06-003", "07-002"} }

func (x *setDocumentTitle) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	return in.Meta().Title == "" && headingText(in) != ""
}

func (x *setDocumentTitle) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	title := headingText(in)
	tx := edit.NewTransaction("set document title").
		SetMeta(structure.MetaTitle, title).
		Build()
	diff := Diff{
		Label: tx.Label,
		Meta:  []MetaChange{{Field: structure.MetaTitle, Old: in.Meta().Title, New: title}},
	}
	return tx, diff, nil
}

func (x *setDocumentTitle) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *setDocumentTitle) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// headingText returns the text content of the first heading, falling
// back to its ActualText attribute when no content index is attached.
func headingText(in *checkpoint.Input) string {
	title := ""
	in.Tree.Walk(func(n *structure.Node) bool {
		rt, err := in.Tree.ResolveNode(n)
		if err != nil || !rt.IsHeading() {
			return true
		}
		if at := n.Attrs().ActualText(); at != "" {
			title = at
			return false
		}
		if in.HasContentIndex() {
			for _, ref := range n.Refs() {
				if item, ok := in.Content.Lookup(ref); ok && item.Text != "" {
					title = item.Text
					return false
				}
			}
		}
		return true
	})
	return title
}

// setDisplayDocTitle flips the viewer preference so the title, not the
// file name, is announced.
type setDisplayDocTitle struct{}

func (*setDisplayDocTitle) Name() string          { return "set-display-doc-title" }
func (*setDisplayDocTitle) Checkpoints() []string { return []string{"07-001"} }

func (x *setDisplayDocTitle) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	return !in.Meta().DisplayDocTitle
}

func (x *setDisplayDocTitle) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	tx := edit.NewTransaction("set DisplayDocTitle").
		SetMeta(structure.MetaDisplayDocTitle, true).
		Build()
	diff := Diff{
		Label: tx.Label,
		Meta:  []MetaChange{{Field: structure.MetaDisplayDocTitle, Old: false, New: true}},
	}
	return tx, diff, nil
}

func (x *setDisplayDocTitle) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *setDisplayDocTitle) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}
