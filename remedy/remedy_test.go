package remedy_test

import (
	"context"
	"strings"
	"testing"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/remedy"
	"github.com/wudi/tagkit/structure"
)

func loadHistory(t *testing.T, doc rawtree.Document) *edit.History {
	t.Helper()
	tree, err := structure.Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return edit.NewHistory(tree, observability.NopLogger{})
}

func analyze(t *testing.T, h *edit.History) []checkpoint.Finding {
	t.Helper()
	in := checkpoint.NewInput(h.Tree(), nil)
	findings, err := checkpoint.NewEngine().Run(context.Background(), in)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	return findings
}

func clauseFindings(findings []checkpoint.Finding, prefix string) []checkpoint.Finding {
	var out []checkpoint.Finding
	for _, f := range findings {
		if strings.HasPrefix(f.Checkpoint, prefix) {
			out = append(out, f)
		}
	}
	return out
}

// headerlessTable is a 2x3 table: two header cells in row 0 without
// Scope, two data rows without Headers.
func headerlessTable() rawtree.Document {
	row := func(tag string) *rawtree.Node {
		return &rawtree.Node{Tag: "TR", Kids: []rawtree.Kid{
			{Node: &rawtree.Node{Tag: tag}},
			{Node: &rawtree.Node{Tag: tag}},
		}}
	}
	table := &rawtree.Node{Tag: "Table", Kids: []rawtree.Kid{
		{Node: row("TH")},
		{Node: row("TD")},
		{Node: row("TD")},
	}}
	return rawtree.Document{
		Root: &rawtree.Node{Tag: "Document", Kids: []rawtree.Kid{{Node: table}}},
		Meta: rawtree.DocMeta{
			Title: "Tables", Lang: "en", Marked: true, DisplayDocTitle: true,
			HasXMP: true, XMPHasUAIdentifier: true, XMPHasTitle: true,
		},
	}
}

func TestTableHeaderRepairEndToEnd(t *testing.T) {
	h := loadHistory(t, headerlessTable())
	findings := analyze(t, h)

	if got := clauseFindings(findings, "15-003"); len(got) != 2 {
		t.Fatalf("expected 2 scope findings, got %d", len(got))
	}
	if got := clauseFindings(findings, "15-005"); len(got) != 4 {
		t.Fatalf("expected 4 association findings, got %d", len(got))
	}

	catalog := remedy.DefaultCatalog()
	items := catalog.Batch(h, nil, findings)
	applied := 0
	for _, item := range items {
		if item.Outcome == remedy.Applied {
			applied++
			if item.Fix != "infer-table-header-scope" {
				t.Errorf("unexpected fix applied: %s", item.Fix)
			}
		}
		if item.Outcome == remedy.Rejected {
			t.Errorf("fix rejected: %v", item.Err)
		}
	}
	if applied != 1 {
		t.Fatalf("expected the table repaired once, got %d applications", applied)
	}
	// All six findings resolve to the same table, so the batch carries
	// one entry for the table fix rather than one per cell.
	tableItems := 0
	for _, item := range items {
		if item.Fix == "infer-table-header-scope" {
			tableItems++
		}
	}
	if tableItems != 1 {
		t.Fatalf("expected one batch entry for the table, got %d", tableItems)
	}

	after := analyze(t, h)
	if got := clauseFindings(after, "15-"); len(got) != 0 {
		t.Fatalf("table findings remain after repair: %+v", got)
	}

	// Header cells got scoped and identified, data cells associated.
	tree := h.Tree()
	for _, id := range tree.NodesByTag(structure.TagTH) {
		n, _ := tree.Node(id)
		if n.Attrs().Scope() != "Column" {
			t.Errorf("TH %d scope = %q, want Column", id, n.Attrs().Scope())
		}
		if n.Attrs().ID() == "" {
			t.Errorf("TH %d has no ID", id)
		}
	}
	for _, id := range tree.NodesByTag(structure.TagTD) {
		n, _ := tree.Node(id)
		if len(n.Attrs().Headers()) == 0 {
			t.Errorf("TD %d has no Headers refs", id)
		}
	}
}

func TestFixIdempotence(t *testing.T) {
	h := loadHistory(t, headerlessTable())
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	fix, ok := catalog.Lookup("infer-table-header-scope")
	if !ok {
		t.Fatal("fix missing from catalog")
	}
	target := clauseFindings(findings, "15-003")[0]
	in := checkpoint.NewInput(h.Tree(), nil)
	if !fix.AppliesTo(target, in) {
		t.Fatal("fix should apply before repair")
	}
	diff, err := fix.Apply(target, h, in)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if diff.Empty() {
		t.Fatal("expected a non-empty diff")
	}

	in = checkpoint.NewInput(h.Tree(), nil)
	if fix.AppliesTo(target, in) {
		t.Error("fix must not apply to its own output")
	}
}

func TestPreviewDoesNotMutate(t *testing.T) {
	h := loadHistory(t, headerlessTable())
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	fix, _ := catalog.Lookup("infer-table-header-scope")
	in := checkpoint.NewInput(h.Tree(), nil)
	diff, err := fix.Preview(clauseFindings(findings, "15-003")[0], in)
	if err != nil {
		t.Fatalf("Preview failed: %v", err)
	}
	if diff.Empty() {
		t.Fatal("expected a preview diff")
	}
	if h.Tree().Revision() != 0 {
		t.Error("preview must not commit")
	}
	if h.CanUndo() {
		t.Error("preview must not enter the history")
	}
}

func TestRemediationIsUndoable(t *testing.T) {
	h := loadHistory(t, headerlessTable())
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	catalog.Batch(h, nil, findings)
	if !h.CanUndo() {
		t.Fatal("batch application must be undoable")
	}
	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	again := analyze(t, h)
	if got := clauseFindings(again, "15-003"); len(got) != 2 {
		t.Errorf("undo did not restore the unrepaired table, got %d scope findings", len(got))
	}
}

func TestSetDocumentLanguageFix(t *testing.T) {
	doc := headerlessTable()
	doc.Meta.Lang = ""
	doc.Root.Kids = append(doc.Root.Kids, rawtree.Kid{
		Node: &rawtree.Node{Tag: "P", Attrs: map[string]interface{}{"Lang": "de"}},
	})
	h := loadHistory(t, doc)
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	items := catalog.Batch(h, nil, clauseFindings(findings, "11-001"))
	if len(items) == 0 || items[0].Outcome != remedy.Applied {
		t.Fatalf("expected language fix applied: %+v", items)
	}
	if got := h.Tree().Meta().Lang; got != "de" {
		t.Errorf("expected language inherited from content, got %q", got)
	}
}

func TestAltFromActualTextFix(t *testing.T) {
	doc := headerlessTable()
	doc.Root.Kids = append(doc.Root.Kids, rawtree.Kid{
		Node: &rawtree.Node{Tag: "Figure", Attrs: map[string]interface{}{"ActualText": "A chart"}},
	})
	h := loadHistory(t, doc)
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	items := catalog.Batch(h, nil, clauseFindings(findings, "13-004"))
	found := false
	for _, item := range items {
		if item.Fix == "alt-from-actual-text" && item.Outcome == remedy.Applied {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected alt-from-actual-text applied: %+v", items)
	}
	figs := h.Tree().NodesByTag(structure.TagFigure)
	n, _ := h.Tree().Node(figs[0])
	if n.Attrs().Alt() != "A chart" {
		t.Errorf("Alt not copied: %q", n.Attrs().Alt())
	}
}

func TestWrapOrphanListChild(t *testing.T) {
	doc := headerlessTable()
	doc.Root.Kids = append(doc.Root.Kids, rawtree.Kid{
		Node: &rawtree.Node{Tag: "L", Kids: []rawtree.Kid{
			{Node: &rawtree.Node{Tag: "P"}},
		}},
	})
	h := loadHistory(t, doc)
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	items := catalog.Batch(h, nil, clauseFindings(findings, "16-001"))
	if len(items) == 0 || items[0].Outcome != remedy.Applied {
		t.Fatalf("expected wrap fix applied: %+v", items)
	}

	tree := h.Tree()
	lists := tree.NodesByTag(structure.TagL)
	kids, _ := tree.Children(lists[0])
	if len(kids) != 1 {
		t.Fatalf("expected a single LI under the list, got %d", len(kids))
	}
	li, _ := tree.Node(kids[0])
	if li.Tag() != structure.TagLI {
		t.Fatalf("expected LI wrapper, got %s", li.TagName())
	}
	body, _ := tree.Children(li.ID())
	lbody, _ := tree.Node(body[0])
	if lbody.Tag() != structure.TagLBody {
		t.Fatalf("expected LBody inside LI, got %s", lbody.TagName())
	}
	inner, _ := tree.Children(lbody.ID())
	p, _ := tree.Node(inner[0])
	if p.Tag() != structure.TagP {
		t.Errorf("orphan child lost: %s", p.TagName())
	}
}

func TestRemoveEmptyElementFix(t *testing.T) {
	doc := headerlessTable()
	doc.Root.Kids = append(doc.Root.Kids, rawtree.Kid{Node: &rawtree.Node{Tag: "Span"}})
	h := loadHistory(t, doc)
	before := h.Tree().Len()
	findings := analyze(t, h)

	catalog := remedy.DefaultCatalog()
	items := catalog.Batch(h, nil, clauseFindings(findings, "09-003"))
	if len(items) == 0 || items[0].Outcome != remedy.Applied {
		t.Fatalf("expected removal applied: %+v", items)
	}
	if h.Tree().Len() != before-1 {
		t.Errorf("empty element not removed")
	}
}
