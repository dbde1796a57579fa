package session_test

import (
	"context"
	"errors"
	"testing"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/remedy"
	"github.com/wudi/tagkit/session"
	"github.com/wudi/tagkit/structure"
)

func sessionDoc() rawtree.Document {
	h := &rawtree.Node{Tag: "H1", Kids: []rawtree.Kid{{Ref: &rawtree.ContentRef{Page: 1, MCID: 0}}}}
	p := &rawtree.Node{Tag: "P", Kids: []rawtree.Kid{{Ref: &rawtree.ContentRef{Page: 1, MCID: 1}}}}
	return rawtree.Document{
		Root: &rawtree.Node{Tag: "Document", Kids: []rawtree.Kid{{Node: h}, {Node: p}}},
		Meta: rawtree.DocMeta{
			Title: "Doc", Lang: "en", Marked: true, DisplayDocTitle: true,
			HasXMP: true, XMPHasUAIdentifier: true, XMPHasTitle: true,
		},
	}
}

func open(t *testing.T, opts ...session.Option) *session.Session {
	t.Helper()
	s, err := session.New(sessionDoc(), opts...)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func TestSessionLifecycle(t *testing.T) {
	s := open(t)
	defer s.Close()

	if s.State() != session.StateLoaded {
		t.Fatalf("fresh session state = %s", s.State())
	}
	if s.ID() == "" {
		t.Error("session must carry an id")
	}

	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if s.State() != session.StateAnalyzed {
		t.Fatalf("state after analyze = %s", s.State())
	}

	tx := edit.NewTransaction("add div").
		Insert(s.Tree().Root(), -1, structure.TagDiv, nil).
		Build()
	if _, err := s.Commit(tx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if s.State() != session.StateEditing {
		t.Fatalf("state after commit = %s", s.State())
	}

	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatalf("re-analyze failed: %v", err)
	}
	if s.State() != session.StateAnalyzed {
		t.Fatalf("state after re-analyze = %s", s.State())
	}
}

func TestReportRejectsStaleFindings(t *testing.T) {
	s := open(t)
	defer s.Close()

	if _, err := s.Report(); err == nil {
		t.Fatal("report before analysis must fail")
	}

	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Report(); err != nil {
		t.Fatalf("report after analysis failed: %v", err)
	}

	tx := edit.NewTransaction("dirty").
		SetMeta(structure.MetaTitle, "Changed").
		Build()
	if _, err := s.Commit(tx); err != nil {
		t.Fatal(err)
	}
	_, err := s.Report()
	var state *session.StateError
	if !errors.As(err, &state) {
		t.Fatalf("expected StateError after edit, got %v", err)
	}
}

func TestReportContents(t *testing.T) {
	s := open(t)
	defer s.Close()
	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatal(err)
	}
	rep, err := s.Report()
	if err != nil {
		t.Fatalf("Report failed: %v", err)
	}
	if rep.SessionID != s.ID() {
		t.Error("report session id mismatch")
	}
	if rep.Revision != 0 {
		t.Errorf("expected revision 0, got %d", rep.Revision)
	}
	if !rep.Conformant {
		t.Error("clean document reported non-conformant")
	}
	// Human-review groups appear in the rollup with titles.
	found := false
	for _, g := range rep.Groups {
		if g.Group == "03" && g.NeedsReview > 0 && g.Title != "" {
			found = true
		}
	}
	if !found {
		t.Error("expected group 03 rollup with catalog title")
	}
}

func TestUndoRedoThroughSession(t *testing.T) {
	s := open(t)
	defer s.Close()

	tx := edit.NewTransaction("retitle").
		SetMeta(structure.MetaTitle, "Second").
		Build()
	if _, err := s.Commit(tx); err != nil {
		t.Fatal(err)
	}
	if !s.CanUndo() {
		t.Fatal("undo unavailable after commit")
	}
	if _, err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if got := s.Tree().Meta().Title; got != "Doc" {
		t.Errorf("undo did not restore title: %q", got)
	}
	if _, err := s.Redo(); err != nil {
		t.Fatal(err)
	}
	if got := s.Tree().Meta().Title; got != "Second" {
		t.Errorf("redo did not reinstate title: %q", got)
	}
}

func TestSubscribeDeliversRevisions(t *testing.T) {
	s := open(t)
	defer s.Close()

	ch := s.Subscribe()
	tx := edit.NewTransaction("edit").
		SetMeta(structure.MetaLang, "de").
		Build()
	rev, err := s.Commit(tx)
	if err != nil {
		t.Fatal(err)
	}
	select {
	case got := <-ch:
		if uint64(got) != rev {
			t.Errorf("subscriber saw revision %d, want %d", got, rev)
		}
	default:
		t.Fatal("no revision delivered")
	}
}

func TestRemediateRequiresFreshAnalysis(t *testing.T) {
	s := open(t)
	defer s.Close()

	if _, err := s.Remediate(); err == nil {
		t.Fatal("remediate before analysis must fail")
	}
	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Remediate(); err != nil {
		t.Fatalf("remediate after analysis failed: %v", err)
	}
}

func TestFixOperationsRejectStaleFindings(t *testing.T) {
	s := open(t)
	defer s.Close()

	findings, err := s.Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) == 0 {
		t.Fatal("expected findings")
	}
	stale := findings[0]

	tx := edit.NewTransaction("dirty").
		SetMeta(structure.MetaTitle, "Changed").
		Build()
	if _, err := s.Commit(tx); err != nil {
		t.Fatal(err)
	}

	var state *session.StateError
	if _, err := s.ApplyFix("set-display-doc-title", stale); !errors.As(err, &state) {
		t.Fatalf("expected StateError applying against stale findings, got %v", err)
	}
	if _, err := s.PreviewFix("set-display-doc-title", stale); !errors.As(err, &state) {
		t.Fatalf("expected StateError previewing against stale findings, got %v", err)
	}
}

func TestApplyFixUnknownName(t *testing.T) {
	s := open(t)
	defer s.Close()
	_, err := s.ApplyFix("no-such-fix", checkpoint.Finding{})
	var unknown *session.UnknownFixError
	if !errors.As(err, &unknown) {
		t.Fatalf("expected UnknownFixError, got %v", err)
	}
}

func TestApplyFixEndToEnd(t *testing.T) {
	doc := sessionDoc()
	doc.Meta.DisplayDocTitle = false
	s, err := session.New(doc)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()

	findings, err := s.Analyze(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	var target checkpoint.Finding
	for _, f := range findings {
		if f.Checkpoint == "07-001" {
			target = f
		}
	}
	if target.Checkpoint == "" {
		t.Fatal("expected a 07-001 finding")
	}

	diff, err := s.ApplyFix("set-display-doc-title", target)
	if err != nil {
		t.Fatalf("ApplyFix failed: %v", err)
	}
	if diff.Empty() {
		t.Fatal("expected a non-empty diff")
	}
	if !s.Tree().Meta().DisplayDocTitle {
		t.Error("fix did not set DisplayDocTitle")
	}
	if s.State() != session.StateEditing {
		t.Errorf("state after fix = %s", s.State())
	}
	if !s.CanUndo() {
		t.Error("fix must be undoable")
	}
}

func TestCustomRuleContributesFindings(t *testing.T) {
	rule := `
		var kids = root().children();
		for (var i = 0; i < kids.length; i++) {
			var n = node(kids[i]);
			if (n.tag === "H1") {
				report("09-001", "warning", n.id, "house-style-heading");
			}
		}
	`
	s := open(t, session.WithCustomRule("house-style", rule))
	defer s.Close()

	findings, err := s.Analyze(context.Background())
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	found := false
	for _, f := range findings {
		if f.Reason == "house-style-heading" {
			found = true
		}
	}
	if !found {
		t.Error("custom rule finding missing from the merged list")
	}
}

func TestNodeRefLookups(t *testing.T) {
	s := open(t)
	defer s.Close()

	ref := rawtree.ContentRef{Page: 1, MCID: 0}
	id, ok := s.NodeForRef(ref)
	if !ok {
		t.Fatal("owner lookup failed")
	}
	refs, err := s.RefsForNode(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 1 || refs[0] != ref {
		t.Errorf("round trip lost the ref: %v", refs)
	}
}

func TestExportReflectsEdits(t *testing.T) {
	s := open(t)
	defer s.Close()

	tx := edit.NewTransaction("retitle").
		SetMeta(structure.MetaTitle, "Exported").
		Build()
	if _, err := s.Commit(tx); err != nil {
		t.Fatal(err)
	}
	out, err := s.Export()
	if err != nil {
		t.Fatal(err)
	}
	if out.Meta.Title != "Exported" {
		t.Errorf("export title = %q", out.Meta.Title)
	}
}

func TestClosedSessionRejectsEverything(t *testing.T) {
	s := open(t)
	ch := s.Subscribe()
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	if _, open := <-ch; open {
		t.Error("subscriber channel must close with the session")
	}
	if _, err := s.Analyze(context.Background()); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Analyze on closed session: %v", err)
	}
	if _, err := s.Commit(structure.Transaction{}); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Commit on closed session: %v", err)
	}
	if _, err := s.Remediate(); !errors.Is(err, session.ErrClosed) {
		t.Errorf("Remediate on closed session: %v", err)
	}
	if err := s.Close(); !errors.Is(err, session.ErrClosed) {
		t.Errorf("double close: %v", err)
	}
}

func TestWithCatalogOverride(t *testing.T) {
	catalog, err := remedy.NewCatalog(nil)
	if err != nil {
		t.Fatal(err)
	}
	s := open(t, session.WithCatalog(catalog))
	defer s.Close()

	if _, err := s.Analyze(context.Background()); err != nil {
		t.Fatal(err)
	}
	items, err := s.Remediate()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 0 {
		t.Errorf("empty catalog produced %d batch items", len(items))
	}
}
