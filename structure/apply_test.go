package structure_test

import (
	"errors"
	"testing"

	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// tableDoc builds Document > Table > TR > (TH, TD).
func tableDoc() rawtree.Document {
	tr := &rawtree.Node{Tag: "TR", Kids: []rawtree.Kid{
		{Node: &rawtree.Node{Tag: "TH", Attrs: map[string]interface{}{"ID": "h1", "Scope": "Column"}}},
		{Node: &rawtree.Node{Tag: "TD"}},
	}}
	table := &rawtree.Node{Tag: "Table", Kids: []rawtree.Kid{{Node: tr}}}
	return rawtree.Document{
		Root: &rawtree.Node{Tag: "Document", Kids: []rawtree.Kid{{Node: table}}},
		Meta: rawtree.DocMeta{Marked: true},
	}
}

func mustLoad(t *testing.T, doc rawtree.Document) *structure.Tree {
	t.Helper()
	tree, err := structure.Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tree
}

func TestApplyInsertAndRevert(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	before := tree.Len()

	inv, err := tree.Apply(structure.Transaction{
		Label: "add paragraph",
		Ops: []structure.Op{
			structure.InsertNode{Parent: tree.Root(), Index: -1, Tag: structure.TagP},
		},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tree.Len() != before+1 {
		t.Fatalf("expected %d nodes after insert, got %d", before+1, tree.Len())
	}
	if tree.Revision() != 1 {
		t.Errorf("expected revision 1, got %d", tree.Revision())
	}

	if _, err := tree.Revert(inv); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if tree.Len() != before {
		t.Errorf("revert did not restore node count: %d != %d", tree.Len(), before)
	}
	if tree.Revision() != 2 {
		t.Errorf("revert must bump the revision, got %d", tree.Revision())
	}
}

func TestApplyRejectsRowUnderRoot(t *testing.T) {
	tree := mustLoad(t, tableDoc())
	rows := tree.NodesByTag(structure.TagTR)
	if len(rows) != 1 {
		t.Fatalf("expected 1 TR, got %d", len(rows))
	}
	revBefore := tree.Revision()

	_, err := tree.Apply(structure.Transaction{
		Label: "bad move",
		Ops: []structure.Op{
			structure.MoveNode{ID: rows[0], NewParent: tree.Root(), Index: -1},
		},
	})
	var violation *structure.InvariantViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected InvariantViolation, got %v", err)
	}
	if violation.Invariant != structure.InvContainment {
		t.Errorf("expected containment invariant, got %s", violation.Invariant)
	}
	if tree.Revision() != revBefore {
		t.Errorf("rejected transaction must not change the revision")
	}
	tr, _ := tree.Node(rows[0])
	tables := tree.NodesByTag(structure.TagTable)
	if tr.Parent() != tables[0] {
		t.Error("rejected move left the row reparented")
	}
}

func TestApplyRollsBackMidTransaction(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	kids, _ := tree.Children(tree.Root())
	target := kids[0]

	_, err := tree.Apply(structure.Transaction{
		Label: "partial",
		Ops: []structure.Op{
			structure.SetAttr{ID: target, Key: structure.AttrLang, Value: "de"},
			structure.RemoveNode{ID: structure.NodeID(9999)},
		},
	})
	if err == nil {
		t.Fatal("expected failure on unknown node")
	}
	n, _ := tree.Node(target)
	if n.Attrs().Lang() != "" {
		t.Error("first op survived a failed transaction")
	}
	if tree.Revision() != 0 {
		t.Errorf("failed transaction bumped revision to %d", tree.Revision())
	}
}

func TestApplyToleratesPreexistingViolation(t *testing.T) {
	// A table row directly under the root, straight from the loader.
	doc := rawtree.Document{
		Root: &rawtree.Node{Tag: "Document", Kids: []rawtree.Kid{
			{Node: &rawtree.Node{Tag: "TR"}},
			{Node: &rawtree.Node{Tag: "P"}},
		}},
	}
	tree := mustLoad(t, doc)
	if vs, _ := tree.Violations(); len(vs) == 0 {
		t.Fatal("fixture should carry a containment violation")
	}

	kids, _ := tree.Children(tree.Root())
	_, err := tree.Apply(structure.Transaction{
		Label: "unrelated edit",
		Ops: []structure.Op{
			structure.SetAttr{ID: kids[1], Key: structure.AttrLang, Value: "en"},
		},
	})
	if err != nil {
		t.Fatalf("edit on an already-dirty tree must pass: %v", err)
	}
}

func TestMoveIntoOwnSubtreeRejected(t *testing.T) {
	tree := mustLoad(t, tableDoc())
	tables := tree.NodesByTag(structure.TagTable)
	rows := tree.NodesByTag(structure.TagTR)

	_, err := tree.Apply(structure.Transaction{
		Label: "cycle",
		Ops: []structure.Op{
			structure.MoveNode{ID: tables[0], NewParent: rows[0], Index: 0},
		},
	})
	if err == nil {
		t.Fatal("expected cycle-producing move to fail")
	}
}

func TestUndoRestoresNodeIDs(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	kids, _ := tree.Children(tree.Root())
	removed := kids[0]

	inv, err := tree.Apply(structure.Transaction{
		Label: "remove heading",
		Ops:   []structure.Op{structure.RemoveNode{ID: removed}},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if _, err := tree.Node(removed); err == nil {
		t.Fatal("removed node still resolvable")
	}

	if _, err := tree.Revert(inv); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	n, err := tree.Node(removed)
	if err != nil {
		t.Fatalf("undo did not restore the original node id: %v", err)
	}
	if n.Tag() != structure.TagH1 {
		t.Errorf("restored node lost its tag: %s", n.TagName())
	}
	kidsAfter, _ := tree.Children(tree.Root())
	if len(kidsAfter) != len(kids) || kidsAfter[0] != removed {
		t.Error("undo did not restore the original kid position")
	}
}

func TestContentOwnershipEnforced(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	kids, _ := tree.Children(tree.Root())

	// Attach the ref already owned by the H1 under the P as well.
	_, err := tree.Apply(structure.Transaction{
		Label: "duplicate ref",
		Ops: []structure.Op{
			structure.InsertContent{Parent: kids[1], Index: -1, Ref: rawtree.ContentRef{Page: 1, MCID: 1}},
		},
	})
	var violation *structure.InvariantViolation
	if !errors.As(err, &violation) {
		t.Fatalf("expected ownership violation, got %v", err)
	}
	if violation.Invariant != structure.InvContentOwnership {
		t.Errorf("expected content ownership invariant, got %s", violation.Invariant)
	}
}

func TestSetMetaUndo(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	inv, err := tree.Apply(structure.Transaction{
		Label: "retitle",
		Ops:   []structure.Op{structure.SetMeta{Field: structure.MetaTitle, Value: "New Title"}},
	})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if tree.Meta().Title != "New Title" {
		t.Fatalf("title not set: %q", tree.Meta().Title)
	}
	if _, err := tree.Revert(inv); err != nil {
		t.Fatalf("Revert failed: %v", err)
	}
	if tree.Meta().Title != "Test" {
		t.Errorf("undo did not restore the title: %q", tree.Meta().Title)
	}
}

func TestClosedTreeRejectsTransactions(t *testing.T) {
	tree := mustLoad(t, simpleDoc())
	tree.Close()
	_, err := tree.Apply(structure.Transaction{
		Label: "late",
		Ops:   []structure.Op{structure.SetMeta{Field: structure.MetaLang, Value: "en"}},
	})
	if !errors.Is(err, structure.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
