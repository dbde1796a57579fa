package edit_test

import (
	"errors"
	"testing"

	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

func newHistory(t *testing.T) *edit.History {
	t.Helper()
	doc := rawtree.Document{
		Root: &rawtree.Node{Tag: "Document", Kids: []rawtree.Kid{
			{Node: &rawtree.Node{Tag: "P"}},
		}},
	}
	tree, err := structure.Load(doc)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return edit.NewHistory(tree, observability.NopLogger{})
}

func TestCommitUndoRedo(t *testing.T) {
	h := newHistory(t)
	tree := h.Tree()
	before := tree.Len()

	tx := edit.NewTransaction("add section").
		Insert(tree.Root(), -1, structure.TagSect, nil).
		Build()
	if _, err := h.Commit(tx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if tree.Len() != before+1 {
		t.Fatalf("insert missing after commit")
	}
	if !h.CanUndo() || h.CanRedo() {
		t.Fatal("expected undo available, redo empty")
	}

	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if tree.Len() != before {
		t.Error("undo did not remove the inserted node")
	}
	if !h.CanRedo() {
		t.Fatal("expected redo available after undo")
	}

	if _, err := h.Redo(); err != nil {
		t.Fatalf("Redo failed: %v", err)
	}
	if tree.Len() != before+1 {
		t.Error("redo did not reinstate the inserted node")
	}
}

func TestUndoEmptyHistory(t *testing.T) {
	h := newHistory(t)
	if _, err := h.Undo(); !errors.Is(err, edit.ErrNothingToUndo) {
		t.Fatalf("expected ErrNothingToUndo, got %v", err)
	}
	if _, err := h.Redo(); !errors.Is(err, edit.ErrNothingToRedo) {
		t.Fatalf("expected ErrNothingToRedo, got %v", err)
	}
}

func TestCommitClearsRedo(t *testing.T) {
	h := newHistory(t)
	tree := h.Tree()

	first := edit.NewTransaction("first").
		Insert(tree.Root(), -1, structure.TagSect, nil).
		Build()
	if _, err := h.Commit(first); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if _, err := h.Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}

	second := edit.NewTransaction("second").
		Insert(tree.Root(), -1, structure.TagDiv, nil).
		Build()
	if _, err := h.Commit(second); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	if h.CanRedo() {
		t.Error("new commit must clear the redo stack")
	}
}

func TestRejectedCommitLeavesHistoryUntouched(t *testing.T) {
	h := newHistory(t)
	tree := h.Tree()

	bad := edit.NewTransaction("bad").
		Remove(structure.NodeID(4242)).
		Build()
	if _, err := h.Commit(bad); err == nil {
		t.Fatal("expected commit to fail")
	}
	if h.CanUndo() {
		t.Error("failed commit must not enter the undo stack")
	}
	if tree.Revision() != 0 {
		t.Errorf("failed commit bumped revision to %d", tree.Revision())
	}
}

func TestUndoDepth(t *testing.T) {
	h := newHistory(t)
	tree := h.Tree()
	for i := 0; i < 3; i++ {
		tx := edit.NewTransaction("insert").
			Insert(tree.Root(), -1, structure.TagP, nil).
			Build()
		if _, err := h.Commit(tx); err != nil {
			t.Fatalf("Commit %d failed: %v", i, err)
		}
	}
	if h.Depth() != 3 {
		t.Errorf("expected depth 3, got %d", h.Depth())
	}
	if _, err := h.Undo(); err != nil {
		t.Fatal(err)
	}
	if h.Depth() != 2 {
		t.Errorf("expected depth 2 after undo, got %d", h.Depth())
	}
}

func TestInsertWithIDAddressesNewNode(t *testing.T) {
	h := newHistory(t)
	tree := h.Tree()
	kids, _ := tree.Children(tree.Root())
	p := kids[0]

	wrapper := tree.NextID()
	tx := edit.NewTransaction("wrap").
		InsertWithID(wrapper, tree.Root(), 0, structure.TagSect, nil).
		Move(p, wrapper, 0).
		Build()
	if _, err := h.Commit(tx); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	n, err := tree.Node(p)
	if err != nil {
		t.Fatal(err)
	}
	if n.Parent() != wrapper {
		t.Errorf("expected P reparented under %d, got %d", wrapper, n.Parent())
	}
}
