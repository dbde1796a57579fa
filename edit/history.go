// Package edit wraps tree mutations in undoable transactions. A History
// owns the undo/redo stacks of one editing session; every user-visible
// action is exactly one Commit and therefore exactly one undo step.
package edit

import (
	"errors"

	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/structure"
)

// ErrNothingToUndo is returned by Undo on an empty undo stack.
var ErrNothingToUndo = errors.New("edit: nothing to undo")

// ErrNothingToRedo is returned by Redo on an empty redo stack.
var ErrNothingToRedo = errors.New("edit: nothing to redo")

type entry struct {
	forward  structure.Transaction
	backward structure.Transaction
}

// History tracks committed transactions for one tree. Depth is
// unbounded; no compaction ever merges adjacent transactions.
type History struct {
	tree *structure.Tree
	undo []entry
	redo []entry
	log  observability.Logger
}

// NewHistory creates a history bound to tree.
func NewHistory(tree *structure.Tree, log observability.Logger) *History {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &History{tree: tree, log: log}
}

// Tree returns the tree this history mutates.
func (h *History) Tree() *structure.Tree { return h.tree }

// Commit validates and applies tx. On success the transaction becomes
// the newest undo step and any redo steps are discarded.
func (h *History) Commit(tx structure.Transaction) (uint64, error) {
	inverse, err := h.tree.Apply(tx)
	if err != nil {
		return 0, err
	}
	h.undo = append(h.undo, entry{forward: tx, backward: inverse})
	h.redo = nil
	h.log.Debug("commit",
		observability.String("label", tx.Label),
		observability.Int(observability.MetricUndoDepth, len(h.undo)))
	return h.tree.Revision(), nil
}

// CanUndo reports whether an undo step is available.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether a redo step is available.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// Undo applies the inverse of the newest committed transaction,
// restoring the exact pre-image including node ids.
func (h *History) Undo() (uint64, error) {
	if len(h.undo) == 0 {
		return 0, ErrNothingToUndo
	}
	e := h.undo[len(h.undo)-1]
	// Revert, not Apply: undoing a repair may legitimately reinstate
	// violations the repair removed.
	forward, err := h.tree.Revert(e.backward)
	if err != nil {
		return 0, err
	}
	h.undo = h.undo[:len(h.undo)-1]
	// The regenerated forward transaction carries concrete node ids, so
	// redo reinstates identical structure.
	h.redo = append(h.redo, entry{forward: forward, backward: e.backward})
	return h.tree.Revision(), nil
}

// Redo re-applies the most recently undone transaction.
func (h *History) Redo() (uint64, error) {
	if len(h.redo) == 0 {
		return 0, ErrNothingToRedo
	}
	e := h.redo[len(h.redo)-1]
	backward, err := h.tree.Revert(e.forward)
	if err != nil {
		return 0, err
	}
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = append(h.undo, entry{forward: e.forward, backward: backward})
	return h.tree.Revision(), nil
}

// Depth returns the current undo depth.
func (h *History) Depth() int { return len(h.undo) }
