package structure

import (
	"fmt"

	"github.com/wudi/tagkit/observability"
)

// Apply commits a transaction atomically. The ops run in order; the
// post-image is then checked against the five invariants. A transaction
// that fails mid-op or that introduces a violation the tree did not
// already carry is rolled back completely: the tree, including its
// revision, is left exactly as before.
//
// On success Apply bumps the revision and returns the inverse
// transaction, whose ops restore the pre-image when applied.
func (t *Tree) Apply(tx Transaction) (Transaction, error) {
	if t.closed {
		return Transaction{}, ErrClosed
	}
	if len(tx.Ops) == 0 {
		return Transaction{}, fmt.Errorf("structure: empty transaction")
	}

	before, err := t.Violations()
	if err != nil {
		// The pre-image itself is unresolvable; nothing can be judged.
		return Transaction{}, err
	}
	known := make(map[string]bool, len(before))
	for _, v := range before {
		known[violationKey(v)] = true
	}

	inverses := make([]Op, 0, len(tx.Ops))
	rollback := func() {
		for i := len(inverses) - 1; i >= 0; i-- {
			if _, rerr := inverses[i].apply(t); rerr != nil {
				// A failing rollback means the inverse bookkeeping is
				// broken; there is no safe continuation.
				panic(fmt.Sprintf("structure: rollback failed: %v", rerr))
			}
		}
	}

	for _, op := range tx.Ops {
		inv, err := op.apply(t)
		if err != nil {
			rollback()
			return Transaction{}, fmt.Errorf("structure: %s: %w", op.Describe(), err)
		}
		inverses = append(inverses, inv)
	}

	after, err := t.Violations()
	if err != nil {
		rollback()
		return Transaction{}, err
	}
	for _, v := range after {
		if !known[violationKey(v)] {
			rollback()
			return Transaction{}, v
		}
	}

	t.revision++
	t.log.Debug("transaction committed",
		observability.String("label", tx.Label),
		observability.Int("ops", len(tx.Ops)),
		observability.Int64("revision", int64(t.revision)))

	// Inverse ops must run in reverse order to unwind correctly.
	rev := make([]Op, len(inverses))
	for i, op := range inverses {
		rev[len(inverses)-1-i] = op
	}
	label := tx.Label
	if label == "" {
		label = "edit"
	}
	return Transaction{Label: "undo " + label, Ops: rev}, nil
}

// Revert applies the inverse of a previously committed transaction.
// Unlike Apply it skips the no-new-violations comparison: undoing a
// repair legitimately reinstates the violations the repair removed, and
// the pre-image being restored was a committed state already. It is
// still atomic and still bumps the revision. Only undo/redo machinery
// should call it.
func (t *Tree) Revert(tx Transaction) (Transaction, error) {
	if t.closed {
		return Transaction{}, ErrClosed
	}
	if len(tx.Ops) == 0 {
		return Transaction{}, fmt.Errorf("structure: empty transaction")
	}

	inverses := make([]Op, 0, len(tx.Ops))
	for _, op := range tx.Ops {
		inv, err := op.apply(t)
		if err != nil {
			for i := len(inverses) - 1; i >= 0; i-- {
				if _, rerr := inverses[i].apply(t); rerr != nil {
					panic(fmt.Sprintf("structure: rollback failed: %v", rerr))
				}
			}
			return Transaction{}, fmt.Errorf("structure: %s: %w", op.Describe(), err)
		}
		inverses = append(inverses, inv)
	}

	t.revision++
	t.log.Debug("transaction reverted",
		observability.String("label", tx.Label),
		observability.Int64("revision", int64(t.revision)))

	rev := make([]Op, len(inverses))
	for i, op := range inverses {
		rev[len(inverses)-1-i] = op
	}
	return Transaction{Label: tx.Label, Ops: rev}, nil
}
