package session

import (
	"errors"
	"fmt"
)

// ErrClosed is returned by every operation on a closed session.
var ErrClosed = errors.New("session: closed")

// StateError reports an operation attempted in the wrong state.
type StateError struct {
	Op    string
	State State
}

func (e *StateError) Error() string {
	return fmt.Sprintf("session: %s not allowed in state %s", e.Op, e.State)
}

// StaleFindings reports that the tree moved past the revision the last
// analysis ran on; the findings no longer describe the document.
type StaleFindings struct {
	FindingsRevision uint64
	TreeRevision     uint64
}

func (e *StaleFindings) Error() string {
	return fmt.Sprintf("session: findings from revision %d are stale, tree is at %d",
		e.FindingsRevision, e.TreeRevision)
}

// UnknownFixError reports a fix name the catalog does not carry.
type UnknownFixError struct {
	Name string
}

func (e *UnknownFixError) Error() string {
	return fmt.Sprintf("session: unknown fix %q", e.Name)
}
