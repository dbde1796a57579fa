package structure

import (
	"errors"
	"fmt"
	"strings"
)

// ErrClosed is returned by operations on a tree whose session has ended.
var ErrClosed = errors.New("structure: tree closed")

// NotFoundError reports a stale or unknown node id.
type NotFoundError struct {
	ID NodeID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("structure: node %d not found", e.ID)
}

// UnresolvedRoleError reports a role-map entry that cannot be resolved to
// a standard structure type, either because the chain dangles or cycles.
type UnresolvedRoleError struct {
	Tag   string
	Chain []string
	Cycle bool
}

func (e *UnresolvedRoleError) Error() string {
	kind := "dangling"
	if e.Cycle {
		kind = "circular"
	}
	return fmt.Sprintf("structure: %s role mapping for %q (chain %s)", kind, e.Tag, strings.Join(e.Chain, " -> "))
}

// Invariant identifies one of the five structural invariants.
type Invariant int

const (
	// InvParentChild: every non-root node has exactly one parent and the
	// parent/child links agree in both directions.
	InvParentChild Invariant = 1 + iota
	// InvContainment: every resolved tag admits only legal child tags.
	InvContainment
	// InvContentOwnership: no content ref appears under more than one node.
	InvContentOwnership
	// InvHeaderRefs: Headers attributes reference header cells that exist
	// within the same table.
	InvHeaderRefs
	// InvArtifactExclusion: content under an artifact subtree is never
	// also tracked as real content elsewhere.
	InvArtifactExclusion
)

func (i Invariant) String() string {
	switch i {
	case InvParentChild:
		return "parent-child consistency"
	case InvContainment:
		return "containment legality"
	case InvContentOwnership:
		return "exclusive content ownership"
	case InvHeaderRefs:
		return "table header references"
	case InvArtifactExclusion:
		return "artifact content exclusion"
	default:
		return fmt.Sprintf("invariant(%d)", int(i))
	}
}

// InvariantViolation reports which invariant failed and the nodes involved.
type InvariantViolation struct {
	Invariant Invariant
	Nodes     []NodeID
	Detail    string
}

func (e *InvariantViolation) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("structure: invariant %d (%s) violated at nodes %v", int(e.Invariant), e.Invariant, e.Nodes)
	}
	return fmt.Sprintf("structure: invariant %d (%s) violated at nodes %v: %s", int(e.Invariant), e.Invariant, e.Nodes, e.Detail)
}

// MalformedStructureError reports raw input that fails the load-time
// sanity pass and cannot be trusted as a tree.
type MalformedStructureError struct {
	Reason string
}

func (e *MalformedStructureError) Error() string {
	return "structure: malformed input: " + e.Reason
}
