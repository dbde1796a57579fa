// Package scripting runs user-supplied conformance rules against a
// read-only view of the structure tree. Scripts observe and report;
// they can never mutate the document.
package scripting

import (
	"context"

	"github.com/wudi/tagkit/checkpoint"
)

// Engine represents a scripting engine (e.g., JavaScript).
type Engine interface {
	// Execute runs a rule script and returns the findings it reported.
	Execute(ctx context.Context, script string) ([]checkpoint.Finding, error)

	// RegisterDOM registers the structure-tree view with the engine.
	RegisterDOM(dom TreeDOM) error
}

// TreeDOM exposes the structure tree to scripts. Implementations must
// be read-only views; nothing reachable from a proxy may mutate the
// tree.
type TreeDOM interface {
	// Root returns the document root.
	Root() NodeProxy

	// Node returns a node by id, or nil when the id is stale.
	Node(id int) NodeProxy
}

// NodeProxy represents one structure element exposed to scripts.
type NodeProxy interface {
	ID() int
	Tag() string
	Children() []int
	Attr(name string) interface{}
	Refs() []string
}
