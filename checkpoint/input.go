package checkpoint

import (
	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/rawtree"
	"github.com/wudi/tagkit/structure"
)

// Input is the read-only evaluation context shared by all evaluators.
// Evaluators must not mutate anything reachable from it; the engine may
// hand the same Input to evaluators running concurrently.
type Input struct {
	Tree    *structure.Tree
	Content *content.Index

	preorder map[structure.NodeID]int
}

// NewInput snapshots the traversal order of the tree at its current
// revision. The Input stays valid only as long as no transaction
// commits.
func NewInput(tree *structure.Tree, idx *content.Index) *Input {
	return &Input{
		Tree:     tree,
		Content:  idx,
		preorder: tree.PreOrderIndex(),
	}
}

// Meta returns the document-level metadata.
func (in *Input) Meta() rawtree.DocMeta { return in.Tree.Meta() }

// Pos returns the pre-order position of a node, or -1 for stale ids.
func (in *Input) Pos(id structure.NodeID) int {
	if p, ok := in.preorder[id]; ok {
		return p
	}
	return -1
}

// HasContentIndex reports whether the extraction layer supplied any page
// content. Evaluators that need geometry or reading order downgrade to a
// needs-manual-review finding when it is absent.
func (in *Input) HasContentIndex() bool {
	return in.Content != nil && len(in.Content.Pages()) > 0
}
