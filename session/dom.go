package session

import (
	"github.com/wudi/tagkit/scripting"
	"github.com/wudi/tagkit/structure"
)

// treeDOM adapts the structure tree to the scripting view. Everything
// it hands out is a copy; scripts cannot reach the tree itself.
type treeDOM struct {
	tree *structure.Tree
}

func (d *treeDOM) Root() scripting.NodeProxy {
	return d.Node(int(d.tree.Root()))
}

func (d *treeDOM) Node(id int) scripting.NodeProxy {
	n, err := d.tree.Node(structure.NodeID(id))
	if err != nil {
		return nil
	}
	return &nodeProxy{tree: d.tree, node: n}
}

type nodeProxy struct {
	tree *structure.Tree
	node *structure.Node
}

func (p *nodeProxy) ID() int { return int(p.node.ID()) }

func (p *nodeProxy) Tag() string { return p.node.TagName() }

func (p *nodeProxy) Children() []int {
	ids, err := p.tree.Children(p.node.ID())
	if err != nil {
		return nil
	}
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}

func (p *nodeProxy) Attr(name string) interface{} {
	return p.node.Attr(name)
}

func (p *nodeProxy) Refs() []string {
	refs := p.node.Refs()
	out := make([]string, len(refs))
	for i, ref := range refs {
		out[i] = ref.String()
	}
	return out
}
