package structure

import "github.com/wudi/tagkit/rawtree"

// Export produces the raw-tree shape of the current committed state for
// re-embedding by the serialization layer.
func (t *Tree) Export() rawtree.Document {
	doc := rawtree.Document{
		RoleMap: t.RoleMap(),
		Meta:    t.meta,
	}
	if t.root != 0 {
		doc.Root = t.exportNode(t.root)
	}
	return doc
}

func (t *Tree) exportNode(id NodeID) *rawtree.Node {
	n := t.nodes[id]
	out := &rawtree.Node{Tag: n.TagName()}
	if len(n.attrs) > 0 {
		out.Attrs = make(map[string]interface{}, len(n.attrs))
		for k, v := range n.attrs.clone() {
			out.Attrs[k] = v
		}
	}
	for _, k := range n.kids {
		if k.IsRef() {
			ref := *k.Ref
			out.Kids = append(out.Kids, rawtree.Kid{Ref: &ref})
		} else {
			out.Kids = append(out.Kids, rawtree.Kid{Node: t.exportNode(k.Node)})
		}
	}
	return out
}
