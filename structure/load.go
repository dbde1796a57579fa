package structure

import (
	"fmt"

	"github.com/wudi/tagkit/observability"
	"github.com/wudi/tagkit/rawtree"
)

// LoadOption configures Load.
type LoadOption func(*loadConfig)

type loadConfig struct {
	log observability.Logger
}

// WithLogger sets the logger used for tree lifecycle events.
func WithLogger(log observability.Logger) LoadOption {
	return func(c *loadConfig) { c.log = log }
}

// Load converts the raw tag tree handed over by the extraction layer
// into a structure tree. It performs the boundary sanity pass first:
// node aliasing or cycles in the raw input, content refs claimed by
// more than one node, and role maps that do not resolve, fail with
// MalformedStructureError. A nil raw root yields a
// tree with an empty Document root (the untagged-document case, which
// the checkpoints report rather than the loader).
//
// Raw roots that do not resolve to Document are wrapped in a
// synthesized Document root so the model's root contract holds.
func Load(doc rawtree.Document, opts ...LoadOption) (*Tree, error) {
	cfg := loadConfig{log: observability.NopLogger{}}
	for _, opt := range opts {
		opt(&cfg)
	}

	t := &Tree{
		nodes:   make(map[NodeID]*Node),
		roleMap: make(rawtree.RoleMap, len(doc.RoleMap)),
		meta:    doc.Meta,
		log:     cfg.log,
	}
	for k, v := range doc.RoleMap {
		t.roleMap[k] = v
	}

	if err := t.CheckRoleMap(); err != nil {
		return nil, &MalformedStructureError{Reason: err.Error()}
	}

	if doc.Root != nil {
		if err := checkRawShape(doc.Root); err != nil {
			return nil, err
		}
	}

	rootTag := TagDocument
	wrap := true
	if doc.Root != nil {
		if rt, err := t.ResolveTag(doc.Root.Tag); err == nil && rt == TagDocument {
			wrap = false
		}
	}

	if doc.Root == nil {
		t.root = t.allocID()
		t.nodes[t.root] = &Node{id: t.root, tag: rootTag}
	} else if wrap {
		t.root = t.allocID()
		root := &Node{id: t.root, tag: rootTag}
		t.nodes[t.root] = root
		child := t.build(doc.Root, t.root)
		root.kids = append(root.kids, Kid{Node: child})
	} else {
		t.root = t.build(doc.Root, 0)
	}

	t.log.Info("structure tree loaded",
		observability.Int(observability.MetricNodeCount, len(t.nodes)))
	return t, nil
}

// checkRawShape rejects aliased or cyclic raw input, and content refs
// claimed by more than one node, before any of it is trusted as part
// of a tree.
func checkRawShape(root *rawtree.Node) error {
	seen := make(map[*rawtree.Node]bool)
	refs := make(map[rawtree.ContentRef]bool)
	var visit func(n *rawtree.Node, depth int) error
	visit = func(n *rawtree.Node, depth int) error {
		if seen[n] {
			return &MalformedStructureError{Reason: fmt.Sprintf("node %q appears more than once in the raw tree", n.Tag)}
		}
		seen[n] = true
		for _, k := range n.Kids {
			if k.Node == nil && k.Ref == nil {
				return &MalformedStructureError{Reason: fmt.Sprintf("empty kid slot under %q", n.Tag)}
			}
			if k.Node != nil && k.Ref != nil {
				return &MalformedStructureError{Reason: fmt.Sprintf("ambiguous kid slot under %q", n.Tag)}
			}
			if k.Ref != nil {
				if refs[*k.Ref] {
					return &MalformedStructureError{Reason: fmt.Sprintf("content ref %s claimed by more than one node", k.Ref)}
				}
				refs[*k.Ref] = true
			}
			if k.Node != nil {
				if err := visit(k.Node, depth+1); err != nil {
					return err
				}
			}
		}
		return nil
	}
	return visit(root, 0)
}

func (t *Tree) build(raw *rawtree.Node, parent NodeID) NodeID {
	id := t.allocID()
	n := &Node{id: id, parent: parent}
	if tt, ok := ParseTag(raw.Tag); ok {
		n.tag = tt
	} else {
		n.tag = TagCustom
		n.custom = raw.Tag
	}
	if len(raw.Attrs) > 0 {
		n.attrs = make(Attributes, len(raw.Attrs))
		for k, v := range raw.Attrs {
			n.attrs[k] = normalizeAttr(v)
		}
	}
	t.nodes[id] = n
	for _, k := range raw.Kids {
		if k.Ref != nil {
			ref := *k.Ref
			n.kids = append(n.kids, Kid{Ref: &ref})
		} else {
			child := t.build(k.Node, id)
			n.kids = append(n.kids, Kid{Node: child})
		}
	}
	return id
}

func normalizeAttr(v interface{}) interface{} {
	switch x := v.(type) {
	case string, bool, int, []string:
		return x
	case []interface{}:
		ss := make([]string, 0, len(x))
		for _, e := range x {
			if s, ok := e.(string); ok {
				ss = append(ss, s)
			}
		}
		return ss
	case float64:
		return int(x)
	default:
		return fmt.Sprint(x)
	}
}

// Close marks the tree as ended; further transactions fail with
// ErrClosed. Reads stay valid so reports can still render snapshots.
func (t *Tree) Close() { t.closed = true }
