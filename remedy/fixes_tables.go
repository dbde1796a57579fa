package remedy

import (
	"fmt"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/edit"
	"github.com/wudi/tagkit/structure"
)

// inferTableHeaderScope repairs header association for the whole table
// a finding points into: scope-less first-row headers get Scope Column,
// later ones Scope Row, headers without an ID get one, and data cells
// without Headers get references to the headers covering their row and
// column.
type inferTableHeaderScope struct{}

func (*inferTableHeaderScope) Name() string          { return "infer-table-header-scope" }
func (*inferTableHeaderScope) Checkpoints() []string { return []string{"15-003", "15-005"} }

func (x *inferTableHeaderScope) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonHeaderScopeMissing && f.Reason != checkpoint.ReasonCellUnassociated {
		return false
	}
	n, ok := findingNode(f, in)
	if !ok {
		return false
	}
	tid, ok := enclosingTable(in, n.ID())
	if !ok {
		return false
	}
	plan, err := tableRepairPlan(in, tid)
	return err == nil && len(plan.Attrs) > 0
}

// target is the enclosing table: every 15-* finding into the same table
// collapses to one repair.
func (x *inferTableHeaderScope) target(f checkpoint.Finding, in *checkpoint.Input) (structure.NodeID, bool) {
	n, ok := findingNode(f, in)
	if !ok {
		return 0, false
	}
	return enclosingTable(in, n.ID())
}

func (x *inferTableHeaderScope) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	tid, ok := enclosingTable(in, n.ID())
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	diff, err := tableRepairPlan(in, tid)
	if err != nil {
		return structure.Transaction{}, Diff{}, err
	}
	b := edit.NewTransaction("infer table header scope")
	for _, a := range diff.Attrs {
		b.SetAttr(a.ID, a.Key, a.New)
	}
	diff.Label = "infer table header scope"
	return b.Build(), diff, nil
}

// tableRepairPlan computes every attribute the repair would set on one
// table, with no headers left unscoped and no data cell unassociated.
func tableRepairPlan(in *checkpoint.Input, tid structure.NodeID) (Diff, error) {
	var diff Diff
	rows := tableRowIDs(in, tid)

	type cell struct {
		id     structure.NodeID
		header bool
		row    int
		col    int
		attrID string
	}
	var cells []*cell
	for ri, rid := range rows {
		kids, _ := in.Tree.Children(rid)
		ci := 0
		for _, cid := range kids {
			c, err := in.Tree.Node(cid)
			if err != nil {
				continue
			}
			rt, rerr := in.Tree.ResolveNode(c)
			if rerr != nil || (rt != structure.TagTH && rt != structure.TagTD) {
				continue
			}
			cells = append(cells, &cell{
				id:     cid,
				header: rt == structure.TagTH,
				row:    ri,
				col:    ci,
				attrID: c.Attrs().ID(),
			})
			ci++
		}
	}

	// Scope and identify headers.
	colHeader := make(map[int]string) // column -> header ID
	rowHeader := make(map[int]string) // row -> header ID
	for _, c := range cells {
		if !c.header {
			continue
		}
		n, err := in.Tree.Node(c.id)
		if err != nil {
			continue
		}
		if n.Attrs().Scope() == "" {
			scope := "Row"
			if c.row == 0 {
				scope = "Column"
			}
			diff.Attrs = append(diff.Attrs, AttrChange{ID: c.id, Key: structure.AttrScope, New: scope})
		}
		if c.attrID == "" {
			c.attrID = fmt.Sprintf("th-%d", c.id)
			diff.Attrs = append(diff.Attrs, AttrChange{ID: c.id, Key: structure.AttrID, New: c.attrID})
		}
		if c.row == 0 {
			colHeader[c.col] = c.attrID
		} else {
			rowHeader[c.row] = c.attrID
		}
	}

	// Associate data cells.
	for _, c := range cells {
		if c.header {
			continue
		}
		n, err := in.Tree.Node(c.id)
		if err != nil {
			continue
		}
		if len(n.Attrs().Headers()) > 0 {
			continue
		}
		var refs []string
		if id, ok := colHeader[c.col]; ok {
			refs = append(refs, id)
		}
		if id, ok := rowHeader[c.row]; ok && c.col > 0 {
			refs = append(refs, id)
		}
		if len(refs) > 0 {
			diff.Attrs = append(diff.Attrs, AttrChange{ID: c.id, Key: structure.AttrHeaders, New: refs})
		}
	}
	return diff, nil
}

func (x *inferTableHeaderScope) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *inferTableHeaderScope) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

// pruneDanglingHeaders drops Headers entries that reference no header
// cell in the document.
type pruneDanglingHeaders struct{}

func (*pruneDanglingHeaders) Name() string          { return "prune-dangling-headers" }
func (*pruneDanglingHeaders) Checkpoints() []string { return []string{"15-005"} }

func (x *pruneDanglingHeaders) AppliesTo(f checkpoint.Finding, in *checkpoint.Input) bool {
	if f.Reason != checkpoint.ReasonHeadersDangling {
		return false
	}
	n, ok := findingNode(f, in)
	if !ok {
		return false
	}
	_, changed := prunedHeaders(in, n)
	return changed
}

func (x *pruneDanglingHeaders) plan(f checkpoint.Finding, in *checkpoint.Input) (structure.Transaction, Diff, error) {
	n, ok := findingNode(f, in)
	if !ok {
		return structure.Transaction{}, Diff{}, nil
	}
	kept, changed := prunedHeaders(in, n)
	if !changed {
		return structure.Transaction{}, Diff{}, nil
	}
	old := n.Attrs().Headers()
	var value interface{}
	if len(kept) > 0 {
		value = kept
	}
	tx := edit.NewTransaction("prune dangling header refs").
		SetAttr(n.ID(), structure.AttrHeaders, value).
		Build()
	diff := Diff{
		Label: tx.Label,
		Attrs: []AttrChange{{ID: n.ID(), Key: structure.AttrHeaders, Old: old, New: value}},
	}
	return tx, diff, nil
}

func (x *pruneDanglingHeaders) Preview(f checkpoint.Finding, in *checkpoint.Input) (Diff, error) {
	return previewFix(x, f, in)
}

func (x *pruneDanglingHeaders) Apply(f checkpoint.Finding, h *edit.History, in *checkpoint.Input) (Diff, error) {
	return applyFix(x, f, h, in)
}

func prunedHeaders(in *checkpoint.Input, n *structure.Node) (kept []string, changed bool) {
	tid, ok := enclosingTable(in, n.ID())
	if !ok {
		return nil, false
	}
	ids := headerIDsOf(in, tid)
	for _, ref := range n.Attrs().Headers() {
		if ids[ref] {
			kept = append(kept, ref)
		} else {
			changed = true
		}
	}
	return kept, changed
}

func enclosingTable(in *checkpoint.Input, id structure.NodeID) (structure.NodeID, bool) {
	anc, err := in.Tree.Ancestors(id)
	if err != nil {
		return 0, false
	}
	for _, aid := range anc {
		a, aerr := in.Tree.Node(aid)
		if aerr != nil {
			continue
		}
		if rt, _ := in.Tree.ResolveNode(a); rt == structure.TagTable {
			return aid, true
		}
	}
	return 0, false
}

func tableRowIDs(in *checkpoint.Input, tid structure.NodeID) []structure.NodeID {
	var rows []structure.NodeID
	children, _ := in.Tree.Children(tid)
	for _, cid := range children {
		c, err := in.Tree.Node(cid)
		if err != nil {
			continue
		}
		switch rt, _ := in.Tree.ResolveNode(c); rt {
		case structure.TagTR:
			rows = append(rows, cid)
		case structure.TagTHead, structure.TagTBody, structure.TagTFoot:
			inner, _ := in.Tree.Children(cid)
			for _, rid := range inner {
				r, rerr := in.Tree.Node(rid)
				if rerr != nil {
					continue
				}
				if rrt, _ := in.Tree.ResolveNode(r); rrt == structure.TagTR {
					rows = append(rows, rid)
				}
			}
		}
	}
	return rows
}

func headerIDsOf(in *checkpoint.Input, tid structure.NodeID) map[string]bool {
	ids := make(map[string]bool)
	for _, rid := range tableRowIDs(in, tid) {
		cells, _ := in.Tree.Children(rid)
		for _, cid := range cells {
			c, err := in.Tree.Node(cid)
			if err != nil {
				continue
			}
			if rt, _ := in.Tree.ResolveNode(c); rt == structure.TagTH {
				if id := c.Attrs().ID(); id != "" {
					ids[id] = true
				}
			}
		}
	}
	return ids
}
