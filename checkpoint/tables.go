package checkpoint

import (
	"fmt"

	"github.com/wudi/tagkit/structure"
)

// tablesEvaluator covers checkpoint 15: regular grids, header cells,
// header scopes and data-cell associations.
type tablesEvaluator struct{}

func (tablesEvaluator) Group() string { return "15" }

type tableCell struct {
	id      structure.NodeID
	header  bool
	scope   string
	headers []string
	attrID  string
	colSpan int
	rowSpan int
	col     int // leftmost grid column, filled during layout
}

type tableGrid struct {
	id    structure.NodeID
	rows  [][]*tableCell
	width int
}

func (tablesEvaluator) Evaluate(in *Input) []Finding {
	var out []Finding
	for _, tid := range in.Tree.NodesByTag(structure.TagTable) {
		if in.Tree.InsideArtifact(tid) {
			continue
		}
		grid := collectGrid(in, tid)
		out = append(out, gridFindings(in, grid)...)
	}
	return out
}

// collectGrid flattens a table into rows of cells, looking through
// THead/TBody/TFoot wrappers, and assigns grid columns accounting for
// column and row spans.
func collectGrid(in *Input, tid structure.NodeID) *tableGrid {
	grid := &tableGrid{id: tid}
	children, _ := in.Tree.Children(tid)
	for _, cid := range children {
		c, err := in.Tree.Node(cid)
		if err != nil {
			continue
		}
		switch rt, _ := in.Tree.ResolveNode(c); rt {
		case structure.TagTR:
			grid.rows = append(grid.rows, collectRow(in, cid))
		case structure.TagTHead, structure.TagTBody, structure.TagTFoot:
			rows, _ := in.Tree.Children(cid)
			for _, rid := range rows {
				r, rerr := in.Tree.Node(rid)
				if rerr != nil {
					continue
				}
				if rrt, _ := in.Tree.ResolveNode(r); rrt == structure.TagTR {
					grid.rows = append(grid.rows, collectRow(in, rid))
				}
			}
		}
	}
	layoutGrid(grid)
	return grid
}

func collectRow(in *Input, rid structure.NodeID) []*tableCell {
	var row []*tableCell
	cells, _ := in.Tree.Children(rid)
	for _, cid := range cells {
		c, err := in.Tree.Node(cid)
		if err != nil {
			continue
		}
		rt, rerr := in.Tree.ResolveNode(c)
		if rerr != nil || (rt != structure.TagTH && rt != structure.TagTD) {
			continue
		}
		attrs := c.Attrs()
		row = append(row, &tableCell{
			id:      cid,
			header:  rt == structure.TagTH,
			scope:   attrs.Scope(),
			headers: attrs.Headers(),
			attrID:  attrs.ID(),
			colSpan: attrs.ColSpan(),
			rowSpan: attrs.RowSpan(),
		})
	}
	return row
}

// layoutGrid assigns each cell its leftmost column and records the
// widest row. Cells spanning multiple rows occupy slots in the rows
// below, which shifts later cells to the right.
func layoutGrid(g *tableGrid) {
	occupied := make(map[[2]int]bool) // [row][col] taken by a span from above
	for ri, row := range g.rows {
		col := 0
		for _, cell := range row {
			for occupied[[2]int{ri, col}] {
				col++
			}
			cell.col = col
			for dr := 0; dr < cell.rowSpan; dr++ {
				for dc := 0; dc < cell.colSpan; dc++ {
					occupied[[2]int{ri + dr, col + dc}] = true
				}
			}
			col += cell.colSpan
		}
		for occupied[[2]int{ri, col}] {
			col++
		}
		if col > g.width {
			g.width = col
		}
	}
}

func gridFindings(in *Input, g *tableGrid) []Finding {
	var out []Finding
	if len(g.rows) == 0 {
		return out
	}

	// Irregular grid: every row must cover the full table width.
	occupied := make(map[[2]int]bool)
	for ri, row := range g.rows {
		for _, cell := range row {
			for dr := 0; dr < cell.rowSpan; dr++ {
				for dc := 0; dc < cell.colSpan; dc++ {
					occupied[[2]int{ri + dr, cell.col + dc}] = true
				}
			}
		}
	}
	for ri := range g.rows {
		covered := 0
		for c := 0; c < g.width; c++ {
			if occupied[[2]int{ri, c}] {
				covered++
			}
		}
		if covered != g.width {
			out = append(out, Finding{
				Checkpoint: "15-001",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{g.id},
				Reason:     ReasonTableIrregular,
				Params: map[string]string{
					"row":   fmt.Sprint(ri),
					"cells": fmt.Sprint(covered),
					"width": fmt.Sprint(g.width),
				},
			})
		}
	}

	headerIDs := make(map[string]bool)
	var headers []*tableCell
	for _, row := range g.rows {
		for _, cell := range row {
			if cell.header {
				headers = append(headers, cell)
				if cell.attrID != "" {
					headerIDs[cell.attrID] = true
				}
			}
		}
	}
	if len(headers) == 0 {
		out = append(out, Finding{
			Checkpoint: "15-002",
			Severity:   SeverityFailure,
			Nodes:      []structure.NodeID{g.id},
			Reason:     ReasonTableNoHeaders,
		})
		return out
	}

	for _, h := range headers {
		switch {
		case h.scope == "":
			out = append(out, Finding{
				Checkpoint: "15-003",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{h.id},
				Reason:     ReasonHeaderScopeMissing,
			})
		case !structure.ValidScopes[h.scope]:
			out = append(out, Finding{
				Checkpoint: "15-003",
				Severity:   SeverityFailure,
				Nodes:      []structure.NodeID{h.id},
				Reason:     ReasonHeaderScopeInvalid,
				Params:     map[string]string{"scope": h.scope},
			})
		}
	}

	// Data cells must be reachable from a header, either through a
	// scoped header in the same row or column or through explicit
	// Headers references.
	for ri, row := range g.rows {
		for _, cell := range row {
			if cell.header {
				continue
			}
			if len(cell.headers) > 0 {
				for _, ref := range cell.headers {
					if !headerIDs[ref] {
						out = append(out, Finding{
							Checkpoint: "15-005",
							Severity:   SeverityFailure,
							Nodes:      []structure.NodeID{cell.id},
							Reason:     ReasonHeadersDangling,
							Params:     map[string]string{"ref": ref},
						})
					}
				}
				continue
			}
			if !scopedHeaderFor(g, ri, cell) {
				out = append(out, Finding{
					Checkpoint: "15-005",
					Severity:   SeverityFailure,
					Nodes:      []structure.NodeID{cell.id},
					Reason:     ReasonCellUnassociated,
				})
			}
		}
	}
	return out
}

// scopedHeaderFor reports whether a data cell is covered by a header
// with a Row scope in its row or a Column scope in any of its columns.
func scopedHeaderFor(g *tableGrid, ri int, cell *tableCell) bool {
	for _, h := range g.rows[ri] {
		if h.header && (h.scope == "Row" || h.scope == "Both") {
			return true
		}
	}
	for _, row := range g.rows {
		for _, h := range row {
			if !h.header || (h.scope != "Column" && h.scope != "Both") {
				continue
			}
			if h.col < cell.col+cell.colSpan && cell.col < h.col+h.colSpan {
				return true
			}
		}
	}
	return false
}
