// Package content models the page content index: the per-page ordered set
// of marked-content items with their geometry and reading-order metadata.
// The index is owned by the extraction layer; the structure tree refers to
// items by ContentRef identity and never copies them.
package content

import (
	"sort"

	"github.com/wudi/tagkit/rawtree"
)

// Rect is an axis-aligned rectangle in page space, [llx lly urx ury].
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Contains returns true if the point (x, y) is within the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.LLX && x <= r.URX && y >= r.LLY && y <= r.URY
}

// Intersects returns true if the two rectangles overlap.
func (r Rect) Intersects(o Rect) bool {
	return !(o.LLX > r.URX || o.URX < r.LLX || o.LLY > r.URY || o.URY < r.LLY)
}

// ContainsRect returns true if o lies entirely within r.
func (r Rect) ContainsRect(o Rect) bool {
	return o.LLX >= r.LLX && o.URX <= r.URX && o.LLY >= r.LLY && o.URY <= r.URY
}

func (r Rect) Width() float64  { return r.URX - r.LLX }
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Kind classifies a marked-content item.
type Kind int

const (
	KindText Kind = iota
	KindImage
	KindPath
)

// Marked is one marked-content item as reported by the content stream
// layer. Order is the position within the page's reading sequence.
// Artifact reflects the content-stream classification (pagination,
// layout or page artifacts), not the structure tree's.
type Marked struct {
	Ref      rawtree.ContentRef
	BBox     Rect
	Order    int
	Artifact bool
	Kind     Kind
	Text     string
}

// Page holds the marked items of a single page in reading order plus the
// page bounds used for geometric queries.
type Page struct {
	Number int
	Bounds Rect
	Items  []Marked

	spatial *quadTree
}

// Index is the per-document page content index.
type Index struct {
	pages map[int]*Page
	byRef map[rawtree.ContentRef]*Marked
}

// NewIndex builds an index over the given pages. Items are re-sorted by
// their declared reading order; ref identity must be unique across pages.
func NewIndex(pages []*Page) *Index {
	idx := &Index{
		pages: make(map[int]*Page, len(pages)),
		byRef: make(map[rawtree.ContentRef]*Marked),
	}
	for _, p := range pages {
		sort.SliceStable(p.Items, func(i, j int) bool { return p.Items[i].Order < p.Items[j].Order })
		idx.pages[p.Number] = p
		for i := range p.Items {
			idx.byRef[p.Items[i].Ref] = &p.Items[i]
		}
	}
	return idx
}

// Page returns the content of one page, or nil if the extraction layer
// supplied none. Callers must treat a nil page as missing information,
// not as an empty page.
func (idx *Index) Page(number int) *Page {
	if idx == nil {
		return nil
	}
	return idx.pages[number]
}

// Pages returns the indexed page numbers in ascending order.
func (idx *Index) Pages() []int {
	if idx == nil {
		return nil
	}
	nums := make([]int, 0, len(idx.pages))
	for n := range idx.pages {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// Lookup resolves a content ref to its marked item, if indexed.
func (idx *Index) Lookup(ref rawtree.ContentRef) (*Marked, bool) {
	if idx == nil {
		return nil, false
	}
	m, ok := idx.byRef[ref]
	return m, ok
}

// Refs returns all indexed refs of a page in reading order.
func (p *Page) Refs() []rawtree.ContentRef {
	refs := make([]rawtree.ContentRef, len(p.Items))
	for i, m := range p.Items {
		refs[i] = m.Ref
	}
	return refs
}

// QueryRect returns the items of the page whose bounding boxes intersect
// rect, in reading order.
func (p *Page) QueryRect(rect Rect) []*Marked {
	if p.spatial == nil {
		p.spatial = newQuadTree(p.Bounds, 10)
		for i := range p.Items {
			p.spatial.insert(p.Items[i].BBox, i)
		}
	}
	hits := p.spatial.query(rect)
	sort.Ints(hits)
	out := make([]*Marked, 0, len(hits))
	for _, i := range hits {
		out = append(out, &p.Items[i])
	}
	return out
}

// HeaderBand returns the horizontal band at the top of the page covering
// frac of the page height. Used for running-header detection.
func (p *Page) HeaderBand(frac float64) Rect {
	h := p.Bounds.Height() * frac
	return Rect{LLX: p.Bounds.LLX, LLY: p.Bounds.URY - h, URX: p.Bounds.URX, URY: p.Bounds.URY}
}

// FooterBand returns the horizontal band at the bottom of the page
// covering frac of the page height.
func (p *Page) FooterBand(frac float64) Rect {
	h := p.Bounds.Height() * frac
	return Rect{LLX: p.Bounds.LLX, LLY: p.Bounds.LLY, URX: p.Bounds.URX, URY: p.Bounds.LLY + h}
}

// SameRow reports whether two boxes overlap vertically by at least half
// of the smaller box's height.
func SameRow(a, b Rect) bool {
	overlap := minf(a.URY, b.URY) - maxf(a.LLY, b.LLY)
	return overlap >= 0.5*minf(a.Height(), b.Height())
}

// SameColumn reports whether two boxes overlap horizontally by at least
// half of the smaller box's width.
func SameColumn(a, b Rect) bool {
	overlap := minf(a.URX, b.URX) - maxf(a.LLX, b.LLX)
	return overlap >= 0.5*minf(a.Width(), b.Width())
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}
