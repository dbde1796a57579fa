package content_test

import (
	"testing"

	"github.com/wudi/tagkit/content"
	"github.com/wudi/tagkit/rawtree"
)

func testPage() *content.Page {
	return &content.Page{
		Number: 1,
		Bounds: content.Rect{LLX: 0, LLY: 0, URX: 612, URY: 792},
		Items: []content.Marked{
			{Ref: rawtree.ContentRef{Page: 1, MCID: 2}, Order: 2, Kind: content.KindText, Text: "body", BBox: content.Rect{LLX: 72, LLY: 400, URX: 540, URY: 420}},
			{Ref: rawtree.ContentRef{Page: 1, MCID: 0}, Order: 0, Kind: content.KindText, Text: "Title", BBox: content.Rect{LLX: 72, LLY: 700, URX: 300, URY: 720}},
			{Ref: rawtree.ContentRef{Page: 1, MCID: 1}, Order: 1, Kind: content.KindText, Text: "7", BBox: content.Rect{LLX: 300, LLY: 20, URX: 312, URY: 32}},
		},
	}
}

func TestIndexSortsByReadingOrder(t *testing.T) {
	idx := content.NewIndex([]*content.Page{testPage()})
	page := idx.Page(1)
	if page == nil {
		t.Fatal("page 1 missing")
	}
	refs := page.Refs()
	for i, ref := range refs {
		if ref.MCID != i {
			t.Fatalf("items not in reading order: %v", refs)
		}
	}
}

func TestIndexLookup(t *testing.T) {
	idx := content.NewIndex([]*content.Page{testPage()})
	m, ok := idx.Lookup(rawtree.ContentRef{Page: 1, MCID: 0})
	if !ok {
		t.Fatal("ref not indexed")
	}
	if m.Text != "Title" {
		t.Errorf("wrong item: %+v", m)
	}
	if _, ok := idx.Lookup(rawtree.ContentRef{Page: 2, MCID: 0}); ok {
		t.Error("lookup on an unindexed page must miss")
	}
}

func TestQueryFooterBand(t *testing.T) {
	idx := content.NewIndex([]*content.Page{testPage()})
	page := idx.Page(1)
	hits := page.QueryRect(page.FooterBand(0.08))
	if len(hits) != 1 {
		t.Fatalf("expected 1 footer item, got %d", len(hits))
	}
	if hits[0].Text != "7" {
		t.Errorf("expected the page number, got %q", hits[0].Text)
	}
}

func TestQueryHeaderBand(t *testing.T) {
	idx := content.NewIndex([]*content.Page{testPage()})
	page := idx.Page(1)
	hits := page.QueryRect(page.HeaderBand(0.1))
	if len(hits) != 1 || hits[0].Text != "Title" {
		t.Fatalf("expected the top item only, got %d hits", len(hits))
	}
}

func TestSameRowAndColumn(t *testing.T) {
	a := content.Rect{LLX: 0, LLY: 100, URX: 50, URY: 120}
	b := content.Rect{LLX: 60, LLY: 102, URX: 110, URY: 122}
	if !content.SameRow(a, b) {
		t.Error("expected boxes on the same row")
	}
	if content.SameColumn(a, b) {
		t.Error("horizontally disjoint boxes reported as same column")
	}
	c := content.Rect{LLX: 5, LLY: 200, URX: 45, URY: 220}
	if !content.SameColumn(a, c) {
		t.Error("expected boxes in the same column")
	}
}

func TestNilIndexIsMissingInformation(t *testing.T) {
	var idx *content.Index
	if idx.Page(1) != nil {
		t.Error("nil index must report pages as missing")
	}
	if pages := idx.Pages(); len(pages) != 0 {
		t.Error("nil index must report no pages")
	}
	if _, ok := idx.Lookup(rawtree.ContentRef{Page: 1, MCID: 0}); ok {
		t.Error("nil index must miss lookups")
	}
}
