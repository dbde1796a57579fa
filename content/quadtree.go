package content

// quadTree is a spatial index over marked-content bounding boxes.
type quadTree struct {
	bounds   Rect
	capacity int
	points   []pointData
	nodes    []*quadTree
}

type pointData struct {
	rect  Rect
	index int
}

func newQuadTree(bounds Rect, capacity int) *quadTree {
	return &quadTree{
		bounds:   bounds,
		capacity: capacity,
		points:   make([]pointData, 0, capacity),
	}
}

func (qt *quadTree) insert(rect Rect, index int) bool {
	if !qt.bounds.Intersects(rect) {
		return false
	}

	if qt.nodes != nil {
		for _, node := range qt.nodes {
			if node.bounds.ContainsRect(rect) {
				if node.insert(rect, index) {
					return true
				}
			}
		}
	}

	// Leaf, or the rect straddles child boundaries.
	if qt.nodes == nil {
		if len(qt.points) < qt.capacity {
			qt.points = append(qt.points, pointData{rect: rect, index: index})
			return true
		}
		qt.subdivide()
		oldPoints := qt.points
		qt.points = make([]pointData, 0, qt.capacity)
		for _, p := range oldPoints {
			qt.insert(p.rect, p.index)
		}
		return qt.insert(rect, index)
	}

	qt.points = append(qt.points, pointData{rect: rect, index: index})
	return true
}

func (qt *quadTree) subdivide() {
	xMid := (qt.bounds.LLX + qt.bounds.URX) / 2
	yMid := (qt.bounds.LLY + qt.bounds.URY) / 2

	qt.nodes = []*quadTree{
		newQuadTree(Rect{LLX: qt.bounds.LLX, LLY: yMid, URX: xMid, URY: qt.bounds.URY}, qt.capacity),
		newQuadTree(Rect{LLX: xMid, LLY: yMid, URX: qt.bounds.URX, URY: qt.bounds.URY}, qt.capacity),
		newQuadTree(Rect{LLX: qt.bounds.LLX, LLY: qt.bounds.LLY, URX: xMid, URY: yMid}, qt.capacity),
		newQuadTree(Rect{LLX: xMid, LLY: qt.bounds.LLY, URX: qt.bounds.URX, URY: yMid}, qt.capacity),
	}
}

func (qt *quadTree) query(rangeRect Rect) []int {
	var found []int
	if !qt.bounds.Intersects(rangeRect) {
		return found
	}

	for _, p := range qt.points {
		if p.rect.Intersects(rangeRect) {
			found = append(found, p.index)
		}
	}

	if qt.nodes != nil {
		for _, node := range qt.nodes {
			found = append(found, node.query(rangeRect)...)
		}
	}
	return found
}
