package force

import "math"

// maxDepth bounds subdivision so nearly coincident nodes share a leaf
const maxDepth = 32

// quad is a node of a Barnes-Hut quadtree. Leaves hold points; internal
// quads hold up to four children indexed by (right ? 1 : 0) | (below ? 2 : 0).
type quad struct {
	children [4]*quad
	points   []*Node
	leaf     bool

	// center of strength and accumulated strength, filled by accumulate
	x, y  float64
	value float64
}

type quadtree struct {
	root           *quad
	x0, y0, x1, y1 float64
}

// newQuadtree builds a square quadtree covering every node
func newQuadtree(nodes []*Node) *quadtree {
	t := &quadtree{root: &quad{leaf: true}}
	if len(nodes) == 0 {
		return t
	}

	t.x0, t.y0 = math.Inf(1), math.Inf(1)
	t.x1, t.y1 = math.Inf(-1), math.Inf(-1)
	for _, n := range nodes {
		t.x0 = math.Min(t.x0, n.X)
		t.y0 = math.Min(t.y0, n.Y)
		t.x1 = math.Max(t.x1, n.X)
		t.y1 = math.Max(t.y1, n.Y)
	}

	size := math.Max(t.x1-t.x0, t.y1-t.y0)
	if size <= 0 || math.IsNaN(size) || math.IsInf(size, 0) {
		size = 1
	}
	t.x1 = t.x0 + size
	t.y1 = t.y0 + size

	for _, n := range nodes {
		t.insert(t.root, n, t.x0, t.y0, t.x1, t.y1, 0)
	}
	return t
}

func (t *quadtree) insert(q *quad, n *Node, x0, y0, x1, y1 float64, depth int) {
	if q.leaf {
		if len(q.points) == 0 || depth >= maxDepth ||
			(q.points[0].X == n.X && q.points[0].Y == n.Y) {
			q.points = append(q.points, n)
			return
		}

		existing := q.points
		q.points = nil
		q.leaf = false
		for _, p := range existing {
			t.insertChild(q, p, x0, y0, x1, y1, depth)
		}
	}
	t.insertChild(q, n, x0, y0, x1, y1, depth)
}

func (t *quadtree) insertChild(q *quad, n *Node, x0, y0, x1, y1 float64, depth int) {
	i, cx0, cy0, cx1, cy1 := childBounds(n.X, n.Y, x0, y0, x1, y1)
	if q.children[i] == nil {
		q.children[i] = &quad{leaf: true}
	}
	t.insert(q.children[i], n, cx0, cy0, cx1, cy1, depth+1)
}

// childBounds returns the quadrant index containing (x, y) and its extent
func childBounds(x, y, x0, y0, x1, y1 float64) (int, float64, float64, float64, float64) {
	xm := (x0 + x1) / 2
	ym := (y0 + y1) / 2
	i := 0
	if x >= xm {
		i |= 1
		x0 = xm
	} else {
		x1 = xm
	}
	if y >= ym {
		i |= 2
		y0 = ym
	} else {
		y1 = ym
	}
	return i, x0, y0, x1, y1
}

// quadrant returns the extent of child i of the quad spanning x0..x1, y0..y1
func quadrant(i int, x0, y0, x1, y1 float64) (float64, float64, float64, float64) {
	xm := (x0 + x1) / 2
	ym := (y0 + y1) / 2
	if i&1 != 0 {
		x0 = xm
	} else {
		x1 = xm
	}
	if i&2 != 0 {
		y0 = ym
	} else {
		y1 = ym
	}
	return x0, y0, x1, y1
}

// contains reports whether n is one of the leaf's points
func (q *quad) contains(n *Node) bool {
	for _, p := range q.points {
		if p == n {
			return true
		}
	}
	return false
}
