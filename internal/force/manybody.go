package force

import "math"

// ManyBody applies a pairwise force between all nodes: repulsion for negative
// strength, attraction for positive. Distant groups of nodes are approximated
// by their center of strength (Barnes-Hut) when the quad width divided by the
// distance is below theta.
type ManyBody struct {
	strength     float64
	theta2       float64
	distanceMin2 float64
	distanceMax2 float64

	nodes     []*Node
	random    func() float64
	strengths []float64
	alpha     float64
}

// NewManyBody creates a many-body force with strength -30 and theta 0.9
func NewManyBody() *ManyBody {
	return &ManyBody{
		strength:     -30,
		theta2:       0.81,
		distanceMin2: 1,
		distanceMax2: math.Inf(1),
	}
}

// Strength sets the per-node strength; negative values repel
func (m *ManyBody) Strength(s float64) *ManyBody {
	m.strength = s
	m.initialize()
	return m
}

// Theta sets the Barnes-Hut approximation criterion
func (m *ManyBody) Theta(theta float64) *ManyBody {
	m.theta2 = theta * theta
	return m
}

// DistanceMin sets the distance below which the force stops growing
func (m *ManyBody) DistanceMin(d float64) *ManyBody {
	m.distanceMin2 = d * d
	return m
}

// DistanceMax sets the distance beyond which nodes do not interact
func (m *ManyBody) DistanceMax(d float64) *ManyBody {
	m.distanceMax2 = d * d
	return m
}

// Initialize implements Force
func (m *ManyBody) Initialize(nodes []*Node, random func() float64) {
	m.nodes = nodes
	m.random = random
	m.initialize()
}

func (m *ManyBody) initialize() {
	m.strengths = make([]float64, len(m.nodes))
	for i := range m.strengths {
		m.strengths[i] = m.strength
	}
}

// Apply implements Force
func (m *ManyBody) Apply(alpha float64) {
	if len(m.nodes) < 2 {
		return
	}
	m.alpha = alpha

	tree := newQuadtree(m.nodes)
	m.accumulate(tree.root)
	for _, node := range m.nodes {
		m.apply(tree.root, node, tree.x0, tree.y0, tree.x1, tree.y1)
	}
}

// accumulate computes each quad's total strength and center of strength
func (m *ManyBody) accumulate(q *quad) {
	if q.leaf {
		var strength, x, y float64
		for _, p := range q.points {
			strength += m.strengths[p.Index]
			x += p.X
			y += p.Y
		}
		if n := float64(len(q.points)); n > 0 {
			q.x = x / n
			q.y = y / n
		}
		q.value = strength
		return
	}

	var strength, weight, x, y float64
	for _, c := range q.children {
		if c == nil {
			continue
		}
		m.accumulate(c)
		if w := math.Abs(c.value); w != 0 {
			strength += c.value
			weight += w
			x += w * c.x
			y += w * c.y
		}
	}
	if weight > 0 {
		q.x = x / weight
		q.y = y / weight
	}
	q.value = strength
}

func (m *ManyBody) apply(q *quad, node *Node, x0, y0, x1, y1 float64) {
	if q.value == 0 {
		return
	}

	x := q.x - node.X
	y := q.y - node.Y
	w := x1 - x0
	l := x*x + y*y

	// Far enough away to treat the quad as a single body
	if w*w/m.theta2 < l && !(q.leaf && q.contains(node)) {
		if l < m.distanceMax2 {
			if x == 0 {
				x = jiggle(m.random)
				l += x * x
			}
			if y == 0 {
				y = jiggle(m.random)
				l += y * y
			}
			if l < m.distanceMin2 {
				l = math.Sqrt(m.distanceMin2 * l)
			}
			node.VX += x * q.value * m.alpha / l
			node.VY += y * q.value * m.alpha / l
		}
		return
	}

	if !q.leaf {
		for i, c := range q.children {
			if c == nil {
				continue
			}
			cx0, cy0, cx1, cy1 := quadrant(i, x0, y0, x1, y1)
			m.apply(c, node, cx0, cy0, cx1, cy1)
		}
		return
	}

	for _, p := range q.points {
		if p == node {
			continue
		}
		x := p.X - node.X
		y := p.Y - node.Y
		l := x*x + y*y
		if l >= m.distanceMax2 {
			continue
		}
		if x == 0 {
			x = jiggle(m.random)
			l += x * x
		}
		if y == 0 {
			y = jiggle(m.random)
			l += y * y
		}
		if l < m.distanceMin2 {
			l = math.Sqrt(m.distanceMin2 * l)
		}
		s := m.strengths[p.Index] * m.alpha / l
		node.VX += x * s
		node.VY += y * s
	}
}
