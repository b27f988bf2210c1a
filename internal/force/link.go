package force

import "math"

// Edge names the indices of a link's endpoints in the simulation's node slice
type Edge struct {
	Source int
	Target int
}

// Link pulls connected nodes toward a target distance. By default each link's
// strength is 1/min(degree(source), degree(target)) so hubs are not pulled
// apart by their many neighbours.
type Link struct {
	edges      []Edge
	distance   float64
	strength   *float64
	iterations int

	nodes     []*Node
	random    func() float64
	bias      []float64
	strengths []float64
}

// NewLink creates a link force over edges with distance 30 and one iteration
func NewLink(edges []Edge) *Link {
	return &Link{
		edges:      edges,
		distance:   30,
		iterations: 1,
	}
}

// Distance sets the target distance between linked nodes
func (l *Link) Distance(d float64) *Link {
	l.distance = d
	return l
}

// Strength sets a constant strength for every link
func (l *Link) Strength(s float64) *Link {
	l.strength = &s
	l.initialize()
	return l
}

// Iterations sets how many times the constraint is applied per tick
func (l *Link) Iterations(n int) *Link {
	if n < 1 {
		n = 1
	}
	l.iterations = n
	return l
}

// Edges returns the link endpoints
func (l *Link) Edges() []Edge {
	return l.edges
}

// Initialize implements Force
func (l *Link) Initialize(nodes []*Node, random func() float64) {
	l.nodes = nodes
	l.random = random
	l.initialize()
}

func (l *Link) initialize() {
	if l.nodes == nil {
		return
	}

	count := make([]int, len(l.nodes))
	for _, e := range l.edges {
		count[e.Source]++
		count[e.Target]++
	}

	l.bias = make([]float64, len(l.edges))
	l.strengths = make([]float64, len(l.edges))
	for i, e := range l.edges {
		l.bias[i] = float64(count[e.Source]) / float64(count[e.Source]+count[e.Target])
		if l.strength != nil {
			l.strengths[i] = *l.strength
		} else {
			l.strengths[i] = 1 / float64(min(count[e.Source], count[e.Target]))
		}
	}
}

// Apply implements Force
func (l *Link) Apply(alpha float64) {
	for k := 0; k < l.iterations; k++ {
		for i, e := range l.edges {
			source := l.nodes[e.Source]
			target := l.nodes[e.Target]

			x := target.X + target.VX - source.X - source.VX
			if x == 0 {
				x = jiggle(l.random)
			}
			y := target.Y + target.VY - source.Y - source.VY
			if y == 0 {
				y = jiggle(l.random)
			}

			dist := math.Sqrt(x*x + y*y)
			scale := (dist - l.distance) / dist * alpha * l.strengths[i]
			x *= scale
			y *= scale

			b := l.bias[i]
			target.VX -= x * b
			target.VY -= y * b
			b = 1 - b
			source.VX += x * b
			source.VY += y * b
		}
	}
}
