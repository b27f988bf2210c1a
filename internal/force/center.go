package force

// PositionX pulls every node toward a vertical line at x
type PositionX struct {
	x        float64
	strength float64
	nodes    []*Node
}

// NewPositionX creates an x-positioning force with strength 0.1
func NewPositionX(x float64) *PositionX {
	return &PositionX{x: x, strength: 0.1}
}

// Strength sets the fraction of the distance closed per tick at alpha 1
func (f *PositionX) Strength(s float64) *PositionX {
	f.strength = s
	return f
}

// Initialize implements Force
func (f *PositionX) Initialize(nodes []*Node, _ func() float64) {
	f.nodes = nodes
}

// Apply implements Force
func (f *PositionX) Apply(alpha float64) {
	for _, node := range f.nodes {
		node.VX += (f.x - node.X) * f.strength * alpha
	}
}

// PositionY pulls every node toward a horizontal line at y
type PositionY struct {
	y        float64
	strength float64
	nodes    []*Node
}

// NewPositionY creates a y-positioning force with strength 0.1
func NewPositionY(y float64) *PositionY {
	return &PositionY{y: y, strength: 0.1}
}

// Strength sets the fraction of the distance closed per tick at alpha 1
func (f *PositionY) Strength(s float64) *PositionY {
	f.strength = s
	return f
}

// Initialize implements Force
func (f *PositionY) Initialize(nodes []*Node, _ func() float64) {
	f.nodes = nodes
}

// Apply implements Force
func (f *PositionY) Apply(alpha float64) {
	for _, node := range f.nodes {
		node.VY += (f.y - node.Y) * f.strength * alpha
	}
}
