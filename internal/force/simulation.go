// Package force implements a velocity Verlet force simulation for graph layout.
//
// A Simulation owns a slice of Nodes and a set of named Forces. Each tick moves
// alpha toward alphaTarget, lets every force adjust node velocities, then
// integrates velocities into positions. The simulation stops itself once alpha
// falls below alphaMin; Restart resumes it.
//
// A Simulation is not safe for concurrent use. Callers drive it from a single
// goroutine (see view.Loop).
package force

import (
	"math"
)

const (
	initialRadius   = 10.0
	defaultAlphaMin = 0.001
)

// initialAngle is the golden angle used for phyllotaxis placement
var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Force adjusts node velocities on each tick
type Force interface {
	// Initialize is called when the force is added and whenever nodes change
	Initialize(nodes []*Node, random func() float64)
	// Apply adds the force's contribution for the given alpha
	Apply(alpha float64)
}

// Simulation is a force-directed layout over a fixed set of nodes
type Simulation struct {
	nodes []*Node

	alpha         float64
	alphaMin      float64
	alphaDecay    float64
	alphaTarget   float64
	velocityDecay float64

	forces map[string]Force
	order  []string

	random  func() float64
	running bool

	onTick []func()
	onEnd  []func()
}

// Option configures a Simulation
type Option func(*Simulation)

// WithSeed sets the seed of the jiggle generator
func WithSeed(seed uint64) Option {
	return func(s *Simulation) {
		s.random = lcg(seed)
	}
}

// WithAlphaMin sets the cooling threshold and derives the decay for ~300 ticks
func WithAlphaMin(min float64) Option {
	return func(s *Simulation) {
		s.alphaMin = min
		s.alphaDecay = 1 - math.Pow(min, 1.0/300)
	}
}

// WithAlphaDecay overrides the per-tick alpha decay rate
func WithAlphaDecay(decay float64) Option {
	return func(s *Simulation) {
		s.alphaDecay = decay
	}
}

// WithVelocityDecay sets the fraction of velocity lost each tick
func WithVelocityDecay(decay float64) Option {
	return func(s *Simulation) {
		s.velocityDecay = 1 - decay
	}
}

// New creates a running simulation over nodes. Nodes with NaN coordinates are
// placed on a phyllotaxis spiral around the origin.
func New(nodes []*Node, opts ...Option) *Simulation {
	s := &Simulation{
		nodes:         nodes,
		alpha:         1,
		alphaMin:      defaultAlphaMin,
		alphaDecay:    1 - math.Pow(defaultAlphaMin, 1.0/300),
		alphaTarget:   0,
		velocityDecay: 0.6,
		forces:        make(map[string]Force),
		random:        lcg(1),
		running:       true,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.initializeNodes()
	return s
}

func (s *Simulation) initializeNodes() {
	for i, node := range s.nodes {
		node.Index = i
		if node.FX != nil {
			node.X = *node.FX
		}
		if node.FY != nil {
			node.Y = *node.FY
		}
		if math.IsNaN(node.X) || math.IsNaN(node.Y) {
			radius := initialRadius * math.Sqrt(0.5+float64(i))
			angle := float64(i) * initialAngle
			node.X = radius * math.Cos(angle)
			node.Y = radius * math.Sin(angle)
		}
		if math.IsNaN(node.VX) || math.IsNaN(node.VY) {
			node.VX = 0
			node.VY = 0
		}
	}
}

// Nodes returns the simulated nodes
func (s *Simulation) Nodes() []*Node {
	return s.nodes
}

// Force registers f under name, replacing any previous force with that name.
// A nil f removes the force.
func (s *Simulation) Force(name string, f Force) *Simulation {
	if f == nil {
		if _, ok := s.forces[name]; ok {
			delete(s.forces, name)
			for i, n := range s.order {
				if n == name {
					s.order = append(s.order[:i], s.order[i+1:]...)
					break
				}
			}
		}
		return s
	}

	if _, ok := s.forces[name]; !ok {
		s.order = append(s.order, name)
	}
	f.Initialize(s.nodes, s.random)
	s.forces[name] = f
	return s
}

// Lookup returns the force registered under name
func (s *Simulation) Lookup(name string) (Force, bool) {
	f, ok := s.forces[name]
	return f, ok
}

// OnTick registers a callback invoked after every Step
func (s *Simulation) OnTick(fn func()) {
	s.onTick = append(s.onTick, fn)
}

// OnEnd registers a callback invoked when the simulation cools and stops
func (s *Simulation) OnEnd(fn func()) {
	s.onEnd = append(s.onEnd, fn)
}

// Alpha returns the current alpha
func (s *Simulation) Alpha() float64 { return s.alpha }

// SetAlpha sets the current alpha
func (s *Simulation) SetAlpha(alpha float64) { s.alpha = alpha }

// AlphaMin returns the cooling threshold
func (s *Simulation) AlphaMin() float64 { return s.alphaMin }

// AlphaTarget returns the value alpha decays toward
func (s *Simulation) AlphaTarget() float64 { return s.alphaTarget }

// SetAlphaTarget sets the value alpha decays toward
func (s *Simulation) SetAlphaTarget(target float64) { s.alphaTarget = target }

// Running reports whether Step will advance the simulation
func (s *Simulation) Running() bool { return s.running }

// Restart resumes a stopped simulation without changing alpha
func (s *Simulation) Restart() { s.running = true }

// Stop halts the simulation; Step becomes a no-op until Restart
func (s *Simulation) Stop() { s.running = false }

// Tick advances the layout by n iterations. It does not check alphaMin and
// does not invoke callbacks, so it can pre-compute a static layout.
func (s *Simulation) Tick(n int) {
	for k := 0; k < n; k++ {
		s.alpha += (s.alphaTarget - s.alpha) * s.alphaDecay

		for _, name := range s.order {
			s.forces[name].Apply(s.alpha)
		}

		for _, node := range s.nodes {
			if node.FX == nil {
				node.VX *= s.velocityDecay
				node.X += node.VX
			} else {
				node.X = *node.FX
				node.VX = 0
			}
			if node.FY == nil {
				node.VY *= s.velocityDecay
				node.Y += node.VY
			} else {
				node.Y = *node.FY
				node.VY = 0
			}
		}
	}
}

// Step runs one tick and the tick callbacks if the simulation is running.
// When alpha drops below alphaMin the simulation stops and the end callbacks
// fire. It returns whether the simulation is still running.
func (s *Simulation) Step() bool {
	if !s.running {
		return false
	}

	s.Tick(1)
	for _, fn := range s.onTick {
		fn()
	}

	if s.alpha < s.alphaMin {
		s.running = false
		for _, fn := range s.onEnd {
			fn()
		}
		return false
	}
	return true
}

// Run steps until the simulation stops or maxTicks is reached and returns the
// number of ticks taken.
func (s *Simulation) Run(maxTicks int) int {
	ticks := 0
	for ticks < maxTicks && s.running {
		s.Step()
		ticks++
	}
	return ticks
}

// Find returns the node closest to (x, y) within radius. A radius <= 0
// searches without limit.
func (s *Simulation) Find(x, y, radius float64) (*Node, bool) {
	limit := math.Inf(1)
	if radius > 0 {
		limit = radius * radius
	}

	var closest *Node
	for _, node := range s.nodes {
		dx := x - node.X
		dy := y - node.Y
		d2 := dx*dx + dy*dy
		if d2 < limit {
			closest = node
			limit = d2
		}
	}
	return closest, closest != nil
}
