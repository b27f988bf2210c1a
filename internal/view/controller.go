// Package view implements the graph view controller: it owns a force
// simulation over a snapshot, keeps a scene of circles and lines in sync with
// it on every tick, and applies pointer gestures (drag, hover, double-click).
//
// A Controller is not safe for concurrent use. A Loop owns one controller and
// serializes ticks and gestures on a single goroutine.
package view

import (
	"errors"
	"fmt"

	"forceview/internal/domain"
	"forceview/internal/force"
)

// ErrClosed is returned by operations on a controller after Close
var ErrClosed = errors.New("view closed")

// NodeState is a read-only view of a node and its simulation state
type NodeState struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Group    domain.Group `json:"group"`
	X        float64      `json:"x"`
	Y        float64      `json:"y"`
	FX       *float64     `json:"fx,omitempty"`
	FY       *float64     `json:"fy,omitempty"`
	Dragging bool         `json:"dragging"`
}

// Controller owns the simulation and scene of one view
type Controller struct {
	cfg    Config
	routes Routes
	nav    Navigator

	nodes  []domain.Node
	links  []domain.ResolvedLink
	index  map[string]int
	bodies []*force.Node
	sim    *force.Simulation

	scene    *Scene
	dragging map[int]bool

	onEnd  []func()
	closed bool
}

// Option configures a Controller
type Option func(*Controller)

// WithRoutes replaces the group to path prefix table
func WithRoutes(routes Routes) Option {
	return func(c *Controller) {
		c.routes = routes
	}
}

// WithNavigator sets the receiver of double-click navigation
func WithNavigator(nav Navigator) Option {
	return func(c *Controller) {
		c.nav = nav
	}
}

// New builds a controller for snapshot. Links naming missing nodes fail with
// domain.ErrUnresolvedLink before any layout runs.
func New(cfg Config, snapshot *domain.Snapshot, opts ...Option) (*Controller, error) {
	if snapshot == nil {
		snapshot = domain.NewSnapshot()
	}
	links, err := snapshot.Resolve()
	if err != nil {
		return nil, fmt.Errorf("resolve snapshot: %w", err)
	}
	index, _ := snapshot.IndexNodes()

	cfg = cfg.withDefaults()
	c := &Controller{
		cfg:      cfg,
		routes:   DefaultRoutes(),
		nodes:    append([]domain.Node(nil), snapshot.Nodes...),
		links:    links,
		index:    index,
		bodies:   force.NewNodes(len(snapshot.Nodes)),
		scene:    newScene(cfg),
		dragging: make(map[int]bool),
	}
	for _, opt := range opts {
		opt(c)
	}

	edges := make([]force.Edge, len(links))
	for i, l := range links {
		edges[i] = force.Edge{Source: l.Source, Target: l.Target}
	}

	c.sim = force.New(c.bodies, force.WithSeed(cfg.Seed))
	c.sim.Force("link", force.NewLink(edges).Distance(cfg.LinkDistance)).
		Force("charge", force.NewManyBody().Strength(cfg.ChargeStrength)).
		Force("x", force.NewPositionX(0).Strength(cfg.CenterStrength)).
		Force("y", force.NewPositionY(0).Strength(cfg.CenterStrength))
	c.sim.OnTick(c.syncScene)
	c.sim.OnEnd(func() {
		for _, fn := range c.onEnd {
			fn()
		}
	})

	c.buildScene()
	return c, nil
}

// NewEmpty builds a controller with no nodes whose scene is marked empty
// with reason. It is used when the snapshot could not be loaded.
func NewEmpty(cfg Config, reason string) *Controller {
	c, _ := New(cfg, domain.NewSnapshot())
	c.sim.Stop()
	c.scene.Empty = true
	c.scene.Reason = reason
	c.scene.Running = false
	return c
}

func (c *Controller) buildScene() {
	s := c.scene
	s.Circles = make([]Circle, len(c.nodes))
	for i, n := range c.nodes {
		s.Circles[i] = Circle{
			ID:    n.ID,
			Title: n.DisplayName(),
			Group: n.Group,
			R:     c.cfg.NodeRadius,
			Fill:  GroupColor(n.Group),
		}
	}
	s.Lines = make([]Line, len(c.links))
	for i, l := range c.links {
		s.Lines[i] = Line{
			ID:          l.ID,
			Source:      c.nodes[l.Source].ID,
			Target:      c.nodes[l.Target].ID,
			StrokeWidth: 2,
		}
	}
	c.syncScene()
}

// syncScene copies simulation positions into the scene shapes
func (c *Controller) syncScene() {
	s := c.scene
	for i, l := range c.links {
		src, tgt := c.bodies[l.Source], c.bodies[l.Target]
		line := &s.Lines[i]
		line.X1, line.Y1 = src.X, src.Y
		line.X2, line.Y2 = tgt.X, tgt.Y
	}
	for i, b := range c.bodies {
		circle := &s.Circles[i]
		circle.CX, circle.CY = b.X, b.Y
		circle.Pinned = b.Pinned()
	}
	s.Alpha = c.sim.Alpha()
	s.Running = c.sim.Running()
	s.Frame++
}

// OnEnd registers a callback invoked when the simulation cools
func (c *Controller) OnEnd(fn func()) {
	c.onEnd = append(c.onEnd, fn)
}

// Tick advances the simulation one step. It returns false once the
// simulation has cooled and is idle.
func (c *Controller) Tick() bool {
	if c.closed {
		return false
	}
	running := c.sim.Step()
	if !running {
		c.scene.Running = false
	}
	return running
}

// Settle ticks until the simulation cools or maxTicks is reached and returns
// the number of ticks run.
func (c *Controller) Settle(maxTicks int) int {
	n := 0
	for n < maxTicks && c.Tick() {
		n++
	}
	return n
}

// Running reports whether the simulation will advance on the next Tick
func (c *Controller) Running() bool {
	return !c.closed && c.sim.Running()
}

// Alpha returns the simulation's current alpha
func (c *Controller) Alpha() float64 {
	return c.sim.Alpha()
}

// Scene returns the live scene. It must only be read on the goroutine that
// drives the controller; use Snapshot to hand it elsewhere.
func (c *Controller) Scene() *Scene {
	return c.scene
}

// Snapshot returns a copy of the scene
func (c *Controller) Snapshot() Scene {
	return c.scene.Clone()
}

// Len returns the number of nodes and links in the view
func (c *Controller) Len() (nodes, links int) {
	return len(c.nodes), len(c.links)
}

// Node returns the state of the node with id
func (c *Controller) Node(id string) (NodeState, error) {
	i, ok := c.index[id]
	if !ok {
		return NodeState{}, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return c.nodeState(i), nil
}

// Nodes returns the state of every node in snapshot order
func (c *Controller) Nodes() []NodeState {
	states := make([]NodeState, len(c.nodes))
	for i := range c.nodes {
		states[i] = c.nodeState(i)
	}
	return states
}

func (c *Controller) nodeState(i int) NodeState {
	n, b := c.nodes[i], c.bodies[i]
	state := NodeState{
		ID:       n.ID,
		Name:     n.Name,
		Group:    n.Group,
		X:        b.X,
		Y:        b.Y,
		Dragging: c.dragging[i],
	}
	if b.FX != nil {
		fx := *b.FX
		state.FX = &fx
	}
	if b.FY != nil {
		fy := *b.FY
		state.FY = &fy
	}
	return state
}

// NodeAt returns the ID of the node under (x, y) in scene coordinates
func (c *Controller) NodeAt(x, y float64) (string, bool) {
	b, ok := c.sim.Find(x, y, c.cfg.NodeRadius)
	if !ok {
		return "", false
	}
	return c.nodes[b.Index].ID, true
}

func (c *Controller) lookup(id string) (int, error) {
	if c.closed {
		return 0, ErrClosed
	}
	i, ok := c.index[id]
	if !ok {
		return 0, fmt.Errorf("node %q: %w", id, domain.ErrNodeNotFound)
	}
	return i, nil
}

// DoubleClick resolves the detail location of a node and hands it to the
// navigator. Nodes whose group has no route fail with ErrUnknownGroup and
// nothing is navigated.
func (c *Controller) DoubleClick(id string) (string, error) {
	i, err := c.lookup(id)
	if err != nil {
		return "", err
	}
	location, err := c.routes.Resolve(c.nodes[i])
	if err != nil {
		return "", err
	}
	if c.nav != nil {
		if err := c.nav.Navigate(location); err != nil {
			return location, fmt.Errorf("navigate to %s: %w", location, err)
		}
	}
	return location, nil
}

// Close stops the simulation and releases the view. Further gestures fail
// with ErrClosed.
func (c *Controller) Close() {
	if c.closed {
		return
	}
	c.closed = true
	c.sim.Stop()
	c.scene.Running = false
	c.dragging = make(map[int]bool)
}

// Closed reports whether Close has been called
func (c *Controller) Closed() bool {
	return c.closed
}
