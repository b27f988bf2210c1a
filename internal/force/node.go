package force

import "math"

// Node is a body in the simulation. X and Y start as NaN when created with
// NewNode so the simulation places them on its initial spiral.
type Node struct {
	Index  int
	X, Y   float64
	VX, VY float64

	// FX and FY pin the node when non-nil
	FX, FY *float64
}

// NewNode returns an unplaced node
func NewNode() *Node {
	return &Node{X: math.NaN(), Y: math.NaN()}
}

// NewNodes returns n unplaced nodes
func NewNodes(n int) []*Node {
	nodes := make([]*Node, n)
	for i := range nodes {
		nodes[i] = NewNode()
	}
	return nodes
}

// Pin fixes the node at (x, y) until Unpin is called
func (n *Node) Pin(x, y float64) {
	n.FX = &x
	n.FY = &y
}

// Unpin releases a pinned node back to the simulation
func (n *Node) Unpin() {
	n.FX = nil
	n.FY = nil
}

// Pinned reports whether either axis is fixed
func (n *Node) Pinned() bool {
	return n.FX != nil || n.FY != nil
}
