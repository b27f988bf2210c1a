package view

import (
	"errors"
	"fmt"
)

var (
	// ErrNotDragging is returned for drag-move and drag-end without drag-start
	ErrNotDragging = errors.New("node is not being dragged")
	// ErrAlreadyDragging is returned for a second drag-start on the same node
	ErrAlreadyDragging = errors.New("node is already being dragged")
)

// DragState is the gesture state of a node
type DragState int

const (
	// Idle nodes are positioned by the simulation alone
	Idle DragState = iota
	// Dragging nodes are pinned to the pointer
	Dragging
)

// String returns the state name
func (s DragState) String() string {
	if s == Dragging {
		return "dragging"
	}
	return "idle"
}

// DragState returns the gesture state of the node with id
func (c *Controller) DragState(id string) (DragState, error) {
	i, err := c.lookup(id)
	if err != nil {
		return Idle, err
	}
	if c.dragging[i] {
		return Dragging, nil
	}
	return Idle, nil
}

// ActiveDrags returns the number of nodes currently being dragged
func (c *Controller) ActiveDrags() int {
	return len(c.dragging)
}

// DragStart pins the node at its current position. When no other drag is in
// progress the simulation is reheated so the graph responds to the gesture.
func (c *Controller) DragStart(id string) error {
	i, err := c.lookup(id)
	if err != nil {
		return err
	}
	if c.dragging[i] {
		return fmt.Errorf("node %q: %w", id, ErrAlreadyDragging)
	}

	if len(c.dragging) == 0 {
		c.sim.SetAlphaTarget(c.cfg.ReheatTarget)
		c.sim.Restart()
		c.scene.Running = true
	}

	b := c.bodies[i]
	b.Pin(b.X, b.Y)
	c.dragging[i] = true
	c.scene.Circles[i].Pinned = true
	return nil
}

// DragMove pins the dragged node to the pointer at (x, y)
func (c *Controller) DragMove(id string, x, y float64) error {
	i, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !c.dragging[i] {
		return fmt.Errorf("node %q: %w", id, ErrNotDragging)
	}

	c.bodies[i].Pin(x, y)
	return nil
}

// DragEnd unpins the node. When it was the last active drag the alpha
// target returns to zero so the simulation cools naturally.
func (c *Controller) DragEnd(id string) error {
	i, err := c.lookup(id)
	if err != nil {
		return err
	}
	if !c.dragging[i] {
		return fmt.Errorf("node %q: %w", id, ErrNotDragging)
	}

	delete(c.dragging, i)
	if len(c.dragging) == 0 {
		c.sim.SetAlphaTarget(0)
	}

	c.bodies[i].Unpin()
	c.scene.Circles[i].Pinned = false
	return nil
}
