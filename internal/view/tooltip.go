package view

// PointerEnter shows the tooltip for the node with id next to the pointer
// at page coordinates (pageX, pageY).
func (c *Controller) PointerEnter(id string, pageX, pageY float64) error {
	i, err := c.lookup(id)
	if err != nil {
		return err
	}

	c.scene.Tooltip = Tooltip{
		Visible: true,
		NodeID:  id,
		Text:    c.nodes[i].DisplayName(),
		Left:    pageX + tooltipOffsetX,
		Top:     pageY + tooltipOffsetY,
	}
	c.scene.Frame++
	return nil
}

// PointerLeave hides the tooltip. Leaving a node other than the one the
// tooltip belongs to leaves it in place.
func (c *Controller) PointerLeave(id string) error {
	if _, err := c.lookup(id); err != nil {
		return err
	}
	if c.scene.Tooltip.Visible && c.scene.Tooltip.NodeID != id {
		return nil
	}

	c.scene.Tooltip = Tooltip{}
	c.scene.Frame++
	return nil
}
