package view

import "time"

// Config holds the layout and pacing parameters of a view
type Config struct {
	Width  float64
	Height float64

	NodeRadius     float64
	LinkDistance   float64
	ChargeStrength float64
	CenterStrength float64

	// ReheatTarget is the alpha target set while a node is dragged
	ReheatTarget float64
	Seed         uint64

	// Loop pacing
	FrameInterval time.Duration
	TicksPerFrame int
	PublishRate   float64
}

// DefaultConfig returns the 928x680 layout with d3's default forces
func DefaultConfig() Config {
	return Config{
		Width:          928,
		Height:         680,
		NodeRadius:     5,
		LinkDistance:   30,
		ChargeStrength: -30,
		CenterStrength: 0.1,
		ReheatTarget:   0.3,
		Seed:           1,
		FrameInterval:  time.Second / 60,
		TicksPerFrame:  1,
		PublishRate:    30,
	}
}

// withDefaults fills zero values from DefaultConfig
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.NodeRadius <= 0 {
		c.NodeRadius = d.NodeRadius
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = d.LinkDistance
	}
	if c.ChargeStrength == 0 {
		c.ChargeStrength = d.ChargeStrength
	}
	if c.CenterStrength == 0 {
		c.CenterStrength = d.CenterStrength
	}
	if c.ReheatTarget == 0 {
		c.ReheatTarget = d.ReheatTarget
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	if c.FrameInterval <= 0 {
		c.FrameInterval = d.FrameInterval
	}
	if c.TicksPerFrame <= 0 {
		c.TicksPerFrame = d.TicksPerFrame
	}
	if c.PublishRate <= 0 {
		c.PublishRate = d.PublishRate
	}
	return c
}
