package view

import "forceview/internal/domain"

// category10 is the ordinal palette used to fill nodes by group
var category10 = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd",
	"#8c564b", "#e377c2", "#7f7f7f", "#bcbd22", "#17becf",
}

// GroupColor returns the fill for a group
func GroupColor(g domain.Group) string {
	i := int(g) % len(category10)
	if i < 0 {
		i += len(category10)
	}
	return category10[i]
}

// Scene is the rendered state of a view. Shapes mirror simulation positions
// as of the last tick.
type Scene struct {
	Width   float64    `json:"width"`
	Height  float64    `json:"height"`
	ViewBox [4]float64 `json:"view_box"`

	Lines   []Line   `json:"lines"`
	Circles []Circle `json:"circles"`
	Tooltip Tooltip  `json:"tooltip"`

	Frame   uint64  `json:"frame"`
	Alpha   float64 `json:"alpha"`
	Running bool    `json:"running"`

	Empty  bool   `json:"empty,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Line is the shape drawn for a link
type Line struct {
	ID          string  `json:"id"`
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	X1          float64 `json:"x1"`
	Y1          float64 `json:"y1"`
	X2          float64 `json:"x2"`
	Y2          float64 `json:"y2"`
	StrokeWidth float64 `json:"stroke_width"`
}

// Circle is the shape drawn for a node
type Circle struct {
	ID     string       `json:"id"`
	Title  string       `json:"title"`
	Group  domain.Group `json:"group"`
	CX     float64      `json:"cx"`
	CY     float64      `json:"cy"`
	R      float64      `json:"r"`
	Fill   string       `json:"fill"`
	Pinned bool         `json:"pinned,omitempty"`
}

// Tooltip is the floating label shown while the pointer is over a node
type Tooltip struct {
	Visible bool    `json:"visible"`
	NodeID  string  `json:"node_id,omitempty"`
	Text    string  `json:"text,omitempty"`
	Left    float64 `json:"left"`
	Top     float64 `json:"top"`
}

// Tooltip offsets from the pointer, in page pixels
const (
	tooltipOffsetX = 10
	tooltipOffsetY = -15
)

func newScene(cfg Config) *Scene {
	return &Scene{
		Width:   cfg.Width,
		Height:  cfg.Height,
		ViewBox: [4]float64{-cfg.Width / 2, -cfg.Height / 2, cfg.Width, cfg.Height},
		Lines:   make([]Line, 0),
		Circles: make([]Circle, 0),
	}
}

// Clone returns a deep copy safe to hand to another goroutine
func (s *Scene) Clone() Scene {
	c := *s
	c.Lines = make([]Line, len(s.Lines))
	copy(c.Lines, s.Lines)
	c.Circles = make([]Circle, len(s.Circles))
	copy(c.Circles, s.Circles)
	return c
}
