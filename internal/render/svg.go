// Package render draws view scenes as standalone SVG documents.
package render

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"forceview/internal/view"
)

const (
	linkStyle   = "stroke:#999;stroke-opacity:0.6"
	nodeStyle   = "stroke:#fff;stroke-width:1.5"
	emptyStyle  = "fill:#666;font-size:14px;font-family:system-ui,sans-serif;text-anchor:middle"
	pinnedStyle = "stroke:#000;stroke-width:1.5"
)

// SVG writes scene as an SVG document. Links are drawn below nodes and every
// node carries a <title> with its display name. Coordinates are rounded to
// whole scene units.
func SVG(w io.Writer, scene view.Scene) error {
	cw := &errWriter{w: w}
	canvas := svg.New(cw)

	vb := scene.ViewBox
	canvas.Start(px(scene.Width), px(scene.Height),
		fmt.Sprintf(`viewBox="%d %d %d %d"`, px(vb[0]), px(vb[1]), px(vb[2]), px(vb[3])),
		`style="max-width:100%;height:auto"`)

	if scene.Empty {
		msg := "no graph"
		if scene.Reason != "" {
			msg = scene.Reason
		}
		canvas.Text(0, 0, msg, emptyStyle)
		canvas.End()
		return cw.err
	}

	canvas.Group(linkStyle, `class="links"`)
	for _, l := range scene.Lines {
		canvas.Line(px(l.X1), px(l.Y1), px(l.X2), px(l.Y2),
			fmt.Sprintf("stroke-width:%g", l.StrokeWidth),
			fmt.Sprintf(`data-source="%s"`, html.EscapeString(l.Source)),
			fmt.Sprintf(`data-target="%s"`, html.EscapeString(l.Target)))
	}
	canvas.Gend()

	canvas.Group(nodeStyle, `class="nodes"`)
	for _, c := range scene.Circles {
		canvas.Group(fmt.Sprintf(`data-id="%s"`, html.EscapeString(c.ID)),
			fmt.Sprintf(`data-group="%d"`, int(c.Group)))
		canvas.Title(c.Title)
		style := "fill:" + c.Fill
		if c.Pinned {
			style += ";" + pinnedStyle
		}
		canvas.Circle(px(c.CX), px(c.CY), px(c.R), style)
		canvas.Gend()
	}
	canvas.Gend()

	canvas.End()
	return cw.err
}

func px(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Round(v))
}

// errWriter keeps the first write error; svgo discards them
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) Write(p []byte) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	n, err := e.w.Write(p)
	if err != nil {
		e.err = err
	}
	return n, err
}
