package paint

import (
	"svgtrav/pkg/css"
	"svgtrav/pkg/geom"
)

type ServerKind int

const (
	Solid ServerKind = iota
	LinearGradient
	RadialGradient
)

// Stop is a gradient color stop; Offset is in [0,1].
type Stop struct {
	Offset float64
	Color  css.Color
}

// Server describes how a fill or stroke is painted. Gradient coordinates are
// in the user space of the painted node, or in its bounding box when
// BoundingBoxUnits is set.
type Server struct {
	Kind  ServerKind
	Color css.Color

	X1, Y1, X2, Y2    float64
	CX, CY, R, FX, FY float64
	Stops             []Stop
	GradientTransform geom.Matrix
	BoundingBoxUnits  bool
}

// SolidColor returns a solid paint server.
func SolidColor(c css.Color) *Server { return &Server{Kind: Solid, Color: c} }

// Run is a positioned piece of text. X and Y are the start of the baseline.
type Run struct {
	Text     string
	X, Y     float64
	Size     float64
	Bold     bool
	Family   string
	Ascent   float64
	Descent  float64
	Advances []float64 // per rune
	Fill     *Server
	Width    float64
}

// Box returns the run's cell box.
func (r Run) Box() geom.Rect {
	return geom.Rect{X: r.X, Y: r.Y - r.Ascent, W: r.Width, H: r.Ascent + r.Descent}
}
