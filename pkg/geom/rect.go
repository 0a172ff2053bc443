package geom

import (
	"fmt"
	"math"
)

// Rect is an axis-aligned rectangle. A rectangle with negative width or
// height is empty; EmptyRect is the identity element of Union.
type Rect struct {
	X, Y, W, H float64
}

func EmptyRect() Rect { return Rect{W: -1, H: -1} }

func (r Rect) Empty() bool { return r.W < 0 || r.H < 0 }

func (r Rect) MaxX() float64 { return r.X + r.W }
func (r Rect) MaxY() float64 { return r.Y + r.H }

// Union returns the smallest rectangle containing r and o.
func (r Rect) Union(o Rect) Rect {
	if r.Empty() {
		return o
	}
	if o.Empty() {
		return r
	}
	x0, y0 := math.Min(r.X, o.X), math.Min(r.Y, o.Y)
	x1, y1 := math.Max(r.MaxX(), o.MaxX()), math.Max(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// AddPoint grows r to include p.
func (r Rect) AddPoint(p Point) Rect {
	if r.Empty() {
		return Rect{X: p.X, Y: p.Y}
	}
	return r.Union(Rect{X: p.X, Y: p.Y})
}

func (r Rect) Contains(p Point) bool {
	return !r.Empty() && p.X >= r.X && p.X <= r.MaxX() && p.Y >= r.Y && p.Y <= r.MaxY()
}

func (r Rect) Intersects(o Rect) bool {
	if r.Empty() || o.Empty() {
		return false
	}
	return r.X <= o.MaxX() && o.X <= r.MaxX() && r.Y <= o.MaxY() && o.Y <= r.MaxY()
}

// Intersect returns the overlap of r and o, or an empty rect.
func (r Rect) Intersect(o Rect) Rect {
	if !r.Intersects(o) {
		return EmptyRect()
	}
	x0, y0 := math.Max(r.X, o.X), math.Max(r.Y, o.Y)
	x1, y1 := math.Min(r.MaxX(), o.MaxX()), math.Min(r.MaxY(), o.MaxY())
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Inset grows (d < 0) or shrinks (d > 0) r on every side.
func (r Rect) Inset(d float64) Rect {
	if r.Empty() {
		return r
	}
	return Rect{X: r.X + d, Y: r.Y + d, W: r.W - 2*d, H: r.H - 2*d}
}

func (r Rect) String() string {
	if r.Empty() {
		return "empty"
	}
	return fmt.Sprintf("[%g %g %g %g]", r.X, r.Y, r.W, r.H)
}
