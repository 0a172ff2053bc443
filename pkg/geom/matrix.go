// Package geom holds the 2D geometry shared by traversal passes and the
// rasterizer: points, rectangles, affine matrices and flattened paths.
package geom

import (
	"fmt"
	"math"
)

type Point struct {
	X, Y float64
}

// Matrix is an SVG affine transform [a c e; b d f; 0 0 1].
type Matrix struct {
	A, B, C, D, E, F float64
}

// Identity returns the identity transform.
func Identity() Matrix { return Matrix{A: 1, D: 1} }

func Translate(tx, ty float64) Matrix { return Matrix{A: 1, D: 1, E: tx, F: ty} }

func Scale(sx, sy float64) Matrix { return Matrix{A: sx, D: sy} }

// Rotate returns a rotation by deg degrees.
func Rotate(deg float64) Matrix {
	r := deg * math.Pi / 180
	s, c := math.Sincos(r)
	return Matrix{A: c, B: s, C: -s, D: c}
}

func SkewX(deg float64) Matrix { return Matrix{A: 1, C: math.Tan(deg * math.Pi / 180), D: 1} }

func SkewY(deg float64) Matrix { return Matrix{A: 1, B: math.Tan(deg * math.Pi / 180), D: 1} }

// Multiply returns m × n: n is applied first.
func (m Matrix) Multiply(n Matrix) Matrix {
	return Matrix{
		A: m.A*n.A + m.C*n.B,
		B: m.B*n.A + m.D*n.B,
		C: m.A*n.C + m.C*n.D,
		D: m.B*n.C + m.D*n.D,
		E: m.A*n.E + m.C*n.F + m.E,
		F: m.B*n.E + m.D*n.F + m.F,
	}
}

func (m Matrix) IsIdentity() bool { return m == Identity() }

// Det returns the determinant of the linear part.
func (m Matrix) Det() float64 { return m.A*m.D - m.B*m.C }

// Invert returns the inverse transform. ok is false for singular matrices.
func (m Matrix) Invert() (inv Matrix, ok bool) {
	det := m.Det()
	if math.Abs(det) < 1e-12 {
		return Matrix{}, false
	}
	inv.A = m.D / det
	inv.B = -m.B / det
	inv.C = -m.C / det
	inv.D = m.A / det
	inv.E = (m.C*m.F - m.D*m.E) / det
	inv.F = (m.B*m.E - m.A*m.F) / det
	return inv, true
}

func (m Matrix) Apply(p Point) Point {
	return Point{X: m.A*p.X + m.C*p.Y + m.E, Y: m.B*p.X + m.D*p.Y + m.F}
}

// ApplyRect returns the axis-aligned bounds of r after transformation.
func (m Matrix) ApplyRect(r Rect) Rect {
	if r.Empty() {
		return r
	}
	out := EmptyRect()
	for _, p := range [4]Point{{r.X, r.Y}, {r.X + r.W, r.Y}, {r.X, r.Y + r.H}, {r.X + r.W, r.Y + r.H}} {
		out = out.AddPoint(m.Apply(p))
	}
	return out
}

// ScaleFactor approximates the uniform scale of m, used for stroke widths
// and font sizes in device space.
func (m Matrix) ScaleFactor() float64 {
	return math.Sqrt(math.Abs(m.Det()))
}

func (m Matrix) String() string {
	return fmt.Sprintf("matrix(%g %g %g %g %g %g)", m.A, m.B, m.C, m.D, m.E, m.F)
}
