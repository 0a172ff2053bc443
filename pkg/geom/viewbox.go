package geom

import (
	"math"
	"strings"
)

// Align is the alignment part of preserveAspectRatio.
type Align int

const (
	AlignNone Align = iota
	AlignMin
	AlignMid
	AlignMax
)

// AspectRatio is a parsed preserveAspectRatio value.
type AspectRatio struct {
	X, Y  Align
	Slice bool
}

// ParseViewBox parses "minx miny width height". ok is false for malformed or
// non-positive boxes, which disable the viewBox transform.
func ParseViewBox(s string) (Rect, bool) {
	v := ParseNumbers(s)
	if len(v) != 4 || v[2] <= 0 || v[3] <= 0 {
		return Rect{}, false
	}
	return Rect{X: v[0], Y: v[1], W: v[2], H: v[3]}, true
}

// ParseAspectRatio parses preserveAspectRatio; the default is xMidYMid meet.
func ParseAspectRatio(s string) AspectRatio {
	ar := AspectRatio{X: AlignMid, Y: AlignMid}
	fields := strings.Fields(s)
	if len(fields) > 0 && fields[0] == "defer" {
		fields = fields[1:]
	}
	if len(fields) == 0 {
		return ar
	}
	if fields[0] == "none" {
		ar.X, ar.Y = AlignNone, AlignNone
	} else if len(fields[0]) == 8 {
		ar.X = parseAlign(fields[0][1:4])
		ar.Y = parseAlign(fields[0][5:8])
	}
	if len(fields) > 1 && fields[1] == "slice" {
		ar.Slice = true
	}
	return ar
}

func parseAlign(s string) Align {
	switch s {
	case "Min":
		return AlignMin
	case "Max":
		return AlignMax
	}
	return AlignMid
}

// ViewBoxTransform maps viewBox onto the viewport rectangle.
func ViewBoxTransform(viewBox Rect, ar AspectRatio, viewport Rect) Matrix {
	sx := viewport.W / viewBox.W
	sy := viewport.H / viewBox.H
	if ar.X == AlignNone || ar.Y == AlignNone {
		return Translate(viewport.X, viewport.Y).Multiply(Scale(sx, sy)).Multiply(Translate(-viewBox.X, -viewBox.Y))
	}
	s := math.Min(sx, sy)
	if ar.Slice {
		s = math.Max(sx, sy)
	}
	tx := viewport.X - viewBox.X*s
	ty := viewport.Y - viewBox.Y*s
	tx += alignOffset(ar.X, viewport.W-viewBox.W*s)
	ty += alignOffset(ar.Y, viewport.H-viewBox.H*s)
	return Matrix{A: s, D: s, E: tx, F: ty}
}

func alignOffset(a Align, slack float64) float64 {
	switch a {
	case AlignMid:
		return slack / 2
	case AlignMax:
		return slack
	}
	return 0
}
