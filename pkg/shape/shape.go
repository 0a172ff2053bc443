// Package shape derives the geometry of SVG basic shapes and paths from
// element attributes.
package shape

import (
	"math"
	"strconv"
	"strings"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
)

// Context supplies what percentage and font-relative lengths resolve against.
type Context struct {
	Viewport geom.Rect
	FontSize float64
}

type axis int

const (
	horizontal axis = iota
	vertical
	diagonal
)

// length parses an SVG length. Unknown units fall back to user units.
func (c Context) length(s string, ax axis) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	unit := ""
	for _, u := range []string{"%", "px", "pt", "pc", "mm", "cm", "in", "em", "ex"} {
		if strings.HasSuffix(s, u) {
			unit, s = u, strings.TrimSpace(strings.TrimSuffix(s, u))
			break
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	switch unit {
	case "%":
		switch ax {
		case horizontal:
			return v / 100 * c.Viewport.W, true
		case vertical:
			return v / 100 * c.Viewport.H, true
		default:
			d := math.Hypot(c.Viewport.W, c.Viewport.H) / math.Sqrt2
			return v / 100 * d, true
		}
	case "pt":
		return v * 4 / 3, true
	case "pc":
		return v * 16, true
	case "mm":
		return v * 96 / 25.4, true
	case "cm":
		return v * 96 / 2.54, true
	case "in":
		return v * 96, true
	case "em":
		return v * c.fontSize(), true
	case "ex":
		return v * c.fontSize() / 2, true
	}
	return v, true
}

func (c Context) fontSize() float64 {
	if c.FontSize > 0 {
		return c.FontSize
	}
	return 16
}

// X resolves a horizontal length attribute, def when absent or malformed.
func (c Context) X(n *dom.Node, attr string, def float64) float64 {
	if v, ok := c.length(n.Attr(attr), horizontal); ok {
		return v
	}
	return def
}

// Y resolves a vertical length attribute.
func (c Context) Y(n *dom.Node, attr string, def float64) float64 {
	if v, ok := c.length(n.Attr(attr), vertical); ok {
		return v
	}
	return def
}

// R resolves a length measured along the normalized diagonal (radii).
func (c Context) R(n *dom.Node, attr string, def float64) float64 {
	if v, ok := c.length(n.Attr(attr), diagonal); ok {
		return v
	}
	return def
}

// Geometry returns the outline of a shape element in its user space, or nil
// when the element has no geometry or its attributes disable rendering
// (zero width, negative radius, ...).
func Geometry(n *dom.Node, c Context) *geom.Path {
	p := &geom.Path{}
	switch n.TagName {
	case "rect", "image":
		x, y := c.X(n, "x", 0), c.Y(n, "y", 0)
		w, h := c.X(n, "width", 0), c.Y(n, "height", 0)
		if w <= 0 || h <= 0 {
			return nil
		}
		if n.TagName == "rect" {
			rx, ry := roundedRadii(n, c, w, h)
			if rx > 0 && ry > 0 {
				roundedRect(p, x, y, w, h, rx, ry)
				return p
			}
		}
		p.MoveTo(x, y)
		p.LineTo(x+w, y)
		p.LineTo(x+w, y+h)
		p.LineTo(x, y+h)
		p.Close()
	case "circle":
		r := c.R(n, "r", 0)
		if r <= 0 {
			return nil
		}
		p.Ellipse(c.X(n, "cx", 0), c.Y(n, "cy", 0), r, r)
	case "ellipse":
		rx, ry := c.X(n, "rx", 0), c.Y(n, "ry", 0)
		if rx <= 0 || ry <= 0 {
			return nil
		}
		p.Ellipse(c.X(n, "cx", 0), c.Y(n, "cy", 0), rx, ry)
	case "line":
		p.MoveTo(c.X(n, "x1", 0), c.Y(n, "y1", 0))
		p.LineTo(c.X(n, "x2", 0), c.Y(n, "y2", 0))
	case "polyline", "polygon":
		pts := geom.ParseNumbers(n.Attr("points"))
		if len(pts) < 4 {
			return nil
		}
		p.MoveTo(pts[0], pts[1])
		for i := 2; i+1 < len(pts); i += 2 {
			p.LineTo(pts[i], pts[i+1])
		}
		if n.TagName == "polygon" {
			p.Close()
		}
	case "path":
		// a syntax error keeps the part parsed so far
		parsed, _ := geom.ParsePathData(n.Attr("d"))
		if parsed.Empty() {
			return nil
		}
		return parsed
	default:
		return nil
	}
	return p
}

func roundedRadii(n *dom.Node, c Context, w, h float64) (float64, float64) {
	rx, okx := c.length(n.Attr("rx"), horizontal)
	ry, oky := c.length(n.Attr("ry"), vertical)
	switch {
	case !okx && !oky:
		return 0, 0
	case !okx:
		rx = ry
	case !oky:
		ry = rx
	}
	return math.Min(rx, w/2), math.Min(ry, h/2)
}

func roundedRect(p *geom.Path, x, y, w, h, rx, ry float64) {
	// kappa for approximating a quarter ellipse with a cubic
	const k = 0.5522847498
	p.MoveTo(x+rx, y)
	p.LineTo(x+w-rx, y)
	p.CubicTo(x+w-rx+k*rx, y, x+w, y+ry-k*ry, x+w, y+ry)
	p.LineTo(x+w, y+h-ry)
	p.CubicTo(x+w, y+h-ry+k*ry, x+w-rx+k*rx, y+h, x+w-rx, y+h)
	p.LineTo(x+rx, y+h)
	p.CubicTo(x+rx-k*rx, y+h, x, y+h-ry+k*ry, x, y+h-ry)
	p.LineTo(x, y+ry)
	p.CubicTo(x, y+ry-k*ry, x+rx-k*rx, y, x+rx, y)
	p.Close()
}
