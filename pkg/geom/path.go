package geom

import "math"

// curveSegments is the number of line segments a Bezier curve is flattened to.
const curveSegments = 16

// Subpath is a flattened polyline, optionally closed.
type Subpath struct {
	Points []Point
	Closed bool
}

// Path is a sequence of flattened subpaths.
type Path struct {
	Subpaths []Subpath
}

func (p *Path) current() *Subpath {
	if len(p.Subpaths) == 0 {
		return nil
	}
	return &p.Subpaths[len(p.Subpaths)-1]
}

// Last returns the current point, or the origin for an empty path.
func (p *Path) Last() Point {
	sp := p.current()
	if sp == nil || len(sp.Points) == 0 {
		return Point{}
	}
	return sp.Points[len(sp.Points)-1]
}

func (p *Path) MoveTo(x, y float64) {
	p.Subpaths = append(p.Subpaths, Subpath{Points: []Point{{x, y}}})
}

func (p *Path) LineTo(x, y float64) {
	sp := p.current()
	if sp == nil || sp.Closed {
		start := Point{}
		if sp != nil {
			start = sp.Points[0]
		}
		p.MoveTo(start.X, start.Y)
		sp = p.current()
	}
	sp.Points = append(sp.Points, Point{x, y})
}

// CubicTo appends a flattened cubic Bezier from the current point.
func (p *Path) CubicTo(x1, y1, x2, y2, x, y float64) {
	p0 := p.Last()
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		u := 1 - t
		a, b, c, d := u*u*u, 3*u*u*t, 3*u*t*t, t*t*t
		p.LineTo(a*p0.X+b*x1+c*x2+d*x, a*p0.Y+b*y1+c*y2+d*y)
	}
}

// QuadTo appends a flattened quadratic Bezier from the current point.
func (p *Path) QuadTo(x1, y1, x, y float64) {
	p0 := p.Last()
	for i := 1; i <= curveSegments; i++ {
		t := float64(i) / curveSegments
		u := 1 - t
		a, b, c := u*u, 2*u*t, t*t
		p.LineTo(a*p0.X+b*x1+c*x, a*p0.Y+b*y1+c*y)
	}
}

// Ellipse appends a closed ellipse approximated by line segments.
func (p *Path) Ellipse(cx, cy, rx, ry float64) {
	n := curveSegments * 4
	p.MoveTo(cx+rx, cy)
	for i := 1; i < n; i++ {
		a := 2 * math.Pi * float64(i) / float64(n)
		p.LineTo(cx+rx*math.Cos(a), cy+ry*math.Sin(a))
	}
	p.Close()
}

func (p *Path) Close() {
	if sp := p.current(); sp != nil {
		sp.Closed = true
	}
}

func (p *Path) Empty() bool {
	for _, sp := range p.Subpaths {
		if len(sp.Points) > 1 {
			return false
		}
	}
	return true
}

// Bounds returns the bounding box of all points.
func (p *Path) Bounds() Rect {
	r := EmptyRect()
	for _, sp := range p.Subpaths {
		for _, pt := range sp.Points {
			r = r.AddPoint(pt)
		}
	}
	return r
}

// Transform returns a copy of p with every point mapped through m.
func (p *Path) Transform(m Matrix) *Path {
	out := &Path{Subpaths: make([]Subpath, len(p.Subpaths))}
	for i, sp := range p.Subpaths {
		pts := make([]Point, len(sp.Points))
		for j, pt := range sp.Points {
			pts[j] = m.Apply(pt)
		}
		out.Subpaths[i] = Subpath{Points: pts, Closed: sp.Closed}
	}
	return out
}

// Contains tests q against the fill area. Open subpaths are implicitly
// closed, as they are when filled.
func (p *Path) Contains(q Point, evenOdd bool) bool {
	winding := 0
	for _, sp := range p.Subpaths {
		n := len(sp.Points)
		if n < 3 {
			continue
		}
		for i := 0; i < n; i++ {
			a, b := sp.Points[i], sp.Points[(i+1)%n]
			if a.Y <= q.Y {
				if b.Y > q.Y && cross(a, b, q) > 0 {
					winding++
				}
			} else if b.Y <= q.Y && cross(a, b, q) < 0 {
				winding--
			}
		}
	}
	if evenOdd {
		return winding%2 != 0
	}
	return winding != 0
}

// NearStroke reports whether q lies within width/2 of the outline.
func (p *Path) NearStroke(q Point, width float64) bool {
	half := width / 2
	for _, sp := range p.Subpaths {
		n := len(sp.Points)
		segs := n - 1
		if sp.Closed {
			segs = n
		}
		for i := 0; i < segs; i++ {
			if distToSegment(q, sp.Points[i], sp.Points[(i+1)%n]) <= half {
				return true
			}
		}
	}
	return false
}

func cross(a, b, q Point) float64 {
	return (b.X-a.X)*(q.Y-a.Y) - (q.X-a.X)*(b.Y-a.Y)
}

func distToSegment(q, a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(q.X-a.X, q.Y-a.Y)
	}
	t := ((q.X-a.X)*dx + (q.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(q.X-(a.X+t*dx), q.Y-(a.Y+t*dy))
}
