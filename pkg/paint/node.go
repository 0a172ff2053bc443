// Package paint is the render tree: an ordered tree of paint nodes carrying
// resolved geometry, paint and opacity, consumed by the rasterizer.
//
// Children are kept in an intrusive doubly-linked list so the builder can
// insert after a known predecessor and detach nodes in constant time.
package paint

import (
	"errors"
	"image"

	"svgtrav/pkg/geom"
)

// ErrOutOfMemory is returned by an Allocator that refuses to create a node.
var ErrOutOfMemory = errors.New("paint: out of memory")

type Kind int

const (
	Composite Kind = iota // <g>, <a>, <switch>, <text> containers
	Viewport              // nested <svg>
	Offset                // <use>
	Shape
	Text
	Image
)

func (k Kind) String() string {
	switch k {
	case Composite:
		return "composite"
	case Viewport:
		return "viewport"
	case Offset:
		return "offset"
	case Shape:
		return "shape"
	case Text:
		return "text"
	case Image:
		return "image"
	}
	return "unknown"
}

// Clip is a clip region in the user space of the node it is attached to.
// A point is inside when it is inside one of Paths and inside Within.
type Clip struct {
	Paths   []*geom.Path
	EvenOdd bool
	Within  *Clip
}

// Bounds returns the union of the clip path bounds, limited by Within.
func (c *Clip) Bounds() geom.Rect {
	r := geom.EmptyRect()
	for _, p := range c.Paths {
		r = r.Union(p.Bounds())
	}
	if c.Within != nil {
		r = r.Intersect(c.Within.Bounds())
	}
	return r
}

// Contains reports whether p lies inside the clip region.
func (c *Clip) Contains(p geom.Point) bool {
	for ; c != nil; c = c.Within {
		inside := false
		for _, path := range c.Paths {
			if path.Contains(p, c.EvenOdd) {
				inside = true
				break
			}
		}
		if !inside {
			return false
		}
	}
	return true
}

// Node is one drawable in the render tree.
type Node struct {
	Kind Kind
	Tag  string
	ID   string

	Transform     geom.Matrix
	Opacity       float64
	Visible       bool
	Fill          *Server
	Stroke        *Server
	FillOpacity   float64
	StrokeOpacity float64
	StrokeWidth   float64
	EvenOdd       bool
	Geometry      *geom.Path
	Runs          []Run
	Picture       image.Image
	PictureBox    geom.Rect
	Clip          *Clip

	parent, prev, next, first, last *Node

	extents      geom.Rect
	extentsValid bool
	hitArea      geom.Rect
	hitValid     bool
}

// Allocator creates paint nodes. The builder goes through an Allocator so a
// pass can be made to fail allocation.
type Allocator func(kind Kind) (*Node, error)

// NewNode allocates a node with neutral paint state.
func NewNode(kind Kind) (*Node, error) {
	return &Node{
		Kind:          kind,
		Transform:     geom.Identity(),
		Opacity:       1,
		Visible:       true,
		FillOpacity:   1,
		StrokeOpacity: 1,
		StrokeWidth:   1,
	}, nil
}

// LimitedAllocator returns an allocator that fails after n nodes.
func LimitedAllocator(n int) Allocator {
	return func(kind Kind) (*Node, error) {
		if n <= 0 {
			return nil, ErrOutOfMemory
		}
		n--
		return NewNode(kind)
	}
}

func (n *Node) Parent() *Node     { return n.parent }
func (n *Node) FirstChild() *Node { return n.first }
func (n *Node) LastChild() *Node  { return n.last }
func (n *Node) Next() *Node       { return n.next }
func (n *Node) Prev() *Node       { return n.prev }

// Attached reports whether n has a parent.
func (n *Node) Attached() bool { return n.parent != nil }

// Children returns the children in paint order.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.first; c != nil; c = c.next {
		out = append(out, c)
	}
	return out
}

// Insert places child directly after pred, or first when pred is nil. A
// child already in that position is left alone; otherwise it is detached
// from wherever it was.
func (n *Node) Insert(child, pred *Node) {
	if pred != nil && pred.parent != n {
		pred = n.last
	}
	if child.parent == n && child.prev == pred {
		return
	}
	child.Detach()
	child.parent = n
	child.prev = pred
	if pred == nil {
		child.next = n.first
		n.first = child
	} else {
		child.next = pred.next
		pred.next = child
	}
	if child.next != nil {
		child.next.prev = child
	} else {
		n.last = child
	}
	n.MarkDirty()
}

// Append inserts child as the last child.
func (n *Node) Append(child *Node) { n.Insert(child, n.last) }

// Detach unlinks n from its parent.
func (n *Node) Detach() {
	p := n.parent
	if p == nil {
		return
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		p.first = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		p.last = n.prev
	}
	n.parent, n.prev, n.next = nil, nil, nil
	p.MarkDirty()
}

// ClearChildren detaches every child.
func (n *Node) ClearChildren() {
	for c := n.first; c != nil; {
		next := c.next
		c.parent, c.prev, c.next = nil, nil, nil
		c = next
	}
	n.first, n.last = nil, nil
	n.MarkDirty()
}

// MarkDirty invalidates the cached extents of n and its ancestors.
func (n *Node) MarkDirty() {
	for p := n; p != nil && (p.extentsValid || p.hitValid); p = p.parent {
		p.extentsValid, p.hitValid = false, false
	}
}

// Extents returns the bounds of n and its descendants in n's coordinate
// system (before n's own transform), including stroke width.
func (n *Node) Extents() geom.Rect {
	if !n.extentsValid {
		n.extents, n.extentsValid = n.bounds(false), true
	}
	return n.extents
}

// HitArea is Extents grown to everything pointer-events can make
// hittable: the stroke area of unstroked geometry and the box of an image
// that did not load.
func (n *Node) HitArea() geom.Rect {
	if !n.hitValid {
		n.hitArea, n.hitValid = n.bounds(true), true
	}
	return n.hitArea
}

func (n *Node) bounds(hit bool) geom.Rect {
	r := geom.EmptyRect()
	if n.Geometry != nil {
		b := n.Geometry.Bounds()
		if (hit || n.Stroke != nil) && n.StrokeWidth > 0 {
			b = b.Inset(-n.StrokeWidth / 2)
		}
		r = r.Union(b)
	}
	for _, run := range n.Runs {
		r = r.Union(run.Box())
	}
	if n.Picture != nil || hit && n.Kind == Image {
		r = r.Union(n.PictureBox)
	}
	for c := n.first; c != nil; c = c.next {
		var e geom.Rect
		if hit {
			e = c.HitArea()
		} else {
			e = c.Extents()
		}
		r = r.Union(c.Transform.ApplyRect(e))
	}
	if n.Clip != nil {
		r = r.Intersect(n.Clip.Bounds())
	}
	return r
}

// CTM returns the transform from n's coordinate system to the root's parent
// space, including n's own transform.
func (n *Node) CTM() geom.Matrix {
	m := geom.Identity()
	for p := n; p != nil; p = p.parent {
		m = p.Transform.Multiply(m)
	}
	return m
}

// DeviceExtents returns the extents of n mapped to device space.
func (n *Node) DeviceExtents() geom.Rect {
	return n.CTM().ApplyRect(n.Extents())
}

// DeviceHitArea returns the hit area of n mapped to device space.
func (n *Node) DeviceHitArea() geom.Rect {
	return n.CTM().ApplyRect(n.HitArea())
}

// Reset clears paint state so a reused node can be set up again. Children
// and the position in the parent are kept.
func (n *Node) Reset() {
	n.Transform = geom.Identity()
	n.Opacity, n.Visible = 1, true
	n.Fill, n.Stroke = nil, nil
	n.FillOpacity, n.StrokeOpacity, n.StrokeWidth = 1, 1, 1
	n.EvenOdd = false
	n.Geometry, n.Runs = nil, nil
	n.Picture, n.PictureBox = nil, geom.Rect{}
	n.Clip = nil
	n.MarkDirty()
}
