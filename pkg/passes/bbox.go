package passes

import (
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/shape"
	"svgtrav/pkg/text"
	"svgtrav/pkg/traverse"
)

// BBoxUpdater recomputes the cached bounding boxes of invalidated
// contexts. A box covers the fill geometry of the element and its
// descendants, without stroke, in the element's user space.
type BBoxUpdater struct {
	Measurer *text.Measurer

	// Computed counts the boxes recomputed by the pass.
	Computed int

	layout textLayout
}

func (u *BBoxUpdater) AllowTraverse(info *traverse.NodeInfo) bool {
	ctx := info.Ctx
	if !ctx.BBoxValid || info.Flags&traverse.InText != 0 {
		return true
	}
	if p := info.Parent(); p != nil {
		p.Ctx.BBox = p.Ctx.BBox.Union(ctx.Transform.ApplyRect(ctx.BBox))
	}
	return false
}

func (u *BBoxUpdater) EnterContainer(info *traverse.NodeInfo) error {
	info.Ctx.BBox = geom.EmptyRect()
	switch info.Kind {
	case elemctx.KindText:
		u.layout.measurer = u.Measurer
		u.layout.begin(info)
	case elemctx.KindTextSpan:
		u.layout.span(info)
	}
	return nil
}

func (u *BBoxUpdater) EnterLeaf(info *traverse.NodeInfo) error {
	info.Ctx.BBox = geom.EmptyRect()
	return nil
}

// HandleContent adds the element's own geometry.
func (u *BBoxUpdater) HandleContent(info *traverse.NodeInfo) error {
	ctx := info.Ctx
	n := info.Node
	switch info.Kind {
	case elemctx.KindGraphics:
		if g := shape.Geometry(n, info.ShapeContext()); g != nil {
			ctx.BBox = g.Bounds()
		}
	case elemctx.KindImage:
		sc := info.ShapeContext()
		r := geom.Rect{X: sc.X(n, "x", 0), Y: sc.Y(n, "y", 0), W: sc.X(n, "width", 0), H: sc.Y(n, "height", 0)}
		if r.W > 0 && r.H > 0 {
			ctx.BBox = r
		}
	case elemctx.KindTextNode:
		if info.TextRoot() == nil {
			break
		}
		if i := u.layout.add(info); i >= 0 {
			ctx.BBox = u.layout.runs[i].Box()
		}
	}
	return nil
}

func (u *BBoxUpdater) Leave(info *traverse.NodeInfo) error {
	ctx := info.Ctx
	if info.Invisible {
		ctx.BBox = geom.EmptyRect()
	} else if info.Kind == elemctx.KindText {
		if dx := u.layout.anchor(info.MustStyle().TextAnchor()); dx != 0 {
			for c := ctx.FirstChild(); c != nil; c = c.Next() {
				shiftBoxes(c, dx)
			}
		}
		ctx.BBox = geom.EmptyRect()
		for _, r := range u.layout.runs {
			ctx.BBox = ctx.BBox.Union(r.Box())
		}
		u.layout.runs = nil
	}
	if !info.Failed() {
		ctx.BBoxValid = true
		ctx.Transform = info.Transform
		u.Computed++
	}
	if p := info.Parent(); p != nil && !info.Invisible {
		p.Ctx.BBox = p.Ctx.BBox.Union(info.Transform.ApplyRect(ctx.BBox))
	}
	return nil
}

func shiftBoxes(c *elemctx.Context, dx float64) {
	if !c.BBox.Empty() {
		c.BBox.X += dx
	}
	for ch := c.FirstChild(); ch != nil; ch = ch.Next() {
		shiftBoxes(ch, dx)
	}
}
