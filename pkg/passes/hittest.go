package passes

import (
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/traverse"
)

// HitTester finds the elements under a device-space point, or the elements
// whose painted extents intersect a device-space rectangle. It reads the
// render tree, which must be up to date.
type HitTester struct {
	traverse.BaseBehavior

	Point geom.Point
	Rect  geom.Rect
	Area  bool // test Rect instead of Point

	hits []*dom.Node
}

func NewPointTester(x, y float64) *HitTester {
	return &HitTester{Point: geom.Point{X: x, Y: y}}
}

func NewRectTester(r geom.Rect) *HitTester {
	return &HitTester{Rect: r, Area: true}
}

// Hits returns the hit elements in paint order.
func (h *HitTester) Hits() []*dom.Node { return h.hits }

// Top returns the topmost hit, or nil.
func (h *HitTester) Top() *dom.Node {
	if len(h.hits) == 0 {
		return nil
	}
	return h.hits[len(h.hits)-1]
}

// AllowTraverse prunes subtrees whose hit area misses the query. The hit
// area covers everything EnterLeaf can accept, so pruning never changes
// the result.
func (h *HitTester) AllowTraverse(info *traverse.NodeInfo) bool {
	rn := info.Ctx.RenderNode
	if rn == nil || !rn.Attached() {
		return false
	}
	ext := rn.DeviceHitArea()
	if h.Area {
		return ext.Intersects(h.Rect)
	}
	return ext.Contains(h.Point)
}

func (h *HitTester) EnterContainer(info *traverse.NodeInfo) error {
	if info.Kind != elemctx.KindText {
		return nil
	}
	rn := info.Ctx.RenderNode
	fill, _, ok := targets(info, rn)
	if ok && (fill || h.Area) && h.textHit(rn) {
		h.hits = append(h.hits, info.Real())
	}
	return traverse.SkipChildren
}

func (h *HitTester) textHit(rn *paint.Node) bool {
	if h.Area {
		m := rn.CTM()
		for _, r := range rn.Runs {
			if m.ApplyRect(r.Box()).Intersects(h.Rect) {
				return true
			}
		}
		return false
	}
	q, ok := h.local(rn)
	if !ok || !h.clipped(rn) {
		return false
	}
	for _, r := range rn.Runs {
		if r.Box().Contains(q) {
			return true
		}
	}
	return false
}

func (h *HitTester) EnterLeaf(info *traverse.NodeInfo) error {
	rn := info.Ctx.RenderNode
	fill, stroke, ok := targets(info, rn)
	if !ok {
		return nil
	}
	if h.Area {
		if h.areaHit(rn, fill, stroke) {
			h.hits = append(h.hits, info.Real())
		}
		return nil
	}
	q, ok := h.local(rn)
	if !ok || !h.clipped(rn) {
		return nil
	}
	hit := false
	switch {
	case rn.Kind == paint.Image:
		hit = rn.PictureBox.Contains(q)
	case rn.Geometry != nil:
		hit = fill && rn.Geometry.Contains(q, rn.EvenOdd) ||
			stroke && rn.StrokeWidth > 0 && rn.Geometry.NearStroke(q, rn.StrokeWidth)
	}
	if hit {
		h.hits = append(h.hits, info.Real())
	}
	return nil
}

// areaHit tests the hittable part of a leaf against Rect in device space.
func (h *HitTester) areaHit(rn *paint.Node, fill, stroke bool) bool {
	r := geom.EmptyRect()
	switch {
	case rn.Kind == paint.Image:
		r = rn.PictureBox
	case rn.Geometry != nil:
		b := rn.Geometry.Bounds()
		if stroke && rn.StrokeWidth > 0 {
			r = b.Inset(-rn.StrokeWidth / 2)
		} else if fill {
			r = b
		}
	}
	return rn.CTM().ApplyRect(r).Intersects(h.Rect)
}

// targets applies pointer-events: it reports whether the fill and the
// stroke area can be hit, and whether the element can be hit at all.
func targets(info *traverse.NodeInfo, rn *paint.Node) (fill, stroke, ok bool) {
	if rn == nil {
		return false, false, false
	}
	painted := func() (bool, bool) {
		f, s := rn.Fill != nil, rn.Stroke != nil
		if rn.Kind == paint.Image || rn.Kind == paint.Text {
			f = true
		}
		return f, s
	}
	switch pe := info.MustStyle().PointerEvents(); pe {
	case "none":
		return false, false, false
	case "visibleFill", "visibleStroke", "visible":
		if !rn.Visible {
			return false, false, false
		}
		return pe != "visibleStroke", pe != "visibleFill", true
	case "painted":
		fill, stroke = painted()
	case "fill":
		fill = true
	case "stroke":
		stroke = true
	case "all":
		fill, stroke = true, true
	default:
		if !rn.Visible {
			return false, false, false
		}
		fill, stroke = painted()
	}
	return fill, stroke, fill || stroke
}

// local maps the query point into rn's coordinate system.
func (h *HitTester) local(rn *paint.Node) (geom.Point, bool) {
	inv, ok := rn.CTM().Invert()
	if !ok {
		return geom.Point{}, false
	}
	return inv.Apply(h.Point), true
}

// clipped reports whether the point survives the clips of rn and its
// ancestors.
func (h *HitTester) clipped(rn *paint.Node) bool {
	for p := rn; p != nil; p = p.Parent() {
		if p.Clip == nil {
			continue
		}
		inv, ok := p.CTM().Invert()
		if !ok {
			return false
		}
		// clip geometry is in the space of p's children
		if !p.Clip.Contains(inv.Apply(h.Point)) {
			return false
		}
	}
	return true
}
