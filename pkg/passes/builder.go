// Package passes holds the behaviors run by the traversal engine: the
// render tree builder, the bounding box updater, hit testing, text
// measurement and small read-only walks.
package passes

import (
	"image"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/shape"
	"svgtrav/pkg/text"
	"svgtrav/pkg/traverse"
)

// ImageSource supplies the decoded picture of an <image> element.
type ImageSource interface {
	Image(n *dom.Node) (image.Image, bool)
}

type cursor struct {
	container *paint.Node
	pred      *paint.Node
}

// Builder reconciles the render tree with the node graph. Clean subtrees
// keep their paint nodes; only invalidated parts are rebuilt.
type Builder struct {
	Root     *paint.Node
	Alloc    paint.Allocator
	Measurer *text.Measurer
	Images   ImageSource

	// Created and Reused count paint nodes over the pass.
	Created int
	Reused  int

	cur    cursor
	saved  []cursor
	dirty  geom.Rect
	layout textLayout
}

// NewBuilder returns a builder that attaches the pass root's paint node
// below root.
func NewBuilder(root *paint.Node) *Builder {
	return &Builder{Root: root, cur: cursor{container: root}, dirty: geom.EmptyRect()}
}

// Dirty returns the device-space region changed by the pass.
func (b *Builder) Dirty() geom.Rect { return b.dirty }

func (b *Builder) addDirty(rn *paint.Node) {
	if rn != nil && rn.Attached() {
		b.dirty = b.dirty.Union(rn.DeviceExtents())
	}
}

// AllowTraverse skips subtrees with nothing invalidated below them. Their
// paint node is moved into place as is.
func (b *Builder) AllowTraverse(info *traverse.NodeInfo) bool {
	if info.Level > elemctx.Clean || info.Ctx.SubtreeChanged() || info.Flags&traverse.InText != 0 {
		return true
	}
	if rn := info.Ctx.RenderNode; rn != nil {
		b.cur.container.Insert(rn, b.cur.pred)
		b.cur.pred = rn
	}
	return false
}

// enter prepares the paint node of info and inserts it after the cursor.
// A node is reused unless the context is newly added or it is an image.
func (b *Builder) enter(info *traverse.NodeInfo, kind paint.Kind) (*paint.Node, error) {
	ctx := info.Ctx
	rn := ctx.RenderNode
	if rn != nil && rn.Kind == kind && info.Level < elemctx.NewlyAdded && info.Kind != elemctx.KindImage {
		b.addDirty(rn)
		rn.Reset()
		b.Reused++
	} else {
		b.addDirty(rn)
		ctx.DetachRender()
		alloc := b.Alloc
		if alloc == nil {
			alloc = paint.NewNode
		}
		n, err := alloc(kind)
		if err != nil {
			return nil, err
		}
		rn = n
		ctx.RenderNode = rn
		b.Created++
	}
	style := info.MustStyle()
	rn.Tag, rn.ID = info.Node.TagName, info.Node.ID()
	rn.Transform = info.Transform
	rn.Opacity = style.Opacity()
	rn.Visible = style.Visible()
	b.cur.container.Insert(rn, b.cur.pred)
	return rn, nil
}

func containerKind(k elemctx.Kind) paint.Kind {
	switch k {
	case elemctx.KindViewport:
		return paint.Viewport
	case elemctx.KindUse:
		return paint.Offset
	case elemctx.KindText:
		return paint.Text
	}
	return paint.Composite
}

func (b *Builder) EnterContainer(info *traverse.NodeInfo) error {
	if info.Kind == elemctx.KindTextSpan {
		b.layout.span(info)
		return nil
	}
	rn, err := b.enter(info, containerKind(info.Kind))
	if err != nil {
		return err
	}
	if info.Level > elemctx.StructureDirty {
		rn.ClearChildren()
	}
	if info.Kind == elemctx.KindViewport && info.Depth() > 0 {
		rn.Clip = viewportClip(info)
	}
	if err := b.clip(info, rn); err != nil {
		return err
	}
	b.saved = append(b.saved, b.cur)
	b.cur = cursor{container: rn}
	info.Flags |= traverse.PushedState
	if info.Kind == elemctx.KindText {
		b.layout.measurer = b.Measurer
		b.layout.begin(info)
	}
	return nil
}

// viewportClip clips a nested <svg> to its viewport rectangle.
func viewportClip(info *traverse.NodeInfo) *paint.Clip {
	n := info.Node
	pc := info.Parent().ShapeContext()
	r := geom.Rect{
		X: pc.X(n, "x", 0),
		Y: pc.Y(n, "y", 0),
		W: pc.X(n, "width", info.Parent().Viewport.W),
		H: pc.Y(n, "height", info.Parent().Viewport.H),
	}
	inv, ok := info.Transform.Invert()
	if !ok {
		return nil
	}
	r = inv.ApplyRect(r)
	p := &geom.Path{}
	p.MoveTo(r.X, r.Y)
	p.LineTo(r.MaxX(), r.Y)
	p.LineTo(r.MaxX(), r.MaxY())
	p.LineTo(r.X, r.MaxY())
	p.Close()
	return &paint.Clip{Paths: []*geom.Path{p}}
}

func (b *Builder) EnterLeaf(info *traverse.NodeInfo) error {
	switch info.Kind {
	case elemctx.KindTextNode:
		return b.textRun(info)
	case elemctx.KindImage:
		return b.image(info)
	}
	rn, err := b.enter(info, paint.Shape)
	if err != nil {
		return err
	}
	g := shape.Geometry(info.Node, info.ShapeContext())
	if g == nil {
		return traverse.ErrInvisible
	}
	style := info.MustStyle()
	rn.Geometry = g
	rn.EvenOdd = style.EvenOdd()
	if rn.Fill, err = server(info, style.Fill()); err != nil {
		return err
	}
	if rn.Stroke, err = server(info, style.Stroke()); err != nil {
		return err
	}
	rn.FillOpacity = style.FillOpacity()
	rn.StrokeOpacity = style.StrokeOpacity()
	rn.StrokeWidth = style.StrokeWidth()
	return b.clip(info, rn)
}

func (b *Builder) image(info *traverse.NodeInfo) error {
	rn, err := b.enter(info, paint.Image)
	if err != nil {
		return err
	}
	n, sc := info.Node, info.ShapeContext()
	box := geom.Rect{X: sc.X(n, "x", 0), Y: sc.Y(n, "y", 0), W: sc.X(n, "width", 0), H: sc.Y(n, "height", 0)}
	if box.W <= 0 || box.H <= 0 {
		return traverse.ErrInvisible
	}
	rn.PictureBox = box
	if b.Images != nil {
		if img, ok := b.Images.Image(info.Real()); ok {
			rn.Picture = img
		}
	}
	return b.clip(info, rn)
}

func (b *Builder) textRun(info *traverse.NodeInfo) error {
	if info.TextRoot() == nil {
		return nil
	}
	i := b.layout.add(info)
	if i < 0 {
		return nil
	}
	fill, err := server(info, info.MustStyle().Fill())
	if err != nil {
		return err
	}
	b.layout.runs[i].Fill = fill
	return nil
}

func (b *Builder) clip(info *traverse.NodeInfo, rn *paint.Node) error {
	ref := info.MustStyle().ClipPath()
	if ref == "" {
		return nil
	}
	c, err := collectClip(info, ref)
	if err != nil {
		return err
	}
	if c != nil {
		// a nested <svg> keeps its viewport clip underneath
		c.Within = rn.Clip
		rn.Clip = c
	}
	return nil
}

func (b *Builder) HandleContent(*traverse.NodeInfo) error { return nil }

func (b *Builder) Leave(info *traverse.NodeInfo) error {
	rn := info.Ctx.RenderNode
	if info.Flags&traverse.PushedState != 0 {
		b.cur = b.saved[len(b.saved)-1]
		b.saved = b.saved[:len(b.saved)-1]
		if info.Kind == elemctx.KindText && rn != nil {
			b.layout.anchor(info.MustStyle().TextAnchor())
			rn.Runs = b.layout.runs
			b.layout.runs = nil
		}
	}
	if info.Invisible {
		b.addDirty(rn)
		info.RemoveFromParent()
		info.ClearSubtree()
		return nil
	}
	if !info.Failed() {
		info.ClearInvalidation()
	}
	if rn != nil && rn.Attached() {
		rn.MarkDirty()
		b.addDirty(rn)
		b.cur.pred = rn
	}
	return nil
}
