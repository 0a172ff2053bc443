package traverse

import (
	"errors"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
)

var errUseRecursion = errors.New("use references one of its ancestors")

// enterElement does the element-kind work of the ENTER step and then hands
// over to the behavior.
func (t *Traversal) enterElement(info *NodeInfo) error {
	if info.Kind == elemctx.KindTextNode {
		return t.behavior.EnterLeaf(info)
	}
	style, err := info.Style()
	if err != nil {
		return err
	}
	if style.Display() == "none" {
		return ErrInvisible
	}

	switch info.Kind {
	case elemctx.KindViewport:
		if err := t.enterViewport(info); err != nil {
			return err
		}
	case elemctx.KindUse:
		if err := t.enterUse(info); err != nil {
			return err
		}
	case elemctx.KindTextSpan:
	case elemctx.KindContainer, elemctx.KindAnchor, elemctx.KindSwitch, elemctx.KindText,
		elemctx.KindGraphics, elemctx.KindImage, elemctx.KindClipPath:
		if err := setTransform(info); err != nil {
			return err
		}
	default:
		return SkipElement
	}

	if info.Kind.IsContainer() {
		return t.behavior.EnterContainer(info)
	}
	return t.behavior.EnterLeaf(info)
}

// setTransform parses the transform attribute. A malformed transform
// disables rendering of the element.
func setTransform(info *NodeInfo) error {
	v := info.Node.Attr("transform")
	if v == "" {
		return nil
	}
	m, err := geom.ParseTransform(v)
	if err != nil {
		return ErrInvisible
	}
	info.Transform = m
	if !m.IsIdentity() {
		info.Flags |= HasTransform
	}
	return nil
}

// enterViewport establishes the coordinate system of an <svg> element.
func (t *Traversal) enterViewport(info *NodeInfo) error {
	if err := setTransform(info); err != nil {
		return err
	}
	n := info.Node
	sc := info.ShapeContext()
	x, y := sc.X(n, "x", 0), sc.Y(n, "y", 0)
	w, h := sc.X(n, "width", info.Viewport.W), sc.Y(n, "height", info.Viewport.H)
	if info.depth == 0 {
		x, y = 0, 0
	}
	if w <= 0 || h <= 0 {
		return ErrInvisible
	}

	m := info.Transform.Multiply(geom.Translate(x, y))
	vp := geom.Rect{W: w, H: h}
	if vb, ok := geom.ParseViewBox(n.Attr("viewBox")); ok {
		ar := geom.ParseAspectRatio(n.Attr("preserveAspectRatio"))
		m = m.Multiply(geom.ViewBoxTransform(vb, ar, vp))
		vp = vb
	}
	info.Transform = m
	info.Viewport = vp
	info.Flags |= HasViewport
	if !m.IsIdentity() {
		info.Flags |= HasTransform
	}
	return nil
}

// enterUse resolves the target of a <use>, guards against recursion and
// makes sure the instance tree exists. Any failure makes the <use>
// invisible without failing the pass.
func (t *Traversal) enterUse(info *NodeInfo) error {
	if err := setTransform(info); err != nil {
		return err
	}
	n := info.Node
	target := t.lookup(n, n.Href())
	if target == nil || target.IsText() {
		t.debug("use target not found", "href", n.Href())
		return ErrInvisible
	}
	if err := validateUse(info, target); err != nil {
		t.debug("use rejected", "href", n.Href(), "err", err)
		return ErrInvisible
	}
	if err := info.Follow(target); err != nil {
		t.debug("use rejected", "href", n.Href(), "err", err)
		return ErrInvisible
	}
	info.Target = target
	info.Flags |= HasReference
	t.store.AddDependency(info.Real(), target)

	ctx := info.Ctx
	if ctx.Shadow == nil || ctx.Shadow.Real != target.Layouted() {
		if ctx.Shadow != nil {
			t.store.Forget(ctx.Shadow)
		}
		ctx.Shadow = dom.CloneShadow(target)
		ctx.Upgrade(elemctx.StructureDirty)
		if info.Level < elemctx.StructureDirty {
			info.Level = elemctx.StructureDirty
		}
	}

	sc := info.ShapeContext()
	if x, y := sc.X(n, "x", 0), sc.Y(n, "y", 0); x != 0 || y != 0 {
		info.Transform = info.Transform.Multiply(geom.Translate(x, y))
		info.Flags |= HasTransform
	}
	return nil
}

// validateUse rejects a target that is the <use> itself or one of its
// ancestors, looking through instance trees to the real elements.
func validateUse(info *NodeInfo, target *dom.Node) error {
	src := target.Layouted()
	if src.Contains(info.Real()) {
		return errUseRecursion
	}
	for p := info.parent; p != nil; p = p.parent {
		if p.Real() == src {
			return errUseRecursion
		}
	}
	return nil
}
