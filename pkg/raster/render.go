// Package raster paints a render tree onto an RGBA canvas with gg.
//
// Geometry is mapped to device space before it reaches gg, so the gg
// context itself always keeps an identity matrix. Clip regions are kept on
// a renderer-owned mask stack because gg does not restore masks on Pop.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/fogleman/gg"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"

	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/text"
)

type Renderer struct {
	im      *image.RGBA
	context *gg.Context

	// Background fills the canvas before painting; nil leaves it transparent.
	Background color.Color
	Measurer   *text.Measurer

	masks  []*image.Alpha
	region geom.Rect
}

func NewRenderer(width, height int) *Renderer {
	return NewRendererForImage(image.NewRGBA(image.Rect(0, 0, width, height)))
}

// NewRendererForImage paints into an existing image.
func NewRendererForImage(im *image.RGBA) *Renderer {
	return &Renderer{
		im:         im,
		context:    gg.NewContextForRGBA(im),
		Background: color.White,
		Measurer:   text.Default(),
	}
}

// Image returns the canvas.
func (r *Renderer) Image() *image.RGBA { return r.im }

func (r *Renderer) SavePNG(filename string) error {
	return r.context.SavePNG(filename)
}

func (r *Renderer) bounds() geom.Rect {
	b := r.im.Bounds()
	return geom.Rect{X: float64(b.Min.X), Y: float64(b.Min.Y), W: float64(b.Dx()), H: float64(b.Dy())}
}

// Render repaints the whole canvas.
func (r *Renderer) Render(root *paint.Node) {
	r.RenderRegion(root, r.bounds())
}

// RenderRegion repaints only the pixels covering region, a device-space
// rectangle. Nodes entirely outside it are not visited.
func (r *Renderer) RenderRegion(root *paint.Node, region geom.Rect) {
	region = region.Intersect(r.bounds())
	if region.Empty() || root == nil {
		return
	}
	px := image.Rect(
		int(math.Floor(region.X)), int(math.Floor(region.Y)),
		int(math.Ceil(region.MaxX())), int(math.Ceil(region.MaxY())),
	)
	region = geom.Rect{X: float64(px.Min.X), Y: float64(px.Min.Y), W: float64(px.Dx()), H: float64(px.Dy())}
	if r.Background != nil {
		draw.Draw(r.im, px, image.NewUniform(r.Background), image.Point{}, draw.Src)
	} else {
		draw.Draw(r.im, px, image.Transparent, image.Point{}, draw.Src)
	}

	r.region = region
	r.masks = r.masks[:0]
	r.context.ResetClip()
	if region != r.bounds() {
		mask := image.NewAlpha(r.im.Bounds())
		draw.Draw(mask, px, image.Opaque, image.Point{}, draw.Src)
		r.pushMask(mask)
	}
	r.paintNode(root, geom.Identity(), 1)
	r.masks = r.masks[:0]
	r.context.ResetClip()
}

func (r *Renderer) paintNode(n *paint.Node, parent geom.Matrix, alpha float64) {
	m := parent.Multiply(n.Transform)
	if !m.ApplyRect(n.Extents()).Intersects(r.region) {
		return
	}
	alpha *= n.Opacity
	if alpha <= 0 {
		return
	}
	for c := n.Clip; c != nil; c = c.Within {
		r.pushClip(c, m)
		defer r.popMask()
	}
	if n.Visible {
		switch n.Kind {
		case paint.Shape:
			r.drawShape(n, m, alpha)
		case paint.Text:
			r.drawText(n, m, alpha)
		case paint.Image:
			r.drawImage(n, m, alpha)
		}
	}
	for c := n.FirstChild(); c != nil; c = c.Next() {
		r.paintNode(c, m, alpha)
	}
}

// appendPath adds p, mapped through m, to the current path of dc.
func appendPath(dc *gg.Context, p *geom.Path, m geom.Matrix) {
	for _, sp := range p.Subpaths {
		if len(sp.Points) == 0 {
			continue
		}
		dc.NewSubPath()
		for i, pt := range sp.Points {
			q := m.Apply(pt)
			if i == 0 {
				dc.MoveTo(q.X, q.Y)
			} else {
				dc.LineTo(q.X, q.Y)
			}
		}
		if sp.Closed {
			dc.ClosePath()
		}
	}
}

func (r *Renderer) drawShape(n *paint.Node, m geom.Matrix, alpha float64) {
	if n.Geometry == nil {
		return
	}
	dc := r.context
	bbox := n.Geometry.Bounds()
	if fill := r.pattern(n.Fill, m, bbox, alpha*n.FillOpacity); fill != nil {
		appendPath(dc, n.Geometry, m)
		if n.EvenOdd {
			dc.SetFillRule(gg.FillRuleEvenOdd)
		} else {
			dc.SetFillRule(gg.FillRuleWinding)
		}
		dc.SetFillStyle(fill)
		dc.Fill()
	}
	if n.StrokeWidth <= 0 {
		return
	}
	if stroke := r.pattern(n.Stroke, m, bbox, alpha*n.StrokeOpacity); stroke != nil {
		appendPath(dc, n.Geometry, m)
		dc.SetLineWidth(n.StrokeWidth * m.ScaleFactor())
		dc.SetStrokeStyle(stroke)
		dc.Stroke()
	}
}

// pattern converts a paint server to a gg pattern in device space.
func (r *Renderer) pattern(s *paint.Server, m geom.Matrix, bbox geom.Rect, alpha float64) gg.Pattern {
	if s == nil || alpha <= 0 {
		return nil
	}
	if s.Kind == paint.Solid {
		return gg.NewSolidPattern(s.Color.NRGBA(alpha))
	}
	gm := m
	if s.BoundingBoxUnits {
		if bbox.Empty() || bbox.W == 0 || bbox.H == 0 {
			return nil
		}
		gm = gm.Multiply(geom.Translate(bbox.X, bbox.Y)).Multiply(geom.Scale(bbox.W, bbox.H))
	}
	gm = gm.Multiply(s.GradientTransform)

	var g gg.Gradient
	if s.Kind == paint.LinearGradient {
		p0, p1 := gm.Apply(geom.Point{X: s.X1, Y: s.Y1}), gm.Apply(geom.Point{X: s.X2, Y: s.Y2})
		g = gg.NewLinearGradient(p0.X, p0.Y, p1.X, p1.Y)
	} else {
		c, f := gm.Apply(geom.Point{X: s.CX, Y: s.CY}), gm.Apply(geom.Point{X: s.FX, Y: s.FY})
		g = gg.NewRadialGradient(f.X, f.Y, 0, c.X, c.Y, s.R*gm.ScaleFactor())
	}
	for _, st := range s.Stops {
		g.AddColorStop(st.Offset, st.Color.NRGBA(alpha))
	}
	return g
}

func (r *Renderer) drawText(n *paint.Node, m geom.Matrix, alpha float64) {
	measurer := r.Measurer
	if measurer == nil {
		measurer = text.Default()
	}
	for _, run := range n.Runs {
		if run.Fill == nil {
			continue
		}
		col := run.Fill.Color.NRGBA(alpha * n.FillOpacity)
		if run.Fill.Kind != paint.Solid && len(run.Fill.Stops) > 0 {
			col = run.Fill.Stops[0].Color.NRGBA(alpha * n.FillOpacity)
		}
		size := run.Size * m.ScaleFactor()
		if measurer.Fallback(size, run.Bold) {
			r.drawFallbackRun(run, m, col)
			continue
		}
		face, _ := measurer.Face(size, run.Bold)
		p := m.Apply(geom.Point{X: run.X, Y: run.Y})
		r.context.SetFontFace(face)
		r.context.SetColor(col)
		r.context.DrawString(run.Text, p.X, p.Y)
	}
}

// drawFallbackRun draws the run with the built-in bitmap face into an
// offscreen image and maps that onto the canvas.
func (r *Renderer) drawFallbackRun(run paint.Run, m geom.Matrix, col color.Color) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, run.Text).Ceil()
	if w <= 0 {
		return
	}
	src := image.NewRGBA(image.Rect(0, 0, w, face.Height))
	d := font.Drawer{Dst: src, Src: image.NewUniform(col), Face: face, Dot: fixed.P(0, face.Ascent)}
	d.DrawString(run.Text)

	scale := run.Size / text.FallbackSize
	am := m.Multiply(geom.Translate(run.X, run.Y-run.Ascent)).Multiply(geom.Scale(scale, scale))
	r.transform(src, am, src.Bounds(), nil)
}

func (r *Renderer) drawImage(n *paint.Node, m geom.Matrix, alpha float64) {
	if n.Picture == nil {
		return
	}
	box := n.PictureBox
	b := n.Picture.Bounds()
	if b.Empty() {
		return
	}
	am := m.Multiply(geom.Translate(box.X, box.Y)).
		Multiply(geom.Scale(box.W/float64(b.Dx()), box.H/float64(b.Dy()))).
		Multiply(geom.Translate(-float64(b.Min.X), -float64(b.Min.Y)))
	var srcMask image.Image
	if alpha < 1 {
		srcMask = image.NewUniform(color.Alpha{A: uint8(alpha*255 + 0.5)})
	}
	r.transform(n.Picture, am, b, srcMask)
}

// transform draws src onto the canvas through the affine map m, honoring
// the current clip mask.
func (r *Renderer) transform(src image.Image, m geom.Matrix, sr image.Rectangle, srcMask image.Image) {
	opts := &xdraw.Options{SrcMask: srcMask}
	if mask := r.mask(); mask != nil {
		opts.DstMask = mask
	}
	aff := f64.Aff3{m.A, m.C, m.E, m.B, m.D, m.F}
	xdraw.ApproxBiLinear.Transform(r.im, aff, src, sr, xdraw.Over, opts)
}

func (r *Renderer) mask() *image.Alpha {
	if len(r.masks) == 0 {
		return nil
	}
	return r.masks[len(r.masks)-1]
}

// pushClip rasterizes the clip paths, intersects them with the current
// mask and makes the result current.
func (r *Renderer) pushClip(c *paint.Clip, m geom.Matrix) {
	b := r.im.Bounds()
	scratch := gg.NewContext(b.Dx(), b.Dy())
	scratch.SetRGBA(0, 0, 0, 1)
	for _, p := range c.Paths {
		appendPath(scratch, p, m)
	}
	if c.EvenOdd {
		scratch.SetFillRule(gg.FillRuleEvenOdd)
	}
	scratch.Fill()
	mask := scratch.AsMask()
	r.pushMask(mask)
}

func (r *Renderer) pushMask(mask *image.Alpha) {
	if top := r.mask(); top != nil {
		for i := range mask.Pix {
			mask.Pix[i] = uint8(uint16(mask.Pix[i]) * uint16(top.Pix[i]) / 255)
		}
	}
	r.masks = append(r.masks, mask)
	r.context.SetMask(mask)
}

func (r *Renderer) popMask() {
	r.masks = r.masks[:len(r.masks)-1]
	if top := r.mask(); top != nil {
		r.context.SetMask(top)
	} else {
		r.context.ResetClip()
	}
}
