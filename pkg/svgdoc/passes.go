package svgdoc

import (
	"errors"

	"github.com/google/uuid"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/passes"
	"svgtrav/pkg/raster"
	"svgtrav/pkg/traverse"
)

// Job is a render-tree reconciliation that may be run in time slices.
type Job struct {
	ID    uuid.UUID
	Steps int

	doc     *Document
	pass    *traverse.Traversal
	builder *passes.Builder
	err     error
	done    bool
}

// StartLayout prepares a layout job without running it.
func (d *Document) StartLayout() (*Job, error) {
	if d.job != nil {
		return nil, ErrBusy
	}
	b := passes.NewBuilder(d.RenderRoot)
	b.Alloc = d.Options.Alloc
	b.Measurer = d.Options.Measurer
	b.Images = d.Images
	pass := traverse.New(d.DOM.Root, b, d.traverseOptions())
	j := &Job{ID: pass.ID, doc: d, pass: pass, builder: b}
	d.job = j
	d.debug("layout job started", "job", j.ID)
	return j, nil
}

// Step runs the job for one time slice and reports whether it finished.
// The document is frozen while the job is suspended between steps.
func (j *Job) Step() (done bool, err error) {
	if j.done {
		return true, j.err
	}
	j.Steps++
	status, err := j.pass.Run(true)
	if status == traverse.Suspended {
		j.doc.DOM.Freeze()
		return false, nil
	}
	j.finish(err)
	return true, err
}

// Run steps the job to completion.
func (j *Job) Run() error {
	for {
		done, err := j.Step()
		if done {
			return err
		}
	}
}

// Cancel abandons the job. Parts of the render tree already rebuilt stay
// in place; the rest is rebuilt by the next layout.
func (j *Job) Cancel() {
	if j.done {
		return
	}
	j.pass.Cancel()
	j.finish(nil)
	j.err = traverse.ErrCanceled
}

// Done reports whether the job completed or was canceled.
func (j *Job) Done() bool { return j.done }

// Builder exposes the job's statistics.
func (j *Job) Builder() *passes.Builder { return j.builder }

func (j *Job) finish(err error) {
	j.done, j.err = true, err
	d := j.doc
	d.DOM.Thaw()
	d.addDirty(j.builder.Dirty())
	if d.job == j {
		d.job = nil
	}
	d.debug("layout job finished", "job", j.ID, "steps", j.Steps,
		"created", j.builder.Created, "reused", j.builder.Reused, "err", err)
}

// Layout brings the render tree up to date in one go.
func (d *Document) Layout() error {
	j, err := d.StartLayout()
	if err != nil {
		return err
	}
	_, err = j.pass.Run(false)
	j.finish(err)
	return err
}

// UpdateBBoxes recomputes every invalid bounding box.
//
// Like every query pass it first brings the render tree up to date, so
// only the builder ever reconciles child lists. The query itself sees
// clean frames and leaves the render tree alone.
func (d *Document) UpdateBBoxes() error {
	if err := d.ensureLayout(); err != nil {
		return err
	}
	u := &passes.BBoxUpdater{Measurer: d.Options.Measurer}
	if err := traverse.Traverse(d.DOM.Root, u, d.traverseOptions()); err != nil {
		return err
	}
	d.debug("bounding boxes updated", "computed", u.Computed)
	return nil
}

// BBox returns the bounding box of n in its own user space. ok is false
// for elements that are not rendered.
func (d *Document) BBox(n *dom.Node) (box geom.Rect, ok bool, err error) {
	if err := d.UpdateBBoxes(); err != nil {
		return geom.EmptyRect(), false, err
	}
	c := d.Store.Lookup(n)
	if c == nil || !c.BBoxValid {
		return geom.EmptyRect(), false, nil
	}
	return c.BBox, true, nil
}

// HitTest returns the elements under the device-space point (x, y) in
// paint order, topmost last.
func (d *Document) HitTest(x, y float64) ([]*dom.Node, error) {
	return d.hitTest(passes.NewPointTester(x, y))
}

// SelectRect returns the elements whose painted area intersects r.
func (d *Document) SelectRect(r geom.Rect) ([]*dom.Node, error) {
	return d.hitTest(passes.NewRectTester(r))
}

func (d *Document) hitTest(h *passes.HitTester) ([]*dom.Node, error) {
	if err := d.ensureLayout(); err != nil {
		return nil, err
	}
	if err := traverse.Traverse(d.DOM.Root, h, d.traverseOptions()); err != nil {
		return nil, err
	}
	return h.Hits(), nil
}

// MeasureText lays out the text elements at or below n.
func (d *Document) MeasureText(n *dom.Node) (*passes.TextMeasurer, error) {
	if err := d.ensureLayout(); err != nil {
		return nil, err
	}
	if !d.DOM.Root.Contains(n) {
		return nil, errors.New("svgdoc: node is not in the document")
	}
	m := &passes.TextMeasurer{Measurer: d.Options.Measurer}
	opts := d.traverseOptions()
	opts.Policy = passes.NewWithin(d.DOM.Root, n)
	if err := traverse.Traverse(d.DOM.Root, m, opts); err != nil {
		return nil, err
	}
	return m, nil
}

// ScreenCTM returns the transform from n's user space to device space.
func (d *Document) ScreenCTM(n *dom.Node) (geom.Matrix, bool, error) {
	if err := d.ensureLayout(); err != nil {
		return geom.Identity(), false, err
	}
	return passes.ScreenCTM(d.DOM.Root, n, d.traverseOptions())
}

// Walk calls fn for every rendered element in rendering order. fn may
// return the traversal signals to prune the walk.
func (d *Document) Walk(fn func(info *traverse.NodeInfo) error) error {
	if err := d.ensureLayout(); err != nil {
		return err
	}
	return traverse.Traverse(d.DOM.Root, &passes.Visitor{Func: fn}, d.traverseOptions())
}

// Paint lays out the document if needed and paints the whole canvas.
func (d *Document) Paint(r *raster.Renderer) error {
	if err := d.ensureLayout(); err != nil {
		return err
	}
	d.Dirty()
	r.Render(d.RenderRoot)
	return nil
}

// Repaint lays out the document if needed and repaints only the region
// that changed since the last paint. It returns that region.
func (d *Document) Repaint(r *raster.Renderer) (geom.Rect, error) {
	if err := d.ensureLayout(); err != nil {
		return geom.EmptyRect(), err
	}
	region := d.Dirty()
	if !region.Empty() {
		r.RenderRegion(d.RenderRoot, region.Inset(-1))
	}
	return region, nil
}
