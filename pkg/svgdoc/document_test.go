package svgdoc

import (
	"errors"
	"image"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/raster"
	"svgtrav/pkg/traverse"
)

const scene = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="40">` +
	`<rect id="a" width="10" height="10" fill="red"/>` +
	`<g id="g" transform="translate(20,20)">` +
	`<rect id="b" width="10" height="10" fill="blue"/>` +
	`<rect id="c" x="5" y="5" width="10" height="10" fill="lime"/>` +
	`</g>` +
	`<text id="t" x="0" y="35">abc</text>` +
	`</svg>`

func open(t *testing.T, src string, opts Options) *Document {
	t.Helper()
	doc, err := Open(strings.NewReader(src), opts)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return doc
}

func byID(t *testing.T, doc *Document, id string) *dom.Node {
	t.Helper()
	n := doc.DOM.GetElementByID(id)
	if n == nil {
		t.Fatalf("no element %q", id)
	}
	return n
}

func ids(nodes []*dom.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID())
	}
	return out
}

// tickingClock advances by one millisecond on every reading.
func tickingClock() func() time.Time {
	now := time.Unix(0, 0)
	return func() time.Time {
		now = now.Add(time.Millisecond)
		return now
	}
}

func TestViewportFromRootElement(t *testing.T) {
	doc := open(t, scene, Options{})
	if w, h := doc.Size(); w != 40 || h != 40 {
		t.Errorf("size = %dx%d, want 40x40", w, h)
	}
	doc = open(t, `<svg xmlns="http://www.w3.org/2000/svg" width="50%"/>`, Options{})
	if w, h := doc.Size(); w != 300 || h != 150 {
		t.Errorf("size = %dx%d, want the 300x150 default", w, h)
	}
}

func TestOpenRejectsEmptyDocument(t *testing.T) {
	if _, err := New(&dom.Document{}, Options{}); err == nil {
		t.Fatal("expected an error for a document without root")
	}
}

func TestIncrementalLayout(t *testing.T) {
	doc := open(t, scene, Options{})
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	if doc.needsLayout() {
		t.Fatal("layout left the document dirty")
	}
	doc.Dirty()

	if err := byID(t, doc, "b").SetAttribute("fill", "yellow"); err != nil {
		t.Fatal(err)
	}
	if !doc.needsLayout() {
		t.Fatal("attribute change did not invalidate the document")
	}
	j, err := doc.StartLayout()
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Run(); err != nil {
		t.Fatal(err)
	}
	if j.Builder().Created != 0 {
		t.Errorf("relayout created %d nodes, want all reused", j.Builder().Created)
	}
	dirty := doc.Dirty()
	want := geom.Rect{X: 20, Y: 20, W: 10, H: 10}
	if dirty.Intersect(want) != want {
		t.Errorf("dirty region %v does not cover %v", dirty, want)
	}
	if !doc.Dirty().Empty() {
		t.Error("Dirty did not reset")
	}
}

func TestRemovedChildMarksAreaDirty(t *testing.T) {
	doc := open(t, scene, Options{})
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	doc.Dirty()
	a := byID(t, doc, "a")
	if err := doc.DOM.Root.RemoveChild(a); err != nil {
		t.Fatal(err)
	}
	dirty := doc.Dirty()
	if !dirty.Intersects(geom.Rect{X: 1, Y: 1, W: 8, H: 8}) {
		t.Errorf("dirty region %v misses the removed rect", dirty)
	}
	hits, err := doc.HitTest(5, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 0 {
		t.Errorf("removed element still hit: %v", ids(hits))
	}
}

func TestTimeSlicedLayout(t *testing.T) {
	doc := open(t, scene, Options{TimeSlice: time.Millisecond, Clock: tickingClock()})
	j, err := doc.StartLayout()
	if err != nil {
		t.Fatal(err)
	}
	done, err := j.Step()
	if err != nil || done {
		t.Fatalf("first step: done=%v err=%v, want suspended", done, err)
	}
	if !doc.Busy() {
		t.Fatal("document not busy while suspended")
	}
	if _, err := doc.StartLayout(); !errors.Is(err, ErrBusy) {
		t.Errorf("second StartLayout: %v, want ErrBusy", err)
	}
	if err := byID(t, doc, "a").SetAttribute("fill", "green"); !errors.Is(err, dom.ErrFrozen) {
		t.Errorf("mutation while suspended: %v, want ErrFrozen", err)
	}
	if err := doc.Mutate(func(*dom.Document) error { return nil }); !errors.Is(err, ErrBusy) {
		t.Errorf("Mutate while suspended: %v, want ErrBusy", err)
	}
	if _, err := doc.HitTest(1, 1); !errors.Is(err, ErrBusy) {
		t.Errorf("HitTest while suspended: %v, want ErrBusy", err)
	}

	if err := j.Run(); err != nil {
		t.Fatal(err)
	}
	if j.Steps < 2 {
		t.Errorf("steps = %d, want several", j.Steps)
	}
	if doc.Busy() {
		t.Error("document still busy after the job finished")
	}
	if err := byID(t, doc, "a").SetAttribute("fill", "green"); err != nil {
		t.Errorf("mutation after the job: %v", err)
	}
}

func TestCancelLayout(t *testing.T) {
	doc := open(t, scene, Options{TimeSlice: time.Millisecond, Clock: tickingClock()})
	j, err := doc.StartLayout()
	if err != nil {
		t.Fatal(err)
	}
	if done, _ := j.Step(); done {
		t.Fatal("expected the first step to suspend")
	}
	j.Cancel()
	if !j.Done() || doc.Busy() {
		t.Fatal("cancel did not release the document")
	}
	if done, err := j.Step(); !done || !errors.Is(err, traverse.ErrCanceled) {
		t.Errorf("step after cancel: done=%v err=%v", done, err)
	}

	// The next full layout completes what the canceled one left.
	doc.Options.TimeSlice = 0
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	if doc.needsLayout() {
		t.Error("document still dirty after relayout")
	}
}

const richScene = `<svg xmlns="http://www.w3.org/2000/svg" width="40" height="40">` +
	`<defs><rect id="tpl" width="4" height="4" fill="black"/></defs>` +
	`<rect id="a" width="10" height="10" fill="red"/>` +
	`<g id="g" transform="translate(20,20)">` +
	`<rect id="b" width="10" height="10" fill="blue"/>` +
	`<rect id="c" x="5" y="5" width="10" height="10" fill="lime"/>` +
	`</g>` +
	`<use id="u" href="#tpl" x="30" y="2"/>` +
	`<switch id="sw"><rect id="s1" systemLanguage="xx" width="2" height="2"/>` +
	`<rect id="s2" y="30" width="2" height="2"/></switch>` +
	`<svg id="inner" x="12" y="12" width="6" height="6" viewBox="0 0 3 3"><circle id="dot" cx="1.5" cy="1.5" r="1.5"/></svg>` +
	`<text id="t" x="0" y="35">abc</text>` +
	`</svg>`

var richIDs = []string{"a", "g", "b", "c", "u", "sw", "s2", "inner", "dot", "t"}

func boxes(t *testing.T, doc *Document) map[string]geom.Rect {
	t.Helper()
	out := make(map[string]geom.Rect)
	for _, id := range richIDs {
		box, ok, err := doc.BBox(byID(t, doc, id))
		if err != nil {
			t.Fatal(err)
		}
		if ok {
			out[id] = box
		}
	}
	return out
}

func laidOut(t *testing.T) *Document {
	t.Helper()
	doc := open(t, richScene, Options{})
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	return doc
}

func TestSlicedLayoutMatchesSingleRun(t *testing.T) {
	want := laidOut(t)

	doc := open(t, richScene, Options{TimeSlice: time.Millisecond, Clock: tickingClock()})
	j, err := doc.StartLayout()
	if err != nil {
		t.Fatal(err)
	}
	if err := j.Run(); err != nil {
		t.Fatal(err)
	}
	if j.Steps < 2 {
		t.Fatalf("steps = %d, want the layout split over several", j.Steps)
	}
	if diff := cmp.Diff(paint.Snap(want.RenderRoot), paint.Snap(doc.RenderRoot)); diff != "" {
		t.Errorf("render tree mismatch (-single +sliced):\n%s", diff)
	}
	if diff := cmp.Diff(boxes(t, want), boxes(t, doc)); diff != "" {
		t.Errorf("bounding boxes mismatch (-single +sliced):\n%s", diff)
	}
}

func TestCanceledLayoutCompletesOnRelayout(t *testing.T) {
	want := laidOut(t)

	doc := open(t, richScene, Options{TimeSlice: time.Millisecond, Clock: tickingClock()})
	j, err := doc.StartLayout()
	if err != nil {
		t.Fatal(err)
	}
	if done, _ := j.Step(); done {
		t.Fatal("expected the first step to suspend")
	}
	j.Cancel()
	doc.Options.TimeSlice = 0
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paint.Snap(want.RenderRoot), paint.Snap(doc.RenderRoot)); diff != "" {
		t.Errorf("render tree mismatch (-fresh +relayout):\n%s", diff)
	}
	if diff := cmp.Diff(boxes(t, want), boxes(t, doc)); diff != "" {
		t.Errorf("bounding boxes mismatch (-fresh +relayout):\n%s", diff)
	}
}

func TestBBoxOnDirtyDocumentLaysOutFirst(t *testing.T) {
	doc := laidOut(t)
	doc.Dirty()
	b := byID(t, doc, "b")
	if err := b.SetAttribute("systemLanguage", "xx"); err != nil {
		t.Fatal(err)
	}
	if _, _, err := doc.BBox(doc.DOM.Root); err != nil {
		t.Fatal(err)
	}
	if doc.needsLayout() {
		t.Fatal("document still dirty after BBox")
	}
	// The change went through the builder, which reports the area.
	if dirty := doc.Dirty(); !dirty.Intersects(geom.Rect{X: 21, Y: 21, W: 2, H: 2}) {
		t.Errorf("dirty region %v misses the dropped rect", dirty)
	}

	fresh := open(t, richScene, Options{})
	if err := byID(t, fresh, "b").SetAttribute("systemLanguage", "xx"); err != nil {
		t.Fatal(err)
	}
	if err := fresh.Layout(); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(paint.Snap(fresh.RenderRoot), paint.Snap(doc.RenderRoot)); diff != "" {
		t.Errorf("render tree mismatch (-fresh +queried):\n%s", diff)
	}

	// A query on a laid out document leaves the tree as it is.
	before := paint.Snap(doc.RenderRoot)
	if _, err := doc.HitTest(25, 25); err != nil {
		t.Fatal(err)
	}
	if err := doc.Walk(func(*traverse.NodeInfo) error { return nil }); err != nil {
		t.Fatal(err)
	}
	if _, _, err := doc.BBox(byID(t, doc, "g")); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(before, paint.Snap(doc.RenderRoot)); diff != "" {
		t.Errorf("query passes changed the render tree (-before +after):\n%s", diff)
	}
}

func TestHitTest(t *testing.T) {
	doc := open(t, scene, Options{})
	tests := []struct {
		x, y float64
		want []string
	}{
		{5, 5, []string{"a"}},
		{22, 22, []string{"b"}},
		{27, 27, []string{"b", "c"}},
		{33, 33, []string{"c"}},
		{15, 5, nil},
	}
	for _, tt := range tests {
		hits, err := doc.HitTest(tt.x, tt.y)
		if err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(tt.want, ids(hits)); diff != "" {
			t.Errorf("HitTest(%v, %v) mismatch (-want +got):\n%s", tt.x, tt.y, diff)
		}
	}

	hits, err := doc.SelectRect(geom.Rect{X: 0, Y: 0, W: 21, H: 21})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "b"}, ids(hits)); diff != "" {
		t.Errorf("SelectRect mismatch (-want +got):\n%s", diff)
	}
}

func TestBBoxAndCTM(t *testing.T) {
	doc := open(t, scene, Options{})
	box, ok, err := doc.BBox(byID(t, doc, "g"))
	if err != nil || !ok {
		t.Fatalf("BBox(g): ok=%v err=%v", ok, err)
	}
	if want := (geom.Rect{X: 0, Y: 0, W: 15, H: 15}); box != want {
		t.Errorf("BBox(g) = %v, want %v", box, want)
	}

	m, ok, err := doc.ScreenCTM(byID(t, doc, "c"))
	if err != nil || !ok {
		t.Fatalf("ScreenCTM: ok=%v err=%v", ok, err)
	}
	if m.E != 20 || m.F != 20 {
		t.Errorf("ScreenCTM translation = (%v, %v), want (20, 20)", m.E, m.F)
	}

	detached := doc.DOM.CreateElementNS(dom.SVGNamespace, "rect")
	if _, ok, _ := doc.BBox(detached); ok {
		t.Error("detached element has a bounding box")
	}
}

func TestMeasureText(t *testing.T) {
	doc := open(t, scene, Options{})
	m, err := doc.MeasureText(byID(t, doc, "t"))
	if err != nil {
		t.Fatal(err)
	}
	if got := m.NumberOfChars(); got != 3 {
		t.Errorf("NumberOfChars = %d, want 3", got)
	}
	if m.ComputedTextLength() <= 0 {
		t.Error("expected a positive text length")
	}
	if _, err := doc.MeasureText(doc.DOM.CreateElementNS(dom.SVGNamespace, "text")); err == nil {
		t.Error("expected an error for a detached node")
	}
}

func TestWalkOrder(t *testing.T) {
	doc := open(t, scene, Options{})
	var seen []string
	err := doc.Walk(func(info *traverse.NodeInfo) error {
		if id := info.Node.ID(); id != "" {
			seen = append(seen, id)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a", "g", "b", "c", "t"}, seen); diff != "" {
		t.Errorf("walk order mismatch (-want +got):\n%s", diff)
	}
}

func sameImage(a, b *image.RGBA) bool {
	if a.Bounds() != b.Bounds() {
		return false
	}
	for i := range a.Pix {
		if d := int(a.Pix[i]) - int(b.Pix[i]); d > 2 || d < -2 {
			return false
		}
	}
	return true
}

func TestRepaintMatchesFullPaint(t *testing.T) {
	doc := open(t, scene, Options{})
	w, h := doc.Size()
	r := raster.NewRenderer(w, h)
	if err := doc.Paint(r); err != nil {
		t.Fatal(err)
	}

	if err := byID(t, doc, "c").SetAttribute("x", "0"); err != nil {
		t.Fatal(err)
	}
	region, err := doc.Repaint(r)
	if err != nil {
		t.Fatal(err)
	}
	if region.Empty() {
		t.Fatal("nothing repainted")
	}
	if region.Intersects(geom.Rect{X: 0, Y: 0, W: 10, H: 10}) {
		t.Errorf("repaint region %v reaches an unchanged element", region)
	}

	full := raster.NewRenderer(w, h)
	if err := doc.Paint(full); err != nil {
		t.Fatal(err)
	}
	if !sameImage(r.Image(), full.Image()) {
		t.Error("incremental repaint differs from a full paint")
	}

	region, err = doc.Repaint(r)
	if err != nil {
		t.Fatal(err)
	}
	if !region.Empty() {
		t.Errorf("second repaint region = %v, want empty", region)
	}
}

func TestStyleElementChangeRestyles(t *testing.T) {
	doc := open(t, `<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10">`+
		`<style id="s">rect { fill: red }</style><rect id="r" width="10" height="10"/></svg>`, Options{})
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	rn := doc.Store.Lookup(byID(t, doc, "r")).RenderNode
	if rn == nil || rn.Fill == nil || rn.Fill.Color.R != 255 {
		t.Fatalf("unexpected fill %+v", rn)
	}
	if err := byID(t, doc, "s").Children[0].SetText("rect { fill: blue }"); err != nil {
		t.Fatal(err)
	}
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	rn = doc.Store.Lookup(byID(t, doc, "r")).RenderNode
	if rn.Fill == nil || rn.Fill.Color.B != 255 || rn.Fill.Color.R != 0 {
		t.Errorf("fill after stylesheet change = %+v", rn.Fill)
	}
}

func TestRunScript(t *testing.T) {
	doc := open(t, scene, Options{})
	if err := doc.Layout(); err != nil {
		t.Fatal(err)
	}
	doc.Dirty()
	if err := doc.RunScript("move.js", `document.getElementById("a").setAttribute("x", "5")`); err != nil {
		t.Fatal(err)
	}
	hits, err := doc.HitTest(12, 5)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"a"}, ids(hits)); diff != "" {
		t.Errorf("hits after script (-want +got):\n%s", diff)
	}
}

func TestLoadDataURI(t *testing.T) {
	uri := "data:image/svg+xml," + `<svg xmlns="http://www.w3.org/2000/svg" width="12" height="8"/>`
	doc, err := Load(uri, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if w, h := doc.Size(); w != 12 || h != 8 {
		t.Errorf("size = %dx%d, want 12x8", w, h)
	}
}
