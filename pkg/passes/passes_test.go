package passes

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/go-cmp/cmp"

	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/traverse"
)

func parse(t *testing.T, src string) *dom.Document {
	t.Helper()
	doc, err := dom.ParseString(`<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100">` + src + `</svg>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

type fixture struct {
	doc   *dom.Document
	store *elemctx.Store
	root  *paint.Node
}

func newFixture(t *testing.T, src string) *fixture {
	t.Helper()
	root, _ := paint.NewNode(paint.Composite)
	return &fixture{doc: parse(t, src), store: elemctx.NewStore(), root: root}
}

func (f *fixture) opts() traverse.Options {
	return traverse.Options{Store: f.store, Viewport: geom.Rect{W: 100, H: 100}}
}

func (f *fixture) layout(t *testing.T) *Builder {
	t.Helper()
	b := NewBuilder(f.root)
	if err := traverse.Traverse(f.doc.Root, b, f.opts()); err != nil {
		t.Fatalf("layout: %v", err)
	}
	return b
}

func (f *fixture) byID(t *testing.T, id string) *dom.Node {
	t.Helper()
	n := f.doc.GetElementByID(id)
	if n == nil {
		t.Fatalf("no element %q", id)
	}
	return n
}

func (f *fixture) paintOf(t *testing.T, id string) *paint.Node {
	t.Helper()
	rn := f.store.Get(f.byID(t, id)).RenderNode
	if rn == nil {
		t.Fatalf("%s has no render node", id)
	}
	return rn
}

func ids(nodes []*paint.Node) []string {
	var out []string
	for _, n := range nodes {
		out = append(out, n.ID)
	}
	return out
}

const flat = `<rect id="a" width="10" height="10" fill="red"/>` +
	`<circle id="b" cx="50" cy="50" r="5"/>` +
	`<g id="g"><rect id="c" x="20" y="20" width="5" height="5"/></g>`

func TestBuildFlatTree(t *testing.T) {
	f := newFixture(t, flat)
	b := f.layout(t)

	top := f.root.Children()
	if len(top) != 1 || top[0].Kind != paint.Viewport {
		t.Fatalf("expected one viewport below the root, got %v", paint.Dump(f.root))
	}
	if diff := cmp.Diff([]string{"a", "b", "g"}, ids(top[0].Children())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if got := f.paintOf(t, "g").Extents(); got != (geom.Rect{X: 20, Y: 20, W: 5, H: 5}) {
		t.Errorf("unexpected group extents %v", got)
	}
	if b.Created != 5 || b.Reused != 0 {
		t.Errorf("expected 5 created nodes, got %d created %d reused", b.Created, b.Reused)
	}
	if got := b.Dirty(); got != (geom.Rect{W: 55, H: 55}) {
		t.Errorf("unexpected dirty region %v", got)
	}
	a := f.paintOf(t, "a")
	if a.Fill == nil || a.Fill.Color != (css.Color{R: 255, A: 1}) || a.Stroke != nil {
		t.Errorf("unexpected paint of a: fill %+v stroke %+v", a.Fill, a.Stroke)
	}
	if lvl := f.store.Get(f.doc.Root).Level(); lvl != elemctx.Clean {
		t.Errorf("expected root to be clean after layout, got %v", lvl)
	}
}

func TestRelayoutIsIdempotent(t *testing.T) {
	f := newFixture(t, flat+`<text id="t" x="1" y="50">hi</text>`)
	f.layout(t)
	before := paint.Snap(f.root)

	f.store.ResetStats()
	b := f.layout(t)
	if diff := cmp.Diff(before, paint.Snap(f.root)); diff != "" {
		t.Errorf("render tree changed (-before +after):\n%s", diff)
	}
	if s := f.store.Stats(); s.Recomputed != 0 {
		t.Errorf("expected no child list recomputation, got %d", s.Recomputed)
	}
	if b.Created != 0 || b.Reused != 0 {
		t.Errorf("expected a clean pass to touch nothing, got %d created %d reused", b.Created, b.Reused)
	}
	if !b.Dirty().Empty() {
		t.Errorf("expected no dirty region, got %v", b.Dirty())
	}
}

func TestFilteredChildIsDetached(t *testing.T) {
	f := newFixture(t, flat)
	f.layout(t)
	old := f.paintOf(t, "b")

	b := f.byID(t, "b")
	if err := b.SetAttribute("systemLanguage", "fr"); err != nil {
		t.Fatal(err)
	}
	f.store.Invalidate(b, elemctx.SubtreeDirty)
	f.store.Invalidate(f.doc.Root, elemctx.StructureDirty)

	builder := f.layout(t)
	vp := f.root.FirstChild()
	if diff := cmp.Diff([]string{"a", "g"}, ids(vp.Children())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if old.Attached() {
		t.Error("expected the filtered element's paint node to be detached")
	}
	if f.store.Get(b).RenderNode != nil {
		t.Error("expected the back reference to be cleared")
	}
	if !builder.Dirty().Contains(geom.Point{X: 50, Y: 50}) {
		t.Errorf("expected the old area in the dirty region, got %v", builder.Dirty())
	}
	if builder.Created != 0 {
		t.Errorf("expected surviving nodes to be kept, got %d created", builder.Created)
	}
}

func TestAttributeChangeReusesNode(t *testing.T) {
	f := newFixture(t, flat)
	f.layout(t)
	old := f.paintOf(t, "c")

	c := f.byID(t, "c")
	if err := c.SetAttribute("width", "15"); err != nil {
		t.Fatal(err)
	}
	f.store.Invalidate(c, elemctx.SubtreeDirty)
	b := f.layout(t)

	if f.paintOf(t, "c") != old {
		t.Error("expected the paint node to be reused")
	}
	if got := old.Extents(); got.W != 15 {
		t.Errorf("expected updated geometry, got %v", got)
	}
	if got := f.paintOf(t, "g").Extents(); got.W != 15 {
		t.Errorf("expected parent extents to follow, got %v", got)
	}
	if b.Reused == 0 {
		t.Error("expected reuse to be counted")
	}
	if !b.Dirty().Contains(geom.Point{X: 33, Y: 22}) {
		t.Errorf("expected the grown area in the dirty region, got %v", b.Dirty())
	}
}

func TestDisplayNoneIsNotRendered(t *testing.T) {
	f := newFixture(t, `<rect id="a" width="5" height="5"/><rect id="h" display="none" width="5" height="5"/>`)
	f.layout(t)
	if diff := cmp.Diff([]string{"a"}, ids(f.root.FirstChild().Children())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	if lvl := f.store.Get(f.byID(t, "h")).Level(); lvl != elemctx.Clean {
		t.Errorf("expected invisible element to be cleared, got %v", lvl)
	}
}

func TestAllocationFailure(t *testing.T) {
	f := newFixture(t, flat)
	b := NewBuilder(f.root)
	b.Alloc = paint.LimitedAllocator(2)
	err := traverse.Traverse(f.doc.Root, b, f.opts())
	if !errors.Is(err, traverse.ErrOutOfMemory) {
		t.Fatalf("expected out of memory, got %v", err)
	}
	var te *traverse.Error
	if !errors.As(err, &te) || te.Node.ID() != "b" {
		t.Fatalf("expected the error on b, got %v", err)
	}
	if !f.paintOf(t, "a").Attached() {
		t.Error("expected nodes built before the failure to stay attached")
	}
	if f.store.Get(f.doc.Root).Level() == elemctx.Clean {
		t.Error("expected the failed root to stay invalid")
	}
	if f.store.Get(f.byID(t, "a")).Level() != elemctx.Clean {
		t.Error("expected the completed sibling to be cleared")
	}
}

func TestUseInstance(t *testing.T) {
	f := newFixture(t, `<defs><rect id="r" width="10" height="10"/></defs><use id="u" href="#r" x="5" y="5"/>`)
	f.layout(t)

	u := f.paintOf(t, "u")
	if u.Kind != paint.Offset {
		t.Fatalf("expected an offset node, got %v", u.Kind)
	}
	kids := u.Children()
	if len(kids) != 1 || kids[0].Kind != paint.Shape {
		t.Fatalf("expected one shape below the use, got %s", paint.Dump(u))
	}
	if got := kids[0].DeviceExtents(); got != (geom.Rect{X: 5, Y: 5, W: 10, H: 10}) {
		t.Errorf("unexpected instance extents %v", got)
	}

	r := f.byID(t, "r")
	if err := r.SetAttribute("width", "20"); err != nil {
		t.Fatal(err)
	}
	f.store.Invalidate(r, elemctx.SubtreeDirty)
	f.layout(t)
	kids = f.paintOf(t, "u").Children()
	if len(kids) != 1 {
		t.Fatalf("expected one instance child, got %s", paint.Dump(f.root))
	}
	if got := kids[0].DeviceExtents(); got != (geom.Rect{X: 5, Y: 5, W: 20, H: 10}) {
		t.Errorf("expected the instance to follow its source, got %v", got)
	}
}

func TestReferenceCycles(t *testing.T) {
	f := newFixture(t, `<use id="self" href="#self"/>`+
		`<linearGradient id="A" href="#B"/><linearGradient id="B" href="#A"/>`+
		`<rect id="r" width="10" height="10" fill="url(#A) red"/>`+
		`<rect id="n" width="10" height="10" fill="url(#missing)"/>`)
	f.layout(t)

	if diff := cmp.Diff([]string{"r", "n"}, ids(f.root.FirstChild().Children())); diff != "" {
		t.Errorf("children mismatch (-want +got):\n%s", diff)
	}
	r := f.paintOf(t, "r")
	if r.Fill == nil || r.Fill.Kind != paint.Solid || r.Fill.Color.R != 255 {
		t.Errorf("expected the fallback color for a cyclic gradient, got %+v", r.Fill)
	}
	if n := f.paintOf(t, "n"); n.Fill != nil {
		t.Errorf("expected no fill for a missing server, got %+v", n.Fill)
	}
}

func TestGradientServer(t *testing.T) {
	f := newFixture(t, `<defs>`+
		`<linearGradient id="base" x2="50%"><stop offset="0" stop-color="red"/><stop offset="2" stop-color="blue"/></linearGradient>`+
		`<linearGradient id="g" href="#base" gradientUnits="userSpaceOnUse"/>`+
		`</defs><rect id="r" width="10" height="10" fill="url(#g)"/>`)
	f.layout(t)

	s := f.paintOf(t, "r").Fill
	if s == nil || s.Kind != paint.LinearGradient {
		t.Fatalf("expected a linear gradient, got %+v", s)
	}
	if s.BoundingBoxUnits {
		t.Error("expected user space units from the referencing gradient")
	}
	if s.X2 != 50 {
		t.Errorf("expected x2 inherited through href and resolved against the viewport, got %v", s.X2)
	}
	want := []paint.Stop{{Offset: 0, Color: css.Color{R: 255, A: 1}}, {Offset: 1, Color: css.Color{B: 255, A: 1}}}
	if diff := cmp.Diff(want, s.Stops); diff != "" {
		t.Errorf("stops mismatch (-want +got):\n%s", diff)
	}
	deps := f.store.Dependents(f.byID(t, "base"))
	if len(deps) != 1 || deps[0].ID() != "r" {
		t.Errorf("expected r to depend on the template gradient, got %v", deps)
	}
}

func TestClipPath(t *testing.T) {
	f := newFixture(t, `<clipPath id="c"><rect width="5" height="5"/></clipPath>`+
		`<rect id="r" width="10" height="10" clip-path="url(#c)"/>`)
	f.layout(t)

	r := f.paintOf(t, "r")
	if r.Clip == nil || len(r.Clip.Paths) != 1 {
		t.Fatalf("expected one clip path, got %+v", r.Clip)
	}
	if got := r.Extents(); got != (geom.Rect{W: 5, H: 5}) {
		t.Errorf("expected extents limited by the clip, got %v", got)
	}

	for _, tc := range []struct {
		x, y float64
		hit  bool
	}{{2, 2, true}, {7, 7, false}} {
		h := NewPointTester(tc.x, tc.y)
		if err := traverse.Traverse(f.doc.Root, h, f.opts()); err != nil {
			t.Fatal(err)
		}
		if got := h.Top() != nil; got != tc.hit {
			t.Errorf("hit at %v,%v: got %v, want %v", tc.x, tc.y, got, tc.hit)
		}
	}
}

func TestTextRuns(t *testing.T) {
	f := newFixture(t, `<text id="t" x="10" y="20" font-size="13">abc<tspan dy="5">de</tspan></text>`)
	f.layout(t)

	rn := f.paintOf(t, "t")
	if rn.Kind != paint.Text || len(rn.Runs) != 2 {
		t.Fatalf("expected two runs, got %s", paint.Dump(rn))
	}
	second := rn.Runs[1]
	if second.X != 31 || second.Y != 25 || second.Text != "de" {
		t.Errorf("unexpected second run %+v", second)
	}
	if len(rn.Children()) != 0 {
		t.Error("expected text content to live in runs, not child nodes")
	}
}

func TestBBoxUpdater(t *testing.T) {
	f := newFixture(t, flat+`<g id="moved" transform="translate(100,0)"><rect width="1" height="1"/></g>`)
	u := &BBoxUpdater{}
	if err := traverse.Traverse(f.doc.Root, u, f.opts()); err != nil {
		t.Fatal(err)
	}
	if got := f.store.Get(f.byID(t, "g")).BBox; got != (geom.Rect{X: 20, Y: 20, W: 5, H: 5}) {
		t.Errorf("unexpected group box %v", got)
	}
	if got := f.store.Get(f.byID(t, "moved")).BBox; got != (geom.Rect{W: 1, H: 1}) {
		t.Errorf("expected a box in the group's own user space, got %v", got)
	}
	if got := f.store.Get(f.doc.Root).BBox; got != (geom.Rect{W: 101, H: 55}) {
		t.Errorf("unexpected root box %v", got)
	}

	c := f.byID(t, "c")
	if err := c.SetAttribute("x", "30"); err != nil {
		t.Fatal(err)
	}
	f.store.Invalidate(c, elemctx.SubtreeDirty)
	u = &BBoxUpdater{}
	if err := traverse.Traverse(f.doc.Root, u, f.opts()); err != nil {
		t.Fatal(err)
	}
	if u.Computed != 3 {
		t.Errorf("expected only the changed path to be recomputed, got %d", u.Computed)
	}
	if got := f.store.Get(f.doc.Root).BBox; got != (geom.Rect{W: 101, H: 55}) {
		t.Errorf("unexpected root box after update %v", got)
	}
	if got := f.store.Get(f.byID(t, "g")).BBox.X; got != 30 {
		t.Errorf("expected the group box to move, got x=%v", got)
	}
}

func TestHitTesting(t *testing.T) {
	f := newFixture(t, `<rect id="bottom" width="50" height="50"/>`+
		`<rect id="top" x="10" y="10" width="10" height="10"/>`+
		`<rect id="ghost" x="10" y="10" width="10" height="10" pointer-events="none"/>`+
		`<rect id="hidden" x="10" y="10" width="10" height="10" visibility="hidden"/>`+
		`<rect id="outline" x="60" y="60" width="20" height="20" fill="none" stroke="black" stroke-width="2"/>`)
	f.layout(t)

	hit := func(x, y float64) []string {
		h := NewPointTester(x, y)
		if err := traverse.Traverse(f.doc.Root, h, f.opts()); err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, n := range h.Hits() {
			out = append(out, n.ID())
		}
		return out
	}
	for _, tc := range []struct {
		x, y float64
		want []string
	}{
		{15, 15, []string{"bottom", "top"}},
		{40, 40, []string{"bottom"}},
		{60, 70, []string{"outline"}},
		{70, 70, nil},
		{200, 200, nil},
	} {
		if diff := cmp.Diff(tc.want, hit(tc.x, tc.y)); diff != "" {
			t.Errorf("hits at %v,%v (-want +got):\n%s", tc.x, tc.y, diff)
		}
	}

	h := NewRectTester(geom.Rect{X: 12, Y: 12, W: 1, H: 1})
	if err := traverse.Traverse(f.doc.Root, h, f.opts()); err != nil {
		t.Fatal(err)
	}
	if got := len(h.Hits()); got != 2 {
		t.Errorf("expected 2 intersecting elements, got %d", got)
	}
}

// exhaustive visits every attached render node. Its results are what the
// pruned tester must reproduce.
type exhaustive struct{ *HitTester }

func (exhaustive) AllowTraverse(info *traverse.NodeInfo) bool {
	rn := info.Ctx.RenderNode
	return rn != nil && rn.Attached()
}

func TestHitPruningKeepsResult(t *testing.T) {
	f := newFixture(t, `<rect id="r" x="10" y="10" width="20" height="20" stroke="none" stroke-width="10" pointer-events="all"/>`+
		`<g id="g" transform="translate(60,0)">`+
		`<rect id="o" x="5" y="10" width="20" height="20" fill="none" stroke-width="6" pointer-events="stroke"/>`+
		`</g>`+
		`<image id="img" x="50" y="50" width="20" height="20" href="missing.png"/>`+
		`<circle id="c" cx="20" cy="80" r="8" fill="none" stroke-width="4" pointer-events="visible"/>`+
		`<text id="t" x="75" y="90" font-size="13">hi</text>`)
	f.layout(t)

	run := func(b traverse.Behavior, h *HitTester) []string {
		t.Helper()
		if err := traverse.Traverse(f.doc.Root, b, f.opts()); err != nil {
			t.Fatal(err)
		}
		var out []string
		for _, n := range h.Hits() {
			out = append(out, n.ID())
		}
		return out
	}
	point := func(x, y float64, pruned bool) []string {
		h := NewPointTester(x, y)
		if pruned {
			return run(h, h)
		}
		return run(exhaustive{h}, h)
	}

	if diff := cmp.Diff([]string{"r"}, point(8, 20, true)); diff != "" {
		t.Errorf("unpainted stroke area (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"img"}, point(60, 60, true)); diff != "" {
		t.Errorf("image that did not load (-want +got):\n%s", diff)
	}
	for y := -4.0; y <= 104; y += 2 {
		for x := -4.0; x <= 104; x += 2 {
			want, got := point(x, y, false), point(x, y, true)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("pruning changed hits at %v,%v (-unpruned +pruned):\n%s", x, y, diff)
			}
		}
	}
	for _, r := range []geom.Rect{
		{X: 0, Y: 0, W: 6, H: 6},
		{X: 6, Y: 18, W: 2, H: 2},
		{X: 62, Y: 12, W: 1, H: 1},
		{X: 55, Y: 55, W: 2, H: 2},
		{X: 70, Y: 80, W: 30, H: 20},
		{X: 0, Y: 0, W: 100, H: 100},
	} {
		h, u := NewRectTester(r), NewRectTester(r)
		if diff := cmp.Diff(run(exhaustive{u}, u), run(h, h)); diff != "" {
			t.Errorf("pruning changed selection of %v (-unpruned +pruned):\n%s", r, diff)
		}
	}
}

func TestNestedViewportKeepsClip(t *testing.T) {
	f := newFixture(t, `<clipPath id="cp"><rect width="100" height="3"/></clipPath>`+
		`<svg id="inner" x="10" y="10" width="20" height="20" clip-path="url(#cp)">`+
		`<rect id="fill" width="100" height="100"/></svg>`)
	var buf bytes.Buffer
	opts := f.opts()
	opts.Logger = log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	if err := traverse.Traverse(f.doc.Root, NewBuilder(f.root), opts); err != nil {
		t.Fatal(err)
	}
	if strings.Contains(buf.String(), "out of balance") {
		t.Errorf("clip collection unbalanced the resolver:\n%s", buf.String())
	}
	c := f.paintOf(t, "inner").Clip
	if c == nil || c.Within == nil {
		t.Fatalf("expected the clip path nested over the viewport clip, got %+v", c)
	}

	for _, tc := range []struct {
		x, y float64
		want []string
	}{
		{15, 11, []string{"fill"}},
		{15, 20, nil}, // viewport only
		{50, 11, nil}, // clip path only
	} {
		h := NewPointTester(tc.x, tc.y)
		if err := traverse.Traverse(f.doc.Root, h, f.opts()); err != nil {
			t.Fatal(err)
		}
		var got []string
		for _, n := range h.Hits() {
			got = append(got, n.ID())
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("hits at %v,%v (-want +got):\n%s", tc.x, tc.y, diff)
		}
	}
}

func TestUnfollowLogsImbalance(t *testing.T) {
	doc := parse(t, `<rect id="r" width="1" height="1"/>`)
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	v := &Visitor{Func: func(info *traverse.NodeInfo) error {
		if info.Node.ID() == "r" {
			unfollow(info, info.Node)
		}
		return nil
	}}
	if err := traverse.Traverse(doc.Root, v, traverse.Options{Logger: logger}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "resolver out of balance") {
		t.Errorf("expected the imbalance to be logged, got %q", buf.String())
	}
}

func measure(t *testing.T, doc *dom.Document, m *TextMeasurer) {
	t.Helper()
	target := doc.GetElementByID("t")
	opts := traverse.Options{Policy: NewWithin(doc.Root, target)}
	if err := traverse.Traverse(doc.Root, m, opts); err != nil {
		t.Fatal(err)
	}
}

func TestTextMeasurement(t *testing.T) {
	f := newFixture(t, `<g font-size="13"><text id="t" x="10" y="20">abc<tspan>de</tspan></text></g><text>other</text>`)
	m := &TextMeasurer{}
	measure(t, f.doc, m)

	if got := m.NumberOfChars(); got != 5 {
		t.Errorf("expected 5 chars, got %d", got)
	}
	if got := m.ComputedTextLength(); got != 35 {
		t.Errorf("expected inherited font size to give length 35, got %v", got)
	}
	r, ok := m.ExtentOfChar(3)
	if !ok || r.X != 31 || r.W != 7 {
		t.Errorf("unexpected extent of char 3: %v %v", r, ok)
	}
	if _, ok := m.ExtentOfChar(5); ok {
		t.Error("expected no extent past the end")
	}
	rects := m.SelectionRects(2, 4)
	if len(rects) != 2 || rects[0].X != 24 || rects[0].W != 7 || rects[1].X != 31 {
		t.Errorf("unexpected selection %v", rects)
	}
}

func TestTextAnchorAndWhitespace(t *testing.T) {
	f := newFixture(t, `<text id="t" x="10" font-size="13" text-anchor="middle">  a
	  b  </text>`)
	m := &TextMeasurer{}
	measure(t, f.doc, m)

	runs := m.Runs()
	if len(runs) != 1 || runs[0].Text != "a b" {
		t.Fatalf("expected collapsed text, got %+v", runs)
	}
	if math.Abs(runs[0].X-(10-10.5)) > 1e-9 {
		t.Errorf("expected the run centered on x, got %v", runs[0].X)
	}
}

func TestTextMeasurementLimit(t *testing.T) {
	f := newFixture(t, `<text id="t" font-size="13">abc<tspan>de</tspan>fg</text>`)
	m := &TextMeasurer{Limit: 2}
	measure(t, f.doc, m)
	if got := m.NumberOfChars(); got != 3 {
		t.Errorf("expected the pass to stop after the first text node, got %d chars", got)
	}
}

func TestTextMeasurementLimitSpansPass(t *testing.T) {
	doc := parse(t, `<g><text font-size="13">abc</text></g><text>defgh</text><text>ijk</text>`)
	m := &TextMeasurer{Limit: 2}
	if err := traverse.Traverse(doc.Root, m, traverse.Options{}); err != nil {
		t.Fatal(err)
	}
	if got := m.NumberOfChars(); got != 3 {
		t.Errorf("expected the pass to end inside the first text, got %d chars", got)
	}
	if got := len(m.Runs()); got != 1 {
		t.Errorf("expected 1 run, got %d", got)
	}
}

func TestScreenCTM(t *testing.T) {
	doc := parse(t, `<g transform="translate(10,20)"><rect id="r" transform="scale(2)"/></g><rect id="other"/>`)
	m, ok, err := ScreenCTM(doc.Root, doc.GetElementByID("r"), traverse.Options{})
	if err != nil || !ok {
		t.Fatalf("ScreenCTM: %v %v", ok, err)
	}
	if want := (geom.Matrix{A: 2, D: 2, E: 10, F: 20}); m != want {
		t.Errorf("got %v, want %v", m, want)
	}
}

func TestVisitorLogicalOrder(t *testing.T) {
	doc := parse(t, `<switch><rect id="x" systemLanguage="fr"/><rect id="y"/><rect id="z"/></switch>`+
		`<g id="g"><circle id="c" r="1"/></g>`)
	var seen []string
	v := &Visitor{Func: func(info *traverse.NodeInfo) error {
		if id := info.Node.ID(); id != "" {
			seen = append(seen, id)
		}
		if info.Node.ID() == "g" {
			return traverse.SkipChildren
		}
		return nil
	}}
	if err := traverse.Traverse(doc.Root, v, traverse.Options{Policy: traverse.LogicalTree{}}); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"y", "g"}, seen); diff != "" {
		t.Errorf("visit order mismatch (-want +got):\n%s", diff)
	}
}
