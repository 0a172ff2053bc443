// Package svgdoc holds everything the passes over one SVG document share:
// the node graph, its element contexts, the style provider and the render
// tree. It turns DOM mutations into invalidation and schedules passes so
// that at most one is in progress at a time.
package svgdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/images"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/resource"
	"svgtrav/pkg/script"
	"svgtrav/pkg/text"
	"svgtrav/pkg/traverse"
)

// ErrBusy is returned when a pass is started, or the document mutated
// through Document, while a time-sliced job is suspended. Mutations made
// directly on the DOM in that state fail with dom.ErrFrozen, which ErrBusy
// wraps.
var ErrBusy = fmt.Errorf("svgdoc: a suspended pass is in progress: %w", dom.ErrFrozen)

// Options configures a Document.
type Options struct {
	// Viewport is the initial viewport. The zero value uses the width and
	// height of the root element, falling back to 300x150.
	Viewport geom.Rect

	Env      *elemctx.Environment
	Measurer *text.Measurer

	// FontSize is the font-size the root element inherits; zero keeps the
	// initial value.
	FontSize float64

	// Fetcher loads images; nil reads files relative to BaseURL.
	Fetcher resource.Fetcher
	BaseURL string

	// Alloc creates render nodes; nil uses paint.NewNode.
	Alloc paint.Allocator

	// TimeSlice is the budget of one Job.Step.
	TimeSlice time.Duration
	MaxDepth  int
	Clock     func() time.Time

	Logger *log.Logger
	Trace  bool
}

// Document is the context object of one SVG document.
type Document struct {
	DOM        *dom.Document
	Store      *elemctx.Store
	Styles     *css.Cascade
	RenderRoot *paint.Node
	Images     *images.ImageCache
	Options    Options

	job     *Job
	dirty   geom.Rect
	log     *log.Logger
	scripts *script.Engine
}

// Open parses an SVG document from r.
func Open(r io.Reader, opts Options) (*Document, error) {
	d, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(d, opts)
}

// OpenFile parses the SVG file at path. Relative references resolve
// against the file's directory unless opts.BaseURL is set.
func OpenFile(path string, opts Options) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if opts.BaseURL == "" {
		opts.BaseURL = filepath.Dir(path)
	}
	doc, err := Open(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Load reads the document at uri: a file path, an http(s) URL or a data
// URI. Relative references resolve against uri unless opts.BaseURL is set.
func Load(uri string, opts Options) (*Document, error) {
	if !resource.IsNetworkURL(uri) && !resource.IsDataURI(uri) && !strings.HasPrefix(uri, "file:") {
		return OpenFile(uri, opts)
	}
	if opts.BaseURL == "" && !resource.IsDataURI(uri) {
		opts.BaseURL = uri
	}
	f := opts.Fetcher
	if f == nil {
		f = resource.NewFetcher(opts.BaseURL)
	}
	body, _, err := f.Fetch(uri)
	if err != nil {
		return nil, err
	}
	doc, err := Open(bytes.NewReader(body), opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", uri, err)
	}
	return doc, nil
}

// New wraps an already parsed document and starts observing its mutations.
func New(d *dom.Document, opts Options) (*Document, error) {
	if d == nil || d.Root == nil {
		return nil, errors.New("svgdoc: document has no root element")
	}
	root, err := paint.NewNode(paint.Composite)
	if err != nil {
		return nil, err
	}
	root.Tag = "#document"

	if opts.Env == nil {
		opts.Env = elemctx.DefaultEnvironment()
	}
	if opts.Measurer == nil {
		opts.Measurer = text.Default()
	}
	if opts.Fetcher == nil {
		opts.Fetcher = resource.NewFetcher(opts.BaseURL)
	}
	if opts.Viewport.W <= 0 || opts.Viewport.H <= 0 {
		opts.Viewport = rootViewport(d.Root)
	}

	doc := &Document{
		DOM:        d,
		Store:      elemctx.NewStore(),
		Styles:     css.FromDocument(d),
		RenderRoot: root,
		Images:     images.NewCache(opts.Fetcher),
		Options:    opts,
		dirty:      geom.EmptyRect(),
		log:        opts.Logger,
	}
	if opts.FontSize > 0 {
		doc.Styles.Defaults = css.NewStyle()
		doc.Styles.Defaults.Set("font-size", strconv.FormatFloat(opts.FontSize, 'f', -1, 64))
	}
	if opts.Env.ResourceAvailable == nil {
		env := *opts.Env
		env.ResourceAvailable = doc.ResourceAvailable
		doc.Options.Env = &env
	}
	d.Observe(doc)
	return doc, nil
}

// rootViewport reads the absolute width and height of the root element.
func rootViewport(root *dom.Node) geom.Rect {
	vp := traverse.DefaultViewport
	if w, ok := css.ParseLength(root.Attr("width")); ok && w > 0 && !strings.HasSuffix(root.Attr("width"), "%") {
		vp.W = w
	}
	if h, ok := css.ParseLength(root.Attr("height")); ok && h > 0 && !strings.HasSuffix(root.Attr("height"), "%") {
		vp.H = h
	}
	return vp
}

// Size returns the canvas size in whole pixels.
func (d *Document) Size() (width, height int) {
	return int(math.Ceil(d.Options.Viewport.W)), int(math.Ceil(d.Options.Viewport.H))
}

// ResourceAvailable reports whether the external resource n requires has
// loaded.
func (d *Document) ResourceAvailable(n *dom.Node) bool {
	return d.Images.Available(n)
}

// Busy reports whether a job is suspended.
func (d *Document) Busy() bool { return d.job != nil }

// Dirty returns the device-space region changed since the last call and
// resets it. An empty rect means nothing needs repainting.
func (d *Document) Dirty() geom.Rect {
	r := d.dirty
	d.dirty = geom.EmptyRect()
	return r
}

func (d *Document) addDirty(r geom.Rect) {
	d.dirty = d.dirty.Union(r)
}

// Mutate runs fn unless a job is suspended.
func (d *Document) Mutate(fn func(*dom.Document) error) error {
	if d.job != nil {
		return ErrBusy
	}
	return fn(d.DOM)
}

// traverseOptions returns the options every pass over d starts from.
func (d *Document) traverseOptions() traverse.Options {
	return traverse.Options{
		Provider:  d.Styles,
		Store:     d.Store,
		Env:       d.Options.Env,
		Viewport:  d.Options.Viewport,
		TimeSlice: d.Options.TimeSlice,
		Clock:     d.Options.Clock,
		MaxDepth:  d.Options.MaxDepth,
		Logger:    d.log,
		Trace:     d.Options.Trace,
	}
}

func (d *Document) debug(msg string, keyvals ...interface{}) {
	if d.log != nil {
		d.log.Debug(msg, keyvals...)
	}
}

// needsLayout reports whether the render tree is out of date.
func (d *Document) needsLayout() bool {
	c := d.Store.Lookup(d.DOM.Root)
	return c == nil || c.Level() > elemctx.Clean || c.SubtreeChanged()
}

func (d *Document) ensureLayout() error {
	if d.job != nil {
		return ErrBusy
	}
	if !d.needsLayout() {
		return nil
	}
	return d.Layout()
}
