// Package traverse walks an SVG node graph with an explicit stack of frames
// instead of recursion, so that a pass can stop after any node and resume
// later from the same place.
//
// One engine serves every kind of pass. What a pass does per node is
// supplied by a Behavior; which children it visits is supplied by a
// ChildPolicy.
package traverse

import (
	"errors"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"svgtrav/pkg/arena"
	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/resolver"
)

// Status is the outcome of Run.
type Status int

const (
	Completed Status = iota
	Suspended
)

func (s Status) String() string {
	if s == Suspended {
		return "suspended"
	}
	return "completed"
}

// DefaultViewport is used when Options.Viewport is empty.
var DefaultViewport = geom.Rect{W: 300, H: 150}

// Options configures a Traversal. The zero value walks the rendering tree
// with a fresh store and the document's stylesheets.
type Options struct {
	Provider  css.Provider
	RootStyle *css.Style // style of the root; never released by the pass
	Store     *elemctx.Store
	Env       *elemctx.Environment
	Policy    ChildPolicy
	Resolver  *resolver.Stack
	Viewport  geom.Rect

	// Lookup resolves references such as "#id" and "url(#id)". The default
	// searches the source node's document.
	Lookup func(source *dom.Node, ref string) *dom.Node

	// TimeSlice is the budget of one Run call when suspension is allowed.
	// Zero disables suspension.
	TimeSlice time.Duration
	Clock     func() time.Time

	// MaxDepth bounds the frame stack; Reserve is consulted before every
	// frame push. Either refusing fails the pass with ErrOutOfMemory.
	MaxDepth int
	Reserve  func(depth int) error

	Logger *log.Logger
	Trace  bool // log every Enter and Leave at debug level
}

// Traversal is one pass over a subtree.
type Traversal struct {
	ID uuid.UUID

	opts     Options
	root     *dom.Node
	behavior Behavior
	stack    *arena.Stack[Frame]
	store    *elemctx.Store
	env      *elemctx.Environment
	provider css.Provider
	policy   ChildPolicy
	resolver *resolver.Stack
	lookup   func(*dom.Node, string) *dom.Node
	clock    func() time.Time
	log      *log.Logger

	started bool
	done    bool
	err     error
	runs    int
}

// New prepares a pass rooted at root. Nothing is visited until Run.
func New(root *dom.Node, behavior Behavior, opts Options) *Traversal {
	t := &Traversal{
		ID:       uuid.New(),
		opts:     opts,
		root:     root,
		behavior: behavior,
		store:    opts.Store,
		env:      opts.Env,
		provider: opts.Provider,
		policy:   opts.Policy,
		resolver: opts.Resolver,
		lookup:   opts.Lookup,
		clock:    opts.Clock,
	}
	if t.store == nil {
		t.store = elemctx.NewStore()
	}
	if t.env == nil {
		t.env = elemctx.DefaultEnvironment()
	}
	if t.provider == nil {
		if doc := root.Document(); doc != nil {
			t.provider = css.FromDocument(doc)
		} else {
			t.provider = css.NewCascade()
		}
	}
	if t.policy == nil {
		t.policy = RenderingTree{}
	}
	if t.resolver == nil {
		t.resolver = resolver.New()
	}
	if t.lookup == nil {
		t.lookup = findByReference
	}
	if t.clock == nil {
		t.clock = time.Now
	}
	if t.opts.Viewport.W <= 0 || t.opts.Viewport.H <= 0 {
		t.opts.Viewport = DefaultViewport
	}
	if opts.Logger != nil {
		t.log = opts.Logger.With("pass", t.ID.String())
	}
	var aopts []arena.Option
	if opts.MaxDepth > 0 {
		aopts = append(aopts, arena.WithLimit(opts.MaxDepth))
	}
	if opts.Reserve != nil {
		aopts = append(aopts, arena.WithReserve(opts.Reserve))
	}
	t.stack = arena.New[Frame](aopts...)
	return t
}

// Traverse runs a complete pass without suspension.
func Traverse(root *dom.Node, behavior Behavior, opts Options) error {
	_, err := New(root, behavior, opts).Run(false)
	return err
}

func findByReference(source *dom.Node, ref string) *dom.Node {
	if doc := source.Document(); doc != nil {
		return doc.FindByReference(source, ref)
	}
	return nil
}

func (t *Traversal) Store() *elemctx.Store     { return t.store }
func (t *Traversal) Env() *elemctx.Environment { return t.env }
func (t *Traversal) Provider() css.Provider    { return t.provider }
func (t *Traversal) Resolver() *resolver.Stack { return t.resolver }
func (t *Traversal) Options() Options          { return t.opts }
func (t *Traversal) Root() *dom.Node           { return t.root }
func (t *Traversal) Behavior() Behavior        { return t.behavior }
func (t *Traversal) Logger() *log.Logger       { return t.log }

// Lookup resolves ref relative to source with the configured lookup.
func (t *Traversal) Lookup(source *dom.Node, ref string) *dom.Node {
	return t.lookup(source, ref)
}

// Depth reports the number of open frames.
func (t *Traversal) Depth() int { return t.stack.Len() }

// Done reports whether the pass completed or was canceled.
func (t *Traversal) Done() bool { return t.done }

// Run advances the pass. With allowSuspend set it returns Suspended once
// the time slice is used up, checked after each Leave; a later Run
// continues where this one stopped. The error is nil or an *Error once the
// pass is Completed.
func (t *Traversal) Run(allowSuspend bool) (Status, error) {
	if t.done {
		return Completed, t.err
	}
	t.runs++
	if !t.started {
		t.started = true
		t.debug("pass started", "root", t.root.TagName)
		if err := t.pushRoot(); err != nil {
			t.finish(err)
			return Completed, t.err
		}
	} else {
		t.debug("pass resumed", "depth", t.stack.Len())
	}

	start := t.clock()
	for t.stack.Len() > 0 {
		f := t.stack.Top()
		switch f.progress {
		case StateEnter:
			t.stepEnter(f)
		case StatePushChild:
			t.stepPushChild(f)
		case StateNextChild:
			if f.result == nil && f.cursor != nil {
				f.progress = StatePushChild
			} else {
				f.progress = StateLeave
			}
		case StateLeave:
			t.stepLeave(f)
			f.progress = StatePop
			if allowSuspend && t.opts.TimeSlice > 0 && t.clock().Sub(start) >= t.opts.TimeSlice {
				t.debug("pass suspended", "depth", t.stack.Len())
				return Suspended, nil
			}
		case StatePop:
			t.stepPop(f)
		}
	}
	t.finish(t.err)
	return Completed, t.err
}

// Cancel abandons a suspended pass. Resolved styles and resolver entries
// of every open frame are released from the top down; no Leave hook runs.
func (t *Traversal) Cancel() {
	if t.done {
		return
	}
	depth := t.stack.Len()
	for t.stack.Len() > 0 {
		f := t.stack.Top()
		t.release(f)
		t.stack.Pop()
	}
	t.done = true
	t.err = ErrCanceled
	t.debug("pass canceled", "depth", depth)
}

func (t *Traversal) finish(err error) {
	t.done = true
	if err != nil {
		t.err = err
		t.debug("pass failed", "err", err, "runs", t.runs)
		return
	}
	t.debug("pass completed", "runs", t.runs)
}

func (t *Traversal) pushRoot() error {
	f, err := t.stack.Push()
	if err != nil {
		return wrapError(t.root, err)
	}
	ctx := t.store.Get(t.root)
	kind := elemctx.KindOf(t.root)
	f.info = NodeInfo{
		Node:      t.root,
		Ctx:       ctx,
		Kind:      kind,
		Level:     ctx.Level(),
		Transform: geom.Identity(),
		Viewport:  t.opts.Viewport,
		t:         t,
		frame:     f,
	}
	if kind == elemctx.KindTextSpan || kind == elemctx.KindTextNode {
		f.info.Flags |= InText
	}
	return nil
}

func (t *Traversal) pushChild(parent *Frame, child *elemctx.Context) error {
	f, err := t.stack.Push()
	if err != nil {
		return err
	}
	p := &parent.info
	f.info = NodeInfo{
		Node:      child.Node,
		Ctx:       child,
		Kind:      elemctx.KindOf(child.Node),
		Level:     effectiveLevel(child.Level(), p.Level),
		Transform: geom.Identity(),
		Viewport:  p.Viewport,
		t:         t,
		frame:     f,
		parent:    p,
		depth:     p.depth + 1,
	}
	if p.InText() {
		f.info.Flags |= InText
	}
	return nil
}

func (t *Traversal) stepEnter(f *Frame) {
	info := &f.info
	if !t.behavior.AllowTraverse(info) {
		f.progress = StatePop
		return
	}
	t.trace("enter", info)

	skip := t.absorb(f, t.enterElement(info))
	if !skip {
		skip = t.absorb(f, t.behavior.HandleContent(info))
	}
	if !skip && info.Kind.IsContainer() {
		if f.cursor = t.policy.First(info); f.cursor != nil {
			f.progress = StatePushChild
			return
		}
	}
	f.progress = StateLeave
}

// absorb files a hook result into the frame and reports whether the
// children must be skipped.
func (t *Traversal) absorb(f *Frame, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrInvisible):
		f.info.Invisible = true
	case errors.Is(err, SkipSubtree):
		f.signal = SkipSubtree
	case errors.Is(err, SkipChildren), errors.Is(err, SkipElement):
	default:
		t.fail(f, err)
	}
	return true
}

func (t *Traversal) stepPushChild(f *Frame) {
	child := f.cursor
	if err := t.pushChild(f, child); err != nil {
		// No frame was pushed: behave as if there were no more children.
		t.fail(f, err)
		f.progress = StateLeave
		return
	}
	f.cursor = t.policy.Next(&f.info, child)
	f.progress = StateNextChild
}

func (t *Traversal) stepLeave(f *Frame) {
	t.trace("leave", &f.info)
	if err := t.behavior.Leave(&f.info); err != nil {
		switch {
		case errors.Is(err, SkipSubtree):
			f.signal = SkipSubtree
		case isSignal(err):
		default:
			t.fail(f, err)
		}
	}
	t.unfollow(f)
}

func (t *Traversal) stepPop(f *Frame) {
	result, signal := f.result, f.signal
	t.release(f)
	t.stack.Pop()

	parent := t.stack.Top()
	if parent == nil {
		if result != nil {
			t.err = result
		}
		return
	}
	if result != nil && parent.result == nil {
		parent.result = result
	}
	if signal != nil {
		parent.cursor = nil
	}
}

func (t *Traversal) fail(f *Frame, err error) {
	if f.result == nil {
		f.result = wrapError(f.info.Node, err)
	}
}

// release frees what the frame owns outside the arena.
func (t *Traversal) release(f *Frame) {
	if f.ownsStyle {
		t.provider.Release(f.style)
	}
	f.style, f.ownsStyle = nil, false
	t.unfollow(f)
}

func (t *Traversal) unfollow(f *Frame) {
	for i := len(f.followed) - 1; i >= 0; i-- {
		if err := t.resolver.Leave(f.followed[i]); err != nil {
			t.debug("resolver out of balance", "err", err)
		}
	}
	f.followed = f.followed[:0]
}

func (t *Traversal) debug(msg string, keyvals ...interface{}) {
	if t.log != nil {
		t.log.Debug(msg, keyvals...)
	}
}

func (t *Traversal) trace(event string, info *NodeInfo) {
	if !t.opts.Trace || t.log == nil {
		return
	}
	name := "#text"
	if !info.Node.IsText() {
		name = info.Node.TagName
		if id := info.Node.ID(); id != "" {
			name += "#" + id
		}
	}
	t.log.Debug(strings.Repeat("  ", info.depth)+event+" "+name, "level", info.Level)
}
