package traverse

import (
	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/resolver"
	"svgtrav/pkg/shape"
)

// Progress is the position of a frame in its Enter/children/Leave cycle.
type Progress int

const (
	StateEnter Progress = iota
	StatePushChild
	StateNextChild
	StateLeave
	StatePop
)

func (p Progress) String() string {
	switch p {
	case StateEnter:
		return "ENTER"
	case StatePushChild:
		return "PUSH_CHILD"
	case StateNextChild:
		return "NEXT_CHILD"
	case StateLeave:
		return "LEAVE"
	case StatePop:
		return "POP"
	}
	return "INVALID"
}

// Flags record what a frame set up so that Leave can undo exactly that.
// The engine sets the Has* flags; behaviors own PushedState and the User
// bits.
type Flags uint32

const (
	HasTransform Flags = 1 << iota
	HasViewport
	HasReference
	HasClip
	InText
	PushedState
	User1
	User2
)

// Frame is one open node on the descent path.
type Frame struct {
	progress Progress
	info     NodeInfo
	cursor   *elemctx.Context
	result   *Error
	signal   error

	style     *css.Style
	ownsStyle bool

	// followed holds the references entered through NodeInfo.Follow, in
	// order, so they can be left on Leave or Cancel.
	followed []*dom.Node
}

// NodeInfo is what behaviors see of a frame.
type NodeInfo struct {
	// Node is the traversed node. Inside a <use> instance it is a shadow
	// clone; Real returns the document node.
	Node  *dom.Node
	Ctx   *elemctx.Context
	Kind  elemctx.Kind
	Level elemctx.Level // effective level, including the parent's
	Flags Flags

	// Transform maps this node's user space to its parent's.
	Transform geom.Matrix

	// Viewport is the rectangle percentages resolve against.
	Viewport geom.Rect

	// Target is the referenced element of a <use>.
	Target *dom.Node

	Invisible bool

	t      *Traversal
	frame  *Frame
	parent *NodeInfo
	depth  int
}

// Real returns the document node behind a shadow clone.
func (i *NodeInfo) Real() *dom.Node { return i.Node.Layouted() }

// Parent returns the info of the parent frame, or nil at the root.
func (i *NodeInfo) Parent() *NodeInfo { return i.parent }

// Depth is 0 at the root of the pass.
func (i *NodeInfo) Depth() int { return i.depth }

func (i *NodeInfo) Traversal() *Traversal { return i.t }

func (i *NodeInfo) Progress() Progress { return i.frame.progress }

// Failed reports whether a fatal error was recorded on this frame.
func (i *NodeInfo) Failed() bool { return i.frame.result != nil }

// Style returns the resolved style, resolving it and any unresolved
// ancestor styles on first use.
func (i *NodeInfo) Style() (*css.Style, error) {
	f := i.frame
	if f.style != nil {
		return f.style, nil
	}
	var parent *css.Style
	if i.parent != nil {
		ps, err := i.parent.Style()
		if err != nil {
			return nil, err
		}
		parent = ps
	} else if i.t.opts.RootStyle != nil {
		f.style = i.t.opts.RootStyle
		return f.style, nil
	}
	s, err := i.t.provider.Resolve(i.Node, parent)
	if err != nil {
		return nil, err
	}
	f.style, f.ownsStyle = s, true
	return s, nil
}

// MustStyle is Style for callers that already know the style is resolved,
// which holds from the Enter hooks onwards.
func (i *NodeInfo) MustStyle() *css.Style {
	s, err := i.Style()
	if err != nil {
		return css.NewStyle()
	}
	return s
}

// ShapeContext returns the context for resolving this node's lengths.
func (i *NodeInfo) ShapeContext() shape.Context {
	return shape.Context{Viewport: i.Viewport, FontSize: i.MustStyle().FontSize()}
}

// CTM returns the transform from this node's user space to the root's
// parent space, composed along the open frames.
func (i *NodeInfo) CTM() geom.Matrix {
	m := geom.Identity()
	for p := i; p != nil; p = p.parent {
		m = p.Transform.Multiply(m)
	}
	return m
}

// Lookup resolves a reference relative to this node.
func (i *NodeInfo) Lookup(ref string) *dom.Node { return i.t.lookup(i.Node, ref) }

// Follow enters target on the resolver. The entry is left automatically
// after this frame's Leave, or earlier through Unfollow.
func (i *NodeInfo) Follow(target *dom.Node) error {
	if err := i.t.resolver.Enter(target); err != nil {
		return err
	}
	i.frame.followed = append(i.frame.followed, target)
	return nil
}

// Unfollow leaves target, which must be the most recent entry of this frame.
func (i *NodeInfo) Unfollow(target *dom.Node) error {
	f := i.frame
	n := len(f.followed)
	if n == 0 || f.followed[n-1].Layouted() != target.Layouted() {
		return resolver.ErrUnbalanced
	}
	if err := i.t.resolver.Leave(target); err != nil {
		return err
	}
	f.followed = f.followed[:n-1]
	return nil
}

// ClearInvalidation resets the context's invalidation state. It only has
// an effect from this node's own Leave hook.
func (i *NodeInfo) ClearInvalidation() {
	if i.frame.progress != StateLeave {
		return
	}
	i.Ctx.Clear()
}

// ClearSubtree is ClearInvalidation for every context below this one.
func (i *NodeInfo) ClearSubtree() {
	if i.frame.progress != StateLeave {
		return
	}
	clearContexts(i.Ctx)
}

func clearContexts(c *elemctx.Context) {
	c.Clear()
	for ch := c.FirstChild(); ch != nil; ch = ch.Next() {
		clearContexts(ch)
	}
}

// RemoveFromParent detaches the node's render node from the render tree.
func (i *NodeInfo) RemoveFromParent() { i.Ctx.DetachRender() }

// ChildNodes returns the candidate children in document order: the shadow
// root for <use>, the node's children otherwise.
func (i *NodeInfo) ChildNodes() []*dom.Node {
	if i.Kind == elemctx.KindUse {
		if i.Ctx.Shadow == nil {
			return nil
		}
		return []*dom.Node{i.Ctx.Shadow}
	}
	return i.Node.Children
}

// InText reports whether this node is inside a <text> element or is one.
func (i *NodeInfo) InText() bool {
	return i.Flags&InText != 0 || i.Kind == elemctx.KindText
}

// TextRoot returns the info of the enclosing <text>, or nil.
func (i *NodeInfo) TextRoot() *NodeInfo {
	for p := i; p != nil; p = p.parent {
		if p.Kind == elemctx.KindText {
			return p
		}
	}
	return nil
}

func effectiveLevel(own, parent elemctx.Level) elemctx.Level {
	if parent >= elemctx.SubtreeDirty && own < elemctx.SubtreeDirty {
		return elemctx.SubtreeDirty
	}
	return own
}
