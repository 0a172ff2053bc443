// Package elemctx holds the per-node bookkeeping that survives between
// passes: invalidation state, the cached bounding box, the attached render
// node and the list of child contexts last selected for traversal.
package elemctx

import (
	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
)

// Level classifies how much cached state of a context may be reused.
type Level int

const (
	Clean          Level = iota
	ContentDirty         // own content changed, children unaffected
	StructureDirty       // child list must be recomputed
	SubtreeDirty         // every descendant must be revisited
	NewlyAdded           // nothing cached is valid
)

func (l Level) String() string {
	switch l {
	case Clean:
		return "clean"
	case ContentDirty:
		return "content-dirty"
	case StructureDirty:
		return "structure-dirty"
	case SubtreeDirty:
		return "subtree-dirty"
	case NewlyAdded:
		return "newly-added"
	}
	return "invalid"
}

// Context is the persistent record for one node.
type Context struct {
	Node *dom.Node

	// BBox is the union of the node's geometry and its children's boxes in
	// the node's own user space. Only meaningful while BBoxValid.
	BBox      geom.Rect
	BBoxValid bool

	// Transform is the local transform recorded with BBox, mapping the box
	// into the parent's user space.
	Transform geom.Matrix

	// RenderNode is a non-owning reference into the render tree. It must be
	// cleared before the paint node is disposed.
	RenderNode *paint.Node

	// Shadow is the instance tree of a <use> element.
	Shadow *dom.Node

	level          Level
	subtreeChanged bool

	parent                  *Context
	first, last, prev, next *Context
}

// Level returns the current invalidation level.
func (c *Context) Level() Level { return c.level }

// Upgrade raises the invalidation level. Lower levels are ignored; it
// reports whether the level changed.
func (c *Context) Upgrade(l Level) bool {
	if l <= c.level {
		return false
	}
	c.level = l
	return true
}

// SubtreeChanged reports whether a descendant was invalidated since this
// context was last cleared.
func (c *Context) SubtreeChanged() bool { return c.subtreeChanged }

// Clear resets the invalidation state. Only the traversal engine calls this,
// from a completed Leave step of this node.
func (c *Context) Clear() {
	c.level = Clean
	c.subtreeChanged = false
}

// Parent returns the context whose child list contains c.
func (c *Context) Parent() *Context     { return c.parent }
func (c *Context) FirstChild() *Context { return c.first }
func (c *Context) Next() *Context       { return c.next }

// Children returns the selected child contexts in order.
func (c *Context) Children() []*Context {
	var out []*Context
	for ch := c.first; ch != nil; ch = ch.next {
		out = append(out, ch)
	}
	return out
}

// DetachRender drops the back reference and unlinks the paint node from the
// render tree.
func (c *Context) DetachRender() {
	rn := c.RenderNode
	if rn == nil {
		return
	}
	c.RenderNode = nil
	rn.Detach()
}

func (c *Context) unlink() {
	p := c.parent
	if p == nil {
		return
	}
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		p.first = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		p.last = c.prev
	}
	c.parent, c.prev, c.next = nil, nil, nil
}

func (c *Context) append(child *Context) {
	child.parent = c
	child.prev = c.last
	if c.last != nil {
		c.last.next = child
	} else {
		c.first = child
	}
	c.last = child
}
