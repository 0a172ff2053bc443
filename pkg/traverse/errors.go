package traverse

import (
	"errors"
	"fmt"

	"svgtrav/pkg/arena"
	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/paint"
)

// Signals returned by Behavior hooks. They are absorbed by the frame that
// produced them and never reach the caller of Run.
var (
	// SkipChildren continues with Leave without visiting children.
	SkipChildren = errors.New("skip children")

	// SkipElement excludes the element; its Leave hook still runs.
	SkipElement = errors.New("skip element")

	// SkipSubtree stops the remaining children of the parent frame as well.
	// A Leave hook re-returning it carries the signal one level further up.
	SkipSubtree = errors.New("skip subtree")

	// ErrInvisible marks the element as not rendered. Builders detach its
	// render node and clear the invalidation state of its subtree.
	ErrInvisible = errors.New("element is invisible")
)

var (
	// ErrOutOfMemory matches every allocation failure reported by a pass:
	// frames, resolved styles and paint nodes.
	ErrOutOfMemory = arena.ErrExhausted

	// ErrCanceled is returned by Run after Cancel.
	ErrCanceled = errors.New("traverse: pass canceled")
)

type ErrorKind int

const (
	KindFailure ErrorKind = iota
	KindOutOfMemory
)

func (k ErrorKind) String() string {
	if k == KindOutOfMemory {
		return "out of memory"
	}
	return "failure"
}

// Error is the fatal error of a pass. Node is the element whose frame
// recorded it first.
type Error struct {
	Kind ErrorKind
	Node *dom.Node
	Err  error
}

func (e *Error) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("traverse: %v", e.Err)
	}
	if e.Node.IsText() {
		return fmt.Sprintf("traverse: text node: %v", e.Err)
	}
	return fmt.Sprintf("traverse: <%s>: %v", e.Node.TagName, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrOutOfMemory) match css and paint allocation
// failures too.
func (e *Error) Is(target error) bool {
	return target == ErrOutOfMemory && e.Kind == KindOutOfMemory
}

func isOutOfMemory(err error) bool {
	return errors.Is(err, arena.ErrExhausted) ||
		errors.Is(err, css.ErrOutOfMemory) ||
		errors.Is(err, paint.ErrOutOfMemory)
}

func isSignal(err error) bool {
	return errors.Is(err, SkipChildren) || errors.Is(err, SkipElement) ||
		errors.Is(err, SkipSubtree) || errors.Is(err, ErrInvisible)
}

func wrapError(n *dom.Node, err error) *Error {
	var te *Error
	if errors.As(err, &te) {
		return te
	}
	kind := KindFailure
	if isOutOfMemory(err) {
		kind = KindOutOfMemory
	}
	return &Error{Kind: kind, Node: n, Err: err}
}
