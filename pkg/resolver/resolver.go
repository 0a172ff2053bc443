// Package resolver tracks the nodes currently being dereferenced so that
// cyclic references (a <use> of an ancestor, gradients whose href chain loops,
// clip paths clipped by themselves) are rejected instead of recursing.
package resolver

import (
	"errors"
	"fmt"

	"svgtrav/pkg/dom"
)

var (
	// ErrCycle is returned by Enter when the node is already being
	// dereferenced. Callers treat the reference as missing.
	ErrCycle = errors.New("resolver: reference cycle")

	// ErrUnbalanced is returned by Leave when node is not on top.
	ErrUnbalanced = errors.New("resolver: unbalanced leave")
)

// Stack is an ordered set of nodes being dereferenced. Shadow clones are
// tracked as the node they were cloned from.
type Stack struct {
	nodes []*dom.Node
}

func New() *Stack { return &Stack{} }

// Enter pushes node unless it is already on the stack.
func (s *Stack) Enter(node *dom.Node) error {
	src := node.Layouted()
	if s.Contains(src) {
		return fmt.Errorf("%w: #%s", ErrCycle, src.ID())
	}
	s.nodes = append(s.nodes, src)
	return nil
}

// Leave pops node, which must be the most recently entered one.
func (s *Stack) Leave(node *dom.Node) error {
	src := node.Layouted()
	n := len(s.nodes)
	if n == 0 || s.nodes[n-1] != src {
		return ErrUnbalanced
	}
	s.nodes[n-1] = nil
	s.nodes = s.nodes[:n-1]
	return nil
}

// Contains reports whether node is being dereferenced.
func (s *Stack) Contains(node *dom.Node) bool {
	src := node.Layouted()
	for _, n := range s.nodes {
		if n == src {
			return true
		}
	}
	return false
}

// Depth returns the number of nested dereferences.
func (s *Stack) Depth() int { return len(s.nodes) }
