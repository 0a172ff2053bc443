// Package arena provides a stack-shaped allocator for traversal frames.
//
// Slots are handed out in chunks so that a pointer returned by Push stays
// valid until the matching Pop, even while the stack keeps growing. The only
// way to give a slot back is Pop, which always frees the most recently pushed
// slot; out-of-order release cannot be expressed.
package arena

import (
	"errors"
	"fmt"
)

// ChunkSize is the number of slots allocated at once.
const ChunkSize = 20

// ErrExhausted is returned by Push when the stack may not grow any further.
var ErrExhausted = errors.New("arena: out of memory")

// Option configures a Stack.
type Option func(*options)

type options struct {
	limit   int
	reserve func(depth int) error
}

// WithLimit caps the number of live slots. Zero means unlimited.
func WithLimit(n int) Option {
	return func(o *options) { o.limit = n }
}

// WithReserve installs a hook consulted before every Push with the depth the
// stack would reach. A non-nil error refuses the push and is wrapped in
// ErrExhausted.
func WithReserve(fn func(depth int) error) Option {
	return func(o *options) { o.reserve = fn }
}

// Stack is a LIFO arena of T values.
type Stack[T any] struct {
	chunks [][]T
	n      int
	opts   options
}

// New creates an empty stack.
func New[T any](opts ...Option) *Stack[T] {
	s := &Stack[T]{}
	for _, opt := range opts {
		opt(&s.opts)
	}
	return s
}

// Push allocates a zeroed slot on top of the stack.
func (s *Stack[T]) Push() (*T, error) {
	if s.opts.limit > 0 && s.n >= s.opts.limit {
		return nil, ErrExhausted
	}
	if s.opts.reserve != nil {
		if err := s.opts.reserve(s.n + 1); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrExhausted, err)
		}
	}
	c := s.n / ChunkSize
	if c == len(s.chunks) {
		s.chunks = append(s.chunks, make([]T, ChunkSize))
	}
	slot := &s.chunks[c][s.n%ChunkSize]
	s.n++
	return slot, nil
}

// Pop releases the top slot. Popping an empty stack is a no-op.
func (s *Stack[T]) Pop() {
	if s.n == 0 {
		return
	}
	s.n--
	var zero T
	s.chunks[s.n/ChunkSize][s.n%ChunkSize] = zero

	// Keep one spare chunk around so a stack oscillating on a chunk
	// boundary does not reallocate on every push.
	used := (s.n + ChunkSize - 1) / ChunkSize
	if len(s.chunks) > used+1 {
		for i := used + 1; i < len(s.chunks); i++ {
			s.chunks[i] = nil
		}
		s.chunks = s.chunks[:used+1]
	}
}

// Top returns the top slot, or nil when the stack is empty.
func (s *Stack[T]) Top() *T {
	if s.n == 0 {
		return nil
	}
	return s.At(s.n - 1)
}

// At returns the slot at depth i, counting from the bottom.
func (s *Stack[T]) At(i int) *T {
	if i < 0 || i >= s.n {
		return nil
	}
	return &s.chunks[i/ChunkSize][i%ChunkSize]
}

// Len reports the number of live slots.
func (s *Stack[T]) Len() int { return s.n }

// Chunks reports how many chunks are currently allocated.
func (s *Stack[T]) Chunks() int { return len(s.chunks) }
