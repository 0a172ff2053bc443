package elemctx

import (
	"svgtrav/pkg/dom"
)

// Stats counts store activity since the store was created or last reset.
type Stats struct {
	Created    int // contexts created
	Recomputed int // SelectChildren calls
	Dropped    int // child contexts dropped by SelectChildren
}

// Store owns the contexts of one document. It is not safe for concurrent use.
type Store struct {
	contexts map[*dom.Node]*Context

	// dependents maps a referenced node to the nodes that reference it.
	dependents map[*dom.Node][]*dom.Node

	stats Stats
}

func NewStore() *Store {
	return &Store{
		contexts:   make(map[*dom.Node]*Context),
		dependents: make(map[*dom.Node][]*dom.Node),
	}
}

// Get returns the context of n, creating it at NewlyAdded if needed.
func (s *Store) Get(n *dom.Node) *Context {
	if c, ok := s.contexts[n]; ok {
		return c
	}
	c := &Context{Node: n, level: NewlyAdded}
	s.contexts[n] = c
	s.stats.Created++
	return c
}

// Lookup returns the context of n without creating one.
func (s *Store) Lookup(n *dom.Node) *Context { return s.contexts[n] }

func (s *Store) Len() int { return len(s.contexts) }

func (s *Store) Stats() Stats { return s.stats }

func (s *Store) ResetStats() { s.stats = Stats{} }

// Invalidate records a change to n. The context of n is upgraded to level,
// every ancestor is marked as having a changed subtree and loses its cached
// bbox, and nodes referencing n or one of its ancestors are made to
// recompute their children.
func (s *Store) Invalidate(n *dom.Node, level Level) {
	s.invalidate(n, level, make(map[*dom.Node]bool))
}

func (s *Store) invalidate(n *dom.Node, level Level, seen map[*dom.Node]bool) {
	if seen[n] {
		return
	}
	seen[n] = true

	c := s.contexts[n]
	if c != nil {
		c.Upgrade(level)
		c.BBoxValid = false
	}
	if p := n.Parent; p != nil {
		if pc := s.contexts[p]; pc != nil && (c == nil || c.parent != pc) {
			pc.Upgrade(StructureDirty)
		}
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if pc := s.contexts[p]; pc != nil {
			pc.subtreeChanged = true
			pc.BBoxValid = false
		}
	}

	for a := n; a != nil; a = a.Parent {
		for _, dep := range s.dependents[a] {
			if dc := s.contexts[dep]; dc != nil && dc.Shadow != nil {
				s.Forget(dc.Shadow)
				dc.Shadow = nil
			}
			s.invalidate(dep, StructureDirty, seen)
		}
	}
}

// AddDependency records that from references to. A later invalidation at or
// below to upgrades from to StructureDirty and drops its shadow tree.
func (s *Store) AddDependency(from, to *dom.Node) {
	to = to.Layouted()
	from = from.Layouted()
	for _, d := range s.dependents[to] {
		if d == from {
			return
		}
	}
	s.dependents[to] = append(s.dependents[to], from)
}

// Dependents returns the nodes recorded as referencing n.
func (s *Store) Dependents(n *dom.Node) []*dom.Node { return s.dependents[n.Layouted()] }

// Forget removes the contexts of n, its descendants and their shadow trees,
// detaching their render nodes.
func (s *Store) Forget(n *dom.Node) {
	n.Walk(func(d *dom.Node) bool {
		c := s.contexts[d]
		if c == nil {
			return true
		}
		if c.Shadow != nil {
			s.Forget(c.Shadow)
			c.Shadow = nil
		}
		c.unlink()
		for ch := c.first; ch != nil; {
			next := ch.next
			ch.parent, ch.prev, ch.next = nil, nil, nil
			ch = next
		}
		c.first, c.last = nil, nil
		c.DetachRender()
		delete(s.contexts, d)
		return true
	})
	delete(s.dependents, n)
	for to, deps := range s.dependents {
		for i, d := range deps {
			if d == n {
				s.dependents[to] = append(deps[:i], deps[i+1:]...)
				break
			}
		}
	}
}

// SelectChildren recomputes the child list of parent from children in
// order, keeping those accepted by eligible. At most limit children are
// kept when limit > 0. Children that were not in the previous list are
// upgraded to NewlyAdded; contexts that fall out of the list have their
// render node detached, and are forgotten once their node has left the
// document tree.
func (s *Store) SelectChildren(parent *Context, children []*dom.Node, eligible func(*dom.Node) bool, limit int) {
	s.stats.Recomputed++

	var selected []*Context
	keep := make(map[*Context]bool)
	for _, n := range children {
		if limit > 0 && len(selected) >= limit {
			break
		}
		if !eligible(n) {
			continue
		}
		c := s.Get(n)
		if c.parent != parent {
			c.Upgrade(NewlyAdded)
		}
		selected = append(selected, c)
		keep[c] = true
	}

	for c := parent.first; c != nil; {
		next := c.next
		if !keep[c] {
			c.unlink()
			c.DetachRender()
			s.stats.Dropped++
			if c.Node.Parent == nil && c.Node.Real == nil {
				s.Forget(c.Node)
			}
		}
		c = next
	}
	for _, c := range selected {
		c.unlink()
		parent.append(c)
	}
}
