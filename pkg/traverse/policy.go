package traverse

import (
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
)

// ChildPolicy decides which children of a frame are visited and in what
// order. First is called once per frame, after the Enter hooks.
type ChildPolicy interface {
	First(info *NodeInfo) *elemctx.Context
	Next(info *NodeInfo, child *elemctx.Context) *elemctx.Context
}

// RenderingTree visits the cached child context list, recomputing it when
// the frame is at least structure-dirty. Recomputing detaches the render
// nodes of dropped children, so on a dirty tree only the builder may run
// with it; other passes run after a layout or use LogicalTree.
type RenderingTree struct{}

func (RenderingTree) First(info *NodeInfo) *elemctx.Context {
	if info.Level >= elemctx.StructureDirty {
		t := info.t
		limit := 0
		if info.Kind == elemctx.KindSwitch {
			limit = 1
		}
		t.store.SelectChildren(info.Ctx, info.ChildNodes(), t.env.Predicate(info.Kind, info.InText()), limit)
	}
	return info.Ctx.FirstChild()
}

func (RenderingTree) Next(_ *NodeInfo, child *elemctx.Context) *elemctx.Context {
	return child.Next()
}

// LogicalTree visits children in document order, evaluating eligibility on
// the fly. It never touches the cached child lists.
type LogicalTree struct{}

func (LogicalTree) First(info *NodeInfo) *elemctx.Context {
	return logicalFrom(info, info.ChildNodes(), 0)
}

func (LogicalTree) Next(info *NodeInfo, child *elemctx.Context) *elemctx.Context {
	if info.Kind == elemctx.KindSwitch {
		return nil
	}
	nodes := info.ChildNodes()
	for i, n := range nodes {
		if n == child.Node {
			return logicalFrom(info, nodes, i+1)
		}
	}
	return nil
}

func logicalFrom(info *NodeInfo, nodes []*dom.Node, start int) *elemctx.Context {
	t := info.t
	eligible := t.env.Predicate(info.Kind, info.InText())
	for _, n := range nodes[start:] {
		if eligible(n) {
			return t.store.Get(n)
		}
	}
	return nil
}

// TreePath visits only the nodes of Path, which runs from the pass root
// down to a target.
type TreePath struct {
	Path []*dom.Node
}

func (p TreePath) First(info *NodeInfo) *elemctx.Context {
	next := info.depth + 1
	if next >= len(p.Path) || p.Path[info.depth] != info.Node {
		return nil
	}
	return info.t.store.Get(p.Path[next])
}

func (TreePath) Next(*NodeInfo, *elemctx.Context) *elemctx.Context { return nil }
