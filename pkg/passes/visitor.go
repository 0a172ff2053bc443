package passes

import (
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/traverse"
)

// Visitor calls Func for every entered node and changes nothing. Func may
// return the traversal signals.
type Visitor struct {
	traverse.BaseBehavior
	Func func(info *traverse.NodeInfo) error
}

func (v *Visitor) EnterContainer(info *traverse.NodeInfo) error { return v.Func(info) }
func (v *Visitor) EnterLeaf(info *traverse.NodeInfo) error      { return v.Func(info) }

// CTMCalculator records the transform from Target's user space to the
// pass root's parent space. Run it with a TreePath to Target.
type CTMCalculator struct {
	traverse.BaseBehavior
	Target *dom.Node

	ctm   geom.Matrix
	found bool
}

func (c *CTMCalculator) HandleContent(info *traverse.NodeInfo) error {
	if info.Node != c.Target {
		return nil
	}
	c.ctm, c.found = info.CTM(), true
	return traverse.SkipChildren
}

// CTM returns the computed matrix; ok is false when Target was not reached
// or is not rendered.
func (c *CTMCalculator) CTM() (m geom.Matrix, ok bool) { return c.ctm, c.found }

// ScreenCTM computes the CTM of target below root.
func ScreenCTM(root, target *dom.Node, opts traverse.Options) (geom.Matrix, bool, error) {
	calc := &CTMCalculator{Target: target}
	opts.Policy = traverse.TreePath{Path: pathFrom(root, target)}
	if err := traverse.Traverse(root, calc, opts); err != nil {
		return geom.Identity(), false, err
	}
	m, ok := calc.CTM()
	return m, ok, nil
}

// Within descends along the path from the pass root to Target and then
// visits Target's subtree in logical order. Inherited styles and
// viewports of the ancestors apply.
type Within struct {
	path traverse.TreePath
}

func NewWithin(root, target *dom.Node) Within {
	return Within{path: traverse.TreePath{Path: pathFrom(root, target)}}
}

func (w Within) inside(info *traverse.NodeInfo) bool {
	return info.Depth() >= len(w.path.Path)-1
}

func (w Within) First(info *traverse.NodeInfo) *elemctx.Context {
	if w.inside(info) {
		return traverse.LogicalTree{}.First(info)
	}
	return w.path.First(info)
}

func (w Within) Next(info *traverse.NodeInfo, child *elemctx.Context) *elemctx.Context {
	if w.inside(info) {
		return traverse.LogicalTree{}.Next(info, child)
	}
	return nil
}

// pathFrom returns the chain from root down to target, or just target when
// root is not an ancestor.
func pathFrom(root, target *dom.Node) []*dom.Node {
	path := target.Path()
	for i, n := range path {
		if n == root {
			return path[i:]
		}
	}
	return []*dom.Node{target}
}
