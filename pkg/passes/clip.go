package passes

import (
	"errors"

	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/shape"
	"svgtrav/pkg/traverse"
)

// clipCollector gathers the outlines of a <clipPath> in the user space of
// the referencing element.
type clipCollector struct {
	traverse.BaseBehavior
	clip *paint.Clip
}

func (c *clipCollector) EnterContainer(info *traverse.NodeInfo) error {
	if info.Kind == elemctx.KindText {
		return traverse.SkipChildren
	}
	return nil
}

func (c *clipCollector) EnterLeaf(info *traverse.NodeInfo) error {
	if info.Kind != elemctx.KindGraphics {
		return traverse.SkipElement
	}
	style := info.MustStyle()
	if !style.Visible() {
		return nil
	}
	g := shape.Geometry(info.Node, info.ShapeContext())
	if g == nil {
		return nil
	}
	if len(c.clip.Paths) == 0 {
		c.clip.EvenOdd = style.ClipEvenOdd()
	}
	c.clip.Paths = append(c.clip.Paths, g.Transform(info.CTM()))
	return nil
}

// collectClip resolves the clip-path reference of info with a nested pass
// over the <clipPath>. A missing or recursive reference yields no clip; only
// allocation failures are returned.
func collectClip(info *traverse.NodeInfo, ref string) (*paint.Clip, error) {
	target := info.Lookup(ref)
	if target == nil || !target.Is("clipPath") {
		return nil, nil
	}
	if err := info.Follow(target); err != nil {
		return nil, nil
	}
	defer unfollow(info, target)

	t := info.Traversal()
	t.Store().AddDependency(info.Real(), target)
	opts := t.Options()
	col := &clipCollector{clip: &paint.Clip{}}
	err := traverse.Traverse(target, col, traverse.Options{
		Provider: t.Provider(),
		Store:    t.Store(),
		Env:      t.Env(),
		Policy:   traverse.LogicalTree{},
		Resolver: t.Resolver(),
		Viewport: info.Viewport,
		Lookup:   opts.Lookup,
		Logger:   opts.Logger,
	})
	if err != nil {
		if errors.Is(err, traverse.ErrOutOfMemory) {
			return nil, err
		}
		if l := t.Logger(); l != nil {
			l.Debug("clip path dropped", "ref", ref, "err", err)
		}
		return nil, nil
	}
	return col.clip, nil
}

// unfollow leaves target, logging a resolver that is out of balance.
func unfollow(info *traverse.NodeInfo, target *dom.Node) {
	if err := info.Unfollow(target); err != nil {
		if l := info.Traversal().Logger(); l != nil {
			l.Debug("resolver out of balance", "ref", target.ID(), "err", err)
		}
	}
}
