package passes

import (
	"errors"
	"strconv"
	"strings"

	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/traverse"
)

// maxHrefChain bounds gradient href chains in addition to cycle detection.
const maxHrefChain = 16

// server resolves a fill or stroke value. A reference that cannot be
// resolved uses the fallback, or paints nothing.
func server(info *traverse.NodeInfo, p css.Paint) (*paint.Server, error) {
	switch p.Kind {
	case css.PaintColor:
		return paint.SolidColor(p.Color), nil
	case css.PaintServer:
		s, err := gradient(info, p.URL)
		if err != nil || s != nil {
			return s, err
		}
		if p.Fallback != nil {
			return server(info, *p.Fallback)
		}
	}
	return nil, nil
}

// gradient dereferences a gradient and the templates it inherits from
// through href. A cycle in the chain makes the reference invalid.
func gradient(info *traverse.NodeInfo, ref string) (*paint.Server, error) {
	target := info.Lookup(ref)
	if target == nil || !isGradient(target) {
		return nil, nil
	}
	t := info.Traversal()
	res := t.Resolver()

	var chain []*dom.Node
	defer func() {
		for i := len(chain) - 1; i >= 0; i-- {
			res.Leave(chain[i])
		}
	}()
	for n := target; n != nil && isGradient(n); n = info.Traversal().Lookup(n, n.Href()) {
		if err := res.Enter(n); err != nil {
			return nil, nil
		}
		chain = append(chain, n)
		t.Store().AddDependency(info.Real(), n)
		if len(chain) == maxHrefChain || n.Href() == "" {
			break
		}
	}

	attr := func(name string) (string, bool) {
		for _, n := range chain {
			if v, ok := n.GetAttribute(name); ok {
				return v, true
			}
		}
		return "", false
	}

	s := &paint.Server{Kind: paint.LinearGradient, GradientTransform: geom.Identity(), BoundingBoxUnits: true}
	if target.TagName == "radialGradient" {
		s.Kind = paint.RadialGradient
	}
	if v, _ := attr("gradientUnits"); v == "userSpaceOnUse" {
		s.BoundingBoxUnits = false
	}
	if v, ok := attr("gradientTransform"); ok {
		if m, err := geom.ParseTransform(v); err == nil {
			s.GradientTransform = m
		}
	}

	vp := info.Viewport
	coord := func(name string, def string, ref float64) float64 {
		v, ok := attr(name)
		if !ok {
			v = def
		}
		return gradientLength(v, ref, s.BoundingBoxUnits)
	}
	if s.Kind == paint.LinearGradient {
		s.X1 = coord("x1", "0%", vp.W)
		s.Y1 = coord("y1", "0%", vp.H)
		s.X2 = coord("x2", "100%", vp.W)
		s.Y2 = coord("y2", "0%", vp.H)
	} else {
		diag := vp.W
		if vp.H > diag {
			diag = vp.H
		}
		s.CX = coord("cx", "50%", vp.W)
		s.CY = coord("cy", "50%", vp.H)
		s.R = coord("r", "50%", diag)
		s.FX, s.FY = s.CX, s.CY
		if _, ok := attr("fx"); ok {
			s.FX = coord("fx", "", vp.W)
		}
		if _, ok := attr("fy"); ok {
			s.FY = coord("fy", "", vp.H)
		}
	}

	stops, err := gradientStops(t.Provider(), chain)
	if err != nil {
		return nil, err
	}
	switch len(stops) {
	case 0:
		return nil, nil
	case 1:
		return paint.SolidColor(stops[0].Color), nil
	}
	s.Stops = stops
	return s, nil
}

func isGradient(n *dom.Node) bool {
	return n.Is("linearGradient") || n.Is("radialGradient")
}

// gradientStops returns the stops of the first gradient in the chain that
// has any.
func gradientStops(styles css.Provider, chain []*dom.Node) ([]paint.Stop, error) {
	for _, g := range chain {
		var stops []paint.Stop
		last := 0.0
		for _, c := range g.Children {
			if !c.Is("stop") {
				continue
			}
			st, err := styles.Resolve(c, nil)
			if err != nil {
				if errors.Is(err, css.ErrOutOfMemory) {
					return nil, err
				}
				continue
			}
			off := stopOffset(c.Attr("offset"))
			if off < last {
				off = last
			}
			last = off
			stops = append(stops, paint.Stop{Offset: off, Color: st.StopColor()})
			styles.Release(st)
		}
		if len(stops) > 0 {
			return stops, nil
		}
	}
	return nil, nil
}

func stopOffset(v string) float64 {
	v = strings.TrimSpace(v)
	scale := 1.0
	if strings.HasSuffix(v, "%") {
		v, scale = strings.TrimSuffix(v, "%"), 0.01
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	f *= scale
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// gradientLength resolves a gradient coordinate. In bounding box units a
// percentage is a fraction of the box; in user space it is relative to ref.
func gradientLength(v string, ref float64, bbox bool) float64 {
	v = strings.TrimSpace(v)
	if strings.HasSuffix(v, "%") {
		f, err := strconv.ParseFloat(strings.TrimSuffix(v, "%"), 64)
		if err != nil {
			return 0
		}
		if bbox {
			return f / 100
		}
		return f / 100 * ref
	}
	f, _ := css.ParseLength(v)
	return f
}
