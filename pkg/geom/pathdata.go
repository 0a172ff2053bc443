package geom

import "fmt"

// ParsePathData parses the d attribute of <path>. On a syntax error the path
// parsed so far is returned together with the error, matching the SVG rule
// that rendering stops at the first bad command.
func ParsePathData(d string) (*Path, error) {
	p := &Path{}
	sc := numberScanner{s: d}
	var cmd byte
	var cur, start, ctrl Point // current point, subpath start, last control point
	var lastCmd byte

	num := func(n int) ([]float64, bool) {
		out := make([]float64, n)
		for i := range out {
			v, ok := sc.next()
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	}
	flag := func() (bool, bool) {
		sc.skipSeparators()
		if sc.pos < len(sc.s) && (sc.s[sc.pos] == '0' || sc.s[sc.pos] == '1') {
			f := sc.s[sc.pos] == '1'
			sc.pos++
			return f, true
		}
		return false, false
	}

	for !sc.done() {
		c := sc.s[sc.pos]
		if isCommand(c) {
			cmd = c
			sc.pos++
		} else if cmd == 0 {
			return p, fmt.Errorf("path data: expected command at %d", sc.pos)
		}

		rel := cmd >= 'a'
		off := func(x, y float64) (float64, float64) {
			if rel {
				return cur.X + x, cur.Y + y
			}
			return x, y
		}

		switch cmd | 0x20 {
		case 'z':
			p.Close()
			cur, ctrl = start, start
			lastCmd, cmd = 'z', 0
			continue
		case 'm':
			a, ok := num(2)
			if !ok {
				return p, errAt(sc.pos)
			}
			x, y := off(a[0], a[1])
			p.MoveTo(x, y)
			start, ctrl = Point{x, y}, Point{x, y}
			// subsequent pairs are implicit lineto commands
			if rel {
				cmd = 'l'
			} else {
				cmd = 'L'
			}
		case 'l':
			a, ok := num(2)
			if !ok {
				return p, errAt(sc.pos)
			}
			x, y := off(a[0], a[1])
			p.LineTo(x, y)
			ctrl = Point{x, y}
		case 'h':
			a, ok := num(1)
			if !ok {
				return p, errAt(sc.pos)
			}
			x := a[0]
			if rel {
				x += cur.X
			}
			p.LineTo(x, cur.Y)
			ctrl = Point{x, cur.Y}
		case 'v':
			a, ok := num(1)
			if !ok {
				return p, errAt(sc.pos)
			}
			y := a[0]
			if rel {
				y += cur.Y
			}
			p.LineTo(cur.X, y)
			ctrl = Point{cur.X, y}
		case 'c':
			a, ok := num(6)
			if !ok {
				return p, errAt(sc.pos)
			}
			x1, y1 := off(a[0], a[1])
			x2, y2 := off(a[2], a[3])
			x, y := off(a[4], a[5])
			p.CubicTo(x1, y1, x2, y2, x, y)
			ctrl = Point{x2, y2}
		case 's':
			a, ok := num(4)
			if !ok {
				return p, errAt(sc.pos)
			}
			x1, y1 := cur.X, cur.Y
			if l := lastCmd | 0x20; l == 'c' || l == 's' {
				x1, y1 = 2*cur.X-ctrl.X, 2*cur.Y-ctrl.Y
			}
			x2, y2 := off(a[0], a[1])
			x, y := off(a[2], a[3])
			p.CubicTo(x1, y1, x2, y2, x, y)
			ctrl = Point{x2, y2}
		case 'q':
			a, ok := num(4)
			if !ok {
				return p, errAt(sc.pos)
			}
			x1, y1 := off(a[0], a[1])
			x, y := off(a[2], a[3])
			p.QuadTo(x1, y1, x, y)
			ctrl = Point{x1, y1}
		case 't':
			a, ok := num(2)
			if !ok {
				return p, errAt(sc.pos)
			}
			x1, y1 := cur.X, cur.Y
			if l := lastCmd | 0x20; l == 'q' || l == 't' {
				x1, y1 = 2*cur.X-ctrl.X, 2*cur.Y-ctrl.Y
			}
			x, y := off(a[0], a[1])
			p.QuadTo(x1, y1, x, y)
			ctrl = Point{x1, y1}
		case 'a':
			// rx ry rotation large-arc sweep x y; drawn as a chord
			if _, ok := num(3); !ok {
				return p, errAt(sc.pos)
			}
			if _, ok := flag(); !ok {
				return p, errAt(sc.pos)
			}
			if _, ok := flag(); !ok {
				return p, errAt(sc.pos)
			}
			a, ok := num(2)
			if !ok {
				return p, errAt(sc.pos)
			}
			x, y := off(a[0], a[1])
			p.LineTo(x, y)
			ctrl = Point{x, y}
		}
		cur = p.Last()
		lastCmd = cmd
	}
	return p, nil
}

func isCommand(c byte) bool {
	switch c | 0x20 {
	case 'm', 'l', 'h', 'v', 'c', 's', 'q', 't', 'a', 'z':
		return true
	}
	return false
}

func errAt(pos int) error {
	return fmt.Errorf("path data: bad argument at %d", pos)
}
