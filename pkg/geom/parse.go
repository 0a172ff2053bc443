package geom

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNumbers reads a whitespace/comma separated list of numbers in the SVG
// grammar ("1,2 3-4.5.5e1" is 1 2 3 -4.5 5). Parsing stops at the first
// malformed token and returns what was read so far.
func ParseNumbers(s string) []float64 {
	var out []float64
	sc := numberScanner{s: s}
	for {
		v, ok := sc.next()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

type numberScanner struct {
	s   string
	pos int
}

func (sc *numberScanner) skipSeparators() {
	for sc.pos < len(sc.s) {
		switch sc.s[sc.pos] {
		case ' ', '\t', '\n', '\r', ',':
			sc.pos++
		default:
			return
		}
	}
}

func (sc *numberScanner) done() bool {
	sc.skipSeparators()
	return sc.pos >= len(sc.s)
}

// next scans one number. It does not consume anything on failure.
func (sc *numberScanner) next() (float64, bool) {
	sc.skipSeparators()
	start := sc.pos
	i := start
	if i < len(sc.s) && (sc.s[i] == '+' || sc.s[i] == '-') {
		i++
	}
	digits, dot := 0, false
	for i < len(sc.s) {
		c := sc.s[i]
		if c >= '0' && c <= '9' {
			digits++
			i++
			continue
		}
		if c == '.' && !dot {
			dot = true
			i++
			continue
		}
		break
	}
	if digits == 0 {
		return 0, false
	}
	if i < len(sc.s) && (sc.s[i] == 'e' || sc.s[i] == 'E') {
		j := i + 1
		if j < len(sc.s) && (sc.s[j] == '+' || sc.s[j] == '-') {
			j++
		}
		k := j
		for k < len(sc.s) && sc.s[k] >= '0' && sc.s[k] <= '9' {
			k++
		}
		if k > j {
			i = k
		}
	}
	v, err := strconv.ParseFloat(sc.s[start:i], 64)
	if err != nil {
		return 0, false
	}
	sc.pos = i
	return v, true
}

// ParseTransform parses an SVG transform list. An empty string yields the
// identity; a malformed list is an error.
func ParseTransform(s string) (Matrix, error) {
	m := Identity()
	rest := strings.TrimSpace(s)
	for rest != "" {
		open := strings.IndexByte(rest, '(')
		close := strings.IndexByte(rest, ')')
		if open < 0 || close < open {
			return Identity(), fmt.Errorf("transform %q: missing parenthesis", s)
		}
		name := strings.TrimSpace(rest[:open])
		args := ParseNumbers(rest[open+1 : close])
		t, err := transformFunc(name, args)
		if err != nil {
			return Identity(), fmt.Errorf("transform %q: %w", s, err)
		}
		m = m.Multiply(t)
		rest = strings.TrimLeft(rest[close+1:], " \t\r\n,")
	}
	return m, nil
}

func transformFunc(name string, a []float64) (Matrix, error) {
	argc := func(valid ...int) error {
		for _, n := range valid {
			if len(a) == n {
				return nil
			}
		}
		return fmt.Errorf("%s: unexpected %d arguments", name, len(a))
	}
	switch name {
	case "matrix":
		if err := argc(6); err != nil {
			return Matrix{}, err
		}
		return Matrix{a[0], a[1], a[2], a[3], a[4], a[5]}, nil
	case "translate":
		if err := argc(1, 2); err != nil {
			return Matrix{}, err
		}
		if len(a) == 1 {
			return Translate(a[0], 0), nil
		}
		return Translate(a[0], a[1]), nil
	case "scale":
		if err := argc(1, 2); err != nil {
			return Matrix{}, err
		}
		if len(a) == 1 {
			return Scale(a[0], a[0]), nil
		}
		return Scale(a[0], a[1]), nil
	case "rotate":
		if err := argc(1, 3); err != nil {
			return Matrix{}, err
		}
		if len(a) == 1 {
			return Rotate(a[0]), nil
		}
		return Translate(a[1], a[2]).Multiply(Rotate(a[0])).Multiply(Translate(-a[1], -a[2])), nil
	case "skewX":
		if err := argc(1); err != nil {
			return Matrix{}, err
		}
		return SkewX(a[0]), nil
	case "skewY":
		if err := argc(1); err != nil {
			return Matrix{}, err
		}
		return SkewY(a[0]), nil
	}
	return Matrix{}, fmt.Errorf("unknown function %q", name)
}
