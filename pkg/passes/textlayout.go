package passes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"svgtrav/pkg/paint"
	"svgtrav/pkg/text"
	"svgtrav/pkg/traverse"
)

// textLayout places the character data of one <text> element on a single
// line. Absolute x/y on <text> and <tspan> move the pen; dx/dy shift it.
// Only the first value of a coordinate list is used.
type textLayout struct {
	measurer *text.Measurer

	startX, x, y float64
	runs         []paint.Run
	lastSpace    bool
}

func (l *textLayout) begin(info *traverse.NodeInfo) {
	sc := info.ShapeContext()
	n := info.Node
	l.x = sc.X(n, "x", 0) + sc.X(n, "dx", 0)
	l.y = sc.Y(n, "y", 0) + sc.Y(n, "dy", 0)
	l.startX = l.x
	l.runs = nil
	l.lastSpace = true
}

func (l *textLayout) span(info *traverse.NodeInfo) {
	sc := info.ShapeContext()
	n := info.Node
	if _, ok := n.GetAttribute("x"); ok {
		l.x = sc.X(n, "x", l.x)
	}
	if _, ok := n.GetAttribute("y"); ok {
		l.y = sc.Y(n, "y", l.y)
	}
	l.x += sc.X(n, "dx", 0)
	l.y += sc.Y(n, "dy", 0)
}

// add lays out the text node of info and returns the index of its run, or
// -1 when nothing remains after whitespace collapsing.
func (l *textLayout) add(info *traverse.NodeInfo) int {
	s := l.collapse(info.Node.Text)
	if s == "" {
		return -1
	}
	style := info.MustStyle()
	m := l.measurer
	if m == nil {
		m = text.Default()
	}
	size, bold := style.FontSize(), style.Bold()
	mt := m.Measure(s, size, bold)
	l.runs = append(l.runs, paint.Run{
		Text:     s,
		X:        l.x,
		Y:        l.y,
		Size:     size,
		Bold:     bold,
		Family:   style.FontFamily(),
		Ascent:   mt.Ascent,
		Descent:  mt.Descent,
		Advances: mt.Advances,
		Width:    mt.Width,
	})
	l.x += mt.Width
	return len(l.runs) - 1
}

// collapse turns every whitespace sequence into one space and drops a space
// that would follow another one across node boundaries.
func (l *textLayout) collapse(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if unicode.IsSpace(r) {
			if l.lastSpace {
				continue
			}
			l.lastSpace = true
			sb.WriteByte(' ')
			continue
		}
		l.lastSpace = false
		sb.WriteRune(r)
	}
	return sb.String()
}

// anchor shifts the runs for text-anchor and returns the shift.
func (l *textLayout) anchor(value string) float64 {
	l.trimTrailingSpace()
	w := l.x - l.startX
	var dx float64
	switch value {
	case "middle":
		dx = -w / 2
	case "end":
		dx = -w
	}
	for i := range l.runs {
		l.runs[i].X += dx
	}
	return dx
}

func (l *textLayout) trimTrailingSpace() {
	n := len(l.runs)
	if n == 0 {
		return
	}
	last := &l.runs[n-1]
	if !strings.HasSuffix(last.Text, " ") {
		return
	}
	adv := last.Advances[len(last.Advances)-1]
	last.Text = last.Text[:len(last.Text)-1]
	last.Advances = last.Advances[:len(last.Advances)-1]
	last.Width -= adv
	l.x -= adv
	if last.Text == "" {
		l.runs = l.runs[:n-1]
	}
}

// chars counts the runes laid out so far.
func (l *textLayout) chars() int {
	n := 0
	for _, r := range l.runs {
		n += utf8.RuneCountInString(r.Text)
	}
	return n
}
