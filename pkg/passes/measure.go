package passes

import (
	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/paint"
	"svgtrav/pkg/text"
	"svgtrav/pkg/traverse"
)

// TextMeasurer lays out the <text> elements of a pass and answers
// character queries about the result. Positions are in the user space of
// the text element.
type TextMeasurer struct {
	traverse.BaseBehavior
	Measurer *text.Measurer

	// Limit stops the pass once this many characters are laid out. Zero
	// means no limit.
	Limit int

	layout textLayout
	runs   []paint.Run
}

// full counts the finished text elements and the one being laid out.
func (m *TextMeasurer) full() bool {
	return m.Limit > 0 && m.NumberOfChars()+m.layout.chars() >= m.Limit
}

func (m *TextMeasurer) EnterContainer(info *traverse.NodeInfo) error {
	switch info.Kind {
	case elemctx.KindText:
		m.layout.measurer = m.Measurer
		m.layout.begin(info)
	case elemctx.KindTextSpan:
		m.layout.span(info)
	}
	return nil
}

func (m *TextMeasurer) EnterLeaf(info *traverse.NodeInfo) error {
	if info.Kind != elemctx.KindTextNode || info.TextRoot() == nil {
		return nil
	}
	m.layout.add(info)
	if m.full() {
		return traverse.SkipSubtree
	}
	return nil
}

func (m *TextMeasurer) Leave(info *traverse.NodeInfo) error {
	if info.Kind == elemctx.KindText && !info.Invisible {
		m.layout.anchor(info.MustStyle().TextAnchor())
		m.runs = append(m.runs, m.layout.runs...)
		m.layout.runs = nil
	}
	if m.full() {
		// carried up to the pass root, ending the pass
		return traverse.SkipSubtree
	}
	return nil
}

// Runs returns the laid out runs in document order.
func (m *TextMeasurer) Runs() []paint.Run { return m.runs }

func (m *TextMeasurer) NumberOfChars() int {
	n := 0
	for _, r := range m.runs {
		n += len(r.Advances)
	}
	return n
}

func (m *TextMeasurer) ComputedTextLength() float64 {
	var w float64
	for _, r := range m.runs {
		w += r.Width
	}
	return w
}

// ExtentOfChar returns the cell of the i-th character.
func (m *TextMeasurer) ExtentOfChar(i int) (geom.Rect, bool) {
	if i < 0 {
		return geom.Rect{}, false
	}
	for _, r := range m.runs {
		if i >= len(r.Advances) {
			i -= len(r.Advances)
			continue
		}
		x := r.X
		for _, adv := range r.Advances[:i] {
			x += adv
		}
		return geom.Rect{X: x, Y: r.Y - r.Ascent, W: r.Advances[i], H: r.Ascent + r.Descent}, true
	}
	return geom.Rect{}, false
}

// SelectionRects returns one rectangle per run covering the characters in
// [start, end).
func (m *TextMeasurer) SelectionRects(start, end int) []geom.Rect {
	var out []geom.Rect
	base := 0
	for _, r := range m.runs {
		n := len(r.Advances)
		lo, hi := max(start-base, 0), min(end-base, n)
		if lo < hi {
			x := r.X
			for _, adv := range r.Advances[:lo] {
				x += adv
			}
			var w float64
			for _, adv := range r.Advances[lo:hi] {
				w += adv
			}
			out = append(out, geom.Rect{X: x, Y: r.Y - r.Ascent, W: w, H: r.Ascent + r.Descent})
		}
		base += n
	}
	return out
}
