package css

import (
	"strconv"
	"strings"

	"svgtrav/pkg/dom"
)

// Style is a resolved set of property values for one node.
type Style struct {
	Properties map[string]string
}

func NewStyle() *Style {
	return &Style{Properties: make(map[string]string)}
}

func (s *Style) Get(property string) (string, bool) {
	val, ok := s.Properties[property]
	return val, ok
}

func (s *Style) Set(property, value string) {
	s.Properties[property] = value
}

func (s *Style) getNumber(property string, def float64) float64 {
	val, ok := s.Get(property)
	if !ok {
		return def
	}
	v, ok := ParseLength(val)
	if !ok {
		return def
	}
	return v
}

// ParseLength parses a length value (e.g., "100px" or "100")
func ParseLength(val string) (float64, bool) {
	val = strings.TrimSpace(val)
	val = strings.TrimSuffix(val, "px")
	num, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, false
	}
	return num, true
}

// PaintKind tells how a fill or stroke is painted.
type PaintKind int

const (
	PaintNone PaintKind = iota
	PaintColor
	PaintServer // url(#id) reference to a gradient
)

// Paint is a parsed fill or stroke value. For PaintServer, Fallback is used
// when the reference cannot be resolved.
type Paint struct {
	Kind     PaintKind
	Color    Color
	URL      string
	Fallback *Paint
}

// ParsePaint parses a <paint> value; currentColor resolves to color.
func ParsePaint(val string, current Color) Paint {
	val = strings.TrimSpace(val)
	switch val {
	case "", "none":
		return Paint{Kind: PaintNone}
	case "currentColor", "currentcolor":
		return Paint{Kind: PaintColor, Color: current}
	}
	if strings.HasPrefix(val, "url(") {
		end := strings.IndexByte(val, ')')
		if end < 0 {
			return Paint{Kind: PaintNone}
		}
		p := Paint{Kind: PaintServer, URL: val[:end+1]}
		if rest := strings.TrimSpace(val[end+1:]); rest != "" {
			fb := ParsePaint(rest, current)
			p.Fallback = &fb
		}
		return p
	}
	if c, ok := ParseColor(val); ok {
		return Paint{Kind: PaintColor, Color: c}
	}
	return Paint{Kind: PaintNone}
}

func (s *Style) currentColor() Color {
	if v, ok := s.Get("color"); ok {
		if c, ok := ParseColor(v); ok {
			return c
		}
	}
	return Color{A: 1}
}

// Fill returns the fill paint (default black).
func (s *Style) Fill() Paint {
	v, ok := s.Get("fill")
	if !ok {
		return Paint{Kind: PaintColor, Color: Color{A: 1}}
	}
	return ParsePaint(v, s.currentColor())
}

// Stroke returns the stroke paint (default none).
func (s *Style) Stroke() Paint {
	return ParsePaint(s.Properties["stroke"], s.currentColor())
}

func (s *Style) StrokeWidth() float64 { return s.getNumber("stroke-width", 1) }

func (s *Style) Opacity() float64       { return clamp01(s.getNumber("opacity", 1)) }
func (s *Style) FillOpacity() float64   { return clamp01(s.getNumber("fill-opacity", 1)) }
func (s *Style) StrokeOpacity() float64 { return clamp01(s.getNumber("stroke-opacity", 1)) }

// EvenOdd reports whether fill-rule is evenodd.
func (s *Style) EvenOdd() bool { return s.Properties["fill-rule"] == "evenodd" }

// ClipEvenOdd reports whether clip-rule is evenodd.
func (s *Style) ClipEvenOdd() bool { return s.Properties["clip-rule"] == "evenodd" }

// Display returns the display value; an element with display none is not rendered.
func (s *Style) Display() string {
	if v, ok := s.Get("display"); ok {
		return v
	}
	return "inline"
}

// Visible reports whether visibility allows painting.
func (s *Style) Visible() bool {
	v := s.Properties["visibility"]
	return v != "hidden" && v != "collapse"
}

// FontSize returns the font-size in user units (default: 16).
func (s *Style) FontSize() float64 {
	if size, ok := s.Get("font-size"); ok {
		if v, ok := ParseLength(size); ok && v > 0 {
			return v
		}
	}
	return 16.0
}

// FontFamily returns the font-family list as written.
func (s *Style) FontFamily() string { return s.Properties["font-family"] }

// Bold reports whether font-weight is bold or 600 and above.
func (s *Style) Bold() bool {
	switch w := s.Properties["font-weight"]; w {
	case "bold", "bolder":
		return true
	default:
		n, err := strconv.Atoi(w)
		return err == nil && n >= 600
	}
}

// TextAnchor returns start, middle or end.
func (s *Style) TextAnchor() string {
	switch v := s.Properties["text-anchor"]; v {
	case "middle", "end":
		return v
	}
	return "start"
}

// ClipPath returns the clip-path reference, or "" for none.
func (s *Style) ClipPath() string {
	v := strings.TrimSpace(s.Properties["clip-path"])
	if v == "none" {
		return ""
	}
	return v
}

// PointerEvents returns the pointer-events value (default visiblePainted).
func (s *Style) PointerEvents() string {
	if v, ok := s.Get("pointer-events"); ok {
		return v
	}
	return "visiblePainted"
}

// StopColor returns the color of a gradient stop, with stop-opacity applied.
func (s *Style) StopColor() Color {
	c := Color{A: 1}
	if v, ok := s.Get("stop-color"); ok {
		if parsed, ok := ParseColor(v); ok {
			c = parsed
		} else if v == "currentColor" {
			c = s.currentColor()
		}
	}
	c.A *= clamp01(s.getNumber("stop-opacity", 1))
	return c
}

// ParseInlineStyle parses the declarations of a style attribute.
func ParseInlineStyle(styleAttr string) *Style {
	style := NewStyle()
	for property, value := range parseDeclarations(styleAttr) {
		style.Set(property, value)
	}
	return style
}

// presentationAttributes are element attributes that map to properties of
// the same name, at lower priority than any stylesheet rule.
var presentationAttributes = []string{
	"fill", "fill-opacity", "fill-rule", "stroke", "stroke-width", "stroke-opacity",
	"opacity", "display", "visibility", "color", "font-size", "font-family",
	"font-weight", "font-style", "text-anchor", "clip-path", "clip-rule",
	"pointer-events", "stop-color", "stop-opacity",
}

var inherited = map[string]bool{
	"fill": true, "fill-opacity": true, "fill-rule": true, "stroke": true,
	"stroke-width": true, "stroke-opacity": true, "visibility": true, "color": true,
	"font-size": true, "font-family": true, "font-weight": true, "font-style": true,
	"text-anchor": true, "clip-rule": true, "pointer-events": true,
}

// IsInherited reports whether a property inherits by default.
func IsInherited(property string) bool { return inherited[property] }

// isElement reports whether n takes part in selector matching.
func isElement(n *dom.Node) bool { return n != nil && n.Type == dom.ElementNode }
