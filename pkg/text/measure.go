// Package text measures text runs for the render tree and the text
// measurement pass.
package text

import (
	"sync"
	"unicode/utf8"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
)

// FallbackSize is the pixel size of the built-in face.
const FallbackSize = 13

// FontConfig holds paths to font files used for text measurement and rendering.
// Empty paths select the built-in 7x13 face, scaled to the requested size.
type FontConfig struct {
	Regular string
	Bold    string
}

// FontPath returns the font path for the given weight.
func (fc FontConfig) FontPath(bold bool) string {
	if bold && fc.Bold != "" {
		return fc.Bold
	}
	return fc.Regular
}

// Metrics describes a measured run in user units.
type Metrics struct {
	Width    float64
	Ascent   float64
	Descent  float64
	Advances []float64 // one per rune
}

type faceKey struct {
	path string
	size float64
}

// Measurer loads and caches font faces. It is safe for concurrent use.
type Measurer struct {
	fonts FontConfig

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

func NewMeasurer(fc FontConfig) *Measurer {
	return &Measurer{fonts: fc, faces: make(map[faceKey]font.Face)}
}

var (
	defaultOnce     sync.Once
	defaultMeasurer *Measurer
)

// Default returns a measurer that only uses the built-in face.
func Default() *Measurer {
	defaultOnce.Do(func() { defaultMeasurer = NewMeasurer(FontConfig{}) })
	return defaultMeasurer
}

// Face returns a face for size and the factor from face units to user
// units. Fonts that fail to load fall back to the built-in face.
func (m *Measurer) Face(size float64, bold bool) (font.Face, float64) {
	path := m.fonts.FontPath(bold)
	if path == "" || size <= 0 {
		return basicfont.Face7x13, size / FallbackSize
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := faceKey{path, size}
	if f, ok := m.faces[key]; ok {
		if f == nil {
			return basicfont.Face7x13, size / FallbackSize
		}
		return f, 1
	}
	f, err := gg.LoadFontFace(path, size)
	if err != nil {
		m.faces[key] = nil
		return basicfont.Face7x13, size / FallbackSize
	}
	m.faces[key] = f
	return f, 1
}

// Fallback reports whether text of this weight is drawn with the built-in
// face.
func (m *Measurer) Fallback(size float64, bold bool) bool {
	f, _ := m.Face(size, bold)
	return f == basicfont.Face7x13
}

// Measure returns the metrics of s at size.
func (m *Measurer) Measure(s string, size float64, bold bool) Metrics {
	face, scale := m.Face(size, bold)
	fm := face.Metrics()
	out := Metrics{
		Ascent:   float64(fm.Ascent) / 64 * scale,
		Descent:  float64(fm.Descent) / 64 * scale,
		Advances: make([]float64, 0, utf8.RuneCountInString(s)),
	}
	prev := rune(-1)
	for _, r := range s {
		var adv float64
		if prev >= 0 {
			adv += float64(face.Kern(prev, r)) / 64 * scale
		}
		a, ok := face.GlyphAdvance(r)
		if !ok {
			a, _ = face.GlyphAdvance('?')
		}
		adv += float64(a) / 64 * scale
		out.Advances = append(out.Advances, adv)
		out.Width += adv
		prev = r
	}
	return out
}

// MeasureText measures the width and height of text with the given font size
// using the built-in face.
func MeasureText(s string, fontSize float64) (width, height float64) {
	mt := Default().Measure(s, fontSize, false)
	return mt.Width, mt.Ascent + mt.Descent
}
