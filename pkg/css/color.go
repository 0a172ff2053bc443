package css

import (
	"image/color"
	"strconv"
	"strings"
)

// Color is an sRGB color with straight alpha in [0,1].
type Color struct {
	R, G, B uint8
	A       float64
}

// NRGBA converts to a non-premultiplied image color, scaling alpha by opacity.
func (c Color) NRGBA(opacity float64) color.NRGBA {
	a := c.A * opacity
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: uint8(a*255 + 0.5)}
}

var namedColors = map[string]Color{
	"black":       {0, 0, 0, 1},
	"white":       {255, 255, 255, 1},
	"red":         {255, 0, 0, 1},
	"green":       {0, 128, 0, 1},
	"blue":        {0, 0, 255, 1},
	"yellow":      {255, 255, 0, 1},
	"cyan":        {0, 255, 255, 1},
	"aqua":        {0, 255, 255, 1},
	"magenta":     {255, 0, 255, 1},
	"fuchsia":     {255, 0, 255, 1},
	"gray":        {128, 128, 128, 1},
	"grey":        {128, 128, 128, 1},
	"silver":      {192, 192, 192, 1},
	"maroon":      {128, 0, 0, 1},
	"olive":       {128, 128, 0, 1},
	"lime":        {0, 255, 0, 1},
	"teal":        {0, 128, 128, 1},
	"navy":        {0, 0, 128, 1},
	"purple":      {128, 0, 128, 1},
	"orange":      {255, 165, 0, 1},
	"pink":        {255, 192, 203, 1},
	"brown":       {165, 42, 42, 1},
	"gold":        {255, 215, 0, 1},
	"indigo":      {75, 0, 130, 1},
	"violet":      {238, 130, 238, 1},
	"crimson":     {220, 20, 60, 1},
	"coral":       {255, 127, 80, 1},
	"salmon":      {250, 128, 114, 1},
	"khaki":       {240, 230, 140, 1},
	"tomato":      {255, 99, 71, 1},
	"orchid":      {218, 112, 214, 1},
	"steelblue":   {70, 130, 180, 1},
	"skyblue":     {135, 206, 235, 1},
	"darkgreen":   {0, 100, 0, 1},
	"darkblue":    {0, 0, 139, 1},
	"darkred":     {139, 0, 0, 1},
	"darkgray":    {169, 169, 169, 1},
	"lightgray":   {211, 211, 211, 1},
	"lightblue":   {173, 216, 230, 1},
	"lightgreen":  {144, 238, 144, 1},
	"transparent": {0, 0, 0, 0},
}

// ParseColor parses named colors, #rgb, #rrggbb, rgb() and rgba().
func ParseColor(s string) (Color, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb(") || strings.HasPrefix(s, "rgba(") {
		open := strings.IndexByte(s, '(')
		if !strings.HasSuffix(s, ")") {
			return Color{}, false
		}
		parts := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool { return r == ',' || r == ' ' || r == '/' })
		if len(parts) != 3 && len(parts) != 4 {
			return Color{}, false
		}
		var ch [3]uint8
		for i := 0; i < 3; i++ {
			v, ok := channel(parts[i])
			if !ok {
				return Color{}, false
			}
			ch[i] = v
		}
		a := 1.0
		if len(parts) == 4 {
			v, ok := alphaValue(parts[3])
			if !ok {
				return Color{}, false
			}
			a = v
		}
		return Color{ch[0], ch[1], ch[2], a}, true
	}
	return Color{}, false
}

func parseHex(h string) (Color, bool) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6:
	default:
		return Color{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return Color{}, false
	}
	return Color{uint8(v >> 16), uint8(v >> 8), uint8(v), 1}, true
}

func channel(s string) (uint8, bool) {
	if strings.HasSuffix(s, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, false
		}
		return clampByte(v * 255 / 100), true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return clampByte(v), true
}

func alphaValue(s string) (float64, bool) {
	pct := strings.HasSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		return 0, false
	}
	if pct {
		v /= 100
	}
	return clamp01(v), true
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
