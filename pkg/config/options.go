package config

import (
	"github.com/charmbracelet/log"

	"svgtrav/pkg/elemctx"
	"svgtrav/pkg/geom"
	"svgtrav/pkg/raster"
	"svgtrav/pkg/svgdoc"
	"svgtrav/pkg/text"
)

// DocumentOptions translates the settings into options for svgdoc.
func (c *Config) DocumentOptions(logger *log.Logger) svgdoc.Options {
	opts := svgdoc.Options{
		Viewport:  geom.Rect{W: c.Viewport.Width, H: c.Viewport.Height},
		FontSize:  c.Text.FontSize,
		BaseURL:   c.Document.BaseURL,
		TimeSlice: c.Traverse.TimeSlice.Duration,
		MaxDepth:  c.Traverse.MaxDepth,
		Logger:    logger,
		Trace:     c.Traverse.Trace,
	}
	if c.Text.FontFile != "" || c.Text.BoldFontFile != "" {
		opts.Measurer = text.NewMeasurer(text.FontConfig{Regular: c.Text.FontFile, Bold: c.Text.BoldFontFile})
	}
	if len(c.Document.Languages) > 0 {
		env := elemctx.DefaultEnvironment()
		env.Languages = append([]string(nil), c.Document.Languages...)
		opts.Env = env
	}
	return opts
}

// NewRenderer returns a renderer of the given size painting onto the
// configured background. The measurer should be the document's so text
// is drawn with the faces it was laid out with.
func (c *Config) NewRenderer(width, height int, m *text.Measurer) *raster.Renderer {
	r := raster.NewRenderer(width, height)
	if m != nil {
		r.Measurer = m
	}
	// Validate has already rejected a bad color.
	if col, ok, err := c.BackgroundColor(); err == nil {
		if ok {
			r.Background = col.NRGBA(1)
		} else {
			r.Background = nil
		}
	}
	return r
}
