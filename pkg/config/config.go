// Package config loads svgtrav settings from TOML.
package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"svgtrav/pkg/css"
)

// Config mirrors the TOML file.
type Config struct {
	Viewport Viewport `toml:"viewport"`
	Traverse Traverse `toml:"traverse"`
	Text     Text     `toml:"text"`
	Document Document `toml:"document"`
	Render   Render   `toml:"render"`
	Log      Log      `toml:"log"`
}

// Viewport overrides the size of the canvas. Zero uses the document's size.
type Viewport struct {
	Width  float64 `toml:"width"`
	Height float64 `toml:"height"`
}

type Traverse struct {
	TimeSlice Duration `toml:"time_slice"`
	MaxDepth  int      `toml:"max_depth"`
	Trace     bool     `toml:"trace"`
}

type Text struct {
	FontFile     string  `toml:"font_file"`
	BoldFontFile string  `toml:"bold_font_file"`
	FontSize     float64 `toml:"font_size"`
}

type Document struct {
	// Languages answer systemLanguage tests.
	Languages []string `toml:"languages"`
	BaseURL   string   `toml:"base_url"`
}

type Render struct {
	// Background is a CSS color; "none" or "transparent" leave the canvas
	// transparent.
	Background string `toml:"background"`
}

type Log struct {
	Level string `toml:"level"`
}

// Duration is a time.Duration written as a Go duration string ("4ms").
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Traverse: Traverse{MaxDepth: 256},
		Document: Document{Languages: []string{"en"}},
		Render:   Render{Background: "white"},
		Log:      Log{Level: "info"},
	}
}

// Load reads the TOML file at path on top of the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes TOML data on top of the defaults. Unknown keys are errors.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return nil, fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values the decoder cannot.
func (c *Config) Validate() error {
	if c.Viewport.Width < 0 || c.Viewport.Height < 0 {
		return fmt.Errorf("viewport: negative size %vx%v", c.Viewport.Width, c.Viewport.Height)
	}
	if c.Traverse.TimeSlice.Duration < 0 {
		return fmt.Errorf("traverse.time_slice: negative duration %v", c.Traverse.TimeSlice)
	}
	if c.Traverse.MaxDepth < 0 {
		return fmt.Errorf("traverse.max_depth: must not be negative")
	}
	if c.Text.FontSize < 0 {
		return fmt.Errorf("text.font_size: must not be negative")
	}
	if _, _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// BackgroundColor parses Render.Background. ok is false for a transparent
// background.
func (c *Config) BackgroundColor() (color css.Color, ok bool, err error) {
	switch v := strings.ToLower(strings.TrimSpace(c.Render.Background)); v {
	case "", "none", "transparent":
		return css.Color{}, false, nil
	default:
		col, valid := css.ParseColor(v)
		if !valid {
			return css.Color{}, false, fmt.Errorf("render.background: invalid color %q", c.Render.Background)
		}
		return col, true, nil
	}
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	level, err := log.ParseLevel(c.Log.Level)
	if err != nil {
		return log.InfoLevel, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
