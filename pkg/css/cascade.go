package css

import (
	"errors"
	"sort"
	"strconv"
	"strings"

	"svgtrav/pkg/dom"
)

// ErrOutOfMemory is returned by Resolve when the style budget is exhausted.
var ErrOutOfMemory = errors.New("css: out of memory")

// Provider resolves the style of a node from its parent's resolved style.
// Every style returned by Resolve must eventually be handed to Release.
type Provider interface {
	Resolve(node *dom.Node, parent *Style) (*Style, error)
	Release(s *Style)
}

// Cascade is the default Provider. Presentation attributes come first, then
// stylesheet rules in specificity order, then the inline style attribute.
// Properties not set on the node are inherited from the parent style when
// they inherit by default.
type Cascade struct {
	Sheets []*Stylesheet

	// Limit caps the number of unreleased styles; zero means unlimited.
	Limit int

	// Defaults supplies inherited properties to the root element, such as
	// a user-chosen font-size.
	Defaults *Style

	live int
	free []*Style
}

// NewCascade creates a provider for the given stylesheet sources.
func NewCascade(sources ...string) *Cascade {
	c := &Cascade{}
	for _, src := range sources {
		c.Sheets = append(c.Sheets, ParseStylesheet(src))
	}
	return c
}

// FromDocument creates a provider for the <style> content of doc.
func FromDocument(doc *dom.Document) *Cascade {
	return NewCascade(doc.Stylesheets...)
}

// Live reports how many resolved styles have not been released.
func (c *Cascade) Live() int { return c.live }

func (c *Cascade) alloc() (*Style, error) {
	if c.Limit > 0 && c.live >= c.Limit {
		return nil, ErrOutOfMemory
	}
	c.live++
	if n := len(c.free); n > 0 {
		s := c.free[n-1]
		c.free = c.free[:n-1]
		return s, nil
	}
	return NewStyle(), nil
}

// Release returns s to the pool. Releasing nil is a no-op.
func (c *Cascade) Release(s *Style) {
	if s == nil {
		return
	}
	clear(s.Properties)
	c.live--
	c.free = append(c.free, s)
}

// Resolve computes the style of node. Shadow clones are matched against the
// element they were cloned from. A nil parent means initial values.
func (c *Cascade) Resolve(node *dom.Node, parent *Style) (*Style, error) {
	style, err := c.alloc()
	if err != nil {
		return nil, err
	}
	if parent == nil {
		parent = c.Defaults
	}
	if parent != nil {
		for k, v := range parent.Properties {
			if inherited[k] {
				style.Set(k, v)
			}
		}
	}
	if node.Type != dom.ElementNode {
		return style, nil
	}

	src := node.Layouted()
	own := make(map[string]string)
	for _, attr := range presentationAttributes {
		if v, ok := src.GetAttribute(attr); ok {
			own[attr] = strings.TrimSpace(v)
		}
	}

	var matched []Rule
	for _, sheet := range c.Sheets {
		matched = append(matched, FindMatchingRules(src, sheet)...)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		if matched[i].Selector.Specificity != matched[j].Selector.Specificity {
			return matched[i].Selector.Specificity < matched[j].Selector.Specificity
		}
		return matched[i].Order < matched[j].Order
	})
	for _, rule := range matched {
		for k, v := range rule.Declarations {
			own[k] = v
		}
	}
	if attr, ok := src.GetAttribute("style"); ok {
		for k, v := range parseDeclarations(attr) {
			own[k] = v
		}
	}

	for k, v := range own {
		if v == "inherit" {
			if parent != nil {
				if pv, ok := parent.Get(k); ok {
					style.Set(k, pv)
					continue
				}
			}
			delete(style.Properties, k)
			continue
		}
		style.Set(k, v)
	}
	resolveFontSize(style, parent, own["font-size"])
	return style, nil
}

// resolveFontSize turns relative font sizes into user units so descendants
// inherit an absolute value.
func resolveFontSize(style, parent *Style, specified string) {
	if specified == "" || specified == "inherit" {
		return
	}
	base := 16.0
	if parent != nil {
		base = parent.FontSize()
	}
	var size float64
	switch {
	case strings.HasSuffix(specified, "em"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(specified, "em"), 64)
		if err != nil {
			return
		}
		size = v * base
	case strings.HasSuffix(specified, "%"):
		v, err := strconv.ParseFloat(strings.TrimSuffix(specified, "%"), 64)
		if err != nil {
			return
		}
		size = v / 100 * base
	default:
		return
	}
	style.Set("font-size", strconv.FormatFloat(size, 'f', -1, 64))
}
