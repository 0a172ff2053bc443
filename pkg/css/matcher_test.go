package css

import (
	"testing"

	"svgtrav/pkg/dom"
)

func element(tag string, attrs map[string]string) *dom.Node {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &dom.Node{Type: dom.ElementNode, Space: dom.SVGNamespace, TagName: tag, Attributes: attrs}
}

func mustSelector(t *testing.T, raw string) Selector {
	t.Helper()
	sel, ok := parseSelector(raw)
	if !ok {
		t.Fatalf("selector %q did not parse", raw)
	}
	return sel
}

func TestMatchesSelectorParts(t *testing.T) {
	node := element("rect", map[string]string{"class": "shape highlight", "id": "r1"})
	tests := []struct {
		selector string
		want     bool
	}{
		{"rect", true},
		{"circle", false},
		{"*", true},
		{".highlight", true},
		{".shape.highlight", true},
		{".other", false},
		{"#r1", true},
		{"#r2", false},
		{"rect#r1.shape", true},
		{"circle#r1", false},
	}
	for _, tt := range tests {
		if got := MatchesSelector(node, mustSelector(t, tt.selector)); got != tt.want {
			t.Errorf("MatchesSelector(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestMatchesSelectorCombinators(t *testing.T) {
	svg := element("svg", nil)
	layer := element("g", map[string]string{"class": "layer"})
	inner := element("g", nil)
	rect := element("rect", nil)
	svg.AddChild(layer)
	layer.AddChild(inner)
	inner.AddChild(rect)

	tests := []struct {
		selector string
		want     bool
	}{
		{"svg rect", true},
		{".layer rect", true},
		{".layer > rect", false},
		{".layer > g > rect", true},
		{"svg > g rect", true},
		{"circle rect", false},
	}
	for _, tt := range tests {
		if got := MatchesSelector(rect, mustSelector(t, tt.selector)); got != tt.want {
			t.Errorf("MatchesSelector(%q) = %v, want %v", tt.selector, got, tt.want)
		}
	}
}

func TestFindMatchingRules(t *testing.T) {
	sheet := ParseStylesheet(`
		rect { fill: red; }
		.highlight { stroke: yellow; }
		#header { opacity: 0.5; }
		circle { fill: blue; }
	`)
	node := element("rect", map[string]string{"class": "highlight", "id": "header"})

	matches := FindMatchingRules(node, sheet)
	if len(matches) != 3 {
		t.Fatalf("expected 3 matching rules, got %d", len(matches))
	}
	for _, r := range matches {
		if r.Selector.Raw == "circle" {
			t.Error("circle rule should not match")
		}
	}
}

func TestMatchesSelector_NoMatchTextNode(t *testing.T) {
	node := &dom.Node{Type: dom.TextNode, Text: "Hello"}
	if MatchesSelector(node, mustSelector(t, "*")) {
		t.Error("text nodes should not match selectors")
	}
}
