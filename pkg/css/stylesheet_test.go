package css

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParseStylesheetRules(t *testing.T) {
	sheet := ParseStylesheet(`
		rect { fill: red; }
		.shape { stroke: blue; stroke-width: 2 }
		#logo { opacity: 0.5 }
	`)
	if len(sheet.Rules) != 3 {
		t.Fatalf("expected 3 rules, got %d", len(sheet.Rules))
	}

	expected := []struct {
		selector string
		decls    map[string]string
	}{
		{"rect", map[string]string{"fill": "red"}},
		{".shape", map[string]string{"stroke": "blue", "stroke-width": "2"}},
		{"#logo", map[string]string{"opacity": "0.5"}},
	}
	for i, exp := range expected {
		r := sheet.Rules[i]
		if r.Selector.Raw != exp.selector {
			t.Errorf("rule %d: selector %q, want %q", i, r.Selector.Raw, exp.selector)
		}
		if diff := cmp.Diff(exp.decls, r.Declarations); diff != "" {
			t.Errorf("rule %d declarations (-want +got):\n%s", i, diff)
		}
		if r.Order != i {
			t.Errorf("rule %d: order %d", i, r.Order)
		}
	}
}

func TestSelectorListSplitsRules(t *testing.T) {
	sheet := ParseStylesheet(`rect, circle.dot { fill: lime }`)
	if len(sheet.Rules) != 2 {
		t.Fatalf("expected one rule per selector, got %d", len(sheet.Rules))
	}
	a, b := sheet.Rules[0], sheet.Rules[1]
	if a.Selector.Raw != "rect" || b.Selector.Raw != "circle.dot" {
		t.Errorf("selectors %q, %q", a.Selector.Raw, b.Selector.Raw)
	}
	if a.Declarations["fill"] != "lime" || b.Declarations["fill"] != "lime" {
		t.Error("expected both rules to carry the declarations")
	}
	if a.Order >= b.Order {
		t.Errorf("orders %d, %d are not in source order", a.Order, b.Order)
	}
}

func TestParseSelector(t *testing.T) {
	tests := []struct {
		raw         string
		parts       []SelectorPart
		combinators []Combinator
		specificity int
	}{
		{"rect", []SelectorPart{{Element: "rect"}}, nil, 1},
		{".shape", []SelectorPart{{Classes: []string{"shape"}}}, nil, 10},
		{"#logo", []SelectorPart{{ID: "logo"}}, nil, 100},
		{"*", []SelectorPart{{Element: "*"}}, nil, 0},
		{"rect.a.b#x", []SelectorPart{{Element: "rect", ID: "x", Classes: []string{"a", "b"}}}, nil, 121},
		{
			"g.layer > rect",
			[]SelectorPart{{Element: "g", Classes: []string{"layer"}}, {Element: "rect"}},
			[]Combinator{ChildCombinator},
			12,
		},
		{
			"svg g circle",
			[]SelectorPart{{Element: "svg"}, {Element: "g"}, {Element: "circle"}},
			[]Combinator{DescendantCombinator, DescendantCombinator},
			3,
		},
	}
	for _, tt := range tests {
		sel, ok := parseSelector(tt.raw)
		if !ok {
			t.Errorf("%q: not parsed", tt.raw)
			continue
		}
		if diff := cmp.Diff(tt.parts, sel.Parts); diff != "" {
			t.Errorf("%q parts (-want +got):\n%s", tt.raw, diff)
		}
		if diff := cmp.Diff(tt.combinators, sel.Combinators); diff != "" {
			t.Errorf("%q combinators (-want +got):\n%s", tt.raw, diff)
		}
		if sel.Specificity != tt.specificity {
			t.Errorf("%q: specificity %d, want %d", tt.raw, sel.Specificity, tt.specificity)
		}
	}
}

func TestParseSelectorList(t *testing.T) {
	sels, ok := ParseSelectorList("g > rect, #x")
	if !ok || len(sels) != 2 {
		t.Fatalf("expected 2 selectors, got %d (ok=%v)", len(sels), ok)
	}
	if _, ok := ParseSelectorList("rect, rect:hover"); ok {
		t.Error("expected a pseudo-class to fail the whole list")
	}
}
