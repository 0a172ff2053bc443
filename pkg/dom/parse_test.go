package dom

import "testing"

func TestParseNamespaces(t *testing.T) {
	doc, err := ParseString(`<svg xmlns="http://www.w3.org/2000/svg" xmlns:xlink="http://www.w3.org/1999/xlink" xmlns:x="urn:other">
  <rect id="r" width="10" height="10"/>
  <x:widget/>
  <use xlink:href="#r"/>
</svg>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	root := doc.Root
	if !root.Is("svg") {
		t.Fatalf("expected svg root, got %s in %s", root.TagName, root.Space)
	}
	if len(root.Children) != 3 {
		t.Fatalf("expected whitespace to be dropped, got %d children", len(root.Children))
	}
	if root.Children[1].IsSVG() || root.Children[1].Space != "urn:other" {
		t.Errorf("expected widget in urn:other, got %q", root.Children[1].Space)
	}
	use := root.Children[2]
	if use.Href() != "#r" {
		t.Errorf("expected xlink:href to be readable through Href, got %q", use.Href())
	}
	if doc.FindByReference(use, use.Href()) != root.Children[0] {
		t.Error("expected use to resolve to rect")
	}
}

func TestParseWithoutNamespace(t *testing.T) {
	doc, err := ParseString(`<svg><g><circle r="4"/></g></svg>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !doc.Root.Children[0].Children[0].Is("circle") {
		t.Error("expected circle in the SVG namespace")
	}
}

func TestParseTextAndStyle(t *testing.T) {
	doc, err := ParseString(`<svg>
<style>rect { fill: red }</style>
<script>var x = 1;</script>
<text x="5"> Hello <tspan>world</tspan></text>
</svg>`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(doc.Stylesheets) != 1 || doc.Stylesheets[0] != "rect { fill: red }" {
		t.Errorf("unexpected stylesheets %q", doc.Stylesheets)
	}
	if len(doc.Scripts) != 1 {
		t.Errorf("expected one script, got %d", len(doc.Scripts))
	}
	text := doc.Root.Children[2]
	if got := text.TextContent(); got != " Hello world" {
		t.Errorf("expected text content %q, got %q", " Hello world", got)
	}
	if !text.Children[0].IsText() {
		t.Error("expected leading text node")
	}
}

func TestParseError(t *testing.T) {
	if _, err := ParseString(""); err == nil {
		t.Error("expected error for empty input")
	}
	if _, err := ParseString("<svg><g></svg>"); err == nil {
		t.Error("expected error for mismatched tags")
	}
}

func TestSerialize(t *testing.T) {
	doc, _ := ParseString(`<svg><rect width="2" id="a"/><text>a&amp;b</text></svg>`)
	got := Serialize(doc.Root)
	want := `<svg><rect id="a" width="2"/><text>a&amp;b</text></svg>`
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
