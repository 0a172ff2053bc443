package dom

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/beevik/etree"
)

// Parse reads an SVG document. Elements without a namespace declaration are
// placed in the SVG namespace so hand-written fragments work without xmlns.
func Parse(r io.Reader) (*Document, error) {
	x := etree.NewDocument()
	if _, err := x.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse svg: %w", err)
	}
	root := x.Root()
	if root == nil {
		return nil, errors.New("parse svg: no root element")
	}

	doc := NewDocument()
	doc.SetRoot(convert(doc, root, map[string]string{"xlink": XLinkNamespace}))
	return doc, nil
}

// ParseString parses an SVG document held in a string.
func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

// convert builds the Node tree for e. scope maps namespace prefixes (""
// for the default namespace) to URIs and is copied when e declares new ones.
func convert(doc *Document, e *etree.Element, scope map[string]string) *Node {
	scope = declare(scope, e)
	space, ok := scope[e.Space]
	if !ok || space == "" {
		space = SVGNamespace
	}
	n := &Node{
		Type:       ElementNode,
		Space:      space,
		TagName:    e.Tag,
		Attributes: make(map[string]string, len(e.Attr)),
		doc:        doc,
	}
	for _, a := range e.Attr {
		if a.Space == "xmlns" || (a.Space == "" && a.Key == "xmlns") {
			continue
		}
		key := a.Key
		if a.Space != "" {
			key = a.Space + ":" + a.Key
		}
		n.Attributes[key] = a.Value
	}

	keepSpace := n.IsSVG() && (e.Tag == "text" || e.Tag == "tspan" || e.Tag == "style" || e.Tag == "script" || e.Tag == "a")
	for _, tok := range e.Child {
		switch t := tok.(type) {
		case *etree.Element:
			n.AddChild(convert(doc, t, scope))
		case *etree.CharData:
			if !keepSpace && strings.TrimSpace(t.Data) == "" {
				continue
			}
			n.AddChild(&Node{Type: TextNode, Text: t.Data})
		}
	}

	if n.IsSVG() {
		switch e.Tag {
		case "style":
			doc.Stylesheets = append(doc.Stylesheets, n.TextContent())
		case "script":
			doc.Scripts = append(doc.Scripts, n.TextContent())
		}
	}
	return n
}

func declare(scope map[string]string, e *etree.Element) map[string]string {
	var local map[string]string
	for _, a := range e.Attr {
		prefix, isDecl := "", false
		switch {
		case a.Space == "xmlns":
			prefix, isDecl = a.Key, true
		case a.Space == "" && a.Key == "xmlns":
			isDecl = true
		}
		if !isDecl {
			continue
		}
		if local == nil {
			local = make(map[string]string, len(scope)+1)
			for k, v := range scope {
				local[k] = v
			}
		}
		local[prefix] = a.Value
	}
	if local == nil {
		return scope
	}
	return local
}
