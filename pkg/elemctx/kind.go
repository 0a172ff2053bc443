package elemctx

import (
	"strings"

	"svgtrav/pkg/dom"
)

// Kind selects the element handler used by the traversal engine.
type Kind int

const (
	KindUnknown Kind = iota
	KindContainer
	KindViewport
	KindUse
	KindGraphics
	KindImage
	KindText
	KindTextSpan
	KindTextNode
	KindSwitch
	KindAnchor
	KindClipPath
	KindResource
)

var kindNames = [...]string{
	"unknown", "container", "viewport", "use", "graphics", "image", "text",
	"tspan", "text-node", "switch", "anchor", "clipPath", "resource",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

var kindByTag = map[string]Kind{
	"g":              KindContainer,
	"svg":            KindViewport,
	"use":            KindUse,
	"rect":           KindGraphics,
	"circle":         KindGraphics,
	"ellipse":        KindGraphics,
	"line":           KindGraphics,
	"polyline":       KindGraphics,
	"polygon":        KindGraphics,
	"path":           KindGraphics,
	"image":          KindImage,
	"text":           KindText,
	"tspan":          KindTextSpan,
	"switch":         KindSwitch,
	"a":              KindAnchor,
	"clipPath":       KindClipPath,
	"defs":           KindResource,
	"title":          KindResource,
	"desc":           KindResource,
	"metadata":       KindResource,
	"style":          KindResource,
	"script":         KindResource,
	"linearGradient": KindResource,
	"radialGradient": KindResource,
	"stop":           KindResource,
	"mask":           KindResource,
	"symbol":         KindResource,
	"marker":         KindResource,
	"pattern":        KindResource,
	"filter":         KindResource,
}

// KindOf classifies n. Elements outside the SVG namespace are unknown.
func KindOf(n *dom.Node) Kind {
	if n.IsText() {
		return KindTextNode
	}
	if !n.IsSVG() {
		return KindUnknown
	}
	return kindByTag[n.TagName]
}

// IsContainer reports whether elements of kind k have traversable children.
func (k Kind) IsContainer() bool {
	switch k {
	case KindContainer, KindViewport, KindUse, KindText, KindTextSpan, KindSwitch, KindAnchor, KindClipPath:
		return true
	}
	return false
}

const featurePrefix = "http://www.w3.org/TR/SVG11/feature#"

// Environment answers the conditional-processing questions of a document.
type Environment struct {
	// Languages are the user's language tags, e.g. "en-US".
	Languages []string

	// Extensions lists supported requiredExtensions URIs.
	Extensions []string

	// ResourceAvailable reports whether the external resource of n has
	// been loaded. Nil means every resource is available.
	ResourceAvailable func(n *dom.Node) bool
}

// DefaultEnvironment accepts English and no extensions.
func DefaultEnvironment() *Environment {
	return &Environment{Languages: []string{"en"}}
}

// Conditional evaluates requiredFeatures, requiredExtensions and
// systemLanguage on n. An attribute that is present but empty fails.
func (e *Environment) Conditional(n *dom.Node) bool {
	src := n.Layouted()
	if v, ok := src.GetAttribute("requiredFeatures"); ok {
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return false
		}
		for _, f := range fields {
			if !strings.HasPrefix(f, featurePrefix) {
				return false
			}
		}
	}
	if v, ok := src.GetAttribute("requiredExtensions"); ok {
		fields := strings.Fields(v)
		if len(fields) == 0 {
			return false
		}
		for _, f := range fields {
			if !contains(e.Extensions, f) {
				return false
			}
		}
	}
	if v, ok := src.GetAttribute("systemLanguage"); ok {
		if !e.languageMatches(v) {
			return false
		}
	}
	return true
}

func (e *Environment) languageMatches(list string) bool {
	for _, tag := range strings.Split(list, ",") {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		for _, lang := range e.Languages {
			lang = strings.ToLower(lang)
			if lang == tag || strings.HasPrefix(lang, tag+"-") || strings.HasPrefix(tag, lang+"-") {
				return true
			}
		}
	}
	return false
}

func (e *Environment) resourcesReady(n *dom.Node) bool {
	src := n.Layouted()
	if src.Attr("externalResourcesRequired") != "true" || e.ResourceAvailable == nil {
		return true
	}
	return e.ResourceAvailable(src)
}

// Eligible reports whether child should be traversed as a child of an
// element of kind parent. inText is set inside a <text> subtree.
func (e *Environment) Eligible(parent Kind, inText bool, child *dom.Node) bool {
	k := KindOf(child)
	switch k {
	case KindUnknown, KindResource:
		return false
	case KindTextNode:
		return inText
	case KindTextSpan:
		if !inText {
			return false
		}
	case KindAnchor:
	default:
		if inText {
			return false
		}
	}
	if k == KindClipPath {
		return false
	}
	if parent == KindClipPath && k != KindGraphics && k != KindUse && k != KindText {
		return false
	}
	return e.Conditional(child) && e.resourcesReady(child)
}

// Predicate binds Eligible to a container.
func (e *Environment) Predicate(parent Kind, inText bool) func(*dom.Node) bool {
	return func(n *dom.Node) bool { return e.Eligible(parent, inText, n) }
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
