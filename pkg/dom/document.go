package dom

import (
	"sort"
	"strings"
)

// MutationObserver is told about every change made through the mutation
// methods of Node. Callbacks run after the change has been applied.
type MutationObserver interface {
	AttributeChanged(n *Node, name string)
	ChildInserted(parent, child *Node)
	ChildRemoved(parent, child *Node)
	TextChanged(n *Node)
}

type Document struct {
	Root        *Node
	Stylesheets []string // CSS from <style> elements
	Scripts     []string // JavaScript from <script> elements

	observer MutationObserver
	frozen   bool
	byID     map[string]*Node
}

func NewDocument() *Document {
	return &Document{}
}

// SetRoot installs root as the document element.
func (d *Document) SetRoot(root *Node) {
	d.Root = root
	root.Parent = nil
	root.adopt(d)
	d.byID = nil
}

// CreateElementNS creates a detached element owned by d.
func (d *Document) CreateElementNS(space, tag string) *Node {
	n := &Node{Type: ElementNode, Space: space, TagName: tag, Attributes: map[string]string{}, doc: d}
	return n
}

// CreateTextNode creates a detached text node owned by d.
func (d *Document) CreateTextNode(text string) *Node {
	return &Node{Type: TextNode, Text: text, doc: d}
}

// Observe registers the observer notified about mutations. Passing nil
// removes it.
func (d *Document) Observe(o MutationObserver) { d.observer = o }

// Freeze makes every mutation method fail with ErrFrozen until Thaw.
func (d *Document) Freeze() { d.frozen = true }
func (d *Document) Thaw()   { d.frozen = false }

func (d *Document) checkMutable() error {
	if d != nil && d.frozen {
		return ErrFrozen
	}
	return nil
}

func (d *Document) notify(fn func(MutationObserver)) {
	if d != nil && d.observer != nil {
		fn(d.observer)
	}
}

func (d *Document) dropIndex() {
	if d != nil {
		d.byID = nil
	}
}

// GetElementByID returns the first element in document order with the given id.
func (d *Document) GetElementByID(id string) *Node {
	if d.Root == nil || id == "" {
		return nil
	}
	if d.byID == nil {
		d.byID = make(map[string]*Node)
		d.Root.Walk(func(n *Node) bool {
			if v := n.ID(); v != "" {
				if _, dup := d.byID[v]; !dup {
					d.byID[v] = n
				}
			}
			return true
		})
	}
	return d.byID[id]
}

// FindByReference resolves an IRI or FuncIRI reference ("#id", "url(#id)")
// made by source. Only same-document fragment references are supported.
func (d *Document) FindByReference(source *Node, ref string) *Node {
	id, ok := ParseReference(ref)
	if !ok {
		return nil
	}
	doc := d
	if source != nil && source.doc != nil {
		doc = source.doc
	}
	if doc == nil {
		return nil
	}
	return doc.GetElementByID(id)
}

// ParseReference extracts the fragment id from "#id", "url(#id)" or
// "url('#id')". Anything following the closing parenthesis is ignored.
func ParseReference(ref string) (string, bool) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, "url(") {
		end := strings.IndexByte(ref, ')')
		if end < 0 {
			return "", false
		}
		ref = strings.Trim(strings.TrimSpace(ref[4:end]), `'"`)
	}
	if !strings.HasPrefix(ref, "#") || len(ref) == 1 {
		return "", false
	}
	return ref[1:], true
}

// Serialize returns the XML of n and its descendants.
func Serialize(n *Node) string {
	var sb strings.Builder
	serializeNode(&sb, n)
	return sb.String()
}

func serializeNode(sb *strings.Builder, n *Node) {
	if n.Type == TextNode {
		sb.WriteString(escapeText(n.Text))
		return
	}

	sb.WriteByte('<')
	sb.WriteString(n.TagName)

	// Sort attributes for deterministic output
	if len(n.Attributes) > 0 {
		keys := make([]string, 0, len(n.Attributes))
		for k := range n.Attributes {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			sb.WriteByte(' ')
			sb.WriteString(k)
			sb.WriteString(`="`)
			sb.WriteString(escapeAttr(n.Attributes[k]))
			sb.WriteByte('"')
		}
	}

	if len(n.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteByte('>')
	for _, child := range n.Children {
		serializeNode(sb, child)
	}
	sb.WriteString("</")
	sb.WriteString(n.TagName)
	sb.WriteByte('>')
}

func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

func escapeAttr(s string) string {
	s = escapeText(s)
	return strings.ReplaceAll(s, `"`, "&quot;")
}
