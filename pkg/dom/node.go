package dom

import (
	"errors"
	"strings"
)

// Namespace URIs recognised by the engine.
const (
	SVGNamespace   = "http://www.w3.org/2000/svg"
	XLinkNamespace = "http://www.w3.org/1999/xlink"
)

// ErrFrozen is returned by mutation methods while the document is frozen by
// a suspended pass.
var ErrFrozen = errors.New("dom: document is frozen")

type NodeType int

const (
	ElementNode NodeType = iota
	TextNode
)

// Node is an element or a text node. Shadow clones created for <use>
// instancing point back at the node they were cloned from through Real.
type Node struct {
	Type       NodeType
	Space      string // namespace URI
	TagName    string
	Attributes map[string]string
	Text       string
	Children   []*Node
	Parent     *Node
	Real       *Node

	doc *Document
}

// NewElement creates a detached SVG element.
func NewElement(tag string) *Node {
	return &Node{Type: ElementNode, Space: SVGNamespace, TagName: tag, Attributes: map[string]string{}}
}

// NewText creates a detached text node.
func NewText(text string) *Node {
	return &Node{Type: TextNode, Text: text}
}

func (n *Node) IsText() bool { return n.Type == TextNode }

// IsSVG reports whether n is an element in the SVG namespace.
func (n *Node) IsSVG() bool { return n.Type == ElementNode && n.Space == SVGNamespace }

// Is reports whether n is the SVG element with the given local name.
func (n *Node) Is(tag string) bool { return n.IsSVG() && n.TagName == tag }

// Document returns the document n belongs to, or nil for detached nodes.
func (n *Node) Document() *Document { return n.doc }

// Layouted returns the node whose attributes drive layout: the source of a
// shadow clone, or n itself.
func (n *Node) Layouted() *Node {
	if n.Real != nil {
		return n.Real
	}
	return n
}

func (n *Node) GetAttribute(name string) (string, bool) {
	if n.Attributes == nil {
		return "", false
	}
	val, ok := n.Attributes[name]
	return val, ok
}

// Attr returns the attribute value or "".
func (n *Node) Attr(name string) string {
	v, _ := n.GetAttribute(name)
	return v
}

// ID returns the id attribute.
func (n *Node) ID() string { return n.Attr("id") }

// Href returns href, falling back to xlink:href.
func (n *Node) Href() string {
	if v, ok := n.GetAttribute("href"); ok {
		return v
	}
	return n.Attr("xlink:href")
}

// AddChild appends child without notifying observers. Used while building trees.
func (n *Node) AddChild(child *Node) {
	child.Parent = n
	child.adopt(n.doc)
	n.Children = append(n.Children, child)
}

// AppendText creates a text node and adds it as a child
func (n *Node) AppendText(text string) {
	if text == "" {
		return
	}
	n.AddChild(NewText(text))
}

func (n *Node) adopt(doc *Document) {
	n.doc = doc
	for _, c := range n.Children {
		c.adopt(doc)
	}
}

// SetAttribute sets an attribute and notifies the document observer.
func (n *Node) SetAttribute(name, value string) error {
	if err := n.doc.checkMutable(); err != nil {
		return err
	}
	if n.Attributes == nil {
		n.Attributes = make(map[string]string)
	}
	if old, ok := n.Attributes[name]; ok && old == value {
		return nil
	}
	n.Attributes[name] = value
	if name == "id" {
		n.doc.dropIndex()
	}
	n.doc.notify(func(o MutationObserver) { o.AttributeChanged(n, name) })
	return nil
}

// RemoveAttribute deletes an attribute and notifies the document observer.
func (n *Node) RemoveAttribute(name string) error {
	if err := n.doc.checkMutable(); err != nil {
		return err
	}
	if _, ok := n.Attributes[name]; !ok {
		return nil
	}
	delete(n.Attributes, name)
	if name == "id" {
		n.doc.dropIndex()
	}
	n.doc.notify(func(o MutationObserver) { o.AttributeChanged(n, name) })
	return nil
}

// SetText replaces the text of a text node.
func (n *Node) SetText(text string) error {
	if err := n.doc.checkMutable(); err != nil {
		return err
	}
	n.Text = text
	n.doc.notify(func(o MutationObserver) { o.TextChanged(n) })
	return nil
}

// AppendChild appends child, removing it from its previous parent first.
func (n *Node) AppendChild(child *Node) error {
	return n.InsertBefore(child, nil)
}

// InsertBefore inserts newChild before refChild in this node's children.
// If refChild is nil or not a child, newChild is appended.
func (n *Node) InsertBefore(newChild, refChild *Node) error {
	if err := n.doc.checkMutable(); err != nil {
		return err
	}
	if newChild.Contains(n) {
		return errors.New("dom: cannot insert an ancestor into its own subtree")
	}
	if newChild.Parent != nil {
		if err := newChild.Parent.RemoveChild(newChild); err != nil {
			return err
		}
	}

	idx := len(n.Children)
	if refChild != nil {
		if i := refChild.IndexInParent(); i >= 0 && refChild.Parent == n {
			idx = i
		}
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[idx+1:], n.Children[idx:])
	n.Children[idx] = newChild
	newChild.Parent = n
	newChild.adopt(n.doc)
	n.doc.dropIndex()
	n.doc.notify(func(o MutationObserver) { o.ChildInserted(n, newChild) })
	return nil
}

// RemoveChild removes child from this node's children and clears its parent
// pointer. Removing a node that is not a child is a no-op.
func (n *Node) RemoveChild(child *Node) error {
	if err := n.doc.checkMutable(); err != nil {
		return err
	}
	for i, c := range n.Children {
		if c == child {
			n.Children = append(n.Children[:i], n.Children[i+1:]...)
			child.Parent = nil
			n.doc.dropIndex()
			n.doc.notify(func(o MutationObserver) { o.ChildRemoved(n, child) })
			return nil
		}
	}
	return nil
}

// CloneShadow deep-clones n for instancing. Every clone records the node it
// was made from in Real and keeps the source document for reference lookups,
// but is not part of the document tree.
func CloneShadow(n *Node) *Node {
	clone := &Node{
		Type:    n.Type,
		Space:   n.Space,
		TagName: n.TagName,
		Text:    n.Text,
		Real:    n.Layouted(),
		doc:     n.doc,
	}
	if n.Attributes != nil {
		clone.Attributes = make(map[string]string, len(n.Attributes))
		for k, v := range n.Attributes {
			clone.Attributes[k] = v
		}
	}
	clone.Children = make([]*Node, len(n.Children))
	for i, child := range n.Children {
		c := CloneShadow(child)
		c.Parent = clone
		clone.Children[i] = c
	}
	return clone
}

// Contains returns true if other is a descendant of n (or n itself).
func (n *Node) Contains(other *Node) bool {
	for p := other; p != nil; p = p.Parent {
		if p == n {
			return true
		}
	}
	return false
}

// IndexInParent returns the index of this node among its parent's children,
// or -1 if it has no parent.
func (n *Node) IndexInParent() int {
	if n.Parent == nil {
		return -1
	}
	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}
	return -1
}

// TextContent concatenates all descendant text.
func (n *Node) TextContent() string {
	if n.IsText() {
		return n.Text
	}
	var sb strings.Builder
	for _, c := range n.Children {
		sb.WriteString(c.TextContent())
	}
	return sb.String()
}

// Walk visits n and its descendants in document order until fn returns false.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if !fn(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(fn) {
			return false
		}
	}
	return true
}

// Path returns the ancestor chain from the topmost ancestor down to n.
func (n *Node) Path() []*Node {
	var path []*Node
	for p := n; p != nil; p = p.Parent {
		path = append(path, p)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
