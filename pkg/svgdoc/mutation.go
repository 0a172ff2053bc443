package svgdoc

import (
	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
	"svgtrav/pkg/elemctx"
)

// Attributes whose change can alter which siblings a parent renders.
var structuralAttributes = map[string]bool{
	"display":                   true,
	"requiredFeatures":          true,
	"requiredExtensions":        true,
	"systemLanguage":            true,
	"externalResourcesRequired": true,
}

// AttributeChanged implements dom.MutationObserver.
func (d *Document) AttributeChanged(n *dom.Node, name string) {
	d.debug("attribute changed", "tag", n.TagName, "id", n.ID(), "name", name)
	if name == "id" {
		// References by id may now resolve elsewhere.
		d.Store.Invalidate(d.DOM.Root, elemctx.SubtreeDirty)
		return
	}
	d.Store.Invalidate(n, elemctx.SubtreeDirty)
	if structuralAttributes[name] && n.Parent != nil {
		d.Store.Invalidate(n.Parent, elemctx.StructureDirty)
	}
}

// ChildInserted implements dom.MutationObserver.
func (d *Document) ChildInserted(parent, child *dom.Node) {
	d.debug("child inserted", "parent", parent.TagName, "child", child.TagName)
	if d.insideStyle(child) || child.Is("style") {
		d.refreshStyles()
		return
	}
	d.Store.Invalidate(child, elemctx.NewlyAdded)
	d.Store.Invalidate(parent, elemctx.StructureDirty)
}

// ChildRemoved implements dom.MutationObserver.
func (d *Document) ChildRemoved(parent, child *dom.Node) {
	d.debug("child removed", "parent", parent.TagName, "child", child.TagName)
	if d.insideStyle(parent) || child.Is("style") {
		d.refreshStyles()
		return
	}
	// The pass will never visit the removed subtree, so repaint its area now.
	if c := d.Store.Lookup(child); c != nil && c.RenderNode != nil && c.RenderNode.Attached() {
		d.addDirty(c.RenderNode.DeviceExtents())
	}
	child.Walk(func(n *dom.Node) bool {
		for _, dep := range d.Store.Dependents(n) {
			d.Store.Invalidate(dep, elemctx.StructureDirty)
		}
		return true
	})
	d.Store.Invalidate(parent, elemctx.StructureDirty)
}

// TextChanged implements dom.MutationObserver.
func (d *Document) TextChanged(n *dom.Node) {
	if d.insideStyle(n) {
		d.refreshStyles()
		return
	}
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Is("text") {
			d.Store.Invalidate(p, elemctx.ContentDirty)
			return
		}
	}
}

func (d *Document) insideStyle(n *dom.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Is("style") {
			return true
		}
	}
	return false
}

// refreshStyles reparses every <style> element and restyles the document.
func (d *Document) refreshStyles() {
	var sources []string
	d.DOM.Root.Walk(func(n *dom.Node) bool {
		if n.Is("style") {
			sources = append(sources, n.TextContent())
		}
		return true
	})
	d.DOM.Stylesheets = sources
	d.Styles.Sheets = css.NewCascade(sources...).Sheets
	d.Store.Invalidate(d.DOM.Root, elemctx.SubtreeDirty)
	d.debug("stylesheets reloaded", "count", len(sources))
}
