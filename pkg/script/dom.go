package script

import (
	"sort"
	"strings"
	"unicode"

	"github.com/dop251/goja"

	"svgtrav/pkg/dom"
)

// domContext holds shared state for DOM bindings within a single document.
// It maps nodes to proxies and back so the same JS object is returned for
// the same node (needed for === identity checks).
type domContext struct {
	vm      *goja.Runtime
	doc     *dom.Document
	proxies map[*dom.Node]*goja.Object
	nodes   map[*goja.Object]*dom.Node
}

// registerDocument sets up the global `document` object on the goja runtime.
func registerDocument(vm *goja.Runtime, doc *dom.Document) *domContext {
	ctx := &domContext{
		vm:      vm,
		doc:     doc,
		proxies: make(map[*dom.Node]*goja.Object),
		nodes:   make(map[*goja.Object]*dom.Node),
	}

	docObj := vm.NewObject()
	docObj.Set("getElementById", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return goja.Null()
		}
		return ctx.proxyOrNull(doc.GetElementByID(call.Arguments[0].String()))
	})
	docObj.Set("getElementsByTagName", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			return ctx.elementArray(nil)
		}
		return ctx.elementArray(elementsByTagName(doc.Root, call.Arguments[0].String(), true))
	})
	docObj.Set("createElementNS", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.NewTypeError("Failed to execute 'createElementNS' on 'Document': 2 arguments required"))
		}
		space := dom.SVGNamespace
		if !goja.IsNull(call.Arguments[0]) && !goja.IsUndefined(call.Arguments[0]) {
			space = call.Arguments[0].String()
		}
		return ctx.elementProxy(doc.CreateElementNS(space, call.Arguments[1].String()))
	})
	docObj.Set("createElement", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("Failed to execute 'createElement' on 'Document': 1 argument required"))
		}
		return ctx.elementProxy(doc.CreateElementNS(dom.SVGNamespace, call.Arguments[0].String()))
	})
	docObj.Set("createTextNode", func(call goja.FunctionCall) goja.Value {
		text := ""
		if len(call.Arguments) > 0 {
			text = call.Arguments[0].String()
		}
		return ctx.elementProxy(doc.CreateTextNode(text))
	})
	docObj.Set("documentElement", ctx.proxyOrNull(doc.Root))
	registerQuerySelectors(ctx, docObj, doc.Root)

	vm.Set("document", docObj)
	return ctx
}

// elementsByTagName collects the elements named tag below root.
func elementsByTagName(root *dom.Node, tag string, includeRoot bool) []*dom.Node {
	var result []*dom.Node
	root.Walk(func(n *dom.Node) bool {
		if n.Type == dom.ElementNode && (tag == "*" || n.TagName == tag) && (includeRoot || n != root) {
			result = append(result, n)
		}
		return true
	})
	return result
}

// elementArray creates a JS array of Element proxies.
func (ctx *domContext) elementArray(nodes []*dom.Node) goja.Value {
	vals := make([]interface{}, len(nodes))
	for i, n := range nodes {
		vals[i] = ctx.elementProxy(n)
	}
	return ctx.vm.NewArray(vals...)
}

func (ctx *domContext) proxyOrNull(node *dom.Node) goja.Value {
	if node == nil {
		return goja.Null()
	}
	return ctx.elementProxy(node)
}

// elementProxy creates (or retrieves from cache) a JS DynamicObject wrapping a dom.Node.
func (ctx *domContext) elementProxy(node *dom.Node) goja.Value {
	if v, ok := ctx.proxies[node]; ok {
		return v
	}
	obj := ctx.vm.NewDynamicObject(&elementAccessor{ctx: ctx, node: node})
	ctx.proxies[node] = obj
	ctx.nodes[obj] = node
	return obj
}

// unwrapNode returns the node behind a proxy, or nil for anything else.
func (ctx *domContext) unwrapNode(val goja.Value) *dom.Node {
	if val == nil || goja.IsNull(val) || goja.IsUndefined(val) {
		return nil
	}
	obj, ok := val.(*goja.Object)
	if !ok {
		return nil
	}
	return ctx.nodes[obj]
}

// throw raises err as a JS exception.
func (ctx *domContext) throw(err error) {
	if err != nil {
		panic(ctx.vm.NewGoError(err))
	}
}

// elementAccessor implements goja.DynamicObject to intercept property access
// on DOM node proxies.
type elementAccessor struct {
	ctx  *domContext
	node *dom.Node
}

var elementKeys = []string{
	"nodeType", "nodeName", "nodeValue", "tagName", "namespaceURI", "id", "textContent",
	"getAttribute", "setAttribute", "hasAttribute", "removeAttribute", "getAttributeNS", "setAttributeNS",
	"children", "childNodes", "parentNode", "parentElement", "ownerDocument", "style",
	"appendChild", "removeChild", "insertBefore", "remove",
	"firstChild", "lastChild", "nextSibling", "previousSibling", "childElementCount",
	"querySelector", "querySelectorAll", "getElementsByTagName", "contains", "hasChildNodes",
}

func (e *elementAccessor) Get(key string) goja.Value {
	vm := e.ctx.vm
	n := e.node

	switch key {
	case "nodeType":
		if n.IsText() {
			return vm.ToValue(3) // Node.TEXT_NODE
		}
		return vm.ToValue(1) // Node.ELEMENT_NODE
	case "nodeName", "tagName":
		if n.IsText() {
			if key == "tagName" {
				return goja.Undefined()
			}
			return vm.ToValue("#text")
		}
		return vm.ToValue(n.TagName)
	case "namespaceURI":
		if n.IsText() {
			return goja.Null()
		}
		return vm.ToValue(n.Space)
	case "nodeValue":
		if n.IsText() {
			return vm.ToValue(n.Text)
		}
		return goja.Null()
	case "id":
		return vm.ToValue(n.ID())
	case "textContent":
		return vm.ToValue(n.TextContent())
	case "getAttribute", "getAttributeNS":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			name := attrName(call, key == "getAttributeNS")
			if name == "" {
				return goja.Null()
			}
			val, ok := n.GetAttribute(name)
			if !ok {
				return goja.Null()
			}
			return vm.ToValue(val)
		})
	case "setAttribute", "setAttributeNS":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			ns := key == "setAttributeNS"
			args := call.Arguments
			if ns && len(args) > 0 {
				args = args[1:]
			}
			if len(args) < 2 {
				return goja.Undefined()
			}
			e.ctx.throw(n.SetAttribute(args[0].String(), args[1].String()))
			return goja.Undefined()
		})
	case "hasAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			_, ok := n.GetAttribute(attrName(call, false))
			return vm.ToValue(ok)
		})
	case "removeAttribute":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if name := attrName(call, false); name != "" {
				e.ctx.throw(n.RemoveAttribute(name))
			}
			return goja.Undefined()
		})
	case "children":
		var elements []*dom.Node
		for _, c := range n.Children {
			if !c.IsText() {
				elements = append(elements, c)
			}
		}
		return e.ctx.elementArray(elements)
	case "childNodes":
		return e.ctx.elementArray(n.Children)
	case "parentNode", "parentElement":
		return e.ctx.proxyOrNull(n.Parent)
	case "ownerDocument":
		return vm.Get("document")
	case "style":
		return vm.NewDynamicObject(&styleAccessor{ctx: e.ctx, node: n})
	case "appendChild":
		return vm.ToValue(e.appendChildFn())
	case "removeChild":
		return vm.ToValue(e.removeChildFn())
	case "insertBefore":
		return vm.ToValue(e.insertBeforeFn())
	case "remove":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			if n.Parent != nil {
				e.ctx.throw(n.Parent.RemoveChild(n))
			}
			return goja.Undefined()
		})
	case "firstChild":
		if len(n.Children) == 0 {
			return goja.Null()
		}
		return e.ctx.elementProxy(n.Children[0])
	case "lastChild":
		if len(n.Children) == 0 {
			return goja.Null()
		}
		return e.ctx.elementProxy(n.Children[len(n.Children)-1])
	case "nextSibling":
		return e.ctx.proxyOrNull(sibling(n, 1))
	case "previousSibling":
		return e.ctx.proxyOrNull(sibling(n, -1))
	case "childElementCount":
		count := 0
		for _, c := range n.Children {
			if !c.IsText() {
				count++
			}
		}
		return vm.ToValue(count)
	case "querySelector":
		return vm.ToValue(querySelectorFn(e.ctx, n))
	case "querySelectorAll":
		return vm.ToValue(querySelectorAllFn(e.ctx, n))
	case "getElementsByTagName":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return e.ctx.elementArray(nil)
			}
			return e.ctx.elementArray(elementsByTagName(n, call.Arguments[0].String(), false))
		})
	case "contains":
		return vm.ToValue(func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) == 0 {
				return vm.ToValue(false)
			}
			other := e.ctx.unwrapNode(call.Arguments[0])
			return vm.ToValue(other != nil && n.Contains(other))
		})
	case "hasChildNodes":
		return vm.ToValue(func(goja.FunctionCall) goja.Value {
			return vm.ToValue(len(n.Children) > 0)
		})
	}
	return goja.Undefined()
}

func attrName(call goja.FunctionCall, ns bool) string {
	i := 0
	if ns {
		i = 1
	}
	if len(call.Arguments) <= i {
		return ""
	}
	return call.Arguments[i].String()
}

func sibling(n *dom.Node, delta int) *dom.Node {
	if n.Parent == nil {
		return nil
	}
	i := n.IndexInParent() + delta
	if i < 0 || i >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i]
}

func (e *elementAccessor) Set(key string, val goja.Value) bool {
	switch key {
	case "textContent":
		e.setTextContent(val.String())
		return true
	case "nodeValue":
		if e.node.IsText() {
			e.ctx.throw(e.node.SetText(val.String()))
		}
		return true
	case "id":
		e.ctx.throw(e.node.SetAttribute("id", val.String()))
		return true
	}
	return false
}

func (e *elementAccessor) Has(key string) bool {
	for _, k := range elementKeys {
		if k == key {
			return true
		}
	}
	return false
}

func (e *elementAccessor) Delete(string) bool { return false }

func (e *elementAccessor) Keys() []string { return elementKeys }

// setTextContent replaces the children of an element by one text node. A
// single existing text child is updated in place.
func (e *elementAccessor) setTextContent(text string) {
	n := e.node
	if n.IsText() {
		e.ctx.throw(n.SetText(text))
		return
	}
	if len(n.Children) == 1 && n.Children[0].IsText() {
		e.ctx.throw(n.Children[0].SetText(text))
		return
	}
	for len(n.Children) > 0 {
		e.ctx.throw(n.RemoveChild(n.Children[len(n.Children)-1]))
	}
	if text != "" {
		e.ctx.throw(n.AppendChild(e.ctx.doc.CreateTextNode(text)))
	}
}

// styleAccessor maps JS camelCase property access to the inline style
// attribute of the node.
type styleAccessor struct {
	ctx  *domContext
	node *dom.Node
}

func (s *styleAccessor) Get(key string) goja.Value {
	styles := parseInlineStyle(s.node.Attr("style"))
	return s.ctx.vm.ToValue(styles[camelToKebab(key)])
}

func (s *styleAccessor) Set(key string, val goja.Value) bool {
	styles := parseInlineStyle(s.node.Attr("style"))
	styles[camelToKebab(key)] = val.String()
	s.ctx.throw(s.node.SetAttribute("style", serializeInlineStyle(styles)))
	return true
}

func (s *styleAccessor) Has(string) bool { return true }

func (s *styleAccessor) Delete(key string) bool {
	styles := parseInlineStyle(s.node.Attr("style"))
	delete(styles, camelToKebab(key))
	s.ctx.throw(s.node.SetAttribute("style", serializeInlineStyle(styles)))
	return true
}

func (s *styleAccessor) Keys() []string {
	styles := parseInlineStyle(s.node.Attr("style"))
	keys := make([]string, 0, len(styles))
	for k := range styles {
		keys = append(keys, k)
	}
	return keys
}

// parseInlineStyle parses a CSS inline style string into a map.
func parseInlineStyle(s string) map[string]string {
	result := make(map[string]string)
	for _, decl := range strings.Split(s, ";") {
		prop, val, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		if prop = strings.TrimSpace(prop); prop != "" {
			result[prop] = strings.TrimSpace(val)
		}
	}
	return result
}

// serializeInlineStyle converts a map back to a CSS inline style string,
// with properties sorted so repeated writes produce the same attribute.
func serializeInlineStyle(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(m))
	for _, k := range keys {
		parts = append(parts, k+": "+m[k])
	}
	return strings.Join(parts, "; ")
}

// camelToKebab converts a JS camelCase property name to CSS kebab-case.
func camelToKebab(s string) string {
	var sb strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				sb.WriteByte('-')
			}
			sb.WriteRune(unicode.ToLower(r))
		} else {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

