package script

import (
	"github.com/dop251/goja"

	"svgtrav/pkg/css"
	"svgtrav/pkg/dom"
)

// registerQuerySelectors adds querySelector/querySelectorAll to a document object.
func registerQuerySelectors(ctx *domContext, obj *goja.Object, root *dom.Node) {
	obj.Set("querySelector", querySelectorFn(ctx, root))
	obj.Set("querySelectorAll", querySelectorAllFn(ctx, root))
}

// query returns the elements below root matching the selector list in
// argument 0, stopping after the first when first is set.
func query(ctx *domContext, root *dom.Node, call goja.FunctionCall, method string, first bool) []*dom.Node {
	if len(call.Arguments) == 0 {
		panic(ctx.vm.NewTypeError("Failed to execute '" + method + "': 1 argument required"))
	}
	list := call.Arguments[0].String()
	selectors, ok := css.ParseSelectorList(list)
	if !ok {
		panic(ctx.vm.NewTypeError("Failed to execute '" + method + "': '" + list + "' is not a valid selector"))
	}
	var result []*dom.Node
	root.Walk(func(n *dom.Node) bool {
		if n == root {
			return true
		}
		for _, sel := range selectors {
			if css.MatchesSelector(n, sel) {
				result = append(result, n)
				return !first
			}
		}
		return true
	})
	return result
}

// querySelectorFn returns a JS function implementing querySelector.
func querySelectorFn(ctx *domContext, root *dom.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		found := query(ctx, root, call, "querySelector", true)
		if len(found) == 0 {
			return goja.Null()
		}
		return ctx.elementProxy(found[0])
	}
}

// querySelectorAllFn returns a JS function implementing querySelectorAll.
func querySelectorAllFn(ctx *domContext, root *dom.Node) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		return ctx.elementArray(query(ctx, root, call, "querySelectorAll", false))
	}
}
