package script

import (
	"github.com/dop251/goja"

	"svgtrav/pkg/dom"
)

// appendChildFn returns a JS function that implements node.appendChild(child).
func (e *elementAccessor) appendChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.nodeArg(call, 0, "appendChild")
		e.ctx.throw(e.node.AppendChild(child))
		return e.ctx.elementProxy(child)
	}
}

// removeChildFn returns a JS function that implements node.removeChild(child).
func (e *elementAccessor) removeChildFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		child := e.nodeArg(call, 0, "removeChild")
		if child.Parent != e.node {
			panic(e.ctx.vm.NewTypeError("Failed to execute 'removeChild': The node to be removed is not a child of this node"))
		}
		e.ctx.throw(e.node.RemoveChild(child))
		return e.ctx.elementProxy(child)
	}
}

// insertBeforeFn returns a JS function that implements node.insertBefore(newNode, refNode).
func (e *elementAccessor) insertBeforeFn() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		newChild := e.nodeArg(call, 0, "insertBefore")
		var refChild *dom.Node
		if len(call.Arguments) > 1 {
			refChild = e.ctx.unwrapNode(call.Arguments[1])
		}
		e.ctx.throw(e.node.InsertBefore(newChild, refChild))
		return e.ctx.elementProxy(newChild)
	}
}

// nodeArg returns argument i as a node or throws a TypeError.
func (e *elementAccessor) nodeArg(call goja.FunctionCall, i int, method string) *dom.Node {
	if len(call.Arguments) <= i {
		panic(e.ctx.vm.NewTypeError("Failed to execute '" + method + "': argument required"))
	}
	n := e.ctx.unwrapNode(call.Arguments[i])
	if n == nil {
		panic(e.ctx.vm.NewTypeError("Failed to execute '" + method + "': parameter is not a Node"))
	}
	return n
}
