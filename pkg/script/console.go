package script

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"
)

// consoleAPI implements console.log, console.warn, and console.error.
type consoleAPI struct {
	log *log.Logger
}

func (c *consoleAPI) register(vm *goja.Runtime) {
	console := vm.NewObject()
	console.Set("log", c.info)
	console.Set("info", c.info)
	console.Set("warn", c.warn)
	console.Set("error", c.errorFn)
	vm.Set("console", console)
}

func (c *consoleAPI) info(call goja.FunctionCall) goja.Value {
	msg := formatArgs(call.Arguments)
	if c.log != nil {
		c.log.Info(msg, "source", "script")
	} else {
		fmt.Println(msg)
	}
	return goja.Undefined()
}

func (c *consoleAPI) warn(call goja.FunctionCall) goja.Value {
	msg := formatArgs(call.Arguments)
	if c.log != nil {
		c.log.Warn(msg, "source", "script")
	} else {
		fmt.Fprintln(os.Stderr, "WARN:", msg)
	}
	return goja.Undefined()
}

func (c *consoleAPI) errorFn(call goja.FunctionCall) goja.Value {
	msg := formatArgs(call.Arguments)
	if c.log != nil {
		c.log.Error(msg, "source", "script")
	} else {
		fmt.Fprintln(os.Stderr, "ERROR:", msg)
	}
	return goja.Undefined()
}

func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = arg.String()
	}
	return strings.Join(parts, " ")
}
