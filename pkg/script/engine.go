// Package script runs JavaScript against an SVG document. Every DOM change
// a script makes goes through the dom mutation methods, so an observing
// document invalidates exactly what the script touched.
package script

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/dop251/goja"

	"svgtrav/pkg/dom"
)

// Engine executes JavaScript against an SVG document's DOM.
type Engine struct {
	vm  *goja.Runtime
	log *log.Logger
	dom *domContext
}

// New creates a new JS engine with a fresh goja runtime. Console output
// goes to logger; nil prints to stdout and stderr.
func New(logger *log.Logger) *Engine {
	vm := goja.New()
	e := &Engine{vm: vm, log: logger}
	c := &consoleAPI{log: logger}
	c.register(vm)
	return e
}

func (e *Engine) bind(doc *dom.Document) {
	if e.dom == nil || e.dom.doc != doc {
		e.dom = registerDocument(e.vm, doc)
	}
}

// Execute runs the document's own <script> elements in document order.
func (e *Engine) Execute(doc *dom.Document) error {
	for i, src := range doc.Scripts {
		if err := e.Run(doc, "#"+strconv.Itoa(i), src); err != nil {
			return err
		}
	}
	return nil
}

// Run executes src against doc. name identifies the script in errors.
func (e *Engine) Run(doc *dom.Document, name, src string) error {
	e.bind(doc)
	if _, err := e.vm.RunScript(name, src); err != nil {
		return fmt.Errorf("script: %s: %w", name, err)
	}
	return nil
}
