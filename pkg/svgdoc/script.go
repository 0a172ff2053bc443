package svgdoc

import "svgtrav/pkg/script"

func (d *Document) engine() *script.Engine {
	if d.scripts == nil {
		d.scripts = script.New(d.log)
	}
	return d.scripts
}

// RunScript executes src against the document. The changes it makes are
// picked up by the next layout.
func (d *Document) RunScript(name, src string) error {
	if d.job != nil {
		return ErrBusy
	}
	return d.engine().Run(d.DOM, name, src)
}

// ExecuteScripts runs the document's <script> elements in order.
func (d *Document) ExecuteScripts() error {
	if d.job != nil {
		return ErrBusy
	}
	return d.engine().Execute(d.DOM)
}
