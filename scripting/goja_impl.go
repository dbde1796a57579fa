package scripting

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/wudi/tagkit/checkpoint"
	"github.com/wudi/tagkit/structure"
)

// GojaEngine executes rule scripts on a goja runtime. The runtime is
// single-threaded; one engine serves one session.
type GojaEngine struct {
	vm        *goja.Runtime
	collected []checkpoint.Finding
}

func NewEngine() *GojaEngine {
	vm := goja.New()
	return &GojaEngine{vm: vm}
}

// Execute runs the script with interruption wired to the context. The
// findings the script reported come back in report order; merging and
// sorting with the built-in checkpoint output happens in the session.
func (e *GojaEngine) Execute(ctx context.Context, script string) ([]checkpoint.Finding, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.collected = nil

	done := make(chan struct{})
	defer close(done)
	defer e.vm.ClearInterrupt()

	go func() {
		select {
		case <-ctx.Done():
			e.vm.Interrupt(ctx.Err())
		case <-done:
		}
	}()

	if _, err := e.vm.RunString(script); err != nil {
		if interruptedErr, ok := err.(*goja.InterruptedError); ok {
			if cause := interruptedErr.Unwrap(); cause != nil {
				return nil, cause
			}
			return nil, context.Canceled
		}
		return nil, err
	}
	out := e.collected
	e.collected = nil
	return out, nil
}

// RegisterDOM exposes the tree view and the finding collector as script
// globals: root(), node(id) and report(checkpoint, severity, nodeId,
// reason).
func (e *GojaEngine) RegisterDOM(dom TreeDOM) error {
	e.vm.Set("root", func(call goja.FunctionCall) goja.Value {
		return e.nodeValue(dom.Root())
	})

	e.vm.Set("node", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		n := dom.Node(int(call.Arguments[0].ToInteger()))
		return e.nodeValue(n)
	})

	e.vm.Set("report", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 4 {
			panic(e.vm.ToValue("report needs (checkpoint, severity, nodeId, reason)"))
		}
		sev, err := parseSeverity(call.Arguments[1].String())
		if err != nil {
			panic(e.vm.ToValue(err.Error()))
		}
		f := checkpoint.Finding{
			Checkpoint: call.Arguments[0].String(),
			Severity:   sev,
			Reason:     call.Arguments[3].String(),
		}
		if id := call.Arguments[2].ToInteger(); id > 0 {
			f.Nodes = []structure.NodeID{structure.NodeID(id)}
		}
		e.collected = append(e.collected, f)
		return goja.Undefined()
	})

	return nil
}

// nodeValue builds the JS object for one node: plain data properties
// for id and tag, functions for the rest so the view stays lazy.
func (e *GojaEngine) nodeValue(n NodeProxy) goja.Value {
	if n == nil {
		return goja.Null()
	}
	obj := e.vm.NewObject()
	obj.Set("id", n.ID())
	obj.Set("tag", n.Tag())
	obj.Set("children", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(n.Children())
	})
	obj.Set("attr", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		v := n.Attr(call.Arguments[0].String())
		if v == nil {
			return goja.Null()
		}
		return e.vm.ToValue(v)
	})
	obj.Set("refs", func(call goja.FunctionCall) goja.Value {
		return e.vm.ToValue(n.Refs())
	})
	return obj
}

func parseSeverity(s string) (checkpoint.Severity, error) {
	switch s {
	case "failure":
		return checkpoint.SeverityFailure, nil
	case "warning":
		return checkpoint.SeverityWarning, nil
	case "needs-manual-review":
		return checkpoint.SeverityNeedsReview, nil
	}
	return 0, fmt.Errorf("scripting: unknown severity %q", s)
}
