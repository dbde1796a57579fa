package scripting

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wudi/tagkit/checkpoint"
)

type fakeNode struct {
	id       int
	tag      string
	children []int
	attrs    map[string]interface{}
}

func (n *fakeNode) ID() int         { return n.id }
func (n *fakeNode) Tag() string     { return n.tag }
func (n *fakeNode) Children() []int { return n.children }
func (n *fakeNode) Refs() []string  { return nil }
func (n *fakeNode) Attr(name string) interface{} {
	return n.attrs[name]
}

type fakeDOM struct {
	nodes map[int]*fakeNode
	root  int
}

func (d *fakeDOM) Root() NodeProxy { return d.nodes[d.root] }
func (d *fakeDOM) Node(id int) NodeProxy {
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}
	return n
}

func testDOM() *fakeDOM {
	return &fakeDOM{
		root: 1,
		nodes: map[int]*fakeNode{
			1: {id: 1, tag: "Document", children: []int{2, 3}},
			2: {id: 2, tag: "H1", attrs: map[string]interface{}{"Lang": "en"}},
			3: {id: 3, tag: "Figure"},
		},
	}
}

func TestGojaEngine_ReportsFindings(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterDOM(testDOM()); err != nil {
		t.Fatalf("RegisterDOM failed: %v", err)
	}

	script := `
		var r = root();
		var kids = r.children();
		for (var i = 0; i < kids.length; i++) {
			var n = node(kids[i]);
			if (n.tag === "Figure" && n.attr("Alt") === null) {
				report("13-004", "failure", n.id, "figure-alternative-missing");
			}
		}
	`
	findings, err := engine.Execute(context.Background(), script)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(findings) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(findings))
	}
	f := findings[0]
	if f.Checkpoint != "13-004" || f.Severity != checkpoint.SeverityFailure {
		t.Errorf("wrong finding: %+v", f)
	}
	if len(f.Nodes) != 1 || int(f.Nodes[0]) != 3 {
		t.Errorf("wrong node: %+v", f.Nodes)
	}
}

func TestGojaEngine_FindingsResetBetweenRuns(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterDOM(testDOM()); err != nil {
		t.Fatal(err)
	}
	first, err := engine.Execute(context.Background(), `report("01-001", "warning", 0, "check")`)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 1 {
		t.Fatalf("expected 1 finding, got %d", len(first))
	}
	second, err := engine.Execute(context.Background(), `1 + 1`)
	if err != nil {
		t.Fatal(err)
	}
	if len(second) != 0 {
		t.Errorf("findings leaked across runs: %+v", second)
	}
}

func TestGojaEngine_RejectsUnknownSeverity(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterDOM(testDOM()); err != nil {
		t.Fatal(err)
	}
	if _, err := engine.Execute(context.Background(), `report("01-001", "fatal", 0, "x")`); err == nil {
		t.Fatal("expected unknown severity to fail the script")
	}
}

func TestGojaEngine_StaleNodeIsNull(t *testing.T) {
	engine := NewEngine()
	if err := engine.RegisterDOM(testDOM()); err != nil {
		t.Fatal(err)
	}
	findings, err := engine.Execute(context.Background(), `
		if (node(99) === null) {
			report("02-001", "warning", 0, "stale");
		}
	`)
	if err != nil {
		t.Fatal(err)
	}
	if len(findings) != 1 {
		t.Error("null check on a stale node id failed")
	}
}

func TestGojaEngine_ContextCancellation(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Millisecond)
	defer cancel()

	if _, err := engine.Execute(ctx, "while (true) {}"); err == nil || !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context deadline error, got %v", err)
	}

	if _, err := engine.Execute(context.Background(), "1 + 1"); err != nil {
		t.Fatalf("engine should recover after cancellation, got %v", err)
	}
}

func TestGojaEngine_ImmediateCancel(t *testing.T) {
	engine := NewEngine()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := engine.Execute(ctx, "42"); err == nil || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}
