package viz

import (
	"strings"
	"testing"

	"github.com/tracedeck/tracedeck/internal/api"
)

func TestProjectGraph_ParentChildEdge(t *testing.T) {
	spans := []api.Span{
		{SpanID: "a", Name: "root", StartTime: 0, Duration: fptr(10)},
		{SpanID: "b", Name: "child", ParentSpanID: "a", StartTime: 10, Duration: fptr(5)},
	}
	g := ProjectGraph(spans, nil)

	if len(g.Nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("expected exactly 1 edge, got %d", len(g.Edges))
	}
	if g.Edges[0].From != "a" || g.Edges[0].To != "b" {
		t.Errorf("expected edge a→b, got %s→%s", g.Edges[0].From, g.Edges[0].To)
	}
}

func TestProjectGraph_DanglingParentNoEdge(t *testing.T) {
	spans := []api.Span{
		{SpanID: "a", Name: "orphan", ParentSpanID: "missing"},
	}
	g := ProjectGraph(spans, nil)
	if len(g.Nodes) != 1 {
		t.Fatalf("orphan must still render as a node, got %d nodes", len(g.Nodes))
	}
	if len(g.Edges) != 0 {
		t.Errorf("dangling parent must not produce an edge, got %v", g.Edges)
	}
}

func TestProjectGraph_IndexLayout(t *testing.T) {
	spans := []api.Span{
		{SpanID: "a", Name: "root"},
		{SpanID: "b", Name: "child", ParentSpanID: "a"},
	}
	g := ProjectGraph(spans, IndexLayout{XStep: 100, YStep: 50})
	if g.Nodes[0].X != 0 || g.Nodes[0].Y != 0 {
		t.Errorf("root at (%d,%d), want (0,0)", g.Nodes[0].X, g.Nodes[0].Y)
	}
	if g.Nodes[1].X != 100 || g.Nodes[1].Y != 50 {
		t.Errorf("child at (%d,%d), want (100,50)", g.Nodes[1].X, g.Nodes[1].Y)
	}
}

func TestNodeClass_FailureOverridesType(t *testing.T) {
	cases := []struct {
		status, spanType, want string
	}{
		{api.StatusFailure, api.TypeLLM, "failure"},
		{api.StatusFailure, "", "failure"},
		{api.StatusSuccess, api.TypeLLM, "llm"},
		{api.StatusSuccess, api.TypeDB, "db"},
		{api.StatusSuccess, api.TypeVectorDB, "vector-db"},
		{api.StatusSuccess, "tool", "generic"},
		{api.StatusSuccess, "", "generic"},
	}
	for _, c := range cases {
		if got := NodeClass(c.status, c.spanType); got != c.want {
			t.Errorf("NodeClass(%q,%q) = %q, want %q", c.status, c.spanType, got, c.want)
		}
	}
}

func TestDOT(t *testing.T) {
	spans := []api.Span{
		{SpanID: "a", Name: "root", Type: "agent", Status: api.StatusSuccess},
		{SpanID: "b", Name: "llm_call", Type: "llm", Status: api.StatusFailure, ParentSpanID: "a"},
		{SpanID: "c", Name: "lost", ParentSpanID: "ghost"},
	}
	out := DOT(spans)

	for _, want := range []string{
		"digraph trace {",
		"rankdir=LR",
		`"a" -> "b";`,
		"color=red",
		"color=green",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, `"ghost"`) {
		t.Errorf("dangling parent must not appear as an edge endpoint:\n%s", out)
	}
}
