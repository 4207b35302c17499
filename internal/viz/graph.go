package viz

import (
	"fmt"
	"strings"

	"github.com/tracedeck/tracedeck/internal/api"
)

// NodeClass maps span status and type to a style class. Failure always
// overrides type-based styling.
func NodeClass(status, spanType string) string {
	if status == api.StatusFailure {
		return "failure"
	}
	switch spanType {
	case api.TypeLLM:
		return "llm"
	case api.TypeDB:
		return "db"
	case api.TypeVectorDB:
		return "vector-db"
	default:
		return "generic"
	}
}

// ProjectGraph builds the node/edge projection of one trace's spans: one
// node per span, one directed parent→child edge per span whose parent
// resolves within the set. A dangling parent reference produces no edge;
// the node still renders.
func ProjectGraph(spans []api.Span, layout Layout) Graph {
	if layout == nil {
		layout = DefaultLayout()
	}

	inSet := make(map[string]bool, len(spans))
	for i := range spans {
		inSet[spans[i].SpanID] = true
	}

	g := Graph{
		Nodes: make([]Node, 0, len(spans)),
	}
	for i := range spans {
		s := &spans[i]
		x, y := layout.Position(i, !s.IsRoot())
		g.Nodes = append(g.Nodes, Node{
			ID:     s.SpanID,
			Label:  s.Name,
			Type:   s.Type,
			Status: s.Status,
			Class:  NodeClass(s.Status, s.Type),
			X:      x,
			Y:      y,
		})
		if !s.IsRoot() && inSet[s.ParentSpanID] {
			g.Edges = append(g.Edges, Edge{From: s.ParentSpanID, To: s.SpanID})
		}
	}
	return g
}

// DOT renders the graph in Graphviz dot syntax, colored by status with
// failure taking precedence, for piping into `dot -Tsvg` or similar.
func DOT(spans []api.Span) string {
	var b strings.Builder
	b.WriteString("digraph trace {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=box, style=rounded];\n")

	inSet := make(map[string]bool, len(spans))
	for i := range spans {
		inSet[spans[i].SpanID] = true
	}

	for i := range spans {
		s := &spans[i]
		color := "green"
		if s.Status == api.StatusFailure {
			color = "red"
		}
		label := strings.ReplaceAll(s.Name, `"`, `\"`)
		if s.Type != "" {
			label += `\n(` + s.Type + `)`
		}
		fmt.Fprintf(&b, "  %q [label=\"%s\", color=%s];\n", s.SpanID, label, color)
	}
	for i := range spans {
		s := &spans[i]
		if !s.IsRoot() && inSet[s.ParentSpanID] {
			fmt.Fprintf(&b, "  %q -> %q;\n", s.ParentSpanID, s.SpanID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}
