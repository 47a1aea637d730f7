// Package render turns a similarity graph into Mermaid or Graphviz DOT text.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hyperjump/paperbox/internal/models"
)

// Format names an output format for graphs.
type Format string

const (
	FormatMermaid Format = "mermaid"
	FormatDOT     Format = "dot"
	FormatJSON    Format = "json"
)

// ParseFormat validates a format name. The empty string selects Mermaid.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatMermaid, nil
	case FormatMermaid, FormatDOT, FormatJSON:
		return f, nil
	default:
		return "", models.InvalidArgumentf("render", "unknown graph format %q (want mermaid, dot or json)", s)
	}
}

// Graph renders g as text. JSON is not a text format and is rejected.
func Graph(g *models.Graph, f Format) (string, error) {
	switch f {
	case FormatMermaid:
		return Mermaid(g), nil
	case FormatDOT:
		return DOT(g), nil
	default:
		return "", models.InvalidArgumentf("render", "format %q has no text rendering", f)
	}
}

// Mermaid renders g as a fenced Mermaid flowchart, strongest edges first.
func Mermaid(g *models.Graph) string {
	var b strings.Builder
	b.WriteString("```mermaid\ngraph TD\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s[\"%s\"]\n", nodeID(n.ID), strings.ReplaceAll(n.Label, `"`, "#quot;"))
	}
	for _, e := range strongestFirst(g.Edges) {
		fmt.Fprintf(&b, "  %s ---|%.2f| %s\n", nodeID(e.FromID), e.Weight, nodeID(e.ToID))
	}
	b.WriteString("```")
	return b.String()
}

// DOT renders g as an undirected Graphviz graph. Pen width grows with edge weight.
func DOT(g *models.Graph) string {
	var b strings.Builder
	b.WriteString("graph G {\n  graph [overlap=false, splines=true];\n  node [shape=box];\n")
	for _, n := range g.Nodes {
		fmt.Fprintf(&b, "  %s [label=%q];\n", nodeID(n.ID), n.Label)
	}
	for _, e := range strongestFirst(g.Edges) {
		fmt.Fprintf(&b, "  %s -- %s [label=\"%.2f\", penwidth=%.2f];\n",
			nodeID(e.FromID), nodeID(e.ToID), e.Weight, 1+4*e.Weight)
	}
	b.WriteString("}")
	return b.String()
}

func nodeID(id int64) string {
	return fmt.Sprintf("D%d", id)
}

// strongestFirst orders a copy of edges by weight descending; ties keep pair order.
func strongestFirst(edges []models.GraphEdge) []models.GraphEdge {
	out := append([]models.GraphEdge(nil), edges...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Weight > out[j].Weight })
	return out
}
