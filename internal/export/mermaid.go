// Package export renders pipeline artifacts into human-facing formats.
package export

import (
	"fmt"
	"strings"

	"github.com/dusk-indust/chronicle/internal/graph"
)

// Mermaid renders the dependency graph as a mermaid flowchart. Node ids are
// positional; labels carry the catalogued paths.
func Mermaid(g *graph.Graph) string {
	ids := make(map[string]string, len(g.Nodes))
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	for i, node := range g.Nodes {
		id := fmt.Sprintf("n%d", i)
		ids[node] = id
		fmt.Fprintf(&sb, "    %s[%q]\n", id, node)
	}
	for _, e := range g.Edges {
		from, okF := ids[e.From]
		to, okT := ids[e.To]
		if !okF || !okT {
			continue
		}
		fmt.Fprintf(&sb, "    %s --> %s\n", from, to)
	}
	return sb.String()
}
