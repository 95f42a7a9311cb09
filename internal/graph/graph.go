// Package graph builds the intra-tree dependency graph from extracted
// structural facts. Nodes are catalogued file paths; a directed edge means
// the source file references the target through an include or import token.
package graph

import (
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/chronicle/internal/structure"
)

// Edge is a directed dependency between two catalogued files.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Graph is the resolved dependency graph. Nodes and Edges are sorted, so two
// builds over the same facts produce identical graphs. Cycles are allowed.
type Graph struct {
	Nodes []string `json:"nodes"`
	Edges []Edge   `json:"edges"`

	adjacency map[string][]string // undirected, built lazily
	fanOut    map[string]int
}

// Build resolves every include token in facts against the set of catalogued
// paths. Tokens that match no file are dropped; they point outside the tree
// (system headers, third-party imports) and carry no planning signal.
func Build(facts []structure.Facts) *Graph {
	paths := make([]string, 0, len(facts))
	for _, f := range facts {
		paths = append(paths, f.Path)
	}
	sort.Strings(paths)

	res := newResolver(paths)

	seen := make(map[Edge]bool)
	edges := make([]Edge, 0)
	for _, f := range facts {
		for _, token := range f.Includes {
			target, ok := res.resolve(token)
			if !ok {
				slog.Debug("unresolved reference", "file", f.Path, "token", token)
				continue
			}
			if target == f.Path {
				continue
			}
			e := Edge{From: f.Path, To: target}
			if seen[e] {
				continue
			}
			seen[e] = true
			edges = append(edges, e)
		}
	}

	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].To < edges[j].To
	})

	return &Graph{Nodes: paths, Edges: edges}
}

// New reassembles a Graph from previously persisted nodes and edges.
func New(nodes []string, edges []Edge) *Graph {
	g := &Graph{
		Nodes: append([]string(nil), nodes...),
		Edges: append([]Edge(nil), edges...),
	}
	sort.Strings(g.Nodes)
	sort.Slice(g.Edges, func(i, j int) bool {
		if g.Edges[i].From != g.Edges[j].From {
			return g.Edges[i].From < g.Edges[j].From
		}
		return g.Edges[i].To < g.Edges[j].To
	})
	return g
}

// Neighbors returns the undirected neighbors of node, sorted.
func (g *Graph) Neighbors(node string) []string {
	g.buildIndexes()
	return g.adjacency[node]
}

// FanOut returns the number of outgoing edges of node.
func (g *Graph) FanOut(node string) int {
	g.buildIndexes()
	return g.fanOut[node]
}

// Components returns the undirected connected components over the given
// subset of nodes, ignoring edges that leave the subset. Each component is
// sorted, and components are ordered by their smallest member. BFS over the
// undirected view tolerates cycles, which C++ header relationships commonly
// produce.
func (g *Graph) Components(subset []string) [][]string {
	g.buildIndexes()

	in := make(map[string]bool, len(subset))
	for _, n := range subset {
		in[n] = true
	}

	ordered := append([]string(nil), subset...)
	sort.Strings(ordered)

	visited := make(map[string]bool, len(subset))
	var components [][]string
	for _, start := range ordered {
		if visited[start] {
			continue
		}
		var comp []string
		queue := []string{start}
		visited[start] = true
		for len(queue) > 0 {
			node := queue[0]
			queue = queue[1:]
			comp = append(comp, node)
			for _, nb := range g.adjacency[node] {
				if !in[nb] || visited[nb] {
					continue
				}
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
		sort.Strings(comp)
		components = append(components, comp)
	}

	sort.Slice(components, func(i, j int) bool {
		return components[i][0] < components[j][0]
	})
	return components
}

func (g *Graph) buildIndexes() {
	if g.adjacency != nil {
		return
	}
	g.adjacency = make(map[string][]string, len(g.Nodes))
	g.fanOut = make(map[string]int, len(g.Nodes))

	pair := make(map[string]map[string]bool)
	add := func(a, b string) {
		if pair[a] == nil {
			pair[a] = make(map[string]bool)
		}
		pair[a][b] = true
	}
	for _, e := range g.Edges {
		g.fanOut[e.From]++
		add(e.From, e.To)
		add(e.To, e.From)
	}
	for node, set := range pair {
		nbs := make([]string, 0, len(set))
		for nb := range set {
			nbs = append(nbs, nb)
		}
		sort.Strings(nbs)
		g.adjacency[node] = nbs
	}
}

// resolver matches include tokens against catalogued paths in three passes:
// exact relative path, then basename, then basename with the extension cut.
// Ambiguous matches take the lexicographically smallest candidate.
type resolver struct {
	exact      map[string]bool
	byBase     map[string][]string
	byBaseStem map[string][]string
}

func newResolver(sortedPaths []string) *resolver {
	r := &resolver{
		exact:      make(map[string]bool, len(sortedPaths)),
		byBase:     make(map[string][]string),
		byBaseStem: make(map[string][]string),
	}
	for _, p := range sortedPaths {
		r.exact[p] = true
		base := path.Base(p)
		r.byBase[base] = append(r.byBase[base], p)
		stem := strings.TrimSuffix(base, path.Ext(base))
		if stem != "" {
			r.byBaseStem[stem] = append(r.byBaseStem[stem], p)
		}
	}
	return r
}

func (r *resolver) resolve(token string) (string, bool) {
	token = path.Clean(strings.TrimSpace(token))
	if token == "" || token == "." {
		return "", false
	}
	if r.exact[token] {
		return token, true
	}
	base := path.Base(token)
	if cands := r.byBase[base]; len(cands) > 0 {
		return cands[0], true
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	if cands := r.byBaseStem[stem]; len(cands) > 0 {
		return cands[0], true
	}
	return "", false
}
