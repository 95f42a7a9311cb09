// Package plan partitions the catalogued files into synthesis tasks. Every
// file lands in exactly one task: a header/implementation pair, a dependency
// cluster, or a single.
package plan

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/catalog"
	"github.com/dusk-indust/chronicle/internal/graph"
)

// Kind discriminates the three task shapes.
type Kind string

const (
	KindPair    Kind = "pair"
	KindCluster Kind = "cluster"
	KindSingle  Kind = "single"
)

// Task is one unit of document synthesis. Members are sorted catalogued
// paths.
type Task struct {
	Kind      Kind     `json:"kind"`
	Members   []string `json:"members"`
	Rationale string   `json:"rationale"`
}

// Key returns the task's artifact key, used to name its intermediate doc.
func (t Task) Key() string {
	switch t.Kind {
	case KindPair:
		stem := strings.TrimSuffix(t.Members[0], path.Ext(t.Members[0]))
		return artifact.FileKey(stem) + "_pair"
	case KindCluster:
		stem := strings.TrimSuffix(t.Members[0], path.Ext(t.Members[0]))
		return artifact.FileKey(stem) + "_cluster"
	default:
		return artifact.FileKey(t.Members[0]) + "_single"
	}
}

// Plan is the persisted planning artifact: the resolved dependency edges plus
// the task partition derived from them.
type Plan struct {
	Edges []graph.Edge `json:"edges"`
	Tasks []Task       `json:"tasks"`
}

// Build partitions files into tasks. Pairing by shared path stem runs first,
// then connected components over the residual files, with oversize components
// split around high-fan-out seeds. The result is deterministic for a given
// catalog and graph.
func Build(files []catalog.SourceFile, g *graph.Graph, maxClusterSize int) (*Plan, error) {
	if maxClusterSize < 2 {
		return nil, fmt.Errorf("max cluster size %d is below 2", maxClusterSize)
	}

	byStem := make(map[string][]string)
	for _, f := range files {
		byStem[f.Stem()] = append(byStem[f.Stem()], f.Path)
	}

	var pairs []Task
	var residual []string
	for _, group := range byStem {
		sortByExtension(group)
		if len(group) >= 2 {
			members := []string{group[0], group[1]}
			sort.Strings(members)
			pairs = append(pairs, Task{
				Kind:      KindPair,
				Members:   members,
				Rationale: fmt.Sprintf("header/implementation pair sharing stem %q", stemOf(group[0])),
			})
			residual = append(residual, group[2:]...)
		} else {
			residual = append(residual, group...)
		}
	}

	var clusters, singles []Task
	for _, comp := range g.Components(residual) {
		switch {
		case len(comp) == 1:
			singles = append(singles, singleTask(comp[0]))
		case len(comp) <= maxClusterSize:
			clusters = append(clusters, Task{
				Kind:      KindCluster,
				Members:   comp,
				Rationale: fmt.Sprintf("connected dependency component of %d files", len(comp)),
			})
		default:
			cl, sg := splitComponent(comp, g, maxClusterSize)
			clusters = append(clusters, cl...)
			singles = append(singles, sg...)
		}
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].Members[0] < pairs[j].Members[0] })
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Members[0] < clusters[j].Members[0] })
	sort.Slice(singles, func(i, j int) bool { return singles[i].Members[0] < singles[j].Members[0] })

	tasks := make([]Task, 0, len(pairs)+len(clusters)+len(singles))
	tasks = append(tasks, pairs...)
	tasks = append(tasks, clusters...)
	tasks = append(tasks, singles...)

	p := &Plan{Edges: g.Edges, Tasks: tasks}
	if err := p.checkPartition(files); err != nil {
		return nil, err
	}
	return p, nil
}

// splitComponent breaks an oversize component into clusters seeded by the
// highest-fan-out remaining node plus its direct neighbors, path-ordered. A
// seed left without neighbors becomes a single.
func splitComponent(comp []string, g *graph.Graph, maxClusterSize int) (clusters, singles []Task) {
	remaining := make(map[string]bool, len(comp))
	for _, n := range comp {
		remaining[n] = true
	}

	for len(remaining) > 0 {
		seed := pickSeed(remaining, g)
		members := []string{seed}
		delete(remaining, seed)
		for _, nb := range g.Neighbors(seed) {
			if len(members) >= maxClusterSize {
				break
			}
			if remaining[nb] {
				members = append(members, nb)
				delete(remaining, nb)
			}
		}
		sort.Strings(members)
		if len(members) == 1 {
			singles = append(singles, singleTask(members[0]))
			continue
		}
		clusters = append(clusters, Task{
			Kind:      KindCluster,
			Members:   members,
			Rationale: fmt.Sprintf("split of oversize component, seeded by %s", seed),
		})
	}
	return clusters, singles
}

func pickSeed(remaining map[string]bool, g *graph.Graph) string {
	var seed string
	best := -1
	for node := range remaining {
		fo := g.FanOut(node)
		if fo > best || (fo == best && node < seed) {
			best = fo
			seed = node
		}
	}
	return seed
}

func singleTask(p string) Task {
	return Task{
		Kind:      KindSingle,
		Members:   []string{p},
		Rationale: "no stem pair and no in-tree dependencies to group with",
	}
}

// checkPartition verifies every catalogued file appears in exactly one task.
func (p *Plan) checkPartition(files []catalog.SourceFile) error {
	counts := make(map[string]int, len(files))
	for _, t := range p.Tasks {
		for _, m := range t.Members {
			counts[m]++
		}
	}
	for _, f := range files {
		switch counts[f.Path] {
		case 1:
		case 0:
			return fmt.Errorf("plan dropped file %s", f.Path)
		default:
			return fmt.Errorf("plan assigned file %s to %d tasks", f.Path, counts[f.Path])
		}
	}
	for m := range counts {
		found := false
		for _, f := range files {
			if f.Path == m {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("plan references uncatalogued file %s", m)
		}
	}
	return nil
}

// sortByExtension orders a stem group by extension, then by path, so the two
// pair members of a crowded stem are always the same.
func sortByExtension(group []string) {
	sort.Slice(group, func(i, j int) bool {
		ei, ej := path.Ext(group[i]), path.Ext(group[j])
		if ei != ej {
			return ei < ej
		}
		return group[i] < group[j]
	})
}

func stemOf(p string) string {
	return strings.TrimSuffix(path.Base(p), path.Ext(p))
}
