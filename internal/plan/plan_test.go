package plan

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/chronicle/internal/catalog"
	"github.com/dusk-indust/chronicle/internal/graph"
	"github.com/dusk-indust/chronicle/internal/structure"
)

func sources(paths ...string) []catalog.SourceFile {
	var files []catalog.SourceFile
	for _, p := range paths {
		ext := ""
		for i := len(p) - 1; i >= 0; i-- {
			if p[i] == '.' {
				ext = p[i:]
				break
			}
			if p[i] == '/' {
				break
			}
		}
		files = append(files, catalog.SourceFile{Path: p, Ext: ext})
	}
	return files
}

func buildGraph(fs ...structure.Facts) *graph.Graph {
	return graph.Build(fs)
}

func TestBuildPairsAndSingles(t *testing.T) {
	// b.cpp depends on a.h, but a.h is consumed by the pair, so b.cpp has
	// nothing left to cluster with and becomes a single.
	files := sources("a.h", "a.cpp", "b.cpp")
	g := buildGraph(
		structure.Facts{Path: "a.h"},
		structure.Facts{Path: "a.cpp", Includes: []string{"a.h"}},
		structure.Facts{Path: "b.cpp", Includes: []string{"a.h"}},
	)

	p, err := Build(files, g, 6)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 2)

	assert.Equal(t, KindPair, p.Tasks[0].Kind)
	assert.Equal(t, []string{"a.cpp", "a.h"}, p.Tasks[0].Members)
	assert.Equal(t, KindSingle, p.Tasks[1].Kind)
	assert.Equal(t, []string{"b.cpp"}, p.Tasks[1].Members)
}

func TestBuildClustersConnectedResidualFiles(t *testing.T) {
	files := sources("x.cpp", "y.cpp", "z.cpp", "lone.cpp")
	g := buildGraph(
		structure.Facts{Path: "x.cpp", Includes: []string{"y.cpp"}},
		structure.Facts{Path: "y.cpp", Includes: []string{"z.cpp"}},
		structure.Facts{Path: "z.cpp"},
		structure.Facts{Path: "lone.cpp"},
	)

	p, err := Build(files, g, 6)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 2)

	assert.Equal(t, KindCluster, p.Tasks[0].Kind)
	assert.Equal(t, []string{"x.cpp", "y.cpp", "z.cpp"}, p.Tasks[0].Members)
	assert.Equal(t, KindSingle, p.Tasks[1].Kind)
}

func TestBuildCrowdedStemPairsSmallestExtensions(t *testing.T) {
	files := sources("clock.cpp", "clock.h", "clock.i")
	g := buildGraph(
		structure.Facts{Path: "clock.cpp"},
		structure.Facts{Path: "clock.h"},
		structure.Facts{Path: "clock.i"},
	)

	p, err := Build(files, g, 6)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 2)

	// ".cpp" < ".h" < ".i", so the pair takes .cpp and .h.
	assert.Equal(t, KindPair, p.Tasks[0].Kind)
	assert.Equal(t, []string{"clock.cpp", "clock.h"}, p.Tasks[0].Members)
	assert.Equal(t, []string{"clock.i"}, p.Tasks[1].Members)
}

func TestBuildSplitsOversizeComponent(t *testing.T) {
	// hub references five files; with a max cluster size of 3 the component
	// must split around the highest-fan-out seed.
	files := sources("hub.cpp", "a.cpp", "b.cpp", "c.cpp", "d.cpp", "e.cpp")
	g := buildGraph(
		structure.Facts{Path: "hub.cpp", Includes: []string{"a.cpp", "b.cpp", "c.cpp", "d.cpp", "e.cpp"}},
		structure.Facts{Path: "a.cpp"},
		structure.Facts{Path: "b.cpp"},
		structure.Facts{Path: "c.cpp"},
		structure.Facts{Path: "d.cpp"},
		structure.Facts{Path: "e.cpp"},
	)

	p, err := Build(files, g, 3)
	require.NoError(t, err)

	for _, task := range p.Tasks {
		assert.LessOrEqual(t, len(task.Members), 3)
	}

	// hub.cpp has the highest fan-out, so its cluster forms first and takes
	// its two smallest neighbors.
	require.Equal(t, KindCluster, p.Tasks[0].Kind)
	assert.Equal(t, []string{"a.cpp", "b.cpp", "hub.cpp"}, p.Tasks[0].Members)
}

func TestBuildPartitionCoversEveryFileOnce(t *testing.T) {
	files := sources("a.h", "a.cpp", "b.h", "b.cpp", "c.cpp", "d.cpp", "e.cpp")
	g := buildGraph(
		structure.Facts{Path: "a.h"},
		structure.Facts{Path: "a.cpp", Includes: []string{"a.h", "b.h"}},
		structure.Facts{Path: "b.h"},
		structure.Facts{Path: "b.cpp", Includes: []string{"b.h"}},
		structure.Facts{Path: "c.cpp", Includes: []string{"d.cpp"}},
		structure.Facts{Path: "d.cpp"},
		structure.Facts{Path: "e.cpp"},
	)

	p, err := Build(files, g, 6)
	require.NoError(t, err)

	seen := make(map[string]int)
	for _, task := range p.Tasks {
		for _, m := range task.Members {
			seen[m]++
		}
	}
	for _, f := range files {
		assert.Equal(t, 1, seen[f.Path], "file %s", f.Path)
	}
}

func TestBuildOrdersPairsClustersSingles(t *testing.T) {
	files := sources("z.h", "z.cpp", "m.cpp", "n.cpp", "a.cpp")
	g := buildGraph(
		structure.Facts{Path: "z.h"},
		structure.Facts{Path: "z.cpp", Includes: []string{"z.h"}},
		structure.Facts{Path: "m.cpp", Includes: []string{"n.cpp"}},
		structure.Facts{Path: "n.cpp"},
		structure.Facts{Path: "a.cpp"},
	)

	p, err := Build(files, g, 6)
	require.NoError(t, err)
	require.Len(t, p.Tasks, 3)

	assert.Equal(t, KindPair, p.Tasks[0].Kind)
	assert.Equal(t, KindCluster, p.Tasks[1].Kind)
	assert.Equal(t, KindSingle, p.Tasks[2].Kind)
}

func TestBuildIsDeterministic(t *testing.T) {
	files := sources("a.h", "a.cpp", "b.cpp", "c.cpp")
	mk := func() *graph.Graph {
		return buildGraph(
			structure.Facts{Path: "a.h"},
			structure.Facts{Path: "a.cpp", Includes: []string{"a.h"}},
			structure.Facts{Path: "b.cpp", Includes: []string{"c.cpp"}},
			structure.Facts{Path: "c.cpp"},
		)
	}

	first, err := Build(files, mk(), 6)
	require.NoError(t, err)
	second, err := Build(files, mk(), 6)
	require.NoError(t, err)
	assert.Equal(t, first.Tasks, second.Tasks)
}

func TestTaskKey(t *testing.T) {
	tests := []struct {
		name string
		task Task
		want string
	}{
		{
			"pair uses shared stem",
			Task{Kind: KindPair, Members: []string{"cts/Clock.cpp", "cts/Clock.h"}},
			"cts__Clock_pair",
		},
		{
			"cluster uses first stem",
			Task{Kind: KindCluster, Members: []string{"a/x.cpp", "a/y.cpp"}},
			"a__x_cluster",
		},
		{
			"single keeps extension",
			Task{Kind: KindSingle, Members: []string{"util/lone.cpp"}},
			"util__lone.cpp_single",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.task.Key())
		})
	}
}
