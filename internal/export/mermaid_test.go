package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dusk-indust/chronicle/internal/graph"
)

func TestMermaid(t *testing.T) {
	g := graph.New(
		[]string{"cts/Clock.cpp", "cts/Clock.h"},
		[]graph.Edge{{From: "cts/Clock.cpp", To: "cts/Clock.h"}},
	)

	out := Mermaid(g)

	assert.True(t, strings.HasPrefix(out, "graph TD\n"))
	assert.Contains(t, out, `n0["cts/Clock.cpp"]`)
	assert.Contains(t, out, `n1["cts/Clock.h"]`)
	assert.Contains(t, out, "n0 --> n1")
}

func TestMermaidEmptyGraph(t *testing.T) {
	out := Mermaid(graph.New(nil, nil))
	assert.Equal(t, "graph TD\n", out)
}
