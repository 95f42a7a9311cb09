package mcptools

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/config"
	"github.com/dusk-indust/chronicle/internal/graph"
	"github.com/dusk-indust/chronicle/internal/pipeline"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/retrieval"
)

type stubIndex struct {
	snippets []retrieval.Snippet
	lastText string
	lastK    int
}

func (s *stubIndex) Query(_ context.Context, text string, k int) ([]retrieval.Snippet, error) {
	s.lastText = text
	s.lastK = k
	return s.snippets, nil
}

func testService(t *testing.T, index retrieval.Index) (*PipelineService, *config.Config) {
	t.Helper()

	srcRoot := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(srcRoot, "a.cpp"), []byte("int main() {}\n"), 0o644))

	cfg := config.Default()
	cfg.SourceRoot = srcRoot
	cfg.OutputDir = t.TempDir()
	cfg.Extensions = []string{".cpp"}

	return NewPipelineService(cfg, index), cfg
}

func writePlan(t *testing.T, cfg *config.Config, p plan.Plan) {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	planPath := pipeline.Layout{Root: cfg.OutputDir}.PlanPath()
	require.NoError(t, artifact.WriteFile(planPath, data))
}

func TestPipelineStatus(t *testing.T) {
	svc, _ := testService(t, nil)

	_, out, err := svc.PipelineStatus(context.Background(), nil, PipelineStatusInput{})
	require.NoError(t, err)
	require.Len(t, out.Status.Stages, 6)
	assert.Equal(t, "annotate", out.Status.Stages[0].Stage)
	assert.False(t, out.Status.Stages[0].Complete)
}

func TestRetrievalQuery(t *testing.T) {
	index := &stubIndex{snippets: []retrieval.Snippet{{Text: "func schedule()", Score: 0.8}}}
	svc, _ := testService(t, index)

	_, out, err := svc.RetrievalQuery(context.Background(), nil, RetrievalQueryInput{Text: "scheduling", TopK: 5})
	require.NoError(t, err)
	require.Len(t, out.Snippets, 1)
	assert.Equal(t, "scheduling", index.lastText)
	assert.Equal(t, 5, index.lastK)
}

func TestRetrievalQueryDefaultsTopK(t *testing.T) {
	index := &stubIndex{}
	svc, _ := testService(t, index)

	_, _, err := svc.RetrievalQuery(context.Background(), nil, RetrievalQueryInput{Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, 3, index.lastK)
}

func TestRetrievalQueryValidation(t *testing.T) {
	svc, _ := testService(t, &stubIndex{})
	_, _, err := svc.RetrievalQuery(context.Background(), nil, RetrievalQueryInput{})
	assert.Error(t, err)

	noIndex, _ := testService(t, nil)
	_, _, err = noIndex.RetrievalQuery(context.Background(), nil, RetrievalQueryInput{Text: "x"})
	assert.Error(t, err)
}

func TestFileDependencies(t *testing.T) {
	svc, cfg := testService(t, nil)
	writePlan(t, cfg, plan.Plan{
		Edges: []graph.Edge{
			{From: "a.cpp", To: "b.h"},
			{From: "c.cpp", To: "a.cpp"},
			{From: "c.cpp", To: "b.h"},
		},
	})

	_, out, err := svc.FileDependencies(context.Background(), nil, FileDependenciesInput{Path: "a.cpp"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b.h"}, out.DependsOn)
	assert.Equal(t, []string{"c.cpp"}, out.DependedBy)
}

func TestFileDependenciesWithoutPlan(t *testing.T) {
	svc, _ := testService(t, nil)
	_, _, err := svc.FileDependencies(context.Background(), nil, FileDependenciesInput{Path: "a.cpp"})
	assert.Error(t, err)
}
