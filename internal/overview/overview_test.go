package overview

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/structure"
)

type stubClient struct {
	lastContext string
	response    string
}

func (c *stubClient) Complete(_ context.Context, contextText, _ string) (string, error) {
	c.lastContext = contextText
	return c.response, nil
}

func newOverviewer(t *testing.T, client llm.Client) (*Overviewer, []plan.Task) {
	t.Helper()

	notesDir := t.TempDir()
	require.NoError(t, artifact.WriteFile(filepath.Join(notesDir, "a.cpp.md"), []byte("notes for a\n")))

	interdocsDir := t.TempDir()
	require.NoError(t, artifact.WriteFile(filepath.Join(interdocsDir, "a.cpp_single.md"), []byte("doc for a\n")))

	tasks := []plan.Task{{Kind: plan.KindSingle, Members: []string{"a.cpp"}}}

	o := &Overviewer{
		Client:       client,
		Retry:        llm.RetryPolicy{Attempts: 1, BackoffBase: time.Millisecond},
		NotesDir:     notesDir,
		InterdocsDir: interdocsDir,
		OutPath:      filepath.Join(t.TempDir(), "project_overview.md"),
		Facts: []structure.Facts{
			{Path: "a.cpp", Includes: []string{"b.h"}, Functions: []structure.Function{{Name: "run"}}},
		},
	}
	return o, tasks
}

func TestRunWritesOverview(t *testing.T) {
	client := &stubClient{response: "# Overview\nThe project does things."}
	o, tasks := newOverviewer(t, client)

	require.NoError(t, o.Run(context.Background(), tasks))

	data, err := os.ReadFile(o.OutPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "The project does things.")
}

func TestRunMergesWithSeparators(t *testing.T) {
	client := &stubClient{response: "overview"}
	o, tasks := newOverviewer(t, client)

	require.NoError(t, o.Run(context.Background(), tasks))

	assert.Contains(t, client.lastContext, "--- Content from: structural summary ---")
	assert.Contains(t, client.lastContext, "--- Content from: a.cpp_single.md ---")
	assert.Contains(t, client.lastContext, "--- Content from: a.cpp.md ---")
	assert.Contains(t, client.lastContext, "doc for a")
	assert.Contains(t, client.lastContext, "notes for a")
	assert.Contains(t, client.lastContext, "depends on b.h")
}

func TestRunSkipsWhenOverviewExists(t *testing.T) {
	client := &stubClient{response: "should not be called"}
	o, tasks := newOverviewer(t, client)
	require.NoError(t, artifact.WriteFile(o.OutPath, []byte("kept\n")))

	require.NoError(t, o.Run(context.Background(), tasks))

	data, err := os.ReadFile(o.OutPath)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))
	assert.Empty(t, client.lastContext)
}

func TestRunIncludesMetadataFiles(t *testing.T) {
	client := &stubClient{response: "overview"}
	o, tasks := newOverviewer(t, client)

	o.MetadataDir = t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(o.MetadataDir, "datasheet.txt"), []byte("timing constraints\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(o.MetadataDir, "ignored.pdf"), []byte("binary"), 0o644))

	require.NoError(t, o.Run(context.Background(), tasks))

	assert.Contains(t, client.lastContext, "--- Content from: datasheet.txt ---")
	assert.Contains(t, client.lastContext, "timing constraints")
	assert.NotContains(t, client.lastContext, "ignored.pdf")
}

func TestMergeTruncatesNotesFirst(t *testing.T) {
	client := &stubClient{response: "overview"}
	o, tasks := newOverviewer(t, client)

	// Budget fits the structural summary and the interdoc but not the notes.
	o.MaxContextBytes = 170

	require.NoError(t, o.Run(context.Background(), tasks))

	assert.Contains(t, client.lastContext, "structural summary")
	assert.Contains(t, client.lastContext, "doc for a")
	assert.NotContains(t, client.lastContext, "notes for a")
}

func TestMergeIsDeterministic(t *testing.T) {
	first := &stubClient{response: "overview"}
	o1, tasks := newOverviewer(t, first)
	require.NoError(t, o1.Run(context.Background(), tasks))

	// Same inputs through a fresh Overviewer produce the same merge.
	second := &stubClient{response: "overview"}
	o2 := &Overviewer{
		Client:       second,
		Retry:        o1.Retry,
		NotesDir:     o1.NotesDir,
		InterdocsDir: o1.InterdocsDir,
		OutPath:      filepath.Join(t.TempDir(), "project_overview.md"),
		Facts:        o1.Facts,
	}
	require.NoError(t, o2.Run(context.Background(), tasks))

	assert.Equal(t, first.lastContext, second.lastContext)
	assert.True(t, strings.HasPrefix(first.lastContext, "--- Content from: structural summary ---"))
}
