package synth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
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
	mu sync.Mutex
	fn func(contextText, instructions string) (string, error)
}

func (c *stubClient) Complete(_ context.Context, contextText, instructions string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fn(contextText, instructions)
}

func testTasks() []plan.Task {
	return []plan.Task{
		{Kind: plan.KindPair, Members: []string{"cts/Clock.cpp", "cts/Clock.h"}},
		{Kind: plan.KindSingle, Members: []string{"util/lone.cpp"}},
	}
}

func newSynthesizer(t *testing.T, client llm.Client) *Synthesizer {
	t.Helper()
	notesDir := t.TempDir()
	for key, notes := range map[string]string{
		"cts__Clock.cpp": "Implements the clock.",
		"cts__Clock.h":   "Declares the clock.",
		"util__lone.cpp": "A standalone helper.",
	} {
		require.NoError(t, artifact.WriteFile(filepath.Join(notesDir, key+".md"), []byte(notes+"\n")))
	}
	return &Synthesizer{
		Client:   client,
		Retry:    llm.RetryPolicy{Attempts: 1, BackoffBase: time.Millisecond},
		NotesDir: notesDir,
		OutDir:   t.TempDir(),
		Facts: map[string]structure.Facts{
			"cts/Clock.h": {
				Path:      "cts/Clock.h",
				Functions: []structure.Function{{Name: "tick", Signature: "tick()"}},
			},
		},
		Concurrency: 2,
	}
}

func TestRunWritesOneDocumentPerTask(t *testing.T) {
	client := &stubClient{fn: func(_, _ string) (string, error) { return "a document", nil }}
	s := newSynthesizer(t, client)

	rep, err := s.Run(context.Background(), testTasks())
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Succeeded)

	assert.True(t, artifact.Exists(filepath.Join(s.OutDir, "cts__Clock_pair.md")))
	assert.True(t, artifact.Exists(filepath.Join(s.OutDir, "util__lone.cpp_single.md")))
}

func TestRunFeedsNotesAndFactsToModel(t *testing.T) {
	var pairContext string
	client := &stubClient{fn: func(contextText, instructions string) (string, error) {
		if strings.Contains(instructions, "header/implementation pair") {
			pairContext = contextText
		}
		return "doc", nil
	}}
	s := newSynthesizer(t, client)

	_, err := s.Run(context.Background(), testTasks())
	require.NoError(t, err)

	assert.Contains(t, pairContext, "Implements the clock.")
	assert.Contains(t, pairContext, "Declares the clock.")
	assert.Contains(t, pairContext, "tick()")
}

func TestRunSkipsExistingDocuments(t *testing.T) {
	client := &stubClient{fn: func(_, _ string) (string, error) { return "new doc", nil }}
	s := newSynthesizer(t, client)

	existing := filepath.Join(s.OutDir, "cts__Clock_pair.md")
	require.NoError(t, artifact.WriteFile(existing, []byte("kept\n")))

	rep, err := s.Run(context.Background(), testTasks())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Skipped)
	assert.Equal(t, 1, rep.Succeeded)

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	assert.Equal(t, "kept\n", string(data))
}

func TestRunIsolatesTaskFailures(t *testing.T) {
	client := &stubClient{fn: func(_, instructions string) (string, error) {
		if strings.Contains(instructions, "standalone") {
			return "", errors.New("model refused")
		}
		return "doc", nil
	}}
	s := newSynthesizer(t, client)

	rep, err := s.Run(context.Background(), testTasks())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Succeeded)
	require.Len(t, rep.Failures, 1)
	assert.Equal(t, "util__lone.cpp_single", rep.Failures[0].Unit)

	assert.True(t, artifact.Exists(filepath.Join(s.OutDir, "cts__Clock_pair.md")))
	assert.False(t, artifact.Exists(filepath.Join(s.OutDir, "util__lone.cpp_single.md")))
}

func TestRunToleratesMissingNotes(t *testing.T) {
	client := &stubClient{fn: func(contextText, _ string) (string, error) {
		assert.Contains(t, contextText, "(not available)")
		return "doc", nil
	}}
	s := newSynthesizer(t, client)
	s.NotesDir = t.TempDir() // empty, no notes at all

	rep, err := s.Run(context.Background(), testTasks()[1:])
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Succeeded)
}
