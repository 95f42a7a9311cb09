// Package annotate produces one markdown notes file per catalogued source
// file, optionally enriched with a retrieval addendum.
package annotate

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/catalog"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/report"
	"github.com/dusk-indust/chronicle/internal/retrieval"
)

// noAddendumSentinel is the literal the model returns when the retrieved
// snippets add nothing beyond the initial notes.
const noAddendumSentinel = "NO_ADDENDUM_NEEDED"

// queryPrefixBytes bounds how much of a file feeds the retrieval query.
const queryPrefixBytes = 5000

// Annotator runs the per-file notes stage.
type Annotator struct {
	Client llm.Client
	Retry  llm.RetryPolicy

	// Index is optional. When nil the addendum pass is skipped entirely.
	Index retrieval.Index

	NotesDir     string
	Concurrency  int
	SnippetCount int
	Force        bool
}

// Run annotates every file, bounded by Concurrency. A failing file is
// recorded and its siblings keep going; existing notes are skipped unless
// Force is set.
func (a *Annotator) Run(ctx context.Context, files []catalog.SourceFile) (*report.Report, error) {
	rep := &report.Report{Stage: "annotate", Total: len(files)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Concurrency)

	for _, f := range files {
		g.Go(func() error {
			notePath := filepath.Join(a.NotesDir, artifact.FileKey(f.Path)+".md")
			if !a.Force && artifact.Exists(notePath) {
				mu.Lock()
				rep.Skipped++
				mu.Unlock()
				return nil
			}

			if err := a.annotateOne(ctx, f, notePath); err != nil {
				slog.Warn("annotation failed", "file", f.Path, "error", err)
				mu.Lock()
				rep.Failures = append(rep.Failures, report.UnitFailure{Unit: f.Path, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			slog.Debug("annotated", "file", f.Path)
			mu.Lock()
			rep.Succeeded++
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return rep, err
	}
	rep.Sort()
	return rep, nil
}

func (a *Annotator) annotateOne(ctx context.Context, f catalog.SourceFile, notePath string) error {
	notes, err := a.Retry.Complete(ctx, a.Client, string(f.Content), initialInstructions(f))
	if err != nil {
		return fmt.Errorf("initial notes: %w", err)
	}
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return fmt.Errorf("initial notes: empty response")
	}

	addendum, err := a.retrievalAddendum(ctx, f, notes)
	if err != nil {
		return err
	}
	if addendum != "" {
		notes += "\n\n## Retrieval Addendum\n\n" + addendum
	}

	return artifact.WriteFile(notePath, []byte(notes+"\n"))
}

// retrievalAddendum queries the index with the file's opening bytes and asks
// the model whether the snippets warrant an addendum. Index errors degrade to
// no addendum; enrichment is best-effort.
func (a *Annotator) retrievalAddendum(ctx context.Context, f catalog.SourceFile, notes string) (string, error) {
	if a.Index == nil || a.SnippetCount <= 0 {
		return "", nil
	}

	query := string(f.Content)
	if len(query) > queryPrefixBytes {
		query = query[:queryPrefixBytes]
	}

	snippets, err := a.Index.Query(ctx, query, a.SnippetCount)
	if err != nil {
		slog.Warn("retrieval query failed, skipping addendum", "file", f.Path, "error", err)
		return "", nil
	}
	if len(snippets) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for i, sn := range snippets {
		fmt.Fprintf(&sb, "Snippet %d:\n%s\n\n", i+1, sn.Text)
	}

	resp, err := a.Retry.Complete(ctx, a.Client, sb.String(), addendumInstructions(f, notes))
	if err != nil {
		return "", fmt.Errorf("addendum: %w", err)
	}
	resp = strings.TrimSpace(resp)
	if resp == "" || strings.Contains(resp, noAddendumSentinel) {
		return "", nil
	}
	return resp, nil
}

func initialInstructions(f catalog.SourceFile) string {
	target := f.Lines() / 10
	if target < 10 {
		target = 10
	}
	return fmt.Sprintf(
		"The text above is the full content of the source file %q.\n"+
			"Write concise markdown notes describing what this file does: its purpose, "+
			"its key functions and classes, and how it fits into the wider system.\n"+
			"Aim for roughly %d lines of markdown. Output only the notes.",
		f.Path, target)
}

func addendumInstructions(f catalog.SourceFile, notes string) string {
	return fmt.Sprintf(
		"The text above contains code snippets retrieved as potentially related to "+
			"the source file %q. The notes already written for that file are:\n\n%s\n\n"+
			"If the snippets reveal relationships or context the notes are missing, write "+
			"a short markdown addendum covering only that new information. If they add "+
			"nothing, respond with exactly %s.",
		f.Path, notes, noAddendumSentinel)
}
