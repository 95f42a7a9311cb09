// Package synth turns each planned task into one intermediate markdown
// document, combining the members' notes with their structural facts.
package synth

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/report"
	"github.com/dusk-indust/chronicle/internal/structure"
)

// Synthesizer runs the intermediate-document stage.
type Synthesizer struct {
	Client llm.Client
	Retry  llm.RetryPolicy

	NotesDir    string
	OutDir      string
	Facts       map[string]structure.Facts
	Concurrency int
	Force       bool
}

// Run synthesizes one document per task, bounded by Concurrency. Failures are
// recorded per task without cancelling siblings; existing documents are
// skipped unless Force is set.
func (s *Synthesizer) Run(ctx context.Context, tasks []plan.Task) (*report.Report, error) {
	rep := &report.Report{Stage: "interdocs", Total: len(tasks)}
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Concurrency)

	for _, t := range tasks {
		g.Go(func() error {
			key := t.Key()
			docPath := filepath.Join(s.OutDir, key+".md")
			if !s.Force && artifact.Exists(docPath) {
				mu.Lock()
				rep.Skipped++
				mu.Unlock()
				return nil
			}

			if err := s.synthesizeOne(ctx, t, docPath); err != nil {
				slog.Warn("synthesis failed", "task", key, "error", err)
				mu.Lock()
				rep.Failures = append(rep.Failures, report.UnitFailure{Unit: key, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			slog.Debug("synthesized", "task", key)
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

func (s *Synthesizer) synthesizeOne(ctx context.Context, t plan.Task, docPath string) error {
	contextText := s.taskContext(t)

	doc, err := s.Retry.Complete(ctx, s.Client, contextText, instructions(t))
	if err != nil {
		return err
	}
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return fmt.Errorf("empty response")
	}

	return artifact.WriteFile(docPath, []byte(doc+"\n"))
}

// taskContext assembles the notes and structural facts of every member, in
// member order, into one context block.
func (s *Synthesizer) taskContext(t plan.Task) string {
	var sb strings.Builder
	for _, member := range t.Members {
		fmt.Fprintf(&sb, "=== File: %s ===\n\n", member)

		notesPath := filepath.Join(s.NotesDir, artifact.FileKey(member)+".md")
		if data, err := os.ReadFile(notesPath); err == nil {
			sb.WriteString("Notes:\n")
			sb.Write(data)
			sb.WriteString("\n")
		} else {
			sb.WriteString("Notes: (not available)\n\n")
		}

		if facts, ok := s.Facts[member]; ok {
			sb.WriteString(describeFacts(facts))
			sb.WriteString("\n")
		}
	}
	return sb.String()
}

func describeFacts(f structure.Facts) string {
	var sb strings.Builder
	sb.WriteString("Structural facts:\n")
	if len(f.Includes) > 0 {
		fmt.Fprintf(&sb, "- includes: %s\n", strings.Join(f.Includes, ", "))
	}
	for _, fn := range f.Functions {
		sig := fn.Signature
		if sig == "" {
			sig = fn.Name
		}
		fmt.Fprintf(&sb, "- function: %s\n", sig)
	}
	for _, cl := range f.Classes {
		if len(cl.Members) > 0 {
			fmt.Fprintf(&sb, "- class %s: %s\n", cl.Name, strings.Join(cl.Members, ", "))
		} else {
			fmt.Fprintf(&sb, "- class %s\n", cl.Name)
		}
	}
	return sb.String()
}

func instructions(t plan.Task) string {
	switch t.Kind {
	case plan.KindPair:
		return fmt.Sprintf(
			"The material above covers the header/implementation pair %s. Write one "+
				"markdown document explaining the component they implement together: its "+
				"public interface, its behavior, and how the two files divide the work. "+
				"Output only the document.",
			strings.Join(t.Members, " and "))
	case plan.KindCluster:
		return fmt.Sprintf(
			"The material above covers %d interdependent source files: %s. Write one "+
				"markdown document explaining the subsystem they form: each file's role, "+
				"the dependencies between them, and the overall flow. Output only the "+
				"document.",
			len(t.Members), strings.Join(t.Members, ", "))
	default:
		return fmt.Sprintf(
			"The material above covers the standalone source file %s. Write one "+
				"markdown document explaining what it provides and how the rest of the "+
				"system would use it. Output only the document.",
			t.Members[0])
	}
}
