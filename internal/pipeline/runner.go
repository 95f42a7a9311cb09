// Package pipeline sequences the six document-synthesis stages over a source
// tree. Every stage persists its artifacts before the next starts, so an
// interrupted run resumes from the last completed boundary by rescanning the
// output directory.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/chronicle/internal/annotate"
	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/catalog"
	"github.com/dusk-indust/chronicle/internal/config"
	"github.com/dusk-indust/chronicle/internal/export"
	"github.com/dusk-indust/chronicle/internal/graph"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/manual"
	"github.com/dusk-indust/chronicle/internal/overview"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/report"
	"github.com/dusk-indust/chronicle/internal/retrieval"
	"github.com/dusk-indust/chronicle/internal/structure"
	"github.com/dusk-indust/chronicle/internal/synth"
)

// Runner wires the stage implementations to their collaborators and drives
// them in order.
type Runner struct {
	Config    *config.Config
	Client    llm.Client
	Index     retrieval.Index // optional
	Extractor structure.Extractor

	// Only restricts the run to a single stage. Its prerequisites must
	// already be on disk.
	Only *Stage

	Force bool
}

// Run executes the selected stages and appends a run record to the manifest.
// The first stage error halts the run; completed artifacts stay on disk for
// the next invocation to resume from.
func (r *Runner) Run(ctx context.Context) error {
	rec := newRunRecord()

	runErr := r.runStages(ctx, &rec)

	rec.FinishedAt = time.Now().UTC()
	if runErr != nil {
		rec.Outcome = "failed"
		rec.Error = runErr.Error()
	} else {
		rec.Outcome = "completed"
	}
	if err := appendRunRecord(r.layout().ManifestPath(), rec); err != nil {
		slog.Warn("manifest update failed", "error", err)
	}
	return runErr
}

func (r *Runner) runStages(ctx context.Context, rec *RunRecord) error {
	for _, stage := range Stages() {
		if r.Only != nil && stage != *r.Only {
			continue
		}
		slog.Info("stage starting", "stage", stage.String())
		started := time.Now()

		var err error
		switch stage {
		case StageAnnotate:
			err = r.runAnnotate(ctx)
		case StageAnalyze:
			err = r.runAnalyze(ctx)
		case StagePlan:
			err = r.runPlan()
		case StageInterdocs:
			err = r.runInterdocs(ctx)
		case StageOverview:
			err = r.runOverview(ctx)
		case StageManual:
			err = r.runManual(ctx)
		}
		if err != nil {
			return &StageError{Stage: stage, Err: err}
		}

		rec.Stages = append(rec.Stages, stage.String())
		slog.Info("stage finished", "stage", stage.String(), "elapsed", time.Since(started).Round(time.Millisecond))
	}
	return nil
}

func (r *Runner) layout() Layout { return Layout{Root: r.Config.OutputDir} }

func (r *Runner) retry() llm.RetryPolicy {
	return llm.RetryPolicy{
		Attempts:    r.Config.RetryAttempts,
		BackoffBase: r.Config.RetryBackoffBase,
	}
}

func (r *Runner) scanSource() ([]catalog.SourceFile, error) {
	files, err := catalog.Scan(r.Config.SourceRoot, r.Config.Extensions)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no source files under %s matching %v", r.Config.SourceRoot, r.Config.Extensions)
	}
	return files, nil
}

func (r *Runner) runAnnotate(ctx context.Context) error {
	files, err := r.scanSource()
	if err != nil {
		return err
	}

	a := &annotate.Annotator{
		Client:       r.Client,
		Retry:        r.retry(),
		Index:        r.Index,
		NotesDir:     r.layout().NotesDir(),
		Concurrency:  r.Config.Concurrency,
		SnippetCount: r.Config.SnippetCount,
		Force:        r.Force,
	}
	rep, err := a.Run(ctx, files)
	if err != nil {
		return err
	}
	if err := report.Save(r.layout().NotesFailures(), rep); err != nil {
		return err
	}
	if rep.Failed() {
		return fmt.Errorf("%d of %d files failed annotation", len(rep.Failures), rep.Total)
	}
	return nil
}

func (r *Runner) runAnalyze(ctx context.Context) error {
	structPath := r.layout().StructurePath()
	if !r.Force && artifact.Exists(structPath) {
		slog.Info("structure artifact present, skipping analysis")
		return nil
	}

	files, err := r.scanSource()
	if err != nil {
		return err
	}

	facts := make([]structure.Facts, len(files))
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.Config.Concurrency)
	for i, f := range files {
		g.Go(func() error {
			fa := r.Extractor.Parse(ctx, f)
			mu.Lock()
			facts[i] = fa
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(facts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal structure: %w", err)
	}
	return artifact.WriteFile(structPath, append(data, '\n'))
}

func (r *Runner) runPlan() error {
	planPath := r.layout().PlanPath()
	if !r.Force && artifact.Exists(planPath) {
		slog.Info("plan artifact present, skipping planning")
		return nil
	}

	files, err := r.scanSource()
	if err != nil {
		return err
	}
	facts, err := r.loadFacts()
	if err != nil {
		return err
	}

	depGraph := graph.Build(facts)
	p, err := plan.Build(files, depGraph, r.Config.MaxClusterSize)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal plan: %w", err)
	}
	if err := artifact.WriteFile(planPath, append(data, '\n')); err != nil {
		return err
	}
	return artifact.WriteFile(r.layout().GraphDiagramPath(), []byte(export.Mermaid(depGraph)))
}

func (r *Runner) runInterdocs(ctx context.Context) error {
	p, err := r.loadPlan()
	if err != nil {
		return err
	}
	facts, err := r.loadFacts()
	if err != nil {
		return err
	}

	s := &synth.Synthesizer{
		Client:      r.Client,
		Retry:       r.retry(),
		NotesDir:    r.layout().NotesDir(),
		OutDir:      r.layout().InterdocsDir(),
		Facts:       factsByPath(facts),
		Concurrency: r.Config.Concurrency,
		Force:       r.Force,
	}
	rep, err := s.Run(ctx, p.Tasks)
	if err != nil {
		return err
	}
	if err := report.Save(r.layout().InterdocsFailures(), rep); err != nil {
		return err
	}
	if rep.Failed() {
		return fmt.Errorf("%d of %d tasks failed synthesis", len(rep.Failures), rep.Total)
	}
	return nil
}

func (r *Runner) runOverview(ctx context.Context) error {
	p, err := r.loadPlan()
	if err != nil {
		return err
	}
	facts, err := r.loadFacts()
	if err != nil {
		return err
	}

	o := &overview.Overviewer{
		Client:       r.Client,
		Retry:        r.retry(),
		NotesDir:     r.layout().NotesDir(),
		InterdocsDir: r.layout().InterdocsDir(),
		MetadataDir:  r.Config.MetadataDir,
		OutPath:      r.layout().OverviewPath(),
		Facts:        facts,
		Force:        r.Force,
	}
	return o.Run(ctx, p.Tasks)
}

func (r *Runner) runManual(ctx context.Context) error {
	g := &manual.Generator{
		Client:       r.Client,
		Retry:        r.retry(),
		Dir:          r.layout().ManualDir(),
		OverviewPath: r.layout().OverviewPath(),
		WordBudget:   r.Config.SectionWordBudget,
		Force:        r.Force,
	}
	_, err := g.Run(ctx)
	return err
}

func (r *Runner) loadFacts() ([]structure.Facts, error) {
	data, err := os.ReadFile(r.layout().StructurePath())
	if err != nil {
		return nil, fmt.Errorf("structure artifact unavailable, run the analyze stage first: %w", err)
	}
	var facts []structure.Facts
	if err := json.Unmarshal(data, &facts); err != nil {
		return nil, fmt.Errorf("parse structure artifact: %w", err)
	}
	return facts, nil
}

func (r *Runner) loadPlan() (*plan.Plan, error) {
	data, err := os.ReadFile(r.layout().PlanPath())
	if err != nil {
		return nil, fmt.Errorf("plan artifact unavailable, run the plan stage first: %w", err)
	}
	var p plan.Plan
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse plan artifact: %w", err)
	}
	return &p, nil
}

func factsByPath(facts []structure.Facts) map[string]structure.Facts {
	m := make(map[string]structure.Facts, len(facts))
	for _, f := range facts {
		m[f.Path] = f
	}
	return m
}
