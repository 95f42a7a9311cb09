package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/catalog"
	"github.com/dusk-indust/chronicle/internal/config"
	"github.com/dusk-indust/chronicle/internal/manual"
	"github.com/dusk-indust/chronicle/internal/plan"
)

// StageStatus summarizes one stage's artifact state.
type StageStatus struct {
	Stage    string `json:"stage"`
	Complete bool   `json:"complete"`
	Detail   string `json:"detail"`
}

// Status is the artifact-derived state of an output directory. It is computed
// by scanning alone, never from in-process state, so it stays truthful after
// a crash.
type Status struct {
	Stages  []StageStatus `json:"stages"`
	LastRun *RunRecord    `json:"last_run,omitempty"`
}

// ScanStatus inspects the output directory and reports per-stage progress.
func ScanStatus(cfg *config.Config) (*Status, error) {
	l := Layout{Root: cfg.OutputDir}
	st := &Status{}

	files, err := catalog.Scan(cfg.SourceRoot, cfg.Extensions)
	if err != nil {
		return nil, err
	}

	notes := countFiles(l.NotesDir(), ".md")
	st.add(StageAnnotate, notes >= len(files) && len(files) > 0,
		fmt.Sprintf("%d/%d notes", notes, len(files)))

	st.add(StageAnalyze, artifact.Exists(l.StructurePath()), artifactDetail(l.StructurePath()))

	taskCount := -1
	if data, err := os.ReadFile(l.PlanPath()); err == nil {
		var p plan.Plan
		if err := json.Unmarshal(data, &p); err == nil {
			taskCount = len(p.Tasks)
		}
	}
	if taskCount >= 0 {
		st.add(StagePlan, true, fmt.Sprintf("%d tasks", taskCount))
	} else {
		st.add(StagePlan, false, "plan.json missing")
	}

	docs := countFiles(l.InterdocsDir(), ".md")
	st.add(StageInterdocs, taskCount >= 0 && docs >= taskCount,
		fmt.Sprintf("%d/%d documents", docs, max(taskCount, 0)))

	st.add(StageOverview, artifact.Exists(l.OverviewPath()), artifactDetail(l.OverviewPath()))

	ms, err := (&manual.Generator{Dir: l.ManualDir()}).Scan()
	if err != nil {
		return nil, err
	}
	st.add(StageManual, ms.State == manual.StateDone,
		fmt.Sprintf("%s, %d/%d sections", ms.State, ms.Emitted, ms.Sections))

	if m, err := loadManifest(l.ManifestPath()); err == nil && len(m.Runs) > 0 {
		last := m.Runs[len(m.Runs)-1]
		st.LastRun = &last
	}
	return st, nil
}

// String renders the status as an aligned plain-text table.
func (s *Status) String() string {
	var sb strings.Builder
	for _, st := range s.Stages {
		mark := " "
		if st.Complete {
			mark = "x"
		}
		fmt.Fprintf(&sb, "[%s] %-10s %s\n", mark, st.Stage, st.Detail)
	}
	if s.LastRun != nil {
		fmt.Fprintf(&sb, "last run: %s (%s)\n", s.LastRun.ID, s.LastRun.Outcome)
	}
	return sb.String()
}

func (s *Status) add(stage Stage, complete bool, detail string) {
	s.Stages = append(s.Stages, StageStatus{Stage: stage.String(), Complete: complete, Detail: detail})
}

func countFiles(dir, ext string) int {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0
	}
	n := 0
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ext {
			n++
		}
	}
	return n
}

func artifactDetail(path string) string {
	if artifact.Exists(path) {
		return filepath.Base(path) + " present"
	}
	return filepath.Base(path) + " missing"
}
