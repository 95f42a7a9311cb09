// Package report carries per-stage outcome summaries. Parallel stages record
// individual unit failures here instead of aborting their siblings.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/dusk-indust/chronicle/internal/artifact"
)

// UnitFailure records one failed unit of work within a stage.
type UnitFailure struct {
	Unit  string `json:"unit"`
	Error string `json:"error"`
}

// Report summarizes a stage run. A stage with failures still persists the
// artifacts of its successful units; the report is what a rerun consults.
type Report struct {
	Stage     string        `json:"stage"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Skipped   int           `json:"skipped"`
	Failures  []UnitFailure `json:"failures"`
}

// Failed reports whether any unit failed.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Sort orders failures by unit so reports are stable across runs.
func (r *Report) Sort() {
	sort.Slice(r.Failures, func(i, j int) bool {
		return r.Failures[i].Unit < r.Failures[j].Unit
	})
}

// Save writes the report atomically as JSON.
func Save(path string, r *Report) error {
	r.Sort()
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return artifact.WriteFile(path, append(data, '\n'))
}

// Load reads a previously saved report. A missing file yields (nil, nil).
func Load(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse report %s: %w", path, err)
	}
	return &r, nil
}
