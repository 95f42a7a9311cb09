// Package manual generates the final user manual: one table-of-contents call
// freezes the section list, then sections are emitted strictly in order, each
// persisted before the next begins. A crash at any point resumes from the
// first missing section.
package manual

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/llm"
)

// Artifact names under the manual directory.
const (
	TOCMarkdownName = "TABLE_OF_CONTENTS.md"
	TOCFrozenName   = "toc.json"
)

// State names the observable phases of manual generation.
type State string

const (
	StateNeedTOC  State = "NEED_TOC"
	StateTOCReady State = "TOC_READY"
	StateEmitting State = "EMITTING_SECTIONS"
	StateDone     State = "DONE"
)

// Status is a disk-derived snapshot of the manual stage. FailedSection is -1
// unless the last run aborted on a specific section.
type Status struct {
	State         State `json:"state"`
	Sections      int   `json:"sections"`
	Emitted       int   `json:"emitted"`
	FailedSection int   `json:"failed_section"`
}

// Generator runs the manual stage against a previously written overview.
type Generator struct {
	Client llm.Client
	Retry  llm.RetryPolicy

	Dir          string // manual artifact directory
	OverviewPath string
	WordBudget   int // target words per section
	Force        bool
}

// Run drives the stage to completion. With every section already on disk the
// run is a no-op unless Force is set. On a section failure the returned
// status carries the failing index so a rerun resumes exactly there.
func (g *Generator) Run(ctx context.Context) (*Status, error) {
	overview, err := os.ReadFile(g.OverviewPath)
	if err != nil {
		return nil, fmt.Errorf("manual: read overview: %w", err)
	}

	sections, raw, err := g.ensureTOC(ctx, string(overview))
	if err != nil {
		return nil, err
	}

	st := &Status{State: StateTOCReady, Sections: len(sections), FailedSection: -1}

	for _, sec := range sections {
		secPath := filepath.Join(g.Dir, sectionFileName(sec))
		if !g.Force && artifact.Exists(secPath) {
			st.Emitted++
			continue
		}

		st.State = StateEmitting
		slog.Info("emitting manual section", "index", sec.Index, "title", sec.Title)

		body, err := g.Retry.Complete(ctx, g.Client, string(overview),
			sectionInstructions(raw, sec, g.WordBudget))
		if err != nil {
			st.FailedSection = sec.Index
			return st, fmt.Errorf("manual: section %d (%s): %w", sec.Index, sec.Title, err)
		}
		body = strings.TrimSpace(body)
		if body == "" {
			st.FailedSection = sec.Index
			return st, fmt.Errorf("manual: section %d (%s): empty response", sec.Index, sec.Title)
		}

		if err := artifact.WriteFile(secPath, []byte(body+"\n")); err != nil {
			st.FailedSection = sec.Index
			return st, err
		}
		st.Emitted++
	}

	st.State = StateDone
	return st, nil
}

// ensureTOC returns the frozen section list, generating and persisting it on
// first run. A malformed response gets exactly one corrective re-issue.
func (g *Generator) ensureTOC(ctx context.Context, overview string) ([]Section, string, error) {
	frozenPath := filepath.Join(g.Dir, TOCFrozenName)
	rawPath := filepath.Join(g.Dir, TOCMarkdownName)

	if !g.Force && artifact.Exists(frozenPath) {
		sections, err := loadFrozenTOC(frozenPath)
		if err != nil {
			return nil, "", err
		}
		raw, err := os.ReadFile(rawPath)
		if err != nil {
			return nil, "", fmt.Errorf("manual: read table of contents: %w", err)
		}
		return sections, string(raw), nil
	}

	raw, err := g.Retry.Complete(ctx, g.Client, overview, tocInstructions(g.WordBudget))
	if err != nil {
		return nil, "", fmt.Errorf("manual: table of contents: %w", err)
	}

	sections, parseErr := ParseTOC(raw)
	if parseErr != nil {
		slog.Warn("table of contents unparseable, re-issuing", "error", parseErr)
		raw, err = g.Retry.Complete(ctx, g.Client, overview, correctiveTOCInstructions(g.WordBudget))
		if err != nil {
			return nil, "", fmt.Errorf("manual: table of contents re-issue: %w", err)
		}
		sections, parseErr = ParseTOC(raw)
		if parseErr != nil {
			return nil, "", parseErr
		}
	}

	if err := artifact.WriteFile(rawPath, []byte(strings.TrimSpace(raw)+"\n")); err != nil {
		return nil, "", err
	}
	if err := saveFrozenTOC(frozenPath, sections); err != nil {
		return nil, "", err
	}
	return sections, raw, nil
}

// Scan derives the stage status from the artifacts alone.
func (g *Generator) Scan() (*Status, error) {
	st := &Status{State: StateNeedTOC, FailedSection: -1}

	frozenPath := filepath.Join(g.Dir, TOCFrozenName)
	if !artifact.Exists(frozenPath) {
		return st, nil
	}
	sections, err := loadFrozenTOC(frozenPath)
	if err != nil {
		return nil, err
	}
	st.Sections = len(sections)
	st.State = StateTOCReady

	for _, sec := range sections {
		if !artifact.Exists(filepath.Join(g.Dir, sectionFileName(sec))) {
			break
		}
		st.Emitted++
	}
	switch {
	case st.Emitted == len(sections):
		st.State = StateDone
	case st.Emitted > 0:
		st.State = StateEmitting
	}
	return st, nil
}

func sectionFileName(sec Section) string {
	return fmt.Sprintf("%03d-%s.md", sec.Index+1, artifact.Slug(sec.Title))
}

func loadFrozenTOC(path string) ([]Section, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manual: read frozen toc: %w", err)
	}
	var sections []Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil, fmt.Errorf("manual: parse frozen toc: %w", err)
	}
	if len(sections) == 0 {
		return nil, &MalformedTOCError{Reason: "frozen toc has no sections"}
	}
	return sections, nil
}

func saveFrozenTOC(path string, sections []Section) error {
	data, err := json.MarshalIndent(sections, "", "  ")
	if err != nil {
		return fmt.Errorf("manual: marshal frozen toc: %w", err)
	}
	return artifact.WriteFile(path, append(data, '\n'))
}

func tocInstructions(wordBudget int) string {
	return fmt.Sprintf(
		"The text above is a complete overview of one software project. Design a "+
			"user manual for it: output a markdown table of contents where each H2 "+
			"header is one section title. Each section will later be expanded to "+
			"roughly %d words, so choose sections of that weight. Output only the "+
			"table of contents.",
		wordBudget)
}

func correctiveTOCInstructions(wordBudget int) string {
	return tocInstructions(wordBudget) +
		"\nFormat strictly: one markdown H2 header (## Title) per section, nothing else."
}

func sectionInstructions(toc string, sec Section, wordBudget int) string {
	return fmt.Sprintf(
		"The text above is the project overview. The manual's full table of contents "+
			"is:\n\n%s\n\nWrite the complete content of the section titled %q. Aim for "+
			"roughly %d words of markdown, consistent in tone with a technical user "+
			"manual. Do not repeat the table of contents or other sections. Output only "+
			"the section content.",
		strings.TrimSpace(toc), sec.Title, wordBudget)
}
