// Package overview merges the per-task documents, notes, and structural
// summary into one bounded context and asks the model for a project-wide
// overview document.
package overview

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/dusk-indust/chronicle/internal/artifact"
	"github.com/dusk-indust/chronicle/internal/llm"
	"github.com/dusk-indust/chronicle/internal/plan"
	"github.com/dusk-indust/chronicle/internal/structure"
)

// DefaultMaxContextBytes bounds the merged context handed to the model.
const DefaultMaxContextBytes = 400_000

// Overviewer runs the overview stage. Unlike the parallel stages this is one
// logical call; a failure fails the stage, and a rerun repeats the call.
type Overviewer struct {
	Client llm.Client
	Retry  llm.RetryPolicy

	NotesDir     string
	InterdocsDir string
	MetadataDir  string
	OutPath      string

	Facts           []structure.Facts
	MaxContextBytes int
	Force           bool
}

// block is one labeled chunk of merged context. Tier orders truncation:
// higher tiers are cut first when the merge exceeds the byte budget.
type block struct {
	name string
	body string
	tier int
}

const (
	tierStructure = iota
	tierInterdocs
	tierMetadata
	tierNotes
)

// Run produces the overview document. An existing document short-circuits
// unless Force is set.
func (o *Overviewer) Run(ctx context.Context, tasks []plan.Task) error {
	if !o.Force && artifact.Exists(o.OutPath) {
		return nil
	}

	merged := o.merge(tasks)
	doc, err := o.Retry.Complete(ctx, o.Client, merged, overviewInstructions)
	if err != nil {
		return fmt.Errorf("overview: %w", err)
	}
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return fmt.Errorf("overview: empty response")
	}

	return artifact.WriteFile(o.OutPath, []byte(doc+"\n"))
}

// merge assembles the context blocks in a fixed order: structural summary,
// then per-task documents in plan order, then metadata, then notes. When the
// total exceeds the budget, whole blocks are dropped lowest-value first
// (notes, then metadata, then interdocs) until the merge fits.
func (o *Overviewer) merge(tasks []plan.Task) string {
	var blocks []block

	if len(o.Facts) > 0 {
		blocks = append(blocks, block{
			name: "structural summary",
			body: structuralSummary(o.Facts),
			tier: tierStructure,
		})
	}

	for _, t := range tasks {
		p := filepath.Join(o.InterdocsDir, t.Key()+".md")
		if data, err := os.ReadFile(p); err == nil {
			blocks = append(blocks, block{name: t.Key() + ".md", body: string(data), tier: tierInterdocs})
		}
	}

	for _, name := range metadataFiles(o.MetadataDir) {
		if data, err := os.ReadFile(filepath.Join(o.MetadataDir, name)); err == nil {
			blocks = append(blocks, block{name: name, body: string(data), tier: tierMetadata})
		}
	}

	for _, name := range noteFiles(o.NotesDir) {
		if data, err := os.ReadFile(filepath.Join(o.NotesDir, name)); err == nil {
			blocks = append(blocks, block{name: name, body: string(data), tier: tierNotes})
		}
	}

	budget := o.MaxContextBytes
	if budget <= 0 {
		budget = DefaultMaxContextBytes
	}
	blocks = fit(blocks, budget)

	var sb strings.Builder
	for _, b := range blocks {
		fmt.Fprintf(&sb, "--- Content from: %s ---\n\n%s\n\n", b.name, strings.TrimSpace(b.body))
	}
	return sb.String()
}

// fit drops whole blocks from the highest tier downward until the rendered
// size is within budget. The last surviving block may be cut mid-body.
func fit(blocks []block, budget int) []block {
	total := 0
	for _, b := range blocks {
		total += renderedSize(b)
	}

	for tier := tierNotes; tier > tierStructure && total > budget; tier-- {
		drop := make([]bool, len(blocks))
		for i := len(blocks) - 1; i >= 0 && total > budget; i-- {
			if blocks[i].tier == tier {
				drop[i] = true
				total -= renderedSize(blocks[i])
			}
		}
		kept := make([]block, 0, len(blocks))
		for i, b := range blocks {
			if !drop[i] {
				kept = append(kept, b)
			}
		}
		blocks = kept
	}

	for total > budget && len(blocks) > 0 {
		last := &blocks[len(blocks)-1]
		overflow := total - budget
		if len(last.body) > overflow {
			last.body = last.body[:len(last.body)-overflow]
			total -= overflow
		} else {
			total -= renderedSize(*last)
			blocks = blocks[:len(blocks)-1]
		}
	}
	return blocks
}

func renderedSize(b block) int {
	return len(b.name) + len(b.body) + 32
}

func structuralSummary(facts []structure.Facts) string {
	sorted := append([]structure.Facts(nil), facts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })

	var sb strings.Builder
	for _, f := range sorted {
		fmt.Fprintf(&sb, "%s: %d functions, %d classes", f.Path, len(f.Functions), len(f.Classes))
		if len(f.Includes) > 0 {
			fmt.Fprintf(&sb, ", depends on %s", strings.Join(f.Includes, ", "))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// metadataFiles lists the .md and .txt files of the supplementary metadata
// directory, sorted. A missing directory yields nothing.
func metadataFiles(dir string) []string {
	if dir == "" {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".md", ".txt":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

func noteFiles(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".md" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names
}

const overviewInstructions = "The material above describes every component of one software " +
	"project: a structural summary, per-component documents, and per-file notes. " +
	"Write a single markdown overview of the whole project: what it is, its major " +
	"subsystems, how they interact, and the main data and control flows. Output " +
	"only the overview document."
