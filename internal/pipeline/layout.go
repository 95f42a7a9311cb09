package pipeline

import "path/filepath"

// Layout maps the output directory's fixed artifact paths. The names are a
// stable contract: resume logic works purely by scanning them.
type Layout struct {
	Root string
}

func (l Layout) ManifestPath() string      { return filepath.Join(l.Root, "manifest.json") }
func (l Layout) NotesDir() string          { return filepath.Join(l.Root, "notes") }
func (l Layout) NotesFailures() string     { return filepath.Join(l.NotesDir(), "failures.json") }
func (l Layout) StructurePath() string     { return filepath.Join(l.Root, "structure.json") }
func (l Layout) PlanPath() string          { return filepath.Join(l.Root, "plan.json") }
func (l Layout) GraphDiagramPath() string  { return filepath.Join(l.Root, "graph.mmd") }
func (l Layout) InterdocsDir() string      { return filepath.Join(l.Root, "interdocs") }
func (l Layout) InterdocsFailures() string { return filepath.Join(l.InterdocsDir(), "failures.json") }
func (l Layout) OverviewPath() string {
	return filepath.Join(l.Root, "overview", "project_overview.md")
}
func (l Layout) ManualDir() string { return filepath.Join(l.Root, "manual") }
