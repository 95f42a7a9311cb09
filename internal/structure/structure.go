// Package structure runs static analysis over catalogued files and yields
// per-file structural facts: include/import tokens, functions, and classes.
package structure

import (
	"context"
	"sort"

	"github.com/dusk-indust/chronicle/internal/catalog"
)

// Function is one extracted function or method.
type Function struct {
	Name      string `json:"name"`
	Signature string `json:"signature,omitempty"`
}

// Class is one extracted class/struct-like declaration.
type Class struct {
	Name    string   `json:"name"`
	Members []string `json:"members,omitempty"`
}

// Facts holds the structural facts for a single source file. Produced once
// per file, derived, never mutated.
type Facts struct {
	Path      string     `json:"path"`
	Includes  []string   `json:"includes"`
	Functions []Function `json:"functions"`
	Classes   []Class    `json:"classes"`
}

// Extractor is the program-analysis collaborator. Parse must not mutate the
// input file; unsupported or broken syntax yields best-effort partial facts,
// never an error.
type Extractor interface {
	Parse(ctx context.Context, file catalog.SourceFile) Facts

	// Close releases parser resources.
	Close() error
}

// normalize sorts and de-duplicates include tokens and drops duplicate
// function/class names while preserving their source order.
func normalize(f *Facts) {
	sort.Strings(f.Includes)
	f.Includes = dedupeStrings(f.Includes)

	seenFn := make(map[string]bool, len(f.Functions))
	fns := f.Functions[:0]
	for _, fn := range f.Functions {
		if fn.Name == "" || seenFn[fn.Name] {
			continue
		}
		seenFn[fn.Name] = true
		fns = append(fns, fn)
	}
	f.Functions = fns

	seenCl := make(map[string]bool, len(f.Classes))
	cls := f.Classes[:0]
	for _, cl := range f.Classes {
		if cl.Name == "" || seenCl[cl.Name] {
			continue
		}
		seenCl[cl.Name] = true
		cls = append(cls, cl)
	}
	f.Classes = cls
}

func dedupeStrings(in []string) []string {
	out := in[:0]
	var prev string
	for i, s := range in {
		if s == "" || (i > 0 && s == prev) {
			continue
		}
		out = append(out, s)
		prev = s
	}
	return out
}
