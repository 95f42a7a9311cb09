// Package catalog enumerates the source files a run will document.
package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// SourceFile is one catalogued file. Immutable once read; identity is Path
// (repo-relative, slash-separated). Downstream stages reference files by path
// and never mutate content.
type SourceFile struct {
	Path    string // relative to the catalog root
	Ext     string
	Content []byte
	Size    int64
}

// Stem returns the path minus its extension, the key used for same-stem
// pairing.
func (f SourceFile) Stem() string {
	return strings.TrimSuffix(f.Path, f.Ext)
}

// Lines counts the source lines, used to size annotation targets.
func (f SourceFile) Lines() int {
	if len(f.Content) == 0 {
		return 0
	}
	n := strings.Count(string(f.Content), "\n")
	if f.Content[len(f.Content)-1] != '\n' {
		n++
	}
	return n
}

var skipDirs = map[string]struct{}{
	".git":         {},
	".hg":          {},
	".svn":         {},
	"node_modules": {},
	"__pycache__":  {},
	"build":        {},
	"dist":         {},
	"venv":         {},
	".venv":        {},
}

// Scan walks root and returns every regular file whose extension is in exts,
// sorted by path for deterministic downstream ordering. Files matched by the
// root .gitignore (when present) are skipped, as are dot-directories and the
// usual build/vendor trees. Empty files are catalogued; stages decide what to
// do with them.
func Scan(root string, exts []string) ([]SourceFile, error) {
	extSet := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		extSet[e] = struct{}{}
	}

	gi := loadGitignore(root)

	var files []SourceFile
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // unreadable entries are skipped, not fatal
		}

		name := d.Name()
		if d.IsDir() {
			if path == root {
				return nil
			}
			if _, skip := skipDirs[name]; skip || strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&os.ModeSymlink != 0 {
			return nil
		}

		ext := filepath.Ext(name)
		if _, ok := extSet[ext]; !ok {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("catalog: reading %s: %w", path, err)
		}

		files = append(files, SourceFile{
			Path:    rel,
			Ext:     ext,
			Content: content,
			Size:    int64(len(content)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		return nil
	}
	return gi
}
