// Package artifact provides atomic persistence helpers and the deterministic
// naming scheme shared by all pipeline stages. Artifact names are derived from
// source paths, task keys, and section indices only, so a re-run can detect
// already-written outputs without reading their content.
package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// WriteFile writes data to path atomically: write to a temp file in the same
// directory, fsync, then rename over the target. A crash mid-write leaves the
// previous artifact (or nothing) in place, never a truncated file.
func WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

// Exists reports whether an artifact is already present on disk.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// FileKey flattens a repo-relative source path into a single filename-safe
// token: path separators become "__". Unlike a bare basename this never
// collides for same-named files in different directories.
func FileKey(relPath string) string {
	key := filepath.ToSlash(relPath)
	key = strings.TrimPrefix(key, "./")
	return strings.ReplaceAll(key, "/", "__")
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slug lowercases a title and collapses every non-alphanumeric run into a
// single hyphen. Empty input yields "untitled".
func Slug(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugStrip.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "untitled"
	}
	if len(s) > 80 {
		s = strings.Trim(s[:80], "-")
	}
	return s
}
