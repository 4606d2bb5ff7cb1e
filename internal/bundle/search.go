package bundle

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	berrors "git.home.luguber.info/inful/stdoc/internal/bundle/errors"
	"git.home.luguber.info/inful/stdoc/internal/config"
)

// StaticMarker names the directory that marks its parent as a static-asset
// folder.
const StaticMarker = "_static"

// Search walks dir and returns the sorted, slash-separated paths (relative
// to dir) of entries matching spec. match_files patterns apply to an entry's
// base name at any depth, match_paths patterns to the whole relative path.
// A candidate is dropped when its first path component matches an
// exclude_folders glob, its last component matches an exclude_files glob, or
// it falls under one of the prune subtrees (which are not descended into).
// Dot files and dot directories are never candidates.
func Search(dir string, spec config.SearchSpec, prune []string) ([]string, error) {
	if spec.IsZero() {
		return nil, nil
	}
	if err := validatePatterns(spec); err != nil {
		return nil, err
	}

	var out []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if underAny(rel, prune) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !matchesSpec(rel, d.Name(), spec) || excludedBySpec(rel, spec) {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", berrors.ErrSearchFailed, dir, err)
	}
	sort.Strings(out)
	return out, nil
}

func validatePatterns(spec config.SearchSpec) error {
	for _, pats := range [][]string{spec.MatchFiles, spec.MatchPaths, spec.ExcludeFolders, spec.ExcludeFiles} {
		for _, pat := range pats {
			if _, err := path.Match(pat, "probe"); err != nil {
				return fmt.Errorf("%w: %q", berrors.ErrBadSearchPattern, pat)
			}
		}
	}
	return nil
}

func matchesSpec(rel, name string, spec config.SearchSpec) bool {
	for _, pat := range spec.MatchFiles {
		if ok, _ := path.Match(pat, name); ok {
			return true
		}
	}
	for _, pat := range spec.MatchPaths {
		if ok, _ := path.Match(pat, rel); ok {
			return true
		}
	}
	return false
}

// excludedBySpec tests the first path component against exclude_folders and
// the last against exclude_files. A root-level entry is its own first and
// last component, so exclude_folders also drops root files matching it.
func excludedBySpec(rel string, spec config.SearchSpec) bool {
	first, last := rel, rel
	if i := strings.IndexByte(rel, '/'); i >= 0 {
		first = rel[:i]
	}
	if i := strings.LastIndexByte(rel, '/'); i >= 0 {
		last = rel[i+1:]
	}
	for _, pat := range spec.ExcludeFolders {
		if ok, _ := path.Match(pat, first); ok {
			return true
		}
	}
	for _, pat := range spec.ExcludeFiles {
		if ok, _ := path.Match(pat, last); ok {
			return true
		}
	}
	return false
}

// underAny reports whether rel equals or lies below any of the given
// directories. Matching respects path component boundaries.
func underAny(rel string, dirs []string) bool {
	for _, d := range dirs {
		if d == "" || d == "." {
			continue
		}
		if rel == d || strings.HasPrefix(rel, d+"/") {
			return true
		}
	}
	return false
}
