package site

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	serrors "git.home.luguber.info/inful/stdoc/internal/site/errors"
)

// CopyStatics copies every discovered static folder of every bundle into the
// output's static tree, preserving each folder's own subtree:
// <bundle>/<parent>/_static/** lands in <out>/static/<bundle-dir>/<parent>/.
func (r *Renderer) CopyStatics(root *bundle.Bundle) error {
	for _, b := range root.All() {
		for _, parent := range b.Statics {
			src := filepath.Join(b.AbsDir(), filepath.FromSlash(parent), bundle.StaticMarker)
			dst := filepath.Join(r.out, "static", filepath.FromSlash(b.Dir), filepath.FromSlash(parent))
			if err := copyTree(src, dst); err != nil {
				return fmt.Errorf("%w: %s: %w", serrors.ErrCopyFailed, src, err)
			}
			slog.Debug("Copied static folder",
				logfields.Bundle(b.Dir), logfields.Path(parent))
		}
	}
	return nil
}

// CopyRawFiles copies the root bundle's inputs.files matches. A matched
// directory merges its contents into the output root; a matched file is
// copied flat into the output root.
func (r *Renderer) CopyRawFiles(root *bundle.Bundle) error {
	matches, err := bundle.Search(root.AbsDir(), root.Config.Spec("inputs.files"), nil)
	if err != nil {
		return err
	}
	for _, m := range matches {
		src := filepath.Join(root.AbsDir(), filepath.FromSlash(m))
		info, err := os.Stat(src)
		if err != nil {
			return fmt.Errorf("%w: %s: %w", serrors.ErrCopyFailed, src, err)
		}
		if info.IsDir() {
			err = copyTree(src, r.out)
		} else {
			err = copyFile(src, filepath.Join(r.out, info.Name()))
		}
		if err != nil {
			return fmt.Errorf("%w: %s: %w", serrors.ErrCopyFailed, src, err)
		}
		slog.Debug("Copied raw input", logfields.Path(m))
	}
	return nil
}

func copyTree(src, dst string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		return copyFile(path, filepath.Join(dst, rel))
	})
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0644)
}
