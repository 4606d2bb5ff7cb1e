package main

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/pipeline"
)

const rebuildDebounce = 300 * time.Millisecond

// watchAndRebuild builds once, then rebuilds whenever something under root
// changes. A failing build in watch mode is reported and waits for the next
// change instead of exiting; the loop only ends with the context.
func watchAndRebuild(ctx context.Context, root string) error {
	out := buildOnce(ctx, root)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()
	if err := addWatchDirs(w, root, out); err != nil {
		return err
	}

	var mu sync.Mutex
	var timer *time.Timer
	rebuild := make(chan struct{}, 1)
	trigger := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(rebuildDebounce, func() {
			select {
			case rebuild <- struct{}{}:
			default:
			}
		})
	}

	slog.Info("Watching for changes", logfields.Path(root))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-rebuild:
			// The output folder can move when the config changes, so it is
			// re-derived from each run.
			out = buildOnce(ctx, root)
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ignoreEvent(ev.Name, out) {
				continue
			}
			if ev.Op&fsnotify.Create == fsnotify.Create {
				if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
					_ = addWatchDirs(w, ev.Name, out)
				}
			}
			slog.Debug("Source change detected",
				logfields.Path(ev.Name), slog.String("op", ev.Op.String()))
			trigger()
		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Warn("Watcher error", logfields.Error(werr))
		}
	}
}

// buildOnce runs one build with a fresh reporter and returns the output
// folder the watcher must leave alone. Before the first successful config
// load the default output location is assumed.
func buildOnce(ctx context.Context, root string) string {
	st, err := pipeline.Run(ctx, root, diag.New(slog.Default()))
	if err != nil {
		slog.Error("Build failed", logfields.Error(err))
	}
	if st != nil && st.Main != nil {
		return st.Main.OutputFolder()
	}
	return filepath.Join(root, "_www")
}

// addWatchDirs registers every directory under root except the output tree
// and dot-directories.
func addWatchDirs(w *fsnotify.Watcher, root, out string) error {
	return filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if underDir(path, out) {
			return filepath.SkipDir
		}
		if err := w.Add(path); err != nil {
			slog.Warn("Watch add failed", logfields.Path(path), logfields.Error(err))
		}
		return nil
	})
}

// ignoreEvent drops events for the output tree, hidden files and editor
// temp/swap files.
func ignoreEvent(path, out string) bool {
	if underDir(path, out) {
		return true
	}
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "#") {
		return true
	}
	return strings.HasSuffix(base, "~") ||
		strings.HasSuffix(base, ".swp") ||
		strings.HasSuffix(base, ".swx")
}

// underDir reports whether path lies in dir's subtree (or is dir itself).
func underDir(path, dir string) bool {
	if dir == "" {
		return false
	}
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel))
}
