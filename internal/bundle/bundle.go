// Package bundle implements the content-source tree: nested bundles each
// owning a configuration node, a set of discovered page sources and the
// static-asset folders below them.
package bundle

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	berrors "git.home.luguber.info/inful/stdoc/internal/bundle/errors"
	"git.home.luguber.info/inful/stdoc/internal/config"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

// Bundle is one node of the content tree.
type Bundle struct {
	// Root is the filesystem directory of the whole source tree.
	Root string
	// Dir is the bundle's directory relative to Root, "." for the root
	// bundle. All page ids and label namespaces derive from it.
	Dir string

	Config *config.Node

	parent *Bundle
	Subs   []*Bundle

	// Pages in discovery order (sorted within the bundle); filled by
	// LoadPages.
	Pages []*Page
	// Statics holds the bundle-relative parent directories of discovered
	// static markers.
	Statics []string

	langs       *LangTable
	pagesLoaded bool
}

// Load parses dir's configuration and, when recursive, loads and registers
// every sub-bundle declared under inputs.bundles (paths relative to the tree
// root). A sub-bundle that fails to load is reported and its subtree
// skipped; only the caller decides whether a failure of this bundle itself
// is fatal.
func Load(root, dir string, recursive bool, rep *diag.Reporter) (*Bundle, error) {
	return load(root, dir, recursive, rep, map[string]bool{})
}

func load(root, dir string, recursive bool, rep *diag.Reporter, seen map[string]bool) (*Bundle, error) {
	dir = path.Clean(filepath.ToSlash(dir))
	if seen[dir] {
		return nil, fmt.Errorf("%w: %s", berrors.ErrBundleCycle, dir)
	}
	seen[dir] = true

	cfg, err := config.Load(filepath.Join(root, filepath.FromSlash(dir), config.FileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", berrors.ErrBundleLoadFailed, dir, err)
	}
	b := &Bundle{Root: root, Dir: dir, Config: cfg}
	if !recursive {
		return b, nil
	}

	for _, sub := range cfg.StrList("inputs.bundles") {
		child, err := load(root, sub, true, rep, seen)
		if err != nil {
			rep.Error("Sub-bundle failed to load, skipping its subtree",
				logfields.Bundle(sub), logfields.Error(err))
			continue
		}
		b.Register(child)
	}
	return b, nil
}

// Register attaches child as a sub-bundle and links the parent references
// used for config fallback and label-namespace derivation.
func (b *Bundle) Register(child *Bundle) {
	child.parent = b
	child.Config.SetParent(b.Config)
	b.Subs = append(b.Subs, child)
}

// Parent returns the owning bundle, nil at the root.
func (b *Bundle) Parent() *Bundle { return b.parent }

// All returns this bundle and every descendant in depth-first pre-order.
func (b *Bundle) All() []*Bundle {
	out := []*Bundle{b}
	for _, sub := range b.Subs {
		out = append(out, sub.All()...)
	}
	return out
}

// Ancestry returns the bundle followed by its ancestors up to the root;
// template lookup walks it nearest-first.
func (b *Bundle) Ancestry() []*Bundle {
	var out []*Bundle
	for cur := b; cur != nil; cur = cur.parent {
		out = append(out, cur)
	}
	return out
}

// AbsDir returns the bundle's filesystem directory.
func (b *Bundle) AbsDir() string {
	return filepath.Join(b.Root, filepath.FromSlash(b.Dir))
}

// LabelNamespace returns the prefix under which this bundle's labels are
// registered: empty for the root bundle, else ":" plus the bundle directory
// with slashes turned into colons.
func (b *Bundle) LabelNamespace() string {
	if b.Dir == "." {
		return ""
	}
	return ":" + strings.ReplaceAll(b.Dir, "/", ":")
}

// DefaultLanguage returns the bundle's default language code.
func (b *Bundle) DefaultLanguage() string { return b.Config.Str("language", "en") }

// HTMLSuffix reports whether generated URLs carry ".html".
func (b *Bundle) HTMLSuffix() bool { return b.Config.Bool("urls.html_suffix", false) }

// OutputFolder returns the configured output root (outputs.folder, default
// "_www") resolved against the tree root unless absolute.
func (b *Bundle) OutputFolder() string {
	f := b.Config.Str("outputs.folder", "_www")
	if filepath.IsAbs(f) {
		return f
	}
	return filepath.Join(b.Root, f)
}

// Languages returns the bundle's language table. Validation diagnostics are
// emitted once, by LoadPages.
func (b *Bundle) Languages() LangTable {
	if b.langs == nil {
		t := newLangTable(b.Config.StrMap("languages"), nil, b.Dir)
		b.langs = &t
	}
	return *b.langs
}

// LoadPages discovers this bundle's page sources and static-asset folders
// according to inputs.pages. It is idempotent. Sub-bundle subtrees are
// pruned: their pages belong to them exclusively.
func (b *Bundle) LoadPages(rep *diag.Reporter) error {
	if b.pagesLoaded {
		return nil
	}
	b.pagesLoaded = true

	langs := newLangTable(b.Config.StrMap("languages"), rep, b.Dir)
	b.langs = &langs

	var prune []string
	for _, sub := range b.Subs {
		if rel, ok := relUnder(b.Dir, sub.Dir); ok {
			prune = append(prune, rel)
		}
	}

	matches, err := Search(b.AbsDir(), b.Config.Spec("inputs.pages"), prune)
	if err != nil {
		return err
	}
	useSuffix := b.Config.Bool("inputs.lang_suffix", false)
	for _, rel := range matches {
		id, lang := derivePageIdentity(b.Dir, rel, useSuffix, langs, b.DefaultLanguage())
		p := &Page{
			Bundle:   b,
			Path:     path.Join(b.Dir, rel),
			ID:       id,
			Lang:     lang,
			Template: DefaultTemplate,
			Labels:   make(map[string]urlpath.URL),
		}
		b.Pages = append(b.Pages, p)
		slog.Debug("Discovered page",
			logfields.Bundle(b.Dir), logfields.Page(id), logfields.Lang(lang))
	}

	hits, err := Search(b.AbsDir(), config.SearchSpec{MatchFiles: []string{StaticMarker}}, prune)
	if err != nil {
		return err
	}
	for _, hit := range hits {
		info, err := os.Stat(filepath.Join(b.AbsDir(), filepath.FromSlash(hit)))
		if err != nil || !info.IsDir() {
			continue
		}
		b.Statics = append(b.Statics, path.Dir(hit))
		slog.Debug("Discovered static folder",
			logfields.Bundle(b.Dir), logfields.Path(path.Dir(hit)))
	}
	return nil
}

// PagesRecursively returns every page of this bundle and its descendants in
// discovery order: bundles depth-first, pages sorted within each bundle.
// This order is what makes ambiguous-label resolution deterministic.
func (b *Bundle) PagesRecursively() []*Page {
	var out []*Page
	for _, bb := range b.All() {
		out = append(out, bb.Pages...)
	}
	return out
}

// derivePageIdentity turns a bundle-relative source path into the page id
// (root-relative, extension stripped) and language. Ids keep the bundle's
// own directory prefix so they stay unique across the whole graph. The
// language suffix "-<code>" is only honored when suffix detection is on and
// the code is declared; codes are tried in sorted order.
func derivePageIdentity(bundleDir, rel string, useSuffix bool, langs LangTable, defaultLang string) (id, lang string) {
	stem := strings.TrimSuffix(rel, path.Ext(rel))
	if useSuffix {
		for _, code := range langs.Codes() {
			if strings.HasSuffix(stem, "-"+code) {
				return path.Join(bundleDir, strings.TrimSuffix(stem, "-"+code)), code
			}
		}
	}
	return path.Join(bundleDir, stem), defaultLang
}

// relUnder expresses target relative to base when target lies below it.
func relUnder(base, target string) (string, bool) {
	if base == "." {
		if target == "." {
			return "", false
		}
		return target, true
	}
	if strings.HasPrefix(target, base+"/") {
		return target[len(base)+1:], true
	}
	return "", false
}
