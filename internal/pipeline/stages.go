package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/site"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

// stageLoadBundles reads the root bundle configuration and, through it, the
// whole declared bundle graph. Sub-bundle failures were already reported and
// skipped inside Load; only a root failure is fatal.
func stageLoadBundles(ctx context.Context, st *State) error {
	b, err := bundle.Load(st.Root, ".", true, st.Rep)
	if err != nil {
		return newFatalStageError(StageLoadBundles, err)
	}
	st.Main = b
	return nil
}

// stageDiscover enumerates page sources and static folders for every bundle.
// A sub-bundle whose discovery fails loses its pages but not the build; the
// root bundle failing is fatal.
func stageDiscover(ctx context.Context, st *State) error {
	failed := 0
	for _, b := range st.Main.All() {
		err := b.LoadPages(st.Rep)
		if err == nil {
			continue
		}
		if b == st.Main {
			return newFatalStageError(StageDiscover, err)
		}
		st.Rep.Error("Bundle page discovery failed, its pages are skipped",
			logfields.Bundle(b.Dir), logfields.Error(err))
		failed++
	}
	st.Pages = st.Main.PagesRecursively()
	slog.Info("Discovered pages", logfields.Count(len(st.Pages)))
	if failed > 0 {
		return newWarnStageError(StageDiscover,
			fmt.Errorf("%d bundle(s) failed page discovery", failed))
	}
	return nil
}

// stageParse reads and parses every page source, applies its metadata and
// registers its labels. Unreadable or unparsable sources are fatal: a build
// from bad input must not quietly publish a partial site.
func stageParse(ctx context.Context, st *State) error {
	for _, p := range st.Pages {
		data, err := os.ReadFile(filepath.Join(st.Root, filepath.FromSlash(p.Path)))
		if err != nil {
			return newFatalStageError(StageParse, fmt.Errorf("page source unreadable: %w", err))
		}
		doc, err := st.Engine.Parse(data, p.Bundle.AbsDir())
		if err != nil {
			return newFatalStageError(StageParse, fmt.Errorf("%s: %w", p.Path, err))
		}
		p.Doc = doc
		// Metadata first: label targets depend on the final URL, which url
		// and lang overrides change.
		applyMetadata(p, st.Rep)
		st.Res.Register(p)
	}
	logSummaryTable(ctx, st.Pages)
	checkVariantUniqueness(st.Pages, st.Rep)
	return nil
}

// stageCrossref patches every reference in every parsed tree and emits the
// end-of-run unresolved summary.
func stageCrossref(ctx context.Context, st *State) error {
	for _, p := range st.Pages {
		st.Res.Patch(p)
	}
	st.Res.ReportUnresolved()
	return nil
}

// stageRender writes every page through its template environment.
func stageRender(ctx context.Context, st *State) error {
	st.Renderer = site.NewRenderer(st.Main, st.Pages, st.Res, st.Rep, st.Revision)
	for _, p := range st.Pages {
		if err := st.Renderer.RenderPage(p); err != nil {
			return newFatalStageError(StageRender, err)
		}
	}
	slog.Info("Produced pages",
		logfields.Count(len(st.Pages)), logfields.Path(st.Renderer.OutputRoot()))
	return nil
}

func stageCopyStatic(ctx context.Context, st *State) error {
	if err := st.Renderer.CopyStatics(st.Main); err != nil {
		return newFatalStageError(StageCopyStatic, err)
	}
	return nil
}

func stageCopyFiles(ctx context.Context, st *State) error {
	if err := st.Renderer.CopyRawFiles(st.Main); err != nil {
		return newFatalStageError(StageCopyFiles, err)
	}
	return nil
}

// applyMetadata applies the document's metadata block to the page. Keys are
// processed in sorted order so diagnostics come out deterministically. The
// label key is validated and consumed by label registration, not here.
func applyMetadata(p *bundle.Page, rep *diag.Reporter) {
	keys := make([]string, 0, len(p.Doc.Meta))
	for k := range p.Doc.Meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		vals := p.Doc.Meta[key]
		switch key {
		case "title", "url", "lang", "template":
			if len(vals) != 1 {
				rep.Warn("Metadata key takes exactly one value",
					logfields.Page(p.ID), logfields.Key(key), logfields.Count(len(vals)))
				continue
			}
			applyScalarMeta(p, key, vals[0], rep)
		case "label":
			// Consumed during label registration.
		default:
			rep.Warn("Unknown metadata key",
				logfields.Page(p.ID), logfields.Key(key))
		}
	}
}

func applyScalarMeta(p *bundle.Page, key, v string, rep *diag.Reporter) {
	switch key {
	case "title":
		p.Title = v
	case "lang":
		p.Lang = v
	case "template":
		p.Template = v
	case "url":
		if strings.HasSuffix(v, ".html") {
			rep.Warn("Redundant .html suffix on url metadata, stripping",
				logfields.Page(p.ID), logfields.URL(v))
			v = strings.TrimSuffix(v, ".html")
		}
		if !strings.HasPrefix(v, "/") {
			v = "/" + v
		}
		u, err := urlpath.Parse(v)
		if err != nil {
			rep.Error("Invalid url metadata ignored",
				logfields.Page(p.ID), logfields.URL(v), logfields.Error(err))
			return
		}
		p.URLOverride = u
	}
}

// checkVariantUniqueness reports pages that collide on (bundle, id, lang).
// Collisions come from lang metadata overrides or clashing filenames; the
// later page would silently overwrite the earlier one's output.
func checkVariantUniqueness(pages []*bundle.Page, rep *diag.Reporter) {
	seen := make(map[string]string, len(pages))
	for _, p := range pages {
		key := p.Bundle.Dir + "\x00" + p.ID + "\x00" + p.Lang
		if prev, dup := seen[key]; dup {
			rep.Error("Duplicate page variant",
				logfields.Bundle(p.Bundle.Dir), logfields.Page(p.ID), logfields.Lang(p.Lang),
				slog.String("conflicts_with", prev))
			continue
		}
		seen[key] = p.Path
	}
}
