// Package site turns patched pages into the final output tree: template
// rendering, the textual substitution variables, and the static and raw
// asset copies.
package site

import (
	"bytes"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/crossref"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/markdown"
	serrors "git.home.luguber.info/inful/stdoc/internal/site/errors"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

// Renderer writes the output tree for one build run.
type Renderer struct {
	out      string
	rep      *diag.Reporter
	res      *crossref.Resolver
	envs     map[*bundle.Bundle]*template.Template
	byID     map[string][]*bundle.Page
	revision string
}

// NewRenderer prepares rendering against the root bundle's output folder.
// pages is the full page set in discovery order; revision may be empty.
func NewRenderer(root *bundle.Bundle, pages []*bundle.Page, res *crossref.Resolver, rep *diag.Reporter, revision string) *Renderer {
	byID := make(map[string][]*bundle.Page)
	for _, p := range pages {
		byID[p.ID] = append(byID[p.ID], p)
	}
	return &Renderer{
		out:      root.OutputFolder(),
		rep:      rep,
		res:      res,
		envs:     make(map[*bundle.Bundle]*template.Template),
		byID:     byID,
		revision: revision,
	}
}

// OutputRoot returns the filesystem directory the site is written to.
func (r *Renderer) OutputRoot() string { return r.out }

// LangVariant is one language edition of a logical page, offered to
// templates for language navigation. URL is relative to the page being
// rendered.
type LangVariant struct {
	Lang string
	URL  string
}

// RenderPage executes the page's template and writes the result below the
// output root. Any failure here is a build infrastructure problem, not a
// content problem, and the caller treats it as fatal.
func (r *Renderer) RenderPage(p *bundle.Page) error {
	env, err := r.templateEnv(p.Bundle)
	if err != nil {
		return err
	}

	vars := r.substitutionVars(p)
	body, err := markdown.Serialize(p.Doc.Root)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", serrors.ErrRenderFailed, p.ID, err)
	}

	data := map[string]any{
		"DOCGEN_ID":             p.ID,
		"DOCGEN_DOC":            p,
		"DOCGEN_LANG":           p.Lang,
		"DOCGEN_TITLE":          p.Title,
		"DOCGEN_ROOT":           vars["DOCGEN_ROOT"],
		"DOCGEN_GLOBAL_STATIC":  vars["DOCGEN_GLOBAL_STATIC"],
		"DOCGEN_LOCAL_STATIC":   vars["DOCGEN_LOCAL_STATIC"],
		"DOCGEN_REVISION":       r.revision,
		"DOCGEN_ARTICLE":        template.HTML(applySubstitutions(body, vars)),
		"DOCGEN_LANG_AVAILABLE": r.langVariants(p),
	}
	for name, tree := range p.Doc.Fragments {
		frag, err := markdown.Serialize(tree)
		if err != nil {
			return fmt.Errorf("%w: %s fragment %s: %w", serrors.ErrRenderFailed, p.ID, name, err)
		}
		data["DOCGEN_FRAGMENT_"+name] = template.HTML(applySubstitutions(frag, vars))
	}

	clone, err := env.Clone()
	if err != nil {
		return fmt.Errorf("%w: %s: %w", serrors.ErrRenderFailed, p.ID, err)
	}
	clone = clone.Funcs(r.pageFuncs(p))

	var buf bytes.Buffer
	if err := clone.ExecuteTemplate(&buf, p.Template, data); err != nil {
		return fmt.Errorf("%w: %s with template %s: %w", serrors.ErrRenderFailed, p.ID, p.Template, err)
	}

	outPath := p.OutputPath(r.out)
	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("%w: %s: %w", serrors.ErrWriteFailed, outPath, err)
	}
	if err := os.WriteFile(outPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("%w: %s: %w", serrors.ErrWriteFailed, outPath, err)
	}
	slog.Debug("Rendered page",
		logfields.Page(p.ID), logfields.Path(outPath), logfields.Template(p.Template))
	return nil
}

// pageFuncs binds the template helpers to one page. ref degrades to an
// empty string on an unresolved label; the miss is already recorded for the
// end-of-run summary.
func (r *Renderer) pageFuncs(p *bundle.Page) template.FuncMap {
	return template.FuncMap{
		"ref": func(token string) string {
			target, _, ok := r.res.Resolve(p, strings.TrimPrefix(token, crossref.LabelMarker), p.Lang)
			if !ok {
				return ""
			}
			return p.RelPath(target)
		},
		"static": func(rest string) string {
			return p.RelPath(p.LocalStaticBase().Join(rest))
		},
		"globalStatic": func(rest string) string {
			return p.RelPath(bundle.StaticRoot.Join(rest))
		},
		"langname": func(code string) string {
			return p.Bundle.Languages().Name(code)
		},
	}
}

func (r *Renderer) langVariants(p *bundle.Page) []LangVariant {
	group := r.byID[p.ID]
	variants := make([]LangVariant, 0, len(group))
	for _, v := range group {
		variants = append(variants, LangVariant{Lang: v.Lang, URL: p.RelPath(v.URL())})
	}
	sort.Slice(variants, func(i, j int) bool { return variants[i].Lang < variants[j].Lang })
	return variants
}

func (r *Renderer) substitutionVars(p *bundle.Page) map[string]string {
	vars := map[string]string{
		"DOCGEN_GLOBAL_STATIC": p.RelPath(bundle.StaticRoot),
		"DOCGEN_LOCAL_STATIC":  p.RelPath(p.LocalStaticBase()),
		"DOCGEN_ROOT":          p.RelPath(urlpath.Root),
		"DOCGEN_LANG":          p.Lang,
		"DOCGEN_TITLE":         p.Title,
	}
	if r.revision != "" {
		vars["DOCGEN_REVISION"] = r.revision
	}
	return vars
}

var substitutionRe = regexp.MustCompile(
	`\{\{[ ]*(DOCGEN_GLOBAL_STATIC|DOCGEN_LOCAL_STATIC|DOCGEN_ROOT|DOCGEN_LANG|DOCGEN_TITLE|DOCGEN_REVISION)[ ]*\}\}`)

// applySubstitutions replaces {{ NAME }} occurrences of the substitution
// variables in serialized markup. Serialized output is not guaranteed to be
// a parseable template once raw blocks are embedded, so the replacement is
// textual. Variables without a value for this run keep their literal form.
func applySubstitutions(s string, vars map[string]string) string {
	return substitutionRe.ReplaceAllStringFunc(s, func(m string) string {
		name := strings.Trim(m, "{} ")
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}
