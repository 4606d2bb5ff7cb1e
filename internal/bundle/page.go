package bundle

import (
	"path/filepath"
	"strings"

	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/markdown"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

// DefaultTemplate is used when a page's metadata does not choose one.
const DefaultTemplate = "base.html"

// StaticRoot is the URL below which all static assets are published.
const StaticRoot = urlpath.URL("/static")

// Page is one discovered source document, a single language variant of a
// logical page. Discovery creates it with identity only; the parse pass
// fills metadata, labels and the content tree; the cross-reference pass
// patches the tree in place. Rendering treats it as read-only.
type Page struct {
	Bundle *Bundle

	// Path is the root-relative source file path.
	Path string
	// ID is the root-relative logical path with extension and language
	// suffix stripped. Language variants of one page share it.
	ID   string
	Lang string

	Title       string
	URLOverride urlpath.URL // zero when the URL is derived
	Template    string

	// Labels maps the fully-qualified label keys defined by this document
	// to their target URLs.
	Labels map[string]urlpath.URL

	// Doc is the parsed content, attached by the parse pass.
	Doc *markdown.Document
}

// URL returns the page's final site location: the metadata override when
// set, otherwise derived from language and id. The language segment appears
// only when the bundle declares languages; ".html" follows the
// urls.html_suffix policy.
func (p *Page) URL() urlpath.URL {
	if p.URLOverride != "" {
		if p.Bundle.HTMLSuffix() {
			return p.URLOverride.WithHTMLSuffix()
		}
		return p.URLOverride
	}
	return p.derivedURL(p.Bundle.HTMLSuffix())
}

func (p *Page) derivedURL(suffix bool) urlpath.URL {
	u := urlpath.Root
	if !p.Bundle.Languages().Empty() {
		u = u.Join(p.Lang)
	}
	u = u.Join(p.ID)
	if suffix {
		u = u.WithHTMLSuffix()
	}
	return u
}

// OutputPath returns where the rendered page is written below the output
// root: the final URL with the ".html" suffix always applied, exactly once.
func (p *Page) OutputPath(outRoot string) string {
	u := p.URLOverride
	if u != "" {
		u = u.WithHTMLSuffix()
	} else {
		u = p.derivedURL(true)
	}
	rel := strings.TrimPrefix(string(u), "/")
	return filepath.Join(outRoot, filepath.FromSlash(rel))
}

// RelPath expresses target relative to this page's own URL.
func (p *Page) RelPath(target urlpath.URL) string {
	return target.RelativeTo(p.URL())
}

// AddLabel registers a bare label name defined by this document. The fully
// qualified key is the bundle namespace plus the name. A duplicate
// definition is reported and overwritten; keeping the run going surfaces
// further errors.
func (p *Page) AddLabel(name string, target urlpath.URL, rep *diag.Reporter) {
	key := p.Bundle.LabelNamespace() + ":" + name
	if _, exists := p.Labels[key]; exists {
		rep.Error("Duplicate label definition overwrites earlier target",
			logfields.Page(p.ID), logfields.Label(key))
	}
	p.Labels[key] = target
}

// BundleRelPath returns the source path relative to the owning bundle.
func (p *Page) BundleRelPath() string {
	if p.Bundle.Dir == "." {
		return p.Path
	}
	return strings.TrimPrefix(p.Path, p.Bundle.Dir+"/")
}

// LocalStaticBase returns the URL that page-local asset references ("=...")
// resolve against: /static, then the bundle directory, then the longest
// discovered static folder that is a path-component prefix of the page's
// source file. Prefix matching respects component boundaries.
func (p *Page) LocalStaticBase() urlpath.URL {
	rel := p.BundleRelPath()
	best := "."
	for _, s := range p.Bundle.Statics {
		if s == "." || !within(rel, s) {
			continue
		}
		if best == "." || len(s) > len(best) {
			best = s
		}
	}
	return StaticRoot.Join(p.Bundle.Dir).Join(best)
}

func within(rel, dir string) bool {
	return rel == dir || strings.HasPrefix(rel, dir+"/")
}
