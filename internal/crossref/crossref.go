// Package crossref resolves label references across the full page set and
// patches content trees from reference form into final relative links.
package crossref

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/markdown"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

// LabelMarker prefixes every label token, in metadata values and in
// reference hrefs alike.
const LabelMarker = "@"

// Resolver holds the full page set in discovery order. Discovery order is
// what makes the ambiguous-reference fallback deterministic for a fixed
// source tree.
type Resolver struct {
	pages []*bundle.Page
	rep   *diag.Reporter
}

func New(rep *diag.Reporter) *Resolver {
	return &Resolver{rep: rep}
}

// Register adds a parsed page to the resolution set and registers its
// defined labels: each `label` metadata value (which must carry the "@"
// marker; a violation is a non-fatal error) targets the page itself, and
// each content anchor targets the page plus its fragment. Pages must be
// registered in discovery order, after their metadata is applied.
func (r *Resolver) Register(p *bundle.Page) {
	if p.Doc != nil {
		for _, v := range p.Doc.Meta["label"] {
			name := strings.TrimPrefix(v, LabelMarker)
			if name == v || name == "" {
				r.rep.Error("Label metadata value must start with the @ marker",
					logfields.Page(p.ID), logfields.Label(v))
				continue
			}
			p.AddLabel(name, p.URL(), r.rep)
		}
		for _, name := range p.Doc.Anchors {
			p.AddLabel(name, p.URL().WithFragment(name), r.rep)
		}
	}
	r.pages = append(r.pages, p)
}

// Resolve maps a label token (without the marker) to a target URL and the
// defining page's title. The token is qualified by the referencing page's
// namespace unless it already starts with ":". lang constrains candidates
// to pages of that language, when both sides are set. Zero hits record the
// key as unresolved and report ok=false; multiple hits are an error and the
// first definition in discovery order wins.
func (r *Resolver) Resolve(from *bundle.Page, token, lang string) (urlpath.URL, string, bool) {
	key := token
	if !strings.HasPrefix(token, ":") {
		key = from.Bundle.LabelNamespace() + ":" + token
	}

	type hit struct {
		url   urlpath.URL
		title string
	}
	var hits []hit
	for _, p := range r.pages {
		if lang != "" && p.Lang != "" && p.Lang != lang {
			continue
		}
		if target, ok := p.Labels[key]; ok {
			hits = append(hits, hit{url: target, title: p.Title})
		}
	}

	switch len(hits) {
	case 0:
		if r.rep.Unresolved(key) {
			r.rep.Warn("Unresolved label reference",
				logfields.Label(key), logfields.Page(from.ID))
		}
		return "", "", false
	case 1:
	default:
		r.rep.Error("Ambiguous label reference, using the first definition",
			logfields.Label(key), logfields.Page(from.ID), logfields.Count(len(hits)))
	}
	return hits[0].url, hits[0].title, true
}

// Patch rewrites every reference in the page's body and fragments in place.
// Anchor hrefs and image sources use the same prefix grammar: "=:rest"
// against the global static root, "=rest" against the page's local static
// base, "@token" through label resolution. Anything else is left alone. All
// rewritten values are paths relative to the page's own URL.
func (r *Resolver) Patch(p *bundle.Page) {
	if p.Doc == nil {
		return
	}
	localBase := p.LocalStaticBase()

	for _, tree := range p.Doc.Trees() {
		for _, a := range markdown.Elements(tree, atom.A) {
			href, ok := markdown.Attr(a, "href")
			if !ok {
				continue
			}
			switch {
			case strings.HasPrefix(href, "=:"):
				markdown.SetAttr(a, "href", p.RelPath(bundle.StaticRoot.Join(href[2:])))
			case strings.HasPrefix(href, "="):
				markdown.SetAttr(a, "href", p.RelPath(localBase.Join(href[1:])))
			case strings.HasPrefix(href, LabelMarker):
				r.patchLabelLink(p, a, href)
			}
		}
		for _, img := range markdown.Elements(tree, atom.Img) {
			src, ok := markdown.Attr(img, "src")
			if !ok {
				continue
			}
			switch {
			case strings.HasPrefix(src, "=:"):
				markdown.SetAttr(img, "src", p.RelPath(bundle.StaticRoot.Join(src[2:])))
			case strings.HasPrefix(src, "="):
				markdown.SetAttr(img, "src", p.RelPath(localBase.Join(src[1:])))
			case strings.HasPrefix(src, LabelMarker):
				if target, _, ok := r.Resolve(p, strings.TrimPrefix(src, LabelMarker), p.Lang); ok {
					markdown.SetAttr(img, "src", p.RelPath(target))
				}
			}
		}
	}
}

// patchLabelLink resolves one "@token" anchor. A hit rewrites the href to
// the relative target and, when the link text is still the literal token,
// replaces it with the target page's title. A miss drops the href and marks
// the anchor with class="broken" so the page still renders.
func (r *Resolver) patchLabelLink(p *bundle.Page, a *html.Node, href string) {
	target, title, ok := r.Resolve(p, strings.TrimPrefix(href, LabelMarker), p.Lang)
	if !ok {
		markdown.DelAttr(a, "href")
		markdown.SetAttr(a, "class", "broken")
		return
	}
	if title != "" && markdown.SoleText(a) == href {
		markdown.ReplaceText(a, title)
	}
	markdown.SetAttr(a, "href", p.RelPath(target))
}

// ReportUnresolved emits the end-of-run summary of every label key that
// failed to resolve at least once.
func (r *Resolver) ReportUnresolved() {
	keys := r.rep.UnresolvedKeys()
	if len(keys) == 0 {
		return
	}
	r.rep.Error("Unresolved labels: "+strings.Join(keys, ", "),
		logfields.Count(len(keys)))
}
