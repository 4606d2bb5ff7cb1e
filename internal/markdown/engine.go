package markdown

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/net/html"
)

// Engine converts page source into HTML trees. It is safe for use from a
// single goroutine; rendering is not concurrent within one build.
type Engine struct {
	md goldmark.Markdown
}

func NewEngine() *Engine {
	return &Engine{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				labelExtension{},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				gmhtml.WithUnsafe(),
			),
		),
	}
}

// Parse runs the full source pipeline for one page: include expansion
// rooted at includeRoot, front matter extraction, fragment splitting and
// markdown conversion of the body and every fragment.
func (e *Engine) Parse(source []byte, includeRoot string) (*Document, error) {
	source = normalizeNewlines(source)
	source, err := expandIncludes(source, includeRoot, 0)
	if err != nil {
		return nil, err
	}

	fm, body, _, err := splitFrontMatter(source)
	if err != nil {
		return nil, err
	}
	meta, err := parseMetadata(fm)
	if err != nil {
		return nil, err
	}

	body, fragments, err := extractFragments(body)
	if err != nil {
		return nil, err
	}

	root, anchors, err := e.renderTree(body)
	if err != nil {
		return nil, err
	}
	doc := &Document{Root: root, Meta: meta, Anchors: anchors}
	if len(fragments) > 0 {
		doc.Fragments = make(map[string]*html.Node, len(fragments))
		names := make([]string, 0, len(fragments))
		for name := range fragments {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			tree, anchors, err := e.renderTree(fragments[name])
			if err != nil {
				return nil, fmt.Errorf("fragment %q: %w", name, err)
			}
			doc.Fragments[name] = tree
			doc.Anchors = append(doc.Anchors, anchors...)
		}
	}
	return doc, nil
}

func (e *Engine) renderTree(source []byte) (*html.Node, []string, error) {
	pc := parser.NewContext()
	var buf bytes.Buffer
	if err := e.md.Convert(source, &buf, parser.WithContext(pc)); err != nil {
		return nil, nil, err
	}
	root, err := parseTree(buf.Bytes())
	if err != nil {
		return nil, nil, err
	}
	return root, anchorNames(pc), nil
}
