package markdown

import (
	"regexp"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// labelTokenRe matches the two inline label forms in running text: an
// anchor definition "@=name" or a reference "@name" / "@:ns:name". A
// reference never ends in a colon.
var labelTokenRe = regexp.MustCompile(`@=[a-zA-Z0-9._]+|@[a-zA-Z0-9_.:]*[a-zA-Z0-9._]`)

// labelExtension wires the label syntax into goldmark: "@=name" becomes an
// empty span anchor carrying the name as its element id, and a bare "@name"
// reference becomes a link whose target and text are both the literal token,
// for the cross-reference pass to resolve later.
type labelExtension struct{}

func (labelExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(labelTransformer{}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(labelNodeRenderer{}, 500),
	))
}

var labelAnchorKind = gmast.NewNodeKind("LabelAnchor")

// anchorListKey carries the anchor names defined during one conversion, in
// source order, so the caller can register them as labels.
var anchorListKey = parser.NewContextKey()

func anchorNames(pc parser.Context) []string {
	names, _ := pc.Get(anchorListKey).([]string)
	return names
}

// labelAnchor is the inline node produced for "@=name".
type labelAnchor struct {
	gmast.BaseInline
	Name []byte
}

func (n *labelAnchor) Kind() gmast.NodeKind { return labelAnchorKind }

func (n *labelAnchor) Dump(source []byte, level int) {
	gmast.DumpHelper(n, source, level, map[string]string{"Name": string(n.Name)}, nil)
}

// labelTransformer rewrites text nodes containing label tokens after the
// document is parsed. Running after parsing keeps the rewrite out of code
// spans, code blocks and the inside of already-formed links.
type labelTransformer struct{}

func (labelTransformer) Transform(doc *gmast.Document, reader text.Reader, pc parser.Context) {
	source := reader.Source()

	var texts []*gmast.Text
	_ = gmast.Walk(doc, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *gmast.Link, *gmast.AutoLink, *gmast.Image, *gmast.CodeSpan:
			return gmast.WalkSkipChildren, nil
		case *gmast.Text:
			texts = append(texts, t)
		}
		return gmast.WalkContinue, nil
	})

	for _, t := range texts {
		replaceLabelTokens(t, source, pc)
	}
}

// replaceLabelTokens splits one text node around its label tokens. A token
// only counts when its "@" sits at a token boundary, so addresses like
// user@example.com pass through untouched. The tail stays a text segment so
// the node's line-break flags survive the split.
func replaceLabelTokens(t *gmast.Text, source []byte, pc parser.Context) {
	val := t.Segment.Value(source)
	parent := t.Parent()
	last := 0
	for _, loc := range labelTokenRe.FindAllIndex(val, -1) {
		start, end := loc[0], loc[1]
		if start > 0 && isLabelChar(val[start-1]) {
			continue
		}
		if start > last {
			parent.InsertBefore(parent, t, gmast.NewString(val[last:start]))
		}
		token := val[start:end]
		if token[1] == '=' {
			name := string(token[2:])
			pc.Set(anchorListKey, append(anchorNames(pc), name))
			parent.InsertBefore(parent, t, &labelAnchor{Name: token[2:]})
		} else {
			link := gmast.NewLink()
			link.Destination = token
			link.AppendChild(link, gmast.NewString(token))
			parent.InsertBefore(parent, t, link)
		}
		last = end
	}
	if last == 0 {
		return
	}
	rest := gmast.NewTextSegment(text.NewSegment(t.Segment.Start+last, t.Segment.Stop))
	rest.SetSoftLineBreak(t.SoftLineBreak())
	rest.SetHardLineBreak(t.HardLineBreak())
	rest.SetRaw(t.IsRaw())
	parent.InsertBefore(parent, t, rest)
	parent.RemoveChild(parent, t)
}

func isLabelChar(c byte) bool {
	return c == '.' || c == '_' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}

// labelNodeRenderer emits the anchor span for label definitions.
type labelNodeRenderer struct{}

func (r labelNodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(labelAnchorKind, r.renderAnchor)
}

func (labelNodeRenderer) renderAnchor(w util.BufWriter, _ []byte, node gmast.Node, entering bool) (gmast.WalkStatus, error) {
	if !entering {
		return gmast.WalkContinue, nil
	}
	n := node.(*labelAnchor)
	_, _ = w.WriteString(`<span id="`)
	_, _ = w.Write(util.EscapeHTML(n.Name))
	_, _ = w.WriteString(`"></span>`)
	return gmast.WalkContinue, nil
}
