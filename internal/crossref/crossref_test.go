package crossref

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/config"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/markdown"
	"git.home.luguber.info/inful/stdoc/internal/urlpath"
)

func testReporter() *diag.Reporter {
	return diag.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testBundle(dir string) *bundle.Bundle {
	return &bundle.Bundle{Root: "/src", Dir: dir, Config: config.Empty()}
}

func testPage(b *bundle.Bundle, id string) *bundle.Page {
	return &bundle.Page{
		Bundle:   b,
		Path:     id + ".md",
		ID:       id,
		Lang:     "en",
		Template: bundle.DefaultTemplate,
		Labels:   map[string]urlpath.URL{},
	}
}

func parseInto(t *testing.T, p *bundle.Page, source string) {
	t.Helper()
	doc, err := markdown.NewEngine().Parse([]byte(source), t.TempDir())
	require.NoError(t, err)
	p.Doc = doc
}

func TestRegister_MetadataLabel_TargetsPageURL(t *testing.T) {
	rep := testReporter()
	home := testPage(testBundle("."), "index")
	parseInto(t, home, "---\nlabel:\n  - \"@home\"\n---\nWelcome.\n")

	New(rep).Register(home)

	require.Equal(t, urlpath.URL("/index"), home.Labels[":home"])
	require.Zero(t, rep.Errors())
}

func TestRegister_MetadataLabelWithoutMarker_ReportedAndSkipped(t *testing.T) {
	rep := testReporter()
	p := testPage(testBundle("."), "index")
	parseInto(t, p, "---\nlabel:\n  - home\n---\nWelcome.\n")

	New(rep).Register(p)

	require.Empty(t, p.Labels)
	require.Equal(t, 1, rep.Errors())
}

func TestRegister_ContentAnchor_TargetsPageFragment(t *testing.T) {
	rep := testReporter()
	p := testPage(testBundle("."), "guide")
	parseInto(t, p, "Setup @=setup goes here.\n")

	New(rep).Register(p)

	require.Equal(t, urlpath.URL("/guide#setup"), p.Labels[":setup"])
}

func TestResolve_UniqueHit_ReturnsTargetAndTitle(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	home := testPage(root, "index")
	home.Title = "Home"
	home.Labels[":home"] = "/index"
	about := testPage(root, "about")

	r := New(rep)
	r.Register(home)
	r.Register(about)

	url, title, ok := r.Resolve(about, "home", about.Lang)
	require.True(t, ok)
	require.Equal(t, urlpath.URL("/index"), url)
	require.Equal(t, "Home", title)
}

func TestResolve_UnqualifiedToken_UsesReferencingPageNamespace(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	sub := testBundle("guide")
	root.Register(sub)

	def := testPage(sub, "guide/install")
	def.Labels[":guide:install"] = "/guide/install"
	ref := testPage(sub, "guide/intro")

	r := New(rep)
	r.Register(def)
	r.Register(ref)

	url, _, ok := r.Resolve(ref, "install", ref.Lang)
	require.True(t, ok)
	require.Equal(t, urlpath.URL("/guide/install"), url)
}

func TestResolve_QualifiedToken_IgnoresPageNamespace(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	sub := testBundle("guide")
	root.Register(sub)

	home := testPage(root, "index")
	home.Labels[":home"] = "/index"
	ref := testPage(sub, "guide/intro")

	r := New(rep)
	r.Register(home)
	r.Register(ref)

	url, _, ok := r.Resolve(ref, ":home", ref.Lang)
	require.True(t, ok)
	require.Equal(t, urlpath.URL("/index"), url)
}

func TestResolve_LanguageMismatch_SkipsCandidate(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	def := testPage(root, "index")
	def.Lang = "fr"
	def.Labels[":home"] = "/fr/index"
	ref := testPage(root, "about")

	r := New(rep)
	r.Register(def)
	r.Register(ref)

	_, _, ok := r.Resolve(ref, "home", "en")
	require.False(t, ok)
	require.Equal(t, []string{":home"}, rep.UnresolvedKeys())
}

func TestResolve_Ambiguous_ReportsErrorAndPicksFirstDeterministically(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	first := testPage(root, "a")
	first.Labels[":dup"] = "/a"
	second := testPage(root, "b")
	second.Labels[":dup"] = "/b"
	ref := testPage(root, "c")

	r := New(rep)
	r.Register(first)
	r.Register(second)
	r.Register(ref)

	url1, _, ok := r.Resolve(ref, "dup", ref.Lang)
	require.True(t, ok)
	url2, _, _ := r.Resolve(ref, "dup", ref.Lang)
	require.Equal(t, urlpath.URL("/a"), url1)
	require.Equal(t, url1, url2)
	require.Equal(t, 2, rep.Errors())
}

func TestResolve_Unresolved_RecordedOncePerKey(t *testing.T) {
	rep := testReporter()
	ref := testPage(testBundle("."), "about")

	r := New(rep)
	r.Register(ref)

	_, _, ok := r.Resolve(ref, "missing", ref.Lang)
	require.False(t, ok)
	_, _, ok = r.Resolve(ref, "missing", ref.Lang)
	require.False(t, ok)

	require.Equal(t, []string{":missing"}, rep.UnresolvedKeys())
	require.Equal(t, 1, rep.Warnings())
}

func TestPatch_LabelReference_RewritesHrefAndReplacesTokenText(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	home := testPage(root, "index")
	home.Title = "Home"
	home.Labels[":home"] = "/index"
	about := testPage(root, "about")
	parseInto(t, about, "See @home for details.\n")

	r := New(rep)
	r.Register(home)
	r.Register(about)
	r.Patch(about)

	out, err := markdown.Serialize(about.Doc.Root)
	require.NoError(t, err)
	require.Contains(t, out, `<a href="index">Home</a>`)
}

func TestPatch_AuthoredLinkText_NotReplaced(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	home := testPage(root, "index")
	home.Title = "Home"
	home.Labels[":home"] = "/index"
	about := testPage(root, "about")
	parseInto(t, about, "[click here](@home)\n")

	r := New(rep)
	r.Register(home)
	r.Register(about)
	r.Patch(about)

	out, err := markdown.Serialize(about.Doc.Root)
	require.NoError(t, err)
	require.Contains(t, out, `<a href="index">click here</a>`)
}

func TestPatch_UnresolvedReference_DropsHrefAndMarksBroken(t *testing.T) {
	rep := testReporter()
	about := testPage(testBundle("."), "about")
	parseInto(t, about, "See @nonexistent now.\n")

	r := New(rep)
	r.Register(about)
	r.Patch(about)

	out, err := markdown.Serialize(about.Doc.Root)
	require.NoError(t, err)
	require.Contains(t, out, `<a class="broken">@nonexistent</a>`)
	require.Equal(t, []string{":nonexistent"}, rep.UnresolvedKeys())
}

func TestPatch_GlobalStaticPrefix_ResolvesAgainstStaticRoot(t *testing.T) {
	rep := testReporter()
	about := testPage(testBundle("."), "about")
	parseInto(t, about, "[logo](=:logo.png)\n")

	r := New(rep)
	r.Register(about)
	r.Patch(about)

	out, err := markdown.Serialize(about.Doc.Root)
	require.NoError(t, err)
	require.Contains(t, out, `href="static/logo.png"`)
}

func TestPatch_LocalStaticPrefix_UsesLongestStaticParent(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	root.Statics = []string{"guide"}
	p := testPage(root, "guide/install")
	parseInto(t, p, "![diagram](=diagram.png)\n")

	r := New(rep)
	r.Register(p)
	r.Patch(p)

	out, err := markdown.Serialize(p.Doc.Root)
	require.NoError(t, err)
	require.Contains(t, out, `src="../static/guide/diagram.png"`)
}

func TestPatch_UnresolvedImageLabel_LeavesSourceUntouched(t *testing.T) {
	rep := testReporter()
	p := testPage(testBundle("."), "about")
	parseInto(t, p, "![pic](@missing)\n")

	r := New(rep)
	r.Register(p)
	r.Patch(p)

	img := markdown.Elements(p.Doc.Root, atom.Img)[0]
	src, ok := markdown.Attr(img, "src")
	require.True(t, ok)
	require.Equal(t, "@missing", src)
	require.Equal(t, []string{":missing"}, rep.UnresolvedKeys())
}

func TestPatch_FragmentTrees_PatchedLikeBody(t *testing.T) {
	rep := testReporter()
	root := testBundle(".")
	home := testPage(root, "index")
	home.Labels[":home"] = "/index"
	p := testPage(root, "about")
	parseInto(t, p, "body\n%fragment(name=nav)\n[up](@home)\n%\n")

	r := New(rep)
	r.Register(home)
	r.Register(p)
	r.Patch(p)

	out, err := markdown.Serialize(p.Doc.Fragments["nav"])
	require.NoError(t, err)
	require.Contains(t, out, `href="index"`)
}

func TestReportUnresolved_EmitsSingleSummaryError(t *testing.T) {
	rep := testReporter()
	ref := testPage(testBundle("."), "about")

	r := New(rep)
	r.Register(ref)
	r.Resolve(ref, "one", ref.Lang)
	r.Resolve(ref, "two", ref.Lang)

	before := rep.Errors()
	r.ReportUnresolved()
	require.Equal(t, before+1, rep.Errors())
}
