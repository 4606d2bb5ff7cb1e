package bundle

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	berrors "git.home.luguber.info/inful/stdoc/internal/bundle/errors"
	"git.home.luguber.info/inful/stdoc/internal/config"
	"git.home.luguber.info/inful/stdoc/internal/diag"
)

func testReporter() *diag.Reporter {
	return diag.New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func loadConf(t *testing.T, yaml string) *config.Node {
	t.Helper()
	path := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))
	n, err := config.Load(path)
	require.NoError(t, err)
	return n
}

func TestLoad_RootBundle_ReadsConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "language: de\n")

	b, err := Load(dir, ".", false, testReporter())
	require.NoError(t, err)
	require.Equal(t, ".", b.Dir)
	require.Equal(t, "de", b.DefaultLanguage())
	require.Nil(t, b.Parent())
}

func TestLoad_MissingConfig_Fails(t *testing.T) {
	_, err := Load(t.TempDir(), ".", false, testReporter())
	require.ErrorIs(t, err, berrors.ErrBundleLoadFailed)
}

func TestLoad_Recursive_BuildsDeclaredGraph(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName),
		"language: de\ninputs:\n  bundles: [docs, api]\n")
	writeFile(t, filepath.Join(dir, "docs", config.FileName), "")
	writeFile(t, filepath.Join(dir, "api", config.FileName), "language: fr\n")

	b, err := Load(dir, ".", true, testReporter())
	require.NoError(t, err)
	require.Len(t, b.Subs, 2)

	var dirs []string
	for _, bb := range b.All() {
		dirs = append(dirs, bb.Dir)
	}
	require.Equal(t, []string{".", "docs", "api"}, dirs)

	docs := b.Subs[0]
	require.Same(t, b, docs.Parent())
	// Sub-bundle configuration falls back through the parent chain; an own
	// value shadows it.
	require.Equal(t, "de", docs.DefaultLanguage())
	require.Equal(t, "fr", b.Subs[1].DefaultLanguage())
}

func TestLoad_FailingSubBundle_SkippedWithDiagnostic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "inputs:\n  bundles: [missing]\n")

	rep := testReporter()
	b, err := Load(dir, ".", true, rep)
	require.NoError(t, err)
	require.Empty(t, b.Subs)
	require.Equal(t, 1, rep.Errors())
}

func TestLoad_RepeatedDeclaration_SkippedWithDiagnostic(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, config.FileName), "inputs:\n  bundles: [docs]\n")
	writeFile(t, filepath.Join(dir, "docs", config.FileName), "inputs:\n  bundles: [docs]\n")

	rep := testReporter()
	b, err := Load(dir, ".", true, rep)
	require.NoError(t, err)
	require.Len(t, b.Subs, 1)
	require.Empty(t, b.Subs[0].Subs)
	require.Equal(t, 1, rep.Errors())
}

func TestAncestry_NearestFirst(t *testing.T) {
	root := &Bundle{Dir: ".", Config: config.Empty()}
	docs := &Bundle{Dir: "docs", Config: config.Empty()}
	api := &Bundle{Dir: "docs/api", Config: config.Empty()}
	root.Register(docs)
	docs.Register(api)

	chain := api.Ancestry()
	require.Len(t, chain, 3)
	require.Same(t, api, chain[0])
	require.Same(t, docs, chain[1])
	require.Same(t, root, chain[2])
}

func TestLabelNamespace_FromBundleDir(t *testing.T) {
	require.Equal(t, "", (&Bundle{Dir: "."}).LabelNamespace())
	require.Equal(t, ":docs", (&Bundle{Dir: "docs"}).LabelNamespace())
	require.Equal(t, ":docs:api", (&Bundle{Dir: "docs/api"}).LabelNamespace())
}

func TestOutputFolder_DefaultRelativeAbsolute(t *testing.T) {
	dir := t.TempDir()

	def := &Bundle{Root: dir, Dir: ".", Config: config.Empty()}
	require.Equal(t, filepath.Join(dir, "_www"), def.OutputFolder())

	rel := &Bundle{Root: dir, Dir: ".", Config: loadConf(t, "outputs:\n  folder: public\n")}
	require.Equal(t, filepath.Join(dir, "public"), rel.OutputFolder())

	abs := &Bundle{Root: dir, Dir: ".", Config: loadConf(t, "outputs:\n  folder: /srv/www\n")}
	require.Equal(t, "/srv/www", abs.OutputFolder())
}
