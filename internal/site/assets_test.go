package site

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/config"
	"git.home.luguber.info/inful/stdoc/internal/crossref"
)

func TestCopyStatics_PreservesFolderSubtree(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "guide", "_static", "css", "site.css"), "body{}")
	b := &bundle.Bundle{Root: dir, Dir: ".", Config: config.Empty(), Statics: []string{"guide"}}
	r := NewRenderer(b, nil, crossref.New(testReporter()), testReporter(), "")

	require.NoError(t, r.CopyStatics(b))

	data, err := os.ReadFile(filepath.Join(dir, "_www", "static", "guide", "css", "site.css"))
	require.NoError(t, err)
	require.Equal(t, "body{}", string(data))
}

func TestCopyStatics_RootFolder_AddsNoExtraSegment(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "_static", "logo.png"), "png")
	b := &bundle.Bundle{Root: dir, Dir: ".", Config: config.Empty(), Statics: []string{"."}}
	r := NewRenderer(b, nil, crossref.New(testReporter()), testReporter(), "")

	require.NoError(t, r.CopyStatics(b))

	data, err := os.ReadFile(filepath.Join(dir, "_www", "static", "logo.png"))
	require.NoError(t, err)
	require.Equal(t, "png", string(data))
}

func TestCopyStatics_SubBundleFolder_KeepsBundlePrefix(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "docs", "api", "_static", "d.png"), "d")
	root := &bundle.Bundle{Root: dir, Dir: ".", Config: config.Empty()}
	sub := &bundle.Bundle{Root: dir, Dir: "docs", Config: config.Empty(), Statics: []string{"api"}}
	root.Register(sub)
	r := NewRenderer(root, nil, crossref.New(testReporter()), testReporter(), "")

	require.NoError(t, r.CopyStatics(root))

	data, err := os.ReadFile(filepath.Join(dir, "_www", "static", "docs", "api", "d.png"))
	require.NoError(t, err)
	require.Equal(t, "d", string(data))
}

func TestCopyRawFiles_DirContentsMergeAndFilesCopyFlat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "stdoc.conf"),
		"inputs:\n  files:\n    match_files:\n      - robots.txt\n      - extra\n")
	writeFile(t, filepath.Join(dir, "robots.txt"), "User-agent: *\n")
	writeFile(t, filepath.Join(dir, "extra", "deep", "a.txt"), "A")
	b, err := bundle.Load(dir, ".", false, testReporter())
	require.NoError(t, err)
	r := NewRenderer(b, nil, crossref.New(testReporter()), testReporter(), "")

	require.NoError(t, r.CopyRawFiles(b))

	robots, err := os.ReadFile(filepath.Join(dir, "_www", "robots.txt"))
	require.NoError(t, err)
	require.Equal(t, "User-agent: *\n", string(robots))

	merged, err := os.ReadFile(filepath.Join(dir, "_www", "deep", "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "A", string(merged))
}

func TestCopyRawFiles_NoSpec_WritesNothing(t *testing.T) {
	dir := t.TempDir()
	b := &bundle.Bundle{Root: dir, Dir: ".", Config: config.Empty()}
	r := NewRenderer(b, nil, crossref.New(testReporter()), testReporter(), "")

	require.NoError(t, r.CopyRawFiles(b))

	_, err := os.Stat(filepath.Join(dir, "_www"))
	require.True(t, os.IsNotExist(err))
}
