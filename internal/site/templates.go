package site

import (
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	serrors "git.home.luguber.info/inful/stdoc/internal/site/errors"
)

// TemplateDir is the per-bundle template folder name.
const TemplateDir = "_templates"

// templateEnv returns the bundle's parsed template set: every "*.html" file
// from the bundle's own template folder and those of its ancestors, the
// nearest definition winning on a name collision. The set is parsed once per
// bundle; rendering executes clones, never the cached set itself.
func (r *Renderer) templateEnv(b *bundle.Bundle) (*template.Template, error) {
	if env, ok := r.envs[b]; ok {
		return env, nil
	}

	sources := map[string]string{}
	for _, anc := range b.Ancestry() {
		dir := filepath.Join(anc.AbsDir(), TemplateDir)
		entries, err := os.ReadDir(dir)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("%w: %s: %w", serrors.ErrTemplateLoadFailed, dir, err)
		}
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
				continue
			}
			if _, seen := sources[e.Name()]; seen {
				continue
			}
			sources[e.Name()] = filepath.Join(dir, e.Name())
		}
	}
	if len(sources) == 0 {
		return nil, fmt.Errorf("%w: bundle %s", serrors.ErrNoTemplates, b.Dir)
	}

	env := template.New("").Funcs(placeholderFuncs()).Option("missingkey=error")
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(sources[name])
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", serrors.ErrTemplateLoadFailed, sources[name], err)
		}
		if _, err := env.New(name).Parse(string(data)); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", serrors.ErrTemplateParse, name, err)
		}
	}

	r.envs[b] = env
	return env, nil
}

// placeholderFuncs declares the page-bound function names so templates parse;
// the real closures are bound per page at render time.
func placeholderFuncs() template.FuncMap {
	return template.FuncMap{
		"ref":          func(string) (string, error) { return "", errors.New("ref is not bound to a page") },
		"static":       func(string) (string, error) { return "", errors.New("static is not bound to a page") },
		"globalStatic": func(string) (string, error) { return "", errors.New("globalStatic is not bound to a page") },
		"langname":     func(code string) string { return code },
	}
}
