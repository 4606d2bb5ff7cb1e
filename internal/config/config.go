// Package config implements the per-bundle configuration tree: one YAML
// document (stdoc.conf) per bundle directory, with dotted key-path lookup
// falling back through the chain of ancestor bundles.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file expected in every bundle directory.
const FileName = "stdoc.conf"

var (
	ErrNotFound = errors.New("configuration file not found")
	ErrDecode   = errors.New("configuration decode failed")
)

// Node is one bundle's configuration document plus the fallback link to the
// parent bundle's node. The parent link is read-only; lookups never mutate
// the chain.
type Node struct {
	values map[string]any
	parent *Node
}

// Load reads and decodes the configuration file at path. Environment
// variables in the raw text are expanded before decoding. An empty file
// yields an empty node.
func Load(path string) (*Node, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, path, err)
	}

	expanded := os.ExpandEnv(string(data))

	var values map[string]any
	if err := yaml.Unmarshal([]byte(expanded), &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if values == nil {
		values = make(map[string]any)
	}
	return &Node{values: values}, nil
}

// Empty returns a node with no values of its own. Lookups still follow the
// parent chain once one is set.
func Empty() *Node {
	return &Node{values: make(map[string]any)}
}

// SetParent links n to the configuration of its parent bundle.
func (n *Node) SetParent(p *Node) { n.parent = p }

// Lookup resolves a dotted key path such as "urls.html_suffix" against this
// node. When any component of the path is missing here, the lookup falls
// back to the parent chain. The second result reports whether the key was
// found anywhere in the chain.
func (n *Node) Lookup(path string) (any, bool) {
	cur := any(n.values)
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]any)
		if !ok {
			return n.fallback(path)
		}
		if cur, ok = m[part]; !ok {
			return n.fallback(path)
		}
	}
	return cur, true
}

func (n *Node) fallback(path string) (any, bool) {
	if n.parent == nil {
		return nil, false
	}
	return n.parent.Lookup(path)
}

// Str returns the string at path, or def when the key is missing or holds a
// non-string value.
func (n *Node) Str(path, def string) string {
	v, ok := n.Lookup(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return s
}

// Bool returns the boolean at path, or def when missing or not a boolean.
func (n *Node) Bool(path string, def bool) bool {
	v, ok := n.Lookup(path)
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// StrList returns the value at path normalized to a list of strings: a
// missing or null key yields nil, a scalar yields a one-element list.
func (n *Node) StrList(path string) []string {
	v, ok := n.Lookup(path)
	if !ok || v == nil {
		return nil
	}
	return toStrings(v)
}

// StrMap returns the mapping at path with scalar values rendered as strings
// and null values as "". Missing or non-mapping values yield nil.
func (n *Node) StrMap(path string) map[string]string {
	v, ok := n.Lookup(path)
	if !ok {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, e := range m {
		if e == nil {
			out[k] = ""
			continue
		}
		out[k] = fmt.Sprint(e)
	}
	return out
}

// SearchSpec is the glob specification accepted by inputs.pages and
// inputs.files. Match patterns select candidates; exclude patterns are
// applied by the search against the first (folders) and last (files) path
// component of each candidate.
type SearchSpec struct {
	MatchFiles     []string
	MatchPaths     []string
	ExcludeFolders []string
	ExcludeFiles   []string
}

// IsZero reports whether the spec selects nothing.
func (s SearchSpec) IsZero() bool {
	return len(s.MatchFiles) == 0 && len(s.MatchPaths) == 0
}

// Spec extracts the search specification at path. The whole spec falls back
// through the ancestor chain as one value, so a sub-bundle without its own
// inputs.pages inherits the parent's. A missing key yields a zero spec.
func (n *Node) Spec(path string) SearchSpec {
	v, ok := n.Lookup(path)
	if !ok {
		return SearchSpec{}
	}
	m, ok := v.(map[string]any)
	if !ok {
		return SearchSpec{}
	}
	return SearchSpec{
		MatchFiles:     strsOf(m, "match_files"),
		MatchPaths:     strsOf(m, "match_paths"),
		ExcludeFolders: strsOf(m, "exclude_folders"),
		ExcludeFiles:   strsOf(m, "exclude_files"),
	}
}

func strsOf(m map[string]any, key string) []string {
	v, ok := m[key]
	if !ok || v == nil {
		return nil
	}
	return toStrings(v)
}

func toStrings(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
		return out
	case string:
		return []string{t}
	default:
		return []string{fmt.Sprint(t)}
	}
}
