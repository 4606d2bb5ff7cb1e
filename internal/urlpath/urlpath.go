// Package urlpath provides the absolute URL value type used for generated
// page and asset locations, including the relative-path arithmetic between
// two locations.
package urlpath

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// URL is an absolute site location. It always starts with "/" and never ends
// with "/" unless it is exactly the root.
type URL string

// Root is the site root.
const Root URL = "/"

// ErrInvalid indicates a string that cannot form an absolute URL path.
var ErrInvalid = errors.New("invalid url path")

// Parse validates and normalizes s into a URL. The input must start with
// "/"; the result is cleaned, which drops any trailing slash except on the
// root itself.
func Parse(s string) (URL, error) {
	if !strings.HasPrefix(s, "/") {
		return "", fmt.Errorf("%w: %q is not absolute", ErrInvalid, s)
	}
	return URL(path.Clean(s)), nil
}

func (u URL) String() string { return string(u) }

// IsRoot reports whether u is exactly the site root.
func (u URL) IsRoot() bool { return u == Root }

// Dir returns the URL of the directory containing u. The root contains
// itself.
func (u URL) Dir() URL { return URL(path.Dir(string(u))) }

// Join appends sub to u and cleans the result.
func (u URL) Join(sub string) URL {
	return URL(path.Join(string(u), sub))
}

// WithHTMLSuffix returns u with ".html" appended. A URL naming a directory
// (only the root does) gets its index document instead.
func (u URL) WithHTMLSuffix() URL {
	if strings.HasSuffix(string(u), "/") {
		return u + "index.html"
	}
	return u + ".html"
}

// WithFragment returns u with a "#name" fragment appended. Fragments only
// make sense on final page URLs; the result must not be joined or suffixed
// further.
func (u URL) WithFragment(name string) URL {
	return u + URL("#"+name)
}

// RelativeTo returns the relative path from base to u: a chain of ".."
// segments climbing from base's directory to the root, then u without its
// leading slash. The path always climbs to the root first; a shorter form
// would resolve differently depending on whether base names a file or a
// directory.
func (u URL) RelativeTo(base URL) string {
	up := base.Dir().depth()
	if u.IsRoot() {
		if up == 0 {
			return "."
		}
		return strings.TrimSuffix(strings.Repeat("../", up), "/")
	}
	return strings.Repeat("../", up) + string(u[1:])
}

// depth counts path segments: the root has zero, "/a/b" has two.
func (u URL) depth() int {
	if u.IsRoot() {
		return 0
	}
	return strings.Count(string(u), "/")
}
