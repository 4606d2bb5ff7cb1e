package bundle

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
)

// LangTable holds a bundle's declared languages: code to display name.
// A non-empty table is what switches language prefixes on in page URLs.
type LangTable struct {
	names map[string]string
	codes []string
}

// newLangTable builds the table from the raw languages mapping. When rep is
// non-nil, codes that do not parse as BCP 47 tags are reported. Empty
// display names fall back to the language's self-description when the code
// is recognized, else to the code itself.
func newLangTable(m map[string]string, rep *diag.Reporter, bundleDir string) LangTable {
	t := LangTable{names: make(map[string]string, len(m))}
	for code, name := range m {
		if _, err := language.Parse(code); err != nil && rep != nil {
			rep.Warn("Language code is not a valid BCP 47 tag",
				logfields.Bundle(bundleDir), logfields.Lang(code))
		}
		if name == "" {
			name = selfName(code)
		}
		t.names[code] = name
		t.codes = append(t.codes, code)
	}
	sort.Strings(t.codes)
	return t
}

// selfName returns a language's name in itself ("fr" becomes "français").
func selfName(code string) string {
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	if n := display.Self.Name(tag); n != "" {
		return n
	}
	return code
}

// Empty reports whether no languages are declared.
func (t LangTable) Empty() bool { return len(t.codes) == 0 }

// Codes returns the declared language codes, sorted. The order is what makes
// filename suffix detection deterministic.
func (t LangTable) Codes() []string { return t.codes }

// Has reports whether code is declared.
func (t LangTable) Has(code string) bool {
	_, ok := t.names[code]
	return ok
}

// Name returns the display name for code, or the code itself when unknown.
func (t LangTable) Name(code string) string {
	if n, ok := t.names[code]; ok && n != "" {
		return n
	}
	return code
}
