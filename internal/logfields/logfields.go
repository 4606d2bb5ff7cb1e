package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBundle     = "bundle"
	KeyPage       = "page"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyLabel      = "label"
	KeyLang       = "lang"
	KeyTemplate   = "template"
	KeyStage      = "stage"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyBuildID    = "build_id"
	KeyRevision   = "revision"
	KeyKey        = "key"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Bundle(dir string) slog.Attr    { return slog.String(KeyBundle, dir) }
func Page(id string) slog.Attr       { return slog.String(KeyPage, id) }
func Path(p string) slog.Attr        { return slog.String(KeyPath, p) }
func URL(u string) slog.Attr         { return slog.String(KeyURL, u) }
func Label(l string) slog.Attr       { return slog.String(KeyLabel, l) }
func Lang(code string) slog.Attr     { return slog.String(KeyLang, code) }
func Template(name string) slog.Attr { return slog.String(KeyTemplate, name) }
func Stage(name string) slog.Attr    { return slog.String(KeyStage, name) }
func Count(n int) slog.Attr          { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr    { return slog.String(KeyBuildID, id) }
func Revision(rev string) slog.Attr  { return slog.String(KeyRevision, rev) }
func Key(k string) slog.Attr         { return slog.String(KeyKey, k) }

func DurationMS(d time.Duration) slog.Attr {
	return slog.Float64(KeyDurationMS, float64(d.Microseconds())/1000.0)
}

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
