// Package diag accumulates build diagnostics: counted warnings and errors
// emitted through the logger, plus the set of unresolved label keys that is
// reported once at the end of a run.
//
// A Reporter is threaded explicitly through the pipeline so runs stay
// re-entrant and testable; there is no process-global state.
package diag

import (
	"log/slog"
	"sort"
)

// Reporter collects diagnostics for one build run. Soft errors never stop
// the run; they are logged immediately and counted for the final report.
type Reporter struct {
	log        *slog.Logger
	warnings   int
	errors     int
	unresolved map[string]struct{}
}

func New(log *slog.Logger) *Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &Reporter{log: log, unresolved: make(map[string]struct{})}
}

// Warn logs a warning-level diagnostic and counts it.
func (r *Reporter) Warn(msg string, args ...any) {
	r.warnings++
	r.log.Warn(msg, args...)
}

// Error logs an error-level diagnostic and counts it. These are soft data
// errors; fatality is decided by the pipeline, not here.
func (r *Reporter) Error(msg string, args ...any) {
	r.errors++
	r.log.Error(msg, args...)
}

// Unresolved records a label key nobody defines and reports whether the key
// was newly seen. Each key is reported once no matter how many pages
// reference it.
func (r *Reporter) Unresolved(key string) bool {
	if _, seen := r.unresolved[key]; seen {
		return false
	}
	r.unresolved[key] = struct{}{}
	return true
}

// UnresolvedKeys returns every recorded unresolved label key, sorted.
func (r *Reporter) UnresolvedKeys() []string {
	keys := make([]string, 0, len(r.unresolved))
	for k := range r.unresolved {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Reporter) Warnings() int { return r.warnings }
func (r *Reporter) Errors() int   { return r.errors }
