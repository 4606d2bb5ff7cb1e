// Package pipeline orchestrates one site build as an ordered list of named
// stages over a shared State. Stages run sequentially; a fatal stage error
// aborts the run, a warning is logged and the run continues. Soft data
// errors never surface here at all: they go through the diagnostics
// reporter inside the stages.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/stdoc/internal/bundle"
	"git.home.luguber.info/inful/stdoc/internal/crossref"
	"git.home.luguber.info/inful/stdoc/internal/diag"
	"git.home.luguber.info/inful/stdoc/internal/logfields"
	"git.home.luguber.info/inful/stdoc/internal/markdown"
	"git.home.luguber.info/inful/stdoc/internal/site"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, st *State) error

// StageName is a strongly-typed identifier for a build stage. All canonical
// stages are declared as constants here.
type StageName string

// Canonical stage names, in execution order.
const (
	StageLoadBundles StageName = "load-bundles"
	StageDiscover    StageName = "discover"
	StageParse       StageName = "parse"
	StageCrossref    StageName = "crossref"
	StageRender      StageName = "render"
	StageCopyStatic  StageName = "copy-static"
	StageCopyFiles   StageName = "copy-files"
)

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; log and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// Helpers to classify errors.
func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// Pipeline is a fluent builder for ordered stage definitions.
type Pipeline struct{ defs []StageDef }

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline { return &Pipeline{defs: make([]StageDef, 0, 8)} }

// Add appends a stage.
func (p *Pipeline) Add(name StageName, fn Stage) *Pipeline {
	p.defs = append(p.defs, StageDef{Name: name, Fn: fn})
	return p
}

// Build returns a defensive copy of the stage definitions slice.
func (p *Pipeline) Build() []StageDef {
	out := make([]StageDef, len(p.defs))
	copy(out, p.defs)
	return out
}

// State carries mutable build state across stages. Stages fill it front to
// back; nothing downstream of a stage mutates what an earlier stage produced.
type State struct {
	// Root is the source tree directory the build reads from.
	Root string
	// BuildID tags every log line of this run.
	BuildID string
	// Revision is the short git hash of the source tree, empty outside a
	// work tree.
	Revision string

	Rep    *diag.Reporter
	Engine *markdown.Engine
	Res    *crossref.Resolver

	// Main is the root bundle; set by load-bundles.
	Main *bundle.Bundle
	// Pages is every discovered page in discovery order; set by discover.
	Pages []*bundle.Page
	// Renderer owns the output tree; set by render.
	Renderer *site.Renderer
}

// Run executes a full build of the source tree at root. Diagnostics go
// through rep; the returned error is non-nil only for fatal stage failures
// and cancellation.
func Run(ctx context.Context, root string, rep *diag.Reporter) (*State, error) {
	st := &State{
		Root:     root,
		BuildID:  uuid.NewString(),
		Revision: detectRevision(root),
		Rep:      rep,
		Engine:   markdown.NewEngine(),
		Res:      crossref.New(rep),
	}
	slog.Info("Build starting", logfields.BuildID(st.BuildID), logfields.Path(root))
	if st.Revision != "" {
		slog.Debug("Source revision detected", logfields.Revision(st.Revision))
	}

	stages := NewPipeline().
		Add(StageLoadBundles, stageLoadBundles).
		Add(StageDiscover, stageDiscover).
		Add(StageParse, stageParse).
		Add(StageCrossref, stageCrossref).
		Add(StageRender, stageRender).
		Add(StageCopyStatic, stageCopyStatic).
		Add(StageCopyFiles, stageCopyFiles).
		Build()

	t0 := time.Now()
	if err := runStages(ctx, st, stages); err != nil {
		return st, err
	}
	slog.Info("Build finished",
		logfields.DurationMS(time.Since(t0)),
		slog.Int("warnings", rep.Warnings()),
		slog.Int("errors", rep.Errors()))
	return st, nil
}

// runStages executes stages in order, recording timing and stopping on the
// first fatal error.
func runStages(ctx context.Context, st *State, stages []StageDef) error {
	for _, sd := range stages {
		select {
		case <-ctx.Done():
			return newCanceledStageError(sd.Name, ctx.Err())
		default:
		}
		t0 := time.Now()
		err := sd.Fn(ctx, st)
		slog.Debug("Stage finished",
			logfields.Stage(string(sd.Name)), logfields.DurationMS(time.Since(t0)))
		if err == nil {
			continue
		}
		var se *StageError
		if !errors.As(err, &se) {
			// Wrap unknown errors as fatal by default.
			se = newFatalStageError(sd.Name, err)
		}
		if se.Kind == StageErrorWarning {
			slog.Warn("Stage degraded, build continues",
				logfields.Stage(string(sd.Name)), logfields.Error(se.Err))
			continue
		}
		return se
	}
	return nil
}
