// Package pipeline runs the staged generation for each specification entry:
// route, controller, service and docs form the bundle, then the test suite
// is generated from the persisted bundle files.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"route-forge/internal/generation"
	"route-forge/internal/ledger"
	"route-forge/internal/logger"
	"route-forge/internal/model"
	"route-forge/internal/prompt"
	"route-forge/internal/store"
	"route-forge/internal/telemetry"
)

// StageError reports the entry and stage at which generation stopped
type StageError struct {
	Index int
	Path  string
	Stage model.Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("entry %d (%s): %s stage failed: %v", e.Index, e.Path, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Recorder stores stage outcomes
type Recorder interface {
	Record(ctx context.Context, run ledger.StageRun) error
}

// Progress is advanced once per entry
type Progress interface {
	Describe(description string)
	Increment() error
}

// resetter is implemented by clients that keep per-entry state
type resetter interface {
	Reset()
}

// Orchestrator drives the stages for each specification entry
type Orchestrator struct {
	client   generation.Client
	store    *store.Store
	project  *model.ProjectContext
	recorder Recorder
	tel      *telemetry.Telemetry
	progress Progress
	runID    string
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithRecorder records every stage outcome
func WithRecorder(r Recorder) Option {
	return func(o *Orchestrator) { o.recorder = r }
}

// WithTelemetry emits entry and stage spans
func WithTelemetry(t *telemetry.Telemetry) Option {
	return func(o *Orchestrator) { o.tel = t }
}

// WithProgress advances p after each entry
func WithProgress(p Progress) Option {
	return func(o *Orchestrator) { o.progress = p }
}

// WithRunID tags recorded outcomes with the run identifier
func WithRunID(id string) Option {
	return func(o *Orchestrator) { o.runID = id }
}

// New creates an orchestrator
func New(client generation.Client, st *store.Store, project *model.ProjectContext, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		store:   st,
		project: project,
		tel:     telemetry.Noop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every entry in order. A failed entry is logged and the
// batch moves on; cancellation stops the batch before the next stage.
func (o *Orchestrator) Run(ctx context.Context, specs []*model.RouteSpecification) []*model.EntryResult {
	results := make([]*model.EntryResult, 0, len(specs))

	for i, spec := range specs {
		if ctx.Err() != nil {
			logger.Warn("Batch canceled: %d of %d entries not processed", len(specs)-i, len(specs))
			break
		}
		if o.progress != nil {
			o.progress.Describe(spec.Label())
		}

		results = append(results, o.RunEntry(ctx, spec))

		if o.progress != nil {
			if err := o.progress.Increment(); err != nil {
				logger.Warn("Progress: %v", err)
			}
		}
	}

	return results
}

// RunEntry runs all five stages for one entry and never returns an error:
// failures are captured in the result
func (o *Orchestrator) RunEntry(ctx context.Context, spec *model.RouteSpecification) *model.EntryResult {
	start := time.Now()
	if r, ok := o.client.(resetter); ok {
		r.Reset()
	}

	ctx, span := o.tel.StartEntry(ctx, spec.Index, spec.Method(), spec.Path())

	res := &model.EntryResult{
		Index:  spec.Index,
		Path:   spec.Path(),
		Method: spec.Method(),
		State:  model.StateLoadedSpec,
	}
	logger.Info("Processing route specification %d: %s", spec.Index, spec.Label())

	bundle, err := o.generateBundle(ctx, spec, res)
	res.Bundle = bundle
	if err == nil {
		_, err = o.GenerateTests(ctx, spec, bundle)
		if err == nil {
			res.State = model.StateTestsGenerated
		}
	}
	res.Duration = time.Since(start)

	if err != nil {
		o.fail(res, err)
	} else {
		logger.Info("Completed %s: %d files in %s", spec.Label(), len(bundle.All()), res.Duration.Round(time.Millisecond))
	}

	telemetry.End(span, err)
	return res
}

func (o *Orchestrator) fail(res *model.EntryResult, err error) {
	res.Error = err.Error()

	var se *StageError
	if errors.As(err, &se) {
		res.FailedStage = se.Stage
	}

	logger.With(map[string]interface{}{
		"entry": res.Index,
		"path":  res.Path,
		"stage": string(res.FailedStage),
	}).Error(err, "Failed to generate files for route specification %d (%s) at %s stage; re-run with --entry %d",
		res.Index, res.Path, res.FailedStage, res.Index)
}

// GenerateBundle runs route, controller, service and docs for spec.
// The first failure stops the entry and is returned as a *StageError.
func (o *Orchestrator) GenerateBundle(ctx context.Context, spec *model.RouteSpecification) (*model.ArtifactBundle, error) {
	res := &model.EntryResult{Index: spec.Index, Path: spec.Path(), Method: spec.Method()}
	return o.generateBundle(ctx, spec, res)
}

func (o *Orchestrator) generateBundle(ctx context.Context, spec *model.RouteSpecification, res *model.EntryResult) (*model.ArtifactBundle, error) {
	bundle := model.NewArtifactBundle()

	for _, kind := range model.BundleKinds {
		stage := kind.Stage()

		var inputs prompt.Inputs
		switch stage {
		case model.StageRoute:
			inputs = prompt.RouteInputs(spec, o.project)
		case model.StageController:
			inputs = prompt.ControllerInputs(spec, o.project, bundle.Get(model.KindRoute).Content)
		case model.StageService:
			inputs = prompt.ServiceInputs(o.project, bundle.Get(model.KindRoute).Content, bundle.Get(model.KindController).Content)
		case model.StageDocs:
			inputs = prompt.DocsInputs(o.project, bundle.Get(model.KindRoute).Content)
		}

		artifact, err := o.runStage(ctx, spec, stage, inputs, spec.FileNameFor(kind))
		if err != nil {
			return bundle, err
		}
		bundle.Add(artifact)
		res.State = model.StateAfter(stage)

		if stage == model.StageController && !RoutePathMentioned(artifact.Content, spec.Path()) {
			note := fmt.Sprintf("controller does not reference route path %s", spec.Path())
			logger.Warn("Entry %d: %s", spec.Index, note)
			res.Notes = append(res.Notes, note)
		}
	}

	return bundle, nil
}

// GenerateTests reads the route, controller and service back from the
// output directory and generates the test suite. On success the test
// artifact is attached to bundle.
func (o *Orchestrator) GenerateTests(ctx context.Context, spec *model.RouteSpecification, bundle *model.ArtifactBundle) (*model.GeneratedArtifact, error) {
	start := time.Now()
	fileName := model.TestFileName(path.Base(spec.FileNameFor(model.KindRoute)))

	files := make(map[model.ArtifactKind]string, 3)
	for _, kind := range []model.ArtifactKind{model.KindRoute, model.KindController, model.KindService} {
		a, err := o.store.Read(kind, spec.FileNameFor(kind))
		if err != nil {
			o.record(ctx, spec, model.StageTests, fileName, "", time.Since(start), err)
			return nil, &StageError{Index: spec.Index, Path: spec.Path(), Stage: model.StageTests, Err: err}
		}
		files[kind] = a.Content
	}

	inputs := prompt.TestInputs(o.project, files[model.KindRoute], files[model.KindController], files[model.KindService])

	artifact, err := o.runStage(ctx, spec, model.StageTests, inputs, fileName)
	if err != nil {
		return nil, err
	}
	if bundle != nil {
		bundle.Test = artifact
	}
	return artifact, nil
}

// runStage builds the prompt, calls the backend and persists the reply
func (o *Orchestrator) runStage(ctx context.Context, spec *model.RouteSpecification, stage model.Stage, inputs prompt.Inputs, fileName string) (*model.GeneratedArtifact, error) {
	start := time.Now()
	log := logger.With(map[string]interface{}{
		"entry": spec.Index,
		"path":  spec.Path(),
		"stage": string(stage),
	})

	stageErr := func(err error) error {
		return &StageError{Index: spec.Index, Path: spec.Path(), Stage: stage, Err: err}
	}

	if err := ctx.Err(); err != nil {
		o.record(ctx, spec, stage, fileName, "", time.Since(start), err)
		return nil, stageErr(err)
	}

	ctx, span := o.tel.StartStage(ctx, string(stage))

	var (
		artifact *model.GeneratedArtifact
		sha      string
		err      error
	)

	payload, err := prompt.Build(stage, inputs)
	if err == nil {
		sha = prompt.Fingerprint(payload)
		logger.LogPrompt(string(stage), payload.System, payload.User)
		log.Debug("Calling %s model for %s", payload.Profile, fileName)

		var text string
		text, err = o.client.Generate(ctx, payload)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &generation.Error{Kind: generation.KindEmpty, Profile: payload.Profile, Err: errors.New("backend returned empty content")}
		}
		if err == nil {
			artifact, err = o.store.Save(stage.Kind(), fileName, text)
		}
	}

	elapsed := time.Since(start)
	o.record(ctx, spec, stage, fileName, sha, elapsed, err)
	telemetry.End(span, err)

	if err != nil {
		return nil, stageErr(err)
	}

	o.tel.ArtifactWritten(ctx, string(artifact.Kind))
	log.Info("Generated %s file saved to %s", artifact.Kind, artifact.Path)
	return artifact, nil
}

func (o *Orchestrator) record(ctx context.Context, spec *model.RouteSpecification, stage model.Stage, fileName, sha string, elapsed time.Duration, stageErr error) {
	if o.recorder == nil {
		return
	}

	run := ledger.StageRun{
		RunID:      o.runID,
		EntryIndex: spec.Index,
		Path:       spec.Path(),
		Stage:      stage,
		Status:     ledger.StatusOK,
		FileName:   fileName,
		PromptSHA:  sha,
		Duration:   elapsed,
	}
	if stageErr != nil {
		run.Status = ledger.StatusFailed
		run.Error = stageErr.Error()
	}

	if err := o.recorder.Record(context.WithoutCancel(ctx), run); err != nil {
		logger.Warn("Ledger: %v", err)
	}
}
