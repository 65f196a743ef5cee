package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"route-forge/internal/config"
	"route-forge/internal/exporter"
	"route-forge/internal/generation"
	"route-forge/internal/ledger"
	"route-forge/internal/logger"
	"route-forge/internal/model"
	"route-forge/internal/pipeline"
	"route-forge/internal/prompt"
	"route-forge/internal/reference"
	"route-forge/internal/review"
	"route-forge/internal/specs"
	"route-forge/internal/store"
	"route-forge/internal/telemetry"
	"route-forge/internal/ui"
)

type generateFlags struct {
	entry      int
	onlyFailed bool
	review     bool
	formats    string
}

func newGenerateCmd(flags *globalFlags) *cobra.Command {
	gf := &generateFlags{}

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the generation pipeline over the specification document",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runGenerate(cmd.Context(), flags, gf)
		},
	}

	f := cmd.Flags()
	f.IntVar(&gf.entry, "entry", 0, "Process only the entry with this 1-based index")
	f.BoolVar(&gf.onlyFailed, "only-failed", false, "Process only entries that failed in the last recorded run")
	f.BoolVar(&gf.review, "review", false, "Review generated files after the run")
	f.StringVar(&gf.formats, "format", "", "Comma-separated report formats (excel,html,word,json,openapi)")
	cmd.MarkFlagsMutuallyExclusive("entry", "only-failed")

	return cmd
}

func runGenerate(ctx context.Context, flags *globalFlags, gf *generateFlags) error {
	printBanner()

	cfg, closeLog, err := setup(flags)
	if err != nil {
		return err
	}
	defer closeLog()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.RequireCredential(); err != nil {
		return err
	}

	runID := uuid.NewString()
	summary := model.NewRunSummary(runID, cfg.Specs.Path)
	fsys := afero.NewOsFs()

	reviewing := gf.review || cfg.Review.AfterRun
	progress := newPipeline(flags, ui.RunPhases(reviewing)...)

	// --- Phase 1: Loading ---
	logger.Info("Phase 1: Loading reference data and specifications...")
	loadBar := progress.NextPhase(2)

	project := loadProject(cfg, fsys)
	loadBar.Increment()

	loaded, err := specs.NewLoader(fsys, cfg.Specs.Strict).Load(cfg.Specs.Path)
	if err != nil {
		return err
	}
	loadBar.Increment()

	summary.Loaded = loaded.Total
	summary.Issues = loaded.Issues
	for _, issue := range loaded.Issues {
		logger.Warn("Skipping %s", issue)
	}
	logger.Info("Loaded %d specification(s), %d rejected", len(loaded.Specs), loaded.Rejected())

	var lg *ledger.Ledger
	if cfg.Ledger.Enabled {
		if lg, err = ledger.Open(cfg.GetLedgerPath()); err != nil {
			logger.Warn("Ledger disabled: %v", err)
			lg = nil
		} else {
			defer lg.Close()
		}
	}

	selected, err := selectEntries(ctx, loaded.Specs, gf, lg, cfg.Specs.Path)
	if err != nil {
		return err
	}

	if lg != nil {
		if err := lg.StartRun(ctx, runID, cfg.Specs.Path); err != nil {
			logger.Warn("Ledger disabled: %v", err)
			lg = nil
		}
	}

	tel, err := telemetry.New(cfg.Telemetry.Enabled, cfg.Output.Dir)
	if err != nil {
		logger.Warn("Telemetry disabled: %v", err)
		tel = telemetry.Noop()
	}
	defer shutdownTelemetry(ctx, tel)

	client, err := generation.New(ctx, cfg.Generation, func(ctx context.Context, p *prompt.Payload, _ int, err error) {
		tel.CallFinished(ctx, string(p.Stage), string(p.Profile), err)
	})
	if err != nil {
		return err
	}

	// --- Phase 2: Generating ---
	logger.Info("Phase 2: Generating %d entries...", len(selected))
	genBar := progress.NextPhase(len(selected))

	opts := []pipeline.Option{
		pipeline.WithRunID(runID),
		pipeline.WithTelemetry(tel),
		pipeline.WithProgress(genBar),
	}
	if lg != nil {
		opts = append(opts, pipeline.WithRecorder(lg))
	}
	st := store.New(fsys, cfg.Output.Dir)
	orch := pipeline.New(client, st, project, opts...)
	summary.Entries = orch.Run(ctx, selected)

	// --- Phase 3: Reviewing ---
	if reviewing {
		logger.Info("Phase 3: Reviewing generated files...")
		reviewBar := progress.NextPhase(len(summary.Entries))
		summary.Findings = reviewEntries(ctx, summary.Entries, selected, project, reviewBar)
	}
	summary.FinishedAt = time.Now()

	// --- Phase 4: Reporting ---
	logger.Info("Phase 4: Writing reports...")
	reportBar := progress.NextPhase(1)
	exportErr := exporter.ExportAll(splitFormats(gf.formats, cfg.Output.Formats), summary, selected, cfg)
	reportBar.Increment()
	progress.Finish()

	fmt.Println(ui.Rule(60))
	ui.PrintRunSummary(os.Stdout, summary)
	if len(summary.Findings) > 0 {
		ui.PrintFindings(os.Stdout, summary.Findings)
	}
	progress.PrintSummary()
	logger.InfoClean("Artifacts: %s", st.Root())
	if lg != nil {
		logger.InfoClean("Ledger:    %s (run %s)", lg.Path(), runID)
	}

	if exportErr != nil {
		return exportErr
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run interrupted: %w", err)
	}
	if summary.Failed() > 0 {
		logger.Warn("%d of %d entries failed. See %s", summary.Failed(), len(summary.Entries), logger.GetLogFilePath())
		return errEntriesFailed
	}

	logger.Info("Generation complete. Check [%s] directory.", cfg.Output.Dir)
	return nil
}

// selectEntries narrows the loaded specifications to --entry or
// --only-failed. Failed entries are read before the new run is started.
func selectEntries(ctx context.Context, all []*model.RouteSpecification, gf *generateFlags, lg *ledger.Ledger, specFile string) ([]*model.RouteSpecification, error) {
	switch {
	case gf.entry > 0:
		spec, ok := specs.Select(all, gf.entry)
		if !ok {
			return nil, fmt.Errorf("entry %d is not a valid specification in %s", gf.entry, specFile)
		}
		return []*model.RouteSpecification{spec}, nil

	case gf.onlyFailed:
		if lg == nil {
			return nil, fmt.Errorf("--only-failed needs the run ledger (ledger.enabled)")
		}
		failed, err := lg.FailedEntries(ctx, specFile)
		if err != nil {
			return nil, err
		}
		if len(failed) == 0 {
			logger.Info("No failed entries recorded for %s", specFile)
		}
		return filterByIndex(all, failed), nil
	}
	return all, nil
}

// filterByIndex keeps specifications whose index is listed, in document order
func filterByIndex(all []*model.RouteSpecification, indexes []int) []*model.RouteSpecification {
	keep := make(map[int]bool, len(indexes))
	for _, i := range indexes {
		keep[i] = true
	}

	out := make([]*model.RouteSpecification, 0, len(indexes))
	for _, s := range all {
		if keep[s.Index] {
			out = append(out, s)
		}
	}
	return out
}

func reviewEntries(ctx context.Context, entries []*model.EntryResult, all []*model.RouteSpecification, project *model.ProjectContext, bar *ui.ProgressBar) []model.Finding {
	var findings []model.Finding
	for _, e := range entries {
		spec, _ := specs.Select(all, e.Index)
		findings = append(findings, review.Entry(ctx, spec, e.Bundle, project)...)
		bar.Increment()
	}
	return findings
}

func shutdownTelemetry(ctx context.Context, tel *telemetry.Telemetry) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := tel.Shutdown(ctx); err != nil {
		logger.Warn("Telemetry shutdown failed: %v", err)
	}
}

// loadProject reads the reference data. Files that could not be used are
// logged by the loader and left empty.
func loadProject(cfg *config.Config, fsys afero.Fs) *model.ProjectContext {
	project, _ := reference.NewLoader(fsys, cfg.Reference.Encoding).Load(cfg.Reference)
	return project
}
