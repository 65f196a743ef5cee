package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"route-forge/internal/ledger"
	"route-forge/internal/logger"
	"route-forge/internal/review"
	"route-forge/internal/specs"
	"route-forge/internal/ui"
)

func newValidateCmd(flags *globalFlags) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Load and validate the specification document without generating",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := setup(flags)
			if err != nil {
				return err
			}
			defer closeLog()

			if cmd.Flags().Changed("strict") {
				cfg.Specs.Strict = strict
			}

			res, err := specs.NewLoader(afero.NewOsFs(), cfg.Specs.Strict).Load(cfg.Specs.Path)
			if err != nil {
				return err
			}

			ui.PrintIssues(os.Stdout, res.Issues)
			logger.Info("%d of %d entries valid in %s", len(res.Specs), res.Total, cfg.Specs.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Also require input field types, descriptions and logical steps")
	return cmd
}

func newReviewCmd(flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "review [dir]",
		Short: "Run the advisory reviewer over a directory of generated files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closeLog, err := setup(flags)
			if err != nil {
				return err
			}
			defer closeLog()

			dir := cfg.Output.Dir
			if len(args) == 1 {
				dir = args[0]
			}

			fsys := afero.NewOsFs()
			findings, err := review.Dir(cmd.Context(), fsys, dir, loadProject(cfg, fsys))
			if err != nil {
				return fmt.Errorf("failed to review %s: %w", dir, err)
			}

			ui.PrintFindings(os.Stdout, findings)
			issues, suggestions := review.Count(findings)
			logger.Info("Reviewed %s: %d issue(s), %d suggestion(s)", dir, issues, suggestions)
			return nil
		},
	}
}

func newHistoryCmd(flags *globalFlags) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent runs recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, closeLog, err := setup(flags)
			if err != nil {
				return err
			}
			defer closeLog()

			lg, err := ledger.Open(cfg.GetLedgerPath())
			if err != nil {
				return err
			}
			defer lg.Close()

			runs, err := lg.Runs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			ui.PrintHistory(os.Stdout, runs)
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Number of runs to show")
	return cmd
}
