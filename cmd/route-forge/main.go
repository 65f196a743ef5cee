package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"route-forge/internal/config"
	"route-forge/internal/logger"
	"route-forge/internal/ui"
)

const (
	appName    = "Route Forge"
	appVersion = "1.0.0"
	appDesc    = "Generates Express routes, controllers, services, docs and tests from YAML route specifications"
)

// errEntriesFailed marks a run that finished but left entries unprocessed
var errEntriesFailed = errors.New("one or more entries failed")

// globalFlags are shared by every command
type globalFlags struct {
	configPath string
	verbose    bool
	outputDir  string
	specsPath  string
	noProgress bool
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errEntriesFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "route-forge",
		Short:         appDesc,
		Version:       appVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "route-forge.yaml", "Path to configuration file")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "Enable verbose logging (DEBUG level)")
	pf.StringVar(&flags.outputDir, "output", "", "Override output directory from config")
	pf.StringVar(&flags.specsPath, "specs", "", "Override specification document from config")
	pf.BoolVar(&flags.noProgress, "no-progress", false, "Disable progress bars")

	root.AddCommand(
		newGenerateCmd(flags),
		newValidateCmd(flags),
		newReviewCmd(flags),
		newHistoryCmd(flags),
	)
	return root
}

// setup loads the configuration, applies flag overrides and starts the logger.
// The returned function closes the log file.
func setup(flags *globalFlags) (*config.Config, func(), error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if flags.outputDir != "" {
		if err := cfg.SetOutputDir(flags.outputDir); err != nil {
			return nil, nil, err
		}
	}
	if flags.specsPath != "" {
		abs, err := filepath.Abs(flags.specsPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve specs path: %w", err)
		}
		cfg.Specs.Path = abs
	}

	logPath := filepath.Join(cfg.Output.Dir, "route-forge.log")
	if err := logger.Init(os.Stdout, logPath, flags.verbose); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if flags.verbose {
		cfg.Print()
	}
	return cfg, logger.Close, nil
}

func newPipeline(flags *globalFlags, phases ...ui.Phase) *ui.Pipeline {
	p := ui.NewPipeline(phases)
	if flags.noProgress {
		p.Disable()
	}
	return p
}

// splitFormats parses a comma-separated --format value, falling back to the
// configured formats when the flag is empty
func splitFormats(value string, fallback []string) []string {
	var out []string
	for _, f := range strings.Split(value, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func printBanner() {
	fmt.Println(ui.Banner(appName, appVersion, appDesc))
	fmt.Println()
}
