package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/pipeline"
)

var (
	quietFlag         bool
	watchFlag         bool
	maxConcurrentFlag int
	runNoAIFlag       bool
)

// DefaultDebounce is how long watch mode waits for spec edits to settle.
const DefaultDebounce = 500 * time.Millisecond

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline: analyze, generate and record",
	Long: `Run parses both spec directories, synthesizes mapping rules, exports them
and generates adapters in every configured language. Results are recorded in
the run store (.craft/craft.db) unless storage is disabled.

A broken spec file or a failing adapter never stops the run; it is counted
and reported at the end.

Examples:
  # Run once
  craft run

  # Re-run whenever a spec file changes
  craft run --watch

  # Limit parallel generation
  craft run --max-concurrent 2
`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Disable progress bars and non-error output")
	runCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "Watch spec directories and re-run on changes")
	runCmd.Flags().IntVar(&maxConcurrentFlag, "max-concurrent", 0, "Rules generated in parallel (default from config)")
	runCmd.Flags().BoolVar(&runNoAIFlag, "no-ai", false, "Skip AI assist for bridge rules")
}

type runOptions struct {
	quiet         bool
	watch         bool
	maxConcurrent int
	noAI          bool
	debounce      time.Duration
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(func() {
		fmt.Println("\nInterrupted! Cancelling run...")
	})
	defer cancel()

	ws, err := loadWorkspace(cfgFile)
	if err != nil {
		return err
	}
	return executeRun(ctx, ws, runOptions{
		quiet:         quietFlag,
		watch:         watchFlag,
		maxConcurrent: maxConcurrentFlag,
		noAI:          runNoAIFlag,
		debounce:      DefaultDebounce,
	}, cmd.OutOrStdout())
}

func executeRun(ctx context.Context, ws *workspace, opts runOptions, out io.Writer) error {
	if opts.maxConcurrent < 0 {
		return fmt.Errorf("--max-concurrent cannot be negative")
	}
	if opts.maxConcurrent > 0 {
		ws.cfg.Mapping.Workers = opts.maxConcurrent
	}

	p, cleanup, err := ws.newPipeline(ctx, pipelineOptions{
		withOracle: !opts.noAI,
		withStore:  true,
		progress:   NewCLIProgressReporter(opts.quiet),
	})
	if err != nil {
		return err
	}
	defer cleanup()
	adaptersDir := filepath.Join(p.Config().OutputDir, pipeline.AdaptersDir)

	if opts.watch {
		if !opts.quiet {
			ws.logger.Info("starting watch mode", "source", p.Config().SourceDir, "target", p.Config().TargetDir)
		}
		err := p.Watch(ctx, opts.debounce, func(stats *pipeline.Stats, err error) {
			if err != nil || opts.quiet {
				return
			}
			printStats(out, stats, adaptersDir)
		})
		if err != nil && ctx.Err() == nil {
			return fmt.Errorf("watch mode failed: %w", err)
		}
		if !opts.quiet {
			ws.logger.Info("watch mode stopped")
		}
		return nil
	}

	stats, err := p.Run(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("run cancelled")
		}
		return fmt.Errorf("run failed: %w", err)
	}

	if !opts.quiet {
		printStats(out, stats, adaptersDir)
	}
	return nil
}
