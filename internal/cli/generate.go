package cli

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/pipeline"
)

var (
	generateRulesFile string
	generateLanguages []string
	generateNoAI      bool
)

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate adapters from an existing rules file",
	Long: `Generate reads mapping rules (by default the export written by
'craft analyze') and renders one adapter per rule and language into
<output>/adapters/. Rules are used as-is; nothing is re-scored.

Examples:
  # Generate from the last analysis
  craft generate

  # Generate only ArkTS adapters from a hand-edited rules file
  craft generate --rules rules.yaml --lang arkts
`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateRulesFile, "rules", "", "Rules file (default <output>/mapping-rules.json)")
	generateCmd.Flags().StringSliceVar(&generateLanguages, "lang", nil, "Output languages (default from config)")
	generateCmd.Flags().BoolVar(&generateNoAI, "no-ai", false, "Skip AI drafts for bridge rules")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(func() {
		fmt.Println("\nInterrupted! Cancelling generation...")
	})
	defer cancel()

	ws, err := loadWorkspace(cfgFile)
	if err != nil {
		return err
	}
	return executeGenerate(ctx, ws, generateOptions{
		rulesFile: generateRulesFile,
		languages: generateLanguages,
		noAI:      generateNoAI,
		quiet:     !verbose,
	}, cmd.OutOrStdout())
}

type generateOptions struct {
	rulesFile string
	languages []string
	noAI      bool
	quiet     bool
}

func executeGenerate(ctx context.Context, ws *workspace, opts generateOptions, out io.Writer) error {
	if len(opts.languages) > 0 {
		ws.cfg.Generator.Languages = opts.languages
	}

	progress := NewCLIProgressReporter(opts.quiet)
	p, cleanup, err := ws.newPipeline(ctx, pipelineOptions{withOracle: !opts.noAI, progress: progress})
	if err != nil {
		return err
	}
	defer cleanup()
	pc := p.Config()

	rulesPath := opts.rulesFile
	if rulesPath == "" {
		rulesPath = filepath.Join(pc.OutputDir, pipeline.RulesFileName)
	}
	rules, err := pipeline.LoadRules(rulesPath)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}
	if len(rules) == 0 {
		return fmt.Errorf("no rules in %s; run 'craft analyze' first", rulesPath)
	}

	discovery, err := pipeline.NewSpecDiscovery(pc.Include, pc.Ignore)
	if err != nil {
		return err
	}
	sources, err := pipeline.LoadSpecs(pc.SourceDir, discovery, pc.SourcePlatform, ws.logger)
	if err != nil {
		return err
	}
	targets, err := pipeline.LoadSpecs(pc.TargetDir, discovery, pc.TargetPlatform, ws.logger)
	if err != nil {
		return err
	}

	analysis := &pipeline.Analysis{
		Sources: sources,
		Targets: targets,
		Rules:   pipeline.OrderByInheritance(rules, sources.Specs, ws.logger),
	}
	stats, err := p.Generate(ctx, analysis)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("generation cancelled")
		}
		return fmt.Errorf("generation failed: %w", err)
	}
	progress.OnComplete(stats)

	printFailedFiles(out, sources, targets)
	printStats(out, stats, filepath.Join(pc.OutputDir, pipeline.AdaptersDir))
	return nil
}

func printStats(out io.Writer, stats *pipeline.Stats, adaptersDir string) {
	fmt.Fprintf(out, "Processed %d of %d rules: %d successful, %d failed, %d skipped\n",
		stats.Processed, stats.Rules, stats.Successful, stats.Failed, stats.Skipped)
	fmt.Fprintf(out, "Wrote %d adapters", stats.Adapters)
	if stats.Drafts > 0 {
		fmt.Fprintf(out, " and %d AI drafts", stats.Drafts)
	}
	fmt.Fprintf(out, " to %s\n", adaptersDir)
	if stats.Uncovered > 0 {
		fmt.Fprintf(out, "%d of %d source APIs have no mapping\n", stats.Uncovered, stats.Total)
	}
}
