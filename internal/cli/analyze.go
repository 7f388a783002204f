package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/config"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/pipeline"
)

var analyzeMinConfidence float64

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Synthesize mapping rules without generating adapters",
	Long: `Analyze parses the Android and HarmonyOS spec directories, scores every
source API against every target API and writes the resulting mapping rules
to <output>/mapping-rules.json.

Rules from the configured rules_file replace synthesized rules for the same
source class. Review or edit the export, then feed it to 'craft generate'.

Examples:
  # Analyze with the configured threshold
  craft analyze

  # Accept weaker matches
  craft analyze --min-confidence 0.5
`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().Float64Var(&analyzeMinConfidence, "min-confidence", -1, "Minimum score for a rule (default from config)")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext(nil)
	defer cancel()

	ws, err := loadWorkspace(cfgFile)
	if err != nil {
		return err
	}
	return executeAnalyze(ctx, ws, analyzeMinConfidence, cmd.OutOrStdout())
}

// executeAnalyze runs load and synthesis and exports the rules. A negative
// minConfidence keeps the configured threshold.
func executeAnalyze(ctx context.Context, ws *workspace, minConfidence float64, out io.Writer) error {
	if minConfidence >= 0 {
		ws.cfg.Mapping.MinConfidence = minConfidence
		if err := config.Validate(ws.cfg); err != nil {
			return err
		}
	}

	p, cleanup, err := ws.newPipeline(ctx, pipelineOptions{})
	if err != nil {
		return err
	}
	defer cleanup()

	analysis, err := p.Analyze(ctx)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	path, err := p.ExportRules(analysis.Rules)
	if err != nil {
		return fmt.Errorf("failed to export rules: %w", err)
	}

	counts := make(map[model.MappingType]int)
	for _, r := range analysis.Rules {
		counts[r.MappingType]++
	}

	fmt.Fprintf(out, "Parsed %d source and %d target APIs\n",
		len(analysis.Sources.Specs), len(analysis.Targets.Specs))
	printFailedFiles(out, analysis.Sources, analysis.Targets)
	fmt.Fprintf(out, "Synthesized %d rules (%d direct, %d semantic, %d bridge, %d shim)\n",
		len(analysis.Rules),
		counts[model.MappingDirect], counts[model.MappingSemantic],
		counts[model.MappingBridge], counts[model.MappingShim])
	if n := analysis.Uncovered(); n > 0 {
		fmt.Fprintf(out, "%d source APIs have no mapping\n", n)
	}
	fmt.Fprintf(out, "Rules written to %s\n", path)
	return nil
}

func printFailedFiles(out io.Writer, sets ...*pipeline.SpecSet) {
	for _, set := range sets {
		for _, f := range set.Failed {
			fmt.Fprintf(out, "  skipped %s\n", f.Error())
		}
	}
}
