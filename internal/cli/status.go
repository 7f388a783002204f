package cli

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/storage"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the most recent recorded run",
	Long: `Status reads the run store and prints the latest run: its inputs, the
rules it produced by category and the generation outcome.

Example:
  craft status`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ws, err := loadWorkspace(cfgFile)
	if err != nil {
		return err
	}
	return executeStatus(ws, cmd.OutOrStdout())
}

func executeStatus(ws *workspace, out io.Writer) error {
	if !ws.cfg.Storage.Enabled {
		fmt.Fprintln(out, "Run storage is disabled (storage.enabled: false)")
		return nil
	}

	db, err := ws.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	reader := storage.NewRuleReader(db)
	run, err := reader.LatestRun()
	if err != nil {
		return err
	}
	if run == nil {
		fmt.Fprintln(out, "No runs recorded yet. Run 'craft run' first.")
		return nil
	}

	rules, err := reader.ReadRules(run.RunID)
	if err != nil {
		return err
	}
	counts := make(map[model.MappingType]int)
	for _, r := range rules {
		counts[r.MappingType]++
	}

	fmt.Fprintf(out, "Run:        %s\n", run.RunID)
	fmt.Fprintf(out, "Started:    %s\n", run.StartedAt.Local().Format(time.DateTime))
	if run.FinishedAt.IsZero() {
		fmt.Fprintln(out, "Finished:   (incomplete)")
	} else {
		fmt.Fprintf(out, "Finished:   %s (%s)\n",
			run.FinishedAt.Local().Format(time.DateTime),
			run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(out, "Source:     %s\n", run.SourceDir)
	fmt.Fprintf(out, "Target:     %s\n", run.TargetDir)
	fmt.Fprintf(out, "Languages:  %s\n", strings.Join(run.Languages, ", "))
	fmt.Fprintf(out, "Threshold:  %.2f\n", run.MinConfidence)
	fmt.Fprintf(out, "Rules:      %d (%d direct, %d semantic, %d bridge, %d shim)\n",
		len(rules),
		counts[model.MappingDirect], counts[model.MappingSemantic],
		counts[model.MappingBridge], counts[model.MappingShim])
	fmt.Fprintf(out, "Outcome:    %d processed, %d successful, %d failed, %d skipped\n",
		run.Processed, run.Successful, run.Failed, run.Skipped)
	return nil
}
