package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/mvp-joe/craft/internal/pipeline"
)

// CLIProgressReporter implements progress reporting with a progress bar.
type CLIProgressReporter struct {
	quiet          bool
	ruleBar        *progressbar.ProgressBar
	startTime      time.Time
	totalRules     int
	processedRules int
}

// NewCLIProgressReporter creates a new CLI progress reporter.
func NewCLIProgressReporter(quiet bool) *CLIProgressReporter {
	return &CLIProgressReporter{
		quiet:     quiet,
		startTime: time.Now(),
	}
}

func (c *CLIProgressReporter) OnLoadComplete(sources, targets, failedFiles int) {
	if c.quiet {
		return
	}
	c.startTime = time.Now()
	if failedFiles > 0 {
		log.Printf("Loaded %d source and %d target APIs (%d files skipped)\n", sources, targets, failedFiles)
		return
	}
	log.Printf("Loaded %d source and %d target APIs\n", sources, targets)
}

func (c *CLIProgressReporter) OnSynthesisComplete(rules int) {
	if c.quiet {
		return
	}
	log.Printf("Synthesized %d mapping rules\n", rules)
}

func (c *CLIProgressReporter) OnGenerationStart(totalRules int) {
	if c.quiet || totalRules == 0 {
		return
	}
	c.totalRules = totalRules
	c.processedRules = 0

	c.ruleBar = progressbar.NewOptions(totalRules,
		progressbar.OptionSetDescription("Generating adapters"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("rules/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Println()
		}),
	)
}

func (c *CLIProgressReporter) OnRuleProcessed(sourceClass string) {
	if c.quiet {
		return
	}
	if c.ruleBar != nil {
		c.processedRules++
		c.ruleBar.Add(1)
	}
}

func (c *CLIProgressReporter) OnComplete(stats *pipeline.Stats) {
	if c.quiet {
		return
	}
	if c.ruleBar != nil {
		c.ruleBar.Finish()
		c.ruleBar = nil
	}
	elapsed := stats.Duration
	if elapsed == 0 {
		elapsed = time.Since(c.startTime)
	}
	log.Printf("Done in %s: %s\n", elapsed.Round(time.Millisecond), stats)
}

var _ pipeline.ProgressReporter = (*CLIProgressReporter)(nil)
