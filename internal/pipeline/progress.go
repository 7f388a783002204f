package pipeline

// ProgressReporter receives pipeline progress callbacks. Implementations
// can display progress bars, log messages, or remain silent.
type ProgressReporter interface {
	// OnLoadComplete is called once both spec directories are parsed.
	OnLoadComplete(sources, targets, failedFiles int)

	// OnSynthesisComplete is called with the number of rules produced.
	OnSynthesisComplete(rules int)

	// OnGenerationStart is called before adapters are generated.
	OnGenerationStart(totalRules int)

	// OnRuleProcessed is called after every rule, successful or not.
	OnRuleProcessed(sourceClass string)

	// OnComplete is called when the run finishes.
	OnComplete(stats *Stats)
}

// NoOpProgressReporter is a progress reporter that does nothing.
type NoOpProgressReporter struct{}

func (NoOpProgressReporter) OnLoadComplete(sources, targets, failedFiles int) {}
func (NoOpProgressReporter) OnSynthesisComplete(rules int)                    {}
func (NoOpProgressReporter) OnGenerationStart(totalRules int)                 {}
func (NoOpProgressReporter) OnRuleProcessed(sourceClass string)               {}
func (NoOpProgressReporter) OnComplete(stats *Stats)                          {}
