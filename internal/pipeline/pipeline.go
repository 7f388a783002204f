// Package pipeline sequences a full run: discover and parse spec files,
// synthesize mapping rules, order them, generate adapters in every
// requested language and persist the results. Failures are isolated per
// file and per (rule, language) pair and counted in Stats.
package pipeline

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/oracle"
	"github.com/mvp-joe/craft/internal/storage"
)

const (
	// AdaptersDir is the output subdirectory holding generated adapters.
	AdaptersDir = "adapters"
	// RulesFileName is the rule export written next to the adapters.
	RulesFileName = "mapping-rules.json"
)

// Config locates inputs and outputs for a run.
type Config struct {
	SourceDir      string
	TargetDir      string
	OutputDir      string
	Include        []string
	Ignore         []string
	SourcePlatform model.Platform // empty disables the platform check
	TargetPlatform model.Platform
	Languages      []lang.Language
	RulesFile      string
	// MaxConcurrent bounds rules generated at once. Zero uses GOMAXPROCS.
	MaxConcurrent int
}

// Stats counts the outcome of a run. Processed counts rules attempted;
// each is then exactly one of Successful, Failed or Skipped.
type Stats struct {
	Total       int // source APIs parsed
	Rules       int
	Uncovered   int // source APIs without a rule
	Processed   int
	Successful  int
	Failed      int
	Skipped     int // rules whose source or target spec is missing
	FailedFiles int
	Adapters    int
	Drafts      int
	Duration    time.Duration
}

// Store persists run results. *storage.RuleWriter implements it.
type Store interface {
	WriteRun(run *storage.RunRecord) error
	WriteRules(runID string, rules []model.MappingRule) error
	WriteAdapter(rec *storage.AdapterRecord) error
	WriteOracleScore(ruleID string, score float64, at time.Time) error
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithOracle enables AI assist for Bridge rules.
func WithOracle(o *oracle.Oracle) Option {
	return func(p *Pipeline) { p.oracle = o }
}

// WithStore persists runs, rules and adapter records.
func WithStore(s Store) Option {
	return func(p *Pipeline) { p.store = s }
}

// WithProgress sets the progress reporter.
func WithProgress(r ProgressReporter) Option {
	return func(p *Pipeline) { p.progress = r }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs the end-to-end flow. It is not safe for concurrent Run
// calls; watch mode serializes runs.
type Pipeline struct {
	cfg       Config
	synth     *mapping.Synthesizer
	gen       *generator.Generator
	discovery *SpecDiscovery
	oracle    *oracle.Oracle
	store     Store
	progress  ProgressReporter
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a Pipeline. It fails only on invalid discovery patterns or
// languages.
func New(cfg Config, synth *mapping.Synthesizer, gen *generator.Generator, opts ...Option) (*Pipeline, error) {
	discovery, err := NewSpecDiscovery(cfg.Include, cfg.Ignore)
	if err != nil {
		return nil, crafterr.Wrapf(crafterr.KindConfig, "pipeline", err, "invalid spec pattern")
	}
	if len(cfg.Languages) == 0 {
		cfg.Languages = lang.All
	}
	for _, l := range cfg.Languages {
		if !l.Valid() {
			return nil, crafterr.Wrapf(crafterr.KindConfig, "pipeline", crafterr.ErrUnsupportedFormat, "%s", l)
		}
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = runtime.GOMAXPROCS(0)
	}

	p := &Pipeline{
		cfg:       cfg,
		synth:     synth,
		gen:       gen,
		discovery: discovery,
		oracle:    oracle.Unavailable(),
		progress:  NoOpProgressReporter{},
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Analysis is the output of the load and synthesis phases.
type Analysis struct {
	Sources *SpecSet
	Targets *SpecSet
	Rules   []model.MappingRule
}

// Uncovered counts source APIs no rule maps.
func (a *Analysis) Uncovered() int {
	return countUncovered(a.Sources.Specs, a.Rules)
}

// Analyze parses both spec directories, synthesizes rules, applies manual
// rules and orders the result parent-first.
func (p *Pipeline) Analyze(ctx context.Context) (*Analysis, error) {
	sources, err := LoadSpecs(p.cfg.SourceDir, p.discovery, p.cfg.SourcePlatform, p.logger)
	if err != nil {
		return nil, err
	}
	targets, err := LoadSpecs(p.cfg.TargetDir, p.discovery, p.cfg.TargetPlatform, p.logger)
	if err != nil {
		return nil, err
	}
	p.logger.Info("parsed specs",
		"sources", len(sources.Specs), "targets", len(targets.Specs),
		"failed_files", len(sources.Failed)+len(targets.Failed))
	p.progress.OnLoadComplete(len(sources.Specs), len(targets.Specs), len(sources.Failed)+len(targets.Failed))

	manual, err := LoadRules(p.cfg.RulesFile)
	if err != nil {
		return nil, err
	}

	rules, err := p.synth.Synthesize(ctx, sources.Specs, targets.Specs)
	if err != nil {
		return nil, err
	}
	rules = mapping.Overlay(rules, manual)
	rules = OrderByInheritance(rules, sources.Specs, p.logger)

	p.logger.Info("synthesized rules", "rules", len(rules), "manual", len(manual))
	p.progress.OnSynthesisComplete(len(rules))

	return &Analysis{Sources: sources, Targets: targets, Rules: rules}, nil
}

// ExportRules writes rules to <output>/mapping-rules.json and returns the
// path.
func (p *Pipeline) ExportRules(rules []model.MappingRule) (string, error) {
	data, err := model.EncodeRules(rules, model.FormatJSON)
	if err != nil {
		return "", err
	}
	path := filepath.Join(p.cfg.OutputDir, RulesFileName)
	if err := writeFile(path, data); err != nil {
		return "", err
	}
	return path, nil
}

// Run executes the whole flow and returns its statistics. Per-file and
// per-rule failures are counted, not returned; an error means the run
// itself could not proceed.
func (p *Pipeline) Run(ctx context.Context) (*Stats, error) {
	start := p.now()
	runID := uuid.NewString()

	analysis, err := p.Analyze(ctx)
	if err != nil {
		return nil, err
	}

	if _, err := p.ExportRules(analysis.Rules); err != nil {
		return nil, err
	}

	run := &storage.RunRecord{
		RunID:         runID,
		SourceDir:     p.cfg.SourceDir,
		TargetDir:     p.cfg.TargetDir,
		MinConfidence: p.synth.Config().MinConfidence,
		Languages:     languageNames(p.cfg.Languages),
		StartedAt:     start,
	}
	if p.store != nil {
		if err := p.store.WriteRun(run); err != nil {
			return nil, crafterr.Wrap(crafterr.KindIO, "store run", err)
		}
		if err := p.store.WriteRules(runID, analysis.Rules); err != nil {
			return nil, crafterr.Wrap(crafterr.KindIO, "store rules", err)
		}
	}

	stats, err := p.Generate(ctx, analysis)
	if err != nil {
		return nil, err
	}
	stats.Duration = p.now().Sub(start)

	if p.store != nil {
		run.Total = stats.Total
		run.Processed = stats.Processed
		run.Successful = stats.Successful
		run.Failed = stats.Failed
		run.Skipped = stats.Skipped
		run.FinishedAt = p.now()
		if err := p.store.WriteRun(run); err != nil {
			p.logger.Warn("failed to record run result", "run", runID, "error", err)
		}
	}

	p.logger.Info("pipeline completed",
		"total", stats.Total, "processed", stats.Processed,
		"successful", stats.Successful, "failed", stats.Failed, "skipped", stats.Skipped,
		"duration", stats.Duration)
	p.progress.OnComplete(stats)
	return stats, nil
}

// ruleResult is what one rule's generation task hands back. Tasks never
// share state; results are merged after the group finishes.
type ruleResult struct {
	skipped  bool
	failed   bool
	adapters []storage.AdapterRecord
	drafts   int
	score    *float64
}

// Generate renders adapters for every analyzed rule. Generation failures
// drop only the affected (rule, language) pair.
func (p *Pipeline) Generate(ctx context.Context, a *Analysis) (*Stats, error) {
	stats := &Stats{
		Total:       len(a.Sources.Specs),
		Rules:       len(a.Rules),
		FailedFiles: len(a.Sources.Failed) + len(a.Targets.Failed),
	}
	stats.Uncovered = a.Uncovered()
	if stats.Uncovered > 0 {
		p.logger.Warn("source APIs without a mapping", "count", stats.Uncovered)
	}

	sources := indexSpecs(a.Sources.Specs)
	targets := indexSpecs(a.Targets.Specs)

	p.progress.OnGenerationStart(len(a.Rules))

	results := make([]ruleResult, len(a.Rules))
	var progressMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.MaxConcurrent)
	for i := range a.Rules {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rule := &a.Rules[i]
			results[i] = p.generateRule(gctx, rule, sources[rule.Source.Class], targets[rule.Target.Class])

			progressMu.Lock()
			p.progress.OnRuleProcessed(rule.Source.Class)
			progressMu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, res := range results {
		stats.Processed++
		switch {
		case res.skipped:
			stats.Skipped++
		case res.failed:
			stats.Failed++
		default:
			stats.Successful++
		}
		stats.Drafts += res.drafts
		stats.Adapters += len(res.adapters) - res.drafts
		p.persist(&a.Rules[i], &res)
	}
	return stats, nil
}

func (p *Pipeline) generateRule(ctx context.Context, rule *model.MappingRule, source, target *model.APISpec) ruleResult {
	var res ruleResult
	if source == nil || target == nil {
		p.logger.Warn("missing spec for rule, skipping",
			"rule", rule.ID, "source", rule.Source.Class, "target", rule.Target.Class)
		res.skipped = true
		return res
	}

	for _, l := range p.cfg.Languages {
		rec, err := p.emit(rule, source, target, l)
		if err != nil {
			p.logger.Warn("adapter generation failed",
				"rule", rule.ID, "source", rule.Source.Class, "language", l, "error", err)
			res.failed = true
			continue
		}
		res.adapters = append(res.adapters, *rec)
	}

	if rule.MappingType == model.MappingBridge && p.oracle.Available() {
		p.assist(ctx, rule, source, target, &res)
	}
	return res
}

func (p *Pipeline) emit(rule *model.MappingRule, source, target *model.APISpec, l lang.Language) (*storage.AdapterRecord, error) {
	code, err := p.gen.Generate(rule, source, target, l)
	if err != nil {
		return nil, err
	}
	rel, err := generator.RelativePath(rule, l)
	if err != nil {
		return nil, err
	}
	return p.writeAdapter(rule, rel, code, l, false)
}

// assist asks the oracle for a similarity estimate and a draft adapter per
// language. Oracle failures are logged and never affect the rule's status.
func (p *Pipeline) assist(ctx context.Context, rule *model.MappingRule, source, target *model.APISpec, res *ruleResult) {
	score, err := p.oracle.EstimateSimilarity(ctx, source, target)
	if err != nil {
		p.logger.Warn("oracle similarity failed", "rule", rule.ID, "source", rule.Source.Class, "error", err)
	} else {
		res.score = &score
	}

	for _, l := range p.cfg.Languages {
		code, err := p.oracle.DraftAdapter(ctx, rule, source, target, l)
		if err != nil {
			p.logger.Warn("oracle draft failed", "rule", rule.ID, "language", l, "error", err)
			continue
		}
		rel, err := DraftPath(rule, l)
		if err != nil {
			continue
		}
		rec, err := p.writeAdapter(rule, rel, code, l, true)
		if err != nil {
			p.logger.Warn("failed to write draft", "rule", rule.ID, "language", l, "error", err)
			continue
		}
		res.adapters = append(res.adapters, *rec)
		res.drafts++
	}
}

func (p *Pipeline) writeAdapter(rule *model.MappingRule, rel, code string, l lang.Language, draft bool) (*storage.AdapterRecord, error) {
	path := filepath.Join(p.cfg.OutputDir, AdaptersDir, filepath.FromSlash(rel))
	if err := writeFile(path, []byte(code)); err != nil {
		return nil, err
	}
	sum := sha256.Sum256([]byte(code))
	return &storage.AdapterRecord{
		RuleID:      rule.ID.String(),
		Language:    l.String(),
		Draft:       draft,
		Path:        rel,
		Checksum:    hex.EncodeToString(sum[:]),
		GeneratedAt: p.now(),
	}, nil
}

// persist records a rule's adapters and oracle score. Store failures are
// logged; the files on disk remain the primary output.
func (p *Pipeline) persist(rule *model.MappingRule, res *ruleResult) {
	if p.store == nil {
		return
	}
	for i := range res.adapters {
		if err := p.store.WriteAdapter(&res.adapters[i]); err != nil {
			p.logger.Warn("failed to record adapter", "rule", rule.ID, "path", res.adapters[i].Path, "error", err)
		}
	}
	if res.score != nil {
		if err := p.store.WriteOracleScore(rule.ID.String(), *res.score, p.now()); err != nil {
			p.logger.Warn("failed to record oracle score", "rule", rule.ID, "error", err)
		}
	}
}

// DraftPath is where an oracle-drafted adapter for rule lives:
// <Class>Adapter.draft.<ext> next to the generated one.
func DraftPath(rule *model.MappingRule, l lang.Language) (string, error) {
	rel, err := generator.RelativePath(rule, l)
	if err != nil {
		return "", err
	}
	ext := "." + l.Extension()
	return strings.TrimSuffix(rel, ext) + ".draft" + ext, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return crafterr.Wrapf(crafterr.KindIO, "write", err, "failed to create %s", filepath.Dir(path))
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return crafterr.Wrapf(crafterr.KindIO, "write", err, "failed to write %s", path)
	}
	return nil
}

func indexSpecs(specs []*model.APISpec) map[string]*model.APISpec {
	m := make(map[string]*model.APISpec, len(specs))
	for _, s := range specs {
		m[s.FullQualifiedName] = s
	}
	return m
}

func countUncovered(sources []*model.APISpec, rules []model.MappingRule) int {
	covered := make(map[string]bool, len(rules))
	for _, r := range rules {
		covered[r.Source.Class] = true
	}
	n := 0
	for _, s := range sources {
		if !covered[s.FullQualifiedName] {
			n++
		}
	}
	return n
}

func languageNames(ls []lang.Language) []string {
	out := make([]string, len(ls))
	for i, l := range ls {
		out[i] = l.String()
	}
	return out
}

// String summarizes stats on one line.
func (s *Stats) String() string {
	return fmt.Sprintf("total=%d rules=%d processed=%d successful=%d failed=%d skipped=%d adapters=%d drafts=%d",
		s.Total, s.Rules, s.Processed, s.Successful, s.Failed, s.Skipped, s.Adapters, s.Drafts)
}
