// Package mapping synthesizes mapping rules by matching each source API to
// its best-scoring target API.
package mapping

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/similarity"
)

const (
	// DefaultMinConfidence is the lowest score that yields a rule.
	DefaultMinConfidence = 0.7

	// DirectThreshold and SemanticThreshold split scores into categories.
	DirectThreshold   = 0.9
	SemanticThreshold = 0.7

	// MethodPairThreshold is the name similarity a method pairing must exceed.
	MethodPairThreshold = 0.5
)

// Config controls synthesis.
type Config struct {
	// MinConfidence is the inclusive lower bound for emitting a rule.
	MinConfidence float64
	// Workers bounds parallel source evaluation. Zero uses GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{MinConfidence: DefaultMinConfidence}
}

// Option customizes a Synthesizer.
type Option func(*Synthesizer)

// WithScorer replaces the similarity scorer.
func WithScorer(s similarity.Scorer) Option {
	return func(syn *Synthesizer) { syn.scorer = s }
}

// WithLogger sets the logger used for coverage reporting.
func WithLogger(l *slog.Logger) Option {
	return func(syn *Synthesizer) { syn.logger = l }
}

// WithClock sets the time source stamped onto rules.
func WithClock(now func() time.Time) Option {
	return func(syn *Synthesizer) { syn.now = now }
}

// Synthesizer turns source and target API lists into mapping rules.
// It holds no mutable state and is safe for concurrent use.
type Synthesizer struct {
	cfg    Config
	scorer similarity.Scorer
	logger *slog.Logger
	now    func() time.Time
}

// NewSynthesizer creates a Synthesizer.
func NewSynthesizer(cfg Config, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		cfg:    cfg,
		scorer: similarity.Default,
		logger: slog.Default(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Config returns the synthesizer's configuration.
func (s *Synthesizer) Config() Config { return s.cfg }

// Synthesize emits at most one rule per source API, in source order.
// Sources with no target scoring at least MinConfidence are dropped.
// Inputs are read concurrently and must not be mutated during the call.
func (s *Synthesizer) Synthesize(ctx context.Context, sources, targets []*model.APISpec) ([]model.MappingRule, error) {
	slots := make([]*model.MappingRule, len(sources))

	workers := s.cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			slots[i] = s.SynthesizeOne(src, targets)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("synthesis cancelled: %w", err)
	}

	rules := make([]model.MappingRule, 0, len(sources))
	for i, r := range slots {
		if r == nil {
			s.logger.Debug("no target above threshold",
				"source", sources[i].FullQualifiedName,
				"min_confidence", s.cfg.MinConfidence)
			continue
		}
		rules = append(rules, *r)
	}

	if dropped := len(sources) - len(rules); dropped > 0 {
		s.logger.Info("sources without mapping",
			"dropped", dropped, "sources", len(sources), "rules", len(rules))
	}
	return rules, nil
}

// SynthesizeOne matches a single source API. It returns nil when no target
// reaches the confidence threshold.
func (s *Synthesizer) SynthesizeOne(source *model.APISpec, targets []*model.APISpec) *model.MappingRule {
	target, score, ok := s.bestMatch(source, targets)
	if !ok {
		return nil
	}

	rule := model.NewMappingRule(source.Reference(), target.Reference(), Classify(score), score, s.now())
	rule.MethodMappings = MethodMappings(source, target)
	return rule
}

// bestMatch keeps the first target with the highest score at or above the
// threshold; later targets must score strictly higher to replace it.
func (s *Synthesizer) bestMatch(source *model.APISpec, targets []*model.APISpec) (*model.APISpec, float64, bool) {
	var (
		best      *model.APISpec
		bestScore float64
	)
	for _, t := range targets {
		score := s.scorer.Score(source, t)
		if score < s.cfg.MinConfidence {
			continue
		}
		if best == nil || score > bestScore {
			best, bestScore = t, score
		}
	}
	return best, bestScore, best != nil
}

// Classify maps a score onto a mapping category. Shim is never returned.
func Classify(score float64) model.MappingType {
	switch {
	case score > DirectThreshold:
		return model.MappingDirect
	case score > SemanticThreshold:
		return model.MappingSemantic
	default:
		return model.MappingBridge
	}
}

// MethodMappings pairs each source method with its most similarly named
// target method, keeping pairs above MethodPairThreshold. Ties go to the
// later target method.
func MethodMappings(source, target *model.APISpec) []model.MethodMapping {
	var out []model.MethodMapping
	for _, sm := range source.Methods {
		bestIdx := -1
		bestSim := 0.0
		for i, tm := range target.Methods {
			sim := similarity.StringSimilarity(sm.Name, tm.Name)
			if bestIdx < 0 || sim >= bestSim {
				bestIdx, bestSim = i, sim
			}
		}
		if bestIdx < 0 || bestSim <= MethodPairThreshold {
			continue
		}
		tm := target.Methods[bestIdx]
		out = append(out, model.MethodMapping{
			SourceMethod:  sm.Name,
			TargetMethod:  tm.Name,
			ParamMappings: pairParams(sm.Parameters, tm.Parameters),
		})
	}
	return out
}

// pairParams pairs parameters positionally when both sides have the same
// arity. Otherwise the generator falls back to raw parameter names.
func pairParams(src, tgt []model.ParameterSpec) []model.ParamPair {
	if len(src) == 0 || len(src) != len(tgt) {
		return nil
	}
	pairs := make([]model.ParamPair, len(src))
	for i := range src {
		pairs[i] = model.ParamPair{Source: src[i].Name, Target: tgt[i].Name}
	}
	return pairs
}
