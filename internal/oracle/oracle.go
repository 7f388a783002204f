// Package oracle is the optional AI collaborator. It can estimate API
// similarity or draft an adapter, and every answer is validated before use.
// The deterministic mapping and generation path never depends on it.
package oracle

import (
	"context"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
)

// CompleteFunc turns a prompt into model text.
type CompleteFunc func(ctx context.Context, prompt string) (string, error)

// Oracle asks a completion capability for similarity scores and adapter
// drafts.
type Oracle struct {
	complete  CompleteFunc
	available bool
}

// New wraps a completion capability.
func New(complete CompleteFunc) *Oracle {
	if complete == nil {
		return Unavailable()
	}
	return &Oracle{complete: complete, available: true}
}

// Unavailable returns an oracle whose every call fails with
// ErrOracleUnavailable.
func Unavailable() *Oracle {
	return &Oracle{complete: func(context.Context, string) (string, error) {
		return "", crafterr.ErrOracleUnavailable
	}}
}

// Available reports whether the oracle has a real backend.
func (o *Oracle) Available() bool { return o != nil && o.available }

// EstimateSimilarity asks how substitutable target is for source. The
// answer must be a bare decimal in [0,1]; anything else is an error.
func (o *Oracle) EstimateSimilarity(ctx context.Context, source, target *model.APISpec) (float64, error) {
	out, err := o.complete(ctx, SimilarityPrompt(source, target))
	if err != nil {
		return 0, crafterr.Wrap(crafterr.KindOracle, "estimate similarity", err)
	}
	return ParseSimilarity(out)
}

// DraftAdapter asks for a complete adapter source in language l.
func (o *Oracle) DraftAdapter(ctx context.Context, rule *model.MappingRule, source, target *model.APISpec, l lang.Language) (string, error) {
	if !l.Valid() {
		return "", crafterr.Wrapf(crafterr.KindGeneration, "draft adapter", crafterr.ErrUnsupportedFormat, "%s", l)
	}
	out, err := o.complete(ctx, AdapterPrompt(rule, source, target, l))
	if err != nil {
		return "", crafterr.Wrap(crafterr.KindOracle, "draft adapter", err)
	}
	code := StripFences(out)
	if strings.TrimSpace(code) == "" {
		return "", crafterr.Wrapf(crafterr.KindOracle, "draft adapter", crafterr.ErrInvalidResponse, "empty adapter")
	}
	return code, nil
}

// Plain decimals only: ParseFloat alone would also take hex floats,
// exponents, underscores and Inf.
var decimalPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// ParseSimilarity validates a similarity answer.
func ParseSimilarity(out string) (float64, error) {
	s := strings.TrimSpace(out)
	if !decimalPattern.MatchString(s) {
		return 0, crafterr.Wrapf(crafterr.KindOracle, "parse similarity", crafterr.ErrInvalidResponse, "not a decimal: %q", s)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, crafterr.Wrapf(crafterr.KindOracle, "parse similarity", crafterr.ErrInvalidResponse, "not a decimal: %q", s)
	}
	if math.IsNaN(v) || v < 0 || v > 1 {
		return 0, crafterr.Wrapf(crafterr.KindOracle, "parse similarity", crafterr.ErrInvalidResponse, "out of range: %v", v)
	}
	return v, nil
}

// StripFences removes a surrounding markdown code fence, if any.
func StripFences(out string) string {
	s := strings.TrimSpace(out)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	if nl := strings.Index(s, "\n"); nl >= 0 {
		s = s[nl+1:]
	} else {
		return ""
	}
	s = strings.TrimSuffix(strings.TrimRight(s, " \n"), "```")
	return strings.TrimRight(s, "\n") + "\n"
}
