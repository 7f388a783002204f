// Package similarity scores how substitutable two API descriptions are.
//
// The score is a weighted sum of class-name, semantic-tag and method-name
// overlap. It is a heuristic rather than a metric: the thresholds below are
// what the mapping categories are calibrated against and must not drift.
package similarity

import (
	"strings"

	"github.com/mvp-joe/craft/internal/model"
)

const (
	// NameWeight, TagWeight and MethodWeight sum to 1.
	NameWeight   = 0.3
	TagWeight    = 0.3
	MethodWeight = 0.4

	// ContainmentScore is returned when one name contains the other.
	ContainmentScore = 0.8
	// MethodMatchThreshold is the name similarity a target method must
	// exceed to count a source method as covered.
	MethodMatchThreshold = 0.7
)

// Breakdown holds the component scores behind a total.
type Breakdown struct {
	Name    float64 `json:"name"`
	Tags    float64 `json:"tags"`
	Methods float64 `json:"methods"`
	Total   float64 `json:"total"`
}

// Scorer computes a confidence in [0,1] that b can stand in for a.
type Scorer interface {
	Score(a, b *model.APISpec) float64
}

// ScorerFunc adapts a plain function to Scorer.
type ScorerFunc func(a, b *model.APISpec) float64

func (f ScorerFunc) Score(a, b *model.APISpec) float64 { return f(a, b) }

// Default is the uncached scorer.
var Default Scorer = ScorerFunc(Score)

// Score returns the weighted similarity of a to b.
func Score(a, b *model.APISpec) float64 {
	return Explain(a, b).Total
}

// Explain returns the component scores and their weighted total.
func Explain(a, b *model.APISpec) Breakdown {
	var bd Breakdown
	bd.Name = StringSimilarity(a.ClassName, b.ClassName)
	bd.Tags = TagSimilarity(a.SemanticTags, b.SemanticTags)
	bd.Methods = MethodSimilarity(a.Methods, b.Methods)

	score := 0.0
	weight := 0.0
	score += bd.Name * NameWeight
	weight += NameWeight
	score += bd.Tags * TagWeight
	weight += TagWeight
	score += bd.Methods * MethodWeight
	weight += MethodWeight

	bd.Total = score / weight
	return bd
}

// StringSimilarity compares two identifiers.
//
// Equal strings score 1 and an empty side scores 0. Case-insensitive
// containment scores ContainmentScore. Anything else scores the number of
// shared distinct lowercase characters over the larger character set.
func StringSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	la, lb := strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(la, lb) || strings.Contains(lb, la) {
		return ContainmentScore
	}

	ca, cb := charSet(la), charSet(lb)
	common := 0
	for r := range ca {
		if _, ok := cb[r]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(ca), len(cb)))
}

func charSet(s string) map[rune]struct{} {
	set := make(map[rune]struct{}, len(s))
	for _, r := range s {
		set[r] = struct{}{}
	}
	return set
}

// TagSimilarity is the Jaccard index of two tag sets. Two empty sets are
// identical; one empty set shares nothing.
func TagSimilarity(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}
	if len(a) == 0 || len(b) == 0 {
		return 0.0
	}

	sa, sb := stringSet(a), stringSet(b)
	inter := 0
	for t := range sa {
		if _, ok := sb[t]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}

func stringSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, s := range items {
		set[s] = struct{}{}
	}
	return set
}

// MethodSimilarity is the fraction of source methods with at least one
// target method whose name similarity exceeds MethodMatchThreshold.
func MethodSimilarity(source, target []model.MethodSpec) float64 {
	if len(source) == 0 && len(target) == 0 {
		return 1.0
	}
	if len(source) == 0 || len(target) == 0 {
		return 0.0
	}

	matched := 0
	for _, sm := range source {
		for _, tm := range target {
			if StringSimilarity(sm.Name, tm.Name) > MethodMatchThreshold {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(source))
}
