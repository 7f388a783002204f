package mapping

import "github.com/mvp-joe/craft/internal/model"

// Overlay replaces synthesized rules with hand-written rules for the same
// source class. Manual rules for sources without a synthesized rule are
// appended in their given order.
func Overlay(synthesized, manual []model.MappingRule) []model.MappingRule {
	if len(manual) == 0 {
		return synthesized
	}

	bySource := make(map[string]int, len(manual))
	for i, r := range manual {
		if _, dup := bySource[r.Source.Class]; !dup {
			bySource[r.Source.Class] = i
		}
	}

	used := make([]bool, len(manual))
	out := make([]model.MappingRule, 0, len(synthesized)+len(manual))
	for _, r := range synthesized {
		if i, ok := bySource[r.Source.Class]; ok {
			out = append(out, manual[i])
			used[i] = true
			continue
		}
		out = append(out, r)
	}
	for i, r := range manual {
		if used[i] || bySource[r.Source.Class] != i {
			continue
		}
		out = append(out, r)
	}
	return out
}
