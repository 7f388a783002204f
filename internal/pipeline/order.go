package pipeline

import (
	"errors"
	"log/slog"

	"github.com/dominikbraun/graph"

	"github.com/mvp-joe/craft/internal/model"
)

// OrderByInheritance returns rules with every rule for a parent class ahead
// of rules for its subclasses. Unrelated rules keep their input order.
// Inheritance edges that would close a cycle are dropped and logged.
func OrderByInheritance(rules []model.MappingRule, sources []*model.APISpec, logger *slog.Logger) []model.MappingRule {
	if len(rules) < 2 {
		return rules
	}
	if logger == nil {
		logger = slog.Default()
	}

	position := make(map[string]int, len(rules))
	g := graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles())
	for i, r := range rules {
		if _, dup := position[r.Source.Class]; dup {
			continue
		}
		position[r.Source.Class] = i
		_ = g.AddVertex(r.Source.Class)
	}

	resolve := parentResolver(sources)
	for _, src := range sources {
		if _, ok := position[src.FullQualifiedName]; !ok {
			continue
		}
		parent, ok := resolve(src)
		if !ok {
			continue
		}
		if _, ok := position[parent]; !ok {
			continue
		}
		err := g.AddEdge(parent, src.FullQualifiedName)
		if errors.Is(err, graph.ErrEdgeCreatesCycle) {
			logger.Warn("inheritance cycle", "source", src.FullQualifiedName, "parent", parent)
		}
	}

	order, err := graph.StableTopologicalSort(g, func(a, b string) bool {
		return position[a] < position[b]
	})
	if err != nil {
		logger.Warn("inheritance ordering failed, keeping synthesis order", "error", err)
		return rules
	}

	byClass := make(map[string][]model.MappingRule, len(rules))
	for _, r := range rules {
		byClass[r.Source.Class] = append(byClass[r.Source.Class], r)
	}
	out := make([]model.MappingRule, 0, len(rules))
	for _, class := range order {
		out = append(out, byClass[class]...)
	}
	return out
}

// parentResolver maps a spec's ParentClass to a known fully-qualified name.
// Parents are written either fully qualified or as a bare class name; a bare
// name resolves against the child's package first, then any unique match.
func parentResolver(sources []*model.APISpec) func(*model.APISpec) (string, bool) {
	byFQN := make(map[string]bool, len(sources))
	bySimple := make(map[string][]string)
	for _, s := range sources {
		byFQN[s.FullQualifiedName] = true
		bySimple[s.ClassName] = append(bySimple[s.ClassName], s.FullQualifiedName)
	}

	return func(s *model.APISpec) (string, bool) {
		p := s.ParentClass
		if p == "" || p == s.FullQualifiedName {
			return "", false
		}
		if byFQN[p] {
			return p, true
		}
		if local := model.QualifiedName(s.Package, p); byFQN[local] {
			return local, true
		}
		if cands := bySimple[p]; len(cands) == 1 {
			return cands[0], true
		}
		return "", false
	}
}
