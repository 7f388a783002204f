package oracle

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
)

// SimilarityPrompt asks for a single decimal score.
func SimilarityPrompt(source, target *model.APISpec) string {
	var sb strings.Builder

	sb.WriteString("Rate how well the target API can stand in for the source API.\n\n")

	sb.WriteString("## Source API\n")
	writeSpec(&sb, source)
	sb.WriteString("\n## Target API\n")
	writeSpec(&sb, target)

	sb.WriteString("\n## Output\n")
	sb.WriteString("Return ONLY a decimal number between 0 and 1, with no other text.\n")
	return sb.String()
}

// AdapterPrompt asks for an adapter that delegates to the target.
func AdapterPrompt(rule *model.MappingRule, source, target *model.APISpec, l lang.Language) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Write a %s adapter class named %sAdapter that exposes the public methods of %s\n",
		l, source.ClassName, source.FullQualifiedName))
	sb.WriteString(fmt.Sprintf("by delegating to a wrapped %s instance.\n\n", target.FullQualifiedName))

	sb.WriteString("## Source API\n")
	writeSpec(&sb, source)
	sb.WriteString("\n## Target API\n")
	writeSpec(&sb, target)

	if len(rule.MethodMappings) > 0 {
		sb.WriteString("\n## Known Method Mappings\n")
		for _, mm := range rule.MethodMappings {
			sb.WriteString(fmt.Sprintf("- %s -> %s\n", mm.SourceMethod, mm.TargetMethod))
		}
	}

	sb.WriteString("\n## Requirements\n")
	sb.WriteString(fmt.Sprintf("- Mapping category: %s (confidence %.2f)\n", rule.MappingType, rule.Confidence))
	sb.WriteString("- Methods without a counterpart must throw an unsupported-operation error naming the method\n")
	sb.WriteString("- Do not invent target methods that are not listed\n")

	sb.WriteString("\n## Output\n")
	sb.WriteString("Return ONLY the code, no explanations.\n")
	return sb.String()
}

func writeSpec(sb *strings.Builder, s *model.APISpec) {
	sb.WriteString(fmt.Sprintf("%s (%s, %s)\n", s.FullQualifiedName, s.Platform, s.ClassType))
	if s.ParentClass != "" {
		sb.WriteString(fmt.Sprintf("extends %s\n", s.ParentClass))
	}
	if len(s.SemanticTags) > 0 {
		sb.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(s.SemanticTags, ", ")))
	}
	for _, m := range s.Methods {
		params := make([]string, len(m.Parameters))
		for i, p := range m.Parameters {
			params[i] = p.Type + " " + p.Name
		}
		sb.WriteString(fmt.Sprintf("- %s %s(%s)\n", m.ReturnType, m.Name, strings.Join(params, ", ")))
	}
}
