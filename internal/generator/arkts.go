package generator

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/typeconv"
)

// arktsEmitter exports a standalone class with constructor injection.
type arktsEmitter struct{}

func (arktsEmitter) language() lang.Language { return lang.ArkTS }
func (arktsEmitter) indent() string          { return "  " }

func (arktsEmitter) preamble(b *strings.Builder, p *adapterPlan) {
	fmt.Fprintf(b, "// Namespace: %s\n\n", p.Package)
	for _, imp := range p.Imports {
		if strings.HasPrefix(imp, "import ") {
			b.WriteString(strings.TrimSuffix(imp, ";") + ";\n")
			continue
		}
		pkg, class := model.SplitQualifiedName(imp)
		if pkg == "" {
			fmt.Fprintf(b, "import { %s } from './%s';\n", class, class)
			continue
		}
		fmt.Fprintf(b, "import { %s } from '@%s';\n", class, pkg)
	}
	b.WriteString("\n")
}

func (arktsEmitter) openClass(b *strings.Builder, p *adapterPlan) {
	fmt.Fprintf(b, "export class %s {\n", p.Class)
	fmt.Fprintf(b, "  private delegate: %s;\n\n", p.TargetClass)
	fmt.Fprintf(b, "  constructor(delegate: %s) {\n", p.TargetClass)
	b.WriteString("    this.delegate = delegate;\n")
	b.WriteString("  }\n\n")
	fmt.Fprintf(b, "  getDelegate(): %s {\n", p.TargetClass)
	b.WriteString("    return this.delegate;\n")
	b.WriteString("  }\n")
}

func (e arktsEmitter) method(b *strings.Builder, p *adapterPlan, m *methodPlan) {
	b.WriteString("\n")
	writeDoc(b, "  ", m.Notes)
	fmt.Fprintf(b, "  %s(%s): %s {\n", m.Source.Name, arktsParams(m.Source.Parameters), arktsReturn(m.Source.ReturnType))
	writeLines(b, "    ", body(e, p, m))
	b.WriteString("  }\n")
}

func (arktsEmitter) dispatcher(b *strings.Builder, _ *adapterPlan, d *dispatchPlan) {
	names := make([]string, len(d.Params))
	for i, prm := range d.Params {
		names[i] = prm.Name
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "  private %s(%s): void {\n", d.Name, arktsParams(d.Params))
	fmt.Fprintf(b, "    this.delegate.%s(%s);\n", d.TargetMethod, joinArgs(names))
	b.WriteString("  }\n")
}

func (arktsEmitter) closeClass(b *strings.Builder, _ *adapterPlan) {
	b.WriteString("}\n")
}

func (arktsEmitter) delegateCall(method string, args []string) string {
	return fmt.Sprintf("this.delegate.%s(%s)", method, joinArgs(args))
}

func (arktsEmitter) helperCall(name string, args []string) string {
	return fmt.Sprintf("this.%s(%s)", name, joinArgs(args))
}

func (arktsEmitter) statement(expr string) string       { return expr + ";" }
func (arktsEmitter) returnStatement(expr string) string { return "return " + expr + ";" }

func (arktsEmitter) bindResult(typ, expr string) string {
	return fmt.Sprintf("const result: %s = %s;", typ, expr)
}

func (arktsEmitter) unsupported(message string) string {
	return fmt.Sprintf("throw new Error('%s');", strings.ReplaceAll(message, "'", `\'`))
}

func arktsReturn(t string) string {
	if t == "" {
		return "void"
	}
	return typeconv.Project(t, lang.ArkTS)
}

func arktsParams(params []model.ParameterSpec) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = prm.Name + ": " + typeconv.ProjectNullable(prm.Type, prm.Nullable, lang.ArkTS)
	}
	return strings.Join(parts, ", ")
}
