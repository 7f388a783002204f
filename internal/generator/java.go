package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/typeconv"
)

// javaEmitter extends the source class and forwards to a final delegate.
type javaEmitter struct{}

func (javaEmitter) language() lang.Language { return lang.Java }
func (javaEmitter) indent() string          { return "    " }

func (javaEmitter) preamble(b *strings.Builder, p *adapterPlan) {
	fmt.Fprintf(b, "package %s;\n\n", p.Package)
	for _, imp := range p.Imports {
		if strings.HasPrefix(imp, "import ") {
			b.WriteString(strings.TrimSuffix(imp, ";") + ";\n")
			continue
		}
		if !strings.Contains(imp, ".") {
			continue
		}
		fmt.Fprintf(b, "import %s;\n", imp)
	}
	b.WriteString("\n")
}

func (javaEmitter) openClass(b *strings.Builder, p *adapterPlan) {
	relation := "extends"
	if p.SourceIsInterface {
		relation = "implements"
	}
	fmt.Fprintf(b, "public class %s %s %s {\n", p.Class, relation, p.SourceClass)
	fmt.Fprintf(b, "    private final %s delegate;\n\n", p.TargetClass)
	fmt.Fprintf(b, "    public %s(%s delegate) {\n", p.Class, p.TargetClass)
	b.WriteString("        this.delegate = delegate;\n")
	b.WriteString("    }\n\n")
	fmt.Fprintf(b, "    public %s getDelegate() {\n", p.TargetClass)
	b.WriteString("        return delegate;\n")
	b.WriteString("    }\n")
}

func (e javaEmitter) method(b *strings.Builder, p *adapterPlan, m *methodPlan) {
	b.WriteString("\n")
	writeDoc(b, "    ", m.Notes)
	b.WriteString("    @Override\n")
	fmt.Fprintf(b, "    public %s %s(%s) {\n",
		typeconv.Project(javaReturn(m.Source.ReturnType), lang.Java), m.Source.Name, javaParams(m.Source.Parameters))
	writeLines(b, "        ", body(e, p, m))
	b.WriteString("    }\n")
}

func (javaEmitter) dispatcher(b *strings.Builder, _ *adapterPlan, d *dispatchPlan) {
	names := make([]string, len(d.Params))
	for i, prm := range d.Params {
		names[i] = prm.Name
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "    private void %s(%s) {\n", d.Name, javaParams(d.Params))
	fmt.Fprintf(b, "        delegate.%s(%s);\n", d.TargetMethod, joinArgs(names))
	b.WriteString("    }\n")
}

func (javaEmitter) closeClass(b *strings.Builder, _ *adapterPlan) {
	b.WriteString("}\n")
}

func (javaEmitter) delegateCall(method string, args []string) string {
	return fmt.Sprintf("delegate.%s(%s)", method, joinArgs(args))
}

func (javaEmitter) helperCall(name string, args []string) string {
	return fmt.Sprintf("%s(%s)", name, joinArgs(args))
}

func (javaEmitter) statement(expr string) string       { return expr + ";" }
func (javaEmitter) returnStatement(expr string) string { return "return " + expr + ";" }

func (javaEmitter) bindResult(typ, expr string) string {
	return fmt.Sprintf("final %s result = %s;", typ, expr)
}

func (javaEmitter) unsupported(message string) string {
	return fmt.Sprintf("throw new UnsupportedOperationException(%s);", strconv.Quote(message))
}

func javaReturn(t string) string {
	if t == "" {
		return "void"
	}
	return t
}

func javaParams(params []model.ParameterSpec) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = typeconv.Project(prm.Type, lang.Java) + " " + prm.Name
	}
	return strings.Join(parts, ", ")
}
