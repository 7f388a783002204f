package generator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/typeconv"
)

// kotlinEmitter takes the delegate as a private constructor property.
type kotlinEmitter struct{}

func (kotlinEmitter) language() lang.Language { return lang.Kotlin }
func (kotlinEmitter) indent() string          { return "    " }

func (kotlinEmitter) preamble(b *strings.Builder, p *adapterPlan) {
	fmt.Fprintf(b, "package %s\n\n", p.Package)
	for _, imp := range p.Imports {
		if strings.HasPrefix(imp, "import ") {
			b.WriteString(strings.TrimSuffix(imp, ";") + "\n")
			continue
		}
		if !strings.Contains(imp, ".") {
			continue
		}
		fmt.Fprintf(b, "import %s\n", imp)
	}
	b.WriteString("\n")
}

func (kotlinEmitter) openClass(b *strings.Builder, p *adapterPlan) {
	super := p.SourceClass + "()"
	if p.SourceIsInterface {
		super = p.SourceClass
	}
	fmt.Fprintf(b, "class %s(\n", p.Class)
	fmt.Fprintf(b, "    private val delegate: %s\n", p.TargetClass)
	fmt.Fprintf(b, ") : %s {\n\n", super)
	fmt.Fprintf(b, "    fun getDelegate(): %s = delegate\n", p.TargetClass)
}

func (e kotlinEmitter) method(b *strings.Builder, p *adapterPlan, m *methodPlan) {
	b.WriteString("\n")
	writeDoc(b, "    ", m.Notes)
	fmt.Fprintf(b, "    override fun %s(%s)%s {\n", m.Source.Name, kotlinParams(m.Source.Parameters), kotlinReturn(m.Source.ReturnType))
	writeLines(b, "        ", body(e, p, m))
	b.WriteString("    }\n")
}

func (kotlinEmitter) dispatcher(b *strings.Builder, _ *adapterPlan, d *dispatchPlan) {
	names := make([]string, len(d.Params))
	for i, prm := range d.Params {
		names[i] = prm.Name
	}
	b.WriteString("\n")
	fmt.Fprintf(b, "    private fun %s(%s) {\n", d.Name, kotlinParams(d.Params))
	fmt.Fprintf(b, "        delegate.%s(%s)\n", d.TargetMethod, joinArgs(names))
	b.WriteString("    }\n")
}

func (kotlinEmitter) closeClass(b *strings.Builder, _ *adapterPlan) {
	b.WriteString("}\n")
}

func (kotlinEmitter) delegateCall(method string, args []string) string {
	return fmt.Sprintf("delegate.%s(%s)", method, joinArgs(args))
}

func (kotlinEmitter) helperCall(name string, args []string) string {
	return fmt.Sprintf("%s(%s)", name, joinArgs(args))
}

func (kotlinEmitter) statement(expr string) string       { return expr }
func (kotlinEmitter) returnStatement(expr string) string { return "return " + expr }

func (kotlinEmitter) bindResult(typ, expr string) string {
	return fmt.Sprintf("val result: %s = %s", typ, expr)
}

func (kotlinEmitter) unsupported(message string) string {
	return fmt.Sprintf("throw UnsupportedOperationException(%s)", kotlinString(message))
}

// kotlinReturn renders ": T", or nothing for Unit.
func kotlinReturn(t string) string {
	if isVoidReturn(t) {
		return ""
	}
	return ": " + typeconv.Project(t, lang.Kotlin)
}

func kotlinParams(params []model.ParameterSpec) string {
	parts := make([]string, len(params))
	for i, prm := range params {
		parts[i] = prm.Name + ": " + typeconv.ProjectNullable(prm.Type, prm.Nullable, lang.Kotlin)
	}
	return strings.Join(parts, ", ")
}

// kotlinString quotes s, escaping templates.
func kotlinString(s string) string {
	return strings.ReplaceAll(strconv.Quote(s), "$", `\$`)
}
