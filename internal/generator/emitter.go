package generator

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/typeconv"
)

// emitter spells an adapter plan in one output language.
type emitter interface {
	indent() string
	preamble(b *strings.Builder, p *adapterPlan)
	openClass(b *strings.Builder, p *adapterPlan)
	method(b *strings.Builder, p *adapterPlan, m *methodPlan)
	dispatcher(b *strings.Builder, p *adapterPlan, d *dispatchPlan)
	closeClass(b *strings.Builder, p *adapterPlan)
}

// dialect is the statement-level syntax shared method bodies are built from.
type dialect interface {
	language() lang.Language
	delegateCall(method string, args []string) string
	helperCall(name string, args []string) string
	statement(expr string) string
	returnStatement(expr string) string
	bindResult(typ, expr string) string
	unsupported(message string) string
}

func emitterFor(l lang.Language) (emitter, error) {
	switch l {
	case lang.Java:
		return javaEmitter{}, nil
	case lang.Kotlin:
		return kotlinEmitter{}, nil
	case lang.ArkTS:
		return arktsEmitter{}, nil
	}
	return nil, crafterr.Wrapf(crafterr.KindGeneration, "generate", crafterr.ErrUnsupportedFormat, "%s", l)
}

// body builds the statements of one adapter method.
func body(d dialect, p *adapterPlan, m *methodPlan) []string {
	if m.Resolution == viaStub {
		return stubBody(d, p, m)
	}

	var lines []string
	lines = append(lines, splitLines(m.PreCall)...)

	if m.Dispatcher != "" {
		lines = append(lines, d.statement(d.helperCall(m.Dispatcher, m.Args)))
		return append(lines, splitLines(m.PostCall)...)
	}

	call := d.delegateCall(m.TargetMethod, m.Args)
	if isVoidReturn(m.Source.ReturnType) {
		lines = append(lines, d.statement(call))
		return append(lines, splitLines(m.PostCall)...)
	}

	expr := call
	if m.ConvertFrom != "" {
		expr = typeconv.Convert(call, m.Source.ReturnType, m.ConvertFrom, d.language()).Expr
	}
	post := splitLines(m.PostCall)
	if len(post) == 0 {
		return append(lines, d.returnStatement(expr))
	}
	lines = append(lines, d.bindResult(typeconv.Project(m.Source.ReturnType, d.language()), expr))
	lines = append(lines, post...)
	return append(lines, d.returnStatement("result"))
}

func stubBody(d dialect, p *adapterPlan, m *methodPlan) []string {
	if isVoidReturn(m.Source.ReturnType) {
		return []string{fmt.Sprintf("// Manual implementation required: %s has no counterpart in %s",
			m.Source.Name, p.Rule.Target.Class)}
	}
	return []string{d.unsupported(fmt.Sprintf("Unsupported operation: %s has no counterpart in %s",
		m.Source.Name, p.Rule.Target.Class))}
}

func writeDoc(b *strings.Builder, indent string, notes []string) {
	if len(notes) == 0 {
		return
	}
	fmt.Fprintf(b, "%s/**\n", indent)
	for _, n := range notes {
		fmt.Fprintf(b, "%s * %s\n", indent, n)
	}
	fmt.Fprintf(b, "%s */\n", indent)
}

func writeLines(b *strings.Builder, indent string, lines []string) {
	for _, line := range lines {
		b.WriteString(indent + line + "\n")
	}
}

func joinArgs(args []string) string {
	return strings.Join(args, ", ")
}
