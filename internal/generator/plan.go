package generator

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mvp-joe/craft/internal/lifecycle"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/typeconv"
)

// resolution records how a source method reaches the delegate.
type resolution int

const (
	viaLifecycle resolution = iota
	viaMapping
	viaSameName
	viaStub
)

type adapterPlan struct {
	Rule        *model.MappingRule
	GeneratedAt time.Time

	Package string
	Class   string

	SourcePackage     string
	SourceClass       string
	SourceIsInterface bool
	TargetClass       string

	Imports     []string
	Methods     []methodPlan
	Dispatchers []dispatchPlan
	BridgeCode  string
}

type methodPlan struct {
	Source     model.MethodSpec
	Resolution resolution

	TargetMethod string
	Args         []string
	PreCall      string
	PostCall     string

	// Dispatcher names the shared helper the call is routed through.
	Dispatcher string
	// ConvertFrom is the delegate's return type when it differs from the
	// source return type.
	ConvertFrom string
	// Imports are helpers the lifecycle snippets need.
	Imports []string

	Notes []string
}

// dispatchPlan is a private helper holding the single delegation for a
// target hook reached from several source hooks.
type dispatchPlan struct {
	Name         string
	TargetMethod string
	Params       []model.ParameterSpec
	Sources      []string
}

func (g *Generator) plan(rule *model.MappingRule, source, target *model.APISpec) *adapterPlan {
	p := &adapterPlan{
		Rule:              rule,
		GeneratedAt:       g.cfg.Now(),
		Package:           g.AdapterPackage(source.Package),
		Class:             AdapterClassName(source.ClassName),
		SourcePackage:     source.Package,
		SourceClass:       source.ClassName,
		SourceIsInterface: source.ClassType == model.ClassTypeInterface,
		TargetClass:       target.ClassName,
		Imports:           collectImports(source, target, rule),
		BridgeCode:        rule.BridgeCode,
	}

	for _, m := range source.PublicMethods() {
		if m.IsStatic() {
			continue
		}
		p.Methods = append(p.Methods, g.resolve(m, rule, target))
	}
	p.Dispatchers = groupDispatchers(p.Methods, target)
	for _, m := range p.Methods {
		p.Imports = appendImports(p.Imports, m.Imports...)
	}
	return p
}

func collectImports(source, target *model.APISpec, rule *model.MappingRule) []string {
	out := appendImports(nil, source.FullQualifiedName, target.FullQualifiedName)
	return appendImports(out, rule.RequiresImports...)
}

// appendImports adds imports not already present, keeping first-seen order.
func appendImports(out []string, imports ...string) []string {
	for _, imp := range imports {
		imp = strings.TrimSpace(imp)
		if imp == "" || slices.Contains(out, imp) {
			continue
		}
		out = append(out, imp)
	}
	return out
}

// resolve picks the delegation for one source method: lifecycle table
// first, then the rule's method mapping, then a same-named target method.
// Anything else becomes a stub.
func (g *Generator) resolve(m model.MethodSpec, rule *model.MappingRule, target *model.APISpec) methodPlan {
	mp := methodPlan{Source: m}

	if lt, ok := g.lifecycle.Lookup(m.Name); ok {
		mp.Resolution = viaLifecycle
		mp.TargetMethod = lt.Method
		mp.PreCall, mp.PostCall = lt.PreCall, lt.PostCall
		mp.Args = lifecycleArgs(m, lt)
		mp.Imports = lt.Imports
		mp.Notes = append(mp.Notes, fmt.Sprintf("Lifecycle adapter: %s -> %s", m.Name, lt.Method))
		if lt.Note != "" {
			mp.Notes = append(mp.Notes, lt.Note)
		}
		mp.ConvertFrom = returnConversion(m, target, lt.Method)
		return mp
	}

	if mm, ok := rule.MethodMapping(m.Name); ok {
		mp.Resolution = viaMapping
		mp.TargetMethod = mm.TargetMethod
		mp.PreCall, mp.PostCall = mm.PreCallCode, mm.PostCallCode
		mp.Args = mappedArgs(m, mm)
		mp.Notes = append(mp.Notes, fmt.Sprintf("Maps to %s.%s", target.ClassName, mm.TargetMethod))
		mp.ConvertFrom = returnConversion(m, target, mm.TargetMethod)
		return mp
	}

	if _, ok := target.Method(m.Name); ok {
		mp.Resolution = viaSameName
		mp.TargetMethod = m.Name
		mp.Args = m.ParameterNames()
		mp.Notes = append(mp.Notes, fmt.Sprintf("Delegates to %s.%s", target.ClassName, m.Name))
		mp.ConvertFrom = returnConversion(m, target, m.Name)
		return mp
	}

	mp.Resolution = viaStub
	mp.Notes = append(mp.Notes, fmt.Sprintf("No counterpart for %s in %s", m.Name, target.FullQualifiedName))
	return mp
}

func lifecycleArgs(m model.MethodSpec, lt lifecycle.Target) []string {
	if lt.ParamTransform != "" {
		return []string{lt.ParamTransform}
	}
	return m.ParameterNames()
}

// mappedArgs orders arguments by the rule's parameter pairs. A pair whose
// source side is not a parameter name is used as a literal expression.
func mappedArgs(m model.MethodSpec, mm *model.MethodMapping) []string {
	if len(mm.ParamMappings) == 0 {
		return m.ParameterNames()
	}
	args := make([]string, len(mm.ParamMappings))
	for i, pair := range mm.ParamMappings {
		args[i] = pair.Source
	}
	return args
}

// returnConversion reports the delegate's return type when a conversion
// is needed, or "" for a bare delegation.
func returnConversion(m model.MethodSpec, target *model.APISpec, targetMethod string) string {
	if typeconv.IsVoid(m.ReturnType) || m.ReturnType == "" {
		return ""
	}
	tm, ok := target.Method(targetMethod)
	if !ok || tm.ReturnType == "" || tm.ReturnType == m.ReturnType {
		return ""
	}
	return tm.ReturnType
}

// argCount counts top-level arguments, so a parameter transform holding
// several expressions counts each one.
func argCount(args []string) int {
	n := 0
	for _, a := range args {
		n += len(typeconv.SplitTopLevel(a))
	}
	return n
}

// groupDispatchers routes void lifecycle hooks that share a target through
// one helper per target. The helper takes the target hook's parameters
// when the target spec declares it, else the first member's. Members whose
// argument count does not fit delegate inline.
func groupDispatchers(methods []methodPlan, target *model.APISpec) []dispatchPlan {
	members := make(map[string][]int)
	var order []string
	for i, m := range methods {
		if m.Resolution != viaLifecycle || !isVoidReturn(m.Source.ReturnType) {
			continue
		}
		if _, seen := members[m.TargetMethod]; !seen {
			order = append(order, m.TargetMethod)
		}
		members[m.TargetMethod] = append(members[m.TargetMethod], i)
	}

	var out []dispatchPlan
	for _, tm := range order {
		idx := members[tm]
		if len(idx) < 2 {
			continue
		}

		params := methods[idx[0]].Source.Parameters
		if spec, ok := target.Method(tm); ok {
			params = spec.Parameters
		}

		var fit []int
		for _, i := range idx {
			if argCount(methods[i].Args) == len(params) {
				fit = append(fit, i)
			}
		}
		if len(fit) < 2 {
			continue
		}

		d := dispatchPlan{
			Name:         "dispatch" + upperFirst(tm),
			TargetMethod: tm,
			Params:       params,
		}
		for _, i := range fit {
			methods[i].Dispatcher = d.Name
			d.Sources = append(d.Sources, methods[i].Source.Name)
		}
		out = append(out, d)
	}
	return out
}

func isVoidReturn(t string) bool {
	return t == "" || typeconv.IsVoid(t)
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
