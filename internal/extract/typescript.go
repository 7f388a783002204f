package extract

import (
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/craft/internal/model"
)

// TypeScriptExtractor reads classes, interfaces, enums, type aliases and
// namespace functions from TypeScript and ArkTS declaration files.
// Namespace-level functions become the methods of a spec named after the
// namespace, the way HarmonyOS modules (router, promptAction) expose them.
type TypeScriptExtractor struct {
	language *sitter.Language
}

// NewTypeScriptExtractor creates a TypeScript extractor.
func NewTypeScriptExtractor() *TypeScriptExtractor {
	return &TypeScriptExtractor{language: sitter.NewLanguage(typescript.LanguageTypescript())}
}

// Nodes that only wrap a declaration.
var tsWrappers = []string{"export_statement", "ambient_declaration", "expression_statement"}

type tsFile struct {
	source []byte
	specs  []*model.APISpec
}

// Extract implements Extractor.
func (e *TypeScriptExtractor) Extract(source []byte, opts Options) ([]*model.APISpec, error) {
	tree, err := parse(e.language, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	pkg := opts.Package
	if module := ModuleName(opts.Path); module != "" {
		pkg = module
	}

	f := &tsFile{source: source}
	f.visit(tree.RootNode(), pkg)
	return f.specs, nil
}

// ModuleName derives a package from a HarmonyOS module file name:
// "@ohos.multimedia.image.d.ts" yields "ohos.multimedia.image". Other
// file names yield "".
func ModuleName(path string) string {
	base := filepath.Base(path)
	if !strings.HasPrefix(base, "@") {
		return ""
	}
	base = strings.TrimPrefix(base, "@")
	for _, ext := range []string{".d.ets", ".d.ts", ".ets", ".ts"} {
		if strings.HasSuffix(base, ext) {
			return strings.TrimSuffix(base, ext)
		}
	}
	return base
}

func (f *tsFile) visit(node *sitter.Node, pkg string) {
	for _, n := range namedChildren(node) {
		switch n.Kind() {
		case "export_statement", "ambient_declaration", "expression_statement":
			f.visit(n, pkg)
		case "internal_module", "module":
			f.namespace(n, pkg)
		case "class_declaration", "abstract_class_declaration":
			f.class(n, pkg)
		case "interface_declaration":
			f.iface(n, pkg)
		case "enum_declaration":
			f.simple(n, pkg, model.ClassTypeEnum)
		case "type_alias_declaration":
			f.simple(n, pkg, model.ClassTypeTypeAlias)
		}
	}
}

// namespace handles `declare namespace router { ... }`. Types inside live
// in the namespace's package; its functions form one spec.
func (f *tsFile) namespace(node *sitter.Node, pkg string) {
	name := strings.Trim(nodeText(node.ChildByFieldName("name"), f.source), `"'`)
	body := node.ChildByFieldName("body")
	if name == "" || body == nil {
		return
	}
	// A module file's package already ends in its namespace.
	name = strings.TrimPrefix(name, "@")
	inner := model.QualifiedName(pkg, name)
	outer := pkg
	if _, last := model.SplitQualifiedName(pkg); last == name || pkg == name {
		inner = pkg
		outer, _ = model.SplitQualifiedName(pkg)
	}
	if strings.Contains(name, ".") {
		// declare module 'ohos.router' names the whole package.
		inner = name
		outer, name = model.SplitQualifiedName(name)
	}

	spec := &model.APISpec{Package: outer, ClassName: name, ClassType: model.ClassTypeClass}
	for _, fn := range f.functions(body) {
		if m, ok := f.method(fn, []string{"public"}); ok {
			spec.Methods = append(spec.Methods, m)
		}
	}
	if len(spec.Methods) > 0 {
		f.specs = append(f.specs, spec)
	}
	f.visit(body, inner)
}

// functions collects function declarations directly inside a namespace
// body, looking through export wrappers.
func (f *tsFile) functions(body *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for _, n := range namedChildren(body) {
		switch n.Kind() {
		case "function_signature", "function_declaration":
			out = append(out, n)
		case "export_statement", "ambient_declaration":
			out = append(out, f.functions(n)...)
		}
	}
	return out
}

func (f *tsFile) newSpec(node *sitter.Node, pkg string, ct model.ClassType) *model.APISpec {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}
	spec := &model.APISpec{Package: pkg, ClassName: nodeText(nameNode, f.source), ClassType: ct}
	if _, deprecated := docComment(node, f.source, tsWrappers...); deprecated {
		spec.SemanticTags = withTag(spec.SemanticTags, "deprecated")
	}
	return spec
}

func (f *tsFile) simple(node *sitter.Node, pkg string, ct model.ClassType) {
	if spec := f.newSpec(node, pkg, ct); spec != nil {
		f.specs = append(f.specs, spec)
	}
}

func (f *tsFile) class(node *sitter.Node, pkg string) {
	ct := model.ClassTypeClass
	if node.Kind() == "abstract_class_declaration" {
		ct = model.ClassTypeAbstractClass
	}
	spec := f.newSpec(node, pkg, ct)
	if spec == nil {
		return
	}

	if heritage := findChildByType(node, "class_heritage"); heritage != nil {
		if ext := findChildByType(heritage, "extends_clause"); ext != nil {
			if v := ext.ChildByFieldName("value"); v != nil {
				spec.ParentClass = stripTypeArguments(nodeText(v, f.source))
			}
		}
		if impl := findChildByType(heritage, "implements_clause"); impl != nil {
			for _, t := range namedChildren(impl) {
				spec.Interfaces = append(spec.Interfaces, stripTypeArguments(nodeText(t, f.source)))
			}
		}
	}

	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "method_definition", "method_signature", "abstract_method_signature":
		default:
			continue
		}
		mods := f.memberModifiers(member)
		if m, ok := f.method(member, mods); ok {
			spec.Methods = append(spec.Methods, m)
		}
	}
	f.specs = append(f.specs, spec)
}

func (f *tsFile) iface(node *sitter.Node, pkg string) {
	spec := f.newSpec(node, pkg, model.ClassTypeInterface)
	if spec == nil {
		return
	}
	if ext := findChildByType(node, "extends_type_clause"); ext != nil {
		for _, t := range namedChildren(ext) {
			spec.Interfaces = append(spec.Interfaces, stripTypeArguments(nodeText(t, f.source)))
		}
	}
	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		if member.Kind() != "method_signature" {
			continue
		}
		if m, ok := f.method(member, []string{"public"}); ok {
			spec.Methods = append(spec.Methods, m)
		}
	}
	f.specs = append(f.specs, spec)
}

// memberModifiers reads accessibility and static/abstract keywords off a
// class member. Members without an accessibility modifier are public.
func (f *tsFile) memberModifiers(member *sitter.Node) []string {
	var access string
	var rest []string
	for i := 0; i < int(member.ChildCount()); i++ {
		child := member.Child(uint(i))
		switch child.Kind() {
		case "accessibility_modifier":
			access = nodeText(child, f.source)
		case "static", "abstract", "readonly", "async":
			rest = append(rest, child.Kind())
		}
	}
	if access == "" {
		access = "public"
	}
	return append([]string{access}, rest...)
}

func (f *tsFile) method(node *sitter.Node, mods []string) (model.MethodSpec, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.MethodSpec{}, false
	}
	name := nodeText(nameNode, f.source)
	if name == "constructor" || strings.HasPrefix(name, "#") {
		return model.MethodSpec{}, false
	}

	m := model.MethodSpec{
		Name:       name,
		ReturnType: typeAnnotation(node.ChildByFieldName("return_type"), f.source, "void"),
		Parameters: f.parameters(node.ChildByFieldName("parameters")),
		Modifiers:  mods,
	}
	m.Signature = fmt.Sprintf("%s(%s): %s", m.Name, paramList(m.Parameters), m.ReturnType)

	doc, deprecated := docComment(node, f.source, tsWrappers...)
	m.DocComment = doc
	if deprecated {
		m.SemanticTags = withTag(m.SemanticTags, "deprecated")
	}
	return m, true
}

func (f *tsFile) parameters(list *sitter.Node) []model.ParameterSpec {
	var params []model.ParameterSpec
	for _, p := range namedChildren(list) {
		if p.Kind() != "required_parameter" && p.Kind() != "optional_parameter" {
			continue
		}
		param := model.ParameterSpec{
			Name: strings.TrimPrefix(nodeText(p.ChildByFieldName("pattern"), f.source), "..."),
			Type: typeAnnotation(p.ChildByFieldName("type"), f.source, "any"),
		}
		if p.Kind() == "optional_parameter" || nullableType(param.Type) {
			param.Nullable = true
		}
		if v := p.ChildByFieldName("value"); v != nil {
			def := nodeText(v, f.source)
			param.DefaultValue = &def
		}
		params = append(params, param)
	}
	return params
}

// typeAnnotation reads the type out of a ": T" annotation.
func typeAnnotation(node *sitter.Node, source []byte, fallback string) string {
	if node == nil {
		return fallback
	}
	t := strings.TrimSpace(strings.TrimPrefix(nodeText(node, source), ":"))
	if t == "" {
		return fallback
	}
	return collapseSpace(t)
}

func nullableType(t string) bool {
	for _, part := range strings.Split(t, "|") {
		switch strings.TrimSpace(part) {
		case "null", "undefined":
			return true
		}
	}
	return false
}
