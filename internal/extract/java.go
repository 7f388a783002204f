package extract

import (
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/craft/internal/model"
)

// JavaExtractor reads top-level classes, interfaces and enums from Java
// sources. Nested types and constructors are skipped.
type JavaExtractor struct {
	language *sitter.Language
}

// NewJavaExtractor creates a Java extractor.
func NewJavaExtractor() *JavaExtractor {
	return &JavaExtractor{language: sitter.NewLanguage(java.Language())}
}

// javaFile is the per-file state shared by every declaration.
type javaFile struct {
	source  []byte
	pkg     string
	imports map[string]string // simple name -> qualified name
}

// Extract implements Extractor.
func (e *JavaExtractor) Extract(source []byte, opts Options) ([]*model.APISpec, error) {
	tree, err := parse(e.language, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	f := &javaFile{source: source, pkg: opts.Package, imports: make(map[string]string)}

	var decls []*sitter.Node
	for _, n := range namedChildren(root) {
		switch n.Kind() {
		case "package_declaration":
			nameNode := findChildByType(n, "scoped_identifier")
			if nameNode == nil {
				nameNode = findChildByType(n, "identifier")
			}
			if nameNode != nil {
				f.pkg = nodeText(nameNode, source)
			}
		case "import_declaration":
			f.addImport(n)
		case "class_declaration", "interface_declaration", "enum_declaration":
			decls = append(decls, n)
		}
	}

	specs := make([]*model.APISpec, 0, len(decls))
	for _, n := range decls {
		if spec := f.typeSpec(n); spec != nil {
			specs = append(specs, spec)
		}
	}
	return specs, nil
}

func (f *javaFile) addImport(n *sitter.Node) {
	// Wildcard imports name no single type.
	if findChildByType(n, "asterisk") != nil {
		return
	}
	nameNode := findChildByType(n, "scoped_identifier")
	if nameNode == nil {
		return
	}
	fqn := nodeText(nameNode, f.source)
	_, simple := model.SplitQualifiedName(fqn)
	f.imports[simple] = fqn
}

// resolve qualifies a bare type name through the file's imports.
func (f *javaFile) resolve(name string) string {
	name = stripTypeArguments(name)
	if fqn, ok := f.imports[name]; ok {
		return fqn
	}
	return name
}

func (f *javaFile) typeSpec(node *sitter.Node) *model.APISpec {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return nil
	}

	spec := &model.APISpec{
		Package:   f.pkg,
		ClassName: nodeText(nameNode, f.source),
		ClassType: model.ClassTypeClass,
	}

	mods, annotations := f.modifiers(node)
	isInterface := false
	switch node.Kind() {
	case "interface_declaration":
		spec.ClassType = model.ClassTypeInterface
		isInterface = true
		if ext := findChildByType(node, "extends_interfaces"); ext != nil {
			spec.Interfaces = f.typeList(ext)
		}
	case "enum_declaration":
		spec.ClassType = model.ClassTypeEnum
	default:
		if contains(mods, "abstract") {
			spec.ClassType = model.ClassTypeAbstractClass
		}
		if sc := node.ChildByFieldName("superclass"); sc != nil {
			if types := namedChildren(sc); len(types) > 0 {
				spec.ParentClass = f.resolve(nodeText(types[0], f.source))
			}
		}
	}
	if impl := node.ChildByFieldName("interfaces"); impl != nil {
		spec.Interfaces = append(spec.Interfaces, f.typeList(impl)...)
	}

	_, docDeprecated := docComment(node, f.source)
	if docDeprecated || contains(annotations, "Deprecated") {
		spec.SemanticTags = withTag(spec.SemanticTags, "deprecated")
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		return spec
	}
	members := namedChildren(body)
	if node.Kind() == "enum_declaration" {
		// Enum methods sit after the constants, in a nested block.
		members = namedChildren(findChildByType(body, "enum_body_declarations"))
	}
	for _, m := range members {
		if m.Kind() != "method_declaration" {
			continue
		}
		if method, ok := f.method(m, isInterface); ok {
			spec.Methods = append(spec.Methods, method)
		}
	}
	return spec
}

// typeList reads the types out of an extends/implements clause.
func (f *javaFile) typeList(clause *sitter.Node) []string {
	list := findChildByType(clause, "type_list")
	if list == nil {
		return nil
	}
	var out []string
	for _, t := range namedChildren(list) {
		out = append(out, f.resolve(nodeText(t, f.source)))
	}
	return out
}

// modifiers splits a declaration's modifiers node into keywords and
// annotation names.
func (f *javaFile) modifiers(node *sitter.Node) (keywords, annotations []string) {
	mods := findChildByType(node, "modifiers")
	if mods == nil {
		return nil, nil
	}
	for i := 0; i < int(mods.ChildCount()); i++ {
		child := mods.Child(uint(i))
		switch child.Kind() {
		case "marker_annotation", "annotation":
			name := nodeText(child.ChildByFieldName("name"), f.source)
			_, simple := model.SplitQualifiedName(name)
			annotations = append(annotations, simple)
		default:
			if !child.IsNamed() {
				keywords = append(keywords, nodeText(child, f.source))
			}
		}
	}
	return keywords, annotations
}

func (f *javaFile) method(node *sitter.Node, inInterface bool) (model.MethodSpec, bool) {
	nameNode := node.ChildByFieldName("name")
	typeNode := node.ChildByFieldName("type")
	if nameNode == nil || typeNode == nil {
		return model.MethodSpec{}, false
	}

	mods, annotations := f.modifiers(node)
	if inInterface && !contains(mods, "private") && !contains(mods, "public") {
		// Interface members are implicitly public.
		mods = append([]string{"public"}, mods...)
	}

	m := model.MethodSpec{
		Name:       nodeText(nameNode, f.source),
		ReturnType: collapseSpace(nodeText(typeNode, f.source)),
		Parameters: f.parameters(node.ChildByFieldName("parameters")),
		Modifiers:  mods,
	}
	m.Signature = fmt.Sprintf("%s %s(%s)", m.ReturnType, m.Name, paramTypes(m.Parameters))

	doc, deprecated := docComment(node, f.source)
	m.DocComment = doc
	if deprecated || contains(annotations, "Deprecated") {
		m.SemanticTags = withTag(m.SemanticTags, "deprecated")
	}
	return m, true
}

func (f *javaFile) parameters(list *sitter.Node) []model.ParameterSpec {
	var params []model.ParameterSpec
	for _, p := range namedChildren(list) {
		var param model.ParameterSpec
		switch p.Kind() {
		case "formal_parameter":
			param.Name = nodeText(p.ChildByFieldName("name"), f.source)
			param.Type = collapseSpace(nodeText(p.ChildByFieldName("type"), f.source))
		case "spread_parameter":
			for _, c := range namedChildren(p) {
				switch c.Kind() {
				case "modifiers":
				case "variable_declarator":
					param.Name = nodeText(c.ChildByFieldName("name"), f.source)
				default:
					if param.Type == "" {
						param.Type = collapseSpace(nodeText(c, f.source)) + "..."
					}
				}
			}
		default:
			continue
		}
		_, annotations := f.modifiers(p)
		param.Nullable = contains(annotations, "Nullable")
		params = append(params, param)
	}
	return params
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}
