// Package extract builds API specs straight from platform declaration
// sources: Android SDK .java stubs and HarmonyOS .d.ts/.d.ets files. It
// parses with tree-sitter and keeps only the declared surface (types,
// method signatures, doc summaries); bodies are ignored.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/model"
)

// Options carries what an extractor cannot learn from the source itself.
type Options struct {
	// Path names the file. TypeScript module files such as
	// @ohos.router.d.ts take their package from it.
	Path string
	// Package applies to declarations in files that do not name one.
	Package string
}

// Extractor reads the declarations of one source file.
type Extractor interface {
	Extract(source []byte, opts Options) ([]*model.APISpec, error)
}

// ForPath picks an extractor by file extension.
func ForPath(path string) (Extractor, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".java":
		return NewJavaExtractor(), true
	case ".ts", ".ets":
		return NewTypeScriptExtractor(), true
	}
	return nil, false
}

// Supported reports whether ForPath has an extractor for path.
func Supported(path string) bool {
	_, ok := ForPath(path)
	return ok
}

// File reads and extracts path, returning normalized specs.
func File(path, pkg string) ([]*model.APISpec, error) {
	ex, ok := ForPath(path)
	if !ok {
		return nil, crafterr.Wrapf(crafterr.KindParse, "extract", crafterr.ErrUnsupportedFormat, "%s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindIO, "extract", err)
	}
	specs, err := ex.Extract(source, Options{Path: path, Package: pkg})
	if err != nil {
		return nil, err
	}
	return model.NormalizeSpecs(specs)
}

// parse runs a tree-sitter parser over source. A tree with syntax errors is
// rejected: half-recovered declarations would produce wrong signatures.
func parse(lang *sitter.Language, source []byte) (*sitter.Tree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, crafterr.Wrap(crafterr.KindParse, "extract", err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return nil, crafterr.Newf(crafterr.KindParse, "extract", "parser produced no tree")
	}
	if root := tree.RootNode(); root.HasError() {
		line := 0
		if bad := firstError(root); bad != nil {
			line = int(bad.StartPosition().Row) + 1
		}
		tree.Close()
		return nil, crafterr.Newf(crafterr.KindParse, "extract", "syntax error near line %d", line)
	}
	return tree, nil
}

func firstError(node *sitter.Node) *sitter.Node {
	var found *sitter.Node
	walkTree(node, func(n *sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			found = n
			return false
		}
		return n.HasError()
	})
	return found
}

// nodeText extracts the text content of a tree-sitter node.
func nodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		walkTree(node.Child(uint(i)), visitor)
	}
}

// namedChildren returns the named children of node in order.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(uint(i)))
	}
	return out
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// docComment returns the /** */ block directly above node, cleaned to
// its summary, and whether it carries a deprecation tag. Declarations
// wrapped by a parent (export, declare) look above the wrapper.
func docComment(node *sitter.Node, source []byte, wrappers ...string) (summary string, deprecated bool) {
	for parent := node.Parent(); parent != nil; parent = parent.Parent() {
		if !isAnyKind(parent, wrappers) {
			break
		}
		node = parent
	}

	prev := node.PrevNamedSibling()
	if prev == nil || !strings.HasSuffix(prev.Kind(), "comment") {
		return "", false
	}
	text := nodeText(prev, source)
	if !strings.HasPrefix(text, "/**") {
		return "", false
	}
	return cleanDoc(text)
}

func cleanDoc(text string) (string, bool) {
	text = strings.TrimSuffix(strings.TrimPrefix(text, "/**"), "*/")

	var (
		lines      []string
		deprecated bool
		inTags     bool
	)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimSpace(strings.TrimPrefix(line, "*"))
		if strings.HasPrefix(line, "@") {
			inTags = true
			if strings.HasPrefix(line, "@deprecated") {
				deprecated = true
			}
			continue
		}
		if inTags || line == "" {
			continue
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, " "), deprecated
}

func isAnyKind(node *sitter.Node, kinds []string) bool {
	for _, k := range kinds {
		if node.Kind() == k {
			return true
		}
	}
	return false
}

// stripTypeArguments turns "ArrayAdapter<T>" into "ArrayAdapter".
func stripTypeArguments(name string) string {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	return strings.TrimSpace(name)
}

// collapseSpace folds newlines and runs of blanks inside type text.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func withTag(tags []string, tag string) []string {
	for _, t := range tags {
		if t == tag {
			return tags
		}
	}
	return append(tags, tag)
}

func paramTypes(params []model.ParameterSpec) string {
	types := make([]string, len(params))
	for i, p := range params {
		types[i] = p.Type
	}
	return strings.Join(types, ", ")
}

func paramList(params []model.ParameterSpec) string {
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf("%s: %s", p.Name, p.Type)
	}
	return strings.Join(parts, ", ")
}
