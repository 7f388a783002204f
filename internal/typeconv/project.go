// Package typeconv spells type names for each output language and converts
// delegated return values between differing return types.
package typeconv

import (
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
)

// scalarNames maps a type spelling from either platform vocabulary to the
// closest built-in of each output language.
var scalarNames = map[lang.Language]map[string]string{
	lang.Java: {
		"number":  "double",
		"string":  "String",
		"boolean": "boolean",
		"any":     "Object",
		"unknown": "Object",
		"object":  "Object",
		"Unit":    "void",
		"Int":     "int",
		"Any":     "Object",
	},
	lang.Kotlin: {
		"void":      "Unit",
		"int":       "Int",
		"Integer":   "Int",
		"long":      "Long",
		"short":     "Short",
		"byte":      "Byte",
		"float":     "Float",
		"double":    "Double",
		"boolean":   "Boolean",
		"char":      "Char",
		"Character": "Char",
		"Object":    "Any",
		"number":    "Double",
		"string":    "String",
		"any":       "Any",
		"object":    "Any",
	},
	lang.ArkTS: {
		"int":          "number",
		"Integer":      "number",
		"long":         "number",
		"Long":         "number",
		"short":        "number",
		"Short":        "number",
		"byte":         "number",
		"Byte":         "number",
		"float":        "number",
		"Float":        "number",
		"double":       "number",
		"Double":       "number",
		"Number":       "number",
		"boolean":      "boolean",
		"Boolean":      "boolean",
		"char":         "string",
		"Character":    "string",
		"String":       "string",
		"CharSequence": "string",
		"Object":       "Object",
		"Unit":         "void",
		"Bundle":       "Record<string, Object>",
		"Intent":       "Want",
		"View":         "Component",
	},
}

// collectionNames maps generic container bases.
var collectionNames = map[lang.Language]map[string]string{
	lang.Java: {
		"Array":  "List",
		"Record": "Map",
	},
	lang.Kotlin: {
		"Record":      "Map",
		"Collection":  "Collection",
		"MutableList": "MutableList",
	},
	lang.ArkTS: {
		"List":          "Array",
		"ArrayList":     "Array",
		"LinkedList":    "Array",
		"Collection":    "Array",
		"MutableList":   "Array",
		"Map":           "Map",
		"HashMap":       "Map",
		"LinkedHashMap": "Map",
		"TreeMap":       "Map",
		"Set":           "Set",
		"HashSet":       "Set",
	},
}

// Project spells name in the output language. Arrays and generics are
// unwrapped and rewrapped one level deep; unknown names pass through.
func Project(name string, l lang.Language) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}

	if elem, ok := strings.CutSuffix(name, "[]"); ok {
		return wrapArray(projectScalar(elem, l), l)
	}

	if base, args, ok := splitGenericType(name); ok {
		projected := make([]string, len(args))
		for i, a := range args {
			projected[i] = projectScalar(a, l)
			if l == lang.Java {
				projected[i] = boxJava(projected[i])
			}
		}
		if l == lang.ArkTS && base == "Array" && len(projected) == 1 {
			return projected[0] + "[]"
		}
		return projectBase(base, l) + "<" + strings.Join(projected, ", ") + ">"
	}

	return projectScalar(name, l)
}

// ProjectNullable spells a possibly-null type.
func ProjectNullable(name string, nullable bool, l lang.Language) string {
	t := Project(name, l)
	if !nullable {
		return t
	}
	switch l {
	case lang.Kotlin:
		return t + "?"
	case lang.ArkTS:
		return t + " | null"
	}
	return t
}

func projectScalar(name string, l lang.Language) string {
	name = strings.TrimSpace(name)
	if mapped, ok := scalarNames[l][name]; ok {
		return mapped
	}
	return name
}

var javaBoxed = map[string]string{
	"int": "Integer", "long": "Long", "short": "Short", "byte": "Byte",
	"float": "Float", "double": "Double", "boolean": "Boolean", "char": "Character",
}

// boxJava replaces primitives, which Java generics cannot hold.
func boxJava(name string) string {
	if boxed, ok := javaBoxed[name]; ok {
		return boxed
	}
	return name
}

func projectBase(base string, l lang.Language) string {
	if mapped, ok := collectionNames[l][base]; ok {
		return mapped
	}
	return base
}

func wrapArray(elem string, l lang.Language) string {
	if l == lang.Kotlin {
		return "Array<" + elem + ">"
	}
	return elem + "[]"
}

// splitGenericType splits "Base<A, B>" into its base and top-level arguments.
func splitGenericType(name string) (string, []string, bool) {
	start := strings.Index(name, "<")
	end := strings.LastIndex(name, ">")
	if start <= 0 || end != len(name)-1 {
		return "", nil, false
	}
	base := strings.TrimSpace(name[:start])
	args := SplitTopLevel(name[start+1 : end])
	if len(args) == 0 {
		return "", nil, false
	}
	return base, args, true
}

// SplitTopLevel splits a comma-separated list, ignoring commas nested in
// angle brackets or parentheses.
func SplitTopLevel(list string) []string {
	var parts []string
	var current strings.Builder
	depth := 0

	for _, r := range list {
		switch r {
		case '<', '(', '[':
			depth++
			current.WriteRune(r)
		case '>', ')', ']':
			depth--
			current.WriteRune(r)
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(current.String()))
				current.Reset()
			} else {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if s := strings.TrimSpace(current.String()); s != "" {
		parts = append(parts, s)
	}
	return parts
}
