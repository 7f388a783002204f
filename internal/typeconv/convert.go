package typeconv

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
)

type typeClass int

const (
	classOther typeClass = iota
	classVoid
	classInteger
	classFloat
	classNumber
	classText
	classBool
	classList
	classArray
)

var classByName = map[string]typeClass{
	"void": classVoid, "Unit": classVoid,
	"int": classInteger, "Integer": classInteger, "Int": classInteger,
	"long": classInteger, "Long": classInteger,
	"short": classInteger, "Short": classInteger,
	"byte": classInteger, "Byte": classInteger,
	"float": classFloat, "Float": classFloat,
	"double": classFloat, "Double": classFloat,
	"number": classNumber, "Number": classNumber,
	"String": classText, "string": classText, "CharSequence": classText,
	"boolean": classBool, "Boolean": classBool,
	"List": classList, "ArrayList": classList, "LinkedList": classList,
	"MutableList": classList, "Collection": classList,
}

func classify(name string) typeClass {
	name = strings.TrimSpace(name)
	if strings.HasSuffix(name, "[]") {
		return classArray
	}
	if base, _, ok := splitGenericType(name); ok {
		if base == "Array" {
			return classArray
		}
		name = base
	}
	return classByName[name]
}

// IsVoid reports whether name spells "no value" in any supported vocabulary.
func IsVoid(name string) bool {
	return classify(name) == classVoid
}

// renderFunc builds the converted expression. want is the projected
// adapter return type.
type renderFunc func(expr, want string) string

type conversion struct {
	name   string
	want   typeClass
	have   []typeClass
	render map[lang.Language]renderFunc
}

func (c conversion) matches(want, have typeClass) bool {
	if c.want != want {
		return false
	}
	for _, h := range c.have {
		if h == have {
			return true
		}
	}
	return false
}

var javaUnbox = map[string]string{
	"int": "intValue", "Integer": "intValue",
	"long": "longValue", "Long": "longValue",
	"short": "shortValue", "Short": "shortValue",
	"byte": "byteValue", "Byte": "byteValue",
	"float": "floatValue", "Float": "floatValue",
	"double": "doubleValue", "Double": "doubleValue",
}

var kotlinToNumber = map[string]string{
	"Int": "toInt", "Long": "toLong", "Short": "toShort", "Byte": "toByte",
	"Float": "toFloat", "Double": "toDouble",
}

func javaNumeric(expr, want string) string {
	m, ok := javaUnbox[want]
	if !ok {
		m = "doubleValue"
	}
	return fmt.Sprintf("((Number) (%s)).%s()", expr, m)
}

func kotlinNumeric(expr, want string) string {
	m, ok := kotlinToNumber[want]
	if !ok {
		m = "toDouble"
	}
	return fmt.Sprintf("(%s).%s()", expr, m)
}

// conversions is consulted in order; the first match wins.
var conversions = []conversion{
	{
		name: "integer<-numeric",
		want: classInteger,
		have: []typeClass{classNumber, classFloat, classInteger},
		render: map[lang.Language]renderFunc{
			lang.Java:   javaNumeric,
			lang.Kotlin: kotlinNumeric,
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Math.trunc(%s)", expr) },
		},
	},
	{
		name: "float<-numeric",
		want: classFloat,
		have: []typeClass{classNumber, classInteger, classFloat},
		render: map[lang.Language]renderFunc{
			lang.Java:   javaNumeric,
			lang.Kotlin: kotlinNumeric,
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Number(%s)", expr) },
		},
	},
	{
		name: "numeric<-integer",
		want: classNumber,
		have: []typeClass{classInteger, classFloat},
		render: map[lang.Language]renderFunc{
			lang.Java:   javaNumeric,
			lang.Kotlin: kotlinNumeric,
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Number(%s)", expr) },
		},
	},
	{
		name: "text<-value",
		want: classText,
		have: []typeClass{classText, classInteger, classFloat, classNumber, classBool},
		render: map[lang.Language]renderFunc{
			lang.Java:   func(expr, _ string) string { return fmt.Sprintf("String.valueOf(%s)", expr) },
			lang.Kotlin: func(expr, _ string) string { return fmt.Sprintf("(%s).toString()", expr) },
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("String(%s)", expr) },
		},
	},
	{
		name: "boolean<-boolean",
		want: classBool,
		have: []typeClass{classBool},
		render: map[lang.Language]renderFunc{
			lang.Java:   func(expr, _ string) string { return fmt.Sprintf("Boolean.TRUE.equals(%s)", expr) },
			lang.Kotlin: func(expr, _ string) string { return fmt.Sprintf("(%s) == true", expr) },
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Boolean(%s)", expr) },
		},
	},
	{
		name: "list<-array",
		want: classList,
		have: []typeClass{classArray},
		render: map[lang.Language]renderFunc{
			lang.Java:   func(expr, _ string) string { return fmt.Sprintf("java.util.Arrays.asList(%s)", expr) },
			lang.Kotlin: func(expr, _ string) string { return fmt.Sprintf("(%s).toList()", expr) },
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Array.from(%s)", expr) },
		},
	},
	{
		name: "array<-list",
		want: classArray,
		have: []typeClass{classList},
		render: map[lang.Language]renderFunc{
			lang.Java: func(expr, want string) string {
				elem := strings.TrimSuffix(want, "[]")
				return fmt.Sprintf("(%s).toArray(new %s[0])", expr, elem)
			},
			lang.Kotlin: func(expr, _ string) string { return fmt.Sprintf("(%s).toTypedArray()", expr) },
			lang.ArkTS:  func(expr, _ string) string { return fmt.Sprintf("Array.from(%s)", expr) },
		},
	},
}

// Result is a converted expression and the table entry that produced it.
type Result struct {
	Expr string
	Rule string
}

// Convert turns expr, a value of type have, into a value of type want in
// language l. Pairs missing from the table fall back to a cast.
func Convert(expr, want, have string, l lang.Language) Result {
	wantClass, haveClass := classify(want), classify(have)
	projected := Project(want, l)

	for _, c := range conversions {
		if !c.matches(wantClass, haveClass) {
			continue
		}
		if render, ok := c.render[l]; ok {
			return Result{Expr: render(expr, projected), Rule: c.name}
		}
	}
	return Result{Expr: Cast(expr, projected, l), Rule: "cast"}
}

// Cast is the fallback conversion for unrelated types.
func Cast(expr, typ string, l lang.Language) string {
	if l == lang.Java {
		return fmt.Sprintf("(%s) (%s)", typ, expr)
	}
	return fmt.Sprintf("(%s) as %s", expr, typ)
}
