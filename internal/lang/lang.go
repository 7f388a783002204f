// Package lang enumerates the adapter output languages.
package lang

import (
	"fmt"
	"strings"
)

// Language selects an adapter output language. The zero value is invalid.
type Language int

const (
	Java Language = iota + 1
	Kotlin
	ArkTS
)

// All lists the built-in languages in a stable order.
var All = []Language{Java, Kotlin, ArkTS}

// Parse resolves a language name. Unknown names are an error.
func Parse(s string) (Language, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "java":
		return Java, nil
	case "kotlin", "kt":
		return Kotlin, nil
	case "arkts", "ets", "typescript", "ts":
		return ArkTS, nil
	}
	return 0, fmt.Errorf("unknown output language %q", s)
}

// ParseList resolves each name, failing on the first unknown one.
func ParseList(names []string) ([]Language, error) {
	out := make([]Language, 0, len(names))
	for _, n := range names {
		l, err := Parse(n)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

// Valid reports whether l is a built-in language.
func (l Language) Valid() bool {
	return l >= Java && l <= ArkTS
}

func (l Language) String() string {
	switch l {
	case Java:
		return "java"
	case Kotlin:
		return "kotlin"
	case ArkTS:
		return "arkts"
	}
	return fmt.Sprintf("language(%d)", int(l))
}

// Extension is the file extension for generated sources, without the dot.
func (l Language) Extension() string {
	switch l {
	case Java:
		return "java"
	case Kotlin:
		return "kt"
	case ArkTS:
		return "ets"
	}
	return ""
}
