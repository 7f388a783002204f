// Package model holds the shared vocabulary of the mapping engine: API
// descriptions produced by a parser and the mapping rules synthesized from
// them. Types here carry data and a few lookups, no behavior.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Platform identifies the ecosystem an API belongs to.
type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformHarmony Platform = "harmony"
)

// ParsePlatform accepts the canonical names plus common aliases.
func ParsePlatform(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "android":
		return PlatformAndroid, nil
	case "harmony", "harmonyos", "openharmony", "ohos":
		return PlatformHarmony, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// ClassType is the kind of declaration an ApiSpec describes.
type ClassType string

const (
	ClassTypeClass         ClassType = "class"
	ClassTypeAbstractClass ClassType = "abstract_class"
	ClassTypeInterface     ClassType = "interface"
	ClassTypeEnum          ClassType = "enum"
	ClassTypeTypeAlias     ClassType = "type_alias"
)

// Valid reports whether c is one of the known class types.
func (c ClassType) Valid() bool {
	switch c {
	case ClassTypeClass, ClassTypeAbstractClass, ClassTypeInterface, ClassTypeEnum, ClassTypeTypeAlias:
		return true
	}
	return false
}

// ParameterSpec describes one method parameter.
type ParameterSpec struct {
	Name         string  `json:"name" yaml:"name"`
	Type         string  `json:"type" yaml:"type"`
	Nullable     bool    `json:"nullable,omitempty" yaml:"nullable,omitempty"`
	DefaultValue *string `json:"default_value,omitempty" yaml:"default_value,omitempty"`
}

// MethodSpec describes one method. Parameters are in call order.
type MethodSpec struct {
	Name         string          `json:"name" yaml:"name"`
	Signature    string          `json:"signature,omitempty" yaml:"signature,omitempty"`
	ReturnType   string          `json:"return_type" yaml:"return_type"`
	Parameters   []ParameterSpec `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Modifiers    []string        `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	SemanticTags []string        `json:"semantic_tags,omitempty" yaml:"semantic_tags,omitempty"`
	DocComment   string          `json:"doc_comment,omitempty" yaml:"doc_comment,omitempty"`
}

// HasModifier reports whether the method carries modifier m.
func (m *MethodSpec) HasModifier(mod string) bool {
	for _, x := range m.Modifiers {
		if x == mod {
			return true
		}
	}
	return false
}

// IsPublic reports whether the method is part of the visible API.
func (m *MethodSpec) IsPublic() bool { return m.HasModifier("public") }

// IsStatic reports whether the method is a static member.
func (m *MethodSpec) IsStatic() bool { return m.HasModifier("static") }

// ParameterNames returns parameter names in call order.
func (m *MethodSpec) ParameterNames() []string {
	names := make([]string, len(m.Parameters))
	for i, p := range m.Parameters {
		names[i] = p.Name
	}
	return names
}

// APISpec describes one class-like declaration on a platform.
type APISpec struct {
	ID                uuid.UUID    `json:"id" yaml:"id"`
	Platform          Platform     `json:"platform" yaml:"platform"`
	Version           string       `json:"version,omitempty" yaml:"version,omitempty"`
	Package           string       `json:"package" yaml:"package"`
	ClassName         string       `json:"class_name" yaml:"class_name"`
	FullQualifiedName string       `json:"full_qualified_name" yaml:"full_qualified_name"`
	ClassType         ClassType    `json:"class_type" yaml:"class_type"`
	ParentClass       string       `json:"parent_class,omitempty" yaml:"parent_class,omitempty"`
	Interfaces        []string     `json:"interfaces,omitempty" yaml:"interfaces,omitempty"`
	Methods           []MethodSpec `json:"methods,omitempty" yaml:"methods,omitempty"`
	SemanticTags      []string     `json:"semantic_tags,omitempty" yaml:"semantic_tags,omitempty"`
	CreatedAt         time.Time    `json:"created_at" yaml:"created_at"`
}

// NewAPISpec builds a class spec with a fresh id and a derived
// fully-qualified name.
func NewAPISpec(platform Platform, pkg, className string) *APISpec {
	return &APISpec{
		ID:                uuid.New(),
		Platform:          platform,
		Package:           pkg,
		ClassName:         className,
		FullQualifiedName: QualifiedName(pkg, className),
		ClassType:         ClassTypeClass,
		CreatedAt:         time.Now().UTC(),
	}
}

// QualifiedName joins a package and a class name. An empty package
// yields the bare class name.
func QualifiedName(pkg, className string) string {
	if pkg == "" {
		return className
	}
	return pkg + "." + className
}

// SplitQualifiedName is the inverse of QualifiedName.
func SplitQualifiedName(fqn string) (pkg, className string) {
	i := strings.LastIndex(fqn, ".")
	if i < 0 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}

// Method finds a method by name. The first declaration wins for overloads.
func (a *APISpec) Method(name string) (*MethodSpec, bool) {
	for i := range a.Methods {
		if a.Methods[i].Name == name {
			return &a.Methods[i], true
		}
	}
	return nil, false
}

// PublicMethods returns the methods marked public, in declaration order.
func (a *APISpec) PublicMethods() []MethodSpec {
	var out []MethodSpec
	for _, m := range a.Methods {
		if m.IsPublic() {
			out = append(out, m)
		}
	}
	return out
}

// Reference returns the lightweight pointer used by mapping rules.
func (a *APISpec) Reference() APIReference {
	return APIReference{Platform: a.Platform, Class: a.FullQualifiedName}
}

// APIReference points at an APISpec by platform and fully-qualified name.
type APIReference struct {
	Platform Platform `json:"platform" yaml:"platform"`
	Class    string   `json:"class" yaml:"class"`
}

func (r APIReference) String() string {
	return string(r.Platform) + ":" + r.Class
}
