package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MappingType is the category of a mapping rule.
type MappingType string

const (
	// MappingDirect marks near-identical APIs (score > 0.9).
	MappingDirect MappingType = "direct"
	// MappingSemantic marks APIs needing light transformation (0.7 < score <= 0.9).
	MappingSemantic MappingType = "semantic"
	// MappingBridge marks APIs needing significant bridging logic.
	MappingBridge MappingType = "bridge"
	// MappingShim marks manually authored rules with no scored counterpart.
	MappingShim MappingType = "shim"
)

// ParseMappingType validates a serialized mapping type.
func ParseMappingType(s string) (MappingType, error) {
	switch t := MappingType(s); t {
	case MappingDirect, MappingSemantic, MappingBridge, MappingShim:
		return t, nil
	}
	return "", fmt.Errorf("unknown mapping type %q", s)
}

// ParamPair maps one source parameter name onto one target parameter name.
type ParamPair struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

// MethodMapping is a method-level correspondence inside a rule.
type MethodMapping struct {
	SourceMethod  string      `json:"source_method" yaml:"source_method"`
	TargetMethod  string      `json:"target_method" yaml:"target_method"`
	ParamMappings []ParamPair `json:"param_mappings,omitempty" yaml:"param_mappings,omitempty"`
	PreCallCode   string      `json:"pre_call_code,omitempty" yaml:"pre_call_code,omitempty"`
	PostCallCode  string      `json:"post_call_code,omitempty" yaml:"post_call_code,omitempty"`
}

// MappingRule is the decided correspondence between one source API and
// one target API. Rules are not modified after synthesis.
type MappingRule struct {
	ID              uuid.UUID       `json:"id" yaml:"id"`
	Source          APIReference    `json:"source" yaml:"source"`
	Target          APIReference    `json:"target" yaml:"target"`
	MappingType     MappingType     `json:"mapping_type" yaml:"mapping_type"`
	Confidence      float64         `json:"confidence" yaml:"confidence"`
	MethodMappings  []MethodMapping `json:"method_mappings,omitempty" yaml:"method_mappings,omitempty"`
	RequiresImports []string        `json:"requires_imports,omitempty" yaml:"requires_imports,omitempty"`
	BridgeCode      string          `json:"bridge_code,omitempty" yaml:"bridge_code,omitempty"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at" yaml:"updated_at"`
}

// NewMappingRule creates a rule stamped with a fresh id and the given time.
func NewMappingRule(source, target APIReference, kind MappingType, confidence float64, now time.Time) *MappingRule {
	return &MappingRule{
		ID:          uuid.New(),
		Source:      source,
		Target:      target,
		MappingType: kind,
		Confidence:  confidence,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// MethodMapping finds the mapping for a source method name.
func (r *MappingRule) MethodMapping(sourceMethod string) (*MethodMapping, bool) {
	for i := range r.MethodMappings {
		if r.MethodMappings[i].SourceMethod == sourceMethod {
			return &r.MethodMappings[i], true
		}
	}
	return nil, false
}

// Validate checks fields a hand-written rule can get wrong.
func (r *MappingRule) Validate() error {
	if r.Source.Class == "" {
		return fmt.Errorf("rule %s: source class is required", r.ID)
	}
	if r.Target.Class == "" {
		return fmt.Errorf("rule %s: target class is required", r.ID)
	}
	if _, err := ParseMappingType(string(r.MappingType)); err != nil {
		return fmt.Errorf("rule %s: %w", r.ID, err)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return fmt.Errorf("rule %s: confidence %v outside [0,1]", r.ID, r.Confidence)
	}
	return nil
}
