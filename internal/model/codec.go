package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/craft/internal/crafterr"
)

// Format is a document encoding for specs and rules.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the encoding from a file extension.
func FormatFromPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, true
	case ".yaml", ".yml":
		return FormatYAML, true
	}
	return "", false
}

// specNamespace seeds content-derived spec ids.
var specNamespace = uuid.MustParse("5f0c2a3e-9b1d-4c8e-a7f4-3d6b2e1c9a80")

// DecodeAPISpecs parses a document holding one spec, a list of specs, or a
// mapping with an "apis" list. Every spec is normalized; the first invalid
// spec fails the whole document.
func DecodeAPISpecs(data []byte, format Format) ([]*APISpec, error) {
	var (
		specs []*APISpec
		err   error
	)
	switch format {
	case FormatJSON:
		specs, err = decodeJSONSpecs(data)
	case FormatYAML:
		specs, err = decodeYAMLSpecs(data)
	default:
		return nil, crafterr.Newf(crafterr.KindParse, "decode specs", "unknown document format %q", format)
	}
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindParse, "decode specs", err)
	}

	return normalizeAll("decode specs", specs)
}

// NormalizeSpecs fills derived fields (fully-qualified name, class type, id,
// timestamp) on specs built in code, with the same checks a decoded
// document gets.
func NormalizeSpecs(specs []*APISpec) ([]*APISpec, error) {
	return normalizeAll("normalize specs", specs)
}

func normalizeAll(op string, specs []*APISpec) ([]*APISpec, error) {
	now := time.Now().UTC()
	for i, s := range specs {
		if s == nil {
			return nil, crafterr.Newf(crafterr.KindParse, op, "entry %d is empty", i)
		}
		if err := s.normalize(now); err != nil {
			return nil, crafterr.Wrapf(crafterr.KindParse, op, err, "entry %d", i)
		}
	}
	return specs, nil
}

func decodeJSONSpecs(data []byte) ([]*APISpec, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	var specs []*APISpec
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &specs); err != nil {
			return nil, err
		}
		return specs, nil
	}

	var probe struct {
		APIs json.RawMessage `json:"apis"`
	}
	if err := json.Unmarshal(trimmed, &probe); err != nil {
		return nil, err
	}
	if probe.APIs != nil {
		if err := json.Unmarshal(probe.APIs, &specs); err != nil {
			return nil, err
		}
		return specs, nil
	}

	var single APISpec
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []*APISpec{&single}, nil
}

func decodeYAMLSpecs(data []byte) ([]*APISpec, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return nil, nil
	}
	doc := root.Content[0]

	var specs []*APISpec
	switch doc.Kind {
	case yaml.SequenceNode:
		if err := doc.Decode(&specs); err != nil {
			return nil, err
		}
		return specs, nil
	case yaml.MappingNode:
		for i := 0; i+1 < len(doc.Content); i += 2 {
			if doc.Content[i].Value == "apis" {
				if err := doc.Content[i+1].Decode(&specs); err != nil {
					return nil, err
				}
				return specs, nil
			}
		}
		var single APISpec
		if err := doc.Decode(&single); err != nil {
			return nil, err
		}
		return []*APISpec{&single}, nil
	}
	return nil, fmt.Errorf("unexpected yaml node at line %d", doc.Line)
}

// normalize fills derivable fields and rejects inconsistent ones.
func (a *APISpec) normalize(now time.Time) error {
	if a.ClassName == "" {
		return fmt.Errorf("class_name is required")
	}
	fqn := QualifiedName(a.Package, a.ClassName)
	switch a.FullQualifiedName {
	case "":
		a.FullQualifiedName = fqn
	case fqn:
	default:
		return fmt.Errorf("full_qualified_name %q does not match package %q and class_name %q",
			a.FullQualifiedName, a.Package, a.ClassName)
	}
	if a.ClassType == "" {
		a.ClassType = ClassTypeClass
	}
	if !a.ClassType.Valid() {
		return fmt.Errorf("unknown class_type %q", a.ClassType)
	}
	if a.Platform != "" {
		p, err := ParsePlatform(string(a.Platform))
		if err != nil {
			return err
		}
		a.Platform = p
	}
	for i, m := range a.Methods {
		if m.Name == "" {
			return fmt.Errorf("method %d of %s has no name", i, fqn)
		}
	}
	if a.ID == uuid.Nil {
		id, err := ContentDigest(a)
		if err != nil {
			return err
		}
		a.ID = id
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	return nil
}

// ContentDigest derives a stable id from everything except id and
// timestamp, so an unchanged spec file keeps its id across runs. Specs
// with equal digests describe the same API whatever ids they carry.
func ContentDigest(a *APISpec) (uuid.UUID, error) {
	c := *a
	c.ID = uuid.Nil
	c.CreatedAt = time.Time{}
	data, err := json.Marshal(&c)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.NewSHA1(specNamespace, data), nil
}

// rulesDocument is the on-disk shape of an exported rule set.
type rulesDocument struct {
	Rules []MappingRule `json:"rules" yaml:"rules"`
}

// EncodeRules serializes rules, preserving their order.
func EncodeRules(rules []MappingRule, format Format) ([]byte, error) {
	doc := rulesDocument{Rules: rules}
	if doc.Rules == nil {
		doc.Rules = []MappingRule{}
	}
	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(doc, "", "  ")
	case FormatYAML:
		data, err = yaml.Marshal(doc)
	default:
		return nil, crafterr.Newf(crafterr.KindSerialization, "encode rules", "unknown document format %q", format)
	}
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindSerialization, "encode rules", err)
	}
	return data, nil
}

// DecodeRules parses an exported or hand-written rule set. Rules without an
// id get a fresh one; missing timestamps are set to now.
func DecodeRules(data []byte, format Format) ([]MappingRule, error) {
	var doc rulesDocument
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	default:
		return nil, crafterr.Newf(crafterr.KindSerialization, "decode rules", "unknown document format %q", format)
	}
	if err != nil {
		return nil, crafterr.Wrap(crafterr.KindSerialization, "decode rules", err)
	}

	now := time.Now().UTC()
	for i := range doc.Rules {
		r := &doc.Rules[i]
		if r.ID == uuid.Nil {
			r.ID = uuid.New()
		}
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		if r.UpdatedAt.IsZero() {
			r.UpdatedAt = r.CreatedAt
		}
		if err := r.Validate(); err != nil {
			return nil, crafterr.Wrap(crafterr.KindSerialization, "decode rules", err)
		}
	}
	return doc.Rules, nil
}
