// Package generator emits delegating adapter classes from mapping rules.
//
// One algorithm plans each adapter: which source methods it exposes and how
// each one reaches the delegate. Planning does not depend on the output
// language. A per-language emitter then spells the plan out.
package generator

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/lifecycle"
	"github.com/mvp-joe/craft/internal/model"
)

const (
	// DefaultAdapterPrefix is prepended to the source package.
	DefaultAdapterPrefix = "craft.adapters"
	// DefaultVersion is stamped into generated headers.
	DefaultVersion = "0.1.0"
)

// Config controls generated identifiers and headers.
type Config struct {
	AdapterPrefix string
	Version       string
	// Now stamps the header. Defaults to the wall clock.
	Now func() time.Time
}

// DefaultConfig returns the standard prefix and version.
func DefaultConfig() Config {
	return Config{AdapterPrefix: DefaultAdapterPrefix, Version: DefaultVersion}
}

// Generator renders adapters. It is stateless per call and safe for
// concurrent use.
type Generator struct {
	cfg       Config
	lifecycle *lifecycle.Table
}

// New creates a Generator. A nil table disables lifecycle handling.
func New(cfg Config, table *lifecycle.Table) *Generator {
	if cfg.AdapterPrefix == "" {
		cfg.AdapterPrefix = DefaultAdapterPrefix
	}
	if cfg.Version == "" {
		cfg.Version = DefaultVersion
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	return &Generator{cfg: cfg, lifecycle: table}
}

// Generate renders the adapter for rule in language l. It returns a
// Generation error and no output when l is not a built-in language or
// the specs do not match the rule.
func (g *Generator) Generate(rule *model.MappingRule, source, target *model.APISpec, l lang.Language) (string, error) {
	e, err := emitterFor(l)
	if err != nil {
		return "", err
	}
	if err := checkInputs(rule, source, target); err != nil {
		return "", err
	}

	p := g.plan(rule, source, target)

	var b strings.Builder
	g.writeHeader(&b, p)
	e.preamble(&b, p)
	e.openClass(&b, p)
	for i := range p.Methods {
		e.method(&b, p, &p.Methods[i])
	}
	for i := range p.Dispatchers {
		e.dispatcher(&b, p, &p.Dispatchers[i])
	}
	if p.BridgeCode != "" {
		writeBridge(&b, e.indent(), p.BridgeCode)
	}
	e.closeClass(&b, p)
	return b.String(), nil
}

// GenerateNamed resolves a language by name before generating.
func (g *Generator) GenerateNamed(rule *model.MappingRule, source, target *model.APISpec, language string) (string, error) {
	l, err := lang.Parse(language)
	if err != nil {
		return "", crafterr.Wrapf(crafterr.KindGeneration, "generate", crafterr.ErrUnsupportedFormat, "%q", language)
	}
	return g.Generate(rule, source, target, l)
}

func checkInputs(rule *model.MappingRule, source, target *model.APISpec) error {
	if rule == nil || source == nil || target == nil {
		return crafterr.New(crafterr.KindGeneration, "generate", "rule, source and target are required")
	}
	if rule.Source.Class != source.FullQualifiedName {
		return crafterr.Newf(crafterr.KindGeneration, "generate",
			"rule source %s does not match spec %s", rule.Source.Class, source.FullQualifiedName)
	}
	if rule.Target.Class != target.FullQualifiedName {
		return crafterr.Newf(crafterr.KindGeneration, "generate",
			"rule target %s does not match spec %s", rule.Target.Class, target.FullQualifiedName)
	}
	return nil
}

// RelativePath is where the adapter for rule lives under an output root:
// the source package as directories, then <Class>Adapter.<ext>.
func RelativePath(rule *model.MappingRule, l lang.Language) (string, error) {
	if !l.Valid() {
		return "", crafterr.Wrapf(crafterr.KindGeneration, "path", crafterr.ErrUnsupportedFormat, "%s", l)
	}
	pkg, class := model.SplitQualifiedName(rule.Source.Class)
	return path.Join(strings.ReplaceAll(pkg, ".", "/"), AdapterClassName(class)+"."+l.Extension()), nil
}

// AdapterClassName names the adapter for a source class.
func AdapterClassName(sourceClass string) string {
	return sourceClass + "Adapter"
}

// AdapterPackage is the namespace adapters for sourcePackage live in.
func (g *Generator) AdapterPackage(sourcePackage string) string {
	return model.QualifiedName(g.cfg.AdapterPrefix, sourcePackage)
}

func (g *Generator) writeHeader(b *strings.Builder, p *adapterPlan) {
	b.WriteString("/**\n")
	fmt.Fprintf(b, " * Auto-generated by CRAFT v%s\n", g.cfg.Version)
	fmt.Fprintf(b, " * Source: %s (%s)\n", p.Rule.Source.Class, p.Rule.Source.Platform)
	fmt.Fprintf(b, " * Target: %s (%s)\n", p.Rule.Target.Class, p.Rule.Target.Platform)
	fmt.Fprintf(b, " * Mapping type: %s\n", p.Rule.MappingType)
	fmt.Fprintf(b, " * Confidence: %.2f\n", p.Rule.Confidence)
	fmt.Fprintf(b, " * Generated: %s\n", p.GeneratedAt.Format(time.RFC3339))
	b.WriteString(" *\n")
	b.WriteString(" * DO NOT EDIT MANUALLY - regenerate with craft.\n")
	b.WriteString(" */\n")
}

func writeBridge(b *strings.Builder, indent, code string) {
	fmt.Fprintf(b, "\n%s// Bridge code\n", indent)
	for _, line := range splitLines(code) {
		if line == "" {
			b.WriteString("\n")
			continue
		}
		b.WriteString(indent + line + "\n")
	}
}

// splitLines splits a snippet, dropping leading and trailing blank lines.
func splitLines(s string) []string {
	s = strings.Trim(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
