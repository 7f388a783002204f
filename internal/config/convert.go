package config

import (
	"path/filepath"
	"strings"

	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/lifecycle"
	"github.com/mvp-joe/craft/internal/mapping"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/oracle"
	"github.com/mvp-joe/craft/internal/pipeline"
)

// ToMappingConfig converts the mapping section for the synthesizer.
func (c *Config) ToMappingConfig() mapping.Config {
	return mapping.Config{
		MinConfidence: c.Mapping.MinConfidence,
		Workers:       c.Mapping.Workers,
	}
}

// ToGeneratorConfig converts the generator section.
func (c *Config) ToGeneratorConfig() generator.Config {
	return generator.Config{
		AdapterPrefix: c.Generator.AdapterPrefix,
		Version:       c.Generator.Version,
	}
}

// Languages returns the configured output languages.
func (c *Config) Languages() ([]lang.Language, error) {
	return lang.ParseList(c.Generator.Languages)
}

// LifecycleTable applies the configured overrides to the default
// Activity → UIAbility table.
func (c *Config) LifecycleTable() *lifecycle.Table {
	table := lifecycle.ActivityToUIAbility()
	if len(c.Lifecycle) == 0 {
		return table
	}
	overrides := make(map[string]lifecycle.Target, len(c.Lifecycle))
	for _, o := range c.Lifecycle {
		overrides[o.Source] = lifecycle.Target{
			Method:         o.Method,
			PreCall:        o.PreCall,
			PostCall:       o.PostCall,
			ParamTransform: o.ParamTransform,
			Note:           o.Note,
			Imports:        o.Imports,
		}
	}
	return table.With(overrides)
}

// ToModelConfig converts the oracle section for the chat model factory.
func (c *Config) ToModelConfig() oracle.ModelConfig {
	return oracle.ModelConfig{
		Provider:    oracle.Provider(strings.ToLower(c.Oracle.Provider)),
		BaseURL:     c.Oracle.BaseURL,
		APIKey:      c.Oracle.APIKey,
		Model:       c.Oracle.Model,
		Temperature: c.Oracle.Temperature,
		MaxTokens:   c.Oracle.MaxTokens,
		Timeout:     c.Oracle.Timeout,
		Retries:     c.Oracle.Retries,
	}
}

// ToPipelineConfig converts paths and generator settings. Relative paths
// are resolved against rootDir.
func (c *Config) ToPipelineConfig(rootDir string) (pipeline.Config, error) {
	langs, err := c.Languages()
	if err != nil {
		return pipeline.Config{}, err
	}
	rulesFile := c.RulesFile
	if rulesFile != "" {
		rulesFile = resolve(rootDir, rulesFile)
	}
	return pipeline.Config{
		SourceDir:      resolve(rootDir, c.Paths.SourceDir),
		TargetDir:      resolve(rootDir, c.Paths.TargetDir),
		OutputDir:      resolve(rootDir, c.Paths.OutputDir),
		Include:        c.Paths.Include,
		Ignore:         c.Paths.Ignore,
		SourcePlatform: model.PlatformAndroid,
		TargetPlatform: model.PlatformHarmony,
		Languages:      langs,
		RulesFile:      rulesFile,
		MaxConcurrent:  c.Mapping.Workers,
	}, nil
}

// DBPath returns the store location resolved against rootDir.
func (c *Config) DBPath(rootDir string) string {
	return resolve(rootDir, c.Storage.DBPath)
}

func resolve(rootDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(rootDir, p)
}
