package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/craft/internal/crafterr"
	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/model"
	"github.com/mvp-joe/craft/internal/oracle"
)

// Test Plan for Config System:
// - Default() returns valid configuration with all expected defaults
// - Load() uses defaults when no config file exists
// - Load() reads .craft/config.yml and merges it with defaults
// - an explicit config file that is missing is an error
// - environment variables override config file values
// - malformed YAML and invalid values fail with Config-kind errors
// - Validate() rejects bad thresholds, languages, prefixes, providers and lifecycle entries
// - Validate() reports multiple problems together
// - conversions feed the synthesizer, generator, oracle and pipeline

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	craftDir := filepath.Join(dir, ".craft")
	require.NoError(t, os.MkdirAll(craftDir, 0o755))
	path := filepath.Join(craftDir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_ReturnsValidConfiguration(t *testing.T) {
	cfg := Default()
	require.NotNil(t, cfg)

	assert.Equal(t, 0.7, cfg.Mapping.MinConfidence)
	assert.Equal(t, 0, cfg.Mapping.Workers)
	assert.Equal(t, []string{"java", "kotlin", "arkts"}, cfg.Generator.Languages)
	assert.Equal(t, "craft.adapters", cfg.Generator.AdapterPrefix)
	assert.Equal(t, ".craft/craft.db", cfg.Storage.DBPath)
	assert.True(t, cfg.Storage.Enabled)
	assert.False(t, cfg.Oracle.Enabled)
	assert.Equal(t, 120*time.Second, cfg.Oracle.Timeout)
	assert.NotEmpty(t, cfg.Paths.Include)

	assert.NoError(t, Validate(cfg))
}

func TestLoad_UsesDefaultsWhenNoConfigFile(t *testing.T) {
	cfg, err := NewLoader(t.TempDir()).Load()
	require.NoError(t, err)

	expected := Default()
	assert.Equal(t, expected.Mapping, cfg.Mapping)
	assert.Equal(t, expected.Generator, cfg.Generator)
	assert.Equal(t, expected.Paths.SourceDir, cfg.Paths.SourceDir)
}

func TestLoad_ReadsConfigFile(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
paths:
  source_dir: sdk/android
  target_dir: sdk/harmony
mapping:
  min_confidence: 0.5
  workers: 4
generator:
  languages: [java, arkts]
oracle:
  enabled: true
  provider: ollama
  model: qwen2.5-coder
  timeout: 30s
lifecycle:
  - source: onResume
    method: onWindowStageActive
  - source: onStop
    method: ""
rules_file: rules.yaml
`)

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)

	assert.Equal(t, "sdk/android", cfg.Paths.SourceDir)
	assert.Equal(t, "output", cfg.Paths.OutputDir, "unset keys keep defaults")
	assert.Equal(t, 0.5, cfg.Mapping.MinConfidence)
	assert.Equal(t, 4, cfg.Mapping.Workers)
	assert.Equal(t, []string{"java", "arkts"}, cfg.Generator.Languages)
	assert.Equal(t, "craft.adapters", cfg.Generator.AdapterPrefix)
	assert.True(t, cfg.Oracle.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Oracle.Timeout)
	require.Len(t, cfg.Lifecycle, 2)
	assert.Equal(t, "onResume", cfg.Lifecycle[0].Source, "hook names keep their case")
	assert.Equal(t, "rules.yaml", cfg.RulesFile)
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(path, []byte("mapping:\n  min_confidence: 0.9\n"), 0o644))

	cfg, err := NewFileLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, 0.9, cfg.Mapping.MinConfidence)

	_, err = NewFileLoader(filepath.Join(dir, "missing.yml")).Load()
	require.Error(t, err)
	assert.True(t, crafterr.IsKind(err, crafterr.KindConfig))
}

func TestLoad_EnvironmentOverridesConfigFile(t *testing.T) {
	// Note: Cannot use t.Parallel() with t.Setenv()
	dir := t.TempDir()
	writeConfig(t, dir, "mapping:\n  min_confidence: 0.5\n")

	t.Setenv("CRAFT_MAPPING_MIN_CONFIDENCE", "0.8")
	t.Setenv("CRAFT_ORACLE_API_KEY", "sk-test")
	t.Setenv("CRAFT_STORAGE_ENABLED", "false")

	cfg, err := NewLoader(dir).Load()
	require.NoError(t, err)
	assert.Equal(t, 0.8, cfg.Mapping.MinConfidence)
	assert.Equal(t, "sk-test", cfg.Oracle.APIKey)
	assert.False(t, cfg.Storage.Enabled)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("malformed yaml", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "mapping: [unclosed\n")

		_, err := NewLoader(dir).Load()
		require.Error(t, err)
		assert.True(t, crafterr.IsKind(err, crafterr.KindConfig))
	})

	t.Run("invalid values", func(t *testing.T) {
		dir := t.TempDir()
		writeConfig(t, dir, "mapping:\n  min_confidence: 1.5\n")

		_, err := NewLoader(dir).Load()
		require.Error(t, err)
		assert.True(t, crafterr.IsKind(err, crafterr.KindConfig))
		assert.True(t, errors.Is(err, ErrInvalidConfidence))
	})
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		modify func(*Config)
		want   error
	}{
		{"negative confidence", func(c *Config) { c.Mapping.MinConfidence = -0.1 }, ErrInvalidConfidence},
		{"negative workers", func(c *Config) { c.Mapping.Workers = -1 }, ErrInvalidWorkers},
		{"unknown language", func(c *Config) { c.Generator.Languages = []string{"cobol"} }, ErrInvalidLanguage},
		{"no languages", func(c *Config) { c.Generator.Languages = nil }, ErrInvalidLanguage},
		{"empty prefix", func(c *Config) { c.Generator.AdapterPrefix = " " }, ErrEmptyPrefix},
		{"empty output", func(c *Config) { c.Paths.OutputDir = "" }, ErrEmptyPath},
		{"unknown provider", func(c *Config) { c.Oracle.Enabled = true; c.Oracle.Provider = "gemini" }, ErrInvalidProvider},
		{"negative retries", func(c *Config) { c.Oracle.Retries = -1 }, ErrInvalidOracleSettings},
		{"lifecycle without source", func(c *Config) { c.Lifecycle = []LifecycleOverride{{Method: "x"}} }, ErrInvalidLifecycle},
		{"duplicate lifecycle", func(c *Config) {
			c.Lifecycle = []LifecycleOverride{{Source: "onStart", Method: "a"}, {Source: "onStart", Method: "b"}}
		}, ErrInvalidLifecycle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := Default()
			tt.modify(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown provider is fine while disabled", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Oracle.Provider = "gemini"
		assert.NoError(t, Validate(cfg))
	})

	t.Run("multiple errors", func(t *testing.T) {
		t.Parallel()
		cfg := Default()
		cfg.Mapping.MinConfidence = 2
		cfg.Generator.AdapterPrefix = ""
		err := Validate(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "validation failed:")
		assert.Contains(t, err.Error(), "min confidence")
		assert.Contains(t, err.Error(), "adapter prefix")
	})
}

func TestConversions(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Mapping.Workers = 3
	cfg.Generator.Languages = []string{"kotlin", "ets"}
	cfg.RulesFile = "rules.yaml"
	cfg.Oracle.Provider = "Claude"
	cfg.Lifecycle = []LifecycleOverride{
		{Source: "onResume", Method: "onWindowStageActive", Note: "custom"},
		{Source: "onStop"},
	}

	m := cfg.ToMappingConfig()
	assert.Equal(t, 0.7, m.MinConfidence)
	assert.Equal(t, 3, m.Workers)

	g := cfg.ToGeneratorConfig()
	assert.Equal(t, "craft.adapters", g.AdapterPrefix)

	mc := cfg.ToModelConfig()
	assert.Equal(t, oracle.ProviderClaude, mc.Provider)
	assert.Equal(t, 120*time.Second, mc.Timeout)

	table := cfg.LifecycleTable()
	target, ok := table.Lookup("onResume")
	require.True(t, ok)
	assert.Equal(t, "onWindowStageActive", target.Method)
	_, ok = table.Lookup("onStop")
	assert.False(t, ok)
	_, ok = table.Lookup("onPause")
	assert.True(t, ok, "untouched hooks remain")

	root := t.TempDir()
	pc, err := cfg.ToPipelineConfig(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "specs", "android"), pc.SourceDir)
	assert.Equal(t, filepath.Join(root, "output"), pc.OutputDir)
	assert.Equal(t, filepath.Join(root, "rules.yaml"), pc.RulesFile)
	assert.Equal(t, []lang.Language{lang.Kotlin, lang.ArkTS}, pc.Languages)
	assert.Equal(t, model.PlatformAndroid, pc.SourcePlatform)
	assert.Equal(t, 3, pc.MaxConcurrent)

	abs := filepath.Join(root, "abs.db")
	cfg.Storage.DBPath = abs
	assert.Equal(t, abs, cfg.DBPath("/elsewhere"))
}
