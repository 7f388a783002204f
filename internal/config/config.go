// Package config loads craft settings from .craft/config.yml with
// CRAFT_* environment overrides.
//
// Priority (highest to lowest):
//  1. Environment variables (CRAFT_MAPPING_MIN_CONFIDENCE, ...)
//  2. Config file (.craft/config.yml, .craft/config.yaml or --config)
//  3. Built-in defaults
package config

import (
	"time"

	"github.com/mvp-joe/craft/internal/generator"
	"github.com/mvp-joe/craft/internal/mapping"
)

// Config represents the complete craft configuration.
type Config struct {
	Paths     PathsConfig         `yaml:"paths" mapstructure:"paths"`
	Mapping   MappingConfig       `yaml:"mapping" mapstructure:"mapping"`
	Generator GeneratorConfig     `yaml:"generator" mapstructure:"generator"`
	Storage   StorageConfig       `yaml:"storage" mapstructure:"storage"`
	Oracle    OracleConfig        `yaml:"oracle" mapstructure:"oracle"`
	Lifecycle []LifecycleOverride `yaml:"lifecycle" mapstructure:"lifecycle"`
	RulesFile string              `yaml:"rules_file" mapstructure:"rules_file"` // manual rules, JSON or YAML
}

// PathsConfig locates spec files and the output tree.
type PathsConfig struct {
	SourceDir string   `yaml:"source_dir" mapstructure:"source_dir"` // source-platform spec files
	TargetDir string   `yaml:"target_dir" mapstructure:"target_dir"` // target-platform spec files
	OutputDir string   `yaml:"output_dir" mapstructure:"output_dir"`
	Include   []string `yaml:"include" mapstructure:"include"` // glob patterns for spec files
	Ignore    []string `yaml:"ignore" mapstructure:"ignore"`
}

// MappingConfig tunes rule synthesis.
type MappingConfig struct {
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	Workers       int     `yaml:"workers" mapstructure:"workers"` // 0 means one per CPU
}

// GeneratorConfig tunes adapter emission.
type GeneratorConfig struct {
	Languages     []string `yaml:"languages" mapstructure:"languages"`
	AdapterPrefix string   `yaml:"adapter_prefix" mapstructure:"adapter_prefix"`
	Version       string   `yaml:"version" mapstructure:"version"`
}

// StorageConfig controls the SQLite rule store.
type StorageConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	DBPath  string `yaml:"db_path" mapstructure:"db_path"`
}

// OracleConfig configures the optional AI assist. It stays off unless
// enabled and given a usable provider.
type OracleConfig struct {
	Enabled     bool          `yaml:"enabled" mapstructure:"enabled"`
	Provider    string        `yaml:"provider" mapstructure:"provider"` // openai, deepseek, claude, ollama
	Model       string        `yaml:"model" mapstructure:"model"`
	BaseURL     string        `yaml:"base_url" mapstructure:"base_url"`
	APIKey      string        `yaml:"api_key" mapstructure:"api_key"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature *float32      `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
	Retries     int           `yaml:"retries" mapstructure:"retries"`
}

// LifecycleOverride replaces or removes one entry of the default lifecycle
// table. An empty Method removes the source hook.
//
// Overrides are a list rather than a map because viper folds map keys to
// lower case and hook names are case sensitive.
type LifecycleOverride struct {
	Source         string   `yaml:"source" mapstructure:"source"`
	Method         string   `yaml:"method" mapstructure:"method"`
	PreCall        string   `yaml:"pre_call" mapstructure:"pre_call"`
	PostCall       string   `yaml:"post_call" mapstructure:"post_call"`
	ParamTransform string   `yaml:"param_transform" mapstructure:"param_transform"`
	Note           string   `yaml:"note" mapstructure:"note"`
	Imports        []string `yaml:"imports" mapstructure:"imports"`
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			SourceDir: "specs/android",
			TargetDir: "specs/harmony",
			OutputDir: "output",
			Include: []string{
				"**/*.json",
				"**/*.yml",
				"**/*.yaml",
				"**/*.java",
				"**/*.d.ts",
				"**/*.d.ets",
			},
			Ignore: []string{
				".git/**",
				".craft/**",
				"**/node_modules/**",
			},
		},
		Mapping: MappingConfig{
			MinConfidence: mapping.DefaultMinConfidence,
			Workers:       0,
		},
		Generator: GeneratorConfig{
			Languages:     []string{"java", "kotlin", "arkts"},
			AdapterPrefix: generator.DefaultAdapterPrefix,
			Version:       generator.DefaultVersion,
		},
		Storage: StorageConfig{
			Enabled: true,
			DBPath:  ".craft/craft.db",
		},
		Oracle: OracleConfig{
			Enabled:   false,
			Provider:  "openai",
			MaxTokens: 4096,
			Timeout:   120 * time.Second,
			Retries:   2,
		},
	}
}
