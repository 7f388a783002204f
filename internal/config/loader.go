package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/mvp-joe/craft/internal/crafterr"
)

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from file and environment variables.
	// Priority: defaults → config file → environment variables (env wins)
	Load() (*Config, error)
}

type loader struct {
	rootDir    string
	configFile string
}

// NewLoader creates a loader that searches rootDir/.craft for config.yml.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

// NewFileLoader creates a loader for an explicit config file. A missing
// explicit file is an error.
func NewFileLoader(path string) Loader {
	return &loader{rootDir: filepath.Dir(path), configFile: path}
}

// Load loads configuration with the following priority (highest to lowest):
// 1. Environment variables (CRAFT_*)
// 2. Config file
// 3. Default values
func (l *loader) Load() (*Config, error) {
	v := viper.New()

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(filepath.Join(l.rootDir, ".craft"))
	}

	v.SetEnvPrefix("CRAFT")
	v.AutomaticEnv()
	// CRAFT_MAPPING_MIN_CONFIDENCE -> mapping.min_confidence
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindEnvVars(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// No config file is fine when searching; defaults + env apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || l.configFile != "" {
			return nil, crafterr.Wrapf(crafterr.KindConfig, "load", err, "failed to read config file")
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, crafterr.Wrapf(crafterr.KindConfig, "load", err, "failed to unmarshal config")
	}

	if err := Validate(cfg); err != nil {
		return nil, crafterr.Wrapf(crafterr.KindConfig, "load", err, "invalid configuration")
	}

	return cfg, nil
}

func bindEnvVars(v *viper.Viper) {
	// Paths
	v.BindEnv("paths.source_dir")
	v.BindEnv("paths.target_dir")
	v.BindEnv("paths.output_dir")

	// Mapping
	v.BindEnv("mapping.min_confidence")
	v.BindEnv("mapping.workers")

	// Generator
	v.BindEnv("generator.languages")
	v.BindEnv("generator.adapter_prefix")
	v.BindEnv("generator.version")

	// Storage
	v.BindEnv("storage.enabled")
	v.BindEnv("storage.db_path")

	// Oracle
	v.BindEnv("oracle.enabled")
	v.BindEnv("oracle.provider")
	v.BindEnv("oracle.model")
	v.BindEnv("oracle.base_url")
	v.BindEnv("oracle.api_key")
	v.BindEnv("oracle.max_tokens")
	v.BindEnv("oracle.temperature")
	v.BindEnv("oracle.timeout")
	v.BindEnv("oracle.retries")

	v.BindEnv("rules_file")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.source_dir", defaults.Paths.SourceDir)
	v.SetDefault("paths.target_dir", defaults.Paths.TargetDir)
	v.SetDefault("paths.output_dir", defaults.Paths.OutputDir)
	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("mapping.min_confidence", defaults.Mapping.MinConfidence)
	v.SetDefault("mapping.workers", defaults.Mapping.Workers)

	v.SetDefault("generator.languages", defaults.Generator.Languages)
	v.SetDefault("generator.adapter_prefix", defaults.Generator.AdapterPrefix)
	v.SetDefault("generator.version", defaults.Generator.Version)

	v.SetDefault("storage.enabled", defaults.Storage.Enabled)
	v.SetDefault("storage.db_path", defaults.Storage.DBPath)

	v.SetDefault("oracle.enabled", defaults.Oracle.Enabled)
	v.SetDefault("oracle.provider", defaults.Oracle.Provider)
	v.SetDefault("oracle.max_tokens", defaults.Oracle.MaxTokens)
	v.SetDefault("oracle.timeout", defaults.Oracle.Timeout)
	v.SetDefault("oracle.retries", defaults.Oracle.Retries)

	v.SetDefault("rules_file", "")
}

// LoadConfig loads configuration rooted at the working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration from a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
