package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mvp-joe/craft/internal/lang"
	"github.com/mvp-joe/craft/internal/oracle"
)

var (
	// ErrInvalidConfidence indicates a threshold outside [0,1]
	ErrInvalidConfidence = errors.New("invalid min confidence")

	// ErrInvalidWorkers indicates a negative worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidLanguage indicates an unknown output language
	ErrInvalidLanguage = errors.New("invalid output language")

	// ErrEmptyPrefix indicates a missing adapter package prefix
	ErrEmptyPrefix = errors.New("empty adapter prefix")

	// ErrInvalidProvider indicates an unsupported oracle provider
	ErrInvalidProvider = errors.New("invalid oracle provider")

	// ErrInvalidOracleSettings indicates negative oracle limits
	ErrInvalidOracleSettings = errors.New("invalid oracle settings")

	// ErrInvalidLifecycle indicates a malformed lifecycle override
	ErrInvalidLifecycle = errors.New("invalid lifecycle override")

	// ErrEmptyPath indicates a required directory is unset
	ErrEmptyPath = errors.New("empty path")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if err := validatePaths(&cfg.Paths); err != nil {
		errs = append(errs, err)
	}
	if err := validateMapping(&cfg.Mapping); err != nil {
		errs = append(errs, err)
	}
	if err := validateGenerator(&cfg.Generator); err != nil {
		errs = append(errs, err)
	}
	if err := validateOracle(&cfg.Oracle); err != nil {
		errs = append(errs, err)
	}
	if err := validateLifecycle(cfg.Lifecycle); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validatePaths(cfg *PathsConfig) error {
	if strings.TrimSpace(cfg.OutputDir) == "" {
		return fmt.Errorf("%w: output_dir is required", ErrEmptyPath)
	}
	// Source and target dirs may be supplied on the command line instead.
	return nil
}

func validateMapping(cfg *MappingConfig) error {
	var errs []error

	if cfg.MinConfidence < 0 || cfg.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("%w: must be within [0,1], got %v", ErrInvalidConfidence, cfg.MinConfidence))
	}
	if cfg.Workers < 0 {
		errs = append(errs, fmt.Errorf("%w: workers cannot be negative, got %d", ErrInvalidWorkers, cfg.Workers))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateGenerator(cfg *GeneratorConfig) error {
	var errs []error

	if len(cfg.Languages) == 0 {
		errs = append(errs, fmt.Errorf("%w: at least one language required", ErrInvalidLanguage))
	}
	for _, name := range cfg.Languages {
		if _, err := lang.Parse(name); err != nil {
			errs = append(errs, fmt.Errorf("%w: %s (valid: java, kotlin, arkts)", ErrInvalidLanguage, name))
		}
	}
	if strings.TrimSpace(cfg.AdapterPrefix) == "" {
		errs = append(errs, fmt.Errorf("%w: adapter_prefix is required", ErrEmptyPrefix))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateOracle(cfg *OracleConfig) error {
	var errs []error

	if cfg.MaxTokens < 0 || cfg.Retries < 0 || cfg.Timeout < 0 {
		errs = append(errs, fmt.Errorf("%w: max_tokens, retries and timeout cannot be negative", ErrInvalidOracleSettings))
	}

	// Provider and credentials only matter once the oracle is switched on.
	// Missing credentials are reported when the backend is built so that
	// a misconfigured oracle disables AI assist instead of the whole run.
	if cfg.Enabled {
		known := false
		for _, p := range oracle.Providers {
			if strings.EqualFold(cfg.Provider, string(p)) {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, fmt.Errorf("%w: %q (valid: openai, deepseek, claude, ollama)", ErrInvalidProvider, cfg.Provider))
		}
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateLifecycle(overrides []LifecycleOverride) error {
	var errs []error
	seen := make(map[string]bool)
	for i, o := range overrides {
		if strings.TrimSpace(o.Source) == "" {
			errs = append(errs, fmt.Errorf("%w: entry %d has no source hook", ErrInvalidLifecycle, i))
			continue
		}
		if seen[o.Source] {
			errs = append(errs, fmt.Errorf("%w: duplicate source hook %s", ErrInvalidLifecycle, o.Source))
		}
		seen[o.Source] = true
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
