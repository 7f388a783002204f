package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/mvp-joe/craft/internal/crafterr"
)

// Provider names a chat model backend.
type Provider string

const (
	ProviderOpenAI   Provider = "openai"
	ProviderDeepSeek Provider = "deepseek"
	ProviderClaude   Provider = "claude"
	ProviderOllama   Provider = "ollama"
)

// Providers lists the supported backends.
var Providers = []Provider{ProviderOpenAI, ProviderDeepSeek, ProviderClaude, ProviderOllama}

// ModelConfig selects and configures a chat model.
type ModelConfig struct {
	Provider    Provider      `json:"provider"`
	BaseURL     string        `json:"base_url"`
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	Temperature *float32      `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Timeout     time.Duration `json:"timeout"`
	Retries     int           `json:"retries"`
}

const systemPrompt = "You are an expert in Android and HarmonyOS APIs. Answer exactly in the requested format."

// NewChatModel builds the eino chat model for cfg. Hosted providers
// without an API key fail with a Config error.
func NewChatModel(ctx context.Context, cfg ModelConfig) (model.BaseChatModel, error) {
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 4096
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}
	if cfg.Model == "" {
		return nil, crafterr.New(crafterr.KindConfig, "oracle", "model name is required")
	}

	switch cfg.Provider {
	case ProviderOpenAI, ProviderDeepSeek:
		if cfg.APIKey == "" {
			return nil, crafterr.Wrapf(crafterr.KindConfig, "oracle", crafterr.ErrMissingCredential, "provider %s", cfg.Provider)
		}
		baseURL := cfg.BaseURL
		if baseURL == "" && cfg.Provider == ProviderDeepSeek {
			baseURL = "https://api.deepseek.com"
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   &cfg.MaxTokens,
			Timeout:     cfg.Timeout,
		})
		if err != nil {
			return nil, crafterr.Wrap(crafterr.KindConfig, "oracle", err)
		}
		return cm, nil

	case ProviderClaude:
		if cfg.APIKey == "" {
			return nil, crafterr.Wrapf(crafterr.KindConfig, "oracle", crafterr.ErrMissingCredential, "provider %s", cfg.Provider)
		}
		var baseURL *string
		if cfg.BaseURL != "" {
			baseURL = &cfg.BaseURL
		}
		cm, err := claude.NewChatModel(ctx, &claude.Config{
			BaseURL:     baseURL,
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
		})
		if err != nil {
			return nil, crafterr.Wrap(crafterr.KindConfig, "oracle", err)
		}
		return cm, nil

	case ProviderOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434"
		}
		cm, err := ollama.NewChatModel(ctx, &ollama.ChatModelConfig{
			BaseURL: baseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, crafterr.Wrap(crafterr.KindConfig, "oracle", err)
		}
		return cm, nil
	}
	return nil, crafterr.Newf(crafterr.KindConfig, "oracle", "unsupported provider %q", cfg.Provider)
}

// FromChatModel adapts an eino chat model to CompleteFunc.
func FromChatModel(cm model.BaseChatModel) CompleteFunc {
	return func(ctx context.Context, prompt string) (string, error) {
		out, err := cm.Generate(ctx, []*schema.Message{
			schema.SystemMessage(systemPrompt),
			schema.UserMessage(prompt),
		})
		if err != nil {
			return "", err
		}
		return out.Content, nil
	}
}

// WithRetry retries transient failures with exponential backoff capped at
// ten seconds. Each attempt gets its own timeout when timeout > 0.
func WithRetry(fn CompleteFunc, retries int, timeout time.Duration, logger *slog.Logger) CompleteFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, prompt string) (string, error) {
		var lastErr error
		for attempt := 0; attempt <= retries; attempt++ {
			if attempt > 0 {
				wait := time.Duration(1<<uint(attempt-1)) * time.Second
				if wait > 10*time.Second {
					wait = 10 * time.Second
				}
				logger.Info("retrying oracle call", "attempt", attempt+1, "of", retries+1, "wait", wait)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(wait):
				}
			}

			out, err := callOnce(ctx, fn, prompt, timeout)
			if err == nil {
				return out, nil
			}
			lastErr = err
			if !isRetryable(err) {
				return "", err
			}
			logger.Warn("retryable oracle error", "attempt", attempt+1, "error", err)
		}
		return "", fmt.Errorf("failed after %d attempts: %w", retries+1, lastErr)
	}
}

func callOnce(ctx context.Context, fn CompleteFunc, prompt string, timeout time.Duration) (string, error) {
	if timeout <= 0 {
		return fn(ctx, prompt)
	}
	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return fn(attemptCtx, prompt)
}

func isRetryable(err error) bool {
	s := err.Error()
	for _, marker := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"operation timed out",
		"context deadline exceeded",
		"read tcp",
		"write tcp",
		"429",
	} {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// FromConfig builds a ready oracle, or the unavailable oracle plus the
// reason when the backend cannot be built.
func FromConfig(ctx context.Context, cfg ModelConfig, logger *slog.Logger) (*Oracle, error) {
	cm, err := NewChatModel(ctx, cfg)
	if err != nil {
		return Unavailable(), err
	}
	retries := cfg.Retries
	if retries == 0 {
		retries = 3
	}
	return New(WithRetry(FromChatModel(cm), retries, cfg.Timeout, logger)), nil
}
