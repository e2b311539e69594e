package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envOverrides mirrors the environment variables that may override the
// dotfile. Pointer fields stay nil when the variable is unset or empty.
type envOverrides struct {
	Provider      *string `env:"STORYLOOP_PROVIDER"`
	Model         *string `env:"STORYLOOP_MODEL"`
	BaseURL       *string `env:"STORYLOOP_BASE_URL"`
	MaxIterations *int    `env:"STORYLOOP_MAX_ITERATIONS"`
	LogLevel      *string `env:"STORYLOOP_LOG_LEVEL"`
	LogFile       *string `env:"STORYLOOP_LOG_FILE"`
	Seed          *int64  `env:"STORYLOOP_SEED"`

	GeminiAPIKey     string `env:"GEMINI_API_KEY"`
	GoogleAPIKey     string `env:"GOOGLE_API_KEY"`
	AnthropicAPIKey  string `env:"ANTHROPIC_API_KEY"`
	OpenAIAPIKey     string `env:"OPENAI_API_KEY"`
	OpenRouterAPIKey string `env:"OPENROUTER_API_KEY"`
}

func parseEnv(environ map[string]string) (*envOverrides, error) {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Environment: environ}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &o, nil
}

// apply overlays the set variables onto cfg and records every provider key.
// The active key is picked for the provider set after the overlay.
func (o *envOverrides) apply(cfg *Config) {
	if o.Provider != nil {
		cfg.Provider.Name = *o.Provider
	}
	if o.Model != nil {
		cfg.Provider.Model = *o.Model
	}
	if o.BaseURL != nil {
		cfg.Provider.BaseURL = *o.BaseURL
	}
	if o.MaxIterations != nil {
		cfg.Loop.MaxIterations = *o.MaxIterations
	}
	if o.LogLevel != nil {
		cfg.Logging.Level = *o.LogLevel
	}
	if o.LogFile != nil {
		cfg.Logging.File = *o.LogFile
	}
	if o.Seed != nil {
		cfg.Tools.Seed = *o.Seed
	}

	cfg.Provider.Keys = APIKeys{
		Gemini:    firstNonEmpty(o.GeminiAPIKey, o.GoogleAPIKey),
		Anthropic: o.AnthropicAPIKey,
		OpenAI:    firstNonEmpty(o.OpenRouterAPIKey, o.OpenAIAPIKey),
	}
	cfg.ResolveAPIKey()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
