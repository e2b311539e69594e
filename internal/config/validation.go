package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// Validate checks config values for correctness.
// Returns an error listing every invalid value.
func (c *Config) Validate() error {
	var errs []string

	switch c.Provider.Name {
	case "gemini", "anthropic", "openai":
	default:
		errs = append(errs, fmt.Sprintf("provider.name %q must be one of gemini, anthropic, openai", c.Provider.Name))
	}
	if c.Provider.MaxTokens < 1 {
		errs = append(errs, "provider.max_tokens must be >= 1")
	}
	if c.Provider.ThinkingBudget < 0 {
		errs = append(errs, "provider.thinking_budget must be >= 0")
	}
	if t := c.Provider.Temperature; t != nil && (*t < 0 || *t > 2) {
		errs = append(errs, "provider.temperature must be between 0 and 2")
	}

	if c.Loop.MaxIterations < 1 {
		errs = append(errs, "loop.max_iterations must be >= 1")
	}

	if c.Tools.WeightTolerance <= 0 || c.Tools.WeightTolerance >= 1 {
		errs = append(errs, "tools.weight_tolerance must be between 0 and 1")
	}

	switch c.UI.Theme {
	case "auto", "dark", "light", "notty":
	default:
		errs = append(errs, fmt.Sprintf("ui.theme %q must be one of auto, dark, light, notty", c.UI.Theme))
	}

	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, fmt.Sprintf("logging.level %q is not a valid level", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "console", "json":
	default:
		errs = append(errs, fmt.Sprintf("logging.format %q must be console or json", c.Logging.Format))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed: %v", errs)
	}

	return nil
}
