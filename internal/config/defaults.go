package config

// Config holds all application configuration values.
// Defaults are set in DefaultConfig() and can be overridden via dotfile,
// then via environment variables.
// NOTE: Values in config files override defaults, including explicit zero values.
// Missing keys are left at their default values.
type Config struct {
	Provider ProviderConfig `json:"provider"`
	Loop     LoopConfig     `json:"loop"`
	Tools    ToolsConfig    `json:"tools"`
	UI       UIConfig       `json:"ui"`
	Logging  LoggingConfig  `json:"logging"`

	// SystemPromptFile is an optional path to the game's system prompt.
	SystemPromptFile string `json:"system_prompt_file"` // Default: ""
}

type ProviderConfig struct {
	Name           string   `json:"name"`            // Default: "gemini". One of gemini, anthropic, openai
	Model          string   `json:"model"`           // Default: per provider, see DefaultModel
	BaseURL        string   `json:"base_url"`        // Default: "" (SDK default / OpenRouter)
	Temperature    *float32 `json:"temperature"`     // Default: nil (provider default)
	MaxTokens      int      `json:"max_tokens"`      // Default: 4096
	ThinkingBudget int      `json:"thinking_budget"` // Default: 0 (disabled)

	// APIKey only ever comes from the environment. It is the entry of Keys
	// that matches Name; see ResolveAPIKey.
	APIKey string  `json:"-"`
	Keys   APIKeys `json:"-"`
}

// APIKeys holds every provider key found in the environment, so the active
// key can be re-picked when the provider changes after loading.
type APIKeys struct {
	Gemini    string
	Anthropic string
	OpenAI    string
}

// For returns the key for the named provider, or "" if unknown.
func (k APIKeys) For(provider string) string {
	switch provider {
	case "gemini":
		return k.Gemini
	case "anthropic":
		return k.Anthropic
	case "openai":
		return k.OpenAI
	}
	return ""
}

// ResolveAPIKey sets Provider.APIKey for the current Provider.Name.
// Call it again after changing the provider.
func (c *Config) ResolveAPIKey() {
	c.Provider.APIKey = c.Provider.Keys.For(c.Provider.Name)
}

type LoopConfig struct {
	MaxIterations int `json:"max_iterations"` // Default: 10
}

type ToolsConfig struct {
	// Seed fixes the random source. Zero draws a seed from crypto/rand.
	Seed int64 `json:"seed"` // Default: 0

	// WeightTolerance is informational. It is validated but nothing reads it;
	// the selector always uses random.SumTolerance.
	WeightTolerance float64 `json:"weight_tolerance"` // Default: 0.001
}

type UIConfig struct {
	Theme        string `json:"theme"`         // Default: "auto". One of auto, dark, light, notty
	ShowThinking bool   `json:"show_thinking"` // Default: true
}

type LoggingConfig struct {
	Level  string `json:"level"`  // Default: "info"
	Format string `json:"format"` // Default: "console". One of console, json
	File   string `json:"file"`   // Default: "" (stderr)
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(provider string) string {
	switch provider {
	case "anthropic":
		return "claude-sonnet-4-5"
	case "openai":
		return "google/gemini-2.5-flash"
	default:
		return "gemini-2.5-flash"
	}
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Provider: ProviderConfig{
			Name:      "gemini",
			MaxTokens: 4096,
		},
		Loop: LoopConfig{
			MaxIterations: 10,
		},
		Tools: ToolsConfig{
			WeightTolerance: 0.001,
		},
		UI: UIConfig{
			Theme:        "auto",
			ShowThinking: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
