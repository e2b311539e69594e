package openai

import "time"

// DefaultBaseURL points at OpenRouter, which fronts many models behind one
// OpenAI-compatible API.
const DefaultBaseURL = "https://openrouter.ai/api/v1"

// Config holds the OpenAI-compatible provider configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
	// AppName and AppURL are sent as OpenRouter attribution headers when set.
	AppName string
	AppURL  string
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: DefaultBaseURL,
		Timeout: 2 * time.Minute,
		AppName: "storyloop",
	}
}
