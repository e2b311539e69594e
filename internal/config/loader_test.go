package config

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockFileSystem implements FileSystem for testing.
type MockFileSystem struct {
	HomeDir     string
	HomeDirErr  error
	Files       map[string][]byte
	ReadFileErr error
}

func (m *MockFileSystem) UserHomeDir() (string, error) {
	return m.HomeDir, m.HomeDirErr
}

func (m *MockFileSystem) ReadFile(path string) ([]byte, error) {
	if m.ReadFileErr != nil {
		return nil, m.ReadFileErr
	}
	data, ok := m.Files[path]
	if !ok {
		return nil, os.ErrNotExist
	}
	return data, nil
}

const dotfilePath = "/home/user/.config/storyloop/config.json"

func withDotfile(content string) *MockFileSystem {
	return &MockFileSystem{
		HomeDir: "/home/user",
		Files:   map[string][]byte{dotfilePath: []byte(content)},
	}
}

// --- HAPPY PATH TESTS ---

func TestLoad_NoConfigFile_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", Files: map[string][]byte{}}

	cfg, err := NewLoaderWithFS(fs, nil).Load()

	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.Provider.Name)
	assert.Equal(t, "gemini-2.5-flash", cfg.Provider.Model)
	assert.Equal(t, 10, cfg.Loop.MaxIterations)
	assert.Equal(t, 0.001, cfg.Tools.WeightTolerance)
	assert.True(t, cfg.UI.ShowThinking)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoad_FullOverride_AllValuesReplaced(t *testing.T) {
	configJSON := `{
		"provider": {"name": "anthropic", "model": "claude-opus-4-1", "max_tokens": 8000, "thinking_budget": 2048, "temperature": 0.7},
		"loop": {"max_iterations": 4},
		"tools": {"seed": 1234},
		"ui": {"theme": "dark", "show_thinking": false},
		"logging": {"level": "debug", "format": "json", "file": "/tmp/storyloop.log"},
		"system_prompt_file": "/games/cave.md"
	}`

	cfg, err := NewLoaderWithFS(withDotfile(configJSON), nil).Load()

	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, "claude-opus-4-1", cfg.Provider.Model)
	assert.Equal(t, 8000, cfg.Provider.MaxTokens)
	assert.Equal(t, 2048, cfg.Provider.ThinkingBudget)
	require.NotNil(t, cfg.Provider.Temperature)
	assert.InDelta(t, 0.7, *cfg.Provider.Temperature, 1e-6)
	assert.Equal(t, 4, cfg.Loop.MaxIterations)
	assert.Equal(t, int64(1234), cfg.Tools.Seed)
	assert.Equal(t, "dark", cfg.UI.Theme)
	assert.False(t, cfg.UI.ShowThinking)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/storyloop.log", cfg.Logging.File)
	assert.Equal(t, "/games/cave.md", cfg.SystemPromptFile)
}

func TestLoad_PartialOverride_KeepsOtherDefaults(t *testing.T) {
	cfg, err := NewLoaderWithFS(withDotfile(`{"loop": {"max_iterations": 3}}`), nil).Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Loop.MaxIterations)
	assert.Equal(t, "gemini", cfg.Provider.Name)
	assert.Equal(t, 4096, cfg.Provider.MaxTokens)
	assert.True(t, cfg.UI.ShowThinking)
}

func TestLoad_ExplicitZeroOverridesDefault(t *testing.T) {
	cfg, err := NewLoaderWithFS(withDotfile(`{"ui": {"show_thinking": false}}`), nil).Load()

	require.NoError(t, err)
	assert.False(t, cfg.UI.ShowThinking)
}

func TestLoad_APIKeyInDotfileIgnored(t *testing.T) {
	cfg, err := NewLoaderWithFS(withDotfile(`{"provider": {"api_key": "leaked", "APIKey": "leaked"}}`), nil).Load()

	require.NoError(t, err)
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoad_ModelDefaultFollowsProvider(t *testing.T) {
	cfg, err := NewLoaderWithFS(withDotfile(`{"provider": {"name": "openai"}}`), nil).Load()

	require.NoError(t, err)
	assert.Equal(t, DefaultModel("openai"), cfg.Provider.Model)
}

// --- ENVIRONMENT TESTS ---

func TestLoad_EnvOverridesDotfile(t *testing.T) {
	environ := map[string]string{
		"STORYLOOP_PROVIDER":       "anthropic",
		"STORYLOOP_MODEL":          "claude-haiku-4-5",
		"STORYLOOP_MAX_ITERATIONS": "25",
		"STORYLOOP_LOG_LEVEL":      "warn",
		"STORYLOOP_SEED":           "-7",
		"ANTHROPIC_API_KEY":        "sk-ant",
		"GEMINI_API_KEY":           "gm",
	}

	cfg, err := NewLoaderWithFS(withDotfile(`{"loop": {"max_iterations": 3}, "provider": {"model": "x"}}`), environ).Load()

	require.NoError(t, err)
	assert.Equal(t, "anthropic", cfg.Provider.Name)
	assert.Equal(t, "claude-haiku-4-5", cfg.Provider.Model)
	assert.Equal(t, 25, cfg.Loop.MaxIterations)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, int64(-7), cfg.Tools.Seed)
	assert.Equal(t, "sk-ant", cfg.Provider.APIKey)
}

func TestLoad_EmptyEnvLeavesDotfileValue(t *testing.T) {
	environ := map[string]string{"STORYLOOP_MAX_ITERATIONS": ""}

	cfg, err := NewLoaderWithFS(withDotfile(`{"loop": {"max_iterations": 3}}`), environ).Load()

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Loop.MaxIterations)
}

func TestLoad_APIKeyPerProvider(t *testing.T) {
	tests := []struct {
		provider string
		environ  map[string]string
		want     string
	}{
		{"gemini", map[string]string{"GEMINI_API_KEY": "g1", "GOOGLE_API_KEY": "g2"}, "g1"},
		{"gemini", map[string]string{"GOOGLE_API_KEY": "g2"}, "g2"},
		{"anthropic", map[string]string{"ANTHROPIC_API_KEY": "a", "GEMINI_API_KEY": "g"}, "a"},
		{"openai", map[string]string{"OPENAI_API_KEY": "o"}, "o"},
		{"openai", map[string]string{"OPENAI_API_KEY": "o", "OPENROUTER_API_KEY": "r"}, "r"},
		{"anthropic", map[string]string{"GEMINI_API_KEY": "g"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			tt.environ["STORYLOOP_PROVIDER"] = tt.provider
			cfg, err := NewLoaderWithFS(&MockFileSystem{HomeDir: "/home/user"}, tt.environ).Load()
			require.NoError(t, err)
			assert.Equal(t, tt.want, cfg.Provider.APIKey)
		})
	}
}

func TestLoad_KeepsEveryProviderKey(t *testing.T) {
	environ := map[string]string{
		"GOOGLE_API_KEY":    "g",
		"ANTHROPIC_API_KEY": "a",
		"OPENAI_API_KEY":    "o",
	}

	cfg, err := NewLoaderWithFS(&MockFileSystem{HomeDir: "/home/user"}, environ).Load()
	require.NoError(t, err)

	assert.Equal(t, APIKeys{Gemini: "g", Anthropic: "a", OpenAI: "o"}, cfg.Provider.Keys)
	assert.Equal(t, "g", cfg.Provider.APIKey)

	cfg.Provider.Name = "openai"
	cfg.ResolveAPIKey()
	assert.Equal(t, "o", cfg.Provider.APIKey)

	cfg.Provider.Name = "llama"
	cfg.ResolveAPIKey()
	assert.Empty(t, cfg.Provider.APIKey)
}

func TestLoad_InvalidEnvNumber_ReturnsError(t *testing.T) {
	environ := map[string]string{"STORYLOOP_MAX_ITERATIONS": "many"}

	_, err := NewLoaderWithFS(&MockFileSystem{HomeDir: "/home/user"}, environ).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env")
}

// --- ERROR PATH TESTS ---

func TestLoad_HomeDirError_ReturnsDefaults(t *testing.T) {
	fs := &MockFileSystem{HomeDirErr: errors.New("no home")}

	cfg, err := NewLoaderWithFS(fs, nil).Load()

	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Loop.MaxIterations)
}

func TestLoad_PermissionDenied_ReturnsError(t *testing.T) {
	fs := &MockFileSystem{HomeDir: "/home/user", ReadFileErr: os.ErrPermission}

	_, err := NewLoaderWithFS(fs, nil).Load()

	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrPermission)
}

func TestLoad_MalformedJSON_ReturnsError(t *testing.T) {
	_, err := NewLoaderWithFS(withDotfile(`{"loop": {`), nil).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestLoad_WrongType_ReturnsError(t *testing.T) {
	_, err := NewLoaderWithFS(withDotfile(`{"loop": {"max_iterations": "ten"}}`), nil).Load()

	assert.Error(t, err)
}

func TestLoad_InvalidValue_FailsValidation(t *testing.T) {
	_, err := NewLoaderWithFS(withDotfile(`{"loop": {"max_iterations": 0}}`), nil).Load()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_iterations")
}
