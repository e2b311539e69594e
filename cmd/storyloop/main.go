// Package main runs storyloop: an interactive-fiction narrator backed by an
// LLM that can do arithmetic and roll dice through tools.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/config"
	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/provider/anthropic"
	"github.com/Cyclone1070/storyloop/internal/provider/gemini"
	"github.com/Cyclone1070/storyloop/internal/provider/openai"
	"github.com/Cyclone1070/storyloop/internal/session"
	"github.com/Cyclone1070/storyloop/internal/tool/random"
	"github.com/Cyclone1070/storyloop/internal/ui"
	uiservices "github.com/Cyclone1070/storyloop/internal/ui/services"
	"github.com/Cyclone1070/storyloop/internal/workflow"
	"github.com/Cyclone1070/storyloop/internal/workflow/toolmanager"
)

const defaultSystemPrompt = `You are the narrator of a text adventure. Describe the world in vivid,
concise prose and react to what the player does.

Never invent numbers for chance or arithmetic. Use the calculator tool for
any arithmetic, random_integer for dice rolls, and weighted_choice when an
outcome has uneven odds. Weave tool results into the story.`

// Dependencies holds the components required to run the application.
type Dependencies struct {
	Config          *config.Config
	Logger          *zap.Logger
	ProviderFactory func(context.Context, *config.Config, *zap.Logger) (provider.Provider, error)
	ReadFile        func(string) ([]byte, error)
	Stdout          io.Writer
	Stderr          io.Writer
}

type options struct {
	prompt        string
	provider      string
	model         string
	systemFile    string
	seed          int64
	maxIterations int
	verbose       bool
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("storyloop", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.prompt, "p", "", "run a single turn with this prompt and print the answer")
	fs.StringVar(&opts.provider, "provider", "", "model provider: gemini, anthropic or openai")
	fs.StringVar(&opts.model, "model", "", "model name")
	fs.StringVar(&opts.systemFile, "system", "", "file holding the narrator system prompt")
	fs.Int64Var(&opts.seed, "seed", 0, "random seed for reproducible dice (0 = random)")
	fs.IntVar(&opts.maxIterations, "max-iterations", 0, "model calls allowed per turn")
	fs.BoolVar(&opts.verbose, "v", false, "print thinking and tool calls to stderr in -p mode")
	err := fs.Parse(args)
	return opts, err
}

// applyFlags overlays set flags onto cfg, re-picks the API key for the
// resulting provider and re-validates.
func applyFlags(cfg *config.Config, opts options) error {
	if opts.provider != "" && opts.provider != cfg.Provider.Name {
		cfg.Provider.Name = opts.provider
		if opts.model == "" {
			cfg.Provider.Model = config.DefaultModel(opts.provider)
		}
	}
	if opts.model != "" {
		cfg.Provider.Model = opts.model
	}
	if opts.systemFile != "" {
		cfg.SystemPromptFile = opts.systemFile
	}
	if opts.seed != 0 {
		cfg.Tools.Seed = opts.seed
	}
	if opts.maxIterations != 0 {
		cfg.Loop.MaxIterations = opts.maxIterations
	}
	cfg.ResolveAPIKey()
	return cfg.Validate()
}

func createProvider(ctx context.Context, cfg *config.Config, logger *zap.Logger) (provider.Provider, error) {
	pc := cfg.Provider
	switch pc.Name {
	case "gemini":
		if pc.APIKey == "" {
			return nil, errors.New("GEMINI_API_KEY environment variable is required")
		}
		client, err := gemini.Dial(ctx, pc.APIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.New(client, pc.Model), nil

	case "anthropic":
		if pc.APIKey == "" {
			return nil, errors.New("ANTHROPIC_API_KEY environment variable is required")
		}
		return anthropic.New(anthropic.Dial(pc.APIKey, pc.BaseURL), pc.Model), nil

	case "openai":
		if pc.APIKey == "" {
			return nil, errors.New("OPENROUTER_API_KEY or OPENAI_API_KEY environment variable is required")
		}
		oc := openai.DefaultConfig()
		oc.APIKey = pc.APIKey
		oc.Model = pc.Model
		if pc.BaseURL != "" {
			oc.BaseURL = pc.BaseURL
		}
		p, err := openai.New(oc, logger)
		if err != nil {
			return nil, err
		}
		return p, nil

	default:
		return nil, fmt.Errorf("unknown provider %q", pc.Name)
	}
}

func createSource(cfg *config.Config) (random.Source, error) {
	if cfg.Tools.Seed != 0 {
		return random.NewSeededSource(uint64(cfg.Tools.Seed)), nil
	}
	return random.NewSource()
}

func loadSystemPrompt(deps Dependencies) (string, error) {
	path := deps.Config.SystemPromptFile
	if path == "" {
		return defaultSystemPrompt, nil
	}
	data, err := deps.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read system prompt: %w", err)
	}
	return string(data), nil
}

func newSession(ctx context.Context, deps Dependencies) (*session.Session, error) {
	cfg := deps.Config

	model, err := deps.ProviderFactory(ctx, cfg, deps.Logger)
	if err != nil {
		return nil, err
	}
	src, err := createSource(cfg)
	if err != nil {
		return nil, fmt.Errorf("seed random source: %w", err)
	}
	prompt, err := loadSystemPrompt(deps)
	if err != nil {
		return nil, err
	}

	return session.New(model,
		session.WithSystemPrompt(prompt),
		session.WithMaxIterations(cfg.Loop.MaxIterations),
		session.WithTools(toolmanager.NewToolManager(src, toolmanager.WithLogger(deps.Logger))),
		session.WithSampling(provider.Sampling{
			Temperature:    cfg.Provider.Temperature,
			MaxTokens:      cfg.Provider.MaxTokens,
			ThinkingBudget: cfg.Provider.ThinkingBudget,
		}),
		session.WithLogger(deps.Logger),
	), nil
}

// runOnce runs a single turn and prints the narrator's answer to stdout.
func runOnce(ctx context.Context, deps Dependencies, prompt string, verbose bool) int {
	s, err := newSession(ctx, deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
		return 1
	}

	emit := func(ev workflow.Event) {
		if !verbose {
			return
		}
		switch e := ev.(type) {
		case workflow.ThinkingEvent:
			fmt.Fprintf(deps.Stderr, "[thinking] %s\n", e.Text)
		case workflow.ToolCallEvent:
			fmt.Fprintf(deps.Stderr, "[tool] %s\n", uiservices.FormatToolCall(e.Name, e.Arguments, e.Result, e.Success))
		}
	}

	answer, err := s.Turn(ctx, prompt, emit)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Fprintln(deps.Stdout, strings.TrimSpace(answer))
	return 0
}

func runInteractive(ctx context.Context, deps Dependencies) int {
	s, err := newSession(ctx, deps)
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Error: %v\n", err)
		return 1
	}

	renderer := uiservices.NewGlamourRenderer(deps.Config.UI.Theme)
	userInterface := ui.NewUI(s, renderer, ui.DefaultSpinner, deps.Config.UI.ShowThinking, tea.WithContext(ctx))
	if err := userInterface.Start(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		fmt.Fprintf(deps.Stderr, "Error running UI: %v\n", err)
		return 1
	}
	return 0
}

// newLogger builds the process logger. The TUI owns the terminal, so it only
// logs when a log file is configured.
func newLogger(cfg *config.Config, interactive bool) (*zap.Logger, error) {
	if interactive && cfg.Logging.File == "" {
		return zap.NewNop(), nil
	}
	return config.NewLogger(cfg.Logging)
}

type configLoader interface {
	Load() (*config.Config, error)
}

func run(ctx context.Context, args []string, loader configLoader, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(stderr, "Error: failed to load config: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg, opts); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	interactive := opts.prompt == ""
	logger, err := newLogger(cfg, interactive)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	deps := Dependencies{
		Config:          cfg,
		Logger:          logger,
		ProviderFactory: createProvider,
		ReadFile:        os.ReadFile,
		Stdout:          stdout,
		Stderr:          stderr,
	}

	if interactive {
		return runInteractive(ctx, deps)
	}
	return runOnce(ctx, deps, opts.prompt, opts.verbose)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], config.NewLoader(), os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
