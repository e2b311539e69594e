// Package openai talks to OpenAI-compatible chat completions APIs such as
// OpenRouter. Responses are read with gjson because reasoning shows up in
// several provider-specific shapes.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool"
)

// Compile-time interface guard.
var _ provider.Provider = (*Provider)(nil)

// Provider implements provider.Provider over the chat completions endpoint.
type Provider struct {
	httpClient *http.Client
	cfg        Config
	logger     *zap.Logger
}

// New creates a provider. A nil logger is replaced by a no-op logger.
func New(cfg Config, logger *zap.Logger) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cfg:        cfg,
		logger:     logger,
	}, nil
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.cfg.Model
}

// Generate sends one chat completion request.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := req.Model
	if model == "" {
		model = p.cfg.Model
	}

	body, err := json.Marshal(toChatRequest(model, req))
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}

	raw, err := p.doPost(ctx, "/chat/completions", body)
	if err != nil {
		return nil, mapError(err)
	}

	resp, err := parseResponse(raw)
	if err != nil {
		p.logger.Debug("unparseable chat response", zap.ByteString("body", truncate(raw, 2048)))
		return nil, err
	}
	return resp, nil
}

// doPost sends an authenticated POST request and returns the response body.
func (p *Provider) doPost(ctx context.Context, path string, body []byte) ([]byte, error) {
	url := strings.TrimRight(p.cfg.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.cfg.APIKey)
	if p.cfg.AppURL != "" {
		req.Header.Set("HTTP-Referer", p.cfg.AppURL)
	}
	if p.cfg.AppName != "" {
		req.Header.Set("X-Title", p.cfg.AppName)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, parseStatusError(resp)
	}
	return io.ReadAll(resp.Body)
}

func toChatRequest(model string, req *provider.Request) chatRequest {
	out := chatRequest{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(req.Messages)),
		Temperature: req.Sampling.Temperature,
		TopP:        req.Sampling.TopP,
		MaxTokens:   req.Sampling.MaxTokens,
	}
	if req.Sampling.ThinkingBudget > 0 {
		out.Reasoning = &reasoningConfig{MaxTokens: req.Sampling.ThinkingBudget}
	}

	for _, m := range req.Messages {
		cm := chatMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
			Name:       m.Name,
		}
		for _, tc := range m.ToolCalls {
			args, err := json.Marshal(tc.Arguments)
			if err != nil || tc.Arguments == nil {
				args = []byte("{}")
			}
			cm.ToolCalls = append(cm.ToolCalls, chatToolCall{
				ID:       tc.ID,
				Type:     "function",
				Function: chatFunction{Name: tc.Name, Arguments: string(args)},
			})
		}
		for _, d := range m.Reasoning {
			cm.ReasoningDetails = append(cm.ReasoningDetails, reasoningDetail{Type: d.Type, Text: d.Text, Signature: d.Signature})
		}
		out.Messages = append(out.Messages, cm)
	}

	for _, d := range req.Tools {
		out.Tools = append(out.Tools, toChatTool(d))
	}
	return out
}

func toChatTool(d tool.Declaration) chatTool {
	return chatTool{
		Type: "function",
		Function: chatFunctionDef{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		},
	}
}

func malformed(format string, args ...any) error {
	return &provider.Error{Code: provider.ErrorCodeMalformedResponse, Message: fmt.Sprintf(format, args...)}
}

// parseResponse reads a chat completion body. Reasoning is collected from
// all three places compatible APIs put it; the loop decides which one wins.
func parseResponse(raw []byte) (*provider.Response, error) {
	if !gjson.ValidBytes(raw) {
		return nil, malformed("response is not valid JSON")
	}
	body := gjson.ParseBytes(raw)

	// OpenRouter reports some upstream failures inside a 200 body.
	if e := body.Get("error"); e.Exists() {
		code := int(e.Get("code").Int())
		if code == 0 {
			code = http.StatusBadGateway
		}
		return nil, mapError(&statusError{StatusCode: code, Message: e.Get("message").String()})
	}

	choice := body.Get("choices.0")
	if !choice.Exists() {
		return nil, malformed("no choices in response")
	}
	msg := choice.Get("message")

	out := provider.Message{
		Role:    provider.RoleAssistant,
		Content: msg.Get("content").String(),
	}

	for _, tc := range msg.Get("tool_calls").Array() {
		call, err := parseToolCall(tc)
		if err != nil {
			return nil, err
		}
		out.ToolCalls = append(out.ToolCalls, call)
	}

	for _, d := range msg.Get("reasoning_details").Array() {
		text := d.Get("text").String()
		if text == "" {
			text = d.Get("summary").String()
		}
		sig := d.Get("signature").String()
		if sig == "" {
			sig = d.Get("data").String()
		}
		out.Reasoning = append(out.Reasoning, provider.ReasoningDetail{
			Type:      d.Get("type").String(),
			Text:      text,
			Signature: sig,
		})
	}

	switch choice.Get("finish_reason").String() {
	case "content_filter":
		return nil, &provider.Error{Code: provider.ErrorCodeContentBlocked, Message: "content blocked by safety filters"}
	case "length":
		if len(out.ToolCalls) == 0 {
			return nil, &provider.Error{Code: provider.ErrorCodeContextLength, Message: "response truncated due to max tokens"}
		}
	}

	legacy := msg.Get("reasoning").String()
	if legacy == "" {
		legacy = msg.Get("reasoning_content").String()
	}

	usage := body.Get("usage")
	return &provider.Response{
		Message:         out,
		Reasoning:       body.Get("reasoning").String(),
		LegacyReasoning: legacy,
		Usage: provider.Usage{
			PromptTokens:     int(usage.Get("prompt_tokens").Int()),
			CompletionTokens: int(usage.Get("completion_tokens").Int()),
			ReasoningTokens:  int(usage.Get("completion_tokens_details.reasoning_tokens").Int()),
			TotalTokens:      int(usage.Get("total_tokens").Int()),
		},
	}, nil
}

func parseToolCall(tc gjson.Result) (provider.ToolCall, error) {
	name := tc.Get("function.name").String()
	id := tc.Get("id").String()
	if id == "" {
		id = "call_" + uuid.NewString()
	}

	args := map[string]any{}
	// Arguments are normally a JSON string, but some backends send an object.
	raw := tc.Get("function.arguments")
	src := raw.String()
	if raw.IsObject() {
		src = raw.Raw
	}
	if strings.TrimSpace(src) != "" {
		if !gjson.Valid(src) || !gjson.Parse(src).IsObject() {
			return provider.ToolCall{}, malformed("arguments for tool %q are not a JSON object", name)
		}
		if err := json.Unmarshal([]byte(src), &args); err != nil {
			return provider.ToolCall{}, malformed("decode arguments for tool %q: %v", name, err)
		}
	}

	return provider.ToolCall{ID: id, Name: name, Arguments: args}, nil
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
