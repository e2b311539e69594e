// Package anthropic adapts the Anthropic Messages API to provider.Provider.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/tidwall/gjson"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool"
)

// DefaultMaxTokens is sent when the request does not set a limit; the API requires one.
const DefaultMaxTokens = 4096

const (
	thinkingDetailType = "anthropic.thinking"
	redactedDetailType = "anthropic.redacted_thinking"
)

// Provider implements provider.Provider for Claude models.
type Provider struct {
	client    MessagesClient
	modelName string
}

// New creates a provider that sends requests through client.
func New(client MessagesClient, modelName string) *Provider {
	return &Provider{client: client, modelName: modelName}
}

// Model returns the configured model name.
func (p *Provider) Model() string {
	return p.modelName
}

// Generate sends the transcript to the Messages API and converts the reply.
func (p *Provider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := req.Model
	if model == "" {
		model = p.modelName
	}

	params := toParams(req.Messages, req.Sampling)
	params.Model = sdk.Model(model)
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}

	msg, err := p.client.New(ctx, params)
	if err != nil {
		return nil, mapError(err)
	}
	return fromMessage(msg)
}

func toParams(messages []provider.Message, s provider.Sampling) sdk.MessageNewParams {
	var params sdk.MessageNewParams

	maxTokens := int64(s.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	if s.ThinkingBudget > 0 {
		budget := int64(s.ThinkingBudget)
		// The budget counts against max_tokens, which must stay larger.
		if maxTokens <= budget {
			maxTokens = budget + DefaultMaxTokens
		}
		params.Thinking = sdk.ThinkingConfigParamOfEnabled(budget)
	} else {
		// Sampling overrides are rejected while extended thinking is on.
		if s.Temperature != nil {
			params.Temperature = sdk.Float(float64(*s.Temperature))
		}
		if s.TopP != nil {
			params.TopP = sdk.Float(float64(*s.TopP))
		}
	}
	params.MaxTokens = maxTokens

	var pendingResults []sdk.ContentBlockParamUnion
	flush := func() {
		if len(pendingResults) > 0 {
			params.Messages = append(params.Messages, sdk.NewUserMessage(pendingResults...))
			pendingResults = nil
		}
	}

	for _, msg := range messages {
		if msg.Role == provider.RoleTool {
			isError := gjson.Get(msg.Content, "error").Exists()
			pendingResults = append(pendingResults, sdk.NewToolResultBlock(msg.ToolCallID, msg.Content, isError))
			continue
		}
		flush()

		switch msg.Role {
		case provider.RoleSystem:
			if msg.Content != "" {
				params.System = append(params.System, sdk.TextBlockParam{Text: msg.Content})
			}
		case provider.RoleAssistant:
			if blocks := assistantBlocks(msg); len(blocks) > 0 {
				params.Messages = append(params.Messages, sdk.NewAssistantMessage(blocks...))
			}
		default:
			if msg.Content != "" {
				params.Messages = append(params.Messages, sdk.NewUserMessage(sdk.NewTextBlock(msg.Content)))
			}
		}
	}
	flush()

	return params
}

// assistantBlocks rebuilds an assistant turn. Thinking blocks go first and
// keep their signatures, which the API verifies on tool-use continuations.
func assistantBlocks(msg provider.Message) []sdk.ContentBlockParamUnion {
	var blocks []sdk.ContentBlockParamUnion
	for _, d := range msg.Reasoning {
		switch d.Type {
		case thinkingDetailType:
			if d.Signature != "" {
				blocks = append(blocks, sdk.NewThinkingBlock(d.Signature, d.Text))
			}
		case redactedDetailType:
			blocks = append(blocks, sdk.NewRedactedThinkingBlock(d.Signature))
		}
	}
	if msg.Content != "" {
		blocks = append(blocks, sdk.NewTextBlock(msg.Content))
	}
	for _, tc := range msg.ToolCalls {
		args := tc.Arguments
		if args == nil {
			args = map[string]any{}
		}
		blocks = append(blocks, sdk.NewToolUseBlock(tc.ID, args, tc.Name))
	}
	return blocks
}

func toTools(decls []tool.Declaration) []sdk.ToolUnionParam {
	tools := make([]sdk.ToolUnionParam, 0, len(decls))
	for _, d := range decls {
		schema := sdk.ToolInputSchemaParam{}
		if d.Parameters != nil {
			schema.Properties = d.Parameters.Properties
			schema.Required = d.Parameters.Required
		}
		t := sdk.ToolUnionParamOfTool(schema, d.Name)
		t.OfTool.Description = sdk.String(d.Description)
		tools = append(tools, t)
	}
	return tools
}

func fromMessage(msg *sdk.Message) (*provider.Response, error) {
	if msg == nil {
		return nil, &provider.Error{Code: provider.ErrorCodeMalformedResponse, Message: "empty message"}
	}

	switch msg.StopReason {
	case sdk.StopReasonRefusal:
		return nil, &provider.Error{Code: provider.ErrorCodeContentBlocked, Message: "model refused the request"}
	case sdk.StopReasonMaxTokens:
		return nil, &provider.Error{Code: provider.ErrorCodeContextLength, Message: "response truncated due to max tokens"}
	}

	out := provider.Message{Role: provider.RoleAssistant}
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			out.Content += block.Text
		case "thinking":
			out.Reasoning = append(out.Reasoning, provider.ReasoningDetail{
				Type:      thinkingDetailType,
				Text:      block.Thinking,
				Signature: block.Signature,
			})
		case "redacted_thinking":
			out.Reasoning = append(out.Reasoning, provider.ReasoningDetail{
				Type:      redactedDetailType,
				Signature: block.Data,
			})
		case "tool_use":
			args := map[string]any{}
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					return nil, &provider.Error{
						Code:       provider.ErrorCodeMalformedResponse,
						Message:    fmt.Sprintf("tool_use %q input is not an object", block.Name),
						Underlying: err,
					}
				}
			}
			out.ToolCalls = append(out.ToolCalls, provider.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}

	return &provider.Response{
		Message: out,
		Usage: provider.Usage{
			PromptTokens:     int(msg.Usage.InputTokens),
			CompletionTokens: int(msg.Usage.OutputTokens),
			TotalTokens:      int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
	}, nil
}

func mapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return provider.FromHTTPStatus(apiErr.StatusCode, http.StatusText(apiErr.StatusCode), err)
	}

	return &provider.Error{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
