package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/Cyclone1070/storyloop/internal/provider"
	"github.com/Cyclone1070/storyloop/internal/tool"
)

const (
	// thoughtDetailType marks a thought summary returned by the model.
	thoughtDetailType = "gemini.thought"
	// signatureDetailType carries the thought signature of a function call
	// (ID set to the call ID) or of the text part (ID empty). Gemini requires
	// it back on the same part in the next request.
	signatureDetailType = "gemini.signature"
)

// toGeminiContents converts the transcript. System turns are lifted into a
// system instruction, and consecutive tool turns share one user content.
func toGeminiContents(messages []provider.Message) ([]*genai.Content, *genai.Content) {
	contents := make([]*genai.Content, 0, len(messages))
	var system []string

	for _, msg := range messages {
		switch msg.Role {
		case provider.RoleSystem:
			if msg.Content != "" {
				system = append(system, msg.Content)
			}
		case provider.RoleTool:
			part := &genai.Part{FunctionResponse: &genai.FunctionResponse{
				ID:       msg.ToolCallID,
				Name:     msg.Name,
				Response: toolPayload(msg.Content),
			}}
			if n := len(contents); n > 0 && isFunctionResponses(contents[n-1]) {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
			} else {
				contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
			}
		case provider.RoleAssistant:
			if c := assistantContent(msg); c != nil {
				contents = append(contents, c)
			}
		default:
			if msg.Content != "" {
				contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
			}
		}
	}

	if len(system) == 0 {
		return contents, nil
	}
	return contents, genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser)
}

func assistantContent(msg provider.Message) *genai.Content {
	parts := make([]*genai.Part, 0, 1+len(msg.ToolCalls))

	var textSig []byte
	callSigs := make(map[string][]byte)
	for _, d := range msg.Reasoning {
		sig := decodeSignature(d.Signature)
		if sig == nil {
			continue
		}
		switch d.Type {
		case thoughtDetailType:
			parts = append(parts, &genai.Part{Text: d.Text, Thought: true, ThoughtSignature: sig})
		case signatureDetailType:
			if d.ID != "" {
				callSigs[d.ID] = sig
			} else if textSig == nil {
				textSig = sig
			}
		}
	}

	if msg.Content != "" || textSig != nil {
		parts = append(parts, &genai.Part{Text: msg.Content, ThoughtSignature: textSig})
	}

	for _, tc := range msg.ToolCalls {
		parts = append(parts, &genai.Part{
			FunctionCall: &genai.FunctionCall{
				ID:   tc.ID,
				Name: tc.Name,
				Args: tc.Arguments,
			},
			ThoughtSignature: callSigs[tc.ID],
		})
	}

	if len(parts) == 0 {
		return nil
	}
	return genai.NewContentFromParts(parts, genai.RoleModel)
}

func encodeSignature(sig []byte) string {
	if len(sig) == 0 {
		return ""
	}
	return base64.StdEncoding.EncodeToString(sig)
}

func decodeSignature(s string) []byte {
	if s == "" {
		return nil
	}
	sig, err := base64.StdEncoding.DecodeString(s)
	if err != nil || len(sig) == 0 {
		return nil
	}
	return sig
}

func isFunctionResponses(c *genai.Content) bool {
	if c.Role != genai.RoleUser || len(c.Parts) == 0 {
		return false
	}
	for _, p := range c.Parts {
		if p.FunctionResponse == nil {
			return false
		}
	}
	return true
}

// toolPayload decodes the JSON tool result back into the map Gemini expects.
func toolPayload(content string) map[string]any {
	var payload map[string]any
	if err := json.Unmarshal([]byte(content), &payload); err != nil || payload == nil {
		return map[string]any{"result": content}
	}
	return payload
}

// toGeminiConfig converts sampling parameters to Gemini config.
func toGeminiConfig(s provider.Sampling, system *genai.Content) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		SafetySettings:    defaultSafetySettings(),
		Temperature:       s.Temperature,
		TopP:              s.TopP,
	}
	if s.MaxTokens > 0 {
		config.MaxOutputTokens = int32(s.MaxTokens)
	}
	if s.ThinkingBudget > 0 {
		budget := int32(s.ThinkingBudget)
		config.ThinkingConfig = &genai.ThinkingConfig{
			IncludeThoughts: true,
			ThinkingBudget:  &budget,
		}
	}
	return config
}

// defaultSafetySettings turns the filters off; fiction routinely describes combat.
func defaultSafetySettings() []*genai.SafetySetting {
	categories := []genai.HarmCategory{
		genai.HarmCategoryHateSpeech,
		genai.HarmCategoryDangerousContent,
		genai.HarmCategoryHarassment,
		genai.HarmCategorySexuallyExplicit,
	}
	settings := make([]*genai.SafetySetting, len(categories))
	for i, c := range categories {
		settings[i] = &genai.SafetySetting{Category: c, Threshold: genai.HarmBlockThresholdOff}
	}
	return settings
}

// toGeminiTools converts tool declarations to Gemini tools.
func toGeminiTools(decls []tool.Declaration) []*genai.Tool {
	fds := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		fd := &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
		}
		if d.Parameters != nil {
			fd.Parameters = toGeminiSchema(d.Parameters)
		}
		fds = append(fds, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: fds}}
}

func toGeminiSchema(s *tool.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:        toGeminiType(s.Type),
		Description: s.Description,
		Required:    s.Required,
		Enum:        s.Enum,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, prop := range s.Properties {
			out.Properties[name] = toGeminiSchema(prop)
		}
	}
	if s.Items != nil {
		out.Items = toGeminiSchema(s.Items)
	}
	return out
}

func toGeminiType(t tool.Type) genai.Type {
	switch t {
	case tool.TypeString:
		return genai.TypeString
	case tool.TypeNumber:
		return genai.TypeNumber
	case tool.TypeInteger:
		return genai.TypeInteger
	case tool.TypeBoolean:
		return genai.TypeBoolean
	case tool.TypeArray:
		return genai.TypeArray
	case tool.TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}

// fromGeminiResponse converts the first candidate into an assistant turn.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (*provider.Response, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &provider.Error{
			Code:    provider.ErrorCodeMalformedResponse,
			Message: "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]

	switch candidate.FinishReason {
	case genai.FinishReasonSafety:
		return nil, &provider.Error{
			Code:    provider.ErrorCodeContentBlocked,
			Message: "content blocked by safety filters",
		}
	case genai.FinishReasonMaxTokens:
		return nil, &provider.Error{
			Code:    provider.ErrorCodeContextLength,
			Message: "response truncated due to max tokens",
		}
	}

	msg := provider.Message{Role: provider.RoleAssistant}
	var text strings.Builder
	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			switch {
			case part.Thought:
				msg.Reasoning = append(msg.Reasoning, provider.ReasoningDetail{
					Type:      thoughtDetailType,
					Text:      part.Text,
					Signature: encodeSignature(part.ThoughtSignature),
				})
			case part.FunctionCall != nil:
				tc := toToolCall(part.FunctionCall)
				msg.ToolCalls = append(msg.ToolCalls, tc)
				if len(part.ThoughtSignature) > 0 {
					msg.Reasoning = append(msg.Reasoning, provider.ReasoningDetail{
						Type:      signatureDetailType,
						ID:        tc.ID,
						Signature: encodeSignature(part.ThoughtSignature),
					})
				}
			case part.Text != "" || len(part.ThoughtSignature) > 0:
				text.WriteString(part.Text)
				if len(part.ThoughtSignature) > 0 {
					msg.Reasoning = append(msg.Reasoning, provider.ReasoningDetail{
						Type:      signatureDetailType,
						Signature: encodeSignature(part.ThoughtSignature),
					})
				}
			}
		}
	}
	msg.Content = text.String()

	return &provider.Response{Message: msg, Usage: toUsage(resp.UsageMetadata)}, nil
}

func toToolCall(fc *genai.FunctionCall) provider.ToolCall {
	id := fc.ID
	if id == "" {
		id = "call_" + uuid.NewString()
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return provider.ToolCall{ID: id, Name: fc.Name, Arguments: args}
}

func toUsage(u *genai.GenerateContentResponseUsageMetadata) provider.Usage {
	if u == nil {
		return provider.Usage{}
	}
	return provider.Usage{
		PromptTokens:     int(u.PromptTokenCount),
		CompletionTokens: int(u.CandidatesTokenCount),
		ReasoningTokens:  int(u.ThoughtsTokenCount),
		TotalTokens:      int(u.TotalTokenCount),
	}
}

// mapGeminiError maps Gemini API errors to provider errors.
// Context errors pass through untouched so callers can tell cancellation apart.
func mapGeminiError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return provider.FromHTTPStatus(apiErr.Code, apiErr.Message, err)
	}

	return &provider.Error{
		Code:       provider.ErrorCodeNetwork,
		Message:    "network error",
		Underlying: err,
		Retryable:  true,
	}
}
