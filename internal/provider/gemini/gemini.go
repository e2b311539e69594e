// Package gemini adapts Google Gemini to provider.Provider.
package gemini

import (
	"context"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

// GeminiProvider implements provider.Provider for Google Gemini.
type GeminiProvider struct {
	client    GeminiClient
	modelName string
}

// New creates a new GeminiProvider with the specified client and model.
func New(client GeminiClient, modelName string) *GeminiProvider {
	return &GeminiProvider{
		client:    client,
		modelName: modelName,
	}
}

// Generate sends the transcript to Gemini and converts the reply.
func (p *GeminiProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	model := req.Model
	if model == "" {
		model = p.modelName
	}

	contents, system := toGeminiContents(req.Messages)
	config := toGeminiConfig(req.Sampling, system)
	if len(req.Tools) > 0 {
		config.Tools = toGeminiTools(req.Tools)
	}

	resp, err := p.client.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, mapGeminiError(err)
	}

	return fromGeminiResponse(resp)
}

// Model returns the configured model name.
func (p *GeminiProvider) Model() string {
	return p.modelName
}
