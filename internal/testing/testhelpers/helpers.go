// Package testhelpers provides shared utilities for loop and session tests
package testhelpers

import (
	"context"
	"fmt"
	"sync"

	"github.com/Cyclone1070/storyloop/internal/provider"
)

type scripted struct {
	resp *provider.Response
	err  error
}

// MockProvider is a scripted model collaborator. Responses are returned in
// the order they were queued.
type MockProvider struct {
	mu        sync.Mutex
	responses []scripted
	index     int
	modelName string

	// Requests records every request received, in order.
	Requests []*provider.Request

	// OnGenerateCalled is a callback for observing Generate calls
	OnGenerateCalled func(*provider.Request)

	// Fallback produces the response once the queue is exhausted.
	// Nil returns a plain "Done" answer.
	Fallback func(req *provider.Request) (*provider.Response, error)
}

// NewMockProvider creates a new mock provider with default settings
func NewMockProvider() *MockProvider {
	return &MockProvider{modelName: "mock-model"}
}

// WithTextResponse adds a final text answer to the queue
func (m *MockProvider) WithTextResponse(text string) *MockProvider {
	return m.WithResponse(&provider.Response{
		Message: provider.Message{Role: provider.RoleAssistant, Content: text},
	})
}

// WithToolCallResponse adds an assistant turn requesting the given tools
func (m *MockProvider) WithToolCallResponse(calls ...provider.ToolCall) *MockProvider {
	return m.WithResponse(&provider.Response{
		Message: provider.Message{Role: provider.RoleAssistant, ToolCalls: calls},
	})
}

// WithResponse adds an arbitrary response to the queue
func (m *MockProvider) WithResponse(resp *provider.Response) *MockProvider {
	m.responses = append(m.responses, scripted{resp: resp})
	return m
}

// WithError adds a transport failure to the queue
func (m *MockProvider) WithError(err error) *MockProvider {
	m.responses = append(m.responses, scripted{err: err})
	return m
}

// AlwaysCallTool makes every unscripted response request the same tool again.
func (m *MockProvider) AlwaysCallTool(name string, args map[string]any) *MockProvider {
	m.Fallback = func(req *provider.Request) (*provider.Response, error) {
		return &provider.Response{Message: provider.Message{
			Role:      provider.RoleAssistant,
			ToolCalls: []provider.ToolCall{{ID: fmt.Sprintf("call-%d", len(req.Messages)), Name: name, Arguments: args}},
		}}, nil
	}
	return m
}

// Generate implements provider.Provider
func (m *MockProvider) Generate(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if m.OnGenerateCalled != nil {
		m.OnGenerateCalled(req)
	}

	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	if m.index >= len(m.responses) {
		fallback := m.Fallback
		m.mu.Unlock()
		if fallback != nil {
			return fallback(req)
		}
		return &provider.Response{
			Message: provider.Message{Role: provider.RoleAssistant, Content: "Done"},
		}, nil
	}
	next := m.responses[m.index]
	m.index++
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return next.resp, next.err
}

// Model implements provider.Provider
func (m *MockProvider) Model() string {
	return m.modelName
}

// CallCount returns how many times Generate was called
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}
