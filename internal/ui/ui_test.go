package ui

import (
	"context"
	"strings"
	"sync"

	"github.com/Cyclone1070/storyloop/internal/workflow"
	"github.com/charmbracelet/bubbles/spinner"
)

// MockMarkdownRenderer implements services.MarkdownRenderer
type MockMarkdownRenderer struct {
	RenderFunc func(string, int) (string, error)
}

func (m *MockMarkdownRenderer) Render(content string, width int) (string, error) {
	if m.RenderFunc != nil {
		return m.RenderFunc(content, width)
	}
	return content, nil
}

func mockSpinnerFactory() spinner.Model {
	return spinner.New()
}

// MockGame implements Game with function fields.
type MockGame struct {
	mu sync.Mutex

	TurnFunc  func(ctx context.Context, input string, emit func(workflow.Event)) (string, error)
	ResetFunc func()
	ModelName string

	Inputs     []string
	ResetCalls int
}

func (g *MockGame) Turn(ctx context.Context, input string, emit func(workflow.Event)) (string, error) {
	g.mu.Lock()
	g.Inputs = append(g.Inputs, input)
	g.mu.Unlock()
	if g.TurnFunc != nil {
		return g.TurnFunc(ctx, input, emit)
	}
	answer := "You said: " + input
	emit(workflow.TextEvent{Text: answer})
	emit(workflow.DoneEvent{Status: "done"})
	return answer, nil
}

func (g *MockGame) Reset() {
	g.mu.Lock()
	g.ResetCalls++
	g.mu.Unlock()
	if g.ResetFunc != nil {
		g.ResetFunc()
	}
}

func (g *MockGame) Model() string {
	if g.ModelName == "" {
		return "mock-model"
	}
	return g.ModelName
}

func createTestModel(game *MockGame) BubbleTeaModel {
	m := newBubbleTeaModel(game, &MockMarkdownRenderer{}, mockSpinnerFactory, true)
	m.state.Width = 80
	m.state.Height = 24
	return m
}

func chatText(m BubbleTeaModel) string {
	var sb strings.Builder
	for _, msg := range m.state.Messages {
		sb.WriteString(string(msg.Role) + ": " + msg.Content + "\n")
	}
	return sb.String()
}
