package services

import (
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer turns narrator markdown into terminal output.
type MarkdownRenderer interface {
	Render(content string, width int) (string, error)
}

// GlamourRenderer renders with glamour. Term renderers are built lazily per
// wrap width because glamour fixes the width at construction.
type GlamourRenderer struct {
	style string

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewGlamourRenderer creates a renderer for a glamour standard style
// (auto, dark, light, notty).
func NewGlamourRenderer(style string) *GlamourRenderer {
	if style == "" {
		style = "auto"
	}
	return &GlamourRenderer{style: style, renderers: map[int]*glamour.TermRenderer{}}
}

// Render implements MarkdownRenderer.
func (g *GlamourRenderer) Render(content string, width int) (string, error) {
	if width < 20 {
		width = 20
	}

	g.mu.Lock()
	tr, ok := g.renderers[width]
	if !ok {
		var err error
		tr, err = glamour.NewTermRenderer(
			glamour.WithStandardStyle(g.style),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			g.mu.Unlock()
			return "", err
		}
		g.renderers[width] = tr
	}
	g.mu.Unlock()

	out, err := tr.Render(content)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// RenderMarkdown renders content, falling back to the raw text when the
// renderer is missing or fails.
func RenderMarkdown(content string, width int, renderer MarkdownRenderer) string {
	if renderer == nil {
		return content
	}
	out, err := renderer.Render(content, width)
	if err != nil {
		return content
	}
	return out
}
