package ui

import (
	"context"

	"github.com/Cyclone1070/storyloop/internal/workflow"
)

// Game is what the UI drives: one turn per submitted line.
// *session.Session implements it.
type Game interface {
	// Turn runs the narrator on input. emit receives progress events and
	// always a final workflow.DoneEvent.
	Turn(ctx context.Context, input string, emit func(workflow.Event)) (string, error)

	// Reset starts the story over.
	Reset()

	// Model names the model behind the narrator.
	Model() string
}
