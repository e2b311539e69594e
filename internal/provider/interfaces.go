package provider

import "context"

// Provider is the remote model collaborator.
type Provider interface {
	// Generate sends the transcript and tool contracts and returns one assistant turn.
	// Errors are transport or API failures; they are never retried by the caller's loop.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Model returns the model identifier requests are sent to.
	Model() string
}
