package ai

import "context"

// Blob is binary input attached to a prompt (a homework photo).
type Blob struct {
	MIMEType string
	Data     []byte
}

// Prompt is the payload sent to the inference provider.
type Prompt struct {
	Text  string
	Image *Blob
	// JSON asks the provider for a JSON-only response when it supports that mode.
	JSON bool
}

// Client returns raw text that should contain one JSON object (or plain
// text for follow-up answers). No schema is enforced by the transport.
type Client interface {
	Name() string
	Generate(ctx context.Context, p Prompt) (string, error)
}
