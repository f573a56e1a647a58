package ai

import (
	"context"

	"github.com/sashabaranov/go-openai/jsonschema"
)

// Request is one schema-constrained completion.
type Request struct {
	System     string
	Prompt     string
	SchemaName string
	Schema     *jsonschema.Definition
}

// LLMProvider sends a prompt to an LLM and returns the raw text response,
// which is JSON conforming to the request schema when the backend honours it.
type LLMProvider interface {
	Complete(ctx context.Context, req Request) (string, error)
}
