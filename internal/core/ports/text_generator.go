package ports

import "context"

// Schema is a minimal JSON schema for constrained generation.
type Schema struct {
	Type       string            // "object", "string", "number"
	Properties map[string]Schema // object properties
	Enum       []string          // allowed string values
	Required   []string
}

// GenerateRequest is a single-turn text generation request.
type GenerateRequest struct {
	SystemInstruction string
	Prompt            string
	Temperature       *float32
	// ResponseSchema, when set, asks for a JSON document matching it.
	ResponseSchema *Schema
}

// TextGenerator calls the hosted language model.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}
