// Package gemini adapts the Google GenAI SDK to the TextGenerator port.
package gemini

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/altrapisos/crm/internal/core/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash"

// ErrNoAPIKey is returned by every call when the generator was built without
// a key.
var ErrNoAPIKey = errors.New("gemini: API key not configured")

// Generator sends single-turn requests to a Gemini model.
type Generator struct {
	client *genai.Client
	model  string
}

var _ ports.TextGenerator = (*Generator)(nil)

// New creates a generator for model. An empty apiKey yields a generator whose
// calls all fail with ErrNoAPIKey, so callers fall back to their canned text.
func New(ctx context.Context, apiKey, model string) (*Generator, error) {
	if model == "" {
		model = DefaultModel
	}
	if apiKey == "" {
		return &Generator{model: model}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// Model returns the configured model name.
func (g *Generator) Model() string { return g.model }

func (g *Generator) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	if g.client == nil {
		return "", ErrNoAPIKey
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(req.Prompt), buildConfig(req))
	if err != nil {
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}
	return result.Text(), nil
}

func buildConfig(req ports.GenerateRequest) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.SystemInstruction != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.SystemInstruction, genai.RoleUser)
	}
	if req.ResponseSchema != nil {
		cfg.ResponseMIMEType = "application/json"
		cfg.ResponseSchema = toSchema(*req.ResponseSchema)
	}
	return cfg
}

func toSchema(s ports.Schema) *genai.Schema {
	out := &genai.Schema{
		Type:     schemaType(s.Type),
		Enum:     s.Enum,
		Required: s.Required,
	}
	if len(s.Properties) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(s.Properties))
		for name, p := range s.Properties {
			out.Properties[name] = toSchema(p)
		}
	}
	return out
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "array":
		return genai.TypeArray
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}
