// Package google adapts the Gemini API to the oracle.Caller interface
// using JSON response MIME type for structured output.
package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/tripflow-ai/tripflow/oracle"
)

// Caller performs structured completions against the Gemini API.
type Caller struct {
	client *genai.Client
}

// New creates a Gemini-backed caller. Close releases the underlying
// client when the caller is no longer needed.
func New(ctx context.Context, apiKey string) (*Caller, error) {
	if apiKey == "" {
		return nil, errors.New("Google API key cannot be empty")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Caller{client: client}, nil
}

// Close releases the underlying client.
func (c *Caller) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func (c *Caller) StructuredCall(ctx context.Context, req oracle.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	model := c.client.GenerativeModel(req.Model)
	model.ResponseMIMEType = "application/json"
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		model.Temperature = &temp
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(req.Prompt))
	if err != nil {
		return fmt.Errorf("gemini generate: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return errors.New("gemini returned no candidates")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	if sb.Len() == 0 {
		return errors.New("gemini returned no text parts")
	}

	return oracle.DecodeJSON(sb.String(), out)
}
