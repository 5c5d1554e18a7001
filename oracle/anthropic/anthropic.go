// Package anthropic adapts the Claude Messages API to the oracle.Caller
// interface. Claude has no native JSON output mode, so the JSON contract
// lives in the system prompt and the response is parsed tolerantly.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/tripflow-ai/tripflow/oracle"
)

const maxTokens = 4096

// Caller performs structured completions against the Anthropic API.
// Safe for concurrent use.
type Caller struct {
	client *anthropic.Client
}

// New creates a Claude-backed caller.
func New(apiKey string) (*Caller, error) {
	if apiKey == "" {
		return nil, errors.New("Anthropic API key cannot be empty")
	}
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &Caller{client: &client}, nil
}

func (c *Caller) StructuredCall(ctx context.Context, req oracle.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System + "\n\nRespond ONLY with valid JSON. No markdown, no explanation."},
		}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return fmt.Errorf("anthropic message: %w", err)
	}

	var text string
	for _, block := range message.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return errors.New("anthropic returned no text content")
	}

	return oracle.DecodeJSON(text, out)
}
