// Package openai adapts OpenAI chat completions to the oracle.Caller
// interface, requesting JSON-object output mode on every call.
package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/tripflow-ai/tripflow/oracle"
)

// Caller performs structured completions against the OpenAI API.
// Safe for concurrent use.
type Caller struct {
	client *openai.Client
}

// New creates an OpenAI-backed caller.
func New(apiKey string) (*Caller, error) {
	if apiKey == "" {
		return nil, errors.New("OpenAI API key cannot be empty")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Caller{client: &client}, nil
}

func (c *Caller) StructuredCall(ctx context.Context, req oracle.Request, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessageParamUnion{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{
					OfString: openai.String(req.System),
				},
			},
		})
	}
	messages = append(messages, openai.ChatCompletionMessageParamUnion{
		OfUser: &openai.ChatCompletionUserMessageParam{
			Content: openai.ChatCompletionUserMessageParamContentUnion{
				OfString: openai.String(req.Prompt),
			},
		},
	})

	params := openai.ChatCompletionNewParams{
		Model:    shared.ChatModel(req.Model),
		Messages: messages,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: openai.Ptr(shared.NewResponseFormatJSONObjectParam()),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return fmt.Errorf("openai completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return errors.New("openai returned no choices")
	}

	return oracle.DecodeJSON(completion.Choices[0].Message.Content, out)
}
