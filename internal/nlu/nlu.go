package nlu

import (
	"context"
	"errors"
	"fmt"
	log "log/slog"

	openai "github.com/openai/openai-go/v3"

	"voxagent/internal/agent"
)

const DefaultModel = "gpt-4o"

var (
	ErrNoChoices = errors.New("no choices in response")
	ErrEmpty     = errors.New("empty message content")
)

// RefusalError is returned when the model declines to answer.
type RefusalError struct {
	Reason string
}

func (e *RefusalError) Error() string {
	return fmt.Sprintf("model refused: %s", e.Reason)
}

// Client asks an OpenAI chat model for the next step of a conversation. The
// reply is constrained to the step schema with a strict json_schema response
// format.
type Client struct {
	api   openai.Client
	model string
	log   *log.Logger
}

func NewClient(api openai.Client, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		api:   api,
		model: model,
		log:   log.Default().With("component", "nlu"),
	}
}

func (c *Client) Model() string { return c.model }

// Complete returns the raw JSON of the model's next step.
func (c *Client) Complete(ctx context.Context, turns []agent.Turn) (string, error) {
	msgs, err := messages(turns)
	if err != nil {
		return "", err
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.model),
		Messages: msgs,
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "step",
					Description: openai.String("One step of the assistant's reasoning protocol"),
					Schema:      agent.ResponseSchema(),
					Strict:      openai.Bool(true),
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	msg := resp.Choices[0].Message
	if msg.Refusal != "" {
		return "", &RefusalError{Reason: msg.Refusal}
	}
	if msg.Content == "" {
		return "", ErrEmpty
	}

	c.log.Debug("Processed", "data", msg.Content, "tokens", resp.Usage.TotalTokens)

	return msg.Content, nil
}

func messages(turns []agent.Turn) ([]openai.ChatCompletionMessageParamUnion, error) {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for i, t := range turns {
		switch t.Role {
		case agent.RoleSystem:
			out = append(out, openai.SystemMessage(t.Content))
		case agent.RoleUser:
			out = append(out, openai.UserMessage(t.Content))
		case agent.RoleAssistant:
			out = append(out, openai.AssistantMessage(t.Content))
		case agent.RoleDeveloper:
			out = append(out, openai.DeveloperMessage(t.Content))
		default:
			return nil, fmt.Errorf("turn %d: unknown role %q", i, t.Role)
		}
	}
	return out, nil
}
