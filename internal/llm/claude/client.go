// Package claude implements incident.Generator on the Anthropic API,
// as an alternate backend for teams without Gemini access.
package claude

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/commsbot/internal/incident"
	"github.com/linnemanlabs/commsbot/internal/llm"
)

const (
	defaultModel   = "claude-sonnet-4-20250514"
	responseTokens = 1024
)

// Client wraps one Anthropic messages call per incident.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Claude-backed generator. Empty model selects the default.
// Extra options are for tests (base URL override).
func New(apiKey, model string, opts ...option.RequestOption) *Client {
	if model == "" {
		model = defaultModel
	}
	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &Client{
		client: anthropic.NewClient(opts...),
		model:  model,
	}
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate asks Claude for the two incident messages. Claude has no
// structured-output mode here, so the system prompt demands a bare JSON
// object and the reply text is parsed strictly.
func (c *Client) Generate(ctx context.Context, incidentText string) (*incident.Messages, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: responseTokens,
		System: []anthropic.TextBlockParam{
			{Text: llm.SystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(incidentText)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("claude: messages call: %w", err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return nil, fmt.Errorf("claude: empty response")
	}

	msgs, err := llm.ParseMessages(text)
	if err != nil {
		return nil, fmt.Errorf("claude: %w", err)
	}
	return msgs, nil
}
