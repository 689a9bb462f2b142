// Package gemini implements incident.Generator on the Gemini API.
package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/linnemanlabs/commsbot/internal/incident"
	"github.com/linnemanlabs/commsbot/internal/llm"
)

const defaultModel = "gemini-2.5-flash"

// Client wraps one Gemini generate-content call per incident.
type Client struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed generator. Empty model selects the default.
func New(ctx context.Context, apiKey, model string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: api key is required")
	}
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}

	return &Client{client: client, model: model}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Generate asks Gemini for the two incident messages. The response
// schema constrains the model to the exact JSON object we parse.
func (c *Client) Generate(ctx context.Context, incidentText string) (*incident.Messages, error) {
	config := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr[float32](0.1),
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type:     genai.TypeObject,
			Required: []string{"customerMessage", "internalMessage"},
			Properties: map[string]*genai.Schema{
				"customerMessage": {
					Type:        genai.TypeString,
					Description: "A clear, calm, and professional message for the public status page.",
				},
				"internalMessage": {
					Type:        genai.TypeString,
					Description: "A short, concise, and technical message for the internal support team.",
				},
			},
		},
		SystemInstruction: genai.NewContentFromText(llm.SystemPrompt, genai.RoleUser),
	}

	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(incidentText), config)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return nil, fmt.Errorf("gemini: empty response")
	}

	msgs, err := llm.ParseMessages(text)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	return msgs, nil
}
