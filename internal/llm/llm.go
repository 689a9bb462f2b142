// Package llm holds the generation contract shared by the Gemini and
// Claude backends: the system instruction and the strict JSON response
// shape both are asked to produce.
package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

// SystemPrompt instructs the model to emit exactly one JSON object with
// the two communication messages.
const SystemPrompt = `You are an assistant helping DevOps teams write clear, calm, professional messages to customers during incidents.

Your only task is to read the incident description and generate two outputs:

1. A clear, calm, and professional customer-facing message for a public status page.

2. A short, concise, and technical internal message for the support team.

Always return the result as a single JSON object with keys 'customerMessage' and 'internalMessage'. Do not include any introductory or explanatory text outside the JSON object.`

// ParseMessages decodes the model's JSON reply. Both fields must be
// present and non-empty: there is no partial success for this call.
func ParseMessages(raw string) (*incident.Messages, error) {
	raw = stripFences(strings.TrimSpace(raw))

	var out struct {
		CustomerMessage string `json:"customerMessage"`
		InternalMessage string `json:"internalMessage"`
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if out.CustomerMessage == "" || out.InternalMessage == "" {
		return nil, fmt.Errorf("model response missing required fields")
	}
	return &incident.Messages{
		Customer: out.CustomerMessage,
		Internal: out.InternalMessage,
	}, nil
}

// stripFences removes a markdown code fence wrapper if the model added
// one despite the instructions.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
