package incident

import "context"

// Generator is the interface for any LLM backend that can turn raw
// incident text into the two communication messages. Implementations
// must return an error rather than partial output: a nil error means
// both messages are present and non-empty.
type Generator interface {
	Generate(ctx context.Context, incidentText string) (*Messages, error)
}
