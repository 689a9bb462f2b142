package incident

import "time"

// Source identifies which Slack trigger produced a submission.
type Source string

const (
	// SourceMention means the bot was @-mentioned in a channel message.
	SourceMention Source = "mention"

	// SourceCommand means the user invoked the slash command.
	SourceCommand Source = "command"
)

// Messages is the pair of generated communications for one incident:
// a customer-facing status message and an internal technical one.
type Messages struct {
	Customer string
	Internal string
}

// Record is one processed incident. A record is only built after both
// generated messages exist; it is never updated or deleted by this service.
type Record struct {
	ID              string    `json:"id"`
	ObjectID        string    `json:"object_id,omitempty"` // backend-assigned identifier, opaque to us
	IncidentText    string    `json:"incident_text"`
	CustomerMessage string    `json:"customer_message"`
	InternalMessage string    `json:"internal_message"`
	UserID          string    `json:"user_id,omitempty"`
	ChannelID       string    `json:"channel_id,omitempty"`
	Source          Source    `json:"source"`
	CreatedAt       time.Time `json:"created_at"`
}
