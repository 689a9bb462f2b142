package slackapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/slack-go/slack"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

func (a *API) handleCommands(w http.ResponseWriter, r *http.Request) {
	cmd, err := slack.SlashCommandParse(r)
	if err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	// Empty text answers synchronously: the usage hint rides the ack and
	// the flow is never invoked.
	if strings.TrimSpace(cmd.Text) == "" {
		_ = json.NewEncoder(w).Encode(ephemeral(usageHint))
		return
	}

	sub := &incident.Submission{
		Text:      cmd.Text,
		UserID:    cmd.UserID,
		ChannelID: cmd.ChannelID,
		Source:    incident.SourceCommand,
	}
	responseURL := cmd.ResponseURL

	// Slack requires the ack within 3 seconds; generation can take
	// longer, so the result goes to the command's response_url.
	go a.process(context.WithoutCancel(r.Context()), sub, func(ctx context.Context, text string) error {
		return a.messenger.RespondEphemeral(ctx, responseURL, text)
	})

	_ = json.NewEncoder(w).Encode(ephemeral(workingNote))
}

func ephemeral(text string) map[string]string {
	return map[string]string{
		"response_type": "ephemeral",
		"text":          text,
	}
}
