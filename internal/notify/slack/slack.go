// Package slack delivers bot replies back to Slack: threaded channel
// messages via the Web API and ephemeral responses via a slash command's
// response_url.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/slack-go/slack"
)

const httpTimeout = 10 * time.Second

// Notifier sends replies with a bot-token Slack client.
type Notifier struct {
	client     *slack.Client
	httpClient *http.Client
}

// New creates a notifier from the bot token (xoxb-...).
func New(botToken string) *Notifier {
	httpClient := &http.Client{Timeout: httpTimeout}
	return &Notifier{
		client:     slack.New(botToken, slack.OptionHTTPClient(httpClient)),
		httpClient: httpClient,
	}
}

// ReplyInThread posts text to a channel, threaded under threadTS when set.
func (n *Notifier) ReplyInThread(ctx context.Context, channel, threadTS, text string) error {
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if threadTS != "" {
		opts = append(opts, slack.MsgOptionTS(threadTS))
	}
	if _, _, err := n.client.PostMessageContext(ctx, channel, opts...); err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	return nil
}

// RespondEphemeral posts an ephemeral reply to a slash command's
// response_url.
func (n *Notifier) RespondEphemeral(ctx context.Context, responseURL, text string) error {
	msg := &slack.WebhookMessage{
		Text:         text,
		ResponseType: slack.ResponseTypeEphemeral,
	}
	if err := slack.PostWebhookCustomHTTPContext(ctx, responseURL, n.httpClient, msg); err != nil {
		return fmt.Errorf("slack: post webhook: %w", err)
	}
	return nil
}
