package slackapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/slack-go/slack/slackevents"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

// mentionRe matches the bot-identity marker at the start of a mention:
// Slack's canonical <@U...> form, or a bare @name when the raw form
// leaks through.
var mentionRe = regexp.MustCompile(`^\s*(<@[^>]+>|@\S+)[:,]?\s*`)

func (a *API) handleEvents(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"invalid body"}`, http.StatusBadRequest)
		return
	}

	ev, err := slackevents.ParseEvent(json.RawMessage(body), slackevents.OptionNoVerifyToken())
	if err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}

	switch ev.Type {
	case slackevents.URLVerification:
		var cr slackevents.ChallengeResponse
		if err := json.Unmarshal(body, &cr); err != nil {
			http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(cr.Challenge))

	case slackevents.CallbackEvent:
		// Slack redelivers events it considers unacked; the first
		// delivery already kicked off processing.
		if r.Header.Get("X-Slack-Retry-Num") != "" {
			w.WriteHeader(http.StatusOK)
			return
		}
		if mention, ok := ev.InnerEvent.Data.(*slackevents.AppMentionEvent); ok {
			a.handleMention(r.Context(), mention)
		}
		w.WriteHeader(http.StatusOK)

	default:
		w.WriteHeader(http.StatusOK)
	}
}

// handleMention extracts the incident text from an app_mention and
// dispatches processing. The event is acked as soon as this returns;
// the reply lands in the mention's thread.
func (a *API) handleMention(ctx context.Context, ev *slackevents.AppMentionEvent) {
	threadTS := ev.ThreadTimeStamp
	if threadTS == "" {
		threadTS = ev.TimeStamp
	}
	channel := ev.Channel

	text := stripMention(ev.Text)
	if strings.TrimSpace(text) == "" {
		// Usage hint without invoking the flow. Delivery is async like
		// any other reply.
		go func(ctx context.Context) {
			if err := a.messenger.ReplyInThread(ctx, channel, threadTS, usageHint); err != nil {
				a.logger.Error(ctx, err, "failed to deliver usage hint", "channel", channel)
			}
		}(context.WithoutCancel(ctx))
		return
	}

	sub := &incident.Submission{
		Text:      text,
		UserID:    ev.User,
		ChannelID: channel,
		Source:    incident.SourceMention,
	}

	// Detach from the inbound request: Slack wants the ack fast, and a
	// dropped connection must not abort in-flight upstream calls.
	go a.process(context.WithoutCancel(ctx), sub, func(ctx context.Context, text string) error {
		return a.messenger.ReplyInThread(ctx, channel, threadTS, text)
	})
}

// stripMention removes the leading bot-identity token from mention text,
// leaving the incident description.
func stripMention(s string) string {
	return mentionRe.ReplaceAllString(s, "")
}
