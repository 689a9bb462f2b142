// Package slackapi is the HTTP boundary: it verifies and parses the two
// Slack trigger shapes (mention events, slash commands), dispatches them
// to the incident service, and serves the records read API.
package slackapi

import (
	"context"
	"errors"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/commsbot/internal/authmw"
	"github.com/linnemanlabs/commsbot/internal/incident"
)

// User-visible strings. Everything else stays in server-side logs.
const (
	usageHint      = "Please provide an incident description. Example: `/incident-message payments API returning 500s`"
	workingNote    = "Generating incident communication messages..."
	genericFailure = "Sorry, I encountered an error generating the messages. Please try again."
)

// IncidentService defines the business operations slackapi needs.
type IncidentService interface {
	Process(ctx context.Context, sub *incident.Submission) (*incident.Record, error)
	Get(ctx context.Context, id string) (*incident.Record, bool, error)
	Recent(ctx context.Context, limit int) ([]*incident.Record, error)
}

// Messenger delivers replies back to Slack.
type Messenger interface {
	ReplyInThread(ctx context.Context, channel, threadTS, text string) error
	RespondEphemeral(ctx context.Context, responseURL, text string) error
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger        log.Logger
	svc           IncidentService
	messenger     Messenger
	signingSecret string
	apiToken      string
}

// New creates a new API handler. apiToken may be empty, which leaves the
// records API unauthenticated.
func New(logger log.Logger, svc IncidentService, messenger Messenger, signingSecret, apiToken string) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if svc == nil {
		panic(xerrors.New("incident service is required"))
	}
	if messenger == nil {
		panic(xerrors.New("messenger is required"))
	}
	return &API{
		logger:        logger,
		svc:           svc,
		messenger:     messenger,
		signingSecret: signingSecret,
		apiToken:      apiToken,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/slack", func(r chi.Router) {
		r.Use(a.verifySignature)
		r.Post("/events", a.handleEvents)
		r.Post("/commands", a.handleCommands)
	})
	r.Route("/api/v1", func(r chi.Router) {
		if a.apiToken != "" {
			r.Use(authmw.BearerToken(a.apiToken))
		}
		r.Get("/records", a.handleListRecords)
		r.Get("/records/{id}", a.handleGetRecord)
	})
}

// process runs one submission and delivers the outcome via reply. It is
// called on a detached goroutine after the inbound request is acked, so
// every failure ends here: logged, never propagated.
func (a *API) process(ctx context.Context, sub *incident.Submission, reply func(context.Context, string) error) {
	rec, err := a.svc.Process(ctx, sub)

	var text string
	switch {
	case errors.Is(err, incident.ErrEmptyText):
		text = usageHint
	case err != nil:
		// Logged with detail inside the service; the user sees only the
		// fixed failure message.
		text = genericFailure
	default:
		text = incident.FormatReply(rec)
	}

	if err := reply(ctx, text); err != nil {
		a.logger.Error(ctx, err, "failed to deliver slack reply",
			"source", string(sub.Source),
			"channel", sub.ChannelID,
		)
	}
}
