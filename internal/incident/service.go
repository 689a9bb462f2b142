package incident

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"
)

// ErrEmptyText is returned when a submission carries no incident text
// after trimming. The caller answers with a usage hint and nothing is
// sent upstream.
var ErrEmptyText = errors.New("incident text is empty")

const (
	// DefaultGenerateTimeout bounds the LLM call per submission.
	DefaultGenerateTimeout = 60 * time.Second

	// DefaultPersistTimeout bounds the record write per submission.
	DefaultPersistTimeout = 30 * time.Second
)

// Submission is one logical trigger: raw incident text plus where it
// came from. Both Slack trigger shapes reduce to this.
type Submission struct {
	Text      string
	UserID    string
	ChannelID string
	Source    Source
}

// Service is the business boundary for incident processing. It owns the
// generate -> persist sequence; replying to Slack stays with the caller.
type Service struct {
	store   Store
	gen     Generator
	logger  log.Logger
	metrics *Metrics

	// Per-call timeouts, overridable by main from config.
	GenerateTimeout time.Duration
	PersistTimeout  time.Duration
}

// NewService creates a new incident service. Metrics may be nil.
func NewService(store Store, gen Generator, logger log.Logger, m *Metrics) *Service {
	if logger == nil {
		logger = log.Nop()
	}
	return &Service{
		store:           store,
		gen:             gen,
		logger:          logger,
		metrics:         m,
		GenerateTimeout: DefaultGenerateTimeout,
		PersistTimeout:  DefaultPersistTimeout,
	}
}

// Process runs one submission through the flow: validate, generate,
// persist (best-effort), and return the finished record. A generation
// failure is returned as an error and no record is created; a
// persistence failure is logged and counted but never surfaces.
func (s *Service) Process(ctx context.Context, sub *Submission) (*Record, error) {
	text := strings.TrimSpace(sub.Text)
	if text == "" {
		s.metrics.countSubmission(sub.Source, "empty")
		return nil, ErrEmptyText
	}

	L := s.logger.With("source", string(sub.Source), "user", sub.UserID, "channel", sub.ChannelID)

	start := time.Now()
	gctx, cancel := context.WithTimeout(ctx, s.GenerateTimeout)
	msgs, err := s.gen.Generate(gctx, text)
	cancel()
	if err != nil {
		s.metrics.countSubmission(sub.Source, "generate_failed")
		s.metrics.observeGenerate("error", time.Since(start))
		L.Error(ctx, err, "message generation failed")
		return nil, fmt.Errorf("generate messages: %w", err)
	}
	s.metrics.observeGenerate("ok", time.Since(start))

	// Generators must not return partial output, but the record invariant
	// (no record without both messages) is enforced here too.
	if msgs.Customer == "" || msgs.Internal == "" {
		s.metrics.countSubmission(sub.Source, "generate_failed")
		L.Error(ctx, nil, "generator returned incomplete messages")
		return nil, fmt.Errorf("generate messages: incomplete output")
	}

	rec := &Record{
		ID:              ulid.Make().String(),
		IncidentText:    text,
		CustomerMessage: msgs.Customer,
		InternalMessage: msgs.Internal,
		UserID:          sub.UserID,
		ChannelID:       sub.ChannelID,
		Source:          sub.Source,
		CreatedAt:       time.Now().UTC(),
	}

	// Best-effort persistence: the user-visible reply is identical whether
	// or not the write lands.
	pctx, cancel := context.WithTimeout(ctx, s.PersistTimeout)
	objectID, err := s.store.Create(pctx, rec)
	cancel()
	if err != nil {
		s.metrics.countPersistFailure()
		L.Error(ctx, err, "failed to persist incident record", "record_id", rec.ID)
	} else {
		rec.ObjectID = objectID
	}

	s.metrics.countSubmission(sub.Source, "ok")
	L.Info(ctx, "incident processed",
		"record_id", rec.ID,
		"object_id", rec.ObjectID,
		"duration", time.Since(start).Seconds(),
	)
	return rec, nil
}

// Get retrieves a record by the ID this service assigned at submit.
func (s *Service) Get(ctx context.Context, id string) (*Record, bool, error) {
	return s.store.Get(ctx, id)
}

// Recent lists the most recently created records, newest first.
func (s *Service) Recent(ctx context.Context, limit int) ([]*Record, error) {
	return s.store.Recent(ctx, limit)
}
