// Package parsestore persists incident records to a Parse-compatible
// REST backend (SashiDo). The backend owns the data once written; this
// package never updates or deletes objects.
package parsestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/commsbot/internal/incident/parsestore")

const (
	className   = "IncidentMessage"
	httpTimeout = 30 * time.Second
)

// Store talks to the Parse REST API.
type Store struct {
	baseURL string
	appID   string
	restKey string
	client  *http.Client
}

// New creates a Parse-backed store. baseURL is the API root, e.g.
// https://pg-app-xyz.scalabl.cloud/1.
func New(baseURL, appID, restKey string) *Store {
	return &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		appID:   appID,
		restKey: restKey,
		client:  &http.Client{Timeout: httpTimeout},
	}
}

// object is the wire shape of one IncidentMessage class row.
type object struct {
	ObjectID        string `json:"objectId,omitempty"`
	RecordID        string `json:"recordId"`
	IncidentText    string `json:"incidentText"`
	CustomerMessage string `json:"customerMessage"`
	InternalMessage string `json:"internalMessage"`
	User            string `json:"user,omitempty"`
	Channel         string `json:"channel,omitempty"`
	Source          string `json:"source,omitempty"`
	CreatedAt       string `json:"createdAt,omitempty"`
}

// Create writes one record and returns the backend objectId.
func (s *Store) Create(ctx context.Context, r *incident.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "parsestore.Create", trace.WithAttributes(
		attribute.String("db.system", "parse"),
		attribute.String("db.collection.name", className),
	))
	defer span.End()

	body, err := json.Marshal(object{
		RecordID:        r.ID,
		IncidentText:    r.IncidentText,
		CustomerMessage: r.CustomerMessage,
		InternalMessage: r.InternalMessage,
		User:            r.UserID,
		Channel:         r.ChannelID,
		Source:          string(r.Source),
	})
	if err != nil {
		return "", fmt.Errorf("parsestore: marshal record: %w", err)
	}

	var created struct {
		ObjectID  string `json:"objectId"`
		CreatedAt string `json:"createdAt"`
	}
	if err := s.do(ctx, http.MethodPost, s.baseURL+"/classes/"+className, body, &created); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	if ts, err := time.Parse(time.RFC3339, created.CreatedAt); err == nil {
		r.CreatedAt = ts
	}
	return created.ObjectID, nil
}

// Get retrieves a record by the service-assigned record ID.
func (s *Store) Get(ctx context.Context, id string) (*incident.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "parsestore.Get", trace.WithAttributes(
		attribute.String("db.system", "parse"),
		attribute.String("db.collection.name", className),
	))
	defer span.End()

	where, err := json.Marshal(map[string]string{"recordId": id})
	if err != nil {
		return nil, false, fmt.Errorf("parsestore: marshal query: %w", err)
	}
	q := url.Values{}
	q.Set("where", string(where))
	q.Set("limit", "1")

	var out struct {
		Results []object `json:"results"`
	}
	if err := s.do(ctx, http.MethodGet, s.baseURL+"/classes/"+className+"?"+q.Encode(), nil, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if len(out.Results) == 0 {
		return nil, false, nil
	}
	return fromObject(&out.Results[0]), true, nil
}

// Recent lists the most recently created records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*incident.Record, error) {
	ctx, span := tracer.Start(ctx, "parsestore.Recent", trace.WithAttributes(
		attribute.String("db.system", "parse"),
		attribute.String("db.collection.name", className),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}
	q := url.Values{}
	q.Set("order", "-createdAt")
	q.Set("limit", strconv.Itoa(limit))

	var out struct {
		Results []object `json:"results"`
	}
	if err := s.do(ctx, http.MethodGet, s.baseURL+"/classes/"+className+"?"+q.Encode(), nil, &out); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	recs := make([]*incident.Record, 0, len(out.Results))
	for i := range out.Results {
		recs = append(recs, fromObject(&out.Results[i]))
	}
	return recs, nil
}

func (s *Store) do(ctx context.Context, method, rawURL string, body []byte, out any) error {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, rawURL, rd)
	if err != nil {
		return fmt.Errorf("parsestore: create request: %w", err)
	}
	req.Header.Set("X-Parse-Application-Id", s.appID)
	req.Header.Set("X-Parse-REST-API-Key", s.restKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req) //nolint:gosec // G704: baseURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("parsestore: %s %s: %w", method, rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("parsestore: api returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsestore: decode response: %w", err)
	}
	return nil
}

func fromObject(o *object) *incident.Record {
	r := &incident.Record{
		ID:              o.RecordID,
		ObjectID:        o.ObjectID,
		IncidentText:    o.IncidentText,
		CustomerMessage: o.CustomerMessage,
		InternalMessage: o.InternalMessage,
		UserID:          o.User,
		ChannelID:       o.Channel,
		Source:          incident.Source(o.Source),
	}
	if ts, err := time.Parse(time.RFC3339, o.CreatedAt); err == nil {
		r.CreatedAt = ts
	}
	return r
}
