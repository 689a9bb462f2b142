// Package pgstore provides a PostgreSQL implementation of incident.Store
// for self-hosted deployments that keep records in their own database
// instead of a Parse backend.
package pgstore

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/linnemanlabs/commsbot/internal/incident"
)

var tracer = otel.Tracer("github.com/linnemanlabs/commsbot/internal/incident/pgstore")

//go:embed schema.sql
var schema string

// Store persists incident records in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

// New applies the schema and returns a ready Store. The pool stays owned
// by the caller.
func New(ctx context.Context, pool *pgxpool.Pool) (*Store, error) {
	if _, err := pool.Exec(ctx, schema); err != nil {
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

const recordColumns = `id, incident_text, customer_message, internal_message,
	user_id, channel_id, source, created_at`

// Create inserts one record. The database assigns created_at; the row ID
// doubles as the returned object identifier.
func (s *Store) Create(ctx context.Context, r *incident.Record) (string, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Create", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "INSERT"),
	))
	defer span.End()

	query := `INSERT INTO incident_records (
		id, incident_text, customer_message, internal_message, user_id, channel_id, source
	) VALUES ($1,$2,$3,$4,$5,$6,$7)
	RETURNING created_at`

	err := s.pool.QueryRow(ctx, query,
		r.ID, r.IncidentText, r.CustomerMessage, r.InternalMessage,
		r.UserID, r.ChannelID, string(r.Source),
	).Scan(&r.CreatedAt)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("insert record: %w", err)
	}
	return r.ID, nil
}

// Get retrieves a record by ID.
func (s *Store) Get(ctx context.Context, id string) (*incident.Record, bool, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Get", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	query := `SELECT ` + recordColumns + ` FROM incident_records WHERE id = $1`
	r, err := scanRecord(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, false, err
	}
	if r == nil {
		return nil, false, nil
	}
	return r, true, nil
}

// Recent returns up to limit records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*incident.Record, error) {
	ctx, span := tracer.Start(ctx, "pgstore.Recent", trace.WithAttributes(
		attribute.String("db.system", "postgresql"),
		attribute.String("db.operation.name", "SELECT"),
	))
	defer span.End()

	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + recordColumns + ` FROM incident_records ORDER BY created_at DESC LIMIT $1`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("query recent: %w", err)
	}
	defer rows.Close()

	var out []*incident.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func scanRecord(row pgx.Row) (*incident.Record, error) {
	var r incident.Record
	var source string
	err := row.Scan(
		&r.ID, &r.IncidentText, &r.CustomerMessage, &r.InternalMessage,
		&r.UserID, &r.ChannelID, &source, &r.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan record: %w", err)
	}
	r.Source = incident.Source(source)
	r.ObjectID = r.ID
	return &r, nil
}
