package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"turnstile/pkg/domain"
	audit "turnstile/pkg/platform/audit"
)

// Store persists audit events in PostgreSQL. Rows are never updated or
// deleted; retention is an operational concern handled outside the service.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (category, occurred_at, action, visitor_id, event_id, email, request_id, detail)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		string(event.Category),
		event.Timestamp,
		event.Action,
		nullableID(uuid.UUID(event.VisitorID)),
		nullableID(uuid.UUID(event.EventID)),
		nullableString(event.Email.String()),
		nullableString(event.RequestID),
		nullableString(event.Detail),
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByVisitor(ctx context.Context, visitorID domain.VisitorID) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, action, visitor_id, event_id, email, request_id, detail
		FROM audit_events
		WHERE visitor_id = $1
		ORDER BY occurred_at ASC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(visitorID))
	if err != nil {
		return nil, fmt.Errorf("list audit events by visitor: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT category, occurred_at, action, visitor_id, event_id, email, request_id, detail
		FROM audit_events
		ORDER BY occurred_at DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent audit events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			e         audit.Event
			category  string
			visitorID sql.Null[uuid.UUID]
			eventID   sql.Null[uuid.UUID]
			email     sql.NullString
			requestID sql.NullString
			detail    sql.NullString
		)
		if err := rows.Scan(&category, &e.Timestamp, &e.Action, &visitorID, &eventID, &email, &requestID, &detail); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		if visitorID.Valid {
			e.VisitorID = domain.VisitorID(visitorID.V)
		}
		if eventID.Valid {
			e.EventID = domain.EventID(eventID.V)
		}
		e.Email = domain.Email(email.String)
		e.RequestID = requestID.String
		e.Detail = detail.String
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}

func nullableID(u uuid.UUID) any {
	if u == uuid.Nil {
		return nil
	}
	return u
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
