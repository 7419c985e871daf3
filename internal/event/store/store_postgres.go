package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"turnstile/internal/event/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/platform/tx"
)

// PostgresStore reads the event catalog. The core never writes events.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.EventID) (*models.Event, error) {
	query := `
		SELECT id, title, location, form_id, capacity, start_date, end_date
		FROM events
		WHERE id = $1
	`
	ev, err := scanEvent(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find event: %w", err)
	}
	return ev, nil
}

type eventRow interface {
	Scan(dest ...any) error
}

func scanEvent(row eventRow) (*models.Event, error) {
	var (
		ev     models.Event
		id     uuid.UUID
		formID sql.NullString
	)
	if err := row.Scan(&id, &ev.Title, &ev.Location, &formID, &ev.Capacity, &ev.StartDate, &ev.EndDate); err != nil {
		return nil, err
	}
	ev.ID = domain.EventID(id)
	if formID.Valid {
		ev.FormID = &formID.String
	}
	return &ev, nil
}
