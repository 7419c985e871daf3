package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	eventstore "turnstile/internal/event/store"
	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/platform/tx"
)

// PostgresStore persists visitors, registrations, and scan records in
// PostgreSQL. It is pure I/O: capacity rules and transition legality belong
// to the services; this store only supplies the atomic primitives.
type PostgresStore struct {
	db     *sql.DB
	events *eventstore.PostgresStore
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, events: eventstore.NewPostgres(db)}
}

// Register executes the registration unit: lock the event row, count the
// event's visitors, let fn build the documents, insert both, and set the
// registration's visitor back-reference. All of it commits or none of it.
//
// The SELECT ... FOR UPDATE on the event row serializes concurrent
// registrations for the same event, making count-then-insert atomic without
// touching registrations for other events.
func (s *PostgresStore) Register(ctx context.Context, eventID domain.EventID, fn RegisterFunc) (*models.Visitor, error) {
	dbTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin register: %w", err)
	}
	defer func() {
		_ = dbTx.Rollback()
	}()
	txCtx := tx.WithTx(ctx, dbTx)

	if _, err := dbTx.ExecContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, uuid.UUID(eventID)); err != nil {
		return nil, fmt.Errorf("lock event: %w", err)
	}
	ev, err := s.events.FindByID(txCtx, eventID)
	if err != nil {
		return nil, err
	}

	var count int
	if err := dbTx.QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors WHERE event_id = $1`, uuid.UUID(eventID)).Scan(&count); err != nil {
		return nil, fmt.Errorf("count visitors: %w", err)
	}

	reg, visitor, err := fn(ev, count)
	if err != nil {
		return nil, err
	}

	answers, err := json.Marshal(reg.Answers)
	if err != nil {
		return nil, fmt.Errorf("marshal answers: %w", err)
	}
	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO registrations (id, event_id, form_id, answers, status, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, uuid.UUID(reg.ID), uuid.UUID(reg.EventID), reg.FormID, answers, reg.Status, reg.SubmittedAt)
	if err != nil {
		return nil, fmt.Errorf("insert registration: %w", err)
	}

	_, err = dbTx.ExecContext(ctx, `
		INSERT INTO visitors (id, registration_id, event_id, token, event_title, event_location, event_start, event_end, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, uuid.UUID(visitor.ID), uuid.UUID(visitor.RegistrationID), uuid.UUID(visitor.EventID),
		visitor.Token, visitor.EventTitle, visitor.EventLocation, visitor.EventStart, visitor.EventEnd,
		string(visitor.Status), visitor.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert visitor: %w", err)
	}

	_, err = dbTx.ExecContext(ctx, `UPDATE registrations SET visitor_id = $2 WHERE id = $1`,
		uuid.UUID(reg.ID), uuid.UUID(visitor.ID))
	if err != nil {
		return nil, fmt.Errorf("link registration to visitor: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return nil, fmt.Errorf("commit register: %w", err)
	}
	return visitor, nil
}

const visitorColumns = `id, registration_id, event_id, token, event_title, event_location, event_start, event_end, status, check_in_time, check_out_time, created_at`

func (s *PostgresStore) FindVisitor(ctx context.Context, id domain.VisitorID) (*models.Visitor, error) {
	query := `SELECT ` + visitorColumns + ` FROM visitors WHERE id = $1`
	v, err := scanVisitor(tx.QuerierFrom(ctx, s.db).QueryRowContext(ctx, query, uuid.UUID(id)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find visitor: %w", err)
	}
	return v, nil
}

// CheckInOnce performs the registered → checked_in transition as one
// conditional update. The boolean reports whether this call applied the
// transition; when it did not, the returned visitor is a fresh read of the
// current state.
func (s *PostgresStore) CheckInOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error) {
	query := `
		UPDATE visitors
		SET status = $3, check_in_time = $2
		WHERE id = $1 AND status = $4
		RETURNING ` + visitorColumns
	return s.transitionOnce(ctx, id, query,
		uuid.UUID(id), at, string(domain.StatusCheckedIn), string(domain.StatusRegistered))
}

// CheckOutOnce performs checked_in → checked_out, same contract as
// CheckInOnce.
func (s *PostgresStore) CheckOutOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error) {
	query := `
		UPDATE visitors
		SET status = $3, check_out_time = $2
		WHERE id = $1 AND status = $4
		RETURNING ` + visitorColumns
	return s.transitionOnce(ctx, id, query,
		uuid.UUID(id), at, string(domain.StatusCheckedOut), string(domain.StatusCheckedIn))
}

// CancelOnce performs registered → cancelled, same contract as CheckInOnce.
func (s *PostgresStore) CancelOnce(ctx context.Context, id domain.VisitorID) (*models.Visitor, bool, error) {
	query := `
		UPDATE visitors
		SET status = $2
		WHERE id = $1 AND status = $3
		RETURNING ` + visitorColumns
	return s.transitionOnce(ctx, id, query,
		uuid.UUID(id), string(domain.StatusCancelled), string(domain.StatusRegistered))
}

// transitionOnce runs a conditional UPDATE ... RETURNING. A matched row
// means this call won the transition. A miss means some other call already
// moved the visitor (or it does not exist); the current row is re-read so
// every caller reports the same final state.
func (s *PostgresStore) transitionOnce(ctx context.Context, id domain.VisitorID, query string, args ...any) (*models.Visitor, bool, error) {
	v, err := scanVisitor(s.db.QueryRowContext(ctx, query, args...))
	if err == nil {
		return v, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, false, fmt.Errorf("conditional transition: %w", err)
	}

	current, err := s.FindVisitor(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

// AppendScan inserts one audit entry. Scan records are never updated or
// deleted.
func (s *PostgresStore) AppendScan(ctx context.Context, rec models.ScanRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_records (id, visitor_id, event_id, scan_time, entry_type, result_status, device_info)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, uuid.UUID(rec.ID), uuid.UUID(rec.VisitorID), uuid.UUID(rec.EventID),
		rec.ScanTime, string(rec.EntryType), string(rec.ResultStatus), rec.DeviceInfo)
	if err != nil {
		return fmt.Errorf("append scan record: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListScans(ctx context.Context, visitorID domain.VisitorID) ([]models.ScanRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, visitor_id, event_id, scan_time, entry_type, result_status, device_info
		FROM scan_records
		WHERE visitor_id = $1
		ORDER BY scan_time ASC
	`, uuid.UUID(visitorID))
	if err != nil {
		return nil, fmt.Errorf("list scan records: %w", err)
	}
	defer rows.Close()

	var records []models.ScanRecord
	for rows.Next() {
		var (
			rec                     models.ScanRecord
			id, visitorID, eventID  uuid.UUID
			entryType, resultStatus string
		)
		if err := rows.Scan(&id, &visitorID, &eventID, &rec.ScanTime, &entryType, &resultStatus, &rec.DeviceInfo); err != nil {
			return nil, fmt.Errorf("scan scan record: %w", err)
		}
		rec.ID = domain.ScanID(id)
		rec.VisitorID = domain.VisitorID(visitorID)
		rec.EventID = domain.EventID(eventID)
		rec.EntryType = domain.EntryType(entryType)
		rec.ResultStatus = domain.ScanResult(resultStatus)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scan records: %w", err)
	}
	return records, nil
}

// CountVisitors reports the number of visitors for an event, in any status.
func (s *PostgresStore) CountVisitors(ctx context.Context, eventID domain.EventID) (int, error) {
	var count int
	err := tx.QuerierFrom(ctx, s.db).
		QueryRowContext(ctx, `SELECT COUNT(*) FROM visitors WHERE event_id = $1`, uuid.UUID(eventID)).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count visitors: %w", err)
	}
	return count, nil
}

type visitorRow interface {
	Scan(dest ...any) error
}

func scanVisitor(row visitorRow) (*models.Visitor, error) {
	var (
		v                          models.Visitor
		id, registrationID, evID   uuid.UUID
		status                     string
		checkInTime, checkOutTime  sql.NullTime
	)
	if err := row.Scan(&id, &registrationID, &evID, &v.Token, &v.EventTitle, &v.EventLocation,
		&v.EventStart, &v.EventEnd, &status, &checkInTime, &checkOutTime, &v.CreatedAt); err != nil {
		return nil, err
	}
	v.ID = domain.VisitorID(id)
	v.RegistrationID = domain.RegistrationID(registrationID)
	v.EventID = domain.EventID(evID)
	parsed, err := domain.ParseVisitorStatus(status)
	if err != nil {
		return nil, err
	}
	v.Status = parsed
	if checkInTime.Valid {
		v.CheckInTime = &checkInTime.Time
	}
	if checkOutTime.Valid {
		v.CheckOutTime = &checkOutTime.Time
	}
	return &v, nil
}
