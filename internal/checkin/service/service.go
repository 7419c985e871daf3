// Package service implements the check-in engine: moving visitors through
// the lifecycle with at-most-once transitions and an append-only trail of
// scan attempts.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	checkinmetrics "turnstile/internal/checkin/metrics"
	"turnstile/internal/identity"
	"turnstile/internal/visitor/models"
	"turnstile/pkg/domain"
	dErrors "turnstile/pkg/domain-errors"
	audit "turnstile/pkg/platform/audit"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/requestcontext"
)

// VisitorStore provides the conditional-update primitives the engine builds
// on. The store, not this service, is the serialization point: the engine
// never takes locks around a transition.
type VisitorStore interface {
	FindVisitor(ctx context.Context, id domain.VisitorID) (*models.Visitor, error)
	CheckInOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error)
	CheckOutOnce(ctx context.Context, id domain.VisitorID, at time.Time) (*models.Visitor, bool, error)
	CancelOnce(ctx context.Context, id domain.VisitorID) (*models.Visitor, bool, error)
	AppendScan(ctx context.Context, rec models.ScanRecord) error
	ListScans(ctx context.Context, visitorID domain.VisitorID) ([]models.ScanRecord, error)
}

// AuditPublisher records lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Result reports one check-in attempt.
type Result struct {
	// Transitioned is true when this attempt performed the
	// registered → checked_in transition.
	Transitioned bool
	// AlreadyCheckedIn is true for duplicate attempts; the visitor snapshot
	// then carries the original check-in time.
	AlreadyCheckedIn bool
	Visitor          *models.Visitor
}

// Service is the check-in engine.
type Service struct {
	store    VisitorStore
	logger   *slog.Logger
	metrics  *checkinmetrics.Metrics
	auditPub AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *checkinmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

func New(visitorStore VisitorStore, opts ...Option) (*Service, error) {
	if visitorStore == nil {
		return nil, fmt.Errorf("visitor store is required")
	}

	svc := &Service{
		store:  visitorStore,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CheckInByToken decodes a scanned badge token and checks the visitor in.
// Malformed tokens are bad requests; they never reach the store.
func (s *Service) CheckInByToken(ctx context.Context, token, deviceInfo string) (*Result, error) {
	visitorID, err := identity.Decode(token)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "unreadable badge token")
	}
	return s.CheckIn(ctx, visitorID, domain.EntryQR, deviceInfo)
}

// CheckIn applies the registered → checked_in transition for the visitor.
//
// Exactly-once: the store's conditional update decides the winner among
// concurrent attempts. A duplicate attempt is an idempotent success carrying
// the settled snapshot, never an error. Each attempt appends a scan record;
// a failed append after the transition committed is logged and swallowed so
// the visitor is never told their committed check-in failed.
func (s *Service) CheckIn(ctx context.Context, visitorID domain.VisitorID, entryType domain.EntryType, deviceInfo string) (*Result, error) {
	if visitorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "visitor id is required")
	}
	now := requestcontext.Now(ctx)

	visitor, applied, err := s.store.CheckInOnce(ctx, visitorID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not check in")
	}

	if applied {
		s.appendScan(ctx, visitor, now, entryType, domain.ScanCheckedIn, deviceInfo)
		s.emit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Timestamp: now,
			Action:    string(audit.EventVisitorCheckedIn),
			VisitorID: visitor.ID,
			EventID:   visitor.EventID,
			RequestID: requestcontext.RequestID(ctx),
			Detail:    entryType.String(),
		})
		s.countScan(entryType, domain.ScanCheckedIn)
		return &Result{Transitioned: true, Visitor: visitor}, nil
	}

	switch visitor.Status {
	case domain.StatusCheckedIn, domain.StatusCheckedOut:
		// Duplicate scan. The settled snapshot goes back to the scanner so
		// staff see the original check-in time, not an error.
		s.appendScan(ctx, visitor, now, entryType, domain.ScanDuplicate, deviceInfo)
		s.emit(ctx, audit.Event{
			Category:  audit.CategoryOperations,
			Timestamp: now,
			Action:    string(audit.EventDuplicateScan),
			VisitorID: visitor.ID,
			EventID:   visitor.EventID,
			RequestID: requestcontext.RequestID(ctx),
			Detail:    entryType.String(),
		})
		s.countScan(entryType, domain.ScanDuplicate)
		return &Result{AlreadyCheckedIn: true, Visitor: visitor}, nil
	default:
		s.appendScan(ctx, visitor, now, entryType, domain.ScanRejected, deviceInfo)
		s.countScan(entryType, domain.ScanRejected)
		return nil, dErrors.New(dErrors.CodeConflict, "registration is cancelled")
	}
}

// CheckOut applies checked_in → checked_out. Repeated check-outs are
// idempotent; checking out a visitor who never checked in is a conflict.
func (s *Service) CheckOut(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, error) {
	if visitorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "visitor id is required")
	}
	now := requestcontext.Now(ctx)

	visitor, applied, err := s.store.CheckOutOnce(ctx, visitorID, now)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not check out")
	}
	if !applied {
		if visitor.Status == domain.StatusCheckedOut {
			return visitor, nil
		}
		return nil, dErrors.New(dErrors.CodeConflict, "visitor is not checked in")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		Action:    string(audit.EventVisitorCheckedOut),
		VisitorID: visitor.ID,
		EventID:   visitor.EventID,
		RequestID: requestcontext.RequestID(ctx),
	})
	if s.metrics != nil {
		s.metrics.CheckOuts.Inc()
	}
	return visitor, nil
}

// Cancel applies registered → cancelled. Repeated cancels are idempotent;
// cancelling after check-in is a conflict.
func (s *Service) Cancel(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, error) {
	if visitorID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "visitor id is required")
	}
	now := requestcontext.Now(ctx)

	visitor, applied, err := s.store.CancelOnce(ctx, visitorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not cancel")
	}
	if !applied {
		if visitor.Status == domain.StatusCancelled {
			return visitor, nil
		}
		return nil, dErrors.New(dErrors.CodeConflict, "visitor already checked in")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		Action:    string(audit.EventVisitorCancelled),
		VisitorID: visitor.ID,
		EventID:   visitor.EventID,
		RequestID: requestcontext.RequestID(ctx),
	})
	if s.metrics != nil {
		s.metrics.Cancellations.Inc()
	}
	return visitor, nil
}

// GetVisitor returns the visitor snapshot together with its scan history.
func (s *Service) GetVisitor(ctx context.Context, visitorID domain.VisitorID) (*models.Visitor, []models.ScanRecord, error) {
	if visitorID.IsNil() {
		return nil, nil, dErrors.New(dErrors.CodeInvalidInput, "visitor id is required")
	}

	visitor, err := s.store.FindVisitor(ctx, visitorID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "visitor not found")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not load visitor")
	}
	scans, err := s.store.ListScans(ctx, visitorID)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not load scan history")
	}
	return visitor, scans, nil
}

func (s *Service) appendScan(ctx context.Context, v *models.Visitor, at time.Time, entryType domain.EntryType, result domain.ScanResult, deviceInfo string) {
	rec := models.ScanRecord{
		ID:           domain.NewScanID(),
		VisitorID:    v.ID,
		EventID:      v.EventID,
		ScanTime:     at,
		EntryType:    entryType,
		ResultStatus: result,
		DeviceInfo:   deviceInfo,
	}
	if err := s.store.AppendScan(ctx, rec); err != nil {
		s.logger.ErrorContext(ctx, "scan record append failed",
			"visitor_id", v.ID, "result", result, "error", err)
	}
}

func (s *Service) countScan(entryType domain.EntryType, result domain.ScanResult) {
	if s.metrics != nil {
		s.metrics.Scans.WithLabelValues(entryType.String(), result.String()).Inc()
	}
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
