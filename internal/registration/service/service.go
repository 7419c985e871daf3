// Package service orchestrates event registration: one transactional unit
// covering the capacity check and the creation of the registration and
// visitor records, followed by best-effort confirmation delivery.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	eventmodels "turnstile/internal/event/models"
	"turnstile/internal/identity"
	"turnstile/internal/notify"
	regmetrics "turnstile/internal/registration/metrics"
	"turnstile/internal/visitor/models"
	"turnstile/internal/visitor/store"
	"turnstile/pkg/domain"
	dErrors "turnstile/pkg/domain-errors"
	audit "turnstile/pkg/platform/audit"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/requestcontext"
)

// VisitorStore is the transactional registration boundary.
type VisitorStore interface {
	Register(ctx context.Context, eventID domain.EventID, fn store.RegisterFunc) (*models.Visitor, error)
}

// AuditPublisher records lifecycle events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service is the registration orchestrator.
type Service struct {
	store    VisitorStore
	sender   notify.Sender
	logger   *slog.Logger
	metrics  *regmetrics.Metrics
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

func WithMetrics(m *regmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

func New(visitorStore VisitorStore, sender notify.Sender, opts ...Option) (*Service, error) {
	if visitorStore == nil {
		return nil, fmt.Errorf("visitor store is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender is required")
	}

	svc := &Service{
		store:  visitorStore,
		sender: sender,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Register creates a registration and its visitor for the event, enforcing
// capacity inside the store's transactional unit. email is the verified
// address from the OTP gate; the confirmation goes there after commit.
//
// The capacity decision and both inserts share one transaction, so two
// concurrent registrations for the last seat cannot both succeed, and a
// failure never leaves a registration without its visitor.
func (s *Service) Register(ctx context.Context, eventID domain.EventID, email domain.Email, answers map[string]models.Answer) (*models.Visitor, error) {
	if eventID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "event id is required")
	}
	if email.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}

	now := requestcontext.Now(ctx)

	visitor, err := s.store.Register(ctx, eventID, func(ev *eventmodels.Event, visitorCount int) (*models.Registration, *models.Visitor, error) {
		if ev.FormID == nil {
			return nil, nil, dErrors.New(dErrors.CodeInvariantViolation, "event has no registration form")
		}
		if visitorCount >= ev.Capacity {
			return nil, nil, dErrors.New(dErrors.CodeConflict, "event is full")
		}

		regID := domain.NewRegistrationID()
		visitorID := domain.NewVisitorID()
		reg := &models.Registration{
			ID:          regID,
			EventID:     ev.ID,
			FormID:      *ev.FormID,
			Answers:     answers,
			Status:      models.RegistrationConfirmed,
			SubmittedAt: now,
		}
		// Event fields are denormalized from the locked snapshot so later
		// catalog edits never change an issued badge.
		v := &models.Visitor{
			ID:             visitorID,
			RegistrationID: regID,
			EventID:        ev.ID,
			Token:          identity.Encode(visitorID),
			EventTitle:     ev.Title,
			EventLocation:  ev.Location,
			EventStart:     ev.StartDate,
			EventEnd:       ev.EndDate,
			Status:         domain.StatusRegistered,
			CreatedAt:      now,
		}
		return reg, v, nil
	})
	if err != nil {
		return nil, s.translateRegisterError(err)
	}

	// The registration is committed; confirmation delivery is best-effort
	// and must never undo it.
	subject, body := notify.RegistrationConfirmation(email, visitor.EventTitle, visitor.Token)
	if sendErr := s.sender.Send(ctx, email, subject, body); sendErr != nil {
		s.logger.ErrorContext(ctx, "registration confirmation delivery failed",
			"visitor_id", visitor.ID, "email", email, "error", sendErr)
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategoryOperations,
		Timestamp: now,
		Action:    string(audit.EventVisitorRegistered),
		VisitorID: visitor.ID,
		EventID:   visitor.EventID,
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
	})
	if s.metrics != nil {
		s.metrics.Registered.Inc()
	}
	return visitor, nil
}

func (s *Service) translateRegisterError(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "event not found")
	}
	var dErr *dErrors.Error
	if errors.As(err, &dErr) {
		if s.metrics != nil {
			switch dErr.Code {
			case dErrors.CodeConflict:
				s.metrics.Rejected.WithLabelValues("event_full").Inc()
			case dErrors.CodeInvariantViolation:
				s.metrics.Rejected.WithLabelValues("no_form").Inc()
			}
		}
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not complete registration")
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}
