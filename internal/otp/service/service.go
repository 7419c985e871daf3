// Package service implements the OTP gate: issuing short-lived verification
// codes and consuming them with a durable attempt budget.
package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"regexp"
	"time"

	"golang.org/x/crypto/bcrypt"

	otpmetrics "turnstile/internal/otp/metrics"
	"turnstile/internal/otp/models"
	"turnstile/internal/notify"
	"turnstile/pkg/domain"
	dErrors "turnstile/pkg/domain-errors"
	audit "turnstile/pkg/platform/audit"
	"turnstile/pkg/platform/sentinel"
	"turnstile/pkg/requestcontext"
)

// ChallengeStore persists OTP challenges. Implementations return
// sentinel.ErrNotFound when no live challenge exists for an email.
type ChallengeStore interface {
	Put(ctx context.Context, ch models.Challenge) error
	Get(ctx context.Context, email domain.Email) (*models.Challenge, error)
	IncrementAttempts(ctx context.Context, email domain.Email) (int, error)
	Delete(ctx context.Context, email domain.Email) error
}

// AuditPublisher records gate events.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// VerifyOutcome is the result category of a verification attempt.
// Infrastructure failures are reported as errors, never as outcomes, so
// callers cannot mistake "storage unreachable" for "code was wrong".
type VerifyOutcome string

const (
	VerifySuccess         VerifyOutcome = "success"
	VerifyInvalidCode     VerifyOutcome = "invalid_code"
	VerifyExpired         VerifyOutcome = "expired"
	VerifyTooManyAttempts VerifyOutcome = "too_many_attempts"
)

// VerifyResult reports the outcome of one verification attempt.
type VerifyResult struct {
	Outcome VerifyOutcome
	// AttemptsRemaining is meaningful only for VerifyInvalidCode.
	AttemptsRemaining int
}

var codePattern = regexp.MustCompile(`^[0-9]{6}$`)

// Service is the OTP gate.
type Service struct {
	store    ChallengeStore
	sender   notify.Sender
	logger   *slog.Logger
	metrics  *otpmetrics.Metrics
	auditPub AuditPublisher
	ttl      time.Duration
	inflight *inflight
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *otpmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithAuditPublisher(pub AuditPublisher) Option {
	return func(s *Service) { s.auditPub = pub }
}

// WithTTL overrides the challenge lifetime. Used by tests; production keeps
// the fixed 10-minute window.
func WithTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

func New(store ChallengeStore, sender notify.Sender, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("challenge store is required")
	}
	if sender == nil {
		return nil, fmt.Errorf("notification sender is required")
	}

	svc := &Service{
		store:    store,
		sender:   sender,
		logger:   slog.Default(),
		ttl:      models.ChallengeTTL,
		inflight: newInflight(),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// RequestCode issues a fresh challenge for the email, replacing any previous
// one, and hands the code to the notification sender. An undeliverable code
// rolls the stored challenge back so no unconfirmable challenge lingers.
func (s *Service) RequestCode(ctx context.Context, email domain.Email) error {
	if email.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}

	code, err := generateCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not generate code")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "could not hash code")
	}

	now := requestcontext.Now(ctx)
	ch := models.Challenge{
		Email:     email,
		CodeHash:  string(hash),
		ExpiresAt: now.Add(s.ttl),
		Attempts:  0,
	}
	if err := s.store.Put(ctx, ch); err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not store challenge")
	}

	subject, body := notify.VerificationMessage(email, code, s.ttl)
	if err := s.sender.Send(ctx, email, subject, body); err != nil {
		if delErr := s.store.Delete(ctx, email); delErr != nil {
			s.logger.ErrorContext(ctx, "challenge rollback failed after undeliverable code",
				"email", email, "error", delErr)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "could not deliver verification code")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: now,
		Action:    string(audit.EventOTPRequested),
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
	})
	if s.metrics != nil {
		s.metrics.ChallengesIssued.Inc()
	}
	return nil
}

// Verify consumes one attempt against the live challenge for the email.
//
// The attempt counter is incremented durably before the code comparison, so
// a crash between increment and compare still spends the attempt. The
// per-(email, code) in-flight guard only suppresses duplicate submits within
// this process; correctness under concurrent instances rests on the store's
// atomic increment.
func (s *Service) Verify(ctx context.Context, email domain.Email, code string) (*VerifyResult, error) {
	if email.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	if !codePattern.MatchString(code) {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "code must be 6 digits")
	}

	key := email.String() + "|" + code
	if !s.inflight.tryAcquire(key) {
		return nil, dErrors.New(dErrors.CodeRateLimited, "verification already in progress")
	}
	defer s.inflight.release(key)

	start := time.Now()
	result, err := s.verify(ctx, email, code)
	if s.metrics != nil {
		s.metrics.VerifyDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
		if result != nil {
			s.metrics.VerifyOutcomes.WithLabelValues(string(result.Outcome)).Inc()
		}
	}
	return result, err
}

func (s *Service) verify(ctx context.Context, email domain.Email, code string) (*VerifyResult, error) {
	now := requestcontext.Now(ctx)

	ch, err := s.store.Get(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &VerifyResult{Outcome: VerifyExpired}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not load challenge")
	}
	if ch.Expired(now) {
		if err := s.store.Delete(ctx, email); err != nil {
			s.logger.WarnContext(ctx, "expired challenge cleanup failed", "email", email, "error", err)
		}
		return &VerifyResult{Outcome: VerifyExpired}, nil
	}

	// Spend the attempt before looking at the code.
	attempts, err := s.store.IncrementAttempts(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return &VerifyResult{Outcome: VerifyExpired}, nil
		}
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not record attempt")
	}
	if attempts > models.MaxAttempts {
		if err := s.store.Delete(ctx, email); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not discard challenge")
		}
		s.emitRejected(ctx, now, email, "attempt budget exhausted")
		return &VerifyResult{Outcome: VerifyTooManyAttempts}, nil
	}

	if bcrypt.CompareHashAndPassword([]byte(ch.CodeHash), []byte(code)) != nil {
		remaining := models.MaxAttempts - attempts
		if remaining == 0 {
			// The budget is gone; drop the challenge now rather than on the
			// next (doomed) attempt.
			if err := s.store.Delete(ctx, email); err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not discard challenge")
			}
			s.emitRejected(ctx, now, email, "attempt budget exhausted")
			return &VerifyResult{Outcome: VerifyTooManyAttempts}, nil
		}
		s.emitRejected(ctx, now, email, "wrong code")
		return &VerifyResult{Outcome: VerifyInvalidCode, AttemptsRemaining: remaining}, nil
	}

	if err := s.store.Delete(ctx, email); err != nil {
		// The challenge must not survive a successful match.
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not consume challenge")
	}

	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: now,
		Action:    string(audit.EventOTPVerified),
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
	})
	return &VerifyResult{Outcome: VerifySuccess}, nil
}

func (s *Service) emitRejected(ctx context.Context, now time.Time, email domain.Email, detail string) {
	s.emit(ctx, audit.Event{
		Category:  audit.CategorySecurity,
		Timestamp: now,
		Action:    string(audit.EventOTPRejected),
		Email:     email,
		RequestID: requestcontext.RequestID(ctx),
		Detail:    detail,
	})
}

func (s *Service) emit(ctx context.Context, event audit.Event) {
	if s.auditPub == nil {
		return
	}
	if err := s.auditPub.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", event.Action, "error", err)
	}
}

// generateCode draws an unpredictable 6-digit code.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n), nil
}
