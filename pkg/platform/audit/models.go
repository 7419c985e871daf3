package audit

import (
	"context"
	"time"

	"turnstile/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategorySecurity covers events relevant to abuse monitoring.
	// Examples: OTP rejections, exhausted attempt budgets.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and operational
	// visibility. Examples: registrations, check-ins, duplicate scans.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key visitor-lifecycle
// actions. Keep it transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	Action    string
	// VisitorID is set for registration and check-in events.
	VisitorID domain.VisitorID
	EventID   domain.EventID
	// Email is set for OTP gate events, before a visitor exists.
	Email domain.Email
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// Detail carries a short human-readable qualifier (e.g. the scan result).
	Detail string
}

// Lifecycle audit actions.
type AuditEvent string

const (
	EventOTPRequested      AuditEvent = "otp_requested"
	EventOTPVerified       AuditEvent = "otp_verified"
	EventOTPRejected       AuditEvent = "otp_rejected"
	EventVisitorRegistered AuditEvent = "visitor_registered"
	EventVisitorCheckedIn  AuditEvent = "visitor_checked_in"
	EventDuplicateScan     AuditEvent = "duplicate_scan"
	EventVisitorCheckedOut AuditEvent = "visitor_checked_out"
	EventVisitorCancelled  AuditEvent = "visitor_cancelled"
)

// Store persists audit events. Append-only by contract.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByVisitor(ctx context.Context, visitorID domain.VisitorID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
