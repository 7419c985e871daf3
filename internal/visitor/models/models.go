package models

import (
	"time"

	"turnstile/pkg/domain"
)

// Answer is one form response: the question label as shown at submission
// time plus the submitted value.
type Answer struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Registration is the application for an event. It is immutable after
// creation except for the back-reference to the visitor created with it.
type Registration struct {
	ID      domain.RegistrationID
	EventID domain.EventID
	FormID  string
	Answers map[string]Answer
	Status  string
	// VisitorID back-references the visitor created in the same
	// transaction.
	VisitorID   domain.VisitorID
	SubmittedAt time.Time
}

// RegistrationStatus values. Registrations are confirmed at creation since
// registration and visitor are created together.
const RegistrationConfirmed = "confirmed"

// Visitor is the durable identity presented at the entrance. Event fields
// are denormalized at creation time so later event edits never retroactively
// change issued badges.
type Visitor struct {
	ID             domain.VisitorID
	RegistrationID domain.RegistrationID
	EventID        domain.EventID
	// Token is the identity codec's rendering of ID, as printed in the QR
	// badge.
	Token         string
	EventTitle    string
	EventLocation string
	EventStart    time.Time
	EventEnd      time.Time
	Status        domain.VisitorStatus
	CheckInTime   *time.Time
	CheckOutTime  *time.Time
	CreatedAt     time.Time
}

// ScanRecord is one entry in the append-only check-in audit trail. Multiple
// records per visitor are expected: they record attempts, while
// Visitor.Status records the single authoritative outcome.
type ScanRecord struct {
	ID           domain.ScanID
	VisitorID    domain.VisitorID
	EventID      domain.EventID
	ScanTime     time.Time
	EntryType    domain.EntryType
	ResultStatus domain.ScanResult
	DeviceInfo   string
}
