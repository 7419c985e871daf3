package domain

import (
	"github.com/google/uuid"

	dErrors "turnstile/pkg/domain-errors"
)

// Typed identifiers for the core records. Wrapping uuid.UUID keeps an
// EventID from being passed where a VisitorID is expected.
type (
	VisitorID      uuid.UUID
	EventID        uuid.UUID
	RegistrationID uuid.UUID
	ScanID         uuid.UUID
)

// NewVisitorID allocates a fresh visitor identifier.
func NewVisitorID() VisitorID { return VisitorID(uuid.New()) }

// NewEventID allocates a fresh event identifier.
func NewEventID() EventID { return EventID(uuid.New()) }

// NewRegistrationID allocates a fresh registration identifier.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewScanID allocates a fresh scan record identifier.
func NewScanID() ScanID { return ScanID(uuid.New()) }

// ParseVisitorID constructs a VisitorID from external input. Nil UUIDs are
// rejected: a zero id is never a real record.
func ParseVisitorID(s string) (VisitorID, error) {
	u, err := parseUUID(s, "invalid visitor id")
	if err != nil {
		return VisitorID{}, err
	}
	return VisitorID(u), nil
}

// ParseEventID constructs an EventID from external input.
func ParseEventID(s string) (EventID, error) {
	u, err := parseUUID(s, "invalid event id")
	if err != nil {
		return EventID{}, err
	}
	return EventID(u), nil
}

// ParseRegistrationID constructs a RegistrationID from external input.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := parseUUID(s, "invalid registration id")
	if err != nil {
		return RegistrationID{}, err
	}
	return RegistrationID(u), nil
}

func parseUUID(s, msg string) (uuid.UUID, error) {
	u, err := uuid.Parse(s)
	if err != nil || u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, msg)
	}
	return u, nil
}

func (id VisitorID) String() string      { return uuid.UUID(id).String() }
func (id EventID) String() string        { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id ScanID) String() string         { return uuid.UUID(id).String() }

func (id VisitorID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id EventID) IsNil() bool        { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ScanID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
