package domain

import (
	dErrors "turnstile/pkg/domain-errors"
)

// VisitorStatus is the visitor lifecycle state. Transitions move only
// forward: registered → checked_in → checked_out, or registered → cancelled.
type VisitorStatus string

const (
	StatusRegistered VisitorStatus = "registered"
	StatusCheckedIn  VisitorStatus = "checked_in"
	StatusCheckedOut VisitorStatus = "checked_out"
	StatusCancelled  VisitorStatus = "cancelled"
)

// validStatuses is the single source of truth for valid visitor statuses.
var validStatuses = map[VisitorStatus]bool{
	StatusRegistered: true,
	StatusCheckedIn:  true,
	StatusCheckedOut: true,
	StatusCancelled:  true,
}

// ParseVisitorStatus constructs a VisitorStatus from external input (e.g. a
// database row).
func ParseVisitorStatus(s string) (VisitorStatus, error) {
	st := VisitorStatus(s)
	if !validStatuses[st] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown visitor status")
	}
	return st, nil
}

func (s VisitorStatus) IsValid() bool { return validStatuses[s] }

func (s VisitorStatus) String() string { return string(s) }

// IsTerminal reports whether no further transition is possible.
func (s VisitorStatus) IsTerminal() bool {
	return s == StatusCheckedOut || s == StatusCancelled
}

// CanTransitionTo encodes the full state machine in one exhaustive place so
// call sites never compare status strings ad hoc.
func (s VisitorStatus) CanTransitionTo(next VisitorStatus) bool {
	switch s {
	case StatusRegistered:
		return next == StatusCheckedIn || next == StatusCancelled
	case StatusCheckedIn:
		return next == StatusCheckedOut
	case StatusCheckedOut, StatusCancelled:
		return false
	default:
		return false
	}
}

// EntryType tags how a check-in attempt reached the engine.
type EntryType string

const (
	EntryQR     EntryType = "qr"
	EntryManual EntryType = "manual"
)

// ParseEntryType constructs an EntryType from external input.
func ParseEntryType(s string) (EntryType, error) {
	switch t := EntryType(s); t {
	case EntryQR, EntryManual:
		return t, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown entry type")
	}
}

func (t EntryType) String() string { return string(t) }

// ScanResult records the outcome of a single check-in attempt in the audit
// trail. The visitor's status stays authoritative; scan results only record
// what each attempt observed.
type ScanResult string

const (
	ScanCheckedIn ScanResult = "checked_in"
	ScanDuplicate ScanResult = "duplicate"
	ScanRejected  ScanResult = "rejected"
)

func (r ScanResult) String() string { return string(r) }
