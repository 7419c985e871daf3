// Package store persists visitors, registrations, and scan records.
//
// Two storage-level guarantees live here:
//
//   - Register runs count-then-insert under the event row lock, so two
//     concurrent registrations for a nearly-full event cannot both pass the
//     capacity check.
//   - CheckInOnce (and its check-out/cancel siblings) is a single
//     conditional update; whichever concurrent request the store applies
//     first wins the transition, with no application-level lock involved.
package store

import (
	eventmodels "turnstile/internal/event/models"
	"turnstile/internal/visitor/models"
)

// RegisterFunc builds the registration and visitor documents once the event
// snapshot and current visitor count are known. Returning an error aborts
// the transaction; nothing becomes visible to readers.
type RegisterFunc func(ev *eventmodels.Event, visitorCount int) (*models.Registration, *models.Visitor, error)
