package models

import (
	"time"

	"turnstile/pkg/domain"
)

// Event is a catalog entry. The core reads events but never writes them;
// event management lives in a separate system.
type Event struct {
	ID       domain.EventID
	Title    string
	Location string
	// FormID is nil for events that never attached a registration form;
	// such events cannot accept registrations.
	FormID    *string
	Capacity  int
	StartDate time.Time
	EndDate   time.Time
}
