package models

import (
	"time"

	"turnstile/pkg/domain"
)

const (
	// ChallengeTTL is the fixed lifetime of a verification code.
	ChallengeTTL = 10 * time.Minute

	// MaxAttempts is the verification attempt budget per challenge.
	MaxAttempts = 3
)

// Challenge is a pending email verification. At most one live challenge
// exists per email; requesting a new code replaces the previous challenge.
// The code itself is never stored, only its bcrypt hash.
type Challenge struct {
	Email     domain.Email
	CodeHash  string
	ExpiresAt time.Time
	Attempts  int
}

// Expired reports whether the challenge's window has passed.
func (c *Challenge) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
