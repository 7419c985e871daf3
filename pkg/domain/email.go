package domain

import (
	"strings"

	dErrors "turnstile/pkg/domain-errors"
)

// Email is a normalized (trimmed, lowercased) email address.
//
// Usage: construct via ParseEmail at trust boundaries; direct casting
// bypasses normalization and validation.
type Email string

// ParseEmail normalizes and validates an email address from external input.
//
// Validation is deliberately shallow (one '@', non-empty local and domain
// parts, domain contains a dot): deliverability is proven by the OTP round
// trip, not by syntax checking.
func ParseEmail(s string) (Email, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "email is required")
	}
	at := strings.IndexByte(s, '@')
	if at <= 0 || at == len(s)-1 || strings.IndexByte(s[at+1:], '@') != -1 {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	if !strings.Contains(s[at+1:], ".") {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid email address")
	}
	return Email(s), nil
}

func (e Email) String() string { return string(e) }

func (e Email) IsNil() bool { return e == "" }
