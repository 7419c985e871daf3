// Package identity encodes visitor identifiers as the opaque tokens carried
// in QR badges. The token is the visitor's primary identifier rendered as a
// scannable string; there is no secondary lookup table.
//
// Canonical format: "tk1_" followed by the 16 uuid bytes in unpadded
// lowercase base32hex (26 characters). The versioned prefix leaves room for
// a future format change without breaking issued badges.
package identity

import (
	"encoding/base32"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"turnstile/pkg/domain"
)

const tokenPrefix = "tk1_"

// encodedLen is the length of 16 bytes in unpadded base32.
const encodedLen = 26

var encoding = base32.HexEncoding.WithPadding(base32.NoPadding)

// DecodeError reports a token that does not match the canonical format.
// Decoding never coerces: anything but the exact format is rejected.
type DecodeError struct {
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed identity token: %s", e.Reason)
}

// Encode renders a visitor id as its identity token. Pure and deterministic.
func Encode(id domain.VisitorID) string {
	u := uuid.UUID(id)
	return tokenPrefix + strings.ToLower(encoding.EncodeToString(u[:]))
}

// Decode parses a canonical identity token back into a visitor id. Returns a
// *DecodeError for any malformed input; it never panics and never guesses.
func Decode(token string) (domain.VisitorID, error) {
	if !strings.HasPrefix(token, tokenPrefix) {
		return domain.VisitorID{}, &DecodeError{Reason: "missing prefix"}
	}
	body := token[len(tokenPrefix):]
	if len(body) != encodedLen {
		return domain.VisitorID{}, &DecodeError{Reason: "wrong length"}
	}
	// Canonical tokens are lowercase; reject case variants so each visitor
	// id has exactly one token spelling.
	if body != strings.ToLower(body) {
		return domain.VisitorID{}, &DecodeError{Reason: "not canonical"}
	}
	raw, err := encoding.DecodeString(strings.ToUpper(body))
	if err != nil {
		return domain.VisitorID{}, &DecodeError{Reason: "invalid encoding"}
	}
	u, err := uuid.FromBytes(raw)
	if err != nil || u == uuid.Nil {
		return domain.VisitorID{}, &DecodeError{Reason: "invalid id"}
	}
	return domain.VisitorID(u), nil
}
