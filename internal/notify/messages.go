package notify

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"turnstile/pkg/domain"
)

// VerificationMessage builds the OTP delivery mail.
func VerificationMessage(to domain.Email, code string, ttl time.Duration) (subject, body string) {
	subject = "Your verification code"
	body = fmt.Sprintf(
		"Hi %s,\n\nYour verification code is %s. It expires in %d minutes.\n\nIf you did not request this code, you can ignore this message.\n",
		greetingName(to), code, int(ttl.Minutes()),
	)
	return subject, body
}

// RegistrationConfirmation builds the post-registration mail carrying the
// badge token. Sent best-effort after the registration commits.
func RegistrationConfirmation(to domain.Email, eventTitle, token string) (subject, body string) {
	subject = fmt.Sprintf("You're registered for %s", eventTitle)
	body = fmt.Sprintf(
		"Hi %s,\n\nYour registration for %s is confirmed. Present this code at the entrance:\n\n    %s\n\nSee you there!\n",
		greetingName(to), eventTitle, token,
	)
	return subject, body
}

// greetingName derives a display name from the address's local part.
func greetingName(email domain.Email) string {
	localPart := email.String()
	if at := strings.IndexByte(localPart, '@'); at > 0 {
		localPart = localPart[:at]
	}

	parts := strings.FieldsFunc(localPart, func(r rune) bool {
		return r == '.' || r == '_' || r == '-' || r == '+'
	})
	if len(parts) == 0 {
		return "there"
	}
	return capitalize(parts[0])
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
