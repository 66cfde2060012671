package auth

import (
	"regexp"
	"strings"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

var emailPattern = regexp.MustCompile(`^[^@]+@[^@]+\.[a-zA-Z]{2,}$`)

// ClassifyIdentifier decides whether raw input is an email or a phone number
// and normalizes it. Anything that is neither is rejected here, before any
// network call.
//
// Emails are lower-cased. Phone numbers must normalize to 10 or 11 digits
// and are rewritten to +7 international form: a leading 8 in an 11-digit
// number becomes 7, a 10-digit number gets the 7 country code prepended.
func ClassifyIdentifier(raw string) (string, domain.IdentifierType, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", "", ErrInvalidIdentifier
	}

	if emailPattern.MatchString(trimmed) {
		return strings.ToLower(trimmed), domain.IdentifierEmail, nil
	}

	digits := digitsOnly(trimmed)
	if len(digits) < 10 || len(digits) > 11 {
		return "", "", ErrInvalidIdentifier
	}

	switch {
	case len(digits) == 11 && digits[0] == '8':
		digits = "7" + digits[1:]
	case len(digits) == 10:
		digits = "7" + digits
	}

	return "+" + digits, domain.IdentifierPhone, nil
}

func digitsOnly(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
