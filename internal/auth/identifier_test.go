package auth_test

import (
	"testing"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/auth"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyIdentifier(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		normalized string
		idType     domain.IdentifierType
	}{
		{"email", "User@Example.COM", "user@example.com", domain.IdentifierEmail},
		{"email with plus tag", "user+tag@mail.org", "user+tag@mail.org", domain.IdentifierEmail},
		{"11 digits leading 7", "77012345678", "+77012345678", domain.IdentifierPhone},
		{"11 digits leading 8", "87012345678", "+77012345678", domain.IdentifierPhone},
		{"10 digits", "7012345678", "+77012345678", domain.IdentifierPhone},
		{"formatted with spaces", "+7 701 234 56 78", "+77012345678", domain.IdentifierPhone},
		{"formatted with dashes", "8-701-234-56-78", "+77012345678", domain.IdentifierPhone},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			normalized, idType, err := auth.ClassifyIdentifier(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.normalized, normalized)
			assert.Equal(t, tc.idType, idType)
		})
	}
}

func TestClassifyIdentifierRejects(t *testing.T) {
	for _, raw := range []string{
		"",
		"   ",
		"not-an-email",
		"missing@tld",
		"@example.com",
		"12345",         // too short
		"123456789012",  // too long
		"hello world 1", // words with a stray digit
	} {
		t.Run(raw, func(t *testing.T) {
			_, _, err := auth.ClassifyIdentifier(raw)
			assert.ErrorIs(t, err, auth.ErrInvalidIdentifier)
		})
	}
}
