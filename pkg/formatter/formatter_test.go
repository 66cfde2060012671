package formatter_test

import (
	"testing"
	"time"

	"github.com/ozimiz/ozimiz-telegram-bot/pkg/formatter"
	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := map[int]string{
		0:        "0",
		7:        "7",
		999:      "999",
		1000:     "1,000",
		1234567:  "1,234,567",
		-1234567: "-1,234,567",
	}
	for n, want := range tests {
		assert.Equal(t, want, formatter.FormatNumber(n))
	}
}

func TestEscapeMarkdownV2(t *testing.T) {
	assert.Equal(t, `a\.b\*c\_d`, formatter.EscapeMarkdownV2("a.b*c_d"))
	assert.Equal(t, "plain text", formatter.EscapeMarkdownV2("plain text"))
}

func TestFormatTimeAgo(t *testing.T) {
	now := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		ago  time.Duration
		want string
	}{
		{30 * time.Second, "just now"},
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{48 * time.Hour, "2d ago"},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, formatter.FormatTimeAgo(now.Add(-tc.ago), now))
	}

	old := now.Add(-90 * 24 * time.Hour)
	assert.Equal(t, old.Format("Jan 2, 2006"), formatter.FormatTimeAgo(old, now))
}
