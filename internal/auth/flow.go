package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
)

var (
	ErrInvalidIdentifier = errors.New("enter a valid phone number or email")
	ErrInvalidCode       = errors.New("malformed verification code")
	ErrNoActiveFlow      = errors.New("no login in progress")
	ErrOAuthPending      = errors.New("no pending Google login for this chat")
)

// CountdownActiveError rejects a resend while the countdown is running.
type CountdownActiveError struct {
	Remaining time.Duration
}

func (e *CountdownActiveError) Error() string {
	return fmt.Sprintf("resend available in %d seconds", int(e.Remaining.Seconds()))
}

type Step int

const (
	StepInput Step = iota
	StepVerification
)

// CodeMode is the tagged variant selecting how the verification step
// behaves. Exactly one mode is active at a time; only FreshCode carries a
// resend deadline.
type CodeMode int

const (
	// ModeFreshCode: a code was just sent, resend is gated by the countdown.
	ModeFreshCode CodeMode = iota
	// ModeManualRequest: a registered user must enter a previously sent code
	// or explicitly request a new one (force-send). No countdown.
	ModeManualRequest
	// ModeExistingCode: a still-valid code exists, the user should enter it.
	// Resend is available immediately, no countdown.
	ModeExistingCode
)

// flow is the per-chat state of the unified authentication flow.
type flow struct {
	step           Step
	identifier     string
	idType         domain.IdentifierType
	isNewUser      bool
	mode           CodeMode
	resendDeadline time.Time
	oauthPending   bool
}

// State is a read-only snapshot handed to the presentation layer.
type State struct {
	Step       Step
	Mode       CodeMode
	Identifier string
	Type       domain.IdentifierType
	IsNewUser  bool
	// CodeLength is how many digits the verification code carries.
	CodeLength int
	// ResendIn is the remaining countdown; zero when resend is available.
	ResendIn time.Duration
}
