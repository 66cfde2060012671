package auth

import (
	"context"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

// Service drives the unified phone/email/Google login flow, one state
// machine per chat:
//
//	Input -> Verification -> (authenticated | Input)
//
// Identifier and code validation happen before any network call; the
// verification step runs in one of three modes (see CodeMode).
type Service struct {
	api        api.Client
	sessions   *session.Manager
	clock      clockwork.Clock
	countdown  time.Duration
	codeLength int
	logger     logger.Logger

	mu    sync.Mutex
	flows map[int64]*flow
}

type Opts struct {
	fx.In

	Api      api.Client
	Sessions *session.Manager
	Clock    clockwork.Clock
	Config   *config.Config
	Logger   logger.Logger
}

func New(opts Opts) *Service {
	return &Service{
		api:        opts.Api,
		sessions:   opts.Sessions,
		clock:      opts.Clock,
		countdown:  opts.Config.Auth.ResendCountdown,
		codeLength: opts.Config.Auth.CodeLength,
		logger:     opts.Logger.WithComponent("AuthFlow"),
		flows:      make(map[int64]*flow),
	}
}

// State returns a snapshot of the chat's flow, if one is in progress.
func (s *Service) State(chatID int64) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.flows[chatID]
	if !ok {
		return State{}, false
	}
	return s.snapshot(f), true
}

// Begin puts the chat into the identifier-input step, dropping any previous
// flow state.
func (s *Service) Begin(chatID int64) State {
	s.mu.Lock()
	defer s.mu.Unlock()

	f := &flow{step: StepInput}
	s.flows[chatID] = f
	return s.snapshot(f)
}

// SubmitIdentifier validates and classifies the identifier, requests a
// verification code and enters the verification step. The server's response
// flags pick the verification mode.
func (s *Service) SubmitIdentifier(ctx context.Context, chatID int64, raw string) (State, error) {
	normalized, idType, err := ClassifyIdentifier(raw)
	if err != nil {
		return State{}, err
	}

	resp, err := s.api.RequestCode(ctx, normalized)
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f := &flow{
		step:       StepVerification,
		identifier: resp.Identifier,
		idType:     idType,
		isNewUser:  resp.IsNewUser,
	}
	if resp.Type != "" {
		f.idType = resp.Type
	}

	switch {
	case resp.RequiresManualCodeRequest:
		f.mode = ModeManualRequest
	case resp.HasExistingCode && !resp.IsNewUser:
		f.mode = ModeExistingCode
	default:
		// A fresh code was just sent (covers the new-user case too).
		f.mode = ModeFreshCode
		f.resendDeadline = s.clock.Now().Add(s.countdown)
	}

	s.flows[chatID] = f
	s.logger.Info("Verification step entered",
		"chat_id", chatID, "type", f.idType, "new_user", f.isNewUser, "mode", int(f.mode))
	return s.snapshot(f), nil
}

// SubmitCode validates the code client-side against the configured length,
// verifies it with the server and establishes the session. On an
// invalid-code rejection for a known user the flow drops to fresh-code mode
// and the countdown restarts.
func (s *Service) SubmitCode(ctx context.Context, chatID int64, code string) (*domain.Session, error) {
	code = strings.TrimSpace(code)
	if len(code) != s.codeLength || digitsOnly(code) != code {
		return nil, ErrInvalidCode
	}

	s.mu.Lock()
	f, ok := s.flows[chatID]
	if !ok || f.step != StepVerification {
		s.mu.Unlock()
		return nil, ErrNoActiveFlow
	}
	identifier := f.identifier
	isNewUser := f.isNewUser
	s.mu.Unlock()

	result, err := s.api.VerifyCode(ctx, identifier, code)
	if err != nil {
		if strings.Contains(errors.GetMessage(err), "Invalid verification code") && !isNewUser {
			s.mu.Lock()
			if f, ok := s.flows[chatID]; ok {
				f.mode = ModeFreshCode
				f.resendDeadline = s.clock.Now().Add(s.countdown)
			}
			s.mu.Unlock()
		}
		return nil, err
	}

	sess, err := s.sessions.SetUser(ctx, chatID, result)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.flows, chatID)
	s.mu.Unlock()

	s.logger.Info("Authentication completed", "chat_id", chatID, "user_id", result.User.ID)
	return sess, nil
}

// Resend requests a new code. In fresh-code mode it is gated by the
// countdown; manual-request mode routes to force-send, existing-code mode
// to resend, both available immediately. Either way the flow ends up in
// fresh-code mode with a restarted countdown.
func (s *Service) Resend(ctx context.Context, chatID int64) (State, error) {
	s.mu.Lock()
	f, ok := s.flows[chatID]
	if !ok || f.step != StepVerification {
		s.mu.Unlock()
		return State{}, ErrNoActiveFlow
	}

	if f.mode == ModeFreshCode {
		if remaining := f.resendDeadline.Sub(s.clock.Now()); remaining > 0 {
			s.mu.Unlock()
			return State{}, &CountdownActiveError{Remaining: remaining}
		}
	}
	identifier := f.identifier
	mode := f.mode
	s.mu.Unlock()

	var err error
	if mode == ModeManualRequest {
		err = s.api.ForceSendCode(ctx, identifier)
	} else {
		err = s.api.ResendCode(ctx, identifier)
	}
	if err != nil {
		return State{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok = s.flows[chatID]
	if !ok {
		return State{}, ErrNoActiveFlow
	}
	f.mode = ModeFreshCode
	f.resendDeadline = s.clock.Now().Add(s.countdown)
	return s.snapshot(f), nil
}

// ChangeIdentifier returns the chat to the input step, clearing the
// identifier and any verification state.
func (s *Service) ChangeIdentifier(chatID int64) State {
	return s.Begin(chatID)
}

// Cancel drops the chat's flow entirely.
func (s *Service) Cancel(chatID int64) {
	s.mu.Lock()
	delete(s.flows, chatID)
	s.mu.Unlock()
}

// GoogleLogin fetches the provider URL and marks the chat as waiting for an
// OAuth callback. The chat id rides along as the OAuth state parameter so
// the callback can be routed back to the right chat.
func (s *Service) GoogleLogin(ctx context.Context, chatID int64) (string, error) {
	authURL, err := s.api.GoogleLoginURL(ctx)
	if err != nil {
		return "", err
	}

	if u, parseErr := url.Parse(authURL); parseErr == nil {
		q := u.Query()
		q.Set("state", strconv.FormatInt(chatID, 10))
		u.RawQuery = q.Encode()
		authURL = u.String()
	}

	s.mu.Lock()
	f, ok := s.flows[chatID]
	if !ok {
		f = &flow{step: StepInput}
		s.flows[chatID] = f
	}
	f.oauthPending = true
	s.mu.Unlock()

	return authURL, nil
}

// CompleteOAuth consumes the provider's redirect parameters. It runs at
// most once per pending login: the pending flag is cleared before any
// network call, so a replayed callback is rejected.
func (s *Service) CompleteOAuth(ctx context.Context, chatID int64, params url.Values) (*domain.Session, error) {
	s.mu.Lock()
	f, ok := s.flows[chatID]
	if !ok || !f.oauthPending {
		s.mu.Unlock()
		return nil, ErrOAuthPending
	}
	f.oauthPending = false
	s.mu.Unlock()

	if errParam := params.Get("error"); errParam != "" {
		msg := params.Get("message")
		if msg == "" {
			msg = errParam
		}
		return nil, errors.New(msg)
	}

	accessToken := params.Get("access_token")
	refreshToken := params.Get("refresh_token")
	if params.Get("success") != "true" || accessToken == "" || refreshToken == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "incomplete OAuth callback")
	}

	// The callback carries no user record; fetch it with the new tokens.
	probe := domain.NewSession(chatID, accessToken, refreshToken, nil)
	user, err := s.api.GetCurrentUser(ctx, probe)
	if err != nil {
		return nil, errors.Wrap(err, "fetch user after OAuth")
	}

	// The probe's access token may have been rotated by the fetch.
	accessToken, refreshToken = probe.Tokens()
	sess, err := s.sessions.SetUser(ctx, chatID, &domain.AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	})
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.flows, chatID)
	s.mu.Unlock()

	s.logger.Info("OAuth authentication completed", "chat_id", chatID, "user_id", user.ID)
	return sess, nil
}

func (s *Service) snapshot(f *flow) State {
	st := State{
		Step:       f.step,
		Mode:       f.mode,
		Identifier: f.identifier,
		Type:       f.idType,
		IsNewUser:  f.isNewUser,
		CodeLength: s.codeLength,
	}
	if f.step == StepVerification && f.mode == ModeFreshCode {
		if remaining := f.resendDeadline.Sub(s.clock.Now()); remaining > 0 {
			st.ResendIn = remaining
		}
	}
	return st
}
