package apiimpl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"go.uber.org/fx"
	"golang.org/x/sync/singleflight"
)

type Opts struct {
	fx.In

	Config *config.Config
	Logger logger.Logger
	Store  api.SessionStore
}

type ApiImpl struct {
	http          *http.Client
	baseURL       string
	oauthCallback string
	store         api.SessionStore
	logger        logger.Logger

	// refreshes dedupes token refreshes per chat: concurrent 401s share one
	// exchange instead of each burning a refresh call.
	refreshes singleflight.Group
}

func New(opts Opts) *ApiImpl {
	return &ApiImpl{
		http:          &http.Client{Timeout: opts.Config.Api.Timeout},
		baseURL:       strings.TrimRight(opts.Config.Api.BaseUrl, "/"),
		oauthCallback: strings.TrimRight(opts.Config.App.PublicUrl, "/") + "/auth/callback",
		store:         opts.Store,
		logger:        opts.Logger.WithComponent("ApiClient"),
	}
}

var _ api.Client = (*ApiImpl)(nil)

// validator is implemented by domain records that are checked fail-fast at
// the decode boundary.
type validator interface {
	Validate() error
}

type apiError struct {
	ErrorMsg string          `json:"error"`
	Details  json.RawMessage `json:"details,omitempty"`
}

// do performs one logical API request. The bearer token comes from sess when
// present. A 401 triggers exactly one token refresh followed by exactly one
// replay; a 401 on the replay surfaces without another refresh attempt. The
// session is shared across goroutines, so the token pair is read once up
// front and only touched through its accessors.
func (a *ApiImpl) do(ctx context.Context, sess *domain.Session, method, path string, query url.Values, body []byte, contentType string, out any) error {
	requestID := uuid.NewString()

	var bearer, refreshToken string
	if sess != nil {
		bearer, refreshToken = sess.Tokens()
	}

	resp, err := a.send(ctx, method, path, query, body, contentType, requestID, bearer)
	if err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s %s", method, path))
	}

	if resp.StatusCode == http.StatusUnauthorized && refreshToken != "" {
		drain(resp)
		if err := a.refreshAccessToken(ctx, sess, bearer); err != nil {
			return err
		}

		bearer, _ = sess.Tokens()
		a.logger.Debug("Replaying request after token refresh", "method", method, "path", path, "request_id", requestID)
		resp, err = a.send(ctx, method, path, query, body, contentType, requestID, bearer)
		if err != nil {
			return errors.Wrap(err, fmt.Sprintf("%s %s (replay)", method, path))
		}
	}

	defer drain(resp)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload apiError
		_ = json.Unmarshal(raw, &payload)
		msg := payload.ErrorMsg
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		a.logger.Debug("API request failed",
			"method", method, "path", path,
			"status", resp.StatusCode, "request_id", requestID)
		return errors.WrapWithCode(errors.FromStatusCode(resp.StatusCode), strconv.Itoa(resp.StatusCode), msg)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	if v, ok := out.(validator); ok {
		if err := v.Validate(); err != nil {
			return errors.Wrap(err, "invalid response payload")
		}
	}
	return nil
}

func (a *ApiImpl) send(ctx context.Context, method, path string, query url.Values, body []byte, contentType, requestID, bearer string) (*http.Response, error) {
	u := a.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("X-Request-ID", requestID)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	return a.http.Do(req)
}

// refreshAccessToken exchanges the session's refresh token for a new access
// token and persists it. Concurrent 401s for the same chat share a single
// exchange, and a caller whose token was already rotated by an earlier
// flight skips the exchange entirely. A rejected refresh token is terminal:
// the stored session is cleared and ErrSessionExpired is returned.
func (a *ApiImpl) refreshAccessToken(ctx context.Context, sess *domain.Session, stale string) error {
	_, err, _ := a.refreshes.Do(strconv.FormatInt(sess.ChatID, 10), func() (any, error) {
		accessToken, refreshToken := sess.Tokens()
		if accessToken != stale {
			return nil, nil
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/unified-auth/refresh", nil)
		if err != nil {
			return nil, errors.Wrap(err, "build refresh request")
		}
		req.Header.Set("Authorization", "Bearer "+refreshToken)

		resp, err := a.http.Do(req)
		if err != nil {
			return nil, errors.Wrap(err, "token refresh")
		}
		defer drain(resp)

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			a.logger.Warn("Refresh token rejected, clearing session", "chat_id", sess.ChatID, "status", resp.StatusCode)
			if clearErr := a.store.Clear(ctx, sess.ChatID); clearErr != nil {
				a.logger.Error("Failed to clear session", "chat_id", sess.ChatID, "error", clearErr)
			}
			return nil, api.ErrSessionExpired
		}

		var payload struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.AccessToken == "" {
			return nil, errors.Wrap(err, "decode refresh response")
		}

		sess.SetTokens(payload.AccessToken, refreshToken)
		if err := a.store.SaveTokens(ctx, sess.ChatID, payload.AccessToken, refreshToken); err != nil {
			return nil, errors.Wrap(err, "persist refreshed token")
		}

		a.logger.Info("Access token refreshed", "chat_id", sess.ChatID)
		return nil, nil
	})
	return err
}

func (a *ApiImpl) getJSON(ctx context.Context, sess *domain.Session, path string, query url.Values, out any) error {
	return a.do(ctx, sess, http.MethodGet, path, query, nil, "", out)
}

func (a *ApiImpl) postJSON(ctx context.Context, sess *domain.Session, path string, in, out any) error {
	body, contentType, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return a.do(ctx, sess, http.MethodPost, path, nil, body, contentType, out)
}

func (a *ApiImpl) putJSON(ctx context.Context, sess *domain.Session, path string, in, out any) error {
	body, contentType, err := encodeJSON(in)
	if err != nil {
		return err
	}
	return a.do(ctx, sess, http.MethodPut, path, nil, body, contentType, out)
}

func (a *ApiImpl) deleteJSON(ctx context.Context, sess *domain.Session, path string) error {
	return a.do(ctx, sess, http.MethodDelete, path, nil, nil, "", nil)
}

func encodeJSON(in any) ([]byte, string, error) {
	if in == nil {
		return nil, "", nil
	}
	body, err := json.Marshal(in)
	if err != nil {
		return nil, "", errors.Wrap(err, "encode request body")
	}
	return body, "application/json", nil
}

func pageQuery(p api.PageParams) url.Values {
	q := url.Values{}
	if p.Page > 0 {
		q.Set("page", strconv.Itoa(p.Page))
	}
	if p.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(p.PerPage))
	}
	return q
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
