package apiimpl_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api/apiimpl"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeSpy records what the transport does to the session store.
type storeSpy struct {
	mu         sync.Mutex
	savedPairs [][2]string
	cleared    []int64
}

func (s *storeSpy) SaveTokens(_ context.Context, _ int64, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.savedPairs = append(s.savedPairs, [2]string{accessToken, refreshToken})
	return nil
}

func (s *storeSpy) Clear(_ context.Context, chatID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared = append(s.cleared, chatID)
	return nil
}

func newClient(t *testing.T, baseURL string) (api.Client, *storeSpy) {
	t.Helper()

	cfg := &config.Config{}
	cfg.Api.BaseUrl = baseURL
	cfg.Api.Timeout = 5 * time.Second
	cfg.App.PublicUrl = "https://bot.ozimiz.org"

	spy := &storeSpy{}
	client := apiimpl.New(apiimpl.Opts{
		Config: cfg,
		Logger: logger.New(logger.Opts{}),
		Store:  spy,
	})
	return client, spy
}

func testSession() *domain.Session {
	return domain.NewSession(42, "access-1", "refresh-1", &domain.User{ID: 7, Username: "aruzhan"})
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestBearerAndRequestIDHeaders(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		writeJSON(t, w, map[string]any{"id": 7, "username": "aruzhan"})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	user, err := client.GetCurrentUser(context.Background(), testSession())
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Equal(t, "Bearer access-1", gotAuth)
	assert.NotEmpty(t, gotRequestID)
}

func TestUnauthorizedRefreshesOnceAndReplays(t *testing.T) {
	var mu sync.Mutex
	var calls []string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		calls = append(calls, r.URL.Path+" "+r.Header.Get("Authorization"))
		n := len(calls)
		mu.Unlock()

		switch {
		case r.URL.Path == "/unified-auth/refresh":
			assert.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
			writeJSON(t, w, map[string]string{"access_token": "access-2"})
		case n == 1:
			w.WriteHeader(http.StatusUnauthorized)
		default:
			writeJSON(t, w, map[string]any{"id": 7, "username": "aruzhan"})
		}
	}))
	defer server.Close()

	client, spy := newClient(t, server.URL)
	sess := testSession()

	user, err := client.GetCurrentUser(context.Background(), sess)
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)

	accessToken, refreshToken := sess.Tokens()
	assert.Equal(t, "access-2", accessToken)
	assert.Equal(t, "refresh-1", refreshToken)
	require.Len(t, spy.savedPairs, 1)
	assert.Equal(t, [2]string{"access-2", "refresh-1"}, spy.savedPairs[0])

	require.Len(t, calls, 3)
	assert.Equal(t, "/users/profile Bearer access-1", calls[0])
	assert.Equal(t, "/users/profile Bearer access-2", calls[2], "replay must carry the refreshed token")
}

func TestUnauthorizedReplayDoesNotRefreshTwice(t *testing.T) {
	var mu sync.Mutex
	refreshes := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/unified-auth/refresh" {
			mu.Lock()
			refreshes++
			mu.Unlock()
			writeJSON(t, w, map[string]string{"access_token": "access-2"})
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	_, err := client.GetCurrentUser(context.Background(), testSession())
	require.Error(t, err)
	assert.True(t, errors.IsUnauthorized(err))
	assert.Equal(t, 1, refreshes)
}

func TestConcurrentUnauthorizedSharesOneRefresh(t *testing.T) {
	var mu sync.Mutex
	refreshes := 0

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/unified-auth/refresh" {
			mu.Lock()
			refreshes++
			mu.Unlock()
			writeJSON(t, w, map[string]string{"access_token": "access-2"})
			return
		}
		if r.Header.Get("Authorization") != "Bearer access-2" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		writeJSON(t, w, map[string]any{"id": 7, "username": "aruzhan"})
	}))
	defer server.Close()

	client, spy := newClient(t, server.URL)
	sess := testSession()

	// Every caller starts on the stale token; they must converge on one
	// refresh and all succeed on replay.
	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = client.GetCurrentUser(context.Background(), sess)
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, 1, refreshes)
	assert.Equal(t, [][2]string{{"access-2", "refresh-1"}}, spy.savedPairs)

	accessToken, _ := sess.Tokens()
	assert.Equal(t, "access-2", accessToken)
}

func TestRejectedRefreshClearsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, spy := newClient(t, server.URL)
	_, err := client.GetCurrentUser(context.Background(), testSession())
	assert.ErrorIs(t, err, api.ErrSessionExpired)
	assert.Equal(t, []int64{42}, spy.cleared)
}

func TestNoRefreshWithoutSession(t *testing.T) {
	var mu sync.Mutex
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	_, err := client.RequestCode(context.Background(), "+77012345678")
	require.Error(t, err)
	assert.Equal(t, []string{"/unified-auth/request-code"}, paths)
}

func TestErrorPayloadMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(t, w, map[string]string{"error": "Invalid verification code"})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	_, err := client.VerifyCode(context.Background(), "+77012345678", "000000")
	require.Error(t, err)
	assert.True(t, errors.IsBadRequest(err))
	assert.Equal(t, "Invalid verification code", errors.GetMessage(err))
	assert.Equal(t, "400", errors.GetCode(err))
}

func TestFeedEnvelopeAndPagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "5", r.URL.Query().Get("per_page"))
		writeJSON(t, w, map[string]any{
			"posts": []map[string]any{
				{"id": 1, "content": "hi", "author": map[string]any{"id": 7, "username": "aruzhan"}},
			},
			"total":        11,
			"pages":        3,
			"current_page": 2,
		})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	page, err := client.GetFeed(context.Background(), testSession(), api.PageParams{Page: 2, PerPage: 5})
	require.NoError(t, err)
	assert.Equal(t, 11, page.Total)
	assert.Equal(t, 3, page.Pages)
	assert.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "hi", page.Data[0].Content)
}

func TestListingRejectsInvalidPost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, map[string]any{
			"posts":        []map[string]any{{"id": 0, "content": "broken"}},
			"total":        1,
			"pages":        1,
			"current_page": 1,
		})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	_, err := client.GetFeed(context.Background(), testSession(), api.PageParams{Page: 1})
	require.Error(t, err)
}

func TestVerifyCodeValidatesResult(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Token pair without a user record is unusable.
		writeJSON(t, w, map[string]any{"access_token": "a", "refresh_token": "r"})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	_, err := client.VerifyCode(context.Background(), "+77012345678", "123456")
	require.Error(t, err)
}

func TestGoogleLoginRegistersRedirect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/google/login", r.URL.Path)
		assert.Equal(t, "https://bot.ozimiz.org/auth/callback", r.URL.Query().Get("redirect_uri"))
		writeJSON(t, w, map[string]string{"auth_url": "https://accounts.google.com/o/oauth2/auth?client_id=x"})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	authURL, err := client.GoogleLoginURL(context.Background())
	require.NoError(t, err)
	assert.Contains(t, authURL, "accounts.google.com")
}

func TestSearchQueryParam(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feed/search", r.URL.Path)
		assert.Equal(t, "koktobe", r.URL.Query().Get("q"))
		writeJSON(t, w, map[string]any{"posts": []any{}, "total": 0, "pages": 0, "current_page": 1})
	}))
	defer server.Close()

	client, _ := newClient(t, server.URL)
	page, err := client.SearchPosts(context.Background(), testSession(), "koktobe", api.PageParams{Page: 1})
	require.NoError(t, err)
	assert.Zero(t, page.Total)
}
