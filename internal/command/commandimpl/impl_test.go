package commandimpl

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/ratelimit"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session/mocks"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const testChatID int64 = 42

// fakeTelegram records every outgoing call; message ids increment so
// edit-in-place behavior is observable.
type fakeTelegram struct {
	mu       sync.Mutex
	nextID   int
	messages []string
	markdown []string
	edits    []string
	mdEdits  []string
	groups   [][]interface{}
	fileData []byte
}

func (f *fakeTelegram) GetUpdatesChan(tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel { return nil }
func (f *fakeTelegram) StopReceivingUpdates()                                        {}

func (f *fakeTelegram) SendMessage(_ int64, text string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.messages = append(f.messages, text)
	return f.nextID, nil
}

func (f *fakeTelegram) SendMarkdown(_ int64, text string, _ *tgbotapi.InlineKeyboardMarkup) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.markdown = append(f.markdown, text)
	return f.nextID, nil
}

func (f *fakeTelegram) EditMessageText(_ int64, _ int, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *fakeTelegram) EditMarkdown(_ int64, _ int, text string, _ *tgbotapi.InlineKeyboardMarkup) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mdEdits = append(f.mdEdits, text)
	return nil
}

func (f *fakeTelegram) AnswerCallback(string, string) error { return nil }

func (f *fakeTelegram) SendMediaGroup(_ int64, media []interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.groups = append(f.groups, media)
	return nil
}

func (f *fakeTelegram) DownloadFile(context.Context, string) ([]byte, error) {
	return f.fileData, nil
}

// fakeClientAPI overrides just the calls a test exercises; anything else
// panics through the embedded nil interface.
type fakeClientAPI struct {
	api.Client

	getPost      func(postID int64) (*domain.Post, error)
	getMediaURL  func(mediaID int64) (string, error)
	getFollowers func(userID int64, p api.PageParams) (*domain.Page[domain.User], error)
	uploadMedia  func(postID int64, uploads []domain.Upload) ([]domain.Media, error)
}

func (f *fakeClientAPI) GetPost(_ context.Context, _ *domain.Session, postID int64) (*domain.Post, error) {
	return f.getPost(postID)
}

func (f *fakeClientAPI) GetMediaURL(_ context.Context, _ *domain.Session, mediaID int64) (string, error) {
	return f.getMediaURL(mediaID)
}

func (f *fakeClientAPI) GetFollowers(_ context.Context, _ *domain.Session, userID int64, p api.PageParams) (*domain.Page[domain.User], error) {
	return f.getFollowers(userID, p)
}

func (f *fakeClientAPI) UploadMedia(_ context.Context, _ *domain.Session, postID int64, uploads []domain.Upload) ([]domain.Media, error) {
	return f.uploadMedia(postID, uploads)
}

func authedSession() *domain.Session {
	return domain.NewSession(testChatID, "access", "refresh", &domain.User{ID: 7, Username: "aruzhan"})
}

func newTestCommands(t *testing.T, apiClient api.Client, repo session.Repository, tg *fakeTelegram) *CommandImpl {
	t.Helper()

	log := logger.New(logger.Opts{})
	cfg := &config.Config{}
	cfg.Cache.TTL = time.Minute
	cfg.Auth.CodeLength = 6
	clock := clockwork.NewFakeClock()

	return New(Opts{
		Api:      apiClient,
		Cache:    cache.New(cache.Opts{Clock: clock, Config: cfg, Logger: log}),
		Clock:    clock,
		Config:   cfg,
		Limiter:  ratelimit.NewInMemoryLimiter(100, time.Second, 100),
		Logger:   log,
		Sessions: session.NewManager(session.ManagerOpts{Repo: repo, Logger: log}),
		Telegram: tg,
	})
}

func TestShowPostKeepsCachedMediaClean(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), testChatID).Return(authedSession(), nil).AnyTimes()

	tg := &fakeTelegram{}
	apiFake := &fakeClientAPI{
		getPost: func(postID int64) (*domain.Post, error) {
			return &domain.Post{
				ID:     postID,
				Author: domain.User{ID: 7, Username: "aruzhan"},
				Media:  []domain.Media{{ID: 3, Filename: "a.jpg", MimeType: "image/jpeg"}},
			}, nil
		},
		getMediaURL: func(mediaID int64) (string, error) {
			return "https://cdn.ozimiz.org/a.jpg", nil
		},
	}
	c := newTestCommands(t, apiFake, repo, tg)

	c.showPost(context.Background(), testChatID, 17)

	// The album went out with the resolved URL.
	require.Len(t, tg.groups, 1)
	require.Len(t, tg.groups[0], 1)

	// The cached post still carries what the server returned.
	key := cache.NewKey("post", testChatID, int64(17))
	cached, err := cache.Fetch(context.Background(), c.Cache, key, func(context.Context) (*domain.Post, error) {
		t.Fatal("expected a cache hit")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Empty(t, cached.Media[0].URL)
}

func TestUploadDoneKeepsStagedFilesOnSessionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	gomock.InOrder(
		repo.EXPECT().Get(gomock.Any(), testChatID).Return(nil, fmt.Errorf("connection reset")),
		repo.EXPECT().Get(gomock.Any(), testChatID).Return(authedSession(), nil),
	)

	tg := &fakeTelegram{}
	uploadCalls := 0
	apiFake := &fakeClientAPI{
		uploadMedia: func(postID int64, uploads []domain.Upload) ([]domain.Media, error) {
			uploadCalls++
			require.Len(t, uploads, 1)
			return []domain.Media{{ID: 3, Filename: "a.jpg", PostID: postID}}, nil
		},
	}
	c := newTestCommands(t, apiFake, repo, tg)

	c.setPending(testChatID, &pending{
		kind:     pendingPostMedia,
		targetID: 17,
		uploads:  []domain.Upload{{Filename: "a.jpg", MimeType: "image/jpeg", Data: []byte("jpeg")}},
	})

	// A transient session load failure must not discard the staged files.
	c.handleUploadDone(context.Background(), testChatID)
	p := c.getPending(testChatID)
	require.NotNil(t, p)
	assert.Len(t, p.uploads, 1)
	assert.Equal(t, 0, uploadCalls)

	// The retry goes through and consumes them.
	c.handleUploadDone(context.Background(), testChatID)
	assert.Nil(t, c.getPending(testChatID))
	assert.Equal(t, 1, uploadCalls)
}

func TestFollowersPageFlipEditsInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), testChatID).Return(authedSession(), nil).AnyTimes()

	tg := &fakeTelegram{}
	apiFake := &fakeClientAPI{
		getFollowers: func(userID int64, p api.PageParams) (*domain.Page[domain.User], error) {
			return &domain.Page[domain.User]{
				Data:        []domain.User{{ID: 9, Username: "serik"}},
				Total:       21,
				Pages:       3,
				CurrentPage: p.Page,
			}, nil
		},
	}
	c := newTestCommands(t, apiFake, repo, tg)

	// Opening the listing sends a fresh message.
	c.handleFollowers(context.Background(), testChatID, 9, 1, 0, true)
	assert.Len(t, tg.markdown, 1)
	assert.Empty(t, tg.mdEdits)

	// A page flip re-renders the listing message instead of stacking a new one.
	c.handleFollowers(context.Background(), testChatID, 9, 2, 5, true)
	assert.Len(t, tg.markdown, 1)
	assert.Len(t, tg.mdEdits, 1)
}

func TestAttachmentProgressEditsInPlace(t *testing.T) {
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().Get(gomock.Any(), testChatID).Return(authedSession(), nil).AnyTimes()

	tg := &fakeTelegram{fileData: []byte("jpeg")}
	c := newTestCommands(t, &fakeClientAPI{}, repo, tg)

	c.setPending(testChatID, &pending{kind: pendingPostMedia, targetID: 17})

	photoMsg := func(uniqueID string) *tgbotapi.Message {
		return &tgbotapi.Message{
			Chat:  &tgbotapi.Chat{ID: testChatID},
			Photo: []tgbotapi.PhotoSize{{FileID: "f-" + uniqueID, FileUniqueID: uniqueID, FileSize: 100}},
		}
	}

	c.handleIncomingFile(context.Background(), photoMsg("u1"))
	require.Len(t, tg.messages, 1)
	assert.Contains(t, tg.messages[0], "Attached 1/")

	// The second file updates the progress line instead of sending another.
	c.handleIncomingFile(context.Background(), photoMsg("u2"))
	assert.Len(t, tg.messages, 1)
	require.Len(t, tg.edits, 1)
	assert.Contains(t, tg.edits[0], "Attached 2/")

	p := c.getPending(testChatID)
	require.NotNil(t, p)
	assert.Len(t, p.uploads, 2)
}
