package session_test

import (
	"context"
	"testing"

	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session/mocks"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

const chatID int64 = 42

func newManager(t *testing.T) (*session.Manager, *mocks.MockRepository) {
	t.Helper()
	ctrl := gomock.NewController(t)
	repo := mocks.NewMockRepository(ctrl)
	mgr := session.NewManager(session.ManagerOpts{
		Repo:   repo,
		Logger: logger.New(logger.Opts{}),
	})
	return mgr, repo
}

func storedSession() *domain.Session {
	sess := domain.NewSession(chatID, "access", "refresh", &domain.User{ID: 7, Username: "aruzhan"})
	sess.Language = "kk"
	return sess
}

func TestCurrentHydratesOnce(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(storedSession(), nil).Times(1)

	sess, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)
	require.True(t, sess.Authenticated())
	assert.Equal(t, "kk", sess.Language)

	// Second read must come from memory; the mock would fail on a second Get.
	sess, err = mgr.Current(ctx, chatID)
	require.NoError(t, err)
	assert.True(t, sess.Authenticated())
}

func TestCurrentUnknownChat(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(nil, session.ErrNotFound).Times(1)

	sess, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())

	// The miss is remembered too.
	sess, err = mgr.Current(ctx, chatID)
	require.NoError(t, err)
	assert.Nil(t, sess)
}

func TestSetUserPersistsAndKeepsLanguage(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(storedSession(), nil)

	var saved *domain.Session
	repo.EXPECT().Save(ctx, gomock.Any()).DoAndReturn(func(_ context.Context, s *domain.Session) error {
		saved = s
		return nil
	})

	sess, err := mgr.SetUser(ctx, chatID, &domain.AuthResult{
		AccessToken:  "new-access",
		RefreshToken: "new-refresh",
		User:         &domain.User{ID: 9, Username: "serik"},
	})
	require.NoError(t, err)
	accessToken, _ := sess.Tokens()
	assert.Equal(t, "new-access", accessToken)
	assert.Equal(t, "kk", sess.Language, "language survives a re-login")
	require.NotNil(t, saved)
	assert.Equal(t, int64(9), saved.User.ID)
}

func TestSaveTokensUpdatesMemoryAndStorage(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(storedSession(), nil)
	repo.EXPECT().SaveTokens(ctx, chatID, "access-2", "refresh").Return(nil)

	sess, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)

	require.NoError(t, mgr.SaveTokens(ctx, chatID, "access-2", "refresh"))
	accessToken, _ := sess.Tokens()
	assert.Equal(t, "access-2", accessToken)
}

func TestUpdateUserReplacesSnapshot(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(storedSession(), nil)
	repo.EXPECT().Save(ctx, gomock.Any()).Return(nil)

	old, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)

	updated := &domain.User{ID: 7, Username: "aruzhan", Bio: "mountains and code"}
	require.NoError(t, mgr.UpdateUser(ctx, chatID, updated))

	cur, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)
	assert.Equal(t, "mountains and code", cur.User.Bio)
	assert.Equal(t, "kk", cur.Language)

	accessToken, refreshToken := cur.Tokens()
	assert.Equal(t, "access", accessToken)
	assert.Equal(t, "refresh", refreshToken)

	// Holders of the previous pointer keep their snapshot.
	assert.Empty(t, old.User.Bio)
}

func TestClearDropsMemoryAndStorage(t *testing.T) {
	mgr, repo := newManager(t)
	ctx := context.Background()

	repo.EXPECT().Get(ctx, chatID).Return(storedSession(), nil)
	repo.EXPECT().Delete(ctx, chatID).Return(nil)

	_, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)

	require.NoError(t, mgr.Clear(ctx, chatID))

	sess, err := mgr.Current(ctx, chatID)
	require.NoError(t, err)
	assert.False(t, sess.Authenticated())
}
