package commandimpl

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/jonboulle/clockwork"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/auth"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/command"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/domain"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/ratelimit"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/telegram"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/errors"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

// pendingKind marks what free-form input the chat is expected to send next.
type pendingKind int

const (
	pendingNone pendingKind = iota
	pendingPostContent
	pendingPostMedia
	pendingCommentContent
	pendingCommentEdit
	pendingPostEdit
	pendingProfileBio
	pendingSearchQuery
)

// pending is per-chat UI-only state: compose buffers, edit targets, staged
// uploads. It never outlives the conversation it belongs to.
type pending struct {
	kind     pendingKind
	targetID int64
	uploads  []domain.Upload
	// progressID is the upload progress message, edited in place as files
	// arrive instead of re-sending one message per file.
	progressID int
}

type Opts struct {
	fx.In

	Api      api.Client
	Auth     *auth.Service
	Cache    *cache.Store
	Clock    clockwork.Clock
	Config   *config.Config
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
	Sessions *session.Manager
	Telegram telegram.Client
}

type CommandImpl struct {
	Api      api.Client
	Auth     *auth.Service
	Cache    *cache.Store
	Clock    clockwork.Clock
	Config   *config.Config
	Limiter  ratelimit.Limiter
	Logger   logger.Logger
	Sessions *session.Manager
	Telegram telegram.Client

	mu         sync.Mutex
	pending    map[int64]*pending
	lastSearch map[int64]string
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		Api:        opts.Api,
		Auth:       opts.Auth,
		Cache:      opts.Cache,
		Clock:      opts.Clock,
		Config:     opts.Config,
		Limiter:    opts.Limiter,
		Logger:     opts.Logger.WithComponent("Commands"),
		Sessions:   opts.Sessions,
		Telegram:   opts.Telegram,
		pending:    make(map[int64]*pending),
		lastSearch: make(map[int64]string),
	}
}

var _ command.Client = (*CommandImpl)(nil)

func (c *CommandImpl) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		chatID := update.CallbackQuery.Message.Chat.ID
		if !c.Limiter.Allow(chatID) {
			_ = c.Telegram.AnswerCallback(update.CallbackQuery.ID, "Too fast, try again in a moment")
			return
		}
		c.handleCallback(ctx, update.CallbackQuery)

	case update.Message != nil:
		chatID := update.Message.Chat.ID
		if !c.Limiter.Allow(chatID) {
			c.Telegram.SendMessage(chatID, "Too fast, try again in a moment.")
			return
		}
		if update.Message.IsCommand() {
			c.handleCommand(ctx, update.Message)
			return
		}
		c.handleMessage(ctx, update.Message)
	}
}

func (c *CommandImpl) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	cmd := msg.Command()

	// /user_123 style deep links arrive as the command "user_123".
	if id, ok := strings.CutPrefix(cmd, "user_"); ok {
		if userID, err := strconv.ParseInt(id, 10, 64); err == nil {
			c.handleUserProfile(ctx, chatID, userID)
			return
		}
	}

	switch cmd {
	case "start", "help":
		c.handleHelp(ctx, chatID)
	case "login":
		c.handleLogin(ctx, chatID)
	case "logout":
		c.handleLogout(ctx, chatID)
	case "feed":
		c.handleFeed(ctx, chatID, 1)
	case "explore":
		c.handleExplore(ctx, chatID, 1)
	case "search":
		c.handleSearch(ctx, chatID, args)
	case "profile":
		c.handleOwnProfile(ctx, chatID)
	case "user":
		c.handleUserArg(ctx, chatID, args)
	case "post":
		c.handlePostArg(ctx, chatID, args)
	case "newpost":
		c.handleNewPost(ctx, chatID, args)
	case "done":
		c.handleUploadDone(ctx, chatID)
	case "cancel":
		c.clearPending(chatID)
		c.Auth.Cancel(chatID)
		c.Telegram.SendMessage(chatID, "Cancelled.")
	case "notifications":
		c.handleNotifications(ctx, chatID, 1, 0)
	case "language":
		c.handleLanguage(ctx, chatID, args)
	default:
		c.Telegram.SendMessage(chatID, "Unknown command. See /help.")
	}
}

// handleMessage routes free-form input: photos while composing a post,
// otherwise whatever the chat's pending state or auth flow expects.
func (c *CommandImpl) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	if len(msg.Photo) > 0 || msg.Document != nil {
		c.handleIncomingFile(ctx, msg)
		return
	}

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		return
	}

	if p := c.getPending(chatID); p != nil {
		c.handlePendingInput(ctx, chatID, p, text)
		return
	}

	if st, ok := c.Auth.State(chatID); ok {
		c.handleAuthInput(ctx, chatID, st, text)
		return
	}

	c.Telegram.SendMessage(chatID, "Not sure what to do with that. See /help.")
}

func (c *CommandImpl) handlePendingInput(ctx context.Context, chatID int64, p *pending, text string) {
	switch p.kind {
	case pendingPostContent:
		c.handlePostContent(ctx, chatID, text)
	case pendingCommentContent:
		c.handleCommentContent(ctx, chatID, p.targetID, text)
	case pendingCommentEdit:
		c.handleCommentEdit(ctx, chatID, p.targetID, text)
	case pendingPostEdit:
		c.handlePostEditContent(ctx, chatID, p.targetID, text)
	case pendingProfileBio:
		c.handleProfileBio(ctx, chatID, text)
	case pendingSearchQuery:
		c.clearPending(chatID)
		c.handleSearch(ctx, chatID, text)
	default:
		c.clearPending(chatID)
	}
}

// respondMarkdown edits the originating message in place for keyboard-driven
// navigation, falling back to a fresh message when there is nothing to edit.
func (c *CommandImpl) respondMarkdown(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	if messageID != 0 && c.Telegram.EditMarkdown(chatID, messageID, text, kb) == nil {
		return
	}
	c.Telegram.SendMarkdown(chatID, text, kb)
}

// requireSession resolves the chat's session or prompts for login.
func (c *CommandImpl) requireSession(ctx context.Context, chatID int64) (*domain.Session, bool) {
	sess, err := c.Sessions.Current(ctx, chatID)
	if err != nil {
		c.Logger.Error("Failed to load session", "chat_id", chatID, "error", err)
		c.Telegram.SendMessage(chatID, "Something went wrong. Please try again.")
		return nil, false
	}
	if !sess.Authenticated() {
		c.Telegram.SendMessage(chatID, "You need to sign in first: /login")
		return nil, false
	}
	return sess, true
}

// reportError turns a failed call into a per-chat message. A rejected
// refresh token is the one global case: the session is already gone, the
// chat is routed back to login.
func (c *CommandImpl) reportError(chatID int64, action string, err error) {
	if errors.Is(err, api.ErrSessionExpired) {
		c.Telegram.SendMessage(chatID, "Your session has expired. Please sign in again: /login")
		return
	}

	c.Logger.Warn("Command failed", "chat_id", chatID, "action", action, "error", err)
	msg := errors.GetMessage(err)
	if msg == "" || errors.Is(err, errors.ErrInternalServer) || errors.Is(err, errors.ErrServiceUnavailable) {
		msg = "Failed to " + action + ". Please try again later."
	}
	c.Telegram.SendMessage(chatID, msg)
}

func (c *CommandImpl) getPending(chatID int64) *pending {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[chatID]
}

func (c *CommandImpl) setPending(chatID int64, p *pending) {
	c.mu.Lock()
	c.pending[chatID] = p
	c.mu.Unlock()
}

func (c *CommandImpl) clearPending(chatID int64) {
	c.mu.Lock()
	delete(c.pending, chatID)
	c.mu.Unlock()
}
