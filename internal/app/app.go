package app

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api/apiimpl"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/auth"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/cache"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/command"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/command/commandimpl"
	_ "github.com/ozimiz/ozimiz-telegram-bot/internal/migrations"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/ratelimit"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/session"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/telegram"
	"github.com/ozimiz/ozimiz-telegram-bot/internal/telegram/telegramimpl"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/config"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/logger"
	"github.com/ozimiz/ozimiz-telegram-bot/pkg/pgx"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"
)

// Sessions idle longer than this are purged by the nightly job. The refresh
// token is long expired by then anyway.
const sessionIdleCutoff = 30 * 24 * time.Hour

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		func() clockwork.Clock { return clockwork.NewRealClock() },
		func() ratelimit.Limiter { return ratelimit.NewInMemoryLimiter(1, time.Second, 5) },
		cache.New,
		auth.New,
	),
	fx.Provide(
		fx.Annotate(
			telegramimpl.New,
			fx.As(new(telegram.Client)),
		),
		fx.Annotate(
			apiimpl.New,
			fx.As(new(api.Client)),
		),
		fx.Annotate(
			commandimpl.New,
			fx.As(new(command.Client)),
		),
	),
	session.Module,
	fx.Invoke(migrate),
	fx.Invoke(run),
)

func migrate(c *config.Config) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", c.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return err
	}

	return goose.Up(db, filepath.Join(wd, "internal", "migrations"))
}

type runOpts struct {
	fx.In

	LC       fx.Lifecycle
	Logger   logger.Logger
	Config   *config.Config
	Auth     *auth.Service
	Cache    *cache.Store
	Commands command.Client
	Repo     session.Repository
	Telegram telegram.Client
}

func run(opts runOpts) error {
	log := opts.Logger.WithComponent("App")

	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Config.App.Port),
		Handler: newMux(opts, log),
	}

	loopCtx, cancelLoop := context.WithCancel(context.Background())

	opts.LC.Append(fx.Hook{
		OnStart: func(context.Context) error {
			if err := scheduleJobs(scheduler, opts, log); err != nil {
				return err
			}
			scheduler.Start()

			go func() {
				log.Info("HTTP server listening", "port", opts.Config.App.Port)
				if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Error("HTTP server failed", "error", err)
				}
			}()

			go updatesLoop(loopCtx, opts, log)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancelLoop()
			opts.Telegram.StopReceivingUpdates()
			if err := scheduler.Shutdown(); err != nil {
				log.Warn("Scheduler shutdown failed", "error", err)
			}
			return server.Shutdown(ctx)
		},
	})
	return nil
}

// updatesLoop pulls Telegram updates and dispatches each one on its own
// goroutine so a slow API call never stalls other chats.
func updatesLoop(ctx context.Context, opts runOpts, log logger.Logger) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30

	updates := opts.Telegram.GetUpdatesChan(u)
	log.Info("Listening for updates")

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go opts.Commands.HandleUpdate(ctx, update)
		}
	}
}

func scheduleJobs(scheduler gocron.Scheduler, opts runOpts, log logger.Logger) error {
	_, err := scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(func() {
			if removed := opts.Cache.Sweep(); removed > 0 {
				log.Debug("Cache swept", "removed", removed)
			}
		}),
	)
	if err != nil {
		return err
	}

	_, err = scheduler.NewJob(
		gocron.DailyJob(1, gocron.NewAtTimes(gocron.NewAtTime(4, 0, 0))),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			cutoff := time.Now().Add(-sessionIdleCutoff)
			removed, err := opts.Repo.DeleteIdleBefore(ctx, cutoff)
			if err != nil {
				log.Error("Session purge failed", "error", err)
				return
			}
			log.Info("Idle sessions purged", "removed", removed)
		}),
	)
	return err
}

func newMux(opts runOpts, log logger.Logger) *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		if _, err := w.Write([]byte("ok")); err != nil {
			log.Error("Failed to write response", "error", err)
		}
	})

	// The OAuth provider redirects here after the user signs in. The chat_id
	// travels through the provider round-trip as a query parameter, the rest
	// of the parameters come from the backend.
	mux.HandleFunc("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		params := r.URL.Query()
		raw := params.Get("state")
		if raw == "" {
			raw = params.Get("chat_id")
		}
		chatID, err := parseChatID(raw)
		if err != nil {
			http.Error(w, "missing chat_id", http.StatusBadRequest)
			return
		}

		sess, err := opts.Auth.CompleteOAuth(r.Context(), chatID, params)
		if err != nil {
			log.Warn("OAuth callback rejected", "chat_id", chatID, "error", err)
			opts.Telegram.SendMessage(chatID, "Google sign-in failed. Try /login again.")
			http.Error(w, "sign-in failed", http.StatusBadRequest)
			return
		}

		opts.Telegram.SendMessage(chatID, "Welcome, "+sess.User.DisplayName()+"! Try /feed to get started.")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html><body>Signed in. You can return to Telegram.</body></html>")
	})

	return mux
}

func parseChatID(raw string) (int64, error) {
	var chatID int64
	_, err := fmt.Sscanf(raw, "%d", &chatID)
	if err != nil {
		return 0, err
	}
	return chatID, nil
}
