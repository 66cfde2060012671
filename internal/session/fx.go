package session

import (
	"github.com/ozimiz/ozimiz-telegram-bot/internal/api"
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(
		fx.Annotate(
			NewPgxRepository,
			fx.As(new(Repository)),
		),
		NewManager,
		fx.Annotate(
			func(m *Manager) *Manager { return m },
			fx.As(new(api.SessionStore)),
		),
	),
)
