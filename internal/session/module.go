package session

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/domain"
)

const moduleName = "session"

var Module = fx.Module(moduleName,
	fx.Provide(func(cfg *config.Config, provider domain.Provider, clk clock.Clock, logger *zap.Logger) *Manager {
		return NewManager(provider, clk, cfg.Session.RenewInterval, logger)
	}),
	fx.Invoke(func(lc fx.Lifecycle, manager *Manager) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				return manager.EnsureFresh(ctx)
			},
			OnStop: func(ctx context.Context) error {
				return manager.Close(ctx)
			},
		})
	}),
)
