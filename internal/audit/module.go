package audit

import (
	"context"

	"github.com/benbjohnson/clock"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/config"
)

const moduleName = "audit"

var Module = fx.Module(moduleName,
	fx.Provide(func(lc fx.Lifecycle, cfg *config.Config, clk clock.Clock, logger *zap.Logger) (Recorder, error) {
		if cfg.Bridge.AuditDir == "" {
			logger.Named(moduleName).Info("Audit log disabled")
			return Discard, nil
		}

		recorder, err := Open(cfg.Bridge.AuditDir, clk)
		if err != nil {
			return nil, err
		}
		logger.Named(moduleName).Info("Audit log opened", zap.String("path", recorder.Path()))

		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				return recorder.Close()
			},
		})
		return recorder, nil
	}),
)
