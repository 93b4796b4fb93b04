package bridge

import (
	"context"
	"errors"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/session"
)

const moduleName = "bridge"

var Module = fx.Module(moduleName,
	fx.Provide(NewService),
	fx.Invoke(func(lc fx.Lifecycle, shutdowner fx.Shutdowner, service *Service, logger *zap.Logger) {
		ctx, cancel := context.WithCancel(context.Background())

		lc.Append(fx.Hook{
			OnStart: func(context.Context) error {
				go func() {
					err := service.Run(ctx, os.Stdin, os.Stdout)
					code := 0
					if err != nil {
						var authErr *session.AuthenticationError
						if errors.As(err, &authErr) {
							logger.Error("Authentication lost, stopping", zap.Error(err))
						} else {
							logger.Error("Bridge stopped", zap.Error(err))
						}
						code = 1
					}
					if err := shutdowner.Shutdown(fx.ExitCode(code)); err != nil {
						logger.Error("Failed to request shutdown", zap.Error(err))
					}
				}()
				return nil
			},
			OnStop: func(context.Context) error {
				cancel()
				return nil
			},
		})
	}),
)
