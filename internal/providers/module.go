package providers

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/igefined/quote-bridge/internal/config"
	"github.com/igefined/quote-bridge/internal/domain"
	"github.com/igefined/quote-bridge/internal/providers/baostock"
	"github.com/igefined/quote-bridge/internal/providers/fixture"
)

const moduleName = "providers"

var Module = fx.Module(moduleName,
	fx.Provide(New),
)

// New builds the provider selected by provider.mode.
func New(cfg *config.Config, logger *zap.Logger) (domain.Provider, error) {
	switch cfg.Provider.Mode {
	case config.ModeLive:
		return baostock.NewProvider(cfg.Provider, logger), nil
	case config.ModeFixture:
		return fixture.Load(cfg.Provider.FixturePath, logger)
	default:
		return nil, fmt.Errorf("unknown provider mode %q", cfg.Provider.Mode)
	}
}
