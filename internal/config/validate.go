package config

import (
	"errors"
	"fmt"
	"time"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	switch c.Provider.Mode {
	case ModeLive:
		if c.Provider.WsURL == "" {
			return errors.New("provider.ws_url is required in live mode")
		}
	case ModeFixture:
		if c.Provider.FixturePath == "" {
			return errors.New("provider.fixture_path is required in fixture mode")
		}
	default:
		return fmt.Errorf("provider.mode must be %q or %q, got %q", ModeLive, ModeFixture, c.Provider.Mode)
	}

	if c.Provider.RequestTimeout < 0 {
		return errors.New("provider.request_timeout must be >= 0")
	}
	if c.Provider.QueriesPerSecond < 0 {
		return errors.New("provider.queries_per_second must be >= 0")
	}
	if c.Session.RenewInterval < 0 {
		return errors.New("session.renew_interval must be >= 0")
	}

	open, err := c.Bridge.OpenAt()
	if err != nil {
		return err
	}
	closeAt, err := c.Bridge.CloseAt()
	if err != nil {
		return err
	}
	if closeAt <= open {
		return fmt.Errorf("bridge.trading_close (%s) must be after bridge.trading_open (%s)", c.Bridge.TradingClose, c.Bridge.TradingOpen)
	}
	if _, err := c.Bridge.Location(); err != nil {
		return err
	}
	return nil
}

// OpenAt returns the trading window start as an offset from midnight.
func (b BridgeConfig) OpenAt() (time.Duration, error) {
	return clockOffset("bridge.trading_open", b.TradingOpen)
}

// CloseAt returns the trading window end as an offset from midnight.
func (b BridgeConfig) CloseAt() (time.Duration, error) {
	return clockOffset("bridge.trading_close", b.TradingClose)
}

// Location resolves the configured time zone; "Local" or "" is the process zone.
func (b BridgeConfig) Location() (*time.Location, error) {
	if b.Timezone == "" || b.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(b.Timezone)
	if err != nil {
		return nil, fmt.Errorf("bridge.timezone: %w", err)
	}
	return loc, nil
}

func clockOffset(name, hhmm string) (time.Duration, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return 0, fmt.Errorf("%s must be HH:MM, got %q", name, hhmm)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}
