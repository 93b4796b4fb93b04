package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
	"gopkg.in/yaml.v3"
)

// Provider modes.
const (
	ModeLive    = "live"
	ModeFixture = "fixture"
)

type Config struct {
	Provider ProviderConfig `yaml:"provider"`
	Session  SessionConfig  `yaml:"session"`
	Bridge   BridgeConfig   `yaml:"bridge"`
	Log      LogConfig      `yaml:"log"`
}

type ProviderConfig struct {
	Mode             string        `yaml:"mode"`
	WsURL            string        `yaml:"ws_url"`
	User             string        `yaml:"user"`
	Password         string        `yaml:"password"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	QueriesPerSecond int           `yaml:"queries_per_second"`
	Verbose          bool          `yaml:"verbose"`
	FixturePath      string        `yaml:"fixture_path"`
}

type SessionConfig struct {
	// RenewInterval is the staleness threshold. Zero disables renewal.
	RenewInterval time.Duration `yaml:"renew_interval"`
}

type BridgeConfig struct {
	AuditDir      string `yaml:"audit_dir"`
	StockListPath string `yaml:"stock_list_path"`
	TradingOpen   string `yaml:"trading_open"`
	TradingClose  string `yaml:"trading_close"`
	Timezone      string `yaml:"timezone"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

func Default() Config {
	return Config{
		Provider: ProviderConfig{
			Mode:           ModeLive,
			WsURL:          "ws://127.0.0.1:10030/ws",
			User:           "anonymous",
			Password:       "123456",
			RequestTimeout: 30 * time.Second,
		},
		Session: SessionConfig{RenewInterval: time.Hour},
		Bridge: BridgeConfig{
			AuditDir:      "Log",
			StockListPath: "list.json",
			TradingOpen:   "09:30",
			TradingClose:  "15:00",
			Timezone:      "Local",
		},
		Log: LogConfig{Level: "info"},
	}
}

// NewModule supplies the configuration loaded from path to the fx graph.
func NewModule(path string) fx.Option {
	return fx.Module("config",
		fx.Provide(func() (*Config, error) {
			return Load(path)
		}),
	)
}

// Load builds the configuration from defaults, then the optional YAML file at
// path (${VAR} references are expanded), then environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnv("BRIDGE_CONFIG", "")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return nil, fmt.Errorf("parse config yaml: %w", err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Provider.Mode = getEnv("PROVIDER_MODE", cfg.Provider.Mode)
	cfg.Provider.WsURL = getEnv("PROVIDER_WS_URL", cfg.Provider.WsURL)
	cfg.Provider.User = getEnv("PROVIDER_USER", cfg.Provider.User)
	cfg.Provider.Password = getEnv("PROVIDER_PASSWORD", cfg.Provider.Password)
	cfg.Provider.FixturePath = getEnv("PROVIDER_FIXTURE_PATH", cfg.Provider.FixturePath)
	cfg.Bridge.AuditDir = getEnv("AUDIT_DIR", cfg.Bridge.AuditDir)
	cfg.Bridge.StockListPath = getEnv("STOCK_LIST_PATH", cfg.Bridge.StockListPath)
	cfg.Bridge.TradingOpen = getEnv("TRADING_OPEN", cfg.Bridge.TradingOpen)
	cfg.Bridge.TradingClose = getEnv("TRADING_CLOSE", cfg.Bridge.TradingClose)
	cfg.Bridge.Timezone = getEnv("TRADING_TIMEZONE", cfg.Bridge.Timezone)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)

	var err error
	if cfg.Provider.RequestTimeout, err = getEnvDuration("PROVIDER_REQUEST_TIMEOUT", cfg.Provider.RequestTimeout); err != nil {
		return err
	}
	if cfg.Session.RenewInterval, err = getEnvDuration("SESSION_RENEW_INTERVAL", cfg.Session.RenewInterval); err != nil {
		return err
	}
	if v := getEnv("PROVIDER_QPS", ""); v != "" {
		if cfg.Provider.QueriesPerSecond, err = strconv.Atoi(v); err != nil {
			return fmt.Errorf("PROVIDER_QPS: %w", err)
		}
	}
	if v := getEnv("PROVIDER_VERBOSE", ""); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "y":
			cfg.Provider.Verbose = true
		case "0", "false", "no", "n":
			cfg.Provider.Verbose = false
		default:
			return fmt.Errorf("PROVIDER_VERBOSE: invalid boolean %q", v)
		}
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	v := getEnv(key, "")
	if v == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
