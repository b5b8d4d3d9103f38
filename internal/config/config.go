package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is the full runtime configuration, mapped from environment
// variables (optionally seeded from a .env file).
type Config struct {
	BinanceAPIKey    string `envconfig:"BINANCE_API_KEY" required:"true"`
	BinanceSecretKey string `envconfig:"BINANCE_SECRET_KEY" required:"true"`
	Testnet          bool   `envconfig:"BINANCE_TESTNET" default:"true"`

	Symbol      string `envconfig:"SYMBOL" default:"BTCUSDT"`
	TimeInForce string `envconfig:"TIME_IN_FORCE" default:"GTC"`

	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile    string `envconfig:"LOG_FILE" default:"logs/bot.log"`
	OrdersFile string `envconfig:"ORDERS_FILE" default:"orders.json"`

	TelegramToken  string `envconfig:"TELEGRAM_TOKEN"`
	TelegramChatID string `envconfig:"TELEGRAM_CHAT_ID"`

	MetricsAPIURL   string `envconfig:"METRICS_API_URL"`
	MetricsAPIToken string `envconfig:"METRICS_API_TOKEN"`
}

// Load reads .env if present, then maps the environment onto Config.
// A missing .env is not an error; production hosts set real env vars.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}
	return &cfg, nil
}
