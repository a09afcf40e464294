package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	App       AppConfig      `envPrefix:"APP_"`
	Book      BookConfig     `envPrefix:"BOOK_"`
	Exchanges []string       `env:"EXCHANGES" envSeparator:"," envDefault:"binance,bitstamp"`
	Binance   BinanceConfig  `envPrefix:"BINANCE_"`
	Bitstamp  BitstampConfig `envPrefix:"BITSTAMP_"`
	Kucoin    KucoinConfig   `envPrefix:"KUCOIN_"`
	Catalog   CatalogConfig  `envPrefix:"CATALOG_"`
}

type AppConfig struct {
	Name        string `env:"NAME" envDefault:"orderbook-aggregator"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:"127.0.0.1:9001"`
	// Empty disables the metrics endpoint.
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":2112"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	DebugMode   bool   `env:"DEBUG_MODE" envDefault:"false"`
}

type BookConfig struct {
	DefaultLevels int `env:"DEFAULT_LEVELS" envDefault:"10"`
	MaxLevels     int `env:"MAX_LEVELS" envDefault:"100"`
	// Levels requested from every exchange snapshot.
	SnapshotDepth   int           `env:"SNAPSHOT_DEPTH" envDefault:"100"`
	SummaryBuffer   int           `env:"SUMMARY_BUFFER" envDefault:"1"`
	SnapshotTimeout time.Duration `env:"SNAPSHOT_TIMEOUT" envDefault:"10s"`
}

type BinanceConfig struct {
	StreamEndpoint string `env:"STREAM_ENDPOINT" envDefault:"wss://stream.binance.com:9443/stream"`
	WSAPIEndpoint  string `env:"WS_API_ENDPOINT" envDefault:"wss://ws-api.binance.com:443/ws-api/v3"`
	// Suffix of the diff depth stream name, e.g. @depth@100ms.
	UpdateSpeed string `env:"UPDATE_SPEED" envDefault:"@100ms"`
}

type BitstampConfig struct {
	StreamEndpoint string `env:"STREAM_ENDPOINT" envDefault:"wss://ws.bitstamp.net"`
	RESTEndpoint   string `env:"REST_ENDPOINT" envDefault:"https://www.bitstamp.net"`
}

type KucoinConfig struct {
	BaseURI    string `env:"API_BASE_URI" envDefault:"https://api.kucoin.com"`
	Key        string `env:"API_KEY"`
	Secret     string `env:"API_SECRET"`
	Passphrase string `env:"API_PASSPHRASE"`
	KeyVersion string `env:"API_KEY_VERSION" envDefault:"2"`
}

type CatalogConfig struct {
	// Non-empty bypasses the exchange symbol lookups.
	Symbols         []string      `env:"SYMBOLS" envSeparator:","`
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"1h"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	return Parse()
}

// Parse reads the configuration from the process environment only.
func Parse() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if len(c.Exchanges) == 0 {
		return fmt.Errorf("EXCHANGES must name at least one exchange")
	}
	if c.Book.DefaultLevels < 1 || c.Book.DefaultLevels > c.Book.MaxLevels {
		return fmt.Errorf("BOOK_DEFAULT_LEVELS must be within [1, %d], got %d", c.Book.MaxLevels, c.Book.DefaultLevels)
	}
	if c.Book.SnapshotDepth < 1 {
		return fmt.Errorf("BOOK_SNAPSHOT_DEPTH must be positive, got %d", c.Book.SnapshotDepth)
	}
	if c.Book.SummaryBuffer < 1 {
		return fmt.Errorf("BOOK_SUMMARY_BUFFER must be positive, got %d", c.Book.SummaryBuffer)
	}
	return nil
}
