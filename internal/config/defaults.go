package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultLogLevel           = "info"
	DefaultPort               = "8080"
	DefaultPersistence        = PersistenceFirestore
	DefaultDataDir            = "data"
	DefaultAlphaVantageSecret = "alphavantage-api-key"
	DefaultFinnhubSecret      = "finnhub-api-key"
	DefaultProviderTimeout    = 15 * time.Second
	DefaultAlphaVantageRPM    = 5
	DefaultFinnhubRPM         = 60
	DefaultRefreshConcurrency = 4
	DefaultDedupeTTL          = 5 * time.Second
	DefaultDedupeMaxSize      = 1000
	DefaultDBPort             = 5432
	DefaultDBSSLMode          = "prefer"
	DefaultMaxConns           = 10
	DefaultMinConns           = 2
)

func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
	if c.Persistence == "" {
		c.Persistence = DefaultPersistence
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}

	// Provider defaults
	if c.Providers.AlphaVantageSecret == "" {
		c.Providers.AlphaVantageSecret = DefaultAlphaVantageSecret
	}
	if c.Providers.FinnhubSecret == "" {
		c.Providers.FinnhubSecret = DefaultFinnhubSecret
	}
	if c.Providers.Timeout == 0 {
		c.Providers.Timeout = DefaultProviderTimeout
	}
	if c.Providers.AlphaVantagePerMinute == 0 {
		c.Providers.AlphaVantagePerMinute = DefaultAlphaVantageRPM
	}
	if c.Providers.FinnhubPerMinute == 0 {
		c.Providers.FinnhubPerMinute = DefaultFinnhubRPM
	}

	// Refresh defaults
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = DefaultRefreshConcurrency
	}
	if c.Refresh.DedupeTTL == 0 {
		c.Refresh.DedupeTTL = DefaultDedupeTTL
	}
	if c.Refresh.DedupeMaxSize == 0 {
		c.Refresh.DedupeMaxSize = DefaultDedupeMaxSize
	}

	applyDBDefaults(&c.Database)
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
