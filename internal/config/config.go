package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Persistence backends for dashboard state.
const (
	PersistenceFirestore = "firestore"
	PersistencePostgres  = "postgres"
	PersistenceFile      = "file"
)

type Config struct {
	ProjectID   string `yaml:"project_id"`
	LogLevel    string `yaml:"log_level"`
	Port        string `yaml:"port"`
	Persistence string `yaml:"persistence"`
	DataDir     string `yaml:"data_dir"`

	// AuthDisabled serves every request as a single local user.
	AuthDisabled bool `yaml:"auth_disabled"`

	Providers ProvidersConfig `yaml:"providers"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Database  DBConfig        `yaml:"database"`
}

// ProvidersConfig holds market data API keys. Empty keys are read from Secret
// Manager using the secret names.
type ProvidersConfig struct {
	AlphaVantageKey    string        `yaml:"alpha_vantage_key"`
	FinnhubKey         string        `yaml:"finnhub_key"`
	AlphaVantageSecret string        `yaml:"alpha_vantage_secret"`
	FinnhubSecret      string        `yaml:"finnhub_secret"`
	Timeout            time.Duration `yaml:"timeout"`

	// Requests per minute allowed to each provider. Negative disables the limit.
	AlphaVantagePerMinute int `yaml:"alpha_vantage_per_minute"`
	FinnhubPerMinute      int `yaml:"finnhub_per_minute"`
}

type RefreshConfig struct {
	Concurrency int `yaml:"concurrency"`
	// DedupeTTL is how long identical provider requests share one response.
	// Negative disables deduplication.
	DedupeTTL     time.Duration `yaml:"dedupe_ttl"`
	DedupeMaxSize int           `yaml:"dedupe_max_size"`
}

type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// New builds the service configuration. When FINBOARD_CONFIG names a YAML file
// it is loaded first; environment variables override its values.
func New() (*Config, error) {
	cfg := &Config{}
	if path := os.Getenv("FINBOARD_CONFIG"); path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Load reads a YAML config file. ${VAR} references are expanded from the
// environment before parsing.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	return &cfg, nil
}

// LoadWithDefaults reads a config file and fills unset fields.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	str("PROJECTID", &c.ProjectID)
	str("LOGLEVEL", &c.LogLevel)
	str("PORT", &c.Port)
	str("PERSISTENCE", &c.Persistence)
	str("DATADIR", &c.DataDir)
	str("ALPHAVANTAGEKEY", &c.Providers.AlphaVantageKey)
	str("FINNHUBKEY", &c.Providers.FinnhubKey)
	str("ALPHAVANTAGESECRET", &c.Providers.AlphaVantageSecret)
	str("FINNHUBSECRET", &c.Providers.FinnhubSecret)
	str("DBHOST", &c.Database.Host)
	str("DBNAME", &c.Database.Name)
	str("DBUSER", &c.Database.User)
	str("DBPASSWORD", &c.Database.Password)
	str("DBSSLMODE", &c.Database.SSLMode)

	if v, ok := lookup("AUTHDISABLED"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("AUTHDISABLED: %w", err)
		}
		c.AuthDisabled = b
	}
	if v, ok := lookup("DBPORT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DBPORT: %w", err)
		}
		c.Database.Port = n
	}
	if v, ok := lookup("REFRESHCONCURRENCY"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("REFRESHCONCURRENCY: %w", err)
		}
		c.Refresh.Concurrency = n
	}
	if v, ok := lookup("DEDUPETTL"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("DEDUPETTL: %w", err)
		}
		c.Refresh.DedupeTTL = d
	}
	return nil
}
