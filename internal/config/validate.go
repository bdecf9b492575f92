package config

import (
	"errors"
	"fmt"
	"strconv"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %q", c.Port)
	}

	switch c.Persistence {
	case PersistenceFirestore:
		if c.ProjectID == "" {
			return errors.New("project_id is required for firestore persistence")
		}
	case PersistencePostgres:
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	case PersistenceFile:
		if c.DataDir == "" {
			return errors.New("data_dir is required for file persistence")
		}
	default:
		return fmt.Errorf("persistence must be one of firestore, postgres, file, got %q", c.Persistence)
	}

	if !c.AuthDisabled && c.ProjectID == "" {
		return errors.New("project_id is required unless auth is disabled")
	}

	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}
	if c.Providers.Timeout < 0 {
		return errors.New("providers.timeout must be >= 0")
	}
	return nil
}

// NeedsSecrets reports whether any provider key has to be read from Secret
// Manager.
func (c *Config) NeedsSecrets() bool {
	return c.Providers.AlphaVantageKey == "" || c.Providers.FinnhubKey == ""
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
