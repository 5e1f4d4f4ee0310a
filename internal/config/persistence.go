package config

import (
	"errors"

	"github.com/andrew-solarstorm/go-packages/common"
)

type PersistenceConfig struct {
	// DBPath is the path to the BoltDB file holding state snapshots.
	// Default: "./data/etf.db"
	DBPath string

	// Enabled controls whether committed state is persisted to disk.
	// Default: true
	Enabled bool

	// FlushInterval is how often a dirty state is saved to disk (in seconds).
	// Default: 10
	FlushInterval int
}

func (c *PersistenceConfig) Key() string {
	return PERSISTENCE_CONFIG_KEY
}

func (c *PersistenceConfig) Load() error {
	c.DBPath = common.GetEnvOrDefault("ETF_DB_PATH", "./data/etf.db")
	c.Enabled = common.GetEnvOrDefault("ETF_PERSISTENCE_ENABLED", "true") == "true"
	c.FlushInterval = common.GetEnvOrDefaultInt("ETF_FLUSH_INTERVAL", 10)
	return c.Validate()
}

func (c *PersistenceConfig) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.DBPath == "" {
		return errors.New("persistence enabled without a db path")
	}
	if c.FlushInterval <= 0 {
		return errors.New("flush interval must be positive")
	}
	return nil
}
