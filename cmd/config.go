package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"db-factory/internal/dbcontext"
)

type DBConfig struct {
	Name   string `mapstructure:"name"`
	Driver string `mapstructure:"driver"`
	DSN    string `mapstructure:"dsn"`
	Active bool   `mapstructure:"active"`

	// Optional execution context settings; unset means driver default.
	CommandTimeout     string `mapstructure:"command_timeout"`
	MinBatchSize       *int   `mapstructure:"min_batch_size"`
	MaxBatchSize       *int   `mapstructure:"max_batch_size"`
	QuerySplitting     string `mapstructure:"query_splitting"`
	UseRelationalNulls *bool  `mapstructure:"use_relational_nulls"`
}

// GetActiveDBConfig returns the currently active database configuration.
func GetActiveDBConfig() (*DBConfig, error) {
	var configs []DBConfig

	if err := viper.UnmarshalKey("databases", &configs); err != nil {
		return nil, fmt.Errorf("failed to parse databases config: %w", err)
	}
	return activeConfig(configs)
}

func activeConfig(configs []DBConfig) (*DBConfig, error) {
	var active *DBConfig
	count := 0

	for i := range configs {
		if configs[i].Active {
			active = &configs[i]
			count++
		}
	}

	if count == 0 {
		return nil, fmt.Errorf("no active database found in config (set active: true)")
	}
	if count > 1 {
		return nil, fmt.Errorf("multiple active databases found (only one can be active)")
	}
	return active, nil
}

// Timeout parses CommandTimeout; nil when unset.
func (c *DBConfig) Timeout() (*time.Duration, error) {
	if c.CommandTimeout == "" {
		return nil, nil
	}
	d, err := time.ParseDuration(c.CommandTimeout)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid command_timeout %q: %w", c.Name, c.CommandTimeout, err)
	}
	return &d, nil
}

// Extension converts the optional settings into a FactoryExtension.
func (c *DBConfig) Extension() (*dbcontext.FactoryExtension, error) {
	timeout, err := c.Timeout()
	if err != nil {
		return nil, err
	}

	ext := &dbcontext.FactoryExtension{
		CommandTimeout:     timeout,
		MinBatchSize:       c.MinBatchSize,
		MaxBatchSize:       c.MaxBatchSize,
		UseRelationalNulls: c.UseRelationalNulls,
	}
	if c.QuerySplitting != "" {
		b, err := dbcontext.ParseQuerySplittingBehavior(c.QuerySplitting)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c.Name, err)
		}
		ext.QuerySplittingBehavior = &b
	}
	return ext, nil
}
