// Package config reads process settings of the railsim server from the
// environment.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"

	"github.com/matzehuels/railsim/pkg/errors"
)

// Config holds the settings of long-running commands.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string `env:"RAILSIM_ADDR" envDefault:":8080"`

	// RedisURL selects the Redis result cache. Empty disables caching.
	RedisURL string `env:"RAILSIM_REDIS_URL"`

	// CachePrefix namespaces cache keys when several servers share a Redis.
	CachePrefix string `env:"RAILSIM_CACHE_PREFIX"`

	// MongoURI selects the MongoDB run archive. Empty keeps runs in memory.
	MongoURI string `env:"RAILSIM_MONGO_URI"`
	MongoDB  string `env:"RAILSIM_MONGO_DB" envDefault:"railsim"`

	// Workers bounds the scheduler of each run. Zero means GOMAXPROCS.
	Workers int `env:"RAILSIM_WORKERS" envDefault:"0"`

	LogLevel        string        `env:"RAILSIM_LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"RAILSIM_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load reads the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the given variables instead of the process environment.
func LoadFrom(environ map[string]string) (*Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse environment")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New(errors.ErrCodeInvalidInput, "listen address is required")
	}
	if c.Workers != 0 {
		if err := errors.ValidateWorkers(c.Workers); err != nil {
			return err
		}
	}
	if !validLogLevels[c.LogLevel] {
		return errors.New(errors.ErrCodeInvalidInput,
			"invalid log level %q (must be debug, info, warn or error)", c.LogLevel)
	}
	if c.ShutdownTimeout <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "shutdown timeout must be positive")
	}
	return nil
}

// String lists the settings without credentials.
func (c *Config) String() string {
	return fmt.Sprintf("addr=%s redis=%t mongo=%t workers=%d", c.Addr, c.RedisURL != "", c.MongoURI != "", c.Workers)
}
