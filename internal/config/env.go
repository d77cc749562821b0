package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of every environment override, e.g. CASETALLY_TIMEOUT.
const EnvPrefix = "CASETALLY"

// envOverrides lists the settings that may come from the environment.
// Unset variables leave the prefilled value untouched. Multi-word fields map
// to underscored names, e.g. DBDir reads CASETALLY_DB_DIR.
type envOverrides struct {
	Timeout        time.Duration
	RequestTimeout time.Duration `split_words:"true"`
	FetchDelay     time.Duration `split_words:"true"`
	UserAgent      string        `split_words:"true"`
	Proxy          string
	Concurrency    int
	DBDir          string `split_words:"true"`
	LogFormat      string `split_words:"true"`
}

// ApplyEnv overrides c with any CASETALLY_* environment variables.
func ApplyEnv(c *Config) error {
	env := envOverrides{
		Timeout:        c.Timeout,
		RequestTimeout: c.RequestTimeout,
		FetchDelay:     c.FetchDelay,
		UserAgent:      c.UserAgent,
		Proxy:          c.ProxyAddress,
		Concurrency:    c.Concurrency,
		DBDir:          c.DBDir,
		LogFormat:      c.LogFormat,
	}
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("failed to load config from env: %w", err)
	}

	c.Timeout = env.Timeout
	c.RequestTimeout = env.RequestTimeout
	c.FetchDelay = env.FetchDelay
	c.UserAgent = env.UserAgent
	c.ProxyAddress = env.Proxy
	c.Concurrency = env.Concurrency
	c.DBDir = env.DBDir
	c.LogFormat = env.LogFormat
	return nil
}
