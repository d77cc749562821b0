package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".casetally"

// xdgConfigFile is the file name looked up inside the XDG config directory.
const xdgConfigFile = "config.yaml"

// File represents the structure of the .casetally configuration file.
// Zero values leave the corresponding Config field unchanged.
type File struct {
	// Sources lists the pages to tally.
	Sources []Source `yaml:"sources,omitempty"`

	// Years overrides the incident year filter.
	Years []int `yaml:"years,omitempty"`

	// Timeout bounds fetching of all sources, e.g. "60s".
	Timeout time.Duration `yaml:"timeout,omitempty"`

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`

	// Concurrency is the number of sources fetched at once.
	Concurrency int `yaml:"concurrency,omitempty"`

	// FetchDelay is the minimum spacing between requests.
	FetchDelay time.Duration `yaml:"fetchDelay,omitempty"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `yaml:"userAgent,omitempty"`

	// Proxy is an optional SOCKS5 proxy address.
	Proxy string `yaml:"proxy,omitempty"`

	// DBDir is the directory holding the run history database.
	DBDir string `yaml:"dbDir,omitempty"`
}

// Apply copies every set field of the file onto c.
func (f *File) Apply(c *Config) {
	if len(f.Sources) > 0 {
		c.Sources = MergeSources(c.Sources, f.Sources)
	}
	if len(f.Years) > 0 {
		c.Years = append([]int(nil), f.Years...)
	}
	if f.Timeout != 0 {
		c.Timeout = f.Timeout
	}
	if f.RequestTimeout != 0 {
		c.RequestTimeout = f.RequestTimeout
	}
	if f.Concurrency != 0 {
		c.Concurrency = f.Concurrency
	}
	if f.FetchDelay != 0 {
		c.FetchDelay = f.FetchDelay
	}
	if f.UserAgent != "" {
		c.UserAgent = f.UserAgent
	}
	if f.Proxy != "" {
		c.ProxyAddress = f.Proxy
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
	}
}

// LoadConfigFile loads a configuration file in YAML format.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error based on whether the path was
// explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}

	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .casetally in the current directory
// 3. Look for .casetally in the user's home directory
// 4. Look for config.yaml in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), xdgConfigFile))

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
