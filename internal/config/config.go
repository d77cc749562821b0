package config

import (
	"path/filepath"
	"slices"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// DefaultTimeout bounds fetching of all sources together.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestTimeout bounds a single HTTP request.
	DefaultRequestTimeout = 30 * time.Second

	// DefaultConcurrency fetches sources one at a time.
	DefaultConcurrency = 1

	// AppName is the application name used for XDG directory paths.
	AppName = "casetally"

	// DefaultFetchDelay is the minimum spacing between requests.
	DefaultFetchDelay = 1 * time.Second

	// DefaultUserAgent identifies casetally in HTTP requests.
	DefaultUserAgent = "casetally/1.0 (+https://github.com/nao1215/casetally)"

	// DefaultMaxBodySize limits the response body read per source.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB

	// MinYear and MaxYear bound the years a source or filter may name.
	MinYear = 1900
	MaxYear = 2100
)

// Log formats accepted by LogFormat.
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// DefaultYears returns the years a record may belong to when none are configured.
func DefaultYears() []int {
	return []int{2024, 2025}
}

// Config holds all configuration options for casetally.
// It is populated from defaults, the config file, the environment and CLI
// flags, in that order, and passed through the application explicitly.
type Config struct {
	// Sources are the (year label, URL) pairs to fetch, in report order.
	Sources []Source

	// Years are the incident years kept after reconciliation. The published
	// tallies cover DefaultYears; other years are an extension.
	Years []int

	// Timeout bounds fetching of all sources. Sources still pending when it
	// expires are reported unavailable.
	Timeout time.Duration

	// RequestTimeout bounds each HTTP request.
	RequestTimeout time.Duration

	// Concurrency is the number of sources fetched at once.
	Concurrency int

	// FetchDelay is the minimum spacing between requests.
	FetchDelay time.Duration

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes to read.
	// Bodies are cut at this size; 0 reads nothing, so every page comes back
	// empty. Negative values fail validation.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy, "host:port" or a socks5:// URL.
	ProxyAddress string

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// LogFormat selects the log encoding on stderr: LogFormatText or LogFormatJSON.
	LogFormat string

	// ConfigFilePath is the path to the configuration file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport enables JSON report output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report. Empty means stdout.
	ReportFile string

	// XLSXFile, when set, also writes a workbook with the monthly chart.
	XLSXFile string

	// MetricsFile, when set, writes Prometheus metrics in text format.
	MetricsFile string

	// DBDir is the directory holding the run history database.
	// Defaults to XDG data directory (~/.local/share/casetally on Linux).
	DBDir string

	// SaveToDB stores the final run in the history database.
	SaveToDB bool

	// ShowEmpty prints console sections whose counts are all zero.
	ShowEmpty bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		Years:          DefaultYears(),
		Timeout:        DefaultTimeout,
		RequestTimeout: DefaultRequestTimeout,
		Concurrency:    DefaultConcurrency,
		FetchDelay:     DefaultFetchDelay,
		UserAgent:      DefaultUserAgent,
		MaxBodySize:    DefaultMaxBodySize,
		LogFormat:      LogFormatText,
		DBDir:          XDGDataDir(),
		SaveToDB:       true,
	}
}

// XDGDataDir returns the XDG data directory for casetally.
// On Linux: ~/.local/share/casetally
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for casetally.
// On Linux: ~/.config/casetally
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}
	if err := ValidateSources(c.Sources); err != nil {
		return err
	}

	if len(c.Years) == 0 {
		return ErrNoYears
	}
	for _, y := range c.Years {
		if y < MinYear || y > MaxYear {
			return ErrNoYears
		}
	}

	if c.Timeout <= 0 || c.RequestTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	if c.FetchDelay < 0 {
		return ErrInvalidFetchDelay
	}

	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	if c.LogFormat != LogFormatText && c.LogFormat != LogFormatJSON {
		return ErrInvalidLogFormat
	}

	return nil
}

// SourceYears returns the year label of every source, in source order.
func (c *Config) SourceYears() []int {
	years := make([]int, 0, len(c.Sources))
	for _, s := range c.Sources {
		if !slices.Contains(years, s.Year) {
			years = append(years, s.Year)
		}
	}
	return years
}
