package config

import "errors"

// Configuration errors.
// These are returned by Config.Validate and the loaders so callers can use
// errors.Is for programmatic handling.
var (
	// ErrNoSources is returned when no source URL is configured.
	ErrNoSources = errors.New("no sources configured: use --source YEAR=URL or a config file")

	// ErrInvalidSource is returned when a source has a bad year or URL.
	ErrInvalidSource = errors.New("invalid source")

	// ErrDuplicateSourceYear is returned when two sources share a year label.
	ErrDuplicateSourceYear = errors.New("duplicate source year")

	// ErrNoYears is returned when the year filter is empty or out of range.
	ErrNoYears = errors.New("invalid years: at least one year between 1900 and 2100 is required")

	// ErrInvalidTimeout is returned when a timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidConcurrency is returned when the concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidFetchDelay is returned when the fetch delay is negative.
	ErrInvalidFetchDelay = errors.New("invalid fetch delay: must be non-negative")

	// ErrInvalidMaxBodySize is returned when the max body size is negative.
	ErrInvalidMaxBodySize = errors.New("invalid max body size: must be non-negative")

	// ErrInvalidLogFormat is returned when the log format is neither text nor json.
	ErrInvalidLogFormat = errors.New("invalid log format: must be text or json")

	// ErrConfigNotFound is returned when the configuration file does not exist.
	ErrConfigNotFound = errors.New("configuration file not found")
)
