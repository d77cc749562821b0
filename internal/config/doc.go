// Package config provides configuration structures and utilities for casetally.
// It defines the sources to tally, fetch behavior, history storage and report
// preferences, and loads overrides from a YAML file and the environment.
package config
