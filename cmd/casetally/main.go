// Package main provides the entry point for the casetally CLI.
//
// casetally fetches yearly incident-record tables, reconciles their rows into
// a common shape and reports monthly, method, case status, camera and age
// summaries.
//
// Usage:
//
//	casetally run --source 2024=https://example.com/2024 --source 2025=https://example.com/2025
//	casetally history --diff
//
// See --help for all available options.
package main

// main is the entry point for casetally.
func main() {
	Execute()
}
