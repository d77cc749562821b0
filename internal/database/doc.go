// Package database provides SQLite-based storage for casetally run history.
//
// Each saved run keeps its final reconciled records and summary as JSON,
// plus one row per (year, month) count so monthly figures can be compared
// across runs without decoding the full documents. Intermediate pipeline
// state (fetched documents, raw records) is never persisted.
//
// SQLite is accessed through modernc.org/sqlite, which is CGO-free and keeps
// the history in a single file under the XDG data directory.
package database
