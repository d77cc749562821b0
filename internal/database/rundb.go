package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/model"
)

// FileName is the name of the history database inside its directory.
const FileName = "casetally.db"

// ErrNilRun is returned when SaveRun is called without a run.
var ErrNilRun = errors.New("run is nil")

// RunDB stores completed runs in SQLite.
type RunDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures RunDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a RunDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*RunDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (run 'casetally run' to create it)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	rdb := &RunDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := rdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return rdb, nil
}

// Path returns the database file path.
func (rdb *RunDB) Path() string {
	return rdb.dbPath
}

// Close closes the database connection.
func (rdb *RunDB) Close() error {
	return rdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (rdb *RunDB) createTables() error {
	schema := `
	-- One row per completed run
	CREATE TABLE IF NOT EXISTS runs (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		years TEXT NOT NULL,
		total INTEGER NOT NULL DEFAULT 0,
		dropped INTEGER NOT NULL DEFAULT 0,
		failed_sources INTEGER NOT NULL DEFAULT 0,
		timed_out INTEGER NOT NULL DEFAULT 0,
		run_json TEXT NOT NULL,
		summary_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Monthly counts flattened for cross-run comparison
	CREATE TABLE IF NOT EXISTS monthly_counts (
		run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		year INTEGER NOT NULL,
		month INTEGER NOT NULL,
		count INTEGER NOT NULL,
		PRIMARY KEY (run_id, year, month)
	);
	`

	_, err := rdb.db.ExecContext(context.Background(), schema)
	return err
}

// StoredRun is a run loaded back from the database.
type StoredRun struct {
	// Run holds the sources and reconciled records. Raw records are not stored.
	Run *model.Run `json:"run"`

	// Summary is the summary computed when the run was saved.
	Summary aggregate.Summary `json:"summary"`
}

// RunMetadata describes a saved run without loading its records.
type RunMetadata struct {
	ID            string    `json:"id"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at,omitzero"`
	Years         []int     `json:"years"`
	Total         int       `json:"total"`
	Dropped       int       `json:"dropped"`
	FailedSources int       `json:"failed_sources"`
	TimedOut      bool      `json:"timed_out"`
}

// SaveRun stores run and its summary. Saving a run ID twice replaces the
// earlier row.
func (rdb *RunDB) SaveRun(ctx context.Context, run *model.Run, summary aggregate.Summary) error {
	if run == nil {
		return ErrNilRun
	}

	runJSON, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to serialize run: %w", err)
	}
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to serialize summary: %w", err)
	}

	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_counts WHERE run_id = ?`, run.ID); err != nil {
		return fmt.Errorf("failed to clear monthly counts: %w", err)
	}

	query := `
	INSERT INTO runs (id, started_at, finished_at, years, total, dropped, failed_sources, timed_out, run_json, summary_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		started_at = excluded.started_at,
		finished_at = excluded.finished_at,
		years = excluded.years,
		total = excluded.total,
		dropped = excluded.dropped,
		failed_sources = excluded.failed_sources,
		timed_out = excluded.timed_out,
		run_json = excluded.run_json,
		summary_json = excluded.summary_json
	`

	_, err = tx.ExecContext(ctx, query,
		run.ID,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		formatYears(run.Years),
		summary.Total,
		run.Dropped.Total(),
		len(run.FailedSources()),
		boolToInt(run.TimedOut),
		string(runJSON),
		string(summaryJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	for key, count := range aggregate.MonthlyCounts(run.Records, run.Years) {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO monthly_counts (run_id, year, month, count) VALUES (?, ?, ?, ?)`,
			run.ID, key.Year, int(key.Month), count,
		)
		if err != nil {
			return fmt.Errorf("failed to save monthly count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID. It returns nil when no run matches.
func (rdb *RunDB) GetRun(ctx context.Context, id string) (*StoredRun, error) {
	query := `SELECT run_json, summary_json FROM runs WHERE id = ?`

	var runJSON, summaryJSON string
	err := rdb.db.QueryRowContext(ctx, query, id).Scan(&runJSON, &summaryJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return decodeStoredRun(runJSON, summaryJSON)
}

// LatestRuns returns up to n runs, most recent first.
func (rdb *RunDB) LatestRuns(ctx context.Context, n int) ([]*StoredRun, error) {
	query := `
	SELECT run_json, summary_json FROM runs
	ORDER BY started_at DESC, seq DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, n)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*StoredRun
	for rows.Next() {
		var runJSON, summaryJSON string
		if err := rows.Scan(&runJSON, &summaryJSON); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		stored, err := decodeStoredRun(runJSON, summaryJSON)
		if err != nil {
			continue // Skip malformed runs
		}
		runs = append(runs, stored)
	}

	return runs, rows.Err()
}

// ListRuns returns metadata for up to limit runs, most recent first.
// A limit of zero or less lists every run.
func (rdb *RunDB) ListRuns(ctx context.Context, limit int) ([]RunMetadata, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT id, started_at, finished_at, years, total, dropped, failed_sources, timed_out
	FROM runs
	ORDER BY started_at DESC, seq DESC
	LIMIT ?
	`

	rows, err := rdb.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started, years string
		var finished sql.NullString

		err := rows.Scan(
			&meta.ID,
			&started,
			&finished,
			&years,
			&meta.Total,
			&meta.Dropped,
			&meta.FailedSources,
			&meta.TimedOut,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan metadata: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		if finished.Valid {
			meta.FinishedAt = parseTimestamp(finished.String)
		}
		meta.Years = parseYears(years)
		results = append(results, meta)
	}

	return results, rows.Err()
}

// MonthlyCounts returns the stored per-month counts of one run.
func (rdb *RunDB) MonthlyCounts(ctx context.Context, runID string) (map[aggregate.MonthKey]int, error) {
	rows, err := rdb.db.QueryContext(ctx,
		`SELECT year, month, count FROM monthly_counts WHERE run_id = ?`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[aggregate.MonthKey]int)
	for rows.Next() {
		var year, month, count int
		if err := rows.Scan(&year, &month, &count); err != nil {
			return nil, fmt.Errorf("failed to scan monthly count: %w", err)
		}
		counts[aggregate.MonthKey{Year: year, Month: time.Month(month)}] = count
	}

	return counts, rows.Err()
}

// DeleteRun removes a run and its monthly counts. Deleting an unknown ID is not an error.
func (rdb *RunDB) DeleteRun(ctx context.Context, id string) error {
	tx, err := rdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM monthly_counts WHERE run_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete monthly counts: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	return tx.Commit()
}

func decodeStoredRun(runJSON, summaryJSON string) (*StoredRun, error) {
	var stored StoredRun
	stored.Run = &model.Run{}
	if err := json.Unmarshal([]byte(runJSON), stored.Run); err != nil {
		return nil, fmt.Errorf("failed to parse run: %w", err)
	}
	if err := json.Unmarshal([]byte(summaryJSON), &stored.Summary); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &stored, nil
}

func formatYears(years []int) string {
	parts := make([]string, 0, len(years))
	for _, y := range years {
		parts = append(parts, strconv.Itoa(y))
	}
	return strings.Join(parts, ",")
}

func parseYears(s string) []int {
	years := make([]int, 0)
	for part := range strings.SplitSeq(s, ",") {
		if y, err := strconv.Atoi(strings.TrimSpace(part)); err == nil {
			years = append(years, y)
		}
	}
	return years
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampLayout keeps a fixed fraction width so stored times sort lexically.
const timestampLayout = "2006-01-02T15:04:05.000000000Z"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timestampLayout)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999",
}

// parseTimestamp parses s with each known format, returning zero time when
// none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
