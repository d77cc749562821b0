package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/casetally/internal/aggregate"
	"github.com/nao1215/casetally/internal/config"
	"github.com/nao1215/casetally/internal/database"
)

// defaultHistoryLimit is the number of runs listed when --limit is not set.
const defaultHistoryLimit = 20

// NewHistoryCmd creates the history command.
// This command lists, shows and compares runs saved in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and compare saved runs",
		Long: `History shows the runs saved by 'casetally run'.

Without flags it lists the most recent runs. With --diff it compares the
monthly counts of the latest run with the run before it, or with the run
given by --with-run-id. With --show it prints a saved run again, and
--delete removes a saved run.

Examples:
  # List the last 20 runs
  casetally history

  # Compare monthly counts of the latest two runs
  casetally history --diff

  # Compare the latest run with a specific run
  casetally history --diff --with-run-id 2f1c...

  # Print a saved run as Markdown
  casetally history --show 2f1c... --markdown

  # Remove a saved run
  casetally history --delete 2f1c...

  # Output the run list in JSON format
  casetally history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", defaultHistoryLimit,
		"Maximum number of runs to list (0 lists all)")
	cmd.Flags().BoolP("diff", "d", false,
		"Compare monthly counts of the latest run with an earlier run")
	cmd.Flags().StringP("with-run-id", "i", "",
		"Run ID to compare the latest run with (use with --diff)")
	cmd.Flags().String("show", "",
		"Print the saved run with this ID")
	cmd.Flags().String("delete", "",
		"Delete the saved run with this ID")

	cmd.Flags().BoolP("json", "j", false,
		"Output in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output in Markdown format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed history flags.
type historyOptions struct {
	limit     int
	diff      bool
	withRunID string
	show      string
	delete    string
	json      bool
	markdown  bool
	dbDir     string
}

func parseHistoryFlags(cmd *cobra.Command) (historyOptions, error) {
	var (
		opts historyOptions
		err  error
	)
	flags := cmd.Flags()
	if opts.limit, err = flags.GetInt("limit"); err != nil {
		return opts, err
	}
	if opts.diff, err = flags.GetBool("diff"); err != nil {
		return opts, err
	}
	if opts.withRunID, err = flags.GetString("with-run-id"); err != nil {
		return opts, err
	}
	if opts.show, err = flags.GetString("show"); err != nil {
		return opts, err
	}
	if opts.delete, err = flags.GetString("delete"); err != nil {
		return opts, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return opts, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return opts, err
	}
	if opts.dbDir, err = flags.GetString("db-dir"); err != nil {
		return opts, err
	}
	return opts, nil
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	opts, err := parseHistoryFlags(cmd)
	if err != nil {
		return err
	}

	// Validate flags before opening the database.
	if opts.json && opts.markdown {
		return config.ErrConflictingReportFormats
	}
	if opts.diff && opts.show != "" {
		return errors.New("--diff and --show cannot be used together")
	}
	if opts.delete != "" && (opts.diff || opts.show != "") {
		return errors.New("--delete cannot be used with --diff or --show")
	}
	if opts.withRunID != "" && !opts.diff {
		return errors.New("--with-run-id requires --diff")
	}

	dbDir := opts.dbDir
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	dbOpts := database.DefaultOptions()
	dbOpts.CreateIfNotExists = false
	db, err := database.Open(dbDir, dbOpts)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.delete != "":
		return deleteRun(ctx, db, opts.delete, out)
	case opts.show != "":
		return showRun(ctx, db, opts, out)
	case opts.diff:
		return runDiff(ctx, db, opts, out)
	default:
		return listRuns(ctx, db, opts, out)
	}
}

// listRuns prints the most recent runs.
func listRuns(ctx context.Context, db *database.RunDB, opts historyOptions, out io.Writer) error {
	runs, err := db.ListRuns(ctx, opts.limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if opts.json {
		return writeJSON(out, runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found in the database.")
		fmt.Fprintln(out, "\nUse 'casetally run' to tally sources and save a run.")
		return nil
	}

	if opts.markdown {
		fmt.Fprintln(out, "| Run ID | Started | Years | Records | Dropped | Failed Sources |")
		fmt.Fprintln(out, "|--------|---------|-------|---------|---------|----------------|")
		for _, r := range runs {
			fmt.Fprintf(out, "| `%s` | %s | %s | %d | %d | %s |\n",
				r.ID, r.StartedAt.Format("2006-01-02 15:04"), joinInts(r.Years),
				r.Total, r.Dropped, formatFailed(r))
		}
		return nil
	}

	fmt.Fprintf(out, "Saved runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %7s  %7s  %s\n",
		"ID", "Started", "Years", "Records", "Dropped", "Failed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))
	for _, r := range runs {
		fmt.Fprintf(out, "  %-36s  %-19s  %-10s  %7d  %7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			joinInts(r.Years),
			r.Total,
			r.Dropped,
			formatFailed(r),
		)
	}
	fmt.Fprintln(out, "\nUse 'casetally history --diff' to compare the latest two runs.")
	fmt.Fprintln(out, "Use 'casetally history --show <id>' to print a saved run.")
	return nil
}

// formatFailed describes failed sources and timeouts for a listed run.
func formatFailed(r database.RunMetadata) string {
	s := fmt.Sprintf("%d", r.FailedSources)
	if r.TimedOut {
		s += " (timed out)"
	}
	return s
}

// showRun prints a saved run with the regular report writers.
func showRun(ctx context.Context, db *database.RunDB, opts historyOptions, out io.Writer) error {
	stored, err := db.GetRun(ctx, opts.show)
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", opts.show, err)
	}
	if stored == nil {
		return fmt.Errorf("run %s not found", opts.show)
	}

	cfg := &config.Config{JSONReport: opts.json, MarkdownReport: opts.markdown}
	_, err = reportWriter(cfg, out).Write(stored.Run)
	return err
}

// deleteRun removes a saved run after checking that it exists.
func deleteRun(ctx context.Context, db *database.RunDB, id string, out io.Writer) error {
	stored, err := db.GetRun(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %s: %w", id, err)
	}
	if stored == nil {
		return fmt.Errorf("run %s not found", id)
	}
	if err := db.DeleteRun(ctx, id); err != nil {
		return fmt.Errorf("failed to delete run %s: %w", id, err)
	}
	fmt.Fprintf(out, "Deleted run %s\n", id)
	return nil
}

// DiffResult holds the monthly comparison of two saved runs.
type DiffResult struct {
	// Previous is the earlier run.
	Previous database.RunMetadata `json:"previous"`

	// Current is the latest run.
	Current database.RunMetadata `json:"current"`

	// Changes lists the months whose counts differ.
	Changes []aggregate.MonthDelta `json:"changes"`

	// UnchangedCount is the number of months with equal counts.
	UnchangedCount int `json:"unchanged_count"`
}

// runDiff compares the latest run with the previous or the requested run.
func runDiff(ctx context.Context, db *database.RunDB, opts historyOptions, out io.Writer) error {
	latest, err := db.LatestRuns(ctx, 2)
	if err != nil {
		return fmt.Errorf("failed to get latest runs: %w", err)
	}
	if len(latest) == 0 {
		return errors.New("no runs found in the database")
	}
	current := latest[0]

	var previous *database.StoredRun
	if opts.withRunID != "" {
		previous, err = db.GetRun(ctx, opts.withRunID)
		if err != nil {
			return fmt.Errorf("failed to get run %s: %w", opts.withRunID, err)
		}
		if previous == nil {
			return fmt.Errorf("run %s not found", opts.withRunID)
		}
	} else {
		if len(latest) < 2 {
			return fmt.Errorf("at least 2 runs are required for comparison (found %d)", len(latest))
		}
		previous = latest[1]
	}

	before, err := db.MonthlyCounts(ctx, previous.Run.ID)
	if err != nil {
		return fmt.Errorf("failed to get monthly counts: %w", err)
	}
	after, err := db.MonthlyCounts(ctx, current.Run.ID)
	if err != nil {
		return fmt.Errorf("failed to get monthly counts: %w", err)
	}

	deltas := aggregate.CompareMonthly(before, after)
	changes := aggregate.ChangedMonths(deltas)
	result := &DiffResult{
		Previous:       metadataOf(previous),
		Current:        metadataOf(current),
		Changes:        changes,
		UnchangedCount: len(deltas) - len(changes),
	}
	if result.Changes == nil {
		result.Changes = []aggregate.MonthDelta{}
	}

	switch {
	case opts.json:
		return writeJSON(out, result)
	case opts.markdown:
		writeDiffMarkdown(out, result)
	default:
		writeDiffText(out, result)
	}
	return nil
}

// metadataOf summarizes a stored run for display.
func metadataOf(s *database.StoredRun) database.RunMetadata {
	return database.RunMetadata{
		ID:            s.Run.ID,
		StartedAt:     s.Run.StartedAt,
		FinishedAt:    s.Run.FinishedAt,
		Years:         s.Run.Years,
		Total:         s.Summary.Total,
		Dropped:       s.Run.Dropped.Total(),
		FailedSources: len(s.Run.FailedSources()),
		TimedOut:      s.Run.TimedOut,
	}
}

func writeDiffText(out io.Writer, r *DiffResult) {
	fmt.Fprintln(out, "Run Comparison")
	fmt.Fprintln(out, strings.Repeat("=", 60))
	fmt.Fprintf(out, "Previous: %s (%s, %d records)\n", r.Previous.ID, formatTime(r.Previous.StartedAt), r.Previous.Total)
	fmt.Fprintf(out, "Current:  %s (%s, %d records)\n", r.Current.ID, formatTime(r.Current.StartedAt), r.Current.Total)
	fmt.Fprintf(out, "Total change: %s\n\n", formatDelta(r.Current.Total-r.Previous.Total))

	if len(r.Changes) == 0 {
		fmt.Fprintln(out, "No changes in monthly counts.")
		return
	}

	fmt.Fprintf(out, "  %-6s  %-5s  %8s  %8s  %6s\n", "Year", "Month", "Previous", "Current", "Change")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 42))
	for _, d := range r.Changes {
		fmt.Fprintf(out, "  %-6d  %-5s  %8d  %8d  %6s\n",
			d.Year, aggregate.MonthLabel(d.Month), d.Before, d.After, formatDelta(d.Delta()))
	}
	fmt.Fprintf(out, "\n%d month(s) changed, %d unchanged.\n", len(r.Changes), r.UnchangedCount)
}

func writeDiffMarkdown(out io.Writer, r *DiffResult) {
	fmt.Fprintln(out, "# Run Comparison")
	fmt.Fprintln(out)
	fmt.Fprintln(out, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(out, "|--------|----------|---------|--------|")
	fmt.Fprintf(out, "| Run | `%s` | `%s` | - |\n", r.Previous.ID, r.Current.ID)
	fmt.Fprintf(out, "| Started | %s | %s | - |\n", formatTime(r.Previous.StartedAt), formatTime(r.Current.StartedAt))
	fmt.Fprintf(out, "| Records | %d | %d | %s |\n", r.Previous.Total, r.Current.Total, formatDelta(r.Current.Total-r.Previous.Total))
	fmt.Fprintln(out)

	fmt.Fprintln(out, "## Monthly Changes")
	fmt.Fprintln(out)
	if len(r.Changes) == 0 {
		fmt.Fprintln(out, "No changes in monthly counts.")
		return
	}
	fmt.Fprintln(out, "| Year | Month | Previous | Current | Change |")
	fmt.Fprintln(out, "|------|-------|----------|---------|--------|")
	for _, d := range r.Changes {
		fmt.Fprintf(out, "| %d | %s | %d | %d | %s |\n",
			d.Year, aggregate.MonthLabel(d.Month), d.Before, d.After, formatDelta(d.Delta()))
	}
}

// formatDelta formats a count change with an explicit sign.
func formatDelta(delta int) string {
	if delta > 0 {
		return fmt.Sprintf("+%d", delta)
	}
	return fmt.Sprintf("%d", delta)
}

func formatTime(t time.Time) string {
	return t.Local().Format("2006-01-02 15:04")
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprintf("%d", v)
	}
	return strings.Join(parts, ",")
}

func writeJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
