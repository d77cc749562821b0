package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/casetally/internal/config"
	"github.com/nao1215/casetally/internal/database"
	"github.com/nao1215/casetally/internal/model"
)

const tableHeader = `<tr><th>No.</th><th>Date Died</th><th>Age</th><th>Case Closed?</th><th>Surveillance</th><th>Notes</th></tr>`

func testPage(rows ...[]string) string {
	var sb strings.Builder
	sb.WriteString("<html><body><table>" + tableHeader)
	for _, cells := range rows {
		sb.WriteString("<tr>")
		for _, c := range cells {
			fmt.Fprintf(&sb, "<td>%s</td>", c)
		}
		sb.WriteString("</tr>")
	}
	sb.WriteString("</table></body></html>")
	return sb.String()
}

// newSourceServer serves a 2024 and a 2025 page with four valid records
// between them. Any other path returns 404.
func newSourceServer(t *testing.T) *httptest.Server {
	t.Helper()

	pages := map[string]string{
		"/2024": testPage(
			[]string{"1", "03/15/24", "34", "Closed", "2 cameras", "Shot outside a store"},
			[]string{"2", "unknown", "20", "", "", "Stabbed"},
			[]string{"3", "12/30/24", "41", "", "none", "Assaulted"},
		),
		"/2025": testPage(
			[]string{"1", "01/09/25", "19", "", "1", "stabbed and shot"},
			[]string{"2", "12/30/24", "", "Closed", "", "found in car"},
			[]string{"3", "??/??/25", "40", "", "", "shot"},
		),
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestConfig returns a valid config for server with history in a temp dir.
func newTestConfig(t *testing.T, server *httptest.Server) *config.Config {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Sources = []config.Source{
		{Year: 2024, URL: server.URL + "/2024"},
		{Year: 2025, URL: server.URL + "/2025"},
	}
	cfg.FetchDelay = 0
	cfg.Timeout = 10 * time.Second
	cfg.DBDir = t.TempDir()
	return cfg
}

// isolateConfigSearch keeps buildConfig from finding a real .casetally file.
func isolateConfigSearch(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, key := range []string{
		"CASETALLY_TIMEOUT", "CASETALLY_REQUEST_TIMEOUT", "CASETALLY_CONCURRENCY",
		"CASETALLY_FETCH_DELAY", "CASETALLY_USER_AGENT", "CASETALLY_PROXY", "CASETALLY_DB_DIR",
		"CASETALLY_LOG_FORMAT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	return dir
}

// TestNewRunCmd tests the run command flags.
func TestNewRunCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRunCmd()

	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{"source", "s", "[]"},
		{"config", "c", ""},
		{"timeout", "t", config.DefaultTimeout.String()},
		{"concurrency", "n", "1"},
		{"fetch-delay", "", config.DefaultFetchDelay.String()},
		{"proxy", "x", ""},
		{"json", "j", "false"},
		{"markdown", "m", "false"},
		{"output", "o", ""},
		{"xlsx", "", ""},
		{"metrics-file", "", ""},
		{"show-empty", "", "false"},
		{"log-format", "", config.LogFormatText},
		{"save", "", "true"},
		{"db-dir", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("expected shorthand %q, got %q", tt.shorthand, flag.Shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("expected default %q, got %q", tt.defValue, flag.DefValue)
			}
		})
	}

	if usage := cmd.Flags().Lookup("years").Usage; !strings.Contains(usage, "published tallies") {
		t.Errorf("expected --years help to note the published tallies, got %q", usage)
	}
}

// TestBuildConfig tests configuration layering.
func TestBuildConfig(t *testing.T) {
	t.Run("flags override the config file per year", func(t *testing.T) {
		dir := isolateConfigSearch(t)
		configPath := filepath.Join(dir, "custom.yaml")
		content := `sources:
  - year: 2024
    url: https://example.com/file-2024
  - year: 2025
    url: https://example.com/file-2025
timeout: 90s
concurrency: 3
`
		if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{
			"-c", configPath,
			"-s", "2025=https://example.com/flag-2025",
			"--concurrency", "2",
			"--json",
		}); err != nil {
			t.Fatalf("ParseFlags error: %v", err)
		}

		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(cfg.Sources) != 2 {
			t.Fatalf("expected 2 sources, got %v", cfg.Sources)
		}
		if cfg.Sources[0].URL != "https://example.com/file-2024" {
			t.Errorf("expected file source for 2024, got %q", cfg.Sources[0].URL)
		}
		if cfg.Sources[1].URL != "https://example.com/flag-2025" {
			t.Errorf("expected flag source for 2025, got %q", cfg.Sources[1].URL)
		}
		if cfg.Timeout != 90*time.Second {
			t.Errorf("expected timeout from file, got %v", cfg.Timeout)
		}
		if cfg.Concurrency != 2 {
			t.Errorf("expected concurrency from flag, got %d", cfg.Concurrency)
		}
		if !cfg.JSONReport {
			t.Error("expected JSON report")
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected valid config, got %v", err)
		}
	})

	t.Run("environment overrides the config file", func(t *testing.T) {
		dir := isolateConfigSearch(t)
		if err := os.WriteFile(filepath.Join(dir, config.DefaultConfigFile), []byte("timeout: 90s\n"), 0600); err != nil {
			t.Fatal(err)
		}
		t.Setenv("CASETALLY_TIMEOUT", "5s")

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"-s", "2024=https://example.com/2024"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Timeout != 5*time.Second {
			t.Errorf("expected timeout 5s, got %v", cfg.Timeout)
		}
	})

	t.Run("log format and empty sections", func(t *testing.T) {
		isolateConfigSearch(t)
		t.Setenv("CASETALLY_LOG_FORMAT", "xml")

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{
			"-s", "2024=https://example.com/2024",
			"--log-format", "json",
			"--show-empty",
		}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.LogFormat != config.LogFormatJSON {
			t.Errorf("expected flag to override env log format, got %q", cfg.LogFormat)
		}
		if !cfg.ShowEmpty {
			t.Error("expected ShowEmpty")
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		dir := isolateConfigSearch(t)

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"-c", filepath.Join(dir, "missing.yaml")}); err != nil {
			t.Fatal(err)
		}
		_, err := buildConfig(cmd)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed source flag", func(t *testing.T) {
		isolateConfigSearch(t)

		cmd := NewRunCmd()
		if err := cmd.ParseFlags([]string{"-s", "not-a-source"}); err != nil {
			t.Fatal(err)
		}
		if _, err := buildConfig(cmd); err == nil {
			t.Error("expected error for malformed source")
		}
	})
}

// TestNewLogger tests log format selection.
func TestNewLogger(t *testing.T) {
	t.Parallel()

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		cfg.LogFormat = config.LogFormatJSON
		var buf bytes.Buffer
		newLogger(cfg, &buf).Warn("source failed", "year", 2024)

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
		}
		if entry["msg"] != "source failed" {
			t.Errorf("expected msg %q, got %v", "source failed", entry["msg"])
		}
	})

	t.Run("text", func(t *testing.T) {
		t.Parallel()

		cfg := config.NewConfig()
		var buf bytes.Buffer
		newLogger(cfg, &buf).Warn("source failed")

		if !strings.Contains(buf.String(), "level=WARN") {
			t.Errorf("expected text log line, got %q", buf.String())
		}
	})
}

// TestReportWriterShowEmpty tests that empty sections follow cfg.ShowEmpty.
func TestReportWriterShowEmpty(t *testing.T) {
	t.Parallel()

	run := model.NewRun("empty", []int{2024}, nil)

	tests := []struct {
		name      string
		showEmpty bool
		want      bool
	}{
		{"hidden by default", false, false},
		{"shown on request", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := config.NewConfig()
			cfg.ShowEmpty = tt.showEmpty
			var buf bytes.Buffer
			if _, err := reportWriter(cfg, &buf).Write(run); err != nil {
				t.Fatalf("Write error: %v", err)
			}
			if got := strings.Contains(buf.String(), "MONTHLY COUNTS"); got != tt.want {
				t.Errorf("expected monthly section present=%v, got %v", tt.want, got)
			}
		})
	}
}

// TestExecuteRun tests a full run against a local server.
func TestExecuteRun(t *testing.T) {
	t.Parallel()

	t.Run("writes every output and saves history", func(t *testing.T) {
		t.Parallel()

		server := newSourceServer(t)
		cfg := newTestConfig(t, server)
		outDir := t.TempDir()
		cfg.ReportFile = filepath.Join(outDir, "reports", "report.md")
		cfg.MarkdownReport = true
		cfg.XLSXFile = filepath.Join(outDir, "monthly.xlsx")
		cfg.MetricsFile = filepath.Join(outDir, "casetally.prom")

		var stdout bytes.Buffer
		run, err := executeRun(context.Background(), cfg, quietLogger(), &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(run.Records) != 4 {
			t.Fatalf("expected 4 records, got %d", len(run.Records))
		}
		if stdout.Len() != 0 {
			t.Errorf("expected nothing on stdout when writing to a file, got %q", stdout.String())
		}

		md, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("expected report file: %v", err)
		}
		if !strings.Contains(string(md), "# Casetally Report") {
			t.Error("expected Markdown report")
		}

		wb, err := excelize.OpenFile(cfg.XLSXFile)
		if err != nil {
			t.Fatalf("expected workbook: %v", err)
		}
		defer wb.Close()
		rows, err := wb.GetRows("Monthly")
		if err != nil {
			t.Fatalf("GetRows error: %v", err)
		}
		// Header, Jan, Mar, Dec.
		if len(rows) != 4 {
			t.Errorf("expected 4 rows, got %d: %v", len(rows), rows)
		}

		prom, err := os.ReadFile(cfg.MetricsFile)
		if err != nil {
			t.Fatalf("expected metrics file: %v", err)
		}
		if !strings.Contains(string(prom), `casetally_records_reconciled_total{year="2024"} 3`) {
			t.Errorf("expected reconciled counter in metrics, got:\n%s", prom)
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		stored, err := db.GetRun(context.Background(), run.ID)
		if err != nil {
			t.Fatalf("GetRun error: %v", err)
		}
		if stored == nil {
			t.Fatal("expected run to be saved")
		}
		if stored.Summary.Total != 4 {
			t.Errorf("expected saved total 4, got %d", stored.Summary.Total)
		}
	})

	t.Run("failed source is reported not returned", func(t *testing.T) {
		t.Parallel()

		server := newSourceServer(t)
		cfg := newTestConfig(t, server)
		cfg.Sources[1].URL = server.URL + "/missing"
		cfg.JSONReport = true
		cfg.SaveToDB = false

		var stdout bytes.Buffer
		run, err := executeRun(context.Background(), cfg, quietLogger(), &stdout)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.Sources[1].Status != model.SourceUnavailable {
			t.Errorf("expected unavailable source, got %v", run.Sources[1].Status)
		}
		if run.Sources[1].StatusCode != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", run.Sources[1].StatusCode)
		}

		var decoded struct {
			Summary struct {
				Total int `json:"total"`
			} `json:"summary"`
		}
		if err := json.Unmarshal(stdout.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON on stdout: %v", err)
		}
		if decoded.Summary.Total != 2 {
			t.Errorf("expected 2 records from the remaining source, got %d", decoded.Summary.Total)
		}

		if _, err := os.Stat(filepath.Join(cfg.DBDir, database.FileName)); !os.IsNotExist(err) {
			t.Error("expected no database when saving is disabled")
		}
	})

	t.Run("cancelled run is not saved", func(t *testing.T) {
		t.Parallel()

		server := newSourceServer(t)
		cfg := newTestConfig(t, server)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		run, err := executeRun(ctx, cfg, quietLogger(), io.Discard)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
		if run == nil || !run.TimedOut {
			t.Error("expected run marked as cut short")
		}

		db, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()
		runs, err := db.ListRuns(context.Background(), 0)
		if err != nil {
			t.Fatalf("ListRuns error: %v", err)
		}
		if len(runs) != 0 {
			t.Errorf("expected no saved runs, got %d", len(runs))
		}
	})

	t.Run("bad proxy fails before fetching", func(t *testing.T) {
		t.Parallel()

		server := newSourceServer(t)
		cfg := newTestConfig(t, server)
		cfg.ProxyAddress = "://bad"

		if _, err := executeRun(context.Background(), cfg, quietLogger(), io.Discard); err == nil {
			t.Error("expected error for malformed proxy")
		}
	})
}

// TestRunCmdEndToEnd runs the command through the root command.
func TestRunCmdEndToEnd(t *testing.T) {
	dir := isolateConfigSearch(t)
	server := newSourceServer(t)

	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs([]string{
		"run",
		"-s", "2024=" + server.URL + "/2024",
		"-s", "2025=" + server.URL + "/2025",
		"--fetch-delay", "0s",
		"--db-dir", dir,
	})

	if err := root.Execute(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := out.String()
	for _, want := range []string{"CASETALLY REPORT", "MONTHLY COUNTS", "Dec"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q", want)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, database.FileName)); err != nil {
		t.Errorf("expected history database: %v", err)
	}
}

// TestRunCmdConfigErrors tests that invalid configuration is fatal.
func TestRunCmdConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "no sources",
			args:    []string{"run"},
			wantErr: config.ErrNoSources,
		},
		{
			name:    "conflicting formats",
			args:    []string{"run", "-s", "2024=https://example.com", "--json", "--markdown"},
			wantErr: config.ErrConflictingReportFormats,
		},
		{
			name:    "unknown log format",
			args:    []string{"run", "-s", "2024=https://example.com", "--log-format", "xml"},
			wantErr: config.ErrInvalidLogFormat,
		},
		{
			name:    "year outside range",
			args:    []string{"run", "-s", "2024=https://example.com", "--years", "1800"},
			wantErr: config.ErrNoYears,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigSearch(t)

			root := NewRootCmd()
			root.SetOut(io.Discard)
			root.SetErr(io.Discard)
			root.SetArgs(append(tt.args, "--save=false", "--timeout", "1ms"))

			if err := root.Execute(); !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}
