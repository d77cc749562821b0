package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/nao1215/casetally/internal/model"
)

func intPtr(v int) *int { return &v }

// createTestRun creates a run with sample data for testing.
func createTestRun() *model.Run {
	run := model.NewRun("run-123", []int{2024, 2025}, []model.SourceResult{
		{Year: 2024, URL: "https://example.com/2024"},
		{Year: 2025, URL: "https://example.com/2025"},
	})
	run.Sources[0].Status = model.SourceOK
	run.Sources[0].RawCount = 3
	run.Sources[0].ContentHash = "0123456789abcdef0123"
	run.Sources[0].Columns = []string{"No.", "Date Died", "Age"}
	run.Sources[0].Schema = model.SchemaMap{model.FieldDate: 1, model.FieldAge: 2}
	run.Sources[1].Fail(model.SourceNoDateColumn, errors.New("no usable date column"))

	date := func(y int, m time.Month) time.Time { return time.Date(y, m, 3, 0, 0, 0, 0, time.UTC) }
	run.Records = []model.ReconciledRecord{
		{Year: 2024, Date: date(2024, time.March), Month: time.March, Age: intPtr(30), Method: model.MethodShooting, CaseStatus: model.CaseClosed, CameraStatus: model.CameraPresent},
		{Year: 2024, Date: date(2024, time.March), Month: time.March, Age: intPtr(40), Method: model.MethodStabbing},
		{Year: 2025, Date: date(2025, time.January), Month: time.January, Method: model.MethodShooting, CameraStatus: model.NoCamera},
	}
	run.Dropped = model.DropStats{UnparseableDate: 1}
	return run
}

// TestSimpleWriter tests the console table writer.
func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header and tables", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewSimpleWriter(&buf).Write(createTestRun())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != buf.Len() {
			t.Errorf("expected %d bytes reported, got %d", buf.Len(), n)
		}

		output := buf.String()
		for _, want := range []string{
			"CASETALLY REPORT",
			"run-123",
			"MONTHLY COUNTS",
			"Mar",
			"Jan",
			"Stabbing",
			"No Date Column",
			"Complete with unavailable sources",
			"AGE",
			"35.0",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("month rows follow calendar order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if strings.Index(output, "Jan") > strings.Index(output, "Mar") {
			t.Error("expected Jan before Mar")
		}
	})

	t.Run("verbose shows schema and drops", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSimpleWriter(&buf, WithVerbose(true)).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "date    -> column 1") {
			t.Error("expected schema mapping in verbose output")
		}
		if !strings.Contains(output, "Unparseable Date:") {
			t.Error("expected drop breakdown in verbose output")
		}
	})

	t.Run("empty run is well formed", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		run := model.NewRun("empty", []int{2024, 2025}, nil)
		if _, err := NewSimpleWriter(&buf, WithShowEmpty(true)).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "No records with a valid age") {
			t.Error("expected age placeholder for empty run")
		}
		if !strings.Contains(output, "No records\n") {
			t.Error("expected empty monthly section")
		}
	})
}

// TestMarkdownWriter tests the Markdown writer.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes sections and pie chart", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestRun()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		for _, want := range []string{
			"# Casetally Report",
			"## Monthly Counts",
			"## Method",
			"```mermaid",
			"Method Distribution",
			"[!WARNING]",
			"`0123456789ab`",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("all sources failed", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun("failed", []int{2024}, []model.SourceResult{{Year: 2024, URL: "https://example.com"}})
		run.Sources[0].Fail(model.SourceUnavailable, errors.New("timeout"))

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		output := buf.String()
		if !strings.Contains(output, "[!CAUTION]") {
			t.Error("expected caution alert")
		}
		if strings.Contains(output, "```mermaid") {
			t.Error("expected no pie chart without records")
		}
	})
}

// TestJSONWriter tests the JSON writer.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("v1.2.3"))
	if _, err := w.Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded struct {
		Version string `json:"version"`
		Run     struct {
			ID      string `json:"id"`
			Records []struct {
				Method string `json:"method"`
			} `json:"records"`
			Sources []struct {
				Status string `json:"status"`
			} `json:"sources"`
		} `json:"run"`
		Summary struct {
			Total int `json:"total"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if decoded.Version != "v1.2.3" {
		t.Errorf("expected version v1.2.3, got %q", decoded.Version)
	}
	if decoded.Run.ID != "run-123" {
		t.Errorf("expected run ID, got %q", decoded.Run.ID)
	}
	if decoded.Summary.Total != 3 {
		t.Errorf("expected total 3, got %d", decoded.Summary.Total)
	}
	if len(decoded.Run.Records) != 3 || decoded.Run.Records[1].Method != "Stabbing" {
		t.Errorf("unexpected records %+v", decoded.Run.Records)
	}
	if decoded.Run.Sources[1].Status != "no_date_column" {
		t.Errorf("expected no_date_column status, got %q", decoded.Run.Sources[1].Status)
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("expected indented output")
	}
}

// TestChartWriter tests the workbook writer.
func TestChartWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewChartWriter(&buf, WithChartTitle("Test Chart")).Write(createTestRun()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("failed to open workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) != 2 || sheets[0] != "Monthly" || sheets[1] != "Method" {
		t.Fatalf("unexpected sheets %v", sheets)
	}

	rows, err := f.GetRows("Monthly")
	if err != nil {
		t.Fatalf("GetRows error: %v", err)
	}
	// Header, Jan, Mar.
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %d: %v", len(rows), rows)
	}
	if rows[0][1] != "2024" || rows[0][2] != "2025" {
		t.Errorf("unexpected header %v", rows[0])
	}
	if rows[1][0] != "Jan" || rows[1][1] != "0" || rows[1][2] != "1" {
		t.Errorf("expected zero-filled Jan row, got %v", rows[1])
	}
	if rows[2][0] != "Mar" || rows[2][1] != "2" {
		t.Errorf("unexpected Mar row %v", rows[2])
	}
}

// TestMultiWriter tests writing to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	m := NewMultiWriter(NewSimpleWriter(&a), NewJSONWriter(&b))
	n, err := m.Write(createTestRun())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != a.Len()+b.Len() {
		t.Errorf("expected %d bytes, got %d", a.Len()+b.Len(), n)
	}
}

// TestStatusLabel tests label formatting.
func TestStatusLabel(t *testing.T) {
	t.Parallel()

	if got := statusLabel(model.SourceNoDateColumn); got != "No Date Column" {
		t.Errorf("expected No Date Column, got %q", got)
	}
	if got := dropLabel(model.DropYearOutOfRange); got != "Year Out Of Range" {
		t.Errorf("expected Year Out Of Range, got %q", got)
	}
}

// TestTruncateString tests that truncation keeps whole runes.
func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "abc", 6, "abc"},
		{"ascii", "abcdefgh", 6, "abc..."},
		{"multibyte fits", "Café", 4, "Café"},
		{"multibyte cut", "Ünïcödé dëtäïl", 7, "Ünïc..."},
		{"tiny limit", "日本語テキスト", 2, "日本"},
		{"zero limit", "abc", 0, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := truncateString(tt.input, tt.maxLen)
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if !utf8.ValidString(got) {
				t.Errorf("expected valid UTF-8, got %q", got)
			}
		})
	}
}
