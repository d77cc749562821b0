package model

import (
	"encoding/json"
	"errors"
	"testing"
)

func intPtr(v int) *int { return &v }

// TestHasValidAge tests the age range check applied at aggregation time.
func TestHasValidAge(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		age      *int
		expected bool
	}{
		{"unset", nil, false},
		{"zero", intPtr(0), false},
		{"lower bound", intPtr(1), true},
		{"typical", intPtr(34), true},
		{"upper bound", intPtr(100), true},
		{"above range", intPtr(101), false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := ReconciledRecord{Age: tc.age}
			if got := r.HasValidAge(); got != tc.expected {
				t.Errorf("HasValidAge() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

// TestCategoryText tests that category labels survive text round trips
// and that unknown labels are rejected.
func TestCategoryText(t *testing.T) {
	t.Parallel()

	t.Run("method", func(t *testing.T) {
		t.Parallel()
		for _, m := range Methods() {
			text, err := m.MarshalText()
			if err != nil {
				t.Fatalf("MarshalText(%v) error: %v", m, err)
			}
			var got Method
			if err := got.UnmarshalText(text); err != nil {
				t.Fatalf("UnmarshalText(%q) error: %v", text, err)
			}
			if got != m {
				t.Errorf("expected %v, got %v", m, got)
			}
		}
		var m Method
		if err := m.UnmarshalText([]byte("poison")); err == nil {
			t.Error("expected error for unknown method")
		}
	})

	t.Run("case status is case-insensitive", func(t *testing.T) {
		t.Parallel()
		var s CaseStatus
		if err := s.UnmarshalText([]byte("closed")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != CaseClosed {
			t.Errorf("expected CaseClosed, got %v", s)
		}
	})

	t.Run("camera status", func(t *testing.T) {
		t.Parallel()
		var s CameraStatus
		if err := s.UnmarshalText([]byte("No Camera")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s != NoCamera {
			t.Errorf("expected NoCamera, got %v", s)
		}
	})
}

// TestReconciledRecordJSON tests that enums serialize as labels.
func TestReconciledRecordJSON(t *testing.T) {
	t.Parallel()

	r := ReconciledRecord{
		Year:         2025,
		Method:       MethodStabbing,
		CaseStatus:   CaseClosed,
		CameraStatus: CameraPresent,
	}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if decoded["method"] != "Stabbing" {
		t.Errorf("expected method label Stabbing, got %v", decoded["method"])
	}
	if decoded["camera_status"] != "Camera Present" {
		t.Errorf("expected camera label, got %v", decoded["camera_status"])
	}
	if _, ok := decoded["age"]; ok {
		t.Error("expected unset age to be omitted")
	}
}

// TestSchemaMap tests lookup and max index helpers.
func TestSchemaMap(t *testing.T) {
	t.Parallel()

	empty := SchemaMap{}
	if got := empty.MaxIndex(); got != -1 {
		t.Errorf("expected -1 for empty map, got %d", got)
	}

	s := SchemaMap{FieldDate: 1, FieldNotes: 5, FieldAge: 2}
	if got := s.MaxIndex(); got != 5 {
		t.Errorf("expected 5, got %d", got)
	}
	if idx, ok := s.Lookup(FieldDate); !ok || idx != 1 {
		t.Errorf("expected date at 1, got %d (%v)", idx, ok)
	}
	if _, ok := s.Lookup(FieldCamera); ok {
		t.Error("expected camera to be absent")
	}
}

// TestDropStats tests counters per reason.
func TestDropStats(t *testing.T) {
	t.Parallel()

	var d DropStats
	d.Add(DropEmptyDate)
	d.Add(DropUnparseableDate)
	d.Add(DropUnparseableDate)
	d.Add(DropYearOutOfRange)

	if d.Total() != 4 {
		t.Errorf("expected total 4, got %d", d.Total())
	}
	if d.Count(DropUnparseableDate) != 2 {
		t.Errorf("expected 2 unparseable, got %d", d.Count(DropUnparseableDate))
	}
	if d.Count(DropHeaderLeak) != 0 {
		t.Errorf("expected 0 header leaks, got %d", d.Count(DropHeaderLeak))
	}
	if len(DropReasons()) != 4 {
		t.Errorf("expected 4 reasons, got %d", len(DropReasons()))
	}
}

// TestNewRun tests run construction and source helpers.
func TestNewRun(t *testing.T) {
	t.Parallel()

	run := NewRun("run-1", []int{2024, 2025}, []SourceResult{
		{Year: 2024, URL: "https://example.com/2024"},
		{Year: 2025, URL: "https://example.com/2025"},
	})

	if run.ID != "run-1" {
		t.Errorf("expected ID run-1, got %s", run.ID)
	}
	if len(run.Sources) != 2 {
		t.Fatalf("expected 2 sources, got %d", len(run.Sources))
	}
	if run.Sources[0].Status != SourcePending {
		t.Errorf("expected pending status, got %v", run.Sources[0].Status)
	}
	if run.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}

	run.Sources[0].Raw = []RawRecord{{DateText: "01/02/24"}, {DateText: "02/02/24"}}
	run.Sources[0].RawCount = 2
	run.Sources[0].Status = SourceOK
	run.Sources[1].Fail(SourceUnavailable, errors.New("connection refused"))

	if got := len(run.RawRecords()); got != 2 {
		t.Errorf("expected 2 raw records, got %d", got)
	}
	if run.RawCount() != 2 {
		t.Errorf("expected raw count 2, got %d", run.RawCount())
	}

	failed := run.FailedSources()
	if len(failed) != 1 || failed[0].Year != 2025 {
		t.Fatalf("expected the 2025 source to fail, got %+v", failed)
	}
	if failed[0].Error != "connection refused" {
		t.Errorf("expected error message, got %q", failed[0].Error)
	}
}

// TestSourceStatusText tests status labels.
func TestSourceStatusText(t *testing.T) {
	t.Parallel()

	for _, s := range []SourceStatus{SourceOK, SourceUnavailable, SourceNoTable, SourceNoDateColumn} {
		text, _ := s.MarshalText()
		var got SourceStatus
		if err := got.UnmarshalText(text); err != nil {
			t.Fatalf("UnmarshalText error: %v", err)
		}
		if got != s {
			t.Errorf("expected %v, got %v", s, got)
		}
	}
	if SourceStatus(99).String() != "unknown" {
		t.Errorf("expected unknown label, got %s", SourceStatus(99).String())
	}
}
