package logtail

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRead(t *testing.T) {
	// Create a temporary log file
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	// Write 10 lines of content
	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{
			name:     "read all (0)",
			maxLines: 0,
			expected: expectedAll,
		},
		{
			name:     "read all (negative)",
			maxLines: -1,
			expected: expectedAll,
		},
		{
			name:     "read partial (5)",
			maxLines: 5,
			expected: expectedAll[5:],
		},
		{
			name:     "read exactly all (10)",
			maxLines: 10,
			expected: expectedAll,
		},
		{
			name:     "read more than exists (20)",
			maxLines: 20,
			expected: expectedAll,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if got != nil {
		t.Fatalf("Read() = %v, want nil", got)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		parsed  bool
		level   slog.Level
		message string
		attrs   string
	}{
		{
			name:  "empty line",
			input: "",
		},
		{
			name:  "foreign line",
			input: "panic: runtime error",
		},
		{
			name:    "text warn with attrs",
			input:   "2026-10-08 21:01:05 WRN fetch failed kind=tasks class=transport",
			parsed:  true,
			level:   slog.LevelWarn,
			message: "fetch failed",
			attrs:   "kind=tasks class=transport",
		},
		{
			name:    "text info without attrs",
			input:   "2026-10-08 21:01:05 INF engine started",
			parsed:  true,
			level:   slog.LevelInfo,
			message: "engine started",
		},
		{
			name:    "text level offset",
			input:   "2026-10-08 21:01:05 INF+2 almost warn",
			parsed:  true,
			level:   slog.LevelInfo + 2,
			message: "almost warn",
		},
		{
			name:    "json error",
			input:   `{"time":"2026-10-08T21:01:05.123Z","level":"ERROR","msg":"persist failed","kind":"history"}`,
			parsed:  true,
			level:   slog.LevelError,
			message: "persist failed",
			attrs:   `{"time":"2026-10-08T21:01:05.123Z","level":"ERROR","msg":"persist failed","kind":"history"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := Parse(tt.input)
			if e.Parsed != tt.parsed {
				t.Fatalf("Parsed = %v, want %v", e.Parsed, tt.parsed)
			}
			if e.Raw != tt.input {
				t.Fatalf("Raw = %q, want %q", e.Raw, tt.input)
			}
			if !tt.parsed {
				return
			}
			if e.Level != tt.level {
				t.Errorf("Level = %v, want %v", e.Level, tt.level)
			}
			if e.Message != tt.message {
				t.Errorf("Message = %q, want %q", e.Message, tt.message)
			}
			if e.Attrs != tt.attrs {
				t.Errorf("Attrs = %q, want %q", e.Attrs, tt.attrs)
			}
			if e.Time.IsZero() {
				t.Errorf("Time is zero")
			}
		})
	}
}

func TestFilter(t *testing.T) {
	input := []string{
		"2026-10-08 21:01:05 INF engine started",
		"2026-10-08 21:01:06 WRN fetch failed kind=tasks",
		"    continuation of warn",
		"2026-10-08 21:01:07 DBG scheduling kind=tasks",
		"    continuation of debug",
		"2026-10-08 21:01:08 ERR persist failed",
	}

	got := Filter(input, slog.LevelWarn)
	var raw []string
	for _, e := range got {
		raw = append(raw, e.Raw)
	}
	want := []string{input[1], input[2], input[5]}
	if !reflect.DeepEqual(raw, want) {
		t.Fatalf("Filter() = %v, want %v", raw, want)
	}
}
