package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func writeLines(t *testing.T, n int) string {
	t.Helper()
	var content strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&content, "Line %d\n", i)
	}
	path := filepath.Join(t.TempDir(), "test.log")
	if err := os.WriteFile(path, []byte(content.String()), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	path := writeLines(t, 10)

	tests := []struct {
		name     string
		maxLines int
		want     []string
	}{
		{"zero", 0, nil},
		{"last three", 3, []string{"Line 8", "Line 9", "Line 10"}},
		{"exactly all", 10, []string{"Line 1", "Line 2", "Line 3", "Line 4", "Line 5", "Line 6", "Line 7", "Line 8", "Line 9", "Line 10"}},
		{"more than file", 12, []string{"Line 1", "Line 2", "Line 3", "Line 4", "Line 5", "Line 6", "Line 7", "Line 8", "Line 9", "Line 10"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(path, tt.maxLines)
			if err != nil {
				t.Fatalf("Read returned error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Read() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 5)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v, want nil, nil", got, err)
	}
}

func TestParseAndFormat(t *testing.T) {
	line := `{"level":"warn","id":"r1","error":"status 500: boom","time":"2026-01-02T15:04:05Z","message":"delete failed"}`
	entry := Parse(line)

	if entry.Level != "warn" || entry.Message != "delete failed" {
		t.Fatalf("Parse() = %+v", entry)
	}
	if !entry.Time.Equal(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)) {
		t.Fatalf("Time = %v", entry.Time)
	}
	wantFields := []Field{{"error", "status 500: boom"}, {"id", "r1"}}
	if !reflect.DeepEqual(entry.Fields, wantFields) {
		t.Fatalf("Fields = %v, want %v", entry.Fields, wantFields)
	}

	got := Format(entry)
	wantTime := entry.Time.In(time.Local).Format("15:04:05")
	want := wantTime + ` WARN  delete failed  error="status 500: boom"  id=r1`
	if got != want {
		t.Fatalf("Format() = %q, want %q", got, want)
	}
}

func TestParse_PlainText(t *testing.T) {
	for _, line := range []string{"panic: boom", "{not json"} {
		entry := Parse(line)
		if entry.Message != line || entry.Level != "" {
			t.Fatalf("Parse(%q) = %+v", line, entry)
		}
		if Format(entry) != line {
			t.Fatalf("Format(Parse(%q)) = %q", line, Format(entry))
		}
	}
}

func TestParse_NumericField(t *testing.T) {
	entry := Parse(`{"level":"debug","status":200,"message":"lnbits request"}`)
	if len(entry.Fields) != 1 || entry.Fields[0].Value != "200" {
		t.Fatalf("Fields = %v", entry.Fields)
	}
	if got := Format(entry); got != "DEBUG lnbits request  status=200" {
		t.Fatalf("Format() = %q", got)
	}
}

func TestTail(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	body := `{"level":"info","message":"one"}` + "\n\n" + `{"level":"info","message":"two"}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	entries, err := Tail(path, 10)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(entries) != 2 || entries[1].Message != "two" {
		t.Fatalf("Tail() = %+v", entries)
	}
}
