package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func restoreLogger(t *testing.T) {
	t.Helper()
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    zerolog.Level
		wantErr bool
	}{
		{"", zerolog.InfoLevel, false},
		{" DEBUG ", zerolog.DebugLevel, false},
		{"warn", zerolog.WarnLevel, false},
		{"chatty", zerolog.NoLevel, true},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseLevel(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestToFileWritesJSONLines(t *testing.T) {
	restoreLogger(t)
	path := filepath.Join(t.TempDir(), "state", "atmbitbit.log")

	closer, err := ToFile(path, "info")
	if err != nil {
		t.Fatalf("ToFile: %v", err)
	}
	log.Debug().Msg("hidden")
	log.Info().Str("id", "r1").Msg("atmbitbit saved")
	if err := closer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 1 {
		t.Fatalf("log has %d lines, want 1:\n%s", len(lines), data)
	}
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("line is not JSON: %v", err)
	}
	if entry["message"] != "atmbitbit saved" || entry["id"] != "r1" || entry["level"] != "info" {
		t.Fatalf("entry = %v", entry)
	}
	if _, ok := entry["time"]; !ok {
		t.Fatalf("entry has no time field: %v", entry)
	}
}

func TestToFileRejectsBadInput(t *testing.T) {
	restoreLogger(t)
	if _, err := ToFile(filepath.Join(t.TempDir(), "x.log"), "chatty"); err == nil {
		t.Fatalf("ToFile with bad level returned nil error")
	}
	if _, err := ToFile(" ", "info"); err == nil {
		t.Fatalf("ToFile with empty path returned nil error")
	}
}

func TestToConsole(t *testing.T) {
	restoreLogger(t)
	var buf bytes.Buffer
	if err := ToConsole(&buf, "warn"); err != nil {
		t.Fatalf("ToConsole: %v", err)
	}
	log.Info().Msg("quiet")
	log.Warn().Msg("loud")
	if out := buf.String(); strings.Contains(out, "quiet") || !strings.Contains(out, "loud") {
		t.Fatalf("console output = %q", out)
	}
}
