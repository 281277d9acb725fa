// Package logging configures the global zerolog logger.
//
// The TUI owns the terminal, so interactive runs log JSON lines to a file
// that the in-app log view tails. Headless commands log to stderr through a
// console writer instead.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config value to a zerolog level. Empty means info.
func ParseLevel(level string) (zerolog.Level, error) {
	trimmed := strings.ToLower(strings.TrimSpace(level))
	if trimmed == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(trimmed)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level: %w", err)
	}
	return lvl, nil
}

// ToFile sends the global logger to path, appending. The returned closer
// releases the file.
func ToFile(path, level string) (io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("log file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	install(file, lvl)
	return file, nil
}

// ToConsole sends the global logger to w in human-readable form.
func ToConsole(w io.Writer, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	install(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}, lvl)
	return nil
}

func install(w io.Writer, lvl zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
