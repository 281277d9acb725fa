// Package prefs persists small UI choices between runs: the colour theme and
// the directory the last config file was exported to. Preferences live in
// ~/.config/atmbitbit/prefs.toml and never block startup.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds user preferences.
type Prefs struct {
	Theme     string `toml:"theme"`
	ExportDir string `toml:"export_dir,omitempty"`
}

const (
	defaultPrefsPath = "~/.config/atmbitbit/prefs.toml"
	defaultTheme     = "Nightfox"
)

// DefaultTheme is the theme used when none was saved.
func DefaultTheme() string {
	return defaultTheme
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Prefs{Theme: defaultTheme}, nil
	}

	prefs := Prefs{Theme: defaultTheme}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Prefs{Theme: defaultTheme}, nil // Graceful degradation
	}

	if strings.TrimSpace(prefs.Theme) == "" {
		prefs.Theme = defaultTheme
	}
	prefs.ExportDir = strings.TrimSpace(prefs.ExportDir)

	return prefs, nil
}

// Save writes preferences to the given path, creating directories as needed.
// The file is written whole; concurrent writers last-write-win.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o600); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

// Update loads the preferences at path, applies fn and saves the result, so
// that changing one field keeps the others.
func Update(path string, fn func(*Prefs)) (Prefs, error) {
	p, _ := Load(path)
	fn(&p)
	if err := Save(path, p); err != nil {
		return p, err
	}
	return p, nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
