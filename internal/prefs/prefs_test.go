package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != defaultTheme {
		t.Fatalf("Theme = %q, want %q", p.Theme, defaultTheme)
	}
	if p.ExportDir != "" {
		t.Fatalf("ExportDir = %q, want empty", p.ExportDir)
	}
}

func TestLoad_ReadsDefaultLocation(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	prefsDir := filepath.Join(home, ".config", "atmbitbit")
	if err := os.MkdirAll(prefsDir, 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	body := "theme = \"Slate\"\nexport_dir = \" /tmp/atm \"\n"
	if err := os.WriteFile(filepath.Join(prefsDir, "prefs.toml"), []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	p, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if p.Theme != "Slate" {
		t.Fatalf("Theme = %q, want %q", p.Theme, "Slate")
	}
	if p.ExportDir != "/tmp/atm" {
		t.Fatalf("ExportDir = %q, want %q", p.ExportDir, "/tmp/atm")
	}
}

func TestSave_CreatesPrivateFile(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "subdir", "prefs.toml")

	if err := Save(prefsFile, Prefs{Theme: "Kanagawa", ExportDir: "/srv/export"}); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}
	info, err := os.Stat(prefsFile)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("mode = %o, want 600", perm)
	}

	loaded, err := Load(prefsFile)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if loaded.Theme != "Kanagawa" || loaded.ExportDir != "/srv/export" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestUpdate_KeepsOtherFields(t *testing.T) {
	prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
	if err := Save(prefsFile, Prefs{Theme: "Slate", ExportDir: "/a"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Update(prefsFile, func(p *Prefs) { p.Theme = "Kanagawa" })
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if got.ExportDir != "/a" {
		t.Fatalf("ExportDir = %q, want /a", got.ExportDir)
	}
	loaded, _ := Load(prefsFile)
	if loaded.Theme != "Kanagawa" || loaded.ExportDir != "/a" {
		t.Fatalf("loaded = %+v", loaded)
	}
}

func TestLoad_DegradesGracefully(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty theme", "theme = \"\"\n"},
		{"invalid toml", "not valid toml {{{\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prefsFile := filepath.Join(t.TempDir(), "prefs.toml")
			if err := os.WriteFile(prefsFile, []byte(tt.body), 0o644); err != nil {
				t.Fatalf("WriteFile: %v", err)
			}
			p, err := Load(prefsFile)
			if err != nil {
				t.Fatalf("Load returned error: %v", err)
			}
			if p.Theme != DefaultTheme() {
				t.Fatalf("Theme = %q, want %q", p.Theme, DefaultTheme())
			}
		})
	}
}
