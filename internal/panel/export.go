package panel

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/state"
)

const (
	// ExportFileName is the name the terminal expects its config under.
	ExportFileName = "atmbitbit.conf"
	// ExportMIMEType is the content type of the config file.
	ExportMIMEType = "text/plain"
)

// Saver stores an exported file and returns where it went.
type Saver interface {
	Save(name, mimeType string, content []byte) (string, error)
}

// Exporter renders terminal config files.
type Exporter struct {
	store       *state.Store
	callbackURL string
	saver       Saver
}

// NewExporter creates an Exporter. callbackURL is the LNURL endpoint written
// into every file.
func NewExporter(store *state.Store, callbackURL string, saver Saver) *Exporter {
	return &Exporter{store: store, callbackURL: callbackURL, saver: saver}
}

// Render builds the key=value config for record id. Credential fields the
// server did not return are left out.
func (e *Exporter) Render(id string) (string, error) {
	rec, ok := e.store.Get(id)
	if !ok {
		return "", state.NewError(state.KindNotFound, "export", id, nil)
	}
	return renderConfig(rec.Fields(), e.callbackURL), nil
}

func renderConfig(f state.Fields, callbackURL string) string {
	lines := make([]string, 0, 6)
	if f.APIKeyID != "" {
		lines = append(lines, "apiKey.id="+f.APIKeyID)
	}
	if f.APIKeySecret != nil {
		lines = append(lines, "apiKey.key="+*f.APIKeySecret)
	}
	if f.APIKeyEncoding != nil {
		lines = append(lines, "apiKey.encoding="+*f.APIKeyEncoding)
	}
	if f.FiatCurrency != "" {
		lines = append(lines, "fiatCurrency="+f.FiatCurrency)
	}
	lines = append(lines,
		"callbackUrl="+callbackURL,
		"shorten=true",
	)
	return strings.Join(lines, "\n")
}

// Export renders record id and hands it to the saver. It returns the saver's
// location for the file.
func (e *Exporter) Export(id string) (string, error) {
	content, err := e.Render(id)
	if err != nil {
		return "", err
	}
	if e.saver == nil {
		return "", state.NewError(state.KindExportDenied, "export", id, fmt.Errorf("no export target configured"))
	}
	location, err := e.saver.Save(ExportFileName, ExportMIMEType, []byte(content))
	if err != nil {
		log.Warn().Err(err).Str("id", id).Msg("export denied")
		return "", state.NewError(state.KindExportDenied, "export", id, err)
	}
	log.Info().Str("id", id).Str("location", location).Msg("config exported")
	return location, nil
}

// DirSaver writes exported files into Dir, creating it when missing. Files
// are private to the user because they carry the API secret.
type DirSaver struct {
	Dir string
}

// Save implements Saver.
func (s DirSaver) Save(name, _ string, content []byte) (string, error) {
	dir := strings.TrimSpace(s.Dir)
	if dir == "" {
		return "", fmt.Errorf("export directory not set")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(name))
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// WriterSaver prints the file instead of storing it. The CLI uses it when
// the export target is "-".
type WriterSaver struct {
	W io.Writer
}

// Save implements Saver.
func (s WriterSaver) Save(name, _ string, content []byte) (string, error) {
	if s.W == nil {
		return "", fmt.Errorf("no writer for %s", name)
	}
	if _, err := fmt.Fprintf(s.W, "%s\n", content); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	return "-", nil
}
