package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/config"
	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/panel"
	"github.com/five82/atmbitbit/internal/prefs"
	"github.com/five82/atmbitbit/internal/state"
	"github.com/five82/atmbitbit/internal/ui"
)

// StdoutDir asks Export to write the file to its writer instead of a directory.
const StdoutDir = "-"

// List prints every terminal visible to the configured wallets, sorted by
// API key id.
func List(ctx context.Context, opts Options, w io.Writer) error {
	e, err := headless(opts)
	if err != nil {
		return err
	}
	if err := e.loadAll(ctx); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tAPI KEY ID\tNAME\tWALLET\tCURRENCY\tPROVIDER\tFEE (%)")
	for _, rec := range e.store.SortedView() {
		f := rec.Fields()
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			f.ID, f.APIKeyID, f.Name, e.walletName(f.WalletID),
			f.FiatCurrency, f.ExchangeRateProvider, ui.FormatFee(f.Fee))
	}
	return tw.Flush()
}

// Show prints one terminal. The secret itself is never printed; use Export.
func Show(ctx context.Context, opts Options, id string, w io.Writer) error {
	e, err := headless(opts)
	if err != nil {
		return err
	}
	f, err := e.fetchOne(ctx, id)
	if err != nil {
		return err
	}

	secret := "(not returned)"
	if f.APIKeySecret != nil {
		secret = "(set, use export)"
	}
	encoding := "(not returned)"
	if f.APIKeyEncoding != nil {
		encoding = *f.APIKeyEncoding
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	rows := [][2]string{
		{"id", f.ID},
		{"name", f.Name},
		{"wallet", e.walletName(f.WalletID)},
		{"api key id", f.APIKeyID},
		{"api key secret", secret},
		{"api key encoding", encoding},
		{"fiat currency", f.FiatCurrency},
		{"exchange rate provider", f.ExchangeRateProvider},
		{"fee (%)", ui.FormatFee(f.Fee)},
		{"callback url", e.cfg.CallbackURL},
	}
	for _, row := range rows {
		fmt.Fprintf(tw, "%s:\t%s\n", row[0], row[1])
	}
	return tw.Flush()
}

// Export writes the device config file of terminal id. dir overrides the
// export directory and is remembered for later runs; StdoutDir writes to w.
func Export(ctx context.Context, opts Options, id, dir string, w io.Writer) error {
	e, err := headless(opts)
	if err != nil {
		return err
	}
	if err := e.loadAll(ctx); err != nil {
		return err
	}

	var saver panel.Saver
	dir = strings.TrimSpace(dir)
	switch dir {
	case StdoutDir:
		saver = panel.WriterSaver{W: w}
	case "":
		saver = panel.DirSaver{Dir: e.exportDir()}
	default:
		expanded, err := config.ExpandPath(dir)
		if err != nil {
			return fmt.Errorf("export dir: %w", err)
		}
		saver = panel.DirSaver{Dir: expanded}
		if _, err := prefs.Update(e.prefsPath, func(p *prefs.Prefs) { p.ExportDir = expanded }); err != nil {
			log.Warn().Err(err).Msg("remember export dir failed")
		}
	}

	location, err := panel.NewExporter(e.store, e.cfg.CallbackURL, saver).Export(id)
	if err != nil {
		return err
	}
	if dir != StdoutDir {
		fmt.Fprintln(w, location)
	}
	return nil
}

// fetchOne finds id in the listed collection, and falls back to asking the
// server directly with each wallet's key.
func (e *env) fetchOne(ctx context.Context, id string) (state.Fields, error) {
	if err := e.loadAll(ctx); err != nil {
		return state.Fields{}, err
	}
	if rec, ok := e.store.Get(id); ok {
		return rec.Fields(), nil
	}
	for _, wallet := range e.store.Session().Wallets() {
		item, err := e.client.GetAtmBitBit(ctx, wallet.AdminKey, id)
		switch {
		case err == nil:
			return state.FieldsFromAPI(item), nil
		case lnbits.IsStatus(err, http.StatusNotFound):
			continue
		default:
			return state.Fields{}, state.NewError(state.KindFetch, "show", id, err)
		}
	}
	return state.Fields{}, state.NewError(state.KindNotFound, "show", id, nil)
}

func (e *env) walletName(id string) string {
	if w, ok := e.store.Session().Wallet(id); ok && w.Name != "" {
		return w.Name
	}
	return id
}
