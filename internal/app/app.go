package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/five82/atmbitbit/internal/config"
	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/logging"
	"github.com/five82/atmbitbit/internal/panel"
	"github.com/five82/atmbitbit/internal/prefs"
	"github.com/five82/atmbitbit/internal/state"
	"github.com/five82/atmbitbit/internal/ui"
)

// Options configure the panel.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/atmbitbit/prefs.toml
	PollEvery  int    // seconds; zero uses the config value
}

// env is everything a run needs, built once from Options.
type env struct {
	cfg       config.Config
	prefs     prefs.Prefs
	prefsPath string
	client    *lnbits.Client
	store     *state.Store
}

func bootstrap(opts Options) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", config.Path(opts.ConfigPath), err)
	}
	if opts.PollEvery > 0 {
		cfg.PollInterval = time.Duration(opts.PollEvery) * time.Second
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs, err := prefs.Load(prefsPath)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}

	client, err := lnbits.NewClient(cfg.ServerURL, cfg.ExtensionPath)
	if err != nil {
		return nil, fmt.Errorf("init lnbits client: %w", err)
	}

	return &env{
		cfg:       cfg,
		prefs:     userPrefs,
		prefsPath: prefsPath,
		client:    client,
		store:     state.NewStore(client, state.NewSession(cfg.Wallets)),
	}, nil
}

// exportDir prefers the directory remembered in prefs over the config one.
func (e *env) exportDir() string {
	if e.prefs.ExportDir != "" {
		if dir, err := config.ExpandPath(e.prefs.ExportDir); err == nil {
			return dir
		}
	}
	return e.cfg.ExportDir
}

// Run boots the panel TUI until the operator quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	e, err := bootstrap(opts)
	if err != nil {
		return err
	}

	closer, err := logging.ToFile(e.cfg.LogFile, e.cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closer.Close() }()

	log.Info().
		Str("server", e.cfg.ServerURL).
		Str("extension", e.cfg.ExtensionPath).
		Int("wallets", len(e.cfg.Wallets)).
		Dur("poll", e.cfg.PollInterval).
		Msg("panel starting")

	uiOpts := ui.Options{
		Context:               ctx,
		Store:                 e.store,
		Poller:                state.NewPoller(e.store, e.cfg.PollInterval),
		Form:                  panel.NewForm(e.store, e.client),
		Deleter:               panel.NewDeleter(e.store, e.client),
		Exporter:              panel.NewExporter(e.store, e.cfg.CallbackURL, panel.DirSaver{Dir: e.exportDir()}),
		FiatCurrencies:        e.cfg.FiatCurrencies,
		ExchangeRateProviders: e.cfg.ExchangeRateProviders,
		LogPath:               e.cfg.LogFile,
		PrefsPath:             e.prefsPath,
		ThemeName:             e.prefs.Theme,
	}
	err = ui.Run(uiOpts)
	log.Info().Err(err).Msg("panel stopped")
	return err
}

// headless bootstraps for a CLI command, logging to stderr.
func headless(opts Options) (*env, error) {
	e, err := bootstrap(opts)
	if err != nil {
		return nil, err
	}
	if err := logging.ToConsole(os.Stderr, e.cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("init logging: %w", err)
	}
	return e, nil
}

// loadAll refreshes the store once for a headless command.
func (e *env) loadAll(ctx context.Context) error {
	if err := e.store.Refresh(ctx); err != nil {
		return err
	}
	log.Debug().Int("count", e.store.Len()).Msg("terminals loaded")
	return nil
}
