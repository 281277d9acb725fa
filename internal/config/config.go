package config

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/sethvargo/go-envconfig"

	"github.com/five82/atmbitbit/internal/lnbits"
	"github.com/five82/atmbitbit/internal/logging"
)

// Config is everything the panel needs for one process lifetime.
type Config struct {
	ServerURL             string
	ExtensionPath         string
	CallbackURL           string
	PollInterval          time.Duration
	ExportDir             string
	LogFile               string
	LogLevel              string
	Wallets               []lnbits.Wallet
	FiatCurrencies        Catalog
	ExchangeRateProviders Catalog
}

const (
	defaultConfigPath    = "~/.config/atmbitbit/config.toml"
	defaultServerURL     = "http://127.0.0.1:5000"
	defaultPollInterval  = 20 * time.Second
	defaultExportDir     = "~/.local/share/atmbitbit/exports"
	defaultLogFile       = "~/.local/state/atmbitbit/atmbitbit.log"
	defaultLogLevel      = "info"
	envWalletName        = "env"
	callbackPathFragment = "/u"
)

// Catalog maps a code to its display label.
type Catalog map[string]string

// Keys returns the codes in sorted order.
func (c Catalog) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Label returns the label for code, or code itself when unknown.
func (c Catalog) Label(code string) string {
	if label, ok := c[code]; ok && label != "" {
		return label
	}
	return code
}

// DefaultFiatCurrencies is used when the config file names none.
var DefaultFiatCurrencies = Catalog{
	"CHF": "Swiss Franc",
	"CZK": "Czech Koruna",
	"EUR": "Euro",
	"GBP": "British Pound",
	"HUF": "Hungarian Forint",
	"PLN": "Polish Zloty",
	"USD": "US Dollar",
}

// DefaultExchangeRateProviders is used when the config file names none.
var DefaultExchangeRateProviders = Catalog{
	"bitfinex": "Bitfinex",
	"bitstamp": "Bitstamp",
	"coinbase": "Coinbase",
	"coinmate": "CoinMate",
	"kraken":   "Kraken",
}

type fileConfig struct {
	ServerURL             string            `toml:"server_url"`
	ExtensionPath         string            `toml:"extension_path"`
	CallbackURL           string            `toml:"callback_url"`
	PollSeconds           int               `toml:"poll_seconds"`
	ExportDir             string            `toml:"export_dir"`
	LogFile               string            `toml:"log_file"`
	LogLevel              string            `toml:"log_level"`
	Wallets               []lnbits.Wallet   `toml:"wallets"`
	FiatCurrencies        map[string]string `toml:"fiat_currencies"`
	ExchangeRateProviders map[string]string `toml:"exchange_rate_providers"`
}

// envOverrides are applied on top of the file.
type envOverrides struct {
	ServerURL   string `env:"ATMBITBIT_SERVER_URL"`
	CallbackURL string `env:"ATMBITBIT_CALLBACK_URL"`
	AdminKey    string `env:"ATMBITBIT_ADMIN_KEY"`
	WalletID    string `env:"ATMBITBIT_WALLET_ID"`
	LogLevel    string `env:"ATMBITBIT_LOG_LEVEL"`
	ExportDir   string `env:"ATMBITBIT_EXPORT_DIR"`
}

// Load reads the TOML config at path (or the default location), applies
// environment overrides and fills defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	var raw fileConfig
	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	var env envOverrides
	if err := envconfig.Process(context.Background(), &env); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}
	if err := raw.apply(env); err != nil {
		return Config{}, err
	}

	cfg := raw.resolve()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (raw *fileConfig) apply(env envOverrides) error {
	if v := strings.TrimSpace(env.ServerURL); v != "" {
		raw.ServerURL = v
	}
	if v := strings.TrimSpace(env.CallbackURL); v != "" {
		raw.CallbackURL = v
	}
	if v := strings.TrimSpace(env.LogLevel); v != "" {
		raw.LogLevel = v
	}
	if v := strings.TrimSpace(env.ExportDir); v != "" {
		raw.ExportDir = v
	}

	key, id := strings.TrimSpace(env.AdminKey), strings.TrimSpace(env.WalletID)
	switch {
	case key == "" && id == "":
	case key == "" || id == "":
		return fmt.Errorf("ATMBITBIT_ADMIN_KEY and ATMBITBIT_WALLET_ID must be set together")
	default:
		raw.Wallets = []lnbits.Wallet{{ID: id, Name: envWalletName, AdminKey: key}}
	}
	return nil
}

func (raw fileConfig) resolve() Config {
	cfg := Config{
		ServerURL:     strings.TrimRight(orDefault(raw.ServerURL, defaultServerURL), "/"),
		ExtensionPath: cleanExtensionPath(raw.ExtensionPath),
		CallbackURL:   strings.TrimSpace(raw.CallbackURL),
		PollInterval:  defaultPollInterval,
		ExportDir:     mustExpand(orDefault(raw.ExportDir, defaultExportDir)),
		LogFile:       mustExpand(orDefault(raw.LogFile, defaultLogFile)),
		LogLevel:      strings.ToLower(orDefault(raw.LogLevel, defaultLogLevel)),
	}
	if raw.PollSeconds > 0 {
		cfg.PollInterval = time.Duration(raw.PollSeconds) * time.Second
	}
	if cfg.CallbackURL == "" {
		cfg.CallbackURL = cfg.ServerURL + cfg.ExtensionPath + callbackPathFragment
	}

	for _, w := range raw.Wallets {
		w.ID = strings.TrimSpace(w.ID)
		w.Name = strings.TrimSpace(w.Name)
		w.AdminKey = strings.TrimSpace(w.AdminKey)
		if w.Name == "" {
			w.Name = w.ID
		}
		cfg.Wallets = append(cfg.Wallets, w)
	}

	cfg.FiatCurrencies = catalogOrDefault(raw.FiatCurrencies, DefaultFiatCurrencies)
	cfg.ExchangeRateProviders = catalogOrDefault(raw.ExchangeRateProviders, DefaultExchangeRateProviders)
	return cfg
}

func (c Config) validate() error {
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	seen := make(map[string]bool, len(c.Wallets))
	for i, w := range c.Wallets {
		if w.ID == "" {
			return fmt.Errorf("wallets[%d]: id is required", i)
		}
		if w.AdminKey == "" {
			return fmt.Errorf("wallet %q: admin_key is required", w.ID)
		}
		if seen[w.ID] {
			return fmt.Errorf("wallet %q listed twice", w.ID)
		}
		seen[w.ID] = true
	}
	return nil
}

// Path returns the config file location Load would read for path.
func Path(path string) string {
	resolved, err := resolvePath(path)
	if err != nil {
		return path
	}
	return resolved
}

func cleanExtensionPath(path string) string {
	trimmed := strings.Trim(strings.TrimSpace(path), "/")
	if trimmed == "" {
		return lnbits.DefaultExtensionPath
	}
	return "/" + trimmed
}

func catalogOrDefault(entries map[string]string, fallback Catalog) Catalog {
	out := make(Catalog, len(entries))
	for code, label := range entries {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		out[code] = strings.TrimSpace(label)
	}
	if len(out) == 0 {
		out = make(Catalog, len(fallback))
		for code, label := range fallback {
			out[code] = label
		}
	}
	return out
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
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
