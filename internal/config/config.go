package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tracksync/tracksync/internal/titles"
)

const (
	DefaultPath       = "settings.yaml"
	DefaultTrackURL   = "https://untitled.stream/track"
	DefaultOrigin     = "https://untitled.stream"
	DefaultDataRoute  = "routes/library.project.$projectSlug"
	DefaultTrackRoute = "routes/track"
	DefaultCookies    = "cookies.txt"
	DefaultLedger     = "used.txt"
	DefaultUserAgent  = "Mozilla/5.0"
	DefaultTimeout    = 30 * time.Second
)

// ErrMissingSettings is returned when the settings file does not exist.
var ErrMissingSettings = errors.New("missing settings file")

// Config is the validated content of the settings file.
type Config struct {
	SnapshotURL string
	Blacklist   titles.Blacklist

	TrackURL    string
	Origin      string
	DataRoute   string
	TrackRoute  string
	CookiesFile string
	LedgerFile  string
	UserAgent   string
	Timeout     time.Duration
	ReportDir   string
}

// settingsFile mirrors settings.yaml. Pointers distinguish a missing key
// from an empty value.
type settingsFile struct {
	GetURL    *string `yaml:"get_url"`
	Blacklist *struct {
		Prefixes *[]string `yaml:"prefixes"`
		Suffixes *[]string `yaml:"suffixes"`
	} `yaml:"blacklist"`

	TrackURL    string        `yaml:"track_url"`
	Origin      string        `yaml:"origin"`
	DataRoute   string        `yaml:"data_route"`
	TrackRoute  string        `yaml:"track_route"`
	CookiesFile string        `yaml:"cookies_file"`
	LedgerFile  string        `yaml:"ledger_file"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	ReportDir   string        `yaml:"report_dir"`
}

// Path returns the settings location, honouring TRACKSYNC_SETTINGS.
func Path() string {
	if p := os.Getenv("TRACKSYNC_SETTINGS"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads and validates the settings file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s (create it from the template)", ErrMissingSettings, path)
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}
	return Parse(data)
}

// Parse validates settings YAML and fills in defaults.
func Parse(data []byte) (*Config, error) {
	var raw settingsFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse settings file: %w", err)
	}

	if raw.GetURL == nil || *raw.GetURL == "" ||
		raw.Blacklist == nil || raw.Blacklist.Prefixes == nil || raw.Blacklist.Suffixes == nil {
		return nil, fmt.Errorf("settings must contain get_url and blacklist with prefixes and suffixes")
	}
	if raw.Timeout < 0 {
		return nil, fmt.Errorf("timeout must not be negative, got %s", raw.Timeout)
	}

	cfg := &Config{
		SnapshotURL: *raw.GetURL,
		Blacklist: titles.Blacklist{
			Prefixes: *raw.Blacklist.Prefixes,
			Suffixes: *raw.Blacklist.Suffixes,
		},
		TrackURL:    withDefault(raw.TrackURL, DefaultTrackURL),
		Origin:      withDefault(raw.Origin, DefaultOrigin),
		DataRoute:   withDefault(raw.DataRoute, DefaultDataRoute),
		TrackRoute:  withDefault(raw.TrackRoute, DefaultTrackRoute),
		CookiesFile: withDefault(raw.CookiesFile, DefaultCookies),
		LedgerFile:  withDefault(raw.LedgerFile, DefaultLedger),
		UserAgent:   withDefault(raw.UserAgent, DefaultUserAgent),
		Timeout:     raw.Timeout,
		ReportDir:   raw.ReportDir,
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return cfg, nil
}

func withDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
