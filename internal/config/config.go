// Package config loads the pubtime YAML configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	pterrors "git.home.luguber.info/inful/pubtime/internal/errors"
	"git.home.luguber.info/inful/pubtime/internal/logfields"
	"git.home.luguber.info/inful/pubtime/internal/retry"
)

// DefaultPath is the configuration file looked up when none is given.
const DefaultPath = "pubtime.yaml"

// Config is the full pubtime configuration.
type Config struct {
	Corpus     CorpusConfig   `yaml:"corpus"`
	Schedule   ScheduleConfig `yaml:"schedule"`
	Validation ValidateConfig `yaml:"validate"`
	History    HistoryConfig  `yaml:"history"`
	Metrics    MetricsConfig  `yaml:"metrics"`
	Notify     NotifyConfig   `yaml:"notify"`
	Watch      WatchConfig    `yaml:"watch"`
}

// CorpusConfig locates the content collection.
type CorpusConfig struct {
	Root         string   `yaml:"root"`
	ContentFiles []string `yaml:"content_files"`
	LinkPrefix   string   `yaml:"link_prefix"`
	TimeField    string   `yaml:"time_field"`
	TitleField   string   `yaml:"title_field"`
}

// ScheduleConfig holds planner defaults; command-line flags override them.
type ScheduleConfig struct {
	IntervalDays    int    `yaml:"interval_days"`
	StartOffsetDays int    `yaml:"start_offset_days"`
	MaxFutureDays   int    `yaml:"max_future_days"`
	ClockTime       string `yaml:"clock_time"`
	Timezone        string `yaml:"timezone"`
}

// ValidateConfig tunes the link validator.
type ValidateConfig struct {
	StrictFuture bool `yaml:"strict_future"`
}

// HistoryConfig points at the SQLite schedule history. An empty path disables it.
type HistoryConfig struct {
	Path string `yaml:"path"`
}

// MetricsConfig enables the Prometheus textfile export.
type MetricsConfig struct {
	File string `yaml:"file,omitempty"`
}

// NotifyConfig enables publishing violation reports to NATS.
type NotifyConfig struct {
	NATSURL string        `yaml:"nats_url,omitempty"`
	Subject string        `yaml:"subject"`
	Timeout time.Duration `yaml:"timeout"`
	Retry   RetryConfig   `yaml:"retry"`
}

// RetryConfig controls backoff for failed publishes.
type RetryConfig struct {
	Backoff    string        `yaml:"backoff"`
	Initial    time.Duration `yaml:"initial"`
	Max        time.Duration `yaml:"max"`
	MaxRetries int           `yaml:"max_retries"`
}

// Policy converts the settings into a retry policy.
func (r RetryConfig) Policy() retry.Policy {
	return retry.NewPolicy(retry.Mode(r.Backoff), r.Initial, r.Max, r.MaxRetries)
}

// WatchConfig controls the watch command.
type WatchConfig struct {
	Interval time.Duration `yaml:"interval"`
	Debounce time.Duration `yaml:"debounce"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Corpus: CorpusConfig{
			Root:         "src/content/articles",
			ContentFiles: []string{"index.mdx", "index.md"},
			LinkPrefix:   "/articles/",
			TimeField:    "publishedTime",
			TitleField:   "title",
		},
		Schedule: ScheduleConfig{
			IntervalDays:    3,
			StartOffsetDays: 1,
			MaxFutureDays:   90,
			ClockTime:       "09:00",
			Timezone:        "UTC",
		},
		History: HistoryConfig{Path: ".pubtime/history.db"},
		Notify: NotifyConfig{
			Subject: "pubtime.violations",
			Timeout: 5 * time.Second,
			Retry: RetryConfig{
				Backoff:    string(retry.ModeLinear),
				Initial:    500 * time.Millisecond,
				Max:        5 * time.Second,
				MaxRetries: 2,
			},
		},
		Watch: WatchConfig{
			Interval: 15 * time.Minute,
			Debounce: 2 * time.Second,
		},
	}
}

// Load reads the configuration at path.
//
// Environment variables from .env.local and .env are loaded first (existing
// variables win) and ${VAR} references in the file are expanded. A missing
// file at DefaultPath yields Default(); any other missing path is an error.
// Relative paths inside the file are resolved against the file's directory.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && filepath.Clean(path) == DefaultPath {
			slog.Debug("No configuration file, using defaults", logfields.Path(path))
			cfg := Default()
			return cfg, cfg.Validate()
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, pterrors.ConfigNotFound(path)
		}
		return nil, pterrors.ConfigParseFailed(path, err)
	}

	cfg, err := Parse(strings.NewReader(os.ExpandEnv(string(data))))
	if err != nil {
		return nil, pterrors.ConfigParseFailed(path, err)
	}
	cfg.resolvePaths(filepath.Dir(path))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	slog.Debug("Loaded configuration", logfields.Path(path), logfields.Root(cfg.Corpus.Root))
	return cfg, nil
}

// Parse decodes YAML on top of the defaults. Unknown keys are rejected.
func Parse(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// loadEnvFiles loads .env.local before .env so local values take precedence.
func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			slog.Warn("Failed to load environment file", logfields.Path(name), logfields.Error(err))
			continue
		}
		slog.Debug("Loaded environment file", logfields.Path(name))
	}
}

func (c *Config) resolvePaths(dir string) {
	resolve := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	c.Corpus.Root = resolve(c.Corpus.Root)
	c.History.Path = resolve(c.History.Path)
	c.Metrics.File = resolve(c.Metrics.File)
}

// Location returns the configured schedule time zone.
func (s ScheduleConfig) Location() (*time.Location, error) {
	if s.Timezone == "" || strings.EqualFold(s.Timezone, "UTC") {
		return time.UTC, nil
	}
	return time.LoadLocation(s.Timezone)
}

// Validate checks settings that do not depend on command-line overrides.
// Planner spacing is validated by the planner itself once flags are applied.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Corpus.Root) == "":
		return pterrors.ConfigInvalid("corpus.root", "must not be empty")
	case len(c.Corpus.ContentFiles) == 0:
		return pterrors.ConfigInvalid("corpus.content_files", "must list at least one file name")
	case strings.Trim(c.Corpus.LinkPrefix, "/") == "":
		return pterrors.ConfigInvalid("corpus.link_prefix", "must name a path segment")
	case c.Corpus.TimeField == "":
		return pterrors.ConfigInvalid("corpus.time_field", "must not be empty")
	case c.Watch.Interval <= 0:
		return pterrors.ConfigInvalid("watch.interval", "must be positive")
	case c.Watch.Debounce < 0:
		return pterrors.ConfigInvalid("watch.debounce", "must not be negative")
	case c.Notify.NATSURL != "" && c.Notify.Subject == "":
		return pterrors.ConfigInvalid("notify.subject", "is required when notify.nats_url is set")
	case c.Notify.Retry.MaxRetries < 0:
		return pterrors.ConfigInvalid("notify.retry.max_retries", "must not be negative")
	}
	if _, err := retry.ParseMode(c.Notify.Retry.Backoff); err != nil {
		return pterrors.ConfigInvalid("notify.retry.backoff", err.Error())
	}
	if _, err := c.Schedule.Location(); err != nil {
		return pterrors.ConfigInvalid("schedule.timezone", err.Error())
	}
	return nil
}

// Init writes a default configuration file.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", path)
	}

	var buf bytes.Buffer
	buf.WriteString("# pubtime configuration\n# ${VAR} references are expanded from the environment and .env files.\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(Default()); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
