package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/ansuz/internal/importer"
	"github.com/starford/ansuz/internal/roamapi"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Roam     RoamConfig        `yaml:"roam"`
	Importer importer.Config   `yaml:"importer"`
	Journal  JournalConfig     `yaml:"journal"`
	Watch    WatchConfig       `yaml:"watch"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.Roam.Validate(); err != nil {
		return err
	}
	if err := validateImporter(c.Importer); err != nil {
		return err
	}
	if err := c.Journal.Validate(); err != nil {
		return err
	}
	return c.Watch.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
}

// RoamConfig holds the graph name and API credentials.
type RoamConfig struct {
	Graph   string `yaml:"graph"`
	Token   string `yaml:"token"`
	BaseURL string `yaml:"base_url"`
}

// Validate validates the Roam configuration.
func (c *RoamConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Graph, validation.Required),
		validation.Field(&c.Token, validation.Required),
	)
}

// validateImporter checks pacing and retry settings.
func validateImporter(c importer.Config) error {
	if c.Pacing < 0 {
		return fmt.Errorf("importer: pacing must not be negative")
	}
	r := c.Retry
	if r.MaxAttempts < 1 {
		return fmt.Errorf("importer: retry max_attempts must be at least 1")
	}
	if r.InitialDelay < 0 || r.RetryInterval < 0 || r.MaxDelay < 0 {
		return fmt.Errorf("importer: retry delays must not be negative")
	}
	if r.Backoff != importer.BackoffFixed && r.Backoff != importer.BackoffExponential {
		return fmt.Errorf("importer: retry backoff must be %q or %q",
			importer.BackoffFixed, importer.BackoffExponential)
	}
	return nil
}

// JournalConfig holds the run journal database path.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the journal configuration.
func (c *JournalConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// WatchConfig holds the drop directory for watch mode.
type WatchConfig struct {
	Dir string `yaml:"dir"`
}

// Validate validates the watch configuration.
func (c *WatchConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Dir, validation.Required),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
// Graph and Token have no defaults; they normally arrive via the config
// file's environment expansion (ROAM_GRAPH_NAME, ROAM_API_TOKEN).
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
		},
		Roam: RoamConfig{
			BaseURL: roamapi.DefaultBaseURL,
		},
		Importer: importer.DefaultConfig(),
		Journal: JournalConfig{
			Path: "./ansuz.db",
		},
		Watch: WatchConfig{
			Dir: "./drop",
		},
	}
}
