package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/smartnotes/internal/autosave"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Storage drivers.
const (
	StorageDriverFS     = "fs"
	StorageDriverSQLite = "sqlite"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Storage  StorageConfig     `yaml:"storage"`
	Autosave AutosaveConfig    `yaml:"autosave"`
	Auth     AuthConfig        `yaml:"auth"`
	Events   EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Storage.Validate(); err != nil {
		return err
	}
	if err := c.Autosave.Validate(); err != nil {
		return err
	}
	if err := c.Events.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StorageConfig selects where notes, labels and preferences are persisted.
//
// With the "fs" driver Path is a directory holding one JSON file per key and
// Watch reloads state when those files change on disk. With "sqlite" Path is
// the database file.
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Watch  bool   `yaml:"watch"`
}

// Validate validates the storage configuration.
func (c *StorageConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required, validation.In(StorageDriverFS, StorageDriverSQLite)),
		validation.Field(&c.Path, validation.Required),
	); err != nil {
		return err
	}
	if c.Watch && c.Driver != StorageDriverFS {
		return fmt.Errorf("storage: watch requires the %q driver", StorageDriverFS)
	}
	return nil
}

// AutosaveConfig holds the draft commit delay.
type AutosaveConfig struct {
	Delay time.Duration `yaml:"delay"`
}

// Validate validates the autosave configuration.
func (c *AutosaveConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Delay, validation.Required, validation.Min(10*time.Millisecond), validation.Max(time.Minute)),
	)
}

// EventsConfig holds SSE configuration.
type EventsConfig struct {
	StatsThrottle time.Duration `yaml:"stats_throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.StatsThrottle, validation.Required, validation.Min(100*time.Millisecond)),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Storage: StorageConfig{
			Driver: StorageDriverFS,
			Path:   "./data",
			Watch:  true,
		},
		Autosave: AutosaveConfig{
			Delay: autosave.DefaultDelay,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Events: EventsConfig{
			StatsThrottle: 2 * time.Second,
		},
	}
}
