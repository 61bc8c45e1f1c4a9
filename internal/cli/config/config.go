package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yndnr/timi-go/internal/core/domain"
	"github.com/yndnr/timi-go/internal/storage"
	"github.com/yndnr/timi-go/internal/telemetry/logger"
)

// Output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
	OutputYAML  = "yaml"
)

// Config is the timi-cli configuration.
type Config struct {
	API     APIConfig     `koanf:"api" json:"api" yaml:"api"`
	Storage StorageConfig `koanf:"storage" json:"storage" yaml:"storage"`
	Routes  RoutesConfig  `koanf:"routes" json:"routes" yaml:"routes"`
	Auth    AuthConfig    `koanf:"auth" json:"auth" yaml:"auth"`
	Log     LogConfig     `koanf:"log" json:"log" yaml:"log"`
	Output  string        `koanf:"output" json:"output" yaml:"output"`
}

// APIConfig locates the auth/tasks backend.
type APIConfig struct {
	URL     string        `koanf:"url" json:"url" yaml:"url"`
	Timeout time.Duration `koanf:"timeout" json:"timeout" yaml:"timeout"`
}

// StorageConfig selects and configures the token store engine.
type StorageConfig struct {
	Engine     string        `koanf:"engine" json:"engine" yaml:"engine"`
	Dir        string        `koanf:"dir" json:"dir" yaml:"dir"`
	Passphrase string        `koanf:"passphrase" json:"passphrase,omitempty" yaml:"passphrase,omitempty"`
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`
}

// RoutesConfig is the view table used by the route guard.
type RoutesConfig struct {
	Login     string   `koanf:"login" json:"login" yaml:"login"`
	Register  string   `koanf:"register" json:"register" yaml:"register"`
	Landing   string   `koanf:"landing" json:"landing" yaml:"landing"`
	Protected []string `koanf:"protected" json:"protected" yaml:"protected"`
}

// AuthConfig throttles login and register attempts. Rate 0 disables it.
type AuthConfig struct {
	Rate  int `koanf:"rate" json:"rate" yaml:"rate"`
	Burst int `koanf:"burst" json:"burst" yaml:"burst"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// DefaultAPIURL matches the backend's development address.
const DefaultAPIURL = "http://localhost:8000"

// HomeDir returns ~/.timi.
func HomeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".timi"
	}
	return filepath.Join(home, ".timi")
}

// DefaultConfigPath returns ~/.timi/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(HomeDir(), "config.yaml")
}

// DefaultDataDir returns ~/.timi/data.
func DefaultDataDir() string {
	return filepath.Join(HomeDir(), "data")
}

// Default returns the built-in configuration.
func Default() *Config {
	routes := domain.DefaultRouteTable()
	return &Config{
		API: APIConfig{
			URL:     DefaultAPIURL,
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Engine:     storage.EngineBadger,
			Dir:        DefaultDataDir(),
			GCInterval: storage.DefaultBadgerConfig().GCInterval,
		},
		Routes: RoutesConfig{
			Login:     routes.Login,
			Register:  routes.Register,
			Landing:   routes.Landing,
			Protected: routes.Protected,
		},
		Auth: AuthConfig{
			Rate:  10,
			Burst: 3,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
		Output: OutputTable,
	}
}

// defaultMap is Default in koanf form.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"api.url":             d.API.URL,
		"api.timeout":         d.API.Timeout.String(),
		"storage.engine":      d.Storage.Engine,
		"storage.dir":         d.Storage.Dir,
		"storage.passphrase":  d.Storage.Passphrase,
		"storage.gc_interval": d.Storage.GCInterval.String(),
		"routes.login":        d.Routes.Login,
		"routes.register":     d.Routes.Register,
		"routes.landing":      d.Routes.Landing,
		"routes.protected":    d.Routes.Protected,
		"auth.rate":           d.Auth.Rate,
		"auth.burst":          d.Auth.Burst,
		"log.level":           d.Log.Level,
		"log.format":          d.Log.Format,
		"output":              d.Output,
	}
}

// RouteTable returns the normalized route table.
func (c *Config) RouteTable() domain.RouteTable {
	return domain.RouteTable{
		Login:     c.Routes.Login,
		Register:  c.Routes.Register,
		Landing:   c.Routes.Landing,
		Protected: append([]string(nil), c.Routes.Protected...),
	}.Normalize()
}

// Verify checks the configuration and returns every problem found.
func (c *Config) Verify() error {
	var errs []error

	u, err := url.Parse(c.API.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("api.url: %q is not an http(s) URL", c.API.URL))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, errors.New("api.timeout: must be positive"))
	}

	switch c.Storage.Engine {
	case storage.EngineBadger:
		if strings.TrimSpace(c.Storage.Dir) == "" {
			errs = append(errs, errors.New("storage.dir: required for the badger engine"))
		}
		if c.Storage.Passphrase != "" && len(c.Storage.Passphrase) < storage.MinPassphraseLength {
			errs = append(errs, fmt.Errorf("storage.passphrase: at least %d characters", storage.MinPassphraseLength))
		}
	case storage.EngineMemory:
	default:
		errs = append(errs, fmt.Errorf("storage.engine: unknown engine %q", c.Storage.Engine))
	}

	errs = append(errs, c.verifyRoutes()...)

	if c.Auth.Rate < 0 || c.Auth.Burst < 0 {
		errs = append(errs, errors.New("auth: rate and burst must not be negative"))
	}
	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level: unknown level %q", c.Log.Level))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format: must be text or json, got %q", c.Log.Format))
	}
	switch c.Output {
	case OutputTable, OutputJSON, OutputYAML:
	default:
		errs = append(errs, fmt.Errorf("output: must be table, json or yaml, got %q", c.Output))
	}

	return errors.Join(errs...)
}

func (c *Config) verifyRoutes() []error {
	var errs []error
	check := func(field, route string) {
		if !strings.HasPrefix(strings.TrimSpace(route), "/") {
			errs = append(errs, fmt.Errorf("routes.%s: %q must start with /", field, route))
		}
	}
	check("login", c.Routes.Login)
	check("register", c.Routes.Register)
	check("landing", c.Routes.Landing)
	for _, r := range c.Routes.Protected {
		check("protected", r)
	}
	if len(errs) > 0 {
		return errs
	}

	t := c.RouteTable()
	if t.Login == domain.RouteRoot || t.Register == domain.RouteRoot || t.Landing == domain.RouteRoot {
		errs = append(errs, errors.New("routes: / is reserved for the home redirect"))
	}
	if t.Login == t.Register {
		errs = append(errs, errors.New("routes: login and register must differ"))
	}
	if !t.IsProtected(t.Landing) {
		errs = append(errs, fmt.Errorf("routes.landing: %q must be protected", t.Landing))
	}
	if t.IsProtected(t.Login) || t.IsProtected(t.Register) {
		errs = append(errs, errors.New("routes.protected: must not contain login or register"))
	}
	return errs
}

// Sanitize returns a copy safe to print.
func (c *Config) Sanitize() *Config {
	cp := *c
	cp.Routes.Protected = append([]string(nil), c.Routes.Protected...)
	if cp.Storage.Passphrase != "" {
		cp.Storage.Passphrase = "***REDACTED***"
	}
	return &cp
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
