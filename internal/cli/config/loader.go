package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/yndnr/timi-go/internal/infra/confloader"
)

// Load builds the configuration from defaults, the file at path and TIMI_*
// environment variables. An empty path means DefaultConfigPath, which may be
// absent; an explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) || explicit {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		path = ""
	}

	cfg := &Config{}
	loader := confloader.NewLoader(
		confloader.WithDefaults(defaultMap()),
		confloader.WithConfigFile(path),
	)
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}

	cfg.Storage.Dir = ExpandHome(cfg.Storage.Dir)
	return cfg, nil
}

// LoadLogLevel re-reads only log.level, for live reload.
func LoadLogLevel(path string) (string, error) {
	var partial struct {
		Log LogConfig `koanf:"log"`
	}
	loader := confloader.NewLoader(
		confloader.WithDefaults(map[string]any{"log.level": Default().Log.Level}),
		confloader.WithConfigFile(path),
	)
	if err := loader.Load(&partial); err != nil {
		return "", err
	}
	return partial.Log.Level, nil
}
