// Package config loads prodplan settings from defaults, an optional YAML file,
// a .env file, PRODPLAN_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const envPrefix = "PRODPLAN"

// Storage drivers
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var (
	drivers       = []string{DriverMemory, DriverSQLite, DriverPostgres}
	outputFormats = []string{"text", "json", "csv", "xlsx"}
)

type Config struct {
	App struct {
		Env string
	} `mapstructure:"app"`

	Log struct {
		Level string
	} `mapstructure:"log"`

	Storage struct {
		Driver string
		DSN    string
	} `mapstructure:"storage"`

	HTTP struct {
		Addr string
	} `mapstructure:"http"`

	Metrics struct {
		Enabled bool
		Path    string
	} `mapstructure:"metrics"`

	Output struct {
		Format string
	} `mapstructure:"output"`
}

// FlagBindings maps command-line flag names onto config keys. Flags absent
// from the set are ignored.
var FlagBindings = map[string]string{
	"env":       "app.env",
	"log-level": "log.level",
	"driver":    "storage.driver",
	"dsn":       "storage.dsn",
	"addr":      "http.addr",
	"format":    "output.format",
}

// Options controls where Load looks
type Options struct {
	// ConfigFile is an optional YAML file; empty means none
	ConfigFile string
	// EnvFile is loaded into the process environment when it exists
	EnvFile string
	Flags   *pflag.FlagSet
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("log.level", "info")
	v.SetDefault("storage.driver", DriverMemory)
	v.SetDefault("storage.dsn", "")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("output.format", "text")
}

// Load resolves and validates the configuration
func Load(opts Options) (Config, error) {
	var c Config

	if opts.EnvFile != "" {
		if _, err := os.Stat(opts.EnvFile); err == nil {
			if err := gotenv.Load(opts.EnvFile); err != nil {
				return c, fmt.Errorf("failed to load env file %s: %w", opts.EnvFile, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return c, fmt.Errorf("failed to stat env file %s: %w", opts.EnvFile, err)
		}
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return c, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	}

	if opts.Flags != nil {
		for name, key := range FlagBindings {
			if f := opts.Flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return c, fmt.Errorf("failed to bind flag --%s: %w", name, err)
				}
			}
		}
	}

	if err := v.Unmarshal(&c); err != nil {
		return c, fmt.Errorf("failed to decode config: %w", err)
	}
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Output.Format = strings.ToLower(strings.TrimSpace(c.Output.Format))

	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

// Validate checks values that cannot be fixed by defaults
func (c Config) Validate() error {
	if !slices.Contains(drivers, c.Storage.Driver) {
		return fmt.Errorf("unknown storage driver %q (expected one of %s)", c.Storage.Driver, strings.Join(drivers, ", "))
	}
	if c.Storage.Driver != DriverMemory && strings.TrimSpace(c.Storage.DSN) == "" {
		return fmt.Errorf("storage.dsn is required for the %s driver", c.Storage.Driver)
	}
	if !slices.Contains(outputFormats, c.Output.Format) {
		return fmt.Errorf("unknown output format %q (expected one of %s)", c.Output.Format, strings.Join(outputFormats, ", "))
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics.path must start with /, got %q", c.Metrics.Path)
	}
	return nil
}
