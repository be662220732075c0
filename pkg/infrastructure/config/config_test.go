package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	c, err := Load(Options{})
	require.NoError(t, err)

	assert.Equal(t, "development", c.App.Env)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, DriverMemory, c.Storage.Driver)
	assert.Equal(t, ":8080", c.HTTP.Addr)
	assert.True(t, c.Metrics.Enabled)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.Equal(t, "text", c.Output.Format)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "prodplan.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
log:
  level: debug
storage:
  driver: sqlite
  dsn: file.db
http:
  addr: ":9000"
output:
  format: json
`), 0o600))

	t.Setenv("PRODPLAN_HTTP_ADDR", ":9100")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("format", "text", "")
	flags.String("unrelated", "", "")
	require.NoError(t, flags.Parse([]string{"--format=CSV"}))

	c, err := Load(Options{ConfigFile: file, Flags: flags})
	require.NoError(t, err)

	assert.Equal(t, "debug", c.Log.Level, "file overrides default")
	assert.Equal(t, DriverSQLite, c.Storage.Driver)
	assert.Equal(t, "file.db", c.Storage.DSN)
	assert.Equal(t, ":9100", c.HTTP.Addr, "env overrides file")
	assert.Equal(t, "csv", c.Output.Format, "flag overrides file")
}

func TestLoad_UnchangedFlagKeepsDefault(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("driver", "sqlite", "")
	require.NoError(t, flags.Parse(nil))

	c, err := Load(Options{Flags: flags})
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, c.Storage.Driver)
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("PRODPLAN_LOG_LEVEL=warn\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("PRODPLAN_LOG_LEVEL") })

	c, err := Load(Options{EnvFile: envFile})
	require.NoError(t, err)
	assert.Equal(t, "warn", c.Log.Level)

	_, err = Load(Options{EnvFile: filepath.Join(dir, "absent.env")})
	assert.NoError(t, err, "a missing env file is not an error")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Storage.Driver = DriverMemory
		c.Output.Format = "text"
		c.Metrics.Enabled = true
		c.Metrics.Path = "/metrics"
		return c
	}

	testCases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown driver", mutate: func(c *Config) { c.Storage.Driver = "mongo" }, wantErr: "unknown storage driver"},
		{name: "sqlite without dsn", mutate: func(c *Config) { c.Storage.Driver = DriverSQLite }, wantErr: "storage.dsn is required"},
		{name: "postgres with dsn", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres; c.Storage.DSN = "postgres://x" }},
		{name: "unknown format", mutate: func(c *Config) { c.Output.Format = "pdf" }, wantErr: "unknown output format"},
		{name: "bad metrics path", mutate: func(c *Config) { c.Metrics.Path = "metrics" }, wantErr: "metrics.path"},
		{name: "metrics disabled", mutate: func(c *Config) { c.Metrics.Enabled = false; c.Metrics.Path = "" }},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := valid()
			tc.mutate(&c)
			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
