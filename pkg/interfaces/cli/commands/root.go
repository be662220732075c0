// Package commands wires the prodplan command line.
package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
)

// App holds the configuration and logger shared by every subcommand. Both
// are resolved once flags have been parsed.
type App struct {
	Config config.Config
	Logger *zap.Logger

	configFile string
	envFile    string
}

// NewRootCmd creates the top-level "prodplan" command
func NewRootCmd() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:           "prodplan",
		Short:         "Plan which products to manufacture from the raw materials in stock",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return app.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if app.Logger != nil {
				_ = app.Logger.Sync()
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&app.configFile, "config", "", "Path to a YAML config file")
	pf.StringVar(&app.envFile, "env-file", ".env", "Path to a .env file, loaded when present")
	pf.String("env", "", "Environment name (development, production)")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("driver", "", "Storage driver: memory, sqlite, postgres")
	pf.String("dsn", "", "Storage DSN (SQLite file path or Postgres URL)")

	root.AddCommand(
		newPlanCmd(app),
		newServeCmd(app),
		newMigrateCmd(app),
		newImportCmd(app),
		newExportCmd(app),
	)
	return root
}

func (a *App) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(config.Options{
		ConfigFile: a.configFile,
		EnvFile:    a.envFile,
		Flags:      cmd.Flags(),
	})
	if err != nil {
		return err
	}
	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Environment: cfg.App.Env})
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Logger = logger
	return nil
}
