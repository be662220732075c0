package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/sqlstore"
)

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the configured SQL store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if app.Config.Storage.Driver == config.DriverMemory {
				return fmt.Errorf("migrate needs a SQL storage driver, got %s", app.Config.Storage.Driver)
			}
			dialect, err := sqlstore.ParseDialect(app.Config.Storage.Driver)
			if err != nil {
				return err
			}
			store, err := sqlstore.Connect(ctx, dialect, app.Config.Storage.DSN)
			if err != nil {
				return err
			}
			defer store.Close()

			applied, err := store.Migrate(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, m := range applied {
				fmt.Fprintf(out, "applied %05d %s (%s)\n", m.Version, m.Source, m.Duration)
			}
			version, err := store.SchemaVersion(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintf(out, "schema is up to date at version %d\n", version)
			} else {
				fmt.Fprintf(out, "schema version %d\n", version)
			}
			return nil
		},
	}
}
