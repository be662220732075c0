package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
)

func newImportCmd(app *App) *cobra.Command {
	var files fileSource

	cmd := &cobra.Command{
		Use:   "import [catalog.yaml]",
		Short: "Load a YAML or CSV catalog into the configured store",
		Example: `  prodplan import examples/furniture/catalog.yaml --driver sqlite --dsn data/prodplan.db
  prodplan import --materials raw_materials.csv --products products.csv --bom bom.csv`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				if files.catalog != "" {
					return errors.New("catalog given both as argument and --catalog")
				}
				files.catalog = args[0]
			}
			dataset, sources, err := files.load()
			if err != nil {
				return err
			}
			if app.Config.Storage.Driver == config.DriverMemory {
				app.Logger.Warn("importing into the memory store; data is lost when the command exits")
			}

			store, err := openCatalog(ctx, app.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			result, err := catalog.NewImporter(store, app.Logger).Import(ctx, dataset)
			if err != nil {
				return err
			}
			app.Logger.Debug("import finished", zap.Strings("sources", sources))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d raw materials, %d products and %d BOM lines\n",
				result.RawMaterials, result.Products, result.BOMLines)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&files.catalog, "catalog", "", "YAML catalog file")
	f.StringVar(&files.materials, "materials", "", "Raw materials CSV file")
	f.StringVar(&files.products, "products", "", "Products CSV file")
	f.StringVar(&files.bom, "bom", "", "Bill of materials CSV file (optional)")
	return cmd
}
