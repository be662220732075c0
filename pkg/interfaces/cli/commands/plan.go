package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/production"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

func newPlanCmd(app *App) *cobra.Command {
	var (
		files      fileSource
		outputPath string
		verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Calculate the most valuable production plan for the current stock",
		Example: `  prodplan plan --catalog examples/furniture/catalog.yaml
  prodplan plan --materials raw_materials.csv --products products.csv --bom bom.csv --format json
  prodplan plan --driver sqlite --dsn data/prodplan.db --format xlsx --output plan.xlsx`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := app.Logger

			var (
				products  []*entities.Product
				materials []*entities.RawMaterial
				sources   []string
			)
			if files.isSet() {
				dataset, from, err := files.load()
				if err != nil {
					return err
				}
				products, materials, sources = dataset.Products, dataset.RawMaterials, from
			} else {
				store, err := openCatalog(ctx, app.Config)
				if err != nil {
					return err
				}
				defer store.Close()
				snapshot, err := store.LoadSnapshot(ctx)
				if err != nil {
					return fmt.Errorf("loading catalog snapshot: %w", err)
				}
				products, materials = snapshot.Products, snapshot.RawMaterials
				sources = []string{app.Config.Storage.Driver + " store"}
			}
			logger.Debug("catalog loaded",
				zap.Int("products", len(products)),
				zap.Int("raw_materials", len(materials)),
				zap.Strings("sources", sources))

			result, err := production.NewService(nil, production.WithLogger(logger)).CalculateFrom(ctx, products, materials)
			if err != nil {
				return err
			}

			report := output.Report{
				Plan:      dto.FromPlan(result.Plan, result.RunID.String(), result.CalculatedAt, result.Warnings()),
				Materials: make(map[int64]dto.RawMaterialResponse, len(materials)),
				Duration:  result.Duration,
				Sources:   sources,
			}
			for _, m := range materials {
				report.Materials[m.ID().Value()] = dto.FromRawMaterial(m)
			}

			format := app.Config.Output.Format
			w := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
				}
				defer f.Close()
				w = f
			} else if output.IsBinary(format) && isTerminal(w) {
				return fmt.Errorf("%s output needs --output", format)
			}

			opts := output.Options{Color: isTerminal(w) && os.Getenv("NO_COLOR") == "", Verbose: verbose}
			if err := output.Render(w, report, format, opts); err != nil {
				return err
			}
			if outputPath != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Plan written to %s\n", outputPath)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&files.catalog, "catalog", "", "YAML catalog file")
	f.StringVar(&files.materials, "materials", "", "Raw materials CSV file")
	f.StringVar(&files.products, "products", "", "Products CSV file")
	f.StringVar(&files.bom, "bom", "", "Bill of materials CSV file (optional)")
	f.String("format", "", "Output format: text, json, csv, xlsx")
	f.StringVarP(&outputPath, "output", "o", "", "Write the plan to this file instead of stdout")
	f.BoolVarP(&verbose, "verbose", "v", false, "Show run details and catalog warnings")

	return cmd
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
