package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/yamlfile"
)

func newExportCmd(app *App) *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the stored catalog, inactive entries included, as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := openCatalog(ctx, app.Config)
			if err != nil {
				return err
			}
			defer store.Close()

			materials, err := store.RawMaterials().FindAll(ctx)
			if err != nil {
				return fmt.Errorf("listing raw materials: %w", err)
			}
			products, err := store.Products().FindAll(ctx)
			if err != nil {
				return fmt.Errorf("listing products: %w", err)
			}
			dataset := &repositories.Dataset{RawMaterials: materials, Products: products}

			w := cmd.OutOrStdout()
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return fmt.Errorf("failed to create output file %s: %w", outputPath, err)
				}
				defer f.Close()
				w = f
			}
			return yamlfile.Write(w, dataset)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write to this file instead of stdout")
	return cmd
}
