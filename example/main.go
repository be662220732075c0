package main

import (
	"context"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/application/services/production"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/prodplan/pkg/interfaces/cli/output"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	store := memory.NewStore(8)
	materials := catalog.NewRawMaterialService(store.RawMaterials(), nil, nil)
	products := catalog.NewProductService(store.Products(), store.RawMaterials(), nil, nil)

	// A small bakery: flour, butter and sugar shared by three recipes
	flour, err := materials.Create(ctx, catalog.RawMaterialInput{
		Name: "Wheat flour", Code: "FLR-01", Unit: entities.Kilogram,
		StockQuantity: decimal.RequireFromString("25"), UnitCost: decimal.RequireFromString("1.20"),
	})
	if err != nil {
		return err
	}
	butter, err := materials.Create(ctx, catalog.RawMaterialInput{
		Name: "Butter", Code: "BTR-01", Unit: entities.Kilogram,
		StockQuantity: decimal.RequireFromString("6"), UnitCost: decimal.RequireFromString("9.50"),
	})
	if err != nil {
		return err
	}
	sugar, err := materials.Create(ctx, catalog.RawMaterialInput{
		Name: "Sugar", Code: "SGR-01", Unit: entities.Kilogram,
		StockQuantity: decimal.RequireFromString("4"), UnitCost: decimal.RequireFromString("0.90"),
	})
	if err != nil {
		return err
	}

	recipes := []catalog.ProductInput{
		{
			Name: "Croissant tray", SKU: "CRS-12", UnitPrice: decimal.RequireFromString("38.00"),
			Materials: []catalog.BOMLineInput{
				{Material: flour.ID(), QuantityPerUnit: decimal.RequireFromString("1.5")},
				{Material: butter.ID(), QuantityPerUnit: decimal.RequireFromString("0.9")},
			},
		},
		{
			Name: "Butter cake", SKU: "CAK-01", UnitPrice: decimal.RequireFromString("24.00"),
			Materials: []catalog.BOMLineInput{
				{Material: flour.ID(), QuantityPerUnit: decimal.RequireFromString("0.5")},
				{Material: butter.ID(), QuantityPerUnit: decimal.RequireFromString("0.25")},
				{Material: sugar.ID(), QuantityPerUnit: decimal.RequireFromString("0.4")},
			},
		},
		{
			Name: "Country loaf", SKU: "BRD-01", UnitPrice: decimal.RequireFromString("6.50"),
			Materials: []catalog.BOMLineInput{
				{Material: flour.ID(), QuantityPerUnit: decimal.RequireFromString("0.6")},
			},
		},
	}
	for _, in := range recipes {
		if _, err := products.Create(ctx, in); err != nil {
			return err
		}
	}

	result, err := production.NewService(store).Calculate(ctx)
	if err != nil {
		return err
	}

	snapshot, err := store.LoadSnapshot(ctx)
	if err != nil {
		return err
	}
	report := output.Report{
		Plan:      dto.FromPlan(result.Plan, result.RunID.String(), result.CalculatedAt, result.Warnings()),
		Materials: make(map[int64]dto.RawMaterialResponse),
		Duration:  result.Duration,
	}
	for _, m := range snapshot.RawMaterials {
		report.Materials[m.ID().Value()] = dto.FromRawMaterial(m)
	}
	return output.RenderText(os.Stdout, report, output.Options{Verbose: true})
}
