// Package catalogtest provides fixtures and a shared behavioural suite for
// catalog backends.
package catalogtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Fixture holds the stored entities of the furniture workshop catalog
type Fixture struct {
	Wood, Screws, Varnish, Fabric *entities.RawMaterial
	Table, Chair, Stool, Cushion  *entities.Product
}

// MustRawMaterial creates a raw material or fails the test
func MustRawMaterial(t testing.TB, name, code string, unit entities.MeasurementUnit, stock, cost string) *entities.RawMaterial {
	t.Helper()
	m, err := entities.NewRawMaterial(name, "", code, unit, decimal.RequireFromString(stock), decimal.RequireFromString(cost))
	require.NoError(t, err)
	return m
}

// MustProduct creates a product with the given BOM lines or fails the test.
// Lines alternate material and quantity per unit.
func MustProduct(t testing.TB, name, sku, price string, lines ...any) *entities.Product {
	t.Helper()
	p, err := entities.NewProduct(name, "", sku, decimal.RequireFromString(price), 0)
	require.NoError(t, err)
	require.Zero(t, len(lines)%2, "lines must be material/quantity pairs")
	for i := 0; i < len(lines); i += 2 {
		m := lines[i].(*entities.RawMaterial)
		qty := decimal.RequireFromString(lines[i+1].(string))
		require.NoError(t, p.AddMaterial(m.ID(), qty))
	}
	return p
}

// SeedFurniture stores a small workshop catalog. Cushion is inactive and
// Fabric is an inactive material.
//
//	Table   450.00  wood 8, screws 24, varnish 0.5
//	Chair   120.00  wood 3, screws 12, varnish 0.25
//	Stool    45.00  wood 1.5, screws 6
//	Cushion  30.00  fabric 0.75
func SeedFurniture(t testing.TB, catalog repositories.Catalog) Fixture {
	t.Helper()
	ctx := context.Background()
	var f Fixture

	saveMaterial := func(m *entities.RawMaterial) *entities.RawMaterial {
		stored, err := catalog.RawMaterials().Save(ctx, m)
		require.NoError(t, err)
		return stored
	}
	saveProduct := func(p *entities.Product) *entities.Product {
		stored, err := catalog.Products().Save(ctx, p)
		require.NoError(t, err)
		return stored
	}

	f.Wood = saveMaterial(MustRawMaterial(t, "Oak board", "WOOD-OAK", entities.Meter, "50", "12.50"))
	f.Screws = saveMaterial(MustRawMaterial(t, "Wood screw 4x40", "SCR-440", entities.Piece, "150", "0.04"))
	f.Varnish = saveMaterial(MustRawMaterial(t, "Clear varnish", "VRN-CLR", entities.Liter, "3", "18"))
	fabric := MustRawMaterial(t, "Upholstery fabric", "FAB-GRY", entities.Meter, "20", "9.90")
	fabric.Deactivate()
	f.Fabric = saveMaterial(fabric)

	f.Table = saveProduct(MustProduct(t, "Dining table", "TBL-100", "450.00", f.Wood, "8", f.Screws, "24", f.Varnish, "0.5"))
	f.Chair = saveProduct(MustProduct(t, "Dining chair", "CHR-200", "120.00", f.Wood, "3", f.Screws, "12", f.Varnish, "0.25"))
	f.Stool = saveProduct(MustProduct(t, "Bar stool", "STL-300", "45.00", f.Wood, "1.5", f.Screws, "6"))
	cushion := MustProduct(t, "Seat cushion", "CSH-400", "30.00", f.Fabric, "0.75")
	cushion.Deactivate()
	f.Cushion = saveProduct(cushion)

	return f
}
