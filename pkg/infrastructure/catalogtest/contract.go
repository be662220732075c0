package catalogtest

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RunCatalogContract exercises the behaviour every catalog backend shares.
// open must return an empty catalog; it is called once per subtest.
func RunCatalogContract(t *testing.T, open func(t *testing.T) repositories.Catalog) {
	t.Run("SaveAssignsIDs", func(t *testing.T) {
		c := open(t)
		f := SeedFurniture(t, c)

		assert.False(t, f.Wood.ID().IsZero())
		assert.NotEqual(t, f.Wood.ID(), f.Screws.ID())
		assert.False(t, f.Table.ID().IsZero())
		assert.Equal(t, 3, f.Table.MaterialCount())
	})

	t.Run("FindRoundTrip", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		m, err := c.RawMaterials().FindByID(ctx, f.Varnish.ID())
		require.NoError(t, err)
		assert.Equal(t, "VRN-CLR", m.Code())
		assert.Equal(t, entities.Liter, m.Unit())
		assert.True(t, m.StockQuantity().Equal(decimal.NewFromInt(3)))
		assert.True(t, m.UnitCost().Equal(decimal.NewFromInt(18)))

		m, err = c.RawMaterials().FindByCode(ctx, "SCR-440")
		require.NoError(t, err)
		assert.Equal(t, f.Screws.ID(), m.ID())

		p, err := c.Products().FindBySKU(ctx, "CHR-200")
		require.NoError(t, err)
		assert.Equal(t, f.Chair.ID(), p.ID())
		assert.True(t, p.UnitPrice().Equal(decimal.NewFromInt(120)))
		line, ok := p.Material(f.Varnish.ID())
		require.True(t, ok)
		assert.True(t, line.QuantityPerUnit().Equal(decimal.RequireFromString("0.25")))
		assert.Equal(t, []entities.MaterialRef{f.Wood.ID(), f.Screws.ID(), f.Varnish.ID()}, refs(p))
	})

	t.Run("NotFound", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)

		_, err := c.Products().FindByID(ctx, entities.MustProductRef(999))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		_, err = c.Products().FindBySKU(ctx, "NOPE")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		_, err = c.RawMaterials().FindByID(ctx, entities.MustMaterialRef(999))
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		_, err = c.RawMaterials().FindByCode(ctx, "NOPE")
		assert.ErrorIs(t, err, repositories.ErrNotFound)
		assert.ErrorIs(t, c.Products().Delete(ctx, entities.MustProductRef(999)), repositories.ErrNotFound)
		assert.ErrorIs(t, c.RawMaterials().Delete(ctx, entities.MustMaterialRef(999)), repositories.ErrNotFound)
	})

	t.Run("Listing", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		all, err := c.Products().FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		active, err := c.Products().FindAllActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"TBL-100", "CHR-200", "STL-300"}, skus(active))

		found, err := c.Products().FindByNameContaining(ctx, "DINING")
		require.NoError(t, err)
		assert.Equal(t, []string{"TBL-100", "CHR-200"}, skus(found))

		materials, err := c.RawMaterials().FindAllActive(ctx)
		require.NoError(t, err)
		assert.Len(t, materials, 3)

		allMaterials, err := c.RawMaterials().FindAll(ctx)
		require.NoError(t, err)
		assert.Len(t, allMaterials, 4)

		byName, err := c.RawMaterials().FindByNameContaining(ctx, "wood")
		require.NoError(t, err)
		require.Len(t, byName, 1)
		assert.Equal(t, f.Screws.ID(), byName[0].ID())
	})

	t.Run("Exists", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		ok, err := c.Products().ExistsBySKU(ctx, "STL-300")
		require.NoError(t, err)
		assert.True(t, ok)
		ok, err = c.Products().ExistsBySKU(ctx, "STL-999")
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = c.RawMaterials().ExistsByCode(ctx, "FAB-GRY")
		require.NoError(t, err)
		assert.True(t, ok)

		ok, err = c.Products().ExistsWithMaterial(ctx, f.Varnish.ID())
		require.NoError(t, err)
		assert.True(t, ok)

		unused, err := c.RawMaterials().Save(ctx, MustRawMaterial(t, "Glue", "GLU-1", entities.Milliliter, "500", "0.01"))
		require.NoError(t, err)
		ok, err = c.Products().ExistsWithMaterial(ctx, unused.ID())
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("UpdateReplacesBOM", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		p, err := c.Products().FindByID(ctx, f.Chair.ID())
		require.NoError(t, err)
		require.NoError(t, p.RemoveMaterial(f.Varnish.ID()))
		require.NoError(t, p.UpdateMaterialQuantity(f.Screws.ID(), decimal.NewFromInt(10)))
		require.NoError(t, p.Update("Kitchen chair", "", "chr-201", decimal.RequireFromString("99.95")))

		saved, err := c.Products().Save(ctx, p)
		require.NoError(t, err)
		assert.Equal(t, f.Chair.ID(), saved.ID())

		reloaded, err := c.Products().FindByID(ctx, f.Chair.ID())
		require.NoError(t, err)
		assert.Equal(t, "CHR-201", reloaded.SKU())
		assert.Equal(t, "Kitchen chair", reloaded.Name())
		assert.True(t, reloaded.UnitPrice().Equal(decimal.RequireFromString("99.95")))
		assert.Equal(t, []entities.MaterialRef{f.Wood.ID(), f.Screws.ID()}, refs(reloaded))
		line, _ := reloaded.Material(f.Screws.ID())
		assert.True(t, line.QuantityPerUnit().Equal(decimal.NewFromInt(10)))
	})

	t.Run("StockAdjustmentPersists", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		m, err := c.RawMaterials().FindByID(ctx, f.Wood.ID())
		require.NoError(t, err)
		require.NoError(t, m.AdjustStock(decimal.RequireFromString("-12.25")))
		_, err = c.RawMaterials().Save(ctx, m)
		require.NoError(t, err)

		reloaded, err := c.RawMaterials().FindByID(ctx, f.Wood.ID())
		require.NoError(t, err)
		assert.True(t, reloaded.StockQuantity().Equal(decimal.RequireFromString("37.75")), reloaded.StockQuantity().String())
	})

	t.Run("DuplicateKeys", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		SeedFurniture(t, c)

		_, err := c.Products().Save(ctx, MustProduct(t, "Another table", "tbl-100", "1"))
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)

		_, err = c.RawMaterials().Save(ctx, MustRawMaterial(t, "More oak", "wood-oak", entities.Meter, "1", "1"))
		assert.ErrorIs(t, err, repositories.ErrDuplicateKey)
	})

	t.Run("Delete", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		err := c.RawMaterials().Delete(ctx, f.Fabric.ID())
		assert.ErrorIs(t, err, repositories.ErrInUse)

		require.NoError(t, c.Products().Delete(ctx, f.Cushion.ID()))
		_, err = c.Products().FindByID(ctx, f.Cushion.ID())
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		require.NoError(t, c.RawMaterials().Delete(ctx, f.Fabric.ID()))
		_, err = c.RawMaterials().FindByID(ctx, f.Fabric.ID())
		assert.ErrorIs(t, err, repositories.ErrNotFound)

		// Remaining rows are still reachable after the removal.
		p, err := c.Products().FindByID(ctx, f.Stool.ID())
		require.NoError(t, err)
		assert.Equal(t, "STL-300", p.SKU())
	})

	t.Run("ExplicitIDsAdvanceSequence", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)

		rec := MustRawMaterial(t, "Imported", "IMP-1", entities.Unit, "1", "1").Record()
		rec.ID = entities.MustMaterialRef(41)
		imported, err := entities.ReconstituteRawMaterial(rec)
		require.NoError(t, err)
		_, err = c.RawMaterials().Save(ctx, imported)
		require.NoError(t, err)

		next, err := c.RawMaterials().Save(ctx, MustRawMaterial(t, "Fresh", "FRS-1", entities.Unit, "1", "1"))
		require.NoError(t, err)
		assert.Greater(t, next.ID().Value(), int64(41))
	})

	t.Run("SnapshotHasOnlyActive", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		snap, err := c.LoadSnapshot(ctx)
		require.NoError(t, err)
		assert.False(t, snap.TakenAt.IsZero())
		assert.Equal(t, []string{"TBL-100", "CHR-200", "STL-300"}, skus(snap.Products))
		require.Len(t, snap.RawMaterials, 3)
		for _, m := range snap.RawMaterials {
			assert.NotEqual(t, f.Fabric.ID(), m.ID())
		}
		assert.Equal(t, 3, snap.Products[0].MaterialCount())
	})

	t.Run("ReturnedEntitiesAreCopies", func(t *testing.T) {
		ctx := context.Background()
		c := open(t)
		f := SeedFurniture(t, c)

		p, err := c.Products().FindByID(ctx, f.Table.ID())
		require.NoError(t, err)
		require.NoError(t, p.RemoveMaterial(f.Wood.ID()))

		again, err := c.Products().FindByID(ctx, f.Table.ID())
		require.NoError(t, err)
		assert.Equal(t, 3, again.MaterialCount())
	})
}

func skus(products []*entities.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.SKU())
	}
	return out
}

func refs(p *entities.Product) []entities.MaterialRef {
	out := make([]entities.MaterialRef, 0, p.MaterialCount())
	for _, line := range p.Materials() {
		out = append(out, line.MaterialRef())
	}
	return out
}
