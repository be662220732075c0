package production

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

func BenchmarkService_Calculate(b *testing.B) {
	for _, size := range []struct{ products, materials int }{
		{10, 5},
		{100, 20},
		{1000, 50},
	} {
		b.Run(fmt.Sprintf("products=%d/materials=%d", size.products, size.materials), func(b *testing.B) {
			ctx := context.Background()
			store := setupLargeCatalog(b, size.products, size.materials)
			svc := NewService(store)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := svc.Calculate(ctx); err != nil {
					b.Fatalf("Calculate failed: %v", err)
				}
			}
		})
	}
}

// setupLargeCatalog stores products that each use three of the materials
func setupLargeCatalog(b *testing.B, products, materials int) *memory.Store {
	b.Helper()
	ctx := context.Background()
	store := memory.NewStore(products + materials)

	refs := make([]entities.MaterialRef, 0, materials)
	for i := 0; i < materials; i++ {
		m, err := entities.NewRawMaterial(
			fmt.Sprintf("Material %d", i), "", fmt.Sprintf("MAT-%04d", i), entities.Kilogram,
			decimal.NewFromInt(int64(1000+i*37)), decimal.NewFromInt(1),
		)
		if err != nil {
			b.Fatal(err)
		}
		saved, err := store.RawMaterials().Save(ctx, m)
		if err != nil {
			b.Fatal(err)
		}
		refs = append(refs, saved.ID())
	}

	for i := 0; i < products; i++ {
		p, err := entities.NewProduct(
			fmt.Sprintf("Product %d", i), "", fmt.Sprintf("PRD-%05d", i),
			decimal.NewFromInt(int64(10+i%97)), 0,
		)
		if err != nil {
			b.Fatal(err)
		}
		for j := 0; j < 3; j++ {
			ref := refs[(i+j*7)%len(refs)]
			if _, ok := p.Material(ref); ok {
				continue
			}
			if err := p.AddMaterial(ref, decimal.NewFromFloat(0.5+float64(j))); err != nil {
				b.Fatal(err)
			}
		}
		if _, err := store.Products().Save(ctx, p); err != nil {
			b.Fatal(err)
		}
	}
	return store
}
