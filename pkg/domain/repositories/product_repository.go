package repositories

import (
	"context"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ProductRepository stores products together with their bills of materials.
// Lookups by SKU expect the normalized (upper-cased) form.
type ProductRepository interface {
	// Save inserts a product without an id or replaces the stored one,
	// BOM included, and returns the stored copy.
	Save(ctx context.Context, product *entities.Product) (*entities.Product, error)
	FindByID(ctx context.Context, id entities.ProductRef) (*entities.Product, error)
	FindBySKU(ctx context.Context, sku string) (*entities.Product, error)
	FindAll(ctx context.Context) ([]*entities.Product, error)
	FindAllActive(ctx context.Context) ([]*entities.Product, error)
	FindByNameContaining(ctx context.Context, fragment string) ([]*entities.Product, error)
	Delete(ctx context.Context, id entities.ProductRef) error
	ExistsBySKU(ctx context.Context, sku string) (bool, error)
	// ExistsWithMaterial reports whether any product's BOM references the material
	ExistsWithMaterial(ctx context.Context, material entities.MaterialRef) (bool, error)
}
