package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// ProductRepository provides in-memory product and BOM storage
type ProductRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.ProductRepository = (*ProductRepository)(nil)

// Save stores a deep copy of product, BOM included
func (r *ProductRepository) Save(ctx context.Context, product *entities.Product) (*entities.Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.SKU() == product.SKU() && existing.ID() != product.ID() {
			return nil, fmt.Errorf("%w: product sku %s", repositories.ErrDuplicateKey, product.SKU())
		}
	}

	stored := product.Clone()
	if stored.ID().IsZero() {
		s.nextProductID++
		stored = stored.WithID(entities.MustProductRef(s.nextProductID))
	} else if stored.ID().Value() > s.nextProductID {
		s.nextProductID = stored.ID().Value()
	}

	if i, ok := s.productsIndex[stored.ID()]; ok {
		s.products[i] = stored
		return stored.Clone(), nil
	}

	pos, _ := slices.BinarySearchFunc(s.products, stored.ID().Value(), func(p *entities.Product, id int64) int {
		return compareInt64(p.ID().Value(), id)
	})
	s.products = slices.Insert(s.products, pos, stored)
	s.reindex()
	return stored.Clone(), nil
}

// FindByID returns the product with the given id
func (r *ProductRepository) FindByID(ctx context.Context, id entities.ProductRef) (*entities.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.productsIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: product %d", repositories.ErrNotFound, id.Value())
	}
	return s.products[i].Clone(), nil
}

// FindBySKU returns the product with the given normalized SKU
func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*entities.Product, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU() == sku {
			return p.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: product sku %s", repositories.ErrNotFound, sku)
}

// FindAll returns every product ordered by id
func (r *ProductRepository) FindAll(ctx context.Context) ([]*entities.Product, error) {
	return r.filter(func(*entities.Product) bool { return true }), nil
}

// FindAllActive returns active products ordered by id
func (r *ProductRepository) FindAllActive(ctx context.Context) ([]*entities.Product, error) {
	return r.filter((*entities.Product).IsActive), nil
}

// FindByNameContaining performs a case-insensitive substring match on names
func (r *ProductRepository) FindByNameContaining(ctx context.Context, fragment string) ([]*entities.Product, error) {
	needle := strings.ToLower(fragment)
	return r.filter(func(p *entities.Product) bool {
		return strings.Contains(strings.ToLower(p.Name()), needle)
	}), nil
}

// Delete removes a product and its BOM
func (r *ProductRepository) Delete(ctx context.Context, id entities.ProductRef) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.productsIndex[id]
	if !ok {
		return fmt.Errorf("%w: product %d", repositories.ErrNotFound, id.Value())
	}
	s.products = slices.Delete(s.products, i, i+1)
	s.reindex()
	return nil
}

// ExistsBySKU reports whether a product with the normalized SKU exists
func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if p.SKU() == sku {
			return true, nil
		}
	}
	return false, nil
}

// ExistsWithMaterial reports whether any BOM references material
func (r *ProductRepository) ExistsWithMaterial(ctx context.Context, material entities.MaterialRef) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, p := range s.products {
		if _, ok := p.Material(material); ok {
			return true, nil
		}
	}
	return false, nil
}

func (r *ProductRepository) filter(keep func(*entities.Product) bool) []*entities.Product {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.Product, 0, len(s.products))
	for _, p := range s.products {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
