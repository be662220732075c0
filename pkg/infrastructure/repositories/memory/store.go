package memory

import (
	"context"
	"sync"
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// Store is an in-memory catalog. Products and raw materials share one lock so
// LoadSnapshot observes both collections at the same instant.
type Store struct {
	mu sync.RWMutex

	materials      []*entities.RawMaterial
	materialsIndex map[entities.MaterialRef]int
	nextMaterialID int64

	products      []*entities.Product
	productsIndex map[entities.ProductRef]int
	nextProductID int64

	productRepo  *ProductRepository
	materialRepo *RawMaterialRepository
}

// NewStore creates an empty in-memory catalog
func NewStore(expectedItems int) *Store {
	s := &Store{
		materials:      make([]*entities.RawMaterial, 0, expectedItems),
		materialsIndex: make(map[entities.MaterialRef]int, expectedItems),
		products:       make([]*entities.Product, 0, expectedItems),
		productsIndex:  make(map[entities.ProductRef]int, expectedItems),
	}
	s.productRepo = &ProductRepository{store: s}
	s.materialRepo = &RawMaterialRepository{store: s}
	return s
}

// Verify interface compliance
var _ repositories.Catalog = (*Store)(nil)

// Products returns the product repository view of the store
func (s *Store) Products() repositories.ProductRepository { return s.productRepo }

// RawMaterials returns the raw material repository view of the store
func (s *Store) RawMaterials() repositories.RawMaterialRepository { return s.materialRepo }

// LoadSnapshot copies every active product and raw material under one read lock
func (s *Store) LoadSnapshot(ctx context.Context) (*repositories.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &repositories.Snapshot{
		Products:     make([]*entities.Product, 0, len(s.products)),
		RawMaterials: make([]*entities.RawMaterial, 0, len(s.materials)),
		TakenAt:      time.Now().UTC(),
	}
	for _, p := range s.products {
		if p.IsActive() {
			snap.Products = append(snap.Products, p.Clone())
		}
	}
	for _, m := range s.materials {
		if m.IsActive() {
			snap.RawMaterials = append(snap.RawMaterials, m.Clone())
		}
	}
	return snap, nil
}

// Close is a no-op for the in-memory store
func (s *Store) Close() error { return nil }

// reindex rebuilds both position maps after a removal
func (s *Store) reindex() {
	clear(s.materialsIndex)
	for i, m := range s.materials {
		s.materialsIndex[m.ID()] = i
	}
	clear(s.productsIndex)
	for i, p := range s.products {
		s.productsIndex[p.ID()] = i
	}
}
