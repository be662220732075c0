package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RawMaterialRepository provides in-memory raw material storage
type RawMaterialRepository struct {
	store *Store
}

// Verify interface compliance
var _ repositories.RawMaterialRepository = (*RawMaterialRepository)(nil)

// Save stores a copy of material, assigning the next id when it has none
func (r *RawMaterialRepository) Save(ctx context.Context, material *entities.RawMaterial) (*entities.RawMaterial, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.materials {
		if existing.Code() == material.Code() && existing.ID() != material.ID() {
			return nil, fmt.Errorf("%w: raw material code %s", repositories.ErrDuplicateKey, material.Code())
		}
	}

	stored := material.Clone()
	if stored.ID().IsZero() {
		s.nextMaterialID++
		stored = stored.WithID(entities.MustMaterialRef(s.nextMaterialID))
	} else if stored.ID().Value() > s.nextMaterialID {
		s.nextMaterialID = stored.ID().Value()
	}

	if i, ok := s.materialsIndex[stored.ID()]; ok {
		s.materials[i] = stored
		return stored.Clone(), nil
	}

	pos, _ := slices.BinarySearchFunc(s.materials, stored.ID().Value(), func(m *entities.RawMaterial, id int64) int {
		return compareInt64(m.ID().Value(), id)
	})
	s.materials = slices.Insert(s.materials, pos, stored)
	s.reindex()
	return stored.Clone(), nil
}

// FindByID returns the raw material with the given id
func (r *RawMaterialRepository) FindByID(ctx context.Context, id entities.MaterialRef) (*entities.RawMaterial, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.materialsIndex[id]
	if !ok {
		return nil, fmt.Errorf("%w: raw material %d", repositories.ErrNotFound, id.Value())
	}
	return s.materials[i].Clone(), nil
}

// FindByCode returns the raw material with the given normalized code
func (r *RawMaterialRepository) FindByCode(ctx context.Context, code string) (*entities.RawMaterial, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.materials {
		if m.Code() == code {
			return m.Clone(), nil
		}
	}
	return nil, fmt.Errorf("%w: raw material code %s", repositories.ErrNotFound, code)
}

// FindAll returns every raw material ordered by id
func (r *RawMaterialRepository) FindAll(ctx context.Context) ([]*entities.RawMaterial, error) {
	return r.filter(func(*entities.RawMaterial) bool { return true }), nil
}

// FindAllActive returns active raw materials ordered by id
func (r *RawMaterialRepository) FindAllActive(ctx context.Context) ([]*entities.RawMaterial, error) {
	return r.filter((*entities.RawMaterial).IsActive), nil
}

// FindByNameContaining performs a case-insensitive substring match on names
func (r *RawMaterialRepository) FindByNameContaining(ctx context.Context, fragment string) ([]*entities.RawMaterial, error) {
	needle := strings.ToLower(fragment)
	return r.filter(func(m *entities.RawMaterial) bool {
		return strings.Contains(strings.ToLower(m.Name()), needle)
	}), nil
}

// Delete removes a raw material. Materials referenced by a BOM are kept.
func (r *RawMaterialRepository) Delete(ctx context.Context, id entities.MaterialRef) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.materialsIndex[id]
	if !ok {
		return fmt.Errorf("%w: raw material %d", repositories.ErrNotFound, id.Value())
	}
	for _, p := range s.products {
		if _, used := p.Material(id); used {
			return fmt.Errorf("%w: raw material %d is used by product %s", repositories.ErrInUse, id.Value(), p.SKU())
		}
	}
	s.materials = slices.Delete(s.materials, i, i+1)
	s.reindex()
	return nil
}

// ExistsByCode reports whether a raw material with the normalized code exists
func (r *RawMaterialRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, m := range s.materials {
		if m.Code() == code {
			return true, nil
		}
	}
	return false, nil
}

func (r *RawMaterialRepository) filter(keep func(*entities.RawMaterial) bool) []*entities.RawMaterial {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*entities.RawMaterial, 0, len(s.materials))
	for _, m := range s.materials {
		if keep(m) {
			out = append(out, m.Clone())
		}
	}
	return out
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
