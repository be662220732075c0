package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

var (
	// ErrNotFound is returned by lookups and deletes that match nothing
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a save would break SKU or code uniqueness
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInUse is returned when deleting a raw material still referenced by a BOM
	ErrInUse = errors.New("still referenced")
)

// Snapshot is a consistent, point-in-time copy of everything the production
// calculator reads. Products and materials are ordered by id.
type Snapshot struct {
	Products     []*entities.Product
	RawMaterials []*entities.RawMaterial
	TakenAt      time.Time
}

// Dataset is a complete catalog read from a file, inactive entries included.
// Entities carry the identifiers given in the file.
type Dataset struct {
	RawMaterials []*entities.RawMaterial
	Products     []*entities.Product
}

// SnapshotSource loads the active catalog as of a single moment
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}

// Catalog is implemented by every catalog backend
type Catalog interface {
	SnapshotSource
	Products() ProductRepository
	RawMaterials() RawMaterialRepository
	Close() error
}
