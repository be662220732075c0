package repositories

import (
	"context"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// RawMaterialRepository provides access to raw material master data
type RawMaterialRepository interface {
	Save(ctx context.Context, material *entities.RawMaterial) (*entities.RawMaterial, error)
	FindByID(ctx context.Context, id entities.MaterialRef) (*entities.RawMaterial, error)
	FindByCode(ctx context.Context, code string) (*entities.RawMaterial, error)
	FindAll(ctx context.Context) ([]*entities.RawMaterial, error)
	FindAllActive(ctx context.Context) ([]*entities.RawMaterial, error)
	FindByNameContaining(ctx context.Context, fragment string) ([]*entities.RawMaterial, error)
	Delete(ctx context.Context, id entities.MaterialRef) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}
