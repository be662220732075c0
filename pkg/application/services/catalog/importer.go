package catalog

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
)

// ImportResult counts what an import wrote
type ImportResult struct {
	RawMaterials int
	Products     int
	BOMLines     int
}

// Importer copies a file dataset into a catalog store, keeping the ids
// given in the file. Entities already stored under the same id are replaced.
type Importer struct {
	catalog repositories.Catalog
	logger  *zap.Logger
}

func NewImporter(catalog repositories.Catalog, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{catalog: catalog, logger: logger}
}

// Import validates every BOM reference before writing anything: each one must
// name a material in the dataset or already in the store. Writes are not
// transactional across entities; a storage failure part way leaves the
// entities written so far.
func (im *Importer) Import(ctx context.Context, dataset *repositories.Dataset) (ImportResult, error) {
	var result ImportResult
	if dataset == nil {
		return result, fmt.Errorf("%w: nil dataset", entities.ErrInvalidInput)
	}

	known := make(map[entities.MaterialRef]bool, len(dataset.RawMaterials))
	for _, m := range dataset.RawMaterials {
		known[m.ID()] = true
	}
	for _, p := range dataset.Products {
		for _, line := range p.Materials() {
			ref := line.MaterialRef()
			if known[ref] {
				continue
			}
			if _, err := im.catalog.RawMaterials().FindByID(ctx, ref); err != nil {
				return result, fmt.Errorf("product %s: %w", p.SKU(), rawMaterialErr(err, ref.Value()))
			}
			known[ref] = true
		}
	}

	for _, m := range dataset.RawMaterials {
		if _, err := im.catalog.RawMaterials().Save(ctx, m); err != nil {
			return result, fmt.Errorf("importing raw material %s: %w", m.Code(), rawMaterialSaveErr(err, m))
		}
		result.RawMaterials++
	}
	for _, p := range dataset.Products {
		if _, err := im.catalog.Products().Save(ctx, p); err != nil {
			return result, fmt.Errorf("importing product %s: %w", p.SKU(), productSaveErr(err, p))
		}
		result.Products++
		result.BOMLines += p.MaterialCount()
	}

	logging.FromContext(ctx, im.logger).Info("catalog imported",
		zap.Int("raw_materials", result.RawMaterials),
		zap.Int("products", result.Products),
		zap.Int("bom_lines", result.BOMLines))
	return result, nil
}
