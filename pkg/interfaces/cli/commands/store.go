package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/vsinha/prodplan/pkg/domain/repositories"
	"github.com/vsinha/prodplan/pkg/infrastructure/config"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/sqlstore"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/yamlfile"
)

// openCatalog opens the configured store with its schema up to date
func openCatalog(ctx context.Context, cfg config.Config) (repositories.Catalog, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		return memory.NewStore(64), nil
	}
	dialect, err := sqlstore.ParseDialect(cfg.Storage.Driver)
	if err != nil {
		return nil, err
	}
	store, err := sqlstore.Open(ctx, dialect, cfg.Storage.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening %s store: %w", dialect, err)
	}
	return store, nil
}

// fileSource names a catalog held in files instead of the store
type fileSource struct {
	catalog   string
	materials string
	products  string
	bom       string
}

func (f fileSource) isSet() bool {
	return f.catalog != "" || f.materials != "" || f.products != "" || f.bom != ""
}

func (f fileSource) validate() error {
	if f.catalog != "" && (f.materials != "" || f.products != "" || f.bom != "") {
		return errors.New("--catalog cannot be combined with --materials, --products or --bom")
	}
	if f.catalog == "" && (f.materials == "" || f.products == "") {
		return errors.New("must specify either --catalog or both --materials and --products")
	}
	return nil
}

// load reads the dataset and returns the files it came from
func (f fileSource) load() (*repositories.Dataset, []string, error) {
	if err := f.validate(); err != nil {
		return nil, nil, err
	}
	if f.catalog != "" {
		dataset, err := yamlfile.Load(f.catalog)
		if err != nil {
			return nil, nil, err
		}
		return dataset, []string{f.catalog}, nil
	}

	dataset, err := csv.NewLoader().LoadCatalog(f.materials, f.products, f.bom)
	if err != nil {
		return nil, nil, err
	}
	sources := []string{f.materials, f.products}
	if f.bom != "" {
		sources = append(sources, f.bom)
	}
	return dataset, sources, nil
}
