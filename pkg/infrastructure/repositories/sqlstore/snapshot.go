package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// LoadSnapshot reads active products, their BOMs and active raw materials
// inside one transaction. PostgreSQL uses a read-only repeatable-read
// transaction; SQLite transactions are already serializable.
func (s *Store) LoadSnapshot(ctx context.Context) (*repositories.Snapshot, error) {
	var opts *sql.TxOptions
	if s.dialect == Postgres {
		opts = &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true}
	}

	snap := &repositories.Snapshot{}
	err := s.withinTx(ctx, opts, func(tx DBTX) error {
		var err error
		snap.Products, err = s.products.list(ctx, tx,
			`SELECT `+productColumns+` FROM products WHERE active = ? ORDER BY id`, true)
		if err != nil {
			return err
		}
		snap.RawMaterials, err = s.rawMaterials.list(ctx, tx,
			`SELECT `+rawMaterialColumns+` FROM raw_materials WHERE active = ? ORDER BY id`, true)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalog snapshot: %w", err)
	}
	snap.TakenAt = time.Now().UTC()
	return snap, nil
}
