package sqlstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// RawMaterialRepository implements repositories.RawMaterialRepository on SQL
type RawMaterialRepository struct {
	store *Store
}

var _ repositories.RawMaterialRepository = (*RawMaterialRepository)(nil)

const rawMaterialColumns = `id, code, name, description, unit, stock_quantity, unit_cost, active, created_at, updated_at`

func (r *RawMaterialRepository) Save(ctx context.Context, m *entities.RawMaterial) (*entities.RawMaterial, error) {
	var saved *entities.RawMaterial
	err := r.store.withinTx(ctx, nil, func(tx DBTX) error {
		var err error
		saved, err = r.save(ctx, tx, m)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *RawMaterialRepository) save(ctx context.Context, tx DBTX, m *entities.RawMaterial) (*entities.RawMaterial, error) {
	s := r.store
	rec := m.Record()

	if !rec.ID.IsZero() {
		res, err := tx.ExecContext(ctx, s.rebind(`UPDATE raw_materials
			SET code = ?, name = ?, description = ?, unit = ?, stock_quantity = ?, unit_cost = ?, active = ?, updated_at = ?
			WHERE id = ?`),
			rec.Code, rec.Name, rec.Description, rec.Unit.String(),
			rec.StockQuantity, rec.UnitCost, rec.Active, formatTime(rec.UpdatedAt),
			rec.ID.Value(),
		)
		if err != nil {
			return nil, translate(err, "updating raw material "+rec.Code)
		}
		if n, err := res.RowsAffected(); err != nil {
			return nil, fmt.Errorf("updating raw material %s: %w", rec.Code, err)
		} else if n > 0 {
			return m.Clone(), nil
		}

		// Unknown id: keep the caller's identity, as imports do.
		_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO raw_materials (`+rawMaterialColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
			rec.ID.Value(), rec.Code, rec.Name, rec.Description, rec.Unit.String(),
			rec.StockQuantity, rec.UnitCost, rec.Active, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		)
		if err != nil {
			return nil, translate(err, "inserting raw material "+rec.Code)
		}
		if err := s.syncSequence(ctx, tx, "raw_materials"); err != nil {
			return nil, err
		}
		return m.Clone(), nil
	}

	var id int64
	err := tx.QueryRowContext(ctx, s.rebind(`INSERT INTO raw_materials
		(code, name, description, unit, stock_quantity, unit_cost, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
		rec.Code, rec.Name, rec.Description, rec.Unit.String(),
		rec.StockQuantity, rec.UnitCost, rec.Active, formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
	).Scan(&id)
	if err != nil {
		return nil, translate(err, "inserting raw material "+rec.Code)
	}
	ref, err := entities.NewMaterialRef(id)
	if err != nil {
		return nil, err
	}
	return m.WithID(ref), nil
}

func (r *RawMaterialRepository) FindByID(ctx context.Context, id entities.MaterialRef) (*entities.RawMaterial, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT `+rawMaterialColumns+` FROM raw_materials WHERE id = ?`), id.Value())
	m, err := scanRawMaterial(row)
	if err != nil {
		return nil, translate(err, fmt.Sprintf("raw material %d", id.Value()))
	}
	return m, nil
}

func (r *RawMaterialRepository) FindByCode(ctx context.Context, code string) (*entities.RawMaterial, error) {
	row := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT `+rawMaterialColumns+` FROM raw_materials WHERE code = ?`), code)
	m, err := scanRawMaterial(row)
	if err != nil {
		return nil, translate(err, "raw material code "+code)
	}
	return m, nil
}

func (r *RawMaterialRepository) FindAll(ctx context.Context) ([]*entities.RawMaterial, error) {
	return r.list(ctx, r.store.db, `SELECT `+rawMaterialColumns+` FROM raw_materials ORDER BY id`)
}

func (r *RawMaterialRepository) FindAllActive(ctx context.Context) ([]*entities.RawMaterial, error) {
	return r.list(ctx, r.store.db, `SELECT `+rawMaterialColumns+` FROM raw_materials WHERE active = ? ORDER BY id`, true)
}

func (r *RawMaterialRepository) FindByNameContaining(ctx context.Context, fragment string) ([]*entities.RawMaterial, error) {
	return r.list(ctx, r.store.db, `SELECT `+rawMaterialColumns+` FROM raw_materials
		WHERE LOWER(name) LIKE ? ORDER BY id`, likePattern(fragment))
}

func (r *RawMaterialRepository) Delete(ctx context.Context, id entities.MaterialRef) error {
	s := r.store
	return s.withinTx(ctx, nil, func(tx DBTX) error {
		var used bool
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT EXISTS (SELECT 1 FROM product_materials WHERE raw_material_id = ?)`), id.Value()).Scan(&used); err != nil {
			return fmt.Errorf("checking usage of raw material %d: %w", id.Value(), err)
		}
		if used {
			return fmt.Errorf("%w: raw material %d is part of a bill of materials", repositories.ErrInUse, id.Value())
		}

		res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM raw_materials WHERE id = ?`), id.Value())
		if err != nil {
			return translate(err, fmt.Sprintf("deleting raw material %d", id.Value()))
		}
		return requireAffected(res, fmt.Sprintf("raw material %d", id.Value()))
	})
}

func (r *RawMaterialRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT EXISTS (SELECT 1 FROM raw_materials WHERE code = ?)`), code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking raw material code %s: %w", code, err)
	}
	return exists, nil
}

func (r *RawMaterialRepository) list(ctx context.Context, q DBTX, query string, args ...any) ([]*entities.RawMaterial, error) {
	rows, err := q.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing raw materials: %w", err)
	}
	defer rows.Close()

	materials := make([]*entities.RawMaterial, 0)
	for rows.Next() {
		m, err := scanRawMaterial(rows)
		if err != nil {
			return nil, err
		}
		materials = append(materials, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating raw materials: %w", err)
	}
	return materials, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRawMaterial(row rowScanner) (*entities.RawMaterial, error) {
	var (
		id                   int64
		unit                 string
		stock, cost          decimal.Decimal
		createdAt, updatedAt string
		rec                  entities.RawMaterialRecord
	)
	if err := row.Scan(&id, &rec.Code, &rec.Name, &rec.Description, &unit, &stock, &cost, &rec.Active, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	var err error
	if rec.ID, err = entities.NewMaterialRef(id); err != nil {
		return nil, err
	}
	if rec.Unit, err = entities.ParseMeasurementUnit(unit); err != nil {
		return nil, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	rec.StockQuantity = stock
	rec.UnitCost = cost
	return entities.ReconstituteRawMaterial(rec)
}

func likePattern(fragment string) string {
	return "%" + strings.ToLower(fragment) + "%"
}
