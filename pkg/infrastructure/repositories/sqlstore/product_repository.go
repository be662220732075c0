package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

// ProductRepository implements repositories.ProductRepository on SQL. A
// product row and its product_materials rows are always written together.
type ProductRepository struct {
	store *Store
}

var _ repositories.ProductRepository = (*ProductRepository)(nil)

const productColumns = `id, sku, name, description, unit_price, stock_quantity, active, created_at, updated_at`

func (r *ProductRepository) Save(ctx context.Context, p *entities.Product) (*entities.Product, error) {
	var saved *entities.Product
	err := r.store.withinTx(ctx, nil, func(tx DBTX) error {
		var err error
		saved, err = r.save(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func (r *ProductRepository) save(ctx context.Context, tx DBTX, p *entities.Product) (*entities.Product, error) {
	s := r.store
	rec := p.Record()
	saved := p.Clone()

	inserted := false
	if !rec.ID.IsZero() {
		res, err := tx.ExecContext(ctx, s.rebind(`UPDATE products
			SET sku = ?, name = ?, description = ?, unit_price = ?, stock_quantity = ?, active = ?, updated_at = ?
			WHERE id = ?`),
			rec.SKU, rec.Name, rec.Description, rec.UnitPrice, rec.StockQuantity, rec.Active,
			formatTime(rec.UpdatedAt), rec.ID.Value(),
		)
		if err != nil {
			return nil, translate(err, "updating product "+rec.SKU)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("updating product %s: %w", rec.SKU, err)
		}
		if n == 0 {
			_, err = tx.ExecContext(ctx, s.rebind(`INSERT INTO products (`+productColumns+`)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`),
				rec.ID.Value(), rec.SKU, rec.Name, rec.Description, rec.UnitPrice, rec.StockQuantity, rec.Active,
				formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
			)
			if err != nil {
				return nil, translate(err, "inserting product "+rec.SKU)
			}
			if err := s.syncSequence(ctx, tx, "products"); err != nil {
				return nil, err
			}
			inserted = true
		}
	} else {
		var id int64
		err := tx.QueryRowContext(ctx, s.rebind(`INSERT INTO products
			(sku, name, description, unit_price, stock_quantity, active, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id`),
			rec.SKU, rec.Name, rec.Description, rec.UnitPrice, rec.StockQuantity, rec.Active,
			formatTime(rec.CreatedAt), formatTime(rec.UpdatedAt),
		).Scan(&id)
		if err != nil {
			return nil, translate(err, "inserting product "+rec.SKU)
		}
		ref, err := entities.NewProductRef(id)
		if err != nil {
			return nil, err
		}
		saved = p.WithID(ref)
		inserted = true
	}

	if !inserted {
		if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM product_materials WHERE product_id = ?`), saved.ID().Value()); err != nil {
			return nil, fmt.Errorf("clearing bill of materials for %s: %w", rec.SKU, err)
		}
	}

	for i, line := range rec.Materials {
		var exists bool
		if err := tx.QueryRowContext(ctx, s.rebind(`SELECT EXISTS (SELECT 1 FROM raw_materials WHERE id = ?)`), line.MaterialRef().Value()).Scan(&exists); err != nil {
			return nil, fmt.Errorf("checking raw material %d: %w", line.MaterialRef().Value(), err)
		}
		if !exists {
			return nil, fmt.Errorf("%w: raw material %d referenced by %s", repositories.ErrNotFound, line.MaterialRef().Value(), rec.SKU)
		}

		_, err := tx.ExecContext(ctx, s.rebind(`INSERT INTO product_materials (product_id, raw_material_id, quantity_required, line_no)
			VALUES (?, ?, ?, ?)`),
			saved.ID().Value(), line.MaterialRef().Value(), line.QuantityPerUnit(), i,
		)
		if err != nil {
			return nil, translate(err, fmt.Sprintf("writing bill of materials line %d for %s", i, rec.SKU))
		}
	}

	return saved, nil
}

func (r *ProductRepository) FindByID(ctx context.Context, id entities.ProductRef) (*entities.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE id = ?`, fmt.Sprintf("product %d", id.Value()), id.Value())
}

func (r *ProductRepository) FindBySKU(ctx context.Context, sku string) (*entities.Product, error) {
	return r.findOne(ctx, `SELECT `+productColumns+` FROM products WHERE sku = ?`, "product sku "+sku, sku)
}

func (r *ProductRepository) FindAll(ctx context.Context) ([]*entities.Product, error) {
	return r.list(ctx, r.store.db, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (r *ProductRepository) FindAllActive(ctx context.Context) ([]*entities.Product, error) {
	return r.list(ctx, r.store.db, `SELECT `+productColumns+` FROM products WHERE active = ? ORDER BY id`, true)
}

func (r *ProductRepository) FindByNameContaining(ctx context.Context, fragment string) ([]*entities.Product, error) {
	return r.list(ctx, r.store.db, `SELECT `+productColumns+` FROM products WHERE LOWER(name) LIKE ? ORDER BY id`, likePattern(fragment))
}

func (r *ProductRepository) Delete(ctx context.Context, id entities.ProductRef) error {
	res, err := r.store.db.ExecContext(ctx, r.store.rebind(`DELETE FROM products WHERE id = ?`), id.Value())
	if err != nil {
		return translate(err, fmt.Sprintf("deleting product %d", id.Value()))
	}
	return requireAffected(res, fmt.Sprintf("product %d", id.Value()))
}

func (r *ProductRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT EXISTS (SELECT 1 FROM products WHERE sku = ?)`), sku).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking product sku %s: %w", sku, err)
	}
	return exists, nil
}

func (r *ProductRepository) ExistsWithMaterial(ctx context.Context, material entities.MaterialRef) (bool, error) {
	var exists bool
	err := r.store.db.QueryRowContext(ctx, r.store.rebind(`SELECT EXISTS (SELECT 1 FROM product_materials WHERE raw_material_id = ?)`), material.Value()).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking usage of raw material %d: %w", material.Value(), err)
	}
	return exists, nil
}

func (r *ProductRepository) findOne(ctx context.Context, query, what string, args ...any) (*entities.Product, error) {
	products, err := r.list(ctx, r.store.db, query, args...)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, fmt.Errorf("%w: %s", repositories.ErrNotFound, what)
	}
	return products[0], nil
}

// list loads product rows, then their BOM lines in a second query
func (r *ProductRepository) list(ctx context.Context, q DBTX, query string, args ...any) ([]*entities.Product, error) {
	rows, err := q.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	var records []entities.ProductRecord
	for rows.Next() {
		rec, err := scanProductRecord(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	// Close before the next query: SQLite runs on a single connection.
	rows.Close()

	lines, err := r.loadLines(ctx, q, records)
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(records))
	for _, rec := range records {
		rec.Materials = lines[rec.ID.Value()]
		p, err := entities.ReconstituteProduct(rec)
		if err != nil {
			return nil, fmt.Errorf("loading product %s: %w", rec.SKU, err)
		}
		products = append(products, p)
	}
	return products, nil
}

func (r *ProductRepository) loadLines(ctx context.Context, q DBTX, records []entities.ProductRecord) (map[int64][]entities.BillOfMaterialLine, error) {
	lines := make(map[int64][]entities.BillOfMaterialLine, len(records))
	if len(records) == 0 {
		return lines, nil
	}

	wanted := make(map[int64]bool, len(records))
	for _, rec := range records {
		wanted[rec.ID.Value()] = true
	}

	query := `SELECT product_id, raw_material_id, quantity_required FROM product_materials ORDER BY product_id, line_no`
	var args []any
	if len(records) == 1 {
		query = `SELECT product_id, raw_material_id, quantity_required FROM product_materials WHERE product_id = ? ORDER BY line_no`
		args = append(args, records[0].ID.Value())
	}

	rows, err := q.QueryContext(ctx, r.store.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("loading bills of materials: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			productID, materialID int64
			qty                   decimal.Decimal
		)
		if err := rows.Scan(&productID, &materialID, &qty); err != nil {
			return nil, fmt.Errorf("scanning bill of materials line: %w", err)
		}
		if !wanted[productID] {
			continue
		}
		ref, err := entities.NewMaterialRef(materialID)
		if err != nil {
			return nil, err
		}
		line, err := entities.NewBillOfMaterialLine(ref, qty)
		if err != nil {
			return nil, fmt.Errorf("product %d: %w", productID, err)
		}
		lines[productID] = append(lines[productID], line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating bills of materials: %w", err)
	}
	return lines, nil
}

func scanProductRecord(row rowScanner) (entities.ProductRecord, error) {
	var (
		rec                  entities.ProductRecord
		id                   int64
		price                decimal.Decimal
		createdAt, updatedAt string
	)
	if err := row.Scan(&id, &rec.SKU, &rec.Name, &rec.Description, &price, &rec.StockQuantity, &rec.Active, &createdAt, &updatedAt); err != nil {
		return rec, fmt.Errorf("scanning product: %w", err)
	}

	var err error
	if rec.ID, err = entities.NewProductRef(id); err != nil {
		return rec, err
	}
	if rec.CreatedAt, err = parseTime(createdAt); err != nil {
		return rec, err
	}
	if rec.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return rec, err
	}
	rec.UnitPrice = price
	return rec, nil
}

// syncSequence moves a PostgreSQL identity past ids inserted explicitly.
// SQLite AUTOINCREMENT already tracks the maximum.
func (s *Store) syncSequence(ctx context.Context, tx DBTX, table string) error {
	if s.dialect != Postgres {
		return nil
	}
	_, err := tx.ExecContext(ctx, `SELECT setval(pg_get_serial_sequence('`+table+`', 'id'), (SELECT MAX(id) FROM `+table+`))`)
	if err != nil {
		return fmt.Errorf("syncing %s id sequence: %w", table, err)
	}
	return nil
}

func requireAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", what, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", repositories.ErrNotFound, what)
	}
	return nil
}
