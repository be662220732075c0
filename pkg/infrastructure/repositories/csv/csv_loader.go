package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/domain/repositories"
)

var (
	rawMaterialHeader = []string{"id", "code", "name", "description", "unit", "stock_quantity", "unit_cost", "active"}
	productHeader     = []string{"id", "sku", "name", "description", "unit_price", "stock_quantity", "active"}
	bomHeader         = []string{"product_id", "material_id", "quantity_per_unit"}
)

// Loader handles loading catalog data from CSV files
type Loader struct {
	now func() time.Time
}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{now: func() time.Time { return time.Now().UTC() }}
}

// BOMRow is one parsed line of bom.csv
type BOMRow struct {
	ProductRef      entities.ProductRef
	MaterialRef     entities.MaterialRef
	QuantityPerUnit decimal.Decimal
}

// LoadCatalog reads the three catalog files and attaches BOM rows to their
// products. bomFile may be empty when no product has a BOM yet.
func (l *Loader) LoadCatalog(materialsFile, productsFile, bomFile string) (*repositories.Dataset, error) {
	materials, err := l.LoadRawMaterials(materialsFile)
	if err != nil {
		return nil, err
	}
	products, err := l.LoadProducts(productsFile)
	if err != nil {
		return nil, err
	}
	var rows []BOMRow
	if bomFile != "" {
		if rows, err = l.LoadBOM(bomFile); err != nil {
			return nil, err
		}
	}
	if err := AttachBOM(products, rows); err != nil {
		return nil, err
	}
	return &repositories.Dataset{RawMaterials: materials, Products: products}, nil
}

// AttachBOM adds each row to the product it names. Rows for unknown
// products are rejected; unknown materials are left for the consistency check.
func AttachBOM(products []*entities.Product, rows []BOMRow) error {
	byRef := make(map[entities.ProductRef]*entities.Product, len(products))
	for _, p := range products {
		byRef[p.ID()] = p
	}
	for i, row := range rows {
		p, ok := byRef[row.ProductRef]
		if !ok {
			return fmt.Errorf("BOM CSV row %d: unknown product %d", i+2, row.ProductRef.Value())
		}
		if err := p.AddMaterial(row.MaterialRef, row.QuantityPerUnit); err != nil {
			return fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
	}
	return nil
}

// LoadRawMaterials loads raw materials from a CSV file
func (l *Loader) LoadRawMaterials(filename string) ([]*entities.RawMaterial, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open raw materials file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadRawMaterials(file)
}

// ReadRawMaterials parses raw materials CSV from r
func (l *Loader) ReadRawMaterials(r io.Reader) ([]*entities.RawMaterial, error) {
	records, err := readRecords(r, "raw materials", rawMaterialHeader)
	if err != nil {
		return nil, err
	}

	materials := make([]*entities.RawMaterial, 0, len(records))
	seen := make(map[entities.MaterialRef]bool, len(records))
	for i, record := range records {
		m, err := l.parseRawMaterial(record)
		if err != nil {
			return nil, fmt.Errorf("raw materials CSV row %d: %w", i+2, err)
		}
		if seen[m.ID()] {
			return nil, fmt.Errorf("raw materials CSV row %d: duplicate id %d", i+2, m.ID().Value())
		}
		seen[m.ID()] = true
		materials = append(materials, m)
	}
	return materials, nil
}

// LoadProducts loads products, without BOMs, from a CSV file
func (l *Loader) LoadProducts(filename string) ([]*entities.Product, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open products file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadProducts(file)
}

// ReadProducts parses products CSV from r
func (l *Loader) ReadProducts(r io.Reader) ([]*entities.Product, error) {
	records, err := readRecords(r, "products", productHeader)
	if err != nil {
		return nil, err
	}

	products := make([]*entities.Product, 0, len(records))
	seen := make(map[entities.ProductRef]bool, len(records))
	for i, record := range records {
		p, err := l.parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("products CSV row %d: %w", i+2, err)
		}
		if seen[p.ID()] {
			return nil, fmt.Errorf("products CSV row %d: duplicate id %d", i+2, p.ID().Value())
		}
		seen[p.ID()] = true
		products = append(products, p)
	}
	return products, nil
}

// LoadBOM loads BOM rows from a CSV file
func (l *Loader) LoadBOM(filename string) ([]BOMRow, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open BOM file %s: %w", filename, err)
	}
	defer file.Close()
	return l.ReadBOM(file)
}

// ReadBOM parses BOM CSV from r
func (l *Loader) ReadBOM(r io.Reader) ([]BOMRow, error) {
	records, err := readRecords(r, "BOM", bomHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]BOMRow, 0, len(records))
	for i, record := range records {
		row, err := parseBOMRow(record)
		if err != nil {
			return nil, fmt.Errorf("BOM CSV row %d: %w", i+2, err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// readRecords reads all rows, checks the header and column counts, and
// returns the data rows
func readRecords(r io.Reader, kind string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", kind, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", kind)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", kind, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", kind, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(header, expected []string) bool {
	if len(header) != len(expected) {
		return false
	}
	for i, h := range header {
		if strings.TrimSpace(strings.ToLower(h)) != expected[i] {
			return false
		}
	}
	return true
}

func (l *Loader) parseRawMaterial(record []string) (*entities.RawMaterial, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", record[0])
	}
	ref, err := entities.NewMaterialRef(id)
	if err != nil {
		return nil, err
	}
	unit, err := entities.ParseMeasurementUnit(record[4])
	if err != nil {
		return nil, err
	}
	stock, err := decimal.NewFromString(strings.TrimSpace(record[5]))
	if err != nil {
		return nil, fmt.Errorf("invalid stock_quantity: %s", record[5])
	}
	cost, err := parseOptionalDecimal(record[6])
	if err != nil {
		return nil, fmt.Errorf("invalid unit_cost: %s", record[6])
	}
	active, err := parseActive(record[7])
	if err != nil {
		return nil, err
	}

	now := l.now()
	return entities.ReconstituteRawMaterial(entities.RawMaterialRecord{
		ID:            ref,
		Code:          record[1],
		Name:          record[2],
		Description:   record[3],
		Unit:          unit,
		StockQuantity: stock,
		UnitCost:      cost,
		Active:        active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func (l *Loader) parseProduct(record []string) (*entities.Product, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid id: %s", record[0])
	}
	ref, err := entities.NewProductRef(id)
	if err != nil {
		return nil, err
	}
	price, err := decimal.NewFromString(strings.TrimSpace(record[4]))
	if err != nil {
		return nil, fmt.Errorf("invalid unit_price: %s", record[4])
	}
	var stock int64
	if s := strings.TrimSpace(record[5]); s != "" {
		if stock, err = strconv.ParseInt(s, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid stock_quantity: %s", record[5])
		}
	}
	active, err := parseActive(record[6])
	if err != nil {
		return nil, err
	}

	now := l.now()
	return entities.ReconstituteProduct(entities.ProductRecord{
		ID:            ref,
		SKU:           record[1],
		Name:          record[2],
		Description:   record[3],
		UnitPrice:     price,
		StockQuantity: stock,
		Active:        active,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

func parseBOMRow(record []string) (BOMRow, error) {
	productID, err := strconv.ParseInt(strings.TrimSpace(record[0]), 10, 64)
	if err != nil {
		return BOMRow{}, fmt.Errorf("invalid product_id: %s", record[0])
	}
	productRef, err := entities.NewProductRef(productID)
	if err != nil {
		return BOMRow{}, err
	}
	materialID, err := strconv.ParseInt(strings.TrimSpace(record[1]), 10, 64)
	if err != nil {
		return BOMRow{}, fmt.Errorf("invalid material_id: %s", record[1])
	}
	materialRef, err := entities.NewMaterialRef(materialID)
	if err != nil {
		return BOMRow{}, err
	}
	qty, err := decimal.NewFromString(strings.TrimSpace(record[2]))
	if err != nil {
		return BOMRow{}, fmt.Errorf("invalid quantity_per_unit: %s", record[2])
	}
	if !qty.IsPositive() {
		return BOMRow{}, fmt.Errorf("%w: quantity_per_unit must be positive, got %s", entities.ErrInvalidQuantity, qty)
	}
	return BOMRow{ProductRef: productRef, MaterialRef: materialRef, QuantityPerUnit: qty}, nil
}

func parseOptionalDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// parseActive treats a blank cell as active
func parseActive(s string) (bool, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return true, nil
	}
	active, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid active flag: %s (expected true or false)", s)
	}
	return active, nil
}
