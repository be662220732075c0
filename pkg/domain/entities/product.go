package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a sellable item and the aggregate root of its bill of materials.
// The BOM slice is owned exclusively by the product: readers get copies and
// all changes go through AddMaterial, RemoveMaterial and UpdateMaterialQuantity.
type Product struct {
	id            ProductRef
	name          string
	description   string
	sku           string
	unitPrice     decimal.Decimal
	stockQuantity int64
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
	materials     []BillOfMaterialLine
}

// ProductRecord carries every field of a stored product, including its BOM.
// It is the input to ReconstituteProduct.
type ProductRecord struct {
	ID            ProductRef
	Name          string
	Description   string
	SKU           string
	UnitPrice     decimal.Decimal
	StockQuantity int64
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Materials     []BillOfMaterialLine
}

// NewProduct creates an active product with an empty bill of materials
func NewProduct(name, description, sku string, unitPrice decimal.Decimal, stockQuantity int64) (*Product, error) {
	p := &Product{active: true}
	if err := p.apply(name, description, sku, unitPrice); err != nil {
		return nil, err
	}
	if stockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative, got %d", ErrNegativeStock, stockQuantity)
	}
	p.stockQuantity = stockQuantity
	p.createdAt = now()
	p.updatedAt = p.createdAt
	return p, nil
}

// ReconstituteProduct rebuilds a product and its BOM from storage. BOM lines
// must reference distinct materials.
func ReconstituteProduct(r ProductRecord) (*Product, error) {
	p := &Product{
		id:        r.ID,
		active:    r.Active,
		createdAt: r.CreatedAt,
		updatedAt: r.UpdatedAt,
	}
	if err := p.apply(r.Name, r.Description, r.SKU, r.UnitPrice); err != nil {
		return nil, err
	}
	if r.StockQuantity < 0 {
		return nil, fmt.Errorf("%w: stock quantity cannot be negative, got %d", ErrNegativeStock, r.StockQuantity)
	}
	p.stockQuantity = r.StockQuantity

	p.materials = make([]BillOfMaterialLine, 0, len(r.Materials))
	for _, line := range r.Materials {
		if line.materialRef.IsZero() {
			return nil, fmt.Errorf("%w: bill of materials line has no material", ErrInvalidIdentifier)
		}
		if !line.quantityPerUnit.IsPositive() {
			return nil, fmt.Errorf("%w: quantity per unit for %s must be positive, got %s", ErrInvalidQuantity, line.materialRef, line.quantityPerUnit)
		}
		if p.indexOf(line.materialRef) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateMaterial, line.materialRef)
		}
		p.materials = append(p.materials, line)
	}
	return p, nil
}

func (p *Product) apply(name, description, sku string, unitPrice decimal.Decimal) error {
	normalizedName, err := normalizeName("product", name)
	if err != nil {
		return err
	}
	normalizedSKU, err := NormalizeSKU(sku)
	if err != nil {
		return err
	}
	if err := requireNonNegative(ErrInvalidPrice, "unit price", unitPrice); err != nil {
		return err
	}

	p.name = normalizedName
	p.description = strings.TrimSpace(description)
	p.sku = normalizedSKU
	p.unitPrice = unitPrice
	return nil
}

// Update replaces the descriptive and pricing fields of the product
func (p *Product) Update(name, description, sku string, unitPrice decimal.Decimal) error {
	if err := p.apply(name, description, sku, unitPrice); err != nil {
		return err
	}
	p.touch()
	return nil
}

// AdjustStock adds delta (which may be negative) to finished-goods stock
func (p *Product) AdjustStock(delta int64) error {
	next, ok := AddUnits(p.stockQuantity, delta)
	if !ok {
		return fmt.Errorf("%w: stock %d plus delta %d overflows", ErrInvalidQuantity, p.stockQuantity, delta)
	}
	if next < 0 {
		return fmt.Errorf("%w: current %d, delta %d", ErrNegativeStock, p.stockQuantity, delta)
	}
	p.stockQuantity = next
	p.touch()
	return nil
}

// HasSufficientStock reports whether at least required units are on hand
func (p *Product) HasSufficientStock(required int64) bool {
	return p.stockQuantity >= required
}

// Deactivate removes the product from planning
func (p *Product) Deactivate() {
	p.active = false
	p.touch()
}

// Activate makes the product a planning candidate again
func (p *Product) Activate() {
	p.active = true
	p.touch()
}

// AddMaterial appends a BOM line for a material not yet in the BOM
func (p *Product) AddMaterial(materialRef MaterialRef, quantityPerUnit decimal.Decimal) error {
	line, err := NewBillOfMaterialLine(materialRef, quantityPerUnit)
	if err != nil {
		return err
	}
	if p.indexOf(materialRef) >= 0 {
		return fmt.Errorf("%w: %s on product %s", ErrDuplicateMaterial, materialRef, p.sku)
	}
	p.materials = append(p.materials, line)
	p.touch()
	return nil
}

// RemoveMaterial drops the BOM line for materialRef
func (p *Product) RemoveMaterial(materialRef MaterialRef) error {
	i := p.indexOf(materialRef)
	if i < 0 {
		return fmt.Errorf("%w: %s on product %s", ErrMaterialNotInBom, materialRef, p.sku)
	}
	// Rebuild rather than reslice so earlier copies never observe the shift.
	next := make([]BillOfMaterialLine, 0, len(p.materials)-1)
	next = append(next, p.materials[:i]...)
	next = append(next, p.materials[i+1:]...)
	p.materials = next
	p.touch()
	return nil
}

// UpdateMaterialQuantity replaces the BOM line for materialRef with one
// carrying the new per-unit quantity
func (p *Product) UpdateMaterialQuantity(materialRef MaterialRef, quantityPerUnit decimal.Decimal) error {
	if !quantityPerUnit.IsPositive() {
		return fmt.Errorf("%w: quantity per unit must be positive, got %s", ErrInvalidQuantity, quantityPerUnit)
	}
	i := p.indexOf(materialRef)
	if i < 0 {
		return fmt.Errorf("%w: %s on product %s", ErrMaterialNotInBom, materialRef, p.sku)
	}
	line, err := p.materials[i].WithQuantity(quantityPerUnit)
	if err != nil {
		return err
	}
	p.materials[i] = line
	p.touch()
	return nil
}

// Materials returns a copy of the bill of materials in insertion order
func (p *Product) Materials() []BillOfMaterialLine {
	out := make([]BillOfMaterialLine, len(p.materials))
	copy(out, p.materials)
	return out
}

// Material returns the BOM line for materialRef, if present
func (p *Product) Material(materialRef MaterialRef) (BillOfMaterialLine, bool) {
	i := p.indexOf(materialRef)
	if i < 0 {
		return BillOfMaterialLine{}, false
	}
	return p.materials[i], true
}

// HasMaterials reports whether the BOM has at least one line
func (p *Product) HasMaterials() bool { return len(p.materials) > 0 }

// MaterialCount returns the number of BOM lines
func (p *Product) MaterialCount() int { return len(p.materials) }

// WithID returns a copy of the product carrying a storage-assigned identifier
func (p *Product) WithID(id ProductRef) *Product {
	c := p.Clone()
	c.id = id
	return c
}

// Clone returns an independent deep copy, BOM included
func (p *Product) Clone() *Product {
	c := *p
	c.materials = p.Materials()
	return &c
}

// Record exports the product's state for storage adapters
func (p *Product) Record() ProductRecord {
	return ProductRecord{
		ID:            p.id,
		Name:          p.name,
		Description:   p.description,
		SKU:           p.sku,
		UnitPrice:     p.unitPrice,
		StockQuantity: p.stockQuantity,
		Active:        p.active,
		CreatedAt:     p.createdAt,
		UpdatedAt:     p.updatedAt,
		Materials:     p.Materials(),
	}
}

func (p *Product) indexOf(materialRef MaterialRef) int {
	for i, line := range p.materials {
		if line.materialRef == materialRef {
			return i
		}
	}
	return -1
}

func (p *Product) touch() { p.updatedAt = now() }

func (p *Product) ID() ProductRef             { return p.id }
func (p *Product) Name() string               { return p.name }
func (p *Product) Description() string        { return p.description }
func (p *Product) SKU() string                { return p.sku }
func (p *Product) UnitPrice() decimal.Decimal { return p.unitPrice }
func (p *Product) StockQuantity() int64       { return p.stockQuantity }
func (p *Product) IsActive() bool             { return p.active }
func (p *Product) CreatedAt() time.Time       { return p.createdAt }
func (p *Product) UpdatedAt() time.Time       { return p.updatedAt }

func (p *Product) String() string {
	return fmt.Sprintf("Product{id=%d, sku=%s, price=%s, bom=%d lines, active=%t}",
		p.id.Value(), p.sku, p.unitPrice, len(p.materials), p.active)
}
