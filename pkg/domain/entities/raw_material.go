package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// RawMaterial is a stocked input consumed by product bills of materials.
// State is unexported; every mutator validates before assigning so a failed
// call leaves the material unchanged.
type RawMaterial struct {
	id            MaterialRef
	name          string
	description   string
	code          string
	unit          MeasurementUnit
	stockQuantity decimal.Decimal
	unitCost      decimal.Decimal
	active        bool
	createdAt     time.Time
	updatedAt     time.Time
}

// RawMaterialRecord carries every field of a stored raw material. It is the
// input to ReconstituteRawMaterial.
type RawMaterialRecord struct {
	ID            MaterialRef
	Name          string
	Description   string
	Code          string
	Unit          MeasurementUnit
	StockQuantity decimal.Decimal
	UnitCost      decimal.Decimal
	Active        bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewRawMaterial creates an active raw material that has not been stored yet
func NewRawMaterial(name, description, code string, unit MeasurementUnit, stockQuantity, unitCost decimal.Decimal) (*RawMaterial, error) {
	m := &RawMaterial{active: true}
	if err := m.apply(name, description, code, unit, unitCost); err != nil {
		return nil, err
	}
	if err := requireNonNegative(ErrNegativeStock, "stock quantity", stockQuantity); err != nil {
		return nil, err
	}
	m.stockQuantity = stockQuantity
	m.createdAt = now()
	m.updatedAt = m.createdAt
	return m, nil
}

// ReconstituteRawMaterial rebuilds a raw material from storage. The identifier
// may be zero for records that were never persisted.
func ReconstituteRawMaterial(r RawMaterialRecord) (*RawMaterial, error) {
	m := &RawMaterial{
		id:        r.ID,
		active:    r.Active,
		createdAt: r.CreatedAt,
		updatedAt: r.UpdatedAt,
	}
	if err := m.apply(r.Name, r.Description, r.Code, r.Unit, r.UnitCost); err != nil {
		return nil, err
	}
	if err := requireNonNegative(ErrNegativeStock, "stock quantity", r.StockQuantity); err != nil {
		return nil, err
	}
	m.stockQuantity = r.StockQuantity
	return m, nil
}

// apply validates every editable field first and only then assigns them
func (m *RawMaterial) apply(name, description, code string, unit MeasurementUnit, unitCost decimal.Decimal) error {
	normalizedName, err := normalizeName("raw material", name)
	if err != nil {
		return err
	}
	normalizedCode, err := NormalizeCode(code)
	if err != nil {
		return err
	}
	if !unit.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidUnit, int(unit))
	}
	if err := requireNonNegative(ErrInvalidUnitCost, "unit cost", unitCost); err != nil {
		return err
	}

	m.name = normalizedName
	m.description = strings.TrimSpace(description)
	m.code = normalizedCode
	m.unit = unit
	m.unitCost = unitCost
	return nil
}

// Update replaces the descriptive fields of the material. Stock is changed
// only through AdjustStock.
func (m *RawMaterial) Update(name, description, code string, unit MeasurementUnit, unitCost decimal.Decimal) error {
	if err := m.apply(name, description, code, unit, unitCost); err != nil {
		return err
	}
	m.touch()
	return nil
}

// AdjustStock adds delta (which may be negative) to the stock level
func (m *RawMaterial) AdjustStock(delta decimal.Decimal) error {
	next := m.stockQuantity.Add(delta)
	if next.IsNegative() {
		return fmt.Errorf("%w: current %s %s, delta %s", ErrNegativeStock, m.stockQuantity, m.unit.Abbreviation(), delta)
	}
	m.stockQuantity = next
	m.touch()
	return nil
}

// HasSufficientStock reports whether at least required is on hand
func (m *RawMaterial) HasSufficientStock(required decimal.Decimal) bool {
	return m.stockQuantity.GreaterThanOrEqual(required)
}

// Deactivate hides the material from planning
func (m *RawMaterial) Deactivate() {
	m.active = false
	m.touch()
}

// Activate makes the material available to planning again
func (m *RawMaterial) Activate() {
	m.active = true
	m.touch()
}

// WithID returns a copy of the material carrying a storage-assigned identifier
func (m *RawMaterial) WithID(id MaterialRef) *RawMaterial {
	c := *m
	c.id = id
	return &c
}

// Clone returns an independent copy
func (m *RawMaterial) Clone() *RawMaterial {
	c := *m
	return &c
}

// Record exports the material's state for storage adapters
func (m *RawMaterial) Record() RawMaterialRecord {
	return RawMaterialRecord{
		ID:            m.id,
		Name:          m.name,
		Description:   m.description,
		Code:          m.code,
		Unit:          m.unit,
		StockQuantity: m.stockQuantity,
		UnitCost:      m.unitCost,
		Active:        m.active,
		CreatedAt:     m.createdAt,
		UpdatedAt:     m.updatedAt,
	}
}

func (m *RawMaterial) touch() { m.updatedAt = now() }

func (m *RawMaterial) ID() MaterialRef                { return m.id }
func (m *RawMaterial) Name() string                   { return m.name }
func (m *RawMaterial) Description() string            { return m.description }
func (m *RawMaterial) Code() string                   { return m.code }
func (m *RawMaterial) Unit() MeasurementUnit          { return m.unit }
func (m *RawMaterial) StockQuantity() decimal.Decimal { return m.stockQuantity }
func (m *RawMaterial) UnitCost() decimal.Decimal      { return m.unitCost }
func (m *RawMaterial) IsActive() bool                 { return m.active }
func (m *RawMaterial) CreatedAt() time.Time           { return m.createdAt }
func (m *RawMaterial) UpdatedAt() time.Time           { return m.updatedAt }

func (m *RawMaterial) String() string {
	return fmt.Sprintf("RawMaterial{id=%d, code=%s, stock=%s %s, active=%t}",
		m.id.Value(), m.code, m.stockQuantity, m.unit.Abbreviation(), m.active)
}
