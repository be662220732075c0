package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// BillOfMaterialLine is the quantity of one raw material consumed to produce
// a single unit of the owning product. Lines are values: changing the quantity
// produces a replacement line.
type BillOfMaterialLine struct {
	materialRef     MaterialRef
	quantityPerUnit decimal.Decimal
}

// NewBillOfMaterialLine creates a validated BillOfMaterialLine
func NewBillOfMaterialLine(materialRef MaterialRef, quantityPerUnit decimal.Decimal) (BillOfMaterialLine, error) {
	if materialRef.IsZero() {
		return BillOfMaterialLine{}, fmt.Errorf("%w: bill of materials line needs a raw material id", ErrInvalidIdentifier)
	}
	if !quantityPerUnit.IsPositive() {
		return BillOfMaterialLine{}, fmt.Errorf("%w: quantity per unit must be positive, got %s", ErrInvalidQuantity, quantityPerUnit)
	}
	return BillOfMaterialLine{
		materialRef:     materialRef,
		quantityPerUnit: quantityPerUnit,
	}, nil
}

// MaterialRef returns the raw material consumed by this line
func (l BillOfMaterialLine) MaterialRef() MaterialRef { return l.materialRef }

// QuantityPerUnit returns the amount consumed per unit produced
func (l BillOfMaterialLine) QuantityPerUnit() decimal.Decimal { return l.quantityPerUnit }

// WithQuantity returns a copy of the line with a new per-unit quantity
func (l BillOfMaterialLine) WithQuantity(quantityPerUnit decimal.Decimal) (BillOfMaterialLine, error) {
	return NewBillOfMaterialLine(l.materialRef, quantityPerUnit)
}

// RequiredFor returns the material needed to produce units of the product
func (l BillOfMaterialLine) RequiredFor(units int64) decimal.Decimal {
	return l.quantityPerUnit.Mul(decimal.NewFromInt(units))
}
