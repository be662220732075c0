package entities

import (
	"fmt"
	"math"
	"sort"

	"github.com/shopspring/decimal"
)

// ProductionPlanItem is one product selected for production. Items are only
// created for positive quantities.
type ProductionPlanItem struct {
	ProductRef  ProductRef
	ProductName string
	ProductSKU  string
	Quantity    int64
	UnitPrice   decimal.Decimal
	TotalValue  decimal.Decimal
}

// NewProductionPlanItem creates a plan item for units of product, computing
// the line total as unit price times quantity
func NewProductionPlanItem(product *Product, quantity int64) (ProductionPlanItem, error) {
	if product == nil {
		return ProductionPlanItem{}, fmt.Errorf("%w: plan item needs a product", ErrInvalidInput)
	}
	if quantity <= 0 {
		return ProductionPlanItem{}, fmt.Errorf("%w: production quantity must be positive, got %d", ErrInvalidQuantity, quantity)
	}
	return ProductionPlanItem{
		ProductRef:  product.ID(),
		ProductName: product.Name(),
		ProductSKU:  product.SKU(),
		Quantity:    quantity,
		UnitPrice:   product.UnitPrice(),
		TotalValue:  product.UnitPrice().Mul(decimal.NewFromInt(quantity)),
	}, nil
}

// ProductionPlan is the immutable result of a planning run: the selected
// items in selection order, their summed value, and the stock left over for
// every material that took part in the run.
type ProductionPlan struct {
	items                []ProductionPlanItem
	totalProductionValue decimal.Decimal
	totalUnits           int64
	remainingStock       map[MaterialRef]decimal.Decimal
}

// NewProductionPlan builds a plan from items and the post-allocation stock.
// Both arguments are copied. It fails with ErrInvalidInput when the summed
// unit count does not fit in an int64.
func NewProductionPlan(items []ProductionPlanItem, remainingStock map[MaterialRef]decimal.Decimal) (*ProductionPlan, error) {
	plan := &ProductionPlan{
		items:                make([]ProductionPlanItem, len(items)),
		totalProductionValue: decimal.Zero,
		remainingStock:       make(map[MaterialRef]decimal.Decimal, len(remainingStock)),
	}
	copy(plan.items, items)
	for _, item := range items {
		total, ok := AddUnits(plan.totalUnits, item.Quantity)
		if !ok {
			return nil, fmt.Errorf("%w: total units overflow adding %d units of %s", ErrInvalidInput, item.Quantity, item.ProductSKU)
		}
		plan.totalUnits = total
		plan.totalProductionValue = plan.totalProductionValue.Add(item.TotalValue)
	}
	for ref, qty := range remainingStock {
		plan.remainingStock[ref] = qty
	}
	return plan, nil
}

// AddUnits returns a+b and false when the sum overflows an int64
func AddUnits(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// Items returns a copy of the selected items in selection order
func (p *ProductionPlan) Items() []ProductionPlanItem {
	out := make([]ProductionPlanItem, len(p.items))
	copy(out, p.items)
	return out
}

// TotalProductionValue returns the sum of all item totals
func (p *ProductionPlan) TotalProductionValue() decimal.Decimal {
	return p.totalProductionValue
}

// RemainingStock returns a copy of the post-allocation stock map
func (p *ProductionPlan) RemainingStock() map[MaterialRef]decimal.Decimal {
	out := make(map[MaterialRef]decimal.Decimal, len(p.remainingStock))
	for ref, qty := range p.remainingStock {
		out[ref] = qty
	}
	return out
}

// Remaining returns the leftover stock for one material and whether the
// material took part in the run
func (p *ProductionPlan) Remaining(ref MaterialRef) (decimal.Decimal, bool) {
	qty, ok := p.remainingStock[ref]
	return qty, ok
}

// MaterialRefs returns the materials in the remaining-stock map in ascending
// id order, for stable rendering
func (p *ProductionPlan) MaterialRefs() []MaterialRef {
	refs := make([]MaterialRef, 0, len(p.remainingStock))
	for ref := range p.remainingStock {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Value() < refs[j].Value() })
	return refs
}

// HasProduction reports whether at least one product was selected
func (p *ProductionPlan) HasProduction() bool { return len(p.items) > 0 }

// TotalUnits returns the number of product units across all items
func (p *ProductionPlan) TotalUnits() int64 { return p.totalUnits }
