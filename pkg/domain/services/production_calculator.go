package services

import (
	"fmt"
	"math"
	"slices"

	"github.com/shopspring/decimal"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// PlanCalculator turns a catalog snapshot into a production plan
type PlanCalculator interface {
	Calculate(products []*entities.Product, rawMaterials []*entities.RawMaterial) (*entities.ProductionPlan, error)
}

// ProductionCalculator allocates raw-material stock to products greedily by
// descending unit price. It holds no state; the zero value is ready to use and
// safe for concurrent calls on independent snapshots.
type ProductionCalculator struct{}

// NewProductionCalculator creates a new production calculator
func NewProductionCalculator() ProductionCalculator {
	return ProductionCalculator{}
}

var _ PlanCalculator = ProductionCalculator{}

var maxUnits = decimal.NewFromInt(math.MaxInt64)

// Calculate implements PlanCalculator. See Calculate.
func (ProductionCalculator) Calculate(products []*entities.Product, rawMaterials []*entities.RawMaterial) (*entities.ProductionPlan, error) {
	return Calculate(products, rawMaterials)
}

// Calculate computes which products to build and how many of each.
//
// Active products with a non-empty BOM are visited in descending unit price,
// ties keeping input order. Each takes as many whole units as its tightest
// material allows, and that material is deducted before the next product is
// considered. Decisions are never revisited, so the plan favours expensive
// products rather than maximising total value.
//
// A nil slice is rejected with ErrInvalidInput; an empty one yields an empty
// plan. Inputs are read but never modified.
func Calculate(products []*entities.Product, rawMaterials []*entities.RawMaterial) (*entities.ProductionPlan, error) {
	if products == nil {
		return nil, fmt.Errorf("%w: products list cannot be nil", entities.ErrInvalidInput)
	}
	if rawMaterials == nil {
		return nil, fmt.Errorf("%w: raw materials list cannot be nil", entities.ErrInvalidInput)
	}

	available, err := buildStockMap(rawMaterials)
	if err != nil {
		return nil, err
	}

	candidates, err := selectCandidates(products)
	if err != nil {
		return nil, err
	}

	items := make([]entities.ProductionPlanItem, 0, len(candidates))
	for _, product := range candidates {
		units, err := maxProducibleUnits(product, available)
		if err != nil {
			return nil, err
		}
		if units <= 0 {
			continue
		}

		allocateMaterials(product, units, available)

		item, err := entities.NewProductionPlanItem(product, units)
		if err != nil {
			return nil, fmt.Errorf("failed to build plan item for %s: %w", product.SKU(), err)
		}
		items = append(items, item)
	}

	return entities.NewProductionPlan(items, available)
}

// buildStockMap seeds the working stock from active, identified materials
func buildStockMap(rawMaterials []*entities.RawMaterial) (map[entities.MaterialRef]decimal.Decimal, error) {
	stock := make(map[entities.MaterialRef]decimal.Decimal, len(rawMaterials))
	for i, rm := range rawMaterials {
		if rm == nil {
			return nil, fmt.Errorf("%w: raw material at index %d is nil", entities.ErrInvalidInput, i)
		}
		if rm.IsActive() && !rm.ID().IsZero() {
			stock[rm.ID()] = rm.StockQuantity()
		}
	}
	return stock, nil
}

// selectCandidates filters to active products with a BOM and stable-sorts them
// by unit price, highest first
func selectCandidates(products []*entities.Product) ([]*entities.Product, error) {
	candidates := make([]*entities.Product, 0, len(products))
	for i, p := range products {
		if p == nil {
			return nil, fmt.Errorf("%w: product at index %d is nil", entities.ErrInvalidInput, i)
		}
		if p.IsActive() && p.HasMaterials() {
			candidates = append(candidates, p)
		}
	}
	slices.SortStableFunc(candidates, func(a, b *entities.Product) int {
		return b.UnitPrice().Cmp(a.UnitPrice())
	})
	return candidates, nil
}

// maxProducibleUnits returns the whole number of units the tightest BOM line
// permits. Materials missing from available count as zero stock. A limit that
// does not fit in an int64 is an ErrInvalidInput.
func maxProducibleUnits(product *entities.Product, available map[entities.MaterialRef]decimal.Decimal) (int64, error) {
	var limit decimal.Decimal
	found := false

	for _, line := range product.Materials() {
		stock, ok := available[line.MaterialRef()]
		if !ok || !stock.IsPositive() {
			return 0, nil
		}

		// QuoRem at precision 0 truncates toward zero, which is floor for
		// non-negative operands.
		units, _ := stock.QuoRem(line.QuantityPerUnit(), 0)
		if !units.IsPositive() {
			return 0, nil
		}

		if !found || units.LessThan(limit) {
			limit = units
			found = true
		}
	}

	if !found {
		return 0, nil
	}
	if limit.GreaterThan(maxUnits) {
		return 0, fmt.Errorf("%w: %s units producible for %s exceed %d", entities.ErrInvalidInput, limit, product.SKU(), int64(math.MaxInt64))
	}
	return limit.IntPart(), nil
}

// allocateMaterials deducts the stock consumed by units of product. Every line
// passed the availability check, so each material is already in the map.
func allocateMaterials(product *entities.Product, units int64, available map[entities.MaterialRef]decimal.Decimal) {
	for _, line := range product.Materials() {
		ref := line.MaterialRef()
		available[ref] = available[ref].Sub(line.RequiredFor(units))
	}
}
