package events

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RawMaterialCreatedEvent       = "raw_material.created"
	RawMaterialUpdatedEvent       = "raw_material.updated"
	RawMaterialStockAdjustedEvent = "raw_material.stock_adjusted"
	RawMaterialDeactivatedEvent   = "raw_material.deactivated"
	RawMaterialDeletedEvent       = "raw_material.deleted"

	ProductCreatedEvent       = "product.created"
	ProductUpdatedEvent       = "product.updated"
	ProductStockAdjustedEvent = "product.stock_adjusted"
	ProductDeactivatedEvent   = "product.deactivated"
	ProductDeletedEvent       = "product.deleted"
	ProductBOMChangedEvent    = "product.bom_changed"

	PlanCalculatedEvent = "production.plan_calculated"
)

// RawMaterialStream names the stream holding a raw material's history
func RawMaterialStream(id int64) string { return fmt.Sprintf("raw_material-%d", id) }

// ProductStream names the stream holding a product's history
func ProductStream(id int64) string { return fmt.Sprintf("product-%d", id) }

// PlanStream names the stream of a single planning run
func PlanStream(runID uuid.UUID) string { return "plan-" + runID.String() }

type RawMaterialChanged struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	StockQuantity decimal.Decimal `json:"stock_quantity"`
	Active        bool            `json:"active"`
}

type RawMaterialStockAdjusted struct {
	ID       int64           `json:"id"`
	Delta    decimal.Decimal `json:"delta"`
	NewStock decimal.Decimal `json:"new_stock"`
}

type ProductChanged struct {
	ID        int64           `json:"id"`
	SKU       string          `json:"sku"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Active    bool            `json:"active"`
}

type ProductStockAdjusted struct {
	ID       int64 `json:"id"`
	Delta    int64 `json:"delta"`
	NewStock int64 `json:"new_stock"`
}

type ProductBOMChanged struct {
	ProductID  int64  `json:"product_id"`
	MaterialID int64  `json:"material_id"`
	Change     string `json:"change"` // added, updated or removed
	// zero when the line was removed
	QuantityPerUnit decimal.Decimal `json:"quantity_per_unit"`
}

type PlanCalculated struct {
	RunID         uuid.UUID       `json:"run_id"`
	Candidates    int             `json:"candidates"`
	Items         int             `json:"items"`
	TotalUnits    int64           `json:"total_units"`
	TotalValue    decimal.Decimal `json:"total_value"`
	Duration      time.Duration   `json:"duration"`
	SnapshotTaken time.Time       `json:"snapshot_taken"`
}
