// Package dto holds the JSON shapes exchanged with API and CLI clients.
// Decimals are encoded as strings so no precision is lost in transit.
package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// ProductionPlanItem is one product selected for manufacture
type ProductionPlanItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku"`
	Quantity    int64           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalValue  decimal.Decimal `json:"totalValue"`
}

// ProductionPlan is the result of a planning run
type ProductionPlan struct {
	RunID                string                    `json:"runId,omitempty"`
	CalculatedAt         time.Time                 `json:"calculatedAt"`
	Items                []ProductionPlanItem      `json:"items"`
	TotalProductionValue decimal.Decimal           `json:"totalProductionValue"`
	TotalUnits           int64                     `json:"totalUnits"`
	RemainingStock       map[int64]decimal.Decimal `json:"remainingStock"`
	Warnings             []string                  `json:"warnings,omitempty"`
}

// FromPlan converts a domain plan
func FromPlan(plan *entities.ProductionPlan, runID string, calculatedAt time.Time, warnings []string) ProductionPlan {
	out := ProductionPlan{
		RunID:                runID,
		CalculatedAt:         calculatedAt,
		Items:                make([]ProductionPlanItem, 0, len(plan.Items())),
		TotalProductionValue: plan.TotalProductionValue(),
		TotalUnits:           plan.TotalUnits(),
		RemainingStock:       make(map[int64]decimal.Decimal, len(plan.RemainingStock())),
		Warnings:             warnings,
	}
	for _, item := range plan.Items() {
		out.Items = append(out.Items, ProductionPlanItem{
			ProductID:   item.ProductRef.Value(),
			ProductName: item.ProductName,
			ProductSKU:  item.ProductSKU,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			TotalValue:  item.TotalValue,
		})
	}
	for ref, qty := range plan.RemainingStock() {
		out.RemainingStock[ref.Value()] = qty
	}
	return out
}
