package dto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func TestFromPlan_JSONKeepsDecimalsExact(t *testing.T) {
	product, err := entities.NewProduct("Widget", "", "WID-1", decimal.RequireFromString("19.99"), 0)
	require.NoError(t, err)
	product = product.WithID(entities.MustProductRef(4))

	item, err := entities.NewProductionPlanItem(product, 3)
	require.NoError(t, err)
	plan, err := entities.NewProductionPlan(
		[]entities.ProductionPlanItem{item},
		map[entities.MaterialRef]decimal.Decimal{
			entities.MustMaterialRef(2): decimal.RequireFromString("0.1"),
			entities.MustMaterialRef(1): decimal.Zero,
		},
	)
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	out := FromPlan(plan, "run-1", at, []string{"product X has no bill of materials"})
	assert.Equal(t, int64(3), out.TotalUnits)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "WID-1", out.Items[0].ProductSKU)

	raw, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"runId": "run-1",
		"calculatedAt": "2026-03-01T12:00:00Z",
		"items": [{
			"productId": 4,
			"productName": "Widget",
			"productSku": "WID-1",
			"quantity": 3,
			"unitPrice": "19.99",
			"totalValue": "59.97"
		}],
		"totalProductionValue": "59.97",
		"totalUnits": 3,
		"remainingStock": {"1": "0", "2": "0.1"},
		"warnings": ["product X has no bill of materials"]
	}`, string(raw))
}

func TestFromPlan_EmptyPlanEncodesEmptyCollections(t *testing.T) {
	plan, err := entities.NewProductionPlan(nil, nil)
	require.NoError(t, err)
	out := FromPlan(plan, "", time.Time{}, nil)
	raw, err := json.Marshal(out)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, []any{}, decoded["items"])
	assert.Equal(t, map[string]any{}, decoded["remainingStock"])
	assert.Equal(t, "0", decoded["totalProductionValue"])
	assert.NotContains(t, decoded, "runId")
	assert.NotContains(t, decoded, "warnings")
}

func TestFromProduct_EnrichesKnownMaterials(t *testing.T) {
	steel, err := entities.NewRawMaterial("Steel", "", "STL-1", entities.Kilogram, decimal.NewFromInt(10), decimal.Zero)
	require.NoError(t, err)
	steel = steel.WithID(entities.MustMaterialRef(1))

	p, err := entities.NewProduct("Bracket", "", "BRK-1", decimal.NewFromInt(5), 0)
	require.NoError(t, err)
	require.NoError(t, p.AddMaterial(steel.ID(), decimal.RequireFromString("0.25")))
	require.NoError(t, p.AddMaterial(entities.MustMaterialRef(9), decimal.NewFromInt(1)))

	resp := FromProduct(p, map[entities.MaterialRef]*entities.RawMaterial{steel.ID(): steel})
	require.Len(t, resp.Materials, 2)
	assert.Equal(t, "STL-1", resp.Materials[0].MaterialCode)
	assert.Equal(t, "kg", resp.Materials[0].Unit)
	assert.Empty(t, resp.Materials[1].MaterialCode, "unknown materials are left bare")

	assert.Empty(t, FromProduct(p, nil).Materials[0].MaterialName)
}
