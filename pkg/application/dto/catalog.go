package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

// RawMaterialRequest creates or updates a raw material. StockQuantity is
// ignored on update; stock only changes through adjustments. UnitCost is
// required.
type RawMaterialRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Code          string              `json:"code"`
	Unit          string              `json:"unit"`
	StockQuantity decimal.Decimal     `json:"stockQuantity"`
	UnitCost      decimal.NullDecimal `json:"unitCost"`
}

// StockAdjustmentRequest carries a signed raw material stock delta
type StockAdjustmentRequest struct {
	Quantity decimal.NullDecimal `json:"quantity"`
}

type RawMaterialResponse struct {
	ID            int64           `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Description   string          `json:"description,omitempty"`
	Unit          string          `json:"unit"`
	UnitName      string          `json:"unitName"`
	StockQuantity decimal.Decimal `json:"stockQuantity"`
	UnitCost      decimal.Decimal `json:"unitCost"`
	Active        bool            `json:"active"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

func FromRawMaterial(m *entities.RawMaterial) RawMaterialResponse {
	return RawMaterialResponse{
		ID:            m.ID().Value(),
		Code:          m.Code(),
		Name:          m.Name(),
		Description:   m.Description(),
		Unit:          m.Unit().Abbreviation(),
		UnitName:      m.Unit().DisplayName(),
		StockQuantity: m.StockQuantity(),
		UnitCost:      m.UnitCost(),
		Active:        m.IsActive(),
		CreatedAt:     m.CreatedAt(),
		UpdatedAt:     m.UpdatedAt(),
	}
}

func FromRawMaterials(materials []*entities.RawMaterial) []RawMaterialResponse {
	out := make([]RawMaterialResponse, 0, len(materials))
	for _, m := range materials {
		out = append(out, FromRawMaterial(m))
	}
	return out
}

// ProductRequest creates or updates a product. Materials, when present on
// create, become the initial bill of materials. UnitPrice is required.
type ProductRequest struct {
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	SKU           string              `json:"sku"`
	UnitPrice     decimal.NullDecimal `json:"unitPrice"`
	StockQuantity int64               `json:"stockQuantity"`
	Materials     []BOMLineRequest    `json:"materials,omitempty"`
}

type BOMLineRequest struct {
	MaterialID      int64               `json:"materialId"`
	QuantityPerUnit decimal.NullDecimal `json:"quantityPerUnit"`
}

type BOMLineResponse struct {
	MaterialID      int64           `json:"materialId"`
	MaterialCode    string          `json:"materialCode,omitempty"`
	MaterialName    string          `json:"materialName,omitempty"`
	Unit            string          `json:"unit,omitempty"`
	QuantityPerUnit decimal.Decimal `json:"quantityPerUnit"`
}

type ProductResponse struct {
	ID            int64             `json:"id"`
	SKU           string            `json:"sku"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	UnitPrice     decimal.Decimal   `json:"unitPrice"`
	StockQuantity int64             `json:"stockQuantity"`
	Active        bool              `json:"active"`
	Materials     []BOMLineResponse `json:"materials"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`
}

// FromProduct converts p. Lines whose material is in materials are enriched
// with its code, name and unit; materials may be nil.
func FromProduct(p *entities.Product, materials map[entities.MaterialRef]*entities.RawMaterial) ProductResponse {
	return ProductResponse{
		ID:            p.ID().Value(),
		SKU:           p.SKU(),
		Name:          p.Name(),
		Description:   p.Description(),
		UnitPrice:     p.UnitPrice(),
		StockQuantity: p.StockQuantity(),
		Active:        p.IsActive(),
		Materials:     FromBOM(p.Materials(), materials),
		CreatedAt:     p.CreatedAt(),
		UpdatedAt:     p.UpdatedAt(),
	}
}

func FromProducts(products []*entities.Product, materials map[entities.MaterialRef]*entities.RawMaterial) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p, materials))
	}
	return out
}

func FromBOM(lines []entities.BillOfMaterialLine, materials map[entities.MaterialRef]*entities.RawMaterial) []BOMLineResponse {
	out := make([]BOMLineResponse, 0, len(lines))
	for _, line := range lines {
		resp := BOMLineResponse{
			MaterialID:      line.MaterialRef().Value(),
			QuantityPerUnit: line.QuantityPerUnit(),
		}
		if m, ok := materials[line.MaterialRef()]; ok {
			resp.MaterialCode = m.Code()
			resp.MaterialName = m.Name()
			resp.Unit = m.Unit().Abbreviation()
		}
		out = append(out, resp)
	}
	return out
}

// ErrorResponse is the body of every failed API call
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Status    int       `json:"status"`
	Error     string    `json:"error"`
	Message   string    `json:"message"`
}
