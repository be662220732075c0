package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func (h *handlers) listProducts(c echo.Context) error {
	ctx := c.Request().Context()
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		return err
	}

	var products []*entities.Product
	switch search := c.QueryParam("search"); {
	case search != "":
		products, err = h.products.Search(ctx, search)
		if err == nil && !includeInactive {
			products = activeProducts(products)
		}
	case includeInactive:
		products, err = h.products.ListAll(ctx)
	default:
		products, err = h.products.ListActive(ctx)
	}
	if err != nil {
		return err
	}
	index, err := h.materialIndex(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromProducts(products, index))
}

func (h *handlers) getProduct(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	p, err := h.products.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusOK, p)
}

func (h *handlers) createProduct(c echo.Context) error {
	var req dto.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := productInput(req)
	if err != nil {
		return err
	}
	p, err := h.products.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusCreated, p)
}

func (h *handlers) updateProduct(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	var req dto.ProductRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	in, err := productInput(req)
	if err != nil {
		return err
	}
	p, err := h.products.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusOK, p)
}

// adjustProductStock applies ?delta=n finished units
func (h *handlers) adjustProductStock(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	raw := c.QueryParam("delta")
	delta, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid delta: %q", raw))
	}
	p, err := h.products.AdjustStock(c.Request().Context(), id, delta)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusOK, p)
}

func (h *handlers) deleteProduct(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	permanent, err := queryBool(c, "permanent")
	if err != nil {
		return err
	}
	if permanent {
		err = h.products.Delete(c.Request().Context(), id)
	} else {
		err = h.products.Deactivate(c.Request().Context(), id)
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) listProductMaterials(c echo.Context) error {
	ctx := c.Request().Context()
	id, err := productRef(c)
	if err != nil {
		return err
	}
	lines, err := h.products.Materials(ctx, id)
	if err != nil {
		return err
	}
	index, err := h.materialIndex(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromBOM(lines, index))
}

func (h *handlers) addProductMaterial(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	var req dto.BOMLineRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	material, err := entities.NewMaterialRef(req.MaterialID)
	if err != nil {
		return err
	}
	qty, err := requiredDecimal("quantityPerUnit", req.QuantityPerUnit)
	if err != nil {
		return err
	}
	p, err := h.products.AddMaterial(c.Request().Context(), id, material, qty)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusCreated, p)
}

func (h *handlers) updateProductMaterial(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	material, err := materialRef(c, "materialId")
	if err != nil {
		return err
	}
	var req dto.BOMLineRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	qty, err := requiredDecimal("quantityPerUnit", req.QuantityPerUnit)
	if err != nil {
		return err
	}
	p, err := h.products.UpdateMaterialQuantity(c.Request().Context(), id, material, qty)
	if err != nil {
		return err
	}
	return h.productJSON(c, http.StatusOK, p)
}

func (h *handlers) removeProductMaterial(c echo.Context) error {
	id, err := productRef(c)
	if err != nil {
		return err
	}
	material, err := materialRef(c, "materialId")
	if err != nil {
		return err
	}
	if _, err := h.products.RemoveMaterial(c.Request().Context(), id, material); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *handlers) productJSON(c echo.Context, status int, p *entities.Product) error {
	index, err := h.materialIndex(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(status, dto.FromProduct(p, index))
}

// materialIndex maps every raw material, inactive ones included, for BOM
// enrichment
func (h *handlers) materialIndex(ctx context.Context) (map[entities.MaterialRef]*entities.RawMaterial, error) {
	materials, err := h.rawMaterials.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	index := make(map[entities.MaterialRef]*entities.RawMaterial, len(materials))
	for _, m := range materials {
		index[m.ID()] = m
	}
	return index, nil
}

func productInput(req dto.ProductRequest) (catalog.ProductInput, error) {
	price, err := requiredDecimal("unitPrice", req.UnitPrice)
	if err != nil {
		return catalog.ProductInput{}, err
	}
	in := catalog.ProductInput{
		Name:          req.Name,
		Description:   req.Description,
		SKU:           req.SKU,
		UnitPrice:     price,
		StockQuantity: req.StockQuantity,
	}
	for i, line := range req.Materials {
		ref, err := entities.NewMaterialRef(line.MaterialID)
		if err != nil {
			return catalog.ProductInput{}, fmt.Errorf("materials[%d]: %w", i, err)
		}
		qty, err := requiredDecimal(fmt.Sprintf("materials[%d].quantityPerUnit", i), line.QuantityPerUnit)
		if err != nil {
			return catalog.ProductInput{}, err
		}
		in.Materials = append(in.Materials, catalog.BOMLineInput{Material: ref, QuantityPerUnit: qty})
	}
	return in, nil
}

func activeProducts(products []*entities.Product) []*entities.Product {
	out := products[:0]
	for _, p := range products {
		if p.IsActive() {
			out = append(out, p)
		}
	}
	return out
}
