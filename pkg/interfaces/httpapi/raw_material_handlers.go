package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func (h *handlers) listRawMaterials(c echo.Context) error {
	ctx := c.Request().Context()
	includeInactive, err := queryBool(c, "includeInactive")
	if err != nil {
		return err
	}

	var materials []*entities.RawMaterial
	switch search := c.QueryParam("search"); {
	case search != "":
		materials, err = h.rawMaterials.Search(ctx, search)
		if err == nil && !includeInactive {
			materials = activeMaterials(materials)
		}
	case includeInactive:
		materials, err = h.rawMaterials.ListAll(ctx)
	default:
		materials, err = h.rawMaterials.ListActive(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromRawMaterials(materials))
}

func (h *handlers) getRawMaterial(c echo.Context) error {
	id, err := materialRef(c, "id")
	if err != nil {
		return err
	}
	m, err := h.rawMaterials.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromRawMaterial(m))
}

func (h *handlers) createRawMaterial(c echo.Context) error {
	in, err := rawMaterialInput(c)
	if err != nil {
		return err
	}
	m, err := h.rawMaterials.Create(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.FromRawMaterial(m))
}

func (h *handlers) updateRawMaterial(c echo.Context) error {
	id, err := materialRef(c, "id")
	if err != nil {
		return err
	}
	in, err := rawMaterialInput(c)
	if err != nil {
		return err
	}
	m, err := h.rawMaterials.Update(c.Request().Context(), id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromRawMaterial(m))
}

func (h *handlers) adjustRawMaterialStock(c echo.Context) error {
	id, err := materialRef(c, "id")
	if err != nil {
		return err
	}
	var req dto.StockAdjustmentRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	quantity, err := requiredDecimal("quantity", req.Quantity)
	if err != nil {
		return err
	}
	m, err := h.rawMaterials.AdjustStock(c.Request().Context(), id, quantity)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.FromRawMaterial(m))
}

// deleteRawMaterial deactivates unless ?permanent is given
func (h *handlers) deleteRawMaterial(c echo.Context) error {
	id, err := materialRef(c, "id")
	if err != nil {
		return err
	}
	permanent, err := queryBool(c, "permanent")
	if err != nil {
		return err
	}
	if permanent {
		err = h.rawMaterials.Delete(c.Request().Context(), id)
	} else {
		err = h.rawMaterials.Deactivate(c.Request().Context(), id)
	}
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func rawMaterialInput(c echo.Context) (catalog.RawMaterialInput, error) {
	var req dto.RawMaterialRequest
	if err := bind(c, &req); err != nil {
		return catalog.RawMaterialInput{}, err
	}
	unit, err := entities.ParseMeasurementUnit(req.Unit)
	if err != nil {
		return catalog.RawMaterialInput{}, err
	}
	unitCost, err := requiredDecimal("unitCost", req.UnitCost)
	if err != nil {
		return catalog.RawMaterialInput{}, err
	}
	return catalog.RawMaterialInput{
		Name:          req.Name,
		Description:   req.Description,
		Code:          req.Code,
		Unit:          unit,
		StockQuantity: req.StockQuantity,
		UnitCost:      unitCost,
	}, nil
}

func activeMaterials(materials []*entities.RawMaterial) []*entities.RawMaterial {
	out := materials[:0]
	for _, m := range materials {
		if m.IsActive() {
			out = append(out, m)
		}
	}
	return out
}
