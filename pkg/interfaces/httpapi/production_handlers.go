package httpapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/vsinha/prodplan/pkg/application/dto"
)

func (h *handlers) calculateProduction(c echo.Context) error {
	result, err := h.production.Calculate(c.Request().Context())
	if err != nil {
		return err
	}
	plan := dto.FromPlan(result.Plan, result.RunID.String(), result.CalculatedAt, result.Warnings())
	return c.JSON(http.StatusOK, plan)
}
