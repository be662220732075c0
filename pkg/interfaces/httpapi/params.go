package httpapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/vsinha/prodplan/pkg/domain/entities"
)

func parseInt64(c echo.Context, name string) (int64, error) {
	raw := c.Param(name)
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, raw))
	}
	return v, nil
}

func productRef(c echo.Context) (entities.ProductRef, error) {
	v, err := parseInt64(c, "id")
	if err != nil {
		return entities.ProductRef{}, err
	}
	return entities.NewProductRef(v)
}

func materialRef(c echo.Context, name string) (entities.MaterialRef, error) {
	v, err := parseInt64(c, name)
	if err != nil {
		return entities.MaterialRef{}, err
	}
	return entities.NewMaterialRef(v)
}

// queryBool reads an optional boolean query parameter. A present but empty
// value, as in ?permanent, counts as true.
func queryBool(c echo.Context, name string) (bool, error) {
	values, ok := c.QueryParams()[name]
	if !ok {
		return false, nil
	}
	if len(values) == 0 || values[0] == "" {
		return true, nil
	}
	v, err := strconv.ParseBool(values[0])
	if err != nil {
		return false, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid %s: %q", name, values[0]))
	}
	return v, nil
}

func bind(c echo.Context, dst any) error {
	if err := c.Bind(dst); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	return nil
}

// requiredDecimal unwraps a decimal body field, rejecting one that was absent
// or null
func requiredDecimal(name string, v decimal.NullDecimal) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Decimal{}, echo.NewHTTPError(http.StatusBadRequest, name+" is required")
	}
	return v.Decimal, nil
}
