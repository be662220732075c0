package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/application/services/production"
	"github.com/vsinha/prodplan/pkg/infrastructure/catalogtest"
	"github.com/vsinha/prodplan/pkg/infrastructure/metrics"
	"github.com/vsinha/prodplan/pkg/infrastructure/repositories/memory"
)

type testAPI struct {
	srv *Server
	fx  catalogtest.Fixture
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	store := memory.NewStore(8)
	fx := catalogtest.SeedFurniture(t, store)

	reg := prometheus.NewRegistry()
	svc := Services{
		Products:     catalog.NewProductService(store.Products(), store.RawMaterials(), nil, nil),
		RawMaterials: catalog.NewRawMaterialService(store.RawMaterials(), nil, nil),
		Production:   production.NewService(store, production.WithMetrics(metrics.NewPlanningMetrics(reg))),
	}
	if opts.Registerer == nil {
		opts.Registerer = reg
		opts.Gatherer = reg
		opts.MetricsPath = "/metrics"
	}
	return &testAPI{srv: NewServer(svc, opts), fx: fx}
}

func (a *testAPI) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	a.srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestCalculateProduction(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodPost, "/api/v1/production/calculate", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	plan := decode[dto.ProductionPlan](t, rec)
	assert.NotEmpty(t, plan.RunID)
	assert.Equal(t, "2745", plan.TotalProductionValue.String())
	assert.Equal(t, int64(7), plan.TotalUnits)
	require.Len(t, plan.Items, 2)
	assert.Equal(t, "TBL-100", plan.Items[0].ProductSKU)
	assert.Equal(t, int64(6), plan.Items[0].Quantity)
	assert.Equal(t, "STL-300", plan.Items[1].ProductSKU)
	assert.Equal(t, "0.5", plan.RemainingStock[api.fx.Wood.ID().Value()].String())
}

func TestRawMaterials_List(t *testing.T) {
	api := newTestAPI(t, Options{})

	testCases := []struct {
		query string
		want  []string
	}{
		{"", []string{"WOOD-OAK", "SCR-440", "VRN-CLR"}},
		{"?includeInactive=true", []string{"WOOD-OAK", "SCR-440", "VRN-CLR", "FAB-GRY"}},
		{"?search=OAK", []string{"WOOD-OAK"}},
		{"?search=fabric", []string{}},
		{"?search=fabric&includeInactive", []string{"FAB-GRY"}},
	}
	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			rec := api.do(http.MethodGet, "/api/v1/raw-materials"+tc.query, "")
			require.Equal(t, http.StatusOK, rec.Code)
			got := []string{}
			for _, m := range decode[[]dto.RawMaterialResponse](t, rec) {
				got = append(got, m.Code)
			}
			assert.Equal(t, tc.want, got)
		})
	}

	rec := api.do(http.MethodGet, "/api/v1/raw-materials?includeInactive=maybe", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRawMaterials_Get(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/raw-materials/%d", api.fx.Wood.ID().Value()), "")
	require.Equal(t, http.StatusOK, rec.Code)
	wood := decode[dto.RawMaterialResponse](t, rec)
	assert.Equal(t, "WOOD-OAK", wood.Code)
	assert.Equal(t, "m", wood.Unit)
	assert.Equal(t, "50", wood.StockQuantity.String())

	rec = api.do(http.MethodGet, "/api/v1/raw-materials/999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	body := decode[dto.ErrorResponse](t, rec)
	assert.Equal(t, http.StatusNotFound, body.Status)
	assert.Equal(t, "Not Found", body.Error)
	assert.Contains(t, body.Message, "raw material not found")
	assert.False(t, body.Timestamp.IsZero())

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/raw-materials/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodGet, "/api/v1/raw-materials/0", "").Code)
}

func TestRawMaterials_CreateAndUpdate(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodPost, "/api/v1/raw-materials",
		`{"name":"Wood glue","code":"glu-01","unit":"liter","stockQuantity":"2.5","unitCost":7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	glue := decode[dto.RawMaterialResponse](t, rec)
	assert.Equal(t, "GLU-01", glue.Code)
	assert.Equal(t, "L", glue.Unit)
	assert.Equal(t, "2.5", glue.StockQuantity.String())
	assert.True(t, glue.Active)

	rec = api.do(http.MethodPost, "/api/v1/raw-materials", `{"name":"Other glue","code":"GLU-01","unit":"L","unitCost":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/raw-materials", `{"name":"Rope","code":"RP-1","unit":"furlong","unitCost":"1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, rec).Message, "invalid measurement unit")

	rec = api.do(http.MethodPost, "/api/v1/raw-materials", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "malformed request body", decode[dto.ErrorResponse](t, rec).Message)

	rec = api.do(http.MethodPut, fmt.Sprintf("/api/v1/raw-materials/%d", glue.ID),
		`{"name":"PVA glue","code":"GLU-01","unit":"L","stockQuantity":"100","unitCost":"8"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dto.RawMaterialResponse](t, rec)
	assert.Equal(t, "PVA glue", updated.Name)
	assert.Equal(t, "8", updated.UnitCost.String())
	assert.Equal(t, "2.5", updated.StockQuantity.String(), "update leaves stock alone")
}

func TestRawMaterials_AdjustStock(t *testing.T) {
	api := newTestAPI(t, Options{})
	path := fmt.Sprintf("/api/v1/raw-materials/%d/stock", api.fx.Wood.ID().Value())

	rec := api.do(http.MethodPatch, path, `{"quantity":"-10.5"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "39.5", decode[dto.RawMaterialResponse](t, rec).StockQuantity.String())

	rec = api.do(http.MethodPatch, path, `{"quantity":"-40"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRawMaterials_Delete(t *testing.T) {
	api := newTestAPI(t, Options{})
	screws := fmt.Sprintf("/api/v1/raw-materials/%d", api.fx.Screws.ID().Value())

	rec := api.do(http.MethodDelete, screws+"?permanent", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodDelete, screws, "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = api.do(http.MethodGet, screws, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.False(t, decode[dto.RawMaterialResponse](t, rec).Active)

	rec = api.do(http.MethodPost, "/api/v1/raw-materials", `{"name":"Sandpaper","code":"SND-80","unit":"sheet","unitCost":"0.3"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	sandpaper := fmt.Sprintf("/api/v1/raw-materials/%d", decode[dto.RawMaterialResponse](t, rec).ID)
	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, sandpaper+"?permanent=true", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, sandpaper, "").Code)
}

func TestRequiredDecimalFields(t *testing.T) {
	api := newTestAPI(t, Options{})
	wood := api.fx.Wood.ID().Value()
	stool := fmt.Sprintf("/api/v1/products/%d", api.fx.Stool.ID().Value())

	tests := []struct {
		name    string
		method  string
		path    string
		body    string
		message string
	}{
		{"stock adjustment without quantity", http.MethodPatch, fmt.Sprintf("/api/v1/raw-materials/%d/stock", wood), `{}`, "quantity is required"},
		{"stock adjustment with null quantity", http.MethodPatch, fmt.Sprintf("/api/v1/raw-materials/%d/stock", wood), `{"quantity":null}`, "quantity is required"},
		{"raw material without unit cost", http.MethodPost, "/api/v1/raw-materials", `{"name":"Twine","code":"TWN-1","unit":"m"}`, "unitCost is required"},
		{"raw material update without unit cost", http.MethodPut, fmt.Sprintf("/api/v1/raw-materials/%d", wood), `{"name":"Oak","code":"WOOD-OAK","unit":"m"}`, "unitCost is required"},
		{"product without unit price", http.MethodPost, "/api/v1/products", `{"name":"Zither","sku":"ZTH-1"}`, "unitPrice is required"},
		{"product update without unit price", http.MethodPut, stool, `{"name":"Stool","sku":"STL-300"}`, "unitPrice is required"},
		{"product line without quantity", http.MethodPost, "/api/v1/products",
			fmt.Sprintf(`{"name":"Zither","sku":"ZTH-1","unitPrice":"5","materials":[{"materialId":%d}]}`, wood), "materials[0].quantityPerUnit is required"},
		{"bom line without quantity", http.MethodPost, stool + "/materials", fmt.Sprintf(`{"materialId":%d}`, api.fx.Varnish.ID().Value()), "quantityPerUnit is required"},
		{"bom update without quantity", http.MethodPut, fmt.Sprintf("%s/materials/%d", stool, wood), `{}`, "quantityPerUnit is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(tt.method, tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
			assert.Equal(t, tt.message, decode[dto.ErrorResponse](t, rec).Message)
		})
	}

	rec := api.do(http.MethodGet, fmt.Sprintf("/api/v1/raw-materials/%d", wood), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "50", decode[dto.RawMaterialResponse](t, rec).StockQuantity.String(), "rejected adjustments leave stock alone")
	rec = api.do(http.MethodGet, "/api/v1/products?search=zither&includeInactive", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]dto.ProductResponse](t, rec))
}

func TestProducts_CRUD(t *testing.T) {
	api := newTestAPI(t, Options{})

	body := fmt.Sprintf(`{"name":"Bench","sku":"bch-500","unitPrice":"210.00","materials":[{"materialId":%d,"quantityPerUnit":"6"}]}`,
		api.fx.Wood.ID().Value())
	rec := api.do(http.MethodPost, "/api/v1/products", body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	bench := decode[dto.ProductResponse](t, rec)
	assert.Equal(t, "BCH-500", bench.SKU)
	require.Len(t, bench.Materials, 1)
	assert.Equal(t, "WOOD-OAK", bench.Materials[0].MaterialCode)
	assert.Equal(t, "m", bench.Materials[0].Unit)

	rec = api.do(http.MethodPost, "/api/v1/products", `{"name":"Copy","sku":"TBL-100","unitPrice":"1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/products", `{"name":"Ghost","sku":"GST-1","unitPrice":"1","materials":[{"materialId":999,"quantityPerUnit":"1"}]}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = api.do(http.MethodPost, "/api/v1/products", `{"name":"Free","sku":"FRE-1","unitPrice":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	path := fmt.Sprintf("/api/v1/products/%d", bench.ID)
	rec = api.do(http.MethodPut, path, `{"name":"Garden bench","sku":"BCH-500","unitPrice":"230"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dto.ProductResponse](t, rec)
	assert.Equal(t, "Garden bench", updated.Name)
	assert.Equal(t, "230", updated.UnitPrice.String())
	assert.Len(t, updated.Materials, 1, "update keeps the bill of materials")

	rec = api.do(http.MethodGet, "/api/v1/products?search=bench", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]dto.ProductResponse](t, rec), 1)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path, "").Code)
	rec = api.do(http.MethodGet, "/api/v1/products", "")
	assert.Len(t, decode[[]dto.ProductResponse](t, rec), 3)
	rec = api.do(http.MethodGet, "/api/v1/products?includeInactive=1", "")
	assert.Len(t, decode[[]dto.ProductResponse](t, rec), 5)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, path+"?permanent", "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, "").Code)
}

func TestProducts_AdjustStock(t *testing.T) {
	api := newTestAPI(t, Options{})
	path := fmt.Sprintf("/api/v1/products/%d/stock", api.fx.Table.ID().Value())

	rec := api.do(http.MethodPatch, path+"?delta=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, int64(3), decode[dto.ProductResponse](t, rec).StockQuantity)

	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, path+"?delta=-4", "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodPatch, path, "").Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodPatch, "/api/v1/products/999/stock?delta=1", "").Code)
}

func TestProducts_BillOfMaterials(t *testing.T) {
	api := newTestAPI(t, Options{})
	stool := fmt.Sprintf("/api/v1/products/%d/materials", api.fx.Stool.ID().Value())

	rec := api.do(http.MethodGet, stool, "")
	require.Equal(t, http.StatusOK, rec.Code)
	lines := decode[[]dto.BOMLineResponse](t, rec)
	require.Len(t, lines, 2)
	assert.Equal(t, "WOOD-OAK", lines[0].MaterialCode)
	assert.Equal(t, "1.5", lines[0].QuantityPerUnit.String())

	varnish := api.fx.Varnish.ID().Value()
	rec = api.do(http.MethodPost, stool, fmt.Sprintf(`{"materialId":%d,"quantityPerUnit":"0.1"}`, varnish))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Len(t, decode[dto.ProductResponse](t, rec).Materials, 3)

	rec = api.do(http.MethodPost, stool, fmt.Sprintf(`{"materialId":%d,"quantityPerUnit":"0.1"}`, varnish))
	assert.Equal(t, http.StatusBadRequest, rec.Code, "duplicate line")

	rec = api.do(http.MethodPost, stool, `{"materialId":999,"quantityPerUnit":"1"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	line := fmt.Sprintf("%s/%d", stool, varnish)
	rec = api.do(http.MethodPut, line, `{"quantityPerUnit":"0.2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[dto.ProductResponse](t, rec)
	assert.Equal(t, "0.2", updated.Materials[2].QuantityPerUnit.String())

	rec = api.do(http.MethodPut, line, `{"quantityPerUnit":"0"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	require.Equal(t, http.StatusNoContent, api.do(http.MethodDelete, line, "").Code)
	assert.Equal(t, http.StatusBadRequest, api.do(http.MethodDelete, line, "").Code)

	rec = api.do(http.MethodGet, stool, "")
	assert.Len(t, decode[[]dto.BOMLineResponse](t, rec), 2)
}

func TestHealth(t *testing.T) {
	api := newTestAPI(t, Options{})
	rec := api.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	down := newTestAPI(t, Options{Ping: func(context.Context) error { return errors.New("connection refused") }})
	rec = down.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	api := newTestAPI(t, Options{})
	require.Equal(t, http.StatusOK, api.do(http.MethodPost, "/api/v1/production/calculate", "").Code)

	rec := api.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	out := rec.Body.String()
	assert.Contains(t, out, `prodplan_http_requests_total{method="POST",path="/api/v1/production/calculate",status="200"} 1`)
	assert.Contains(t, out, `prodplan_plan_runs_total{outcome="success"} 1`)
}

func TestRequestID(t *testing.T) {
	api := newTestAPI(t, Options{})

	rec := api.do(http.MethodGet, "/health", "")
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(echo.HeaderXRequestID, "req-42")
	rec = httptest.NewRecorder()
	api.srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(echo.HeaderXRequestID))
}

func TestUnknownRoute(t *testing.T) {
	api := newTestAPI(t, Options{})
	rec := api.do(http.MethodGet, "/api/v1/nothing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, decode[dto.ErrorResponse](t, rec).Status)
}

func TestClassify(t *testing.T) {
	testCases := []struct {
		name        string
		err         error
		wantStatus  int
		wantMessage string
	}{
		{"not found", fmt.Errorf("%w: id 3", catalog.ErrProductNotFound), http.StatusNotFound, "product not found: id 3"},
		{"conflict", catalog.ErrCodeAlreadyExists, http.StatusConflict, "raw material code already exists"},
		{"echo error", echo.NewHTTPError(http.StatusMethodNotAllowed, "nope"), http.StatusMethodNotAllowed, "nope"},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError, internalErrorMessage},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			status, msg := classify(tc.err)
			assert.Equal(t, tc.wantStatus, status)
			assert.Equal(t, tc.wantMessage, msg)
		})
	}
}
