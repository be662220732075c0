// Package httpapi exposes the catalog and production planning over HTTP.
package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/application/services/production"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
	"github.com/vsinha/prodplan/pkg/infrastructure/metrics"
)

// Services are the use cases served by the API
type Services struct {
	Products     *catalog.ProductService
	RawMaterials *catalog.RawMaterialService
	Production   *production.Service
}

// Options configure the ambient parts of the server
type Options struct {
	Logger *zap.Logger
	// Registerer receives the HTTP request metrics; nil disables them
	Registerer prometheus.Registerer
	// Gatherer is served on MetricsPath when both are set
	Gatherer    prometheus.Gatherer
	MetricsPath string
	// Ping backs the health check, e.g. a database ping
	Ping func(ctx context.Context) error
}

// Server wraps the echo instance
type Server struct {
	echo   *echo.Echo
	logger *zap.Logger
}

func NewServer(svc Services, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.Recover())
	e.Use(logging.Middleware(logger))
	if opts.Registerer != nil {
		e.Use(metrics.NewHTTPMetrics(opts.Registerer).Middleware())
	}
	e.Use(middleware.BodyLimit("1M"))

	e.GET("/health", healthHandler(opts.Ping))
	if opts.Gatherer != nil && opts.MetricsPath != "" {
		e.GET(opts.MetricsPath, echo.WrapHandler(metrics.Handler(opts.Gatherer)))
	}

	h := &handlers{
		products:     svc.Products,
		rawMaterials: svc.RawMaterials,
		production:   svc.Production,
	}
	api := e.Group("/api/v1")

	api.POST("/production/calculate", h.calculateProduction)

	rm := api.Group("/raw-materials")
	rm.GET("", h.listRawMaterials)
	rm.POST("", h.createRawMaterial)
	rm.GET("/:id", h.getRawMaterial)
	rm.PUT("/:id", h.updateRawMaterial)
	rm.PATCH("/:id/stock", h.adjustRawMaterialStock)
	rm.DELETE("/:id", h.deleteRawMaterial)

	p := api.Group("/products")
	p.GET("", h.listProducts)
	p.POST("", h.createProduct)
	p.GET("/:id", h.getProduct)
	p.PUT("/:id", h.updateProduct)
	p.PATCH("/:id/stock", h.adjustProductStock)
	p.DELETE("/:id", h.deleteProduct)
	p.GET("/:id/materials", h.listProductMaterials)
	p.POST("/:id/materials", h.addProductMaterial)
	p.PUT("/:id/materials/:materialId", h.updateProductMaterial)
	p.DELETE("/:id/materials/:materialId", h.removeProductMaterial)

	return &Server{echo: e, logger: logger}
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler { return s.echo }

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Info("HTTP server listening", zap.String("addr", addr))
	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func healthHandler(ping func(context.Context) error) echo.HandlerFunc {
	return func(c echo.Context) error {
		if ping != nil {
			if err := ping(c.Request().Context()); err != nil {
				logging.FromContext(c.Request().Context(), nil).Warn("health check failed", zap.Error(err))
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

type handlers struct {
	products     *catalog.ProductService
	rawMaterials *catalog.RawMaterialService
	production   *production.Service
}
