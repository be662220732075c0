package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/vsinha/prodplan/pkg/application/dto"
	"github.com/vsinha/prodplan/pkg/application/services/catalog"
	"github.com/vsinha/prodplan/pkg/domain/entities"
	"github.com/vsinha/prodplan/pkg/infrastructure/logging"
)

const internalErrorMessage = "an unexpected error occurred"

func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, message := classify(err)
		if status >= http.StatusInternalServerError {
			logging.FromContext(c.Request().Context(), logger).Error("request failed", zap.Error(err))
		}

		body := dto.ErrorResponse{
			Timestamp: time.Now().UTC(),
			Status:    status,
			Error:     http.StatusText(status),
			Message:   message,
		}
		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.Warn("failed to write error response", zap.Error(writeErr))
		}
	}
}

// classify maps an error to a status code and a client-safe message
func classify(err error) (int, string) {
	var httpErr *echo.HTTPError
	switch {
	case errors.As(err, &httpErr):
		if httpErr.Code >= http.StatusInternalServerError {
			return httpErr.Code, internalErrorMessage
		}
		if msg, ok := httpErr.Message.(string); ok {
			return httpErr.Code, msg
		}
		return httpErr.Code, fmt.Sprint(httpErr.Message)
	case catalog.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case catalog.IsConflict(err):
		return http.StatusConflict, err.Error()
	case entities.IsValidationError(err):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}
}
