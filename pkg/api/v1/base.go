package apiv1

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/chromedash/chromedash/pkg/auth"
	"github.com/chromedash/chromedash/pkg/catalog"
	"github.com/chromedash/chromedash/pkg/types"
)

const (
	HttpServerBaseRoute string = "/api/v1"
	HttpServerRootRoute string = ""
)

// Response is a standard API response structure
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// SuccessResponse returns a successful response
func SuccessResponse(c echo.Context, data interface{}) error {
	return c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// ErrorResponse returns an error response
func ErrorResponse(c echo.Context, code int, message string) error {
	return c.JSON(code, Response{
		Success: false,
		Error:   message,
	})
}

// ServiceErrorResponse maps errors from the repositories and services onto
// status codes.
func ServiceErrorResponse(c echo.Context, err error) error {
	var notFound *types.ErrFeatureNotFound
	var invalidTopic *types.ErrInvalidTopic

	switch {
	case errors.As(err, &notFound):
		return ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidTopic):
		return ErrorResponse(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, catalog.ErrObjectNotFound):
		return ErrorResponse(c, http.StatusNotFound, err.Error())
	case errors.Is(err, auth.ErrAuthRequired):
		return ErrorResponse(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, auth.ErrAdminRequired), errors.Is(err, types.ErrNotificationsDenied):
		return ErrorResponse(c, http.StatusForbidden, err.Error())
	}
	return ErrorResponse(c, http.StatusInternalServerError, err.Error())
}
