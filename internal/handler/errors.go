package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/marlenbek/login-service/internal/auth"
	"github.com/marlenbek/login-service/internal/repository"
)

// writeError translates a domain error into an HTTP response. Validation
// errors surface their reason; everything unexpected is a detail-free 500 so
// driver errors never leak to clients.
func writeError(c echo.Context, err error) error {
	var v *auth.ValidationError
	switch {
	case errors.As(err, &v):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": v.Reason})
	case errors.Is(err, auth.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
