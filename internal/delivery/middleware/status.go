package middleware

import (
	"net/http"

	domainerrors "profilemap/internal/domain/errors"
	"profilemap/internal/errors"

	"github.com/labstack/echo/v4"
)

// statusOf predicts the status the HTTP error handler will answer err with.
func statusOf(err error) int {
	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPCode()
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return http.StatusInternalServerError
}
