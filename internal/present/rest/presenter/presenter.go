package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Envelope is the uniform response wrapper. Failures always carry a
// human-readable Error; Data and Message are set on success only.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func OK(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

func Created(c echo.Context, data any) error {
	return c.JSON(http.StatusCreated, Envelope{Success: true, Data: data})
}

func Message(c echo.Context, msg string) error {
	return c.JSON(http.StatusOK, Envelope{Success: true, Message: msg})
}

func BadRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, Envelope{Success: false, Error: msg})
}

func Unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, Envelope{Success: false, Error: msg})
}

func Forbidden(c echo.Context, msg string) error {
	return c.JSON(http.StatusForbidden, Envelope{Success: false, Error: msg})
}

func NotFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, Envelope{Success: false, Error: msg})
}

func TooManyRequests(c echo.Context, msg string) error {
	return c.JSON(http.StatusTooManyRequests, Envelope{Success: false, Error: msg})
}

func Unavailable(c echo.Context, msg string) error {
	return c.JSON(http.StatusServiceUnavailable, Envelope{Success: false, Error: msg})
}

// InternalError returns the fixed public message and logs the underlying
// error; store detail never reaches the caller.
func InternalError(c echo.Context, msg string, err error) error {
	slog.ErrorContext(
		c.Request().Context(), "Internal error",
		slog.String("error", err.Error()),
		slog.String("path", c.Request().URL.Path),
		slog.String("module", "rest"),
	)
	return c.JSON(http.StatusInternalServerError, Envelope{Success: false, Error: msg})
}
