package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware returns an Echo middleware that renders structured errors as JSON.
// Every handled error increments counter by type. Echo's own HTTPErrors are
// counted and passed through so their status codes survive.
func Middleware(counter *prometheus.CounterVec) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)
			if err == nil {
				return nil
			}

			var httpErr *echo.HTTPError
			if errors.As(err, &httpErr) {
				counter.WithLabelValues(string(WrapHTTPError(httpErr).Type)).Inc()
				return err
			}

			return render(c, counter, AsStructuredError(err))
		}
	}
}

// HandleError renders err directly from a handler.
func HandleError(c echo.Context, counter *prometheus.CounterVec, err error) error {
	if err == nil {
		return nil
	}
	return render(c, counter, AsStructuredError(err))
}

func render(c echo.Context, counter *prometheus.CounterVec, err *Error) error {
	counter.WithLabelValues(string(err.Type)).Inc()
	logError(c, err)

	if writeErr := c.JSON(err.HTTPStatus(), err.ToResponse()); writeErr != nil {
		return fmt.Errorf("failed to write error response: %w", writeErr)
	}
	return nil
}

func logError(c echo.Context, err *Error) {
	ctx := c.Request().Context()
	attrs := []any{
		"error_type", err.Type,
		"message", err.Message,
		"path", c.Request().URL.Path,
		"method", c.Request().Method,
		"status", err.HTTPStatus(),
	}
	for k, v := range err.Context {
		attrs = append(attrs, k, v)
	}
	if err.Cause != nil {
		attrs = append(attrs, "cause", err.Cause)
	}

	switch err.Type {
	case TypeValidation:
		slog.InfoContext(ctx, "Validation error", attrs...)
	case TypeRateLimited:
		slog.WarnContext(ctx, "Rate limited", attrs...)
	case TypeUnavailable:
		slog.WarnContext(ctx, "Service unavailable", attrs...)
	default:
		slog.ErrorContext(ctx, "Internal error", attrs...)
	}
}

// WrapHTTPError converts Echo's HTTPError to a structured error.
func WrapHTTPError(httpErr *echo.HTTPError) *Error {
	message := "internal server error"
	if msg, ok := httpErr.Message.(string); ok {
		message = msg
	}

	var errType ErrorType
	switch {
	case httpErr.Code == http.StatusTooManyRequests:
		errType = TypeRateLimited
	case httpErr.Code == http.StatusServiceUnavailable:
		errType = TypeUnavailable
	case httpErr.Code >= 400 && httpErr.Code < 500:
		errType = TypeValidation
	default:
		errType = TypeInternal
	}

	return newError(errType, message, httpErr.Internal)
}
