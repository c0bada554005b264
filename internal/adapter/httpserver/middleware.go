package httpserver

import (
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sitewatch-ai/internal/platform/correlation"
)

const maxRequestIDLength = 64

// correlationMiddleware tags the request context with a request ID, taken
// from X-Request-ID when the client sends a usable one.
func correlationMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Request().Header.Get(correlation.RequestIDHeader)
		if id == "" || len(id) > maxRequestIDLength {
			id = correlation.NewID()
		}

		ctx := correlation.WithRequestID(c.Request().Context(), id)
		c.SetRequest(c.Request().WithContext(ctx))
		c.Response().Header().Set(correlation.RequestIDHeader, id)
		return next(c)
	}
}
