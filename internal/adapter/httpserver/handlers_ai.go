package httpserver

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/sitewatch-ai/internal/domain"
	"github.com/pscheid92/sitewatch-ai/internal/safety"
)

const maxAnalyzeBodyBytes = 1 << 20

func (s *Server) handleSafety(c echo.Context) error {
	s.metrics.Analysis.SafetyPolled.Inc()

	if err := c.JSON(http.StatusOK, s.generator.Generate()); err != nil {
		return fmt.Errorf("failed to write safety response: %w", err)
	}
	return nil
}

// handleAnalyze answers malformed bodies with status 200 and an error
// payload, which is what dashboard clients expect.
func (s *Server) handleAnalyze(c echo.Context) error {
	ctx := c.Request().Context()

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxAnalyzeBodyBytes))
	if err == nil {
		var input domain.WasteLogInput
		input, err = safety.ParseWasteLog(body)
		if err == nil {
			return s.analyze(c, input)
		}
	}

	s.metrics.Analysis.Requests.WithLabelValues("invalid").Inc()
	slog.InfoContext(ctx, "Rejected waste log", "error", err)

	if err := c.JSON(http.StatusOK, domain.NewErrorResponse(domain.ErrInvalidInput.Error())); err != nil {
		return fmt.Errorf("failed to write analysis error: %w", err)
	}
	return nil
}

func (s *Server) analyze(c echo.Context, input domain.WasteLogInput) error {
	resp := s.analyzer.Analyze(input)

	s.metrics.Analysis.Requests.WithLabelValues("ok").Inc()
	if resp.Predictions != nil {
		s.metrics.Analysis.RiskScore.Observe(resp.Predictions.RiskScore)
	}

	s.registry.Broadcast(resp)

	slog.DebugContext(c.Request().Context(), "Waste log analyzed",
		"material_type", input.MaterialType,
		"quantity", input.Quantity,
		"alerts", len(resp.Alerts))

	if err := c.JSON(http.StatusOK, resp); err != nil {
		return fmt.Errorf("failed to write analysis response: %w", err)
	}
	return nil
}
