package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Avashneupane9857/ChatGpt-Clone/internal/healthcheck"
)

type PingHandler struct {
	health *healthcheck.Aggregator
	logger *slog.Logger
}

func NewPingHandler(log *slog.Logger, health *healthcheck.Aggregator) *PingHandler {
	return &PingHandler{
		health: health,
		logger: log.With(slog.String("handler", "ping")),
	}
}

func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.GET("/health", h.Health)
	e.HEAD("/health", h.PingHead)
}

func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

func (h *PingHandler) PingHead(c echo.Context) error {
	return c.NoContent(http.StatusOK)
}

// Health runs the collaborator checks. A failed check answers 503.
func (h *PingHandler) Health(c echo.Context) error {
	report := h.health.Run(c.Request().Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	return c.JSON(status, report)
}
