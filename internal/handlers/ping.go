package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/memohai/contactbook/internal/contacts"
)

// PingHandler serves /ping for liveness and HEAD /health for store reachability.
type PingHandler struct {
	service *contacts.Service
	logger  *slog.Logger
}

// NewPingHandler creates a ping handler.
func NewPingHandler(log *slog.Logger, service *contacts.Service) *PingHandler {
	return &PingHandler{
		service: service,
		logger:  log.With(slog.String("handler", "ping")),
	}
}

// Register mounts GET /ping and HEAD /health on the Echo instance.
func (h *PingHandler) Register(e *echo.Echo) {
	e.GET("/ping", h.Ping)
	e.HEAD("/health", h.Health)
}

// Ping returns 200 JSON {"status":"ok"}.
func (h *PingHandler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Health returns 200 when the store answers and 503 otherwise.
func (h *PingHandler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		return c.NoContent(http.StatusServiceUnavailable)
	}
	return c.NoContent(http.StatusOK)
}
