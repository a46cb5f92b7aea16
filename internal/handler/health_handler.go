package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const pingTimeout = 2 * time.Second

type HealthHandler struct {
	ping   func(ctx context.Context) error
	logger *slog.Logger
}

func NewHealthHandler(ping func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{ping: ping, logger: logger}
}

// base path の外に置く
func (h *HealthHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.health)
}

func (h *HealthHandler) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), pingTimeout)
	defer cancel()

	if err := h.ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "database ping failed", "error", err)
		return failure(c, http.StatusServiceUnavailable, "DATABASE_UNAVAILABLE", "database unavailable", nil)
	}
	return success(c, http.StatusOK, "ok", nil)
}
