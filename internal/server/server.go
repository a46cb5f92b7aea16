package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ecommerce/internal/config"
	"ecommerce/internal/handler"
	"ecommerce/internal/middleware"
	"ecommerce/internal/validator"

	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// echoの組み立て（バインダ・バリデータ・共通ミドルウェア・ルート）
func New(cfg config.Config, logger *slog.Logger, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	sanitizer := middleware.NewSanitizer()
	e.Binder = middleware.NewSanitizingBinder(sanitizer)
	e.Validator = validator.NewRequestValidator()
	e.HTTPErrorHandler = handler.NewHTTPErrorHandler(logger)

	middleware.Setup(e, cfg, logger, sanitizer)
	RegisterRoutes(e, cfg.BasePath, h)

	return e
}

// ctx が終わったら graceful shutdown
func Start(ctx context.Context, e *echo.Echo, addr string, logger *slog.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", "address", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
