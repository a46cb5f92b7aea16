package server

import (
	"ecommerce/internal/handler"

	"github.com/labstack/echo/v4"
)

type Handlers struct {
	Products *handler.ProductHandler
	Orders   *handler.OrderHandler
	Health   *handler.HealthHandler
}

// basePath が "" ならルート直下
func RegisterRoutes(e *echo.Echo, basePath string, h Handlers) {
	h.Health.RegisterRoutes(e)

	api := e.Group(basePath)
	h.Products.RegisterRoutes(api)
	h.Orders.RegisterRoutes(api)
}
