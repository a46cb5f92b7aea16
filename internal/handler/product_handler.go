package handler

import (
	"context"
	"net/http"

	"ecommerce/internal/domain/model"
	"ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type ProductService interface {
	CreateProduct(ctx context.Context, in usecase.CreateProductInput) (model.Product, error)
	GetProduct(ctx context.Context, productID string) (model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	ListAvailable(ctx context.Context) ([]model.Product, error)
}

type ProductCreateRequest struct {
	ProductID   string           `json:"productId" validate:"required,product_id"`
	ProductName string           `json:"productName" validate:"required,max=200"`
	Price       *decimal.Decimal `json:"price" validate:"required,price"`
	Quantity    *int             `json:"quantity" validate:"required,min=0"`
}

type ProductResponse struct {
	ProductID   string   `json:"productId"`
	ProductName string   `json:"productName"`
	Price       Amount   `json:"price"`
	Quantity    int      `json:"quantity"`
	CreatedAt   DateTime `json:"createdAt"`
	UpdatedAt   DateTime `json:"updatedAt"`
}

// /products
type ProductHandler struct {
	uc ProductService
}

// DI
func NewProductHandler(uc ProductService) *ProductHandler {
	return &ProductHandler{uc: uc}
}

func (h *ProductHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/products", h.create)
	g.GET("/products", h.list)
	g.GET("/products/available", h.listAvailable)
	g.GET("/products/:productId", h.detail)
}

func (h *ProductHandler) create(c echo.Context) error {
	var req ProductCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeBindError(c, err)
	}
	//形式チェック（ここで落ちたらusecaseは呼ばない）
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	p, err := h.uc.CreateProduct(c.Request().Context(), usecase.CreateProductInput{
		ProductID:   req.ProductID,
		ProductName: req.ProductName,
		Price:       *req.Price,
		Quantity:    *req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return success(c, http.StatusCreated, "product created", toProductResponse(p))
}

func (h *ProductHandler) list(c echo.Context) error {
	products, err := h.uc.ListAll(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toProductResponses(products))
}

func (h *ProductHandler) listAvailable(c echo.Context) error {
	products, err := h.uc.ListAvailable(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toProductResponses(products))
}

func (h *ProductHandler) detail(c echo.Context) error {
	p, err := h.uc.GetProduct(c.Request().Context(), c.Param("productId"))
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toProductResponse(p))
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ProductID:   p.ProductID,
		ProductName: p.ProductName,
		Price:       Amount(p.Price),
		Quantity:    p.Quantity,
		CreatedAt:   DateTime(p.CreatedAt),
		UpdatedAt:   DateTime(p.UpdatedAt),
	}
}

func toProductResponses(products []model.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return out
}
