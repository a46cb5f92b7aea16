package handler

import (
	"context"
	"net/http"

	"ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type OrderService interface {
	CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (usecase.OrderOutput, error)
	GetOrder(ctx context.Context, orderID string) (usecase.OrderOutput, error)
	ListOrders(ctx context.Context) ([]usecase.OrderOutput, error)
	ListOrdersByMember(ctx context.Context, memberID string) ([]usecase.OrderOutput, error)
}

type OrderItemRequest struct {
	ProductID string           `json:"productId" validate:"required,max=50"`
	Quantity  int              `json:"quantity" validate:"required,min=1,max=99999"`
	Price     *decimal.Decimal `json:"price" validate:"required,unit_price"`
}

type OrderCreateRequest struct {
	MemberID string             `json:"memberId" validate:"required,max=50"`
	Items    []OrderItemRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

type OrderItemResponse struct {
	OrderItemSn int64  `json:"orderItemSn"`
	ProductID   string `json:"productId"`
	ProductName string `json:"productName,omitempty"`
	Quantity    int    `json:"quantity"`
	StandPrice  Amount `json:"standPrice"`
	ItemPrice   Amount `json:"itemPrice"`
}

type OrderResponse struct {
	OrderID       string              `json:"orderId"`
	MemberID      string              `json:"memberId"`
	TotalPrice    Amount              `json:"totalPrice"`
	PayStatus     int                 `json:"payStatus"`
	PayStatusText string              `json:"payStatusText"`
	CreatedAt     DateTime            `json:"createdAt"`
	UpdatedAt     DateTime            `json:"updatedAt"`
	Items         []OrderItemResponse `json:"items"`
}

// /orders
type OrderHandler struct {
	uc OrderService
}

func NewOrderHandler(uc OrderService) *OrderHandler {
	return &OrderHandler{uc: uc}
}

func (h *OrderHandler) RegisterRoutes(g *echo.Group) {
	g.POST("/orders", h.create)
	g.GET("/orders", h.list)
	g.GET("/orders/member/:memberId", h.listByMember)
	g.GET("/orders/:orderId", h.detail)
}

func (h *OrderHandler) create(c echo.Context) error {
	var req OrderCreateRequest
	if err := c.Bind(&req); err != nil {
		return writeBindError(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return writeError(c, err)
	}

	items := make([]usecase.OrderItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.OrderItemInput{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     *it.Price,
		})
	}

	out, err := h.uc.CreateOrder(c.Request().Context(), usecase.CreateOrderInput{
		MemberID: req.MemberID,
		Items:    items,
	})
	if err != nil {
		return writeError(c, err)
	}

	return success(c, http.StatusCreated, "order created", toOrderResponse(out))
}

// 新しい順
func (h *OrderHandler) list(c echo.Context) error {
	out, err := h.uc.ListOrders(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toOrderResponses(out))
}

func (h *OrderHandler) listByMember(c echo.Context) error {
	out, err := h.uc.ListOrdersByMember(c.Request().Context(), c.Param("memberId"))
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toOrderResponses(out))
}

func (h *OrderHandler) detail(c echo.Context) error {
	out, err := h.uc.GetOrder(c.Request().Context(), c.Param("orderId"))
	if err != nil {
		return writeError(c, err)
	}
	return success(c, http.StatusOK, "ok", toOrderResponse(out))
}

func toOrderResponse(o usecase.OrderOutput) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			OrderItemSn: it.OrderItemSN,
			ProductID:   it.ProductID,
			ProductName: it.ProductName,
			Quantity:    it.Quantity,
			StandPrice:  Amount(it.StandPrice),
			ItemPrice:   Amount(it.ItemPrice),
		})
	}

	return OrderResponse{
		OrderID:       o.OrderID,
		MemberID:      o.MemberID,
		TotalPrice:    Amount(o.TotalPrice),
		PayStatus:     int(o.PayStatus),
		PayStatusText: o.PayStatus.Text(),
		CreatedAt:     DateTime(o.CreatedAt),
		UpdatedAt:     DateTime(o.UpdatedAt),
		Items:         items,
	}
}

func toOrderResponses(orders []usecase.OrderOutput) []OrderResponse {
	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	return out
}
