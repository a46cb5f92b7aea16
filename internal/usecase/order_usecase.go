package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"ecommerce/internal/domain/model"
	repo "ecommerce/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// 1行あたりの数量と行数の上限。単価の上限(99,999,999.99)と掛けても
// item_price / total_price の decimal(20,2) に収まる。
const (
	MaxOrderQuantity = 99999
	MaxOrderItems    = 100
)

type OrderUsecase struct {
	products repo.ProductRepository
	orders   repo.OrderRepository
	creator  repo.OrderCreator
	ids      OrderIDGenerator
	logger   *slog.Logger
}

func NewOrderUsecase(
	products repo.ProductRepository,
	orders repo.OrderRepository,
	creator repo.OrderCreator,
	ids OrderIDGenerator,
	logger *slog.Logger,
) *OrderUsecase {
	return &OrderUsecase{
		products: products,
		orders:   orders,
		creator:  creator,
		ids:      ids,
		logger:   logger,
	}
}

type OrderItemInput struct {
	ProductID string
	Quantity  int
	Price     decimal.Decimal
}

type CreateOrderInput struct {
	MemberID string
	Items    []OrderItemInput
}

type OrderItemOutput struct {
	OrderItemSN int64
	ProductID   string
	// 商品が削除済みなら空
	ProductName string
	Quantity    int
	StandPrice  decimal.Decimal
	ItemPrice   decimal.Decimal
}

type OrderOutput struct {
	OrderID    string
	MemberID   string
	TotalPrice decimal.Decimal
	PayStatus  model.PayStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Items      []OrderItemOutput
}

func (u *OrderUsecase) CreateOrder(ctx context.Context, in CreateOrderInput) (OrderOutput, error) {
	memberID := strings.TrimSpace(in.MemberID)
	if memberID == "" {
		return OrderOutput{}, NewValidationError("invalid input", map[string]string{"memberId": "memberId is required"})
	}
	if len(in.Items) == 0 {
		return OrderOutput{}, NewValidationError("invalid input", map[string]string{"items": "items must not be empty"})
	}
	if len(in.Items) > MaxOrderItems {
		return OrderOutput{}, NewValidationError("invalid input", map[string]string{
			"items": fmt.Sprintf("items must contain at most %d lines", MaxOrderItems),
		})
	}
	for i, it := range in.Items {
		if it.Quantity < 1 || it.Quantity > MaxOrderQuantity {
			return OrderOutput{}, NewValidationError("invalid input", map[string]string{
				fmt.Sprintf("items[%d].quantity", i): fmt.Sprintf("quantity must be between 1 and %d", MaxOrderQuantity),
			})
		}
		if it.Price.IsNegative() {
			return OrderOutput{}, NewValidationError("invalid input", map[string]string{
				fmt.Sprintf("items[%d].price", i): "price must be >= 0",
			})
		}
	}

	u.logger.InfoContext(ctx, "creating order", "member_id", memberID, "item_count", len(in.Items))

	//商品の存在・在庫・価格を確認（ここではまだ何も更新しない）
	if err := u.validateOrderItems(ctx, in.Items); err != nil {
		return OrderOutput{}, err
	}

	orderID := u.ids.NewOrderID()

	itemsJSON, err := encodeOrderItems(in.Items)
	if err != nil {
		return OrderOutput{}, NewInternalError(err)
	}
	u.logger.DebugContext(ctx, "order items", "order_id", orderID, "items", string(itemsJSON))

	//在庫再チェック＋減算＋注文＋明細をひとつのトランザクションで
	if err := u.creator.CreateOrder(ctx, orderID, memberID, itemsJSON); err != nil {
		u.logger.ErrorContext(ctx, "create order failed", "order_id", orderID, "error", err)
		return OrderOutput{}, classifyCreateError(err)
	}

	u.logger.InfoContext(ctx, "order created", "order_id", orderID)

	//作成した注文を明細込みで読み直す
	o, err := u.orders.FindByIDWithDetails(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewNotFoundError(CodeOrderNotFound, "order not found after create: "+orderID)
	}
	if err != nil {
		return OrderOutput{}, NewInternalError(err)
	}

	outs, err := u.toOrderOutputs(ctx, []model.Order{o})
	if err != nil {
		return OrderOutput{}, err
	}
	return outs[0], nil
}

func (u *OrderUsecase) GetOrder(ctx context.Context, orderID string) (OrderOutput, error) {
	o, err := u.orders.FindByIDWithDetails(ctx, orderID)
	if errors.Is(err, repo.ErrNotFound) {
		return OrderOutput{}, NewNotFoundError(CodeOrderNotFound, "order not found: "+orderID)
	}
	if err != nil {
		return OrderOutput{}, NewInternalError(err)
	}

	outs, err := u.toOrderOutputs(ctx, []model.Order{o})
	if err != nil {
		return OrderOutput{}, err
	}
	return outs[0], nil
}

func (u *OrderUsecase) ListOrders(ctx context.Context) ([]OrderOutput, error) {
	orders, err := u.orders.ListAll(ctx)
	if err != nil {
		return []OrderOutput{}, NewInternalError(err)
	}
	return u.toOrderOutputs(ctx, orders)
}

func (u *OrderUsecase) ListOrdersByMember(ctx context.Context, memberID string) ([]OrderOutput, error) {
	orders, err := u.orders.ListByMemberID(ctx, memberID)
	if err != nil {
		return []OrderOutput{}, NewInternalError(err)
	}
	return u.toOrderOutputs(ctx, orders)
}

// 1件でもだめなら全体を拒否
func (u *OrderUsecase) validateOrderItems(ctx context.Context, items []OrderItemInput) error {
	for _, it := range items {
		p, err := u.products.FindByID(ctx, it.ProductID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewNotFoundError(CodeProductNotFound, "product not found: "+it.ProductID)
		}
		if err != nil {
			return NewInternalError(err)
		}

		if p.Quantity < it.Quantity {
			return NewBusinessError(CodeInsufficientStock, fmt.Sprintf(
				"insufficient stock: %s, requested %d, remaining %d",
				p.ProductName, it.Quantity, p.Quantity,
			), nil)
		}

		//価格の改ざんチェック（98000 と 98000.00 は同じ扱い）
		if !p.Price.Equal(it.Price) {
			return NewBusinessError(CodePriceMismatch, fmt.Sprintf(
				"price mismatch: %s, expected %s, got %s",
				p.ProductName, p.Price.StringFixed(2), it.Price.StringFixed(2),
			), nil)
		}
	}
	return nil
}

// [{"productId":"P001","quantity":2,"price":"98000"}]
func encodeOrderItems(items []OrderItemInput) (datatypes.JSON, error) {
	payload := make([]repo.OrderItemPayload, 0, len(items))
	for _, it := range items {
		payload = append(payload, repo.OrderItemPayload{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price,
		})
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode order items: %w", err)
	}
	return datatypes.JSON(b), nil
}

// トランザクション内で業務ルール違反になったものは400、それ以外（DB障害など）は500
func classifyCreateError(err error) error {
	switch {
	case errors.Is(err, repo.ErrInsufficientStock),
		errors.Is(err, repo.ErrPriceChanged),
		errors.Is(err, repo.ErrNotFound),
		errors.Is(err, repo.ErrDuplicate):
		return NewBusinessError(CodeOrderCreateFailed, "failed to create order: "+err.Error(), err)
	default:
		return NewInternalError(err)
	}
}

func (u *OrderUsecase) toOrderOutputs(ctx context.Context, orders []model.Order) ([]OrderOutput, error) {
	//商品名はまとめて引く
	ids := make([]string, 0)
	seen := make(map[string]bool)
	for _, o := range orders {
		for _, d := range o.Details {
			if !seen[d.ProductID] {
				seen[d.ProductID] = true
				ids = append(ids, d.ProductID)
			}
		}
	}

	names := make(map[string]string, len(ids))
	if len(ids) > 0 {
		products, err := u.products.FindByIDs(ctx, ids)
		if err != nil {
			return []OrderOutput{}, NewInternalError(err)
		}
		for _, p := range products {
			names[p.ProductID] = p.ProductName
		}
	}

	outs := make([]OrderOutput, 0, len(orders))
	for _, o := range orders {
		outs = append(outs, toOrderOutput(o, names))
	}
	return outs, nil
}

func toOrderOutput(o model.Order, names map[string]string) OrderOutput {
	items := make([]OrderItemOutput, 0, len(o.Details))
	for _, d := range o.Details {
		items = append(items, OrderItemOutput{
			OrderItemSN: d.OrderItemSN,
			ProductID:   d.ProductID,
			ProductName: names[d.ProductID],
			Quantity:    d.Quantity,
			StandPrice:  d.StandPrice,
			ItemPrice:   d.ItemPrice,
		})
	}

	return OrderOutput{
		OrderID:    o.OrderID,
		MemberID:   o.MemberID,
		TotalPrice: o.TotalPrice,
		PayStatus:  o.PayStatus,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		Items:      items,
	}
}
