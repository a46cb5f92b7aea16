package repository

import (
	"context"

	"ecommerce/internal/domain/model"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderRepository interface {
	// 明細込みで取得
	FindByIDWithDetails(ctx context.Context, orderID string) (model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	ListByMemberID(ctx context.Context, memberID string) ([]model.Order, error)

	Create(ctx context.Context, order model.Order) error
}

type OrderDetailRepository interface {
	CreateBulk(ctx context.Context, orderID string, details []model.OrderDetail) error
}

// 注文作成の明細1行（JSONに詰めて OrderCreator に渡す形）
type OrderItemPayload struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// 在庫再チェック・減算・注文ヘッダ・明細作成をひとつのトランザクションで行う。
// 途中で失敗したら全部ロールバックされる。
type OrderCreator interface {
	CreateOrder(ctx context.Context, orderID string, memberID string, items datatypes.JSON) error
}
