package repository

import (
	"context"
	"errors"

	"ecommerce/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")

	// 主キー重複（商品IDや注文IDの衝突）
	ErrDuplicate = errors.New("duplicate key")

	// 在庫不足（条件付き減算が0件、またはCHECK制約違反）
	ErrInsufficientStock = errors.New("insufficient stock")

	// トランザクション内で見た価格が検証時と違う
	ErrPriceChanged = errors.New("price changed")
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	FindByID(ctx context.Context, productID string) (model.Product, error)
	// 行ロック付き取得（トランザクション内でのみ使う）
	FindByIDForUpdate(ctx context.Context, productID string) (model.Product, error)
	FindByIDs(ctx context.Context, productIDs []string) ([]model.Product, error)
	ListAll(ctx context.Context) ([]model.Product, error)
	ListAvailable(ctx context.Context) ([]model.Product, error)

	Create(ctx context.Context, p model.Product) error
}
