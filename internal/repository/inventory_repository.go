package repository

import (
	"context"

	"ecommerce/internal/domain/model"
)

type InventoryRepository interface {
	// 無条件で減算（負数はDBのCHECK制約で弾く）
	Decrease(ctx context.Context, productID string, qty int) error

	// 在庫が足りるときだけ減算
	DecreaseIfEnough(ctx context.Context, productID string, qty int) (bool, error)

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}
