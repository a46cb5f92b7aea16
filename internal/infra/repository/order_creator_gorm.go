package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"ecommerce/internal/domain/model"
	repo "ecommerce/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const reasonOrderPlaced = "order placed"

// 注文作成をひとつのトランザクションで行う。
// 在庫の再チェック→減算→注文ヘッダ→明細→在庫履歴、どこかで失敗したら全部ロールバック。
type OrderCreatorGorm struct {
	tx repo.TransactionManager
}

func NewOrderCreatorGorm(tx repo.TransactionManager) *OrderCreatorGorm {
	return &OrderCreatorGorm{tx: tx}
}

func (c *OrderCreatorGorm) CreateOrder(ctx context.Context, orderID string, memberID string, items datatypes.JSON) error {
	var payload []repo.OrderItemPayload
	if err := json.Unmarshal(items, &payload); err != nil {
		return fmt.Errorf("decode order items: %w", err)
	}
	if len(payload) == 0 {
		return errors.New("order items empty")
	}
	for _, it := range payload {
		if it.Quantity < 1 {
			return fmt.Errorf("invalid quantity %d for product %s", it.Quantity, it.ProductID)
		}
	}

	return c.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		//行ロックは商品ID順に取る（同時注文でのデッドロック回避）
		locked, err := lockProducts(ctx, r.Products(), payload)
		if err != nil {
			return err
		}

		total := decimal.Zero
		details := make([]model.OrderDetail, 0, len(payload))

		for _, it := range payload {
			p := locked[it.ProductID]

			//検証後に価格が変わっていないか
			if !p.Price.Equal(it.Price) {
				return fmt.Errorf("product %s: %w", it.ProductID, repo.ErrPriceChanged)
			}

			//在庫減算（足りないなら false）
			ok, err := r.Inventory().DecreaseIfEnough(ctx, it.ProductID, it.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("product %s: %w", it.ProductID, repo.ErrInsufficientStock)
			}

			//スナップショット
			itemPrice := p.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
			details = append(details, model.OrderDetail{
				ProductID:  it.ProductID,
				Quantity:   it.Quantity,
				StandPrice: p.Price,
				ItemPrice:  itemPrice,
			})
			total = total.Add(itemPrice)
		}

		// 注文作成（同じ秒の注文IDは主キーで弾かれる）
		if err := r.Orders().Create(ctx, model.Order{
			OrderID:    orderID,
			MemberID:   memberID,
			TotalPrice: total,
			PayStatus:  model.PayStatusUnpaid,
		}); err != nil {
			return err
		}

		if err := r.OrderDetails().CreateBulk(ctx, orderID, details); err != nil {
			return err
		}

		for _, d := range details {
			oid := orderID
			if err := r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
				ProductID: d.ProductID,
				OrderID:   &oid,
				Delta:     -d.Quantity,
				Reason:    reasonOrderPlaced,
			}); err != nil {
				return err
			}
		}
		return nil
	})
}

func lockProducts(ctx context.Context, products repo.ProductRepository, payload []repo.OrderItemPayload) (map[string]model.Product, error) {
	ids := make([]string, 0, len(payload))
	seen := make(map[string]bool, len(payload))
	for _, it := range payload {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}
	sort.Strings(ids)

	locked := make(map[string]model.Product, len(ids))
	for _, id := range ids {
		p, err := products.FindByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return nil, fmt.Errorf("product %s: %w", id, repo.ErrNotFound)
			}
			return nil, err
		}
		locked[id] = p
	}
	return locked, nil
}
