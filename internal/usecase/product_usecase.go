package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"ecommerce/internal/domain/model"
	repo "ecommerce/internal/repository"

	"github.com/shopspring/decimal"
)

const reasonManualDecrement = "inventory decrement"

type ProductUsecase struct {
	products repo.ProductRepository
	tx       repo.TransactionManager
	logger   *slog.Logger
}

// DI
func NewProductUsecase(products repo.ProductRepository, tx repo.TransactionManager, logger *slog.Logger) *ProductUsecase {
	return &ProductUsecase{
		products: products,
		tx:       tx,
		logger:   logger,
	}
}

// POST /products の入力（形式チェックはhandler側のvalidatorで済んでいる前提）
type CreateProductInput struct {
	ProductID   string
	ProductName string
	Price       decimal.Decimal
	Quantity    int
}

func (u *ProductUsecase) CreateProduct(ctx context.Context, in CreateProductInput) (model.Product, error) {
	productID := strings.TrimSpace(in.ProductID)
	name := strings.TrimSpace(in.ProductName)
	if productID == "" {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"productId": "productId is required"})
	}
	if name == "" {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"productName": "productName is required"})
	}
	if !in.Price.IsPositive() {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"price": "price must be greater than 0"})
	}
	if in.Quantity < 0 {
		return model.Product{}, NewValidationError("invalid input", map[string]string{"quantity": "quantity must be >= 0"})
	}

	u.logger.InfoContext(ctx, "creating product", "product_id", productID)

	err := u.products.Create(ctx, model.Product{
		ProductID:   productID,
		ProductName: name,
		Price:       in.Price.Round(2),
		Quantity:    in.Quantity,
	})
	if errors.Is(err, repo.ErrDuplicate) {
		return model.Product{}, NewConflictError(CodeProductAlreadyExists, "product already exists: "+productID)
	}
	if err != nil {
		u.logger.ErrorContext(ctx, "create product failed", "product_id", productID, "error", err)
		return model.Product{}, NewInternalError(err)
	}

	//作成後に読み直して返す
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError(CodeProductNotFound, "product not found after create: "+productID)
	}
	if err != nil {
		return model.Product{}, NewInternalError(err)
	}

	u.logger.InfoContext(ctx, "product created", "product_id", productID)
	return p, nil
}

func (u *ProductUsecase) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	p, err := u.products.FindByID(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.Product{}, NewNotFoundError(CodeProductNotFound, "product not found: "+productID)
	}
	if err != nil {
		return model.Product{}, NewInternalError(err)
	}
	return p, nil
}

func (u *ProductUsecase) ListAll(ctx context.Context) ([]model.Product, error) {
	products, err := u.products.ListAll(ctx)
	if err != nil {
		return []model.Product{}, NewInternalError(err)
	}
	return products, nil
}

// 在庫 > 0 のみ
func (u *ProductUsecase) ListAvailable(ctx context.Context) ([]model.Product, error) {
	products, err := u.products.ListAvailable(ctx)
	if err != nil {
		return []model.Product{}, NewInternalError(err)
	}
	u.logger.DebugContext(ctx, "available products", "count", len(products))
	return products, nil
}

// 在庫を amount だけ減らす。ここでは残数チェックをしない（マイナスはDB制約で弾かれる）。
// 減算と履歴作成は同じトランザクション。
func (u *ProductUsecase) DecrementInventory(ctx context.Context, productID string, amount int) error {
	if amount <= 0 {
		return NewValidationError("invalid input", map[string]string{"quantity": "quantity must be >= 1"})
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		if err := r.Inventory().Decrease(ctx, productID, amount); err != nil {
			return err
		}
		return r.Inventory().CreateAdjustment(ctx, model.InventoryAdjustment{
			ProductID: productID,
			Delta:     -amount,
			Reason:    reasonManualDecrement,
		})
	})
	switch {
	case err == nil:
		u.logger.InfoContext(ctx, "inventory decremented", "product_id", productID, "amount", amount)
		return nil
	case errors.Is(err, repo.ErrNotFound):
		return NewNotFoundError(CodeProductNotFound, "product not found: "+productID)
	case errors.Is(err, repo.ErrInsufficientStock):
		return NewBusinessError(CodeInventoryUpdateFailed, fmt.Sprintf("failed to update inventory: %s", err.Error()), err)
	default:
		u.logger.ErrorContext(ctx, "decrement inventory failed", "product_id", productID, "error", err)
		return NewInternalError(err)
	}
}
