package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"ecommerce/internal/domain/model"
	repo "ecommerce/internal/repository"
	"ecommerce/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/datatypes"
)

// =====================
// Repository mocks
// =====================

type ProductRepoMock struct{ mock.Mock }

func (m *ProductRepoMock) FindByID(ctx context.Context, productID string) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductRepoMock) FindByIDForUpdate(ctx context.Context, productID string) (model.Product, error) {
	panic("not used in usecase tests")
}

func (m *ProductRepoMock) FindByIDs(ctx context.Context, productIDs []string) ([]model.Product, error) {
	args := m.Called(ctx, productIDs)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) ListAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) ListAvailable(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductRepoMock) Create(ctx context.Context, p model.Product) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type OrderRepoMock struct{ mock.Mock }

func (m *OrderRepoMock) FindByIDWithDetails(ctx context.Context, orderID string) (model.Order, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(model.Order)
	return o, args.Error(1)
}

func (m *OrderRepoMock) ListAll(ctx context.Context) ([]model.Order, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Error(1)
}

func (m *OrderRepoMock) ListByMemberID(ctx context.Context, memberID string) ([]model.Order, error) {
	args := m.Called(ctx, memberID)
	items, _ := args.Get(0).([]model.Order)
	return items, args.Error(1)
}

func (m *OrderRepoMock) Create(ctx context.Context, order model.Order) error {
	panic("not used in usecase tests")
}

type InventoryRepoMock struct{ mock.Mock }

func (m *InventoryRepoMock) Decrease(ctx context.Context, productID string, qty int) error {
	args := m.Called(ctx, productID, qty)
	return args.Error(0)
}

func (m *InventoryRepoMock) DecreaseIfEnough(ctx context.Context, productID string, qty int) (bool, error) {
	panic("not used in usecase tests")
}

func (m *InventoryRepoMock) CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error {
	args := m.Called(ctx, adjustment)
	return args.Error(0)
}

type OrderCreatorMock struct{ mock.Mock }

func (m *OrderCreatorMock) CreateOrder(ctx context.Context, orderID string, memberID string, items datatypes.JSON) error {
	args := m.Called(ctx, orderID, memberID, items)
	return args.Error(0)
}

// =====================
// TxManager / TxRepos mocks
// =====================

// WithinTx の中で渡す repos を固定する
type TxManagerMock struct {
	mock.Mock
	Repos repo.TxRepos
}

func (m *TxManagerMock) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	m.Called(ctx)
	return fn(m.Repos)
}

type TxReposMock struct {
	inventory repo.InventoryRepository
	products  repo.ProductRepository
}

func (r *TxReposMock) Orders() repo.OrderRepository             { return nil }
func (r *TxReposMock) OrderDetails() repo.OrderDetailRepository { return nil }
func (r *TxReposMock) Inventory() repo.InventoryRepository      { return r.inventory }
func (r *TxReposMock) Products() repo.ProductRepository         { return r.products }

type fixedOrderID string

func (f fixedOrderID) NewOrderID() string { return string(f) }

var (
	_ repo.ProductRepository   = (*ProductRepoMock)(nil)
	_ repo.OrderRepository     = (*OrderRepoMock)(nil)
	_ repo.InventoryRepository = (*InventoryRepoMock)(nil)
	_ repo.OrderCreator        = (*OrderCreatorMock)(nil)
	_ repo.TransactionManager  = (*TxManagerMock)(nil)
)

// =====================
// helper
// =====================

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func assertErrContains(t *testing.T, err error, wantSubstr string) {
	t.Helper()
	if assert.Error(t, err) {
		assert.True(t, strings.Contains(err.Error(), wantSubstr), "err=%q want contains %q", err.Error(), wantSubstr)
	}
}

func assertAppError(t *testing.T, err error, kind usecase.ErrorKind, code string) *usecase.AppError {
	t.Helper()
	ae, ok := usecase.AsAppError(err)
	if !assert.True(t, ok, "want *usecase.AppError, got %v", err) {
		return nil
	}
	assert.Equal(t, kind, ae.Kind)
	assert.Equal(t, code, ae.Code)
	return ae
}
