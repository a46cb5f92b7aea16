package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"ecommerce/internal/config"
	"ecommerce/internal/domain/model"
	"ecommerce/internal/handler"
	"ecommerce/internal/server"
	"ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// =====================
// Service mocks
// =====================

type ProductServiceMock struct{ mock.Mock }

func (m *ProductServiceMock) CreateProduct(ctx context.Context, in usecase.CreateProductInput) (model.Product, error) {
	args := m.Called(ctx, in)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductServiceMock) GetProduct(ctx context.Context, productID string) (model.Product, error) {
	args := m.Called(ctx, productID)
	p, _ := args.Get(0).(model.Product)
	return p, args.Error(1)
}

func (m *ProductServiceMock) ListAll(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

func (m *ProductServiceMock) ListAvailable(ctx context.Context) ([]model.Product, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]model.Product)
	return items, args.Error(1)
}

type OrderServiceMock struct{ mock.Mock }

func (m *OrderServiceMock) CreateOrder(ctx context.Context, in usecase.CreateOrderInput) (usecase.OrderOutput, error) {
	args := m.Called(ctx, in)
	o, _ := args.Get(0).(usecase.OrderOutput)
	return o, args.Error(1)
}

func (m *OrderServiceMock) GetOrder(ctx context.Context, orderID string) (usecase.OrderOutput, error) {
	args := m.Called(ctx, orderID)
	o, _ := args.Get(0).(usecase.OrderOutput)
	return o, args.Error(1)
}

func (m *OrderServiceMock) ListOrders(ctx context.Context) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx)
	items, _ := args.Get(0).([]usecase.OrderOutput)
	return items, args.Error(1)
}

func (m *OrderServiceMock) ListOrdersByMember(ctx context.Context, memberID string) ([]usecase.OrderOutput, error) {
	args := m.Called(ctx, memberID)
	items, _ := args.Get(0).([]usecase.OrderOutput)
	return items, args.Error(1)
}

// =====================
// helper
// =====================

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

type testServer struct {
	e        *echo.Echo
	products *ProductServiceMock
	orders   *OrderServiceMock
	pingErr  error
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	ts := &testServer{
		products: new(ProductServiceMock),
		orders:   new(OrderServiceMock),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Config{
		BasePath:         "",
		CORSAllowOrigins: []string{"http://localhost:5173"},
		LogLevel:         "error",
	}

	ts.e = server.New(cfg, logger, server.Handlers{
		Products: handler.NewProductHandler(ts.products),
		Orders:   handler.NewOrderHandler(ts.orders),
		Health: handler.NewHealthHandler(func(ctx context.Context) error {
			return ts.pingErr
		}, logger),
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method string, path string, body string) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), "body=%s", rec.Body.String())
	return rec, env
}

func assertEnvelope(t *testing.T, env map[string]json.RawMessage, wantSuccess bool, wantCode string) {
	t.Helper()

	assert.Equal(t, boolJSON(wantSuccess), string(env["success"]))
	if wantCode == "" {
		assert.NotContains(t, env, "errorCode")
	} else {
		assert.Equal(t, `"`+wantCode+`"`, string(env["errorCode"]))
	}

	var ts string
	require.NoError(t, json.Unmarshal(env["timestamp"], &ts))
	assert.Regexp(t, timestampPattern, ts)
}

func boolJSON(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func sampleProduct() model.Product {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return model.Product{
		ProductID:   "P001",
		ProductName: "Laptop",
		Price:       decimal.NewFromInt(98000),
		Quantity:    10,
		CreatedAt:   at,
		UpdatedAt:   at,
	}
}

func sampleOrder() usecase.OrderOutput {
	at := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return usecase.OrderOutput{
		OrderID:    "Ms20240101120000",
		MemberID:   "12345",
		TotalPrice: decimal.NewFromInt(196000),
		PayStatus:  model.PayStatusUnpaid,
		CreatedAt:  at,
		UpdatedAt:  at,
		Items: []usecase.OrderItemOutput{
			{
				OrderItemSN: 1,
				ProductID:   "P001",
				ProductName: "Laptop",
				Quantity:    2,
				StandPrice:  decimal.NewFromInt(98000),
				ItemPrice:   decimal.NewFromInt(196000),
			},
		},
	}
}

// =====================
// Products
// =====================

func TestProductHandler_Create_Success(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in usecase.CreateProductInput) bool {
		return in.ProductID == "P001" && in.ProductName == "Laptop" &&
			in.Price.Equal(decimal.NewFromInt(98000)) && in.Quantity == 10
	})).Return(sampleProduct(), nil)

	rec, env := ts.do(t, http.MethodPost, "/products",
		`{"productId":"P001","productName":"Laptop","price":98000,"quantity":10}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assertEnvelope(t, env, true, "")

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["data"], &data))
	assert.Equal(t, "98000.00", string(data["price"]))
	assert.Equal(t, `"2024-01-01 12:00:00"`, string(data["createdAt"]))
	assert.Equal(t, "10", string(data["quantity"]))

	ts.products.AssertExpectations(t)
}

// 形式エラーは usecase まで届かない
func TestProductHandler_Create_InvalidProductID(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/products",
		`{"productId":"X1","productName":"Laptop","price":98000,"quantity":10}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, env, false, usecase.CodeValidation)

	var fields map[string]string
	require.NoError(t, json.Unmarshal(env["data"], &fields))
	assert.Contains(t, fields, "productId")

	ts.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
}

func TestProductHandler_Create_FieldErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "missing price", body: `{"productId":"P001","productName":"A","quantity":1}`, field: "price"},
		{name: "zero price", body: `{"productId":"P001","productName":"A","price":0,"quantity":1}`, field: "price"},
		{name: "three decimals", body: `{"productId":"P001","productName":"A","price":1.005,"quantity":1}`, field: "price"},
		{name: "too many digits", body: `{"productId":"P001","productName":"A","price":123456789,"quantity":1}`, field: "price"},
		{name: "negative quantity", body: `{"productId":"P001","productName":"A","price":1,"quantity":-1}`, field: "quantity"},
		{name: "missing quantity", body: `{"productId":"P001","productName":"A","price":1}`, field: "quantity"},
		{name: "blank name", body: `{"productId":"P001","productName":"","price":1,"quantity":1}`, field: "productName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec, env := ts.do(t, http.MethodPost, "/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assertEnvelope(t, env, false, usecase.CodeValidation)

			var fields map[string]string
			require.NoError(t, json.Unmarshal(env["data"], &fields))
			assert.Contains(t, fields, tt.field)
			ts.products.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestProductHandler_Create_Conflict(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("CreateProduct", mock.Anything, mock.Anything).
		Return(model.Product{}, usecase.NewConflictError(usecase.CodeProductAlreadyExists, "product already exists: P001"))

	rec, env := ts.do(t, http.MethodPost, "/products",
		`{"productId":"P001","productName":"Laptop","price":98000,"quantity":10}`)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assertEnvelope(t, env, false, usecase.CodeProductAlreadyExists)
	assert.NotContains(t, env, "data")
}

// タグは落として usecase に渡す
func TestProductHandler_Create_StripsHTML(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("CreateProduct", mock.Anything, mock.MatchedBy(func(in usecase.CreateProductInput) bool {
		return in.ProductName == "Laptop"
	})).Return(sampleProduct(), nil)

	rec, _ := ts.do(t, http.MethodPost, "/products",
		`{"productId":"P001","productName":"<b>Laptop</b>","price":98000,"quantity":10}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	ts.products.AssertExpectations(t)
}

func TestProductHandler_Create_MalformedJSON(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodPost, "/products", `{"productId":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, env, false, handler.CodeBind)
}

func TestProductHandler_Detail_NotFound(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("GetProduct", mock.Anything, "P999").
		Return(model.Product{}, usecase.NewNotFoundError(usecase.CodeProductNotFound, "product not found: P999"))

	rec, env := ts.do(t, http.MethodGet, "/products/P999", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, env, false, usecase.CodeProductNotFound)
	assert.NotContains(t, env, "data")
	assert.Equal(t, `"product not found: P999"`, string(env["message"]))
}

func TestProductHandler_ListAvailable_RoutesBeforeDetail(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("ListAvailable", mock.Anything).Return([]model.Product{sampleProduct()}, nil)

	rec, env := ts.do(t, http.MethodGet, "/products/available", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assertEnvelope(t, env, true, "")

	var data []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["data"], &data))
	require.Len(t, data, 1)
	assert.Equal(t, `"P001"`, string(data[0]["productId"]))
	ts.products.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
}

func TestProductHandler_List_EmptyIsArray(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("ListAll", mock.Anything).Return([]model.Product{}, nil)

	rec, env := ts.do(t, http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", string(env["data"]))
}

func TestProductHandler_InternalErrorHidesCause(t *testing.T) {
	ts := newTestServer(t)

	ts.products.On("ListAll", mock.Anything).Return(nil, usecase.NewInternalError(errors.New("pq: password authentication failed")))

	rec, env := ts.do(t, http.MethodGet, "/products", "")

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assertEnvelope(t, env, false, usecase.CodeInternal)
	assert.NotContains(t, rec.Body.String(), "password")
}

// =====================
// Orders
// =====================

func TestOrderHandler_Create_Success(t *testing.T) {
	ts := newTestServer(t)

	ts.orders.On("CreateOrder", mock.Anything, mock.MatchedBy(func(in usecase.CreateOrderInput) bool {
		return in.MemberID == "12345" && len(in.Items) == 1 &&
			in.Items[0].ProductID == "P001" && in.Items[0].Quantity == 2 &&
			in.Items[0].Price.Equal(decimal.NewFromInt(98000))
	})).Return(sampleOrder(), nil)

	rec, env := ts.do(t, http.MethodPost, "/orders",
		`{"memberId":"12345","items":[{"productId":"P001","quantity":2,"price":98000.00}]}`)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assertEnvelope(t, env, true, "")

	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["data"], &data))
	assert.Equal(t, `"Ms20240101120000"`, string(data["orderId"]))
	assert.Equal(t, "196000.00", string(data["totalPrice"]))
	assert.Equal(t, "0", string(data["payStatus"]))
	assert.Equal(t, `"UNPAID"`, string(data["payStatusText"]))

	var items []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data["items"], &items))
	require.Len(t, items, 1)
	assert.Equal(t, "98000.00", string(items[0]["standPrice"]))
	assert.Equal(t, "196000.00", string(items[0]["itemPrice"]))
	assert.Equal(t, `"Laptop"`, string(items[0]["productName"]))

	ts.orders.AssertExpectations(t)
}

func TestOrderHandler_Create_ValidationErrors(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{name: "no member", body: `{"items":[{"productId":"P001","quantity":1,"price":1}]}`, field: "memberId"},
		{name: "empty items", body: `{"memberId":"12345","items":[]}`, field: "items"},
		{name: "zero quantity", body: `{"memberId":"12345","items":[{"productId":"P001","quantity":0,"price":1}]}`, field: "items[0].quantity"},
		{name: "negative price", body: `{"memberId":"12345","items":[{"productId":"P001","quantity":1,"price":-1}]}`, field: "items[0].price"},
		{name: "quantity over limit", body: `{"memberId":"12345","items":[{"productId":"P001","quantity":100000,"price":1}]}`, field: "items[0].quantity"},
		{name: "missing price", body: `{"memberId":"12345","items":[{"productId":"P001","quantity":1}]}`, field: "items[0].price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t)

			rec, env := ts.do(t, http.MethodPost, "/orders", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assertEnvelope(t, env, false, usecase.CodeValidation)

			var fields map[string]string
			require.NoError(t, json.Unmarshal(env["data"], &fields))
			assert.Contains(t, fields, tt.field)
			ts.orders.AssertNotCalled(t, "CreateOrder", mock.Anything, mock.Anything)
		})
	}
}

func TestOrderHandler_Create_BusinessRule(t *testing.T) {
	ts := newTestServer(t)

	ts.orders.On("CreateOrder", mock.Anything, mock.Anything).
		Return(usecase.OrderOutput{}, usecase.NewBusinessError(usecase.CodePriceMismatch, "price mismatch: Laptop, expected 98000.00, got 97000.00", nil))

	rec, env := ts.do(t, http.MethodPost, "/orders",
		`{"memberId":"12345","items":[{"productId":"P001","quantity":2,"price":97000.00}]}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assertEnvelope(t, env, false, usecase.CodePriceMismatch)
	assert.Contains(t, string(env["message"]), "97000.00")
}

func TestOrderHandler_ListByMember(t *testing.T) {
	ts := newTestServer(t)

	ts.orders.On("ListOrdersByMember", mock.Anything, "12345").Return([]usecase.OrderOutput{sampleOrder()}, nil)

	rec, env := ts.do(t, http.MethodGet, "/orders/member/12345", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var data []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["data"], &data))
	require.Len(t, data, 1)
	ts.orders.AssertNotCalled(t, "GetOrder", mock.Anything, mock.Anything)
}

// 商品が消えていたら productName は出さない
func TestOrderHandler_Detail_OmitsMissingProductName(t *testing.T) {
	ts := newTestServer(t)

	o := sampleOrder()
	o.Items[0].ProductName = ""
	ts.orders.On("GetOrder", mock.Anything, "Ms20240101120000").Return(o, nil)

	rec, env := ts.do(t, http.MethodGet, "/orders/Ms20240101120000", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	var data map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env["data"], &data))
	var items []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data["items"], &items))
	require.Len(t, items, 1)
	assert.NotContains(t, items[0], "productName")
}

// =====================
// Framework errors / health
// =====================

func TestUnknownRoute_ReturnsEnvelope(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/nope", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assertEnvelope(t, env, false, handler.CodeResourceNotFound)
}

func TestWrongMethod_HasErrorCode(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodDelete, "/products", "")

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assertEnvelope(t, env, false, handler.CodeMethodNotAllowed)
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)

	rec, env := ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assertEnvelope(t, env, true, "")

	ts.pingErr = errors.New("dial tcp: connection refused")
	rec, env = ts.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "false", string(env["success"]))
}
