package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindNotFound
	KindBusinessRule
	KindConflict
	KindInternal
)

// クライアントに返す errorCode
const (
	CodeValidation            = "VALIDATION_ERROR"
	CodeProductNotFound       = "PRODUCT_NOT_FOUND"
	CodeOrderNotFound         = "ORDER_NOT_FOUND"
	CodeInsufficientStock     = "INSUFFICIENT_STOCK"
	CodePriceMismatch         = "PRICE_MISMATCH"
	CodeProductAlreadyExists  = "PRODUCT_ALREADY_EXISTS"
	CodeOrderCreateFailed     = "ORDER_CREATE_FAILED"
	CodeInventoryUpdateFailed = "INVENTORY_UPDATE_FAILED"
	CodeInternal              = "INTERNAL_SERVER_ERROR"
)

// usecaseが返すエラー。Kind で HTTP ステータスが決まる。
type AppError struct {
	Kind    ErrorKind
	Code    string
	Message string
	// 項目ごとの入力エラー（Validationのみ）
	Fields map[string]string
	Err    error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) Status() int {
	switch e.Kind {
	case KindValidation, KindBusinessRule:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	ok := errors.As(err, &ae)
	return ae, ok
}

func NewValidationError(message string, fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Code: CodeValidation, Message: message, Fields: fields}
}

func NewNotFoundError(code string, message string) *AppError {
	return &AppError{Kind: KindNotFound, Code: code, Message: message}
}

func NewBusinessError(code string, message string, err error) *AppError {
	return &AppError{Kind: KindBusinessRule, Code: code, Message: message, Err: err}
}

func NewConflictError(code string, message string) *AppError {
	return &AppError{Kind: KindConflict, Code: code, Message: message}
}

// 中身はログにだけ出す。クライアントには固定メッセージ。
func NewInternalError(err error) *AppError {
	return &AppError{Kind: KindInternal, Code: CodeInternal, Message: "internal error", Err: err}
}
