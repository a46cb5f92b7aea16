package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ecommerce/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

const dateTimeLayout = "2006-01-02 15:04:05"

// handler 側だけで使う errorCode
const (
	CodeBind             = "BIND_ERROR"
	CodeResourceNotFound = "RESOURCE_NOT_FOUND"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
)

// テストで差し替える
var now = time.Now

// 全レスポンス共通の形。空の項目は出さない。
type Envelope struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
	Timestamp DateTime    `json:"timestamp"`
}

// "2024-01-01 12:00:00"
type DateTime time.Time

func (t DateTime) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).Format(dateTimeLayout) + `"`), nil
}

// 金額は小数2桁の数値で出す（98000 -> 98000.00）
type Amount decimal.Decimal

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).StringFixed(2)), nil
}

func success(c echo.Context, status int, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: DateTime(now()),
	})
}

func failure(c echo.Context, status int, code string, message string, data interface{}) error {
	return c.JSON(status, Envelope{
		Success:   false,
		Message:   message,
		Data:      data,
		ErrorCode: code,
		Timestamp: DateTime(now()),
	})
}

// usecase のエラーを envelope に変換して返す
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if ae, ok := usecase.AsAppError(err); ok {
		if ae.Kind == usecase.KindValidation && len(ae.Fields) > 0 {
			return failure(c, ae.Status(), ae.Code, ae.Message, ae.Fields)
		}
		return failure(c, ae.Status(), ae.Code, ae.Message, nil)
	}

	//500
	return failure(c, http.StatusInternalServerError, usecase.CodeInternal, "internal error", nil)
}

// JSONが壊れている、型が違うなど
func writeBindError(c echo.Context, err error) error {
	msg := "invalid request body"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if m, ok := he.Message.(string); ok && m != "" {
			msg = m
		}
	}
	return failure(c, http.StatusBadRequest, CodeBind, msg, nil)
}

// handler の外で起きたエラー（ルートなし、405、panic など）も envelope で返す
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		var respErr error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &he):
			respErr = writeHTTPError(c, he)
		default:
			if ae, ok := usecase.AsAppError(err); !ok || ae.Kind == usecase.KindInternal {
				logger.ErrorContext(c.Request().Context(), "unhandled error", "error", err)
			}
			respErr = writeError(c, err)
		}
		if respErr != nil {
			logger.ErrorContext(c.Request().Context(), "write error response failed", "error", respErr)
		}
	}
}

func writeHTTPError(c echo.Context, he *echo.HTTPError) error {
	msg := http.StatusText(he.Code)
	if m, ok := he.Message.(string); ok && m != "" {
		msg = m
	}

	switch {
	case he.Code == http.StatusNotFound:
		return failure(c, he.Code, CodeResourceNotFound, "resource not found", nil)
	case he.Code == http.StatusBadRequest:
		return failure(c, he.Code, CodeBind, msg, nil)
	case he.Code >= http.StatusInternalServerError:
		return failure(c, he.Code, usecase.CodeInternal, "internal error", nil)
	case he.Code == http.StatusMethodNotAllowed:
		return failure(c, he.Code, CodeMethodNotAllowed, msg, nil)
	default:
		return failure(c, he.Code, statusCode(he.Code), msg, nil)
	}
}

// 415 -> "UNSUPPORTED_MEDIA_TYPE"
func statusCode(status int) string {
	text := http.StatusText(status)
	if text == "" {
		return "HTTP_ERROR"
	}
	return strings.ToUpper(strings.NewReplacer(" ", "_", "-", "_", "'", "").Replace(text))
}
