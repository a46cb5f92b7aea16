package validator

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"ecommerce/internal/usecase"

	playground "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var productIDPattern = regexp.MustCompile(`^P\d{3,}$`)

const (
	// decimal(10,2)
	maxIntegerDigits  = 8
	maxFractionDigits = 2
)

// echo.Validator の実装。エラーは usecase の Validation エラーにして返す。
type RequestValidator struct {
	v *playground.Validate
}

func NewRequestValidator() *RequestValidator {
	v := playground.New(playground.WithRequiredStructEnabled())

	//エラーの項目名はjsonの名前で出す
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	//decimal は文字列として検証する
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			return d.String()
		}
		return nil
	}, decimal.Decimal{})

	_ = v.RegisterValidation("product_id", func(fl playground.FieldLevel) bool {
		return productIDPattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("price", func(fl playground.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && d.IsPositive() && withinMoneyDigits(d)
	})
	_ = v.RegisterValidation("unit_price", func(fl playground.FieldLevel) bool {
		d, ok := fieldDecimal(fl)
		return ok && !d.IsNegative() && withinMoneyDigits(d)
	})

	return &RequestValidator{v: v}
}

func (rv *RequestValidator) Validate(i interface{}) error {
	err := rv.v.Struct(i)
	if err == nil {
		return nil
	}

	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) {
		return usecase.NewValidationError("invalid input", fieldMessages(verrs))
	}
	return err
}

func fieldDecimal(fl playground.FieldLevel) (decimal.Decimal, bool) {
	d, err := decimal.NewFromString(fl.Field().String())
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// 整数部8桁・小数部2桁まで
func withinMoneyDigits(d decimal.Decimal) bool {
	if !d.Equal(d.Round(maxFractionDigits)) {
		return false
	}
	intPart := d.Abs().Truncate(0).String()
	return len(intPart) <= maxIntegerDigits
}

// "CreateOrderRequest.items[0].quantity" -> "items[0].quantity"
func fieldMessages(verrs playground.ValidationErrors) map[string]string {
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		key := fe.Namespace()
		if i := strings.Index(key, "."); i >= 0 {
			key = key[i+1:]
		}
		if _, exists := out[key]; exists {
			continue
		}
		out[key] = message(fe)
	}
	return out
}

func message(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be >= %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at most %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be <= %s", fe.Param())
	case "product_id":
		return "must be 'P' followed by at least 3 digits"
	case "price":
		return "must be greater than 0 with at most 8 integer digits and 2 decimal places"
	case "unit_price":
		return "must be >= 0 with at most 8 integer digits and 2 decimal places"
	default:
		return "is invalid"
	}
}
