package middleware

import (
	"net/http"
	"reflect"

	"github.com/labstack/echo/v4"
	"github.com/microcosm-cc/bluemonday"
)

// HTMLを全部落とす。JSONボディ・パスパラメータ・クエリ・ヘッダで同じポリシーを使う。
type Sanitizer struct {
	policy *bluemonday.Policy
}

func NewSanitizer() *Sanitizer {
	return &Sanitizer{policy: bluemonday.StrictPolicy()}
}

func (s *Sanitizer) Clean(v string) string {
	if v == "" {
		return v
	}
	return s.policy.Sanitize(v)
}

// 通信制御系のヘッダは触らない
var transportHeaders = map[string]bool{
	echo.HeaderContentType:     true,
	echo.HeaderContentLength:   true,
	echo.HeaderContentEncoding: true,
	echo.HeaderAcceptEncoding:  true,
	echo.HeaderAuthorization:   true,
	echo.HeaderCookie:          true,
	echo.HeaderOrigin:          true,
	"Accept":                   true,
	"Accept-Language":          true,
	"Connection":               true,
	"Host":                     true,
	"Transfer-Encoding":        true,

	"Access-Control-Request-Method":  true,
	"Access-Control-Request-Headers": true,
}

// パスパラメータ・クエリ・ヘッダを掃除するミドルウェア。
// ルーティング後に動くので c.ParamValues() は埋まっている。
func (s *Sanitizer) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//パスパラメータ
			if values := c.ParamValues(); len(values) > 0 {
				cleaned := make([]string, len(values))
				for i, v := range values {
					cleaned[i] = s.Clean(v)
				}
				c.SetParamValues(cleaned...)
			}

			req := c.Request()

			//クエリ（c.QueryParams() が呼ばれる前に書き換える）
			if req.URL.RawQuery != "" {
				q := req.URL.Query()
				changed := false
				for key, values := range q {
					for i, v := range values {
						if cv := s.Clean(v); cv != v {
							values[i] = cv
							changed = true
						}
					}
					q[key] = values
				}
				if changed {
					req.URL.RawQuery = q.Encode()
				}
			}

			//ヘッダ
			for key, values := range req.Header {
				if transportHeaders[http.CanonicalHeaderKey(key)] {
					continue
				}
				for i, v := range values {
					values[i] = s.Clean(v)
				}
			}

			return next(c)
		}
	}
}

// echo.DefaultBinder で bind したあと、構造体の文字列を全部掃除する
type SanitizingBinder struct {
	inner     echo.Binder
	sanitizer *Sanitizer
}

func NewSanitizingBinder(s *Sanitizer) *SanitizingBinder {
	return &SanitizingBinder{inner: &echo.DefaultBinder{}, sanitizer: s}
}

func (b *SanitizingBinder) Bind(i interface{}, c echo.Context) error {
	if err := b.inner.Bind(i, c); err != nil {
		return err
	}
	b.sanitizer.walk(reflect.ValueOf(i))
	return nil
}

func (s *Sanitizer) walk(v reflect.Value) {
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if !v.IsNil() {
			s.walk(v.Elem())
		}
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			f := v.Field(i)
			if !f.CanSet() {
				continue
			}
			s.walk(f)
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			s.walk(v.Index(i))
		}
	case reflect.Map:
		if v.Type().Elem().Kind() != reflect.String {
			return
		}
		for _, key := range v.MapKeys() {
			cleaned := s.Clean(v.MapIndex(key).String())
			v.SetMapIndex(key, reflect.ValueOf(cleaned).Convert(v.Type().Elem()))
		}
	case reflect.String:
		if v.CanSet() {
			v.SetString(s.Clean(v.String()))
		}
	}
}
