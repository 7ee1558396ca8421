package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

// APIKeyHeader carries the shared secret for machine-triggered endpoints.
const APIKeyHeader = "X-API-Key"

// APIKey accepts requests whose X-API-Key matches key. An empty key rejects
// everything.
func APIKey(key string) echo.MiddlewareFunc {
	return echomiddleware.KeyAuthWithConfig(echomiddleware.KeyAuthConfig{
		KeyLookup: "header:" + APIKeyHeader,
		Validator: func(got string, c echo.Context) (bool, error) {
			if key == "" {
				return false, nil
			}
			return subtle.ConstantTimeCompare([]byte(got), []byte(key)) == 1, nil
		},
		ErrorHandler: func(err error, c echo.Context) error {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing API key")
		},
	})
}
