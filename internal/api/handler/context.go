package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/parcel-tracker/internal/api/middleware"
)

// ctxClaims extracts the claims injected by the Auth middleware. A missing
// subject or role means the route was mounted without Auth.
func ctxClaims(c echo.Context) (userID, email, role string, err error) {
	userID, _ = c.Get(middleware.CtxUserID).(string)
	email, _ = c.Get(middleware.CtxEmail).(string)
	role, _ = c.Get(middleware.CtxRole).(string)
	if userID == "" || role == "" {
		return "", "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return userID, email, role, nil
}
