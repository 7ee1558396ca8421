package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// DomainHTTPError maps a known domain error to its HTTP form. It returns nil
// for anything else so the caller can treat it as unexpected.
func DomainHTTPError(err error) *echo.HTTPError {
	switch {
	case errors.Is(err, domain.ErrParcelNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "parcel not found")
	case errors.Is(err, domain.ErrInvalidParcel):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidSchedule):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrPassInProgress):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "access forbidden")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "user not found")
	case errors.Is(err, domain.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, "user already exists")
	}
	return nil
}

func httpError(err error) error {
	if he := DomainHTTPError(err); he != nil {
		return he
	}
	return err
}
