package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/api/metrics"
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// ProgressHandler exposes the reconciliation pass over HTTP.
type ProgressHandler struct {
	engine ports.ProgressEngine
	now    func() time.Time
	log    zerolog.Logger
}

func NewProgressHandler(engine ports.ProgressEngine, log zerolog.Logger) *ProgressHandler {
	return &ProgressHandler{engine: engine, now: time.Now, log: log}
}

// Reconcile handles POST /v1/progress/reconcile.
//
// @Summary      Run a reconciliation pass
// @Description  Re-derives progress for every incomplete parcel and persists what changed.
// @Tags         progress
// @Produce      json
// @Security     ApiKeyAuth
// @Success      200  {object}  reconcileResponse
// @Failure      401  {object}  errorResponse
// @Failure      409  {object}  reconcileResponse
// @Failure      500  {object}  reconcileResponse
// @Router       /v1/progress/reconcile [post]
func (h *ProgressHandler) Reconcile(c echo.Context) error {
	res, err := h.engine.ReconcileAll(c.Request().Context(), h.now())
	switch {
	case errors.Is(err, domain.ErrPassInProgress):
		metrics.ReconcilePassesTotal.WithLabelValues("skipped").Inc()
		return c.JSON(http.StatusConflict, reconcileResponse{Error: err.Error()})
	case err != nil:
		metrics.ReconcilePassesTotal.WithLabelValues("error").Inc()
		h.log.Error().Err(err).Msg("manual reconciliation failed")
		return c.JSON(http.StatusInternalServerError, reconcileResponse{Error: err.Error()})
	}

	metrics.ObservePass(res.Updated, res.Skipped, res.Errors, res.Duration)
	return c.JSON(http.StatusOK, toReconcileResponse(res))
}
