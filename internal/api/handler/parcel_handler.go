package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/parcel-tracker/internal/api/metrics"
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const (
	defaultKeepAlive = 15 * time.Second
	streamBuffer     = 16
	mimeGeoJSON      = "application/geo+json"
)

// ParcelHandler handles HTTP requests for parcel operations.
type ParcelHandler struct {
	service   ports.ParcelService
	now       func() time.Time
	keepAlive time.Duration
}

func NewParcelHandler(service ports.ParcelService) *ParcelHandler {
	return &ParcelHandler{service: service, now: time.Now, keepAlive: defaultKeepAlive}
}

// Create handles POST /v1/parcels.
//
// @Summary      Create a parcel
// @Description  Starts a simulated delivery from origin to destination lasting duration_minutes.
// @Tags         parcels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createParcelRequest  true  "Parcel details"
// @Success      201   {object}  parcelResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /v1/parcels [post]
func (h *ParcelHandler) Create(c echo.Context) error {
	var req createParcelRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	parcel, err := h.service.CreateParcel(c.Request().Context(), toCreateInput(req))
	if err != nil {
		return httpError(err)
	}
	metrics.ParcelsCreatedTotal.Inc()

	c.Response().Header().Set(echo.HeaderLocation, "/v1/parcels/"+parcel.ID)
	return c.JSON(http.StatusCreated, toParcelResponse(parcel))
}

// List handles GET /v1/parcels.
//
// @Summary      List recent parcels
// @Tags         parcels
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Max items (default 10, max 100)"
// @Success      200    {object}  listParcelsResponse
// @Failure      400    {object}  errorResponse
// @Failure      401    {object}  errorResponse
// @Failure      403    {object}  errorResponse
// @Router       /v1/parcels [get]
func (h *ParcelHandler) List(c echo.Context) error {
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
	}

	parcels, err := h.service.ListRecent(c.Request().Context(), ports.ListParcelsOptions{Limit: limit})
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toParcelList(parcels))
}

// Get handles GET /v1/parcels/:id.
//
// @Summary      Track a parcel
// @Description  Returns the stored parcel plus progress, position and ETA derived as of the request.
// @Tags         parcels
// @Produce      json
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  trackingResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id} [get]
func (h *ParcelHandler) Get(c echo.Context) error {
	view, err := h.service.Track(c.Request().Context(), c.Param("id"), h.now())
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toTrackingResponse(view))
}

// Position handles GET /v1/parcels/:id/position.
//
// @Summary      Parcel position as GeoJSON
// @Tags         parcels
// @Produce      json
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id}/position [get]
func (h *ParcelHandler) Position(c echo.Context) error {
	view, err := h.service.Track(c.Request().Context(), c.Param("id"), h.now())
	if err != nil {
		return httpError(err)
	}

	body, err := toPositionCollection(view).MarshalJSON()
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, mimeGeoJSON, body)
}

// History handles GET /v1/parcels/:id/events.
//
// @Summary      Parcel status history
// @Tags         parcels
// @Produce      json
// @Param        id   path      string  true  "Parcel ID"
// @Success      200  {object}  parcelHistoryResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id}/events [get]
func (h *ParcelHandler) History(c echo.Context) error {
	id := c.Param("id")
	events, err := h.service.History(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, toHistoryResponse(id, events))
}

// Delete handles DELETE /v1/parcels/:id.
//
// @Summary      Delete a parcel
// @Tags         parcels
// @Security     BearerAuth
// @Param        id   path  string  true  "Parcel ID"
// @Success      204
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id} [delete]
func (h *ParcelHandler) Delete(c echo.Context) error {
	if err := h.service.DeleteParcel(c.Request().Context(), c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Stream handles GET /v1/parcels/:id/stream as Server-Sent Events. The first
// "progress" event is the live state at connect time; later ones are pushed
// as passes persist changes. The stream ends once the parcel is delivered.
//
// @Summary      Live parcel progress
// @Tags         parcels
// @Produce      text/event-stream
// @Param        id   path  string  true  "Parcel ID"
// @Success      200
// @Failure      404  {object}  errorResponse
// @Router       /v1/parcels/{id}/stream [get]
func (h *ParcelHandler) Stream(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")

	// Subscribe before the snapshot so an update published in between is
	// still delivered.
	updates := make(chan domain.ProgressUpdate, streamBuffer)
	unsubscribe, err := h.service.Subscribe(ctx, id, func(u domain.ProgressUpdate) {
		select {
		case updates <- u:
		default:
			// slow client; a later update supersedes this one
		}
	})
	if err != nil {
		return httpError(err)
	}
	defer func() { _ = unsubscribe() }()

	view, err := h.service.Track(ctx, id, h.now())
	if err != nil {
		return httpError(err)
	}

	w := c.Response()
	w.Header().Set(echo.HeaderContentType, "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	first := toLiveUpdate(view)
	if err := writeEvent(w, "progress", first); err != nil || !first.IsActive {
		return nil
	}

	last := first.ProgressPercent
	keepAlive := time.NewTicker(h.keepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case u := <-updates:
			// Queued before the snapshot and already superseded by it.
			if u.ProgressPercent < last {
				continue
			}
			last = u.ProgressPercent
			if err := writeEvent(w, "progress", u); err != nil || !u.IsActive {
				return nil
			}
		case <-keepAlive.C:
			if _, err := fmt.Fprint(w, ": keep-alive\n\n"); err != nil {
				return nil
			}
			w.Flush()
		}
	}
}

func writeEvent(w *echo.Response, event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	w.Flush()
	return nil
}
