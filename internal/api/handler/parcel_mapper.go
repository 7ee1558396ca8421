package handler

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

// --- Request → Service input ---

func toCreateInput(req createParcelRequest) ports.CreateParcelInput {
	return ports.CreateParcelInput{
		Origin:          ports.PlaceInput{Name: req.Origin.Name, Coords: req.Origin.Coords},
		Destination:     ports.PlaceInput{Name: req.Destination.Name, Coords: req.Destination.Coords},
		DurationMinutes: req.DurationMinutes,
	}
}

// --- Service result → HTTP response ---

func toPlaceResponse(p domain.Place) placeResponse {
	return placeResponse{Name: p.Name, Coords: p.Coords}
}

func parcelLinksFor(id string) parcelLinks {
	return parcelLinks{
		Self:     "/v1/parcels/" + id,
		Position: "/v1/parcels/" + id + "/position",
		Stream:   "/v1/parcels/" + id + "/stream",
	}
}

func toParcelResponse(p *domain.Parcel) parcelResponse {
	return parcelResponse{
		ID:              p.ID,
		Origin:          toPlaceResponse(p.Origin),
		Destination:     toPlaceResponse(p.Destination),
		StartTime:       p.StartTime.UTC(),
		EndTime:         p.EndTime.UTC(),
		DurationMinutes: p.DurationMinutes,
		ProgressPercent: p.ProgressPercent,
		CurrentStatus:   string(p.CurrentStatus),
		LastUpdated:     p.LastUpdated.UTC(),
		CreatedAt:       p.CreatedAt.UTC(),
		IsActive:        p.IsActive,
		Links:           parcelLinksFor(p.ID),
	}
}

func toParcelList(parcels []*domain.Parcel) listParcelsResponse {
	out := listParcelsResponse{Data: make([]parcelResponse, 0, len(parcels))}
	for _, p := range parcels {
		out.Data = append(out.Data, toParcelResponse(p))
	}
	return out
}

func toTrackingResponse(v *ports.TrackingView) trackingResponse {
	return trackingResponse{
		Parcel: toParcelResponse(v.Parcel),
		Live: liveResponse{
			ProgressPercent:  v.LivePercent,
			Status:           string(v.LiveStatus),
			Position:         v.Position,
			TimeRemaining:    v.ETA,
			TotalKm:          roundKm(v.TotalKm),
			RemainingKm:      roundKm(v.RemainingKm),
			EstimatedArrival: v.EstimatedArrive,
			AsOf:             v.AsOf.UTC(),
		},
	}
}

// toLiveUpdate is the first frame of a stream, before any pass has run.
func toLiveUpdate(v *ports.TrackingView) domain.ProgressUpdate {
	return domain.ProgressUpdate{
		ParcelID:        v.Parcel.ID,
		ProgressPercent: v.LivePercent,
		CurrentStatus:   v.LiveStatus,
		LastUpdated:     v.AsOf.UTC(),
		IsActive:        v.LivePercent < 100,
	}
}

// toPositionCollection renders the route and the current position as GeoJSON,
// which orders coordinates [lng, lat].
func toPositionCollection(v *ports.TrackingView) *geojson.FeatureCollection {
	p := v.Parcel
	fc := geojson.NewFeatureCollection()

	route := geojson.NewFeature(orb.LineString{lngLat(p.Origin.Coords), lngLat(p.Destination.Coords)})
	route.Properties["kind"] = "route"
	route.Properties["origin"] = p.Origin.Name
	route.Properties["destination"] = p.Destination.Name
	route.Properties["total_km"] = roundKm(v.TotalKm)
	fc.Append(route)

	current := geojson.NewFeature(lngLat(v.Position))
	current.ID = p.ID
	current.Properties["kind"] = "position"
	current.Properties["parcel_id"] = p.ID
	current.Properties["progress_percent"] = v.LivePercent
	current.Properties["status"] = string(v.LiveStatus)
	current.Properties["time_remaining"] = v.ETA
	current.Properties["remaining_km"] = roundKm(v.RemainingKm)
	fc.Append(current)

	return fc
}

func toHistoryResponse(id string, events []*domain.ParcelEvent) parcelHistoryResponse {
	out := parcelHistoryResponse{ParcelID: id, Events: make([]parcelEventResponse, 0, len(events))}
	for _, e := range events {
		out.Events = append(out.Events, parcelEventResponse{
			From:            string(e.From),
			To:              string(e.To),
			ProgressPercent: e.ProgressPercent,
			OccurredAt:      e.OccurredAt.UTC(),
		})
	}
	return out
}

func toReconcileResponse(r *ports.ReconcileResult) reconcileResponse {
	return reconcileResponse{
		Success:    true,
		Total:      r.Total,
		Updated:    r.Updated,
		Skipped:    r.Skipped,
		Errors:     r.Errors,
		DurationMs: r.Duration.Milliseconds(),
	}
}

func lngLat(p orb.Point) orb.Point {
	return orb.Point{p[1], p[0]}
}

func roundKm(km float64) float64 {
	return math.Round(km*10) / 10
}
