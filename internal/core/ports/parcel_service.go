package ports

import (
	"context"
	"time"

	"github.com/paulmach/orb"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// PlaceInput is a named [lat, lng] pair.
type PlaceInput struct {
	Name   string
	Coords []float64
}

// CreateParcelInput carries everything needed to start a simulated delivery.
type CreateParcelInput struct {
	Origin          PlaceInput
	Destination     PlaceInput
	DurationMinutes int
}

// TrackingView is a parcel plus everything the tracking page derives from it
// at a given instant.
type TrackingView struct {
	Parcel *domain.Parcel
	// LivePercent is computed from the clock and may be ahead of the stored value.
	LivePercent     float64
	LiveStatus      domain.ParcelStatus
	Position        orb.Point
	ETA             string
	TotalKm         float64
	RemainingKm     float64
	EstimatedArrive string
	AsOf            time.Time
}

// ParcelService defines use-case operations for parcels.
type ParcelService interface {
	CreateParcel(ctx context.Context, input CreateParcelInput) (*domain.Parcel, error)
	GetParcel(ctx context.Context, id string) (*domain.Parcel, error)
	Track(ctx context.Context, id string, now time.Time) (*TrackingView, error)
	ListRecent(ctx context.Context, opts ListParcelsOptions) ([]*domain.Parcel, error)
	DeleteParcel(ctx context.Context, id string) error
	History(ctx context.Context, id string) ([]*domain.ParcelEvent, error)
	Subscribe(ctx context.Context, id string, onChange func(domain.ProgressUpdate)) (func() error, error)
}
