package ports

import (
	"context"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// ListParcelsOptions controls ListRecent. Zero values fall back to the defaults
// applied by the parcel service.
type ListParcelsOptions struct {
	Limit int // newest first; default 10, capped at 100
}

// ParcelRepository defines persistence operations for parcels.
type ParcelRepository interface {
	Create(ctx context.Context, p *domain.Parcel) (string, error)
	FindByID(ctx context.Context, id string) (*domain.Parcel, error)
	// FindActive returns every parcel whose progress is still below 100.
	FindActive(ctx context.Context) ([]*domain.Parcel, error)
	// UpdateProgress writes only the derived progress fields of one parcel.
	UpdateProgress(ctx context.Context, id string, update domain.ProgressUpdate) error
	ListRecent(ctx context.Context, opts ListParcelsOptions) ([]*domain.Parcel, error)
	Delete(ctx context.Context, id string) error
}
