package ports

import (
	"context"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// EventRepository persists the status-transition audit trail.
type EventRepository interface {
	InsertEvent(ctx context.Context, event *domain.ParcelEvent) error
	ListByParcel(ctx context.Context, parcelID string) ([]*domain.ParcelEvent, error)
	DeleteByParcel(ctx context.Context, parcelID string) error
}
