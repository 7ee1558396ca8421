package domain

import (
	"errors"
	"time"

	"github.com/paulmach/orb"
)

// ParcelStatus is the coarse label derived from a parcel's progress.
type ParcelStatus string

const (
	StatusPickedUp       ParcelStatus = "Picked Up"
	StatusInTransit      ParcelStatus = "In Transit"
	StatusOutForDelivery ParcelStatus = "Out for Delivery"
	StatusDelivered      ParcelStatus = "Delivered"
)

// statusOrder is the only direction a parcel can move in.
var statusOrder = map[ParcelStatus]int{
	StatusPickedUp:       0,
	StatusInTransit:      1,
	StatusOutForDelivery: 2,
	StatusDelivered:      3,
}

var ErrParcelNotFound = errors.New("parcel not found")
var ErrInvalidParcel = errors.New("invalid parcel")
var ErrInvalidSchedule = errors.New("invalid parcel schedule")
var ErrPassInProgress = errors.New("reconciliation pass already in progress")
var ErrForbidden = errors.New("access forbidden")

// Valid reports whether s is one of the known labels.
func (s ParcelStatus) Valid() bool {
	_, ok := statusOrder[s]
	return ok
}

// Precedes reports whether next is strictly further along than s.
func (s ParcelStatus) Precedes(next ParcelStatus) bool {
	a, okA := statusOrder[s]
	b, okB := statusOrder[next]
	return okA && okB && a < b
}

// Place is a named point. Coords follows the [lat, lng] order used by the
// stored documents and the tracking map.
type Place struct {
	Name   string    `json:"name"`
	Coords orb.Point `json:"coords"`
}

// Parcel is a shipment in transit whose progress is simulated from its
// scheduled start and end.
type Parcel struct {
	ID              string
	Origin          Place
	Destination     Place
	StartTime       time.Time
	EndTime         time.Time
	DurationMinutes int
	ProgressPercent float64
	CurrentStatus   ParcelStatus
	LastUpdated     time.Time
	CreatedAt       time.Time
	IsActive        bool
}

// ValidateSchedule rejects records the engine cannot derive progress for.
func (p *Parcel) ValidateSchedule() error {
	if p.StartTime.IsZero() || p.EndTime.IsZero() {
		return ErrInvalidSchedule
	}
	if p.EndTime.Before(p.StartTime) {
		return ErrInvalidSchedule
	}
	return nil
}

// ProgressUpdate is the set of derived fields the engine writes back.
type ProgressUpdate struct {
	ParcelID        string       `json:"parcel_id"`
	ProgressPercent float64      `json:"progress_percent"`
	CurrentStatus   ParcelStatus `json:"current_status"`
	LastUpdated     time.Time    `json:"last_updated"`
	IsActive        bool         `json:"is_active"`
}
