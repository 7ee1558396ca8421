package handler

import "time"

// --- Request types ---

type placeRequest struct {
	Name   string    `json:"name"   validate:"required"`
	Coords []float64 `json:"coords" validate:"required,len=2"` // [lat, lng]
}

type createParcelRequest struct {
	Origin          placeRequest `json:"origin"           validate:"required"`
	Destination     placeRequest `json:"destination"      validate:"required"`
	DurationMinutes int          `json:"duration_minutes" validate:"required,min=1"`
}

// --- Response types ---

type placeResponse struct {
	Name   string     `json:"name"`
	Coords [2]float64 `json:"coords"`
}

type parcelLinks struct {
	Self     string `json:"self"`
	Position string `json:"position"`
	Stream   string `json:"stream"`
}

type parcelResponse struct {
	ID              string        `json:"id"`
	Origin          placeResponse `json:"origin"`
	Destination     placeResponse `json:"destination"`
	StartTime       time.Time     `json:"start_time"`
	EndTime         time.Time     `json:"end_time"`
	DurationMinutes int           `json:"duration_minutes"`
	ProgressPercent float64       `json:"progress_percent"`
	CurrentStatus   string        `json:"current_status"`
	LastUpdated     time.Time     `json:"last_updated"`
	CreatedAt       time.Time     `json:"created_at"`
	IsActive        bool          `json:"is_active"`
	Links           parcelLinks   `json:"_links"`
}

// liveResponse is what the tracking page shows right now, which may be ahead
// of the last reconciled values in parcelResponse.
type liveResponse struct {
	ProgressPercent  float64    `json:"progress_percent"`
	Status           string     `json:"status"`
	Position         [2]float64 `json:"position"`
	TimeRemaining    string     `json:"time_remaining"`
	TotalKm          float64    `json:"total_km"`
	RemainingKm      float64    `json:"remaining_km"`
	EstimatedArrival string     `json:"estimated_arrival"`
	AsOf             time.Time  `json:"as_of"`
}

type trackingResponse struct {
	Parcel parcelResponse `json:"parcel"`
	Live   liveResponse   `json:"live"`
}

type listParcelsResponse struct {
	Data []parcelResponse `json:"data"`
}

type parcelEventResponse struct {
	From            string    `json:"from"`
	To              string    `json:"to"`
	ProgressPercent float64   `json:"progress_percent"`
	OccurredAt      time.Time `json:"occurred_at"`
}

type parcelHistoryResponse struct {
	ParcelID string                `json:"parcel_id"`
	Events   []parcelEventResponse `json:"events"`
}

type reconcileResponse struct {
	Success    bool   `json:"success"`
	Total      int    `json:"total"`
	Updated    int    `json:"updated"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}
