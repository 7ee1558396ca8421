package domain

import "time"

// ParcelEvent records a status transition made by the progress engine.
type ParcelEvent struct {
	ParcelID        string
	From            ParcelStatus
	To              ParcelStatus
	ProgressPercent float64
	OccurredAt      time.Time
}
