package domain

import (
	"fmt"
	"math"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// ChangeThreshold is the smallest progress delta worth persisting.
const ChangeThreshold = 0.01

const (
	outForDeliveryAt = 75.0
	inTransitAt      = 25.0
	complete         = 100.0
)

// ComputeProgress returns how far along [start, end] now is, as a percentage
// rounded to two decimals. A zero-length window is complete as soon as it starts.
func ComputeProgress(start, end, now time.Time) float64 {
	s, e, n := start.UnixMilli(), end.UnixMilli(), now.UnixMilli()
	if n < s {
		return 0
	}
	if n >= e {
		return complete
	}

	progress := float64(n-s) / float64(e-s) * 100
	return clampPercent(math.Round(progress*100) / 100)
}

// StatusFromProgress maps a percentage onto a status band. Boundaries belong
// to the higher band.
func StatusFromProgress(percent float64) ParcelStatus {
	switch {
	case percent >= complete:
		return StatusDelivered
	case percent >= outForDeliveryAt:
		return StatusOutForDelivery
	case percent >= inTransitAt:
		return StatusInTransit
	default:
		return StatusPickedUp
	}
}

// InterpolatePosition returns the point percent of the way from origin to
// destination along each axis.
func InterpolatePosition(origin, destination orb.Point, percent float64) orb.Point {
	f := clampPercent(percent) / 100
	return orb.Point{
		origin[0] + (destination[0]-origin[0])*f,
		origin[1] + (destination[1]-origin[1])*f,
	}
}

// EstimateTimeRemaining renders the time left until end using the largest
// non-zero unit, e.g. "3 hours". start is unused; it is kept so callers can
// pass a parcel's schedule as-is.
func EstimateTimeRemaining(start, end, now time.Time) string {
	_ = start
	remaining := end.Sub(now)
	if remaining <= 0 {
		return string(StatusDelivered)
	}

	minutes := int(remaining / time.Minute)
	hours := minutes / 60
	days := hours / 24

	switch {
	case days > 0:
		return plural(days, "day")
	case hours > 0:
		return plural(hours, "hour")
	case minutes > 0:
		return plural(minutes, "minute")
	default:
		return "Less than 1 minute"
	}
}

// DistanceKm is the great-circle distance between two [lat, lng] points.
func DistanceKm(a, b orb.Point) float64 {
	// orb/geo expects [lng, lat].
	return geo.DistanceHaversine(orb.Point{a[1], a[0]}, orb.Point{b[1], b[0]}) / 1000
}

// FormatTimestamp renders t the way the tracking page shows it.
func FormatTimestamp(t time.Time) string {
	return t.Format("Jan 2, 2006, 03:04 PM")
}

// ProgressChanged reports whether the derived state differs enough from the
// stored one to be written.
func ProgressChanged(oldPercent float64, oldStatus ParcelStatus, newPercent float64, newStatus ParcelStatus) bool {
	return math.Abs(newPercent-oldPercent) >= ChangeThreshold || newStatus != oldStatus
}

func clampPercent(p float64) float64 {
	return math.Min(complete, math.Max(0, p))
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
