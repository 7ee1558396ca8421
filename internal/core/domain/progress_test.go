package domain

import (
	"math"
	"testing"
	"time"

	"github.com/paulmach/orb"
)

var t0 = time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)

func TestComputeProgress_Endpoints(t *testing.T) {
	end := t0.Add(100 * time.Millisecond)

	cases := []struct {
		name string
		now  time.Time
		want float64
	}{
		{"before start", t0.Add(-time.Second), 0},
		{"at start", t0, 0},
		{"halfway", t0.Add(50 * time.Millisecond), 50},
		{"at end", end, 100},
		{"after end", end.Add(time.Hour), 100},
	}

	for _, tc := range cases {
		if got := ComputeProgress(t0, end, tc.now); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestComputeProgress_RoundsToTwoDecimals(t *testing.T) {
	end := t0.Add(3 * time.Second)
	got := ComputeProgress(t0, end, t0.Add(time.Second))
	if got != 33.33 {
		t.Errorf("expected 33.33, got %v", got)
	}
}

func TestComputeProgress_ZeroLengthWindow(t *testing.T) {
	if got := ComputeProgress(t0, t0, t0.Add(-time.Millisecond)); got != 0 {
		t.Errorf("before start: expected 0, got %v", got)
	}
	if got := ComputeProgress(t0, t0, t0); got != 100 {
		t.Errorf("at start: expected 100, got %v", got)
	}
}

func TestComputeProgress_NonDecreasing(t *testing.T) {
	end := t0.Add(7*time.Minute + 13*time.Second)
	prev := -1.0
	for now := t0.Add(-time.Minute); now.Before(end.Add(time.Minute)); now = now.Add(977 * time.Millisecond) {
		got := ComputeProgress(t0, end, now)
		if got < prev {
			t.Fatalf("progress decreased at %v: %v < %v", now, got, prev)
		}
		if got < 0 || got > 100 {
			t.Fatalf("progress out of range at %v: %v", now, got)
		}
		prev = got
	}
}

func TestStatusFromProgress_Boundaries(t *testing.T) {
	cases := []struct {
		percent float64
		want    ParcelStatus
	}{
		{0, StatusPickedUp},
		{24.99, StatusPickedUp},
		{25, StatusInTransit},
		{74.99, StatusInTransit},
		{75, StatusOutForDelivery},
		{99.99, StatusOutForDelivery},
		{100, StatusDelivered},
		{150, StatusDelivered},
		{-5, StatusPickedUp},
	}

	for _, tc := range cases {
		if got := StatusFromProgress(tc.percent); got != tc.want {
			t.Errorf("StatusFromProgress(%v): expected %q, got %q", tc.percent, tc.want, got)
		}
	}
}

func TestStatusFromProgress_ForwardOnly(t *testing.T) {
	prev := StatusFromProgress(0)
	for i := 0; i <= 10000; i++ {
		p := float64(i) / 100
		next := StatusFromProgress(p)
		if next != prev && !prev.Precedes(next) {
			t.Fatalf("status moved backwards at %v: %q → %q", p, prev, next)
		}
		prev = next
	}
	if prev != StatusDelivered {
		t.Fatalf("expected to end Delivered, got %q", prev)
	}
}

func TestInterpolatePosition(t *testing.T) {
	o := orb.Point{19.4326, -99.1332}
	d := orb.Point{20.6597, -103.3496}

	if got := InterpolatePosition(orb.Point{0, 0}, orb.Point{10, 10}, 50); got != (orb.Point{5, 5}) {
		t.Errorf("expected [5 5], got %v", got)
	}
	if got := InterpolatePosition(o, d, 0); got != o {
		t.Errorf("0%%: expected origin, got %v", got)
	}
	if got := InterpolatePosition(o, d, 100); got != d {
		t.Errorf("100%%: expected destination, got %v", got)
	}
	if got := InterpolatePosition(o, d, 250); got != d {
		t.Errorf("percent must be clamped, got %v", got)
	}
	if got := InterpolatePosition(o, d, -10); got != o {
		t.Errorf("negative percent must be clamped, got %v", got)
	}
}

func TestEstimateTimeRemaining(t *testing.T) {
	cases := []struct {
		remaining time.Duration
		want      string
	}{
		{-time.Minute, "Delivered"},
		{0, "Delivered"},
		{30 * time.Second, "Less than 1 minute"},
		{time.Minute, "1 minute"},
		{45 * time.Minute, "45 minutes"},
		{90 * time.Minute, "1 hour"},
		{3*time.Hour + 59*time.Minute, "3 hours"},
		{24 * time.Hour, "1 day"},
		{50 * time.Hour, "2 days"},
	}

	for _, tc := range cases {
		end := t0.Add(tc.remaining)
		if got := EstimateTimeRemaining(t0.Add(-time.Hour), end, t0); got != tc.want {
			t.Errorf("remaining %v: expected %q, got %q", tc.remaining, tc.want, got)
		}
	}
}

func TestDistanceKm(t *testing.T) {
	// One degree of longitude on the equator.
	got := DistanceKm(orb.Point{0, 0}, orb.Point{0, 1})
	if math.Abs(got-111.3) > 0.5 {
		t.Errorf("expected ~111.3 km, got %v", got)
	}
	if DistanceKm(orb.Point{35, -90}, orb.Point{35, -90}) != 0 {
		t.Error("distance to self must be zero")
	}
}

func TestProgressChanged(t *testing.T) {
	if ProgressChanged(50, StatusInTransit, 50.005, StatusInTransit) {
		t.Error("sub-threshold delta with same status must not count as a change")
	}
	if !ProgressChanged(50, StatusInTransit, 50.02, StatusInTransit) {
		t.Error("delta above the threshold must count as a change")
	}
	if !ProgressChanged(74.995, StatusInTransit, 75, StatusOutForDelivery) {
		t.Error("status change must count even under the threshold")
	}
}

func TestParcel_ValidateSchedule(t *testing.T) {
	ok := &Parcel{StartTime: t0, EndTime: t0.Add(time.Hour)}
	if err := ok.ValidateSchedule(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	for _, p := range []*Parcel{
		{EndTime: t0},
		{StartTime: t0},
		{StartTime: t0, EndTime: t0.Add(-time.Second)},
	} {
		if err := p.ValidateSchedule(); err != ErrInvalidSchedule {
			t.Errorf("expected ErrInvalidSchedule for %+v, got %v", p, err)
		}
	}
}

func TestFormatTimestamp(t *testing.T) {
	got := FormatTimestamp(time.Date(2026, 3, 7, 14, 5, 0, 0, time.UTC))
	if got != "Mar 7, 2026, 02:05 PM" {
		t.Errorf("unexpected format: %q", got)
	}
}
