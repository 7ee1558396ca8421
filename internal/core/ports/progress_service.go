package ports

import (
	"context"
	"time"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

// ReconcileResult summarises one reconciliation pass.
// Total is always Updated + Skipped + Errors.
type ReconcileResult struct {
	Total    int
	Updated  int
	Skipped  int
	Errors   int
	Duration time.Duration
}

// ProgressEngine re-derives progress for every incomplete parcel.
type ProgressEngine interface {
	ReconcileAll(ctx context.Context, now time.Time) (*ReconcileResult, error)
}

// PassLock serialises passes across processes.
type PassLock interface {
	// Acquire returns false, nil when another holder owns the lock.
	Acquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// ProgressPublisher hands a persisted update to whoever broadcasts it.
// Implementations must not block the caller.
type ProgressPublisher interface {
	Enqueue(update domain.ProgressUpdate)
}

// ProgressNotifier broadcasts and observes live progress of single parcels.
type ProgressNotifier interface {
	Publish(ctx context.Context, update domain.ProgressUpdate) error
	// Subscribe invokes onChange for every update of parcelID until the
	// returned unsubscribe func is called or ctx ends.
	Subscribe(ctx context.Context, parcelID string, onChange func(domain.ProgressUpdate)) (unsubscribe func() error, err error)
}
