package queue

import (
	"context"
	"hash/fnv"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/api/metrics"
	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const (
	defaultWorkers = 8
	channelBuffer  = 256
	publishTimeout = 5 * time.Second
)

// Dispatcher publishes progress updates off the reconciliation path. Updates
// are sharded by parcel id so each parcel's updates go out in order.
type Dispatcher struct {
	workers  []chan domain.ProgressUpdate
	notifier ports.ProgressNotifier
	log      zerolog.Logger
}

var _ ports.ProgressPublisher = (*Dispatcher)(nil)

// NewDispatcher creates a Dispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewDispatcher(numWorkers int, notifier ports.ProgressNotifier, log zerolog.Logger) *Dispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &Dispatcher{
		workers:  make([]chan domain.ProgressUpdate, numWorkers),
		notifier: notifier,
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan domain.ProgressUpdate, channelBuffer)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// Enqueue hands the update to its parcel's worker. It never blocks: when the
// worker is full the update is dropped, since the next pass or a page reload
// carries the same state.
func (d *Dispatcher) Enqueue(update domain.ProgressUpdate) {
	idx := d.shardIndex(update.ParcelID)
	select {
	case d.workers[idx] <- update:
		metrics.NotifyQueueDepth.WithLabelValues(metrics.WorkerLabel(idx)).Inc()
	default:
		metrics.NotifyDroppedTotal.Inc()
		d.log.Warn().
			Str("parcel_id", update.ParcelID).
			Int("worker_id", idx).
			Msg("notify queue full, dropping progress update")
	}
}

// shardIndex maps a parcel id deterministically to a worker index.
func (d *Dispatcher) shardIndex(parcelID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(parcelID))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *Dispatcher) runWorker(ctx context.Context, id int, ch <-chan domain.ProgressUpdate) {
	depth := metrics.NotifyQueueDepth.WithLabelValues(metrics.WorkerLabel(id))
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-ch:
			if !ok {
				return
			}
			depth.Dec()

			pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
			err := d.notifier.Publish(pubCtx, update)
			cancel()
			if err != nil {
				metrics.NotifyErrorsTotal.Inc()
				d.log.Error().Err(err).
					Str("parcel_id", update.ParcelID).
					Int("worker_id", id).
					Msg("progress publish failed")
			}
		}
	}
}
