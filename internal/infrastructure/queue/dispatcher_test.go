package queue

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
)

type recordingNotifier struct {
	mu      sync.Mutex
	updates []domain.ProgressUpdate
	err     error
}

func (n *recordingNotifier) Publish(_ context.Context, u domain.ProgressUpdate) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.updates = append(n.updates, u)
	return n.err
}

func (n *recordingNotifier) Subscribe(context.Context, string, func(domain.ProgressUpdate)) (func() error, error) {
	return func() error { return nil }, nil
}

func (n *recordingNotifier) snapshot() []domain.ProgressUpdate {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.ProgressUpdate(nil), n.updates...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcher_PreservesPerParcelOrder(t *testing.T) {
	n := &recordingNotifier{}
	d := NewDispatcher(4, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for i := 1; i <= 50; i++ {
		for _, id := range []string{"a", "b", "c"} {
			d.Enqueue(domain.ProgressUpdate{ParcelID: id, ProgressPercent: float64(i)})
		}
	}

	waitFor(t, func() bool { return len(n.snapshot()) == 150 })

	last := map[string]float64{}
	for _, u := range n.snapshot() {
		if u.ProgressPercent <= last[u.ParcelID] {
			t.Fatalf("parcel %s published out of order: %v after %v", u.ParcelID, u.ProgressPercent, last[u.ParcelID])
		}
		last[u.ParcelID] = u.ProgressPercent
	}
}

func TestDispatcher_EnqueueNeverBlocks(t *testing.T) {
	d := NewDispatcher(1, &recordingNotifier{}, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			d.Enqueue(domain.ProgressUpdate{ParcelID: "p" + strconv.Itoa(i)})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Enqueue blocked on a full worker")
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Errorf("expected %d queued updates, got %d", channelBuffer, got)
	}
}

func TestDispatcher_PublishErrorDoesNotStopWorker(t *testing.T) {
	n := &recordingNotifier{err: errors.New("redis down")}
	d := NewDispatcher(1, n, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	d.Enqueue(domain.ProgressUpdate{ParcelID: "p1"})
	d.Enqueue(domain.ProgressUpdate{ParcelID: "p1"})

	waitFor(t, func() bool { return len(n.snapshot()) == 2 })
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingNotifier{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	for _, id := range []string{"a", "65f1c0ffee", "parcel-42"} {
		first := d.shardIndex(id)
		if first < 0 || first >= defaultWorkers {
			t.Fatalf("shard %d out of range", first)
		}
		if d.shardIndex(id) != first {
			t.Fatalf("shard for %q changed between calls", id)
		}
	}
}
