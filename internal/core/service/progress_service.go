package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const defaultConcurrency = 16

// ProgressConfig tunes a reconciliation pass.
type ProgressConfig struct {
	// Concurrency bounds the number of parcel writes in flight. Defaults to 16.
	Concurrency int
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeUpdated
	outcomeFailed
)

// ProgressService is the progress engine: it re-derives progress and status
// for every incomplete parcel and writes back only what changed.
type ProgressService struct {
	parcels   ports.ParcelRepository
	events    ports.EventRepository
	publisher ports.ProgressPublisher
	lock      ports.PassLock
	cfg       ProgressConfig
	running   atomic.Bool
	log       zerolog.Logger
}

// NewProgressService wires the engine. events, publisher and lock are optional.
func NewProgressService(
	parcels ports.ParcelRepository,
	events ports.EventRepository,
	publisher ports.ProgressPublisher,
	lock ports.PassLock,
	cfg ProgressConfig,
	log zerolog.Logger,
) *ProgressService {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &ProgressService{
		parcels:   parcels,
		events:    events,
		publisher: publisher,
		lock:      lock,
		cfg:       cfg,
		log:       log,
	}
}

// ReconcileAll runs one pass as of now. It fails as a whole only when the
// pass cannot start or the active parcels cannot be fetched; individual
// parcel failures are counted in the result and retried on the next pass.
func (s *ProgressService) ReconcileAll(ctx context.Context, now time.Time) (*ports.ReconcileResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, domain.ErrPassInProgress
	}
	defer s.running.Store(false)

	if s.lock != nil {
		acquired, err := s.lock.Acquire(ctx)
		if err != nil {
			return nil, fmt.Errorf("reconcile: acquire pass lock: %w", err)
		}
		if !acquired {
			return nil, domain.ErrPassInProgress
		}
		defer func() {
			if err := s.lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn().Err(err).Msg("failed to release pass lock")
			}
		}()
	}

	started := time.Now()

	parcels, err := s.parcels.FindActive(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("reconcile: fetch active parcels failed")
		return nil, fmt.Errorf("reconcile: fetch active parcels: %w", err)
	}

	outcomes := make([]outcome, len(parcels))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, p := range parcels {
		g.Go(func() error {
			outcomes[i] = s.reconcileOne(ctx, p, now)
			return nil
		})
	}
	_ = g.Wait()

	result := &ports.ReconcileResult{Total: len(parcels)}
	for _, o := range outcomes {
		switch o {
		case outcomeUpdated:
			result.Updated++
		case outcomeFailed:
			result.Errors++
		default:
			result.Skipped++
		}
	}
	result.Duration = time.Since(started)

	s.log.Info().
		Int("total", result.Total).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("errors", result.Errors).
		Int64("duration_ms", result.Duration.Milliseconds()).
		Msg("reconcile pass completed")

	return result, nil
}

func (s *ProgressService) reconcileOne(ctx context.Context, p *domain.Parcel, now time.Time) outcome {
	if err := p.ValidateSchedule(); err != nil {
		s.log.Warn().Err(err).Str("parcel_id", p.ID).Msg("skipping malformed parcel")
		return outcomeFailed
	}

	percent := domain.ComputeProgress(p.StartTime, p.EndTime, now)
	status := domain.StatusFromProgress(percent)
	// A lagging clock on another instance, or an older now, must not move a
	// parcel backwards.
	if percent < p.ProgressPercent || status.Precedes(p.CurrentStatus) {
		s.log.Debug().
			Str("parcel_id", p.ID).
			Float64("stored", p.ProgressPercent).
			Float64("derived", percent).
			Msg("derived progress behind stored value, skipping")
		return outcomeSkipped
	}
	if !domain.ProgressChanged(p.ProgressPercent, p.CurrentStatus, percent, status) {
		return outcomeSkipped
	}

	update := domain.ProgressUpdate{
		ParcelID:        p.ID,
		ProgressPercent: percent,
		CurrentStatus:   status,
		LastUpdated:     now,
		IsActive:        percent < 100,
	}
	if err := s.parcels.UpdateProgress(ctx, p.ID, update); err != nil {
		s.log.Error().Err(err).Str("parcel_id", p.ID).Msg("failed to update parcel progress")
		return outcomeFailed
	}

	s.publisher.Enqueue(update)
	if status != p.CurrentStatus {
		s.recordTransition(ctx, p, update)
	}

	s.log.Debug().
		Str("parcel_id", p.ID).
		Float64("progress", percent).
		Str("status", string(status)).
		Msg("parcel progress updated")

	return outcomeUpdated
}

// recordTransition appends to the audit trail. Failure is non-fatal: the
// parcel itself is already up to date.
func (s *ProgressService) recordTransition(ctx context.Context, p *domain.Parcel, update domain.ProgressUpdate) {
	if s.events == nil {
		return
	}
	event := &domain.ParcelEvent{
		ParcelID:        p.ID,
		From:            p.CurrentStatus,
		To:              update.CurrentStatus,
		ProgressPercent: update.ProgressPercent,
		OccurredAt:      update.LastUpdated,
	}
	if err := s.events.InsertEvent(ctx, event); err != nil {
		s.log.Warn().Err(err).Str("parcel_id", p.ID).Msg("failed to insert parcel event")
	}
}

type nopPublisher struct{}

func (nopPublisher) Enqueue(domain.ProgressUpdate) {}
