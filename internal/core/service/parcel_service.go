package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const (
	defaultRecentLimit = 10
	maxRecentLimit     = 100
)

type ParcelService struct {
	repo     ports.ParcelRepository
	events   ports.EventRepository
	notifier ports.ProgressNotifier
	logger   zerolog.Logger
	clock    func() time.Time
}

func NewParcelService(repo ports.ParcelRepository, events ports.EventRepository, notifier ports.ProgressNotifier, logger zerolog.Logger) *ParcelService {
	return &ParcelService{repo: repo, events: events, notifier: notifier, logger: logger, clock: time.Now}
}

// CreateParcel schedules a new simulated delivery starting now.
func (s *ParcelService) CreateParcel(ctx context.Context, input ports.CreateParcelInput) (*domain.Parcel, error) {
	origin, err := toPlace("origin", input.Origin)
	if err != nil {
		return nil, err
	}
	destination, err := toPlace("destination", input.Destination)
	if err != nil {
		return nil, err
	}
	if input.DurationMinutes < 1 {
		return nil, fmt.Errorf("%w: duration must be at least 1 minute", domain.ErrInvalidParcel)
	}

	now := s.clock().UTC().Truncate(time.Millisecond)
	parcel := &domain.Parcel{
		Origin:          origin,
		Destination:     destination,
		StartTime:       now,
		EndTime:         now.Add(time.Duration(input.DurationMinutes) * time.Minute),
		DurationMinutes: input.DurationMinutes,
		ProgressPercent: 0,
		CurrentStatus:   domain.StatusPickedUp,
		LastUpdated:     now,
		CreatedAt:       now,
		IsActive:        true,
	}

	id, err := s.repo.Create(ctx, parcel)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to create parcel")
		return nil, fmt.Errorf("create parcel: %w", err)
	}
	parcel.ID = id

	s.logger.Info().
		Str("parcel_id", id).
		Str("origin", origin.Name).
		Str("destination", destination.Name).
		Int("duration_minutes", input.DurationMinutes).
		Msg("parcel created")

	return parcel, nil
}

func (s *ParcelService) GetParcel(ctx context.Context, id string) (*domain.Parcel, error) {
	return s.repo.FindByID(ctx, id)
}

// Track returns the parcel with progress, position and ETA derived as of now.
func (s *ParcelService) Track(ctx context.Context, id string, now time.Time) (*ports.TrackingView, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	live := domain.ComputeProgress(p.StartTime, p.EndTime, now)
	// Stored progress can be ahead of a caller-supplied clock; never show less.
	if p.ProgressPercent > live {
		live = p.ProgressPercent
	}

	total := domain.DistanceKm(p.Origin.Coords, p.Destination.Coords)
	position := domain.InterpolatePosition(p.Origin.Coords, p.Destination.Coords, live)

	return &ports.TrackingView{
		Parcel:          p,
		LivePercent:     live,
		LiveStatus:      domain.StatusFromProgress(live),
		Position:        position,
		ETA:             domain.EstimateTimeRemaining(p.StartTime, p.EndTime, now),
		TotalKm:         total,
		RemainingKm:     domain.DistanceKm(position, p.Destination.Coords),
		EstimatedArrive: domain.FormatTimestamp(p.EndTime),
		AsOf:            now,
	}, nil
}

// ListRecent returns the newest parcels first.
func (s *ParcelService) ListRecent(ctx context.Context, opts ports.ListParcelsOptions) ([]*domain.Parcel, error) {
	if opts.Limit <= 0 {
		opts.Limit = defaultRecentLimit
	}
	if opts.Limit > maxRecentLimit {
		opts.Limit = maxRecentLimit
	}
	return s.repo.ListRecent(ctx, opts)
}

// DeleteParcel removes the parcel and its status history.
func (s *ParcelService) DeleteParcel(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	// The parcel is gone either way; leftover events are only unreachable.
	if err := s.events.DeleteByParcel(ctx, id); err != nil {
		s.logger.Warn().Err(err).Str("parcel_id", id).Msg("failed to delete parcel events")
	}
	s.logger.Info().Str("parcel_id", id).Msg("parcel deleted")
	return nil
}

// History returns the status transitions recorded for a parcel, oldest first.
func (s *ParcelService) History(ctx context.Context, id string) ([]*domain.ParcelEvent, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByParcel(ctx, id)
}

// Subscribe streams live progress for an existing parcel.
func (s *ParcelService) Subscribe(ctx context.Context, id string, onChange func(domain.ProgressUpdate)) (func() error, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.notifier.Subscribe(ctx, id, onChange)
}

func toPlace(field string, in ports.PlaceInput) (domain.Place, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return domain.Place{}, fmt.Errorf("%w: %s name is required", domain.ErrInvalidParcel, field)
	}
	if len(in.Coords) != 2 {
		return domain.Place{}, fmt.Errorf("%w: %s coords must be [lat, lng]", domain.ErrInvalidParcel, field)
	}
	lat, lng := in.Coords[0], in.Coords[1]
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return domain.Place{}, fmt.Errorf("%w: %s coords out of range", domain.ErrInvalidParcel, field)
	}
	return domain.Place{Name: name, Coords: orb.Point{lat, lng}}, nil
}
