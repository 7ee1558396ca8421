package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const collectionEvents = "parcel_events"

// EventRepository implements ports.EventRepository using MongoDB.
type EventRepository struct {
	col *mongo.Collection
}

var _ ports.EventRepository = (*EventRepository)(nil)

// NewEventRepository creates a new EventRepository.
func NewEventRepository(db *mongo.Database) *EventRepository {
	return &EventRepository{col: db.Collection(collectionEvents)}
}

type mongoEvent struct {
	ParcelID        string  `bson:"parcel_id"`
	From            string  `bson:"from"`
	To              string  `bson:"to"`
	ProgressPercent float64 `bson:"progress_percent"`
	OccurredAt      int64   `bson:"occurred_at"`
	RecordedAt      int64   `bson:"recorded_at"`
}

// InsertEvent appends a status transition to the parcel_events audit collection.
func (r *EventRepository) InsertEvent(ctx context.Context, event *domain.ParcelEvent) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := mongoEvent{
		ParcelID:        event.ParcelID,
		From:            string(event.From),
		To:              string(event.To),
		ProgressPercent: event.ProgressPercent,
		OccurredAt:      timeToMillis(event.OccurredAt),
		RecordedAt:      time.Now().UnixMilli(),
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert parcel event: %w", err)
	}
	return nil
}

// ListByParcel returns a parcel's transitions, oldest first.
func (r *EventRepository) ListByParcel(ctx context.Context, parcelID string) ([]*domain.ParcelEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"parcel_id": parcelID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list parcel events: %w", err)
	}
	defer cur.Close(ctx)

	var docs []mongoEvent
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode parcel events: %w", err)
	}

	out := make([]*domain.ParcelEvent, 0, len(docs))
	for _, d := range docs {
		out = append(out, &domain.ParcelEvent{
			ParcelID:        d.ParcelID,
			From:            domain.ParcelStatus(d.From),
			To:              domain.ParcelStatus(d.To),
			ProgressPercent: d.ProgressPercent,
			OccurredAt:      millisToTime(d.OccurredAt),
		})
	}
	return out, nil
}

// DeleteByParcel drops a parcel's audit trail. Missing rows are not an error.
func (r *EventRepository) DeleteByParcel(ctx context.Context, parcelID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"parcel_id": parcelID}); err != nil {
		return fmt.Errorf("delete parcel events: %w", err)
	}
	return nil
}

// EnsureIndexes creates the lookup index used by ListByParcel.
func (r *EventRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "parcel_id", Value: 1}, {Key: "occurred_at", Value: 1}},
	})
	return err
}
