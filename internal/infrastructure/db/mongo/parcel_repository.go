package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/99minutos/parcel-tracker/internal/core/domain"
	"github.com/99minutos/parcel-tracker/internal/core/ports"
)

const collectionParcels = "parcels"

type ParcelRepository struct {
	col *mongo.Collection
}

func NewParcelRepository(db *mongo.Database) *ParcelRepository {
	return &ParcelRepository{col: db.Collection(collectionParcels)}
}

type mongoPlace struct {
	Name   string     `bson:"name"`
	Coords [2]float64 `bson:"coords"` // [lat, lng]
}

// mongoParcel is the stored shape. Instants are epoch milliseconds.
type mongoParcel struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	Origin          mongoPlace         `bson:"origin"`
	Destination     mongoPlace         `bson:"destination"`
	StartTime       int64              `bson:"start_time"`
	EndTime         int64              `bson:"end_time"`
	DurationMinutes int                `bson:"duration_minutes"`
	ProgressPercent float64            `bson:"progress_percent"`
	CurrentStatus   string             `bson:"current_status"`
	LastUpdated     int64              `bson:"last_updated"`
	CreatedAt       int64              `bson:"created_at"`
	IsActive        bool               `bson:"is_active"`
}

func toMongoParcel(p *domain.Parcel) mongoParcel {
	return mongoParcel{
		Origin:          mongoPlace{Name: p.Origin.Name, Coords: p.Origin.Coords},
		Destination:     mongoPlace{Name: p.Destination.Name, Coords: p.Destination.Coords},
		StartTime:       timeToMillis(p.StartTime),
		EndTime:         timeToMillis(p.EndTime),
		DurationMinutes: p.DurationMinutes,
		ProgressPercent: p.ProgressPercent,
		CurrentStatus:   string(p.CurrentStatus),
		LastUpdated:     timeToMillis(p.LastUpdated),
		CreatedAt:       timeToMillis(p.CreatedAt),
		IsActive:        p.IsActive,
	}
}

func (m *mongoParcel) toDomain() *domain.Parcel {
	return &domain.Parcel{
		ID:              m.ID.Hex(),
		Origin:          domain.Place{Name: m.Origin.Name, Coords: m.Origin.Coords},
		Destination:     domain.Place{Name: m.Destination.Name, Coords: m.Destination.Coords},
		StartTime:       millisToTime(m.StartTime),
		EndTime:         millisToTime(m.EndTime),
		DurationMinutes: m.DurationMinutes,
		ProgressPercent: m.ProgressPercent,
		CurrentStatus:   domain.ParcelStatus(m.CurrentStatus),
		LastUpdated:     millisToTime(m.LastUpdated),
		CreatedAt:       millisToTime(m.CreatedAt),
		IsActive:        m.IsActive,
	}
}

// Create inserts a new parcel and returns the storage-assigned id.
func (r *ParcelRepository) Create(ctx context.Context, p *domain.Parcel) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, toMongoParcel(p))
	if err != nil {
		return "", fmt.Errorf("insert parcel: %w", err)
	}
	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return "", fmt.Errorf("insert parcel: unexpected id type %T", res.InsertedID)
	}
	return oid.Hex(), nil
}

// FindByID retrieves a parcel. Ids that are not valid ObjectIDs cannot exist
// and are reported as not found.
func (r *ParcelRepository) FindByID(ctx context.Context, id string) (*domain.Parcel, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrParcelNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var m mongoParcel
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrParcelNotFound
		}
		return nil, err
	}
	return m.toDomain(), nil
}

// FindActive returns every parcel below 100%. The filter is on the percent
// itself so a stale is_active flag can never hide a parcel from the engine.
func (r *ParcelRepository) FindActive(ctx context.Context) ([]*domain.Parcel, error) {
	cur, err := r.col.Find(ctx, bson.M{"progress_percent": bson.M{"$lt": 100}})
	if err != nil {
		return nil, fmt.Errorf("find active parcels: %w", err)
	}
	return decodeParcels(ctx, cur)
}

// UpdateProgress sets the derived fields of one parcel and nothing else.
func (r *ParcelRepository) UpdateProgress(ctx context.Context, id string, u domain.ProgressUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrParcelNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"progress_percent": u.ProgressPercent,
		"current_status":   string(u.CurrentStatus),
		"last_updated":     timeToMillis(u.LastUpdated),
		"is_active":        u.IsActive,
	}}

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return fmt.Errorf("update parcel progress: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrParcelNotFound
	}
	return nil
}

// ListRecent returns the newest parcels first.
func (r *ParcelRepository) ListRecent(ctx context.Context, opts ports.ListParcelsOptions) ([]*domain.Parcel, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	findOpts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if opts.Limit > 0 {
		findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := r.col.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("list parcels: %w", err)
	}
	return decodeParcels(ctx, cur)
}

func (r *ParcelRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrParcelNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete parcel: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrParcelNotFound
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the parcels collection.
func (r *ParcelRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "progress_percent", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func decodeParcels(ctx context.Context, cur *mongo.Cursor) ([]*domain.Parcel, error) {
	defer cur.Close(ctx)

	var docs []mongoParcel
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode parcels: %w", err)
	}

	out := make([]*domain.Parcel, 0, len(docs))
	for i := range docs {
		out = append(out, docs[i].toDomain())
	}
	return out, nil
}

func timeToMillis(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func millisToTime(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
