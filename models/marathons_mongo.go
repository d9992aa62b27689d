package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoMarathonRepo struct {
	col     *mongo.Collection
	timeout time.Duration
}

func NewMongoMarathonRepository(col *mongo.Collection, timeout time.Duration) MarathonRepository {
	return &mongoMarathonRepo{col: col, timeout: timeout}
}

func (r *mongoMarathonRepo) List(ctx context.Context, limit int64) ([]Marathon, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(limit)
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *mongoMarathonRepo) ListUpcoming(ctx context.Context, now time.Time) ([]Marathon, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	return r.find(ctx, upcomingFilter(now), options.Find())
}

func (r *mongoMarathonRepo) GetByID(ctx context.Context, id string) (Marathon, error) {
	filter, err := idFilter(id)
	if err != nil {
		return Marathon{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var m Marathon
	if err := r.col.FindOne(ctx, filter).Decode(&m); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return Marathon{}, ErrNotFound
		}
		return Marathon{}, fmt.Errorf("find marathon %s: %w", id, err)
	}
	return m, nil
}

func (r *mongoMarathonRepo) ListByOwner(ctx context.Context, email string, order SortOrder) ([]Marathon, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	pipeline := ownerPipeline(email, order)
	if pipeline == nil {
		return r.find(ctx, ownerFilter(email), options.Find())
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate marathons: %w", err)
	}
	out := []Marathon{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode marathons: %w", err)
	}
	return out, nil
}

func (r *mongoMarathonRepo) Create(ctx context.Context, m *Marathon) (InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, m)
	if err != nil {
		return InsertResult{}, fmt.Errorf("insert marathon: %w", err)
	}
	m.ID = insertedObjectID(res)
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *mongoMarathonRepo) Upsert(ctx context.Context, id string, fields bson.M, upsert bool) (UpdateResult, error) {
	filter, err := idFilter(id)
	if err != nil {
		return UpdateResult{}, err
	}
	update, err := MarathonUpdate(fields)
	if err != nil {
		return UpdateResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		return UpdateResult{}, fmt.Errorf("update marathon %s: %w", id, err)
	}
	return toUpdateResult(res), nil
}

func (r *mongoMarathonRepo) IncrementRegistrations(ctx context.Context, id string) (UpdateResult, error) {
	filter, err := idFilter(id)
	if err != nil {
		return UpdateResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$inc": bson.M{"registrationCount": 1}})
	if err != nil {
		return UpdateResult{}, fmt.Errorf("increment marathon %s: %w", id, err)
	}
	return toUpdateResult(res), nil
}

func (r *mongoMarathonRepo) Delete(ctx context.Context, id string) (DeleteResult, error) {
	filter, err := idFilter(id)
	if err != nil {
		return DeleteResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete marathon %s: %w", id, err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}

func (r *mongoMarathonRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Marathon, error) {
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find marathons: %w", err)
	}
	out := []Marathon{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode marathons: %w", err)
	}
	return out, nil
}
