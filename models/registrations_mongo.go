package models

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRegistrationRepo struct {
	col     *mongo.Collection
	timeout time.Duration
}

// NewMongoRegistrationRepository expects the unique (email, marathonTitle)
// index from db.EnsureIndexes to exist on col.
func NewMongoRegistrationRepository(col *mongo.Collection, timeout time.Duration) RegistrationRepository {
	return &mongoRegistrationRepo{col: col, timeout: timeout}
}

func (r *mongoRegistrationRepo) ListByEmail(ctx context.Context, email, search string) ([]Registration, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cur, err := r.col.Find(ctx, registrationSearchFilter(email, search))
	if err != nil {
		return nil, fmt.Errorf("find registrations: %w", err)
	}
	out := []Registration{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode registrations: %w", err)
	}
	return out, nil
}

// Create relies on the unique index instead of a find-then-insert, so two
// concurrent identical requests cannot both succeed.
func (r *mongoRegistrationRepo) Create(ctx context.Context, reg *Registration) (InsertResult, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.InsertOne(ctx, reg)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return InsertResult{}, ErrDuplicateRegistration
		}
		return InsertResult{}, fmt.Errorf("insert registration: %w", err)
	}
	reg.ID = insertedObjectID(res)
	return InsertResult{Acknowledged: true, InsertedID: res.InsertedID}, nil
}

func (r *mongoRegistrationRepo) Upsert(ctx context.Context, id string, fields bson.M, upsert bool) (UpdateResult, error) {
	filter, err := idFilter(id)
	if err != nil {
		return UpdateResult{}, err
	}
	update, err := RegistrationUpdate(fields)
	if err != nil {
		return UpdateResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, filter, update, options.Update().SetUpsert(upsert))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return UpdateResult{}, ErrDuplicateRegistration
		}
		return UpdateResult{}, fmt.Errorf("update registration %s: %w", id, err)
	}
	return toUpdateResult(res), nil
}

func (r *mongoRegistrationRepo) Delete(ctx context.Context, id string) (DeleteResult, error) {
	filter, err := idFilter(id)
	if err != nil {
		return DeleteResult{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, filter)
	if err != nil {
		return DeleteResult{}, fmt.Errorf("delete registration %s: %w", id, err)
	}
	return DeleteResult{Acknowledged: true, DeletedCount: res.DeletedCount}, nil
}
