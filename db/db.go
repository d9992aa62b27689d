package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	MarathonsCollection     = "marathons"
	RegistrationsCollection = "registrations"

	registrationUniqueIndex = "email_marathonTitle_unique_partial"
	legacyRegistrationIndex = "email_marathonTitle_unique"

	codeNamespaceNotFound = 26
	codeIndexNotFound     = 27
)

// Connect opens the process-wide client and pings the deployment. The caller
// owns the client and must Disconnect it on shutdown.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	serverAPI := options.ServerAPI(options.ServerAPIVersion1).
		SetStrict(true).
		SetDeprecationErrors(true)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri).SetServerAPIOptions(serverAPI))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique (email, marathonTitle) index that makes a
// registration insert fail atomically on a duplicate. The index only covers
// documents carrying both fields, so registrations upserted without them do
// not collide on (null, null).
func EnsureIndexes(ctx context.Context, database *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	indexes := database.Collection(RegistrationsCollection).Indexes()
	if _, err := indexes.DropOne(ctx, legacyRegistrationIndex); err != nil && !missingIndex(err) {
		return fmt.Errorf("drop legacy registrations index: %w", err)
	}

	_, err := indexes.CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "email", Value: 1}, {Key: "marathonTitle", Value: 1}},
		Options: options.Index().
			SetUnique(true).
			SetName(registrationUniqueIndex).
			SetPartialFilterExpression(RegistrationKeyPresent()),
	})
	if err != nil {
		return fmt.Errorf("create registrations index: %w", err)
	}
	return nil
}

// RegistrationKeyPresent matches registrations the unique index applies to.
func RegistrationKeyPresent() bson.M {
	return bson.M{
		"email":         bson.M{"$exists": true},
		"marathonTitle": bson.M{"$exists": true},
	}
}

func missingIndex(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.Code == codeIndexNotFound || cmdErr.Code == codeNamespaceNotFound
	}
	return false
}
