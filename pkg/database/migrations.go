package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Migration struct {
	Version     int
	Description string
	Up          func(ctx context.Context, db *mongo.Database) error
}

type Migrator struct {
	db         *mongo.Database
	migrations []Migration
}

func NewMigrator(db *mongo.Database) *Migrator {
	return &Migrator{
		db:         db,
		migrations: getMigrations(),
	}
}

// Up applies every migration newer than the stored version, in order.
func (m *Migrator) Up(ctx context.Context) (int, error) {
	currentVersion, err := m.getCurrentVersion(ctx)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, migration := range m.migrations {
		if migration.Version <= currentVersion {
			continue
		}
		if err := migration.Up(ctx, m.db); err != nil {
			return applied, fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}
		if err := m.updateVersion(ctx, migration.Version); err != nil {
			return applied, fmt.Errorf("failed to update migration version: %w", err)
		}
		applied++
	}

	return applied, nil
}

func (m *Migrator) getCurrentVersion(ctx context.Context) (int, error) {
	var result struct {
		Version int `bson:"version"`
	}

	err := m.db.Collection(CollectionMigrations).FindOne(ctx, bson.D{}).Decode(&result)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return 0, nil
		}
		return 0, err
	}

	return result.Version, nil
}

func (m *Migrator) updateVersion(ctx context.Context, version int) error {
	_, err := m.db.Collection(CollectionMigrations).ReplaceOne(
		ctx,
		bson.D{},
		bson.D{{Key: "version", Value: version}, {Key: "updated_at", Value: time.Now()}},
		options.Replace().SetUpsert(true),
	)
	return err
}

func getMigrations() []Migration {
	return []Migration{
		{Version: 1, Description: "rides and bookings indexes", Up: createRideIndexes},
		{Version: 2, Description: "ride request indexes", Up: createRideRequestIndexes},
		{Version: 3, Description: "chat and message indexes", Up: createChatIndexes},
		{Version: 4, Description: "notification indexes", Up: createNotificationIndexes},
		{Version: 5, Description: "marketplace indexes", Up: createMarketplaceIndexes},
		{Version: 6, Description: "outbox indexes", Up: createOutboxIndexes},
		{Version: 7, Description: "cars indexes", Up: createCarIndexes},
	}
}

func createIndexes(ctx context.Context, db *mongo.Database, collection string, indexes []mongo.IndexModel) error {
	_, err := db.Collection(collection).Indexes().CreateMany(ctx, indexes)
	return err
}

func createRideIndexes(ctx context.Context, db *mongo.Database) error {
	err := createIndexes(ctx, db, CollectionRides, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "start_time", Value: 1}}},
	})
	if err != nil {
		return err
	}
	return createIndexes(ctx, db, CollectionBookings, []mongo.IndexModel{
		{Keys: bson.D{{Key: "ride_id", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "rider_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})
}

func createRideRequestIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, CollectionRideRequests, []mongo.IndexModel{
		{Keys: bson.D{{Key: "university", Value: 1}, {Key: "status", Value: 1}, {Key: "desired_time", Value: 1}}},
		{Keys: bson.D{{Key: "requester_id", Value: 1}}},
	})
}

func createChatIndexes(ctx context.Context, db *mongo.Database) error {
	err := createIndexes(ctx, db, CollectionChats, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_key", Value: 1}, {Key: "listing_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
	})
	if err != nil {
		return err
	}
	return createIndexes(ctx, db, CollectionMessages, []mongo.IndexModel{
		{Keys: bson.D{{Key: "chat_id", Value: 1}, {Key: "created_at", Value: 1}}},
	})
}

func createNotificationIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, CollectionNotifications, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys:    bson.D{{Key: "dedupe_key", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
}

func createMarketplaceIndexes(ctx context.Context, db *mongo.Database) error {
	err := createIndexes(ctx, db, CollectionListings, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "category", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "seller_id", Value: 1}}},
	})
	if err != nil {
		return err
	}
	return createIndexes(ctx, db, CollectionSavedItems, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "listing_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	})
}

func createOutboxIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, CollectionOutbox, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "next_attempt_at", Value: 1}}},
	})
}

func createCarIndexes(ctx context.Context, db *mongo.Database) error {
	return createIndexes(ctx, db, CollectionCars, []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
	})
}
