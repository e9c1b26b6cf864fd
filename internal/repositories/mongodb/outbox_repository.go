package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type outboxRepository struct {
	collection *mongo.Collection
}

func NewOutboxRepository(db *mongo.Database) interfaces.OutboxRepository {
	return &outboxRepository{
		collection: db.Collection(database.CollectionOutbox),
	}
}

func (r *outboxRepository) Enqueue(ctx context.Context, task *models.OutboxTask) error {
	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	if _, err := r.collection.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue outbox task: %w", err)
	}
	return nil
}

// ClaimDue leases the oldest due task with one findOneAndUpdate, so two
// workers never hold the same task at once.
func (r *outboxRepository) ClaimDue(ctx context.Context, now, leaseUntil time.Time) (*models.OutboxTask, error) {
	filter := bson.M{"$or": bson.A{
		bson.M{"status": models.OutboxStatusPending, "next_attempt_at": bson.M{"$lte": now}},
		bson.M{"status": models.OutboxStatusProcessing, "lease_until": bson.M{"$lt": now}},
	}}
	update := bson.M{"$set": bson.M{
		"status":      models.OutboxStatusProcessing,
		"lease_until": leaseUntil,
		"updated_at":  now,
	}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "next_attempt_at", Value: 1}}).
		SetReturnDocument(options.After)

	var task models.OutboxTask
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&task); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, interfaces.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim outbox task: %w", err)
	}
	return &task, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	return r.update(ctx, id, bson.M{
		"$set":   bson.M{"status": models.OutboxStatusDone, "updated_at": time.Now()},
		"$unset": bson.M{"lease_until": "", "last_error": ""},
	})
}

func (r *outboxRepository) Reschedule(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{
			"status":          models.OutboxStatusPending,
			"attempts":        attempts,
			"next_attempt_at": next,
			"last_error":      lastErr,
			"updated_at":      time.Now(),
		},
		"$unset": bson.M{"lease_until": ""},
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, attempts int, lastErr string) error {
	return r.update(ctx, id, bson.M{
		"$set": bson.M{
			"status":     models.OutboxStatusFailed,
			"attempts":   attempts,
			"last_error": lastErr,
			"updated_at": time.Now(),
		},
		"$unset": bson.M{"lease_until": ""},
	})
}

func (r *outboxRepository) CountByStatus(ctx context.Context, status models.OutboxStatus) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"status": status})
	if err != nil {
		return 0, fmt.Errorf("failed to count outbox tasks: %w", err)
	}
	return count, nil
}

func (r *outboxRepository) update(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update outbox task: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}
