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

type rideRequestRepository struct {
	collection *mongo.Collection
}

func NewRideRequestRepository(db *mongo.Database) interfaces.RideRequestRepository {
	return &rideRequestRepository{
		collection: db.Collection(database.CollectionRideRequests),
	}
}

func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	if request.RejectedBy == nil {
		request.RejectedBy = []string{}
	}

	if _, err := r.collection.InsertOne(ctx, request); err != nil {
		return fmt.Errorf("failed to create ride request: %w", err)
	}
	return nil
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RideRequest, error) {
	var request models.RideRequest
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&request); err != nil {
		return nil, notFound(err)
	}
	return &request, nil
}

func (r *rideRequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.RideRequest, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	return r.find(ctx, bson.M{"requester_id": requesterID}, opts)
}

func (r *rideRequestRepository) ListAvailable(ctx context.Context, viewerID, university string, limit int) ([]*models.RideRequest, error) {
	filter := bson.M{
		"status":       models.RideRequestStatusPending,
		"university":   university,
		"requester_id": bson.M{"$ne": viewerID},
		"rejected_by":  bson.M{"$nin": bson.A{viewerID}},
	}
	opts := options.Find().SetSort(bson.D{{Key: "desired_time", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, filter, opts)
}

func (r *rideRequestRepository) AddRejection(ctx context.Context, id primitive.ObjectID, viewerID string) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{
			"$addToSet": bson.M{"rejected_by": viewerID},
			"$set":      bson.M{"updated_at": time.Now()},
		},
	)
	if err != nil {
		return fmt.Errorf("failed to reject ride request: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *rideRequestRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RideRequestStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride request status: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *rideRequestRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID, driverID string, rideID, bookingID primitive.ObjectID, at time.Time) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id, "status": models.RideRequestStatusPending},
		bson.M{"$set": bson.M{
			"status":              models.RideRequestStatusAccepted,
			"accepted_by":         driverID,
			"accepted_ride_id":    rideID,
			"accepted_booking_id": bookingID,
			"updated_at":          at,
		}},
	)
	if err != nil {
		return fmt.Errorf("failed to accept ride request: %w", err)
	}
	if result.MatchedCount == 0 {
		return r.missOrConflict(ctx, id)
	}
	return nil
}

func (r *rideRequestRepository) DeleteByRequester(ctx context.Context, requesterID string) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"requester_id": requesterID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete ride requests: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *rideRequestRepository) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	count, err := r.collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to check ride request: %w", err)
	}
	if count == 0 {
		return interfaces.ErrNotFound
	}
	return interfaces.ErrConflict
}

func (r *rideRequestRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.RideRequest, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find ride requests: %w", err)
	}
	defer cursor.Close(ctx)

	requests := make([]*models.RideRequest, 0)
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, fmt.Errorf("failed to decode ride requests: %w", err)
	}
	return requests, nil
}
