package mongodb

import (
	"context"
	"fmt"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var bookableStatuses = []models.RideStatus{
	models.RideStatusNotStarted,
	models.RideStatusWaitingForCustomer,
}

type rideRepository struct {
	collection *mongo.Collection
}

func NewRideRepository(db *mongo.Database) interfaces.RideRepository {
	return &rideRepository{
		collection: db.Collection(database.CollectionRides),
	}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}

	_, err := r.collection.InsertOne(ctx, ride)
	if err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create ride: %w", err)
	}
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	var ride models.Ride
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&ride)
	if err != nil {
		return nil, notFound(err)
	}
	return &ride, nil
}

func (r *rideRepository) ListByOwner(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	filter := bson.M{"owner_id": ownerID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count rides: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	defer cursor.Close(ctx)

	rides := make([]*models.Ride, 0)
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, 0, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, total, nil
}

func (r *rideRepository) ListAllByOwner(ctx context.Context, ownerID string) ([]*models.Ride, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID}, options.Find())
}

func (r *rideRepository) ListBookable(ctx context.Context, query interfaces.RideQuery) ([]*models.Ride, error) {
	minSeats := query.MinSeats
	if minSeats < 1 {
		minSeats = 1
	}

	filter := bson.M{
		"status":          bson.M{"$in": bookableStatuses},
		"available_seats": bson.M{"$gte": minSeats},
	}
	if query.University != "" {
		filter["university"] = query.University
	}

	opts := options.Find().SetSort(bson.D{{Key: "start_time", Value: 1}, {Key: "created_at", Value: -1}})
	if query.Limit > 0 {
		opts.SetLimit(int64(query.Limit))
	}
	return r.find(ctx, filter, opts)
}

// ReserveSeats is a single conditional $inc, so concurrent bookings can never
// drive available_seats below zero.
func (r *rideRepository) ReserveSeats(ctx context.Context, id primitive.ObjectID, seats int, at time.Time) error {
	filter := bson.M{
		"_id":             id,
		"status":          bson.M{"$in": bookableStatuses},
		"available_seats": bson.M{"$gte": seats},
	}
	update := bson.M{
		"$inc": bson.M{"available_seats": -seats},
		"$set": bson.M{"latest_booking_time": at, "updated_at": at},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to reserve seats: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrConflict
	}
	return nil
}

func (r *rideRepository) ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	filter := bson.M{
		"_id": id,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$available_seats", seats}},
			"$total_seats",
		}},
	}
	update := bson.M{
		"$inc": bson.M{"available_seats": seats},
		"$set": bson.M{"updated_at": time.Now()},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to release seats: %w", err)
	}
	if result.MatchedCount == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
		return interfaces.ErrConflict
	}
	return nil
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	result, err := r.collection.UpdateOne(
		ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now()}},
	)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *rideRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete ride: %w", err)
	}
	if result.DeletedCount == 0 {
		return interfaces.ErrNotFound
	}
	return nil
}

func (r *rideRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]*models.Ride, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find rides: %w", err)
	}
	defer cursor.Close(ctx)

	rides := make([]*models.Ride, 0)
	if err := cursor.All(ctx, &rides); err != nil {
		return nil, fmt.Errorf("failed to decode rides: %w", err)
	}
	return rides, nil
}
