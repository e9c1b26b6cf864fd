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

type bookingRepository struct {
	collection *mongo.Collection
}

func NewBookingRepository(db *mongo.Database) interfaces.BookingRepository {
	return &bookingRepository{
		collection: db.Collection(database.CollectionBookings),
	}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}

	if _, err := r.collection.InsertOne(ctx, booking); err != nil {
		if isDuplicateKey(err) {
			return interfaces.ErrDuplicate
		}
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	var booking models.Booking
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&booking); err != nil {
		return nil, notFound(err)
	}
	return &booking, nil
}

func (r *bookingRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error) {
	filter := bson.M{"ride_id": rideID}
	if status != "" {
		filter["status"] = status
	}
	return r.find(ctx, filter)
}

func (r *bookingRepository) ListByRider(ctx context.Context, riderID string, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	filter := bson.M{"rider_id": riderID}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count bookings: %w", err)
	}

	cursor, err := r.collection.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, 0, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, total, nil
}

func (r *bookingRepository) ListConfirmedByRider(ctx context.Context, riderID string) ([]*models.Booking, error) {
	return r.find(ctx, bson.M{"rider_id": riderID, "status": models.BookingStatusConfirmed})
}

func (r *bookingRepository) CountConfirmedByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{"ride_id": rideID, "status": models.BookingStatusConfirmed})
	if err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return count, nil
}

// MarkCancelled only matches a confirmed booking, so of two racing cancels
// exactly one gets the document back.
func (r *bookingRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, actorID string, at time.Time) (*models.Booking, error) {
	filter := bson.M{"_id": id, "status": models.BookingStatusConfirmed}
	update := bson.M{"$set": bson.M{
		"status":       models.BookingStatusCancelled,
		"cancelled_at": at,
		"cancelled_by": actorID,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)

	var before models.Booking
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if err == nil {
		return &before, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to cancel booking: %w", err)
	}

	if _, err := r.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, interfaces.ErrConflict
}

func (r *bookingRepository) DeleteByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error) {
	result, err := r.collection.DeleteMany(ctx, bson.M{"ride_id": rideID})
	if err != nil {
		return 0, fmt.Errorf("failed to delete bookings: %w", err)
	}
	return result.DeletedCount, nil
}

func (r *bookingRepository) find(ctx context.Context, filter bson.M) ([]*models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find bookings: %w", err)
	}
	defer cursor.Close(ctx)

	bookings := make([]*models.Booking, 0)
	if err := cursor.All(ctx, &bookings); err != nil {
		return nil, fmt.Errorf("failed to decode bookings: %w", err)
	}
	return bookings, nil
}
