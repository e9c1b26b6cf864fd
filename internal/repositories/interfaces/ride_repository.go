package interfaces

import (
	"context"
	"time"

	"campusride/internal/models"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RideQuery is the single store-side filter applied before in-memory
// matching.
type RideQuery struct {
	University string
	MinSeats   int
	Limit      int
}

type RideRepository interface {
	Create(ctx context.Context, ride *models.Ride) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error)
	ListByOwner(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	ListAllByOwner(ctx context.Context, ownerID string) ([]*models.Ride, error)
	// ListBookable returns rides still taking bookings, soonest first.
	ListBookable(ctx context.Context, query RideQuery) ([]*models.Ride, error)

	// ReserveSeats decrements available_seats only while the ride is
	// bookable and has at least seats left. ErrConflict otherwise.
	ReserveSeats(ctx context.Context, id primitive.ObjectID, seats int, at time.Time) error
	// ReleaseSeats credits seats back, never above total_seats.
	ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats int) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

type BookingRepository interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error)
	ListByRide(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error)
	ListByRider(ctx context.Context, riderID string, params *utils.PaginationParams) ([]*models.Booking, int64, error)
	ListConfirmedByRider(ctx context.Context, riderID string) ([]*models.Booking, error)
	CountConfirmedByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error)
	// MarkCancelled flips confirmed to cancelled and returns the booking as
	// it was before the flip. ErrConflict if it was not confirmed.
	MarkCancelled(ctx context.Context, id primitive.ObjectID, actorID string, at time.Time) (*models.Booking, error)
	DeleteByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error)
}
