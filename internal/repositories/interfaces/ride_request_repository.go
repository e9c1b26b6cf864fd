package interfaces

import (
	"context"
	"time"

	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRequestRepository interface {
	Create(ctx context.Context, request *models.RideRequest) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.RideRequest, error)
	ListByRequester(ctx context.Context, requesterID string) ([]*models.RideRequest, error)
	// ListAvailable is one query: pending requests at university that the
	// viewer neither posted nor rejected, ordered by desired time.
	ListAvailable(ctx context.Context, viewerID, university string, limit int) ([]*models.RideRequest, error)
	AddRejection(ctx context.Context, id primitive.ObjectID, viewerID string) error
	// TransitionStatus moves a request from one status to another; ErrConflict
	// if the stored status is not from.
	TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RideRequestStatus) error
	MarkAccepted(ctx context.Context, id primitive.ObjectID, driverID string, rideID, bookingID primitive.ObjectID, at time.Time) error
	DeleteByRequester(ctx context.Context, requesterID string) (int64, error)
}
