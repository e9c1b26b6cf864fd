package interfaces

import (
	"context"

	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	Upsert(ctx context.Context, user *models.User) error
	// AddDevice registers a push token, replacing an older entry with the
	// same token.
	AddDevice(ctx context.Context, userID string, device models.DeviceInfo) error
	RemoveDevice(ctx context.Context, userID, token string) error
	Delete(ctx context.Context, id string) error
}

type CarRepository interface {
	Create(ctx context.Context, car *models.Car) error
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Car, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.Car, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	DeleteByOwner(ctx context.Context, ownerID string) (int64, error)
}
