package interfaces

import (
	"context"
	"time"

	"campusride/internal/models"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationRepository interface {
	// CreateMany inserts the batch, skipping documents whose dedupe key
	// already exists, and returns the ones actually inserted.
	CreateMany(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error)
	ListByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	CountUnread(ctx context.Context, userID string) (int64, error)
	// MarkRead returns ErrNotFound when the notification does not belong to
	// userID.
	MarkRead(ctx context.Context, id primitive.ObjectID, userID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error)
	DeleteByUser(ctx context.Context, userID string) (int64, error)
}
