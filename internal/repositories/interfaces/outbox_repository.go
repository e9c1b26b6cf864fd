package interfaces

import (
	"context"
	"time"

	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, task *models.OutboxTask) error
	// ClaimDue leases one due task: pending with next_attempt_at <= now, or
	// processing with an expired lease. ErrNotFound when nothing is due.
	ClaimDue(ctx context.Context, now, leaseUntil time.Time) (*models.OutboxTask, error)
	MarkDone(ctx context.Context, id primitive.ObjectID) error
	Reschedule(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error
	MarkFailed(ctx context.Context, id primitive.ObjectID, attempts int, lastErr string) error
	CountByStatus(ctx context.Context, status models.OutboxStatus) (int64, error)
}
