package interfaces

import (
	"context"

	"campusride/internal/models"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatRepository interface {
	// FindOrCreate upserts on participant_key + listing_id. created reports
	// whether this call inserted the document.
	FindOrCreate(ctx context.Context, chat *models.Chat) (result *models.Chat, created bool, err error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error)
	ListByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error)

	// AppendMessage stores the message, sets the last-message fields and
	// increments the recipient's unread counter in one step.
	AppendMessage(ctx context.Context, message *models.Message, recipientID string) error
	ListMessages(ctx context.Context, chatID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Message, int64, error)
	// MarkRead zeroes the reader's counter and flags the other party's
	// messages as seen.
	MarkRead(ctx context.Context, chatID primitive.ObjectID, readerID string) error
}
