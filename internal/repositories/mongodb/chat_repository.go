package mongodb

import (
	"context"
	"fmt"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type chatRepository struct {
	chats    *mongo.Collection
	messages *mongo.Collection
}

func NewChatRepository(db *mongo.Database) interfaces.ChatRepository {
	return &chatRepository{
		chats:    db.Collection(database.CollectionChats),
		messages: db.Collection(database.CollectionMessages),
	}
}

func chatKeyFilter(chat *models.Chat) bson.M {
	return bson.M{
		"participant_key": chat.ParticipantKey,
		"listing_id":      chat.ListingID,
	}
}

// FindOrCreate upserts on the unique (participant_key, listing_id) index. A
// racing insert surfaces as a duplicate key error and is resolved by reading
// the winner's document.
func (r *chatRepository) FindOrCreate(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	if chat.Unread == nil {
		chat.Unread = map[string]int{}
	}

	filter := chatKeyFilter(chat)
	update := bson.M{"$setOnInsert": bson.M{
		"_id":          chat.ID,
		"participants": chat.Participants,
		"chat_type":    chat.ChatType,
		"last_message": chat.LastMessage,
		"unread":       chat.Unread,
		"created_at":   chat.CreatedAt,
		"updated_at":   chat.UpdatedAt,
	}}

	result, err := r.chats.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil && !isDuplicateKey(err) {
		return nil, false, fmt.Errorf("failed to find or create chat: %w", err)
	}
	created := err == nil && result.UpsertedCount > 0

	var stored models.Chat
	if err := r.chats.FindOne(ctx, filter).Decode(&stored); err != nil {
		return nil, false, fmt.Errorf("failed to load chat: %w", notFound(err))
	}
	return &stored, created, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	var chat models.Chat
	if err := r.chats.FindOne(ctx, bson.M{"_id": id}).Decode(&chat); err != nil {
		return nil, notFound(err)
	}
	return &chat, nil
}

func (r *chatRepository) ListByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	filter := bson.M{"participants": userID}

	total, err := r.chats.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count chats: %w", err)
	}

	cursor, err := r.chats.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chats: %w", err)
	}
	defer cursor.Close(ctx)

	chats := make([]*models.Chat, 0)
	if err := cursor.All(ctx, &chats); err != nil {
		return nil, 0, fmt.Errorf("failed to decode chats: %w", err)
	}
	return chats, total, nil
}

// AppendMessage inserts the message and then updates the chat with $set and
// $inc in one document write, so concurrent senders never lose a count.
func (r *chatRepository) AppendMessage(ctx context.Context, message *models.Message, recipientID string) error {
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}

	update := bson.M{
		"$set": bson.M{
			"last_message":    message.Text,
			"last_message_at": message.CreatedAt,
			"last_sender_id":  message.SenderID,
			"updated_at":      message.CreatedAt,
		},
		"$inc": bson.M{"unread." + recipientID: 1},
	}
	result, err := r.chats.UpdateOne(ctx, bson.M{"_id": message.ChatID}, update)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	if _, err := r.messages.InsertOne(ctx, message); err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Message, int64, error) {
	filter := bson.M{"chat_id": chatID}

	total, err := r.messages.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}

	cursor, err := r.messages.Find(ctx, filter, params.GetSortOptions())
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := make([]*models.Message, 0)
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, 0, fmt.Errorf("failed to decode messages: %w", err)
	}
	return messages, total, nil
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID primitive.ObjectID, readerID string) error {
	result, err := r.chats.UpdateOne(
		ctx,
		bson.M{"_id": chatID},
		bson.M{"$set": bson.M{"unread." + readerID: 0}},
	)
	if err != nil {
		return fmt.Errorf("failed to reset unread counter: %w", err)
	}
	if result.MatchedCount == 0 {
		return interfaces.ErrNotFound
	}

	_, err = r.messages.UpdateMany(
		ctx,
		bson.M{"chat_id": chatID, "sender_id": bson.M{"$ne": readerID}, "seen": false},
		bson.M{"$set": bson.M{"seen": true}},
	)
	if err != nil {
		return fmt.Errorf("failed to mark messages seen: %w", err)
	}
	return nil
}
