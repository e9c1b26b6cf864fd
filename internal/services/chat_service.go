package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campusride/internal/metrics"
	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/logger"
	"campusride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type ChatService interface {
	FindOrCreate(ctx context.Context, userA, userB string, chatType models.ChatType, listingID *primitive.ObjectID) (*models.Chat, error)
	Get(ctx context.Context, chatID primitive.ObjectID, userID string) (*models.Chat, error)
	ListChats(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error)
	SendMessage(ctx context.Context, chatID primitive.ObjectID, senderID, text string) (*models.Message, error)
	ListMessages(ctx context.Context, chatID primitive.ObjectID, userID string, params *utils.PaginationParams) ([]*models.Message, int64, error)
	MarkRead(ctx context.Context, chatID primitive.ObjectID, userID string) error
	// CanJoinRoom is the websocket room authorizer for chat rooms.
	CanJoinRoom(ctx context.Context, userID, roomID string) bool
}

type chatService struct {
	chatRepo interfaces.ChatRepository
	live     LivePublisher
	logger   *logger.Logger
}

func NewChatService(chatRepo interfaces.ChatRepository, live LivePublisher, log *logger.Logger) ChatService {
	return &chatService{
		chatRepo: chatRepo,
		live:     livePublisherOrNop(live),
		logger:   log,
	}
}

func (s *chatService) FindOrCreate(ctx context.Context, userA, userB string, chatType models.ChatType, listingID *primitive.ObjectID) (*models.Chat, error) {
	if userA == "" || userB == "" {
		return nil, invalid("participants", "both participants are required")
	}
	if userA == userB {
		return nil, invalid("participants", "a chat needs two distinct users")
	}
	if !chatType.Valid() {
		return nil, invalid("chat_type", "unknown chat type %q", chatType)
	}
	if chatType == models.ChatTypeMarketplace && listingID == nil {
		return nil, invalid("listing_id", "is required for marketplace chats")
	}

	now := time.Now()
	chat := &models.Chat{
		ID:             primitive.NewObjectID(),
		Participants:   models.SortedPair(userA, userB),
		ParticipantKey: models.ParticipantKey(userA, userB),
		ChatType:       chatType,
		ListingID:      listingID,
		Unread:         map[string]int{userA: 0, userB: 0},
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	result, created, err := s.chatRepo.FindOrCreate(ctx, chat)
	if err != nil {
		return nil, fmt.Errorf("failed to find or create chat: %w", err)
	}
	if created {
		s.logger.WithFields(map[string]interface{}{
			"chat_id":   result.ID.Hex(),
			"chat_type": chatType,
		}).Debug("Chat created")
	}
	return result, nil
}

func (s *chatService) Get(ctx context.Context, chatID primitive.ObjectID, userID string) (*models.Chat, error) {
	chat, err := s.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	if !chat.HasParticipant(userID) {
		return nil, ErrNotParticipant
	}
	return chat, nil
}

func (s *chatService) ListChats(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	chats, total, err := s.chatRepo.ListByParticipant(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, total, nil
}

func (s *chatService) SendMessage(ctx context.Context, chatID primitive.ObjectID, senderID, text string) (*models.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, invalid("text", "is required")
	}
	if utf8.RuneCountInString(text) > models.MaxMessageLength {
		return nil, invalid("text", "must be at most %d characters", models.MaxMessageLength)
	}

	chat, err := s.Get(ctx, chatID, senderID)
	if err != nil {
		return nil, err
	}
	recipient := chat.OtherParticipant(senderID)

	message := &models.Message{
		ID:        primitive.NewObjectID(),
		ChatID:    chatID,
		SenderID:  senderID,
		Text:      text,
		CreatedAt: time.Now(),
	}
	if err := s.chatRepo.AppendMessage(ctx, message, recipient); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to send message: %w", err)
	}
	metrics.MessagesSent.Inc()

	live := websocket.Message{Type: websocket.MessageTypeChatMessage, Data: message}
	if err := s.live.SendToUser(ctx, recipient, live); err != nil {
		s.logger.WithError(err).WithUserID(recipient).Warn("Failed to deliver chat message live")
	}
	if err := s.live.Publish(ctx, websocket.ChatRoom(chatID.Hex()), live); err != nil {
		s.logger.WithError(err).Warn("Failed to publish chat message to room")
	}

	return message, nil
}

func (s *chatService) ListMessages(ctx context.Context, chatID primitive.ObjectID, userID string, params *utils.PaginationParams) ([]*models.Message, int64, error) {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return nil, 0, err
	}

	messages, total, err := s.chatRepo.ListMessages(ctx, chatID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, total, nil
}

func (s *chatService) MarkRead(ctx context.Context, chatID primitive.ObjectID, userID string) error {
	if _, err := s.Get(ctx, chatID, userID); err != nil {
		return err
	}
	if err := s.chatRepo.MarkRead(ctx, chatID, userID); err != nil {
		return fmt.Errorf("failed to mark chat read: %w", err)
	}
	return nil
}

func (s *chatService) CanJoinRoom(ctx context.Context, userID, roomID string) bool {
	hex := strings.TrimPrefix(roomID, websocket.ChatRoom(""))
	if hex == roomID {
		return false
	}
	chatID, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return false
	}
	_, err = s.Get(ctx, chatID, userID)
	return err == nil
}
