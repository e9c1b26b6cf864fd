package memory

import (
	"context"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type chatRepository struct {
	s *Store
}

func NewChatRepository(s *Store) interfaces.ChatRepository {
	return &chatRepository{s: s}
}

func sameListing(a, b *primitive.ObjectID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func (r *chatRepository) FindOrCreate(ctx context.Context, chat *models.Chat) (*models.Chat, bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.chats {
		if existing.ParticipantKey == chat.ParticipantKey && sameListing(existing.ListingID, chat.ListingID) {
			out := cloneChat(existing)
			return &out, false, nil
		}
	}

	if chat.ID.IsZero() {
		chat.ID = primitive.NewObjectID()
	}
	if chat.Unread == nil {
		chat.Unread = map[string]int{}
	}
	stored := cloneChat(*chat)
	remember(ctx, r.s, r.s.chats, chat.ID, cloneChat)
	r.s.chats[chat.ID] = stored
	out := cloneChat(stored)
	return &out, true, nil
}

func (r *chatRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Chat, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.chats[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneChat(c)
	return &out, nil
}

func (r *chatRepository) ListByParticipant(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Chat, int64, error) {
	r.s.mu.RLock()
	all := make([]*models.Chat, 0)
	for _, c := range r.s.chats {
		if c.HasParticipant(userID) {
			cc := cloneChat(c)
			all = append(all, &cc)
		}
	}
	r.s.mu.RUnlock()

	return page(all, params, func(c *models.Chat) time.Time { return c.UpdatedAt }), int64(len(all)), nil
}

func (r *chatRepository) AppendMessage(ctx context.Context, message *models.Message, recipientID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[message.ChatID]
	if !ok {
		return interfaces.ErrNotFound
	}
	if message.ID.IsZero() {
		message.ID = primitive.NewObjectID()
	}
	remember(ctx, r.s, r.s.messages, message.ID, identity[models.Message])
	r.s.messages[message.ID] = *message

	chat = cloneChat(chat)
	at := message.CreatedAt
	chat.LastMessage = message.Text
	chat.LastMessageAt = &at
	chat.LastSenderID = message.SenderID
	chat.Unread[recipientID]++
	chat.UpdatedAt = at
	remember(ctx, r.s, r.s.chats, chat.ID, cloneChat)
	r.s.chats[chat.ID] = chat
	return nil
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID primitive.ObjectID, params *utils.PaginationParams) ([]*models.Message, int64, error) {
	r.s.mu.RLock()
	all := make([]*models.Message, 0)
	for _, m := range r.s.messages {
		if m.ChatID == chatID {
			mm := m
			all = append(all, &mm)
		}
	}
	r.s.mu.RUnlock()

	return page(all, params, func(m *models.Message) time.Time { return m.CreatedAt }), int64(len(all)), nil
}

func (r *chatRepository) MarkRead(ctx context.Context, chatID primitive.ObjectID, readerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	chat, ok := r.s.chats[chatID]
	if !ok {
		return interfaces.ErrNotFound
	}
	chat = cloneChat(chat)
	chat.Unread[readerID] = 0
	remember(ctx, r.s, r.s.chats, chatID, cloneChat)
	r.s.chats[chatID] = chat

	for id, m := range r.s.messages {
		if m.ChatID == chatID && m.SenderID != readerID && !m.Seen {
			m.Seen = true
			remember(ctx, r.s, r.s.messages, id, identity[models.Message])
			r.s.messages[id] = m
		}
	}
	return nil
}
