package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/logger"
	"campusride/pkg/push"
	"campusride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationService interface {
	List(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Notification, int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	MarkRead(ctx context.Context, userID string, notificationID primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	// CreateBatch stores the batch in one write and delivers what was
	// inserted. Notifications whose dedupe key already exists are skipped.
	CreateBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error)
}

type notificationService struct {
	notificationRepo interfaces.NotificationRepository
	userRepo         interfaces.UserRepository
	live             LivePublisher
	pusher           push.PushProvider
	logger           *logger.Logger
}

// NewNotificationService accepts a nil pusher when push delivery is disabled.
func NewNotificationService(
	notificationRepo interfaces.NotificationRepository,
	userRepo interfaces.UserRepository,
	live LivePublisher,
	pusher push.PushProvider,
	log *logger.Logger,
) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		live:             livePublisherOrNop(live),
		pusher:           pusher,
		logger:           log,
	}
}

func (s *notificationService) List(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	notifications, total, err := s.notificationRepo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, total, nil
}

func (s *notificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	count, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to count notifications: %w", err)
	}
	return count, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID string, notificationID primitive.ObjectID) error {
	err := s.notificationRepo.MarkRead(ctx, notificationID, userID, time.Now())
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrNotificationNotFound
		}
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	n, err := s.notificationRepo.MarkAllRead(ctx, userID, time.Now())
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return n, nil
}

func (s *notificationService) CreateBatch(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	if len(notifications) == 0 {
		return nil, nil
	}

	now := time.Now()
	for _, n := range notifications {
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = now
		}
		if n.Type == "" {
			n.Type = models.NotificationTypeGeneral
		}
	}

	inserted, err := s.notificationRepo.CreateMany(ctx, notifications)
	if err != nil {
		return nil, fmt.Errorf("failed to create notifications: %w", err)
	}

	for _, n := range inserted {
		s.deliver(ctx, n)
	}
	return inserted, nil
}

// deliver is best effort. The stored notification is the source of truth.
func (s *notificationService) deliver(ctx context.Context, n *models.Notification) {
	msg := websocket.Message{Type: websocket.MessageTypeNotification, Data: n}
	if err := s.live.SendToUser(ctx, n.UserID, msg); err != nil {
		s.logger.WithError(err).WithUserID(n.UserID).Warn("Failed to deliver notification live")
	}

	if s.pusher == nil {
		return
	}

	user, err := s.userRepo.GetByID(ctx, n.UserID)
	if err != nil {
		if !errors.Is(err, interfaces.ErrNotFound) {
			s.logger.WithError(err).WithUserID(n.UserID).Warn("Failed to load devices for push")
		}
		return
	}
	if len(user.Devices) == 0 {
		return
	}

	requests := make([]*push.NotificationRequest, 0, len(user.Devices))
	for _, d := range user.Devices {
		requests = append(requests, &push.NotificationRequest{
			Token:       d.Token,
			Platform:    d.Platform,
			Title:       n.Title,
			Body:        n.Message,
			Data:        pushData(n),
			Sound:       "default",
			CollapseKey: collapseKey(n),
		})
	}

	responses, err := s.pusher.SendBulkNotifications(ctx, requests)
	if err != nil {
		s.logger.WithError(err).WithUserID(n.UserID).Warn("Push delivery failed")
		return
	}
	for _, r := range responses {
		if r != nil && !r.Success {
			s.logger.WithUserID(n.UserID).WithField("push_error", r.Error).Warn("Push rejected for device")
		}
	}
}

func pushData(n *models.Notification) map[string]string {
	data := map[string]string{
		"notification_id": n.ID.Hex(),
		"type":            string(n.Type),
	}
	if n.RideID != nil {
		data["ride_id"] = n.RideID.Hex()
	}
	if n.BookingID != nil {
		data["booking_id"] = n.BookingID.Hex()
	}
	if n.ChatID != nil {
		data["chat_id"] = n.ChatID.Hex()
	}
	if n.ListingID != nil {
		data["listing_id"] = n.ListingID.Hex()
	}
	return data
}

func collapseKey(n *models.Notification) string {
	switch {
	case n.ChatID != nil:
		return "chat_" + n.ChatID.Hex()
	case n.RideID != nil:
		return "ride_" + n.RideID.Hex()
	}
	return ""
}
