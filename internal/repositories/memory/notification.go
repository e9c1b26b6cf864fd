package memory

import (
	"context"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type notificationRepository struct {
	s *Store
}

func NewNotificationRepository(s *Store) interfaces.NotificationRepository {
	return &notificationRepository{s: s}
}

func (r *notificationRepository) CreateMany(ctx context.Context, notifications []*models.Notification) ([]*models.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	keys := make(map[string]bool)
	for _, n := range r.s.notifications {
		if n.DedupeKey != "" {
			keys[n.DedupeKey] = true
		}
	}

	inserted := make([]*models.Notification, 0, len(notifications))
	for _, n := range notifications {
		if n.DedupeKey != "" && keys[n.DedupeKey] {
			continue
		}
		if n.ID.IsZero() {
			n.ID = primitive.NewObjectID()
		}
		remember(ctx, r.s, r.s.notifications, n.ID, cloneNotification)
		r.s.notifications[n.ID] = cloneNotification(*n)
		if n.DedupeKey != "" {
			keys[n.DedupeKey] = true
		}
		inserted = append(inserted, n)
	}
	return inserted, nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, params *utils.PaginationParams) ([]*models.Notification, int64, error) {
	r.s.mu.RLock()
	all := make([]*models.Notification, 0)
	for _, n := range r.s.notifications {
		if n.UserID == userID {
			c := cloneNotification(n)
			all = append(all, &c)
		}
	}
	r.s.mu.RUnlock()

	return page(all, params, func(n *models.Notification) time.Time { return n.CreatedAt }), int64(len(all)), nil
}

func (r *notificationRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, notif := range r.s.notifications {
		if notif.UserID == userID && !notif.Read {
			n++
		}
	}
	return n, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id primitive.ObjectID, userID string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	n, ok := r.s.notifications[id]
	if !ok || n.UserID != userID {
		return interfaces.ErrNotFound
	}
	if !n.Read {
		t := at
		n.Read = true
		n.ReadAt = &t
		remember(ctx, r.s, r.s.notifications, id, cloneNotification)
		r.s.notifications[id] = n
	}
	return nil
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for id, n := range r.s.notifications {
		if n.UserID == userID && !n.Read {
			t := at
			n.Read = true
			n.ReadAt = &t
			remember(ctx, r.s, r.s.notifications, id, cloneNotification)
			r.s.notifications[id] = n
			count++
		}
	}
	return count, nil
}

func (r *notificationRepository) DeleteByUser(ctx context.Context, userID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var count int64
	for id, n := range r.s.notifications {
		if n.UserID == userID {
			remember(ctx, r.s, r.s.notifications, id, cloneNotification)
			delete(r.s.notifications, id)
			count++
		}
	}
	return count, nil
}
