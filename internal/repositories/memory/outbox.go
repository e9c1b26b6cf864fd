package memory

import (
	"context"
	"sort"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type outboxRepository struct {
	s *Store
}

func NewOutboxRepository(s *Store) interfaces.OutboxRepository {
	return &outboxRepository{s: s}
}

func (r *outboxRepository) Enqueue(ctx context.Context, task *models.OutboxTask) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if task.ID.IsZero() {
		task.ID = primitive.NewObjectID()
	}
	remember(ctx, r.s, r.s.outbox, task.ID, cloneOutboxTask)
	r.s.outbox[task.ID] = cloneOutboxTask(*task)
	return nil
}

func (r *outboxRepository) ClaimDue(ctx context.Context, now, leaseUntil time.Time) (*models.OutboxTask, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var due []models.OutboxTask
	for _, t := range r.s.outbox {
		pending := t.Status == models.OutboxStatusPending && !t.NextAttemptAt.After(now)
		expired := t.Status == models.OutboxStatusProcessing && t.LeaseUntil != nil && t.LeaseUntil.Before(now)
		if pending || expired {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil, interfaces.ErrNotFound
	}

	sort.Slice(due, func(i, j int) bool { return due[i].NextAttemptAt.Before(due[j].NextAttemptAt) })
	t := cloneOutboxTask(due[0])
	lease := leaseUntil
	t.Status = models.OutboxStatusProcessing
	t.LeaseUntil = &lease
	t.UpdatedAt = now
	remember(ctx, r.s, r.s.outbox, t.ID, cloneOutboxTask)
	r.s.outbox[t.ID] = t

	out := cloneOutboxTask(t)
	return &out, nil
}

func (r *outboxRepository) MarkDone(ctx context.Context, id primitive.ObjectID) error {
	return r.update(ctx, id, func(t *models.OutboxTask) {
		t.Status = models.OutboxStatusDone
		t.LeaseUntil = nil
		t.LastError = ""
	})
}

func (r *outboxRepository) Reschedule(ctx context.Context, id primitive.ObjectID, attempts int, next time.Time, lastErr string) error {
	return r.update(ctx, id, func(t *models.OutboxTask) {
		t.Status = models.OutboxStatusPending
		t.Attempts = attempts
		t.NextAttemptAt = next
		t.LeaseUntil = nil
		t.LastError = lastErr
	})
}

func (r *outboxRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, attempts int, lastErr string) error {
	return r.update(ctx, id, func(t *models.OutboxTask) {
		t.Status = models.OutboxStatusFailed
		t.Attempts = attempts
		t.LeaseUntil = nil
		t.LastError = lastErr
	})
}

func (r *outboxRepository) CountByStatus(ctx context.Context, status models.OutboxStatus) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var n int64
	for _, t := range r.s.outbox {
		if t.Status == status {
			n++
		}
	}
	return n, nil
}

func (r *outboxRepository) update(ctx context.Context, id primitive.ObjectID, fn func(t *models.OutboxTask)) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.outbox[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	t = cloneOutboxTask(t)
	fn(&t)
	t.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.outbox, id, cloneOutboxTask)
	r.s.outbox[id] = t
	return nil
}

// Tasks returns a copy of every outbox task. Used by tests.
func (s *Store) Tasks() []models.OutboxTask {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.OutboxTask, 0, len(s.outbox))
	for _, t := range s.outbox {
		out = append(out, cloneOutboxTask(t))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
