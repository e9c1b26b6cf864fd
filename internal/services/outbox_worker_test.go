package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"campusride/internal/config"
	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestBackoff(t *testing.T) {
	base, ceiling := time.Second, 5*time.Minute
	tests := []struct {
		n    int
		want time.Duration
	}{
		{-1, time.Second},
		{0, time.Second},
		{1, 2 * time.Second},
		{3, 8 * time.Second},
		{8, 256 * time.Second},
		{9, 5 * time.Minute},
		{30, 5 * time.Minute},
	}
	for _, tt := range tests {
		if got := Backoff(tt.n, base, ceiling); got != tt.want {
			t.Errorf("Backoff(%d) = %v, want %v", tt.n, got, tt.want)
		}
	}
}

func TestWorkerBookingCreatedOpensChatAndNotifiesOwner(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "driver", 3, models.RideStatusNotStarted)

	if err := env.users.Upsert(ctx, &models.User{ID: "alice", DisplayName: "Alice", Email: "alice@state.edu"}); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	if _, err := env.bookingService.Book(ctx, &BookCommand{RideID: ride.ID, RiderID: "alice", Seats: 2}); err != nil {
		t.Fatalf("book: %v", err)
	}

	processed, err := env.worker(nil).ProcessBatch(ctx)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 task processed, got %d", processed)
	}

	chats, _, _ := env.chats.ListByParticipant(ctx, "driver", nil)
	if len(chats) != 1 || !chats[0].HasParticipant("alice") || chats[0].ChatType != models.ChatTypeRide {
		t.Fatalf("expected one ride chat between driver and alice, got %+v", chats)
	}

	notes := env.notificationsFor(t, "driver")
	if len(notes) != 1 {
		t.Fatalf("expected one owner notification, got %d", len(notes))
	}
	n := notes[0]
	if n.Type != models.NotificationTypeBookingCreated || n.ChatID == nil || *n.ChatID != chats[0].ID {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if !strings.Contains(n.Message, "Alice booked 2 seat(s)") || !strings.Contains(n.Message, "Springfield to Shelbyville") {
		t.Fatalf("unexpected message %q", n.Message)
	}
	if env.live.sentTo("driver") != 1 {
		t.Fatalf("expected live delivery to owner")
	}

	done, _ := env.outbox.CountByStatus(ctx, models.OutboxStatusDone)
	if done != 1 {
		t.Fatalf("expected task marked done, got %d", done)
	}
}

func TestWorkerStatusFanOutOnePerRider(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "driver", 4, models.RideStatusNotStarted)

	for _, rider := range []string{"alice", "alice", "bob"} {
		if _, err := env.bookingService.Book(ctx, &BookCommand{RideID: ride.ID, RiderID: rider, Seats: 1}); err != nil {
			t.Fatalf("book for %s: %v", rider, err)
		}
	}
	cancelled, err := env.bookingService.Book(ctx, &BookCommand{RideID: ride.ID, RiderID: "carol", Seats: 1})
	if err != nil {
		t.Fatalf("book for carol: %v", err)
	}
	if _, err := env.bookingService.Cancel(ctx, cancelled.ID, "carol"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := env.rideService.UpdateStatus(ctx, ride.ID, "driver", models.RideStatusStarted); err != nil {
		t.Fatalf("update status: %v", err)
	}

	w := env.worker(nil)
	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}

	statusNotes := func(user string) int {
		n := 0
		for _, note := range env.notificationsFor(t, user) {
			if note.Type == models.NotificationTypeRideStatus {
				n++
				if !strings.HasSuffix(note.Message, "is now started") {
					t.Errorf("unexpected status message %q", note.Message)
				}
			}
		}
		return n
	}
	if got := statusNotes("alice"); got != 1 {
		t.Fatalf("alice booked twice but should get one status notification, got %d", got)
	}
	if got := statusNotes("bob"); got != 1 {
		t.Fatalf("expected one status notification for bob, got %d", got)
	}
	if got := statusNotes("carol"); got != 0 {
		t.Fatalf("cancelled rider should not be notified, got %d", got)
	}

	// a rider cancellation notifies the owner
	var ownerCancelled int
	for _, note := range env.notificationsFor(t, "driver") {
		if note.Type == models.NotificationTypeBookingCancelled {
			ownerCancelled++
		}
	}
	if ownerCancelled != 1 {
		t.Fatalf("expected owner to hear about the cancellation once, got %d", ownerCancelled)
	}
}

func TestWorkerRedeliveryDoesNotDuplicateNotifications(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	ride := env.seedRide(t, "driver", 2, models.RideStatusNotStarted)

	if _, err := env.bookingService.Book(ctx, &BookCommand{RideID: ride.ID, RiderID: "alice", Seats: 1}); err != nil {
		t.Fatalf("book: %v", err)
	}
	rideID := ride.ID
	task := models.NewOutboxTask(models.OutboxKindRideStatusChanged, models.OutboxPayload{
		RideID: &rideID,
		Status: models.RideStatusFinished,
	}, time.Now())

	w := env.worker(nil)
	for i := 0; i < 3; i++ {
		if err := w.dispatch(ctx, task); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
	if got := len(env.notificationsFor(t, "alice")); got != 1 {
		t.Fatalf("expected one notification after redelivery, got %d", got)
	}
}

func TestWorkerRetriesThenFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	task := models.NewOutboxTask("mystery", models.OutboxPayload{}, time.Now())
	if err := env.outbox.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	w := env.worker(&config.OutboxConfig{
		BatchSize:    10,
		MaxAttempts:  2,
		BaseBackoff:  time.Second,
		MaxBackoff:   time.Minute,
		LeaseTimeout: 30 * time.Second,
	})
	clock := time.Now().Add(time.Minute)
	w.now = func() time.Time { return clock }

	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("first batch: %v", err)
	}
	tasks := env.store.Tasks()
	if tasks[0].Status != models.OutboxStatusPending || tasks[0].Attempts != 1 {
		t.Fatalf("expected rescheduled task, got %+v", tasks[0])
	}
	if !tasks[0].NextAttemptAt.Equal(clock.Add(time.Second)) {
		t.Fatalf("expected retry after base backoff, got %v", tasks[0].NextAttemptAt.Sub(clock))
	}
	if !strings.Contains(tasks[0].LastError, "mystery") {
		t.Fatalf("expected last error recorded, got %q", tasks[0].LastError)
	}

	// not due yet
	if n, _ := w.ProcessBatch(ctx); n != 0 {
		t.Fatalf("expected nothing due, processed %d", n)
	}

	clock = clock.Add(2 * time.Second)
	if _, err := w.ProcessBatch(ctx); err != nil {
		t.Fatalf("second batch: %v", err)
	}
	tasks = env.store.Tasks()
	if tasks[0].Status != models.OutboxStatusFailed || tasks[0].Attempts != 2 {
		t.Fatalf("expected failed task after max attempts, got %+v", tasks[0])
	}
}

func TestWorkerSkipsBookingTaskWhenRideIsGone(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rideID, bookingID := primitive.NewObjectID(), primitive.NewObjectID()
	task := models.NewOutboxTask(models.OutboxKindBookingCreated, models.OutboxPayload{
		RideID:    &rideID,
		BookingID: &bookingID,
		RiderID:   "alice",
		OwnerID:   "driver",
		Seats:     1,
	}, time.Now())
	if err := env.outbox.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := env.worker(nil).ProcessBatch(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	done, _ := env.outbox.CountByStatus(ctx, models.OutboxStatusDone)
	if done != 1 {
		t.Fatalf("expected missing ride to finish the task, got %d done", done)
	}
}

func TestWorkerRunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- env.worker(nil).Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}
}
