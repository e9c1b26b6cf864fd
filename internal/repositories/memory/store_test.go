package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newRide(seats int) *models.Ride {
	return &models.Ride{
		ID:             primitive.NewObjectID(),
		OwnerID:        "driver",
		University:     "State U",
		TotalSeats:     seats,
		AvailableSeats: seats,
		Status:         models.RideStatusNotStarted,
		CreatedAt:      time.Now(),
	}
}

func TestWithTransactionRollsBack(t *testing.T) {
	store := NewStore()
	rides := NewRideRepository(store)
	bookings := NewBookingRepository(store)
	ctx := context.Background()

	ride := newRide(3)
	if err := rides.Create(ctx, ride); err != nil {
		t.Fatalf("create: %v", err)
	}

	boom := errors.New("boom")
	err := store.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := rides.ReserveSeats(txCtx, ride.ID, 2, time.Now()); err != nil {
			return err
		}
		if err := bookings.Create(txCtx, &models.Booking{ID: primitive.NewObjectID(), RideID: ride.ID, RiderID: "alice", SeatsBooked: 2}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the callback error, got %v", err)
	}

	got, _ := rides.GetByID(ctx, ride.ID)
	if got.AvailableSeats != 3 || got.LatestBookingTime != nil {
		t.Fatalf("seat reservation not rolled back: %+v", got)
	}
	if left, _ := bookings.ListByRide(ctx, ride.ID, ""); len(left) != 0 {
		t.Fatalf("booking not rolled back: %d", len(left))
	}

	err = store.WithTransaction(ctx, func(txCtx context.Context) error {
		return rides.ReserveSeats(txCtx, ride.ID, 1, time.Now())
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if got, _ := rides.GetByID(ctx, ride.ID); got.AvailableSeats != 2 {
		t.Fatalf("expected committed reservation, got %d", got.AvailableSeats)
	}
}

func TestRollbackKeepsWritesMadeOutsideTheTransaction(t *testing.T) {
	store := NewStore()
	rides := NewRideRepository(store)
	outbox := NewOutboxRepository(store)
	requests := NewRideRequestRepository(store)
	ctx := context.Background()

	ride := newRide(2)
	if err := rides.Create(ctx, ride); err != nil {
		t.Fatalf("create ride: %v", err)
	}
	task := models.NewOutboxTask(models.OutboxKindBookingCreated, models.OutboxPayload{}, time.Now().Add(-time.Minute))
	if err := outbox.Enqueue(ctx, task); err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := outbox.ClaimDue(ctx, time.Now(), time.Now().Add(time.Minute)); err != nil {
		t.Fatalf("claim: %v", err)
	}
	request := &models.RideRequest{RequesterID: "amy", University: "State U", Status: models.RideRequestStatusPending}
	if err := requests.Create(ctx, request); err != nil {
		t.Fatalf("create request: %v", err)
	}

	inTx := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- store.WithTransaction(ctx, func(txCtx context.Context) error {
			if err := rides.ReserveSeats(txCtx, ride.ID, 1, time.Now()); err != nil {
				return err
			}
			close(inTx)
			<-release
			return errors.New("not enough available seats")
		})
	}()

	<-inTx
	if err := outbox.MarkDone(ctx, task.ID); err != nil {
		t.Fatalf("mark done: %v", err)
	}
	if err := requests.AddRejection(ctx, request.ID, "zed"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	close(release)
	if err := <-done; err == nil {
		t.Fatal("expected the transaction to fail")
	}

	if got, _ := rides.GetByID(ctx, ride.ID); got.AvailableSeats != 2 {
		t.Fatalf("seat reservation not rolled back: %d", got.AvailableSeats)
	}
	if n, _ := outbox.CountByStatus(ctx, models.OutboxStatusDone); n != 1 {
		t.Fatalf("task completed outside the transaction was reverted")
	}
	if _, err := outbox.ClaimDue(ctx, time.Now().Add(time.Hour), time.Now().Add(2*time.Hour)); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("finished task handed out again: %v", err)
	}
	if got, _ := requests.GetByID(ctx, request.ID); !got.RejectedByViewer("zed") {
		t.Fatal("rejection made outside the transaction was reverted")
	}
}

func TestReserveAndReleaseSeats(t *testing.T) {
	store := NewStore()
	rides := NewRideRepository(store)
	ctx := context.Background()

	ride := newRide(2)
	if err := rides.Create(ctx, ride); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := rides.ReserveSeats(ctx, ride.ID, 3, time.Now()); !errors.Is(err, interfaces.ErrConflict) {
		t.Fatalf("expected ErrConflict overbooking, got %v", err)
	}
	if err := rides.ReserveSeats(ctx, ride.ID, 2, time.Now()); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := rides.ReleaseSeats(ctx, ride.ID, 3); !errors.Is(err, interfaces.ErrConflict) {
		t.Fatalf("expected ErrConflict releasing past total, got %v", err)
	}
	if err := rides.ReleaseSeats(ctx, ride.ID, 2); err != nil {
		t.Fatalf("release: %v", err)
	}

	if err := rides.UpdateStatus(ctx, ride.ID, models.RideStatusStarted); err != nil {
		t.Fatalf("status: %v", err)
	}
	if err := rides.ReserveSeats(ctx, ride.ID, 1, time.Now()); !errors.Is(err, interfaces.ErrConflict) {
		t.Fatalf("expected ErrConflict on a started ride, got %v", err)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	store := NewStore()
	chats := NewChatRepository(store)
	ctx := context.Background()

	chat, _, err := chats.FindOrCreate(ctx, &models.Chat{
		Participants:   models.SortedPair("amy", "zed"),
		ParticipantKey: models.ParticipantKey("amy", "zed"),
		ChatType:       models.ChatTypeRide,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	chat.Participants[0] = "mallory"
	chat.Unread["amy"] = 99

	stored, _ := chats.GetByID(ctx, chat.ID)
	if stored.Participants[0] != "amy" || stored.Unread["amy"] != 0 {
		t.Fatalf("caller mutation leaked into the store: %+v", stored)
	}
}

func TestClaimDueLeases(t *testing.T) {
	store := NewStore()
	outbox := NewOutboxRepository(store)
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	later := models.NewOutboxTask(models.OutboxKindBookingCreated, models.OutboxPayload{}, now.Add(time.Minute))
	first := models.NewOutboxTask(models.OutboxKindBookingCreated, models.OutboxPayload{}, now.Add(-time.Minute))
	for _, task := range []*models.OutboxTask{later, first} {
		if err := outbox.Enqueue(ctx, task); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	claimed, err := outbox.ClaimDue(ctx, now, now.Add(30*time.Second))
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if claimed.ID != first.ID || claimed.Status != models.OutboxStatusProcessing {
		t.Fatalf("unexpected claim: %+v", claimed)
	}

	// leased and not yet due
	if _, err := outbox.ClaimDue(ctx, now, now.Add(30*time.Second)); !errors.Is(err, interfaces.ErrNotFound) {
		t.Fatalf("expected nothing claimable, got %v", err)
	}

	// an expired lease makes the task claimable again
	reclaimed, err := outbox.ClaimDue(ctx, now.Add(45*time.Second), now.Add(75*time.Second))
	if err != nil {
		t.Fatalf("reclaim: %v", err)
	}
	if reclaimed.ID != first.ID {
		t.Fatalf("expected the expired lease to be reclaimed, got %s", reclaimed.ID.Hex())
	}

	if err := outbox.MarkDone(ctx, first.ID); err != nil {
		t.Fatalf("done: %v", err)
	}
	if n, _ := outbox.CountByStatus(ctx, models.OutboxStatusDone); n != 1 {
		t.Fatalf("expected 1 done, got %d", n)
	}
}
