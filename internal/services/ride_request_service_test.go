package services

import (
	"context"
	"errors"
	"testing"

	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func requestInput() *CreateRideRequestInput {
	return &CreateRideRequestInput{
		University:  "State U",
		Pickup:      models.Location{Address: "Dorm 4", City: "Springfield"},
		Destination: models.Location{Address: "Central Station", City: "Capital City"},
		DesiredTime: "2025-05-02T08:30:00Z",
		Passengers:  2,
	}
}

func TestRejectedRequestHiddenOnlyFromRejectingDriver(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.requestService.Create(ctx, "rider", requestInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	visible := func(viewer string) bool {
		list, err := env.requestService.ListAvailable(ctx, viewer, "State U")
		if err != nil {
			t.Fatalf("list for %s: %v", viewer, err)
		}
		for _, r := range list {
			if r.ID == request.ID {
				return true
			}
		}
		return false
	}

	if visible("rider") {
		t.Fatal("requester should not see their own request")
	}
	if !visible("driver-1") || !visible("driver-2") {
		t.Fatal("expected both drivers to see the request")
	}

	if err := env.requestService.Reject(ctx, request.ID, "driver-1"); err != nil {
		t.Fatalf("reject: %v", err)
	}
	// rejecting twice is harmless
	if err := env.requestService.Reject(ctx, request.ID, "driver-1"); err != nil {
		t.Fatalf("reject again: %v", err)
	}

	if visible("driver-1") {
		t.Fatal("rejected request still visible to the rejecting driver")
	}
	if !visible("driver-2") {
		t.Fatal("rejection leaked to another driver")
	}

	stored, err := env.requestService.Get(ctx, request.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if stored.Status != models.RideRequestStatusPending || len(stored.RejectedBy) != 1 {
		t.Fatalf("unexpected stored request: %+v", stored)
	}

	if err := env.requestService.Reject(ctx, request.ID, "rider"); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation rejecting own request, got %v", err)
	}
}

func TestCreateRideRequestValidation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		edit  func(in *CreateRideRequestInput)
		field string
	}{
		{"no university", func(in *CreateRideRequestInput) { in.University = " " }, "university"},
		{"no passengers", func(in *CreateRideRequestInput) { in.Passengers = 0 }, "passengers"},
		{"bad time", func(in *CreateRideRequestInput) { in.DesiredTime = "soon" }, "desired_time"},
		{"no destination", func(in *CreateRideRequestInput) { in.Destination = models.Location{} }, "destination"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := requestInput()
			tt.edit(in)
			_, err := env.requestService.Create(ctx, "rider", in)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tt.field {
				t.Fatalf("expected validation error on %q, got %v", tt.field, err)
			}
		})
	}
}

func TestAcceptRideRequestPublishesAndBooks(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.requestService.Create(ctx, "rider", requestInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	result, err := env.requestService.Accept(ctx, request.ID, "driver", &PublishRideInput{TotalSeats: 4, PricePerSeat: 8})
	if err != nil {
		t.Fatalf("accept: %v", err)
	}

	if result.Ride.OwnerID != "driver" || result.Ride.StartTime != request.DesiredTime || result.Ride.University != "State U" {
		t.Fatalf("ride not derived from request: %+v", result.Ride)
	}
	if result.Booking.RiderID != "rider" || result.Booking.SeatsBooked != 2 {
		t.Fatalf("unexpected booking: %+v", result.Booking)
	}
	if result.Request.Status != models.RideRequestStatusAccepted || *result.Request.AcceptedRideID != result.Ride.ID {
		t.Fatalf("unexpected request: %+v", result.Request)
	}
	if got := env.availableSeats(t, result.Ride.ID); got != 2 {
		t.Fatalf("expected 2 seats left on the new ride, got %d", got)
	}

	tasks := env.store.Tasks()
	if tasksOfKind(tasks, models.OutboxKindBookingCreated) != 1 || tasksOfKind(tasks, models.OutboxKindRideRequestAccepted) != 1 {
		t.Fatalf("unexpected outbox tasks: %+v", tasks)
	}

	if _, err := env.requestService.Accept(ctx, request.ID, "driver-2", &PublishRideInput{}); !errors.Is(err, ErrRideRequestClosed) {
		t.Fatalf("expected ErrRideRequestClosed, got %v", err)
	}
	if list, _ := env.requestService.ListAvailable(ctx, "driver-2", "State U"); len(list) != 0 {
		t.Fatalf("accepted request still listed: %d", len(list))
	}

	if _, err := env.worker(nil).ProcessBatch(ctx); err != nil {
		t.Fatalf("process: %v", err)
	}
	var accepted int
	for _, n := range env.notificationsFor(t, "rider") {
		if n.Type == models.NotificationTypeRideRequestAccepted {
			accepted++
		}
	}
	if accepted != 1 {
		t.Fatalf("expected rider to be told once, got %d", accepted)
	}
}

func TestAcceptRideRequestRollsBackOnFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.requestService.Create(ctx, "rider", requestInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := env.requestService.Accept(ctx, request.ID, "driver", &PublishRideInput{TotalSeats: 1}); !errors.Is(err, ErrNotEnoughSeats) {
		t.Fatalf("expected ErrNotEnoughSeats, got %v", err)
	}
	if _, err := env.requestService.Accept(ctx, request.ID, "rider", &PublishRideInput{}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation accepting own request, got %v", err)
	}

	rides, _ := env.rides.ListAllByOwner(ctx, "driver")
	if len(rides) != 0 {
		t.Fatalf("failed accept left %d rides behind", len(rides))
	}
	stored, _ := env.requestService.Get(ctx, request.ID)
	if stored.Status != models.RideRequestStatusPending {
		t.Fatalf("expected request still pending, got %s", stored.Status)
	}
}

func TestCancelRideRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	request, err := env.requestService.Create(ctx, "rider", requestInput())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := env.requestService.Cancel(ctx, request.ID, "driver"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := env.requestService.Cancel(ctx, request.ID, "rider"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := env.requestService.Cancel(ctx, request.ID, "rider"); !errors.Is(err, ErrRideRequestClosed) {
		t.Fatalf("expected ErrRideRequestClosed, got %v", err)
	}
	if err := env.requestService.Reject(ctx, request.ID, "driver"); !errors.Is(err, ErrRideRequestClosed) {
		t.Fatalf("expected ErrRideRequestClosed on reject, got %v", err)
	}
	if _, err := env.requestService.Get(ctx, primitive.NewObjectID()); !errors.Is(err, ErrRideRequestNotFound) {
		t.Fatalf("expected ErrRideRequestNotFound, got %v", err)
	}
}
