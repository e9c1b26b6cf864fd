package mongodb

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func newMock(t *testing.T) *mtest.T {
	return mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
}

func updateAck(matched int32) bson.D {
	return mtest.CreateSuccessResponse(bson.E{Key: "n", Value: matched}, bson.E{Key: "nModified", Value: matched})
}

func TestReserveSeats(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("guards on available seats", func(mt *mtest.T) {
		rides := NewRideRepository(mt.DB)
		mt.AddMockResponses(updateAck(1))

		if err := rides.ReserveSeats(ctx, primitive.NewObjectID(), 2, time.Now()); err != nil {
			mt.Fatalf("ReserveSeats: %v", err)
		}

		cmd := mt.GetStartedEvent().Command
		if got := cmd.Lookup("updates", "0", "q", "available_seats", "$gte").AsInt64(); got != 2 {
			mt.Errorf("$gte guard = %d, want 2", got)
		}
		if got := cmd.Lookup("updates", "0", "q", "status", "$in", "0").StringValue(); got != string(models.RideStatusNotStarted) {
			mt.Errorf("first bookable status = %q", got)
		}
		if got := cmd.Lookup("updates", "0", "u", "$inc", "available_seats").AsInt64(); got != -2 {
			mt.Errorf("$inc = %d, want -2", got)
		}
	})

	mt.Run("no match is a conflict", func(mt *mtest.T) {
		rides := NewRideRepository(mt.DB)
		mt.AddMockResponses(updateAck(0))

		err := rides.ReserveSeats(ctx, primitive.NewObjectID(), 5, time.Now())
		if !errors.Is(err, interfaces.ErrConflict) {
			mt.Fatalf("err = %v, want ErrConflict", err)
		}
	})
}

func TestReleaseSeats(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("caps at total seats", func(mt *mtest.T) {
		rides := NewRideRepository(mt.DB)
		mt.AddMockResponses(updateAck(1))

		if err := rides.ReleaseSeats(ctx, primitive.NewObjectID(), 1); err != nil {
			mt.Fatalf("ReleaseSeats: %v", err)
		}

		bound := mt.GetStartedEvent().Command.Lookup("updates", "0", "q", "$expr", "$lte")
		if got := bound.Array().Lookup("1").StringValue(); got != "$total_seats" {
			mt.Errorf("cap bound = %q, want $total_seats", got)
		}
		if got := bound.Array().Lookup("0", "$add", "1").AsInt64(); got != 1 {
			mt.Errorf("released seats in cap = %d, want 1", got)
		}
	})

	mt.Run("full ride is a conflict", func(mt *mtest.T) {
		rides := NewRideRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			updateAck(0),
			mtest.CreateCursorResponse(0, "campusride.rides", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "total_seats", Value: 3},
				{Key: "available_seats", Value: 3},
			}),
		)

		err := rides.ReleaseSeats(ctx, id, 1)
		if !errors.Is(err, interfaces.ErrConflict) {
			mt.Fatalf("err = %v, want ErrConflict", err)
		}
	})

	mt.Run("missing ride is not found", func(mt *mtest.T) {
		rides := NewRideRepository(mt.DB)
		mt.AddMockResponses(
			updateAck(0),
			mtest.CreateCursorResponse(0, "campusride.rides", mtest.FirstBatch),
		)

		err := rides.ReleaseSeats(ctx, primitive.NewObjectID(), 1)
		if !errors.Is(err, interfaces.ErrNotFound) {
			mt.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}

func TestMarkCancelled(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	mt.Run("flips a confirmed booking", func(mt *mtest.T) {
		bookings := NewBookingRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "rider_id", Value: "amy"},
			{Key: "seats_booked", Value: 2},
			{Key: "status", Value: string(models.BookingStatusConfirmed)},
		}}))

		before, err := bookings.MarkCancelled(ctx, id, "amy", time.Now())
		if err != nil {
			mt.Fatalf("MarkCancelled: %v", err)
		}
		if before.Status != models.BookingStatusConfirmed || before.SeatsBooked != 2 {
			mt.Errorf("before image = %+v", before)
		}

		cmd := mt.GetStartedEvent().Command
		if got := cmd.Lookup("query", "status").StringValue(); got != string(models.BookingStatusConfirmed) {
			mt.Errorf("filter status = %q", got)
		}
		if got := cmd.Lookup("update", "$set", "status").StringValue(); got != string(models.BookingStatusCancelled) {
			mt.Errorf("new status = %q", got)
		}
		if got := cmd.Lookup("update", "$set", "cancelled_by").StringValue(); got != "amy" {
			mt.Errorf("cancelled_by = %q", got)
		}
	})

	mt.Run("second cancel is a conflict", func(mt *mtest.T) {
		bookings := NewBookingRepository(mt.DB)
		id := primitive.NewObjectID()
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}),
			mtest.CreateCursorResponse(0, "campusride.bookings", mtest.FirstBatch, bson.D{
				{Key: "_id", Value: id},
				{Key: "status", Value: string(models.BookingStatusCancelled)},
			}),
		)

		_, err := bookings.MarkCancelled(ctx, id, "amy", time.Now())
		if !errors.Is(err, interfaces.ErrConflict) {
			mt.Fatalf("err = %v, want ErrConflict", err)
		}
	})
}

func TestCreateManySkipsDuplicates(t *testing.T) {
	mt := newMock(t)
	ctx := context.Background()

	batch := func() []*models.Notification {
		return []*models.Notification{
			{UserID: "amy", Title: "one"},
			{UserID: "amy", Title: "two"},
			{UserID: "amy", Title: "three"},
		}
	}

	mt.Run("duplicate keys are dropped", func(mt *mtest.T) {
		notifications := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   1,
			Code:    11000,
			Message: "E11000 duplicate key error",
		}))

		inserted, err := notifications.CreateMany(ctx, batch())
		if err != nil {
			mt.Fatalf("CreateMany: %v", err)
		}
		if len(inserted) != 2 || inserted[0].Title != "one" || inserted[1].Title != "three" {
			mt.Fatalf("inserted = %+v", inserted)
		}
		if ordered := mt.GetStartedEvent().Command.Lookup("ordered").Boolean(); ordered {
			mt.Error("insert should be unordered")
		}
	})

	mt.Run("other write errors fail", func(mt *mtest.T) {
		notifications := NewNotificationRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    121,
			Message: "Document failed validation",
		}))

		if _, err := notifications.CreateMany(ctx, batch()); err == nil {
			mt.Fatal("expected validation error")
		}
	})
}
