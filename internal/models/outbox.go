package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type OutboxKind string

const (
	OutboxKindBookingCreated      OutboxKind = "booking_created"
	OutboxKindBookingCancelled    OutboxKind = "booking_cancelled"
	OutboxKindRideStatusChanged   OutboxKind = "ride_status_changed"
	OutboxKindRideRequestAccepted OutboxKind = "ride_request_accepted"
)

type OutboxStatus string

const (
	OutboxStatusPending    OutboxStatus = "pending"
	OutboxStatusProcessing OutboxStatus = "processing"
	OutboxStatusDone       OutboxStatus = "done"
	OutboxStatusFailed     OutboxStatus = "failed"
)

// OutboxTask is an intent written in the same transaction as the state
// change it describes. The worker performs the side effects.
type OutboxTask struct {
	ID            primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Kind          OutboxKind         `json:"kind" bson:"kind"`
	Payload       OutboxPayload      `json:"payload" bson:"payload"`
	Status        OutboxStatus       `json:"status" bson:"status"`
	Attempts      int                `json:"attempts" bson:"attempts"`
	NextAttemptAt time.Time          `json:"next_attempt_at" bson:"next_attempt_at"`
	LeaseUntil    *time.Time         `json:"lease_until,omitempty" bson:"lease_until,omitempty"`
	LastError     string             `json:"last_error,omitempty" bson:"last_error,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

type OutboxPayload struct {
	RideID        *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	BookingID     *primitive.ObjectID `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	RequestID     *primitive.ObjectID `json:"request_id,omitempty" bson:"request_id,omitempty"`
	ActorID       string              `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	RiderID       string              `json:"rider_id,omitempty" bson:"rider_id,omitempty"`
	OwnerID       string              `json:"owner_id,omitempty" bson:"owner_id,omitempty"`
	Seats         int                 `json:"seats,omitempty" bson:"seats,omitempty"`
	Status        RideStatus          `json:"status,omitempty" bson:"status,omitempty"`
	PreviousState RideStatus          `json:"previous_status,omitempty" bson:"previous_status,omitempty"`
}

func NewOutboxTask(kind OutboxKind, payload OutboxPayload, now time.Time) *OutboxTask {
	return &OutboxTask{
		ID:            primitive.NewObjectID(),
		Kind:          kind,
		Payload:       payload,
		Status:        OutboxStatusPending,
		NextAttemptAt: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}
