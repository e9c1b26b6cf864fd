package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type NotificationType string

const (
	NotificationTypeBookingCreated      NotificationType = "booking_created"
	NotificationTypeBookingCancelled    NotificationType = "booking_cancelled"
	NotificationTypeRideStatus          NotificationType = "ride_status"
	NotificationTypeRideRequestAccepted NotificationType = "ride_request_accepted"
	NotificationTypeNewMessage          NotificationType = "new_message"
	NotificationTypeListingMessage      NotificationType = "listing_message"
	NotificationTypeGeneral             NotificationType = "general"
)

type Notification struct {
	ID        primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	UserID    string              `json:"user_id" bson:"user_id"`
	Type      NotificationType    `json:"type" bson:"type"`
	Title     string              `json:"title" bson:"title"`
	Message   string              `json:"message" bson:"message"`
	RideID    *primitive.ObjectID `json:"ride_id,omitempty" bson:"ride_id,omitempty"`
	BookingID *primitive.ObjectID `json:"booking_id,omitempty" bson:"booking_id,omitempty"`
	ChatID    *primitive.ObjectID `json:"chat_id,omitempty" bson:"chat_id,omitempty"`
	ListingID *primitive.ObjectID `json:"listing_id,omitempty" bson:"listing_id,omitempty"`
	// DedupeKey makes redelivered outbox tasks idempotent.
	DedupeKey string     `json:"-" bson:"dedupe_key,omitempty"`
	Read      bool       `json:"read" bson:"read"`
	ReadAt    *time.Time `json:"read_at,omitempty" bson:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}
