package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingStatus string

const (
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

type Booking struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	RideID      primitive.ObjectID `json:"ride_id" bson:"ride_id"`
	RiderID     string             `json:"rider_id" bson:"rider_id"`
	OwnerID     string             `json:"owner_id" bson:"owner_id"`
	SeatsBooked int                `json:"seats_booked" bson:"seats_booked"`
	TotalPrice  float64            `json:"total_price" bson:"total_price"`
	Status      BookingStatus      `json:"status" bson:"status"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
	CancelledAt *time.Time         `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancelledBy string             `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
}
