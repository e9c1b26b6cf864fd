package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRequestStatus string

const (
	RideRequestStatusPending   RideRequestStatus = "pending"
	RideRequestStatusAccepted  RideRequestStatus = "accepted"
	RideRequestStatusRejected  RideRequestStatus = "rejected"
	RideRequestStatusCancelled RideRequestStatus = "cancelled"
)

// RideRequest is a rider's post looking for a driver. RejectedBy holds the
// drivers who declined it; the request stays pending for everyone else.
type RideRequest struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	RequesterID       string              `json:"requester_id" bson:"requester_id"`
	University        string              `json:"university" bson:"university"`
	Pickup            Location            `json:"pickup" bson:"pickup"`
	Destination       Location            `json:"destination" bson:"destination"`
	DesiredTime       string              `json:"desired_time" bson:"desired_time"`
	Passengers        int                 `json:"passengers" bson:"passengers"`
	MaxPricePerSeat   float64             `json:"max_price_per_seat,omitempty" bson:"max_price_per_seat,omitempty"`
	Notes             string              `json:"notes,omitempty" bson:"notes,omitempty"`
	Status            RideRequestStatus   `json:"status" bson:"status"`
	RejectedBy        []string            `json:"-" bson:"rejected_by"`
	AcceptedBy        string              `json:"accepted_by,omitempty" bson:"accepted_by,omitempty"`
	AcceptedRideID    *primitive.ObjectID `json:"accepted_ride_id,omitempty" bson:"accepted_ride_id,omitempty"`
	AcceptedBookingID *primitive.ObjectID `json:"accepted_booking_id,omitempty" bson:"accepted_booking_id,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

func (r *RideRequest) RejectedByViewer(viewerID string) bool {
	for _, id := range r.RejectedBy {
		if id == viewerID {
			return true
		}
	}
	return false
}
