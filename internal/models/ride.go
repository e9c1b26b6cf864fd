package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideStatus string

const (
	RideStatusNotStarted         RideStatus = "not_started"
	RideStatusWaitingForCustomer RideStatus = "waiting_for_customer"
	RideStatusStarted            RideStatus = "started"
	RideStatusFinished           RideStatus = "finished"
	RideStatusCancelled          RideStatus = "cancelled"
)

var rideStatuses = map[RideStatus]string{
	RideStatusNotStarted:         "not started",
	RideStatusWaitingForCustomer: "waiting for customer",
	RideStatusStarted:            "started",
	RideStatusFinished:           "finished",
	RideStatusCancelled:          "cancelled",
}

func (s RideStatus) Valid() bool {
	_, ok := rideStatuses[s]
	return ok
}

// Label is the human-readable form used in notification text.
func (s RideStatus) Label() string {
	if l, ok := rideStatuses[s]; ok {
		return l
	}
	return string(s)
}

// Bookable reports whether seats may still be claimed.
func (s RideStatus) Bookable() bool {
	return s == RideStatusNotStarted || s == RideStatusWaitingForCustomer
}

const (
	MinRideSeats = 1
	MaxRideSeats = 8
)

type Ride struct {
	ID                primitive.ObjectID  `json:"id" bson:"_id,omitempty"`
	OwnerID           string              `json:"owner_id" bson:"owner_id"`
	CarID             *primitive.ObjectID `json:"car_id,omitempty" bson:"car_id,omitempty"`
	University        string              `json:"university,omitempty" bson:"university,omitempty"`
	Pickup            Location            `json:"pickup" bson:"pickup"`
	Destination       Location            `json:"destination" bson:"destination"`
	StartTime         string              `json:"start_time" bson:"start_time"`
	EndTime           string              `json:"end_time,omitempty" bson:"end_time,omitempty"`
	TotalSeats        int                 `json:"total_seats" bson:"total_seats"`
	AvailableSeats    int                 `json:"available_seats" bson:"available_seats"`
	PricePerSeat      float64             `json:"price_per_seat" bson:"price_per_seat"`
	Status            RideStatus          `json:"status" bson:"status"`
	TollFee           float64             `json:"toll_fee" bson:"toll_fee"`
	TollsIncluded     bool                `json:"tolls_included" bson:"tolls_included"`
	Amenities         Amenities           `json:"amenities" bson:"amenities"`
	Notes             string              `json:"notes,omitempty" bson:"notes,omitempty"`
	LatestBookingTime *time.Time          `json:"latest_booking_time,omitempty" bson:"latest_booking_time,omitempty"`
	CreatedAt         time.Time           `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at" bson:"updated_at"`
}

type Amenities struct {
	PetsAllowed     bool `json:"pets_allowed" bson:"pets_allowed"`
	SmokingAllowed  bool `json:"smoking_allowed" bson:"smoking_allowed"`
	LuggageAllowed  bool `json:"luggage_allowed" bson:"luggage_allowed"`
	AirConditioning bool `json:"air_conditioning" bson:"air_conditioning"`
}

func (r *Ride) BookedSeats() int {
	return r.TotalSeats - r.AvailableSeats
}
