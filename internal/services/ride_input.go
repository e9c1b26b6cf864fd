package services

import (
	"strings"
	"time"

	"campusride/internal/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PublishRideInput is what a driver submits to offer a ride.
type PublishRideInput struct {
	CarID         *primitive.ObjectID
	University    string
	Pickup        models.Location
	Destination   models.Location
	StartTime     string
	EndTime       string
	TotalSeats    int
	PricePerSeat  float64
	TollFee       float64
	TollsIncluded bool
	Amenities     models.Amenities
	Notes         string
}

// newRide validates input and builds a ride with every seat available.
func newRide(ownerID string, input *PublishRideInput, now time.Time) (*models.Ride, error) {
	if input.TotalSeats < models.MinRideSeats || input.TotalSeats > models.MaxRideSeats {
		return nil, invalid("total_seats", "must be between %d and %d", models.MinRideSeats, models.MaxRideSeats)
	}
	if input.PricePerSeat < 0 {
		return nil, invalid("price_per_seat", "must not be negative")
	}
	if input.TollFee < 0 {
		return nil, invalid("toll_fee", "must not be negative")
	}
	if input.Pickup.IsZero() {
		return nil, invalid("pickup", "is required")
	}
	if input.Destination.IsZero() {
		return nil, invalid("destination", "is required")
	}

	start, err := time.Parse(time.RFC3339, strings.TrimSpace(input.StartTime))
	if err != nil {
		return nil, invalid("start_time", "must be an RFC3339 timestamp")
	}
	if input.EndTime != "" {
		end, err := time.Parse(time.RFC3339, strings.TrimSpace(input.EndTime))
		if err != nil {
			return nil, invalid("end_time", "must be an RFC3339 timestamp")
		}
		if !end.After(start) {
			return nil, invalid("end_time", "must be after start_time")
		}
	}

	return &models.Ride{
		ID:             primitive.NewObjectID(),
		OwnerID:        ownerID,
		CarID:          input.CarID,
		University:     strings.TrimSpace(input.University),
		Pickup:         input.Pickup,
		Destination:    input.Destination,
		StartTime:      strings.TrimSpace(input.StartTime),
		EndTime:        strings.TrimSpace(input.EndTime),
		TotalSeats:     input.TotalSeats,
		AvailableSeats: input.TotalSeats,
		PricePerSeat:   input.PricePerSeat,
		Status:         models.RideStatusNotStarted,
		TollFee:        input.TollFee,
		TollsIncluded:  input.TollsIncluded,
		Amenities:      input.Amenities,
		Notes:          strings.TrimSpace(input.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func routeLabel(ride *models.Ride) string {
	return placeLabel(ride.Pickup) + " to " + placeLabel(ride.Destination)
}

func placeLabel(l models.Location) string {
	if l.City != "" {
		return l.City
	}
	return l.Address
}
