package validators

import (
	"strings"

	"campusride/internal/models"
	"campusride/internal/services"
)

type LocationRequest struct {
	Address string  `json:"address" validate:"required,min=3,max=255"`
	City    string  `json:"city" validate:"omitempty,max=100"`
	PlaceID string  `json:"place_id" validate:"omitempty,max=255"`
	Lat     float64 `json:"lat" validate:"omitempty,min=-90,max=90"`
	Lng     float64 `json:"lng" validate:"omitempty,min=-180,max=180"`
}

func (l LocationRequest) ToModel() models.Location {
	return models.Location{
		Address: SanitizeInput(l.Address),
		City:    SanitizeInput(l.City),
		PlaceID: strings.TrimSpace(l.PlaceID),
		Lat:     l.Lat,
		Lng:     l.Lng,
	}
}

type AmenitiesRequest struct {
	PetsAllowed     bool `json:"pets_allowed"`
	SmokingAllowed  bool `json:"smoking_allowed"`
	LuggageAllowed  bool `json:"luggage_allowed"`
	AirConditioning bool `json:"air_conditioning"`
}

func (a AmenitiesRequest) ToModel() models.Amenities {
	return models.Amenities(a)
}

type PublishRideRequest struct {
	CarID         string           `json:"car_id" validate:"omitempty,object_id"`
	University    string           `json:"university" validate:"required,max=120"`
	Pickup        LocationRequest  `json:"pickup" validate:"required"`
	Destination   LocationRequest  `json:"destination" validate:"required"`
	StartTime     string           `json:"start_time" validate:"required,rfc3339"`
	EndTime       string           `json:"end_time" validate:"omitempty,rfc3339"`
	TotalSeats    int              `json:"total_seats" validate:"required,min=1,max=8"`
	PricePerSeat  float64          `json:"price_per_seat" validate:"gte=0,lte=10000"`
	TollFee       float64          `json:"toll_fee" validate:"gte=0,lte=1000"`
	TollsIncluded bool             `json:"tolls_included"`
	Amenities     AmenitiesRequest `json:"amenities"`
	Notes         string           `json:"notes" validate:"omitempty,max=500"`
}

func (r *PublishRideRequest) ToInput() *services.PublishRideInput {
	return &services.PublishRideInput{
		CarID:         optionalObjectID(r.CarID),
		University:    strings.TrimSpace(r.University),
		Pickup:        r.Pickup.ToModel(),
		Destination:   r.Destination.ToModel(),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalSeats:    r.TotalSeats,
		PricePerSeat:  r.PricePerSeat,
		TollFee:       r.TollFee,
		TollsIncluded: r.TollsIncluded,
		Amenities:     r.Amenities.ToModel(),
		Notes:         SanitizeInput(r.Notes),
	}
}

type BookRideRequest struct {
	Seats int `json:"seats" validate:"required,min=1,max=8"`
}

type UpdateRideStatusRequest struct {
	Status string `json:"status" validate:"required,ride_status"`
}

// RideSearchQuery is bound from the query string.
type RideSearchQuery struct {
	University string `form:"university" json:"university" validate:"required,max=120"`
	From       string `form:"from" json:"from" validate:"omitempty,max=100"`
	To         string `form:"to" json:"to" validate:"omitempty,max=100"`
	Date       string `form:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	Seats      int    `form:"seats" json:"seats" validate:"omitempty,min=1,max=8"`
}

func (q *RideSearchQuery) ToFilter() services.RideFilter {
	return services.RideFilter{
		FromCity: strings.TrimSpace(q.From),
		ToCity:   strings.TrimSpace(q.To),
		Date:     q.Date,
		Seats:    q.Seats,
	}
}

type CreateRideRequestRequest struct {
	University      string          `json:"university" validate:"required,max=120"`
	Pickup          LocationRequest `json:"pickup" validate:"required"`
	Destination     LocationRequest `json:"destination" validate:"required"`
	DesiredTime     string          `json:"desired_time" validate:"required,rfc3339"`
	Passengers      int             `json:"passengers" validate:"required,min=1,max=8"`
	MaxPricePerSeat float64         `json:"max_price_per_seat" validate:"gte=0,lte=10000"`
	Notes           string          `json:"notes" validate:"omitempty,max=500"`
}

func (r *CreateRideRequestRequest) ToInput() *services.CreateRideRequestInput {
	return &services.CreateRideRequestInput{
		University:      strings.TrimSpace(r.University),
		Pickup:          r.Pickup.ToModel(),
		Destination:     r.Destination.ToModel(),
		DesiredTime:     r.DesiredTime,
		Passengers:      r.Passengers,
		MaxPricePerSeat: r.MaxPricePerSeat,
		Notes:           SanitizeInput(r.Notes),
	}
}

// AcceptRideRequestRequest describes the ride the driver offers. Omitted
// fields are taken from the request being accepted.
type AcceptRideRequestRequest struct {
	CarID         string           `json:"car_id" validate:"omitempty,object_id"`
	StartTime     string           `json:"start_time" validate:"omitempty,rfc3339"`
	EndTime       string           `json:"end_time" validate:"omitempty,rfc3339"`
	TotalSeats    int              `json:"total_seats" validate:"omitempty,min=1,max=8"`
	PricePerSeat  float64          `json:"price_per_seat" validate:"gte=0,lte=10000"`
	TollFee       float64          `json:"toll_fee" validate:"gte=0,lte=1000"`
	TollsIncluded bool             `json:"tolls_included"`
	Amenities     AmenitiesRequest `json:"amenities"`
	Notes         string           `json:"notes" validate:"omitempty,max=500"`
}

func (r *AcceptRideRequestRequest) ToInput() *services.PublishRideInput {
	return &services.PublishRideInput{
		CarID:         optionalObjectID(r.CarID),
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		TotalSeats:    r.TotalSeats,
		PricePerSeat:  r.PricePerSeat,
		TollFee:       r.TollFee,
		TollsIncluded: r.TollsIncluded,
		Amenities:     r.Amenities.ToModel(),
		Notes:         SanitizeInput(r.Notes),
	}
}
