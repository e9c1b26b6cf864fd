package maps

import (
	"context"
	"errors"
)

var ErrEmptyQuery = errors.New("query is required")

// MapsProvider backs the location suggestion box. Results are hints for the
// client; nothing server-side is validated against them.
type MapsProvider interface {
	Autocomplete(ctx context.Context, request *AutocompleteRequest) ([]Prediction, error)
	GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error)
	Geocode(ctx context.Context, address string) ([]PlaceDetails, error)
}

type AutocompleteRequest struct {
	Input        string  `json:"input"`
	SessionToken string  `json:"session_token,omitempty"`
	Country      string  `json:"country,omitempty"`
	Near         *LatLng `json:"near,omitempty"`
	RadiusMeters uint    `json:"radius_meters,omitempty"`
	Language     string  `json:"language,omitempty"`
}

type Prediction struct {
	Description string `json:"description"`
	PlaceID     string `json:"place_id"`
}

type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PlaceDetails is shaped like the Location stored on rides so the client can
// copy it straight into a publish request.
type PlaceDetails struct {
	PlaceID string  `json:"place_id"`
	Name    string  `json:"name,omitempty"`
	Address string  `json:"address"`
	City    string  `json:"city"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}
