package maps

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"googlemaps.github.io/maps"
)

type GoogleMapsProvider struct {
	client *maps.Client
}

func NewGoogleMapsProvider(apiKey string) (*GoogleMapsProvider, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Maps client: %w", err)
	}

	return &GoogleMapsProvider{
		client: client,
	}, nil
}

func (g *GoogleMapsProvider) Autocomplete(ctx context.Context, request *AutocompleteRequest) ([]Prediction, error) {
	input := strings.TrimSpace(request.Input)
	if input == "" {
		return nil, ErrEmptyQuery
	}

	req := &maps.PlaceAutocompleteRequest{
		Input:    input,
		Language: request.Language,
	}
	if request.SessionToken != "" {
		if token, err := uuid.Parse(request.SessionToken); err == nil {
			req.SessionToken = maps.PlaceAutocompleteSessionToken(token)
		}
	}
	if request.Country != "" {
		req.Components = map[maps.Component][]string{
			maps.ComponentCountry: {request.Country},
		}
	}
	if request.Near != nil {
		req.Location = &maps.LatLng{Lat: request.Near.Lat, Lng: request.Near.Lng}
		req.Radius = request.RadiusMeters
	}

	resp, err := g.client.PlaceAutocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("autocomplete request failed: %w", err)
	}

	predictions := make([]Prediction, len(resp.Predictions))
	for i, p := range resp.Predictions {
		predictions[i] = Prediction{
			Description: p.Description,
			PlaceID:     p.PlaceID,
		}
	}

	return predictions, nil
}

func (g *GoogleMapsProvider) GetPlaceDetails(ctx context.Context, placeID string) (*PlaceDetails, error) {
	if placeID == "" {
		return nil, ErrEmptyQuery
	}

	resp, err := g.client.PlaceDetails(ctx, &maps.PlaceDetailsRequest{
		PlaceID: placeID,
		Fields: []maps.PlaceDetailsFieldMask{
			maps.PlaceDetailsFieldMaskPlaceID,
			maps.PlaceDetailsFieldMaskName,
			maps.PlaceDetailsFieldMaskFormattedAddress,
			maps.PlaceDetailsFieldMaskGeometry,
			maps.PlaceDetailsFieldMaskAddressComponent,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("place details request failed: %w", err)
	}

	return &PlaceDetails{
		PlaceID: resp.PlaceID,
		Name:    resp.Name,
		Address: resp.FormattedAddress,
		City:    cityFromComponents(resp.AddressComponents),
		Lat:     resp.Geometry.Location.Lat,
		Lng:     resp.Geometry.Location.Lng,
	}, nil
}

func (g *GoogleMapsProvider) Geocode(ctx context.Context, address string) ([]PlaceDetails, error) {
	if strings.TrimSpace(address) == "" {
		return nil, ErrEmptyQuery
	}

	resp, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, fmt.Errorf("geocoding request failed: %w", err)
	}

	results := make([]PlaceDetails, len(resp))
	for i, r := range resp {
		results[i] = PlaceDetails{
			PlaceID: r.PlaceID,
			Address: r.FormattedAddress,
			City:    cityFromComponents(r.AddressComponents),
			Lat:     r.Geometry.Location.Lat,
			Lng:     r.Geometry.Location.Lng,
		}
	}

	return results, nil
}

// cityFromComponents prefers locality, then postal town, then the first
// administrative level below the country.
func cityFromComponents(components []maps.AddressComponent) string {
	for _, want := range []string{"locality", "postal_town", "administrative_area_level_2", "administrative_area_level_1"} {
		for _, c := range components {
			for _, t := range c.Types {
				if t == want {
					return c.LongName
				}
			}
		}
	}
	return ""
}
