package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"campusride/pkg/logger"
	"campusride/pkg/maps"
)

type stubMaps struct {
	calls       int
	predictions []maps.Prediction
	err         error
	last        *maps.AutocompleteRequest
}

func (m *stubMaps) Autocomplete(ctx context.Context, request *maps.AutocompleteRequest) ([]maps.Prediction, error) {
	m.calls++
	m.last = request
	return m.predictions, m.err
}

func (m *stubMaps) GetPlaceDetails(ctx context.Context, placeID string) (*maps.PlaceDetails, error) {
	return nil, errors.New("not implemented")
}

func (m *stubMaps) Geocode(ctx context.Context, address string) ([]maps.PlaceDetails, error) {
	return nil, errors.New("not implemented")
}

func TestAutocompleteCachesResults(t *testing.T) {
	provider := &stubMaps{predictions: []maps.Prediction{{Description: "Springfield Station", PlaceID: "p1"}}}
	svc := NewGeoService(provider, NewMemoryCache(), "us", time.Hour, logger.Discard())
	ctx := context.Background()

	first, err := svc.Autocomplete(ctx, " Springfield ", "session-1")
	if err != nil {
		t.Fatalf("autocomplete: %v", err)
	}
	if len(first) != 1 || first[0].PlaceID != "p1" {
		t.Fatalf("unexpected predictions: %+v", first)
	}
	if provider.last.Input != "Springfield" || provider.last.Country != "us" || provider.last.SessionToken != "session-1" {
		t.Fatalf("unexpected provider request: %+v", provider.last)
	}

	// case differences share a cache entry
	second, err := svc.Autocomplete(ctx, "springfield", "session-2")
	if err != nil {
		t.Fatalf("cached autocomplete: %v", err)
	}
	if provider.calls != 1 {
		t.Fatalf("expected cache hit, provider called %d times", provider.calls)
	}
	if len(second) != 1 || second[0].Description != "Springfield Station" {
		t.Fatalf("unexpected cached predictions: %+v", second)
	}
}

func TestAutocompleteErrors(t *testing.T) {
	ctx := context.Background()

	disabled := NewGeoService(nil, nil, "", 0, logger.Discard())
	if _, err := disabled.Autocomplete(ctx, "x", ""); !errors.Is(err, ErrGeoDisabled) || !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrGeoDisabled, got %v", err)
	}

	provider := &stubMaps{err: errors.New("quota exceeded")}
	svc := NewGeoService(provider, nil, "", 0, logger.Discard())
	if _, err := svc.Autocomplete(ctx, "   ", ""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for empty input, got %v", err)
	}
	if provider.calls != 0 {
		t.Fatal("empty input must not reach the provider")
	}
	if _, err := svc.Autocomplete(ctx, "x", ""); err == nil || errors.Is(err, ErrValidation) {
		t.Fatalf("expected a provider error, got %v", err)
	}

	provider.err = nil
	got, err := svc.Autocomplete(ctx, "nowhere", "")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("expected an empty non-nil slice, got %#v (%v)", got, err)
	}
}
