package services

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusride/internal/utils"
	"campusride/pkg/cache"
	"campusride/pkg/logger"
	"campusride/pkg/maps"
)

// ErrGeoDisabled is returned when no maps provider is configured.
var ErrGeoDisabled = newError(ErrUnavailable, "location suggestions are not available")

type GeoService interface {
	Autocomplete(ctx context.Context, input, sessionToken string) ([]maps.Prediction, error)
}

type geoService struct {
	provider maps.MapsProvider
	cache    CacheService
	country  string
	ttl      time.Duration
	logger   *logger.Logger
}

// NewGeoService accepts a nil provider; every call then fails with
// ErrGeoDisabled.
func NewGeoService(provider maps.MapsProvider, cache CacheService, country string, ttl time.Duration, log *logger.Logger) GeoService {
	return &geoService{
		provider: provider,
		cache:    cache,
		country:  country,
		ttl:      ttl,
		logger:   log,
	}
}

func (s *geoService) Autocomplete(ctx context.Context, input, sessionToken string) ([]maps.Prediction, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, invalid("q", "is required")
	}
	if s.provider == nil {
		return nil, ErrGeoDisabled
	}

	key := geoCacheKey(s.country, input)
	if s.cache != nil {
		var cached []maps.Prediction
		err := s.cache.Get(ctx, key, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.WithError(err).Warn("Geo cache read failed")
		}
	}

	predictions, err := s.provider.Autocomplete(ctx, &maps.AutocompleteRequest{
		Input:        input,
		SessionToken: sessionToken,
		Country:      s.country,
	})
	if err != nil {
		if errors.Is(err, maps.ErrEmptyQuery) {
			return nil, invalid("q", "is required")
		}
		return nil, fmt.Errorf("failed to fetch suggestions: %w", err)
	}
	if predictions == nil {
		predictions = []maps.Prediction{}
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, predictions, s.ttl); err != nil {
			s.logger.WithError(err).Warn("Geo cache write failed")
		}
	}
	return predictions, nil
}

func geoCacheKey(country, input string) string {
	sum := sha1.Sum([]byte(strings.ToLower(country + "|" + input)))
	return utils.CacheGeoPrefix + hex.EncodeToString(sum[:])
}
