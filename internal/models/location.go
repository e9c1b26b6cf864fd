package models

import "strings"

type Location struct {
	Address string  `json:"address" bson:"address"`
	City    string  `json:"city,omitempty" bson:"city,omitempty"`
	PlaceID string  `json:"place_id,omitempty" bson:"place_id,omitempty"`
	Lat     float64 `json:"lat,omitempty" bson:"lat,omitempty"`
	Lng     float64 `json:"lng,omitempty" bson:"lng,omitempty"`
}

func (l Location) IsZero() bool {
	return strings.TrimSpace(l.Address) == "" && strings.TrimSpace(l.City) == ""
}

// Matches reports whether query is a case-insensitive substring of the city
// or the address.
func (l Location) Matches(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	return strings.Contains(strings.ToLower(l.City), q) || strings.Contains(strings.ToLower(l.Address), q)
}
