package services

import (
	"testing"
	"time"

	"campusride/internal/models"
)

func listing(title, category string, price float64, condition models.ListingCondition, age time.Duration) *models.Listing {
	return &models.Listing{
		Title:     title,
		Category:  category,
		Price:     price,
		Condition: condition,
		CreatedAt: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC).Add(-age),
	}
}

func titles(listings []*models.Listing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Title
	}
	return out
}

func equalTitles(got []*models.Listing, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i, l := range got {
		if l.Title != want[i] {
			return false
		}
	}
	return true
}

func TestRankListingsLampScenario(t *testing.T) {
	deskLamp := listing("Desk Lamp", "furniture", 15, models.ConditionGood, 2*time.Hour)
	deskLamp.Description = "LED lamp, warm light"
	fridge := listing("Mini Fridge", "appliances", 60, models.ConditionLikeNew, time.Hour)
	shade := listing("Lamp Shade", "furniture", 5, models.ConditionFair, 0)

	got := RankListings([]*models.Listing{deskLamp, fridge, shade}, "lamp")
	// Desk Lamp matches title and description (2), Lamp Shade title only (1)
	if !equalTitles(got, "Desk Lamp", "Lamp Shade") {
		t.Fatalf("unexpected ranking: %v", titles(got))
	}
}

func TestRankListingsTiesGoToNewest(t *testing.T) {
	older := listing("Lamp A", "misc", 1, models.ConditionGood, 3*time.Hour)
	newer := listing("Lamp B", "misc", 1, models.ConditionGood, time.Hour)

	got := RankListings([]*models.Listing{older, newer}, "LAMP")
	if !equalTitles(got, "Lamp B", "Lamp A") {
		t.Fatalf("unexpected ranking: %v", titles(got))
	}
}

func TestRankListingsMultipleTerms(t *testing.T) {
	a := listing("Blue Chair", "furniture", 10, models.ConditionGood, time.Hour)
	b := listing("Blue Notebook", "books", 2, models.ConditionNew, 0)
	c := listing("Red Table", "furniture", 20, models.ConditionGood, 0)

	// Blue Chair: blue/title + furniture/category = 2; Blue Notebook: 1; Red Table: 1
	got := RankListings([]*models.Listing{a, b, c}, "blue furniture")
	if !equalTitles(got, "Blue Chair", "Blue Notebook", "Red Table") {
		t.Fatalf("unexpected ranking: %v", titles(got))
	}
}

func TestRankListingsEmptyQueryKeepsAllByRecency(t *testing.T) {
	a := listing("A", "x", 1, models.ConditionGood, 2*time.Hour)
	b := listing("B", "x", 1, models.ConditionGood, 0)
	c := listing("C", "x", 1, models.ConditionGood, time.Hour)

	got := RankListings([]*models.Listing{a, b, c}, "   ")
	if !equalTitles(got, "B", "C", "A") {
		t.Fatalf("unexpected order: %v", titles(got))
	}
}

func TestFilterListings(t *testing.T) {
	all := []*models.Listing{
		listing("Cheap Poor", "books", 3, models.ConditionPoor, 0),
		listing("Mid Good", "books", 20, models.ConditionGood, 0),
		listing("Pricey New", "Electronics", 300, models.ConditionNew, 0),
	}
	min, max := 5.0, 400.0

	tests := []struct {
		name   string
		filter ListingFilter
		want   []string
	}{
		{"no filter", ListingFilter{}, []string{"Cheap Poor", "Mid Good", "Pricey New"}},
		{"price range", ListingFilter{MinPrice: &min, MaxPrice: &max}, []string{"Mid Good", "Pricey New"}},
		{"conditions", ListingFilter{Conditions: []models.ListingCondition{models.ConditionPoor, models.ConditionNew}}, []string{"Cheap Poor", "Pricey New"}},
		{"category is case-insensitive", ListingFilter{Category: "electronics"}, []string{"Pricey New"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterListings(all, tt.filter)
			if !equalTitles(got, tt.want...) {
				t.Fatalf("got %v, want %v", titles(got), tt.want)
			}
		})
	}
}

func TestMatchRides(t *testing.T) {
	a := &models.Ride{
		Pickup:         models.Location{City: "Springfield", Address: "1 Campus Dr"},
		Destination:    models.Location{Address: "Capital City Airport"},
		StartTime:      "2025-05-01T09:00:00Z",
		AvailableSeats: 3,
	}
	b := &models.Ride{
		Pickup:         models.Location{City: "Shelbyville"},
		Destination:    models.Location{City: "Capital City"},
		StartTime:      "2025-05-02T09:00:00Z",
		AvailableSeats: 1,
	}
	rides := []*models.Ride{a, b}

	tests := []struct {
		name   string
		filter RideFilter
		want   []*models.Ride
	}{
		{"everything", RideFilter{}, []*models.Ride{a, b}},
		{"destination matches address", RideFilter{ToCity: "airport"}, []*models.Ride{a}},
		{"origin", RideFilter{FromCity: "SHELBY"}, []*models.Ride{b}},
		{"seats", RideFilter{Seats: 2}, []*models.Ride{a}},
		{"date prefix", RideFilter{Date: "2025-05-02"}, []*models.Ride{b}},
		{"no match", RideFilter{FromCity: "Ogdenville"}, []*models.Ride{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MatchRides(rides, tt.filter)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d rides, got %d", len(tt.want), len(got))
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("ride %d mismatch", i)
				}
			}
		})
	}
}
