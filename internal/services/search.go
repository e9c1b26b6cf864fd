package services

import (
	"sort"
	"strings"

	"campusride/internal/models"
)

type ListingFilter struct {
	MinPrice   *float64
	MaxPrice   *float64
	Conditions []models.ListingCondition
	Category   string
}

type RideFilter struct {
	FromCity string
	ToCity   string
	// Date is matched as a prefix of the ride's start time, e.g. "2024-05-01".
	Date  string
	Seats int
}

type scoredListing struct {
	listing *models.Listing
	score   int
}

// RankListings scores each listing by the number of (term, field) pairs where
// the lowercase field contains the term. Zero scores are dropped; ties go to
// the newer listing. An empty query keeps everything, newest first.
func RankListings(listings []*models.Listing, query string) []*models.Listing {
	terms := strings.Fields(strings.ToLower(query))

	scored := make([]scoredListing, 0, len(listings))
	for _, l := range listings {
		if len(terms) == 0 {
			scored = append(scored, scoredListing{listing: l})
			continue
		}
		if score := listingScore(l, terms); score > 0 {
			scored = append(scored, scoredListing{listing: l, score: score})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].listing.CreatedAt.After(scored[j].listing.CreatedAt)
	})

	out := make([]*models.Listing, len(scored))
	for i, s := range scored {
		out[i] = s.listing
	}
	return out
}

func listingScore(l *models.Listing, terms []string) int {
	fields := []string{
		strings.ToLower(l.Title),
		strings.ToLower(l.Description),
		strings.ToLower(l.Category),
		strings.ToLower(l.Location),
	}

	score := 0
	for _, term := range terms {
		for _, f := range fields {
			if strings.Contains(f, term) {
				score++
			}
		}
	}
	return score
}

// FilterListings keeps the input order.
func FilterListings(listings []*models.Listing, filter ListingFilter) []*models.Listing {
	conditions := make(map[models.ListingCondition]bool, len(filter.Conditions))
	for _, c := range filter.Conditions {
		conditions[c] = true
	}

	out := make([]*models.Listing, 0, len(listings))
	for _, l := range listings {
		if filter.MinPrice != nil && l.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && l.Price > *filter.MaxPrice {
			continue
		}
		if len(conditions) > 0 && !conditions[l.Condition] {
			continue
		}
		if filter.Category != "" && !strings.EqualFold(l.Category, filter.Category) {
			continue
		}
		out = append(out, l)
	}
	return out
}

// MatchRides keeps the input order.
func MatchRides(rides []*models.Ride, filter RideFilter) []*models.Ride {
	date := strings.TrimSpace(filter.Date)

	out := make([]*models.Ride, 0, len(rides))
	for _, r := range rides {
		if !r.Pickup.Matches(filter.FromCity) || !r.Destination.Matches(filter.ToCity) {
			continue
		}
		if filter.Seats > 0 && r.AvailableSeats < filter.Seats {
			continue
		}
		if date != "" && !strings.HasPrefix(r.StartTime, date) {
			continue
		}
		out = append(out, r)
	}
	return out
}
