package validators

import (
	"testing"

	"campusride/internal/models"
)

func validPublish() PublishRideRequest {
	return PublishRideRequest{
		University:   "State U",
		Pickup:       LocationRequest{Address: "1 Campus Dr", City: "Springfield"},
		Destination:  LocationRequest{Address: "Airport Rd"},
		StartTime:    "2025-05-01T09:00:00Z",
		TotalSeats:   3,
		PricePerSeat: 10,
	}
}

func TestPublishRideRequest(t *testing.T) {
	ok := validPublish()
	if errs := ValidateStruct(&ok); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	tests := []struct {
		name  string
		edit  func(r *PublishRideRequest)
		field string
	}{
		{"missing university", func(r *PublishRideRequest) { r.University = "" }, "university"},
		{"short address", func(r *PublishRideRequest) { r.Pickup.Address = "x" }, "pickup.address"},
		{"bad start", func(r *PublishRideRequest) { r.StartTime = "May 1st" }, "start_time"},
		{"too many seats", func(r *PublishRideRequest) { r.TotalSeats = 9 }, "total_seats"},
		{"bad car id", func(r *PublishRideRequest) { r.CarID = "car-1" }, "car_id"},
		{"negative price", func(r *PublishRideRequest) { r.PricePerSeat = -1 }, "price_per_seat"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validPublish()
			tt.edit(&r)
			errs := ValidateStruct(&r)
			if _, ok := errs.ToMap()[tt.field]; !ok {
				t.Fatalf("expected an error on %q, got %v", tt.field, errs)
			}
		})
	}
}

func TestPublishRideRequestToInput(t *testing.T) {
	r := validPublish()
	r.CarID = "64b7f0c2a1b2c3d4e5f60718"
	r.Notes = "  <b>no smoking</b> "
	in := r.ToInput()
	if in.CarID == nil || in.CarID.Hex() != r.CarID {
		t.Fatalf("car id not carried: %v", in.CarID)
	}
	if in.Notes != "no smoking" {
		t.Fatalf("notes not sanitized: %q", in.Notes)
	}
}

func TestCustomTags(t *testing.T) {
	status := UpdateRideStatusRequest{Status: "flying"}
	if errs := ValidateStruct(&status); errs.ToMap()["status"] != "Unknown ride status" {
		t.Fatalf("unexpected status errors: %v", errs)
	}
	status.Status = string(models.RideStatusStarted)
	if errs := ValidateStruct(&status); len(errs) != 0 {
		t.Fatalf("valid status rejected: %v", errs)
	}

	car := CreateCarRequest{Make: "Honda", Model: "Fit", Plate: "ab-123", Seats: 4}
	if errs := ValidateStruct(&car); len(errs) != 0 {
		t.Fatalf("valid plate rejected: %v", errs)
	}
	car.Plate = "way/too/long/plate"
	if errs := ValidateStruct(&car); errs.ToMap()["plate"] != "Invalid license plate format" {
		t.Fatalf("unexpected plate errors: %v", errs)
	}

	profile := UpsertProfileRequest{DisplayName: "Amy", University: "State U", Phone: "555-1234"}
	if errs := ValidateStruct(&profile); errs.ToMap()["phone"] != "Invalid phone number format" {
		t.Fatalf("unexpected phone errors: %v", errs)
	}
	profile.Phone = "+15551234567"
	if errs := ValidateStruct(&profile); len(errs) != 0 {
		t.Fatalf("valid phone rejected: %v", errs)
	}

	chat := StartChatRequest{OtherUserID: "zed", ChatType: "group"}
	if errs := ValidateStruct(&chat); errs.ToMap()["chat_type"] != "Unknown chat type" {
		t.Fatalf("unexpected chat errors: %v", errs)
	}
}

func TestRideSearchQueryDate(t *testing.T) {
	q := RideSearchQuery{University: "State U", Date: "05/01/2025"}
	if errs := ValidateStruct(&q); len(errs) != 1 || errs[0].Field != "date" {
		t.Fatalf("expected a date error, got %v", errs)
	}
	q.Date = "2025-05-01"
	q.From = "  Springfield "
	if errs := ValidateStruct(&q); len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if f := q.ToFilter(); f.FromCity != "Springfield" || f.Date != "2025-05-01" {
		t.Fatalf("unexpected filter: %+v", f)
	}
}

func TestListingSearchQueryToFilter(t *testing.T) {
	min, max := 10.0, 5.0
	q := ListingSearchQuery{MinPrice: &min, MaxPrice: &max}
	if _, errs := q.ToFilter(); len(errs) != 1 || errs[0].Field != "min_price" {
		t.Fatalf("expected a price range error, got %v", errs)
	}

	q = ListingSearchQuery{Conditions: "new, like_new,,", Category: " Books "}
	f, errs := q.ToFilter()
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if len(f.Conditions) != 2 || f.Conditions[1] != models.ConditionLikeNew || f.Category != "books" {
		t.Fatalf("unexpected filter: %+v", f)
	}

	q.Conditions = "new,mint"
	if _, errs := q.ToFilter(); len(errs) != 1 || errs[0].Value != "mint" {
		t.Fatalf("expected an unknown condition error, got %v", errs)
	}
}

func TestSanitizeInput(t *testing.T) {
	if got := SanitizeInput("  <script>x</script>hello "); got != "xhello" {
		t.Fatalf("SanitizeInput = %q", got)
	}
}
