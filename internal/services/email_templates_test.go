package services

import (
	"strings"
	"testing"

	"campusride/internal/models"
)

func TestBookingConfirmationSubjectIsSingleLine(t *testing.T) {
	rider := &models.User{ID: "amy", Email: "amy@state.edu", DisplayName: "Amy"}
	ride := &models.Ride{
		Pickup:      models.Location{Address: "1 Campus Dr", City: "Campus\r\nBcc: attacker@evil.test"},
		Destination: models.Location{Address: "Airport Rd"},
		StartTime:   "2025-05-01T09:00:00Z",
	}
	booking := &models.Booking{SeatsBooked: 2, TotalPrice: 20}

	msg, err := bookingConfirmationEmail(rider, ride, booking)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.ContainsAny(msg.Subject, "\r\n") {
		t.Fatalf("subject carries a line break: %q", msg.Subject)
	}
	if msg.Subject != "Booking confirmed: Campus Bcc: attacker@evil.test to Airport Rd" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTML, "2 seats") {
		t.Fatalf("body missing seat count: %s", msg.HTML)
	}
}
