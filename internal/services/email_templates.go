package services

import (
	"bytes"
	"fmt"
	"html/template"

	"campusride/internal/models"
	"campusride/pkg/email"
)

var bookingConfirmationTemplate = template.Must(template.New("booking_confirmation").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif;">
  <h2>Your seat is booked</h2>
  <p>Hi {{.Name}},</p>
  <p>You booked {{.Seats}} seat{{if ne .Seats 1}}s{{end}} on the ride from <strong>{{.From}}</strong> to <strong>{{.To}}</strong>.</p>
  <table>
    <tr><td>Departure</td><td>{{.StartTime}}</td></tr>
    <tr><td>Total</td><td>{{printf "%.2f" .Total}}</td></tr>
    {{if .TollFee}}<tr><td>Tolls</td><td>{{if .TollsIncluded}}included{{else}}{{printf "%.2f" .TollFee}} extra{{end}}</td></tr>{{end}}
  </table>
  <p>You can message your driver from the ride page.</p>
</body>
</html>`))

type bookingEmailData struct {
	Name          string
	Seats         int
	From          string
	To            string
	StartTime     string
	Total         float64
	TollFee       float64
	TollsIncluded bool
}

func bookingConfirmationEmail(rider *models.User, ride *models.Ride, booking *models.Booking) (*email.Email, error) {
	name := rider.DisplayName
	if name == "" {
		name = "there"
	}

	var buf bytes.Buffer
	err := bookingConfirmationTemplate.Execute(&buf, bookingEmailData{
		Name:          name,
		Seats:         booking.SeatsBooked,
		From:          placeLabel(ride.Pickup),
		To:            placeLabel(ride.Destination),
		StartTime:     ride.StartTime,
		Total:         booking.TotalPrice,
		TollFee:       ride.TollFee,
		TollsIncluded: ride.TollsIncluded,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render booking email: %w", err)
	}

	return &email.Email{
		To:      rider.Email,
		Subject: email.HeaderValue("Booking confirmed: " + routeLabel(ride)),
		HTML:    buf.String(),
	}, nil
}
