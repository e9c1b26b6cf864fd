package email

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
)

func TestSMTPMessageKeepsSubjectOnOneHeader(t *testing.T) {
	s := NewSMTPSender("localhost", 2525, "", "", "rides@campus.example", "Campus\r\nRides")
	m, err := s.buildMessage(&Email{
		To:      "rider@uni.edu",
		Subject: "Booking confirmed: Campus\r\nBcc: attacker@evil.test to Town",
		HTML:    "<p>hi</p>",
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	var buf bytes.Buffer
	if _, err := m.WriteTo(&buf); err != nil {
		t.Fatalf("write: %v", err)
	}
	header, _, _ := strings.Cut(buf.String(), "\r\n\r\n")
	for _, line := range strings.Split(header, "\r\n") {
		if strings.HasPrefix(strings.ToLower(line), "bcc:") {
			t.Fatalf("subject text leaked into its own header: %q", line)
		}
	}
	if !strings.Contains(header, "Subject: Booking confirmed: Campus Bcc:") {
		t.Fatalf("subject not flattened:\n%s", header)
	}
}

func TestSendRefusesRecipientWithLineBreak(t *testing.T) {
	s := NewSMTPSender("localhost", 2525, "", "", "rides@campus.example", "Campus Rides")
	err := s.Send(context.Background(), &Email{To: "rider@uni.edu\r\nBcc: attacker@evil.test", Subject: "hi", HTML: "x"})
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("expected ErrInvalidRecipient, got %v", err)
	}
}

func TestHeaderValue(t *testing.T) {
	tests := map[string]string{
		"Booking confirmed":         "Booking confirmed",
		"  Campus\r\n\tTown  ":      "Campus Town",
		"Main St\nBcc: x@evil.test": "Main St Bcc: x@evil.test",
		"":                          "",
	}
	for in, want := range tests {
		if got := HeaderValue(in); got != want {
			t.Errorf("HeaderValue(%q) = %q, want %q", in, got, want)
		}
	}
}
