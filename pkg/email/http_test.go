package email

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPSenderPostsJSON(t *testing.T) {
	var got Email
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "secret", time.Second)
	err := s.Send(context.Background(), &Email{To: "rider@uni.edu", Subject: "Booking confirmed", HTML: "<p>hi</p>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got.To != "rider@uni.edu" || got.Subject != "Booking confirmed" || got.HTML != "<p>hi</p>" {
		t.Fatalf("unexpected payload: %+v", got)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer auth header, got %q", auth)
	}
}

func TestHTTPSenderReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewHTTPSender(srv.URL, "", time.Second)
	if err := s.Send(context.Background(), &Email{To: "a@b.edu", Subject: "x"}); err == nil {
		t.Fatal("expected error for 429 response")
	}
}

func TestEmailValidate(t *testing.T) {
	if err := (&Email{Subject: "x"}).Validate(); !errors.Is(err, ErrNoRecipient) {
		t.Fatalf("expected ErrNoRecipient, got %v", err)
	}
	if err := (&Email{To: "not-an-address", Subject: "x"}).Validate(); err == nil {
		t.Fatal("expected parse error")
	}
	if err := (&Email{To: "a@b.edu"}).Validate(); !errors.Is(err, ErrNoSubject) {
		t.Fatalf("expected ErrNoSubject, got %v", err)
	}
}
