package push

import (
	"context"
	"errors"
	"testing"
)

type recordingProvider struct {
	name string
	sent []*NotificationRequest
	err  error
}

func (p *recordingProvider) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	p.sent = append(p.sent, request)
	if p.err != nil {
		return &NotificationResponse{Success: false, Error: p.err.Error(), Token: request.Token}, p.err
	}
	return &NotificationResponse{MessageID: p.name, Success: true, Token: request.Token}, nil
}

func (p *recordingProvider) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	return nil, nil
}

func TestRouterDispatchesByPlatform(t *testing.T) {
	fcm := &recordingProvider{name: "fcm"}
	apns := &recordingProvider{name: "apns"}

	r := NewRouter(fcm)
	r.Register(PlatformIOS, apns)

	resp, err := r.SendNotification(context.Background(), &NotificationRequest{Token: "t1", Platform: PlatformIOS})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MessageID != "apns" {
		t.Fatalf("expected ios request to go to apns, got %q", resp.MessageID)
	}

	resp, err = r.SendNotification(context.Background(), &NotificationRequest{Token: "t2", Platform: PlatformAndroid})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.MessageID != "fcm" {
		t.Fatalf("expected android request to fall back to fcm, got %q", resp.MessageID)
	}
}

func TestRouterWithoutProvider(t *testing.T) {
	r := NewRouter(nil)

	_, err := r.SendNotification(context.Background(), &NotificationRequest{Token: "t", Platform: PlatformWeb})
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Fatalf("expected ErrUnsupportedPlatform, got %v", err)
	}
}

func TestRouterBulkKeepsOrderAndFailures(t *testing.T) {
	ok := &recordingProvider{name: "ok"}
	bad := &recordingProvider{name: "bad", err: errors.New("unregistered")}

	r := NewRouter(ok)
	r.Register(PlatformIOS, bad)

	responses, err := r.SendBulkNotifications(context.Background(), []*NotificationRequest{
		{Token: "a", Platform: PlatformAndroid},
		{Token: "b", Platform: PlatformIOS},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(responses) != 2 {
		t.Fatalf("expected 2 responses, got %d", len(responses))
	}
	if !responses[0].Success || responses[1].Success {
		t.Fatalf("unexpected success flags: %+v %+v", responses[0], responses[1])
	}
	if responses[1].Error != "unregistered" {
		t.Fatalf("expected provider error to be kept, got %q", responses[1].Error)
	}
}
