package push

import (
	"context"
)

// Router dispatches each request to the provider registered for its device
// platform. Requests without a platform go to the fallback provider.
type Router struct {
	providers map[string]PushProvider
	fallback  PushProvider
}

func NewRouter(fallback PushProvider) *Router {
	return &Router{
		providers: make(map[string]PushProvider),
		fallback:  fallback,
	}
}

func (r *Router) Register(platform string, provider PushProvider) {
	r.providers[platform] = provider
}

func (r *Router) SendNotification(ctx context.Context, request *NotificationRequest) (*NotificationResponse, error) {
	provider := r.providerFor(request.Platform)
	if provider == nil {
		return &NotificationResponse{Success: false, Error: ErrUnsupportedPlatform.Error(), Token: request.Token}, ErrUnsupportedPlatform
	}
	return provider.SendNotification(ctx, request)
}

func (r *Router) SendBulkNotifications(ctx context.Context, requests []*NotificationRequest) ([]*NotificationResponse, error) {
	responses := make([]*NotificationResponse, len(requests))
	for i, req := range requests {
		resp, err := r.SendNotification(ctx, req)
		if resp == nil {
			resp = &NotificationResponse{Success: false, Token: req.Token}
			if err != nil {
				resp.Error = err.Error()
			}
		}
		responses[i] = resp
	}
	return responses, nil
}

func (r *Router) providerFor(platform string) PushProvider {
	if p, ok := r.providers[platform]; ok {
		return p
	}
	return r.fallback
}
