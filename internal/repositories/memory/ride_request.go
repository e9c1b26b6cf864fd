package memory

import (
	"context"
	"sort"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideRequestRepository struct {
	s *Store
}

func NewRideRequestRepository(s *Store) interfaces.RideRequestRepository {
	return &rideRequestRepository{s: s}
}

func (r *rideRequestRepository) Create(ctx context.Context, request *models.RideRequest) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if request.ID.IsZero() {
		request.ID = primitive.NewObjectID()
	}
	if request.RejectedBy == nil {
		request.RejectedBy = []string{}
	}
	remember(ctx, r.s, r.s.requests, request.ID, cloneRideRequest)
	r.s.requests[request.ID] = cloneRideRequest(*request)
	return nil
}

func (r *rideRequestRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.RideRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	req, ok := r.s.requests[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneRideRequest(req)
	return &out, nil
}

func (r *rideRequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]*models.RideRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.RideRequest, 0)
	for _, req := range r.s.requests {
		if req.RequesterID == requesterID {
			c := cloneRideRequest(req)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *rideRequestRepository) ListAvailable(ctx context.Context, viewerID, university string, limit int) ([]*models.RideRequest, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.RideRequest, 0)
	for _, req := range r.s.requests {
		if req.Status != models.RideRequestStatusPending || req.University != university {
			continue
		}
		if req.RequesterID == viewerID || req.RejectedByViewer(viewerID) {
			continue
		}
		c := cloneRideRequest(req)
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].DesiredTime < out[j].DesiredTime })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *rideRequestRepository) AddRejection(ctx context.Context, id primitive.ObjectID, viewerID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if !req.RejectedByViewer(viewerID) {
		req.RejectedBy = append(cloneStrings(req.RejectedBy), viewerID)
	}
	req.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.requests, id, cloneRideRequest)
	r.s.requests[id] = req
	return nil
}

func (r *rideRequestRepository) TransitionStatus(ctx context.Context, id primitive.ObjectID, from, to models.RideRequestStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if req.Status != from {
		return interfaces.ErrConflict
	}
	req.Status = to
	req.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.requests, id, cloneRideRequest)
	r.s.requests[id] = req
	return nil
}

func (r *rideRequestRepository) MarkAccepted(ctx context.Context, id primitive.ObjectID, driverID string, rideID, bookingID primitive.ObjectID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	req, ok := r.s.requests[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if req.Status != models.RideRequestStatusPending {
		return interfaces.ErrConflict
	}
	req.Status = models.RideRequestStatusAccepted
	req.AcceptedBy = driverID
	req.AcceptedRideID = &rideID
	req.AcceptedBookingID = &bookingID
	req.UpdatedAt = at
	remember(ctx, r.s, r.s.requests, id, cloneRideRequest)
	r.s.requests[id] = req
	return nil
}

func (r *rideRequestRepository) DeleteByRequester(ctx context.Context, requesterID string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, req := range r.s.requests {
		if req.RequesterID == requesterID {
			remember(ctx, r.s, r.s.requests, id, cloneRideRequest)
			delete(r.s.requests, id)
			n++
		}
	}
	return n, nil
}
