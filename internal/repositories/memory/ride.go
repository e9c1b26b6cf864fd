package memory

import (
	"context"
	"sort"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type rideRepository struct {
	s *Store
}

func NewRideRepository(s *Store) interfaces.RideRepository {
	return &rideRepository{s: s}
}

func (r *rideRepository) Create(ctx context.Context, ride *models.Ride) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if ride.ID.IsZero() {
		ride.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.rides[ride.ID]; ok {
		return interfaces.ErrDuplicate
	}
	remember(ctx, r.s, r.s.rides, ride.ID, cloneRide)
	r.s.rides[ride.ID] = cloneRide(*ride)
	return nil
}

func (r *rideRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneRide(ride)
	return &out, nil
}

func (r *rideRepository) ListByOwner(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	all, _ := r.ListAllByOwner(ctx, ownerID)
	return page(all, params, func(ride *models.Ride) time.Time { return ride.CreatedAt }), int64(len(all)), nil
}

func (r *rideRepository) ListAllByOwner(ctx context.Context, ownerID string) ([]*models.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Ride, 0)
	for _, ride := range r.s.rides {
		if ride.OwnerID == ownerID {
			c := cloneRide(ride)
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *rideRepository) ListBookable(ctx context.Context, query interfaces.RideQuery) ([]*models.Ride, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	minSeats := query.MinSeats
	if minSeats < 1 {
		minSeats = 1
	}

	out := make([]*models.Ride, 0)
	for _, ride := range r.s.rides {
		if !ride.Status.Bookable() || ride.AvailableSeats < minSeats {
			continue
		}
		if query.University != "" && ride.University != query.University {
			continue
		}
		c := cloneRide(ride)
		out = append(out, &c)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime != out[j].StartTime {
			return out[i].StartTime < out[j].StartTime
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out, nil
}

func (r *rideRepository) ReserveSeats(ctx context.Context, id primitive.ObjectID, seats int, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[id]
	if !ok || !ride.Status.Bookable() || ride.AvailableSeats < seats {
		return interfaces.ErrConflict
	}
	ride.AvailableSeats -= seats
	t := at
	ride.LatestBookingTime = &t
	ride.UpdatedAt = at
	remember(ctx, r.s, r.s.rides, id, cloneRide)
	r.s.rides[id] = ride
	return nil
}

func (r *rideRepository) ReleaseSeats(ctx context.Context, id primitive.ObjectID, seats int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	if ride.AvailableSeats+seats > ride.TotalSeats {
		return interfaces.ErrConflict
	}
	ride.AvailableSeats += seats
	ride.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.rides, id, cloneRide)
	r.s.rides[id] = ride
	return nil
}

func (r *rideRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.RideStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	ride, ok := r.s.rides[id]
	if !ok {
		return interfaces.ErrNotFound
	}
	ride.Status = status
	ride.UpdatedAt = time.Now()
	remember(ctx, r.s, r.s.rides, id, cloneRide)
	r.s.rides[id] = ride
	return nil
}

func (r *rideRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.rides[id]; !ok {
		return interfaces.ErrNotFound
	}
	remember(ctx, r.s, r.s.rides, id, cloneRide)
	delete(r.s.rides, id)
	return nil
}

type bookingRepository struct {
	s *Store
}

func NewBookingRepository(s *Store) interfaces.BookingRepository {
	return &bookingRepository{s: s}
}

func (r *bookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if booking.ID.IsZero() {
		booking.ID = primitive.NewObjectID()
	}
	if _, ok := r.s.bookings[booking.ID]; ok {
		return interfaces.ErrDuplicate
	}
	remember(ctx, r.s, r.s.bookings, booking.ID, cloneBooking)
	r.s.bookings[booking.ID] = cloneBooking(*booking)
	return nil
}

func (r *bookingRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	out := cloneBooking(b)
	return &out, nil
}

func (r *bookingRepository) ListByRide(ctx context.Context, rideID primitive.ObjectID, status models.BookingStatus) ([]*models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.RideID == rideID && (status == "" || b.Status == status)
	}), nil
}

func (r *bookingRepository) ListByRider(ctx context.Context, riderID string, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	all := r.filter(func(b models.Booking) bool { return b.RiderID == riderID })
	return page(all, params, func(b *models.Booking) time.Time { return b.CreatedAt }), int64(len(all)), nil
}

func (r *bookingRepository) ListConfirmedByRider(ctx context.Context, riderID string) ([]*models.Booking, error) {
	return r.filter(func(b models.Booking) bool {
		return b.RiderID == riderID && b.Status == models.BookingStatusConfirmed
	}), nil
}

func (r *bookingRepository) CountConfirmedByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error) {
	bookings, _ := r.ListByRide(ctx, rideID, models.BookingStatusConfirmed)
	return int64(len(bookings)), nil
}

func (r *bookingRepository) MarkCancelled(ctx context.Context, id primitive.ObjectID, actorID string, at time.Time) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, interfaces.ErrNotFound
	}
	if b.Status != models.BookingStatusConfirmed {
		return nil, interfaces.ErrConflict
	}

	before := cloneBooking(b)
	t := at
	b.Status = models.BookingStatusCancelled
	b.CancelledAt = &t
	b.CancelledBy = actorID
	remember(ctx, r.s, r.s.bookings, id, cloneBooking)
	r.s.bookings[id] = b
	return &before, nil
}

func (r *bookingRepository) DeleteByRide(ctx context.Context, rideID primitive.ObjectID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, b := range r.s.bookings {
		if b.RideID == rideID {
			remember(ctx, r.s, r.s.bookings, id, cloneBooking)
			delete(r.s.bookings, id)
			n++
		}
	}
	return n, nil
}

func (r *bookingRepository) filter(keep func(models.Booking) bool) []*models.Booking {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*models.Booking, 0)
	for _, b := range r.s.bookings {
		if keep(b) {
			c := cloneBooking(b)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
