package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusride/internal/metrics"
	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/cache"
	"campusride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideService interface {
	Publish(ctx context.Context, ownerID string, input *PublishRideInput) (*models.Ride, error)
	Get(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error)
	ListByOwner(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error)
	Delete(ctx context.Context, rideID primitive.ObjectID, ownerID string) error
	UpdateStatus(ctx context.Context, rideID primitive.ObjectID, ownerID string, status models.RideStatus) (*models.Ride, error)
	Search(ctx context.Context, university string, filter RideFilter) ([]*models.Ride, error)
	ListBookings(ctx context.Context, rideID primitive.ObjectID, ownerID string) ([]*models.Booking, error)
}

type rideService struct {
	tx          interfaces.Transactor
	rideRepo    interfaces.RideRepository
	bookingRepo interfaces.BookingRepository
	carRepo     interfaces.CarRepository
	outboxRepo  interfaces.OutboxRepository
	cache       CacheService
	cacheTTL    time.Duration
	logger      *logger.Logger
}

func NewRideService(
	tx interfaces.Transactor,
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	carRepo interfaces.CarRepository,
	outboxRepo interfaces.OutboxRepository,
	cache CacheService,
	cacheTTL time.Duration,
	log *logger.Logger,
) RideService {
	return &rideService{
		tx:          tx,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		carRepo:     carRepo,
		outboxRepo:  outboxRepo,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      log,
	}
}

func (s *rideService) Publish(ctx context.Context, ownerID string, input *PublishRideInput) (*models.Ride, error) {
	ride, err := newRide(ownerID, input, time.Now())
	if err != nil {
		return nil, err
	}

	if ride.CarID != nil {
		car, err := s.carRepo.GetByID(ctx, *ride.CarID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return nil, ErrCarNotFound
			}
			return nil, fmt.Errorf("failed to load car: %w", err)
		}
		if car.OwnerID != ownerID {
			return nil, ErrForbidden
		}
		if car.Seats > 0 && ride.TotalSeats > car.Seats {
			return nil, invalid("total_seats", "exceeds the %d seats of the selected car", car.Seats)
		}
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, fmt.Errorf("failed to publish ride: %w", err)
	}

	s.logger.WithUserID(ownerID).LogRideEvent(ride.ID, "ride_published", map[string]interface{}{
		"seats": ride.TotalSeats,
		"route": routeLabel(ride),
	})
	return ride, nil
}

// Get serves from the cache first. Seat counts may lag by at most the cache
// TTL for readers; writers always go to the store.
func (s *rideService) Get(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	key := utils.CacheRidePrefix + rideID.Hex()

	var cached models.Ride
	err := s.cache.Get(ctx, key, &cached)
	if err == nil {
		return &cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).Warn("Ride cache read failed")
	}

	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, ride, s.cacheTTL); err != nil {
		s.logger.WithError(err).Warn("Ride cache write failed")
	}
	return ride, nil
}

func (s *rideService) ListByOwner(ctx context.Context, ownerID string, params *utils.PaginationParams) ([]*models.Ride, int64, error) {
	rides, total, err := s.rideRepo.ListByOwner(ctx, ownerID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list rides: %w", err)
	}
	return rides, total, nil
}

func (s *rideService) Delete(ctx context.Context, rideID primitive.ObjectID, ownerID string) error {
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ride, err := s.loadRide(txCtx, rideID)
		if err != nil {
			return err
		}
		if ride.OwnerID != ownerID {
			return ErrForbidden
		}

		confirmed, err := s.bookingRepo.CountConfirmedByRide(txCtx, rideID)
		if err != nil {
			return fmt.Errorf("failed to count bookings: %w", err)
		}
		if confirmed > 0 {
			return ErrRideHasBookings
		}

		if _, err := s.bookingRepo.DeleteByRide(txCtx, rideID); err != nil {
			return fmt.Errorf("failed to delete bookings: %w", err)
		}
		if err := s.rideRepo.Delete(txCtx, rideID); err != nil {
			return fmt.Errorf("failed to delete ride: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.invalidate(ctx, rideID)
	s.logger.WithUserID(ownerID).LogRideEvent(rideID, "ride_deleted", nil)
	return nil
}

// UpdateStatus accepts any member of the status enum; there is no transition
// table. Setting the current status again changes nothing.
func (s *rideService) UpdateStatus(ctx context.Context, rideID primitive.ObjectID, ownerID string, status models.RideStatus) (*models.Ride, error) {
	if !status.Valid() {
		return nil, invalid("status", "unknown ride status %q", status)
	}

	var updated *models.Ride
	changed := false
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		ride, err := s.loadRide(txCtx, rideID)
		if err != nil {
			return err
		}
		if ride.OwnerID != ownerID {
			return ErrForbidden
		}
		updated = ride
		if ride.Status == status {
			return nil
		}

		previous := ride.Status
		if err := s.rideRepo.UpdateStatus(txCtx, rideID, status); err != nil {
			return fmt.Errorf("failed to update ride status: %w", err)
		}

		now := time.Now()
		task := models.NewOutboxTask(models.OutboxKindRideStatusChanged, models.OutboxPayload{
			RideID:        &rideID,
			ActorID:       ownerID,
			OwnerID:       ownerID,
			Status:        status,
			PreviousState: previous,
		}, now)
		if err := s.outboxRepo.Enqueue(txCtx, task); err != nil {
			return fmt.Errorf("failed to enqueue status task: %w", err)
		}

		updated.Status = status
		updated.UpdatedAt = now
		changed = true
		return nil
	})
	if err != nil {
		return nil, err
	}

	if changed {
		s.invalidate(ctx, rideID)
		metrics.RideStatusChanges.WithLabelValues(string(status)).Inc()
		s.logger.WithUserID(ownerID).LogRideEvent(rideID, "ride_status_changed", map[string]interface{}{
			"status":       status,
			"booked_seats": updated.BookedSeats(),
		})
	}
	return updated, nil
}

// Search fetches at most MaxSearchScan bookable rides with the one store-side
// filter, then matches cities, date and seats in memory.
func (s *rideService) Search(ctx context.Context, university string, filter RideFilter) ([]*models.Ride, error) {
	minSeats := filter.Seats
	if minSeats < 1 {
		minSeats = 1
	}

	rides, err := s.rideRepo.ListBookable(ctx, interfaces.RideQuery{
		University: university,
		MinSeats:   minSeats,
		Limit:      utils.MaxSearchScan,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to search rides: %w", err)
	}
	return MatchRides(rides, filter), nil
}

func (s *rideService) ListBookings(ctx context.Context, rideID primitive.ObjectID, ownerID string) ([]*models.Booking, error) {
	ride, err := s.loadRide(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.OwnerID != ownerID {
		return nil, ErrForbidden
	}

	bookings, err := s.bookingRepo.ListByRide(ctx, rideID, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, nil
}

func (s *rideService) loadRide(ctx context.Context, rideID primitive.ObjectID) (*models.Ride, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	return ride, nil
}

func (s *rideService) invalidate(ctx context.Context, rideID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, utils.CacheRidePrefix+rideID.Hex()); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("Failed to invalidate ride cache")
	}
}
