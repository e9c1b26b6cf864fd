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
	"campusride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BookingService interface {
	Book(ctx context.Context, cmd *BookCommand) (*models.Booking, error)
	Cancel(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.Booking, error)
	Get(ctx context.Context, bookingID primitive.ObjectID, userID string) (*models.Booking, error)
	ListByRider(ctx context.Context, riderID string, params *utils.PaginationParams) ([]*models.Booking, int64, error)
}

type BookCommand struct {
	RideID         primitive.ObjectID
	RiderID        string
	Seats          int
	IdempotencyKey string
}

type bookingService struct {
	tx             interfaces.Transactor
	rideRepo       interfaces.RideRepository
	bookingRepo    interfaces.BookingRepository
	outboxRepo     interfaces.OutboxRepository
	cache          CacheService
	idempotencyTTL time.Duration
	logger         *logger.Logger
}

func NewBookingService(
	tx interfaces.Transactor,
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	outboxRepo interfaces.OutboxRepository,
	cache CacheService,
	idempotencyTTL time.Duration,
	log *logger.Logger,
) BookingService {
	if idempotencyTTL <= 0 {
		idempotencyTTL = utils.BookingLockTTL
	}
	return &bookingService{
		tx:             tx,
		rideRepo:       rideRepo,
		bookingRepo:    bookingRepo,
		outboxRepo:     outboxRepo,
		cache:          cache,
		idempotencyTTL: idempotencyTTL,
		logger:         log,
	}
}

func (s *bookingService) Book(ctx context.Context, cmd *BookCommand) (*models.Booking, error) {
	if cmd.Seats < 1 {
		return nil, invalid("seats", "must be a positive integer")
	}

	idemKey := ""
	if cmd.IdempotencyKey != "" {
		idemKey = utils.CacheIdempotencyPrefix + cmd.RiderID + ":" + cmd.IdempotencyKey
		claimed, err := s.cache.SetNX(ctx, idemKey, cmd.RideID.Hex(), s.idempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to claim idempotency key: %w", err)
		}
		if !claimed {
			metrics.BookingsTotal.WithLabelValues(metrics.OutcomeRejected).Inc()
			return nil, ErrDuplicateRequest
		}
	}

	var booking *models.Booking
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		var err error
		booking, err = reserveAndBook(txCtx, s.rideRepo, s.bookingRepo, s.outboxRepo, cmd, time.Now())
		return err
	})
	if err != nil {
		if idemKey != "" {
			// a failed attempt may be retried with the same key
			if derr := s.cache.Delete(ctx, idemKey); derr != nil {
				s.logger.WithError(derr).WithUserID(cmd.RiderID).WithRideID(cmd.RideID).
					Warn("Failed to release idempotency key")
			}
		}
		metrics.BookingsTotal.WithLabelValues(bookingOutcome(err)).Inc()
		return nil, err
	}

	s.invalidateRide(ctx, cmd.RideID)
	metrics.BookingsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
	metrics.SeatsBooked.Add(float64(booking.SeatsBooked))
	s.logger.WithUserID(cmd.RiderID).LogBookingEvent(booking.ID, booking.RideID, "booking_created", booking.SeatsBooked)

	return booking, nil
}

// reserveAndBook runs inside a transaction. The checks give precise errors;
// the conditional ReserveSeats is what actually prevents overselling.
func reserveAndBook(
	ctx context.Context,
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	outboxRepo interfaces.OutboxRepository,
	cmd *BookCommand,
	now time.Time,
) (*models.Booking, error) {
	ride, err := rideRepo.GetByID(ctx, cmd.RideID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRideNotFound
		}
		return nil, fmt.Errorf("failed to load ride: %w", err)
	}
	if ride.OwnerID == cmd.RiderID {
		return nil, ErrOwnRide
	}
	if cmd.Seats > ride.AvailableSeats {
		return nil, ErrNotEnoughSeats
	}
	if !ride.Status.Bookable() {
		return nil, ErrRideNotBookable
	}

	if err := rideRepo.ReserveSeats(ctx, ride.ID, cmd.Seats, now); err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return nil, ErrNotEnoughSeats
		}
		return nil, fmt.Errorf("failed to reserve seats: %w", err)
	}

	booking := &models.Booking{
		ID:          primitive.NewObjectID(),
		RideID:      ride.ID,
		RiderID:     cmd.RiderID,
		OwnerID:     ride.OwnerID,
		SeatsBooked: cmd.Seats,
		TotalPrice:  float64(cmd.Seats) * ride.PricePerSeat,
		Status:      models.BookingStatusConfirmed,
		CreatedAt:   now,
	}
	if err := bookingRepo.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	rideID, bookingID := ride.ID, booking.ID
	task := models.NewOutboxTask(models.OutboxKindBookingCreated, models.OutboxPayload{
		RideID:    &rideID,
		BookingID: &bookingID,
		ActorID:   cmd.RiderID,
		RiderID:   cmd.RiderID,
		OwnerID:   ride.OwnerID,
		Seats:     cmd.Seats,
	}, now)
	if err := outboxRepo.Enqueue(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to enqueue booking task: %w", err)
	}

	return booking, nil
}

func (s *bookingService) Cancel(ctx context.Context, bookingID primitive.ObjectID, actorID string) (*models.Booking, error) {
	var cancelled *models.Booking
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		booking, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrBookingNotFound
			}
			return fmt.Errorf("failed to load booking: %w", err)
		}
		if actorID != booking.RiderID && actorID != booking.OwnerID {
			return ErrForbidden
		}

		now := time.Now()
		before, err := s.bookingRepo.MarkCancelled(txCtx, bookingID, actorID, now)
		if err != nil {
			if errors.Is(err, interfaces.ErrConflict) {
				return ErrBookingAlreadyCancelled
			}
			return fmt.Errorf("failed to cancel booking: %w", err)
		}

		err = s.rideRepo.ReleaseSeats(txCtx, before.RideID, before.SeatsBooked)
		if err != nil && !errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("failed to release seats: %w", err)
		}

		rideID := before.RideID
		task := models.NewOutboxTask(models.OutboxKindBookingCancelled, models.OutboxPayload{
			RideID:    &rideID,
			BookingID: &bookingID,
			ActorID:   actorID,
			RiderID:   before.RiderID,
			OwnerID:   before.OwnerID,
			Seats:     before.SeatsBooked,
		}, now)
		if err := s.outboxRepo.Enqueue(txCtx, task); err != nil {
			return fmt.Errorf("failed to enqueue cancellation task: %w", err)
		}

		before.Status = models.BookingStatusCancelled
		before.CancelledAt = &now
		before.CancelledBy = actorID
		cancelled = before
		return nil
	})
	if err != nil {
		metrics.Cancellations.WithLabelValues(bookingOutcome(err)).Inc()
		return nil, err
	}

	s.invalidateRide(ctx, cancelled.RideID)
	metrics.Cancellations.WithLabelValues(metrics.OutcomeSuccess).Inc()
	s.logger.WithUserID(actorID).LogBookingEvent(cancelled.ID, cancelled.RideID, "booking_cancelled", cancelled.SeatsBooked)

	return cancelled, nil
}

func (s *bookingService) Get(ctx context.Context, bookingID primitive.ObjectID, userID string) (*models.Booking, error) {
	booking, err := s.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, fmt.Errorf("failed to load booking: %w", err)
	}
	if userID != booking.RiderID && userID != booking.OwnerID {
		return nil, ErrForbidden
	}
	return booking, nil
}

func (s *bookingService) ListByRider(ctx context.Context, riderID string, params *utils.PaginationParams) ([]*models.Booking, int64, error) {
	bookings, total, err := s.bookingRepo.ListByRider(ctx, riderID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list bookings: %w", err)
	}
	return bookings, total, nil
}

func (s *bookingService) invalidateRide(ctx context.Context, rideID primitive.ObjectID) {
	if err := s.cache.Delete(ctx, utils.CacheRidePrefix+rideID.Hex()); err != nil {
		s.logger.WithError(err).WithRideID(rideID).Warn("Failed to invalidate ride cache")
	}
}

func bookingOutcome(err error) string {
	if errors.Is(err, ErrConflict) || errors.Is(err, ErrForbidden) || errors.Is(err, ErrNotFound) || errors.Is(err, ErrValidation) {
		return metrics.OutcomeRejected
	}
	return metrics.OutcomeError
}
