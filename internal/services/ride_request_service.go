package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/utils"
	"campusride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type RideRequestService interface {
	Create(ctx context.Context, requesterID string, input *CreateRideRequestInput) (*models.RideRequest, error)
	Get(ctx context.Context, requestID primitive.ObjectID) (*models.RideRequest, error)
	ListMine(ctx context.Context, requesterID string) ([]*models.RideRequest, error)
	ListAvailable(ctx context.Context, viewerID, university string) ([]*models.RideRequest, error)
	Cancel(ctx context.Context, requestID primitive.ObjectID, requesterID string) error
	Reject(ctx context.Context, requestID primitive.ObjectID, viewerID string) error
	Accept(ctx context.Context, requestID primitive.ObjectID, driverID string, input *PublishRideInput) (*AcceptResult, error)
}

type CreateRideRequestInput struct {
	University      string
	Pickup          models.Location
	Destination     models.Location
	DesiredTime     string
	Passengers      int
	MaxPricePerSeat float64
	Notes           string
}

type AcceptResult struct {
	Request *models.RideRequest `json:"request"`
	Ride    *models.Ride        `json:"ride"`
	Booking *models.Booking     `json:"booking"`
}

type rideRequestService struct {
	tx          interfaces.Transactor
	requestRepo interfaces.RideRequestRepository
	rideRepo    interfaces.RideRepository
	bookingRepo interfaces.BookingRepository
	outboxRepo  interfaces.OutboxRepository
	logger      *logger.Logger
}

func NewRideRequestService(
	tx interfaces.Transactor,
	requestRepo interfaces.RideRequestRepository,
	rideRepo interfaces.RideRepository,
	bookingRepo interfaces.BookingRepository,
	outboxRepo interfaces.OutboxRepository,
	log *logger.Logger,
) RideRequestService {
	return &rideRequestService{
		tx:          tx,
		requestRepo: requestRepo,
		rideRepo:    rideRepo,
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		logger:      log,
	}
}

func (s *rideRequestService) Create(ctx context.Context, requesterID string, input *CreateRideRequestInput) (*models.RideRequest, error) {
	university := strings.TrimSpace(input.University)
	if university == "" {
		return nil, invalid("university", "is required")
	}
	if input.Pickup.IsZero() {
		return nil, invalid("pickup", "is required")
	}
	if input.Destination.IsZero() {
		return nil, invalid("destination", "is required")
	}
	if input.Passengers < models.MinRideSeats || input.Passengers > models.MaxRideSeats {
		return nil, invalid("passengers", "must be between %d and %d", models.MinRideSeats, models.MaxRideSeats)
	}
	if _, err := time.Parse(time.RFC3339, input.DesiredTime); err != nil {
		return nil, invalid("desired_time", "must be an RFC3339 timestamp")
	}
	if input.MaxPricePerSeat < 0 {
		return nil, invalid("max_price_per_seat", "must not be negative")
	}

	now := time.Now()
	request := &models.RideRequest{
		ID:              primitive.NewObjectID(),
		RequesterID:     requesterID,
		University:      university,
		Pickup:          input.Pickup,
		Destination:     input.Destination,
		DesiredTime:     input.DesiredTime,
		Passengers:      input.Passengers,
		MaxPricePerSeat: input.MaxPricePerSeat,
		Notes:           strings.TrimSpace(input.Notes),
		Status:          models.RideRequestStatusPending,
		RejectedBy:      []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.requestRepo.Create(ctx, request); err != nil {
		return nil, fmt.Errorf("failed to create ride request: %w", err)
	}

	s.logger.LogUserAction(requesterID, "ride_request_created", map[string]interface{}{
		"request_id": request.ID.Hex(),
		"university": university,
	})
	return request, nil
}

func (s *rideRequestService) Get(ctx context.Context, requestID primitive.ObjectID) (*models.RideRequest, error) {
	request, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrRideRequestNotFound
		}
		return nil, fmt.Errorf("failed to load ride request: %w", err)
	}
	return request, nil
}

func (s *rideRequestService) ListMine(ctx context.Context, requesterID string) ([]*models.RideRequest, error) {
	requests, err := s.requestRepo.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ride requests: %w", err)
	}
	return requests, nil
}

// ListAvailable is a single store query; requests the viewer rejected are
// excluded by the rejected_by set.
func (s *rideRequestService) ListAvailable(ctx context.Context, viewerID, university string) ([]*models.RideRequest, error) {
	if strings.TrimSpace(university) == "" {
		return nil, invalid("university", "is required")
	}
	requests, err := s.requestRepo.ListAvailable(ctx, viewerID, university, utils.MaxSearchScan)
	if err != nil {
		return nil, fmt.Errorf("failed to list available ride requests: %w", err)
	}
	return requests, nil
}

func (s *rideRequestService) Cancel(ctx context.Context, requestID primitive.ObjectID, requesterID string) error {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequesterID != requesterID {
		return ErrForbidden
	}

	err = s.requestRepo.TransitionStatus(ctx, requestID, models.RideRequestStatusPending, models.RideRequestStatusCancelled)
	if err != nil {
		if errors.Is(err, interfaces.ErrConflict) {
			return ErrRideRequestClosed
		}
		return fmt.Errorf("failed to cancel ride request: %w", err)
	}
	return nil
}

// Reject hides the request from this viewer only; it stays pending for
// every other driver.
func (s *rideRequestService) Reject(ctx context.Context, requestID primitive.ObjectID, viewerID string) error {
	request, err := s.Get(ctx, requestID)
	if err != nil {
		return err
	}
	if request.RequesterID == viewerID {
		return invalid("request_id", "cannot reject your own request")
	}
	if request.Status != models.RideRequestStatusPending {
		return ErrRideRequestClosed
	}

	if err := s.requestRepo.AddRejection(ctx, requestID, viewerID); err != nil {
		return fmt.Errorf("failed to reject ride request: %w", err)
	}
	return nil
}

// Accept publishes a ride for the driver, books the requested seats for the
// requester and closes the request, all in one transaction.
func (s *rideRequestService) Accept(ctx context.Context, requestID primitive.ObjectID, driverID string, input *PublishRideInput) (*AcceptResult, error) {
	var result *AcceptResult
	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		request, err := s.requestRepo.GetByID(txCtx, requestID)
		if err != nil {
			if errors.Is(err, interfaces.ErrNotFound) {
				return ErrRideRequestNotFound
			}
			return fmt.Errorf("failed to load ride request: %w", err)
		}
		if request.RequesterID == driverID {
			return invalid("request_id", "cannot accept your own request")
		}
		if request.Status != models.RideRequestStatusPending {
			return ErrRideRequestClosed
		}

		rideInput := *input
		if rideInput.TotalSeats == 0 {
			rideInput.TotalSeats = request.Passengers
		}
		if rideInput.University == "" {
			rideInput.University = request.University
		}
		if rideInput.Pickup.IsZero() {
			rideInput.Pickup = request.Pickup
		}
		if rideInput.Destination.IsZero() {
			rideInput.Destination = request.Destination
		}
		if rideInput.StartTime == "" {
			rideInput.StartTime = request.DesiredTime
		}
		if rideInput.TotalSeats < request.Passengers {
			return ErrNotEnoughSeats
		}

		now := time.Now()
		ride, err := newRide(driverID, &rideInput, now)
		if err != nil {
			return err
		}
		if err := s.rideRepo.Create(txCtx, ride); err != nil {
			return fmt.Errorf("failed to publish ride: %w", err)
		}

		booking, err := reserveAndBook(txCtx, s.rideRepo, s.bookingRepo, s.outboxRepo, &BookCommand{
			RideID:  ride.ID,
			RiderID: request.RequesterID,
			Seats:   request.Passengers,
		}, now)
		if err != nil {
			return err
		}

		if err := s.requestRepo.MarkAccepted(txCtx, requestID, driverID, ride.ID, booking.ID, now); err != nil {
			if errors.Is(err, interfaces.ErrConflict) {
				return ErrRideRequestClosed
			}
			return fmt.Errorf("failed to accept ride request: %w", err)
		}

		rideID, bookingID := ride.ID, booking.ID
		task := models.NewOutboxTask(models.OutboxKindRideRequestAccepted, models.OutboxPayload{
			RideID:    &rideID,
			BookingID: &bookingID,
			RequestID: &requestID,
			ActorID:   driverID,
			RiderID:   request.RequesterID,
			OwnerID:   driverID,
			Seats:     request.Passengers,
		}, now)
		if err := s.outboxRepo.Enqueue(txCtx, task); err != nil {
			return fmt.Errorf("failed to enqueue accept task: %w", err)
		}

		ride.AvailableSeats -= booking.SeatsBooked
		ride.LatestBookingTime = &now
		request.Status = models.RideRequestStatusAccepted
		request.AcceptedBy = driverID
		request.AcceptedRideID = &rideID
		request.AcceptedBookingID = &bookingID
		request.UpdatedAt = now

		result = &AcceptResult{Request: request, Ride: ride, Booking: booking}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithUserID(driverID).LogRideEvent(result.Ride.ID, "ride_request_accepted", map[string]interface{}{
		"request_id": requestID.Hex(),
		"seats":      result.Booking.SeatsBooked,
	})
	return result, nil
}
