package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpsertProfile(ctx context.Context, userID string, input *ProfileInput) (*models.User, error)
	RegisterDevice(ctx context.Context, userID, token, platform string) error
	RemoveDevice(ctx context.Context, userID, token string) error
	CreateCar(ctx context.Context, ownerID string, input *CarInput) (*models.Car, error)
	ListCars(ctx context.Context, ownerID string) ([]*models.Car, error)
	DeleteCar(ctx context.Context, carID primitive.ObjectID, ownerID string) error
	DeleteAccount(ctx context.Context, userID string) (*DeletionReport, error)
}

type ProfileInput struct {
	Email       string
	DisplayName string
	University  string
	Phone       string
	PhotoURL    string
}

type CarInput struct {
	Make  string
	Model string
	Color string
	Plate string
	Seats int
}

// DeletionReport summarizes what DeleteAccount removed.
type DeletionReport struct {
	RidesDeleted      int   `json:"rides_deleted"`
	RidesCancelled    int   `json:"rides_cancelled"`
	BookingsCancelled int   `json:"bookings_cancelled"`
	RequestsDeleted   int64 `json:"requests_deleted"`
	ListingsDeleted   int   `json:"listings_deleted"`
	UploadsDeleted    int   `json:"uploads_deleted"`
	SavedDeleted      int64 `json:"saved_deleted"`
	Notifications     int64 `json:"notifications_deleted"`
	CarsDeleted       int64 `json:"cars_deleted"`
}

var supportedPlatforms = map[string]bool{"android": true, "ios": true, "web": true}

type AccountDeps struct {
	UserRepo         interfaces.UserRepository
	CarRepo          interfaces.CarRepository
	RideRepo         interfaces.RideRepository
	BookingRepo      interfaces.BookingRepository
	RequestRepo      interfaces.RideRequestRepository
	ListingRepo      interfaces.ListingRepository
	SavedRepo        interfaces.SavedItemRepository
	NotificationRepo interfaces.NotificationRepository
	Rides            RideService
	Bookings         BookingService
	Marketplace      MarketplaceService
}

type accountService struct {
	deps   AccountDeps
	logger *logger.Logger
}

func NewAccountService(deps AccountDeps, log *logger.Logger) AccountService {
	return &accountService{deps: deps, logger: log}
}

func (s *accountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.deps.UserRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return user, nil
}

func (s *accountService) UpsertProfile(ctx context.Context, userID string, input *ProfileInput) (*models.User, error) {
	name := strings.TrimSpace(input.DisplayName)
	if name == "" {
		return nil, invalid("display_name", "is required")
	}
	university := strings.TrimSpace(input.University)
	if university == "" {
		return nil, invalid("university", "is required")
	}

	now := time.Now()
	user := &models.User{
		ID:          userID,
		Email:       strings.TrimSpace(input.Email),
		DisplayName: name,
		University:  university,
		Phone:       strings.TrimSpace(input.Phone),
		PhotoURL:    strings.TrimSpace(input.PhotoURL),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.deps.UserRepo.Upsert(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to save profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

func (s *accountService) RegisterDevice(ctx context.Context, userID, token, platform string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return invalid("token", "is required")
	}
	platform = strings.ToLower(strings.TrimSpace(platform))
	if !supportedPlatforms[platform] {
		return invalid("platform", "must be one of android, ios, web")
	}

	err := s.deps.UserRepo.AddDevice(ctx, userID, models.DeviceInfo{
		Token:     token,
		Platform:  platform,
		UpdatedAt: time.Now(),
	})
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to register device: %w", err)
	}
	return nil
}

func (s *accountService) RemoveDevice(ctx context.Context, userID, token string) error {
	if err := s.deps.UserRepo.RemoveDevice(ctx, userID, token); err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to remove device: %w", err)
	}
	return nil
}

func (s *accountService) CreateCar(ctx context.Context, ownerID string, input *CarInput) (*models.Car, error) {
	if strings.TrimSpace(input.Make) == "" {
		return nil, invalid("make", "is required")
	}
	if strings.TrimSpace(input.Model) == "" {
		return nil, invalid("model", "is required")
	}
	if input.Seats < models.MinRideSeats || input.Seats > models.MaxRideSeats {
		return nil, invalid("seats", "must be between %d and %d", models.MinRideSeats, models.MaxRideSeats)
	}

	car := &models.Car{
		ID:        primitive.NewObjectID(),
		OwnerID:   ownerID,
		Make:      strings.TrimSpace(input.Make),
		Model:     strings.TrimSpace(input.Model),
		Color:     strings.TrimSpace(input.Color),
		Plate:     strings.ToUpper(strings.TrimSpace(input.Plate)),
		Seats:     input.Seats,
		CreatedAt: time.Now(),
	}
	if err := s.deps.CarRepo.Create(ctx, car); err != nil {
		return nil, fmt.Errorf("failed to create car: %w", err)
	}
	return car, nil
}

func (s *accountService) ListCars(ctx context.Context, ownerID string) ([]*models.Car, error) {
	cars, err := s.deps.CarRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cars: %w", err)
	}
	return cars, nil
}

func (s *accountService) DeleteCar(ctx context.Context, carID primitive.ObjectID, ownerID string) error {
	car, err := s.deps.CarRepo.GetByID(ctx, carID)
	if err != nil {
		if errors.Is(err, interfaces.ErrNotFound) {
			return ErrCarNotFound
		}
		return fmt.Errorf("failed to load car: %w", err)
	}
	if car.OwnerID != ownerID {
		return ErrForbidden
	}
	if err := s.deps.CarRepo.Delete(ctx, carID); err != nil {
		return fmt.Errorf("failed to delete car: %w", err)
	}
	return nil
}

// DeleteAccount removes everything the user owns. Rides that still carry
// confirmed bookings are cancelled instead of deleted so their riders are
// notified; the user's own bookings on other rides are cancelled so the
// seats return to those drivers.
func (s *accountService) DeleteAccount(ctx context.Context, userID string) (*DeletionReport, error) {
	report := &DeletionReport{}
	log := s.logger.WithUserID(userID)

	rides, err := s.deps.RideRepo.ListAllByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rides: %w", err)
	}
	for _, ride := range rides {
		confirmed, err := s.deps.BookingRepo.CountConfirmedByRide(ctx, ride.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to count bookings: %w", err)
		}
		if confirmed == 0 {
			err := s.deps.Rides.Delete(ctx, ride.ID, userID)
			switch {
			case err == nil:
				report.RidesDeleted++
				continue
			case errors.Is(err, ErrRideNotFound):
				continue
			case !errors.Is(err, ErrRideHasBookings):
				return nil, err
			}
			// A booking landed between the count and the delete.
		}
		if ride.Status == models.RideStatusCancelled || ride.Status == models.RideStatusFinished {
			continue
		}
		if _, err := s.deps.Rides.UpdateStatus(ctx, ride.ID, userID, models.RideStatusCancelled); err != nil {
			return nil, err
		}
		report.RidesCancelled++
	}

	bookings, err := s.deps.BookingRepo.ListConfirmedByRider(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	for _, booking := range bookings {
		if _, err := s.deps.Bookings.Cancel(ctx, booking.ID, userID); err != nil {
			if errors.Is(err, ErrBookingAlreadyCancelled) {
				continue
			}
			return nil, err
		}
		report.BookingsCancelled++
	}

	if report.RequestsDeleted, err = s.deps.RequestRepo.DeleteByRequester(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete ride requests: %w", err)
	}

	listings, err := s.deps.ListingRepo.ListAllBySeller(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list listings: %w", err)
	}
	for _, listing := range listings {
		if err := s.deps.Marketplace.Delete(ctx, listing.ID, userID); err != nil && !errors.Is(err, ErrListingNotFound) {
			return nil, err
		}
		report.ListingsDeleted++
	}
	if report.UploadsDeleted, err = s.deps.Marketplace.PurgeUploads(ctx, userID); err != nil {
		log.WithError(err).Warn("Failed to purge uploaded images")
	}

	if report.SavedDeleted, err = s.deps.SavedRepo.DeleteByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete saved items: %w", err)
	}
	if report.Notifications, err = s.deps.NotificationRepo.DeleteByUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete notifications: %w", err)
	}
	if report.CarsDeleted, err = s.deps.CarRepo.DeleteByOwner(ctx, userID); err != nil {
		return nil, fmt.Errorf("failed to delete cars: %w", err)
	}
	if err := s.deps.UserRepo.Delete(ctx, userID); err != nil && !errors.Is(err, interfaces.ErrNotFound) {
		return nil, fmt.Errorf("failed to delete profile: %w", err)
	}

	log.LogUserAction(userID, "account_deleted", map[string]interface{}{
		"rides_deleted":   report.RidesDeleted,
		"rides_cancelled": report.RidesCancelled,
		"listings":        report.ListingsDeleted,
	})
	return report, nil
}
