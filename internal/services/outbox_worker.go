package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campusride/internal/config"
	"campusride/internal/metrics"
	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/pkg/email"
	"campusride/pkg/logger"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// OutboxWorker performs the side effects recorded by the booking, ride and
// ride request flows. Every handler is safe to run more than once for the
// same task.
type OutboxWorker struct {
	outboxRepo    interfaces.OutboxRepository
	rideRepo      interfaces.RideRepository
	bookingRepo   interfaces.BookingRepository
	userRepo      interfaces.UserRepository
	chats         ChatService
	notifications NotificationService
	mailer        email.Sender
	config        *config.OutboxConfig
	logger        *logger.Logger
	now           func() time.Time
}

type OutboxWorkerDeps struct {
	OutboxRepo    interfaces.OutboxRepository
	RideRepo      interfaces.RideRepository
	BookingRepo   interfaces.BookingRepository
	UserRepo      interfaces.UserRepository
	Chats         ChatService
	Notifications NotificationService
	Mailer        email.Sender
}

func NewOutboxWorker(deps OutboxWorkerDeps, cfg *config.OutboxConfig, log *logger.Logger) *OutboxWorker {
	mailer := deps.Mailer
	if mailer == nil {
		mailer = email.NopSender{}
	}
	return &OutboxWorker{
		outboxRepo:    deps.OutboxRepo,
		rideRepo:      deps.RideRepo,
		bookingRepo:   deps.BookingRepo,
		userRepo:      deps.UserRepo,
		chats:         deps.Chats,
		notifications: deps.Notifications,
		mailer:        mailer,
		config:        cfg,
		logger:        log.WithField("component", "outbox_worker"),
		now:           time.Now,
	}
}

// Run polls until ctx is cancelled.
func (w *OutboxWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.config.PollInterval)
	defer ticker.Stop()

	w.logger.Info("Outbox worker started")
	for {
		if _, err := w.ProcessBatch(ctx); err != nil && ctx.Err() == nil {
			w.logger.WithError(err).Error("Outbox batch failed")
		}

		select {
		case <-ctx.Done():
			w.logger.Info("Outbox worker stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// ProcessBatch claims and dispatches up to BatchSize due tasks and returns
// how many it handled.
func (w *OutboxWorker) ProcessBatch(ctx context.Context) (int, error) {
	processed := 0
	for processed < w.config.BatchSize {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		now := w.now()
		task, err := w.outboxRepo.ClaimDue(ctx, now, now.Add(w.config.LeaseTimeout))
		if errors.Is(err, interfaces.ErrNotFound) {
			return processed, nil
		}
		if err != nil {
			return processed, fmt.Errorf("failed to claim outbox task: %w", err)
		}

		w.handle(ctx, task)
		processed++
	}
	return processed, nil
}

func (w *OutboxWorker) handle(ctx context.Context, task *models.OutboxTask) {
	start := time.Now()
	err := w.dispatch(ctx, task)
	metrics.OutboxLatency.Observe(time.Since(start).Seconds())

	log := w.logger.WithFields(map[string]interface{}{
		"task_id": task.ID.Hex(),
		"kind":    task.Kind,
	})

	if err == nil {
		if err := w.outboxRepo.MarkDone(ctx, task.ID); err != nil {
			log.WithError(err).Error("Failed to mark outbox task done")
			return
		}
		metrics.OutboxTasks.WithLabelValues(string(task.Kind), metrics.OutcomeSuccess).Inc()
		log.Debug("Outbox task done")
		return
	}

	attempts := task.Attempts + 1
	if attempts >= w.config.MaxAttempts {
		if markErr := w.outboxRepo.MarkFailed(ctx, task.ID, attempts, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to mark outbox task failed")
			return
		}
		metrics.OutboxTasks.WithLabelValues(string(task.Kind), metrics.OutcomeFailed).Inc()
		log.WithError(err).WithField("attempts", attempts).Error("Outbox task gave up")
		return
	}

	next := w.now().Add(Backoff(attempts-1, w.config.BaseBackoff, w.config.MaxBackoff))
	if markErr := w.outboxRepo.Reschedule(ctx, task.ID, attempts, next, err.Error()); markErr != nil {
		log.WithError(markErr).Error("Failed to reschedule outbox task")
		return
	}
	metrics.OutboxTasks.WithLabelValues(string(task.Kind), metrics.OutcomeRetried).Inc()
	log.WithError(err).WithField("attempts", attempts).Warn("Outbox task will be retried")
}

// Backoff returns base*2^n, capped at ceiling.
func Backoff(n int, base, ceiling time.Duration) time.Duration {
	if n < 0 {
		n = 0
	}
	d := base
	for i := 0; i < n; i++ {
		d *= 2
		if d >= ceiling {
			return ceiling
		}
	}
	if d > ceiling {
		return ceiling
	}
	return d
}

func (w *OutboxWorker) dispatch(ctx context.Context, task *models.OutboxTask) error {
	switch task.Kind {
	case models.OutboxKindBookingCreated:
		return w.handleBookingCreated(ctx, task)
	case models.OutboxKindBookingCancelled:
		return w.handleBookingCancelled(ctx, task)
	case models.OutboxKindRideStatusChanged:
		return w.handleRideStatusChanged(ctx, task)
	case models.OutboxKindRideRequestAccepted:
		return w.handleRideRequestAccepted(ctx, task)
	}
	return fmt.Errorf("unknown outbox task kind %q", task.Kind)
}

func dedupeKey(task *models.OutboxTask, userID string) string {
	return task.ID.Hex() + ":" + userID
}

// handleBookingCreated opens the owner/rider chat, notifies the owner and
// emails the rider. Email failures are logged and never retried.
func (w *OutboxWorker) handleBookingCreated(ctx context.Context, task *models.OutboxTask) error {
	p := task.Payload
	ride, booking, err := w.loadRideAndBooking(ctx, p.RideID, p.BookingID)
	if errors.Is(err, interfaces.ErrNotFound) {
		w.logger.WithField("task_id", task.ID.Hex()).Warn("Booking or ride gone, skipping side effects")
		return nil
	}
	if err != nil {
		return err
	}

	chat, err := w.chats.FindOrCreate(ctx, p.OwnerID, p.RiderID, models.ChatTypeRide, nil)
	if err != nil {
		return err
	}

	riderName := w.displayName(ctx, p.RiderID, "A rider")
	_, err = w.notifications.CreateBatch(ctx, []*models.Notification{{
		UserID:    p.OwnerID,
		Type:      models.NotificationTypeBookingCreated,
		Title:     "New booking",
		Message:   fmt.Sprintf("%s booked %d seat(s) on your ride from %s", riderName, p.Seats, routeLabel(ride)),
		RideID:    p.RideID,
		BookingID: p.BookingID,
		ChatID:    &chat.ID,
		DedupeKey: dedupeKey(task, p.OwnerID),
	}})
	if err != nil {
		return err
	}

	w.sendBookingEmail(ctx, p.RiderID, ride, booking)
	return nil
}

func (w *OutboxWorker) sendBookingEmail(ctx context.Context, riderID string, ride *models.Ride, booking *models.Booking) {
	log := w.logger.WithUserID(riderID)

	rider, err := w.userRepo.GetByID(ctx, riderID)
	if err != nil {
		log.WithError(err).Warn("Skipping booking email: rider profile unavailable")
		return
	}
	if rider.Email == "" {
		return
	}

	msg, err := bookingConfirmationEmail(rider, ride, booking)
	if err != nil {
		log.WithError(err).Warn("Skipping booking email")
		return
	}
	if err := w.mailer.Send(ctx, msg); err != nil {
		log.WithError(err).Warn("Booking email failed")
	}
}

func (w *OutboxWorker) handleBookingCancelled(ctx context.Context, task *models.OutboxTask) error {
	p := task.Payload

	recipient, title := p.OwnerID, "Booking cancelled"
	message := fmt.Sprintf("%s cancelled a booking of %d seat(s)", w.displayName(ctx, p.RiderID, "A rider"), p.Seats)
	if p.ActorID == p.OwnerID {
		recipient = p.RiderID
		message = fmt.Sprintf("Your booking of %d seat(s) was cancelled by the driver", p.Seats)
	}

	if p.RideID != nil {
		if ride, err := w.rideRepo.GetByID(ctx, *p.RideID); err == nil {
			message += " on the ride from " + routeLabel(ride)
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("failed to load ride: %w", err)
		}
	}

	_, err := w.notifications.CreateBatch(ctx, []*models.Notification{{
		UserID:    recipient,
		Type:      models.NotificationTypeBookingCancelled,
		Title:     title,
		Message:   message,
		RideID:    p.RideID,
		BookingID: p.BookingID,
		DedupeKey: dedupeKey(task, recipient),
	}})
	return err
}

// handleRideStatusChanged writes one notification per distinct rider with a
// confirmed booking, in a single batch.
func (w *OutboxWorker) handleRideStatusChanged(ctx context.Context, task *models.OutboxTask) error {
	p := task.Payload
	if p.RideID == nil {
		return errors.New("ride status task without ride id")
	}

	ride, err := w.rideRepo.GetByID(ctx, *p.RideID)
	if errors.Is(err, interfaces.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load ride: %w", err)
	}

	bookings, err := w.bookingRepo.ListByRide(ctx, *p.RideID, models.BookingStatusConfirmed)
	if err != nil {
		return fmt.Errorf("failed to load bookings: %w", err)
	}

	seen := make(map[string]bool)
	batch := make([]*models.Notification, 0, len(bookings))
	for _, b := range bookings {
		if seen[b.RiderID] {
			continue
		}
		seen[b.RiderID] = true
		batch = append(batch, &models.Notification{
			UserID:    b.RiderID,
			Type:      models.NotificationTypeRideStatus,
			Title:     "Ride update",
			Message:   fmt.Sprintf("Your ride from %s is now %s", routeLabel(ride), p.Status.Label()),
			RideID:    p.RideID,
			DedupeKey: dedupeKey(task, b.RiderID),
		})
	}

	_, err = w.notifications.CreateBatch(ctx, batch)
	return err
}

func (w *OutboxWorker) handleRideRequestAccepted(ctx context.Context, task *models.OutboxTask) error {
	p := task.Payload

	message := fmt.Sprintf("%s accepted your ride request", w.displayName(ctx, p.OwnerID, "A driver"))
	if p.RideID != nil {
		if ride, err := w.rideRepo.GetByID(ctx, *p.RideID); err == nil {
			message += " from " + routeLabel(ride)
		} else if !errors.Is(err, interfaces.ErrNotFound) {
			return fmt.Errorf("failed to load ride: %w", err)
		}
	}

	_, err := w.notifications.CreateBatch(ctx, []*models.Notification{{
		UserID:    p.RiderID,
		Type:      models.NotificationTypeRideRequestAccepted,
		Title:     "Ride request accepted",
		Message:   message,
		RideID:    p.RideID,
		BookingID: p.BookingID,
		DedupeKey: dedupeKey(task, p.RiderID),
	}})
	return err
}

func (w *OutboxWorker) loadRideAndBooking(ctx context.Context, rideID, bookingID *primitive.ObjectID) (*models.Ride, *models.Booking, error) {
	if rideID == nil || bookingID == nil {
		return nil, nil, errors.New("booking task without ride or booking id")
	}
	ride, err := w.rideRepo.GetByID(ctx, *rideID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load ride: %w", err)
	}
	booking, err := w.bookingRepo.GetByID(ctx, *bookingID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load booking: %w", err)
	}
	return ride, booking, nil
}

func (w *OutboxWorker) displayName(ctx context.Context, userID, fallback string) string {
	user, err := w.userRepo.GetByID(ctx, userID)
	if err != nil || user.DisplayName == "" {
		return fallback
	}
	return user.DisplayName
}
