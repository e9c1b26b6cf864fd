package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"campusride/internal/config"
	"campusride/internal/models"
	"campusride/internal/repositories/interfaces"
	"campusride/internal/repositories/memory"
	"campusride/pkg/logger"
	"campusride/pkg/websocket"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type sentMessage struct {
	target  string
	message websocket.Message
}

// recordingPublisher captures live deliveries instead of writing to sockets.
type recordingPublisher struct {
	mu    sync.Mutex
	users []sentMessage
	rooms []sentMessage
}

func (p *recordingPublisher) Publish(ctx context.Context, roomID string, message websocket.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.rooms = append(p.rooms, sentMessage{target: roomID, message: message})
	return nil
}

func (p *recordingPublisher) SendToUser(ctx context.Context, userID string, message websocket.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.users = append(p.users, sentMessage{target: userID, message: message})
	return nil
}

func (p *recordingPublisher) sentTo(userID string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, m := range p.users {
		if m.target == userID {
			n++
		}
	}
	return n
}

type testEnv struct {
	store         *memory.Store
	rides         interfaces.RideRepository
	bookings      interfaces.BookingRepository
	requests      interfaces.RideRequestRepository
	chats         interfaces.ChatRepository
	notifications interfaces.NotificationRepository
	listings      interfaces.ListingRepository
	saved         interfaces.SavedItemRepository
	users         interfaces.UserRepository
	cars          interfaces.CarRepository
	outbox        interfaces.OutboxRepository

	cache *MemoryCache
	live  *recordingPublisher
	log   *logger.Logger

	rideService         RideService
	bookingService      BookingService
	requestService      RideRequestService
	chatService         ChatService
	notificationService NotificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := memory.NewStore()
	env := &testEnv{
		store:         store,
		rides:         memory.NewRideRepository(store),
		bookings:      memory.NewBookingRepository(store),
		requests:      memory.NewRideRequestRepository(store),
		chats:         memory.NewChatRepository(store),
		notifications: memory.NewNotificationRepository(store),
		listings:      memory.NewListingRepository(store),
		saved:         memory.NewSavedItemRepository(store),
		users:         memory.NewUserRepository(store),
		cars:          memory.NewCarRepository(store),
		outbox:        memory.NewOutboxRepository(store),
		cache:         NewMemoryCache(),
		live:          &recordingPublisher{},
		log:           logger.Discard(),
	}

	env.rideService = NewRideService(store, env.rides, env.bookings, env.cars, env.outbox, env.cache, time.Minute, env.log)
	env.bookingService = NewBookingService(store, env.rides, env.bookings, env.outbox, env.cache, time.Minute, env.log)
	env.requestService = NewRideRequestService(store, env.requests, env.rides, env.bookings, env.outbox, env.log)
	env.chatService = NewChatService(env.chats, env.live, env.log)
	env.notificationService = NewNotificationService(env.notifications, env.users, env.live, nil, env.log)
	return env
}

func (e *testEnv) worker(cfg *config.OutboxConfig) *OutboxWorker {
	if cfg == nil {
		cfg = &config.OutboxConfig{
			PollInterval: 10 * time.Millisecond,
			BatchSize:    50,
			MaxAttempts:  3,
			BaseBackoff:  time.Second,
			MaxBackoff:   time.Minute,
			LeaseTimeout: 30 * time.Second,
		}
	}
	return NewOutboxWorker(OutboxWorkerDeps{
		OutboxRepo:    e.outbox,
		RideRepo:      e.rides,
		BookingRepo:   e.bookings,
		UserRepo:      e.users,
		Chats:         e.chatService,
		Notifications: e.notificationService,
	}, cfg, e.log)
}

func (e *testEnv) seedRide(t *testing.T, ownerID string, seats int, status models.RideStatus) *models.Ride {
	t.Helper()

	now := time.Now()
	ride := &models.Ride{
		ID:             primitive.NewObjectID(),
		OwnerID:        ownerID,
		University:     "State U",
		Pickup:         models.Location{Address: "1 Campus Dr", City: "Springfield"},
		Destination:    models.Location{Address: "500 Main St", City: "Shelbyville"},
		StartTime:      now.Add(24 * time.Hour).UTC().Format(time.RFC3339),
		TotalSeats:     seats,
		AvailableSeats: seats,
		PricePerSeat:   12.5,
		Status:         status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := e.rides.Create(context.Background(), ride); err != nil {
		t.Fatalf("seed ride: %v", err)
	}
	return ride
}

func (e *testEnv) availableSeats(t *testing.T, rideID primitive.ObjectID) int {
	t.Helper()
	ride, err := e.rides.GetByID(context.Background(), rideID)
	if err != nil {
		t.Fatalf("load ride: %v", err)
	}
	return ride.AvailableSeats
}

func (e *testEnv) notificationsFor(t *testing.T, userID string) []*models.Notification {
	t.Helper()
	list, _, err := e.notifications.ListByUser(context.Background(), userID, nil)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	return list
}

func tasksOfKind(tasks []models.OutboxTask, kind models.OutboxKind) int {
	n := 0
	for _, task := range tasks {
		if task.Kind == kind {
			n++
		}
	}
	return n
}
