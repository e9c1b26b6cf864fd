// Package memory holds in-process repository adapters. They back the
// service tests and single-node development runs without MongoDB.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"campusride/internal/models"
	"campusride/internal/utils"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store holds every collection behind one lock. It is safe for concurrent
// use.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	rides         map[primitive.ObjectID]models.Ride
	bookings      map[primitive.ObjectID]models.Booking
	requests      map[primitive.ObjectID]models.RideRequest
	chats         map[primitive.ObjectID]models.Chat
	messages      map[primitive.ObjectID]models.Message
	notifications map[primitive.ObjectID]models.Notification
	listings      map[primitive.ObjectID]models.Listing
	saved         map[primitive.ObjectID]models.SavedItem
	users         map[string]models.User
	cars          map[primitive.ObjectID]models.Car
	outbox        map[primitive.ObjectID]models.OutboxTask
}

func NewStore() *Store {
	return &Store{
		rides:         make(map[primitive.ObjectID]models.Ride),
		bookings:      make(map[primitive.ObjectID]models.Booking),
		requests:      make(map[primitive.ObjectID]models.RideRequest),
		chats:         make(map[primitive.ObjectID]models.Chat),
		messages:      make(map[primitive.ObjectID]models.Message),
		notifications: make(map[primitive.ObjectID]models.Notification),
		listings:      make(map[primitive.ObjectID]models.Listing),
		saved:         make(map[primitive.ObjectID]models.SavedItem),
		users:         make(map[string]models.User),
		cars:          make(map[primitive.ObjectID]models.Car),
		outbox:        make(map[primitive.ObjectID]models.OutboxTask),
	}
}

type txKey struct{}

// undoLog holds the prior value of every key a transaction wrote, newest
// last.
type undoLog struct {
	store *Store
	steps []func()
}

// WithTransaction serializes transactions. When fn fails, only the keys
// written through txCtx are put back; writes made outside the transaction
// meanwhile survive.
func (s *Store) WithTransaction(ctx context.Context, fn func(txCtx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	undo := &undoLog{store: s}
	if err := fn(context.WithValue(ctx, txKey{}, undo)); err != nil {
		s.mu.Lock()
		for i := len(undo.steps) - 1; i >= 0; i-- {
			undo.steps[i]()
		}
		s.mu.Unlock()
		return err
	}
	return nil
}

// remember records m[k] before a write. Callers hold s.mu. Outside a
// transaction it does nothing.
func remember[K comparable, V any](ctx context.Context, s *Store, m map[K]V, k K, clone func(V) V) {
	undo, ok := ctx.Value(txKey{}).(*undoLog)
	if !ok || undo.store != s {
		return
	}
	prev, existed := m[k]
	if existed {
		prev = clone(prev)
	}
	undo.steps = append(undo.steps, func() {
		if existed {
			m[k] = prev
		} else {
			delete(m, k)
		}
	})
}

func identity[V any](v V) V { return v }

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneID(id *primitive.ObjectID) *primitive.ObjectID {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneRide(r models.Ride) models.Ride {
	r.CarID = cloneID(r.CarID)
	r.LatestBookingTime = cloneTime(r.LatestBookingTime)
	return r
}

func cloneBooking(b models.Booking) models.Booking {
	b.CancelledAt = cloneTime(b.CancelledAt)
	return b
}

func cloneRideRequest(r models.RideRequest) models.RideRequest {
	r.RejectedBy = cloneStrings(r.RejectedBy)
	r.AcceptedRideID = cloneID(r.AcceptedRideID)
	r.AcceptedBookingID = cloneID(r.AcceptedBookingID)
	return r
}

func cloneChat(c models.Chat) models.Chat {
	c.Participants = cloneStrings(c.Participants)
	c.ListingID = cloneID(c.ListingID)
	c.LastMessageAt = cloneTime(c.LastMessageAt)
	unread := make(map[string]int, len(c.Unread))
	for k, v := range c.Unread {
		unread[k] = v
	}
	c.Unread = unread
	return c
}

func cloneNotification(n models.Notification) models.Notification {
	n.RideID = cloneID(n.RideID)
	n.BookingID = cloneID(n.BookingID)
	n.ChatID = cloneID(n.ChatID)
	n.ListingID = cloneID(n.ListingID)
	n.ReadAt = cloneTime(n.ReadAt)
	return n
}

func cloneListing(l models.Listing) models.Listing {
	l.Images = cloneStrings(l.Images)
	l.ImageKeys = cloneStrings(l.ImageKeys)
	l.SoldAt = cloneTime(l.SoldAt)
	return l
}

func cloneUser(u models.User) models.User {
	if u.Devices != nil {
		u.Devices = append([]models.DeviceInfo(nil), u.Devices...)
	}
	return u
}

func cloneOutboxTask(t models.OutboxTask) models.OutboxTask {
	t.LeaseUntil = cloneTime(t.LeaseUntil)
	t.Payload.RideID = cloneID(t.Payload.RideID)
	t.Payload.BookingID = cloneID(t.Payload.BookingID)
	t.Payload.RequestID = cloneID(t.Payload.RequestID)
	return t
}

// page sorts by created time (newest first unless params ask otherwise) and
// slices out the requested page.
func page[T any](items []T, params *utils.PaginationParams, createdAt func(T) time.Time) []T {
	if params == nil {
		params = utils.DefaultPagination()
	}
	sort.SliceStable(items, func(i, j int) bool {
		if params.Descending() {
			return createdAt(items[i]).After(createdAt(items[j]))
		}
		return createdAt(items[i]).Before(createdAt(items[j]))
	})
	start, end := params.Window(len(items))
	return items[start:end]
}
