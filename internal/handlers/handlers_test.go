package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"campusride/internal/middleware"
	"campusride/internal/models"
	"campusride/internal/repositories/memory"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *utils.APIError `json:"error"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return env
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", &services.ValidationError{Field: "seats", Message: "must be positive"}, http.StatusBadRequest, utils.CodeValidation},
		{"not enough seats", services.ErrNotEnoughSeats, http.StatusConflict, utils.CodeNotEnoughSeats},
		{"own ride", services.ErrOwnRide, http.StatusForbidden, utils.CodeOwnRide},
		{"already cancelled", services.ErrBookingAlreadyCancelled, http.StatusConflict, utils.CodeAlreadyDone},
		{"wrapped duplicate", fmt.Errorf("book: %w", services.ErrDuplicateRequest), http.StatusConflict, utils.CodeDuplicate},
		{"forbidden", services.ErrNotParticipant, http.StatusForbidden, utils.CodeForbidden},
		{"not found", services.ErrRideNotFound, http.StatusNotFound, utils.CodeNotFound},
		{"conflict", services.ErrRideHasBookings, http.StatusConflict, utils.CodeConflict},
		{"unavailable", services.ErrGeoDisabled, http.StatusServiceUnavailable, utils.CodeUnavailable},
		{"unknown", errors.New("mongo exploded"), http.StatusInternalServerError, utils.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

			respondError(c, logger.Discard(), tt.err)

			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			body := decode(t, w)
			if body.Status != utils.StatusError || body.Error == nil || body.Error.Code != tt.code {
				t.Fatalf("unexpected body %s", w.Body.String())
			}
			if tt.status == http.StatusInternalServerError && body.Error.Message != utils.ErrInternalServer {
				t.Fatalf("internal details leaked: %q", body.Error.Message)
			}
		})
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	respondError(c, logger.Discard(), &services.ValidationError{Field: "seats", Message: "must be positive"})
	if got := decode(t, w).Error.Details["seats"]; got != "must be positive" {
		t.Fatalf("expected field details, got %q", got)
	}
}

// testRouter wires ride and booking handlers over the in-memory store. The
// caller is taken from X-User instead of a bearer token.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()

	log := logger.Discard()
	store := memory.NewStore()
	rides := memory.NewRideRepository(store)
	bookings := memory.NewBookingRepository(store)
	outbox := memory.NewOutboxRepository(store)
	cache := services.NewMemoryCache()

	rideService := services.NewRideService(store, rides, bookings, memory.NewCarRepository(store), outbox, cache, time.Minute, log)
	bookingService := services.NewBookingService(store, rides, bookings, outbox, cache, time.Minute, log)
	rideHandler := NewRideHandler(rideService, bookingService, log)
	bookingHandler := NewBookingHandler(bookingService, log)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if user := c.GetHeader("X-User"); user != "" {
			c.Set(middleware.ContextUserID, user)
		}
		c.Next()
	})
	r.POST("/rides", rideHandler.PublishRide)
	r.GET("/rides/search", rideHandler.SearchRides)
	r.GET("/rides/:id", rideHandler.GetRide)
	r.POST("/rides/:id/book", rideHandler.BookRide)
	r.PATCH("/rides/:id/status", rideHandler.UpdateRideStatus)
	r.GET("/bookings/:id", bookingHandler.GetBooking)
	r.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
	return r
}

func do(r *gin.Engine, method, path, user string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func publish(t *testing.T, r *gin.Engine, owner string, seats int) models.Ride {
	t.Helper()
	w := do(r, http.MethodPost, "/rides", owner, map[string]interface{}{
		"university":     "State U",
		"pickup":         map[string]string{"address": "1 Campus Dr", "city": "Springfield"},
		"destination":    map[string]string{"address": "500 Main St", "city": "Shelbyville"},
		"start_time":     time.Now().Add(48 * time.Hour).UTC().Format(time.RFC3339),
		"total_seats":    seats,
		"price_per_seat": 12.5,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("publish status = %d: %s", w.Code, w.Body.String())
	}
	var ride models.Ride
	if err := json.Unmarshal(decode(t, w).Data, &ride); err != nil {
		t.Fatalf("decode ride: %v", err)
	}
	return ride
}

func TestBookingFlowOverHTTP(t *testing.T) {
	r := testRouter(t)
	ride := publish(t, r, "driver", 3)

	w := do(r, http.MethodPost, "/rides/"+ride.ID.Hex()+"/book", "alice", map[string]int{"seats": 2})
	if w.Code != http.StatusCreated {
		t.Fatalf("book status = %d: %s", w.Code, w.Body.String())
	}
	var booking models.Booking
	if err := json.Unmarshal(decode(t, w).Data, &booking); err != nil {
		t.Fatalf("decode booking: %v", err)
	}
	if booking.SeatsBooked != 2 || booking.TotalPrice != 25 {
		t.Fatalf("unexpected booking: %+v", booking)
	}

	w = do(r, http.MethodPost, "/rides/"+ride.ID.Hex()+"/book", "bob", map[string]int{"seats": 2})
	if w.Code != http.StatusConflict || decode(t, w).Error.Code != utils.CodeNotEnoughSeats {
		t.Fatalf("expected NOT_ENOUGH_SEATS, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/rides/"+ride.ID.Hex()+"/book", "driver", map[string]int{"seats": 1})
	if w.Code != http.StatusForbidden || decode(t, w).Error.Code != utils.CodeOwnRide {
		t.Fatalf("expected OWN_RIDE, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/bookings/"+booking.ID.Hex(), "bob", nil)
	if w.Code != http.StatusForbidden && w.Code != http.StatusNotFound {
		t.Fatalf("stranger read a booking: %d", w.Code)
	}

	w = do(r, http.MethodPost, "/bookings/"+booking.ID.Hex()+"/cancel", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d: %s", w.Code, w.Body.String())
	}
	w = do(r, http.MethodPost, "/bookings/"+booking.ID.Hex()+"/cancel", "alice", nil)
	if w.Code != http.StatusConflict || decode(t, w).Error.Code != utils.CodeAlreadyDone {
		t.Fatalf("expected ALREADY_DONE, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodGet, "/rides/"+ride.ID.Hex(), "bob", nil)
	var current models.Ride
	_ = json.Unmarshal(decode(t, w).Data, &current)
	if current.AvailableSeats != 3 {
		t.Fatalf("expected seats restored, got %d", current.AvailableSeats)
	}
}

func TestBookingIdempotencyHeader(t *testing.T) {
	r := testRouter(t)
	ride := publish(t, r, "driver", 4)
	path := "/rides/" + ride.ID.Hex() + "/book"

	if w := do(r, http.MethodPost, path, "alice", map[string]int{"seats": 1}, HeaderIdempotencyKey, "k-1"); w.Code != http.StatusCreated {
		t.Fatalf("first book = %d", w.Code)
	}
	w := do(r, http.MethodPost, path, "alice", map[string]int{"seats": 1}, HeaderIdempotencyKey, "k-1")
	if w.Code != http.StatusConflict || decode(t, w).Error.Code != utils.CodeDuplicate {
		t.Fatalf("expected DUPLICATE_REQUEST, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRequestValidationOverHTTP(t *testing.T) {
	r := testRouter(t)
	ride := publish(t, r, "driver", 3)

	w := do(r, http.MethodPost, "/rides/"+ride.ID.Hex()+"/book", "alice", map[string]int{"seats": 0})
	body := decode(t, w)
	if w.Code != http.StatusBadRequest || body.Error.Code != utils.CodeValidation || body.Error.Details["seats"] == "" {
		t.Fatalf("expected a seats validation error, got %d: %s", w.Code, w.Body.String())
	}

	w = do(r, http.MethodPost, "/rides/not-an-id/book", "alice", map[string]int{"seats": 1})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", w.Code)
	}

	w = do(r, http.MethodPatch, "/rides/"+ride.ID.Hex()+"/status", "driver", map[string]string{"status": "flying"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", w.Code)
	}

	w = do(r, http.MethodGet, "/rides/search?university=State+U&date=tomorrow", "alice", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad date, got %d", w.Code)
	}
	w = do(r, http.MethodGet, "/rides/search?university=State+U&from=spring", "alice", nil)
	var rides []models.Ride
	if err := json.Unmarshal(decode(t, w).Data, &rides); err != nil || len(rides) != 1 {
		t.Fatalf("expected one search result, got %d (%v)", len(rides), err)
	}
}

func TestHealthHandler(t *testing.T) {
	r := gin.New()
	failing := false
	h := NewHealthHandler("1.2.3",
		HealthCheck{Name: "database", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "cache", Check: func(ctx context.Context) error {
			if failing {
				return errors.New("connection refused")
			}
			return nil
		}},
	)
	r.GET("/health", h.Live)
	r.GET("/ready", h.Ready)

	w := do(r, http.MethodGet, "/health", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("live status = %d", w.Code)
	}

	if w := do(r, http.MethodGet, "/ready", "", nil); w.Code != http.StatusOK {
		t.Fatalf("ready status = %d", w.Code)
	}

	failing = true
	w = do(r, http.MethodGet, "/ready", "", nil)
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if details := decode(t, w).Error.Details; details["cache"] != "connection refused" || details["database"] != "ok" {
		t.Fatalf("unexpected details: %v", details)
	}
}
