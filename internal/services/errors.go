package services

import (
	"errors"
	"fmt"
)

// Categories. Handlers map these onto HTTP status codes.
var (
	ErrValidation  = errors.New("validation failed")
	ErrForbidden   = errors.New("forbidden")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("service unavailable")
)

var (
	ErrRideNotFound            = newError(ErrNotFound, "ride does not exist")
	ErrOwnRide                 = newError(ErrForbidden, "cannot book your own ride")
	ErrNotEnoughSeats          = newError(ErrConflict, "not enough available seats")
	ErrRideNotBookable         = newError(ErrConflict, "ride is not accepting bookings")
	ErrRideHasBookings         = newError(ErrConflict, "ride has confirmed bookings")
	ErrBookingNotFound         = newError(ErrNotFound, "booking does not exist")
	ErrBookingAlreadyCancelled = newError(ErrConflict, "booking already cancelled")
	ErrDuplicateRequest        = newError(ErrConflict, "duplicate booking request")

	ErrRideRequestNotFound = newError(ErrNotFound, "ride request does not exist")
	ErrRideRequestClosed   = newError(ErrConflict, "ride request is no longer pending")

	ErrChatNotFound    = newError(ErrNotFound, "chat does not exist")
	ErrNotParticipant  = newError(ErrForbidden, "not a participant of this chat")
	ErrListingNotFound = newError(ErrNotFound, "listing does not exist")
	ErrListingSold     = newError(ErrConflict, "listing already sold")
	ErrAlreadySaved    = newError(ErrConflict, "listing already saved")

	ErrNotificationNotFound = newError(ErrNotFound, "notification does not exist")
	ErrUserNotFound         = newError(ErrNotFound, "profile does not exist")
	ErrCarNotFound          = newError(ErrNotFound, "car does not exist")
)

// kindError carries a user-facing message and unwraps to its category.
type kindError struct {
	msg  string
	kind error
}

func newError(kind error, msg string) error {
	return &kindError{msg: msg, kind: kind}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }

// ValidationError names the offending field. It matches ErrValidation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
