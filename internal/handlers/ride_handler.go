package handlers

import (
	"strings"

	"campusride/internal/middleware"
	"campusride/internal/models"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type RideHandler struct {
	rideService    services.RideService
	bookingService services.BookingService
	logger         *logger.Logger
}

func NewRideHandler(rideService services.RideService, bookingService services.BookingService, log *logger.Logger) *RideHandler {
	return &RideHandler{
		rideService:    rideService,
		bookingService: bookingService,
		logger:         log,
	}
}

// PublishRide offers a new ride owned by the caller
func (h *RideHandler) PublishRide(c *gin.Context) {
	var request validators.PublishRideRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.Publish(c.Request.Context(), middleware.GetUserID(c), request.ToInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride published successfully", ride)
}

func (h *RideHandler) GetRide(c *gin.Context) {
	rideID, ok := paramObjectID(c, "id", "ride")
	if !ok {
		return
	}

	ride, err := h.rideService.Get(c.Request.Context(), rideID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride retrieved successfully", ride)
}

// ListMyRides lists rides the caller published
func (h *RideHandler) ListMyRides(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at", "start_time")
	rides, total, err := h.rideService.ListByOwner(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Rides retrieved successfully", rides, params, total)
}

func (h *RideHandler) SearchRides(c *gin.Context) {
	var query validators.RideSearchQuery
	if !bindQuery(c, &query) {
		return
	}

	rides, err := h.rideService.Search(c.Request.Context(), strings.TrimSpace(query.University), query.ToFilter())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Rides retrieved successfully", rides)
}

func (h *RideHandler) UpdateRideStatus(c *gin.Context) {
	rideID, ok := paramObjectID(c, "id", "ride")
	if !ok {
		return
	}
	var request validators.UpdateRideStatusRequest
	if !bindJSON(c, &request) {
		return
	}

	ride, err := h.rideService.UpdateStatus(c.Request.Context(), rideID, middleware.GetUserID(c), models.RideStatus(request.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride status updated successfully", ride)
}

func (h *RideHandler) DeleteRide(c *gin.Context) {
	rideID, ok := paramObjectID(c, "id", "ride")
	if !ok {
		return
	}

	if err := h.rideService.Delete(c.Request.Context(), rideID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride deleted successfully", nil)
}

// ListRideBookings is visible to the ride owner only
func (h *RideHandler) ListRideBookings(c *gin.Context) {
	rideID, ok := paramObjectID(c, "id", "ride")
	if !ok {
		return
	}

	bookings, err := h.rideService.ListBookings(c.Request.Context(), rideID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Bookings retrieved successfully", bookings)
}

// BookRide reserves seats on a ride. An Idempotency-Key header makes retries
// of the same submission safe.
func (h *RideHandler) BookRide(c *gin.Context) {
	rideID, ok := paramObjectID(c, "id", "ride")
	if !ok {
		return
	}
	var request validators.BookRideRequest
	if !bindJSON(c, &request) {
		return
	}

	booking, err := h.bookingService.Book(c.Request.Context(), &services.BookCommand{
		RideID:         rideID,
		RiderID:        middleware.GetUserID(c),
		Seats:          request.Seats,
		IdempotencyKey: strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey)),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride booked successfully", booking)
}
