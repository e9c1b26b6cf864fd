package handlers

import (
	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	bookingService services.BookingService
	logger         *logger.Logger
}

func NewBookingHandler(bookingService services.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, logger: log}
}

func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID, ok := paramObjectID(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.Get(c.Request.Context(), bookingID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking retrieved successfully", booking)
}

func (h *BookingHandler) ListMyBookings(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at")
	bookings, total, err := h.bookingService.ListByRider(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Bookings retrieved successfully", bookings, params, total)
}

// CancelBooking may be called by the rider or the ride owner
func (h *BookingHandler) CancelBooking(c *gin.Context) {
	bookingID, ok := paramObjectID(c, "id", "booking")
	if !ok {
		return
	}

	booking, err := h.bookingService.Cancel(c.Request.Context(), bookingID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Booking cancelled successfully", booking)
}
