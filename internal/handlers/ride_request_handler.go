package handlers

import (
	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type RideRequestHandler struct {
	requestService services.RideRequestService
	logger         *logger.Logger
}

func NewRideRequestHandler(requestService services.RideRequestService, log *logger.Logger) *RideRequestHandler {
	return &RideRequestHandler{requestService: requestService, logger: log}
}

func (h *RideRequestHandler) CreateRequest(c *gin.Context) {
	var request validators.CreateRideRequestRequest
	if !bindJSON(c, &request) {
		return
	}

	created, err := h.requestService.Create(c.Request.Context(), middleware.GetUserID(c), request.ToInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride request created successfully", created)
}

func (h *RideRequestHandler) GetRequest(c *gin.Context) {
	requestID, ok := paramObjectID(c, "id", "ride request")
	if !ok {
		return
	}

	request, err := h.requestService.Get(c.Request.Context(), requestID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride request retrieved successfully", request)
}

func (h *RideRequestHandler) ListMyRequests(c *gin.Context) {
	requests, err := h.requestService.ListMine(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride requests retrieved successfully", requests)
}

// ListAvailableRequests shows drivers the pending requests at a university
// that they neither posted nor rejected.
func (h *RideRequestHandler) ListAvailableRequests(c *gin.Context) {
	requests, err := h.requestService.ListAvailable(c.Request.Context(), middleware.GetUserID(c), c.Query("university"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride requests retrieved successfully", requests)
}

func (h *RideRequestHandler) CancelRequest(c *gin.Context) {
	requestID, ok := paramObjectID(c, "id", "ride request")
	if !ok {
		return
	}

	if err := h.requestService.Cancel(c.Request.Context(), requestID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride request cancelled successfully", nil)
}

func (h *RideRequestHandler) RejectRequest(c *gin.Context) {
	requestID, ok := paramObjectID(c, "id", "ride request")
	if !ok {
		return
	}

	if err := h.requestService.Reject(c.Request.Context(), requestID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Ride request hidden", nil)
}

func (h *RideRequestHandler) AcceptRequest(c *gin.Context) {
	requestID, ok := paramObjectID(c, "id", "ride request")
	if !ok {
		return
	}
	var request validators.AcceptRideRequestRequest
	if !bindJSON(c, &request) {
		return
	}

	result, err := h.requestService.Accept(c.Request.Context(), requestID, middleware.GetUserID(c), request.ToInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Ride request accepted", result)
}
