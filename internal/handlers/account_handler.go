package handlers

import (
	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type AccountHandler struct {
	accountService services.AccountService
	logger         *logger.Logger
}

func NewAccountHandler(accountService services.AccountService, log *logger.Logger) *AccountHandler {
	return &AccountHandler{accountService: accountService, logger: log}
}

func (h *AccountHandler) GetProfile(c *gin.Context) {
	user, err := h.accountService.GetProfile(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile retrieved successfully", user)
}

func (h *AccountHandler) UpsertProfile(c *gin.Context) {
	var request validators.UpsertProfileRequest
	if !bindJSON(c, &request) {
		return
	}

	user, err := h.accountService.UpsertProfile(c.Request.Context(), middleware.GetUserID(c), request.ToInput(middleware.GetUserEmail(c)))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Profile saved successfully", user)
}

func (h *AccountHandler) RegisterDevice(c *gin.Context) {
	var request validators.RegisterDeviceRequest
	if !bindJSON(c, &request) {
		return
	}

	if err := h.accountService.RegisterDevice(c.Request.Context(), middleware.GetUserID(c), request.Token, request.Platform); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Device registered", nil)
}

func (h *AccountHandler) RemoveDevice(c *gin.Context) {
	if err := h.accountService.RemoveDevice(c.Request.Context(), middleware.GetUserID(c), c.Param("token")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Device removed", nil)
}

func (h *AccountHandler) CreateCar(c *gin.Context) {
	var request validators.CreateCarRequest
	if !bindJSON(c, &request) {
		return
	}

	car, err := h.accountService.CreateCar(c.Request.Context(), middleware.GetUserID(c), request.ToInput())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Car added successfully", car)
}

func (h *AccountHandler) ListCars(c *gin.Context) {
	cars, err := h.accountService.ListCars(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Cars retrieved successfully", cars)
}

func (h *AccountHandler) DeleteCar(c *gin.Context) {
	carID, ok := paramObjectID(c, "id", "car")
	if !ok {
		return
	}

	if err := h.accountService.DeleteCar(c.Request.Context(), carID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Car deleted successfully", nil)
}

// DeleteAccount removes the caller and everything they own
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	report, err := h.accountService.DeleteAccount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Account deleted", report)
}
