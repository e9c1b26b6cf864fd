package handlers

import (
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type GeoHandler struct {
	geoService services.GeoService
	logger     *logger.Logger
}

func NewGeoHandler(geoService services.GeoService, log *logger.Logger) *GeoHandler {
	return &GeoHandler{geoService: geoService, logger: log}
}

// Autocomplete returns place suggestions for the q parameter
func (h *GeoHandler) Autocomplete(c *gin.Context) {
	predictions, err := h.geoService.Autocomplete(c.Request.Context(), c.Query("q"), c.Query("session_token"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Suggestions retrieved successfully", predictions)
}
