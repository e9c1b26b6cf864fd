package handlers

import (
	"errors"
	"net/http"

	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// specificCodes give clients a stable code for errors they branch on.
var specificCodes = map[error]string{
	services.ErrNotEnoughSeats:          utils.CodeNotEnoughSeats,
	services.ErrOwnRide:                 utils.CodeOwnRide,
	services.ErrRideNotBookable:         utils.CodeRideNotBookable,
	services.ErrBookingAlreadyCancelled: utils.CodeAlreadyDone,
	services.ErrListingSold:             utils.CodeAlreadyDone,
	services.ErrDuplicateRequest:        utils.CodeDuplicate,
}

// respondError maps a service error onto the response envelope. Unknown
// errors are logged and reported as a bare 500.
func respondError(c *gin.Context, log *logger.Logger, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		details := map[string]string{}
		if verr.Field != "" {
			details[verr.Field] = verr.Message
		}
		utils.ErrorResponseWithDetails(c, http.StatusBadRequest, utils.CodeValidation, verr.Error(), details)
		return
	}

	for target, code := range specificCodes {
		if errors.Is(err, target) {
			utils.ErrorResponse(c, statusFor(err), code, err.Error())
			return
		}
	}

	switch {
	case errors.Is(err, services.ErrValidation):
		utils.ErrorResponse(c, http.StatusBadRequest, utils.CodeValidation, err.Error())
	case errors.Is(err, services.ErrForbidden):
		utils.ErrorResponse(c, http.StatusForbidden, utils.CodeForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		utils.ErrorResponse(c, http.StatusNotFound, utils.CodeNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		utils.ErrorResponse(c, http.StatusConflict, utils.CodeConflict, err.Error())
	case errors.Is(err, services.ErrUnavailable):
		utils.ErrorResponse(c, http.StatusServiceUnavailable, utils.CodeUnavailable, err.Error())
	default:
		log.WithContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).Error("Request failed")
		utils.InternalServerErrorResponse(c)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, services.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, services.ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusConflict
	}
}

// bindJSON decodes and validates the body, writing the error response
// itself when it returns false.
func bindJSON(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindJSON(dest); err != nil {
		utils.BadRequestResponse(c, "Invalid request body")
		return false
	}
	if verrs := validators.ValidateStruct(dest); len(verrs) > 0 {
		utils.ValidationErrorResponse(c, verrs.ToMap())
		return false
	}
	return true
}

func bindQuery(c *gin.Context, dest interface{}) bool {
	if err := c.ShouldBindQuery(dest); err != nil {
		utils.BadRequestResponse(c, "Invalid query parameters")
		return false
	}
	if verrs := validators.ValidateStruct(dest); len(verrs) > 0 {
		utils.ValidationErrorResponse(c, verrs.ToMap())
		return false
	}
	return true
}

func paramObjectID(c *gin.Context, name, resource string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+resource+" ID")
		return primitive.NilObjectID, false
	}
	return id, true
}
