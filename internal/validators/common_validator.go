package validators

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"campusride/internal/models"

	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var validate *validator.Validate

var (
	phoneRegex = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)
	plateRegex = regexp.MustCompile(`^[A-Z0-9\-\s]{2,10}$`)
	htmlRegex  = regexp.MustCompile(`<[^>]*>`)
)

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	validate.RegisterValidation("object_id", validateObjectID)
	validate.RegisterValidation("phone_number", validatePhoneNumber)
	validate.RegisterValidation("license_plate", validateLicensePlate)
	validate.RegisterValidation("rfc3339", validateRFC3339)
	validate.RegisterValidation("ride_status", validateRideStatus)
	validate.RegisterValidation("listing_condition", validateListingCondition)
	validate.RegisterValidation("chat_type", validateChatType)
}

// ValidationError represents a field validation error
type ValidationError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	var messages []string
	for _, err := range v {
		messages = append(messages, fmt.Sprintf("%s: %s", err.Field, err.Message))
	}
	return strings.Join(messages, "; ")
}

// ToMap is the shape the response envelope carries in error.details.
func (v ValidationErrors) ToMap() map[string]string {
	out := make(map[string]string, len(v))
	for _, err := range v {
		out[err.Field] = err.Message
	}
	return out
}

// ValidateStruct validates a struct and returns detailed errors
func ValidateStruct(s interface{}) ValidationErrors {
	var validationErrors ValidationErrors

	err := validate.Struct(s)
	if err != nil {
		fieldErrors, ok := err.(validator.ValidationErrors)
		if !ok {
			return ValidationErrors{{Field: "body", Tag: "invalid", Message: err.Error()}}
		}
		for _, err := range fieldErrors {
			validationErrors = append(validationErrors, ValidationError{
				Field:   jsonFieldName(err),
				Tag:     err.Tag(),
				Value:   fmt.Sprintf("%v", err.Value()),
				Message: getErrorMessage(err),
			})
		}
	}

	return validationErrors
}

// jsonFieldName drops the struct name from the namespace, leaving the json
// path, e.g. pickup.address.
func jsonFieldName(err validator.FieldError) string {
	ns := err.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return err.Field()
}

func getErrorMessage(err validator.FieldError) string {
	field := jsonFieldName(err)
	switch err.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "Invalid email format"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", field, err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, err.Param())
	case "object_id":
		return "Invalid ID format"
	case "phone_number":
		return "Invalid phone number format"
	case "license_plate":
		return "Invalid license plate format"
	case "rfc3339":
		return fmt.Sprintf("%s must be an RFC3339 timestamp", field)
	case "ride_status":
		return "Unknown ride status"
	case "listing_condition":
		return "Unknown item condition"
	case "chat_type":
		return "Unknown chat type"
	default:
		return fmt.Sprintf("Validation failed for %s", field)
	}
}

func validateObjectID(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // Let required tag handle empty values
	}
	return IsValidObjectID(value)
}

func validatePhoneNumber(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if phone == "" {
		return true
	}
	// E.164
	return phoneRegex.MatchString(phone)
}

func validateLicensePlate(fl validator.FieldLevel) bool {
	plate := fl.Field().String()
	if plate == "" {
		return true
	}
	return plateRegex.MatchString(strings.ToUpper(plate))
}

func validateRFC3339(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, err := time.Parse(time.RFC3339, value)
	return err == nil
}

func validateRideStatus(fl validator.FieldLevel) bool {
	return models.RideStatus(fl.Field().String()).Valid()
}

func validateListingCondition(fl validator.FieldLevel) bool {
	return models.ListingCondition(fl.Field().String()).Valid()
}

func validateChatType(fl validator.FieldLevel) bool {
	return models.ChatType(fl.Field().String()).Valid()
}

func IsValidObjectID(id string) bool {
	_, err := primitive.ObjectIDFromHex(id)
	return err == nil
}

func SanitizeInput(input string) string {
	return strings.TrimSpace(htmlRegex.ReplaceAllString(input, ""))
}

// optionalObjectID parses a hex id, treating "" as absent.
func optionalObjectID(hex string) *primitive.ObjectID {
	if hex == "" {
		return nil
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return nil
	}
	return &id
}
