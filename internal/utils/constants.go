package utils

import "time"

const (
	AppName = "CampusRide"

	// Pagination
	DefaultPageSize = 20
	MaxPageSize     = 100
	MinPageSize     = 1

	// Search
	MaxSearchScan = 500

	// Marketplace
	MaxImageSize          = 10 * 1024 * 1024
	MaxListingImages      = 8
	MaxListingTitleLength = 120
	MarketplaceKeyPrefix  = "marketplace"

	// Rides
	BookingLockTTL = 10 * time.Minute
)

// HTTP Status Messages
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Error codes carried in the response envelope.
const (
	CodeValidation      = "VALIDATION_ERROR"
	CodeBadRequest      = "BAD_REQUEST"
	CodeUnauthorized    = "UNAUTHORIZED"
	CodeForbidden       = "FORBIDDEN"
	CodeNotFound        = "NOT_FOUND"
	CodeConflict        = "CONFLICT"
	CodeNotEnoughSeats  = "NOT_ENOUGH_SEATS"
	CodeOwnRide         = "OWN_RIDE"
	CodeRideNotBookable = "RIDE_NOT_BOOKABLE"
	CodeAlreadyDone     = "ALREADY_DONE"
	CodeDuplicate       = "DUPLICATE_REQUEST"
	CodeRateLimited     = "RATE_LIMITED"
	CodeUnavailable     = "SERVICE_UNAVAILABLE"
	CodeInternal        = "INTERNAL_ERROR"
)

// Error Messages
const (
	ErrInternalServer   = "internal server error"
	ErrValidationFailed = "validation failed"
	ErrFileUploadFailed = "file upload failed"
	ErrTooManyRequests  = "too many requests"
)

// Cache Keys
const (
	CacheRidePrefix        = "ride:"
	CacheIdempotencyPrefix = "idem:"
	CacheGeoPrefix         = "geo:"
	CacheRateLimitPrefix   = "rate_limit:"
)

var AllowedImageTypes = []string{"jpg", "jpeg", "png", "gif"}
