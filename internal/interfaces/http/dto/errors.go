package dto

import "net/http"

// Transport error codes. Domain codes come from shared.DomainError and
// pass through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeCSRF            = "CSRF_INVALID"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodePayloadTooLarge = "PAYLOAD_TOO_LARGE"
	ErrCodeValidation      = "VALIDATION_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Resource errors
	"NOT_FOUND":       http.StatusNotFound,
	"USER_NOT_FOUND":  http.StatusNotFound,
	"ALREADY_EXISTS":  http.StatusConflict,
	"EMAIL_TAKEN":     http.StatusConflict,
	"CATEGORY_EXISTS": http.StatusConflict,

	// Auth errors
	"UNAUTHORIZED":        http.StatusUnauthorized,
	"INVALID_CREDENTIALS": http.StatusUnauthorized,
	"FORBIDDEN":           http.StatusForbidden,
	ErrCodeCSRF:           http.StatusForbidden,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:          http.StatusBadRequest,
	"INVALID_INPUT":            http.StatusBadRequest,
	ErrCodeValidation:          http.StatusBadRequest,
	"INVALID_EMAIL":            http.StatusBadRequest,
	"INVALID_PRICE":            http.StatusBadRequest,
	"INVALID_STATUS":           http.StatusBadRequest,
	"CREDENTIALS_REQUIRED":     http.StatusBadRequest,
	"CHECKOUT_FIELDS_REQUIRED": http.StatusBadRequest,
	"CATEGORY_NAME_REQUIRED":   http.StatusBadRequest,
	"CATEGORY_NAME_TOO_LONG":   http.StatusBadRequest,
	"PRODUCT_NAME_REQUIRED":    http.StatusBadRequest,
	"PRODUCT_NAME_TOO_LONG":    http.StatusBadRequest,
	"UNSUPPORTED_IMAGE":        http.StatusBadRequest,
	"TOKEN_EXPIRED":            http.StatusBadRequest,
	"TOKEN_INVALID":            http.StatusBadRequest,
	"TOKEN_USED":               http.StatusBadRequest,

	// Business rule errors -> 422 Unprocessable Entity
	"INVALID_STATE":     http.StatusUnprocessableEntity,
	"EMPTY_CART":        http.StatusUnprocessableEntity,
	"WEAK_PASSWORD":     http.StatusUnprocessableEntity,
	"PASSWORD_MISMATCH": http.StatusUnprocessableEntity,
	"WRONG_PASSWORD":    http.StatusUnprocessableEntity,

	"PAYMENTS_DISABLED":    http.StatusServiceUnavailable,
	ErrCodePayloadTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
