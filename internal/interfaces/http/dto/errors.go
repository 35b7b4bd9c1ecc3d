package dto

import (
	"net/http"

	"github.com/ecommerce/backend/internal/domain/shared"
)

// Error codes returned in the response envelope. Domain codes are passed
// through unchanged; the rest are produced by the HTTP layer itself.
const (
	ErrCodeValidation    = shared.CodeValidation
	ErrCodeNotFound      = shared.CodeNotFound
	ErrCodeInvalidToken  = shared.CodeInvalidToken
	ErrCodeStore         = shared.CodeStore
	ErrCodeUnauthorized  = shared.CodeUnauthorized
	ErrCodeAlreadyExists = shared.CodeAlreadyExists

	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeRateLimited     = "RATE_LIMITED"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeTimeout         = "REQUEST_TIMEOUT"
	ErrCodeDuplicate       = "DUPLICATE_REQUEST"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeInvalidToken:  http.StatusBadRequest,
	ErrCodeStore:         http.StatusInternalServerError,
	ErrCodeUnauthorized:  http.StatusUnauthorized,
	ErrCodeAlreadyExists: http.StatusConflict,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeForbidden:       http.StatusForbidden,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeDuplicate:       http.StatusConflict,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeTimeout:         http.StatusGatewayTimeout,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
