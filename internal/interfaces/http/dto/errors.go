package dto

import "net/http"

// Error codes returned in the error envelope. Domain error codes pass
// through unchanged; the transport adds a few of its own.

// General error codes
const (
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// Input error codes
const (
	// ErrCodeValidation is used when one or more fields are invalid
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeInvalidInput is used for malformed bodies and query strings
	ErrCodeInvalidInput = "INVALID_INPUT"
	// ErrCodeBadRequest is used for requests missing a required part
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeRequestTooLarge is used when the body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInvalidSignature is used when a webhook signature does not verify
	ErrCodeInvalidSignature = "INVALID_SIGNATURE"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when there is no valid session
	ErrCodeUnauthorized = "UNAUTHORIZED"
	// ErrCodeForbidden is used when the user lacks permission
	ErrCodeForbidden = "FORBIDDEN"
	// ErrCodeNoEnterprise is used when an enterprise resource is requested
	// by a profile that has not joined an enterprise
	ErrCodeNoEnterprise = "NO_ENTERPRISE"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found in scope
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeAlreadyExists is used when a unique value is taken
	ErrCodeAlreadyExists = "ALREADY_EXISTS"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "INVALID_STATE"
	// ErrCodeUnavailable is used when an optional integration is not configured
	ErrCodeUnavailable = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:       http.StatusBadRequest,
	ErrCodeInvalidInput:     http.StatusBadRequest,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInvalidSignature: http.StatusBadRequest,
	ErrCodeRequestTooLarge:  http.StatusRequestEntityTooLarge,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNoEnterprise: http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
