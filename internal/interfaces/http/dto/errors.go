package dto

import (
	"net/http"
	"strings"
)

// API error codes. Format: ERR_<DESCRIPTION>
const (
	ErrCodeInternal            = "ERR_INTERNAL"
	ErrCodeValidation          = "ERR_VALIDATION"
	ErrCodeBadRequest          = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput        = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON         = "ERR_INVALID_JSON"
	ErrCodeUnauthorized        = "ERR_UNAUTHORIZED"
	ErrCodeForbidden           = "ERR_FORBIDDEN"
	ErrCodeTokenExpired        = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid        = "ERR_TOKEN_INVALID"
	ErrCodeTokenRevoked        = "ERR_TOKEN_REVOKED"
	ErrCodeNotFound            = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConflict            = "ERR_CONFLICT"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock   = "ERR_INSUFFICIENT_STOCK"
	ErrCodeNotVisible          = "ERR_NOT_VISIBLE"
	ErrCodePaymentUnsupported  = "ERR_PAYMENT_METHOD_UNSUPPORTED"
	ErrCodePaymentDisabled     = "ERR_PAYMENT_METHOD_DISABLED"
	ErrCodeGateway             = "ERR_GATEWAY_ERROR"
	ErrCodeRateLimited         = "ERR_RATE_LIMITED"
	ErrCodePayloadTooLarge     = "ERR_PAYLOAD_TOO_LARGE"
	ErrCodeInvalidSignature    = "ERR_INVALID_SIGNATURE"
	ErrCodeUnavailable         = "ERR_SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:            http.StatusInternalServerError,
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeInvalidInput:        http.StatusBadRequest,
	ErrCodeInvalidJSON:         http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeTokenInvalid:        http.StatusUnauthorized,
	ErrCodeTokenRevoked:        http.StatusUnauthorized,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:   http.StatusUnprocessableEntity,
	ErrCodeNotVisible:          http.StatusNotFound,
	ErrCodePaymentUnsupported:  http.StatusBadRequest,
	ErrCodePaymentDisabled:     http.StatusBadRequest,
	ErrCodeGateway:             http.StatusBadGateway,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodePayloadTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeInvalidSignature:    http.StatusUnauthorized,
	ErrCodeUnavailable:         http.StatusServiceUnavailable,
	"ERR_INVALID_CREDENTIALS":  http.StatusUnauthorized,
	"ERR_ACCOUNT_LOCKED":       http.StatusForbidden,
	"ERR_ACCOUNT_INACTIVE":     http.StatusForbidden,
	"ERR_EMAIL_TAKEN":          http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status for an API error code. Codes
// outside the table fall back on their naming convention: *_NOT_FOUND is
// 404, INVALID_* is 400 and any other business rule is 422.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	name := strings.TrimPrefix(code, "ERR_")
	switch {
	case strings.HasSuffix(name, "NOT_FOUND"):
		return http.StatusNotFound
	case strings.HasPrefix(name, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(name, "ALREADY_"):
		return http.StatusConflict
	case name == "" || name == "UNKNOWN":
		return http.StatusInternalServerError
	default:
		return http.StatusUnprocessableEntity
	}
}

// NormalizeErrorCode turns a domain error code such as NOT_FOUND into the
// API form ERR_NOT_FOUND
func NormalizeErrorCode(code string) string {
	switch {
	case code == "":
		return ErrCodeInternal
	case strings.HasPrefix(code, "ERR_"):
		return code
	case code == "CONCURRENT_MODIFICATION" || code == "OPTIMISTIC_LOCK_ERROR":
		return ErrCodeConcurrencyConflict
	case code == "TOKEN_INVALID":
		return ErrCodeTokenInvalid
	case code == "INTERNAL_ERROR":
		return ErrCodeInternal
	case code == "VALIDATION_ERROR" || code == "VALIDATION_ERRORS":
		return ErrCodeValidation
	default:
		return "ERR_" + code
	}
}
