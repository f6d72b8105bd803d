package dto

import "net/http"

// API error codes returned in the response envelope
const (
	// Generic
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeNotFound     = "ERR_NOT_FOUND"
	ErrCodeConflict     = "ERR_CONFLICT"
	ErrCodeInternal     = "ERR_INTERNAL"
	ErrCodeUnavailable  = "ERR_UNAVAILABLE"
	ErrCodeRateLimited  = "ERR_RATE_LIMITED"

	// Resource lifecycle
	ErrCodeAlreadyExists       = "ERR_ALREADY_EXISTS"
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
	ErrCodeInvalidState        = "ERR_INVALID_STATE"

	// Fulfillment
	ErrCodeInvalidProducts    = "ERR_INVALID_PRODUCTS"
	ErrCodeInsufficientStock  = "ERR_INSUFFICIENT_STOCK"
	ErrCodeDuplicateReference = "ERR_DUPLICATE_REFERENCE"
	ErrCodeStockInUse         = "ERR_STOCK_IN_USE"
)

// ErrorCodeHTTPStatus maps API error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeNotFound:     http.StatusNotFound,
	ErrCodeConflict:     http.StatusConflict,
	ErrCodeInternal:     http.StatusInternalServerError,
	ErrCodeUnavailable:  http.StatusServiceUnavailable,
	ErrCodeRateLimited:  http.StatusTooManyRequests,

	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,

	ErrCodeInvalidProducts:    http.StatusBadRequest,
	ErrCodeInsufficientStock:  http.StatusUnprocessableEntity,
	ErrCodeDuplicateReference: http.StatusConflict,
	ErrCodeStockInUse:         http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status for an API error code.
// Unknown codes map to 500 so that unmapped failures surface loudly.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping translates domain error codes to API error codes.
// Domain codes not listed here are treated as input validation failures.
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ITEM_NOT_FOUND":       ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT": ErrCodeConcurrencyConflict,
	"UNAUTHORIZED":         ErrCodeUnauthorized,
	"INVALID_STATE":        ErrCodeInvalidState,
	"INVALID_PRODUCTS":     ErrCodeInvalidProducts,
	"INSUFFICIENT_STOCK":   ErrCodeInsufficientStock,
	"DUPLICATE_REFERENCE":  ErrCodeDuplicateReference,
	"STOCK_IN_USE":         ErrCodeStockInUse,
}

// NormalizeErrorCode converts a domain error code into its API error code.
// Validation-style domain codes (INVALID_QUANTITY, NO_ITEMS, ...) all fall
// back to ERR_BAD_REQUEST.
func NormalizeErrorCode(domainCode string) string {
	if apiCode, ok := DomainErrorCodeMapping[domainCode]; ok {
		return apiCode
	}
	return ErrCodeBadRequest
}
