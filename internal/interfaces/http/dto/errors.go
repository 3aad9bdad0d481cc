package dto

import "net/http"

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeValidation = "VALIDATION_ERROR"
)

// errorCodeHTTPStatus maps domain error codes to HTTP status codes. Codes
// missing from the map are treated as business rule violations (422).
var errorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:   http.StatusInternalServerError,
	ErrCodeBadRequest: http.StatusBadRequest,
	ErrCodeValidation: http.StatusBadRequest,

	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,

	"CONCURRENCY_CONFLICT": http.StatusConflict,

	"INVALID_INPUT":            http.StatusBadRequest,
	"INVALID_AMOUNT":           http.StatusBadRequest,
	"INVALID_CURRENCY":         http.StatusBadRequest,
	"INVALID_CONTRACT":         http.StatusBadRequest,
	"INVALID_CONTRACT_NUMBER":  http.StatusBadRequest,
	"INVALID_PERIOD":           http.StatusBadRequest,
	"INVALID_DUE_DAY":          http.StatusBadRequest,
	"INVALID_UTILITY_TYPE":     http.StatusBadRequest,
	"INVALID_ACCOUNT":          http.StatusBadRequest,
	"INVALID_ACCOUNT_NAME":     http.StatusBadRequest,
	"INVALID_ACCOUNT_TYPE":     http.StatusBadRequest,
	"INVALID_TRANSACTION_TYPE": http.StatusBadRequest,
	"INVALID_TRANSFER":         http.StatusBadRequest,

	"INVALID_STATE":          http.StatusUnprocessableEntity,
	"INSUFFICIENT_FUNDS":     http.StatusUnprocessableEntity,
	"CURRENCY_MISMATCH":      http.StatusUnprocessableEntity,
	"ALREADY_REVERSED":       http.StatusUnprocessableEntity,
	"INACTIVE_ACCOUNT":       http.StatusUnprocessableEntity,
	"AMOUNT_EXCEEDS_BALANCE": http.StatusUnprocessableEntity,
	"INTEGRITY_VIOLATION":    http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := errorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusUnprocessableEntity
}
