package models

import (
	"errors"
	"fmt"
)

// Error codes carried in responses and telemetry.
const (
	ErrCodeAPIKeyMissing      = "API_KEY_MISSING"
	ErrCodeAPIKeyInvalid      = "API_KEY_INVALID"
	ErrCodeInvalidSport       = "INVALID_SPORT"
	ErrCodeInvalidMarket      = "INVALID_MARKET"
	ErrCodeInvalidDate        = "INVALID_DATE"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeNoDataAvailable    = "NO_DATA_AVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeQuotaExceeded      = "QUOTA_EXCEEDED"
	ErrCodeAPIUnavailable     = "API_UNAVAILABLE"
	ErrCodeAPITimeout         = "API_TIMEOUT"
	ErrCodeAPIError           = "API_ERROR"
	ErrCodeInternal           = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	ErrCodeBestBetsFailed     = "BEST_BETS_FAILED"
)

// CodedError is the error shape every provider client and handler speaks.
// Code is one of the ErrCode constants; Provider and Field are optional.
type CodedError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Provider   string `json:"provider,omitempty"`
	Field      string `json:"field,omitempty"`
	HTTPStatus int    `json:"http_status,omitempty"`
	Temporary  bool   `json:"temporary"`
	Cause      error  `json:"-"`
}

func (e *CodedError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Provider, e.Message, e.Code)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// NewCodedError builds a CodedError with formatted message.
func NewCodedError(code, format string, args ...interface{}) *CodedError {
	return &CodedError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ProviderError wraps a transport failure from a named provider.
func ProviderError(provider, code string, cause error) *CodedError {
	msg := code
	if cause != nil {
		msg = cause.Error()
	}
	return &CodedError{
		Code:      code,
		Message:   msg,
		Provider:  provider,
		Temporary: code == ErrCodeAPITimeout || code == ErrCodeRateLimited || code == ErrCodeAPIUnavailable,
		Cause:     cause,
	}
}

// CodeOf extracts the error code from err, or INTERNAL_ERROR when err carries
// no CodedError in its chain.
func CodeOf(err error) string {
	var ce *CodedError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}
