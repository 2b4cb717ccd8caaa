package common

import (
	"errors"
	"fmt"
	"net/http"
)

// APIError is a well-formed remote response reporting a non-success
// application status. HTTPStatus is set for failures observed on the HTTP
// upload path and is zero otherwise.
type APIError struct {
	Code       int
	HTTPStatus int
	Msg        string
	Err        error
}

func (e *APIError) Error() string {
	s := fmt.Sprintf("agile status %d", e.Code)
	if e.HTTPStatus != 0 {
		s += fmt.Sprintf(", http status %d", e.HTTPStatus)
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *APIError) Unwrap() error { return e.Err }

// Is lets callers match well-known codes with errors.Is.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Code == CodeNotFound
	case ErrTokenExpired:
		return e.Code == CodeExpiredToken
	}
	return false
}

// NewAPIError builds an APIError with a formatted message.
func NewAPIError(code int, format string, args ...any) *APIError {
	return &APIError{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// TransportError reports a network level failure. StatusCode is zero when no
// response was received; Header holds the response headers otherwise.
type TransportError struct {
	StatusCode int
	Header     http.Header
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error: %v", e.Err)
	}
	if e.Err != nil {
		return fmt.Sprintf("transport error: http status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: http status %d", e.StatusCode)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Code returns the application status carried in the response headers.
func (e *TransportError) Code() int {
	if e.Header == nil {
		return CodeUnknownError
	}
	return ParseStatusHeader(e.Header)
}

// CodeOf extracts the application status from err, or CodeUnknownError if err
// does not carry one.
func CodeOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return CodeUnknownError
}
