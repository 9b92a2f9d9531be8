/*
Package errs provides the custom error type and application-level error codes
used by the HTTP surface. Protocol-level errors travel inside frames and never
use these codes.
*/
package errs

import (
	"fmt"
	"net/http"
)

// Application error codes. 1xxx covers request handling, 5xxx internal errors.
const (
	// ErrInvalidParams indicates that request parameter validation failed.
	ErrInvalidParams = 1001

	// ErrRateLimitExceeded indicates that the request rate exceeded the limit.
	ErrRateLimitExceeded = 1002

	// ErrUnknown represents an unclassified internal server error.
	ErrUnknown = 5000
)

// CustomError is the error structure used for HTTP-facing failures. It wraps
// the Go error interface with a business code and an HTTP status.
type CustomError struct {
	// Code is the business error code.
	Code int

	// Message is the client-friendly error description.
	Message string

	// Status is the HTTP status code corresponding to this error.
	Status int
}

// Error implements the standard error interface.
func (e CustomError) Error() string {
	return fmt.Sprintf("Error Code %d (HTTP %d): %s", e.Code, e.Status, e.Message)
}

// errorMap stores the template CustomError for every known code.
var errorMap = map[int]CustomError{
	ErrInvalidParams:     {Code: ErrInvalidParams, Message: "Invalid request parameters.", Status: http.StatusBadRequest},
	ErrRateLimitExceeded: {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrUnknown:           {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
}

// NewError constructs a *CustomError for a predefined code. Unknown codes fall
// back to ErrUnknown.
func NewError(code int) *CustomError {
	templateErr, ok := errorMap[code]
	if !ok {
		templateErr = errorMap[ErrUnknown]
	}
	return &templateErr
}
