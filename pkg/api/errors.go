// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"net/http"

	"github.com/updrift/updrift/pkg/multipart"
	"github.com/updrift/updrift/pkg/storage"
)

// APIError is the user-visible form of a failed request: a stable error
// type string, a message, and the HTTP status it maps to.
type APIError struct {
	Type           string
	Message        string
	HTTPStatusCode int
}

// ErrorCode is an enumeration of API failure conditions.
type ErrorCode int

const (
	ErrNone ErrorCode = iota

	// Generic server failure; details stay in logs.
	ErrInternal

	// JSON body errors
	ErrInvalidJSON
	ErrWrongRequestFormat

	// Upload errors
	ErrNotMultipart
	ErrIncompleteUpload
	ErrMalformedPart
	ErrFieldTooLarge
	ErrInvalidFilename
	ErrInsufficientStorage

	// Request errors
	ErrUnauthorized
	ErrTooManyRequests
	ErrMethodNotAllowed
)

var errorCodeResponse = map[ErrorCode]APIError{
	ErrInternal: {
		Type:           "api_error",
		Message:        "A server error occurred.",
		HTTPStatusCode: http.StatusInternalServerError,
	},
	ErrInvalidJSON: {
		Type:           "invalid_json",
		Message:        "Request body is not valid json data.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrWrongRequestFormat: {
		Type:           "wrong_request_format",
		Message:        "Request body format wrong.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrNotMultipart: {
		Type:           "not_multipart",
		Message:        "Request body must be multipart/form-data with a boundary.",
		HTTPStatusCode: http.StatusUnsupportedMediaType,
	},
	ErrIncompleteUpload: {
		Type:           "incomplete_upload",
		Message:        "Upload body ended before it was complete.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrMalformedPart: {
		Type:           "malformed_part",
		Message:        "A multipart section could not be parsed.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrFieldTooLarge: {
		Type:           "field_too_large",
		Message:        "A form field exceeds the configured size limit.",
		HTTPStatusCode: http.StatusRequestEntityTooLarge,
	},
	ErrInvalidFilename: {
		Type:           "invalid_filename",
		Message:        "Uploaded filename is empty or contains path separators.",
		HTTPStatusCode: http.StatusBadRequest,
	},
	ErrInsufficientStorage: {
		Type:           "insufficient_storage",
		Message:        "Not enough disk space to accept the upload.",
		HTTPStatusCode: http.StatusInsufficientStorage,
	},
	ErrUnauthorized: {
		Type:           "unauthorized",
		Message:        "Missing or invalid authenticated user.",
		HTTPStatusCode: http.StatusUnauthorized,
	},
	ErrTooManyRequests: {
		Type:           "too_many_requests",
		Message:        "Upload rate limit exceeded.",
		HTTPStatusCode: http.StatusTooManyRequests,
	},
	ErrMethodNotAllowed: {
		Type:           "method_not_allowed",
		Message:        "Method not allowed.",
		HTTPStatusCode: http.StatusMethodNotAllowed,
	},
}

// APIError returns the response definition for the code. Unknown codes
// degrade to the generic server error.
func (c ErrorCode) APIError() APIError {
	if resp, ok := errorCodeResponse[c]; ok {
		return resp
	}
	return errorCodeResponse[ErrInternal]
}

// Error attaches an ErrorCode to the Go error chain so handlers can
// return plain errors and have them mapped at the edge.
type Error struct {
	Code ErrorCode

	// Message overrides the default description when non-empty.
	Message string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Code.APIError().Message
}

// NewError wraps an ErrorCode as an error value.
func NewError(code ErrorCode) *Error {
	return &Error{Code: code}
}

// CodeFromError maps any error produced by the upload path onto the
// taxonomy. Decoder and storage errors carry their own sentinel types;
// everything unrecognized is an internal error.
func CodeFromError(err error) ErrorCode {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	var protoErr *multipart.ProtocolError
	if errors.As(err, &protoErr) {
		return ErrMalformedPart
	}
	switch {
	case errors.Is(err, multipart.ErrContentType):
		return ErrNotMultipart
	case errors.Is(err, multipart.ErrIncompleteStream):
		return ErrIncompleteUpload
	case errors.Is(err, storage.ErrInvalidFilename):
		return ErrInvalidFilename
	case errors.Is(err, storage.ErrDiskFull):
		return ErrInsufficientStorage
	}
	return ErrInternal
}
