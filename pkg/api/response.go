// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/updrift/updrift/pkg/logger"
	"github.com/updrift/updrift/pkg/utils"

	"github.com/getsentry/sentry-go"
)

// okBody is the success envelope shared by every endpoint.
type okBody struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
	Result  any    `json:"result"`
}

// failedBody is the failure envelope.
type failedBody struct {
	OK        bool   `json:"ok"`
	ErrorType string `json:"error_type"`
	Message   string `json:"message"`
}

// fieldError is one entry of a validation failure response.
type fieldError struct {
	ErrorType string `json:"error_type"`
	Field     string `json:"field"`
	Message   string `json:"message"`
}

type validationBody struct {
	OK     bool         `json:"ok"`
	Errors []fieldError `json:"errors"`
}

// ValidationError aggregates per-field validation failures. It maps to a
// dedicated envelope listing each offending field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "request validation failed"
}

// writeJSON encodes into a pooled buffer first so an encoding failure
// can never truncate a response mid-body.
func writeJSON(w http.ResponseWriter, status int, body any) {
	buf := utils.SyncPoolGetBuffer()
	defer utils.SyncPoolPutBuffer(buf)

	if err := json.NewEncoder(buf).Encode(body); err != nil {
		http.Error(w, "encoding failure", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

// OKResponse writes the success envelope around result.
func OKResponse(w http.ResponseWriter, result any, message string) {
	writeJSON(w, http.StatusOK, okBody{OK: true, Message: message, Result: result})
}

// WriteError maps err onto the taxonomy and writes the failure envelope.
// Validation errors get the per-field form; server faults are logged and
// reported to sentry, client faults only logged at debug.
func WriteError(r *http.Request, w http.ResponseWriter, err error) {
	var vErr *ValidationError
	if errors.As(err, &vErr) {
		body := validationBody{OK: false}
		for field, message := range vErr.Fields {
			body.Errors = append(body.Errors, fieldError{
				ErrorType: "validation_error",
				Field:     field,
				Message:   message,
			})
		}
		writeJSON(w, http.StatusBadRequest, body)
		return
	}

	resp := CodeFromError(err).APIError()
	message := resp.Message
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		message = apiErr.Message
	}

	if resp.HTTPStatusCode >= http.StatusInternalServerError {
		logger.Ctx(r.Context()).Error().Err(err).Msg("request failed")
		sentry.CaptureException(err)
	} else {
		logger.Ctx(r.Context()).Debug().Err(err).Str("error_type", resp.Type).Msg("request rejected")
	}

	writeJSON(w, resp.HTTPStatusCode, failedBody{
		OK:        false,
		ErrorType: resp.Type,
		Message:   message,
	})
}
