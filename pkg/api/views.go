// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// HandlerFunc is a request handler that reports failures as error values
// instead of writing them itself; the server maps returned errors onto
// the failure envelope in one place.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// handle adapts a HandlerFunc into an http.Handler with centralized
// error rendering.
func handle(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := h(w, r); err != nil {
			WriteError(r, w, err)
		}
	})
}

// Validator lets request types verify themselves after decoding.
type Validator interface {
	Validate() *ValidationError
}

// ParseJSON decodes a JSON request body into dst and runs its validation
// when dst implements Validator. An empty body decodes to the zero
// value; a syntactically broken body is invalid_json, a body of the
// wrong shape is wrong_request_format.
func ParseJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return NewError(ErrInvalidJSON)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return NewError(ErrWrongRequestFormat)
		}
		return NewError(ErrInvalidJSON)
	}
	if v, ok := dst.(Validator); ok {
		if vErr := v.Validate(); vErr != nil {
			return vErr
		}
	}
	return nil
}
