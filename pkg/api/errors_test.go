// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/updrift/updrift/pkg/multipart"
	"github.com/updrift/updrift/pkg/storage"

	"github.com/stretchr/testify/assert"
)

func TestCodeFromError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{"content type", multipart.ErrContentType, ErrNotMultipart},
		{"incomplete stream", multipart.ErrIncompleteStream, ErrIncompleteUpload},
		{"protocol", &multipart.ProtocolError{Reason: "bad header"}, ErrMalformedPart},
		{"invalid filename", storage.ErrInvalidFilename, ErrInvalidFilename},
		{"disk full", storage.ErrDiskFull, ErrInsufficientStorage},
		{"api error passthrough", NewError(ErrFieldTooLarge), ErrFieldTooLarge},
		{"wrapped decoder error", fmt.Errorf("scan next part: %w", multipart.ErrIncompleteStream), ErrIncompleteUpload},
		{"wrapped protocol error", fmt.Errorf("scan: %w", &multipart.ProtocolError{Reason: "x"}), ErrMalformedPart},
		{"unknown", errors.New("boom"), ErrInternal},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CodeFromError(tc.err))
		})
	}
}

func TestErrorCodeResponses(t *testing.T) {
	tests := []struct {
		code       ErrorCode
		wantType   string
		wantStatus int
	}{
		{ErrInternal, "api_error", http.StatusInternalServerError},
		{ErrInvalidJSON, "invalid_json", http.StatusBadRequest},
		{ErrNotMultipart, "not_multipart", http.StatusUnsupportedMediaType},
		{ErrIncompleteUpload, "incomplete_upload", http.StatusBadRequest},
		{ErrFieldTooLarge, "field_too_large", http.StatusRequestEntityTooLarge},
		{ErrInsufficientStorage, "insufficient_storage", http.StatusInsufficientStorage},
		{ErrTooManyRequests, "too_many_requests", http.StatusTooManyRequests},
	}

	for _, tc := range tests {
		t.Run(tc.wantType, func(t *testing.T) {
			resp := tc.code.APIError()
			assert.Equal(t, tc.wantType, resp.Type)
			assert.Equal(t, tc.wantStatus, resp.HTTPStatusCode)
			assert.NotEmpty(t, resp.Message)
		})
	}

	t.Run("unknown code degrades to api_error", func(t *testing.T) {
		resp := ErrorCode(9999).APIError()
		assert.Equal(t, "api_error", resp.Type)
	})

	t.Run("every code has a response", func(t *testing.T) {
		for code := ErrInternal; code <= ErrMethodNotAllowed; code++ {
			resp, ok := errorCodeResponse[code]
			assert.True(t, ok, "code %d missing from response table", code)
			assert.NotEmpty(t, resp.Type)
		}
	})
}
