// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import "errors"

var (
	// ErrContentType is returned when the request Content-Type is not
	// multipart/form-data or is missing the boundary parameter. It is
	// raised before any chunk is read from the source.
	ErrContentType = errors.New("content type must be multipart/form-data with a boundary parameter")

	// ErrIncompleteStream is returned when the chunk source reports
	// end-of-input before a required boundary, header block, or body
	// terminator was found. The upload was truncated mid-stream.
	ErrIncompleteStream = errors.New("incomplete multipart stream")

	// ErrPartActive is returned by Stream.Next when the previous part
	// has not been drained. Parts share a single reassembly buffer, so
	// at most one may be active at a time.
	ErrPartActive = errors.New("previous part not fully drained")

	// ErrReadSize is returned by Part.Read for a non-positive size.
	// This is a programming error on the caller's side, not a protocol
	// condition.
	ErrReadSize = errors.New("read size must be positive")
)

// ProtocolError reports a structurally invalid part: a header block that
// could not be parsed, or one lacking the required field name.
type ProtocolError struct {
	Reason string
}

func (e *ProtocolError) Error() string {
	return "multipart protocol error: " + e.Reason
}
