// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"context"
	"io"
)

// ChunkSource yields the raw byte chunks of a request body in wire order.
// Receive returns the next chunk, or io.EOF once the input is exhausted.
// An empty chunk with a nil error is also treated as end-of-input.
//
// Transport errors are fatal and propagate unchanged; the decoder never
// retries a Receive.
type ChunkSource interface {
	Receive(ctx context.Context) ([]byte, error)
}

// readerSource adapts an io.Reader (typically an http.Request body) into
// a ChunkSource. The returned chunk aliases an internal buffer and is
// only valid until the next Receive call; Stream copies it into its
// reassembly buffer immediately.
type readerSource struct {
	r   io.Reader
	buf []byte
}

// DefaultChunkSize is the read size used by ReaderSource when size <= 0.
const DefaultChunkSize = 64 * 1024

// ReaderSource wraps r in a ChunkSource reading up to size bytes at a time.
func ReaderSource(r io.Reader, size int) ChunkSource {
	if size <= 0 {
		size = DefaultChunkSize
	}
	return &readerSource{r: r, buf: make([]byte, size)}
}

func (s *readerSource) Receive(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := s.r.Read(s.buf)
		if n > 0 {
			// Defer a trailing io.EOF to the next call so data
			// and end-of-input are never reported together.
			return s.buf[:n], nil
		}
		if err != nil {
			return nil, err
		}
	}
}
