// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

// Package multipart implements an incremental multipart/form-data decoder.
//
// Unlike mime/multipart's ReadForm, nothing is ever spooled: the decoder
// consumes a body delivered as arbitrarily-sized chunks and reconstructs
// the sequence of parts while holding only a bounded window of unconsumed
// bytes, so an upload of any size streams through O(boundary) memory.
// Boundary markers and header blocks may be split across any number of
// incoming chunks.
//
// Usage:
//
//	stream, err := multipart.NewStream(r.Header.Get("Content-Type"),
//		multipart.ReaderSource(r.Body, 0))
//	for {
//		part, err := stream.Next(ctx)
//		if err == io.EOF {
//			break
//		}
//		// drain part before the next Stream.Next call
//	}
package multipart

import (
	"bytes"
	"context"
	"errors"
	"io"
	"mime"
)

const (
	formData   = "multipart/form-data"
	boundParam = "boundary"
)

var (
	crlf      = []byte("\r\n")
	headerEnd = []byte("\r\n\r\n")
	dashDash  = []byte("--")
)

// Stream is one decoding session over a single request body. It owns the
// reassembly buffer shared by all parts; parts hold only a cursor into it,
// which is why a part must be drained before the next one is requested.
type Stream struct {
	src ChunkSource

	// delim is "\r\n--" + boundary, the marker that terminates a part
	// body. The first boundary of the body and boundaries after a header
	// scan are matched without the leading CRLF (delim[2:]).
	delim []byte

	// pending holds bytes received but not yet attributed to any part.
	// Appended at the tail, consumed from the head; bytes leave the head
	// only once classified as boundary, header, or yielded content.
	pending []byte

	// closed is set once src reports end-of-input.
	closed bool

	active *Part
}

// NewStream validates the Content-Type header and prepares a decoding
// session. It fails with ErrContentType before any chunk is read if the
// media type is not multipart/form-data or the boundary parameter is
// missing.
func NewStream(contentType string, src ChunkSource) (*Stream, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || mediaType != formData {
		return nil, ErrContentType
	}
	boundary := params[boundParam]
	if boundary == "" {
		return nil, ErrContentType
	}
	delim := make([]byte, 0, 4+len(boundary))
	delim = append(delim, crlf...)
	delim = append(delim, dashDash...)
	delim = append(delim, boundary...)
	return &Stream{src: src, delim: delim}, nil
}

// Next locates the next part boundary, accumulates chunks until the part's
// full header block is buffered, and returns the parsed Part positioned at
// the start of its body. It returns io.EOF at the terminal boundary,
// ErrPartActive if the previous part is not drained, ErrIncompleteStream
// if input ends mid-headers, and *ProtocolError for unparsable headers.
func (s *Stream) Next(ctx context.Context) (*Part, error) {
	if s.active != nil && !s.active.finished {
		return nil, ErrPartActive
	}

	open := s.delim[2:] // "--boundary"
	terminal := make([]byte, 0, len(open)+2)
	terminal = append(terminal, open...)
	terminal = append(terminal, dashDash...)

	for {
		if i := bytes.Index(s.pending, open); i >= 0 {
			if bytes.Index(s.pending, terminal) == i {
				return nil, io.EOF
			}
			rest := s.pending[i+len(open):]
			if j := bytes.Index(rest, headerEnd); j >= 0 {
				part, err := s.newPart(rest[:j])
				if err != nil {
					return nil, err
				}
				// Drop the boundary and header bytes; pending
				// now starts at the part body.
				s.pending = rest[j+len(headerEnd):]
				s.active = part
				return part, nil
			}
		}
		if s.closed {
			return nil, ErrIncompleteStream
		}
		if err := s.fill(ctx); err != nil {
			return nil, err
		}
	}
}

func (s *Stream) newPart(header []byte) (*Part, error) {
	disp, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	return &Part{
		Name:      disp.name,
		Filename:  disp.filename,
		MediaType: disp.mediaType,
		stream:    s,
	}, nil
}

// fill pulls one chunk from the source and appends it to pending. An
// io.EOF or empty chunk marks the buffer closed; any other source error
// propagates unchanged.
func (s *Stream) fill(ctx context.Context) error {
	chunk, err := s.src.Receive(ctx)
	if err != nil {
		if errors.Is(err, io.EOF) {
			s.closed = true
			return nil
		}
		return err
	}
	if len(chunk) == 0 {
		s.closed = true
		return nil
	}
	s.pending = append(s.pending, chunk...)
	return nil
}
