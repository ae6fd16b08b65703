// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"context"
	"io"
)

// Part is one logical unit of a multipart body: a plain field (name and
// value) or an uploaded file (name, filename, media type, content). Its
// body is a lazy, finite, forward-only chunk sequence borrowed from the
// owning Stream's reassembly buffer; it must be drained before the next
// part is requested.
type Part struct {
	// Name is the field name from Content-Disposition. Always present.
	Name string

	// Filename is set for file parts only, already percent- and
	// charset-decoded.
	Filename string

	// MediaType is the part's own Content-Type value, if it sent one.
	MediaType string

	stream *Stream

	// last holds surplus bytes from a bounded Read, re-yielded before
	// the buffer is scanned again. At most one decoder step's output.
	last []byte

	size     int64
	finished bool
}

// IsFile reports whether the part carries an uploaded file rather than a
// plain form value.
func (p *Part) IsFile() bool {
	return p.Filename != ""
}

// Size returns the number of body bytes produced so far.
func (p *Part) Size() int64 {
	return p.size
}

// Next produces the next chunk of the part body, pulling from the chunk
// source as needed. It never emits boundary bytes as content: when no
// boundary is visible in the buffer, the trailing window of boundary
// length is withheld, since it may be the head of a boundary split across
// chunks. Returns io.EOF once the closing boundary is reached, and
// ErrIncompleteStream if input ends first.
func (p *Part) Next(ctx context.Context) ([]byte, error) {
	s := p.stream
	for {
		if len(p.last) > 0 {
			chunk := p.last
			p.last = nil
			return chunk, nil
		}
		if p.finished {
			return nil, io.EOF
		}

		if i := bytes.Index(s.pending, p.stream.delim); i >= 0 {
			// Boundary located: everything before it is content.
			// The boundary bytes stay in pending for the next
			// header scan.
			chunk := s.pending[:i:i]
			s.pending = s.pending[i:]
			p.finished = true
			if len(chunk) == 0 {
				return nil, io.EOF
			}
			p.size += int64(len(chunk))
			return chunk, nil
		}

		if s.closed {
			return nil, ErrIncompleteStream
		}

		// No boundary in sight. The final delim-length bytes could be
		// the head of a split boundary, so only bytes before that
		// window may be emitted.
		if n := len(s.pending) - len(s.delim); n > 0 {
			chunk := s.pending[:n:n]
			s.pending = s.pending[n:]
			p.size += int64(len(chunk))
			return chunk, nil
		}

		if err := s.fill(ctx); err != nil {
			return nil, err
		}
	}
}

// Read collects up to size bytes from the body, retaining any surplus
// beyond size for the next call. A drained part returns io.EOF. A
// non-positive size is a caller error (ErrReadSize), not a stream
// condition.
func (p *Part) Read(ctx context.Context, size int) ([]byte, error) {
	if size <= 0 {
		return nil, ErrReadSize
	}
	var read []byte
	for len(read) < size {
		chunk, err := p.Next(ctx)
		if err == io.EOF {
			if len(read) == 0 {
				return nil, io.EOF
			}
			return read, nil
		}
		if err != nil {
			return nil, err
		}
		read = append(read, chunk...)
	}
	p.last = read[size:]
	return read[:size], nil
}

// ReadAll drains the remaining body into memory. Intended for plain form
// fields; file parts should be streamed with Next or WriteTo instead.
func (p *Part) ReadAll(ctx context.Context) ([]byte, error) {
	var body []byte
	for {
		chunk, err := p.Next(ctx)
		if err == io.EOF {
			return body, nil
		}
		if err != nil {
			return nil, err
		}
		body = append(body, chunk...)
	}
}

// WriteTo streams the remaining body into w, returning the byte count.
func (p *Part) WriteTo(ctx context.Context, w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := p.Next(ctx)
		if err == io.EOF {
			return written, nil
		}
		if err != nil {
			return written, err
		}
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, err
		}
	}
}
