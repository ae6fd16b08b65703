// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package multipart

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource feeds a fixed chunk sequence, recording how many chunks
// were pulled.
type sliceSource struct {
	chunks   [][]byte
	received int
}

func (s *sliceSource) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.received >= len(s.chunks) {
		return nil, io.EOF
	}
	chunk := s.chunks[s.received]
	s.received++
	return chunk, nil
}

// split cuts body into chunks of at most size bytes.
func split(body []byte, size int) [][]byte {
	var chunks [][]byte
	for len(body) > 0 {
		n := min(size, len(body))
		chunks = append(chunks, body[:n])
		body = body[n:]
	}
	return chunks
}

type testPart struct {
	name      string
	filename  string
	mediaType string
	body      string
}

// buildBody assembles a well-formed multipart body for the given parts.
func buildBody(boundary string, parts []testPart) []byte {
	var b bytes.Buffer
	for _, p := range parts {
		fmt.Fprintf(&b, "--%s\r\n", boundary)
		fmt.Fprintf(&b, `Content-Disposition: form-data; name="%s"`, p.name)
		if p.filename != "" {
			fmt.Fprintf(&b, `; filename="%s"`, p.filename)
		}
		b.WriteString("\r\n")
		if p.mediaType != "" {
			fmt.Fprintf(&b, "Content-Type: %s\r\n", p.mediaType)
		}
		b.WriteString("\r\n")
		b.WriteString(p.body)
		b.WriteString("\r\n")
	}
	fmt.Fprintf(&b, "--%s--\r\n", boundary)
	return b.Bytes()
}

// decodeAll runs a full session and materializes every part.
func decodeAll(t *testing.T, contentType string, src ChunkSource) ([]testPart, error) {
	t.Helper()
	stream, err := NewStream(contentType, src)
	if err != nil {
		return nil, err
	}
	var parts []testPart
	for {
		part, err := stream.Next(context.Background())
		if err == io.EOF {
			return parts, nil
		}
		if err != nil {
			return parts, err
		}
		body, err := part.ReadAll(context.Background())
		if err != nil {
			return parts, err
		}
		parts = append(parts, testPart{
			name:      part.Name,
			filename:  part.Filename,
			mediaType: part.MediaType,
			body:      string(body),
		})
	}
}

func TestStreamDecodesThreeByteChunks(t *testing.T) {
	parts := []testPart{
		{name: "field", body: "hello"},
		{name: "upload", filename: "a.txt", body: "hello world"},
	}
	body := buildBody("abc123", parts)
	src := &sliceSource{chunks: split(body, 3)}

	got, err := decodeAll(t, `multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "field", got[0].name)
	assert.Empty(t, got[0].filename)
	assert.Equal(t, "hello", got[0].body)

	assert.Equal(t, "upload", got[1].name)
	assert.Equal(t, "a.txt", got[1].filename)
	assert.Equal(t, "hello world", got[1].body)
}

func TestStreamChunkSizeSweep(t *testing.T) {
	// Payload long enough that every chunk size forces boundary marker
	// splits at some offset, including inside "\r\n--boundary".
	payload := strings.Repeat("0123456789abcdef\r\n-", 40)
	parts := []testPart{
		{name: "note", body: "short value"},
		{name: "data", filename: "blob.bin", mediaType: "application/octet-stream", body: payload},
		{name: "trailer", body: "end"},
	}
	body := buildBody("frontier", parts)

	for size := 1; size <= len(body); size++ {
		src := &sliceSource{chunks: split(body, size)}
		got, err := decodeAll(t, `multipart/form-data; boundary=frontier`, src)
		require.NoError(t, err, "chunk size %d", size)
		if diff := cmp.Diff(parts, got, cmp.AllowUnexported(testPart{})); diff != "" {
			t.Fatalf("chunk size %d: decoded parts mismatch (-want +got):\n%s", size, diff)
		}
	}
}

func TestStreamPartCountAndOrder(t *testing.T) {
	var parts []testPart
	for i := 0; i < 7; i++ {
		parts = append(parts, testPart{
			name: fmt.Sprintf("field%d", i),
			body: strings.Repeat("x", i*17),
		})
	}
	body := buildBody("sep", parts)
	src := &sliceSource{chunks: split(body, 11)}

	got, err := decodeAll(t, `multipart/form-data; boundary=sep`, src)
	require.NoError(t, err)
	require.Len(t, got, len(parts))
	for i, p := range got {
		assert.Equal(t, parts[i].name, p.name)
		assert.Equal(t, parts[i].body, p.body)
	}
}

func TestStreamRejectsWrongContentType(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
	}{
		{"json", "application/json"},
		{"no boundary", "multipart/form-data"},
		{"empty", ""},
		{"octet stream", "application/octet-stream"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			src := &sliceSource{chunks: split([]byte("irrelevant"), 3)}
			_, err := NewStream(tc.contentType, src)
			require.ErrorIs(t, err, ErrContentType)
			assert.Zero(t, src.received, "no chunk may be consumed before validation")
		})
	}
}

func TestStreamTruncatedBody(t *testing.T) {
	body := buildBody("abc123", []testPart{{name: "f", body: "partial content here"}})
	// Drop the terminal boundary and part of the body.
	truncated := body[:len(body)-20]
	src := &sliceSource{chunks: split(truncated, 5)}

	_, err := decodeAll(t, `multipart/form-data; boundary=abc123`, src)
	require.ErrorIs(t, err, ErrIncompleteStream)
}

func TestStreamTruncatedHeaders(t *testing.T) {
	raw := []byte("--abc123\r\nContent-Disposition: form-data; nam")
	src := &sliceSource{chunks: split(raw, 4)}

	stream, err := NewStream(`multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)
	_, err = stream.Next(context.Background())
	require.ErrorIs(t, err, ErrIncompleteStream)
}

func TestStreamHeaderMissingName(t *testing.T) {
	raw := []byte("--abc123\r\nContent-Disposition: form-data; filename=\"a.txt\"\r\n\r\nx\r\n--abc123--\r\n")
	src := &sliceSource{chunks: [][]byte{raw}}

	stream, err := NewStream(`multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)
	_, err = stream.Next(context.Background())
	var perr *ProtocolError
	require.ErrorAs(t, err, &perr)
}

func TestStreamSecondPartBeforeDraining(t *testing.T) {
	body := buildBody("abc123", []testPart{
		{name: "a", body: "first"},
		{name: "b", body: "second"},
	})
	src := &sliceSource{chunks: split(body, 8)}

	stream, err := NewStream(`multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := stream.Next(ctx)
	require.NoError(t, err)

	_, err = stream.Next(ctx)
	require.ErrorIs(t, err, ErrPartActive)

	// Draining the active part unblocks the scan.
	_, err = first.ReadAll(ctx)
	require.NoError(t, err)
	second, err := stream.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", second.Name)
}

func TestStreamEmptyChunkClosesInput(t *testing.T) {
	body := buildBody("abc123", []testPart{{name: "f", body: "data"}})
	chunks := split(body[:len(body)-14], 6)
	chunks = append(chunks, []byte{})

	src := &sliceSource{chunks: chunks}
	_, err := decodeAll(t, `multipart/form-data; boundary=abc123`, src)
	require.ErrorIs(t, err, ErrIncompleteStream)
}

func TestStreamSourceErrorPropagates(t *testing.T) {
	errBroken := fmt.Errorf("connection reset")
	src := sourceFunc(func(ctx context.Context) ([]byte, error) {
		return nil, errBroken
	})

	stream, err := NewStream(`multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)
	_, err = stream.Next(context.Background())
	require.ErrorIs(t, err, errBroken)
}

type sourceFunc func(ctx context.Context) ([]byte, error)

func (f sourceFunc) Receive(ctx context.Context) ([]byte, error) { return f(ctx) }

func TestReaderSource(t *testing.T) {
	body := buildBody("abc123", []testPart{
		{name: "field", body: "hello"},
		{name: "upload", filename: "a.txt", body: "hello world"},
	})
	src := ReaderSource(bytes.NewReader(body), 7)

	got, err := decodeAll(t, `multipart/form-data; boundary=abc123`, src)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "hello world", got[1].body)
}
