// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"fmt"
	"io"
	"net/http"

	"github.com/updrift/updrift/pkg/logger"
	"github.com/updrift/updrift/pkg/multipart"

	"github.com/dustin/go-humanize"
)

// StoredFile describes one uploaded file after it reached the media
// store.
type StoredFile struct {
	Field     string `json:"field"`
	Filename  string `json:"filename"`
	MediaType string `json:"media_type,omitempty"`
	Size      int64  `json:"size"`
	SHA256    string `json:"sha256"`
}

// UploadResult is the success payload of POST /v1/upload.
type UploadResult struct {
	Bucket string            `json:"bucket"`
	Files  []StoredFile      `json:"files"`
	Fields map[string]string `json:"fields"`
}

// Upload streams a multipart/form-data body: file parts are written to a
// fresh bucket in the media store as their bytes arrive, plain fields
// are collected in memory up to the configured cap. The body is never
// buffered whole.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) error {
	if r.Method != http.MethodPost {
		return NewError(ErrMethodNotAllowed)
	}

	ctx := r.Context()
	stream, err := multipart.NewStream(
		r.Header.Get("Content-Type"),
		multipart.ReaderSource(r.Body, s.cfg.ChunkSize),
	)
	if err != nil {
		return s.rejected(err)
	}

	bucket, err := s.store.NewBucket()
	if err != nil {
		return s.rejected(err)
	}

	result := UploadResult{
		Bucket: bucket,
		Files:  []StoredFile{},
		Fields: make(map[string]string),
	}

	for {
		part, err := stream.Next(ctx)
		if err == io.EOF {
			break
		}
		if err != nil {
			return s.rejected(fmt.Errorf("scan next part: %w", err))
		}

		if part.IsFile() {
			stored, err := s.storeFile(r, bucket, part)
			if err != nil {
				return s.rejected(err)
			}
			result.Files = append(result.Files, stored)
			continue
		}

		value, err := part.Read(ctx, int(s.cfg.MaxFieldBytes)+1)
		if err != nil && err != io.EOF {
			return s.rejected(fmt.Errorf("read field %q: %w", part.Name, err))
		}
		if int64(len(value)) > s.cfg.MaxFieldBytes {
			return s.rejected(NewError(ErrFieldTooLarge))
		}
		result.Fields[part.Name] = string(value)
		uploadFieldsTotal.Inc()
	}

	OKResponse(w, result, "")
	return nil
}

func (s *Server) storeFile(r *http.Request, bucket string, part *multipart.Part) (StoredFile, error) {
	sink, err := s.store.Create(bucket, part.Filename)
	if err != nil {
		return StoredFile{}, fmt.Errorf("open sink for %q: %w", part.Filename, err)
	}

	size, err := part.WriteTo(r.Context(), sink)
	if err != nil {
		sink.Close()
		return StoredFile{}, fmt.Errorf("stream %q: %w", part.Filename, err)
	}

	stored := StoredFile{
		Field:     part.Name,
		Filename:  part.Filename,
		MediaType: part.MediaType,
		Size:      size,
		SHA256:    sink.Checksum(),
	}
	if err := sink.Close(); err != nil {
		return StoredFile{}, fmt.Errorf("close %q: %w", part.Filename, err)
	}

	uploadFilesTotal.Inc()
	uploadBytesTotal.Add(float64(size))
	logger.Ctx(r.Context()).Info().
		Str("bucket", bucket).
		Str("filename", part.Filename).
		Str("size", humanize.Bytes(uint64(size))).
		Msg("file stored")
	return stored, nil
}

// rejected counts the failure by mapped error type before passing it on.
func (s *Server) rejected(err error) error {
	uploadRejectedTotal.WithLabelValues(CodeFromError(err).APIError().Type).Inc()
	return err
}
