// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

// Package api is the public HTTP surface of updrift: the streaming
// upload endpoint, the response envelope, and the request middleware.
package api

import (
	"net/http"

	"github.com/updrift/updrift/pkg/storage"

	"golang.org/x/time/rate"
)

// DefaultMaxFieldBytes caps in-memory plain form values; file parts are
// streamed and have no size cap.
const DefaultMaxFieldBytes = 1 << 20

// Config holds the runtime settings of the API server.
type Config struct {
	// AuthRequired rejects requests lacking a valid upstream user
	// header. Off by default for direct deployments.
	AuthRequired bool

	// MaxFieldBytes is the in-memory cap for one plain form value.
	MaxFieldBytes int64

	// ChunkSize is the read size used when draining request bodies.
	// Zero selects the decoder default.
	ChunkSize int

	// RateLimit is the accepted requests per second; zero disables
	// limiting. RateBurst defaults to the ceiling of RateLimit.
	RateLimit float64
	RateBurst int
}

// Server wires the upload endpoint and its middleware onto a mux.
type Server struct {
	cfg     Config
	store   *storage.MediaStore
	limiter *rate.Limiter
	mux     *http.ServeMux
}

// NewServer builds the API server around a media store.
func NewServer(cfg Config, store *storage.MediaStore) *Server {
	if cfg.MaxFieldBytes <= 0 {
		cfg.MaxFieldBytes = DefaultMaxFieldBytes
	}
	s := &Server{cfg: cfg, store: store}

	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst <= 0 {
			burst = int(cfg.RateLimit) + 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	s.mux = http.NewServeMux()
	s.mux.Handle("/v1/upload", handle(s.Upload))
	return s
}

// Handler returns the complete middleware chain.
func (s *Server) Handler() http.Handler {
	return s.withRequestContext(s.withRateLimit(s.withAuth(s.mux)))
}
