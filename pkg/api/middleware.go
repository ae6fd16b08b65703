// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/updrift/updrift/pkg/logger"

	"github.com/google/uuid"
)

// UserIDHeader is set by the authenticating proxy in front of the
// service; the API itself performs no credential checks.
const UserIDHeader = "X-Authenticated-UserID"

type userIDKey struct{}

// UserID returns the authenticated user attached to the request context.
func UserID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey{}).(uuid.UUID)
	return id, ok
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(p []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(p)
}

// withRequestContext assigns a request id, attaches a request-scoped
// logger, records metrics, and writes one access log line per request.
func (s *Server) withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		reqLogger := logger.Ctx(r.Context()).With().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Logger()
		ctx := logger.WithLogger(r.Context(), &reqLogger)

		w.Header().Set("X-Request-ID", requestID)
		rec := &statusRecorder{ResponseWriter: w}
		next.ServeHTTP(rec, r.WithContext(ctx))

		if rec.status == 0 {
			rec.status = http.StatusOK
		}
		elapsed := time.Since(start)
		requestsTotal.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
		requestDuration.WithLabelValues(r.URL.Path).Observe(elapsed.Seconds())
		reqLogger.Info().
			Int("status", rec.status).
			Dur("elapsed", elapsed).
			Msg("request")
	})
}

// withAuth parses the upstream user header into the context. When auth
// is required, requests without a valid uuid are rejected before any
// body byte is read.
func (s *Server) withAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(UserIDHeader)
		if header == "" {
			if s.cfg.AuthRequired {
				WriteError(r, w, NewError(ErrUnauthorized))
				return
			}
			next.ServeHTTP(w, r)
			return
		}
		userID, err := uuid.Parse(header)
		if err != nil {
			WriteError(r, w, NewError(ErrUnauthorized))
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey{}, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withRateLimit sheds load once the configured request rate is exceeded.
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	if s.limiter == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			WriteError(r, w, NewError(ErrTooManyRequests))
			return
		}
		next.ServeHTTP(w, r)
	})
}
