// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

// Package debug serves operational endpoints (metrics, pprof, health and
// readiness probes) on a port separate from the public API.
package debug

import (
	"net/http"
	"net/http/pprof"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	readyStateNotReady = 0
	readyStateReady    = 1
)

var (
	readyState atomic.Int64

	customHandlersMu sync.RWMutex
	customHandlers   = make(map[string]http.Handler)

	// Global registry for custom metrics
	globalRegistry = prometheus.NewRegistry()
)

func SetReady() {
	readyState.Store(readyStateReady)
}

func SetNotReady() {
	readyState.Store(readyStateNotReady)
}

func IsReady() bool {
	return readyState.Load() == readyStateReady
}

// RegisterHandler registers a custom handler on the debug mux.
// Must be called before GetMux() to be included.
func RegisterHandler(pattern string, handler http.Handler) {
	customHandlersMu.Lock()
	defer customHandlersMu.Unlock()
	customHandlers[pattern] = handler
}

// Registry returns the Prometheus registry for registering custom metrics.
// Metrics registered here will be exported on /metrics alongside default metrics.
func Registry() prometheus.Registerer {
	return globalRegistry
}

func GetMux() *http.ServeMux {
	mux := http.NewServeMux()

	gatherers := prometheus.Gatherers{
		prometheus.DefaultGatherer,
		globalRegistry,
	}
	mux.Handle("/metrics", promhttp.HandlerFor(gatherers, promhttp.HandlerOpts{}))
	mux.Handle("/debug/", http.HandlerFunc(pprof.Index))
	mux.Handle("/debug/cmdline", http.HandlerFunc(pprof.Cmdline))
	mux.Handle("/debug/goroutine/", pprof.Handler("goroutine"))
	mux.Handle("/debug/heap/", pprof.Handler("heap"))
	mux.Handle("/debug/profile", http.HandlerFunc(pprof.Profile))
	mux.Handle("/debug/trace", http.HandlerFunc(pprof.Trace))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		if IsReady() {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
	})

	customHandlersMu.RLock()
	defer customHandlersMu.RUnlock()
	for pattern, handler := range customHandlers {
		mux.Handle(pattern, handler)
	}

	return mux
}
