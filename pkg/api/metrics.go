// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updrift_http_requests_total",
			Help: "HTTP requests by path and status code",
		},
		[]string{"path", "code"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "updrift_http_request_duration_seconds",
			Help:    "HTTP request latency by path",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)
	uploadFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "updrift_upload_files_total",
			Help: "Total uploaded files stored",
		},
	)
	uploadFieldsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "updrift_upload_fields_total",
			Help: "Total plain form fields received",
		},
	)
	uploadBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "updrift_upload_bytes_total",
			Help: "Total uploaded file bytes written to the media store",
		},
	)
	uploadRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "updrift_upload_rejected_total",
			Help: "Uploads rejected before completion, by error type",
		},
		[]string{"error_type"},
	)
)
