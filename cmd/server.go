// Copyright 2025 Updrift Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/updrift/updrift/pkg/api"
	"github.com/updrift/updrift/pkg/debug"
	"github.com/updrift/updrift/pkg/logger"
	"github.com/updrift/updrift/pkg/storage"
	"github.com/updrift/updrift/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// ServerOpts holds all configuration for the upload server
type ServerOpts struct {
	BindAddr  string
	DebugAddr string

	MediaDir     string
	MinFreeSpace string

	MaxFieldBytes string
	ChunkSize     int
	RateLimit     float64
	AuthRequired  bool
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the upload server",
	Long: `Start the updrift upload server. Files posted to /v1/upload are
streamed into per-request bucket directories under the media dir.`,
	Run: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	f := serverCmd.Flags()

	f.String("bind_addr", "0.0.0.0:8000", "Address to bind the upload API (host:port)")
	f.String("debug_addr", "0.0.0.0:8010", "Address for the debug/metrics HTTP server")

	f.String("media_dir", "./media", "Root directory for uploaded files")
	f.String("min_free_space", "", "Reject uploads when media disk free space drops below this (percent like '5', or size like '10GiB'; empty disables)")

	f.String("max_field_bytes", "1MiB", "In-memory cap for one plain form field value")
	f.Int("chunk_size", 0, "Request body read size in bytes (0 = default)")
	f.Float64("rate_limit", 0, "Accepted requests per second (0 = unlimited)")
	f.Bool("auth_required", false, "Require a valid X-Authenticated-UserID header")

	viper.BindPFlags(f)
}

func runServer(cmd *cobra.Command, args []string) {
	utils.LoadConfiguration("updrift", false)
	opts := loadServerOpts(cmd)

	debug.SetNotReady()

	storeCfg := storage.Config{MediaDir: opts.MediaDir}
	if opts.MinFreeSpace != "" {
		minFree, err := utils.ParseMinFreeSpace(opts.MinFreeSpace)
		if err != nil {
			logger.Fatal().Err(err).Str("min_free_space", opts.MinFreeSpace).Msg("invalid min_free_space")
		}
		storeCfg.MinFreeSpace = minFree
	}

	store, err := storage.NewMediaStore(storeCfg)
	if err != nil {
		logger.Fatal().Err(err).Str("media_dir", opts.MediaDir).Msg("failed to open media store")
	}

	maxFieldBytes, err := humanize.ParseBytes(opts.MaxFieldBytes)
	if err != nil {
		logger.Fatal().Err(err).Str("max_field_bytes", opts.MaxFieldBytes).Msg("invalid max_field_bytes")
	}

	server := api.NewServer(api.Config{
		AuthRequired:  opts.AuthRequired,
		MaxFieldBytes: int64(maxFieldBytes),
		ChunkSize:     opts.ChunkSize,
		RateLimit:     opts.RateLimit,
	}, store)

	logger.Info().
		Str("bind_addr", opts.BindAddr).
		Str("media_dir", opts.MediaDir).
		Str("max_field_bytes", opts.MaxFieldBytes).
		Bool("auth_required", opts.AuthRequired).
		Msg("Upload server configuration")

	debug.RegisterHandler("/version", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionInfo())
	}))

	httpServer := startHTTPServer(server.Handler(), opts.BindAddr)
	debugServer := startHTTPServer(debug.GetMux(), opts.DebugAddr)

	debug.SetReady()

	waitForShutdown()

	debug.SetNotReady()
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	httpServer.Shutdown(ctx)
	debugServer.Shutdown(ctx)
}

func loadServerOpts(cmd *cobra.Command) ServerOpts {
	f := NewFlagLoader(cmd)

	return ServerOpts{
		BindAddr:      f.String("bind_addr"),
		DebugAddr:     f.String("debug_addr"),
		MediaDir:      f.String("media_dir"),
		MinFreeSpace:  f.String("min_free_space"),
		MaxFieldBytes: f.String("max_field_bytes"),
		ChunkSize:     f.Int("chunk_size"),
		RateLimit:     f.Float64("rate_limit"),
		AuthRequired:  f.Bool("auth_required"),
	}
}

func startHTTPServer(handler http.Handler, addr string) *http.Server {
	httpServer := &http.Server{Addr: addr, Handler: handler}
	go func() {
		logger.Info().Str("http_addr", addr).Msg("Starting HTTP server")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("failed to start HTTP server")
		}
	}()
	return httpServer
}

func waitForShutdown() {
	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
	<-stopChan
}
