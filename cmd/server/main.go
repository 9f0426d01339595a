// Copyright 2025 Gerry Miller <gerry@gerrymiller.com>
//
// Licensed under the MIT License.
// See LICENSE file in the project root for full license information.

// Package main implements the optional HTTP surface (spec §6, DOMAIN
// STACK): a thin gorilla/mux router exposing POST /runs and
// GET /runs/{thread_id} over the same System the CLI's `run` command
// drives. The command-line interface stays the primary surface; this
// server exists for callers that want a long-lived process instead of a
// one-shot binary invocation (dashboards, CI steps, other services).
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"test-smith/cmd/common"
	"test-smith/internal/config"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to configuration file")
	flag.Parse()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	system, err := common.InitializeSystem(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize system: %v\n", err)
		os.Exit(1)
	}
	defer system.Close()

	srv := &server{system: system}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", srv.handleHealth).Methods(http.MethodGet)
	router.HandleFunc("/runs", srv.handleCreateRun).Methods(http.MethodPost)
	router.HandleFunc("/runs/{thread_id}", srv.handleGetRun).Methods(http.MethodGet)
	router.HandleFunc("/workflows", srv.handleListWorkflows).Methods(http.MethodGet)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: time.Duration(cfg.Workflow.RunTimeoutSecs+15) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		system.Logger.Info("shutting down", nil)
		ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownSeconds)*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			system.Logger.Error("shutdown error", map[string]any{"error": err.Error()})
		}
	}()

	system.Logger.Info("server starting", map[string]any{"addr": cfg.Server.Addr})

	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		system.Logger.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}

	system.Logger.Info("server stopped", nil)
}
