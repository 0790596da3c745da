package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinicvoice/juvonno-mcp/internal/api/router"
	appconfig "github.com/clinicvoice/juvonno-mcp/internal/config"
	"github.com/clinicvoice/juvonno-mcp/internal/http/handlers"
	"github.com/clinicvoice/juvonno-mcp/internal/juvonno"
	"github.com/clinicvoice/juvonno-mcp/internal/observability/metrics"
	"github.com/clinicvoice/juvonno-mcp/internal/tools"
	"github.com/clinicvoice/juvonno-mcp/pkg/logging"
)

const version = "1.0.0"

func main() {
	// Load .env if present, then configuration
	_ = godotenv.Load()
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting juvonno tool server",
		"env", cfg.Env,
		"port", cfg.Port,
		"version", version,
	)

	// Metrics registry
	registry := prometheus.NewRegistry()
	toolMetrics := metrics.NewToolMetrics(registry)

	// One upstream client per call, built from that call's credentials.
	factory := func(creds juvonno.Credentials) tools.Upstream {
		return juvonno.NewClient(creds, cfg.UpstreamTimeout, logger)
	}

	dispatcher := tools.NewDispatcher(tools.DispatcherConfig{
		Factory: factory,
		DefaultCredentials: juvonno.Credentials{
			Subdomain: cfg.JuvonnoSubdomain,
			APIKey:    cfg.JuvonnoAPIKey,
		},
		Logger:  logger,
		Metrics: toolMetrics,
	})

	toolsHandler := handlers.NewToolsHandler(handlers.ToolsHandlerConfig{
		Dispatcher: dispatcher,
		Logger:     logger,
		Version:    version,
	})

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		ToolsHandler:       toolsHandler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		RateLimitRPS:       cfg.RateLimitRPS,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.UpstreamTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout. A book_appointment call interrupted
	// after the upstream write was sent may still have created an
	// appointment; draining in-flight calls here narrows that window.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
