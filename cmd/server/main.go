/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the work-journey lifecycle engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration from environment (.env supported)
  2. Initialize SQLite store
  3. Wire the journey service and API handler
  4. Start the auto-close scheduler
  5. Start the HTTP server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the scheduler (waits for an in-flight sweep)
  4. Close the database connection
  5. Exit

ENVIRONMENT:
  See config/config.go for the full configuration surface.

SEE ALSO:
  - api/server.go: Router configuration
  - api/scheduler.go: Auto-close sweep
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/dorodrig/journey-engine/api"
	"github.com/dorodrig/journey-engine/config"
	"github.com/dorodrig/journey-engine/journey"
	"github.com/dorodrig/journey-engine/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	registry := prometheus.NewRegistry()
	metrics := api.NewMetrics(registry)

	service := journey.NewService(
		store,
		store,
		cfg.GeofenceTolerance,
		decimal.NewFromFloat(cfg.MaxShiftHours()),
	)

	scheduler := api.NewAutoCloseScheduler(store, store, api.LogNotifier{}, metrics)
	scheduler.SweepInterval = cfg.SweepInterval
	scheduler.MaxShiftDuration = cfg.MaxShiftDuration
	scheduler.Enabled = cfg.SchedulerEnabled
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(service, store, metrics)
	router := api.NewRouter(handler, registry)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Log and fall through on error: the deferred scheduler stop and
	// database close must still run.
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
