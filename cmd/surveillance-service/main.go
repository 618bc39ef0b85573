package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"

	"github.com/carewatch/stewardship/internal/report"
	"github.com/carewatch/stewardship/pkg/config"
	"github.com/carewatch/stewardship/pkg/database"
	"github.com/carewatch/stewardship/pkg/logger"
	"github.com/carewatch/stewardship/pkg/monitoring"
	"github.com/carewatch/stewardship/pkg/repository"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("surveillance-service", cfg.LogLevel)
	log.Info("Starting Surveillance Service")

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	// Initialize snapshot repository
	snapshotRepo := repository.NewPostgresSnapshotStore(db.DB, log)

	// Initialize monitoring
	var collector *monitoring.MetricsCollector
	if cfg.Monitoring.Enabled {
		collector = monitoring.NewMetricsCollector("surveillance-service")
	}

	// Initialize report service and HTTP handlers
	service := report.NewService(cfg, log, snapshotRepo, collector)
	validator := report.NewExportTokenValidator(cfg.JWT.SecretKey)
	handlers := report.NewHandlers(service, validator)

	// Setup HTTP router
	router := mux.NewRouter()
	router.Use(loggingMiddleware(log))
	if collector != nil {
		router.Use(collector.HTTPMiddleware)
		router.Handle(cfg.Monitoring.MetricsPath, collector.Handler()).Methods("GET")
	}
	handlers.SetupRoutes(router)

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithField("addr", server.Addr).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Surveillance Service")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown server gracefully")
	}

	log.Info("Surveillance Service stopped")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			log.WithFields(map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      wrapper.statusCode,
				"duration":    time.Since(start).String(),
				"remote_addr": r.RemoteAddr,
			}).Info("HTTP request")
		})
	}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
