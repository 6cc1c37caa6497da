package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/carelink/clinic-alerts/internal/alerts"
	"github.com/carelink/clinic-alerts/internal/registry"
	"github.com/carelink/clinic-alerts/pkg/config"
	"github.com/carelink/clinic-alerts/pkg/logger"
	"github.com/carelink/clinic-alerts/pkg/monitoring"
)

const serviceVersion = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New("clinical-alerts-service", cfg.LogLevel)
	log.Info("Starting Clinical Alerts Service")

	// Initialize metrics
	metrics := monitoring.NewMetricsCollector("clinical_alerts")

	// Initialize registry client, store and service
	registryClient := registry.NewClient(cfg.Registry, log, metrics)
	store := alerts.NewStore()
	alertService := alerts.NewService(registryClient, registryClient, store, log, metrics)

	// Prime the store. A failure here is not fatal: the registry may
	// come up after us, and every mutation path reloads on success.
	primeCtx, primeCancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := alertService.ReloadAll(primeCtx); err != nil {
		log.WithError(err).Warn("Initial collection load failed, continuing with empty store")
	}
	primeCancel()

	// Health checks: registry reachability plus store freshness
	healthManager := monitoring.NewHealthManager("clinical-alerts-service", serviceVersion)
	healthManager.RegisterChecker("registry", monitoring.NewHTTPHealthChecker(
		cfg.Registry.BaseURL+"/holds", 5*time.Second))
	healthManager.RegisterChecker("store_freshness", monitoring.NewStoreFreshnessChecker(
		store.LastSynced, 15*time.Minute))

	// Initialize HTTP handlers
	handlers := alerts.NewHandlers(alertService, log)

	// Setup HTTP router
	router := mux.NewRouter()

	// Add middleware
	router.Use(requestIDMiddleware)
	router.Use(loggingMiddleware(log))
	router.Use(corsMiddleware)
	if cfg.Monitoring.Enabled {
		router.Use(metrics.HTTPMiddleware)
	}

	// Register routes
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	handlers.RegisterRoutes(apiRouter)

	// Operational endpoints
	router.HandleFunc(cfg.Monitoring.HealthPath, healthManager.HTTPHandler()).Methods("GET")
	if cfg.Monitoring.Enabled {
		router.Handle(cfg.Monitoring.MetricsPath, metrics.Handler()).Methods("GET")
	}

	// Setup HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.WithFields(map[string]interface{}{
			"port":         cfg.Server.Port,
			"registry_url": cfg.Registry.BaseURL,
		}).Info("Starting HTTP server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Clinical Alerts Service")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("Failed to shutdown server gracefully")
	}

	log.Info("Clinical Alerts Service stopped")
}

// requestIDMiddleware assigns a request id when the caller did not
// supply one and threads it through the request context so downstream
// registry calls carry it
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)

		ctx := context.WithValue(r.Context(), registry.RequestIDKey, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(log *logger.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapper := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(wrapper, r)

			log.HTTPRequest(r.Method, r.URL.Path, r.RemoteAddr, wrapper.statusCode, time.Since(start).Milliseconds())
		})
	}
}

// corsMiddleware handles CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID, X-User-Name, X-User-Role, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
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
