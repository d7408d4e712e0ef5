package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/freshkart/geofence/config"
	"github.com/freshkart/geofence/internal/geocoder"
	"github.com/freshkart/geofence/internal/handler"
	"github.com/freshkart/geofence/internal/metrics"
	"github.com/freshkart/geofence/internal/middleware"
	"github.com/freshkart/geofence/internal/repository"
	"github.com/freshkart/geofence/internal/service"
	"github.com/freshkart/geofence/pkg/cache"
	"github.com/freshkart/geofence/pkg/db"
)

func main() {
	// ── Load configuration ──────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	// ── Connect to PostgreSQL ───────────────────────────
	pgPool, err := db.NewPostgresPool(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("failed to connect to PostgreSQL: %v", err)
	}
	defer pgPool.Close()
	log.Println("✓ PostgreSQL connected")

	// ── Connect to Redis ────────────────────────────────
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatalf("failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("✓ Redis connected")

	// ── Metrics ─────────────────────────────────────────
	collector, err := metrics.New(nil)
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}

	// ── Initialize layers ───────────────────────────────
	zoneRepo := repository.NewZoneRepository(pgPool, redisClient, cfg.Zones.CacheTTL, collector)

	accessSvc := service.NewAccessService(zoneRepo, cfg.Access.ViewingRadiusKm)

	nominatim := geocoder.New(cfg.Geocoder.BaseURL, cfg.Geocoder.UserAgent, &http.Client{
		Timeout: cfg.Geocoder.Timeout,
	})

	timeouts := service.ReadinessTimeouts{
		BasicChecks:    cfg.Readiness.BasicChecksTimeout,
		CoordinateFix:  cfg.Readiness.CoordinateTimeout,
		AddressLookup:  cfg.Readiness.AddressTimeout,
		ZoneValidation: cfg.Readiness.ZoneTimeout,
	}

	readinessHandler := handler.NewReadinessHandler(accessSvc, nominatim, timeouts, collector)
	zoneHandler := handler.NewZoneHandler(zoneRepo)

	// ── Setup router ────────────────────────────────────
	router := mux.NewRouter()

	// Health check and metrics endpoints.
	router.HandleFunc("/health", healthHandler(pgPool, redisClient)).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// API v1 routes.
	api := router.PathPrefix("/api/v1").Subrouter()
	// Location readiness
	api.HandleFunc("/location/readiness", readinessHandler.CheckReadiness).Methods(http.MethodPost)
	// Delivery zones
	api.HandleFunc("/zones", zoneHandler.ListZones).Methods(http.MethodGet)
	api.HandleFunc("/zones", zoneHandler.CreateZone).Methods(http.MethodPost)
	api.HandleFunc("/zones/validate", zoneHandler.ValidateZone).Methods(http.MethodPost)
	api.HandleFunc("/zones/closest", zoneHandler.ClosestZone).Methods(http.MethodGet)
	api.HandleFunc("/zones/{id}", zoneHandler.GetZone).Methods(http.MethodGet)

	// Middleware: logging and panic recovery inside, CORS outermost.
	wrapped := middleware.CORS(middleware.Recoverer(middleware.RequestLogger(router)))

	// ── Start HTTP server ───────────────────────────────
	srv := &http.Server{
		Addr:         cfg.Server.ServerAddr(),
		Handler:      wrapped,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in a goroutine so we can listen for shutdown signals.
	go func() {
		log.Printf("🚀 Server listening on %s", cfg.Server.ServerAddr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// ── Graceful shutdown ───────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("✅ Server gracefully stopped")
}

// HealthResponse represents the /health endpoint response.
type HealthResponse struct {
	Status   string            `json:"status"`
	Services map[string]string `json:"services"`
}

// healthHandler returns an HTTP handler that checks PG and Redis connectivity.
func healthHandler(pgPool *pgxpool.Pool, redisClient *redis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := HealthResponse{
			Status:   "ok",
			Services: make(map[string]string),
		}

		if err := db.HealthCheck(r.Context(), pgPool); err != nil {
			resp.Status = "degraded"
			resp.Services["postgres"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["postgres"] = "healthy"
		}

		if err := cache.HealthCheck(r.Context(), redisClient); err != nil {
			resp.Status = "degraded"
			resp.Services["redis"] = "unhealthy: " + err.Error()
		} else {
			resp.Services["redis"] = "healthy"
		}

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != "ok" {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(resp)
	}
}
