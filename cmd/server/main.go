package main

import (
	"context"   // context package is needed for Redis operations and shutdown
	"errors"    // errors package is needed to detect server close
	"net/http"  // HTTP server
	"os"        // Process signals
	"os/signal" // Signal handling
	"syscall"   // SIGTERM
	"time"      // Shutdown timeout

	"srq_assessment/internal/api"     // Custom package for API handlers
	"srq_assessment/internal/config"  // Custom package for configuration
	"srq_assessment/internal/db"      // Database connection and migrations
	"srq_assessment/internal/job"     // Background jobs
	"srq_assessment/internal/scoring" // Question catalog and prediction client

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/robfig/cron/v3"    // Job scheduler
	"github.com/sirupsen/logrus"   // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{}) // Machine-readable logs in production
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}
	if cfg.JWTSecret == "" {
		logrus.Fatal("JWT_SECRET must be set")
	}

	// Connect to the database
	gdb, err := db.Open(cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("failed to migrate DB: %v", err)
	}

	// Setup Redis client when configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr, // Redis server address
			Password: cfg.RedisPass, // Redis password
			DB:       cfg.RedisDB,   // Redis database number
		})
		// Test Redis connection
		if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
			logrus.Fatalf("failed to connect to Redis: %v", err)
		}
	} else {
		logrus.Warn("REDIS_ADDR not set, caching disabled")
	}

	catalog, err := scoring.LoadCatalog()
	if err != nil {
		logrus.Fatalf("failed to load question catalog: %v", err)
	}
	if cfg.MLEndpoint == "" {
		logrus.Warn("ML_ENDPOINT not set, /api/predict will fail and submissions use the fallback")
	}
	predictor := scoring.NewHTTPPredictor(cfg.MLEndpoint, cfg.MLTimeout, catalog)

	// Schedule the stats snapshot
	statsJob := job.NewStatsJob(gdb, redisClient, catalog, 2*time.Hour)
	scheduler := cron.New()
	if _, err := scheduler.AddJob(cfg.StatsRefresh, statsJob); err != nil {
		logrus.Fatalf("invalid STATS_REFRESH %q: %v", cfg.StatsRefresh, err)
	}
	scheduler.Start()
	go statsJob.Run() // Warm the snapshot at startup

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}
	router, err := api.NewRouter(api.Deps{
		DB:        gdb,
		Redis:     redisClient,
		Config:    cfg,
		Predictor: predictor,
		Catalog:   catalog,
		Snapshots: statsJob,
	})
	if err != nil {
		logrus.Fatalf("failed to build router: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	<-scheduler.Stop().Done() // Wait for a running snapshot
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
