package api

import (
	"net/http" // HTTP status codes
	"time"     // Snapshot time

	"srq_assessment/internal/middleware" // Authenticated user helpers
	"srq_assessment/internal/scoring"    // Question catalog
	"srq_assessment/internal/stats"      // Aggregations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// DashboardStatsHandler returns admin statistics, from the snapshot when unfiltered
func DashboardStatsHandler(db *gorm.DB, rdb *redis.Client, catalog *scoring.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		filter, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if filter.IsZero() {
			if snap, ok := stats.Cached(c.Request.Context(), rdb); ok {
				c.JSON(http.StatusOK, gin.H{"stats": snap, "cached": true})
				return
			}
		}
		summary, err := stats.Compute(db.WithContext(c.Request.Context()), catalog, filter)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to compute stats")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute statistics"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": summary, "cached": false})
	}
}

// MyDashboardHandler returns the caller's personal summary
func MyDashboardHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		summary, err := stats.ForUser(db.WithContext(c.Request.Context()), userID)
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to compute user summary")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute summary"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"summary": summary})
	}
}

// SnapshotClock reports when the stats snapshot last ran
type SnapshotClock interface {
	LastRun() time.Time
}

// HealthHandler reports database and cache reachability
func HealthHandler(db *gorm.DB, rdb *redis.Client, clock SnapshotClock) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		status := http.StatusOK
		body := gin.H{"status": "ok", "database": "up", "cache": "disabled"}

		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			status = http.StatusServiceUnavailable
			body["status"], body["database"] = "degraded", "down"
		}
		if rdb != nil {
			body["cache"] = "up"
			if err := rdb.Ping(ctx).Err(); err != nil {
				body["cache"] = "down"
			}
		}
		if clock != nil {
			if t := clock.LastRun(); !t.IsZero() {
				body["stats_snapshot_at"] = t
			}
		}
		c.JSON(status, body)
	}
}
