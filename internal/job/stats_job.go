package job

import (
	"context" // Request contexts
	"time"    // Timestamps

	"srq_assessment/internal/scoring" // Question catalog and scoring
	"srq_assessment/internal/stats"   // Aggregations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"go.uber.org/atomic"           // Typed atomics
	"gorm.io/gorm"                 // GORM ORM library
)

// StatsJob refreshes the cached admin statistics snapshot.
type StatsJob struct {
	db      *gorm.DB
	rdb     *redis.Client
	catalog *scoring.Catalog
	ttl     time.Duration
	timeout time.Duration
	lastRun atomic.Time
	running atomic.Bool
}

func NewStatsJob(db *gorm.DB, rdb *redis.Client, catalog *scoring.Catalog, ttl time.Duration) *StatsJob {
	return &StatsJob{db: db, rdb: rdb, catalog: catalog, ttl: ttl, timeout: time.Minute}
}

// Here Run is an interface method of the cron Job interface
func (j *StatsJob) Run() {
	if j.rdb == nil {
		return // Nowhere to store the snapshot
	}
	if !j.running.CompareAndSwap(false, true) {
		logrus.Warn("stats snapshot still running, skipping tick")
		return
	}
	defer j.running.Store(false)

	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	start := time.Now()
	s, err := stats.Snapshot(ctx, j.db, j.rdb, j.catalog, j.ttl)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("stats snapshot job failed")
		return
	}
	j.lastRun.Store(s.GeneratedAt)
	logrus.WithFields(logrus.Fields{
		"assessments": s.TotalAssessments,
		"took_ms":     time.Since(start).Milliseconds(),
	}).Debug("stats snapshot refreshed")
}

// LastRun returns the time of the last successful snapshot, zero if none.
func (j *StatsJob) LastRun() time.Time {
	return j.lastRun.Load()
}
