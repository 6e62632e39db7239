package job

import (
	"path/filepath" // Temp file paths
	"testing"       // Go's testing package
	"time"          // Timestamps

	"srq_assessment/internal/db"      // Database connection and migrations
	"srq_assessment/internal/scoring" // Question catalog and scoring
	"srq_assessment/internal/stats"   // Aggregations

	"github.com/alicebob/miniredis/v2"    // In-memory Redis server
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
	"gorm.io/driver/sqlite"               // SQLite driver for GORM
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // GORM logger
)

func newJobDeps(t *testing.T) (*gorm.DB, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "job.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return gdb, mr, rdb
}

func TestStatsJobWithoutCacheIsNoop(t *testing.T) {
	j := NewStatsJob(nil, nil, scoring.MustLoadCatalog(), time.Hour)
	j.Run()
	assert.True(t, j.LastRun().IsZero())
	assert.False(t, j.running.Load())
}

func TestStatsJobStoresSnapshot(t *testing.T) {
	gdb, mr, rdb := newJobDeps(t)
	j := NewStatsJob(gdb, rdb, scoring.MustLoadCatalog(), 2*time.Hour)

	j.Run()
	require.False(t, j.LastRun().IsZero())
	assert.False(t, j.running.Load())
	assert.True(t, mr.Exists(stats.SnapshotKey))
	assert.Equal(t, 2*time.Hour, mr.TTL(stats.SnapshotKey))

	first := j.LastRun()
	time.Sleep(2 * time.Millisecond)
	j.Run()
	assert.True(t, j.LastRun().After(first))
}

func TestStatsJobSkipsOverlappingTick(t *testing.T) {
	gdb, mr, rdb := newJobDeps(t)
	j := NewStatsJob(gdb, rdb, scoring.MustLoadCatalog(), time.Hour)

	j.running.Store(true) // A previous tick is still in flight
	j.Run()
	assert.True(t, j.LastRun().IsZero())
	assert.False(t, mr.Exists(stats.SnapshotKey))
	assert.True(t, j.running.Load())
}

func TestStatsJobKeepsLastRunOnFailure(t *testing.T) {
	gdb, mr, rdb := newJobDeps(t)
	j := NewStatsJob(gdb, rdb, scoring.MustLoadCatalog(), time.Hour)
	j.Run()
	good := j.LastRun()
	require.False(t, good.IsZero())

	mr.Close()
	j.Run()
	assert.Equal(t, good, j.LastRun())
	assert.False(t, j.running.Load())
}
