package stats

import (
	"context"       // Request contexts
	"path/filepath" // Temp file paths
	"testing"       // Go's testing package
	"time"          // Timestamps

	"srq_assessment/internal/domain"  // Domain models
	"srq_assessment/internal/scoring" // Question catalog and scoring

	"github.com/alicebob/miniredis/v2"    // In-memory Redis server
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Fatal assertions
	"gorm.io/driver/sqlite"               // SQLite driver for GORM
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // GORM logger
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "stats.db")), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}, &domain.AssessmentResult{}))
	return db
}

func seedResult(t *testing.T, db *gorm.DB, userID uint, yes int, class, gender string, at time.Time) {
	t.Helper()
	answers := make([]int, domain.QuestionCount)
	for i := 0; i < yes; i++ {
		answers[i] = 1
	}
	r := domain.AssessmentResult{UserID: userID, Age: 30, Gender: gender, FinalClass: class, Source: domain.SourceClient, CreatedAt: at}
	r.SetAnswers(answers)
	require.NoError(t, db.Create(&r).Error)
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		part, total int64
		want        float64
	}{
		{0, 0, 0},
		{1, 3, 33.33},
		{2, 3, 66.67},
		{3, 3, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percentage(tt.part, tt.total))
	}
}

func TestBucketByDay(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2025, 1, d, h, 0, 0, 0, time.UTC) }
	got := BucketByDay([]time.Time{day(3, 9), day(1, 10), day(3, 23), day(2, 0)})
	assert.Equal(t, []DailyCount{
		{Date: "2025-01-01", Count: 1},
		{Date: "2025-01-02", Count: 1},
		{Date: "2025-01-03", Count: 2},
	}, got)
	assert.Empty(t, BucketByDay(nil))
}

func TestComputeHonoursDateFilter(t *testing.T) {
	db := openTestDB(t)
	catalog := scoring.MustLoadCatalog()
	u := domain.User{Name: "U", Email: "u@example.com", PasswordHash: "x", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	jan := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)
	feb := time.Date(2025, 2, 10, 12, 0, 0, 0, time.UTC)
	seedResult(t, db, u.ID, 2, "Normal", "male", jan)
	seedResult(t, db, u.ID, 9, "Moderate", "male", feb)
	seedResult(t, db, u.ID, 15, "Severe", "female", feb)

	all, err := Compute(db, catalog, Filter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), all.TotalAssessments)
	assert.Equal(t, int64(1), all.TotalUsers)
	assert.Equal(t, 8.67, all.AverageScore)
	assert.Len(t, all.Daily, 2)
	assert.Len(t, all.Genders, 2)

	from := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	febOnly, err := Compute(db, catalog, Filter{From: &from})
	require.NoError(t, err)
	assert.Equal(t, int64(2), febOnly.TotalAssessments)
	assert.Equal(t, int64(1), febOnly.TotalUsers)
	require.Len(t, febOnly.Classes, 2)
	var sum float64
	for _, c := range febOnly.Classes {
		sum += c.Percentage
	}
	assert.InDelta(t, 100, sum, 0.01)
	assert.Equal(t, int64(2), febOnly.Questions[0].Yes)
	assert.Equal(t, int64(1), febOnly.Questions[9].Yes)
}

func TestForUserTrendIsOldestFirst(t *testing.T) {
	db := openTestDB(t)
	u := domain.User{Name: "T", Email: "t@example.com", PasswordHash: "x", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < TrendLength+2; i++ {
		seedResult(t, db, u.ID, i, scoring.ClassForScore(i), "female", base.Add(time.Duration(i)*time.Hour))
	}

	s, err := ForUser(db, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(TrendLength+2), s.TotalAssessments)
	require.NotNil(t, s.Latest)
	assert.Equal(t, TrendLength+1, s.Latest.TotalScore)
	require.Len(t, s.Trend, TrendLength)
	assert.Equal(t, 2, s.Trend[0].TotalScore)
	assert.Equal(t, TrendLength+1, s.Trend[TrendLength-1].TotalScore)
}

func TestSnapshotStoresAndCachedReads(t *testing.T) {
	db := openTestDB(t)
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()

	_, found := Cached(ctx, rdb)
	assert.False(t, found)

	u := domain.User{Name: "S", Email: "s@example.com", PasswordHash: "x", Role: domain.RoleUser, IsActive: true}
	require.NoError(t, db.Create(&u).Error)
	seedResult(t, db, u.ID, 5, "Mild", "female", time.Now())

	s, err := Snapshot(ctx, db, rdb, scoring.MustLoadCatalog(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TotalAssessments)
	assert.Equal(t, time.Hour, mr.TTL(SnapshotKey))

	got, found := Cached(ctx, rdb)
	require.True(t, found)
	assert.Equal(t, int64(1), got.TotalAssessments)
	assert.Equal(t, float64(5), got.AverageScore)
	assert.True(t, s.GeneratedAt.Equal(got.GeneratedAt))

	// Without a client the summary is still computed
	s, err = Snapshot(ctx, db, nil, scoring.MustLoadCatalog(), time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), s.TotalAssessments)
}
