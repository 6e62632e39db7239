// Package stats aggregates assessment results for the admin and user dashboards.
package stats

import (
	"context" // Request contexts
	"fmt"     // Formatting
	"math"    // Rounding
	"sort"    // Sorting
	"strings" // String manipulation
	"time"    // Timestamps

	"srq_assessment/internal/domain"  // Domain models
	"srq_assessment/internal/scoring" // Question catalog and scoring
	"srq_assessment/internal/utils"   // Cache helpers

	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SnapshotKey is the Redis key holding the unfiltered summary.
const SnapshotKey = "stats:summary"

// Filter restricts assessments by creation time; nil bounds are open.
type Filter struct {
	From *time.Time
	To   *time.Time
}

// IsZero reports whether no bound is set.
func (f Filter) IsZero() bool { return f.From == nil && f.To == nil }

// Apply adds the created_at bounds to q.
func (f Filter) Apply(q *gorm.DB, column string) *gorm.DB {
	if f.From != nil {
		q = q.Where(column+" >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where(column+" <= ?", *f.To)
	}
	return q
}

type ClassCount struct {
	FinalClass string  `json:"final_class"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type GenderCount struct {
	Gender string `json:"gender"`
	Count  int64  `json:"count"`
}

type DailyCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

type QuestionRate struct {
	Column string  `json:"column"`
	Text   string  `json:"text"`
	Yes    int64   `json:"yes"`
	Rate   float64 `json:"rate"`
}

// Summary is the admin dashboard payload.
type Summary struct {
	TotalUsers       int64          `json:"total_users"`
	ActiveUsers      int64          `json:"active_users"`
	Admins           int64          `json:"admins"`
	TotalAssessments int64          `json:"total_assessments"`
	AverageScore     float64        `json:"average_score"`
	Classes          []ClassCount   `json:"classes"`
	Genders          []GenderCount  `json:"genders"`
	Daily            []DailyCount   `json:"daily"`
	Questions        []QuestionRate `json:"questions"`
	GeneratedAt      time.Time      `json:"generated_at"`
}

// Compute builds a Summary. User counts are global; everything about
// assessments honours f.
func Compute(db *gorm.DB, catalog *scoring.Catalog, f Filter) (*Summary, error) {
	s := &Summary{GeneratedAt: time.Now().UTC()}

	users := db.Model(&domain.User{}).Session(&gorm.Session{})
	if err := users.Count(&s.TotalUsers).Error; err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	if err := users.Where("is_active = ?", true).Count(&s.ActiveUsers).Error; err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}
	if err := users.Where("role = ?", domain.RoleAdmin).Count(&s.Admins).Error; err != nil {
		return nil, fmt.Errorf("count admins: %w", err)
	}

	base := f.Apply(db.Model(&domain.AssessmentResult{}), "created_at").Session(&gorm.Session{})
	if err := base.Count(&s.TotalAssessments).Error; err != nil {
		return nil, fmt.Errorf("count assessments: %w", err)
	}

	var avg float64
	if err := base.Select("COALESCE(AVG(total_score), 0)").Scan(&avg).Error; err != nil {
		return nil, fmt.Errorf("average score: %w", err)
	}
	s.AverageScore = Round2(avg)

	var classes []ClassCount
	if err := base.Select("final_class, COUNT(*) AS count").Group("final_class").Order("final_class").Scan(&classes).Error; err != nil {
		return nil, fmt.Errorf("group by class: %w", err)
	}
	for i := range classes {
		classes[i].Percentage = Percentage(classes[i].Count, s.TotalAssessments)
	}
	s.Classes = classes

	var genders []GenderCount
	if err := base.Select("gender, COUNT(*) AS count").Group("gender").Order("gender").Scan(&genders).Error; err != nil {
		return nil, fmt.Errorf("group by gender: %w", err)
	}
	s.Genders = genders

	var created []time.Time
	if err := base.Pluck("created_at", &created).Error; err != nil {
		return nil, fmt.Errorf("load submission times: %w", err)
	}
	s.Daily = BucketByDay(created)

	rates, err := questionRates(base, catalog, s.TotalAssessments)
	if err != nil {
		return nil, err
	}
	s.Questions = rates
	return s, nil
}

func questionRates(base *gorm.DB, catalog *scoring.Catalog, total int64) ([]QuestionRate, error) {
	cols := catalog.Columns()
	exprs := make([]string, len(cols))
	for i, c := range cols {
		exprs[i] = fmt.Sprintf("COALESCE(SUM(%s), 0) AS %s", c, c)
	}
	var sums domain.AssessmentResult
	if err := base.Select(strings.Join(exprs, ", ")).Scan(&sums).Error; err != nil {
		return nil, fmt.Errorf("sum answers: %w", err)
	}
	yes := sums.Answers()
	out := make([]QuestionRate, len(cols))
	for i, q := range catalog.Questions {
		out[i] = QuestionRate{
			Column: cols[i],
			Text:   q.Text,
			Yes:    int64(yes[i]),
			Rate:   Percentage(int64(yes[i]), total),
		}
	}
	return out, nil
}

// BucketByDay counts timestamps per UTC calendar day, oldest first.
func BucketByDay(times []time.Time) []DailyCount {
	counts := make(map[string]int64)
	for _, t := range times {
		counts[t.UTC().Format("2006-01-02")]++
	}
	out := make([]DailyCount, 0, len(counts))
	for d, n := range counts {
		out = append(out, DailyCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

// Percentage returns part/total*100 rounded to two decimals, 0 when total is 0.
func Percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) * 100 / float64(total))
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Snapshot computes the unfiltered summary and stores it in Redis.
func Snapshot(ctx context.Context, db *gorm.DB, rdb *redis.Client, catalog *scoring.Catalog, ttl time.Duration) (*Summary, error) {
	s, err := Compute(db.WithContext(ctx), catalog, Filter{})
	if err != nil {
		return nil, err
	}
	if err := utils.SetCache(ctx, rdb, SnapshotKey, s, ttl); err != nil {
		return s, fmt.Errorf("store stats snapshot: %w", err)
	}
	return s, nil
}

// Cached returns the stored snapshot, if any.
func Cached(ctx context.Context, rdb *redis.Client) (*Summary, bool) {
	var s Summary
	found, err := utils.GetCache(ctx, rdb, SnapshotKey, &s)
	if err != nil || !found {
		return nil, false
	}
	return &s, true
}

// TrendPoint is one result on a user's score chart.
type TrendPoint struct {
	ID         uint      `json:"id"`
	TotalScore int       `json:"total_score"`
	FinalClass string    `json:"final_class"`
	CreatedAt  time.Time `json:"created_at"`
}

// UserSummary is the personal dashboard payload.
type UserSummary struct {
	TotalAssessments int64                    `json:"total_assessments"`
	AverageScore     float64                  `json:"average_score"`
	Latest           *domain.AssessmentResult `json:"latest"`
	Trend            []TrendPoint             `json:"trend"`
}

// TrendLength caps the number of points in UserSummary.Trend.
const TrendLength = 10

// ForUser summarizes one user's results.
func ForUser(db *gorm.DB, userID uint) (*UserSummary, error) {
	var results []domain.AssessmentResult
	if err := db.Where("user_id = ?", userID).Order("created_at desc, id desc").Find(&results).Error; err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	s := &UserSummary{TotalAssessments: int64(len(results)), Trend: []TrendPoint{}}
	if len(results) == 0 {
		return s, nil
	}
	latest := results[0]
	s.Latest = &latest

	sum := 0
	for _, r := range results {
		sum += r.TotalScore
	}
	s.AverageScore = Round2(float64(sum) / float64(len(results)))

	n := min(len(results), TrendLength)
	for i := n - 1; i >= 0; i-- { // Oldest first for charting
		r := results[i]
		s.Trend = append(s.Trend, TrendPoint{ID: r.ID, TotalScore: r.TotalScore, FinalClass: r.FinalClass, CreatedAt: r.CreatedAt})
	}
	return s, nil
}
