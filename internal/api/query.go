package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error values
	"math"     // Page bound
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Date range parsing

	"srq_assessment/internal/stats" // Date range filter
	"srq_assessment/internal/utils" // Cache helpers

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Pagination limits
const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxPage         = math.MaxInt32 / maxPageSize // Keeps Offset within int32
	listCacheTTL    = 60 * time.Second
)

var errInvalidDate = errors.New("dates must be YYYY-MM-DD or RFC3339")

// Page holds parsed pagination parameters
type Page struct {
	Page     int // Current page, 1-based
	PageSize int // Items per page
}

// parsePage reads page and page_size, falling back to defaults on bad input
func parsePage(c *gin.Context) Page {
	page := 1                   // Default page number
	pageSize := defaultPageSize // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = min(v, maxPage) // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= maxPageSize {
			pageSize = v // Set page size
		}
	}
	return Page{Page: page, PageSize: pageSize}
}

// Offset is the number of rows to skip
func (p Page) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages rounds total up to whole pages
func (p Page) TotalPages(total int64) int {
	return (int(total) + p.PageSize - 1) / p.PageSize
}

// paginate runs the paired COUNT and the paged SELECT on the same filtered query.
// Preloads apply to the SELECT only.
func paginate(query *gorm.DB, p Page, order string, dest any, preloads ...string) (int64, error) {
	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, err
	}
	find := query.Session(&gorm.Session{})
	for _, rel := range preloads {
		find = find.Preload(rel)
	}
	err := find.Order(order).Offset(p.Offset()).Limit(p.PageSize).Find(dest).Error
	return total, err
}

// pagedResponse builds the list envelope shared by every list endpoint
func pagedResponse(key string, items any, p Page, total int64) gin.H {
	return gin.H{
		key:           items,               // Result rows
		"page":        p.Page,              // Current page
		"page_size":   p.PageSize,          // Page size
		"total":       total,               // Total matching rows
		"total_pages": p.TotalPages(total), // Total pages
		"cached":      false,               // Response is not from cache
	}
}

// parseDateRange reads from/to; a bare date in "to" covers that whole day
func parseDateRange(c *gin.Context) (stats.Filter, error) {
	var f stats.Filter
	if v := strings.TrimSpace(c.Query("from")); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			return f, err
		}
		f.From = &t
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			return f, err
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond) // End of that day
		}
		f.To = &t
	}
	return f, nil
}

func parseDate(v string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), false, nil
	}
	return time.Time{}, false, errInvalidDate
}

// applySearch matches term case-insensitively against any of columns
func applySearch(query *gorm.DB, term string, columns ...string) *gorm.DB {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(columns) == 0 {
		return query
	}
	like := "%" + term + "%"
	conds := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		conds[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = like
	}
	return query.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// listCacheKey builds a cache key from the given query params
func listCacheKey(prefix string, c *gin.Context, params ...string) string {
	parts := make([]string, 0, len(params)) // Parts of the cache key
	for _, k := range params {
		parts = append(parts, k+"="+c.Query(k)) // Append key-value pair
	}
	return prefix + strings.Join(parts, ":")
}

// serveCached writes a cached list response if one exists
func serveCached(c *gin.Context, rdb *redis.Client, key string) bool {
	var cached map[string]any
	found, err := utils.GetCache(context.Background(), rdb, key, &cached)
	if err != nil || !found {
		return false
	}
	cached["cached"] = true // Indicate response is from cache
	c.JSON(http.StatusOK, cached)
	return true
}

// idParam parses the :id route parameter
func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
