package api

import (
	"context"      // Context for Redis operations
	"encoding/csv" // CSV parse errors
	"errors"       // Error values
	"net/http"     // HTTP status codes
	"strings"      // String manipulation
	"time"         // Import day

	"srq_assessment/internal/articles" // CSV parsing and upsert
	"srq_assessment/internal/domain"   // Importing domain models
	"srq_assessment/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/google/uuid"       // Import run ids
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const articlesCachePrefix = "articles:"

// ArticleRequest is the body of article create and update calls
type ArticleRequest struct {
	Title    string `json:"title" binding:"required"`    // Unique title
	Author   string `json:"author"`                      // Author name
	Article  string `json:"article" binding:"required"`  // Body text
	Date     string `json:"date"`                        // Publication date, empty means today
	Category string `json:"category" binding:"required"` // One of the fixed categories
}

// toArticle validates the request and builds the model
func (r ArticleRequest) toArticle() (domain.Article, error) {
	a := domain.Article{
		Title:    strings.TrimSpace(r.Title),
		Author:   strings.TrimSpace(r.Author),
		Article:  strings.TrimSpace(r.Article),
		Category: articles.NormalizeCategory(r.Category),
	}
	if a.Title == "" || a.Article == "" {
		return a, errors.New("title and article are required")
	}
	if !domain.IsValidCategory(a.Category) {
		return a, errors.New("category must be one of " + strings.Join(domain.ArticleCategories, ", "))
	}
	date, err := articles.ParseDate(strings.TrimSpace(r.Date), time.Now().UTC())
	if err != nil {
		return a, err
	}
	a.Date = date
	return a, nil
}

// titleTaken reports whether another article already uses title
func titleTaken(db *gorm.DB, title string, exceptID uint) (bool, error) {
	var count int64
	err := db.Model(&domain.Article{}).Where("title = ? AND id <> ?", title, exceptID).Count(&count).Error
	return count > 0, err
}

// ListArticlesHandler returns published articles, newest first
func ListArticlesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		cacheKey := listCacheKey(articlesCachePrefix, c, "category", "search", "page", "page_size")
		if serveCached(c, rdb, cacheKey) {
			return // Served from cache
		}
		page := parsePage(c)
		query := db.Model(&domain.Article{})
		if cat := c.Query("category"); cat != "" {
			cat = articles.NormalizeCategory(cat)
			if !domain.IsValidCategory(cat) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown category"})
				return
			}
			query = query.Where("category = ?", cat) // Filter by category
		}
		query = applySearch(query, c.Query("search"), "title", "author")

		var list []domain.Article
		total, err := paginate(query, page, "date desc, id desc", &list)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to list articles")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch articles"})
			return
		}
		respData := pagedResponse("articles", list, page, total)
		_ = utils.SetCache(context.Background(), rdb, cacheKey, respData, listCacheTTL)
		c.JSON(http.StatusOK, respData)
	}
}

// ArticleCategoriesHandler returns the fixed category list
func ArticleCategoriesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"categories": domain.ArticleCategories})
	}
}

// findArticle loads the :id article, writing 400/404/500 itself
func findArticle(c *gin.Context, db *gorm.DB) (*domain.Article, bool) {
	id, ok := idParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return nil, false
	}
	var a domain.Article
	if err := db.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch article"})
		}
		return nil, false
	}
	return &a, true
}

// GetArticleHandler returns one article
func GetArticleHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := findArticle(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"article": a})
	}
}

// CreateArticleHandler adds an article
func CreateArticleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ArticleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title, article and category are required"})
			return
		}
		a, err := req.toArticle()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if taken, err := titleTaken(db, a.Title, 0); err != nil || taken {
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create article"})
			} else {
				c.JSON(http.StatusConflict, gin.H{"error": "An article with this title already exists"})
			}
			return
		}
		if err := db.Create(&a).Error; err != nil {
			logrus.WithFields(logrus.Fields{"title": a.Title, "error": err.Error()}).Error("Failed to create article")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create article"})
			return
		}
		_ = utils.DeleteCachePrefix(context.Background(), rdb, articlesCachePrefix) // Invalidate listings
		c.JSON(http.StatusCreated, gin.H{"article": a})
	}
}

// UpdateArticleHandler replaces an article's fields
func UpdateArticleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ArticleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title, article and category are required"})
			return
		}
		next, err := req.toArticle()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		current, ok := findArticle(c, db)
		if !ok {
			return
		}
		if taken, err := titleTaken(db, next.Title, current.ID); err != nil || taken {
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
			} else {
				c.JSON(http.StatusConflict, gin.H{"error": "An article with this title already exists"})
			}
			return
		}
		err = db.Model(current).Updates(map[string]any{
			"title":    next.Title,
			"author":   next.Author,
			"article":  next.Article,
			"date":     next.Date,
			"category": next.Category,
		}).Error
		if err != nil {
			logrus.WithFields(logrus.Fields{"article_id": current.ID, "error": err.Error()}).Error("Failed to update article")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update article"})
			return
		}
		if err := db.First(current, current.ID).Error; err != nil { // Reload the stored row
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch article"})
			return
		}
		_ = utils.DeleteCachePrefix(context.Background(), rdb, articlesCachePrefix) // Invalidate listings
		c.JSON(http.StatusOK, gin.H{"article": current})
	}
}

// DeleteArticleHandler removes an article
func DeleteArticleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
			return
		}
		res := db.Delete(&domain.Article{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete article"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Article not found"})
			return
		}
		_ = utils.DeleteCachePrefix(context.Background(), rdb, articlesCachePrefix) // Invalidate listings
		c.JSON(http.StatusOK, gin.H{"message": "Article deleted"})
	}
}

// isFileError reports whether err came from reading the CSV rather than the database
func isFileError(err error) bool {
	var parseErr *csv.ParseError
	return errors.Is(err, articles.ErrMissingColumn) || errors.Is(err, articles.ErrEmptyFile) || errors.As(err, &parseErr)
}

// ImportArticlesHandler upserts articles from an uploaded CSV in one transaction
func ImportArticlesHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "CSV file is required in the file field"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read upload"})
			return
		}
		defer f.Close()

		importID := uuid.NewString()
		log := logrus.WithFields(logrus.Fields{"import_id": importID, "file": fh.Filename})
		log.Info("Article import started")

		var report *articles.Report
		// Every upsert commits together or not at all
		err = db.Transaction(func(tx *gorm.DB) error {
			var err error
			report, err = articles.Import(c.Request.Context(), articles.GormStore{DB: tx}, f, time.Now().UTC())
			return err
		})
		if err != nil {
			log.WithField("error", err.Error()).Error("Article import rolled back")
			if isFileError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Import failed"})
			}
			return
		}
		log.WithFields(logrus.Fields{
			"inserted": report.Inserted, // New titles
			"updated":  report.Updated,  // Existing titles
			"skipped":  report.Skipped,  // Invalid rows
		}).Info("Article import committed")
		_ = utils.DeleteCachePrefix(context.Background(), rdb, articlesCachePrefix) // Invalidate listings
		c.JSON(http.StatusOK, gin.H{
			"import_id": importID,
			"inserted":  report.Inserted,
			"updated":   report.Updated,
			"skipped":   report.Skipped,
			"skips":     report.Skips,
		})
	}
}
