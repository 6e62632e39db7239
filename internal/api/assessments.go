package api

import (
	"context"      // Context for Redis operations
	"encoding/csv" // CSV export
	"errors"       // Error values
	"net/http"     // HTTP status codes
	"strconv"      // String conversion
	"strings"      // String manipulation
	"time"         // Export file name

	"srq_assessment/internal/domain"     // Importing domain models
	"srq_assessment/internal/middleware" // Authenticated user helpers
	"srq_assessment/internal/scoring"    // Validation and prediction
	"srq_assessment/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const assessmentsCachePrefix = "admin:assessments:"

// PredictRequest is the body of /api/predict
type PredictRequest struct {
	Answers []int  `json:"answers" binding:"required"` // 20 binary answers
	Age     int    `json:"age"`                        // Optional age
	Gender  string `json:"gender"`                     // Optional gender
}

// SubmitRequest is the body of POST /api/assessments
type SubmitRequest struct {
	Age        int      `json:"age" binding:"required"`     // Respondent age
	Gender     string   `json:"gender" binding:"required"`  // Respondent gender
	Answers    []int    `json:"answers" binding:"required"` // 20 binary answers
	TotalScore *int     `json:"total_score"`                // Optional client-side sum
	FinalClass string   `json:"final_class"`                // Optional class from a prior /api/predict
	Confidence *float64 `json:"confidence"`                 // Optional confidence for FinalClass
}

// PredictHandler forwards answers to the prediction service and returns its verdict
func PredictHandler(predictor scoring.Predictor) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PredictRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		if _, err := scoring.ValidateAnswers(req.Answers); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		gender := ""
		if req.Gender != "" {
			g, err := scoring.NormalizeGender(req.Gender)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			gender = g
		}
		if req.Age != 0 {
			if err := scoring.ValidateAge(req.Age); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
		}
		pred, err := predictor.Predict(c.Request.Context(), req.Answers, req.Age, gender)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Prediction failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Prediction failed"})
			return
		}
		c.JSON(http.StatusOK, pred) // Only final_class and confidence
	}
}

// SubmitAssessmentHandler validates and stores a completed questionnaire
func SubmitAssessmentHandler(db *gorm.DB, rdb *redis.Client, predictor scoring.Predictor) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c) // Get userID from context
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		var req SubmitRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "age, gender and answers are required"})
			return
		}
		total, err := scoring.ValidateAnswers(req.Answers)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// A client-side total must agree with the answers
		if req.TotalScore != nil && *req.TotalScore != total {
			c.JSON(http.StatusBadRequest, gin.H{"error": scoring.ErrTotalScore.Error()})
			return
		}
		if err := scoring.ValidateAge(req.Age); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		gender, err := scoring.NormalizeGender(req.Gender)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := domain.AssessmentResult{UserID: userID, Age: req.Age, Gender: gender}
		result.SetAnswers(req.Answers) // Fills q1..q20 and total_score

		// Decide the class: client value, then the model, then the local heuristic
		switch finalClass := strings.TrimSpace(req.FinalClass); {
		case finalClass != "":
			conf := 0.0
			if req.Confidence != nil {
				if conf, err = scoring.NormalizeConfidence(*req.Confidence); err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
					return
				}
			}
			result.FinalClass, result.Confidence, result.Source = finalClass, conf, domain.SourceClient
		default:
			pred, err := predictor.Predict(c.Request.Context(), req.Answers, req.Age, gender)
			if err != nil {
				logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("Prediction unavailable, using fallback")
				fb := scoring.Fallback(req.Answers)
				pred = &fb
				result.Source = domain.SourceFallback
			} else {
				result.Source = domain.SourceModel
			}
			result.FinalClass, result.Confidence = pred.FinalClass, pred.Confidence
		}

		if err := db.Create(&result).Error; err != nil {
			logrus.WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Error("Failed to store assessment")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save assessment"})
			return
		}
		logrus.WithFields(logrus.Fields{
			"assessment_id": result.ID,         // New row
			"user_id":       userID,            // Owner
			"final_class":   result.FinalClass, // Stored class
			"source":        result.Source,     // Class origin
		}).Info("Assessment stored")
		invalidateListCaches(rdb)
		c.JSON(http.StatusCreated, gin.H{"assessment": result})
	}
}

// invalidateListCaches drops the user and assessment listings together; each embeds
// data from the other
func invalidateListCaches(rdb *redis.Client) {
	ctx := context.Background()
	_ = utils.DeleteCachePrefix(ctx, rdb, assessmentsCachePrefix) // Assessment listings
	_ = utils.DeleteCachePrefix(ctx, rdb, usersCachePrefix)       // Per-user counts
}

// ListMyAssessmentsHandler returns the caller's results, newest first
func ListMyAssessmentsHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		page := parsePage(c)
		query := db.Model(&domain.AssessmentResult{}).Where("user_id = ?", userID)
		var results []domain.AssessmentResult
		total, err := paginate(query, page, "created_at desc, id desc", &results)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessments"})
			return
		}
		c.JSON(http.StatusOK, pagedResponse("assessments", results, page, total))
	}
}

// GetAssessmentHandler returns one result to its owner or an admin
func GetAssessmentHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assessment id"})
			return
		}
		caller, ok := loadCurrentUser(c, db)
		if !ok {
			return
		}
		var result domain.AssessmentResult
		if err := db.First(&result, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessment"})
			}
			return
		}
		// Only the owner or an active admin may read a result
		if result.UserID != caller.ID && !(caller.IsAdmin() && caller.IsActive) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"assessment": result})
	}
}

// filterAssessments applies the admin listing filters shared by list and export
func filterAssessments(c *gin.Context, db *gorm.DB) (*gorm.DB, error) {
	dateRange, err := parseDateRange(c)
	if err != nil {
		return nil, err
	}
	query := db.Model(&domain.AssessmentResult{})
	if term := c.Query("search"); strings.TrimSpace(term) != "" {
		// Search by owner name or email
		query = query.Joins("JOIN users ON users.id = assessment_results.user_id")
		query = applySearch(query, term, "users.name", "users.email")
	}
	if class := strings.TrimSpace(c.Query("final_class")); class != "" {
		query = query.Where("assessment_results.final_class = ?", class)
	}
	if g := c.Query("gender"); g != "" {
		gender, err := scoring.NormalizeGender(g)
		if err != nil {
			return nil, err
		}
		query = query.Where("assessment_results.gender = ?", gender)
	}
	if uid := c.Query("user_id"); uid != "" {
		id, err := strconv.ParseUint(uid, 10, 64)
		if err != nil {
			return nil, errors.New("user_id must be a positive integer")
		}
		query = query.Where("assessment_results.user_id = ?", id)
	}
	return dateRange.Apply(query, "assessment_results.created_at"), nil
}

// ListAssessmentsHandler lists every result for admins
func ListAssessmentsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		cacheKey := listCacheKey(assessmentsCachePrefix, c, "search", "final_class", "gender", "user_id", "from", "to", "page", "page_size")
		if serveCached(c, rdb, cacheKey) {
			return // Served from cache
		}
		query, err := filterAssessments(c, db)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		page := parsePage(c)
		var results []domain.AssessmentResult
		total, err := paginate(query, page, "assessment_results.created_at desc, assessment_results.id desc", &results, "User")
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to list assessments")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessments"})
			return
		}
		respData := pagedResponse("assessments", results, page, total)
		_ = utils.SetCache(context.Background(), rdb, cacheKey, respData, listCacheTTL)
		c.JSON(http.StatusOK, respData)
	}
}

// ExportAssessmentsHandler streams the filtered results as CSV
func ExportAssessmentsHandler(db *gorm.DB, catalog *scoring.Catalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		query, err := filterAssessments(c, db)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		var results []domain.AssessmentResult
		if err := query.Preload("User").Order("assessment_results.created_at desc, assessment_results.id desc").Find(&results).Error; err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to export assessments")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to export assessments"})
			return
		}

		filename := "assessments-" + time.Now().UTC().Format("20060102") + ".csv"
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
		c.Status(http.StatusOK)

		w := csv.NewWriter(c.Writer)
		_ = w.Write(ExportHeader(catalog))
		for i := range results {
			_ = w.Write(exportRow(&results[i]))
		}
		w.Flush()
		if err := w.Error(); err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("CSV export interrupted")
		}
	}
}

// ExportHeader is the first CSV row of an assessment export
func ExportHeader(catalog *scoring.Catalog) []string {
	header := []string{"ID", "User ID", "Name", "Email", "Age", "Gender"}
	header = append(header, catalog.Texts()...)
	return append(header, "Total Score", "Final Class", "Confidence", "Created At")
}

func exportRow(r *domain.AssessmentResult) []string {
	name, email := "", ""
	if r.User != nil {
		name, email = r.User.Name, r.User.Email
	}
	row := []string{
		strconv.FormatUint(uint64(r.ID), 10),
		strconv.FormatUint(uint64(r.UserID), 10),
		name,
		email,
		strconv.Itoa(r.Age),
		r.Gender,
	}
	for _, v := range r.Answers() {
		if v == 1 {
			row = append(row, "Yes")
		} else {
			row = append(row, "No")
		}
	}
	return append(row,
		strconv.Itoa(r.TotalScore),
		r.FinalClass,
		strconv.FormatFloat(r.Confidence, 'f', 4, 64),
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
}

// DeleteAssessmentHandler removes one result
func DeleteAssessmentHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid assessment id"})
			return
		}
		res := db.Delete(&domain.AssessmentResult{}, id)
		if res.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete assessment"})
			return
		}
		if res.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Assessment not found"})
			return
		}
		logrus.WithFields(logrus.Fields{"assessment_id": id}).Info("Assessment deleted")
		invalidateListCaches(rdb)
		c.JSON(http.StatusOK, gin.H{"message": "Assessment deleted"})
	}
}
