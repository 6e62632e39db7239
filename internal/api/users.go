package api

import (
	"context"  // Context for Redis operations
	"errors"   // Error values
	"net/http" // HTTP status codes
	"time"     // Timestamps

	"srq_assessment/internal/domain"     // Importing domain models
	"srq_assessment/internal/middleware" // Authenticated user helpers
	"srq_assessment/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

const usersCachePrefix = "admin:users:"

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID              uint       `json:"id"`               // User ID
	Name            string     `json:"name"`             // Display name
	Email           string     `json:"email"`            // Email
	Phone           string     `json:"phone"`            // Phone
	Role            string     `json:"role"`             // User role
	IsActive        bool       `json:"is_active"`        // Account status
	CreatedAt       time.Time  `json:"created_at"`       // Registration time
	LastLogin       *time.Time `json:"last_login"`       // Last login time
	AssessmentCount int64      `json:"assessment_count"` // Number of stored results
}

func toUserAdminResponse(u domain.User, count int64) UserAdminResponse {
	return UserAdminResponse{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		Phone:           u.Phone,
		Role:            u.Role,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
		LastLogin:       u.LastLogin,
		AssessmentCount: count,
	}
}

// assessmentCounts returns result counts keyed by user id
func assessmentCounts(db *gorm.DB, ids []uint) (map[uint]int64, error) {
	out := make(map[uint]int64, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []struct {
		UserID uint
		Count  int64
	}
	err := db.Model(&domain.AssessmentResult{}).
		Select("user_id, COUNT(*) AS count").
		Where("user_id IN ?", ids).
		Group("user_id").
		Scan(&rows).Error
	for _, r := range rows {
		out[r.UserID] = r.Count
	}
	return out, err
}

// ListUsersHandler returns users filtered by search, role, status and registration date
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Create a cache key based on every accepted query parameter
		cacheKey := listCacheKey(usersCachePrefix, c, "search", "role", "status", "from", "to", "page", "page_size")
		if serveCached(c, rdb, cacheKey) {
			return // Served from cache
		}
		page := parsePage(c)
		dateRange, err := parseDateRange(c)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		query := db.Model(&domain.User{}) // Start building the query
		query = applySearch(query, c.Query("search"), "name", "email")
		if role := c.Query("role"); role != "" {
			if role != domain.RoleUser && role != domain.RoleAdmin {
				c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
				return
			}
			query = query.Where("role = ?", role) // Filter by role
		}
		switch c.Query("status") {
		case "":
		case "active":
			query = query.Where("is_active = ?", true) // Only active accounts
		case "inactive":
			query = query.Where("is_active = ?", false) // Only deactivated accounts
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "status must be active or inactive"})
			return
		}
		query = dateRange.Apply(query, "created_at") // Filter by registration date

		var users []domain.User // Slice to hold users
		total, err := paginate(query, page, "created_at desc, id desc", &users)
		if err != nil {
			logrus.WithFields(logrus.Fields{"error": err.Error()}).Error("Failed to list users")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		ids := make([]uint, len(users))
		for i, u := range users {
			ids[i] = u.ID
		}
		counts, err := assessmentCounts(db, ids)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count assessments"})
			return
		}
		// Map users to response format
		resp := make([]UserAdminResponse, len(users))
		for i, u := range users {
			resp[i] = toUserAdminResponse(u, counts[u.ID])
		}
		respData := pagedResponse("users", resp, page, total)
		// Cache the response for future requests
		_ = utils.SetCache(context.Background(), rdb, cacheKey, respData, listCacheTTL)
		c.JSON(http.StatusOK, respData) // Return the response
	}
}

// findUser loads the :id user, writing 400/404/500 itself
func findUser(c *gin.Context, db *gorm.DB) (*domain.User, bool) {
	id, ok := idParam(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return nil, false
	}
	var user domain.User
	if err := db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		}
		return nil, false
	}
	return &user, true
}

// GetUserHandler returns one user with their most recent results
func GetUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		counts, err := assessmentCounts(db, []uint{user.ID})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count assessments"})
			return
		}
		var recent []domain.AssessmentResult
		if err := db.Where("user_id = ?", user.ID).Order("created_at desc, id desc").Limit(5).Find(&recent).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch assessments"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"user":               toUserAdminResponse(*user, counts[user.ID]),
			"recent_assessments": recent,
		})
	}
}

// UpdateRoleRequest carries the new role
type UpdateRoleRequest struct {
	Role string `json:"role" binding:"required"` // user or admin
}

// UpdateUserRoleHandler promotes or demotes a user
func UpdateUserRoleHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil || (req.Role != domain.RoleUser && req.Role != domain.RoleAdmin) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "role must be user or admin"})
			return
		}
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		// Admins cannot demote themselves
		if self, _ := middleware.CurrentUserID(c); self == user.ID && req.Role != domain.RoleAdmin {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot remove your own admin role"})
			return
		}
		if err := db.Model(user).Update("role", req.Role).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
			return
		}
		user.Role = req.Role
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "role": req.Role}).Info("User role changed")
		invalidateListCaches(rdb) // Both listings show role and status
		c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user": toUserAdminResponse(*user, 0)})
	}
}

// UpdateStatusRequest carries the new activation flag
type UpdateStatusRequest struct {
	IsActive *bool `json:"is_active" binding:"required"` // New status
}

// UpdateUserStatusHandler activates or deactivates a user
func UpdateUserStatusHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.IsActive == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "is_active is required"})
			return
		}
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		if self, _ := middleware.CurrentUserID(c); self == user.ID && !*req.IsActive {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot deactivate your own account"})
			return
		}
		if err := db.Model(user).Update("is_active", *req.IsActive).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
			return
		}
		user.IsActive = *req.IsActive
		logrus.WithFields(logrus.Fields{"user_id": user.ID, "is_active": *req.IsActive}).Info("User status changed")
		invalidateListCaches(rdb) // Both listings show role and status
		c.JSON(http.StatusOK, gin.H{"message": "Status updated", "user": toUserAdminResponse(*user, 0)})
	}
}

// DeleteUserHandler removes a user and their results
func DeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
			return
		}
		// Prevent deleting the account making the request
		if self, _ := middleware.CurrentUserID(c); self == id {
			c.JSON(http.StatusBadRequest, gin.H{"error": "You cannot delete your own account"})
			return
		}
		user, ok := findUser(c, db)
		if !ok {
			return
		}
		// Delete results and user atomically
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Where("user_id = ?", user.ID).Delete(&domain.AssessmentResult{}).Error; err != nil {
				return err // Return error to rollback
			}
			return tx.Delete(user).Error
		})
		if err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("User deletion failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User deleted")
		invalidateListCaches(rdb) // Drop the user and their results from listings
		c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
	}
}
