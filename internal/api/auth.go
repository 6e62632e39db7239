package api

import (
	"errors"   // Error values
	"net/http" // HTTP status codes
	"net/mail" // Email address parsing
	"strings"  // String manipulation
	"time"     // Token lifetime and login time

	"srq_assessment/internal/domain"     // Importing domain models
	"srq_assessment/internal/middleware" // Authenticated user helpers
	"srq_assessment/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// Request and Response structs
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Phone    string `json:"phone"`                       // Optional phone number
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Request struct for login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Response struct for authentication
type AuthResponse struct {
	Token string       `json:"token"` // JWT token
	User  *domain.User `json:"user"`  // Logged in user
}

// Request struct for profile updates
type ProfileRequest struct {
	Name  string `json:"name" binding:"required"` // New display name
	Phone string `json:"phone"`                   // New phone number
}

// Request struct for password changes
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"` // Current password
	NewPassword     string `json:"new_password" binding:"required"`     // Replacement password
}

// normalizeEmail trims and lower-cases the address, returning false if it is malformed
func normalizeEmail(email string) (string, bool) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", false
	}
	return email, true
}

// isValidPassword checks if the password length is between 8 and 64 characters
func isValidPassword(password string) bool {
	return len(password) >= 8 && len(password) <= 64 // Return true if length is valid
}

// RegisterHandler creates a user account with the user role
func RegisterHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name, email and password are required"})
			return
		}
		email, ok := normalizeEmail(req.Email) // Validate email
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid email address"})
			return
		}
		name := strings.TrimSpace(req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		// Validate password length
		if !isValidPassword(req.Password) {
			// If password is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-64 characters"})
			return
		}
		// Check for an existing account first so the client gets a clear message
		var existing domain.User
		if err := db.Where("email = ?", email).First(&existing).Error; err == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
			return
		}
		// Hash the password and create the user
		hash, err := utils.HashPassword(req.Password)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user := domain.User{
			Name:         name,                         // Display name
			Email:        email,                        // Lower-cased email
			Phone:        strings.TrimSpace(req.Phone), // Optional phone
			PasswordHash: hash,                         // Bcrypt hash
			Role:         domain.RoleUser,              // New accounts are plain users
			IsActive:     true,                         // Active from the start
		}
		// Attempt to create the user; the unique index guards against races
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
				return
			}
			logrus.WithFields(logrus.Fields{
				"email": email,       // Attempted email
				"error": err.Error(), // Error message
			}).Error("Registration failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}
		invalidateListCaches(rdb) // New row in the user listing
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("User registered")
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(db *gorm.DB, rdb *redis.Client, jwtSecret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error; err != nil {
			// If user not found, return unauthorized
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Compare provided password with stored hash
		if !utils.CheckPassword(user.PasswordHash, req.Password) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			return
		}
		// Deactivated accounts keep their data but cannot sign in
		if !user.IsActive {
			c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
			return
		}
		// Generate JWT token
		token, err := utils.GenerateJWT(user.ID, user.Email, user.Role, jwtSecret, ttl)
		if err != nil {
			// If token generation fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
			return
		}
		now := time.Now().UTC()
		if err := db.Model(&user).Update("last_login", now).Error; err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Warn("Failed to record last login")
		} else {
			invalidateListCaches(rdb) // Listings show last_login
		}
		user.LastLogin = &now
		// Return the token in the response
		c.JSON(http.StatusOK, AuthResponse{Token: token, User: &user})
	}
}

// loadCurrentUser fetches the authenticated user, writing the error response itself
func loadCurrentUser(c *gin.Context, db *gorm.DB) (*domain.User, bool) {
	userID, ok := middleware.CurrentUserID(c) // Get userID from context
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return nil, false
	}
	var user domain.User
	if err := db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load user"})
		}
		return nil, false
	}
	return &user, true
}

// ProfileHandler returns the authenticated user's profile
func ProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadCurrentUser(c, db)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user})
	}
}

// UpdateProfileHandler changes the authenticated user's name and phone
func UpdateProfileHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name is required"})
			return
		}
		user, ok := loadCurrentUser(c, db)
		if !ok {
			return
		}
		user.Name = strings.TrimSpace(req.Name)   // New name
		user.Phone = strings.TrimSpace(req.Phone) // New phone
		updates := map[string]any{"name": user.Name, "phone": user.Phone}
		if err := db.Model(user).Updates(updates).Error; err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("Profile update failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		invalidateListCaches(rdb) // Assessment listings embed the user's name
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": user})
	}
}

// ChangePasswordHandler replaces the password after verifying the current one
func ChangePasswordHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Current and new password are required"})
			return
		}
		if !isValidPassword(req.NewPassword) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be 8-64 characters"})
			return
		}
		user, ok := loadCurrentUser(c, db)
		if !ok {
			return
		}
		if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
			return
		}
		hash, err := utils.HashPassword(req.NewPassword)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		if err := db.Model(user).Update("password_hash", hash).Error; err != nil {
			logrus.WithFields(logrus.Fields{"user_id": user.ID, "error": err.Error()}).Error("Password change failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change password"})
			return
		}
		logrus.WithFields(logrus.Fields{"user_id": user.ID}).Info("Password changed")
		c.JSON(http.StatusOK, gin.H{"message": "Password changed successfully"})
	}
}
