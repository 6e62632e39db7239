package api

import (
	"srq_assessment/internal/config"     // Configuration
	"srq_assessment/internal/middleware" // Custom package for middleware
	"srq_assessment/internal/scoring"    // Question catalog and predictor

	"github.com/gin-contrib/gzip"  // Response compression
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the shared services handed to every handler
type Deps struct {
	DB        *gorm.DB          // Database handle
	Redis     *redis.Client     // Cache client, nil disables caching
	Config    *config.Config    // Loaded configuration
	Predictor scoring.Predictor // Prediction service client
	Catalog   *scoring.Catalog  // SRQ-20 question list
	Snapshots SnapshotClock     // Stats job, nil when not scheduled
}

// NewRouter wires every route onto a gin engine
func NewRouter(d Deps) (*gin.Engine, error) {
	r := gin.New()                                    // Gin router instance
	r.Use(gin.Recovery(), middleware.RequestLogger()) // Panic recovery and request logs
	// gzip, excluding the health check
	r.Use(gzip.Gzip(
		gzip.DefaultCompression,
		gzip.WithExcludedPaths([]string{"/health"}),
	))

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, err
	}

	secret := d.Config.JWTSecret
	auth := middleware.JWTAuthMiddleware(secret)
	admin := middleware.AdminOnly(d.DB)

	r.GET("/health", HealthHandler(d.DB, d.Redis, d.Snapshots)) // Liveness and dependencies

	// Auth routes
	r.POST("/register", RegisterHandler(d.DB, d.Redis))                    // Registration endpoint
	r.POST("/login", LoginHandler(d.DB, d.Redis, secret, d.Config.JWTTTL)) // Login endpoint
	r.GET("/profile", auth, ProfileHandler(d.DB))                          // Own profile
	r.PUT("/profile", auth, UpdateProfileHandler(d.DB, d.Redis))           // Update own profile
	r.POST("/change-password", auth, ChangePasswordHandler(d.DB))          // Change own password

	apiGroup := r.Group("/api")
	apiGroup.POST("/predict", auth, PredictHandler(d.Predictor)) // Prediction proxy

	// Assessment routes
	assessments := apiGroup.Group("/assessments")
	assessments.POST("", auth, SubmitAssessmentHandler(d.DB, d.Redis, d.Predictor))    // Submit a questionnaire
	assessments.GET("/me", auth, ListMyAssessmentsHandler(d.DB))                       // Own history
	assessments.GET("", auth, admin, ListAssessmentsHandler(d.DB, d.Redis))            // All results
	assessments.GET("/export", auth, admin, ExportAssessmentsHandler(d.DB, d.Catalog)) // CSV export
	assessments.GET("/:id", auth, GetAssessmentHandler(d.DB))                          // One result
	assessments.DELETE("/:id", auth, admin, DeleteAssessmentHandler(d.DB, d.Redis))    // Delete a result

	// User administration (protected, admin only)
	users := apiGroup.Group("/users", auth, admin)
	users.GET("", ListUsersHandler(d.DB, d.Redis))                   // List users endpoint
	users.GET("/:id", GetUserHandler(d.DB))                          // One user
	users.PUT("/:id/role", UpdateUserRoleHandler(d.DB, d.Redis))     // Promote or demote
	users.PUT("/:id/status", UpdateUserStatusHandler(d.DB, d.Redis)) // Activate or deactivate
	users.DELETE("/:id", DeleteUserHandler(d.DB, d.Redis))           // Delete user and results

	// Article routes, reads are public
	arts := apiGroup.Group("/articles")
	arts.GET("", ListArticlesHandler(d.DB, d.Redis))                        // List articles
	arts.GET("/categories", ArticleCategoriesHandler())                     // Category list
	arts.GET("/:id", GetArticleHandler(d.DB))                               // One article
	arts.POST("", auth, admin, CreateArticleHandler(d.DB, d.Redis))         // Create article
	arts.POST("/import", auth, admin, ImportArticlesHandler(d.DB, d.Redis)) // CSV import
	arts.PUT("/:id", auth, admin, UpdateArticleHandler(d.DB, d.Redis))      // Update article
	arts.DELETE("/:id", auth, admin, DeleteArticleHandler(d.DB, d.Redis))   // Delete article

	// Dashboards
	dash := apiGroup.Group("/dashboard", auth)
	dash.GET("/stats", admin, DashboardStatsHandler(d.DB, d.Redis, d.Catalog)) // Admin statistics
	dash.GET("/me", MyDashboardHandler(d.DB))                                  // Personal summary

	return r, nil
}
