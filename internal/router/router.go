package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/mkce-labs/vivalab-backend/internal/config"
	"github.com/mkce-labs/vivalab-backend/internal/handler"
	"github.com/mkce-labs/vivalab-backend/internal/middleware"
	"github.com/mkce-labs/vivalab-backend/internal/response"
	"github.com/mkce-labs/vivalab-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Viva     *handler.VivaHandler
	Catalog  *handler.CatalogHandler
	Schedule *handler.ScheduleHandler
	Results  *handler.ResultsHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/register", handlers.Auth.StudentRegister)
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/teacher/login", handlers.Auth.TeacherLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.StudentProfile)
		auth.GET("/teacher/me", middleware.RequireTeacherJWT(authService), handlers.Auth.TeacherProfile)
	}

	// ─── 2. Catalog Group (Any Authenticated User) ─────────────────────
	// Students browse the same catalog teachers manage, so both token
	// types are accepted here.
	catalog := router.Group("/api/v1")
	catalog.Use(requireAnyJWT(authService))
	{
		// Catalog reads change rarely; let clients cache them briefly.
		catalog.GET("/labs", middleware.CacheControl(300), handlers.Catalog.ListLabs)
		catalog.GET("/labs/:id/experiments", middleware.CacheControl(300), handlers.Catalog.ListExperiments)
		catalog.GET("/experiments/:id", middleware.CacheControl(300), handlers.Catalog.GetExperiment)
		catalog.GET("/experiments/:id/schedule", handlers.Schedule.GetForExperiment)
		catalog.GET("/schedules/today", handlers.Schedule.ListToday)
	}

	// ─── 3. Student Group (JWT + Single Session) ───────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(middleware.RequireStudentJWT(authService))
	{
		studentAPI.POST("/experiments/:id/viva/start", handlers.Viva.Start)
		studentAPI.POST("/viva/:sessionID/answers", handlers.Viva.SubmitAnswer)
		studentAPI.POST("/viva/:sessionID/finalize", handlers.Viva.Finalize)
		studentAPI.POST("/viva/:sessionID/violation", handlers.Viva.ReportViolation)
		studentAPI.GET("/viva/:sessionID/progress", handlers.Viva.Progress)
		studentAPI.GET("/results", handlers.Results.StudentResults)
	}

	// ─── 4. Teacher Group (JWT) ────────────────────────────────────────
	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.POST("/schedules", handlers.Schedule.Create)
		teacherAPI.GET("/schedules", handlers.Schedule.List)
		teacherAPI.DELETE("/schedules/:id", handlers.Schedule.Delete)

		teacherAPI.PUT("/labs/:id/experiments", handlers.Catalog.UpsertExperiment)
		teacherAPI.PUT("/experiments/:id/materials", handlers.Catalog.UpdateMaterials)
		teacherAPI.POST("/catalog/sync", handlers.Catalog.SyncCatalog)

		teacherAPI.GET("/experiments/:id/results", handlers.Results.ExperimentResults)
		teacherAPI.GET("/roster/marks", handlers.Results.RosterMarks)
		teacherAPI.POST("/students/:id/reset-session", handlers.Auth.ResetStudentSession)
		teacherAPI.POST("/sessions/reset-stranded", handlers.Viva.ResetStranded)
	}

	return router
}

// requireAnyJWT admits both token types without the student single-session
// check; read-only catalog routes don't need seat enforcement.
func requireAnyJWT(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := middleware.GetClaims(c)
		if claims != nil {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if len(header) <= len(prefix) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		parsed, err := authService.ValidateToken(header[len(prefix):])
		if err != nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenInvalid)
			return
		}

		c.Set(middleware.ContextKeyClaims, parsed)
		c.Next()
	}
}
