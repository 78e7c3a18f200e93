package router

import (
	"net/http"
	"time"

	"github.com/examlane/examlane-backend/internal/config"
	"github.com/examlane/examlane-backend/internal/handler"
	"github.com/examlane/examlane-backend/internal/middleware"
	"github.com/examlane/examlane-backend/internal/response"
	"github.com/examlane/examlane-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Portal   *handler.PortalHandler
	Exam     *handler.ExamHandler
	Question *handler.QuestionHandler
	WS       *handler.WSHandler
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

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
		auth.POST("/signup", handlers.Auth.Signup)
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireUserJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireUserJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Exam-Taker Group (JWT + Session Check) ─────────────────────
	takerAPI := router.Group("/api/v1/exams")
	takerAPI.Use(
		middleware.RequireUserJWT(authService),
		middleware.CheckSession(authService),
	)
	{
		takerAPI.GET("", handlers.Portal.ListExams)
		takerAPI.POST("/:exam_id/start", handlers.Portal.StartExam)
		takerAPI.GET("/:exam_id/questions", handlers.Portal.GetExamQuestions)
		takerAPI.GET("/:exam_id/progress", handlers.Portal.GetProgress)
		takerAPI.PUT("/:exam_id/progress", handlers.Portal.SaveProgress)
		takerAPI.POST("/submit", handlers.Portal.SubmitExam)
		takerAPI.GET("/:exam_id/result", handlers.Portal.GetMyResult)
	}

	// ─── 3. WebSocket Group (Taker WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireUserWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/clock", handlers.WS.ClockStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		adminAPI.PATCH("/exams/:exam_id/active", handlers.Exam.SetExamActive)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		adminAPI.GET("/exams/:exam_id/results", handlers.Exam.GetExamResults)

		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.AddQuestions)
	}

	return router
}
