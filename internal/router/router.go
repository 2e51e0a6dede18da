package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/priyankaksolves/student-exam-app/internal/config"
	"github.com/priyankaksolves/student-exam-app/internal/handler"
	"github.com/priyankaksolves/student-exam-app/internal/middleware"
	"github.com/priyankaksolves/student-exam-app/internal/response"
	"github.com/priyankaksolves/student-exam-app/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth       *handler.AuthHandler
	Exam       *handler.ExamHandler
	Question   *handler.QuestionHandler
	Assignment *handler.AssignmentHandler
	Attempt    *handler.AttemptHandler
	Code       *handler.CodeHandler
	Proctor    *handler.ProctorHandler
	User       *handler.UserHandler
	WS         *handler.WSHandler
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
		auth.POST("/register", handlers.Auth.Register)
		auth.POST("/login", handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.Attempt.ListAssignedExams)

		studentAPI.POST("/attempts/:assignment_id/start", handlers.Attempt.StartAttempt)
		studentAPI.GET("/attempts/:assignment_id/paper", handlers.Attempt.GetPaper)
		studentAPI.GET("/attempts/:assignment_id/state", handlers.Attempt.GetState)
		studentAPI.POST("/attempts/:assignment_id/submit", handlers.Attempt.SubmitAttempt)
		studentAPI.GET("/attempts/:assignment_id/result", handlers.Attempt.GetResult)

		// Code execution for coding questions
		studentAPI.GET("/code/languages", handlers.Code.ListLanguages)
		studentAPI.GET("/code/runs/:token", handlers.Code.PollRun)
		studentAPI.POST("/attempts/:assignment_id/questions/:question_id/run", handlers.Code.RunCode)
		studentAPI.POST("/attempts/:assignment_id/questions/:question_id/submit-code", handlers.Code.SubmitCode)

		// Webcam proctoring
		studentAPI.GET("/proctoring/registration-url", handlers.Proctor.RegistrationURL)
		studentAPI.GET("/proctoring/status", handlers.Proctor.RegistrationStatus)
		studentAPI.GET("/attempts/:assignment_id/proctoring/monitoring-url", handlers.Proctor.MonitoringURL)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/student/attempts/:assignment_id/stream", handlers.WS.AttemptStream)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam management
		adminAPI.GET("/exams", handlers.Exam.ListExams)
		adminAPI.POST("/exams", handlers.Exam.CreateExam)
		adminAPI.GET("/exams/:exam_id", handlers.Exam.GetExam)
		adminAPI.PUT("/exams/:exam_id", handlers.Exam.UpdateExam)
		adminAPI.DELETE("/exams/:exam_id", handlers.Exam.DeleteExam)
		adminAPI.POST("/exams/:exam_id/publish", handlers.Exam.PublishExam)
		adminAPI.POST("/exams/:exam_id/unpublish", handlers.Exam.UnpublishExam)
		adminAPI.GET("/exams/:exam_id/results", handlers.Exam.ExamResults)

		// Question authoring
		adminAPI.GET("/exams/:exam_id/questions", handlers.Question.ListQuestions)
		adminAPI.POST("/exams/:exam_id/questions", handlers.Question.AddQuestion)
		adminAPI.PUT("/exams/:exam_id/questions/:question_id", handlers.Question.UpdateQuestion)
		adminAPI.DELETE("/exams/:exam_id/questions/:question_id", handlers.Question.DeleteQuestion)

		// Assignments
		adminAPI.POST("/exams/:exam_id/assignments", handlers.Assignment.AssignStudents)
		adminAPI.PUT("/assignments/:assignment_id", handlers.Assignment.RescheduleAssignment)
		adminAPI.DELETE("/assignments/:assignment_id", handlers.Assignment.RemoveAssignment)

		// Student directory for assignment pickers
		adminAPI.GET("/students", handlers.User.ListStudents)
	}

	return router
}
