package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/repositories/casdoor"
	"github.com/QuizHub-2025/quiz-service/internal/services"
	"github.com/QuizHub-2025/quiz-service/internal/utils"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type HandlerManager struct {
	examHandler    *ExamHandler
	attemptHandler *AttemptHandler
	authMiddleware *CasdoorAuthMiddleware
}

func NewHandlerManager(
	serviceManager *services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
	casdoorConfig casdoor.CasdoorConfig,
	userRepo repositories.UserRepository,
) *HandlerManager {
	authMiddleware := NewCasdoorAuthMiddleware(casdoorConfig, userRepo)

	return &HandlerManager{
		examHandler:    NewExamHandler(serviceManager.ExamService(), serviceManager.ExportService(), validator, logger),
		attemptHandler: NewAttemptHandler(serviceManager.AttemptService(), serviceManager.FeedbackService(), validator, logger),
		authMiddleware: authMiddleware,
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	teacherOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleTeacher, models.RoleAdmin)
	adminOnly := hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin)

	v1 := router.Group("/api/v1")
	v1.Use(hm.authMiddleware.AuthMiddleware())
	{
		// Exam routes
		exams := v1.Group("/exams")
		{
			// Authoring - Teachers and Admins only
			exams.POST("", teacherOnly, hm.examHandler.CreateExam)
			exams.POST("/generate", teacherOnly, hm.examHandler.GenerateExam)
			exams.PUT("/:id", teacherOnly, hm.examHandler.UpdateExam)
			exams.DELETE("/:id", teacherOnly, hm.examHandler.DeleteExam)
			exams.POST("/:id/publish", teacherOnly, hm.examHandler.PublishExam)
			exams.POST("/:id/unpublish", teacherOnly, hm.examHandler.UnpublishExam)
			exams.GET("/my", teacherOnly, hm.examHandler.GetMyExams)
			exams.GET("/:id/stats", teacherOnly, hm.examHandler.GetExamStats)
			exams.GET("/:id/export", teacherOnly, hm.examHandler.ExportExamResults)

			// Browsing - all authenticated users
			exams.GET("", hm.examHandler.ListExams)
			exams.GET("/:id", hm.examHandler.GetExam)
		}

		// Attempt routes
		attempts := v1.Group("/attempts")
		{
			attempts.POST("/start", hm.attemptHandler.StartAttempt)
			attempts.POST("/:id/answer", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/finish", hm.attemptHandler.FinishAttempt)
			attempts.GET("/:id/results", hm.attemptHandler.GetResults)
			attempts.GET("/:id/feedback", hm.attemptHandler.GetFeedback)
			attempts.GET("/my", hm.attemptHandler.GetMyAttempts)

			// Teacher views of attempts on their exams
			attempts.GET("/exam/:exam_id", teacherOnly, hm.attemptHandler.GetAttemptsByExam)

			// Maintenance - Admins only
			attempts.DELETE("/:id", adminOnly, hm.attemptHandler.DeleteAttempt)
		}
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "quiz-service",
		})
	})
}
