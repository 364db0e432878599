package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/services"
	"github.com/QuizHub-2025/quiz-service/internal/utils"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type ExamHandler struct {
	BaseHandler
	examService   services.ExamService
	exportService services.ExportService
	validator     *validator.Validator
}

func NewExamHandler(
	examService services.ExamService,
	exportService services.ExportService,
	validator *validator.Validator,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler:   NewBaseHandler(logger),
		examService:   examService,
		exportService: exportService,
		validator:     validator,
	}
}

// CreateExam creates a new exam, optionally with inline questions
// @Summary Create exam
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.CreateExamRequest true "Exam data"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Router /exams [post]
func (h *ExamHandler) CreateExam(c *gin.Context) {
	h.LogRequest(c, "Creating exam")

	var req services.CreateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	exam, err := h.examService.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// UpdateExam updates exam metadata
// @Summary Update exam
// @Tags exams
// @Accept json
// @Produce json
// @Param id path uint true "Exam ID"
// @Param exam body services.UpdateExamRequest true "Update data"
// @Success 200 {object} models.Exam
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [put]
func (h *ExamHandler) UpdateExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Updating exam", "exam_id", examID)

	var req services.UpdateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	exam, err := h.examService.Update(c.Request.Context(), examID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// DeleteExam deletes an exam that has no attempts
// @Summary Delete exam
// @Tags exams
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /exams/{id} [delete]
func (h *ExamHandler) DeleteExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Deleting exam", "exam_id", examID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam deleted successfully",
	})
}

// GetExam retrieves an exam with its questions
// @Summary Get exam
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} models.Exam
// @Failure 404 {object} ErrorResponse
// @Router /exams/{id} [get]
func (h *ExamHandler) GetExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID := h.getUserID(c)
	role, _ := GetUserRoleFromContext(c)

	exam, err := h.examService.GetByID(c.Request.Context(), examID, userID, role)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, exam)
}

// ListExams lists published, active exams
// @Summary List published exams
// @Tags exams
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Exam}
// @Router /exams [get]
func (h *ExamHandler) ListExams(c *gin.Context) {
	exams, err := h.examService.ListPublished(c.Request.Context(), h.parseExamFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exams retrieved successfully",
		Data:    toExamSummaries(exams),
	})
}

// GetMyExams lists the authenticated teacher's exams
// @Summary List my exams
// @Tags exams
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]models.Exam}
// @Router /exams/my [get]
func (h *ExamHandler) GetMyExams(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	exams, err := h.examService.ListByTeacher(c.Request.Context(), userID, h.parseExamFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exams retrieved successfully",
		Data:    toExamSummaries(exams),
	})
}

// PublishExam makes an exam available to students
// @Summary Publish exam
// @Tags exams
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/publish [post]
func (h *ExamHandler) PublishExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Publishing exam", "exam_id", examID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.examService.Publish(c.Request.Context(), examID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam published successfully",
	})
}

// UnpublishExam withdraws an exam from students
// @Summary Unpublish exam
// @Tags exams
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/unpublish [post]
func (h *ExamHandler) UnpublishExam(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Unpublishing exam", "exam_id", examID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	if err := h.examService.Unpublish(c.Request.Context(), examID, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam unpublished successfully",
	})
}

// GenerateExam creates an exam with AI-generated questions
// @Summary Generate exam with AI
// @Tags exams
// @Accept json
// @Produce json
// @Param exam body services.GenerateExamRequest true "Generation parameters"
// @Success 201 {object} models.Exam
// @Failure 400 {object} ErrorResponse
// @Router /exams/generate [post]
func (h *ExamHandler) GenerateExam(c *gin.Context) {
	h.LogRequest(c, "Generating exam with AI")

	var req services.GenerateExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	exam, err := h.examService.GenerateWithAI(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, exam)
}

// GetExamStats retrieves aggregate attempt statistics for an exam
// @Summary Get exam stats
// @Tags exams
// @Produce json
// @Param id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse{data=models.ExamStats}
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/stats [get]
func (h *ExamHandler) GetExamStats(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	stats, err := h.examService.GetStats(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Exam stats retrieved successfully",
		Data:    stats,
	})
}

// ExportExamResults streams the exam's attempts as an xlsx workbook
// @Summary Export exam results
// @Tags exams
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path uint true "Exam ID"
// @Success 200 {file} binary
// @Failure 403 {object} ErrorResponse
// @Router /exams/{id}/export [get]
func (h *ExamHandler) ExportExamResults(c *gin.Context) {
	examID := h.parseIDParam(c, "id")
	if examID == 0 {
		return
	}

	h.LogRequest(c, "Exporting exam results", "exam_id", examID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	data, filename, err := h.exportService.ExportExamResults(c.Request.Context(), examID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}

func toExamSummaries(exams []models.Exam) []models.ExamSummary {
	summaries := make([]models.ExamSummary, 0, len(exams))
	for _, exam := range exams {
		summaries = append(summaries, models.ExamSummary{
			ID:              exam.ID,
			Title:           exam.Title,
			SubjectName:     exam.SubjectName,
			DurationMinutes: exam.DurationMinutes,
			TotalQuestions:  exam.TotalQuestions,
			DifficultyLevel: exam.DifficultyLevel,
			IsPublished:     exam.IsPublished,
			TeacherID:       exam.TeacherID,
			CreatedAt:       exam.CreatedAt,
		})
	}
	return summaries
}

func (h *ExamHandler) parseExamFilters(c *gin.Context) services.ExamListFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 20)

	filters := services.ExamListFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if subject := c.Query("subject"); subject != "" {
		filters.SubjectName = &subject
	}
	if difficulty := c.Query("difficulty"); difficulty != "" {
		level := models.DifficultyLevel(difficulty)
		filters.Difficulty = &level
	}

	return filters
}
