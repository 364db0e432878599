package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/QuizHub-2025/quiz-service/internal/services"
	"github.com/QuizHub-2025/quiz-service/internal/utils"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService  services.AttemptService
	feedbackService services.FeedbackService
	validator       *validator.Validator
}

func NewAttemptHandler(
	attemptService services.AttemptService,
	feedbackService services.FeedbackService,
	validator *validator.Validator,
	logger utils.Logger,
) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:     NewBaseHandler(logger),
		attemptService:  attemptService,
		feedbackService: feedbackService,
		validator:       validator,
	}
}

// StartAttempt starts a new exam attempt
// @Summary Start exam attempt
// @Description Starts a new attempt for a published exam
// @Tags attempts
// @Accept json
// @Produce json
// @Param attempt body services.StartAttemptRequest true "Start attempt data"
// @Success 201 {object} services.AttemptResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/start [post]
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	h.LogRequest(c, "Starting exam attempt")

	var req services.StartAttemptRequest
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

	attempt, err := h.attemptService.Start(c.Request.Context(), &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

// SubmitAnswer submits an answer for a question in an attempt
// @Summary Submit answer
// @Description Submits or replaces the answer for one question
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param answer body services.SubmitAnswerRequest true "Answer data"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/answer [post]
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Submitting answer", "attempt_id", attemptID)

	var req services.SubmitAnswerRequest
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

	if err := h.attemptService.SubmitAnswer(c.Request.Context(), attemptID, &req, userID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Answer submitted successfully",
	})
}

// FinishAttempt completes an attempt and computes its score
// @Summary Finish exam attempt
// @Description Completes the attempt, scores it and queues feedback generation
// @Tags attempts
// @Accept json
// @Produce json
// @Param id path uint true "Attempt ID"
// @Param finish body services.FinishAttemptRequest true "Finish data"
// @Success 200 {object} services.AttemptResponse
// @Failure 404 {object} ErrorResponse
// @Failure 409 {object} ErrorResponse
// @Router /attempts/{id}/finish [post]
func (h *AttemptHandler) FinishAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Finishing exam attempt", "attempt_id", attemptID)

	// Body is optional; an empty request uses wall-clock time
	var req services.FinishAttemptRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Message: "Invalid request payload",
				Details: err.Error(),
			})
			return
		}
	}

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	attempt, err := h.attemptService.Finish(c.Request.Context(), attemptID, &req, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, attempt)
}

// GetResults retrieves the full results of an attempt
// @Summary Get attempt results
// @Description Returns the attempt with per-question answers and feedback
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.AttemptResultsResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/results [get]
func (h *AttemptHandler) GetResults(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Getting attempt results", "attempt_id", attemptID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	results, err := h.attemptService.GetResults(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// GetFeedback retrieves the AI feedback for an attempt
// @Summary Get attempt feedback
// @Tags attempts
// @Produce json
// @Param id path uint true "Attempt ID"
// @Success 200 {object} services.FeedbackResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id}/feedback [get]
func (h *AttemptHandler) GetFeedback(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Getting attempt feedback", "attempt_id", attemptID)

	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	feedback, err := h.feedbackService.GetByAttempt(c.Request.Context(), attemptID, userID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, feedback)
}

// GetMyAttempts lists the authenticated student's attempts
// @Summary List my attempts
// @Tags attempts
// @Produce json
// @Success 200 {object} SuccessResponse{data=[]services.AttemptResponse}
// @Router /attempts/my [get]
func (h *AttemptHandler) GetMyAttempts(c *gin.Context) {
	userID := h.getUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return
	}

	h.LogRequest(c, "Listing student attempts", "student_id", userID)

	attempts, err := h.attemptService.GetByStudent(c.Request.Context(), userID, h.parseAttemptFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempts retrieved successfully",
		Data:    attempts,
	})
}

// GetAttemptsByExam lists attempts for an exam the teacher owns
// @Summary List attempts by exam
// @Tags attempts
// @Produce json
// @Param exam_id path uint true "Exam ID"
// @Success 200 {object} SuccessResponse{data=[]services.AttemptResponse}
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/exam/{exam_id} [get]
func (h *AttemptHandler) GetAttemptsByExam(c *gin.Context) {
	examID := h.parseIDParam(c, "exam_id")
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

	h.LogRequest(c, "Listing attempts by exam", "exam_id", examID)

	attempts, err := h.attemptService.GetByExam(c.Request.Context(), examID, userID, h.parseAttemptFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempts retrieved successfully",
		Data:    attempts,
	})
}

// DeleteAttempt removes an attempt with all its answers and feedback
// @Summary Delete attempt
// @Tags attempts
// @Param id path uint true "Attempt ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse
// @Router /attempts/{id} [delete]
func (h *AttemptHandler) DeleteAttempt(c *gin.Context) {
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Deleting attempt", "attempt_id", attemptID)

	if err := h.attemptService.Delete(c.Request.Context(), attemptID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Message: "Attempt deleted successfully",
	})
}

func (h *AttemptHandler) parseAttemptFilters(c *gin.Context) services.AttemptListFilters {
	page := h.parseIntQuery(c, "page", 1)
	size := h.parseIntQuery(c, "size", 10)

	filters := services.AttemptListFilters{
		Limit:  size,
		Offset: (page - 1) * size,
	}

	if completed := c.Query("completed"); completed != "" {
		isCompleted := completed == "true"
		filters.IsCompleted = &isCompleted
	}

	return filters
}
