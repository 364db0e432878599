package services

import (
	"context"
	"time"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

// ===== ATTEMPT DTOs =====

type StartAttemptRequest struct {
	ExamID uint `json:"exam_id" validate:"required"`
}

type SubmitAnswerRequest struct {
	QuestionID       uint    `json:"question_id" validate:"required"`
	SelectedOptionID *uint   `json:"selected_option_id"`
	AnswerText       *string `json:"answer_text" validate:"omitempty,max=5000"`
	TimeSpentSeconds int     `json:"time_spent_seconds" validate:"omitempty,min=0"`
}

type FinishAttemptRequest struct {
	TotalTimeSpentMinutes *int `json:"total_time_spent_minutes" validate:"omitempty,min=0"`
}

type AttemptResponse struct {
	ID               uint       `json:"id"`
	ExamID           uint       `json:"exam_id"`
	ExamTitle        string     `json:"exam_title,omitempty"`
	StudentID        string     `json:"student_id"`
	AttemptNumber    int        `json:"attempt_number"`
	StartTime        time.Time  `json:"start_time"`
	EndTime          *time.Time `json:"end_time"`
	IsCompleted      bool       `json:"is_completed"`
	TotalQuestions   int        `json:"total_questions"`
	CorrectAnswers   int        `json:"correct_answers"`
	Score            float64    `json:"score"`
	TimeSpentMinutes int        `json:"time_spent_minutes"`
	AnsweredCount    int        `json:"answered_count"`

	// CanSubmitAnswers is false once the attempt is completed
	CanSubmitAnswers bool `json:"can_submit_answers"`
}

type AnswerResult struct {
	QuestionID         uint                `json:"question_id"`
	QuestionText       string              `json:"question_text"`
	QuestionType       models.QuestionType `json:"question_type"`
	SelectedOptionID   *uint               `json:"selected_option_id"`
	SelectedOptionText *string             `json:"selected_option_text"`
	AnswerText         *string             `json:"answer_text"`
	IsCorrect          *bool               `json:"is_correct"`
	TimeSpentSeconds   int                 `json:"time_spent_seconds"`
}

type FeedbackResponse struct {
	FeedbackText         string    `json:"feedback_text"`
	ImprovementAreas     []string  `json:"improvement_areas"`
	Strengths            []string  `json:"strengths"`
	RecommendedResources []string  `json:"recommended_resources"`
	GeneratedAt          time.Time `json:"generated_at"`
}

type AttemptResultsResponse struct {
	Attempt  AttemptResponse   `json:"attempt"`
	Answers  []AnswerResult    `json:"answers"`
	Feedback *FeedbackResponse `json:"feedback"`
}

type AttemptListFilters struct {
	IsCompleted *bool
	Limit       int
	Offset      int
}

// ===== EXAM DTOs =====

type CreateOptionRequest struct {
	OptionText string `json:"option_text" validate:"required,max=1000"`
	IsCorrect  bool   `json:"is_correct"`
}

type CreateQuestionRequest struct {
	QuestionText string                 `json:"question_text" validate:"required,max=2000"`
	QuestionType models.QuestionType    `json:"question_type" validate:"omitempty,question_type"`
	Difficulty   models.DifficultyLevel `json:"difficulty" validate:"omitempty,difficulty_level"`
	Topic        *string                `json:"topic" validate:"omitempty,max=100"`
	Options      []CreateOptionRequest  `json:"options" validate:"required,min=2,max=6,dive"`
}

type CreateExamRequest struct {
	Title           string                  `json:"title" validate:"required,exam_title"`
	Description     *string                 `json:"description" validate:"omitempty,exam_description"`
	SubjectName     string                  `json:"subject_name" validate:"required,max=100"`
	DurationMinutes int                     `json:"duration_minutes" validate:"required,exam_duration"`
	DifficultyLevel models.DifficultyLevel  `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	Questions       []CreateQuestionRequest `json:"questions" validate:"omitempty,dive"`
}

type UpdateExamRequest struct {
	Title           *string                 `json:"title" validate:"omitempty,exam_title"`
	Description     *string                 `json:"description" validate:"omitempty,exam_description"`
	SubjectName     *string                 `json:"subject_name" validate:"omitempty,max=100"`
	DurationMinutes *int                    `json:"duration_minutes" validate:"omitempty,exam_duration"`
	DifficultyLevel *models.DifficultyLevel `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	IsActive        *bool                   `json:"is_active"`
}

type GenerateExamRequest struct {
	Title           string                 `json:"title" validate:"required,exam_title"`
	SubjectName     string                 `json:"subject_name" validate:"required,max=100"`
	Topic           string                 `json:"topic" validate:"required,max=200"`
	QuestionCount   int                    `json:"question_count" validate:"required,question_count"`
	DifficultyLevel models.DifficultyLevel `json:"difficulty_level" validate:"omitempty,difficulty_level"`
	DurationMinutes int                    `json:"duration_minutes" validate:"omitempty,exam_duration"`
}

type ExamListFilters struct {
	SubjectName *string
	Difficulty  *models.DifficultyLevel
	Limit       int
	Offset      int
}

// ===== SERVICE INTERFACES =====

type AttemptService interface {
	Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error)
	SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, studentID string) error
	Finish(ctx context.Context, attemptID uint, req *FinishAttemptRequest, studentID string) (*AttemptResponse, error)

	GetResults(ctx context.Context, attemptID uint, studentID string) (*AttemptResultsResponse, error)
	GetByStudent(ctx context.Context, studentID string, filters AttemptListFilters) ([]AttemptResponse, error)
	GetByExam(ctx context.Context, examID uint, teacherID string, filters AttemptListFilters) ([]AttemptResponse, error)

	Delete(ctx context.Context, attemptID uint) error
}

type ExamService interface {
	Create(ctx context.Context, req *CreateExamRequest, teacherID string) (*models.Exam, error)
	Update(ctx context.Context, examID uint, req *UpdateExamRequest, teacherID string) (*models.Exam, error)
	Delete(ctx context.Context, examID uint, teacherID string) error

	GetByID(ctx context.Context, examID uint, userID string, role models.UserRole) (*models.Exam, error)
	ListPublished(ctx context.Context, filters ExamListFilters) ([]models.Exam, error)
	ListByTeacher(ctx context.Context, teacherID string, filters ExamListFilters) ([]models.Exam, error)

	Publish(ctx context.Context, examID uint, teacherID string) error
	Unpublish(ctx context.Context, examID uint, teacherID string) error

	GenerateWithAI(ctx context.Context, req *GenerateExamRequest, teacherID string) (*models.Exam, error)
	GetStats(ctx context.Context, examID uint, teacherID string) (*models.ExamStats, error)
}

// FeedbackService coordinates the post-completion feedback pipeline.
type FeedbackService interface {
	// GenerateForAttempt runs the whole pipeline for one completed attempt.
	// Generation failures never propagate; only invariant violations a
	// caller could act on are returned.
	GenerateForAttempt(ctx context.Context, attemptID uint) error

	GetByAttempt(ctx context.Context, attemptID uint, studentID string) (*FeedbackResponse, error)
}

type ExportService interface {
	// ExportExamResults renders the exam's attempts to an xlsx workbook and
	// returns the bytes plus a suggested filename.
	ExportExamResults(ctx context.Context, examID uint, teacherID string) ([]byte, string, error)
}

type NotificationEventService interface {
	NotifyFeedbackGenerated(ctx context.Context, attempt *models.ExamAttempt, examTitle, feedbackText string, resources []string) error
	NotifyExamPublished(ctx context.Context, exam *models.Exam) error
}
