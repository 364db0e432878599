package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/ai"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type feedbackService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	generator    *ai.Generator
	notification NotificationEventService
}

func NewFeedbackService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, generator *ai.Generator, notification NotificationEventService) FeedbackService {
	return &feedbackService{
		repo:         repo,
		db:           db,
		logger:       logger,
		generator:    generator,
		notification: notification,
	}
}

// GenerateForAttempt builds AI feedback for one completed attempt. Attempts
// with no answers are skipped, attempts that already have feedback keep the
// one they have. Generation itself cannot fail: the generator falls back to
// canned content on any AI error.
func (s *feedbackService) GenerateForAttempt(ctx context.Context, attemptID uint) error {
	s.logger.Info("Generating feedback for attempt", "attempt_id", attemptID)

	attempt, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	exists, err := s.repo.Feedback().ExistsForAttempt(ctx, s.db, attemptID)
	if err != nil {
		return fmt.Errorf("failed to check existing feedback: %w", err)
	}
	if exists {
		s.logger.Info("Feedback already exists for attempt, skipping", "attempt_id", attemptID)
		return nil
	}

	answers, err := s.repo.Answer().GetByAttemptWithQuestions(ctx, s.db, attemptID)
	if err != nil {
		return fmt.Errorf("failed to get answers: %w", err)
	}
	if len(answers) == 0 {
		s.logger.Warn("Attempt has no answers, skipping feedback generation",
			"attempt_id", attemptID,
			"student_id", attempt.StudentID)
		return nil
	}

	exam, err := s.repo.Exam().GetByID(ctx, s.db, attempt.ExamID)
	if err != nil {
		return fmt.Errorf("failed to get exam: %w", err)
	}

	summaries := make([]ai.AnswerSummary, 0, len(answers))
	for _, answer := range answers {
		isCorrect := answer.IsCorrect != nil && *answer.IsCorrect
		summaries = append(summaries, ai.AnswerSummary{
			QuestionID:       answer.QuestionID,
			QuestionText:     answer.Question.QuestionText,
			IsCorrect:        isCorrect,
			TimeSpentSeconds: answer.TimeSpentSeconds,
		})
	}

	content := s.generator.GenerateFeedback(ctx, exam.Title, attempt.Score, summaries)

	feedback, err := s.buildFeedbackRecord(attempt, content)
	if err != nil {
		return fmt.Errorf("failed to build feedback record: %w", err)
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Feedback().Create(ctx, nil, feedback)
	})
	if err != nil {
		return fmt.Errorf("failed to save feedback: %w", err)
	}

	s.logger.Info("Feedback generated for attempt",
		"attempt_id", attemptID,
		"student_id", attempt.StudentID,
		"feedback_id", feedback.ID)

	// Notification failure never undoes the stored feedback
	if s.notification != nil {
		if err := s.notification.NotifyFeedbackGenerated(ctx, attempt, exam.Title, content.FeedbackText, content.RecommendedResources); err != nil {
			s.logger.Error("Failed to publish feedback generated event",
				"attempt_id", attemptID,
				"error", err)
		}
	}

	return nil
}

func (s *feedbackService) buildFeedbackRecord(attempt *models.ExamAttempt, content *ai.FeedbackContent) (*models.AIFeedback, error) {
	improvementAreas, err := encodeStringList(content.ImprovementAreas)
	if err != nil {
		return nil, err
	}
	strengths, err := encodeStringList(content.Strengths)
	if err != nil {
		return nil, err
	}
	resources, err := encodeStringList(content.RecommendedResources)
	if err != nil {
		return nil, err
	}

	return &models.AIFeedback{
		AttemptID:            attempt.ID,
		StudentID:            attempt.StudentID,
		FeedbackText:         content.FeedbackText,
		ImprovementAreas:     improvementAreas,
		Strengths:            strengths,
		RecommendedResources: resources,
		GeneratedAt:          time.Now(),
	}, nil
}

func (s *feedbackService) GetByAttempt(ctx context.Context, attemptID uint, studentID string) (*FeedbackResponse, error) {
	if _, err := s.repo.Attempt().GetOwnedBy(ctx, s.db, attemptID, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	feedback, err := s.repo.Feedback().GetByAttempt(ctx, s.db, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrFeedbackNotFound
		}
		return nil, fmt.Errorf("failed to get feedback: %w", err)
	}

	return buildFeedbackResponse(feedback)
}
