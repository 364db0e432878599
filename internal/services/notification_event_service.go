package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/QuizHub-2025/quiz-service/internal/events"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type notificationEventService struct {
	repo      repositories.Repository
	publisher events.EventPublisher
	logger    *slog.Logger
}

func NewNotificationEventService(repo repositories.Repository, publisher events.EventPublisher, logger *slog.Logger) NotificationEventService {
	return &notificationEventService{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
	}
}

func (s *notificationEventService) NotifyFeedbackGenerated(ctx context.Context, attempt *models.ExamAttempt, examTitle, feedbackText string, resources []string) error {
	if s.publisher == nil {
		return nil
	}

	// The downstream notification service wants the student's email; resolve
	// it here so consumers don't need a user lookup of their own.
	studentEmail := ""
	if student, err := s.repo.User().GetByID(ctx, attempt.StudentID); err != nil {
		s.logger.Warn("Failed to resolve student email for notification",
			"student_id", attempt.StudentID,
			"error", err)
	} else {
		studentEmail = student.Email
	}

	event := events.NewEvent(events.FeedbackGeneratedEvent, events.FeedbackGeneratedData{
		AttemptID:            attempt.ID,
		ExamID:               attempt.ExamID,
		StudentID:            attempt.StudentID,
		StudentEmail:         studentEmail,
		ExamTitle:            examTitle,
		Score:                attempt.Score,
		FeedbackText:         feedbackText,
		RecommendedResources: resources,
	})

	if err := s.publisher.Publish(ctx, events.NotificationsTopic, event); err != nil {
		return fmt.Errorf("failed to publish feedback generated event: %w", err)
	}

	s.logger.Info("Feedback generated event published",
		"attempt_id", attempt.ID,
		"student_id", attempt.StudentID)

	return nil
}

func (s *notificationEventService) NotifyExamPublished(ctx context.Context, exam *models.Exam) error {
	if s.publisher == nil {
		return nil
	}

	event := events.NewEvent(events.ExamPublishedEvent, events.ExamPublishedData{
		ExamID:    exam.ID,
		TeacherID: exam.TeacherID,
		Title:     exam.Title,
	})

	if err := s.publisher.Publish(ctx, events.NotificationsTopic, event); err != nil {
		return fmt.Errorf("failed to publish exam published event: %w", err)
	}

	s.logger.Info("Exam published event published",
		"exam_id", exam.ID,
		"teacher_id", exam.TeacherID)

	return nil
}
