package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/events"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type attemptService struct {
	repo      repositories.Repository
	db        *gorm.DB
	logger    *slog.Logger
	validator *validator.Validator
	publisher events.EventPublisher
}

func NewAttemptService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, publisher events.EventPublisher) AttemptService {
	return &attemptService{
		repo:      repo,
		db:        db,
		logger:    logger,
		validator: validator,
		publisher: publisher,
	}
}

// ===== CORE ATTEMPT OPERATIONS =====

func (s *attemptService) Start(ctx context.Context, req *StartAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Starting exam attempt",
		"exam_id", req.ExamID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// An unpublished or inactive exam is indistinguishable from a missing
	// one; students never learn it exists.
	exam, err := s.repo.Exam().GetByID(ctx, s.db, req.ExamID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}
	if !exam.IsPublished || !exam.IsActive {
		return nil, ErrExamNotFound
	}

	var attempt *models.ExamAttempt
	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		// Prior attempts count whether or not they were completed
		attemptNumber, err := txRepo.Attempt().GetNextAttemptNumber(ctx, nil, req.ExamID, studentID)
		if err != nil {
			return err
		}

		attempt = &models.ExamAttempt{
			ExamID:        req.ExamID,
			StudentID:     studentID,
			AttemptNumber: attemptNumber,
			StartTime:     time.Now(),
			// Snapshot so a later exam edit cannot change this attempt's denominator
			TotalQuestions: exam.TotalQuestions,
		}

		if err := txRepo.Attempt().Create(ctx, nil, attempt); err != nil {
			return fmt.Errorf("failed to create attempt: %w", err)
		}

		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to start attempt transaction: %w", err)
	}

	s.logger.Info("Exam attempt started",
		"attempt_id", attempt.ID,
		"exam_id", req.ExamID,
		"student_id", studentID,
		"attempt_number", attempt.AttemptNumber)

	return s.buildAttemptResponse(ctx, attempt, exam.Title), nil
}

func (s *attemptService) SubmitAnswer(ctx context.Context, attemptID uint, req *SubmitAnswerRequest, studentID string) error {
	s.logger.Info("Submitting answer",
		"attempt_id", attemptID,
		"question_id", req.QuestionID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return err
	}
	if errs := s.validator.ValidateAnswerPayload(req.SelectedOptionID, req.AnswerText); len(errs) > 0 {
		return errs
	}

	// Ownership and completion state are masked as not-found: a student
	// probing someone else's attempt learns nothing.
	attempt, err := s.repo.Attempt().GetOwnedBy(ctx, s.db, attemptID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.IsCompleted {
		return ErrAttemptNotFound
	}

	question, err := s.repo.Question().GetByID(ctx, s.db, req.QuestionID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrQuestionNotFound
		}
		return fmt.Errorf("failed to get question: %w", err)
	}
	if question.ExamID != attempt.ExamID {
		return ErrQuestionNotFound
	}

	// Correctness is decided here, at submission time, not at finish
	isCorrect := false
	if req.SelectedOptionID != nil {
		option, err := s.repo.Question().GetOption(ctx, s.db, *req.SelectedOptionID)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrInvalidOption
			}
			return fmt.Errorf("failed to get option: %w", err)
		}
		if option.QuestionID != req.QuestionID {
			return ErrInvalidOption
		}
		isCorrect = option.IsCorrect
	}
	// Free-text answers are never auto-graded; they stay incorrect

	answer := &models.StudentAnswer{
		AttemptID:        attemptID,
		QuestionID:       req.QuestionID,
		SelectedOptionID: req.SelectedOptionID,
		AnswerText:       req.AnswerText,
		IsCorrect:        &isCorrect,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Answer().Upsert(ctx, nil, answer)
	})
	if err != nil {
		return fmt.Errorf("failed to save answer: %w", err)
	}

	return nil
}

func (s *attemptService) Finish(ctx context.Context, attemptID uint, req *FinishAttemptRequest, studentID string) (*AttemptResponse, error) {
	s.logger.Info("Finishing exam attempt",
		"attempt_id", attemptID,
		"student_id", studentID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	attempt, err := s.repo.Attempt().GetOwnedBy(ctx, s.db, attemptID, studentID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}
	if attempt.IsCompleted {
		return nil, ErrAttemptAlreadyCompleted
	}

	endTime := time.Now()
	timeSpent := int(math.Round(endTime.Sub(attempt.StartTime).Minutes()))
	if req.TotalTimeSpentMinutes != nil {
		timeSpent = *req.TotalTimeSpentMinutes
	}

	err = s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		answers, err := txRepo.Answer().GetByAttempt(ctx, nil, attemptID)
		if err != nil {
			return fmt.Errorf("failed to get answers: %w", err)
		}

		correctAnswers := CountCorrectAnswers(answers)
		score := CalculateScore(correctAnswers, attempt.TotalQuestions)

		// Conditional update; a concurrent Finish loses here
		err = txRepo.Attempt().CompleteAttempt(ctx, nil, attemptID, map[string]interface{}{
			"is_completed":       true,
			"end_time":           endTime,
			"correct_answers":    correctAnswers,
			"score":              score,
			"time_spent_minutes": timeSpent,
		})
		if err != nil {
			return err
		}

		attempt.IsCompleted = true
		attempt.EndTime = &endTime
		attempt.CorrectAnswers = correctAnswers
		attempt.Score = score
		attempt.TimeSpentMinutes = timeSpent

		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrAlreadyCompleted) {
			return nil, ErrAttemptAlreadyCompleted
		}
		return nil, fmt.Errorf("failed to finish attempt: %w", err)
	}

	s.logger.Info("Exam attempt finished",
		"attempt_id", attemptID,
		"student_id", studentID,
		"score", attempt.Score,
		"correct_answers", attempt.CorrectAnswers)

	// Feedback generation is decoupled from the request: publish and move
	// on. A publish failure costs the student their feedback, never their
	// finished attempt.
	s.publishAttemptCompleted(attempt)

	examTitle := ""
	if exam, err := s.repo.Exam().GetByID(ctx, s.db, attempt.ExamID); err != nil {
		s.logger.Warn("Failed to load exam for finished attempt",
			"attempt_id", attemptID,
			"exam_id", attempt.ExamID,
			"error", err)
	} else {
		examTitle = exam.Title
	}

	return s.buildAttemptResponse(ctx, attempt, examTitle), nil
}

func (s *attemptService) publishAttemptCompleted(attempt *models.ExamAttempt) {
	if s.publisher == nil {
		return
	}

	event := events.NewEvent(events.AttemptCompletedEvent, events.AttemptCompletedData{
		AttemptID: attempt.ID,
		ExamID:    attempt.ExamID,
		StudentID: attempt.StudentID,
		Score:     attempt.Score,
	})

	if err := s.publisher.Publish(context.Background(), events.AttemptsTopic, event); err != nil {
		s.logger.Error("Failed to publish attempt completed event",
			"attempt_id", attempt.ID,
			"error", err)
	}
}

// ===== QUERY OPERATIONS =====

func (s *attemptService) GetResults(ctx context.Context, attemptID uint, studentID string) (*AttemptResultsResponse, error) {
	if _, err := s.repo.Attempt().GetOwnedBy(ctx, s.db, attemptID, studentID); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt: %w", err)
	}

	attempt, err := s.repo.Attempt().GetByIDWithDetails(ctx, s.db, attemptID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrAttemptNotFound
		}
		return nil, fmt.Errorf("failed to get attempt details: %w", err)
	}

	return s.buildResultsResponse(attempt)
}

func (s *attemptService) GetByStudent(ctx context.Context, studentID string, filters AttemptListFilters) ([]AttemptResponse, error) {
	attempts, err := s.repo.Attempt().GetByStudent(ctx, s.db, studentID, repositories.AttemptFilters{
		IsCompleted: filters.IsCompleted,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts by student: %w", err)
	}

	responses := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, *s.buildAttemptResponse(ctx, &attempts[i], attempts[i].Exam.Title))
	}
	return responses, nil
}

func (s *attemptService) GetByExam(ctx context.Context, examID uint, teacherID string, filters AttemptListFilters) ([]AttemptResponse, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, examID, "exam", "view_attempts", "not owned by teacher")
	}

	attempts, err := s.repo.Attempt().GetByExam(ctx, s.db, examID, repositories.AttemptFilters{
		IsCompleted: filters.IsCompleted,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get attempts by exam: %w", err)
	}

	responses := make([]AttemptResponse, 0, len(attempts))
	for i := range attempts {
		responses = append(responses, *s.buildAttemptResponse(ctx, &attempts[i], exam.Title))
	}
	return responses, nil
}

// Delete removes the attempt with its answers and feedback in one
// transaction. Admin/maintenance path, no ownership check.
func (s *attemptService) Delete(ctx context.Context, attemptID uint) error {
	s.logger.Info("Deleting exam attempt", "attempt_id", attemptID)

	if _, err := s.repo.Attempt().GetByID(ctx, s.db, attemptID); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("failed to get attempt: %w", err)
	}

	return s.repo.WithTransaction(ctx, func(txRepo repositories.Repository) error {
		return txRepo.Attempt().Delete(ctx, nil, attemptID)
	})
}
