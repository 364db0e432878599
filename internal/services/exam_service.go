package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/ai"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type examService struct {
	repo         repositories.Repository
	db           *gorm.DB
	logger       *slog.Logger
	validator    *validator.Validator
	generator    *ai.Generator
	notification NotificationEventService
}

func NewExamService(repo repositories.Repository, db *gorm.DB, logger *slog.Logger, validator *validator.Validator, generator *ai.Generator, notification NotificationEventService) ExamService {
	return &examService{
		repo:         repo,
		db:           db,
		logger:       logger,
		validator:    validator,
		generator:    generator,
		notification: notification,
	}
}

// ===== CRUD OPERATIONS =====

func (s *examService) Create(ctx context.Context, req *CreateExamRequest, teacherID string) (*models.Exam, error) {
	s.logger.Info("Creating exam",
		"title", req.Title,
		"teacher_id", teacherID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	difficulty := req.DifficultyLevel
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	exam := &models.Exam{
		Title:           req.Title,
		Description:     req.Description,
		SubjectName:     req.SubjectName,
		DurationMinutes: req.DurationMinutes,
		TotalQuestions:  len(req.Questions),
		DifficultyLevel: difficulty,
		IsActive:        true,
		TeacherID:       teacherID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Exam().Create(ctx, tx, exam); err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}

		if len(req.Questions) > 0 {
			questions := buildQuestions(exam.ID, difficulty, req.Questions)
			if err := s.repo.Question().CreateBatch(ctx, tx, questions); err != nil {
				return fmt.Errorf("failed to create questions: %w", err)
			}
			exam.Questions = questions
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Exam created",
		"exam_id", exam.ID,
		"teacher_id", teacherID,
		"question_count", len(exam.Questions))

	return exam, nil
}

func (s *examService) Update(ctx context.Context, examID uint, req *UpdateExamRequest, teacherID string) (*models.Exam, error) {
	s.logger.Info("Updating exam",
		"exam_id", examID,
		"teacher_id", teacherID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	exam, err := s.getOwnedExam(ctx, examID, teacherID, "update")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Title != nil {
		fields["title"] = *req.Title
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.SubjectName != nil {
		fields["subject_name"] = *req.SubjectName
	}
	if req.DurationMinutes != nil {
		fields["duration_minutes"] = *req.DurationMinutes
	}
	if req.DifficultyLevel != nil {
		fields["difficulty_level"] = *req.DifficultyLevel
	}
	if req.IsActive != nil {
		fields["is_active"] = *req.IsActive
	}

	if len(fields) == 0 {
		return exam, nil
	}

	if err := s.repo.Exam().UpdateFields(ctx, s.db, examID, fields); err != nil {
		return nil, fmt.Errorf("failed to update exam: %w", err)
	}

	return s.repo.Exam().GetByID(ctx, s.db, examID)
}

func (s *examService) Delete(ctx context.Context, examID uint, teacherID string) error {
	s.logger.Info("Deleting exam",
		"exam_id", examID,
		"teacher_id", teacherID)

	if _, err := s.getOwnedExam(ctx, examID, teacherID, "delete"); err != nil {
		return err
	}

	stats, err := s.repo.Exam().GetStats(ctx, s.db, examID)
	if err != nil {
		return fmt.Errorf("failed to check exam attempts: %w", err)
	}
	if stats.TotalAttempts > 0 {
		return ErrExamHasAttempts
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Question().DeleteByExam(ctx, tx, examID); err != nil {
			return fmt.Errorf("failed to delete questions: %w", err)
		}
		if err := s.repo.Exam().Delete(ctx, tx, examID); err != nil {
			return fmt.Errorf("failed to delete exam: %w", err)
		}
		return nil
	})
}

// ===== QUERY OPERATIONS =====

func (s *examService) GetByID(ctx context.Context, examID uint, userID string, role models.UserRole) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByIDWithQuestions(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	// Students only ever see live exams; a draft is a 404 to them
	switch role {
	case models.RoleAdmin:
		return exam, nil
	case models.RoleTeacher:
		if exam.TeacherID == userID {
			return exam, nil
		}
	}
	if !exam.IsPublished || !exam.IsActive {
		return nil, ErrExamNotFound
	}

	stripCorrectFlags(exam)
	return exam, nil
}

// stripCorrectFlags removes answer keys before an exam reaches a student.
func stripCorrectFlags(exam *models.Exam) {
	for i := range exam.Questions {
		for j := range exam.Questions[i].Options {
			exam.Questions[i].Options[j].IsCorrect = false
		}
	}
}

func (s *examService) ListPublished(ctx context.Context, filters ExamListFilters) ([]models.Exam, error) {
	exams, err := s.repo.Exam().ListPublished(ctx, s.db, repositories.ExamFilters{
		SubjectName: filters.SubjectName,
		Difficulty:  filters.Difficulty,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list published exams: %w", err)
	}
	return exams, nil
}

func (s *examService) ListByTeacher(ctx context.Context, teacherID string, filters ExamListFilters) ([]models.Exam, error) {
	exams, err := s.repo.Exam().ListByTeacher(ctx, s.db, teacherID, repositories.ExamFilters{
		SubjectName: filters.SubjectName,
		Difficulty:  filters.Difficulty,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list teacher exams: %w", err)
	}
	return exams, nil
}

// ===== LIFECYCLE OPERATIONS =====

func (s *examService) Publish(ctx context.Context, examID uint, teacherID string) error {
	s.logger.Info("Publishing exam",
		"exam_id", examID,
		"teacher_id", teacherID)

	exam, err := s.getOwnedExam(ctx, examID, teacherID, "publish")
	if err != nil {
		return err
	}

	questionCount, err := s.repo.Question().CountByExam(ctx, s.db, examID)
	if err != nil {
		return fmt.Errorf("failed to count questions: %w", err)
	}

	if errs := s.validator.ValidateExamPublish(exam, int(questionCount)); len(errs) > 0 {
		return errs
	}

	err = s.repo.Exam().UpdateFields(ctx, s.db, examID, map[string]interface{}{
		"is_published":    true,
		"total_questions": int(questionCount),
	})
	if err != nil {
		return fmt.Errorf("failed to publish exam: %w", err)
	}

	s.logger.Info("Exam published", "exam_id", examID)

	if s.notification != nil {
		if err := s.notification.NotifyExamPublished(ctx, exam); err != nil {
			s.logger.Error("Failed to publish exam published event",
				"exam_id", examID,
				"error", err)
		}
	}

	return nil
}

func (s *examService) Unpublish(ctx context.Context, examID uint, teacherID string) error {
	s.logger.Info("Unpublishing exam",
		"exam_id", examID,
		"teacher_id", teacherID)

	if _, err := s.getOwnedExam(ctx, examID, teacherID, "unpublish"); err != nil {
		return err
	}

	err := s.repo.Exam().UpdateFields(ctx, s.db, examID, map[string]interface{}{
		"is_published": false,
	})
	if err != nil {
		return fmt.Errorf("failed to unpublish exam: %w", err)
	}

	return nil
}

// ===== AI GENERATION =====

func (s *examService) GenerateWithAI(ctx context.Context, req *GenerateExamRequest, teacherID string) (*models.Exam, error) {
	s.logger.Info("Generating exam with AI",
		"topic", req.Topic,
		"question_count", req.QuestionCount,
		"teacher_id", teacherID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	difficulty := req.DifficultyLevel
	if difficulty == "" {
		difficulty = models.DifficultyMedium
	}

	generated := s.generator.GenerateQuestions(ctx, req.Topic, req.QuestionCount, string(difficulty))

	duration := req.DurationMinutes
	if duration == 0 {
		// Two minutes per question is a reasonable default
		duration = len(generated) * 2
	}

	exam := &models.Exam{
		Title:           req.Title,
		SubjectName:     req.SubjectName,
		DurationMinutes: duration,
		TotalQuestions:  len(generated),
		DifficultyLevel: difficulty,
		IsActive:        true,
		TeacherID:       teacherID,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Exam().Create(ctx, tx, exam); err != nil {
			return fmt.Errorf("failed to create exam: %w", err)
		}

		questions := buildGeneratedQuestions(exam.ID, req.Topic, generated)
		if err := s.repo.Question().CreateBatch(ctx, tx, questions); err != nil {
			return fmt.Errorf("failed to create questions: %w", err)
		}
		exam.Questions = questions

		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("AI exam generated",
		"exam_id", exam.ID,
		"question_count", len(exam.Questions),
		"teacher_id", teacherID)

	return exam, nil
}

func (s *examService) GetStats(ctx context.Context, examID uint, teacherID string) (*models.ExamStats, error) {
	if _, err := s.getOwnedExam(ctx, examID, teacherID, "view_stats"); err != nil {
		return nil, err
	}

	stats, err := s.repo.Exam().GetStats(ctx, s.db, examID)
	if err != nil {
		return nil, fmt.Errorf("failed to get exam stats: %w", err)
	}

	stats.AverageScore = math.Round(stats.AverageScore*100) / 100
	return stats, nil
}

// ===== HELPERS =====

func (s *examService) getOwnedExam(ctx context.Context, examID uint, teacherID, action string) (*models.Exam, error) {
	exam, err := s.repo.Exam().GetByID(ctx, s.db, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrExamNotFound
		}
		return nil, fmt.Errorf("failed to get exam: %w", err)
	}

	if exam.TeacherID != teacherID {
		return nil, NewPermissionError(teacherID, examID, "exam", action, "not owned by teacher")
	}

	return exam, nil
}

func buildQuestions(examID uint, examDifficulty models.DifficultyLevel, reqs []CreateQuestionRequest) []models.Question {
	questions := make([]models.Question, 0, len(reqs))
	for _, q := range reqs {
		questionType := q.QuestionType
		if questionType == "" {
			questionType = models.MultipleChoice
		}
		difficulty := q.Difficulty
		if difficulty == "" {
			difficulty = examDifficulty
		}

		options := make([]models.QuestionOption, 0, len(q.Options))
		for i, opt := range q.Options {
			options = append(options, models.QuestionOption{
				OptionText:  opt.OptionText,
				IsCorrect:   opt.IsCorrect,
				OptionOrder: i + 1,
			})
		}

		questions = append(questions, models.Question{
			ExamID:       examID,
			QuestionText: q.QuestionText,
			QuestionType: questionType,
			Difficulty:   difficulty,
			Topic:        q.Topic,
			Options:      options,
		})
	}
	return questions
}

func buildGeneratedQuestions(examID uint, topic string, generated []ai.GeneratedQuestion) []models.Question {
	questions := make([]models.Question, 0, len(generated))
	for _, g := range generated {
		options := make([]models.QuestionOption, 0, len(g.Options))
		for i, text := range g.Options {
			options = append(options, models.QuestionOption{
				OptionText:  text,
				IsCorrect:   i == g.CorrectAnswer,
				OptionOrder: i + 1,
			})
		}

		questionTopic := g.Topic
		if questionTopic == "" {
			questionTopic = topic
		}

		questions = append(questions, models.Question{
			ExamID:       examID,
			QuestionText: g.QuestionText,
			QuestionType: models.MultipleChoice,
			Difficulty:   models.DifficultyLevel(g.Difficulty),
			Topic:        &questionTopic,
			AIGenerated:  true,
			Options:      options,
		})
	}
	return questions
}
