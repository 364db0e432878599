package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/cache"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type AttemptPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewAttemptPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AttemptRepository {
	return &AttemptPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AttemptPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

func (a *AttemptPostgreSQL) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	db := a.getDB(tx)
	return db.WithContext(ctx).Create(attempt).Error
}

func (a *AttemptPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).
		Preload("Exam").
		Preload("Answers", func(db *gorm.DB) *gorm.DB {
			return db.Order("student_answers.question_id ASC")
		}).
		Preload("Answers.Question").
		Preload("Answers.Question.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.option_order ASC")
		}).
		Preload("Answers.SelectedOption").
		Preload("Feedback").
		First(&attempt, id).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetOwnedBy(ctx context.Context, tx *gorm.DB, id uint, studentID string) (*models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempt models.ExamAttempt
	if err := db.WithContext(ctx).
		Where("id = ? AND student_id = ?", id, studentID).
		First(&attempt).Error; err != nil {
		return nil, err
	}
	return &attempt, nil
}

func (a *AttemptPostgreSQL) GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters repositories.AttemptFilters) ([]models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempts []models.ExamAttempt

	query := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("student_id = ?", studentID)
	query = a.helpers.ApplyAttemptFilters(query, filters)
	query = a.helpers.ApplyPaginationAndSort(query, "start_time", "desc", filters.Limit, filters.Offset)

	if err := query.Preload("Exam").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by student: %w", err)
	}
	return attempts, nil
}

func (a *AttemptPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters repositories.AttemptFilters) ([]models.ExamAttempt, error) {
	db := a.getDB(tx)
	var attempts []models.ExamAttempt

	query := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ?", examID)
	query = a.helpers.ApplyAttemptFilters(query, filters)
	query = a.helpers.ApplyPaginationAndSort(query, "start_time", "desc", filters.Limit, filters.Offset)

	if err := query.Preload("Student").Find(&attempts).Error; err != nil {
		return nil, fmt.Errorf("failed to get attempts by exam: %w", err)
	}
	return attempts, nil
}

// GetNextAttemptNumber counts every prior attempt, completed or not.
func (a *AttemptPostgreSQL) GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (int, error) {
	db := a.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("exam_id = ? AND student_id = ?", examID, studentID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count attempts: %w", err)
	}
	return int(count) + 1, nil
}

// CompleteAttempt performs the one-way transition. The WHERE clause includes
// is_completed = false so concurrent finishers race on the row update itself;
// the loser sees zero rows affected.
func (a *AttemptPostgreSQL) CompleteAttempt(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	db := a.getDB(tx)

	result := db.WithContext(ctx).
		Model(&models.ExamAttempt{}).
		Where("id = ? AND is_completed = ?", id, false).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("failed to complete attempt: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		return repositories.ErrAlreadyCompleted
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, id, "")
	return nil
}

// Delete removes the attempt together with its answers and feedback. Callers
// are expected to run this inside a transaction.
func (a *AttemptPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := a.getDB(tx)

	if err := db.WithContext(ctx).
		Where("attempt_id = ?", id).
		Delete(&models.StudentAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt answers: %w", err)
	}

	if err := db.WithContext(ctx).
		Where("attempt_id = ?", id).
		Delete(&models.AIFeedback{}).Error; err != nil {
		return fmt.Errorf("failed to delete attempt feedback: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.ExamAttempt{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete attempt: %w", err)
	}

	cache.InvalidateAttemptCache(ctx, a.cacheManager, id, "")
	return nil
}
