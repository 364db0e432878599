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

type ExamPostgreSQL struct {
	db           *gorm.DB
	helpers      *SharedHelpers
	cacheManager *cache.CacheManager
}

func NewExamPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.ExamRepository {
	return &ExamPostgreSQL{
		db:           db,
		helpers:      NewSharedHelpers(db),
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (e *ExamPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return e.db
}

func (e *ExamPostgreSQL) Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Create(exam).Error; err != nil {
		return fmt.Errorf("failed to create exam: %w", err)
	}
	return nil
}

func (e *ExamPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var exam models.Exam

	err := e.cacheManager.Exam.CacheOrExecute(ctx, cacheKey, &exam, cache.ExamCacheConfig.TTL, func() (interface{}, error) {
		var dbExam models.Exam
		if err := db.WithContext(ctx).First(&dbExam, id).Error; err != nil {
			return nil, err
		}
		return &dbExam, nil
	})

	if err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	db := e.getDB(tx)
	var exam models.Exam
	if err := db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.id ASC")
		}).
		Preload("Questions.Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.option_order ASC")
		}).
		First(&exam, id).Error; err != nil {
		return nil, err
	}
	return &exam, nil
}

func (e *ExamPostgreSQL) Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Save(exam).Error; err != nil {
		return fmt.Errorf("failed to update exam: %w", err)
	}

	cache.InvalidateExamCache(ctx, e.cacheManager, exam.ID, exam.TeacherID)
	return nil
}

func (e *ExamPostgreSQL) UpdateFields(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("id = ?", id).
		Updates(fields).Error; err != nil {
		return fmt.Errorf("failed to update exam fields: %w", err)
	}

	cache.SafeDelete(ctx, e.cacheManager.Exam, fmt.Sprintf("id:%d", id))
	return nil
}

func (e *ExamPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := e.getDB(tx)
	if err := db.WithContext(ctx).Delete(&models.Exam{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete exam: %w", err)
	}

	cache.SafeDelete(ctx, e.cacheManager.Exam, fmt.Sprintf("id:%d", id), fmt.Sprintf("details:%d", id))
	return nil
}

func (e *ExamPostgreSQL) ListPublished(ctx context.Context, tx *gorm.DB, filters repositories.ExamFilters) ([]models.Exam, error) {
	db := e.getDB(tx)
	var exams []models.Exam

	query := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("is_published = ? AND is_active = ?", true, true)
	query = e.helpers.ApplyExamFilters(query, filters)
	query = e.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	if err := query.Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list published exams: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters repositories.ExamFilters) ([]models.Exam, error) {
	db := e.getDB(tx)
	var exams []models.Exam

	query := db.WithContext(ctx).
		Model(&models.Exam{}).
		Where("teacher_id = ?", teacherID)
	query = e.helpers.ApplyExamFilters(query, filters)
	query = e.helpers.ApplyPaginationAndSort(query, "created_at", "desc", filters.Limit, filters.Offset)

	if err := query.Find(&exams).Error; err != nil {
		return nil, fmt.Errorf("failed to list exams by teacher: %w", err)
	}
	return exams, nil
}

func (e *ExamPostgreSQL) GetStats(ctx context.Context, tx *gorm.DB, examID uint) (*models.ExamStats, error) {
	db := e.getDB(tx)
	cacheKey := fmt.Sprintf("exam:%d:stats", examID)
	var stats models.ExamStats

	err := e.cacheManager.Stats.CacheOrExecute(ctx, cacheKey, &stats, cache.StatsCacheConfig.TTL, func() (interface{}, error) {
		result := models.ExamStats{ExamID: examID}

		if err := db.WithContext(ctx).
			Model(&models.ExamAttempt{}).
			Where("exam_id = ?", examID).
			Count(&result.TotalAttempts).Error; err != nil {
			return nil, fmt.Errorf("failed to count attempts: %w", err)
		}

		if err := db.WithContext(ctx).
			Model(&models.ExamAttempt{}).
			Where("exam_id = ? AND is_completed = ?", examID, true).
			Count(&result.CompletedAttempts).Error; err != nil {
			return nil, fmt.Errorf("failed to count completed attempts: %w", err)
		}

		if result.CompletedAttempts > 0 {
			row := db.WithContext(ctx).
				Model(&models.ExamAttempt{}).
				Select("COALESCE(AVG(score), 0), COALESCE(MAX(score), 0), COALESCE(MIN(score), 0)").
				Where("exam_id = ? AND is_completed = ?", examID, true).
				Row()
			if err := row.Scan(&result.AverageScore, &result.HighestScore, &result.LowestScore); err != nil {
				return nil, fmt.Errorf("failed to aggregate scores: %w", err)
			}
		}

		return &result, nil
	})

	if err != nil {
		return nil, err
	}
	return &stats, nil
}
