package postgres

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/QuizHub-2025/quiz-service/internal/cache"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type AnswerPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewAnswerPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.AnswerRepository {
	return &AnswerPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (a *AnswerPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return a.db
}

// Upsert keeps one answer per (attempt, question). The conflict clause
// resolves on the unique index itself, so two racing first submissions both
// succeed and the last write wins.
func (a *AnswerPostgreSQL) Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	db := a.getDB(tx)

	err := db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"selected_option_id",
			"answer_text",
			"is_correct",
			"time_spent_seconds",
			"updated_at",
		}),
	}).Create(answer).Error
	if err != nil {
		return fmt.Errorf("failed to upsert answer: %w", err)
	}
	return nil
}

func (a *AnswerPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []models.StudentAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers by attempt: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) GetByAttemptWithQuestions(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error) {
	db := a.getDB(tx)
	var answers []models.StudentAnswer
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Preload("Question").
		Preload("SelectedOption").
		Order("question_id ASC").
		Find(&answers).Error; err != nil {
		return nil, fmt.Errorf("failed to get answers with questions: %w", err)
	}
	return answers, nil
}

func (a *AnswerPostgreSQL) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	db := a.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.StudentAnswer{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error
	return count, err
}

func (a *AnswerPostgreSQL) DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	db := a.getDB(tx)
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Delete(&models.StudentAnswer{}).Error; err != nil {
		return fmt.Errorf("failed to delete answers by attempt: %w", err)
	}
	return nil
}
