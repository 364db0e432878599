package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

type FeedbackPostgreSQL struct {
	db *gorm.DB
}

func NewFeedbackPostgreSQL(db *gorm.DB) repositories.FeedbackRepository {
	return &FeedbackPostgreSQL{db: db}
}

func (f *FeedbackPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return f.db
}

func (f *FeedbackPostgreSQL) Create(ctx context.Context, tx *gorm.DB, feedback *models.AIFeedback) error {
	db := f.getDB(tx)
	if err := db.WithContext(ctx).Create(feedback).Error; err != nil {
		return fmt.Errorf("failed to create feedback: %w", err)
	}
	return nil
}

func (f *FeedbackPostgreSQL) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AIFeedback, error) {
	db := f.getDB(tx)
	var feedback models.AIFeedback
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		First(&feedback).Error; err != nil {
		return nil, err
	}
	return &feedback, nil
}

func (f *FeedbackPostgreSQL) ExistsForAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error) {
	db := f.getDB(tx)
	var count int64
	if err := db.WithContext(ctx).
		Model(&models.AIFeedback{}).
		Where("attempt_id = ?", attemptID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (f *FeedbackPostgreSQL) DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error {
	db := f.getDB(tx)
	if err := db.WithContext(ctx).
		Where("attempt_id = ?", attemptID).
		Delete(&models.AIFeedback{}).Error; err != nil {
		return fmt.Errorf("failed to delete feedback by attempt: %w", err)
	}
	return nil
}
