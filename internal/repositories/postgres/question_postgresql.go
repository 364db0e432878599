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

type QuestionPostgreSQL struct {
	db           *gorm.DB
	cacheManager *cache.CacheManager
}

func NewQuestionPostgreSQL(db *gorm.DB, redisClient *redis.Client) repositories.QuestionRepository {
	return &QuestionPostgreSQL{
		db:           db,
		cacheManager: cache.NewCacheManager(redisClient),
	}
}

func (q *QuestionPostgreSQL) getDB(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return q.db
}

func (q *QuestionPostgreSQL) Create(ctx context.Context, tx *gorm.DB, question *models.Question) error {
	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(question).Error; err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	return nil
}

// CreateBatch inserts questions with their options in one call; gorm cascades
// the Options association on create.
func (q *QuestionPostgreSQL) CreateBatch(ctx context.Context, tx *gorm.DB, questions []models.Question) error {
	if len(questions) == 0 {
		return nil
	}

	db := q.getDB(tx)
	if err := db.WithContext(ctx).Create(&questions).Error; err != nil {
		return fmt.Errorf("failed to create questions: %w", err)
	}
	return nil
}

func (q *QuestionPostgreSQL) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	db := q.getDB(tx)
	cacheKey := fmt.Sprintf("id:%d", id)
	var question models.Question

	err := q.cacheManager.Question.CacheOrExecute(ctx, cacheKey, &question, cache.QuestionCacheConfig.TTL, func() (interface{}, error) {
		var dbQuestion models.Question
		if err := db.WithContext(ctx).
			Preload("Options", func(db *gorm.DB) *gorm.DB {
				return db.Order("question_options.option_order ASC")
			}).
			First(&dbQuestion, id).Error; err != nil {
			return nil, err
		}
		return &dbQuestion, nil
	})

	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (q *QuestionPostgreSQL) GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error) {
	db := q.getDB(tx)
	var questions []models.Question
	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("question_options.option_order ASC")
		}).
		Order("id ASC").
		Find(&questions).Error; err != nil {
		return nil, fmt.Errorf("failed to get questions by exam: %w", err)
	}
	return questions, nil
}

func (q *QuestionPostgreSQL) Delete(ctx context.Context, tx *gorm.DB, id uint) error {
	db := q.getDB(tx)

	if err := db.WithContext(ctx).
		Where("question_id = ?", id).
		Delete(&models.QuestionOption{}).Error; err != nil {
		return fmt.Errorf("failed to delete question options: %w", err)
	}

	if err := db.WithContext(ctx).Delete(&models.Question{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}

	cache.SafeDelete(ctx, q.cacheManager.Question, fmt.Sprintf("id:%d", id))
	return nil
}

func (q *QuestionPostgreSQL) DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error {
	db := q.getDB(tx)

	subQuery := db.WithContext(ctx).Model(&models.Question{}).Select("id").Where("exam_id = ?", examID)
	if err := db.WithContext(ctx).
		Where("question_id IN (?)", subQuery).
		Delete(&models.QuestionOption{}).Error; err != nil {
		return fmt.Errorf("failed to delete options by exam: %w", err)
	}

	if err := db.WithContext(ctx).
		Where("exam_id = ?", examID).
		Delete(&models.Question{}).Error; err != nil {
		return fmt.Errorf("failed to delete questions by exam: %w", err)
	}

	return nil
}

func (q *QuestionPostgreSQL) CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error) {
	db := q.getDB(tx)
	var count int64
	err := db.WithContext(ctx).
		Model(&models.Question{}).
		Where("exam_id = ?", examID).
		Count(&count).Error
	return count, err
}

func (q *QuestionPostgreSQL) GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error) {
	db := q.getDB(tx)
	var option models.QuestionOption
	if err := db.WithContext(ctx).First(&option, optionID).Error; err != nil {
		return nil, err
	}
	return &option, nil
}
