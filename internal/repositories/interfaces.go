package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

// IsNotFoundError reports whether err means "row does not exist". Services
// use this to map storage misses onto their own sentinel errors.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

// ErrAlreadyCompleted is returned by CompleteAttempt when no row transitions.
var ErrAlreadyCompleted = errors.New("attempt already completed")

// ExamFilters narrows exam listings.
type ExamFilters struct {
	SubjectName *string
	Difficulty  *models.DifficultyLevel
	IsPublished *bool
	Limit       int
	Offset      int
}

// AttemptFilters narrows attempt listings.
type AttemptFilters struct {
	IsCompleted *bool
	StudentID   *string
	Limit       int
	Offset      int
}

// All repository methods accept an optional tx; nil means "use the root
// connection". Passing the tx keeps multi-entity writes atomic without
// widening the interface.

type ExamRepository interface {
	Create(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error)
	Update(ctx context.Context, tx *gorm.DB, exam *models.Exam) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, tx *gorm.DB, id uint) error

	ListPublished(ctx context.Context, tx *gorm.DB, filters ExamFilters) ([]models.Exam, error)
	ListByTeacher(ctx context.Context, tx *gorm.DB, teacherID string, filters ExamFilters) ([]models.Exam, error)

	GetStats(ctx context.Context, tx *gorm.DB, examID uint) (*models.ExamStats, error)
}

type QuestionRepository interface {
	Create(ctx context.Context, tx *gorm.DB, question *models.Question) error
	CreateBatch(ctx context.Context, tx *gorm.DB, questions []models.Question) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint) ([]models.Question, error)
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
	DeleteByExam(ctx context.Context, tx *gorm.DB, examID uint) error

	CountByExam(ctx context.Context, tx *gorm.DB, examID uint) (int64, error)
	GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error)
}

type AttemptRepository interface {
	Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error
	GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)
	GetByIDWithDetails(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error)

	// GetOwnedBy returns the attempt only when it belongs to the student.
	GetOwnedBy(ctx context.Context, tx *gorm.DB, id uint, studentID string) (*models.ExamAttempt, error)

	GetByStudent(ctx context.Context, tx *gorm.DB, studentID string, filters AttemptFilters) ([]models.ExamAttempt, error)
	GetByExam(ctx context.Context, tx *gorm.DB, examID uint, filters AttemptFilters) ([]models.ExamAttempt, error)

	GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (int, error)

	// CompleteAttempt flips is_completed with a conditional update. It fails
	// with ErrAlreadyCompleted when the row was already completed, so under
	// concurrency exactly one caller wins.
	CompleteAttempt(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error

	// Delete removes the attempt plus its answers and feedback.
	Delete(ctx context.Context, tx *gorm.DB, id uint) error
}

type AnswerRepository interface {
	// Upsert writes the answer for (attempt, question), replacing any prior
	// one. Concurrent writers resolve on the unique index; last write wins.
	Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error)
	GetByAttemptWithQuestions(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error)
	CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error)
	DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error
}

type FeedbackRepository interface {
	Create(ctx context.Context, tx *gorm.DB, feedback *models.AIFeedback) error
	GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (*models.AIFeedback, error)
	ExistsForAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error)
	DeleteByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	List(ctx context.Context) ([]models.User, error)
}
