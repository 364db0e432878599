package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

type mockExamServiceRepository struct {
	exam *examRepoStub
}

func (m *mockExamServiceRepository) Exam() repositories.ExamRepository         { return m.exam }
func (m *mockExamServiceRepository) Question() repositories.QuestionRepository { return nil }
func (m *mockExamServiceRepository) Attempt() repositories.AttemptRepository   { return nil }
func (m *mockExamServiceRepository) Answer() repositories.AnswerRepository     { return nil }
func (m *mockExamServiceRepository) Feedback() repositories.FeedbackRepository { return nil }
func (m *mockExamServiceRepository) User() repositories.UserRepository         { return nil }
func (m *mockExamServiceRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockExamServiceRepository) Ping(ctx context.Context) error { return nil }
func (m *mockExamServiceRepository) Close() error                   { return nil }

type examRepoStub struct {
	repositories.ExamRepository
	exams map[uint]*models.Exam
	stats map[uint]*models.ExamStats
}

func (e *examRepoStub) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if exam, ok := e.exams[id]; ok {
		copied := *exam
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (e *examRepoStub) GetByIDWithQuestions(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if exam, ok := e.exams[id]; ok {
		copied := *exam
		copied.Questions = make([]models.Question, len(exam.Questions))
		for i, q := range exam.Questions {
			copied.Questions[i] = q
			copied.Questions[i].Options = append([]models.QuestionOption(nil), q.Options...)
		}
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (e *examRepoStub) GetStats(ctx context.Context, tx *gorm.DB, examID uint) (*models.ExamStats, error) {
	if stats, ok := e.stats[examID]; ok {
		return stats, nil
	}
	return &models.ExamStats{ExamID: examID}, nil
}

func newExamFixture() *examService {
	exams := map[uint]*models.Exam{
		10: {
			ID:          10,
			Title:       "Algebra Basics",
			TeacherID:   "teacher-1",
			IsPublished: true,
			IsActive:    true,
			Questions: []models.Question{
				{
					ID:     1,
					ExamID: 10,
					Options: []models.QuestionOption{
						{ID: 1, QuestionID: 1, OptionText: "4", IsCorrect: true, OptionOrder: 1},
						{ID: 2, QuestionID: 1, OptionText: "5", IsCorrect: false, OptionOrder: 2},
					},
				},
			},
		},
		11: {
			ID:          11,
			Title:       "Draft Exam",
			TeacherID:   "teacher-1",
			IsPublished: false,
			IsActive:    true,
		},
	}

	repo := &mockExamServiceRepository{
		exam: &examRepoStub{
			exams: exams,
			stats: map[uint]*models.ExamStats{10: {ExamID: 10, TotalAttempts: 3}},
		},
	}

	return &examService{
		repo:      repo,
		logger:    slog.New(slog.NewTextHandler(os.Stdout, nil)),
		validator: validator.New(),
	}
}

func TestGetExam_StudentNeverSeesAnswerKey(t *testing.T) {
	service := newExamFixture()

	exam, err := service.GetByID(context.Background(), 10, "student-1", models.RoleStudent)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	for _, question := range exam.Questions {
		for _, option := range question.Options {
			if option.IsCorrect {
				t.Errorf("option %d leaks is_correct to a student", option.ID)
			}
		}
	}
}

func TestGetExam_OwnerKeepsAnswerKey(t *testing.T) {
	service := newExamFixture()

	exam, err := service.GetByID(context.Background(), 10, "teacher-1", models.RoleTeacher)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}

	if !exam.Questions[0].Options[0].IsCorrect {
		t.Error("owning teacher should see the answer key")
	}
}

func TestGetExam_DraftHiddenFromStudents(t *testing.T) {
	service := newExamFixture()

	tests := []struct {
		name    string
		userID  string
		role    models.UserRole
		wantErr error
	}{
		{name: "student", userID: "student-1", role: models.RoleStudent, wantErr: ErrExamNotFound},
		{name: "other teacher", userID: "teacher-2", role: models.RoleTeacher, wantErr: ErrExamNotFound},
		{name: "owner", userID: "teacher-1", role: models.RoleTeacher},
		{name: "admin", userID: "admin-1", role: models.RoleAdmin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.GetByID(context.Background(), 11, tt.userID, tt.role)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDeleteExam_RefusesWhenAttemptsExist(t *testing.T) {
	service := newExamFixture()

	err := service.Delete(context.Background(), 10, "teacher-1")
	if !errors.Is(err, ErrExamHasAttempts) {
		t.Errorf("expected ErrExamHasAttempts, got %v", err)
	}
}

func TestExamOwnership(t *testing.T) {
	service := newExamFixture()

	_, err := service.getOwnedExam(context.Background(), 10, "teacher-2", "update")
	var permErr *PermissionError
	if !errors.As(err, &permErr) {
		t.Fatalf("expected PermissionError, got %v", err)
	}

	_, err = service.getOwnedExam(context.Background(), 999, "teacher-1", "update")
	if !errors.Is(err, ErrExamNotFound) {
		t.Errorf("expected ErrExamNotFound for missing exam, got %v", err)
	}
}
