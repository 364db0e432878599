package services

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/ai"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
)

// mockFeedbackRepository wires just the sub-repositories the feedback
// pipeline touches.
type mockFeedbackRepository struct {
	attempt  *mockAttemptRepo
	answer   *mockAnswerRepo
	exam     *mockExamRepo
	feedback *mockFeedbackRepo
}

func (m *mockFeedbackRepository) Exam() repositories.ExamRepository         { return m.exam }
func (m *mockFeedbackRepository) Question() repositories.QuestionRepository { return nil }
func (m *mockFeedbackRepository) Attempt() repositories.AttemptRepository   { return m.attempt }
func (m *mockFeedbackRepository) Answer() repositories.AnswerRepository     { return m.answer }
func (m *mockFeedbackRepository) Feedback() repositories.FeedbackRepository { return m.feedback }
func (m *mockFeedbackRepository) User() repositories.UserRepository         { return nil }
func (m *mockFeedbackRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockFeedbackRepository) Ping(ctx context.Context) error { return nil }
func (m *mockFeedbackRepository) Close() error                   { return nil }

type mockAttemptRepo struct {
	repositories.AttemptRepository
	attempts map[uint]*models.ExamAttempt
}

func (m *mockAttemptRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	if attempt, ok := m.attempts[id]; ok {
		return attempt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockAnswerRepo struct {
	repositories.AnswerRepository
	answers map[uint][]models.StudentAnswer
}

func (m *mockAnswerRepo) GetByAttemptWithQuestions(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error) {
	return m.answers[attemptID], nil
}

type mockExamRepo struct {
	repositories.ExamRepository
	exams map[uint]*models.Exam
}

func (m *mockExamRepo) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Exam, error) {
	if exam, ok := m.exams[id]; ok {
		return exam, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type mockFeedbackRepo struct {
	repositories.FeedbackRepository
	created []*models.AIFeedback
	exists  bool
}

func (m *mockFeedbackRepo) Create(ctx context.Context, tx *gorm.DB, feedback *models.AIFeedback) error {
	m.created = append(m.created, feedback)
	return nil
}

func (m *mockFeedbackRepo) ExistsForAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (bool, error) {
	return m.exists, nil
}

type failingProvider struct{}

func (f *failingProvider) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return "", errors.New("provider unavailable")
}

func newFeedbackFixture(answers []models.StudentAnswer) (*feedbackService, *mockFeedbackRepository) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	repo := &mockFeedbackRepository{
		attempt: &mockAttemptRepo{attempts: map[uint]*models.ExamAttempt{
			1: {ID: 1, ExamID: 10, StudentID: "student-1", Score: 75, IsCompleted: true},
		}},
		answer:   &mockAnswerRepo{answers: map[uint][]models.StudentAnswer{1: answers}},
		exam:     &mockExamRepo{exams: map[uint]*models.Exam{10: {ID: 10, Title: "Algebra Basics"}}},
		feedback: &mockFeedbackRepo{},
	}

	service := &feedbackService{
		repo:      repo,
		logger:    logger,
		generator: ai.NewGenerator(&failingProvider{}, logger),
	}

	return service, repo
}

func TestGenerateForAttempt_StoresFallbackOnAIFailure(t *testing.T) {
	correct := true
	incorrect := false
	answers := []models.StudentAnswer{
		{QuestionID: 1, IsCorrect: &correct, Question: models.Question{QuestionText: "Q1"}},
		{QuestionID: 2, IsCorrect: &incorrect, Question: models.Question{QuestionText: "Q2"}},
	}

	service, repo := newFeedbackFixture(answers)

	if err := service.GenerateForAttempt(context.Background(), 1); err != nil {
		t.Fatalf("GenerateForAttempt failed: %v", err)
	}

	if len(repo.feedback.created) != 1 {
		t.Fatalf("expected exactly 1 feedback record, got %d", len(repo.feedback.created))
	}

	created := repo.feedback.created[0]
	want := ai.FallbackFeedback(75)

	if created.FeedbackText != want.FeedbackText {
		t.Errorf("expected fallback feedback text for score 75, got %q", created.FeedbackText)
	}
	if created.AttemptID != 1 || created.StudentID != "student-1" {
		t.Errorf("feedback record misattributed: %+v", created)
	}

	var resources []string
	if err := json.Unmarshal(created.RecommendedResources, &resources); err != nil {
		t.Fatalf("recommended resources not valid JSON: %v", err)
	}
	if len(resources) != 4 {
		t.Errorf("expected 4 recommended resources, got %d", len(resources))
	}
	if created.GeneratedAt.IsZero() {
		t.Error("generated_at should be set")
	}
}

func TestGenerateForAttempt_SkipsWhenNoAnswers(t *testing.T) {
	service, repo := newFeedbackFixture(nil)

	if err := service.GenerateForAttempt(context.Background(), 1); err != nil {
		t.Fatalf("GenerateForAttempt failed: %v", err)
	}

	if len(repo.feedback.created) != 0 {
		t.Errorf("expected no feedback record for attempt without answers, got %d", len(repo.feedback.created))
	}
}

func TestGenerateForAttempt_SkipsWhenFeedbackExists(t *testing.T) {
	correct := true
	service, repo := newFeedbackFixture([]models.StudentAnswer{
		{QuestionID: 1, IsCorrect: &correct, Question: models.Question{QuestionText: "Q1"}},
	})
	repo.feedback.exists = true

	if err := service.GenerateForAttempt(context.Background(), 1); err != nil {
		t.Fatalf("GenerateForAttempt failed: %v", err)
	}

	if len(repo.feedback.created) != 0 {
		t.Errorf("expected existing feedback to be kept, got %d new records", len(repo.feedback.created))
	}
}

func TestGenerateForAttempt_UnknownAttempt(t *testing.T) {
	service, _ := newFeedbackFixture(nil)

	err := service.GenerateForAttempt(context.Background(), 999)
	if !errors.Is(err, ErrAttemptNotFound) {
		t.Errorf("expected ErrAttemptNotFound, got %v", err)
	}
}
