package services

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/QuizHub-2025/quiz-service/internal/events"
	"github.com/QuizHub-2025/quiz-service/internal/models"
	"github.com/QuizHub-2025/quiz-service/internal/repositories"
	"github.com/QuizHub-2025/quiz-service/internal/validator"
)

func TestNewAttemptService(t *testing.T) {
	type args struct {
		repo      repositories.Repository
		db        *gorm.DB
		logger    *slog.Logger
		validator *validator.Validator
		publisher events.EventPublisher
	}
	tests := []struct {
		name string
		args args
		want AttemptService
	}{
		{name: "ok"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			NewAttemptService(tt.args.repo, tt.args.db, tt.args.logger, tt.args.validator, tt.args.publisher)
		})
	}
}

// mockAttemptServiceRepository wires the sub-repositories the attempt state
// machine touches.
type mockAttemptServiceRepository struct {
	attempt  *attemptRepoStub
	answer   *answerRepoStub
	question *questionRepoStub
	exam     *examRepoStub
}

func (m *mockAttemptServiceRepository) Exam() repositories.ExamRepository         { return m.exam }
func (m *mockAttemptServiceRepository) Question() repositories.QuestionRepository { return m.question }
func (m *mockAttemptServiceRepository) Attempt() repositories.AttemptRepository   { return m.attempt }
func (m *mockAttemptServiceRepository) Answer() repositories.AnswerRepository     { return m.answer }
func (m *mockAttemptServiceRepository) Feedback() repositories.FeedbackRepository { return nil }
func (m *mockAttemptServiceRepository) User() repositories.UserRepository         { return nil }
func (m *mockAttemptServiceRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return fn(m)
}
func (m *mockAttemptServiceRepository) Ping(ctx context.Context) error { return nil }
func (m *mockAttemptServiceRepository) Close() error                   { return nil }

type attemptRepoStub struct {
	repositories.AttemptRepository
	attempts    map[uint]*models.ExamAttempt
	nextID      uint
	completeErr error
}

func (a *attemptRepoStub) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.ExamAttempt, error) {
	if attempt, ok := a.attempts[id]; ok {
		return attempt, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (a *attemptRepoStub) GetOwnedBy(ctx context.Context, tx *gorm.DB, id uint, studentID string) (*models.ExamAttempt, error) {
	attempt, ok := a.attempts[id]
	if !ok || attempt.StudentID != studentID {
		return nil, gorm.ErrRecordNotFound
	}
	return attempt, nil
}

func (a *attemptRepoStub) GetNextAttemptNumber(ctx context.Context, tx *gorm.DB, examID uint, studentID string) (int, error) {
	count := 0
	for _, attempt := range a.attempts {
		if attempt.ExamID == examID && attempt.StudentID == studentID {
			count++
		}
	}
	return count + 1, nil
}

func (a *attemptRepoStub) Create(ctx context.Context, tx *gorm.DB, attempt *models.ExamAttempt) error {
	a.nextID++
	attempt.ID = a.nextID + 100
	a.attempts[attempt.ID] = attempt
	return nil
}

func (a *attemptRepoStub) CompleteAttempt(ctx context.Context, tx *gorm.DB, id uint, fields map[string]interface{}) error {
	if a.completeErr != nil {
		return a.completeErr
	}
	attempt, ok := a.attempts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if attempt.IsCompleted {
		return repositories.ErrAlreadyCompleted
	}
	attempt.IsCompleted = true
	return nil
}

type answerKey struct {
	attemptID  uint
	questionID uint
}

// answerRepoStub mirrors the storage upsert: one row per (attempt, question),
// latest write wins.
type answerRepoStub struct {
	repositories.AnswerRepository
	answers map[answerKey]*models.StudentAnswer
	upserts int
}

func (s *answerRepoStub) Upsert(ctx context.Context, tx *gorm.DB, answer *models.StudentAnswer) error {
	s.upserts++
	copied := *answer
	s.answers[answerKey{answer.AttemptID, answer.QuestionID}] = &copied
	return nil
}

func (s *answerRepoStub) GetByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) ([]models.StudentAnswer, error) {
	var answers []models.StudentAnswer
	for key, answer := range s.answers {
		if key.attemptID == attemptID {
			answers = append(answers, *answer)
		}
	}
	return answers, nil
}

func (s *answerRepoStub) CountByAttempt(ctx context.Context, tx *gorm.DB, attemptID uint) (int64, error) {
	var count int64
	for key := range s.answers {
		if key.attemptID == attemptID {
			count++
		}
	}
	return count, nil
}

type questionRepoStub struct {
	repositories.QuestionRepository
	questions map[uint]*models.Question
	options   map[uint]*models.QuestionOption
}

func (q *questionRepoStub) GetByID(ctx context.Context, tx *gorm.DB, id uint) (*models.Question, error) {
	if question, ok := q.questions[id]; ok {
		return question, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (q *questionRepoStub) GetOption(ctx context.Context, tx *gorm.DB, optionID uint) (*models.QuestionOption, error) {
	if option, ok := q.options[optionID]; ok {
		return option, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func newAttemptFixture() (*attemptService, *mockAttemptServiceRepository, *events.MockEventPublisher) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	publisher := events.NewMockEventPublisher(logger)

	repo := &mockAttemptServiceRepository{
		attempt: &attemptRepoStub{attempts: map[uint]*models.ExamAttempt{}},
		answer:  &answerRepoStub{answers: map[answerKey]*models.StudentAnswer{}},
		question: &questionRepoStub{
			questions: map[uint]*models.Question{
				1: {ID: 1, ExamID: 10},
				2: {ID: 2, ExamID: 10},
				9: {ID: 9, ExamID: 99},
			},
			options: map[uint]*models.QuestionOption{
				1: {ID: 1, QuestionID: 1, IsCorrect: true},
				2: {ID: 2, QuestionID: 1, IsCorrect: false},
				5: {ID: 5, QuestionID: 2, IsCorrect: true},
			},
		},
		exam: &examRepoStub{exams: map[uint]*models.Exam{
			10: {ID: 10, Title: "Algebra Basics", TeacherID: "teacher-1", IsPublished: true, IsActive: true, TotalQuestions: 4},
			11: {ID: 11, Title: "Draft Exam", TeacherID: "teacher-1", IsPublished: false, IsActive: true},
		}},
	}

	service := &attemptService{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
		publisher: publisher,
	}

	return service, repo, publisher
}

func TestStartAttempt_NumbersSecondAttempt(t *testing.T) {
	service, repo, _ := newAttemptFixture()

	// The first attempt was never finished; it still counts
	repo.attempt.attempts[1] = &models.ExamAttempt{
		ID: 1, ExamID: 10, StudentID: "student-1", AttemptNumber: 1,
		StartTime: time.Now().Add(-time.Hour),
	}

	resp, err := service.Start(context.Background(), &StartAttemptRequest{ExamID: 10}, "student-1")
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	if resp.AttemptNumber != 2 {
		t.Errorf("expected attempt number 2 after an incomplete prior attempt, got %d", resp.AttemptNumber)
	}
	if resp.TotalQuestions != 4 {
		t.Errorf("expected snapshot of 4 questions, got %d", resp.TotalQuestions)
	}
	if resp.ExamTitle != "Algebra Basics" {
		t.Errorf("expected exam title in response, got %q", resp.ExamTitle)
	}
	if !resp.CanSubmitAnswers {
		t.Error("fresh attempt should accept answers")
	}
}

func TestStartAttempt_DraftExamHidden(t *testing.T) {
	service, _, _ := newAttemptFixture()

	_, err := service.Start(context.Background(), &StartAttemptRequest{ExamID: 11}, "student-1")
	if !errors.Is(err, ErrExamNotFound) {
		t.Errorf("unpublished exam should look missing to students, got %v", err)
	}
}

func TestSubmitAnswer_ResubmissionReplacesAnswer(t *testing.T) {
	service, repo, _ := newAttemptFixture()
	repo.attempt.attempts[1] = &models.ExamAttempt{ID: 1, ExamID: 10, StudentID: "student-1"}

	firstOption := uint(1)
	if err := service.SubmitAnswer(context.Background(), 1, &SubmitAnswerRequest{
		QuestionID: 1, SelectedOptionID: &firstOption,
	}, "student-1"); err != nil {
		t.Fatalf("first SubmitAnswer failed: %v", err)
	}

	secondOption := uint(2)
	if err := service.SubmitAnswer(context.Background(), 1, &SubmitAnswerRequest{
		QuestionID: 1, SelectedOptionID: &secondOption,
	}, "student-1"); err != nil {
		t.Fatalf("second SubmitAnswer failed: %v", err)
	}

	if len(repo.answer.answers) != 1 {
		t.Fatalf("resubmission must not grow the answer count, got %d rows", len(repo.answer.answers))
	}
	if repo.answer.upserts != 2 {
		t.Errorf("expected both submissions to route through Upsert, got %d calls", repo.answer.upserts)
	}

	stored := repo.answer.answers[answerKey{1, 1}]
	if stored.SelectedOptionID == nil || *stored.SelectedOptionID != secondOption {
		t.Errorf("latest submission should win, stored option %v", stored.SelectedOptionID)
	}
	if stored.IsCorrect == nil || *stored.IsCorrect {
		t.Error("switching to the wrong option should store is_correct = false")
	}
}

func TestSubmitAnswer_Masking(t *testing.T) {
	optionID := uint(1)
	wrongQuestionOption := uint(5)

	tests := []struct {
		name    string
		setup   func(repo *mockAttemptServiceRepository)
		req     *SubmitAnswerRequest
		student string
		wantErr error
	}{
		{
			name: "completed attempt looks missing",
			setup: func(repo *mockAttemptServiceRepository) {
				repo.attempt.attempts[1] = &models.ExamAttempt{ID: 1, ExamID: 10, StudentID: "student-1", IsCompleted: true}
			},
			req:     &SubmitAnswerRequest{QuestionID: 1, SelectedOptionID: &optionID},
			student: "student-1",
			wantErr: ErrAttemptNotFound,
		},
		{
			name: "someone else's attempt looks missing",
			setup: func(repo *mockAttemptServiceRepository) {
				repo.attempt.attempts[1] = &models.ExamAttempt{ID: 1, ExamID: 10, StudentID: "student-1"}
			},
			req:     &SubmitAnswerRequest{QuestionID: 1, SelectedOptionID: &optionID},
			student: "student-2",
			wantErr: ErrAttemptNotFound,
		},
		{
			name: "question from another exam",
			setup: func(repo *mockAttemptServiceRepository) {
				repo.attempt.attempts[1] = &models.ExamAttempt{ID: 1, ExamID: 10, StudentID: "student-1"}
			},
			req:     &SubmitAnswerRequest{QuestionID: 9, SelectedOptionID: &optionID},
			student: "student-1",
			wantErr: ErrQuestionNotFound,
		},
		{
			name: "option from another question",
			setup: func(repo *mockAttemptServiceRepository) {
				repo.attempt.attempts[1] = &models.ExamAttempt{ID: 1, ExamID: 10, StudentID: "student-1"}
			},
			req:     &SubmitAnswerRequest{QuestionID: 1, SelectedOptionID: &wrongQuestionOption},
			student: "student-1",
			wantErr: ErrInvalidOption,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo, _ := newAttemptFixture()
			tt.setup(repo)

			err := service.SubmitAnswer(context.Background(), 1, tt.req, tt.student)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
			if len(repo.answer.answers) != 0 {
				t.Errorf("rejected submission must not store an answer, got %d rows", len(repo.answer.answers))
			}
		})
	}
}

func TestFinishAttempt_ScoresAndPublishes(t *testing.T) {
	service, repo, publisher := newAttemptFixture()

	repo.attempt.attempts[1] = &models.ExamAttempt{
		ID: 1, ExamID: 10, StudentID: "student-1", AttemptNumber: 1,
		StartTime: time.Now().Add(-10 * time.Minute), TotalQuestions: 4,
	}

	correct := true
	incorrect := false
	repo.answer.answers[answerKey{1, 1}] = &models.StudentAnswer{AttemptID: 1, QuestionID: 1, IsCorrect: &correct}
	repo.answer.answers[answerKey{1, 2}] = &models.StudentAnswer{AttemptID: 1, QuestionID: 2, IsCorrect: &correct}
	repo.answer.answers[answerKey{1, 3}] = &models.StudentAnswer{AttemptID: 1, QuestionID: 3, IsCorrect: &correct}
	repo.answer.answers[answerKey{1, 4}] = &models.StudentAnswer{AttemptID: 1, QuestionID: 4, IsCorrect: &incorrect}

	resp, err := service.Finish(context.Background(), 1, &FinishAttemptRequest{}, "student-1")
	if err != nil {
		t.Fatalf("Finish failed: %v", err)
	}

	if !resp.IsCompleted {
		t.Error("finished attempt should be completed")
	}
	if resp.CorrectAnswers != 3 {
		t.Errorf("expected 3 correct answers, got %d", resp.CorrectAnswers)
	}
	if resp.Score != 75.00 {
		t.Errorf("expected score 75.00, got %.2f", resp.Score)
	}
	if resp.ExamTitle != "Algebra Basics" {
		t.Errorf("completion response should carry the exam title, got %q", resp.ExamTitle)
	}
	if resp.CanSubmitAnswers {
		t.Error("completed attempt must not accept answers")
	}

	published := publisher.GetPublishedEvents()
	if len(published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(published))
	}
	if published[0].Type != events.AttemptCompletedEvent {
		t.Errorf("expected %s event, got %s", events.AttemptCompletedEvent, published[0].Type)
	}
	var data events.AttemptCompletedData
	if err := events.DecodeEventData(published[0], &data); err != nil {
		t.Fatalf("failed to decode event data: %v", err)
	}
	if data.AttemptID != 1 || data.Score != 75.00 {
		t.Errorf("event carries wrong payload: %+v", data)
	}
}

func TestFinishAttempt_AlreadyCompleted(t *testing.T) {
	service, repo, publisher := newAttemptFixture()

	repo.attempt.attempts[1] = &models.ExamAttempt{
		ID: 1, ExamID: 10, StudentID: "student-1", IsCompleted: true,
		StartTime: time.Now().Add(-time.Hour),
	}

	_, err := service.Finish(context.Background(), 1, &FinishAttemptRequest{}, "student-1")
	if !errors.Is(err, ErrAttemptAlreadyCompleted) {
		t.Fatalf("expected ErrAttemptAlreadyCompleted, got %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("a refused Finish must not publish an event")
	}
}

func TestFinishAttempt_ConcurrentLoserGetsConflict(t *testing.T) {
	service, repo, publisher := newAttemptFixture()

	// The read sees an in-progress attempt but the conditional update loses
	// the race to another finisher
	repo.attempt.attempts[1] = &models.ExamAttempt{
		ID: 1, ExamID: 10, StudentID: "student-1",
		StartTime: time.Now().Add(-time.Hour), TotalQuestions: 4,
	}
	repo.attempt.completeErr = repositories.ErrAlreadyCompleted

	_, err := service.Finish(context.Background(), 1, &FinishAttemptRequest{}, "student-1")
	if !errors.Is(err, ErrAttemptAlreadyCompleted) {
		t.Fatalf("race loser should get ErrAttemptAlreadyCompleted, got %v", err)
	}
	if len(publisher.GetPublishedEvents()) != 0 {
		t.Error("the losing finisher must not publish an event")
	}
}
