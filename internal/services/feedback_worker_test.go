package services

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/QuizHub-2025/quiz-service/internal/events"
)

type recordingFeedbackService struct {
	generated chan uint
}

func (r *recordingFeedbackService) GenerateForAttempt(ctx context.Context, attemptID uint) error {
	r.generated <- attemptID
	return nil
}

func (r *recordingFeedbackService) GetByAttempt(ctx context.Context, attemptID uint, studentID string) (*FeedbackResponse, error) {
	return nil, ErrFeedbackNotFound
}

func TestFeedbackWorker_ProcessesAttemptCompletedEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pubsub := events.NewGoChannelPubSub(logger)
	defer pubsub.Close()

	feedback := &recordingFeedbackService{generated: make(chan uint, 1)}
	worker := NewFeedbackWorker(pubsub, feedback, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	publisher := events.NewEventPublisher(pubsub, logger)
	event := events.NewEvent(events.AttemptCompletedEvent, events.AttemptCompletedData{
		AttemptID: 42,
		ExamID:    7,
		StudentID: "student-1",
		Score:     75,
	})
	if err := publisher.Publish(ctx, events.AttemptsTopic, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	select {
	case attemptID := <-feedback.generated:
		if attemptID != 42 {
			t.Errorf("expected feedback generation for attempt 42, got %d", attemptID)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("worker never processed the event")
	}
}

func TestFeedbackWorker_IgnoresOtherEventTypes(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	pubsub := events.NewGoChannelPubSub(logger)
	defer pubsub.Close()

	feedback := &recordingFeedbackService{generated: make(chan uint, 1)}
	worker := NewFeedbackWorker(pubsub, feedback, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := worker.Start(ctx); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}

	publisher := events.NewEventPublisher(pubsub, logger)
	event := events.NewEvent(events.ExamPublishedEvent, events.ExamPublishedData{ExamID: 1})
	if err := publisher.Publish(ctx, events.AttemptsTopic, event); err != nil {
		t.Fatalf("failed to publish event: %v", err)
	}

	select {
	case attemptID := <-feedback.generated:
		t.Fatalf("worker should ignore non-attempt events, generated for %d", attemptID)
	case <-time.After(200 * time.Millisecond):
	}
}
