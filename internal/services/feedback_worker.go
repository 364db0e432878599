package services

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/QuizHub-2025/quiz-service/internal/events"
)

// FeedbackWorker consumes attempt completion events and drives feedback
// generation. Every message is acked exactly once: a failed generation is
// logged and dropped, never redelivered.
type FeedbackWorker struct {
	subscriber message.Subscriber
	feedback   FeedbackService
	logger     *slog.Logger
}

func NewFeedbackWorker(subscriber message.Subscriber, feedback FeedbackService, logger *slog.Logger) *FeedbackWorker {
	return &FeedbackWorker{
		subscriber: subscriber,
		feedback:   feedback,
		logger:     logger,
	}
}

// Start subscribes to the attempts topic and processes events until ctx is
// canceled or the subscriber closes.
func (w *FeedbackWorker) Start(ctx context.Context) error {
	messages, err := w.subscriber.Subscribe(ctx, events.AttemptsTopic)
	if err != nil {
		return err
	}

	go w.run(ctx, messages)

	w.logger.Info("Feedback worker started", "topic", events.AttemptsTopic)
	return nil
}

func (w *FeedbackWorker) run(ctx context.Context, messages <-chan *message.Message) {
	for msg := range messages {
		w.handleMessage(ctx, msg)
		msg.Ack()
	}
	w.logger.Info("Feedback worker stopped")
}

func (w *FeedbackWorker) handleMessage(ctx context.Context, msg *message.Message) {
	// Catch-all: a panic or error in one event must not kill the worker
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Feedback worker panicked on message",
				"message_id", msg.UUID,
				"panic", r)
		}
	}()

	event, err := events.UnmarshalEvent(msg)
	if err != nil {
		w.logger.Error("Failed to unmarshal event",
			"message_id", msg.UUID,
			"error", err)
		return
	}

	if event.Type != events.AttemptCompletedEvent {
		return
	}

	var data events.AttemptCompletedData
	if err := events.DecodeEventData(event, &data); err != nil {
		w.logger.Error("Failed to decode attempt completed data",
			"event_id", event.ID,
			"error", err)
		return
	}

	if err := w.feedback.GenerateForAttempt(ctx, data.AttemptID); err != nil {
		w.logger.Error("Feedback generation failed",
			"attempt_id", data.AttemptID,
			"error", err)
	}
}
