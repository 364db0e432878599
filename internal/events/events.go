package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the service.
const (
	AttemptCompletedEvent  = "attempt.completed"
	FeedbackGeneratedEvent = "feedback.generated"
	ExamPublishedEvent     = "exam.published"
)

// Topic names. The gochannel transport keys subscriptions by topic; the Kafka
// publisher maps them 1:1 to Kafka topics.
const (
	AttemptsTopic      = "quiz.attempts"
	NotificationsTopic = "quiz.notifications"
)

// Event is the envelope for everything the service publishes.
type Event struct {
	ID        string      `json:"id"`
	Type      string      `json:"type"`
	Source    string      `json:"source"`
	Version   string      `json:"version"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// NewEvent builds an envelope with a fresh ID and timestamp.
func NewEvent(eventType string, data interface{}) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Source:    "quiz-service",
		Version:   "1.0",
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// AttemptCompletedData rides on attempt.completed and carries everything the
// feedback worker needs to start generation.
type AttemptCompletedData struct {
	AttemptID uint    `json:"attempt_id"`
	ExamID    uint    `json:"exam_id"`
	StudentID string  `json:"student_id"`
	Score     float64 `json:"score"`
}

// FeedbackGeneratedData rides on feedback.generated for the notification
// consumer (email delivery is out of process).
type FeedbackGeneratedData struct {
	AttemptID            uint     `json:"attempt_id"`
	ExamID               uint     `json:"exam_id"`
	StudentID            string   `json:"student_id"`
	StudentEmail         string   `json:"student_email,omitempty"`
	ExamTitle            string   `json:"exam_title"`
	Score                float64  `json:"score"`
	FeedbackText         string   `json:"feedback_text"`
	RecommendedResources []string `json:"recommended_resources"`
}

// ExamPublishedData rides on exam.published.
type ExamPublishedData struct {
	ExamID    uint   `json:"exam_id"`
	TeacherID string `json:"teacher_id"`
	Title     string `json:"title"`
}
