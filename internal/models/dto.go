package models

import (
	"time"
)

// ExamSummary is the list-view projection of an exam.
type ExamSummary struct {
	ID              uint            `json:"id"`
	Title           string          `json:"title"`
	SubjectName     string          `json:"subject_name"`
	DurationMinutes int             `json:"duration_minutes"`
	TotalQuestions  int             `json:"total_questions"`
	DifficultyLevel DifficultyLevel `json:"difficulty_level"`
	IsPublished     bool            `json:"is_published"`
	TeacherID       string          `json:"teacher_id"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ExamStats aggregates attempt outcomes for one exam.
type ExamStats struct {
	ExamID            uint    `json:"exam_id"`
	TotalAttempts     int64   `json:"total_attempts"`
	CompletedAttempts int64   `json:"completed_attempts"`
	AverageScore      float64 `json:"average_score"`
	HighestScore      float64 `json:"highest_score"`
	LowestScore       float64 `json:"lowest_score"`
}
