package services

import (
	"testing"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name           string
		correctAnswers int
		totalQuestions int
		want           float64
	}{
		{name: "all correct", correctAnswers: 4, totalQuestions: 4, want: 100},
		{name: "three of four", correctAnswers: 3, totalQuestions: 4, want: 75},
		{name: "none correct", correctAnswers: 0, totalQuestions: 4, want: 0},
		{name: "repeating decimal rounds to two places", correctAnswers: 1, totalQuestions: 3, want: 33.33},
		{name: "two thirds rounds up", correctAnswers: 2, totalQuestions: 3, want: 66.67},
		{name: "one seventh", correctAnswers: 1, totalQuestions: 7, want: 14.29},
		{name: "zero questions scores zero", correctAnswers: 0, totalQuestions: 0, want: 0},
		{name: "negative total treated as zero", correctAnswers: 3, totalQuestions: -1, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScore(tt.correctAnswers, tt.totalQuestions)
			if got != tt.want {
				t.Errorf("CalculateScore(%d, %d) = %v, want %v", tt.correctAnswers, tt.totalQuestions, got, tt.want)
			}
		})
	}
}

func TestCountCorrectAnswers(t *testing.T) {
	correct := true
	incorrect := false

	answers := []models.StudentAnswer{
		{QuestionID: 1, IsCorrect: &correct},
		{QuestionID: 2, IsCorrect: &incorrect},
		{QuestionID: 3, IsCorrect: &correct},
		{QuestionID: 4, IsCorrect: nil}, // never evaluated
	}

	if got := CountCorrectAnswers(answers); got != 2 {
		t.Errorf("CountCorrectAnswers() = %d, want 2", got)
	}

	if got := CountCorrectAnswers(nil); got != 0 {
		t.Errorf("CountCorrectAnswers(nil) = %d, want 0", got)
	}
}
