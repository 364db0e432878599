package services

import (
	"math"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

// CountCorrectAnswers counts answers evaluated as correct. Unevaluated
// answers (IsCorrect == nil) count as incorrect.
func CountCorrectAnswers(answers []models.StudentAnswer) int {
	correct := 0
	for _, answer := range answers {
		if answer.IsCorrect != nil && *answer.IsCorrect {
			correct++
		}
	}
	return correct
}

// CalculateScore returns the percentage score rounded half-away-from-zero to
// two decimals. A zero-question exam scores 0, not NaN.
func CalculateScore(correctAnswers, totalQuestions int) float64 {
	if totalQuestions <= 0 {
		return 0
	}

	score := (float64(correctAnswers) / float64(totalQuestions)) * 100
	return math.Round(score*100) / 100
}
