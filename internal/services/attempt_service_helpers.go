package services

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/QuizHub-2025/quiz-service/internal/models"
)

func (s *attemptService) buildAttemptResponse(ctx context.Context, attempt *models.ExamAttempt, examTitle string) *AttemptResponse {
	if examTitle == "" && attempt.Exam.ID != 0 {
		examTitle = attempt.Exam.Title
	}

	// Best effort; a cache/db hiccup here should not fail the request
	answeredCount, err := s.repo.Answer().CountByAttempt(ctx, s.db, attempt.ID)
	if err != nil {
		s.logger.Warn("Failed to count answers for attempt",
			"attempt_id", attempt.ID,
			"error", err)
		answeredCount = 0
	}

	return &AttemptResponse{
		ID:               attempt.ID,
		ExamID:           attempt.ExamID,
		ExamTitle:        examTitle,
		StudentID:        attempt.StudentID,
		AttemptNumber:    attempt.AttemptNumber,
		StartTime:        attempt.StartTime,
		EndTime:          attempt.EndTime,
		IsCompleted:      attempt.IsCompleted,
		TotalQuestions:   attempt.TotalQuestions,
		CorrectAnswers:   attempt.CorrectAnswers,
		Score:            attempt.Score,
		TimeSpentMinutes: attempt.TimeSpentMinutes,
		AnsweredCount:    int(answeredCount),
		CanSubmitAnswers: !attempt.IsCompleted,
	}
}

// buildResultsResponse expects an attempt loaded with answers, questions,
// selected options and feedback preloaded.
func (s *attemptService) buildResultsResponse(attempt *models.ExamAttempt) (*AttemptResultsResponse, error) {
	answers := make([]AnswerResult, 0, len(attempt.Answers))
	for _, answer := range attempt.Answers {
		result := AnswerResult{
			QuestionID:       answer.QuestionID,
			QuestionText:     answer.Question.QuestionText,
			QuestionType:     answer.Question.QuestionType,
			SelectedOptionID: answer.SelectedOptionID,
			AnswerText:       answer.AnswerText,
			IsCorrect:        answer.IsCorrect,
			TimeSpentSeconds: answer.TimeSpentSeconds,
		}
		if answer.SelectedOption != nil {
			result.SelectedOptionText = &answer.SelectedOption.OptionText
		}
		answers = append(answers, result)
	}

	response := &AttemptResultsResponse{
		Attempt: AttemptResponse{
			ID:               attempt.ID,
			ExamID:           attempt.ExamID,
			ExamTitle:        attempt.Exam.Title,
			StudentID:        attempt.StudentID,
			AttemptNumber:    attempt.AttemptNumber,
			StartTime:        attempt.StartTime,
			EndTime:          attempt.EndTime,
			IsCompleted:      attempt.IsCompleted,
			TotalQuestions:   attempt.TotalQuestions,
			CorrectAnswers:   attempt.CorrectAnswers,
			Score:            attempt.Score,
			TimeSpentMinutes: attempt.TimeSpentMinutes,
			AnsweredCount:    len(attempt.Answers),
			CanSubmitAnswers: !attempt.IsCompleted,
		},
		Answers: answers,
	}

	if attempt.Feedback != nil {
		feedback, err := buildFeedbackResponse(attempt.Feedback)
		if err != nil {
			return nil, fmt.Errorf("failed to decode feedback: %w", err)
		}
		response.Feedback = feedback
	}

	return response, nil
}

func buildFeedbackResponse(feedback *models.AIFeedback) (*FeedbackResponse, error) {
	improvementAreas, err := decodeStringList(feedback.ImprovementAreas)
	if err != nil {
		return nil, fmt.Errorf("improvement areas: %w", err)
	}
	strengths, err := decodeStringList(feedback.Strengths)
	if err != nil {
		return nil, fmt.Errorf("strengths: %w", err)
	}
	resources, err := decodeStringList(feedback.RecommendedResources)
	if err != nil {
		return nil, fmt.Errorf("recommended resources: %w", err)
	}

	return &FeedbackResponse{
		FeedbackText:         feedback.FeedbackText,
		ImprovementAreas:     improvementAreas,
		Strengths:            strengths,
		RecommendedResources: resources,
		GeneratedAt:          feedback.GeneratedAt,
	}, nil
}

func decodeStringList(raw datatypes.JSON) ([]string, error) {
	if len(raw) == 0 {
		return []string{}, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func encodeStringList(list []string) (datatypes.JSON, error) {
	if list == nil {
		list = []string{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
