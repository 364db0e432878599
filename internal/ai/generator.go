package ai

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// FeedbackContent is the result of feedback generation, AI or fallback.
type FeedbackContent struct {
	FeedbackText         string   `json:"feedbackText"`
	ImprovementAreas     []string `json:"improvementAreas"`
	Strengths            []string `json:"strengths"`
	RecommendedResources []string `json:"recommendedResources"`
}

// AnswerSummary is what the generator knows about one answered question.
type AnswerSummary struct {
	QuestionID       uint
	QuestionText     string
	IsCorrect        bool
	TimeSpentSeconds int
}

// GeneratedQuestion is one AI-authored (or placeholder) question.
type GeneratedQuestion struct {
	QuestionText  string   `json:"questionText"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Difficulty    string   `json:"difficulty"`
	Topic         string   `json:"topic"`
}

const generationTimeout = 30 * time.Second

// Generator produces feedback and question sets. When the text provider is
// nil or misbehaves in any way, deterministic fallback content is returned
// instead; Generate methods never return an error.
type Generator struct {
	provider TextGenerator
	logger   *slog.Logger
}

func NewGenerator(provider TextGenerator, logger *slog.Logger) *Generator {
	return &Generator{
		provider: provider,
		logger:   logger,
	}
}

// Available reports whether a text provider is configured.
func (g *Generator) Available() bool {
	return g.provider != nil
}

// GenerateFeedback returns AI feedback for the attempt, or the score-band
// fallback when the provider is unavailable or returns anything unusable.
func (g *Generator) GenerateFeedback(ctx context.Context, examTitle string, score float64, summaries []AnswerSummary) *FeedbackContent {
	if g.provider == nil {
		return FallbackFeedback(score)
	}

	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	response, err := g.provider.GenerateText(ctx, feedbackSystemPrompt, buildFeedbackPrompt(examTitle, score, summaries))
	if err != nil {
		g.logger.Warn("AI feedback generation failed, using fallback",
			"error", err,
			"exam_title", examTitle)
		return FallbackFeedback(score)
	}

	content, err := parseFeedbackResponse(response)
	if err != nil {
		g.logger.Warn("AI feedback response unusable, using fallback",
			"error", err)
		return FallbackFeedback(score)
	}

	return content
}

func parseFeedbackResponse(response string) (*FeedbackContent, error) {
	var content FeedbackContent
	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &content); err != nil {
		return nil, err
	}

	if content.FeedbackText == "" {
		return nil, errMissingField("feedbackText")
	}
	if len(content.ImprovementAreas) == 0 {
		return nil, errMissingField("improvementAreas")
	}
	if len(content.Strengths) == 0 {
		return nil, errMissingField("strengths")
	}
	if len(content.RecommendedResources) == 0 {
		return nil, errMissingField("recommendedResources")
	}

	return &content, nil
}

// GenerateQuestions returns an AI-authored question set, or placeholder
// questions when the provider is unavailable or returns anything unusable.
func (g *Generator) GenerateQuestions(ctx context.Context, topic string, count int, difficulty string) []GeneratedQuestion {
	if g.provider == nil {
		return FallbackQuestions(topic, count, difficulty)
	}

	ctx, cancel := context.WithTimeout(ctx, generationTimeout)
	defer cancel()

	response, err := g.provider.GenerateText(ctx, questionsSystemPrompt, buildQuestionsPrompt(topic, count, difficulty))
	if err != nil {
		g.logger.Warn("AI question generation failed, using fallback",
			"error", err,
			"topic", topic)
		return FallbackQuestions(topic, count, difficulty)
	}

	questions, err := parseQuestionsResponse(response)
	if err != nil {
		g.logger.Warn("AI questions response unusable, using fallback",
			"error", err,
			"topic", topic)
		return FallbackQuestions(topic, count, difficulty)
	}

	return questions
}

func parseQuestionsResponse(response string) ([]GeneratedQuestion, error) {
	var wrapper struct {
		Questions []GeneratedQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(cleanJSONResponse(response)), &wrapper); err != nil {
		return nil, err
	}

	if len(wrapper.Questions) == 0 {
		return nil, errMissingField("questions")
	}

	for _, q := range wrapper.Questions {
		if q.QuestionText == "" || len(q.Options) != 4 {
			return nil, errMalformedQuestion
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return nil, errMalformedQuestion
		}
	}

	return wrapper.Questions, nil
}
